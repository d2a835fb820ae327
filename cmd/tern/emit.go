package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"tern/internal/codegen"
	"tern/internal/layout"
	"tern/internal/types"
)

var (
	emitOutput string
	emitModule string
)

func init() {
	emitCmd.Flags().StringVarP(&emitOutput, "output", "o", "", "write the module to a file instead of stdout")
	emitCmd.Flags().StringVar(&emitModule, "module", "generics", "module name for the emitted IR")
}

var emitCmd = &cobra.Command{
	Use:   "emit <type>...",
	Short: "Instantiate generic types and print the emitted IR module",
	Long: `Emit instantiates each requested generic type and prints one IR module
containing every method set plus the runtime prelude. Types use the surface
syntax: Maybe<i32>, Result<str, i64>, Map<i64, str>.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := codegen.NewContext(emitModule, layout.X86_64LinuxGNU())
		for _, arg := range args {
			desc, err := types.Parse(arg)
			if err != nil {
				return err
			}
			if !desc.Kind.IsGeneric() {
				return fmt.Errorf("type %s is not generic; nothing to instantiate", desc)
			}
			if _, err := ctx.Ensure(desc); err != nil {
				return err
			}
		}

		module := ctx.Module()
		if emitOutput == "" {
			fmt.Fprint(cmd.OutOrStdout(), module)
			return nil
		}
		if err := os.WriteFile(emitOutput, []byte(module), 0o644); err != nil {
			return err
		}
		quiet, _ := cmd.Flags().GetBool("quiet")
		if !quiet {
			fmt.Fprintf(cmd.OutOrStdout(), "emitted %d instances -> %s\n", len(ctx.Instances()), emitOutput)
		}
		return nil
	},
}
