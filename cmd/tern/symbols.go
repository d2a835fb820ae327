package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"tern/internal/link"
)

var symbolsPriority string

func init() {
	symbolsCmd.Flags().StringVar(&symbolsPriority, "priority", "library", "priority to assume for the module (program|library|stdlib|runtime)")
}

var symbolsCmd = &cobra.Command{
	Use:   "symbols <file.ll>",
	Short: "List linkable symbols of one IR module",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		prio, err := link.ParsePriority(symbolsPriority)
		if err != nil {
			return err
		}
		data, err := os.ReadFile(args[0])
		if err != nil {
			return err
		}
		name := strings.TrimSuffix(filepath.Base(args[0]), filepath.Ext(args[0]))
		table, err := link.Extract(string(data), name, prio)
		if err != nil {
			return err
		}

		colorize := useColor(cmd, os.Stdout)
		defLabel := func(isDef bool) string {
			if isDef {
				if colorize {
					return color.New(color.FgGreen).Sprint("define")
				}
				return "define"
			}
			if colorize {
				return color.New(color.FgYellow).Sprint("declare")
			}
			return "declare"
		}
		out := cmd.OutOrStdout()
		for _, symName := range table.Names {
			sym := table.Lookup(symName)
			fmt.Fprintf(out, "%-7s %-6s %-10s @%s\n", defLabel(sym.IsDefinition), sym.Kind, sym.Linkage, sym.Name)
		}
		fmt.Fprintf(out, "%d symbols, %d type definitions\n", len(table.Names), len(table.TypeDefs))
		return nil
	},
}
