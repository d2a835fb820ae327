// Package main implements the tern CLI.
package main

import (
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"tern/internal/version"
)

var rootCmd = &cobra.Command{
	Use:   "tern",
	Short: "Tern backend toolchain",
	Long:  `Tern generates and links low-level IR modules for the tern compiler backend`,
}

func main() {
	rootCmd.Version = version.Version

	rootCmd.AddCommand(linkCmd)
	rootCmd.AddCommand(symbolsCmd)
	rootCmd.AddCommand(emitCmd)
	rootCmd.AddCommand(versionCmd)

	rootCmd.PersistentFlags().String("color", "auto", "colorize output (auto|on|off)")
	rootCmd.PersistentFlags().Bool("quiet", false, "suppress non-essential output")
	rootCmd.PersistentFlags().Bool("timings", false, "show timing information")

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// isTerminal reports whether f is attached to a terminal.
func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

// useColor decides color output from the --color flag and the terminal.
func useColor(cmd *cobra.Command, f *os.File) bool {
	mode, _ := cmd.Flags().GetString("color")
	switch mode {
	case "on":
		return true
	case "off":
		return false
	default:
		return isTerminal(f) && !color.NoColor
	}
}
