package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/daimatz/jclass/internal/explorer"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect <class>...",
	Short: "Print a summary of classes",
	Long:  "Print the declaration, source file and member counts of each class, optionally with its methods, fields or disassembled code.",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runInspect,
}

func init() {
	inspectCmd.Flags().Bool("methods", false, "list methods")
	inspectCmd.Flags().Bool("fields", false, "list fields")
	inspectCmd.Flags().Bool("code", false, "disassemble method bodies")
	rootCmd.AddCommand(inspectCmd)
}

func runInspect(cmd *cobra.Command, args []string) error {
	s, err := newSession(cmd)
	if err != nil {
		return err
	}
	defer s.Close()

	methods, _ := cmd.Flags().GetBool("methods")
	fields, _ := cmd.Flags().GetBool("fields")
	code, _ := cmd.Flags().GetBool("code")
	out := cmd.OutOrStdout()

	for i, name := range args {
		if i > 0 {
			fmt.Fprintln(out)
		}
		c, err := s.loader.Find(name)
		if err != nil {
			return err
		}
		if err := explorer.WriteSummary(out, c); err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
		if fields {
			fmt.Fprintln(out, "\nFields:")
			explorer.WriteFields(out, c)
		}
		if methods {
			fmt.Fprintln(out, "\nMethods:")
			explorer.WriteMethods(out, c)
		}
		if code {
			fmt.Fprintln(out)
			if err := explorer.WriteCode(out, c); err != nil {
				return fmt.Errorf("%s: %w", name, err)
			}
		}
	}
	return nil
}
