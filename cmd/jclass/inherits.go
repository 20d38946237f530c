package main

import (
	"github.com/spf13/cobra"

	"github.com/daimatz/jclass/internal/explorer"
	"github.com/daimatz/jclass/pkg/inheritance"
)

var inheritsCmd = &cobra.Command{
	Use:   "inherits <class>",
	Short: "List the supertypes of a class breadth first",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := newSession(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		c, err := s.loader.Find(args[0])
		if err != nil {
			return err
		}
		g, err := inheritance.Build(c, s.loader, inheritance.WithLogger(s.logger))
		if err != nil {
			return err
		}
		return explorer.WriteInherits(cmd.OutOrStdout(), g)
	},
}

func init() {
	rootCmd.AddCommand(inheritsCmd)
}
