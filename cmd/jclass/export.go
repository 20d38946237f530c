package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/daimatz/jclass/internal/graphstore"
	"github.com/daimatz/jclass/pkg/inheritance"
)

var exportCmd = &cobra.Command{
	Use:   "export <class>",
	Short: "Write the inheritance graph of a class to Neo4j",
	Long:  "Build the inheritance graph of a class and upsert it into Neo4j as JavaClass nodes with EXTENDS and IMPLEMENTS relationships.",
	Args:  cobra.ExactArgs(1),
	RunE:  runExport,
}

func init() {
	rootCmd.AddCommand(exportCmd)
}

func runExport(cmd *cobra.Command, args []string) error {
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

	ctx := cmd.Context()
	store, err := graphstore.Open(ctx, s.cfg.Neo4j, graphstore.WithLogger(s.logger))
	if err != nil {
		return err
	}
	defer store.Close(ctx)

	if err := store.Export(ctx, g); err != nil {
		return fmt.Errorf("exporting %s: %w", c.Name().Dotted(), err)
	}
	s.logger.Info("exported inheritance graph", "class", c.Name().Dotted(), "classes", g.Len(), "edges", len(g.Edges()))
	return nil
}
