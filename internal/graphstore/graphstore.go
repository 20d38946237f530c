// Package graphstore writes inheritance graphs into Neo4j using batched
// UNWIND queries.
package graphstore

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/daimatz/jclass/internal/config"
	"github.com/daimatz/jclass/pkg/inheritance"
)

const (
	mergeClasses = `UNWIND $batch AS row
		 MERGE (n:JavaClass {name: row.name})
		 SET n.super = row.super, n.interface = row.interface,
		     n.source_file = row.source_file, n.major = row.major`

	mergeExtends = `UNWIND $batch AS row
		 MATCH (a:JavaClass {name: row.from}), (b:JavaClass {name: row.to})
		 MERGE (a)-[:EXTENDS]->(b)`

	mergeImplements = `UNWIND $batch AS row
		 MATCH (a:JavaClass {name: row.from}), (b:JavaClass {name: row.to})
		 MERGE (a)-[:IMPLEMENTS]->(b)`
)

var indexes = []string{
	"CREATE INDEX java_class_name IF NOT EXISTS FOR (n:JavaClass) ON (n.name)",
}

// runFunc executes one Cypher statement.
type runFunc func(ctx context.Context, cypher string, params map[string]any) error

// Store exports graphs to a Neo4j database.
type Store struct {
	driver neo4j.DriverWithContext
	run    runFunc
	logger *slog.Logger
}

// Option configures a Store.
type Option func(*Store)

func WithLogger(l *slog.Logger) Option {
	return func(s *Store) { s.logger = l }
}

// Open connects to Neo4j and returns a ready-to-use store.
func Open(ctx context.Context, cfg config.Neo4jConfig, opts ...Option) (*Store, error) {
	driver, err := neo4j.NewDriverWithContext(cfg.URI, neo4j.BasicAuth(cfg.User, cfg.Password, ""))
	if err != nil {
		return nil, fmt.Errorf("failed to create neo4j driver: %w", err)
	}
	if err := driver.VerifyConnectivity(ctx); err != nil {
		driver.Close(ctx)
		return nil, fmt.Errorf("connecting to %s: %w", cfg.URI, err)
	}

	s := newStore(func(ctx context.Context, cypher string, params map[string]any) error {
		_, err := neo4j.ExecuteQuery(ctx, driver, cypher, params, neo4j.EagerResultTransformer,
			neo4j.ExecuteQueryWithDatabase(cfg.Database))
		return err
	}, opts...)
	s.driver = driver
	return s, nil
}

func newStore(run runFunc, opts ...Option) *Store {
	s := &Store{run: run, logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Close releases the underlying driver.
func (s *Store) Close(ctx context.Context) error {
	if s.driver == nil {
		return nil
	}
	return s.driver.Close(ctx)
}

// CreateIndexes ensures the indexes used by Export exist.
func (s *Store) CreateIndexes(ctx context.Context) error {
	for _, q := range indexes {
		if err := s.run(ctx, q, nil); err != nil {
			return fmt.Errorf("creating index: %w", err)
		}
	}
	return nil
}

// Export upserts every class of g as a JavaClass node, then its EXTENDS
// and IMPLEMENTS relationships. Exporting the same graph twice leaves the
// database unchanged.
func (s *Store) Export(ctx context.Context, g *inheritance.Graph) error {
	if err := s.CreateIndexes(ctx); err != nil {
		return err
	}

	classes, err := ClassBatch(g)
	if err != nil {
		return err
	}
	s.logger.Debug("loading classes", "count", len(classes))
	if err := s.run(ctx, mergeClasses, map[string]any{"batch": classes}); err != nil {
		return fmt.Errorf("loading classes: %w", err)
	}

	for _, kind := range []inheritance.EdgeKind{inheritance.Extends, inheritance.Implements} {
		batch := EdgeBatch(g, kind)
		if len(batch) == 0 {
			continue
		}
		s.logger.Debug("loading edges", "kind", kind, "count", len(batch))
		q := mergeExtends
		if kind == inheritance.Implements {
			q = mergeImplements
		}
		if err := s.run(ctx, q, map[string]any{"batch": batch}); err != nil {
			return fmt.Errorf("loading %s edges: %w", kind, err)
		}
	}
	return nil
}

// ClassBatch builds the node rows for g in discovery order. Names use the
// dotted Java form.
func ClassBatch(g *inheritance.Graph) ([]map[string]any, error) {
	nodes := g.Nodes()
	batch := make([]map[string]any, 0, len(nodes))
	for _, c := range nodes {
		source, err := c.SourceFile()
		if err != nil {
			return nil, fmt.Errorf("%s: %w", c.Name(), err)
		}
		super := ""
		if c.HasSuper() {
			super = c.SuperName().Dotted()
		}
		major, _ := c.Version()
		batch = append(batch, map[string]any{
			"name":        c.Name().Dotted(),
			"super":       super,
			"interface":   c.IsInterface(),
			"source_file": source,
			"major":       int64(major),
		})
	}
	return batch, nil
}

// EdgeBatch builds the relationship rows of one kind in insertion order.
func EdgeBatch(g *inheritance.Graph, kind inheritance.EdgeKind) []map[string]any {
	var batch []map[string]any
	for _, e := range g.Edges() {
		if e.Kind != kind {
			continue
		}
		batch = append(batch, map[string]any{
			"from": e.From.Dotted(),
			"to":   e.To.Dotted(),
		})
	}
	return batch
}
