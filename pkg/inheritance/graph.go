// Package inheritance builds the graph of superclasses and superinterfaces
// reachable from a class on a classpath.
package inheritance

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/daimatz/jclass/pkg/classfile"
	"github.com/daimatz/jclass/pkg/classloader"
	"github.com/daimatz/jclass/pkg/fqname"
)

var (
	// ErrNotFound is returned by Inherits for a class not in the graph.
	ErrNotFound = errors.New("class not in inheritance graph")

	// ErrDuplicateEdge is returned by Build when a class names the same
	// supertype twice with the same kind.
	ErrDuplicateEdge = errors.New("duplicate inheritance edge")
)

// EdgeKind says how one type inherits another.
type EdgeKind int

const (
	// Extends links a class to its superclass.
	Extends EdgeKind = iota
	// Implements links a type to a direct superinterface.
	Implements
)

func (k EdgeKind) String() string {
	switch k {
	case Extends:
		return "extends"
	case Implements:
		return "implements"
	}
	return fmt.Sprintf("EdgeKind(%d)", int(k))
}

// Edge is a directed edge from a type to one of its direct supertypes.
type Edge struct {
	From fqname.Name
	To   fqname.Name
	Kind EdgeKind
}

// Ancestor is one result of Inherits: a supertype and the kind of the edge
// through which it was first reached.
type Ancestor struct {
	Class *classfile.Class
	Kind  EdgeKind
}

// Finder resolves direct supertypes. *classloader.Loader implements it.
type Finder interface {
	FindSuper(c *classfile.Class) (*classfile.Class, error)
	FindInterfaces(c *classfile.Class) ([]*classfile.Class, error)
}

var _ Finder = (*classloader.Loader)(nil)

type node struct {
	class *classfile.Class
	out   []int // indices into Graph.edges, in insertion order
}

// Graph is an immutable inheritance graph rooted at one class. Only types
// found on the classpath appear in it.
type Graph struct {
	root  fqname.Name
	nodes map[fqname.Name]*node
	order []fqname.Name
	edges []Edge
}

// Option configures Build.
type Option func(*builder)

// WithLogger sets the logger used for debug output.
func WithLogger(l *slog.Logger) Option {
	return func(b *builder) { b.logger = l }
}

type builder struct {
	g      *Graph
	finder Finder
	logger *slog.Logger
}

// Build walks the supertypes of root through f. A superclass missing from
// the classpath ends that branch; any other lookup error aborts the build.
func Build(root *classfile.Class, f Finder, opts ...Option) (*Graph, error) {
	b := &builder{
		g: &Graph{
			root:  root.Name(),
			nodes: make(map[fqname.Name]*node),
		},
		finder: f,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(b)
	}

	b.addClass(root)
	stack := []*classfile.Class{root}
	for len(stack) > 0 {
		class := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		super, err := f.FindSuper(class)
		switch {
		case err == nil:
			if b.addClass(super) {
				stack = append(stack, super)
			}
			if err := b.addEdge(class, super, Extends); err != nil {
				return nil, err
			}
		case errors.Is(err, classloader.ErrNotFound):
			b.logger.Debug("superclass not on classpath", "class", class.Name(), "super", class.SuperName())
		default:
			return nil, fmt.Errorf("finding superclass of %s: %w", class.Name(), err)
		}

		interfaces, err := f.FindInterfaces(class)
		if err != nil {
			return nil, fmt.Errorf("finding interfaces of %s: %w", class.Name(), err)
		}
		for _, iface := range interfaces {
			if b.addClass(iface) {
				stack = append(stack, iface)
			}
			if err := b.addEdge(class, iface, Implements); err != nil {
				return nil, err
			}
		}
	}
	return b.g, nil
}

// addClass reports whether c was new to the graph.
func (b *builder) addClass(c *classfile.Class) bool {
	name := c.Name()
	if _, ok := b.g.nodes[name]; ok {
		return false
	}
	b.g.nodes[name] = &node{class: c}
	b.g.order = append(b.g.order, name)
	return true
}

func (b *builder) addEdge(from, to *classfile.Class, kind EdgeKind) error {
	n := b.g.nodes[from.Name()]
	for _, i := range n.out {
		if e := b.g.edges[i]; e.To == to.Name() && e.Kind == kind {
			return fmt.Errorf("%s %s %s: %w", from.Name(), kind, to.Name(), ErrDuplicateEdge)
		}
	}
	n.out = append(n.out, len(b.g.edges))
	b.g.edges = append(b.g.edges, Edge{From: from.Name(), To: to.Name(), Kind: kind})
	b.logger.Debug("inheritance edge", "from", from.Name(), "to", to.Name(), "kind", kind)
	return nil
}

// Inherits lists every type name inherits from, breadth first. At each
// type the superclass comes before the interfaces, which keep declaration
// order. Each ancestor appears once.
func (g *Graph) Inherits(name string) ([]Ancestor, error) {
	v, err := fqname.NewView(name)
	if err != nil {
		return nil, err
	}
	start := v.ToOwned()
	if _, ok := g.nodes[start]; !ok {
		return nil, fmt.Errorf("%s: %w", start, ErrNotFound)
	}

	var out []Ancestor
	visited := map[fqname.Name]bool{start: true}
	queue := []fqname.Name{start}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, i := range g.nodes[cur].out {
			e := g.edges[i]
			if visited[e.To] {
				continue
			}
			visited[e.To] = true
			out = append(out, Ancestor{Class: g.nodes[e.To].class, Kind: e.Kind})
			queue = append(queue, e.To)
		}
	}
	return out, nil
}

// Root returns the class the graph was built from.
func (g *Graph) Root() *classfile.Class { return g.nodes[g.root].class }

// Class returns the graph's class called name.
func (g *Graph) Class(name string) (*classfile.Class, bool) {
	v, err := fqname.NewView(name)
	if err != nil {
		return nil, false
	}
	n, ok := g.nodes[v.ToOwned()]
	if !ok {
		return nil, false
	}
	return n.class, true
}

// Nodes returns the classes in the order they were discovered, root first.
func (g *Graph) Nodes() []*classfile.Class {
	out := make([]*classfile.Class, len(g.order))
	for i, name := range g.order {
		out[i] = g.nodes[name].class
	}
	return out
}

// Edges returns every edge in insertion order.
func (g *Graph) Edges() []Edge { return append([]Edge(nil), g.edges...) }

// Len returns the number of classes in the graph.
func (g *Graph) Len() int { return len(g.order) }
