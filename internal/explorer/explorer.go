// Package explorer implements the interactive class explorer behind
// "jclass repl".
package explorer

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/daimatz/jclass/internal/watch"
	"github.com/daimatz/jclass/pkg/classloader"
	"github.com/daimatz/jclass/pkg/inheritance"
)

const banner = `Discover information about a class by typing its fully qualified name. Append
:methods, :fields, :code or :inherits to the name for details about its members,
bytecode or supertypes. Type 'quit' or 'exit' to leave.`

// Explorer answers one query per input line against a class loader.
type Explorer struct {
	loader  *classloader.Loader
	out     io.Writer
	changes <-chan watch.Change
	logger  *slog.Logger
	prompt  string
}

// Option configures an Explorer.
type Option func(*Explorer)

func WithLogger(l *slog.Logger) Option {
	return func(e *Explorer) { e.logger = l }
}

// WithChanges makes the explorer drop cached classes as changes arrive.
func WithChanges(ch <-chan watch.Change) Option {
	return func(e *Explorer) { e.changes = ch }
}

// WithPrompt sets the prompt printed before each line. The default is "> ".
func WithPrompt(p string) Option {
	return func(e *Explorer) { e.prompt = p }
}

// New creates an explorer writing to out.
func New(l *classloader.Loader, out io.Writer, opts ...Option) *Explorer {
	e := &Explorer{
		loader: l,
		out:    out,
		logger: slog.Default(),
		prompt: "> ",
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Run prints the banner and answers lines from in until EOF, quit or exit,
// or until ctx is done. Input is read on its own goroutine; queries and
// cache invalidation both run on the caller's.
func (e *Explorer) Run(ctx context.Context, in io.Reader) error {
	fmt.Fprintf(e.out, "classpath: %s\n\n%s\n", e.loader.Resolver().Classpath(), banner)

	lines := make(chan string)
	readErr := make(chan error, 1)
	done := make(chan struct{})
	defer close(done)
	go func() {
		defer close(lines)
		sc := bufio.NewScanner(in)
		for sc.Scan() {
			select {
			case lines <- sc.Text():
			case <-done:
				return
			}
		}
		readErr <- sc.Err()
	}()

	fmt.Fprint(e.out, e.prompt)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case c, ok := <-e.changes:
			if !ok {
				e.changes = nil
				continue
			}
			e.apply(c)

		case line, ok := <-lines:
			if !ok {
				select {
				case err := <-readErr:
					return err
				default:
					return nil
				}
			}
			if !e.Exec(line) {
				return nil
			}
			fmt.Fprint(e.out, e.prompt)
		}
	}
}

func (e *Explorer) apply(c watch.Change) {
	if c.Class != "" {
		if e.loader.Invalidate(c.Class) {
			e.logger.Info("class changed, dropped from cache", "class", c.Class)
		}
		return
	}
	if err := e.loader.InvalidateEntry(c.Entry); err != nil {
		e.logger.Warn("invalidating classpath entry", "entry", c.Entry, "error", err)
		return
	}
	e.logger.Info("classpath entry changed, cache cleared", "entry", c.Entry)
}

// Exec answers a single input line and reports whether the session should
// continue. Errors are printed, not returned.
func (e *Explorer) Exec(line string) bool {
	line = strings.TrimSpace(line)
	switch line {
	case "":
		return true
	case "quit", "exit":
		return false
	}

	name, target, _ := strings.Cut(line, ":")
	if err := e.query(name, target); err != nil {
		fmt.Fprintf(e.out, "error: %v\n", err)
	}
	return true
}

func (e *Explorer) query(name, target string) error {
	c, err := e.loader.Find(name)
	if err != nil {
		return err
	}
	switch target {
	case "":
		return WriteSummary(e.out, c)
	case "methods":
		WriteMethods(e.out, c)
	case "fields":
		WriteFields(e.out, c)
	case "code":
		return WriteCode(e.out, c)
	case "inherits":
		g, err := inheritance.Build(c, e.loader, inheritance.WithLogger(e.logger))
		if err != nil {
			return err
		}
		return WriteInherits(e.out, g)
	default:
		fmt.Fprintln(e.out, "only :methods, :fields, :code and :inherits are supported")
	}
	return nil
}
