// Package classloader finds classes by name on a classpath, parses them
// and caches the result.
package classloader

import (
	"errors"
	"fmt"
	"log/slog"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/daimatz/jclass/pkg/classfile"
	"github.com/daimatz/jclass/pkg/classpath"
	"github.com/daimatz/jclass/pkg/fqname"
)

// DefaultCacheSize is the number of parsed classes kept when no size is
// configured.
const DefaultCacheSize = 4096

var (
	// ErrNotFound matches every *NotFoundError and a missing superclass.
	ErrNotFound = errors.New("class not found")

	// ErrWrongName is returned when a class file declares a different
	// name than the path it was found at.
	ErrWrongName = errors.New("class file declares a different name")
)

// NotFoundError reports a class absent from the classpath.
type NotFoundError struct {
	Name fqname.Name
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("class %s not found", e.Name)
}

func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }

// Loader resolves class names to parsed classes. Classes are cached by
// normalized name, so "java.lang.Object" and "java/lang/Object" share an
// entry. A Loader is not safe for concurrent use.
type Loader struct {
	resolver  *classpath.Resolver
	cache     *lru.Cache[string, *classfile.Class]
	logger    *slog.Logger
	cacheSize int
}

// Option configures a Loader.
type Option func(*Loader)

// WithLogger sets the logger used by the loader and its resolver.
func WithLogger(l *slog.Logger) Option {
	return func(ld *Loader) { ld.logger = l }
}

// WithCacheSize bounds the number of cached classes.
func WithCacheSize(n int) Option {
	return func(ld *Loader) { ld.cacheSize = n }
}

// New returns a Loader over cp.
func New(cp classpath.Classpath, opts ...Option) (*Loader, error) {
	l := &Loader{
		logger:    slog.Default(),
		cacheSize: DefaultCacheSize,
	}
	for _, opt := range opts {
		opt(l)
	}

	cache, err := lru.NewWithEvict(l.cacheSize, func(name string, _ *classfile.Class) {
		l.logger.Debug("evicted class", "class", name)
	})
	if err != nil {
		return nil, fmt.Errorf("creating class cache of size %d: %w", l.cacheSize, err)
	}
	l.cache = cache
	l.resolver = classpath.NewResolver(cp, classpath.WithLogger(l.logger))
	return l, nil
}

// Resolver returns the underlying classpath resolver.
func (l *Loader) Resolver() *classpath.Resolver { return l.resolver }

// Find returns the class called name, written with '/' or '.'. A class
// missing from the classpath yields a *NotFoundError; decode and
// reference errors are returned as they are.
func (l *Loader) Find(name string) (*classfile.Class, error) {
	n, err := fqname.New(name)
	if err != nil {
		return nil, err
	}
	return l.find(n)
}

func (l *Loader) find(n fqname.Name) (*classfile.Class, error) {
	if c, ok := l.cache.Get(n.Key()); ok {
		l.logger.Debug("class cache hit", "class", n)
		return c, nil
	}

	res, err := l.resolver.Get(n.ClassFile())
	if err != nil {
		if errors.Is(err, classpath.ErrNotFound) {
			return nil, &NotFoundError{Name: n}
		}
		return nil, fmt.Errorf("resolving %s: %w", n, err)
	}
	origin := res.Origin()
	data, err := res.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", origin, err)
	}

	c, err := classfile.ParseClass(data)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", origin, err)
	}
	if !fqname.Equal(c.Name(), n) {
		return nil, fmt.Errorf("%s: expected %s, found %s: %w", origin, n, c.Name(), ErrWrongName)
	}

	l.logger.Debug("loaded class", "class", n, "origin", origin)
	l.cache.Add(n.Key(), c)
	return c, nil
}

// FindSuper returns the superclass of c. It fails with ErrNotFound when c
// has no superclass or the superclass is not on the classpath.
func (l *Loader) FindSuper(c *classfile.Class) (*classfile.Class, error) {
	if !c.HasSuper() {
		return nil, fmt.Errorf("%s has no superclass: %w", c.Name(), ErrNotFound)
	}
	return l.find(c.SuperName())
}

// FindInterfaces returns the direct superinterfaces of c that are on the
// classpath, in declaration order. Missing interfaces are skipped; any
// other failure is returned.
func (l *Loader) FindInterfaces(c *classfile.Class) ([]*classfile.Class, error) {
	out := make([]*classfile.Class, 0, len(c.Interfaces()))
	for _, name := range c.Interfaces() {
		iface, err := l.find(name)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				l.logger.Debug("interface not on classpath", "class", c.Name(), "interface", name)
				continue
			}
			return nil, err
		}
		out = append(out, iface)
	}
	return out, nil
}

// ParseFile parses a class file outside the classpath. The result is not
// cached.
func (l *Loader) ParseFile(path string) (*classfile.Class, error) {
	cf, err := classfile.ParseFile(path)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return classfile.NewClass(cf)
}

// Invalidate drops name from the cache. It reports whether it was cached.
func (l *Loader) Invalidate(name string) bool {
	n, err := fqname.NewView(name)
	if err != nil {
		return false
	}
	return l.cache.Remove(n.Key())
}

// InvalidateEntry forgets everything read from a classpath entry: its
// archive handle is closed and the class cache is emptied.
func (l *Loader) InvalidateEntry(entry string) error {
	l.cache.Purge()
	return l.resolver.Evict(entry)
}

// Reset empties the class cache.
func (l *Loader) Reset() { l.cache.Purge() }

// Cached returns the cached class names, least recently used first.
func (l *Loader) Cached() []string { return l.cache.Keys() }

// Close releases open archives. The cache stays usable.
func (l *Loader) Close() error { return l.resolver.Close() }
