package classpath

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/zip"

	"github.com/daimatz/jclass/pkg/classfile"
)

// jmodMagic precedes the zip data of a .jmod file.
var jmodMagic = [4]byte{'J', 'M', 0x01, 0x00}

type entryKind int

const (
	kindMissing entryKind = iota
	kindDir
	kindArchive
	kindJmod
	kindClass
)

// archive is an open jar, zip or jmod with its central directory indexed
// by entry name.
type archive struct {
	file   *os.File
	index  map[string]*zip.File
	prefix string
}

// Resolver looks resources up on a Classpath. Archives are opened on
// first use and kept open until Evict or Close. A Resolver is not safe for
// concurrent use.
type Resolver struct {
	cp       Classpath
	logger   *slog.Logger
	archives map[string]*archive
	// declared names of direct .class entries, read once
	classes map[string]string
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithLogger sets the logger used for debug output.
func WithLogger(l *slog.Logger) Option {
	return func(r *Resolver) { r.logger = l }
}

// NewResolver returns a Resolver over cp. No entry is touched until the
// first lookup.
func NewResolver(cp Classpath, opts ...Option) *Resolver {
	r := &Resolver{
		cp:       cp,
		logger:   slog.Default(),
		archives: make(map[string]*archive),
		classes:  make(map[string]string),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Classpath returns the classpath being resolved.
func (r *Resolver) Classpath() Classpath { return r.cp }

// Get finds path on the classpath. path uses '/' separators; a leading
// '/' is ignored. A miss returns an error matching ErrNotFound.
func (r *Resolver) Get(path string) (*Resource, error) {
	path = strings.TrimLeft(path, "/")
	for _, entry := range r.cp.entries {
		res, err := r.getIn(entry, path)
		if err != nil {
			return nil, err
		}
		if res != nil {
			return res, nil
		}
	}
	return nil, fmt.Errorf("%s: %w", path, ErrNotFound)
}

func (r *Resolver) getIn(entry, path string) (*Resource, error) {
	kind, err := classify(entry)
	if err != nil {
		return nil, err
	}
	switch kind {
	case kindMissing:
		r.logger.Debug("skipping missing classpath entry", "entry", entry)
		return nil, nil
	case kindDir:
		return r.getInDir(entry, path)
	case kindArchive, kindJmod:
		return r.getInArchive(entry, kind, path)
	case kindClass:
		return r.getClassFile(entry, path)
	}
	return nil, nil
}

func classify(entry string) (entryKind, error) {
	info, err := os.Stat(entry)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return kindMissing, nil
		}
		return 0, &ConfigError{Entry: entry, Err: err}
	}
	if info.IsDir() {
		return kindDir, nil
	}
	switch strings.ToLower(filepath.Ext(entry)) {
	case ".jar", ".zip":
		return kindArchive, nil
	case ".jmod":
		return kindJmod, nil
	case ".class":
		return kindClass, nil
	}
	return 0, &ConfigError{Entry: entry, Err: ErrUnsupportedEntry}
}

func (r *Resolver) getInDir(dir, path string) (*Resource, error) {
	full := filepath.Join(dir, filepath.FromSlash(path))
	info, err := os.Stat(full)
	if err != nil || !info.Mode().IsRegular() {
		return nil, nil
	}
	res, err := fileResource(full)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", full, err)
	}
	return res, nil
}

func (r *Resolver) getInArchive(entry string, kind entryKind, path string) (*Resource, error) {
	a, err := r.open(entry, kind)
	if err != nil {
		return nil, err
	}
	f, ok := a.index[a.prefix+path]
	if !ok {
		return nil, nil
	}
	rc, err := f.Open()
	if err != nil {
		return nil, fmt.Errorf("%s: opening %s: %w", entry, f.Name, err)
	}
	defer rc.Close()
	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("%s: reading %s: %w", entry, f.Name, err)
	}
	return memoryResource(data, archiveURL(entry, f.Name)), nil
}

func (r *Resolver) open(entry string, kind entryKind) (*archive, error) {
	if a, ok := r.archives[entry]; ok {
		return a, nil
	}

	f, err := os.Open(entry)
	if err != nil {
		return nil, &ConfigError{Entry: entry, Err: err}
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, &ConfigError{Entry: entry, Err: err}
	}

	var (
		ra     io.ReaderAt = f
		size               = info.Size()
		prefix string
	)
	if kind == kindJmod {
		var magic [4]byte
		if _, err := f.ReadAt(magic[:], 0); err != nil || magic != jmodMagic {
			f.Close()
			return nil, &ConfigError{Entry: entry, Err: fmt.Errorf("not a jmod file")}
		}
		// Skip "JM\x01\x00" header
		ra = io.NewSectionReader(f, 4, size-4)
		size -= 4
		prefix = "classes/"
	}

	zr, err := zip.NewReader(ra, size)
	if err != nil {
		f.Close()
		return nil, &ConfigError{Entry: entry, Err: fmt.Errorf("reading archive: %w", err)}
	}
	a := &archive{file: f, index: make(map[string]*zip.File, len(zr.File)), prefix: prefix}
	for _, zf := range zr.File {
		if _, dup := a.index[zf.Name]; !dup {
			a.index[zf.Name] = zf
		}
	}
	r.archives[entry] = a
	r.logger.Debug("opened archive", "entry", entry, "files", len(a.index))
	return a, nil
}

// getClassFile matches a direct .class entry against the path derived from
// the name the class declares.
func (r *Resolver) getClassFile(entry, path string) (*Resource, error) {
	declared, ok := r.classes[entry]
	if !ok {
		data, err := os.ReadFile(entry)
		if err != nil {
			return nil, &ConfigError{Entry: entry, Err: err}
		}
		name, err := classfile.PeekName(data)
		if err != nil {
			return nil, &ConfigError{Entry: entry, Err: err}
		}
		declared = name + ".class"
		r.classes[entry] = declared
	}
	if declared != path {
		return nil, nil
	}
	res, err := fileResource(entry)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", entry, err)
	}
	return res, nil
}

// Validate checks every entry eagerly: each must be missing, a directory,
// or a readable archive, jmod or class file. All problems are reported.
func (r *Resolver) Validate() error {
	var errs []error
	for _, entry := range r.cp.entries {
		kind, err := classify(entry)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		switch kind {
		case kindArchive, kindJmod:
			if _, err := r.open(entry, kind); err != nil {
				errs = append(errs, err)
			}
		case kindClass:
			if _, err := r.getClassFile(entry, ""); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}

// Evict drops anything cached for entry, closing its archive handle. The
// next lookup reopens it.
func (r *Resolver) Evict(entry string) error {
	delete(r.classes, entry)
	a, ok := r.archives[entry]
	if !ok {
		return nil
	}
	delete(r.archives, entry)
	return a.file.Close()
}

// Close releases every open archive.
func (r *Resolver) Close() error {
	var errs []error
	for entry, a := range r.archives {
		if err := a.file.Close(); err != nil {
			errs = append(errs, fmt.Errorf("closing %s: %w", entry, err))
		}
		delete(r.archives, entry)
	}
	clear(r.classes)
	return errors.Join(errs...)
}

// Owner returns the classpath entry that contains path on disk: the entry
// itself for archives and class files, or the directory it lies under.
// The watcher uses it to map file events back to entries.
func (r *Resolver) Owner(path string) (string, bool) {
	clean := filepath.Clean(path)
	for _, entry := range r.cp.entries {
		e := filepath.Clean(entry)
		if clean == e {
			return entry, true
		}
		if rel, err := filepath.Rel(e, clean); err == nil && rel != "." && !strings.HasPrefix(rel, "..") {
			return entry, true
		}
	}
	return "", false
}
