package classpath

import (
	"bytes"
	"io"
	"net/url"
	"os"
	"path/filepath"
)

// Resource is a readable entry found on the classpath. It must be closed.
type Resource struct {
	io.Reader
	closer io.Closer
	origin string
	size   int64
}

// Origin returns a URL naming where the resource came from: file:/... for
// files, jar:file:/...!/entry for archive entries.
func (r *Resource) Origin() string { return r.origin }

// Size returns the length of the resource in bytes.
func (r *Resource) Size() int64 { return r.size }

func (r *Resource) Close() error {
	if r.closer == nil {
		return nil
	}
	return r.closer.Close()
}

// ReadAll reads the whole resource and closes it.
func (r *Resource) ReadAll() ([]byte, error) {
	defer r.Close()
	return io.ReadAll(r)
}

func fileResource(path string) (*Resource, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, err
	}
	return &Resource{Reader: f, closer: f, origin: fileURL(path), size: info.Size()}, nil
}

func memoryResource(data []byte, origin string) *Resource {
	return &Resource{Reader: bytes.NewReader(data), origin: origin, size: int64(len(data))}
}

func fileURL(path string) string {
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}
	u := url.URL{Scheme: "file", Path: filepath.ToSlash(path)}
	return u.String()
}

func archiveURL(archive, entry string) string {
	return "jar:" + fileURL(archive) + "!/" + entry
}
