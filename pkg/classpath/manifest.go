package classpath

import (
	"fmt"
	"os"
	"path/filepath"

	toml "github.com/pelletier/go-toml/v2"
)

// Manifest is a classpath described in TOML:
//
//	entries = ["build/classes", "lib/guava.jar"]
//	include_jdk = true
//	jmod_path = "/opt/jdk/jmods/java.base.jmod"
//
// Relative entries are resolved against the manifest's directory.
type Manifest struct {
	Entries    []string `toml:"entries"`
	IncludeJDK bool     `toml:"include_jdk"`
	JmodPath   string   `toml:"jmod_path"`

	dir string
}

// LoadManifest reads and parses a manifest file.
func LoadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading manifest: %w", err)
	}
	var m Manifest
	if err := toml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	m.dir = filepath.Dir(path)
	return &m, nil
}

// Classpath returns the manifest entries with relative paths anchored at
// the manifest directory. When IncludeJDK is set, java.base.jmod is
// appended: JmodPath if given, otherwise whatever FindJavaBaseJmod finds.
func (m *Manifest) Classpath() Classpath {
	var cp Classpath
	for _, e := range m.Entries {
		cp.PushBack(m.resolve(e))
	}
	if m.IncludeJDK {
		jmod := m.JmodPath
		if jmod != "" {
			jmod = m.resolve(jmod)
		} else {
			jmod = FindJavaBaseJmod()
		}
		if jmod != "" {
			cp.PushBack(jmod)
		}
	}
	return cp
}

func (m *Manifest) resolve(p string) string {
	if filepath.IsAbs(p) || m.dir == "" {
		return p
	}
	return filepath.Join(m.dir, p)
}

// FindJavaBaseJmod locates java.base.jmod, the module holding java.lang.
// It returns "" when no JDK can be found.
func FindJavaBaseJmod() string {
	// 1. Explicit env var
	if env := os.Getenv("JAVA_BASE_JMOD"); env != "" {
		return env
	}
	// 2. JAVA_HOME
	if javaHome := os.Getenv("JAVA_HOME"); javaHome != "" {
		p := filepath.Join(javaHome, "jmods", "java.base.jmod")
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	// 3. Glob fallback
	matches, _ := filepath.Glob("/usr/lib/jvm/java-*-openjdk-*/jmods/java.base.jmod")
	if len(matches) > 0 {
		return matches[0]
	}
	return ""
}
