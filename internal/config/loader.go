package config

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// FileSystem is an abstraction for file system operations, allowing tests
// to load configuration from in-memory files.
type FileSystem interface {
	fs.FS
	// ReadFile reads the entire file at path.
	ReadFile(path string) ([]byte, error)
}

// OSFS implements FileSystem using the real OS file system.
type OSFS struct{}

// Open implements fs.FS.
func (OSFS) Open(name string) (fs.File, error) {
	return os.Open(name)
}

// ReadFile reads a file from disk.
func (OSFS) ReadFile(path string) ([]byte, error) {
	return os.ReadFile(path)
}

// DefaultFS returns the OS-backed file system.
func DefaultFS() FileSystem {
	return OSFS{}
}

// ParseError represents an error while parsing a configuration file.
type ParseError struct {
	Path    string
	Message string
	Err     error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse error in %s: %s", e.Path, e.Message)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// Loader reads an options file in TOML or YAML format, selected by
// extension. A missing file is not an error; it yields the defaults.
type Loader struct {
	fs   FileSystem
	path string
}

// NewLoader creates a loader for the given path.
func NewLoader(path string) *Loader {
	return &Loader{fs: DefaultFS(), path: path}
}

// NewLoaderWithFS creates a loader with a custom file system.
func NewLoaderWithFS(fsys FileSystem, path string) *Loader {
	return &Loader{fs: fsys, path: path}
}

// Path returns the configured file path.
func (l *Loader) Path() string {
	return l.path
}

// Load reads, parses, and validates the configured file. The returned
// options are always safe to use; per-field rejections come back as
// FieldErrors alongside them.
func (l *Loader) Load() (Options, []FieldError, error) {
	opts := Default()

	if l.path == "" {
		validated, errs := Validate(opts)
		return validated, errs, nil
	}

	data, err := l.fs.ReadFile(l.path)
	if err != nil {
		if os.IsNotExist(err) {
			validated, errs := Validate(opts)
			return validated, errs, nil
		}
		return opts, nil, fmt.Errorf("reading config file %s: %w", l.path, err)
	}

	if err := unmarshal(l.path, data, &opts); err != nil {
		return Default(), nil, err
	}

	validated, errs := Validate(opts)
	return validated, errs, nil
}

// unmarshal decodes data into opts based on the file extension.
func unmarshal(path string, data []byte, opts *Options) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, opts); err != nil {
			return &ParseError{Path: path, Message: err.Error(), Err: err}
		}
	default:
		if err := toml.Unmarshal(data, opts); err != nil {
			return &ParseError{Path: path, Message: err.Error(), Err: err}
		}
	}
	return nil
}
