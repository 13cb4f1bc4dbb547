// Package registry implements the ordered extension to loader table shared
// by the image and package catalogs.
package registry

import (
	"errors"
	"io"
	"log"
	"strings"

	"github.com/oldtimes-software/hei/result"
	"github.com/oldtimes-software/hei/vfs"
)

// MaxLoaders is the capacity of a Registry.
const MaxLoaders = 4096

var (
	errNoLoader  = errors.New("no loader for extension")
	errNilResult = errors.New("loader returned nothing")
)

// LoadFunc decodes the file at path.
type LoadFunc[E any] func(fsys vfs.FileSystem, path string) (*E, error)

type entry[E any] struct {
	extension string
	load      LoadFunc[E]
}

// Registry maps file extensions to loaders. Entries are tried in the order
// they were registered; registering the same extension twice keeps both.
//
// A Registry is not safe for concurrent mutation. Concurrent calls to Load
// are fine as long as nothing registers or clears at the same time.
type Registry[E any] struct {
	name    string
	entries []entry[E]
	logger  *log.Logger
}

// New returns an empty registry. name is used in error messages.
func New[E any](name string, logger *log.Logger) *Registry[E] {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Registry[E]{
		name:   name,
		logger: logger,
	}
}

// Register appends a loader for extension, which is given without a
// leading dot.
func (r *Registry[E]) Register(extension string, load func(vfs.FileSystem, string) (*E, error)) error {
	if len(r.entries) >= MaxLoaders {
		return result.Errorf(result.EndOfQuota, "register "+r.name+" loader", extension, "more than %d loaders", MaxLoaders)
	}
	if load == nil {
		return result.Errorf(result.Unsupported, "register "+r.name+" loader", extension, "nil loader")
	}
	r.entries = append(r.entries, entry[E]{
		extension: strings.TrimPrefix(extension, "."),
		load:      load,
	})
	return nil
}

// Clear removes every loader.
func (r *Registry[E]) Clear() {
	r.entries = nil
}

// Len returns the number of registered loaders.
func (r *Registry[E]) Len() int {
	return len(r.entries)
}

// Extensions returns the registered extensions in lookup order.
func (r *Registry[E]) Extensions() []string {
	exts := make([]string, 0, len(r.entries))
	for _, e := range r.entries {
		exts = append(exts, e.extension)
	}
	return exts
}

// Load tries every loader registered for the extension of path in turn and
// returns the first non-nil result. A loader returning nil without an
// error counts as a failure.
func (r *Registry[E]) Load(fsys vfs.FileSystem, path string) (*E, error) {
	op := "load " + r.name
	if !vfs.Exists(fsys, path) {
		return nil, result.New(result.FileNotFound, op, path, nil)
	}

	extension := vfs.Extension(path)
	cause := errNoLoader
	for _, e := range r.entries {
		if !strings.EqualFold(extension, e.extension) {
			continue
		}

		v, err := e.load(fsys, path)
		if err == nil && v != nil {
			return v, nil
		}
		if err == nil {
			err = errNilResult
		}
		r.logger.Printf("Loader for \"%s\" failed on \"%s\": %s\n", e.extension, path, err)
		cause = err
	}

	return nil, result.New(result.Unsupported, op, path, cause)
}
