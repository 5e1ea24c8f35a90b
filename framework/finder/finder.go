// Package finder locates files below the application root: Finder scans the
// directories configured per scope, Explorer globs recursively.
package finder

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/afero"
)

// Finder scans <Root><scope dir><path> for every directory of a scope.
type Finder struct {
	Root   string
	Scopes map[string][]string

	fs afero.Fs
}

// New creates a Finder over the OS filesystem.
//
//	f := finder.New(base, settings.Scopes)
//	names, err := f.Scan("/handlers", "application", true, true)
func New(root string, scopes map[string][]string) *Finder {
	return NewWithFs(afero.NewOsFs(), root, scopes)
}

// NewWithFs creates a Finder over fs.
func NewWithFs(fs afero.Fs, root string, scopes map[string][]string) *Finder {
	return &Finder{Root: root, Scopes: scopes, fs: fs}
}

// Dirs returns the directories of scope, or of every scope (in scope name
// order) when scope is empty. An unknown scope has no directories.
func (f *Finder) Dirs(scope string) []string {
	if scope != "" {
		return append([]string(nil), f.Scopes[scope]...)
	}
	names := make([]string, 0, len(f.Scopes))
	for name := range f.Scopes {
		names = append(names, name)
	}
	sort.Strings(names)

	var dirs []string
	for _, name := range names {
		dirs = append(dirs, f.Scopes[name]...)
	}
	return dirs
}

// Scan returns the base names, extension stripped, of the files found under
// path in each directory of scope. Missing directories are skipped.
func (f *Finder) Scan(path, scope string, lowercase, recursive bool) ([]string, error) {
	var found []string
	add := func(name string) {
		name = strings.TrimSuffix(name, filepath.Ext(name))
		if lowercase {
			name = strings.ToLower(name)
		}
		found = append(found, name)
	}

	for _, dir := range f.Dirs(scope) {
		searchDir := filepath.Join(f.Root, dir, path)
		ok, err := afero.DirExists(f.fs, searchDir)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}

		if !recursive {
			entries, err := afero.ReadDir(f.fs, searchDir)
			if err != nil {
				return nil, err
			}
			for _, e := range entries {
				if !e.IsDir() {
					add(e.Name())
				}
			}
			continue
		}

		err = afero.Walk(f.fs, searchDir, func(_ string, info os.FileInfo, err error) error {
			if err != nil {
				return err
			}
			if !info.IsDir() {
				add(info.Name())
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	return found, nil
}
