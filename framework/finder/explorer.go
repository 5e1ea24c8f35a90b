package finder

import (
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
)

// HandlersDir holds the application's handler sources, relative to the root.
const HandlersDir = "/handlers/"

// Explorer globs below Root, descending into every subdirectory.
type Explorer struct {
	Root string

	fs afero.Fs
}

// NewExplorer creates an Explorer over the OS filesystem.
func NewExplorer(root string) *Explorer {
	return NewExplorerWithFs(afero.NewOsFs(), root)
}

// NewExplorerWithFs creates an Explorer over fs.
func NewExplorerWithFs(fs afero.Fs, root string) *Explorer {
	return &Explorer{Root: root, fs: fs}
}

// RGlob matches pattern in its own directory and then, with the same base
// pattern, in every directory below it.
//
//	e.RGlob("/srv/app/handlers/*.go")
func (e *Explorer) RGlob(pattern string) ([]string, error) {
	files, err := afero.Glob(e.fs, pattern)
	if err != nil {
		return nil, err
	}

	dir, base := filepath.Dir(pattern), filepath.Base(pattern)
	entries, err := afero.ReadDir(e.fs, dir)
	if err != nil {
		// unreadable or missing directory: nothing below it
		return files, nil
	}
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		sub, err := e.RGlob(filepath.Join(dir, entry.Name(), base))
		if err != nil {
			return nil, err
		}
		files = append(files, sub...)
	}
	return files, nil
}

// Recurse runs RGlob on a pattern relative to Root.
func (e *Explorer) Recurse(pattern string) ([]string, error) {
	return e.RGlob(filepath.Join(e.Root, pattern))
}

// ResolveFile turns a file found below <Root><prefix> into its logical name:
// the relative path, slash separated, extension stripped.
//
//	e.ResolveFile("/handlers/", "/srv/app/handlers/admin/users.go") // "admin/users"
func (e *Explorer) ResolveFile(prefix, file string) string {
	rel := strings.TrimPrefix(filepath.ToSlash(file), filepath.ToSlash(filepath.Join(e.Root, prefix)))
	rel = strings.TrimPrefix(rel, "/")
	return strings.TrimSuffix(rel, filepath.Ext(rel))
}

// Handlers lists the logical names of handler files matching name, which
// may be a glob ("*" for all).
func (e *Explorer) Handlers(name string) ([]string, error) {
	if name == "" {
		name = "*"
	}
	files, err := e.Recurse(HandlersDir + name + ".*")
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(files))
	for _, f := range files {
		names = append(names, e.ResolveFile(HandlersDir, f))
	}
	return names, nil
}
