// Package basepath resolves the filesystem root the kernel reads its
// configuration from.
package basepath

import (
	"os"
	"path/filepath"
)

// Path is a resolved base directory.
type Path struct {
	root string
}

// Resolve picks the base path, first match wins:
//  1. explicit, when non-empty;
//  2. the parent of DOCUMENT_ROOT, for CGI-style deployments;
//  3. the parent of the executable's directory (install layout <root>/bin/kernel);
//  4. the working directory.
func Resolve(explicit string) *Path {
	if explicit != "" {
		return &Path{root: filepath.Clean(explicit)}
	}
	if docRoot := os.Getenv("DOCUMENT_ROOT"); docRoot != "" {
		return &Path{root: filepath.Dir(filepath.Clean(docRoot))}
	}
	if exe, err := os.Executable(); err == nil {
		root := filepath.Dir(filepath.Dir(exe))
		if _, err := os.Stat(filepath.Join(root, "config")); err == nil {
			return &Path{root: root}
		}
	}
	wd, err := os.Getwd()
	if err != nil {
		return &Path{root: "."}
	}
	return &Path{root: wd}
}

func (p *Path) String() string { return p.root }

// Get returns the base directory.
func (p *Path) Get() string { return p.root }

// Join resolves elem relative to the base directory.
func (p *Path) Join(elem ...string) string {
	return filepath.Join(append([]string{p.root}, elem...)...)
}
