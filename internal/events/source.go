// Package events reads flat event trees from ROOT files, applies cut and
// weight expressions, and fills histograms in a single pass per source.
package events

import (
	"fmt"
	"os"

	"go-hep.org/x/hep/groot/rtree"
)

// Source is a chain of trees with the same name spread over files.
type Source struct {
	Tree  string
	Files []string
}

// NewSource returns a source reading tree from files.
func NewSource(tree string, files ...string) Source {
	return Source{Tree: tree, Files: files}
}

func (s Source) String() string {
	if len(s.Files) == 1 {
		return s.Files[0]
	}
	return fmt.Sprintf("%s (%d files)", s.Tree, len(s.Files))
}

// Check verifies that every file of the source exists.
func (s Source) Check() error {
	if len(s.Files) == 0 {
		return fmt.Errorf("no input files for tree %q", s.Tree)
	}
	for _, fname := range s.Files {
		if _, err := os.Stat(fname); err != nil {
			return fmt.Errorf("input file not found: %w", err)
		}
	}
	return nil
}

func (s Source) open() (rtree.Tree, func() error, error) {
	if err := s.Check(); err != nil {
		return nil, nil, err
	}
	t, closer, err := rtree.ChainOf(s.Tree, s.Files...)
	if err != nil {
		return nil, nil, fmt.Errorf("could not open tree %q: %w", s.Tree, err)
	}
	return t, closer, nil
}

// Entries returns the number of entries of the source.
func (s Source) Entries() (int64, error) {
	t, closer, err := s.open()
	if err != nil {
		return 0, err
	}
	defer closer()
	return t.Entries(), nil
}
