// Package rootio stores histograms and graphs in ROOT files and reads them
// back as hbook values.
package rootio

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"go-hep.org/x/hep/groot"
	"go-hep.org/x/hep/groot/rhist"
	"go-hep.org/x/hep/groot/riofs"
	"go-hep.org/x/hep/groot/root"
	"go-hep.org/x/hep/hbook"
	"go-hep.org/x/hep/hbook/rootcnv"
)

// Writer creates a ROOT file, replacing any previous one.
type Writer struct {
	path string
	f    *riofs.File
}

// Create opens path for writing, creating its parent directories.
func Create(path string) (*Writer, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("could not create output directory: %w", err)
		}
	}
	f, err := groot.Create(path)
	if err != nil {
		return nil, fmt.Errorf("could not create %s: %w", path, err)
	}
	return &Writer{path: path, f: f}, nil
}

func (w *Writer) Path() string { return w.path }

// PutH1D stores h as a TH1D under name.
func (w *Writer) PutH1D(name string, h *hbook.H1D) error {
	h.Annotation()["name"] = name
	return w.put(name, rhist.NewH1DFrom(h))
}

// PutH1F stores h as a TH1F under name.
func (w *Writer) PutH1F(name string, h *hbook.H1D) error {
	h.Annotation()["name"] = name
	return w.put(name, rhist.NewH1FFrom(h))
}

// PutGraph stores s as a TGraphErrors under name.
func (w *Writer) PutGraph(name string, s *hbook.S2D) error {
	s.Annotation()["name"] = name
	return w.put(name, rhist.NewGraphErrorsFrom(s))
}

func (w *Writer) put(name string, obj root.Object) error {
	if err := w.f.Put(name, obj); err != nil {
		return fmt.Errorf("could not write %q to %s: %w", name, w.path, err)
	}
	return nil
}

// Close flushes and closes the file.
func (w *Writer) Close() error {
	if err := w.f.Close(); err != nil {
		return fmt.Errorf("could not close %s: %w", w.path, err)
	}
	return nil
}

// File is a ROOT file opened for reading.
type File struct {
	path string
	f    *riofs.File
}

// Open opens path for reading.
func Open(path string) (*File, error) {
	f, err := groot.Open(path)
	if err != nil {
		return nil, fmt.Errorf("could not open %s: %w", path, err)
	}
	return &File{path: path, f: f}, nil
}

func (f *File) Path() string { return f.path }

func (f *File) Close() error { return f.f.Close() }

func (f *File) get(name string) (root.Object, error) {
	found := false
	for _, k := range f.f.Keys() {
		if k.Name() == name {
			found = true
			break
		}
	}
	if !found {
		return nil, fmt.Errorf("%w: %q in %s", ErrNotFound, name, f.path)
	}
	obj, err := f.f.Get(name)
	if err != nil {
		return nil, fmt.Errorf("could not read %q from %s: %w", name, f.path, err)
	}
	return obj, nil
}

// H1D reads the 1-dim histogram stored under name.
func (f *File) H1D(name string) (*hbook.H1D, error) {
	obj, err := f.get(name)
	if err != nil {
		return nil, err
	}
	rh, ok := obj.(rhist.H1)
	if !ok {
		return nil, fmt.Errorf("%q in %s is a %s, not a 1-dim histogram", name, f.path, obj.Class())
	}
	h := rootcnv.H1D(rh)
	h.Annotation()["name"] = name
	return h, nil
}

// Graph reads the graph stored under name.
func (f *File) Graph(name string) (*hbook.S2D, error) {
	obj, err := f.get(name)
	if err != nil {
		return nil, err
	}
	g, ok := obj.(rhist.Graph)
	if !ok {
		return nil, fmt.Errorf("%q in %s is a %s, not a graph", name, f.path, obj.Class())
	}
	s := rootcnv.S2D(g)
	s.Annotation()["name"] = name
	return s, nil
}

// H1Names returns the names of the 1-dim histograms of the file in key
// order. Only the highest cycle of a name is listed.
func (f *File) H1Names() []string {
	var (
		names []string
		seen  = make(map[string]bool)
	)
	for _, k := range f.f.Keys() {
		if !strings.HasPrefix(k.ClassName(), "TH1") || seen[k.Name()] {
			continue
		}
		seen[k.Name()] = true
		names = append(names, k.Name())
	}
	return names
}

// Names returns every key name of the file, sorted.
func (f *File) Names() []string {
	var names []string
	for _, k := range f.f.Keys() {
		names = append(names, k.Name())
	}
	sort.Strings(names)
	return names
}
