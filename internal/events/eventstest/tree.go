// Package eventstest writes small flat trees for tests.
package eventstest

import (
	"os"
	"path/filepath"
	"sort"
	"testing"

	"go-hep.org/x/hep/groot"
	"go-hep.org/x/hep/groot/rtree"
)

// Event holds the branch values of one entry. Values are float32, int32,
// bool or []float32. Vector branches get an int32 count branch named
// "n_" + name.
type Event map[string]any

// Write creates dir/fname with a tree holding events. Every event must
// carry the branches of the first one.
func Write(tb testing.TB, dir, fname, tree string, events ...Event) string {
	tb.Helper()
	if len(events) == 0 {
		tb.Fatalf("eventstest: no events for %s", fname)
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		tb.Fatalf("could not create %s: %+v", dir, err)
	}
	path := filepath.Join(dir, fname)
	f, err := groot.Create(path)
	if err != nil {
		tb.Fatalf("could not create %s: %+v", path, err)
	}

	names := make([]string, 0, len(events[0]))
	for name := range events[0] {
		names = append(names, name)
	}
	sort.Strings(names)

	var (
		wvars  []rtree.WriteVar
		setter = make(map[string]func(any))
	)
	for _, name := range names {
		switch events[0][name].(type) {
		case float32:
			v := new(float32)
			wvars = append(wvars, rtree.WriteVar{Name: name, Value: v})
			setter[name] = func(x any) { *v = x.(float32) }
		case int32:
			v := new(int32)
			wvars = append(wvars, rtree.WriteVar{Name: name, Value: v})
			setter[name] = func(x any) { *v = x.(int32) }
		case bool:
			v := new(bool)
			wvars = append(wvars, rtree.WriteVar{Name: name, Value: v})
			setter[name] = func(x any) { *v = x.(bool) }
		case []float32:
			n := new(int32)
			v := new([]float32)
			wvars = append(wvars,
				rtree.WriteVar{Name: "n_" + name, Value: n},
				rtree.WriteVar{Name: name, Value: v, Count: "n_" + name},
			)
			setter[name] = func(x any) {
				*v = x.([]float32)
				*n = int32(len(*v))
			}
		default:
			tb.Fatalf("eventstest: unsupported type %T for branch %q", events[0][name], name)
		}
	}

	w, err := rtree.NewWriter(f, tree, wvars)
	if err != nil {
		tb.Fatalf("could not create tree writer: %+v", err)
	}
	for i, evt := range events {
		for _, name := range names {
			x, ok := evt[name]
			if !ok {
				tb.Fatalf("eventstest: event %d misses branch %q", i, name)
			}
			setter[name](x)
		}
		if _, err := w.Write(); err != nil {
			tb.Fatalf("could not write event %d: %+v", i, err)
		}
	}
	if err := w.Close(); err != nil {
		tb.Fatalf("could not close tree writer: %+v", err)
	}
	if err := f.Close(); err != nil {
		tb.Fatalf("could not close %s: %+v", path, err)
	}
	return path
}
