package events

import (
	"fmt"

	"go-hep.org/x/hep/groot/rtree"
)

// readVars selects the read variables for names out of every leaf of t.
func readVars(t rtree.Tree, names []string) ([]rtree.ReadVar, error) {
	all := rtree.NewReadVars(t)
	byName := make(map[string]rtree.ReadVar, len(all))
	for _, rv := range all {
		byName[rv.Name] = rv
	}

	rvars := make([]rtree.ReadVar, 0, len(names))
	for _, name := range names {
		rv, ok := byName[name]
		if !ok {
			return nil, fmt.Errorf("%w: %q in tree %q", ErrUnknownBranch, name, t.Name())
		}
		rvars = append(rvars, rv)
	}
	return rvars, nil
}

// load copies the current entry into env.
func load(env map[string]any, rvars []rtree.ReadVar) error {
	for _, rv := range rvars {
		v, err := value(rv.Value)
		if err != nil {
			return fmt.Errorf("branch %q: %w", rv.Name, err)
		}
		env[rv.Name] = v
	}
	return nil
}

func value(ptr any) (any, error) {
	switch p := ptr.(type) {
	case *bool:
		return *p, nil
	case *float64:
		return *p, nil
	case *float32:
		return float64(*p), nil
	case *int8:
		return float64(*p), nil
	case *int16:
		return float64(*p), nil
	case *int32:
		return float64(*p), nil
	case *int64:
		return float64(*p), nil
	case *uint8:
		return float64(*p), nil
	case *uint16:
		return float64(*p), nil
	case *uint32:
		return float64(*p), nil
	case *uint64:
		return float64(*p), nil
	case *[]float64:
		return append([]float64(nil), *p...), nil
	case *[]float32:
		return widen(*p), nil
	case *[]int32:
		return widen(*p), nil
	case *[]int64:
		return widen(*p), nil
	case *[]int8:
		return widen(*p), nil
	case *[]int16:
		return widen(*p), nil
	case *[]uint8:
		return widen(*p), nil
	case *[]uint16:
		return widen(*p), nil
	case *[]uint32:
		return widen(*p), nil
	case *[]uint64:
		return widen(*p), nil
	case *[]bool:
		vs := make([]float64, len(*p))
		for i, b := range *p {
			if b {
				vs[i] = 1
			}
		}
		return vs, nil
	}
	return nil, fmt.Errorf("unsupported branch type %T", ptr)
}

type number interface {
	~float32 | ~int8 | ~int16 | ~int32 | ~int64 | ~uint8 | ~uint16 | ~uint32 | ~uint64
}

func widen[T number](vs []T) []float64 {
	out := make([]float64, len(vs))
	for i, v := range vs {
		out[i] = float64(v)
	}
	return out
}
