package events

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValueSlices(t *testing.T) {
	want := []float64{1, 2}
	for _, tc := range []struct {
		name string
		ptr  any
	}{
		{"float32", &[]float32{1, 2}},
		{"float64", &[]float64{1, 2}},
		{"int8", &[]int8{1, 2}},
		{"int16", &[]int16{1, 2}},
		{"int32", &[]int32{1, 2}},
		{"int64", &[]int64{1, 2}},
		{"uint8", &[]uint8{1, 2}},
		{"uint16", &[]uint16{1, 2}},
		{"uint32", &[]uint32{1, 2}},
		{"uint64", &[]uint64{1, 2}},
		{"bool", &[]bool{true, true}},
	} {
		t.Run(tc.name, func(t *testing.T) {
			v, err := value(tc.ptr)
			require.NoError(t, err)
			if tc.name == "bool" {
				assert.Equal(t, []float64{1, 1}, v)
				return
			}
			assert.Equal(t, want, v)
		})
	}
}

func TestValueScalars(t *testing.T) {
	i8, u16, u64 := int8(-3), uint16(7), uint64(9)
	for _, ptr := range []any{&i8, &u16, &u64} {
		_, err := value(ptr)
		require.NoError(t, err)
	}
	v, err := value(&i8)
	require.NoError(t, err)
	assert.Equal(t, -3.0, v)

	_, err = value(&[]string{"a"})
	require.Error(t, err)
}
