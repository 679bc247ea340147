package hzzplot

import (
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFloatArrayFlags(t *testing.T) {
	lines := FloatArrayFlags{Array: []float64{0.8, 1.2}}
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	fs.Var(&lines, "ratio-lines", "")

	require.NoError(t, fs.Parse(nil))
	assert.Equal(t, []float64{0.8, 1.2}, lines.Array)

	require.NoError(t, fs.Parse([]string{"--ratio-lines", "0.9,1.1", "--ratio-lines", "1.5"}))
	assert.Equal(t, []float64{0.9, 1.1, 1.5}, lines.Array)
	assert.Equal(t, "[0.9 1.1 1.5]", lines.String())

	require.Error(t, fs.Parse([]string{"--ratio-lines", "x"}))
}
