package hzzplot

import (
	"fmt"
	"strconv"
	"strings"
)

// FloatArrayFlags collects a repeated float flag. Values may also be given
// comma separated. The first value set replaces the defaults.
type FloatArrayFlags struct {
	Array   []float64
	beenSet bool
}

func (f *FloatArrayFlags) Set(valueStr string) error {
	var values []float64
	for _, s := range strings.Split(valueStr, ",") {
		value, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil {
			return err
		}
		values = append(values, value)
	}

	if !f.beenSet {
		f.beenSet = true
		f.Array = nil
	}

	f.Array = append(f.Array, values...)
	return nil
}

func (f *FloatArrayFlags) String() string {
	return fmt.Sprint(f.Array)
}

func (f *FloatArrayFlags) Type() string { return "floats" }
