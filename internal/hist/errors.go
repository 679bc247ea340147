package hist

import "errors"

var (
	// ErrBinning is returned when a binning is malformed or two
	// histograms cannot be combined bin by bin.
	ErrBinning = errors.New("hist: incompatible binning")
)
