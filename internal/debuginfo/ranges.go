package debuginfo

import (
	"debug/dwarf"
	"fmt"

	"github.com/pkg/errors"
)

// ErrNoSize is returned for size attributes in an encoding that carries
// no usable size.
var ErrNoSize = errors.New("no size information")

// UnderflowError reports a range that ends before it starts.
type UnderflowError struct {
	Low  uint64
	High uint64
}

func (e *UnderflowError) Error() string {
	return fmt.Sprintf("range [%#x, %#x) ends before it starts", e.Low, e.High)
}

// PCSize returns the number of bytes described by a low/high pc pair. The
// high field is either an absolute address or a length from low. An
// absolute high below low or a negative length is an *UnderflowError; any
// other encoding is ErrNoSize.
func PCSize(low, high *dwarf.Field) (uint64, error) {
	if low == nil || high == nil || low.Class != dwarf.ClassAddress {
		return 0, ErrNoSize
	}
	lo, ok := low.Val.(uint64)
	if !ok {
		return 0, ErrNoSize
	}

	switch high.Class {
	case dwarf.ClassAddress:
		hi, ok := high.Val.(uint64)
		if !ok {
			return 0, ErrNoSize
		}
		if hi < lo {
			return 0, &UnderflowError{Low: lo, High: hi}
		}
		return hi - lo, nil
	case dwarf.ClassConstant:
		// Fixed size data forms decode as int64.
		switch v := high.Val.(type) {
		case int64:
			if v < 0 {
				return 0, &UnderflowError{Low: lo, High: lo + uint64(v)}
			}
			return uint64(v), nil
		case uint64:
			return v, nil
		}
	}
	return 0, ErrNoSize
}

// RangesSize sums the lengths of a list of [begin, end) ranges. An empty
// list has size 0. A range ending before it begins is an *UnderflowError.
func RangesSize(ranges [][2]uint64) (uint64, error) {
	var size uint64
	for _, r := range ranges {
		if r[1] < r[0] {
			return 0, &UnderflowError{Low: r[0], High: r[1]}
		}
		size += r[1] - r[0]
	}
	return size, nil
}
