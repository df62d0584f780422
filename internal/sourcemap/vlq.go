package sourcemap

import (
	"github.com/pkg/errors"
)

const base64Chars = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789+/"

var base64Values [256]int8

func init() {
	for i := range base64Values {
		base64Values[i] = -1
	}
	for i := 0; i < len(base64Chars); i++ {
		base64Values[base64Chars[i]] = int8(i)
	}
}

const (
	vlqShift        = 5
	vlqContinuation = 1 << vlqShift
	vlqMask         = vlqContinuation - 1
)

// decodeSegment decodes the base64 VLQ fields of one mapping segment into
// out and returns how many fields it held.
func decodeSegment(seg string, out []int64) (int, error) {
	n := 0
	var (
		value uint64
		shift uint
	)
	for i := 0; i < len(seg); i++ {
		digit := base64Values[seg[i]]
		if digit < 0 {
			return 0, errors.Errorf("invalid base64 character %q in %q", seg[i], seg)
		}
		if shift+vlqShift > 64 {
			return 0, errors.Errorf("VLQ value overflows in %q", seg)
		}
		value |= uint64(digit&vlqMask) << shift
		if digit&vlqContinuation != 0 {
			shift += vlqShift
			continue
		}
		if n == len(out) {
			return 0, errors.Errorf("too many fields in %q", seg)
		}
		v := int64(value >> 1)
		if value&1 != 0 {
			v = -v
		}
		out[n] = v
		n++
		value, shift = 0, 0
	}
	if shift != 0 {
		return 0, errors.Errorf("unterminated VLQ value in %q", seg)
	}
	return n, nil
}
