package sourcemap

import (
	"bytes"
	"encoding/base64"

	"github.com/pkg/errors"
)

var (
	refMarker    = []byte("sourceMappingURL=data:")
	base64Marker = []byte("base64,")
	// Base64 encoded JSON objects start with "ey", the encoding of `{"`.
	jsonMarker = []byte("base64,ey")
)

// IsEmbedded reports whether data carries an inline base64 source map.
func IsEmbedded(data []byte) bool {
	return bytes.Contains(data, refMarker) && bytes.Contains(data, jsonMarker)
}

// Unembed extracts and decodes the inline source map of data.
func Unembed(data []byte) ([]byte, error) {
	ref := bytes.Index(data, refMarker)
	if ref < 0 {
		return nil, errors.New("no inline source map reference")
	}
	url := data[ref:]
	pos := bytes.Index(url, base64Marker)
	if pos < 0 {
		return nil, errors.New("source map data URL is not base64")
	}
	encoded := url[pos+len(base64Marker):]
	if end := bytes.IndexByte(encoded, '\n'); end >= 0 {
		encoded = encoded[:end]
	}
	encoded = bytes.TrimSpace(encoded)
	encoded = bytes.TrimSpace(bytes.TrimSuffix(encoded, []byte("*/")))

	out, err := base64.StdEncoding.DecodeString(string(encoded))
	if err != nil {
		out, err = base64.RawStdEncoding.DecodeString(string(bytes.TrimRight(encoded, "=")))
	}
	if err != nil {
		return nil, errors.Wrap(err, "decoding inline source map")
	}
	return out, nil
}
