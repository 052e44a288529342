//go:build !cgo

package audio

import "errors"

var errOpusUnavailable = errors.New("opus decoding requires cgo")

// openOpus always steps aside so the general decoders get the file.
func openOpus(string) (Source, error) {
	return nil, &structuralError{err: errOpusUnavailable}
}
