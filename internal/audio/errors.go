package audio

import "fmt"

var (
	ErrDeviceUnavailable = fmt.Errorf("audio output device unavailable")
	ErrDecodeFailure     = fmt.Errorf("decode failure")

	// ErrDecoderFault and ErrUnsupportedFormat are always wrapped together with ErrDecodeFailure.
	ErrDecoderFault      = fmt.Errorf("decoder fault")
	ErrUnsupportedFormat = fmt.Errorf("unsupported audio format")
)

// structuralError marks a specialized decoder rejecting the container, which lets the
// selector fall back to the general decoders.
type structuralError struct {
	err error
}

func (e *structuralError) Error() string { return "structural: " + e.err.Error() }
func (e *structuralError) Unwrap() error { return e.err }

func decodeError(path string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrDecodeFailure, path, err)
}
