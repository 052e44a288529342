package audio

import (
	"bytes"
	"errors"
	"fmt"
	"io"
)

// opusHeadMagic starts the identification header in the first Ogg page of an Opus stream.
var opusHeadMagic = []byte("OpusHead")

// headReadSize covers the first Ogg page, which holds only the identification header.
const headReadSize = 4096

// opusChannels reads the output channel count from the OpusHead packet.
func opusChannels(r io.ReaderAt) (int, error) {
	buf := make([]byte, headReadSize)
	n, err := r.ReadAt(buf, 0)
	if err != nil && !errors.Is(err, io.EOF) {
		return 0, err
	}
	buf = buf[:n]

	i := bytes.Index(buf, opusHeadMagic)
	// magic(8) version(1) channels(1)
	if i < 0 || i+10 > len(buf) {
		return 0, errors.New("missing OpusHead")
	}
	channels := int(buf[i+9])
	if channels == 0 {
		return 0, fmt.Errorf("invalid channel count %d", channels)
	}
	return channels, nil
}
