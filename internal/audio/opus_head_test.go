package audio

import (
	"bytes"
	"errors"
	"testing"
)

// oggPage builds the start of an Ogg page carrying an OpusHead packet for channels.
func oggPage(channels byte) []byte {
	var b bytes.Buffer
	b.WriteString("OggS")
	b.Write(make([]byte, 24))
	b.WriteByte(19)
	b.WriteString("OpusHead")
	b.Write([]byte{1, channels, 0x38, 0x01, 0x80, 0xbb, 0, 0, 0, 0, 0})
	return b.Bytes()
}

func TestOpusChannels(t *testing.T) {
	tests := []struct {
		name    string
		data    []byte
		want    int
		wantErr bool
	}{
		{name: "mono", data: oggPage(1), want: 1},
		{name: "stereo", data: oggPage(2), want: 2},
		{name: "surround", data: oggPage(6), want: 6},
		{name: "zero channels", data: oggPage(0), wantErr: true},
		{name: "not opus", data: []byte("OggS\x00\x02vorbis"), wantErr: true},
		{name: "truncated header", data: []byte("OggSOpusHead\x01"), wantErr: true},
		{name: "empty", data: nil, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := opusChannels(bytes.NewReader(tt.data))
			if tt.wantErr {
				if err == nil {
					t.Errorf("expected error, got %d channels", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("expected %d channels, got %d", tt.want, got)
			}
		})
	}
}

func TestOpusChannelsReadError(t *testing.T) {
	if _, err := opusChannels(failingReaderAt{}); !errors.Is(err, errReadAt) {
		t.Errorf("expected read error, got %v", err)
	}
}

var errReadAt = errors.New("read failed")

type failingReaderAt struct{}

func (failingReaderAt) ReadAt([]byte, int64) (int, error) { return 0, errReadAt }
