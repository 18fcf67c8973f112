package audio

import (
	"bytes"
	"io"
	"time"

	mp3 "github.com/hajimehoshi/go-mp3"
)

// MP3Duration decodes an mp3 payload and reports its playing time.
// Used for logging and response metadata only; a decode failure here does
// not invalidate audio that already passed container sniffing.
func MP3Duration(data []byte) (time.Duration, error) {
	dec, err := mp3.NewDecoder(bytes.NewReader(data))
	if err != nil {
		return 0, err
	}
	n, err := io.Copy(io.Discard, dec)
	if err != nil {
		return 0, err
	}
	// Decoded output is 16-bit stereo at the stream's sample rate.
	bytesPerSecond := int64(dec.SampleRate()) * 4
	if bytesPerSecond == 0 {
		return 0, nil
	}
	return time.Duration(n) * time.Second / time.Duration(bytesPerSecond), nil
}
