package audio

import (
	"bytes"
	"fmt"
	"strings"
)

// Format identifies an audio container.
type Format string

const (
	FormatMP3 Format = "mp3"
	FormatWAV Format = "wav"
)

// ParseFormat maps a user-supplied format string to a Format.
func ParseFormat(value string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "mp3":
		return FormatMP3, nil
	case "wav", "wave":
		return FormatWAV, nil
	default:
		return "", fmt.Errorf("unrecognized audio format: %q", value)
	}
}

func (f Format) String() string { return string(f) }

// Extension returns the file extension for the format, without dot.
func (f Format) Extension() string { return string(f) }

// Sniff inspects the leading bytes of data and reports the container it
// looks like. Returns "" when nothing matches.
func Sniff(data []byte) Format {
	if looksLikeWAV(data) {
		return FormatWAV
	}
	if looksLikeMP3(data) {
		return FormatMP3
	}
	return ""
}

// Matches reports whether data carries the requested container.
func Matches(data []byte, want Format) bool {
	switch want {
	case FormatWAV:
		return looksLikeWAV(data)
	case FormatMP3:
		return looksLikeMP3(data)
	default:
		return false
	}
}

func looksLikeWAV(data []byte) bool {
	return len(data) >= 12 &&
		bytes.Equal(data[0:4], []byte("RIFF")) &&
		bytes.Equal(data[8:12], []byte("WAVE"))
}

func looksLikeMP3(data []byte) bool {
	if len(data) < 4 {
		return false
	}
	if bytes.Equal(data[0:3], []byte("ID3")) {
		return true
	}
	// MPEG frame sync: 11 set bits, then a valid version/layer nibble.
	if data[0] == 0xFF && data[1]&0xE0 == 0xE0 {
		version := (data[1] >> 3) & 0x03
		layer := (data[1] >> 1) & 0x03
		return version != 0x01 && layer != 0x00
	}
	return false
}
