package audio

import "testing"

func wavBytes() []byte {
	// Minimal RIFF/WAVE header followed by a little silence.
	b := []byte("RIFF\x24\x00\x00\x00WAVEfmt ")
	return append(b, make([]byte, 32)...)
}

func TestSniffWAV(t *testing.T) {
	if got := Sniff(wavBytes()); got != FormatWAV {
		t.Fatalf("expected wav, got %q", got)
	}
}

func TestSniffMP3(t *testing.T) {
	id3 := append([]byte("ID3"), make([]byte, 16)...)
	if got := Sniff(id3); got != FormatMP3 {
		t.Fatalf("expected mp3 for ID3 header, got %q", got)
	}
	frame := []byte{0xFF, 0xFB, 0x90, 0x00}
	if got := Sniff(frame); got != FormatMP3 {
		t.Fatalf("expected mp3 for frame sync, got %q", got)
	}
}

func TestSniffUnknown(t *testing.T) {
	if got := Sniff([]byte("not audio at all")); got != "" {
		t.Fatalf("expected empty format, got %q", got)
	}
	if got := Sniff(nil); got != "" {
		t.Fatalf("expected empty format for nil, got %q", got)
	}
}

func TestMatches(t *testing.T) {
	if !Matches(wavBytes(), FormatWAV) {
		t.Fatalf("wav bytes should match wav")
	}
	if Matches(wavBytes(), FormatMP3) {
		t.Fatalf("wav bytes must not match mp3")
	}
}

func TestParseFormat(t *testing.T) {
	if f, err := ParseFormat(" WAV "); err != nil || f != FormatWAV {
		t.Fatalf("parse wav: %v %q", err, f)
	}
	if _, err := ParseFormat("flac"); err == nil {
		t.Fatalf("expected error for unsupported format")
	}
}
