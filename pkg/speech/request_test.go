package speech

import (
	"strings"
	"testing"

	"github.com/echoverse/narrate/pkg/audio"
	"github.com/echoverse/narrate/pkg/errorsx"
)

func TestRequestValidateEmptyText(t *testing.T) {
	req := NewRequest("   ", "en", "", audio.FormatMP3)
	err := req.Validate(0)
	if !errorsx.HasReason(err, errorsx.ReasonInvalidRequest) {
		t.Fatalf("expected invalid_request, got %v", err)
	}
}

func TestRequestValidateTextTooLong(t *testing.T) {
	req := NewRequest(strings.Repeat("a", 101), "en", "", audio.FormatMP3)
	if err := req.Validate(100); !errorsx.HasReason(err, errorsx.ReasonInvalidRequest) {
		t.Fatalf("expected invalid_request, got %v", err)
	}
	req = NewRequest(strings.Repeat("a", 100), "en", "", audio.FormatMP3)
	if err := req.Validate(100); err != nil {
		t.Fatalf("text at limit should pass: %v", err)
	}
}

func TestRequestValidateBadFormat(t *testing.T) {
	req := Request{Text: "hello", Language: "en", Format: audio.Format("flac")}
	if err := req.Validate(0); !errorsx.HasReason(err, errorsx.ReasonInvalidRequest) {
		t.Fatalf("expected invalid_request, got %v", err)
	}
}

func TestNewRequestNormalizes(t *testing.T) {
	req := NewRequest("hello", " PT-br ", " Lisa ", audio.FormatWAV)
	if req.Language != "pt" {
		t.Fatalf("expected language pt, got %q", req.Language)
	}
	if req.VoicePreference != "lisa" {
		t.Fatalf("expected preference lisa, got %q", req.VoicePreference)
	}
}
