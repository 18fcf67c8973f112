package configutil

import "testing"

func TestDecodeSettingsNormalizesKeys(t *testing.T) {
	var out struct {
		APIKey  string `mapstructure:"api_key"`
		VoiceID string `mapstructure:"voice_id"`
		Timeout int    `mapstructure:"timeout_ms"`
	}
	in := map[string]any{
		"API-Key":   "secret",
		"voiceid":   "rachel",
		"timeoutMS": "1500",
	}
	if err := DecodeSettings(in, &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out.APIKey != "secret" || out.VoiceID != "rachel" || out.Timeout != 1500 {
		t.Fatalf("unexpected decode result: %+v", out)
	}
}

func TestValidateSettingsMissingRequired(t *testing.T) {
	err := ValidateSettings(map[string]any{"api_key": ""}, Schema{
		Required: []string{"api_key"},
	})
	if err == nil {
		t.Fatalf("expected error for empty required key")
	}
}

func TestValidateSettingsUnknownKey(t *testing.T) {
	err := ValidateSettings(map[string]any{"api_key": "x", "bogus": 1}, Schema{
		Required: []string{"api_key"},
	})
	if err == nil {
		t.Fatalf("expected error for unknown key")
	}
	if err := ValidateSettings(map[string]any{"api_key": "x", "bogus": 1}, Schema{
		Required:     []string{"api_key"},
		AllowUnknown: true,
	}); err != nil {
		t.Fatalf("unexpected error with AllowUnknown: %v", err)
	}
}
