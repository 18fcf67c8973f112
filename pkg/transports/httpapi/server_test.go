package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/echoverse/narrate/pkg/configutil"
	"github.com/echoverse/narrate/pkg/narrate"
	"github.com/echoverse/narrate/pkg/providers/mock"
	"github.com/echoverse/narrate/pkg/speech"
	"github.com/echoverse/narrate/pkg/synth"
)

func newTestServer(t *testing.T, providers ...narrate.ProviderConfig) *httptest.Server {
	t.Helper()
	if len(providers) == 0 {
		providers = []narrate.ProviderConfig{{Name: "mock"}}
	}
	cfg := narrate.Config{
		Environment: "test",
		Synthesis: narrate.SynthesisConfig{
			DefaultLanguage:  "en",
			DefaultFormat:    "wav",
			MaxTextRunes:     20000,
			AttemptTimeoutMS: 2000,
			ProbeTimeoutMS:   500,
		},
		Providers: providers,
		Storage:   narrate.StorageConfig{Dir: t.TempDir()},
	}
	svc, err := narrate.NewService(context.Background(), cfg, testRegistry(), nil)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	t.Cleanup(func() { svc.Close() })

	ts := httptest.NewServer(NewServer(svc, nil).Handler())
	t.Cleanup(ts.Close)
	return ts
}

func testRegistry() *narrate.ProviderRegistry {
	reg := narrate.DefaultRegistry()
	reg.Register("down", configutil.Schema{AllowUnknown: true},
		func(map[string]any) (synth.Synthesizer, []speech.Voice, error) {
			s := mock.New(mock.Config{Name: "down", ProbeErr: errors.New("not reachable")})
			return s, mock.Voices(), nil
		})
	return reg
}

func postNarrate(t *testing.T, ts *httptest.Server, body string) *http.Response {
	t.Helper()
	resp, err := http.Post(ts.URL+"/v1/narrate", "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func TestNarrateEndpointSuccess(t *testing.T) {
	ts := newTestServer(t)

	resp := postNarrate(t, ts, `{"text": "Hello world", "language": "en"}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("unexpected status: %d", resp.StatusCode)
	}
	var out narrateResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out.Provider != "mock" || out.RunID == "" || out.Reference == "" {
		t.Fatalf("unexpected response: %+v", out)
	}
	if len(out.Attempts) != 1 {
		t.Fatalf("expected one attempt, got %d", len(out.Attempts))
	}
}

func TestNarrateEndpointInvalidRequest(t *testing.T) {
	ts := newTestServer(t)

	resp := postNarrate(t, ts, `{"text": "", "language": "en"}`)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("unexpected status: %d", resp.StatusCode)
	}
	var out errorResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out.Code != "invalid_request" {
		t.Fatalf("unexpected code: %s", out.Code)
	}
}

func TestNarrateEndpointUnsupportedLanguage(t *testing.T) {
	ts := newTestServer(t)

	resp := postNarrate(t, ts, `{"text": "hello", "language": "ja"}`)
	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("unexpected status: %d", resp.StatusCode)
	}
}

func TestNarrateEndpointExhaustedCarriesAttempts(t *testing.T) {
	ts := newTestServer(t, narrate.ProviderConfig{Name: "down"})

	resp := postNarrate(t, ts, `{"text": "hello", "language": "en"}`)
	if resp.StatusCode != http.StatusBadGateway {
		t.Fatalf("unexpected status: %d", resp.StatusCode)
	}
	var out errorResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out.Code != "exhausted" {
		t.Fatalf("unexpected code: %s", out.Code)
	}
	if len(out.Attempts) == 0 {
		t.Fatalf("exhausted response must carry the attempt log")
	}
	if out.Attempts[0].Status != speech.OutcomeUnavailable {
		t.Fatalf("unexpected first attempt: %+v", out.Attempts[0])
	}
}

func TestNarrateEndpointMalformedBody(t *testing.T) {
	ts := newTestServer(t)

	resp := postNarrate(t, ts, `{not json`)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("unexpected status: %d", resp.StatusCode)
	}
}

func TestVoicesEndpoint(t *testing.T) {
	ts := newTestServer(t)

	resp, err := http.Get(ts.URL + "/v1/voices?language=en")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("unexpected status: %d", resp.StatusCode)
	}
	var out struct {
		Voices []voiceEntry `json:"voices"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(out.Voices) == 0 {
		t.Fatalf("expected voices for en")
	}
}

func TestVoicesEndpointRequiresLanguage(t *testing.T) {
	ts := newTestServer(t)

	resp, err := http.Get(ts.URL + "/v1/voices")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("unexpected status: %d", resp.StatusCode)
	}
}

func TestHealthEndpoint(t *testing.T) {
	ts := newTestServer(t)

	resp, err := http.Get(ts.URL + "/healthz")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("unexpected status: %d", resp.StatusCode)
	}
}
