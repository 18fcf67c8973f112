package yandex

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	tts "github.com/yandex-cloud/go-genproto/yandex/cloud/ai/tts/v3"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"github.com/echoverse/narrate/pkg/audio"
	"github.com/echoverse/narrate/pkg/resilience"
	"github.com/echoverse/narrate/pkg/speech"
	"github.com/echoverse/narrate/pkg/synth"
)

const endpoint = "tts.api.cloud.yandex.net:443"

type Config struct {
	APIKey   string
	FolderID string
	// Model selects the synthesis model, "general" when empty.
	Model string
	Speed float64
}

// Synthesizer streams SpeechKit utterance synthesis over gRPC and collects
// the chunks into one payload. The connection is dialed lazily on the first
// attempt and reused afterwards.
type Synthesizer struct {
	cfg Config

	mu     sync.Mutex
	conn   *grpc.ClientConn
	client tts.SynthesizerClient
}

func New(cfg Config) *Synthesizer {
	if cfg.Model == "" {
		cfg.Model = "general"
	}
	if cfg.Speed == 0 {
		cfg.Speed = 1.0
	}
	return &Synthesizer{cfg: cfg}
}

func (s *Synthesizer) Name() string { return "yandex_tts" }

func (s *Synthesizer) Probe(ctx context.Context) error {
	if strings.TrimSpace(s.cfg.APIKey) == "" {
		return errors.New("yandex api key not configured")
	}
	if strings.TrimSpace(s.cfg.FolderID) == "" {
		return errors.New("yandex folder id not configured")
	}
	return nil
}

func (s *Synthesizer) Synthesize(ctx context.Context, in synth.Input) ([]byte, error) {
	client, err := s.dial()
	if err != nil {
		return nil, err
	}

	ctx = metadata.AppendToOutgoingContext(ctx,
		"authorization", "Api-Key "+s.cfg.APIKey,
		"x-folder-id", s.cfg.FolderID,
	)

	req, err := s.buildRequest(in)
	if err != nil {
		return nil, err
	}

	stream, err := client.UtteranceSynthesis(ctx, req)
	if err != nil {
		return nil, classify(err)
	}

	var out []byte
	for {
		resp, err := stream.Recv()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, classify(err)
		}
		if chunk := resp.GetAudioChunk(); chunk != nil {
			out = append(out, chunk.GetData()...)
		}
	}
	return out, nil
}

func (s *Synthesizer) dial() (tts.SynthesizerClient, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.client != nil {
		return s.client, nil
	}
	conn, err := grpc.NewClient(endpoint,
		grpc.WithTransportCredentials(credentials.NewTLS(&tls.Config{})))
	if err != nil {
		return nil, fmt.Errorf("yandex dial: %w", err)
	}
	s.conn = conn
	s.client = tts.NewSynthesizerClient(conn)
	return s.client, nil
}

func (s *Synthesizer) buildRequest(in synth.Input) (*tts.UtteranceSynthesisRequest, error) {
	var container tts.ContainerAudio_ContainerAudioType
	switch in.Format {
	case audio.FormatWAV:
		container = tts.ContainerAudio_WAV
	case audio.FormatMP3:
		container = tts.ContainerAudio_MP3
	default:
		return nil, fmt.Errorf("yandex: unsupported audio format %s", in.Format)
	}

	req := &tts.UtteranceSynthesisRequest{}
	req.SetModel(s.cfg.Model)
	req.SetText(in.Text)

	voiceHint := &tts.Hints{}
	voiceHint.SetVoice(yandexVoice(in))
	speedHint := &tts.Hints{}
	speedHint.SetSpeed(s.cfg.Speed)
	req.SetHints([]*tts.Hints{voiceHint, speedHint})

	containerAudio := &tts.ContainerAudio{}
	containerAudio.SetContainerAudioType(container)
	audioSpec := &tts.AudioFormatOptions{}
	audioSpec.SetContainerAudio(containerAudio)
	req.SetOutputAudioSpec(audioSpec)
	req.SetLoudnessNormalizationType(tts.UtteranceSynthesisRequest_LUFS)

	return req, nil
}

func classify(err error) error {
	if st, ok := status.FromError(err); ok && st.Code() == codes.ResourceExhausted {
		return resilience.RateLimitError{Provider: "yandex", Message: st.Message()}
	}
	return fmt.Errorf("yandex synthesis: %w", err)
}

func yandexVoice(in synth.Input) string {
	if v, ok := strings.CutPrefix(in.VoiceID, "yandex-"); ok && v != "" {
		return v
	}
	return "marina"
}

// Close tears down the gRPC connection if one was dialed.
func (s *Synthesizer) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.conn == nil {
		return nil
	}
	err := s.conn.Close()
	s.conn = nil
	s.client = nil
	return err
}

// Voices lists the SpeechKit voices this service routes to, keyed by the
// languages each voice actually speaks.
func Voices() []speech.Voice {
	return []speech.Voice{
		{ID: "yandex-marina", Language: "ru", Persona: "lisa", Tier: speech.TierNeural, Default: true},
		{ID: "yandex-filipp", Language: "ru", Persona: "michael", Tier: speech.TierNeural},
		{ID: "yandex-jane", Language: "ru", Tier: speech.TierNeural},
		{ID: "yandex-john", Language: "en", Persona: "michael", Tier: speech.TierNeural, Default: true},
		{ID: "yandex-amira", Language: "kk", Tier: speech.TierNeural, Default: true},
		{ID: "yandex-nigora", Language: "uz", Tier: speech.TierNeural, Default: true},
		{ID: "yandex-lea", Language: "de", Tier: speech.TierNeural, Default: true},
	}
}

var _ synth.Synthesizer = (*Synthesizer)(nil)
