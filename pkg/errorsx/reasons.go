package errorsx

// ReasonCode is a short machine-readable error reason.
type ReasonCode string

const (
	ReasonUnknown ReasonCode = "unknown"

	// Request-level failures, raised before any candidate is tried.
	ReasonInvalidRequest      ReasonCode = "invalid_request"
	ReasonUnsupportedLanguage ReasonCode = "unsupported_language"

	// Per-candidate outcomes, local to the fallback loop.
	ReasonProbeUnavailable ReasonCode = "probe_unavailable"
	ReasonSynthCall        ReasonCode = "synth_call"
	ReasonSynthTimeout     ReasonCode = "synth_timeout"
	ReasonSynthEmptyAudio  ReasonCode = "synth_empty_audio"
	ReasonSynthBadAudio    ReasonCode = "synth_bad_audio"
	ReasonSynthRateLimit   ReasonCode = "synth_rate_limit"

	// Terminal: every candidate was probed and/or attempted.
	ReasonExhausted ReasonCode = "exhausted"

	// Collaborator failures.
	ReasonTranslateCall ReasonCode = "translate_call"
	ReasonStoreWrite    ReasonCode = "store_write"
)
