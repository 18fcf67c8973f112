package speech

import (
	"fmt"
	"sort"
	"strings"

	"github.com/echoverse/narrate/pkg/synth"
)

// QualityTier orders voices of equal match rank. Higher is better.
type QualityTier int

const (
	TierStandard QualityTier = iota
	TierNeural
	TierPremium
)

func (t QualityTier) String() string {
	switch t {
	case TierNeural:
		return "neural"
	case TierPremium:
		return "premium"
	default:
		return "standard"
	}
}

// Voice is one provider-specific voice handle.
type Voice struct {
	ID       string
	Language string
	// Persona is a vendor-neutral tag ("lisa", "michael", "narrator") that a
	// caller may request without knowing provider voice ids.
	Persona string
	Tier    QualityTier
	// Default marks the provider's preferred voice for its language.
	Default bool
}

// Provider pairs a synthesizer with its declared voice table.
type Provider struct {
	ID string
	// Priority orders providers in the fallback chain; lower is tried first.
	// Providers sharing a priority fall back to registration order.
	Priority int
	Synth    synth.Synthesizer
	Voices   []Voice
}

// Candidate is a (provider, voice) pair eligible for one synthesis attempt.
type Candidate struct {
	Provider string
	Voice    string
	Language string
	Tier     QualityTier
}

// Catalog is the read-only provider/voice table built at startup and shared
// across requests. Registration order is part of the ranking contract, so
// providers live in a slice, not a map.
type Catalog struct {
	providers []Provider
	index     map[string]int
}

func NewCatalog() *Catalog {
	return &Catalog{index: make(map[string]int)}
}

// Register adds a provider to the catalog. Providers cannot be registered
// twice and must carry a synthesizer and at least one voice.
func (c *Catalog) Register(p Provider) error {
	p.ID = strings.ToLower(strings.TrimSpace(p.ID))
	if p.ID == "" {
		return fmt.Errorf("provider id is empty")
	}
	if _, dup := c.index[p.ID]; dup {
		return fmt.Errorf("provider already registered: %s", p.ID)
	}
	if p.Synth == nil {
		return fmt.Errorf("provider %s has no synthesizer", p.ID)
	}
	if len(p.Voices) == 0 {
		return fmt.Errorf("provider %s declares no voices", p.ID)
	}
	voices := make([]Voice, len(p.Voices))
	for i, v := range p.Voices {
		v.ID = strings.ToLower(strings.TrimSpace(v.ID))
		v.Language = normalizeLanguage(v.Language)
		v.Persona = strings.ToLower(strings.TrimSpace(v.Persona))
		if v.ID == "" || v.Language == "" {
			return fmt.Errorf("provider %s voice %d is missing id or language", p.ID, i)
		}
		voices[i] = v
	}
	p.Voices = voices
	c.index[p.ID] = len(c.providers)
	c.providers = append(c.providers, p)
	return nil
}

// Synthesizer returns the adapter registered under id, or nil.
func (c *Catalog) Synthesizer(providerID string) synth.Synthesizer {
	i, ok := c.index[strings.ToLower(providerID)]
	if !ok {
		return nil
	}
	return c.providers[i].Synth
}

// Languages lists every language at least one provider declares, sorted.
func (c *Catalog) Languages() []string {
	seen := map[string]struct{}{}
	for _, p := range c.providers {
		for _, v := range p.Voices {
			seen[v.Language] = struct{}{}
		}
	}
	out := make([]string, 0, len(seen))
	for l := range seen {
		out = append(out, l)
	}
	sort.Strings(out)
	return out
}

// CatalogVoice annotates a voice with its provider for listing surfaces.
type CatalogVoice struct {
	Provider string
	Voice
}

// VoicesFor lists the voices declared for a language in provider fallback
// order. Used by the UI layer, not by ranking.
func (c *Catalog) VoicesFor(language string) []CatalogVoice {
	language = normalizeLanguage(language)
	var out []CatalogVoice
	for _, p := range c.providers {
		for _, v := range p.Voices {
			if v.Language == language {
				out = append(out, CatalogVoice{Provider: p.ID, Voice: v})
			}
		}
	}
	return out
}

// Match ranks, best first. The numeric order is the ranking contract.
const (
	matchExactVoice    = 0 // language match + explicitly requested voice id
	matchPersona       = 1 // language match + voice of the requested persona
	matchDefaultVoice  = 2 // language match, provider default voice
	matchFamilyDefault = 3 // provider default voice for a same-family language
)

type scoredCandidate struct {
	Candidate
	match    int
	priority int
	regIndex int
	voiceIdx int
}

// RankCandidates produces the ordered (provider, voice) fallback list for a
// language and optional voice preference. The result is deterministic for
// identical inputs: match tier first, then provider priority, then provider
// registration order, then voice quality tier, then voice declaration order.
// An empty result means no provider can serve the language at all.
func (c *Catalog) RankCandidates(language, voicePreference string) []Candidate {
	language = normalizeLanguage(language)
	voicePreference = strings.ToLower(strings.TrimSpace(voicePreference))

	var scored []scoredCandidate
	add := func(p Provider, regIdx int, v Voice, voiceIdx, match int) {
		scored = append(scored, scoredCandidate{
			Candidate: Candidate{
				Provider: p.ID,
				Voice:    v.ID,
				Language: v.Language,
				Tier:     v.Tier,
			},
			match:    match,
			priority: p.Priority,
			regIndex: regIdx,
			voiceIdx: voiceIdx,
		})
	}

	for regIdx, p := range c.providers {
		def, defIdx, hasDef := defaultVoice(p, language)
		for voiceIdx, v := range p.Voices {
			if v.Language != language {
				continue
			}
			if voicePreference != "" && v.ID == voicePreference {
				add(p, regIdx, v, voiceIdx, matchExactVoice)
			}
			if voicePreference != "" && v.Persona == voicePreference {
				add(p, regIdx, v, voiceIdx, matchPersona)
			}
		}
		if hasDef {
			add(p, regIdx, def, defIdx, matchDefaultVoice)
		} else if fv, fi, ok := familyDefault(p, language); ok {
			add(p, regIdx, fv, fi, matchFamilyDefault)
		}
	}

	sort.SliceStable(scored, func(i, j int) bool {
		a, b := scored[i], scored[j]
		if a.match != b.match {
			return a.match < b.match
		}
		if a.priority != b.priority {
			return a.priority < b.priority
		}
		if a.regIndex != b.regIndex {
			return a.regIndex < b.regIndex
		}
		if a.Tier != b.Tier {
			return a.Tier > b.Tier
		}
		return a.voiceIdx < b.voiceIdx
	})

	// A voice reached through several tiers keeps only its best entry.
	seen := make(map[string]struct{}, len(scored))
	out := make([]Candidate, 0, len(scored))
	for _, s := range scored {
		key := s.Provider + "/" + s.Voice
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, s.Candidate)
	}
	return out
}

// defaultVoice picks the provider's default voice for a language: the voice
// flagged Default, else the first declared voice for that language.
func defaultVoice(p Provider, language string) (Voice, int, bool) {
	first := -1
	for i, v := range p.Voices {
		if v.Language != language {
			continue
		}
		if v.Default {
			return v, i, true
		}
		if first < 0 {
			first = i
		}
	}
	if first >= 0 {
		return p.Voices[first], first, true
	}
	return Voice{}, 0, false
}

// familyDefault finds a default voice for the closest language family when
// the provider has nothing for the language itself.
func familyDefault(p Provider, language string) (Voice, int, bool) {
	if LanguageFamily(language) == "" {
		return Voice{}, 0, false
	}
	for i, v := range p.Voices {
		if v.Language != language && v.Default && SameFamily(v.Language, language) {
			return p.Voices[i], i, true
		}
	}
	return Voice{}, 0, false
}
