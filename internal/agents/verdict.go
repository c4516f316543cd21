package agents

import (
	"strings"

	"github.com/tidwall/gjson"
)

const (
	LabelGood          = "good"
	LabelNeedsRevision = "needs_revision"
	LabelBad           = "bad"
)

// Verdict is the reviewer's structured judgment of a draft.
type Verdict struct {
	Label       string  `json:"label"`
	Rationale   string  `json:"rationale"`
	Suggestions string  `json:"suggestions,omitempty"`
	Confidence  float64 `json:"confidence"`
}

// FallbackVerdict is the defined outcome when the model's review output
// cannot be decoded. Reviewing is advisory, so this is never an error.
func FallbackVerdict() Verdict {
	return Verdict{
		Label:      LabelNeedsRevision,
		Rationale:  "automatic verdict: model response could not be parsed",
		Confidence: 0.0,
	}
}

// ParseVerdict decodes a verdict from a raw model completion. Models
// routinely wrap the payload in prose or markdown fencing, so the parser
// hunts for the first JSON object carrying a valid label. The second
// return is false when nothing decodable was found.
func ParseVerdict(raw string) (Verdict, bool) {
	for _, candidate := range payloadCandidates(raw) {
		if v, ok := decodeVerdict(candidate); ok {
			return v, true
		}
	}
	return FallbackVerdict(), false
}

func payloadCandidates(raw string) []string {
	var out []string

	trimmed := strings.TrimSpace(raw)
	if trimmed != "" {
		out = append(out, trimmed)
	}

	// Fenced block content, with or without a language tag.
	if start := strings.Index(trimmed, "```"); start >= 0 {
		rest := trimmed[start+3:]
		if nl := strings.IndexByte(rest, '\n'); nl >= 0 {
			rest = rest[nl+1:]
		}
		if end := strings.Index(rest, "```"); end >= 0 {
			out = append(out, strings.TrimSpace(rest[:end]))
		}
	}

	// Outermost brace span, for payloads buried in prose.
	if open := strings.IndexByte(trimmed, '{'); open >= 0 {
		if close := strings.LastIndexByte(trimmed, '}'); close > open {
			out = append(out, trimmed[open:close+1])
		}
	}

	return out
}

func decodeVerdict(payload string) (Verdict, bool) {
	if !gjson.Valid(payload) {
		return Verdict{}, false
	}

	parsed := gjson.Parse(payload)
	label := strings.ToLower(strings.TrimSpace(parsed.Get("label").String()))
	switch label {
	case LabelGood, LabelNeedsRevision, LabelBad:
	default:
		return Verdict{}, false
	}

	confidence := parsed.Get("confidence").Float()
	if confidence < 0 {
		confidence = 0
	}
	if confidence > 1 {
		confidence = 1
	}

	return Verdict{
		Label:       label,
		Rationale:   parsed.Get("rationale").String(),
		Suggestions: parsed.Get("suggestions").String(),
		Confidence:  confidence,
	}, true
}
