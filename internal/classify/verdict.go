// Package classify screens candidate papers with an external language-model
// classifier and drives the resumable batch job over a full export.
package classify

import (
	"encoding/json"
	"strings"

	"github.com/rotisserie/eris"
)

// Decision is a keep/reject screening outcome.
type Decision string

const (
	DecisionKeep   Decision = "keep"
	DecisionReject Decision = "reject"
)

// Confidence grades how sure the classifier is.
type Confidence string

const (
	ConfidenceHigh   Confidence = "high"
	ConfidenceMedium Confidence = "medium"
	ConfidenceLow    Confidence = "low"
)

// Verdict is a screening decision with its confidence.
type Verdict struct {
	Decision   Decision   `json:"decision"`
	Confidence Confidence `json:"confidence"`
}

// DefaultVerdict is returned when the classifier cannot produce a usable
// answer: reject at low confidence, so doubtful papers never slip through.
func DefaultVerdict() Verdict {
	return Verdict{Decision: DecisionReject, Confidence: ConfidenceLow}
}

// ParseVerdict parses a model response into a Verdict. The response may be
// wrapped in a markdown code fence. The payload must be strict JSON and
// decision must be keep or reject; anything else is an error so the caller
// can retry.
func ParseVerdict(text string) (Verdict, error) {
	var v Verdict
	if err := json.Unmarshal([]byte(cleanJSON(text)), &v); err != nil {
		return Verdict{}, eris.Wrap(err, "classify: parse verdict")
	}

	switch v.Decision {
	case DecisionKeep, DecisionReject:
	default:
		return Verdict{}, eris.Errorf("classify: invalid decision %q", v.Decision)
	}

	if v.Confidence == "" {
		v.Confidence = ConfidenceLow
	}
	return v, nil
}

// cleanJSON strips markdown fences and extracts the JSON object.
func cleanJSON(text string) string {
	text = strings.TrimSpace(text)

	if strings.HasPrefix(text, "```json") {
		text = strings.TrimPrefix(text, "```json")
		if idx := strings.LastIndex(text, "```"); idx >= 0 {
			text = text[:idx]
		}
	} else if strings.HasPrefix(text, "```") {
		text = strings.TrimPrefix(text, "```")
		if idx := strings.LastIndex(text, "```"); idx >= 0 {
			text = text[:idx]
		}
	}

	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start >= 0 && end > start {
		text = text[start : end+1]
	}

	return strings.TrimSpace(text)
}
