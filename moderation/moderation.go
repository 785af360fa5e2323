package moderation

import (
	"context"
	"encoding/json"
	"errors"
)

// Category is the internal moderation category vocabulary. Every provider's
// native attribute names get translated into one of these values.
type Category string

const (
	CategoryHateSpeech Category = "hate_speech"
	CategoryHarassment Category = "harassment"
	CategorySelfHarm   Category = "self_harm"
	CategoryNSFW       Category = "nsfw"
	CategoryViolence   Category = "violence"
	CategorySpam       Category = "spam"
	CategoryOther      Category = "other"
)

// Categories lists every valid category value.
func Categories() []Category {
	return []Category{
		CategoryHateSpeech,
		CategoryHarassment,
		CategorySelfHarm,
		CategoryNSFW,
		CategoryViolence,
		CategorySpam,
		CategoryOther,
	}
}

func (c Category) IsValid() bool {
	switch c {
	case CategoryHateSpeech, CategoryHarassment, CategorySelfHarm, CategoryNSFW, CategoryViolence, CategorySpam, CategoryOther:
		return true
	}
	return false
}

// Source indicates which stage of the fallback chain produced a verdict.
type Source string

const (
	SourcePrimary   Source = "primary"
	SourceSecondary Source = "secondary"
	SourceLocal     Source = "local"
)

// Result is the normalized verdict returned for every classification, no
// matter which stage produced it.
//
// Severity is in [0.0, 1.0] and is meaningless (zero) when Flagged is false.
// Raw is an opaque diagnostic payload for audit logging; callers must not
// branch on its contents.
type Result struct {
	Flagged  bool            `json:"flagged"`
	Category Category        `json:"category"`
	Severity float64         `json:"severity"`
	Source   Source          `json:"source,omitempty"`
	Raw      json.RawMessage `json:"raw,omitempty"`
}

// Unflagged returns the canonical clean verdict: not flagged, category
// "other", zero severity.
func Unflagged() *Result {
	return &Result{
		Flagged:  false,
		Category: CategoryOther,
		Severity: 0,
	}
}

// Provider is a single network-backed classification stage. Implementations
// normalize their native response shape into a Result, or report an error
// from the taxonomy below so the engine can fall through to the next stage.
type Provider interface {
	Name() string
	Classify(ctx context.Context, content string) (*Result, error)
}

var (
	// ErrProviderUnavailable covers network failures, timeouts, and
	// non-success HTTP statuses.
	ErrProviderUnavailable = errors.New("moderation provider unavailable")
	// ErrProviderResponseInvalid covers unparseable response bodies and
	// responses missing expected fields.
	ErrProviderResponseInvalid = errors.New("moderation provider response invalid")
)
