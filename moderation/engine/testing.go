package engine

import (
	"context"
	"log/slog"

	"github.com/devcabi-net/mirage-community-sub000/moderation"
)

// EngineTestFixture returns an engine with no network stages configured, so
// every classification resolves through the built-in keyword filter.
// Intentionally exported, for use in other packages.
func EngineTestFixture() *Engine {
	return New(Config{
		Logger: slog.Default(),
	})
}

// StaticProvider is a test double that deterministically returns the same
// result or error on every call, recording how often it was invoked.
type StaticProvider struct {
	ProviderName string
	Result       *moderation.Result
	Err          error
	Calls        int
}

var _ moderation.Provider = (*StaticProvider)(nil)

func (p *StaticProvider) Name() string {
	if p.ProviderName == "" {
		return "static"
	}
	return p.ProviderName
}

func (p *StaticProvider) Classify(ctx context.Context, content string) (*moderation.Result, error) {
	p.Calls++
	if p.Err != nil {
		return nil, p.Err
	}
	// copy so callers can't mutate the fixture
	res := *p.Result
	return &res, nil
}

// HangingProvider blocks until the stage context is cancelled, simulating a
// hung upstream. It always returns ErrProviderUnavailable wrapped around the
// context error.
type HangingProvider struct {
	Calls int
}

var _ moderation.Provider = (*HangingProvider)(nil)

func (p *HangingProvider) Name() string {
	return "hanging"
}

func (p *HangingProvider) Classify(ctx context.Context, content string) (*moderation.Result, error) {
	p.Calls++
	<-ctx.Done()
	return nil, moderation.ErrProviderUnavailable
}
