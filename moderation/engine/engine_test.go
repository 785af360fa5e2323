package engine

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/devcabi-net/mirage-community-sub000/moderation"
	"github.com/devcabi-net/mirage-community-sub000/moderation/keyword"

	"github.com/stretchr/testify/assert"
)

func flaggedResult(cat moderation.Category, severity float64) *moderation.Result {
	return &moderation.Result{
		Flagged:  true,
		Category: cat,
		Severity: severity,
	}
}

func TestClassifyPrimarySuccess(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()

	primary := &StaticProvider{Result: flaggedResult(moderation.CategoryViolence, 0.93)}
	secondary := &StaticProvider{Result: flaggedResult(moderation.CategoryHarassment, 0.5)}
	eng := New(Config{
		Logger:    slog.Default(),
		Primary:   primary,
		Secondary: secondary,
	})

	res := eng.Classify(ctx, "some content")
	assert.True(res.Flagged)
	assert.Equal(moderation.CategoryViolence, res.Category)
	assert.Equal(0.93, res.Severity)
	assert.Equal(moderation.SourcePrimary, res.Source)
	assert.Equal(1, primary.Calls)
	// first success wins: secondary never invoked
	assert.Equal(0, secondary.Calls)
}

func TestClassifyPrimaryCleanDoesNotFallThrough(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()

	primary := &StaticProvider{Result: moderation.Unflagged()}
	secondary := &StaticProvider{Result: flaggedResult(moderation.CategoryNSFW, 0.9)}
	eng := New(Config{
		Primary:   primary,
		Secondary: secondary,
	})

	// a clean verdict is still a verdict; only errors trigger fallthrough
	res := eng.Classify(ctx, "a peaceful landscape painting")
	assert.False(res.Flagged)
	assert.Equal(moderation.CategoryOther, res.Category)
	assert.Equal(moderation.SourcePrimary, res.Source)
	assert.Equal(0, secondary.Calls)
}

func TestClassifyFallbackToSecondary(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()

	primary := &StaticProvider{Err: moderation.ErrProviderUnavailable}
	secondary := &StaticProvider{Result: flaggedResult(moderation.CategoryNSFW, 0.87)}
	eng := New(Config{
		Primary:   primary,
		Secondary: secondary,
	})

	res := eng.Classify(ctx, "some content")
	assert.True(res.Flagged)
	assert.Equal(moderation.CategoryNSFW, res.Category)
	assert.Equal(0.87, res.Severity)
	assert.Equal(moderation.SourceSecondary, res.Source)
	assert.Equal(1, primary.Calls)
	assert.Equal(1, secondary.Calls)
}

func TestClassifyFallbackToLocal(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()

	primary := &StaticProvider{Err: moderation.ErrProviderUnavailable}
	secondary := &StaticProvider{Err: moderation.ErrProviderResponseInvalid}
	eng := New(Config{
		Primary:   primary,
		Secondary: secondary,
	})

	res := eng.Classify(ctx, "I hate you, you racist")
	assert.True(res.Flagged)
	assert.Equal(moderation.CategoryHateSpeech, res.Category)
	assert.Equal(keyword.MatchSeverity, res.Severity)
	assert.Equal(moderation.SourceLocal, res.Source)
	assert.Equal(1, primary.Calls)
	assert.Equal(1, secondary.Calls)

	res = eng.Classify(ctx, "check this out discord.gg/abc123")
	assert.True(res.Flagged)
	assert.Equal(moderation.CategorySpam, res.Category)
	assert.Equal(moderation.SourceLocal, res.Source)
}

func TestClassifySkipsUnconfiguredStages(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()

	// no providers at all: straight to the keyword filter
	eng := EngineTestFixture()
	res := eng.Classify(ctx, "just a normal message")
	assert.False(res.Flagged)
	assert.Equal(moderation.SourceLocal, res.Source)

	// only secondary configured
	secondary := &StaticProvider{Result: flaggedResult(moderation.CategorySelfHarm, 0.66)}
	eng = New(Config{Secondary: secondary})
	res = eng.Classify(ctx, "some content")
	assert.Equal(moderation.SourceSecondary, res.Source)
	assert.Equal(moderation.CategorySelfHarm, res.Category)
	assert.Equal(1, secondary.Calls)
}

func TestClassifyTotalWithPanickingProvider(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()

	panicky := &panicProvider{}
	eng := New(Config{Primary: panicky})

	assert.NotPanics(func() {
		res := eng.Classify(ctx, "anything at all")
		assert.NotNil(res)
		assert.Equal(moderation.SourceLocal, res.Source)
	})
	assert.Equal(1, panicky.calls)
}

func TestClassifyHungProviderFallsThrough(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()

	hanging := &HangingProvider{}
	secondary := &StaticProvider{Result: flaggedResult(moderation.CategoryHarassment, 0.8)}
	eng := New(Config{
		Primary:      hanging,
		Secondary:    secondary,
		StageTimeout: 10 * time.Millisecond,
	})

	start := time.Now()
	res := eng.Classify(ctx, "some content")
	assert.Less(time.Since(start), 2*time.Second)
	assert.Equal(moderation.SourceSecondary, res.Source)
	assert.Equal(1, hanging.Calls)
	assert.Equal(1, secondary.Calls)
}

func TestClassifySeverityBounds(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()

	eng := EngineTestFixture()
	for _, content := range []string{
		"",
		"a peaceful landscape painting",
		"you racist",
		"free nitro discord.gg/zzz",
	} {
		res := eng.Classify(ctx, content)
		assert.True(res.Category.IsValid())
		assert.GreaterOrEqual(res.Severity, 0.0)
		assert.LessOrEqual(res.Severity, 1.0)
		if !res.Flagged {
			assert.Equal(0.0, res.Severity)
		}
	}
}

func TestClassifyEmptyInput(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()

	primary := &StaticProvider{Result: moderation.Unflagged()}
	eng := New(Config{Primary: primary})

	res := eng.Classify(ctx, "")
	assert.False(res.Flagged)
	assert.Equal(moderation.CategoryOther, res.Category)
	assert.Equal(0.0, res.Severity)
}

func TestClassifyStateless(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()

	// a stage failure must not affect subsequent calls (no circuit breaker)
	flaky := &StaticProvider{Err: moderation.ErrProviderUnavailable}
	eng := New(Config{Primary: flaky})

	first := eng.Classify(ctx, "hello")
	assert.Equal(moderation.SourceLocal, first.Source)

	flaky.Err = nil
	flaky.Result = moderation.Unflagged()
	second := eng.Classify(ctx, "hello")
	assert.Equal(moderation.SourcePrimary, second.Source)
	assert.Equal(2, flaky.Calls)
}

type panicProvider struct {
	calls int
}

func (p *panicProvider) Name() string { return "panicky" }

func (p *panicProvider) Classify(ctx context.Context, content string) (*moderation.Result, error) {
	p.calls++
	panic("adapter bug")
}
