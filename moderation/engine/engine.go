// Classification orchestrator: runs the fixed fallback chain of providers.
//
// The chain is primary -> secondary -> local keyword filter, first success
// wins. Any provider failure (network, bad response, timeout, panic) is
// absorbed and converted into fallthrough to the next stage; the keyword
// filter cannot fail, so Classify is a total function and never returns an
// error to its caller.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/devcabi-net/mirage-community-sub000/moderation"
	"github.com/devcabi-net/mirage-community-sub000/moderation/keyword"
)

// DefaultStageTimeout bounds each provider call so a hung upstream cannot
// stall the chain. Without it the liveness guarantee of the fallback chain
// would not hold.
const DefaultStageTimeout = 10 * time.Second

// Engine holds the configured stages. Stateless across calls: safe for
// unlimited concurrent use, and nothing about one classification affects the
// next (no circuit breaker, no caching, no retained backoff state).
type Engine struct {
	logger       *slog.Logger
	primary      moderation.Provider
	secondary    moderation.Provider
	fallback     *keyword.Filter
	stageTimeout time.Duration
}

// Config enumerates the engine's construction-time state explicitly. A nil
// Primary or Secondary provider means that stage is not configured (eg, no
// API key) and is skipped; the chain falls through to the next stage.
type Config struct {
	Logger    *slog.Logger
	Primary   moderation.Provider
	Secondary moderation.Provider
	// Fallback overrides the built-in keyword filter. Optional.
	Fallback *keyword.Filter
	// StageTimeout bounds each network stage. Zero means DefaultStageTimeout;
	// negative disables the per-stage timeout entirely.
	StageTimeout time.Duration
}

func New(config Config) *Engine {
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}
	fallback := config.Fallback
	if fallback == nil {
		fallback = keyword.NewFilter()
	}
	timeout := config.StageTimeout
	if timeout == 0 {
		timeout = DefaultStageTimeout
	} else if timeout < 0 {
		timeout = 0
	}
	return &Engine{
		logger:       logger,
		primary:      config.Primary,
		secondary:    config.Secondary,
		fallback:     fallback,
		stageTimeout: timeout,
	}
}

// Classify produces a moderation verdict for content. It never returns an
// error and never panics past its own boundary.
func (eng *Engine) Classify(ctx context.Context, content string) *moderation.Result {
	start := time.Now()
	defer func() {
		classifyDuration.Observe(time.Since(start).Seconds())
	}()

	if res, err := eng.runStage(ctx, moderation.SourcePrimary, eng.primary, content); err == nil && res != nil {
		return eng.verdict(res, moderation.SourcePrimary)
	} else if err != nil {
		eng.logger.Warn("primary moderation provider failed, falling through",
			"provider", eng.primary.Name(), "err", err)
	}

	if res, err := eng.runStage(ctx, moderation.SourceSecondary, eng.secondary, content); err == nil && res != nil {
		return eng.verdict(res, moderation.SourceSecondary)
	} else if err != nil {
		eng.logger.Error("secondary moderation provider failed, resorting to local filter",
			"provider", eng.secondary.Name(), "err", err)
	}

	return eng.verdict(eng.localCheck(content), moderation.SourceLocal)
}

// runStage invokes one provider with the per-stage timeout applied. A nil
// provider yields (nil, nil): stage not configured, skip silently. Panics are
// converted into provider errors so a misbehaving adapter cannot break the
// totality contract.
func (eng *Engine) runStage(ctx context.Context, source moderation.Source, p moderation.Provider, content string) (res *moderation.Result, err error) {
	if p == nil {
		return nil, nil
	}
	stageAttemptCount.WithLabelValues(string(source)).Inc()
	defer func() {
		if r := recover(); r != nil {
			res = nil
			err = fmt.Errorf("%w: provider panic: %v", moderation.ErrProviderUnavailable, r)
		}
		if err != nil {
			stageErrorCount.WithLabelValues(string(source)).Inc()
		}
	}()
	if eng.stageTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, eng.stageTimeout)
		defer cancel()
	}
	return p.Classify(ctx, content)
}

// localCheck wraps the keyword filter with a recover so the terminal stage is
// total even if a custom table misbehaves.
func (eng *Engine) localCheck(content string) (res *moderation.Result) {
	defer func() {
		if r := recover(); r != nil {
			eng.logger.Error("local filter panic", "err", r)
			res = moderation.Unflagged()
		}
	}()
	return eng.fallback.Check(content)
}

func (eng *Engine) verdict(res *moderation.Result, source moderation.Source) *moderation.Result {
	res.Source = source
	verdictCount.WithLabelValues(string(source), string(res.Category), flagLabel(res.Flagged)).Inc()
	if res.Flagged {
		eng.logger.Info("content flagged",
			"source", source, "category", res.Category, "severity", res.Severity)
	}
	return res
}

func flagLabel(flagged bool) string {
	if flagged {
		return "flagged"
	}
	return "clean"
}
