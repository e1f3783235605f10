// Package pipeline orchestrates a full production run: fetch, rank,
// outline, draft, polish, verify, publish. Acquisition and release
// failures abort the run; per-article stage failures are recorded and
// the run continues.
package pipeline

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"newsforge/internal/core"
	"newsforge/internal/logger"
	"newsforge/internal/notify"
	"newsforge/internal/sources"
)

const defaultTargetCount = 5

// Options shape a single run.
type Options struct {
	DryRun           bool
	SkipFetch        bool
	StopAfterRanking bool
	WithAIScoring    bool
	Categories       []string
	Locale           string
	Limit            int
	Throttle         time.Duration
}

// Metrics summarizes what a run accomplished.
type Metrics struct {
	Fetched   int
	Ranked    int
	Drafted   int
	Published int
	Errors    []string
	Duration  time.Duration
}

// FetchOptions narrow what a provider fetch should return.
type FetchOptions struct {
	Categories []string
	Locale     string
}

// Fetcher is one configured news provider.
type Fetcher interface {
	Name() string
	Fetch(ctx context.Context, opts FetchOptions) ([]core.SourceItem, error)
	Quota() sources.Quota
}

// Store is the persistence surface the orchestrator needs.
type Store interface {
	SaveSourceItems(items []core.SourceItem) (int, error)
	ListUnprocessedSourceItems(limit int) ([]core.SourceItem, error)
	MarkSourceProcessed(provider core.Provider, providerID string) error
	TopicExists(canonicalKey string) (bool, error)
	SaveTopic(topic core.Topic) error
	ListTopicsByStatus(status core.TopicStatus, limit int) ([]core.Topic, error)
}

// Stages is the article production state machine. *stages.Runner
// satisfies it.
type Stages interface {
	Outline(ctx context.Context, target int) (int, error)
	Draft(ctx context.Context, limit int) (int, error)
	Polish(ctx context.Context, limit int) (int, error)
	Verify(ctx context.Context, limit int) (int, error)
	Publish(ctx context.Context, limit int) (int, error)
	Rescore(ctx context.Context, topics []core.Topic) error
}

// Notifier delivers run notifications. *notify.Notifier satisfies it.
type Notifier interface {
	Send(payload notify.Payload) notify.Result
	SendRateLimitWarning(provider string, remaining, limit int) notify.Result
}

// Pipeline wires the run dependencies together.
type Pipeline struct {
	Fetchers []Fetcher
	Store    Store
	Stages   Stages
	Notifier Notifier

	limiter *rate.Limiter
}

// New builds a pipeline. throttle paces the AI-heavy stages; zero means
// the one second default.
func New(fetchers []Fetcher, store Store, stages Stages, notifier Notifier, throttle time.Duration) *Pipeline {
	if throttle <= 0 {
		throttle = time.Second
	}
	return &Pipeline{
		Fetchers: fetchers,
		Store:    store,
		Stages:   stages,
		Notifier: notifier,
		limiter:  rate.NewLimiter(rate.Every(throttle), 1),
	}
}

// Run executes the full production cycle and always sends a completion
// notification, downgraded to a warning when per-article errors occurred.
func (p *Pipeline) Run(ctx context.Context, opts Options) (*Metrics, error) {
	start := time.Now()
	metrics := &Metrics{}
	target := opts.Limit
	if target <= 0 {
		target = defaultTargetCount
	}

	if opts.DryRun {
		p.logDryRun(opts, target)
		metrics.Duration = time.Since(start)
		return metrics, nil
	}

	if !opts.SkipFetch {
		fmt.Println("📰 Fetching from news providers...")
		if err := p.fetch(ctx, opts, metrics); err != nil {
			return metrics, p.fail("fetch", err)
		}
	}

	fmt.Println("🏆 Ranking candidate topics...")
	if err := p.rank(ctx, metrics); err != nil {
		return metrics, p.fail("rank", err)
	}

	if opts.WithAIScoring {
		topics, err := p.Store.ListTopicsByStatus(core.TopicNew, 0)
		if err != nil {
			return metrics, p.fail("rank", err)
		}
		// Rescore degrades internally; a returned error is a storage fault.
		if err := p.Stages.Rescore(ctx, topics); err != nil {
			return metrics, p.fail("rescore", err)
		}
	}

	if opts.StopAfterRanking {
		metrics.Duration = time.Since(start)
		p.notifyCompletion(metrics)
		return metrics, nil
	}

	fmt.Println("📝 Outlining top topics...")
	p.wait(ctx)
	if _, err := p.Stages.Outline(ctx, target); err != nil {
		p.recordError(metrics, "outline", err)
	}

	fmt.Println("✍️  Drafting articles...")
	p.wait(ctx)
	drafted, err := p.Stages.Draft(ctx, target)
	if err != nil {
		p.recordError(metrics, "draft", err)
	}
	metrics.Drafted = drafted

	fmt.Println("💅 Polishing drafts...")
	p.wait(ctx)
	if _, err := p.Stages.Polish(ctx, target); err != nil {
		p.recordError(metrics, "polish", err)
	}

	fmt.Println("🔍 Verifying drafts...")
	p.wait(ctx)
	if _, err := p.Stages.Verify(ctx, target); err != nil {
		p.recordError(metrics, "verify", err)
	}

	fmt.Println("🚀 Publishing verified articles...")
	published, err := p.Stages.Publish(ctx, target)
	if err != nil {
		return metrics, p.fail("publish", err)
	}
	metrics.Published = published

	metrics.Duration = time.Since(start)
	p.notifyCompletion(metrics)

	logger.Info("Run complete",
		"fetched", metrics.Fetched,
		"ranked", metrics.Ranked,
		"drafted", metrics.Drafted,
		"published", metrics.Published,
		"errors", len(metrics.Errors),
		"duration", metrics.Duration.String())
	return metrics, nil
}

// fetch pulls from every configured provider and persists the raw items.
// Any provider failure is fatal to the run.
func (p *Pipeline) fetch(ctx context.Context, opts Options, metrics *Metrics) error {
	if len(p.Fetchers) == 0 {
		return fmt.Errorf("no news providers configured. Set NEWS_API_KEY, GUARDIAN_API_KEY, or NYT_API_KEY")
	}

	for _, fetcher := range p.Fetchers {
		items, err := fetcher.Fetch(ctx, FetchOptions{Categories: opts.Categories, Locale: opts.Locale})
		if err != nil {
			return fmt.Errorf("%s fetch failed: %w", fetcher.Name(), err)
		}

		saved, err := p.Store.SaveSourceItems(items)
		if err != nil {
			return fmt.Errorf("failed to save %s items: %w", fetcher.Name(), err)
		}
		metrics.Fetched += saved

		if quota := fetcher.Quota(); quota.Low() {
			p.Notifier.SendRateLimitWarning(fetcher.Name(), quota.Remaining, quota.Limit)
		}
	}
	return nil
}

// rank turns unprocessed source items into deduplicated, scored topics.
// The in-run seen set catches duplicates within the batch; TopicExists
// catches duplicates against earlier runs.
func (p *Pipeline) rank(ctx context.Context, metrics *Metrics) error {
	items, err := p.Store.ListUnprocessedSourceItems(0)
	if err != nil {
		return fmt.Errorf("failed to list unprocessed items: %w", err)
	}

	now := time.Now().UTC()
	seen := make(map[string]bool, len(items))

	for _, item := range items {
		if err := ctx.Err(); err != nil {
			return err
		}

		key := rankKey(item)
		duplicate := seen[key]
		if !duplicate {
			exists, err := p.Store.TopicExists(key)
			if err != nil {
				return fmt.Errorf("failed to check topic %s: %w", key, err)
			}
			duplicate = exists
		}

		if !duplicate {
			topic := buildTopic(item, key, now)
			if err := p.Store.SaveTopic(topic); err != nil {
				return fmt.Errorf("failed to save topic %s: %w", key, err)
			}
			seen[key] = true
			metrics.Ranked++
		}

		if err := p.Store.MarkSourceProcessed(item.Provider, item.ProviderID); err != nil {
			return fmt.Errorf("failed to mark item processed: %w", err)
		}
	}
	return nil
}

func (p *Pipeline) wait(ctx context.Context) {
	if err := p.limiter.Wait(ctx); err != nil {
		logger.Warn("Throttle wait interrupted", "error", err.Error())
	}
}

func (p *Pipeline) recordError(metrics *Metrics, stage string, err error) {
	logger.Error("Stage failed, continuing run", err, "stage", stage)
	metrics.Errors = append(metrics.Errors, fmt.Sprintf("%s: %v", stage, err))
}

// fail sends the fatal-error notification and wraps the cause.
func (p *Pipeline) fail(stage string, err error) error {
	p.Notifier.Send(notify.Payload{
		Level:   notify.LevelError,
		Title:   "Pipeline run failed",
		Message: fmt.Sprintf("The %s step failed and the run was aborted.", stage),
		Details: map[string]string{
			"stage": stage,
			"error": err.Error(),
		},
		Timestamp: time.Now().UTC(),
	})
	return fmt.Errorf("%s failed: %w", stage, err)
}

func (p *Pipeline) notifyCompletion(metrics *Metrics) {
	level := notify.LevelSuccess
	message := "Production run finished."
	if len(metrics.Errors) > 0 {
		level = notify.LevelWarning
		message = fmt.Sprintf("Production run finished with %d stage errors.", len(metrics.Errors))
	}

	details := map[string]string{
		"fetched":   strconv.Itoa(metrics.Fetched),
		"ranked":    strconv.Itoa(metrics.Ranked),
		"drafted":   strconv.Itoa(metrics.Drafted),
		"published": strconv.Itoa(metrics.Published),
		"duration":  metrics.Duration.Round(time.Millisecond).String(),
	}
	if len(metrics.Errors) > 0 {
		details["errors"] = strings.Join(metrics.Errors, "; ")
	}

	p.Notifier.Send(notify.Payload{
		Level:     level,
		Title:     "Pipeline run complete",
		Message:   message,
		Details:   details,
		Timestamp: time.Now().UTC(),
	})
}

func (p *Pipeline) logDryRun(opts Options, target int) {
	fmt.Println("🧪 Dry run: no data will be fetched, generated, or published.")
	var steps []string
	if !opts.SkipFetch {
		steps = append(steps, fmt.Sprintf("fetch from %d providers", len(p.Fetchers)))
	}
	steps = append(steps, "rank unprocessed items")
	if !opts.StopAfterRanking {
		steps = append(steps, fmt.Sprintf("outline, draft, polish, verify, and publish up to %d articles", target))
	}
	for i, step := range steps {
		fmt.Printf("  %d. would %s\n", i+1, step)
	}
	logger.Info("Dry run requested", "steps", len(steps))
}
