package handlers

import (
	"context"
	"fmt"

	"newsforge/internal/config"
	"newsforge/internal/llm"
	"newsforge/internal/notify"
	"newsforge/internal/pipeline"
	"newsforge/internal/sources"
	"newsforge/internal/stages"
	"newsforge/internal/store"
)

// openStore opens the configured database.
func openStore(cfg *config.Config) (*store.Store, error) {
	st, err := store.NewStore(cfg.Storage.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open store at %s: %w", cfg.Storage.Path, err)
	}
	return st, nil
}

// buildFetchers creates one fetcher per configured provider credential.
func buildFetchers(cfg *config.Config) []pipeline.Fetcher {
	var fetchers []pipeline.Fetcher
	if key := cfg.News.NewsAPI.APIKey; key != "" {
		fetchers = append(fetchers, &pipeline.NewsAPIFetcher{Client: sources.NewNewsAPIClient(key)})
	}
	if key := cfg.News.Guardian.APIKey; key != "" {
		fetchers = append(fetchers, &pipeline.GuardianFetcher{Client: sources.NewGuardianClient(key)})
	}
	if key := cfg.News.NYT.APIKey; key != "" {
		fetchers = append(fetchers, &pipeline.NYTFetcher{Client: sources.NewNYTClient(key)})
	}
	return fetchers
}

// buildRunner creates the AI stage runner backed by the given store.
func buildRunner(ctx context.Context, cfg *config.Config, st *store.Store) (*stages.Runner, error) {
	client, err := llm.NewClient(ctx, cfg.Gemini.APIKey, cfg.Gemini.ModelFast, cfg.Gemini.ModelAccurate)
	if err != nil {
		return nil, err
	}
	return stages.NewRunner(client, st), nil
}

// buildNotifier creates the webhook notifier; unset webhooks make it a
// no-op.
func buildNotifier(cfg *config.Config) *notify.Notifier {
	return notify.NewNotifier(cfg.Notify.SlackWebhookURL, cfg.Notify.DiscordWebhookURL)
}
