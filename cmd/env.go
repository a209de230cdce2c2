package main

import (
	"context"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/leadgen-cli/internal/config"
	"github.com/sells-group/leadgen-cli/internal/events"
	"github.com/sells-group/leadgen-cli/internal/jobs"
	"github.com/sells-group/leadgen-cli/internal/outreach"
	"github.com/sells-group/leadgen-cli/internal/scorer"
	"github.com/sells-group/leadgen-cli/internal/scrape"
	"github.com/sells-group/leadgen-cli/internal/search"
	"github.com/sells-group/leadgen-cli/internal/store"
	anthropicpkg "github.com/sells-group/leadgen-cli/pkg/anthropic"
	"github.com/sells-group/leadgen-cli/pkg/serpapi"
)

// leadgenEnv holds the clients and services a command needs. Fields not
// required by the command's mode are nil.
type leadgenEnv struct {
	Store        store.Store
	Registry     jobs.Registry
	Crawler      *scrape.Crawler
	Anthropic    anthropicpkg.Client
	SerpAPI      serpapi.Client
	Evaluator    *scorer.Evaluator
	Emails       *outreach.Generator
	Orchestrator *search.Orchestrator
	redis        *redis.Client
}

// Close releases resources held by the environment.
func (e *leadgenEnv) Close() {
	if e.redis != nil {
		_ = e.redis.Close()
	}
	if e.Store != nil {
		_ = e.Store.Close()
	}
}

// initStore opens and migrates the configured store.
func initStore(ctx context.Context) (store.Store, error) {
	st, err := store.Open(ctx, cfg.Store)
	if err != nil {
		return nil, err
	}
	if err := st.Migrate(ctx); err != nil {
		_ = st.Close()
		return nil, eris.Wrap(err, "migrate store")
	}
	return st, nil
}

// initEnv validates the config for mode and builds everything that mode
// needs. Callers should defer env.Close().
func initEnv(ctx context.Context, mode config.Mode) (*leadgenEnv, error) {
	if err := cfg.Validate(mode); err != nil {
		return nil, err
	}

	st, err := initStore(ctx)
	if err != nil {
		return nil, err
	}
	env := &leadgenEnv{Store: st}
	if mode == config.ModeStore {
		return env, nil
	}

	env.Crawler = newCrawler(cfg.Crawl)
	env.Anthropic = anthropicpkg.NewClient(cfg.Anthropic.Key)
	env.Evaluator = scorer.NewEvaluator(env.Anthropic, env.Crawler, cfg.Anthropic)
	env.Emails = outreach.NewGenerator(env.Anthropic, env.Crawler, st, cfg.Anthropic)
	if mode == config.ModeEmail {
		return env, nil
	}

	env.SerpAPI = serpapi.NewClient(cfg.SerpAPI.Key,
		serpapi.WithBaseURL(cfg.SerpAPI.BaseURL),
		serpapi.WithLocale(cfg.SerpAPI.Language, cfg.SerpAPI.Country),
	)
	env.Registry = jobs.NewMemoryRegistry()

	var publisher events.Publisher = events.NopPublisher{}
	if cfg.Redis.URL != "" {
		rdb, err := events.NewRedisClient(ctx, cfg.Redis.URL)
		if err != nil {
			zap.L().Warn("redis unavailable, events disabled", zap.Error(err))
		} else {
			env.redis = rdb
			publisher = events.NewRedisPublisher(rdb, cfg.Redis.Channel)
			zap.L().Info("publishing events to redis", zap.String("channel", cfg.Redis.Channel))
		}
	}

	env.Orchestrator = search.New(st,
		search.NewSerpProvider(env.SerpAPI),
		env.Evaluator,
		env.Crawler,
		env.Registry,
		search.WithLimits(search.LimitsFromConfig(cfg.Search)),
		search.WithPublisher(publisher),
	)
	return env, nil
}

func newCrawler(c config.CrawlConfig) *scrape.Crawler {
	opts := []scrape.Option{
		scrape.WithLimits(c.MaxTextChars, c.MaxTextPages, c.MaxContactPages),
	}
	if c.UserAgent != "" {
		opts = append(opts, scrape.WithUserAgent(c.UserAgent))
	}
	if c.TimeoutSecs > 0 {
		opts = append(opts, scrape.WithHTTPClient(&http.Client{
			Timeout: time.Duration(c.TimeoutSecs) * time.Second,
		}))
	}
	return scrape.NewCrawler(opts...)
}
