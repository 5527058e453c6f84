package app

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"mentorhub/internal/housekeeping"
	"mentorhub/pkg/api"
	"mentorhub/pkg/auth"
	"mentorhub/pkg/config"
	"mentorhub/pkg/content"
	"mentorhub/pkg/logger"
	"mentorhub/pkg/models"
	"mentorhub/pkg/relay"
	"mentorhub/pkg/store"
	"mentorhub/pkg/telemetry"
)

// claimsCacheTTL bounds how stale a cached entitlement may be on paths that
// do not force a refresh.
const claimsCacheTTL = 30 * time.Second

// App encapsulates the server components and lifecycle.
type App struct {
	eff       config.EffectiveConfigResult
	version   string
	commit    string
	buildDate string

	content  *content.Store
	provider *auth.LocalProvider
	streamer relay.Streamer
	sweeper  *housekeeping.Sweeper
	deps     api.Deps

	srv *http.Server
}

// New initializes everything that does not need a running context: config
// validation, runtime keys, the claims store, the article store and the
// upstream streamer. Call Run to start the HTTP server and block.
func New(eff config.EffectiveConfigResult, version, commit, buildDate string) (*App, error) {
	_ = godotenv.Load(".env")

	if err := validateConfig(eff); err != nil {
		return nil, err
	}

	cfg := eff.Config

	// runtime keys: dedicated signing keys when configured, otherwise the
	// backend keys double as signing keys
	runtimeCfg := &config.RuntimeConfig{BackendKeys: map[string]struct{}{}, SigningKeys: map[string]struct{}{}}
	for _, k := range cfg.Security.APIKeys.Backend {
		runtimeCfg.BackendKeys[k] = struct{}{}
	}
	for _, k := range cfg.Security.SigningKeys {
		runtimeCfg.SigningKeys[k] = struct{}{}
	}
	if len(runtimeCfg.SigningKeys) == 0 {
		for k := range runtimeCfg.BackendKeys {
			runtimeCfg.SigningKeys[k] = struct{}{}
		}
	}
	config.SetRuntime(runtimeCfg)

	if err := store.Open(eff.DBPath); err != nil {
		return nil, fmt.Errorf("failed to open claims store at %s: %w", eff.DBPath, err)
	}
	telemetry.RegisterStoreSize(store.DiskUsage)

	uploadsDir := cfg.Content.UploadsDir
	if uploadsDir == "" {
		uploadsDir = eff.ContentDir + "/uploads"
	}
	cs, err := content.New(eff.ContentDir, uploadsDir, cfg.Content.DefaultImage)
	if err != nil {
		return nil, err
	}

	streamer, err := buildStreamer(cfg)
	if err != nil {
		return nil, err
	}

	provider := auth.NewLocalProvider(claimsCacheTTL)

	a := &App{
		eff:       eff,
		version:   version,
		commit:    commit,
		buildDate: buildDate,
		content:   cs,
		provider:  provider,
		streamer:  streamer,
		sweeper:   housekeeping.New(cs, cfg.Housekeeping.Cron, cfg.Housekeeping.DryRun),
	}
	a.deps = a.buildDeps()
	return a, nil
}

// Run starts the housekeeping sweeper and the HTTP server, and blocks until
// ctx is canceled or a fatal server error occurs. Shutdown is graceful.
func (a *App) Run(ctx context.Context) error {
	a.printBanner()

	if a.eff.Config.Housekeeping.Enabled {
		go a.sweeper.Run(ctx)
	}

	errCh := a.startHTTP()

	select {
	case <-ctx.Done():
		shutCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := a.srv.Shutdown(shutCtx); err != nil {
			logger.Warn("http_shutdown_forced", "error", err)
		}
		if err := store.Close(); err != nil {
			logger.Warn("store_close_failed", "error", err)
		}
		return nil
	case err := <-errCh:
		return err
	}
}

func (a *App) buildDeps() api.Deps {
	cfg := a.eff.Config
	authorized := map[string]struct{}{}
	for _, uid := range cfg.Security.AuthorizedUIDs {
		authorized[strings.TrimSpace(uid)] = struct{}{}
	}
	mentors := map[string]api.Mentor{}
	for _, m := range cfg.Mentors {
		mentors[m.Slug] = api.Mentor{Slug: m.Slug, Name: m.Name, Expertise: m.Expertise, Bio: m.Bio}
	}
	return api.Deps{
		Content:        a.content,
		Streamer:       a.streamer,
		Provider:       a.provider,
		SystemPrompt:   loadSystemPrompt(cfg.Chat.SystemPromptFile),
		AuthorizedUIDs: authorized,
		Mentors:        mentors,
		OpenAPIPath:    "./docs/openapi.yaml",
		Sweep:          a.sweeper.Sweep,
	}
}

func buildStreamer(cfg *config.Config) (relay.Streamer, error) {
	if cfg.Chat.Upstream.APIKey == "" {
		logger.Warn("chat_upstream_unconfigured")
		return noStreamer{}, nil
	}
	return relay.NewOpenAIStreamer(relay.UpstreamConfig{
		BaseURL:   cfg.Chat.Upstream.BaseURL,
		APIKey:    cfg.Chat.Upstream.APIKey,
		Model:     cfg.Chat.Upstream.Model,
		MaxTokens: cfg.Chat.Upstream.MaxTokens,
	})
}

func loadSystemPrompt(path string) string {
	if path == "" {
		return ""
	}
	b, err := os.ReadFile(path)
	if err != nil {
		logger.Warn("system_prompt_unreadable", "path", path, "error", err)
		return ""
	}
	return strings.TrimSpace(string(b))
}

// noStreamer stands in when no upstream API key is configured; every chat
// request fails before the stream starts with a plain 502.
type noStreamer struct{}

func (noStreamer) Stream(ctx context.Context, _ []models.Message) (<-chan string, <-chan error) {
	frags := make(chan string)
	close(frags)
	errs := make(chan error, 1)
	errs <- fmt.Errorf("%w: no upstream configured", relay.ErrUpstream)
	return frags, errs
}
