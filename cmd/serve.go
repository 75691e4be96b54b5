package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/Cipherweave/VortexWatch/config"
	"github.com/Cipherweave/VortexWatch/internal/alternatives"
	"github.com/Cipherweave/VortexWatch/internal/api"
	"github.com/Cipherweave/VortexWatch/internal/assessment"
	"github.com/Cipherweave/VortexWatch/internal/assistant"
	"github.com/Cipherweave/VortexWatch/internal/classifier"
	"github.com/Cipherweave/VortexWatch/internal/cloudflare"
	"github.com/Cipherweave/VortexWatch/internal/fetch"
	"github.com/Cipherweave/VortexWatch/internal/metrics"
	"github.com/Cipherweave/VortexWatch/internal/policydoc"
	"github.com/Cipherweave/VortexWatch/internal/search"
	"github.com/Cipherweave/VortexWatch/internal/slack"
	"github.com/Cipherweave/VortexWatch/internal/suggest"
	"github.com/Cipherweave/VortexWatch/internal/workerpool"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "start the vortexwatch api server",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return serve(cmd.Context())
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.PersistentFlags().String("config", "./config/.config.yaml", "config file location")
}

// serve wires the assessment pipeline and runs the HTTP server until ctx is cancelled
func serve(ctx context.Context) error {
	cfgPath := k.String("config")

	cfg, err := config.Load(&cfgPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	cfg.Server.Debug = cfg.Server.Debug || k.Bool("debug")
	cfg.Server.Pretty = cfg.Server.Pretty || k.Bool("pretty")

	setupLogging(cfg.Server.Debug, cfg.Server.Pretty)

	fetcher, err := fetch.NewHTTPXFetcher(
		fetch.WithTimeout(cfg.Fetch.Timeout),
		fetch.WithMaxRedirects(cfg.Fetch.MaxRedirects),
		fetch.WithMaxBodySize(cfg.Fetch.MaxBodySize),
		fetch.WithUserAgent(cfg.Fetch.UserAgent),
	)
	if err != nil {
		return fmt.Errorf("setting up fetcher: %w", err)
	}

	locator, extractor := setupPolicyDocs(cfg, fetcher)

	cls, err := setupClassifier(cfg)
	if err != nil {
		return fmt.Errorf("setting up classifier: %w", err)
	}

	var m *metrics.Metrics
	if cfg.Server.Metrics {
		m = metrics.New()
	}

	pool := workerpool.New(cfg.Pool.Workers)
	pool.Start()

	defer pool.Stop()

	opts := []assessment.Option{
		assessment.WithMetrics(m),
		assessment.WithTimeouts(assessment.Timeouts{
			Locate:   cfg.Timeouts.Locate,
			Classify: cfg.Timeouts.Classify,
			Suggest:  cfg.Timeouts.Suggest,
			Resolve:  cfg.Timeouts.Resolve,
			Notify:   cfg.Timeouts.Notify,
		}),
	}

	if finder := setupFinder(cfg); finder != nil {
		opts = append(opts, assessment.WithAlternativeFinder(finder))
	}

	if notifier := setupSlack(cfg); notifier != nil {
		opts = append(opts, assessment.WithNotifier(notifier))
	}

	svc, err := assessment.New(pool, locator, extractor, cls, opts...)
	if err != nil {
		return fmt.Errorf("setting up assessment service: %w", err)
	}

	handler := api.NewRouter(api.RouterConfig{
		Assessor:      svc,
		Metrics:       m,
		MaxBodySize:   cfg.Server.MaxBodySize,
		AllowedOrigin: cfg.Server.AllowedOrigin,
	})

	srv := &http.Server{
		Addr:         cfg.Server.Listen,
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownGracePeriod)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("server shutdown error")
		}
	}()

	log.Info().Str("listen", cfg.Server.Listen).Int("workers", pool.Size()).Msg("starting vortexwatch service")

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("listen: %w", err)
	}

	return nil
}

// setupPolicyDocs builds the locator and extractor, adding the rendering fallback when Cloudflare is configured
func setupPolicyDocs(cfg *config.Config, fetcher *fetch.HTTPXFetcher) (*policydoc.Locator, *policydoc.Extractor) {
	locatorOpts := []policydoc.LocatorOption{policydoc.WithTerms(cfg.Locator.Terms)}

	renderer := setupCloudflare(cfg)
	if renderer == nil {
		return policydoc.NewLocator(fetcher, locatorOpts...), policydoc.NewExtractor(fetcher)
	}

	locator := policydoc.NewLocator(fetch.Fallback{fetcher, renderer}, locatorOpts...)
	extractor := policydoc.NewExtractor(fetcher, policydoc.WithRenderer(renderer))

	return locator, extractor
}

// setupClassifier builds the assistant-backed classifier
func setupClassifier(cfg *config.Config) (*classifier.Classifier, error) {
	conv, err := assistant.New(
		cfg.OpenAI.APIKey,
		cfg.OpenAI.AssistantID,
		assistant.WithBaseURL(cfg.OpenAI.BaseURL),
		assistant.WithHTTPClient(&http.Client{Timeout: cfg.OpenAI.RequestTimeout}),
	)
	if err != nil {
		return nil, err
	}

	return classifier.New(
		conv,
		classifier.WithMaxTextLength(cfg.OpenAI.MaxTextLength),
		classifier.WithPollInterval(cfg.OpenAI.PollInterval, cfg.OpenAI.PollMaxInterval),
		classifier.WithPollTimeout(cfg.OpenAI.PollTimeout),
	)
}

// setupFinder builds the alternative finder, returning nil when suggestions are not configured
func setupFinder(cfg *config.Config) *alternatives.Finder {
	if cfg.Cohere.APIKey == "" {
		log.Info().Msg("alternative suggestions not configured, skipping")
		return nil
	}

	suggester, err := suggest.New(
		cfg.Cohere.APIKey,
		suggest.WithModel(cfg.Cohere.Model),
		suggest.WithBaseURL(cfg.Cohere.BaseURL),
		suggest.WithHTTPClient(&http.Client{Timeout: cfg.Cohere.RequestTimeout}),
	)
	if err != nil {
		log.Warn().Err(err).Msg("failed to initialize suggestion client")
		return nil
	}

	searcher := search.New(
		search.WithBaseURL(cfg.Search.BaseURL),
		search.WithUserAgent(cfg.Search.UserAgent),
		search.WithHTTPClient(&http.Client{Timeout: cfg.Search.RequestTimeout}),
	)

	finder, err := alternatives.NewFinder(suggester, searcher, alternatives.WithConcurrency(cfg.Search.Concurrency))
	if err != nil {
		log.Warn().Err(err).Msg("failed to initialize alternative finder")
		return nil
	}

	log.Info().Str("model", cfg.Cohere.Model).Msg("alternative suggestions configured")

	return finder
}

// setupCloudflare initializes the rendering client from config, returning nil when unconfigured
func setupCloudflare(cfg *config.Config) *cloudflare.Client {
	if cfg.Cloudflare.AccountID == "" || cfg.Cloudflare.APIToken == "" {
		log.Info().Msg("cloudflare rendering not configured, skipping")
		return nil
	}

	client, err := cloudflare.New(
		cfg.Cloudflare.AccountID,
		cfg.Cloudflare.APIToken,
		cloudflare.WithHTTPClient(&http.Client{Timeout: cfg.Cloudflare.RequestTimeout}),
		cloudflare.WithNavigationTimeout(cfg.Cloudflare.NavigationTimeout),
	)
	if err != nil {
		log.Warn().Err(err).Msg("failed to initialize cloudflare client")
		return nil
	}

	log.Info().Msg("cloudflare rendering configured")

	return client
}

// setupSlack initializes the Slack webhook client from config, returning nil when unconfigured
func setupSlack(cfg *config.Config) *slack.Client {
	if cfg.Slack.WebhookURL == "" {
		log.Info().Msg("slack notifications not configured, skipping")
		return nil
	}

	client, err := slack.New(
		cfg.Slack.WebhookURL,
		slack.WithHTTPClient(&http.Client{Timeout: cfg.Slack.RequestTimeout}),
		slack.WithUsername(cfg.Slack.Username),
		slack.WithIconEmoji(cfg.Slack.IconEmoji),
	)
	if err != nil {
		log.Warn().Err(err).Msg("failed to initialize slack client")
		return nil
	}

	log.Info().Msg("slack notifications configured")

	return client
}
