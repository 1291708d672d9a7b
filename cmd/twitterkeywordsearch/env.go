package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"twitterkeywordsearch/pkg/auth"
	"twitterkeywordsearch/pkg/config"
	"twitterkeywordsearch/pkg/errors"
	"twitterkeywordsearch/pkg/logger"
	"twitterkeywordsearch/pkg/metrics"
	"twitterkeywordsearch/pkg/models"
	"twitterkeywordsearch/pkg/pager"
	"twitterkeywordsearch/pkg/ratelimit"
	"twitterkeywordsearch/pkg/store"
	"twitterkeywordsearch/pkg/twitter"

	_ "twitterkeywordsearch/pkg/store/memstore"
	_ "twitterkeywordsearch/pkg/store/mongostore"
	_ "twitterkeywordsearch/pkg/store/sqlitestore"
)

// env is what both ingest modes need: configuration, a logger, an open
// store and a verified API client.
type env struct {
	cfg     *config.Config
	log     logger.Logger
	store   store.Store
	client  *twitter.Client
	metrics *metrics.Server
}

func loadConfig(cmd *cobra.Command) (*config.Config, logger.Logger, error) {
	cfg, err := config.Load(configFile, changedFlags(cmd.Flags()))
	if err != nil {
		return nil, nil, errors.Wrap(errors.ErrorTypeValidation, err, "configuration")
	}
	if err := logger.Initialize(&cfg.Logging); err != nil {
		return nil, nil, errors.Wrap(errors.ErrorTypeValidation, err, "logger")
	}
	return cfg, logger.GetLogger(), nil
}

// setup connects the store and the API client. Everything that can be
// checked offline has to be checked before calling it.
func setup(ctx context.Context, cfg *config.Config, log logger.Logger) (*env, error) {
	var err error
	e := &env{cfg: cfg, log: log}

	e.metrics = metrics.StartServer(cfg.Metrics.Addr)
	if e.metrics != nil {
		log.WithField("addr", cfg.Metrics.Addr).Info("Serving metrics")
	}

	openCtx, cancel := context.WithTimeout(ctx, cfg.Database.ConnectTimeout)
	defer cancel()
	e.store, err = store.Open(openCtx, cfg.Database.URL, cfg.Database.Name)
	if err != nil {
		e.close()
		return nil, err
	}
	log.WithFields(map[string]interface{}{
		"database": cfg.Database.Name,
	}).Info("Connected to document store")

	creds, err := resolveCredentials(cfg)
	if err != nil {
		e.close()
		return nil, err
	}
	e.client, err = twitter.NewClient(creds, twitter.Options{
		Timeout:    cfg.Twitter.Timeout,
		MaxRetries: cfg.Twitter.MaxRetries,
		RetryDelay: cfg.Twitter.RetryDelay,
		Limiter:    ratelimit.NewPacer(cfg.Twitter.RequestsPerMinute, cfg.Twitter.BurstSize),
	}, log)
	if err != nil {
		e.close()
		return nil, err
	}

	me, err := e.client.Verify(ctx)
	if err != nil {
		e.close()
		return nil, fmt.Errorf("verify credentials: %w", err)
	}
	log.WithField("screen_name", models.String(me, "screen_name")).Info("Authenticated")

	return e, nil
}

// resolveCredentials prefers keys from config or TWITTER_* variables and
// falls back to the credential manager.
func resolveCredentials(cfg *config.Config) (twitter.Credentials, error) {
	if cfg.Twitter.HasCredentials() && cfg.Twitter.Account == "" {
		return twitter.Credentials{
			APIKey:      cfg.Twitter.APIKey,
			APISecret:   cfg.Twitter.APISecret,
			AccessToken: cfg.Twitter.AccessToken,
			TokenSecret: cfg.Twitter.TokenSecret,
		}, nil
	}

	manager, err := auth.NewManager()
	if err != nil {
		return twitter.Credentials{}, err
	}
	account, err := manager.Resolve(cfg.Twitter.Account)
	if err != nil {
		return twitter.Credentials{}, errors.Wrap(errors.ErrorTypeAuth, err,
			"no credentials: run 'twitterkeywordsearch auth login' or set TWITTER_API_KEY, TWITTER_API_SECRET, TWITTER_ACCESS_TOKEN and TWITTER_TOKEN_SECRET")
	}
	return account.Credentials(), nil
}

func (e *env) pagerOptions() pager.Options {
	return pager.Options{
		Cooldown:     e.cfg.RateLimit.Cooldown,
		MaxCooldowns: e.cfg.RateLimit.MaxCooldowns,
	}
}

func (e *env) close() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if e.store != nil {
		if err := e.store.Close(ctx); err != nil {
			e.log.WithError(err).Warn("Failed to close document store")
		}
	}
	if err := e.metrics.Shutdown(ctx); err != nil {
		e.log.WithError(err).Warn("Failed to stop metrics server")
	}
}
