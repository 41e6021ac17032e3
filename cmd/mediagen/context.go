package main

import (
	"context"
	"io"
	"os"
	"strings"
	"sync"

	"mediagen/internal/i18n"
	"mediagen/internal/infra"
	"mediagen/internal/infra/credentials"
	"mediagen/internal/jobs"
	"mediagen/internal/providers/krea"
	"mediagen/internal/runs"
)

type commandContext struct {
	verbose bool
	locale  string

	configOnce sync.Once
	config     *infra.Config
	configErr  error

	newAPI     func(cfg *infra.Config, logger *infra.Logger) jobs.JobAPI
	sleeper    jobs.Sleeper
	openHolder func(ctx context.Context, cfg *infra.Config, logger *infra.Logger) (*credentials.Holder, func(), error)
}

func newCommandContext() *commandContext {
	return &commandContext{
		newAPI: func(cfg *infra.Config, logger *infra.Logger) jobs.JobAPI {
			return krea.NewClient(krea.Options{
				BaseURL:        cfg.KreaBaseURL,
				Logger:         logger,
				RequestTimeout: cfg.HTTPClientTimeout,
			})
		},
		openHolder: credentials.Open,
	}
}

func (c *commandContext) ensureConfig() (*infra.Config, error) {
	c.configOnce.Do(func() {
		c.config, c.configErr = infra.LoadConfig()
	})
	return c.config, c.configErr
}

func (c *commandContext) logger(w io.Writer) *infra.Logger {
	logger := infra.NewConsoleLogger(w, c.verbose)
	return &logger
}

func (c *commandContext) localeCode() string {
	if c.locale != "" {
		return c.locale
	}
	for _, key := range []string{"LC_ALL", "LC_MESSAGES", "LANG"} {
		if v := os.Getenv(key); v != "" {
			return normalizePOSIXLocale(v)
		}
	}
	return ""
}

func (c *commandContext) translator() i18n.Translator {
	return i18n.For(c.localeCode())
}

// withHolder opens the configured credential backend for the duration of fn.
func (c *commandContext) withHolder(ctx context.Context, logger *infra.Logger, fn func(*infra.Config, *credentials.Holder) error) error {
	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}
	holder, release, err := c.openHolder(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer release()
	return fn(cfg, holder)
}

// withRunner builds a runner plus the current credential.
func (c *commandContext) withRunner(ctx context.Context, logger *infra.Logger, fn func(*runs.Runner, string) error) error {
	return c.withHolder(ctx, logger, func(cfg *infra.Config, holder *credentials.Holder) error {
		runner := runs.NewRunner(c.newAPI(cfg, logger), c.sleeper, runs.OptionsFromConfig(cfg), logger)
		return fn(runner, holder.Token())
	})
}

// normalizePOSIXLocale turns values like "id_ID.UTF-8" into "id-ID".
func normalizePOSIXLocale(v string) string {
	if i := strings.IndexAny(v, ".@"); i >= 0 {
		v = v[:i]
	}
	return strings.ReplaceAll(v, "_", "-")
}
