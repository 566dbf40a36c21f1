// Package app wires the review pipeline from configuration. The API server
// and the reviewctl CLI build their pipeline through it.
package app

import (
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"housingreview/internal/config"
	"housingreview/internal/extract"
	"housingreview/internal/governor"
	"housingreview/internal/loader"
	"housingreview/internal/port"
	"housingreview/internal/provider"
	"housingreview/internal/provider/claude"
	"housingreview/internal/provider/gemini"
	"housingreview/internal/provider/openai"
	"housingreview/internal/reconcile"
	"housingreview/internal/rules"
	"housingreview/internal/rules/housing"
	"housingreview/internal/service"
)

// Pass names used in logs and field sources.
const (
	PrimaryPass   = "primary"
	SecondaryPass = "secondary"
)

// RegisterProviders registers the built-in vision providers.
func RegisterProviders() {
	provider.RegisterProvider("claude", claude.Factory)
	provider.RegisterProvider("gemini", gemini.Factory)
	provider.RegisterProvider("openai", openai.Factory)
}

// Components are the long-lived pieces of one process.
type Components struct {
	Governor *governor.Governor
	Registry *rules.Registry
	Pipeline *service.Pipeline
}

// Build creates the governor, both extraction passes, the rule engine and
// the pipeline. cache may be nil.
func Build(cfg *config.Config, cache port.ExtractionCache) (*Components, error) {
	gov := governor.New(governor.Config{
		MaxConcurrentCalls: cfg.Governor.MaxConcurrentCalls,
		MinCallInterval:    cfg.Governor.MinCallInterval,
		CooldownDuration:   cfg.Governor.CooldownDuration,
	})

	extractCfg := extract.Config{
		MaxUnclassifiedRetries: cfg.Extraction.MaxUnclassifiedRetries,
		TypeBatchSize:          cfg.Extraction.TypeBatchSize,
		MaxAttempts:            cfg.Extraction.MaxAttempts,
	}

	primary, err := newPass(PrimaryPass, &cfg.Provider.Primary, gov, extractCfg, cache)
	if err != nil {
		return nil, err
	}
	secondary, err := newPass(SecondaryPass, cfg.Provider.SecondaryConfig(), gov, extractCfg, cache)
	if err != nil {
		return nil, err
	}

	registry := housing.NewRegistry()
	engine := rules.NewEngine(registry, rules.SettingsFromConfig(&cfg.Rules))
	pipeline := service.NewPipeline(loader.New(), engine, primary, &secondary)

	zap.L().Info("app: pipeline ready",
		zap.String("primary_provider", cfg.Provider.Primary.Provider),
		zap.String("secondary_provider", cfg.Provider.SecondaryConfig().Provider),
		zap.Int("rules", len(registry.All())),
		zap.Bool("cache", cache != nil),
	)
	return &Components{Governor: gov, Registry: registry, Pipeline: pipeline}, nil
}

func newPass(name string, pc *config.ProviderEndpointConfig, gov *governor.Governor, cfg extract.Config, cache port.ExtractionCache) (reconcile.Pass, error) {
	vp, err := provider.New(pc)
	if err != nil {
		return reconcile.Pass{}, eris.Wrapf(err, "app: %s provider", name)
	}
	opts := []extract.Option{extract.WithName(name)}
	if cache != nil {
		opts = append(opts, extract.WithCache(cache))
	}
	return reconcile.Pass{Name: name, Extractor: extract.New(vp, gov, cfg, opts...)}, nil
}
