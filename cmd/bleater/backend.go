package main

import (
	"context"
	"fmt"

	anthropicsdk "github.com/anthropics/anthropic-sdk-go"

	"github.com/hupe1980/bleater/config"
	"github.com/hupe1980/bleater/core"
	"github.com/hupe1980/bleater/logging"
	"github.com/hupe1980/bleater/model"
	"github.com/hupe1980/bleater/model/anthropic"
	"github.com/hupe1980/bleater/model/gemini"
	"github.com/hupe1980/bleater/model/openai"
)

// newBackend constructs the backend selected by cfg.Backend. Missing
// credentials or model names surface as core.ErrConfiguration.
func newBackend(ctx context.Context, cfg config.Config, logger logging.Logger) (model.Backend, error) {
	switch cfg.Backend {
	case config.BackendOllama:
		return openai.NewModel(func(o *openai.Options) {
			o.Model = cfg.OllamaModel
			o.BaseURL = cfg.OllamaBaseURL()
			o.NumCtx = cfg.NumCtx
			o.Logger = logger
		})
	case config.BackendGemini:
		return gemini.NewModel(ctx, func(o *gemini.Options) {
			o.Model = cfg.GeminiModel
			o.APIKey = cfg.GeminiAPIKey
			o.Logger = logger
		})
	case config.BackendAnthropic:
		if cfg.AnthropicAPIKey == "" {
			return nil, core.NewConfigurationError("anthropic", "APIKey")
		}
		return anthropic.NewModel(func(o *anthropic.Options) {
			if cfg.AnthropicModel != "" {
				o.Model = anthropicsdk.Model(cfg.AnthropicModel)
			}
			o.APIKey = cfg.AnthropicAPIKey
			o.Logger = logger
		})
	default:
		return nil, &core.ConfigurationError{Component: "bleater", Field: "Backend", Message: fmt.Sprintf("unsupported backend %q", cfg.Backend)}
	}
}
