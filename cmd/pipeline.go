package main

import (
	"time"

	"go.uber.org/zap"

	"github.com/debatelens/factwatch/internal/enrich"
	"github.com/debatelens/factwatch/internal/extractor"
	"github.com/debatelens/factwatch/internal/session"
	"github.com/debatelens/factwatch/pkg/anthropic"
	"github.com/debatelens/factwatch/pkg/factiverse"
)

// buildPipeline assembles the extraction and fact-checking stack from the
// loaded config. Either API key may be absent: without the Anthropic key the
// extraction endpoints report a configuration error, and without the
// Factiverse key every fact-check degrades to an uncertain verdict.
func buildPipeline() (*session.Store, *enrich.Orchestrator) {
	var llm anthropic.Client
	if cfg.Anthropic.Key != "" {
		llm = anthropic.NewClient(cfg.Anthropic.Key)
	} else {
		zap.L().Warn("anthropic key not set, claim extraction disabled")
	}

	ex := extractor.New(llm, extractor.Options{
		Model:     cfg.Anthropic.Model,
		MaxTokens: cfg.Anthropic.MaxTokens,
		Interval:  time.Duration(cfg.Extraction.IntervalSecs * float64(time.Second)),
	})

	var checker factiverse.Client
	if cfg.Factiverse.Key != "" {
		checker = factiverse.NewClient(cfg.Factiverse.Key,
			factiverse.WithBaseURL(cfg.Factiverse.BaseURL),
			factiverse.WithRateLimit(cfg.Factiverse.RequestsPerSecond),
			factiverse.WithStanceTimeout(time.Duration(cfg.Factiverse.StanceTimeoutSecs)*time.Second),
			factiverse.WithDetectTimeout(time.Duration(cfg.Factiverse.DetectTimeoutSecs)*time.Second),
		)
	} else {
		zap.L().Warn("factiverse key not set, fact-checks will return uncertain")
	}

	store := session.New()
	orch := enrich.New(ex, checker, store, cfg.Batch.MaxConcurrentClaims)
	return store, orch
}
