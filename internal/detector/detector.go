// Package detector finds personally identifiable information in text.
//
// Each PII category is an independent Recognizer. The Engine runs all of
// them over the same text, pools the results and orders them by start
// offset. Matches from different categories may overlap; downstream
// consumers decide which ones to act on.
package detector

import (
	"fmt"
	"log/slog"
	"sort"
)

// Engine runs a fixed set of recognizers. It holds no mutable state and is
// safe for concurrent use.
type Engine struct {
	recognizers []Recognizer
	log         *slog.Logger
}

// Option configures an Engine.
type Option func(*engineConfig)

type engineConfig struct {
	log         *slog.Logger
	phoneRegion string
	categories  []Category
	recognizers []Recognizer
}

// WithLogger sets the logger used to report isolated recognizer failures.
func WithLogger(log *slog.Logger) Option {
	return func(c *engineConfig) { c.log = log }
}

// WithPhoneRegion sets the fallback region for phone numbers written
// without a country code.
func WithPhoneRegion(region string) Option {
	return func(c *engineConfig) { c.phoneRegion = region }
}

// WithCategories restricts detection to the given categories.
func WithCategories(categories ...Category) Option {
	return func(c *engineConfig) { c.categories = categories }
}

// WithRecognizers replaces the built-in recognizer set.
func WithRecognizers(recognizers ...Recognizer) Option {
	return func(c *engineConfig) { c.recognizers = recognizers }
}

// New builds an engine. Without options it runs every built-in category.
func New(opts ...Option) *Engine {
	var cfg engineConfig
	for _, o := range opts {
		o(&cfg)
	}
	if cfg.log == nil {
		cfg.log = slog.Default()
	}

	recs := cfg.recognizers
	if recs == nil {
		recs = DefaultRecognizers(cfg.phoneRegion)
	}
	if len(cfg.categories) > 0 {
		enabled := make(map[Category]bool, len(cfg.categories))
		for _, c := range cfg.categories {
			enabled[c] = true
		}
		var filtered []Recognizer
		for _, r := range recs {
			if enabled[r.Category()] {
				filtered = append(filtered, r)
			}
		}
		recs = filtered
	}

	return &Engine{recognizers: recs, log: cfg.log}
}

var defaultEngine = New()

// Detect scans text with the default engine.
func Detect(text string) []Match {
	return defaultEngine.Detect(text)
}

// Categories returns the categories this engine detects, in detection order.
func (e *Engine) Categories() []Category {
	out := make([]Category, len(e.recognizers))
	for i, r := range e.recognizers {
		out[i] = r.Category()
	}
	return out
}

// Detect returns every match in text sorted by start offset. Ties keep
// detection order. A failing recognizer contributes nothing; Detect itself
// never fails.
func (e *Engine) Detect(text string) []Match {
	matches := []Match{}
	if text == "" {
		return matches
	}

	idx := newRuneIndex(text)
	for _, r := range e.recognizers {
		spans, err := scanIsolated(r, text)
		if err != nil {
			e.log.Warn("recognizer failed, skipping category",
				"category", r.Category(),
				"error", err,
			)
			continue
		}
		for _, sp := range spans {
			if sp.Start < 0 || sp.End > len(text) || sp.Start >= sp.End {
				continue
			}
			matches = append(matches, Match{
				Category:   r.Category(),
				Text:       text[sp.Start:sp.End],
				Start:      idx.offset(sp.Start),
				End:        idx.offset(sp.End),
				Confidence: r.Confidence(),
			})
		}
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Start < matches[j].Start
	})
	return matches
}

// scanIsolated runs one recognizer, turning a panic into an error so a
// single category cannot abort the scan.
func scanIsolated(r Recognizer, text string) (spans []Span, err error) {
	defer func() {
		if p := recover(); p != nil {
			spans, err = nil, fmt.Errorf("%s recognizer panic: %v", r.Category(), p)
		}
	}()
	return r.Scan(text)
}
