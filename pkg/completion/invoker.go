// Package completion starts streaming text completions with fixed model
// settings and records provider metrics for each call.
package completion

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/rhuss/promptstream/pkg/debug"
	"github.com/rhuss/promptstream/pkg/observability"
	"github.com/rhuss/promptstream/pkg/provider"
)

// Default completion settings.
const (
	DefaultModel     = "gpt-3.5-turbo-instruct"
	DefaultMaxTokens = 2000
)

// Settings fixes the model and output budget for every completion.
type Settings struct {
	Model     string
	MaxTokens int
}

// DefaultSettings returns the production model settings.
func DefaultSettings() Settings {
	return Settings{Model: DefaultModel, MaxTokens: DefaultMaxTokens}
}

// Invoker turns a prompt into an in-progress text stream.
type Invoker struct {
	provider provider.Provider
	settings Settings
}

// New creates an Invoker. Zero-valued settings fall back to the defaults.
func New(p provider.Provider, s Settings) *Invoker {
	if s.Model == "" {
		s.Model = DefaultModel
	}
	if s.MaxTokens <= 0 {
		s.MaxTokens = DefaultMaxTokens
	}
	return &Invoker{provider: p, settings: s}
}

// Settings returns the settings used for every call.
func (inv *Invoker) Settings() Settings {
	return inv.settings
}

// StreamText calls the provider exactly once and returns a handle to the
// stream without buffering it. Failures before the first event are returned
// directly; there is no retry.
func (inv *Invoker) StreamText(ctx context.Context, prompt string) (*provider.TextStream, error) {
	maxTokens := inv.settings.MaxTokens
	req := &provider.Request{
		Model:     inv.settings.Model,
		Prompt:    prompt,
		MaxTokens: &maxTokens,
	}

	name := inv.provider.Name()
	debug.Log("providers", "starting completion",
		"provider", name,
		"model", req.Model,
		"max_tokens", maxTokens,
		"prompt_len", len(prompt),
	)

	start := time.Now()
	events, err := inv.provider.Stream(ctx, req)
	if err != nil {
		observability.ProviderRequestsTotal.WithLabelValues(name, req.Model, "error").Inc()
		return nil, fmt.Errorf("starting completion: %w", err)
	}

	return provider.NewTextStream(inv.instrument(ctx, events, name, req.Model, start)), nil
}

// instrument relays provider events unchanged while recording first-token
// latency, total latency, outcome, and token usage. On cancellation the
// output channel is closed without a done event, so the TextStream fails
// instead of finishing.
func (inv *Invoker) instrument(ctx context.Context, in <-chan provider.Event, name, model string, start time.Time) <-chan provider.Event {
	out := make(chan provider.Event, cap(in))

	go func() {
		defer close(out)

		status := "error"
		firstToken := true
		defer func() {
			if status != "ok" && ctx.Err() != nil {
				status = "cancelled"
			}
			observability.ProviderRequestsTotal.WithLabelValues(name, model, status).Inc()
			observability.ProviderLatency.WithLabelValues(name, model).Observe(time.Since(start).Seconds())
		}()

		for ev := range in {
			switch ev.Type {
			case provider.EventTextDelta:
				if firstToken && ev.Delta != "" {
					firstToken = false
					observability.ProviderFirstToken.WithLabelValues(name, model).Observe(time.Since(start).Seconds())
				}
			case provider.EventDone:
				status = "ok"
				recordUsage(name, model, ev.Usage)
			case provider.EventError:
				slog.Warn("completion stream failed",
					"provider", name,
					"model", model,
					"error", ev.Err,
				)
			}

			select {
			case out <- ev:
			case <-ctx.Done():
				return
			}
		}
	}()

	return out
}

func recordUsage(name, model string, u *provider.Usage) {
	if u == nil {
		return
	}
	if u.InputTokens > 0 {
		observability.ProviderTokensTotal.WithLabelValues(name, model, "input").Add(float64(u.InputTokens))
	}
	if u.OutputTokens > 0 {
		observability.ProviderTokensTotal.WithLabelValues(name, model, "output").Add(float64(u.OutputTokens))
	}
}
