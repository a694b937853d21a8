package alerts

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/david/grant-agent/internal/models"
)

// DefaultHighScoreThreshold is the score a new grant must exceed to alert.
const DefaultHighScoreThreshold = 85

// Config controls where and when alerts are sent. An empty WebhookURL
// disables delivery without disabling counting. HighScoreThreshold is used
// as given, zero included.
type Config struct {
	WebhookURL         string
	Timeout            time.Duration
	HighScoreThreshold int
}

// NewGrantPayload is sent when a high-scoring grant is first seen.
type NewGrantPayload struct {
	ProgramName     string `json:"program_name"`
	FundingAmount   string `json:"funding_amount"`
	Country         string `json:"country"`
	Deadline        string `json:"deadline"`
	RelevanceScore  int    `json:"relevance_score"`
	ApplicationLink string `json:"application_link"`
	Summary         string `json:"summary"`
}

// TextPayload is a free-text notification.
type TextPayload struct {
	Text string `json:"text"`
}

type Dispatcher struct {
	sink      Sink
	threshold int
}

// NewDispatcher builds a dispatcher posting to cfg.WebhookURL, or a silent one
// when no URL is configured.
func NewDispatcher(cfg Config) *Dispatcher {
	var sink Sink
	if url := strings.TrimSpace(cfg.WebhookURL); url != "" {
		sink = NewWebhookSink(url, cfg.Timeout)
	}
	return NewDispatcherWithSink(sink, cfg.HighScoreThreshold)
}

// NewDispatcherWithSink accepts any Sink; nil means alerts are not delivered.
// A negative threshold selects DefaultHighScoreThreshold.
func NewDispatcherWithSink(sink Sink, threshold int) *Dispatcher {
	if threshold < 0 {
		threshold = DefaultHighScoreThreshold
	}
	return &Dispatcher{sink: sink, threshold: threshold}
}

// Enabled reports whether a sink is configured.
func (d *Dispatcher) Enabled() bool {
	return d.sink != nil
}

// NotifyNew alerts on a newly added grant whose score is strictly above the threshold.
func (d *Dispatcher) NotifyNew(ctx context.Context, rec models.GrantRecord) Counters {
	if rec.RelevanceScore <= d.threshold {
		return Counters{}
	}

	payload := NewGrantPayload{
		ProgramName:     rec.ProgramName,
		FundingAmount:   rec.FundingAmount,
		Country:         rec.Country,
		Deadline:        rec.Deadline,
		RelevanceScore:  rec.RelevanceScore,
		ApplicationLink: rec.ApplicationLink,
		Summary:         fmt.Sprintf("🚨 High-value grant found: %s (%s) scored %d/100", rec.ProgramName, rec.Provider, rec.RelevanceScore),
	}

	c := Counters{NewGrant: 1}
	if !d.send(ctx, payload, "new grant "+rec.ProgramName) {
		c.Failures++
	}
	return c
}

// NotifyDeadline alerts that a grant closes in daysLeft days.
func (d *Dispatcher) NotifyDeadline(ctx context.Context, rec models.GrantRecord, daysLeft int) Counters {
	payload := TextPayload{
		Text: fmt.Sprintf("⏰ Deadline approaching: %s closes in %d days (%s)", rec.ProgramName, daysLeft, rec.Deadline),
	}

	c := Counters{Deadline: 1}
	if !d.send(ctx, payload, "deadline "+rec.ProgramName) {
		c.Failures++
	}
	return c
}

// SendTest emits a fixed payload to verify the sink wiring.
func (d *Dispatcher) SendTest(ctx context.Context) Counters {
	payload := TextPayload{Text: "✅ Test alert from Grant Agent. Webhook is configured correctly."}

	c := Counters{Test: 1}
	if !d.send(ctx, payload, "test") {
		c.Failures++
	}
	return c
}

// send reports false only when a configured sink failed to deliver.
func (d *Dispatcher) send(ctx context.Context, payload any, label string) bool {
	if d.sink == nil {
		return true
	}
	if err := d.sink.Send(ctx, payload); err != nil {
		log.Printf("⚠️ Alert %q failed: %v", label, err)
		return false
	}
	log.Printf("📣 Alert sent: %s", label)
	return true
}
