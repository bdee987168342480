// Package telemetry reports operational events to the process log and,
// when configured, to an operator channel on Discord. Reconciliation
// failures land here instead of in user-facing replies.
package telemetry

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/louisbranch/tribunal/internal/discord"
)

// Severity describes the telemetry severity level.
type Severity string

const (
	SeverityInfo  Severity = "INFO"
	SeverityWarn  Severity = "WARN"
	SeverityError Severity = "ERROR"
)

// Event is one operational occurrence worth an operator's attention.
type Event struct {
	Severity  Severity
	GuildID   string
	Kind      string
	Message   string
	Timestamp time.Time
}

// Emitter forwards events to the log and the optional operator channel.
// A nil Emitter is valid and drops everything.
type Emitter struct {
	client    discord.Client
	channelID string
	clock     func() time.Time
	logf      func(format string, args ...any)
}

// NewEmitter creates an emitter. channelID may be empty, in which case
// events only reach the process log.
func NewEmitter(client discord.Client, channelID string) *Emitter {
	return &Emitter{
		client:    client,
		channelID: channelID,
		clock:     time.Now,
		logf:      log.Printf,
	}
}

// Emit reports one event. Delivery to the operator channel is best-effort;
// a failed send is logged and never propagated.
func (e *Emitter) Emit(ctx context.Context, event Event) {
	if e == nil {
		return
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = e.clock().UTC()
	}
	if event.Severity == "" {
		event.Severity = SeverityInfo
	}
	e.logf("[%s] guild=%s %s: %s", event.Severity, event.GuildID, event.Kind, event.Message)

	if e.client == nil || e.channelID == "" {
		return
	}
	content := fmt.Sprintf("`%s` guild `%s` %s: %s", event.Severity, event.GuildID, event.Kind, event.Message)
	if err := e.client.SendMessage(ctx, e.channelID, content); err != nil {
		e.logf("telemetry: send to operator channel: %v", err)
	}
}
