package notify

import (
	"context"
	"fmt"

	appLog "sigherald/internal/log"
)

// Sender is the outbound webhook transport port.
type Sender interface {
	SendMessage(ctx context.Context, webhookURL string, payload Payload) error
}

// Dispatcher routes messages to destinations. In debug mode every would-be
// production message is rerouted to the error webhook with a visible prefix,
// so the action under test still runs end to end without spamming real
// channels. The mode is chosen once at construction, not checked ad hoc at
// call sites.
type Dispatcher struct {
	sender       Sender
	errorWebhook string
	debug        bool
}

func NewDispatcher(sender Sender, errorWebhook string, debug bool) *Dispatcher {
	return &Dispatcher{
		sender:       sender,
		errorWebhook: errorWebhook,
		debug:        debug,
	}
}

// Dispatch sends text to one destination (or its debug reroute).
func (d *Dispatcher) Dispatch(ctx context.Context, dest Destination, text string) error {
	url := dest.Webhook
	if d.debug {
		url = d.errorWebhook
		text = fmt.Sprintf("[debug → %s] %s", dest.Name, text)
	}
	return d.sender.SendMessage(ctx, url, NewMessage(text))
}

// ReportError sends a failure report to the error webhook. Best effort: a
// failed report is logged, never propagated, so error reporting can never
// abort a tick.
func (d *Dispatcher) ReportError(ctx context.Context, what string, cause error) {
	appLog.Error(what, cause)
	text := fmt.Sprintf(":warning: %s: %v", what, cause)
	if err := d.sender.SendMessage(ctx, d.errorWebhook, NewMessage(text)); err != nil {
		appLog.Error("error report delivery failed", err, "context", what)
	}
}

// ReportWarning sends a non-fatal warning to the error webhook, best effort.
func (d *Dispatcher) ReportWarning(ctx context.Context, text string) {
	appLog.Warn(text)
	if err := d.sender.SendMessage(ctx, d.errorWebhook, NewMessage(":warning: "+text)); err != nil {
		appLog.Error("warning delivery failed", err)
	}
}
