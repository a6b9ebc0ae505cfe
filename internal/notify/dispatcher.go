package notify

import (
	"context"
	"time"

	"tramita_backend/internal/domain"
	"tramita_backend/platform/apperr"
	"tramita_backend/platform/config"
	"tramita_backend/platform/logger"

	"github.com/google/uuid"
	"golang.org/x/time/rate"
)

// ClientChannel is the best-effort outbound message channel (WhatsApp).
type ClientChannel interface {
	SendMessage(ctx context.Context, phoneNumber string, message string) error
}

// AlertChannel carries internal escalations (SMTP).
type AlertChannel interface {
	SendAlert(ctx context.Context, toEmail, subject, body string) error
}

// Notification is one rendered-and-routed outbound message request.
type Notification struct {
	// Kind selects the message template.
	Kind string
	// Tier selects the audience: client, assignee, manager, or admin.
	Tier domain.Tier
	// EntityID is the entity the notification is about (for logging).
	EntityID uuid.UUID
	// Phone is the destination for client-tier messages.
	Phone string
	// AssigneeID names the responsible user for assignee-tier messages.
	AssigneeID *uuid.UUID
	// Subject is used for alert-channel (email) deliveries.
	Subject string
	// Data holds the template substitutions.
	Data map[string]string
}

// Dispatcher renders a template and sends it via the channel matching the
// audience tier. Every send runs under a bounded timeout and a global rate
// limit so a slow channel cannot stall a sweep or storm the gateway.
type Dispatcher struct {
	templates *Templates
	router    *Router
	client    ClientChannel
	alerts    AlertChannel
	limiter   *rate.Limiter
	timeout   time.Duration
	log       *logger.Logger
}

// NewDispatcher wires the dispatcher. Either channel may be nil; sends to a
// missing channel fail soft with a notify error the caller swallows.
func NewDispatcher(cfg config.DispatchConfig, templates *Templates, router *Router, client ClientChannel, alerts AlertChannel, log *logger.Logger) *Dispatcher {
	timeout := cfg.GetDispatchTimeout()
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	perSecond := cfg.GetDispatchRatePerSecond()
	if perSecond <= 0 {
		perSecond = 5
	}
	burst := cfg.GetDispatchBurst()
	if burst < 1 {
		burst = 1
	}

	return &Dispatcher{
		templates: templates,
		router:    router,
		client:    client,
		alerts:    alerts,
		limiter:   rate.NewLimiter(rate.Limit(perSecond), burst),
		timeout:   timeout,
		log:       log,
	}
}

// Dispatch renders and sends one notification. The returned error is always
// of kind notify; callers log it and continue, never abort.
func (d *Dispatcher) Dispatch(ctx context.Context, n Notification) error {
	sendCtx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	body, err := d.templates.Render(sendCtx, n.Kind, n.Data)
	if err != nil {
		return apperr.Notify("render notification", err)
	}

	if err := d.limiter.Wait(sendCtx); err != nil {
		return apperr.Notify("rate limit wait", err)
	}

	if n.Tier == domain.TierClient {
		return d.sendClient(sendCtx, n, body)
	}
	return d.sendTier(sendCtx, n, body)
}

func (d *Dispatcher) sendClient(ctx context.Context, n Notification, body string) error {
	if d.client == nil {
		return apperr.Notify("client channel not configured", nil)
	}
	if n.Phone == "" {
		return apperr.Notify("client notification without destination phone", nil)
	}
	if err := d.client.SendMessage(ctx, n.Phone, body); err != nil {
		return apperr.Notify("send client message", err)
	}
	return nil
}

func (d *Dispatcher) sendTier(ctx context.Context, n Notification, body string) error {
	recipients, err := d.router.Recipients(ctx, n.Tier, n.AssigneeID)
	if err != nil {
		return apperr.Notify("resolve escalation audience", err)
	}
	if len(recipients) == 0 {
		return apperr.Notify("escalation audience is empty", nil)
	}

	subject := n.Subject
	if subject == "" {
		subject = "Alerta de workflow"
	}

	var lastErr error
	delivered := 0
	for _, user := range recipients {
		if d.alerts != nil && user.Email != "" {
			if err := d.alerts.SendAlert(ctx, user.Email, subject, body); err != nil {
				lastErr = err
				continue
			}
			delivered++
			continue
		}
		if d.client != nil && user.Phone != "" {
			if err := d.client.SendMessage(ctx, user.Phone, body); err != nil {
				lastErr = err
				continue
			}
			delivered++
		}
	}

	if delivered == 0 {
		return apperr.Notify("no escalation recipient reachable", lastErr)
	}
	return nil
}
