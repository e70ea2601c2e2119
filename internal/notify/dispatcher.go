// NodeWatch - Mesh Node Online/Offline Monitoring
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/nodewatch

package notify

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/tomtom215/nodewatch/internal/action"
	"github.com/tomtom215/nodewatch/internal/config"
	"github.com/tomtom215/nodewatch/internal/logging"
	"github.com/tomtom215/nodewatch/internal/metrics"
	"github.com/tomtom215/nodewatch/internal/models"
)

// SubscriberLookup resolves the addresses monitoring a node.
type SubscriberLookup interface {
	SubscribersOf(ctx context.Context, nodeID string) ([]string, error)
}

// Dispatcher sends notification and confirmation emails.
type Dispatcher struct {
	subs        SubscriberLookup
	mailer      Mailer
	renderer    *Renderer
	ui          config.UIConfig
	urls        config.URLsConfig
	sendTimeout time.Duration
}

// NewDispatcher creates a dispatcher. sendTimeout bounds each single email.
func NewDispatcher(subs SubscriberLookup, mailer Mailer, renderer *Renderer, cfg *config.Config) *Dispatcher {
	return &Dispatcher{
		subs:        subs,
		mailer:      mailer,
		renderer:    renderer,
		ui:          cfg.UI,
		urls:        cfg.URLs,
		sendTimeout: cfg.Notify.SendTimeout,
	}
}

// ListURL returns the link to the subscription list of email.
func (d *Dispatcher) ListURL(email string) string {
	return d.urls.Absolute("list", url.Values{"email": {email}})
}

// Dispatch emails every subscriber of change.Node. A failure for one
// recipient does not stop the others; all failures are joined and returned
// after every recipient was tried.
func (d *Dispatcher) Dispatch(ctx context.Context, change models.NodeChange) error {
	log := logging.Ctx(ctx)

	emails, err := d.subs.SubscribersOf(ctx, change.Node.ID)
	if err != nil {
		return fmt.Errorf("failed to look up subscribers of %s: %w", change.Node.ID, err)
	}

	var errs []error
	for _, email := range emails {
		listURL := d.ListURL(email)
		msg, err := d.renderer.Render(TemplateNotification, email, NotificationData{
			UI:      d.ui,
			URLs:    d.urls,
			Node:    change.Node,
			Email:   email,
			ListURL: listURL,
		})
		if err != nil {
			// Template errors affect every recipient.
			return err
		}
		msg.ListUnsubscribe = listURL

		if err := d.send(ctx, "notification", msg); err != nil {
			log.Warn().
				Err(err).
				Str("node_id", change.Node.ID).
				Str("email", logging.MaskEmail(email)).
				Msg("Failed to send notification")
			errs = append(errs, fmt.Errorf("notify %s about %s: %w", logging.MaskEmail(email), change.Node.ID, err))
		}
	}

	log.Debug().
		Str("node_id", change.Node.ID).
		Bool("online", change.Node.Online).
		Int("recipients", len(emails)).
		Int("failed", len(errs)).
		Msg("Dispatched node change")
	return errors.Join(errs...)
}

// DispatchAll dispatches every change. Failures are logged and the loop
// continues with the next node; the joined error is returned at the end.
func (d *Dispatcher) DispatchAll(ctx context.Context, changes []models.NodeChange) error {
	var errs []error
	for _, c := range changes {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		if err := d.Dispatch(ctx, c); err != nil {
			logging.Ctx(ctx).Error().Err(err).Str("node_id", c.Node.ID).Msg("Notification for node incomplete")
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// SendConfirmation emails the confirmation link for a prepared action.
func (d *Dispatcher) SendConfirmation(ctx context.Context, a action.Action, nodeName, actionURL string) error {
	listURL := d.ListURL(a.Email)
	msg, err := d.renderer.Render(TemplateConfirmAction, a.Email, ConfirmData{
		UI:        d.ui,
		URLs:      d.urls,
		Add:       a.Op == action.OpAdd,
		NodeID:    a.NodeID,
		NodeName:  nodeName,
		Email:     a.Email,
		ActionURL: actionURL,
		ListURL:   listURL,
	})
	if err != nil {
		return err
	}
	return d.send(ctx, "confirmation", msg)
}

func (d *Dispatcher) send(ctx context.Context, kind string, msg *Message) error {
	ctx, cancel := context.WithTimeout(ctx, d.sendTimeout)
	defer cancel()

	start := time.Now()
	err := d.mailer.Send(ctx, msg)
	metrics.RecordEmail(kind, time.Since(start), err)
	return err
}
