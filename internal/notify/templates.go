// NodeWatch - Mesh Node Online/Offline Monitoring
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/nodewatch

package notify

import (
	"bytes"
	"embed"
	"fmt"
	"strings"
	"text/template"

	"github.com/tomtom215/nodewatch/internal/config"
	"github.com/tomtom215/nodewatch/internal/models"
)

//go:embed templates/*.txt
var templateFS embed.FS

// Template names.
const (
	TemplateNotification  = "notification"
	TemplateConfirmAction = "confirm_action"
)

// Renderer turns email templates into messages.
//
// A rendered template is split into lines: the first line is the sender
// display name, the second the subject, and the rest the body.
type Renderer struct {
	tmpl *template.Template
	ui   config.UIConfig
	urls config.URLsConfig
}

// NewRenderer parses the embedded templates.
func NewRenderer(ui config.UIConfig, urls config.URLsConfig) (*Renderer, error) {
	tmpl, err := template.New("email").Option("missingkey=error").ParseFS(templateFS, "templates/*.txt")
	if err != nil {
		return nil, fmt.Errorf("failed to parse email templates: %w", err)
	}
	return &Renderer{tmpl: tmpl, ui: ui, urls: urls}, nil
}

// NotificationData is the input of the notification template.
type NotificationData struct {
	UI      config.UIConfig
	URLs    config.URLsConfig
	Node    models.Node
	Email   string
	ListURL string
}

// ConfirmData is the input of the confirm_action template.
type ConfirmData struct {
	UI        config.UIConfig
	URLs      config.URLsConfig
	Add       bool
	NodeID    string
	NodeName  string
	Email     string
	ActionURL string
	ListURL   string
}

// Render executes the named template and splits the result into a message
// addressed to to.
func (r *Renderer) Render(name, to string, data any) (*Message, error) {
	var buf bytes.Buffer
	if err := r.tmpl.ExecuteTemplate(&buf, name+".txt", data); err != nil {
		return nil, fmt.Errorf("failed to render %s email: %w", name, err)
	}

	parts := strings.SplitN(buf.String(), "\n", 3)
	if len(parts) < 3 {
		return nil, fmt.Errorf("%s email template must have a sender line, a subject line and a body", name)
	}
	return &Message{
		FromName: strings.TrimSpace(parts[0]),
		To:       to,
		Subject:  strings.TrimSpace(parts[1]),
		Body:     parts[2],
	}, nil
}
