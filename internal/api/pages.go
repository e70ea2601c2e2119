// NodeWatch - Mesh Node Online/Offline Monitoring
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/nodewatch

package api

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"net/http"
	"net/url"

	"github.com/tomtom215/nodewatch/internal/config"
	"github.com/tomtom215/nodewatch/internal/logging"
	"github.com/tomtom215/nodewatch/internal/models"
)

//go:embed templates/*.html
var pageFS embed.FS

// Page template names.
const (
	pageIndex              = "index"
	pageList               = "list"
	pageListError          = "list_error"
	pagePrepareAction      = "prepare_action"
	pagePrepareActionError = "prepare_action_error"
	pageRunAction          = "run_action"
	pageRunActionError     = "run_action_error"
	pageError              = "error"
)

var pageNames = []string{
	pageIndex,
	pageList,
	pageListError,
	pagePrepareAction,
	pagePrepareActionError,
	pageRunAction,
	pageRunActionError,
	pageError,
}

// pageData is passed to every page. UI and URLs are always set; the other
// fields are filled per page.
type pageData struct {
	UI   config.UIConfig
	URLs config.URLsConfig

	Email   string
	ListURL string

	// list
	Watched []models.WatchedNode
	Others  []models.Node

	// prepare_action, run_action
	Add      bool
	NodeID   string
	NodeName string
	Success  bool

	// error pages
	Errors  []string
	Message string
}

// pageRenderer holds one template set per page, each cloned from the layout.
type pageRenderer struct {
	pages map[string]*template.Template
	ui    config.UIConfig
	urls  config.URLsConfig
}

func newPageRenderer(ui config.UIConfig, urls config.URLsConfig) (*pageRenderer, error) {
	funcs := template.FuncMap{
		"abs": func(path string) string {
			return urls.Absolute(path, nil)
		},
		"listURL": func(email string) string {
			return urls.Absolute("list", url.Values{"email": {email}})
		},
	}

	layout, err := template.New("layout.html").Funcs(funcs).ParseFS(pageFS, "templates/layout.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse page layout: %w", err)
	}

	pages := make(map[string]*template.Template, len(pageNames))
	for _, name := range pageNames {
		t, err := layout.Clone()
		if err != nil {
			return nil, fmt.Errorf("failed to clone page layout: %w", err)
		}
		if _, err := t.ParseFS(pageFS, "templates/"+name+".html"); err != nil {
			return nil, fmt.Errorf("failed to parse page %s: %w", name, err)
		}
		pages[name] = t
	}

	return &pageRenderer{pages: pages, ui: ui, urls: urls}, nil
}

// render executes the page into a buffer first so that a template error can
// still produce a clean 500 response.
func (p *pageRenderer) render(w http.ResponseWriter, r *http.Request, status int, name string, data pageData) {
	data.UI = p.ui
	data.URLs = p.urls

	t, ok := p.pages[name]
	if !ok {
		logging.Ctx(r.Context()).Error().Str("page", name).Msg("Unknown page template")
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "layout.html", data); err != nil {
		logging.Ctx(r.Context()).Error().Err(err).Str("page", name).Msg("Failed to render page")
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	if _, err := buf.WriteTo(w); err != nil {
		logging.Ctx(r.Context()).Debug().Err(err).Msg("Failed to write page")
	}
}

// renderError renders the generic error page.
func (p *pageRenderer) renderError(w http.ResponseWriter, r *http.Request, status int, message string) {
	p.render(w, r, status, pageError, pageData{Message: message})
}
