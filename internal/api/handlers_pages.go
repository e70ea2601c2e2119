// NodeWatch - Mesh Node Online/Offline Monitoring
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/nodewatch

package api

import (
	"errors"
	"net/http"
	"net/url"

	"github.com/tomtom215/nodewatch/internal/action"
	"github.com/tomtom215/nodewatch/internal/logging"
	"github.com/tomtom215/nodewatch/internal/metrics"
	"github.com/tomtom215/nodewatch/internal/models"
	"github.com/tomtom215/nodewatch/internal/store"
	"github.com/tomtom215/nodewatch/internal/validation"
)

// maxFormBytes bounds the prepare_action form body.
const maxFormBytes = 8 << 10

// Index renders the start page.
func (h *Handler) Index(w http.ResponseWriter, r *http.Request) {
	h.pages.render(w, r, http.StatusOK, pageIndex, pageData{})
}

// List renders the nodes watched by ?email= followed by every other node.
// A missing or invalid address renders the list error page.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	req := validation.ListRequest{Email: r.URL.Query().Get("email")}
	if verr := validation.ValidateStruct(&req); verr != nil {
		h.pages.render(w, r, http.StatusBadRequest, pageListError, pageData{})
		return
	}

	ctx := r.Context()
	watched, err := h.directory.WatchedNodes(ctx, req.Email)
	if err != nil {
		logging.CtxErr(ctx, err).Msg("Failed to load watched nodes")
		h.pages.renderError(w, r, http.StatusInternalServerError, "The node list could not be loaded. Please try again later.")
		return
	}
	all, err := h.directory.ListNodes(ctx)
	if err != nil {
		logging.CtxErr(ctx, err).Msg("Failed to load nodes")
		h.pages.renderError(w, r, http.StatusInternalServerError, "The node list could not be loaded. Please try again later.")
		return
	}

	h.pages.render(w, r, http.StatusOK, pageList, pageData{
		Email:   req.Email,
		Watched: watched,
		Others:  otherNodes(all, watched),
	})
}

// otherNodes returns the nodes of all that are not in watched, keeping the
// order of all.
func otherNodes(all []models.Node, watched []models.WatchedNode) []models.Node {
	seen := make(map[string]struct{}, len(watched))
	for _, w := range watched {
		seen[w.NodeID] = struct{}{}
	}
	others := make([]models.Node, 0, len(all))
	for _, n := range all {
		if _, ok := seen[n.ID]; !ok {
			others = append(others, n)
		}
	}
	return others
}

// PrepareAction validates the form, signs the action and emails the
// run_action link to the address in the form. Nothing is written to the
// store here.
//
// Adding a node that is not in the directory is refused. Removing is always
// allowed so that subscriptions to vanished nodes can be cleaned up; the
// node id then serves as the display name.
func (h *Handler) PrepareAction(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	r.Body = http.MaxBytesReader(w, r.Body, maxFormBytes)
	if err := r.ParseForm(); err != nil {
		h.pages.render(w, r, http.StatusBadRequest, pagePrepareActionError, pageData{
			Errors: []string{"The form data could not be read."},
		})
		return
	}

	req := validation.PrepareActionFromForm(r.PostForm)
	if verr := validation.ValidateStruct(&req); verr != nil {
		messages := make([]string, 0, len(verr.Errors()))
		for _, e := range verr.Errors() {
			messages = append(messages, e.Error())
		}
		data := pageData{Errors: messages}
		if !verr.HasField("email") {
			data.ListURL = h.listURL(req.Email)
		}
		h.pages.render(w, r, http.StatusBadRequest, pagePrepareActionError, data)
		return
	}
	a := req.Action()
	listURL := h.listURL(a.Email)

	nodeName, err := h.resolveNodeName(r, a)
	if errors.Is(err, store.ErrNodeNotFound) {
		h.pages.render(w, r, http.StatusNotFound, pagePrepareActionError, pageData{
			NodeID:  a.NodeID,
			Email:   a.Email,
			ListURL: listURL,
		})
		return
	}
	if err != nil {
		logging.CtxErr(ctx, err).Str("node_id", a.NodeID).Msg("Failed to look up node")
		h.pages.renderError(w, r, http.StatusInternalServerError, "The request could not be processed. Please try again later.")
		return
	}

	token, err := action.NewToken(a, h.key)
	if err != nil {
		logging.CtxErr(ctx, err).Msg("Failed to encode action token")
		h.pages.renderError(w, r, http.StatusInternalServerError, "The request could not be processed. Please try again later.")
		return
	}
	metrics.RecordTokenIssued(a.Op.String())
	actionURL := h.config.URLs.Absolute("run_action", url.Values{"signed_action": {token}})

	if err := h.confirmer.SendConfirmation(ctx, a, nodeName, actionURL); err != nil {
		logging.CtxErr(ctx, err).
			Str("node_id", a.NodeID).
			Str("email", logging.MaskEmail(a.Email)).
			Msg("Failed to send confirmation email")
		h.pages.renderError(w, r, http.StatusBadGateway, "The confirmation email could not be sent. Please try again later.")
		return
	}

	logging.Ctx(ctx).Info().
		Str("op", a.Op.String()).
		Str("node_id", a.NodeID).
		Str("email", logging.MaskEmail(a.Email)).
		Msg("Confirmation email sent")

	h.pages.render(w, r, http.StatusOK, pagePrepareAction, pageData{
		Add:      a.Op == action.OpAdd,
		NodeID:   a.NodeID,
		NodeName: nodeName,
		Email:    a.Email,
		ListURL:  listURL,
	})
}

// resolveNodeName returns the display name for the node of a. For removals
// of unknown nodes the id is returned; for additions store.ErrNodeNotFound.
func (h *Handler) resolveNodeName(r *http.Request, a action.Action) (string, error) {
	node, err := h.directory.GetNode(r.Context(), a.NodeID)
	switch {
	case err == nil:
		return node.Name, nil
	case errors.Is(err, store.ErrNodeNotFound) && a.Op == action.OpRemove:
		return a.NodeID, nil
	default:
		return "", err
	}
}

// RunAction decodes, verifies and applies ?signed_action=. Any decoding or
// signature failure renders the invalid link page; storage failures are a
// 500. Applying an action twice is harmless and reports "nothing changed".
func (h *Handler) RunAction(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	req := validation.RunActionRequest{SignedAction: r.URL.Query().Get("signed_action")}
	if verr := validation.ValidateStruct(&req); verr != nil {
		metrics.RecordTokenRejected()
		h.pages.render(w, r, http.StatusBadRequest, pageRunActionError, pageData{})
		return
	}

	a, err := action.ParseToken(req.SignedAction, h.key)
	if err != nil {
		metrics.RecordTokenRejected()
		logging.Ctx(ctx).Info().
			Str("token", logging.MaskToken(req.SignedAction)).
			Msg("Rejected action token")
		h.pages.render(w, r, http.StatusBadRequest, pageRunActionError, pageData{})
		return
	}

	changed, err := h.executor.Run(ctx, a)
	if err != nil {
		h.pages.renderError(w, r, http.StatusInternalServerError, "Your request could not be saved. Please try the link again later.")
		return
	}

	h.pages.render(w, r, http.StatusOK, pageRunAction, pageData{
		Add:      a.Op == action.OpAdd,
		NodeID:   a.NodeID,
		NodeName: h.displayName(r, a.NodeID),
		Email:    a.Email,
		Success:  changed,
		ListURL:  h.listURL(a.Email),
	})
}

// displayName looks up the current node name, falling back to the id.
func (h *Handler) displayName(r *http.Request, nodeID string) string {
	node, err := h.directory.GetNode(r.Context(), nodeID)
	if err != nil {
		if !errors.Is(err, store.ErrNodeNotFound) {
			logging.Ctx(r.Context()).Warn().Err(err).Str("node_id", nodeID).Msg("Failed to look up node name")
		}
		return nodeID
	}
	return node.Name
}

func (h *Handler) listURL(email string) string {
	return h.config.URLs.Absolute("list", url.Values{"email": {email}})
}
