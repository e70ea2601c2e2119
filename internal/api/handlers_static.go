// NodeWatch - Mesh Node Online/Offline Monitoring
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/nodewatch

package api

import (
	"io/fs"
	"net/http"
	"os"

	"github.com/go-chi/chi/v5"
)

// staticHandler serves regular files below dir. Directories, invalid paths
// and missing files are 404; there are no directory listings.
func staticHandler(dir string) http.HandlerFunc {
	fsys := os.DirFS(dir)

	return func(w http.ResponseWriter, r *http.Request) {
		name := chi.URLParam(r, "*")
		if !fs.ValidPath(name) || name == "." {
			http.NotFound(w, r)
			return
		}

		info, err := fs.Stat(fsys, name)
		if err != nil || !info.Mode().IsRegular() {
			http.NotFound(w, r)
			return
		}

		w.Header().Set("Cache-Control", "public, max-age=3600")
		http.ServeFileFS(w, r, fsys, name)
	}
}
