// Package site serves the embedded race viewer.
package site

import (
	"context"
	"errors"
	"net/http"

	"github.com/okian/coffeerun/pkg/logger"
)

// ErrServe is reported when the viewer page cannot be opened.
var ErrServe = errors.New("viewer serve failed")

const indexPage = "/index.html"

// Register attaches the viewer to mux at /. More specific API routes keep
// precedence over it.
func Register(_ context.Context, mux *http.ServeMux) {
	if mux == nil {
		panic("mux is nil")
	}

	mux.Handle("GET /", NewRootHandler())
}

// RootHandler serves the embedded viewer files.
type RootHandler struct {
	fsys  http.FileSystem
	files http.Handler
}

// NewRootHandler creates a handler over the embedded viewer.
func NewRootHandler() *RootHandler {
	return newRootHandler(FS())
}

func newRootHandler(fsys http.FileSystem) *RootHandler {
	return &RootHandler{fsys: fsys, files: http.FileServer(fsys)}
}

// ServeHTTP serves the viewer page and its assets. Every response skips
// caches so a redeployed viewer is picked up on reload.
func (h *RootHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Cache-Control", "no-cache")

	if r.URL.Path == "/" {
		f, err := h.fsys.Open(indexPage)
		if err != nil {
			logger.Get().Error(r.Context(), "viewer index missing", logger.Error(err))
			http.Error(w, ErrServe.Error(), http.StatusInternalServerError)
			return
		}
		_ = f.Close()
	}
	h.files.ServeHTTP(w, r)
}
