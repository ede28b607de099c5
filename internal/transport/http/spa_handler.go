package http

import (
	"errors"
	"io/fs"
	"net/http"
	"path"
	"strings"
)

// SPAHandler serves the frontend build. Paths without a file extension that
// match no file get index.html so client-side routes survive a reload; a
// missing asset is a plain 404.
type SPAHandler struct {
	StaticFS fs.FS
}

func (h SPAHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	name := strings.TrimPrefix(path.Clean("/"+r.URL.Path), "/")
	if name == "" || name == "index.html" {
		h.serveIndex(w, r)
		return
	}

	stat, err := fs.Stat(h.StaticFS, name)
	switch {
	case err == nil && !stat.IsDir():
		if strings.HasPrefix(name, "assets/") {
			// build output is content-hashed
			w.Header().Set("Cache-Control", "public, max-age=31536000, immutable")
		}
		http.ServeFileFS(w, r, h.StaticFS, name)
	case err == nil, errors.Is(err, fs.ErrNotExist), errors.Is(err, fs.ErrInvalid):
		if path.Ext(name) != "" {
			http.NotFound(w, r)
			return
		}
		h.serveIndex(w, r)
	default:
		http.Error(w, "internal server error", http.StatusInternalServerError)
	}
}

func (h SPAHandler) serveIndex(w http.ResponseWriter, r *http.Request) {
	content, err := fs.ReadFile(h.StaticFS, "index.html")
	if err != nil {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(content)
}
