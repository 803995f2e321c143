package http

import (
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/classhub/classhub-lms/internal/rbac"
	"github.com/classhub/classhub-lms/internal/storage"
)

// MountAssets serves lesson and submission attachments out of the blob store.
func MountAssets(r chi.Router, bs storage.BlobStore) {
	// POST /assets/{prefix} — upload under a caller-chosen prefix
	r.With(rbac.Require("asset:put")).Post("/{prefix}", func(w http.ResponseWriter, r *http.Request) {
		prefix := chi.URLParam(r, "prefix")
		f, hdr, err := r.FormFile("file")
		if err != nil {
			http.Error(w, "file required", http.StatusBadRequest)
			return
		}
		defer f.Close()

		key := prefix + "/" + hdr.Filename
		if _, err := bs.Put(key, f); err != nil {
			http.Error(w, "store error: "+err.Error(), http.StatusInternalServerError)
			return
		}
		writeJSON(w, map[string]string{"key": key})
	})

	// GET /assets/* — returns the blob at whatever follows /assets/
	r.With(rbac.Require("asset:get")).Get("/*", func(w http.ResponseWriter, r *http.Request) {
		key := strings.TrimPrefix(chi.URLParam(r, "*"), "/")
		rc, err := bs.Get(key)
		if err != nil {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}
		defer rc.Close()
		w.Header().Set("Content-Type", "application/octet-stream")
		_, _ = io.Copy(w, rc)
	})

	// DELETE /assets/*
	r.With(rbac.Require("asset:put")).Delete("/*", func(w http.ResponseWriter, r *http.Request) {
		key := strings.TrimPrefix(chi.URLParam(r, "*"), "/")
		if err := bs.Delete(key); err != nil {
			http.Error(w, "delete error: "+err.Error(), http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	})
}
