package http

import (
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
)

func (h *Handler) downloadFile(w http.ResponseWriter, r *http.Request) {
	token, ok := tokenFromContext(r)
	if !ok {
		writeMissingBearerError(r.Context(), w, "download_file")
		return
	}
	fileID := chi.URLParam(r, "file_id")

	info, reader, err := h.service.OpenProtectedFile(r.Context(), token, fileID, readIP(r))
	if err != nil {
		writeMappedError(r.Context(), w, "download_file", err)
		return
	}
	defer reader.Close()

	w.Header().Set("Content-Type", "application/octet-stream")
	w.Header().Set("Content-Disposition", "attachment; filename=\""+info.Name+"\"")
	if info.Size > 0 {
		w.Header().Set("Content-Length", strconv.FormatInt(info.Size, 10))
	}
	if _, err := io.Copy(w, reader); err != nil {
		// Headers are gone; all we can do is log the broken transfer.
		httpLogger().WarnContext(r.Context(), "download stream interrupted",
			"operation", "download_file",
			"outcome", "failure",
			"file_id", fileID,
			"request_id", requestIDFromContext(r.Context()),
			"error", err.Error(),
		)
	}
}
