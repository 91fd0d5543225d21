package http

import (
	"net/http"

	"github.com/keygate-labs/keygate/internal/application"
)

func (h *Handler) sessionLogin(w http.ResponseWriter, r *http.Request) {
	var req application.SessionCreateRequest
	if err := h.decodeAndValidate(r, &req); err != nil {
		writeValidationError(r.Context(), w, "session_login", err)
		return
	}
	if req.IPAddress == "" {
		req.IPAddress = readIP(r)
	}

	res, err := h.service.CreateSession(r.Context(), req)
	if err != nil {
		writeMappedError(r.Context(), w, "session_login", err)
		return
	}
	writeSuccess(w, http.StatusCreated, res)
}

func (h *Handler) sessionRefresh(w http.ResponseWriter, r *http.Request) {
	token, ok := tokenFromContext(r)
	if !ok {
		writeMissingBearerError(r.Context(), w, "session_refresh")
		return
	}
	res, err := h.service.RefreshSession(r.Context(), token, readIP(r))
	if err != nil {
		writeMappedError(r.Context(), w, "session_refresh", err)
		return
	}
	writeSuccess(w, http.StatusOK, res)
}

func (h *Handler) sessionResume(w http.ResponseWriter, r *http.Request) {
	token, ok := tokenFromContext(r)
	if !ok {
		writeMissingBearerError(r.Context(), w, "session_resume")
		return
	}
	res, err := h.service.ResumeSession(r.Context(), token)
	if err != nil {
		writeMappedError(r.Context(), w, "session_resume", err)
		return
	}
	writeSuccess(w, http.StatusOK, res)
}

func (h *Handler) sessionLogout(w http.ResponseWriter, r *http.Request) {
	token, ok := tokenFromContext(r)
	if !ok {
		writeMissingBearerError(r.Context(), w, "session_logout")
		return
	}
	if err := h.service.RevokeSession(r.Context(), token, readIP(r)); err != nil {
		writeMappedError(r.Context(), w, "session_logout", err)
		return
	}
	writeMessage(w, http.StatusOK, "Session revoked successfully")
}
