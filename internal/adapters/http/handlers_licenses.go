package http

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/keygate-labs/keygate/internal/application"
)

func (h *Handler) createLicenses(w http.ResponseWriter, r *http.Request) {
	var req application.LicenseCreateRequest
	if err := h.decodeAndValidate(r, &req); err != nil {
		writeValidationError(r.Context(), w, "create_licenses", err)
		return
	}

	items, err := h.service.CreateLicenses(r.Context(), req)
	if err != nil {
		writeMappedError(r.Context(), w, "create_licenses", err)
		return
	}
	writeSuccess(w, http.StatusCreated, map[string]any{"licenses": items})
}

func (h *Handler) getLicense(w http.ResponseWriter, r *http.Request) {
	licenseID, err := uuid.Parse(chi.URLParam(r, "license_id"))
	if err != nil {
		writeValidationError(r.Context(), w, "get_license", errors.New("invalid license_id"))
		return
	}

	item, err := h.service.GetLicense(r.Context(), licenseID)
	if err != nil {
		writeMappedError(r.Context(), w, "get_license", err)
		return
	}
	writeSuccess(w, http.StatusOK, item)
}

func (h *Handler) listAccountLicenses(w http.ResponseWriter, r *http.Request) {
	externalID := chi.URLParam(r, "external_id")
	items, err := h.service.LicensesByExternalAccount(r.Context(), externalID)
	if err != nil {
		writeMappedError(r.Context(), w, "list_account_licenses", err)
		return
	}
	writeSuccess(w, http.StatusOK, map[string]any{"licenses": items})
}

func (h *Handler) mintLinkCode(w http.ResponseWriter, r *http.Request) {
	licenseID, err := uuid.Parse(chi.URLParam(r, "license_id"))
	if err != nil {
		writeValidationError(r.Context(), w, "mint_link_code", errors.New("invalid license_id"))
		return
	}

	res, err := h.service.MintLinkCode(r.Context(), licenseID)
	if err != nil {
		writeMappedError(r.Context(), w, "mint_link_code", err)
		return
	}
	writeSuccess(w, http.StatusCreated, res)
}

func (h *Handler) pauseAllLicenses(w http.ResponseWriter, r *http.Request) {
	affected, err := h.service.PauseAllLicenses(r.Context(), "admin", readIP(r))
	if err != nil {
		writeMappedError(r.Context(), w, "pause_all_licenses", err)
		return
	}
	writeSuccess(w, http.StatusOK, map[string]any{"paused": affected})
}

func (h *Handler) resumeAllLicenses(w http.ResponseWriter, r *http.Request) {
	affected, err := h.service.ResumeAllLicenses(r.Context(), "admin", readIP(r))
	if err != nil {
		writeMappedError(r.Context(), w, "resume_all_licenses", err)
		return
	}
	writeSuccess(w, http.StatusOK, map[string]any{"resumed": affected})
}

func (h *Handler) registerClient(w http.ResponseWriter, r *http.Request) {
	var req application.ClientRegisterRequest
	if err := h.decodeAndValidate(r, &req); err != nil {
		writeValidationError(r.Context(), w, "register_client", err)
		return
	}

	if err := h.service.RegisterClient(r.Context(), req); err != nil {
		writeMappedError(r.Context(), w, "register_client", err)
		return
	}
	writeMessage(w, http.StatusCreated, "Client registered successfully")
}

func (h *Handler) revokeLicenseSessions(w http.ResponseWriter, r *http.Request) {
	licenseID, err := uuid.Parse(chi.URLParam(r, "license_id"))
	if err != nil {
		writeValidationError(r.Context(), w, "revoke_license_sessions", errors.New("invalid license_id"))
		return
	}

	if err := h.service.RevokeLicenseSessions(r.Context(), licenseID, readIP(r)); err != nil {
		writeMappedError(r.Context(), w, "revoke_license_sessions", err)
		return
	}
	writeMessage(w, http.StatusOK, "License sessions revoked successfully")
}

func (h *Handler) adminRevokeSession(w http.ResponseWriter, r *http.Request) {
	sessionID, err := uuid.Parse(chi.URLParam(r, "session_id"))
	if err != nil {
		writeValidationError(r.Context(), w, "admin_revoke_session", errors.New("invalid session_id"))
		return
	}

	if err := h.service.RevokeSessionByID(r.Context(), sessionID, readIP(r)); err != nil {
		writeMappedError(r.Context(), w, "admin_revoke_session", err)
		return
	}
	writeMessage(w, http.StatusOK, "Session revoked successfully")
}
