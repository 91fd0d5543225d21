package http

import (
	"net/http"

	"github.com/keygate-labs/keygate/internal/application"
)

func (h *Handler) linkRedeem(w http.ResponseWriter, r *http.Request) {
	var req application.LinkRedeemRequest
	if err := h.decodeAndValidate(r, &req); err != nil {
		writeValidationError(r.Context(), w, "link_redeem", err)
		return
	}
	if req.IPAddress == "" {
		req.IPAddress = readIP(r)
	}

	res, err := h.service.RedeemLinkCode(r.Context(), req)
	if err != nil {
		writeMappedError(r.Context(), w, "link_redeem", err)
		return
	}
	writeSuccess(w, http.StatusOK, res)
}
