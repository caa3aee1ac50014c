package inbound

import (
	"time"

	"github.com/shandysiswandi/otpbite/internal/authenticator/usecase"
	"github.com/shandysiswandi/otpbite/internal/pkg/router"
)

type HTTPEndpoint struct {
	uc        uc
	heartbeat time.Duration
}

// ListAccounts returns the enrolled accounts, without secrets.
func (h *HTTPEndpoint) ListAccounts(r *router.Request) (any, error) {
	items, err := h.uc.ListAccounts(r.Context())
	if err != nil {
		return nil, err
	}

	resp := make([]AccountResponse, 0, len(items))
	for _, item := range items {
		resp = append(resp, AccountResponse{ID: item.ID, Name: item.Name, Issuer: item.Issuer})
	}

	return AccountsResponse{Accounts: resp}, nil
}

// ListCodes returns the current code of every account.
func (h *HTTPEndpoint) ListCodes(r *router.Request) (any, error) {
	snap, err := h.uc.ListCodes(r.Context())
	if err != nil {
		return nil, err
	}

	return toCodesResponse(*snap), nil
}

// GetCode returns the current code of one account.
func (h *HTTPEndpoint) GetCode(r *router.Request) (any, error) {
	code, err := h.uc.GetCode(r.Context(), usecase.GetCodeInput{ID: r.GetParam("id")})
	if err != nil {
		return nil, err
	}

	return toCodeResponse(*code), nil
}

// VerifyCode checks a code typed by the user against one account.
func (h *HTTPEndpoint) VerifyCode(r *router.Request) (any, error) {
	var req VerifyCodeRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	out, err := h.uc.VerifyCode(r.Context(), usecase.VerifyCodeInput{
		ID:   r.GetParam("id"),
		Code: req.Code,
	})
	if err != nil {
		return nil, err
	}

	return VerifyCodeResponse{Valid: out.Valid, Replayed: out.Replayed}, nil
}
