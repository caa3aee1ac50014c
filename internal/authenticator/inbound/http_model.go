package inbound

import (
	"time"

	"github.com/shandysiswandi/otpbite/internal/authenticator/entity"
)

type AccountResponse struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Issuer string `json:"issuer,omitempty"`
}

type AccountsResponse struct {
	Accounts []AccountResponse `json:"accounts"`
}

type CodeResponse struct {
	AccountID        string  `json:"account_id"`
	Name             string  `json:"name"`
	Issuer           string  `json:"issuer,omitempty"`
	Code             string  `json:"code,omitempty"`
	SecondsRemaining uint32  `json:"seconds_remaining"`
	Period           uint32  `json:"period"`
	Progress         float64 `json:"progress"`
	Expiring         bool    `json:"expiring"`
	Error            string  `json:"error,omitempty"`
}

type CodesResponse struct {
	Timestamp time.Time      `json:"timestamp"`
	Codes     []CodeResponse `json:"codes"`
}

type VerifyCodeRequest struct {
	Code string `json:"code"`
}

type VerifyCodeResponse struct {
	Valid    bool `json:"valid"`
	Replayed bool `json:"replayed,omitempty"`
}

func (r VerifyCodeResponse) Message() string {
	switch {
	case r.Valid:
		return "code is valid"
	case r.Replayed:
		return "code has already been used"
	default:
		return "code is not valid"
	}
}

func toCodeResponse(c entity.AccountCode) CodeResponse {
	return CodeResponse{
		AccountID:        c.AccountID,
		Name:             c.Name,
		Issuer:           c.Issuer,
		Code:             c.Code,
		SecondsRemaining: c.SecondsRemaining,
		Period:           c.Period,
		Progress:         c.Progress,
		Expiring:         c.Expiring,
		Error:            c.Error,
	}
}

func toCodesResponse(s entity.Snapshot) CodesResponse {
	codes := make([]CodeResponse, 0, len(s.Codes))
	for _, c := range s.Codes {
		codes = append(codes, toCodeResponse(c))
	}
	return CodesResponse{Timestamp: s.Timestamp.UTC(), Codes: codes}
}
