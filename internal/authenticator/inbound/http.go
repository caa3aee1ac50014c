package inbound

import (
	"net/http"
	"time"

	"github.com/shandysiswandi/otpbite/internal/pkg/router"
)

// heartbeatInterval keeps idle proxies from dropping the stream.
const heartbeatInterval = 25 * time.Second

func RegisterHTTPEndpoint(r *router.Router, uc uc) {
	end := &HTTPEndpoint{uc: uc, heartbeat: heartbeatInterval}

	r.GET("/api/v1/authenticator/accounts", end.ListAccounts)
	r.GET("/api/v1/authenticator/codes", end.ListCodes)
	r.GET("/api/v1/authenticator/codes/:id", end.GetCode)
	r.POST("/api/v1/authenticator/codes/:id/verify", end.VerifyCode)

	r.GETRaw("/api/v1/authenticator/stream", http.HandlerFunc(end.StreamCodes))
}
