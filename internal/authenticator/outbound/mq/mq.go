package mq

import (
	"context"
	"encoding/json"
	"time"

	"github.com/shandysiswandi/otpbite/internal/authenticator/usecase"
	"github.com/shandysiswandi/otpbite/internal/pkg/instrument"
	"github.com/shandysiswandi/otpbite/internal/pkg/messaging"
	"go.opentelemetry.io/otel/codes"
)

const (
	// DestinationCodeVerified receives one message per verification attempt.
	DestinationCodeVerified = "authenticator.code_verified"

	keyOfCorrelationID = "cID"
)

type codeVerifiedMessage struct {
	AccountID  string    `json:"account_id"`
	Valid      bool      `json:"valid"`
	Replayed   bool      `json:"replayed"`
	VerifiedAt time.Time `json:"verified_at"`
}

type Messaging struct {
	client messaging.Publisher
	ins    instrument.Instrumentation
}

func NewMessaging(client messaging.Publisher, ins instrument.Instrumentation) *Messaging {
	return &Messaging{client: client, ins: ins}
}

func (m *Messaging) PublishCodeVerified(ctx context.Context, ev usecase.CodeVerifiedEvent) error {
	ctx, span := m.ins.Tracer("authenticator.outbound.mq").Start(ctx, "PublishCodeVerified")
	defer span.End()

	body, err := json.Marshal(codeVerifiedMessage{
		AccountID:  ev.AccountID,
		Valid:      ev.Valid,
		Replayed:   ev.Replayed,
		VerifiedAt: ev.VerifiedAt.UTC(),
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	cID := instrument.GetCorrelationID(ctx)
	if _, err := m.client.Publish(ctx, DestinationCodeVerified, messaging.OutgoingMessage{
		Body:    body,
		Key:     []byte(ev.AccountID),
		Headers: []messaging.Header{{Key: keyOfCorrelationID, Value: []byte(cID)}},
	}); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	return nil
}
