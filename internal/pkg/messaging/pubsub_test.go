package messaging

import (
	"context"
	"testing"

	"cloud.google.com/go/pubsub/v2"
	"cloud.google.com/go/pubsub/v2/apiv1/pubsubpb"
	"cloud.google.com/go/pubsub/v2/pstest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/option"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

func TestPubSub_Publish(t *testing.T) {
	ctx := context.Background()

	srv := pstest.NewServer()
	t.Cleanup(func() { _ = srv.Close() })

	_, err := srv.GServer.CreateTopic(ctx, &pubsubpb.Topic{Name: "projects/otpbite/topics/codes"})
	require.NoError(t, err)

	client, err := pubsub.NewClient(ctx, "otpbite",
		option.WithEndpoint(srv.Addr),
		option.WithoutAuthentication(),
		option.WithGRPCDialOption(grpc.WithTransportCredentials(insecure.NewCredentials())),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	p, err := NewPubSub(ctx, PubSubConfig{Client: client})
	require.NoError(t, err)

	res, err := p.Publish(ctx, "codes", sample)
	require.NoError(t, err)
	assert.NotEmpty(t, res.MessageID)

	msgs := srv.Messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, sample.Body, msgs[0].Data)
	assert.Equal(t, map[string]string{"cID": "abc"}, msgs[0].Attributes)

	require.NoError(t, p.Close())
	_, err = p.Publish(ctx, "codes", sample)
	assert.ErrorIs(t, err, ErrClosed)
}
