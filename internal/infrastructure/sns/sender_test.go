package sns

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/go-api-ledger/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type capturePublisher struct {
	in *sns.PublishInput
}

func (c *capturePublisher) Publish(_ context.Context, in *sns.PublishInput, _ ...func(*sns.Options)) (*sns.PublishOutput, error) {
	c.in = in
	return &sns.PublishOutput{MessageId: aws.String("m-1")}, nil
}

func TestPublish_EncodesEvent(t *testing.T) {
	c := &capturePublisher{}
	p := newEventPublisher(c, "arn:aws:sns:us-east-1:000000000000:ledger")

	err := p.Publish(context.Background(), &domain.LedgerEvent{
		Type:       domain.EventTransferIncomplete,
		AccountID:  "a1",
		TransferID: "t1",
		Amount:     200,
		OccurredAt: time.Now(),
	})

	require.NoError(t, err)
	require.NotNil(t, c.in)
	assert.Equal(t, "arn:aws:sns:us-east-1:000000000000:ledger", aws.ToString(c.in.TopicArn))
	assert.Equal(t, "ledger.transfer.incomplete", aws.ToString(c.in.Subject))
	assert.Equal(t, "transfer.incomplete", aws.ToString(c.in.MessageAttributes["eventType"].StringValue))

	var ev domain.LedgerEvent
	require.NoError(t, json.Unmarshal([]byte(aws.ToString(c.in.Message)), &ev))
	assert.Equal(t, "t1", ev.TransferID)
}
