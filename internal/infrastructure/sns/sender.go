package sns

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/aws/aws-sdk-go-v2/service/sns/types"
	"github.com/go-api-ledger/internal/config"
	"github.com/go-api-ledger/internal/domain"
	"github.com/go-api-ledger/internal/infrastructure/awsconf"
)

type publisher interface {
	Publish(ctx context.Context, in *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

// EventPublisher sends ledger events to an SNS topic as JSON. The event type
// is also set as a message attribute so subscribers can filter on it.
type EventPublisher struct {
	client   publisher
	topicARN string
}

func NewEventPublisher(ctx context.Context, cfg *config.Config) (*EventPublisher, error) {
	awsCfg, err := awsconf.Load(ctx, cfg, cfg.SNSRegion)
	if err != nil {
		return nil, err
	}
	client := sns.NewFromConfig(awsCfg, func(o *sns.Options) {
		if cfg.AWSEndpointURL != "" {
			o.BaseEndpoint = aws.String(cfg.AWSEndpointURL)
		}
	})
	return newEventPublisher(client, cfg.LedgerEventsTopicARN), nil
}

func newEventPublisher(client publisher, topicARN string) *EventPublisher {
	return &EventPublisher{client: client, topicARN: topicARN}
}

func (p *EventPublisher) Publish(ctx context.Context, ev *domain.LedgerEvent) error {
	body, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal ledger event: %w", err)
	}
	_, err = p.client.Publish(ctx, &sns.PublishInput{
		TopicArn: aws.String(p.topicARN),
		Message:  aws.String(string(body)),
		Subject:  aws.String("ledger." + ev.Type),
		MessageAttributes: map[string]types.MessageAttributeValue{
			"eventType": {DataType: aws.String("String"), StringValue: aws.String(ev.Type)},
		},
	})
	if err != nil {
		return fmt.Errorf("sns publish: %w", err)
	}
	return nil
}
