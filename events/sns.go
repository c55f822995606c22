package events

import (
	"context"
	"encoding/json"

	"github.com/Manish-456/eatsy-backend/models"
)

// topicPublisher is satisfied by *aws.SNSClient.
type topicPublisher interface {
	Publish(ctx context.Context, topicArn, eventType string, message []byte) error
}

// SNSPublisher fans order events out through an SNS topic.
type SNSPublisher struct {
	client   topicPublisher
	topicArn string
}

func NewSNSPublisher(client topicPublisher, topicArn string) *SNSPublisher {
	return &SNSPublisher{client: client, topicArn: topicArn}
}

func (p *SNSPublisher) Publish(ctx context.Context, event models.OrderEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}
	return p.client.Publish(ctx, p.topicArn, event.Type, data)
}

func (p *SNSPublisher) Close() error { return nil }
