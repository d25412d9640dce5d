// Package notify publishes loader events to an SQS queue so downstream
// consumers learn about newly created entities.
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	sqstypes "github.com/aws/aws-sdk-go-v2/service/sqs/types"
)

// Event types.
const (
	EventEntityCreated = "entity_created"
	EventRunCompleted  = "run_completed"
)

// Event describes one thing the loader did.
type Event struct {
	EventType string `json:"event_type"`
	RunID     string `json:"run_id"`
	Kind      string `json:"kind,omitempty"`
	EntityID  string `json:"entity_id,omitempty"`
	Name      string `json:"name,omitempty"`
	ParentID  string `json:"parent_id,omitempty"`
	Timestamp string `json:"timestamp"`
}

// SQSAPI is the subset of the SQS client used for publishing.
type SQSAPI interface {
	SendMessage(ctx context.Context, params *sqs.SendMessageInput, optFns ...func(*sqs.Options)) (*sqs.SendMessageOutput, error)
}

// Publisher sends events to a single queue.
type Publisher struct {
	client   SQSAPI
	queueURL string
	now      func() time.Time
}

// NewPublisher creates a Publisher for queueURL.
func NewPublisher(client SQSAPI, queueURL string) *Publisher {
	return &Publisher{client: client, queueURL: queueURL, now: time.Now}
}

// NewSQSClient builds an SQS client from an AWS config.
func NewSQSClient(awsCfg aws.Config) *sqs.Client {
	return sqs.NewFromConfig(awsCfg)
}

// Publish sends ev, stamping its timestamp if unset.
func (p *Publisher) Publish(ctx context.Context, ev Event) error {
	if ev.Timestamp == "" {
		ev.Timestamp = p.now().UTC().Format(time.RFC3339)
	}

	body, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	_, err = p.client.SendMessage(ctx, &sqs.SendMessageInput{
		QueueUrl:    aws.String(p.queueURL),
		MessageBody: aws.String(string(body)),
		MessageAttributes: map[string]sqstypes.MessageAttributeValue{
			"event_type": {
				DataType:    aws.String("String"),
				StringValue: aws.String(ev.EventType),
			},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to publish %s event: %w", ev.EventType, err)
	}

	return nil
}
