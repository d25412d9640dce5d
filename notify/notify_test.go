package notify

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
)

type fakeSQS struct {
	inputs []*sqs.SendMessageInput
	err    error
}

func (f *fakeSQS) SendMessage(ctx context.Context, params *sqs.SendMessageInput, optFns ...func(*sqs.Options)) (*sqs.SendMessageOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.inputs = append(f.inputs, params)
	return &sqs.SendMessageOutput{MessageId: aws.String("m-1")}, nil
}

func TestPublish(t *testing.T) {
	client := &fakeSQS{}
	p := NewPublisher(client, "https://sqs.us-east-1.amazonaws.com/123/loader")
	p.now = func() time.Time { return time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC) }

	err := p.Publish(context.Background(), Event{
		EventType: EventEntityCreated,
		RunID:     "run-1",
		Kind:      "dataset",
		EntityID:  "42",
		Name:      "Breast Cancer",
	})
	if err != nil {
		t.Fatalf("Publish() error = %v", err)
	}

	if len(client.inputs) != 1 {
		t.Fatalf("expected 1 message, got %d", len(client.inputs))
	}

	in := client.inputs[0]
	if aws.ToString(in.QueueUrl) != "https://sqs.us-east-1.amazonaws.com/123/loader" {
		t.Errorf("unexpected queue url %q", aws.ToString(in.QueueUrl))
	}
	if aws.ToString(in.MessageAttributes["event_type"].StringValue) != EventEntityCreated {
		t.Errorf("event_type attribute not set")
	}

	var ev Event
	if err := json.Unmarshal([]byte(aws.ToString(in.MessageBody)), &ev); err != nil {
		t.Fatalf("failed to decode message body: %v", err)
	}
	if ev.Timestamp != "2024-01-02T03:04:05Z" {
		t.Errorf("timestamp = %q", ev.Timestamp)
	}
	if ev.EntityID != "42" || ev.Kind != "dataset" {
		t.Errorf("unexpected event %+v", ev)
	}
}

func TestPublishError(t *testing.T) {
	p := NewPublisher(&fakeSQS{err: errors.New("throttled")}, "q")

	err := p.Publish(context.Background(), Event{EventType: EventRunCompleted})
	if err == nil {
		t.Fatal("expected publish error")
	}
}
