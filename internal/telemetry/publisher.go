// Package telemetry publishes proxy usage events to SQS for asynchronous
// analysis. Publication is fire-and-forget: a queue outage must never
// affect request handling.
package telemetry

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	sqstypes "github.com/aws/aws-sdk-go-v2/service/sqs/types"

	"longwave/internal/types"
)

// SQSSender abstracts the SendMessage operation for testability.
// Production code uses the *sqs.Client from aws-sdk-go-v2.
type SQSSender interface {
	SendMessage(ctx context.Context, params *sqs.SendMessageInput, optFns ...func(*sqs.Options)) (*sqs.SendMessageOutput, error)
}

// Publisher sends usage events to a single SQS queue. An empty queue URL
// disables publication entirely.
type Publisher struct {
	client   SQSSender
	queueURL string
	logger   *slog.Logger
}

// NewPublisher creates a publisher for the given queue. A nil client or
// empty queue URL yields a publisher whose Publish is a no-op.
func NewPublisher(client SQSSender, queueURL string, logger *slog.Logger) *Publisher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Publisher{
		client:   client,
		queueURL: queueURL,
		logger:   logger,
	}
}

// Enabled reports whether events will actually be sent.
func (p *Publisher) Enabled() bool {
	return p.client != nil && p.queueURL != ""
}

// Publish serializes the event and dispatches it. Errors are logged and
// swallowed; the caller never waits on delivery semantics.
func (p *Publisher) Publish(ctx context.Context, event types.UsageEvent) {
	if !p.Enabled() {
		return
	}

	body, err := json.Marshal(event)
	if err != nil {
		p.logger.Error("failed to marshal usage event",
			"error", err.Error(),
			"type", string(event.Type),
		)
		return
	}

	input := &sqs.SendMessageInput{
		QueueUrl:    aws.String(p.queueURL),
		MessageBody: aws.String(string(body)),
		MessageAttributes: map[string]sqstypes.MessageAttributeValue{
			"type": {
				DataType:    aws.String("String"),
				StringValue: aws.String(string(event.Type)),
			},
		},
	}

	if _, err := p.client.SendMessage(ctx, input); err != nil {
		p.logger.Error("failed to publish usage event",
			"error", err.Error(),
			"type", string(event.Type),
		)
	}
}
