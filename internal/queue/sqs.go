package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/aws/aws-sdk-go-v2/service/sqs/types"
)

// SQSAPI is the subset of the SQS client used by SQSQueue
type SQSAPI interface {
	SendMessage(ctx context.Context, params *sqs.SendMessageInput, optFns ...func(*sqs.Options)) (*sqs.SendMessageOutput, error)
	ReceiveMessage(ctx context.Context, params *sqs.ReceiveMessageInput, optFns ...func(*sqs.Options)) (*sqs.ReceiveMessageOutput, error)
	DeleteMessage(ctx context.Context, params *sqs.DeleteMessageInput, optFns ...func(*sqs.Options)) (*sqs.DeleteMessageOutput, error)
}

// SQSConfig holds the queue address and receive tuning
type SQSConfig struct {
	QueueURL string
	// Endpoint overrides the AWS endpoint, e.g. https://message-queue.api.cloud.yandex.net
	Endpoint    string
	MaxMessages int32
	WaitSeconds int32
	// VisibilityTimeout of zero keeps the queue's own setting
	VisibilityTimeout time.Duration
}

// DefaultSQSConfig returns long-polling defaults
func DefaultSQSConfig(queueURL string) SQSConfig {
	return SQSConfig{
		QueueURL:    queueURL,
		MaxMessages: 10,
		WaitSeconds: 20,
	}
}

// SQSQueue implements Publisher and Receiver on an SQS-compatible queue
type SQSQueue struct {
	client SQSAPI
	config SQSConfig
}

var (
	_ Publisher = (*SQSQueue)(nil)
	_ Receiver  = (*SQSQueue)(nil)
)

// NewSQSQueue builds a queue client from a loaded AWS config
func NewSQSQueue(awsCfg aws.Config, cfg SQSConfig) (*SQSQueue, error) {
	if cfg.QueueURL == "" {
		return nil, ErrEmptyQueueURL
	}
	client := sqs.NewFromConfig(awsCfg, func(o *sqs.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
	})
	return &SQSQueue{client: client, config: cfg}, nil
}

// NewSQSQueueWithClient wraps an existing SQS client
func NewSQSQueueWithClient(client SQSAPI, cfg SQSConfig) *SQSQueue {
	return &SQSQueue{client: client, config: cfg}
}

func (q *SQSQueue) Publish(ctx context.Context, v any) error {
	body, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}

	_, err = q.client.SendMessage(ctx, &sqs.SendMessageInput{
		QueueUrl:    aws.String(q.config.QueueURL),
		MessageBody: aws.String(string(body)),
	})
	if err != nil {
		return fmt.Errorf("send message: %w", err)
	}
	return nil
}

// Receive long-polls for up to MaxMessages messages
func (q *SQSQueue) Receive(ctx context.Context) ([]Message, error) {
	input := &sqs.ReceiveMessageInput{
		QueueUrl:            aws.String(q.config.QueueURL),
		MaxNumberOfMessages: q.config.MaxMessages,
		WaitTimeSeconds:     q.config.WaitSeconds,
		MessageSystemAttributeNames: []types.MessageSystemAttributeName{
			types.MessageSystemAttributeNameApproximateReceiveCount,
		},
	}
	if q.config.VisibilityTimeout > 0 {
		input.VisibilityTimeout = int32(q.config.VisibilityTimeout / time.Second)
	}

	out, err := q.client.ReceiveMessage(ctx, input)
	if err != nil {
		return nil, fmt.Errorf("receive messages: %w", err)
	}

	messages := make([]Message, 0, len(out.Messages))
	for _, m := range out.Messages {
		count, _ := strconv.Atoi(m.Attributes[string(types.MessageSystemAttributeNameApproximateReceiveCount)])
		messages = append(messages, Message{
			ID:            aws.ToString(m.MessageId),
			Body:          []byte(aws.ToString(m.Body)),
			ReceiptHandle: aws.ToString(m.ReceiptHandle),
			ReceiveCount:  count,
		})
	}
	return messages, nil
}

func (q *SQSQueue) Delete(ctx context.Context, receiptHandle string) error {
	_, err := q.client.DeleteMessage(ctx, &sqs.DeleteMessageInput{
		QueueUrl:      aws.String(q.config.QueueURL),
		ReceiptHandle: aws.String(receiptHandle),
	})
	if err != nil {
		return fmt.Errorf("delete message: %w", err)
	}
	return nil
}
