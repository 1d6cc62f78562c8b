package awsclient

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/aws/aws-sdk-go-v2/service/sqs/types"

	"github.com/Lllllllleong/pdftextworker/internal/models"
)

// sqsAPI is the subset of the SQS client used by Queue.
type sqsAPI interface {
	SendMessage(ctx context.Context, params *sqs.SendMessageInput, optFns ...func(*sqs.Options)) (*sqs.SendMessageOutput, error)
	ReceiveMessage(ctx context.Context, params *sqs.ReceiveMessageInput, optFns ...func(*sqs.Options)) (*sqs.ReceiveMessageOutput, error)
	DeleteMessage(ctx context.Context, params *sqs.DeleteMessageInput, optFns ...func(*sqs.Options)) (*sqs.DeleteMessageOutput, error)
}

// Queue is one SQS queue. It serves as a completion notifier and as the
// batch source for the poller.
type Queue struct {
	client sqsAPI
	url    string
}

func NewSQSClient(awsCfg aws.Config, endpoint string) *sqs.Client {
	return sqs.NewFromConfig(awsCfg, func(o *sqs.Options) {
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
		}
	})
}

func NewQueue(client sqsAPI, url string) *Queue {
	return &Queue{client: client, url: url}
}

func (q *Queue) Destination() string { return q.url }

// Send publishes body as a single message.
func (q *Queue) Send(ctx context.Context, body string) error {
	_, err := q.client.SendMessage(ctx, &sqs.SendMessageInput{
		QueueUrl:    aws.String(q.url),
		MessageBody: aws.String(body),
	})
	if err != nil {
		return fmt.Errorf("failed to send message to %s: %w", q.url, err)
	}
	return nil
}

// Receive long-polls for up to maxMessages and returns them as a batch.
func (q *Queue) Receive(ctx context.Context, maxMessages, waitSeconds int) (models.QueueBatch, error) {
	out, err := q.client.ReceiveMessage(ctx, &sqs.ReceiveMessageInput{
		QueueUrl:            aws.String(q.url),
		MaxNumberOfMessages: int32(maxMessages),
		WaitTimeSeconds:     int32(waitSeconds),
	})
	if err != nil {
		return models.QueueBatch{}, fmt.Errorf("failed to receive messages from %s: %w", q.url, err)
	}
	return toBatch(out.Messages), nil
}

// Delete acknowledges one message.
func (q *Queue) Delete(ctx context.Context, receiptHandle string) error {
	_, err := q.client.DeleteMessage(ctx, &sqs.DeleteMessageInput{
		QueueUrl:      aws.String(q.url),
		ReceiptHandle: aws.String(receiptHandle),
	})
	if err != nil {
		return fmt.Errorf("failed to delete message from %s: %w", q.url, err)
	}
	return nil
}

func toBatch(msgs []types.Message) models.QueueBatch {
	batch := models.QueueBatch{Records: make([]models.QueueMessage, 0, len(msgs))}
	for _, m := range msgs {
		batch.Records = append(batch.Records, models.QueueMessage{
			MessageID:     aws.ToString(m.MessageId),
			ReceiptHandle: aws.ToString(m.ReceiptHandle),
			Body:          aws.ToString(m.Body),
			EventSource:   "aws:sqs",
		})
	}
	return batch
}
