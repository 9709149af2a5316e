package sns

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/aws/aws-sdk-go-v2/service/sns/types"
)

type publisher interface {
	Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

// EmailPublisher hands outbound email to an SNS topic; a subscriber on the
// topic does the actual delivery. The recipient travels as a message attribute.
type EmailPublisher struct {
	client   publisher
	topicARN string
}

func NewEmailPublisher(awsCfg aws.Config, topicARN string) (*EmailPublisher, error) {
	if topicARN == "" {
		return nil, fmt.Errorf("SNS_TOPIC_ARN is required for the sns notifier")
	}
	return &EmailPublisher{client: sns.NewFromConfig(awsCfg), topicARN: topicARN}, nil
}

func (p *EmailPublisher) Send(ctx context.Context, to, subject, body string) error {
	_, err := p.client.Publish(ctx, &sns.PublishInput{
		TopicArn: aws.String(p.topicARN),
		Subject:  aws.String(subject),
		Message:  aws.String(body),
		MessageAttributes: map[string]types.MessageAttributeValue{
			"to": {DataType: aws.String("String"), StringValue: aws.String(to)},
		},
	})
	if err != nil {
		return fmt.Errorf("sns publish: %w", err)
	}
	return nil
}
