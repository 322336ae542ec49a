package aws

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/aws/aws-sdk-go-v2/service/sns/types"
)

// SNSPublisher is the subset of the SNS API used here.
type SNSPublisher interface {
	Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

// SNSClient wraps the AWS SNS client.
type SNSClient struct {
	client SNSPublisher
}

// NewSNSClient loads the default AWS config for region.
func NewSNSClient(ctx context.Context, region string) (*SNSClient, error) {
	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		return nil, err
	}
	return &SNSClient{client: sns.NewFromConfig(cfg)}, nil
}

// NewSNSClientWith wraps an existing publisher.
func NewSNSClientWith(p SNSPublisher) *SNSClient {
	return &SNSClient{client: p}
}

// Publish sends one message to a topic.
func (s *SNSClient) Publish(ctx context.Context, input *sns.PublishInput) (*sns.PublishOutput, error) {
	return s.client.Publish(ctx, input)
}

// SafetyAlert is published when a product's overall rating is high risk.
type SafetyAlert struct {
	ReportID      string   `json:"reportId"`
	ProductName   string   `json:"productName,omitempty"`
	Brand         string   `json:"brand,omitempty"`
	Barcode       string   `json:"barcode,omitempty"`
	OverallRating string   `json:"overallRating"`
	AverageScore  *float64 `json:"averageScore"`
	Flagged       []string `json:"flaggedIngredients"`
}

// AlertPublisher sends safety alerts to one SNS topic.
type AlertPublisher struct {
	sns      *SNSClient
	topicARN string
}

// NewAlertPublisher publishes safety alerts to topicARN.
func NewAlertPublisher(client *SNSClient, topicARN string) *AlertPublisher {
	return &AlertPublisher{sns: client, topicARN: topicARN}
}

// PublishSafetyAlert returns the SNS message id.
func (p *AlertPublisher) PublishSafetyAlert(ctx context.Context, alert SafetyAlert) (string, error) {
	body, err := json.Marshal(alert)
	if err != nil {
		return "", fmt.Errorf("marshal safety alert: %w", err)
	}

	out, err := p.sns.Publish(ctx, &sns.PublishInput{
		TopicArn: aws.String(p.topicARN),
		Subject:  aws.String("High-risk product detected"),
		Message:  aws.String(string(body)),
		MessageAttributes: map[string]types.MessageAttributeValue{
			"overallRating": {
				DataType:    aws.String("String"),
				StringValue: aws.String(alert.OverallRating),
			},
		},
	})
	if err != nil {
		return "", fmt.Errorf("publish safety alert: %w", err)
	}
	return aws.ToString(out.MessageId), nil
}
