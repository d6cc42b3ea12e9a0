// Package email sends contact-form notifications through SES. One
// outbound call per submission, no retries.
package email

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"
	"github.com/sirupsen/logrus"

	"github.com/medflowai/medflow-api/internal/domain"
)

// ContactMessage is a contact-form submission
type ContactMessage struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Subject string `json:"subject"`
	Message string `json:"message"`
}

// Sender delivers a contact message and returns the provider's
// message id.
type Sender interface {
	Send(ctx context.Context, msg ContactMessage) (string, error)
}

// SESAPI is the slice of the SES client the sender uses. *ses.Client
// satisfies it; tests substitute a fake.
type SESAPI interface {
	SendEmail(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error)
}

// SESSender sends contact notifications to a fixed recipient with the
// submitter's address as reply-to.
type SESSender struct {
	client    SESAPI
	source    string
	recipient string
	log       *logrus.Logger
}

// NewSESSender creates a sender over an existing SES client
func NewSESSender(client SESAPI, cfg domain.EmailConfig, logger *logrus.Logger) *SESSender {
	return &SESSender{
		client:    client,
		source:    cfg.Source,
		recipient: cfg.Recipient,
		log:       logger,
	}
}

// NewSESClient creates an SES client for the configured region
func NewSESClient(ctx context.Context, cfg domain.EmailConfig) (*ses.Client, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.Region))
	if err != nil {
		return nil, fmt.Errorf("loading AWS config: %w", err)
	}
	return ses.NewFromConfig(awsCfg), nil
}

// Send validates the submission and performs the single SES call
func (s *SESSender) Send(ctx context.Context, msg ContactMessage) (string, error) {
	var missing []string
	if msg.Name == "" {
		missing = append(missing, "name")
	}
	if msg.Email == "" {
		missing = append(missing, "email")
	}
	if msg.Subject == "" {
		missing = append(missing, "subject")
	}
	if msg.Message == "" {
		missing = append(missing, "message")
	}
	if len(missing) > 0 {
		return "", domain.NewValidationError(missing...)
	}

	subject := fmt.Sprintf("You've received a new contact form submission from MedFlowAI User: %s", msg.Subject)
	body := fmt.Sprintf("Name: %s\nEmail: %s\n\n%s", msg.Name, msg.Email, msg.Message)

	out, err := s.client.SendEmail(ctx, &ses.SendEmailInput{
		Source: aws.String(s.source),
		Destination: &types.Destination{
			ToAddresses: []string{s.recipient},
		},
		Message: &types.Message{
			Subject: &types.Content{Data: aws.String(subject)},
			Body: &types.Body{
				Text: &types.Content{Data: aws.String(body)},
			},
		},
		ReplyToAddresses: []string{msg.Email},
	})
	if err != nil {
		s.log.WithFields(logrus.Fields{"error": err}).Error("Failed to send contact email")
		return "", fmt.Errorf("sending contact email: %w", err)
	}

	s.log.WithFields(logrus.Fields{
		"message_id": aws.ToString(out.MessageId),
	}).Info("Contact email sent")

	return aws.ToString(out.MessageId), nil
}
