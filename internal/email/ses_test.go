package email

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/medflowai/medflow-api/internal/domain"
)

type fakeSES struct {
	input *ses.SendEmailInput
	err   error
}

func (f *fakeSES) SendEmail(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error) {
	f.input = params
	if f.err != nil {
		return nil, f.err
	}
	return &ses.SendEmailOutput{MessageId: aws.String("msg-1")}, nil
}

func newTestSender(fake *fakeSES) *SESSender {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return NewSESSender(fake, domain.EmailConfig{
		Source:    "medflowai.co@gmail.com",
		Recipient: "medflowai.co@gmail.com",
	}, logger)
}

func TestSESSender_Send(t *testing.T) {
	fake := &fakeSES{}
	sender := newTestSender(fake)

	id, err := sender.Send(context.Background(), ContactMessage{
		Name:    "Jane Doe",
		Email:   "jane@example.com",
		Subject: "Question",
		Message: "How are predictions stored?",
	})
	require.NoError(t, err)
	assert.Equal(t, "msg-1", id)

	require.NotNil(t, fake.input)
	assert.Equal(t, "medflowai.co@gmail.com", aws.ToString(fake.input.Source))
	assert.Equal(t, []string{"medflowai.co@gmail.com"}, fake.input.Destination.ToAddresses)
	assert.Equal(t, []string{"jane@example.com"}, fake.input.ReplyToAddresses)
	assert.Contains(t, aws.ToString(fake.input.Message.Subject.Data), "Question")
	assert.Contains(t, aws.ToString(fake.input.Message.Body.Text.Data), "Jane Doe")
}

func TestSESSender_Send_MissingFields(t *testing.T) {
	fake := &fakeSES{}
	sender := newTestSender(fake)

	_, err := sender.Send(context.Background(), ContactMessage{Name: "Jane Doe"})

	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, []string{"email", "subject", "message"}, verr.Fields)
	assert.Nil(t, fake.input, "no SES call on validation failure")
}

func TestSESSender_Send_ProviderFailure(t *testing.T) {
	fake := &fakeSES{err: errors.New("throttled")}
	sender := newTestSender(fake)

	_, err := sender.Send(context.Background(), ContactMessage{
		Name:    "Jane Doe",
		Email:   "jane@example.com",
		Subject: "Question",
		Message: "Hello",
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sending contact email")
}
