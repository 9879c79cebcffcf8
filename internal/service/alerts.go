package service

import (
	"context"
	"fmt"
	"log"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"
)

// AlertMailer sends operational alert emails via Amazon SES. It exists
// for the scheduled jobs: a failed puzzle generation or a forced
// duplicate acceptance should page a human without failing the run.
type AlertMailer struct {
	client    *sesv2.Client
	fromEmail string
	toEmail   string
	enabled   bool
	debug     bool
}

// NewAlertMailer creates the mailer. When the from or to address is
// missing the mailer is disabled and every send becomes a logged no-op.
func NewAlertMailer(ctx context.Context, awsRegion, fromEmail, toEmail string, debug bool) (*AlertMailer, error) {
	if fromEmail == "" || toEmail == "" {
		log.Println("Alert mailer disabled: ALERT_FROM_EMAIL / ALERT_TO_EMAIL not configured")
		return &AlertMailer{enabled: false, debug: debug}, nil
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(awsRegion))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	log.Printf("Alert mailer enabled: from=%s, to=%s, region=%s", fromEmail, toEmail, awsRegion)
	return &AlertMailer{
		client:    sesv2.NewFromConfig(cfg),
		fromEmail: fromEmail,
		toEmail:   toEmail,
		enabled:   true,
		debug:     debug,
	}, nil
}

// IsEnabled returns whether alerts will actually be sent.
func (m *AlertMailer) IsEnabled() bool {
	return m.enabled
}

// GenerationFailed alerts that no valid puzzle could be produced for
// the date.
func (m *AlertMailer) GenerationFailed(ctx context.Context, date string, cause error) error {
	subject := fmt.Sprintf("WordWebs: puzzle generation FAILED for %s", date)
	body := fmt.Sprintf("Daily puzzle generation for %s failed and no puzzle was stored.\n\nError: %v\n\nPlayers will see no puzzle until one is generated manually.", date, cause)
	return m.send(ctx, subject, body)
}

// DuplicateAccepted alerts that the generator exhausted its retry
// budget and stored a puzzle containing a previously used group.
func (m *AlertMailer) DuplicateAccepted(ctx context.Context, date string, attempts int) error {
	subject := fmt.Sprintf("WordWebs: duplicate group accepted for %s", date)
	body := fmt.Sprintf("Puzzle generation for %s accepted a candidate containing a previously used group after %d attempts.\n\nThe puzzle is live; review it and replace manually if needed.", date, attempts)
	return m.send(ctx, subject, body)
}

func (m *AlertMailer) send(ctx context.Context, subject, body string) error {
	if !m.enabled {
		log.Printf("Skipping alert (mailer disabled): %s", subject)
		return nil
	}
	if m.debug {
		log.Printf("[DEBUG] Sending alert: to=%s, subject=%s", m.toEmail, subject)
	}

	input := &sesv2.SendEmailInput{
		FromEmailAddress: aws.String(m.fromEmail),
		Destination: &types.Destination{
			ToAddresses: []string{m.toEmail},
		},
		Content: &types.EmailContent{
			Simple: &types.Message{
				Subject: &types.Content{
					Data:    aws.String(subject),
					Charset: aws.String("UTF-8"),
				},
				Body: &types.Body{
					Text: &types.Content{
						Data:    aws.String(body),
						Charset: aws.String("UTF-8"),
					},
				},
			},
		},
	}

	if _, err := m.client.SendEmail(ctx, input); err != nil {
		return fmt.Errorf("failed to send alert email: %w", err)
	}
	log.Printf("Alert sent: %s", subject)
	return nil
}
