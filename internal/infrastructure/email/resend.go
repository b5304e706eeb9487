package email

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/resend/resend-go/v2"

	"SolarpunkList/internal/config"
	"SolarpunkList/internal/ports"
)

const maxConcurrentSends = 5

// ResendSender delivers announcement emails through the Resend API.
// Each recipient gets an individual message so one bounce never hides
// another recipient's delivery.
type ResendSender struct {
	client *resend.Client
	from   string
	logger *slog.Logger
}

var _ ports.EmailSender = (*ResendSender)(nil)

// NewResendSender builds a sender from configuration. A missing API key
// yields a sender whose batches fail per-recipient rather than panicking.
func NewResendSender(cfg config.EmailConfig, logger *slog.Logger) *ResendSender {
	if logger == nil {
		logger = slog.Default()
	}
	return &ResendSender{
		client: resend.NewClient(cfg.APIKey),
		from:   cfg.FromEmail,
		logger: logger,
	}
}

// SendBatch sends the announcement to every recipient, bounded by a
// small concurrency limit, and reports one outcome per recipient.
func (s *ResendSender) SendBatch(ctx context.Context, recipients []string, subject, html, text string) []ports.SendOutcome {
	outcomes := make([]ports.SendOutcome, len(recipients))

	var wg sync.WaitGroup
	sem := make(chan struct{}, maxConcurrentSends)

	for i, recipient := range recipients {
		wg.Add(1)
		sem <- struct{}{}
		go func(i int, recipient string) {
			defer wg.Done()
			defer func() { <-sem }()
			outcomes[i] = ports.SendOutcome{
				Recipient: recipient,
				Err:       s.sendOne(ctx, recipient, subject, html, text),
			}
		}(i, recipient)
	}
	wg.Wait()

	return outcomes
}

func (s *ResendSender) sendOne(ctx context.Context, recipient, subject, html, text string) error {
	_, err := s.client.Emails.SendWithContext(ctx, &resend.SendEmailRequest{
		From:    s.from,
		To:      []string{recipient},
		Subject: subject,
		Html:    html,
		Text:    text,
	})
	if err != nil {
		return fmt.Errorf("send to %s: %w", recipient, err)
	}
	return nil
}
