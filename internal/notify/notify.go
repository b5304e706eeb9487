package notify

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"SolarpunkList/internal/domain"
	"SolarpunkList/internal/ports"
)

const batchSize = 50

// Notifier announces newly accepted communities to subscribers in
// fixed-size batches with per-recipient failure isolation.
type Notifier struct {
	repo    ports.CommunityRepository
	sender  ports.EmailSender
	baseURL string
	logger  *slog.Logger
}

// New wires the subscriber store and sender. baseURL is the public site
// root used in profile links.
func New(repo ports.CommunityRepository, sender ports.EmailSender, baseURL string, logger *slog.Logger) *Notifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &Notifier{
		repo:    repo,
		sender:  sender,
		baseURL: strings.TrimSuffix(baseURL, "/"),
		logger:  logger,
	}
}

// Announce notifies every subscriber about one new community. A zero
// subscriber list is a no-op. Returns sent and failed counts; failures
// never propagate to the caller as an error.
func (n *Notifier) Announce(ctx context.Context, community domain.Community) (sent, failed int) {
	emails, err := n.repo.ListSubscriberEmails(ctx)
	if err != nil {
		n.logger.Error("listing subscribers failed", "error", err)
		return 0, 0
	}
	if len(emails) == 0 {
		n.logger.Debug("no subscribers to notify")
		return 0, 0
	}

	subject := fmt.Sprintf("New on SolarpunkList: %s", community.Name)
	html := announcementHTML(community, n.baseURL)
	text := announcementText(community, n.baseURL)

	for start := 0; start < len(emails); start += batchSize {
		end := start + batchSize
		if end > len(emails) {
			end = len(emails)
		}

		outcomes := n.sender.SendBatch(ctx, emails[start:end], subject, html, text)
		for _, outcome := range outcomes {
			if outcome.Err != nil {
				failed++
				n.logger.Error("announcement send failed", "recipient", outcome.Recipient, "error", outcome.Err)
				continue
			}
			sent++
		}
	}

	n.logger.Info("subscribers notified", "community", community.Name, "sent", sent, "failed", failed)
	return sent, failed
}

// AnnounceAsync fires the announcement without blocking the pipeline.
// The entity creation that triggered it is never rolled back.
func (n *Notifier) AnnounceAsync(ctx context.Context, community domain.Community) {
	go func() {
		n.Announce(context.WithoutCancel(ctx), community)
	}()
}
