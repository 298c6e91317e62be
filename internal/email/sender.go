// Package email renders and delivers the marketplace's transactional emails.
package email

import (
	"context"

	"kazi_backend/platform/config"
)

// Sender delivers the lifecycle emails.
type Sender interface {
	SendQuoteAcceptedEmail(ctx context.Context, toEmail, providerName, jobTitle string, amountCents int64, currency, chatURL string) error
	SendReviewReceivedEmail(ctx context.Context, toEmail, providerName, jobTitle string, rating float64, comment string) error
}

type NoopSender struct{}

func (NoopSender) SendQuoteAcceptedEmail(context.Context, string, string, string, int64, string, string) error {
	return nil
}

func (NoopSender) SendReviewReceivedEmail(context.Context, string, string, string, float64, string) error {
	return nil
}

// NewSender picks the Brevo API when a key is configured, SMTP otherwise,
// and a no-op sender when email is disabled.
func NewSender(cfg config.EmailConfig) (Sender, error) {
	if !cfg.GetEmailEnabled() {
		return NoopSender{}, nil
	}
	if cfg.GetBrevoAPIKey() != "" {
		return NewBrevoSender(cfg.GetBrevoAPIKey(), cfg.GetEmailFromAddress(), cfg.GetEmailFromName()), nil
	}
	return NewSMTPSender(
		cfg.GetSMTPHost(),
		cfg.GetSMTPPort(),
		cfg.GetSMTPUsername(),
		cfg.GetSMTPPassword(),
		cfg.GetEmailFromAddress(),
		cfg.GetEmailFromName(),
	), nil
}

type message struct {
	subject string
	html    string
}

func composeQuoteAccepted(providerName, jobTitle string, amountCents int64, currency, chatURL string) (message, error) {
	content, err := renderEmailTemplate("quote_accepted.html", quoteAcceptedEmailData{
		baseEmailData: baseEmailData{
			Title:    "Your quote was accepted",
			Heading:  "Your quote was accepted",
			CTALabel: "Open chat",
			CTAURL:   chatURL,
		},
		ProviderName:    providerName,
		JobTitle:        jobTitle,
		AmountFormatted: formatAmount(amountCents, currency),
	})
	if err != nil {
		return message{}, err
	}
	return message{subject: subjectFor(subjectQuoteAcceptedFmt, jobTitle), html: content}, nil
}

func composeReviewReceived(providerName, jobTitle string, rating float64, comment string) (message, error) {
	content, err := renderEmailTemplate("review_received.html", reviewReceivedEmailData{
		baseEmailData: baseEmailData{
			Title:   "You received a review",
			Heading: "You received a review",
		},
		ProviderName:    providerName,
		JobTitle:        jobTitle,
		RatingFormatted: formatRating(rating),
		Comment:         comment,
	})
	if err != nil {
		return message{}, err
	}
	return message{subject: subjectFor(subjectReviewReceivedFmt, jobTitle), html: content}, nil
}
