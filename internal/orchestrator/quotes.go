package orchestrator

import (
	"context"
	"fmt"

	"kazi_backend/internal/domain"
	quotesvc "kazi_backend/internal/quotes/service"
	"kazi_backend/internal/sideeffect"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

const (
	opSubmitQuote = "submit_quote"
	opAcceptQuote = "accept_quote"
	opRejectQuote = "reject_quote"
)

// SubmitQuote records a provider's quote and tells the job's client.
func (o *Orchestrator) SubmitQuote(ctx context.Context, p quotesvc.SubmitParams) (domain.Quote, error) {
	res, err := retry(ctx, o, opSubmitQuote, func(ctx context.Context) (quotesvc.SubmitResult, error) {
		return o.quotes.Submit(ctx, p)
	})
	if err != nil {
		return domain.Quote{}, err
	}

	o.effects.Notify(ctx, sideeffect.Notification{
		UserID:          res.Job.ClientID,
		Type:            sideeffect.TypeQuoteReceived,
		Message:         fmt.Sprintf("New quote of %s for %q", formatAmount(res.Quote.AmountCents, res.Quote.Currency), res.Job.Title),
		RelatedEntityID: res.Job.ID,
		Link:            o.link("/jobs/" + res.Job.ID.String()),
	})
	return res.Quote, nil
}

// AcceptResult is what a client sees after accepting a quote. ChatID is
// empty when chat provisioning failed and was queued for replay.
type AcceptResult struct {
	Quote  domain.Quote
	Job    domain.Job
	ChatID string
}

// AcceptQuote accepts a quote and assigns its job atomically, then opens the
// client/provider chat and notifies both parties. Nothing after the commit
// can fail the call.
func (o *Orchestrator) AcceptQuote(ctx context.Context, jobID, quoteID, actingClientID uuid.UUID) (AcceptResult, error) {
	res, err := retry(ctx, o, opAcceptQuote, func(ctx context.Context) (quotesvc.AcceptResult, error) {
		return o.quotes.Accept(ctx, jobID, quoteID, actingClientID)
	})
	if err != nil {
		return AcceptResult{}, err
	}

	job, quote := res.Job, res.Quote
	chatID := o.effects.ProvisionChat(ctx, sideeffect.ChatRequest{
		UserA: job.ClientID,
		UserB: quote.ProviderID,
		JobID: job.ID,
	})

	chatLink := o.link("/jobs/" + job.ID.String())
	if chatID != "" {
		chatLink = o.link("/chats/" + chatID)
	}

	var g errgroup.Group
	g.Go(func() error {
		o.effects.Notify(ctx, sideeffect.Notification{
			UserID:          quote.ProviderID,
			Type:            sideeffect.TypeQuoteAccepted,
			Message:         fmt.Sprintf("Your quote for %q was accepted", job.Title),
			RelatedEntityID: job.ID,
			Link:            chatLink,
		})
		return nil
	})
	g.Go(func() error {
		o.effects.Notify(ctx, sideeffect.Notification{
			UserID:          job.ClientID,
			Type:            sideeffect.TypeJobAssigned,
			Message:         fmt.Sprintf("%q is now assigned", job.Title),
			RelatedEntityID: job.ID,
			Link:            chatLink,
		})
		return nil
	})
	g.Go(func() error {
		o.emailProvider(ctx, quote.ProviderID, func(profile domain.ProviderProfile) sideeffect.EmailMessage {
			return sideeffect.EmailMessage{
				Template:     sideeffect.TemplateQuoteAccepted,
				To:           profile.Email,
				ProviderName: profile.DisplayName,
				JobTitle:     job.Title,
				AmountCents:  quote.AmountCents,
				Currency:     quote.Currency,
				Link:         chatLink,
			}
		})
		return nil
	})
	_ = g.Wait()

	return AcceptResult{Quote: quote, Job: job, ChatID: chatID}, nil
}

// RejectQuote rejects a pending quote and tells its provider.
func (o *Orchestrator) RejectQuote(ctx context.Context, quoteID, actingClientID uuid.UUID) (domain.Quote, error) {
	quote, err := retry(ctx, o, opRejectQuote, func(ctx context.Context) (domain.Quote, error) {
		return o.quotes.Reject(ctx, quoteID, actingClientID)
	})
	if err != nil {
		return domain.Quote{}, err
	}

	o.effects.Notify(ctx, sideeffect.Notification{
		UserID:          quote.ProviderID,
		Type:            sideeffect.TypeQuoteRejected,
		Message:         "A client declined your quote",
		RelatedEntityID: quote.JobID,
		Link:            o.link("/jobs/" + quote.JobID.String()),
	})
	return quote, nil
}

// emailProvider looks up the provider's contact details and sends the
// message build returns. A failed lookup is logged like any other failed
// side effect.
func (o *Orchestrator) emailProvider(ctx context.Context, providerID uuid.UUID, build func(domain.ProviderProfile) sideeffect.EmailMessage) {
	profile, err := o.providers.Get(ctx, providerID)
	if err != nil {
		o.log.WithContext(ctx).SideEffectFailed(string(sideeffect.KindEmail), err, "providerId", providerID.String())
		o.metrics.SideEffectFailed(string(sideeffect.KindEmail))
		return
	}
	o.effects.SendEmail(ctx, build(profile))
}

func formatAmount(cents int64, currency string) string {
	return fmt.Sprintf("%s %d.%02d", currency, cents/100, cents%100)
}
