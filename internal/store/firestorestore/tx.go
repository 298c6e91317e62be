package firestorestore

import (
	"context"
	"fmt"

	"kazi_backend/internal/domain"
	"kazi_backend/internal/store"

	"cloud.google.com/go/firestore"
	"github.com/google/uuid"
)

// txView implements store.Tx over one Firestore transaction. Writes are
// buffered until commit, so a read after a write sees the old document.
type txView struct {
	client *firestore.Client
	tx     *firestore.Transaction
}

func (v *txView) doc(collection, id string) *firestore.DocumentRef {
	return v.client.Collection(collection).Doc(id)
}

func (v *txView) GetJob(_ context.Context, id uuid.UUID) (domain.Job, error) {
	snap, err := v.tx.Get(v.doc(store.CollectionJobs, id.String()))
	if err != nil {
		return domain.Job{}, mapError(fmt.Errorf("get job: %w", err))
	}
	return decodeJob(snap)
}

func (v *txView) GetQuote(_ context.Context, id uuid.UUID) (domain.Quote, error) {
	snap, err := v.tx.Get(v.doc(store.CollectionQuotes, id.String()))
	if err != nil {
		return domain.Quote{}, mapError(fmt.Errorf("get quote: %w", err))
	}
	return decodeQuote(snap)
}

func (v *txView) GetProviderProfile(_ context.Context, providerID uuid.UUID) (domain.ProviderProfile, error) {
	snap, err := v.tx.Get(v.doc(store.CollectionProviderProfiles, providerID.String()))
	if err != nil {
		return domain.ProviderProfile{}, mapError(fmt.Errorf("get provider profile: %w", err))
	}
	return decodeProfile(snap)
}

func (v *txView) FindReview(_ context.Context, jobID, clientID uuid.UUID) (domain.Review, error) {
	guard, err := v.tx.Get(v.doc(collectionReviewGuards, reviewGuardID(jobID, clientID)))
	if err != nil {
		return domain.Review{}, mapError(fmt.Errorf("get review guard: %w", err))
	}
	var g reviewGuard
	if err := guard.DataTo(&g); err != nil {
		return domain.Review{}, fmt.Errorf("decode review guard: %w", err)
	}
	snap, err := v.tx.Get(v.doc(store.CollectionReviews, g.ReviewID))
	if err != nil {
		return domain.Review{}, mapError(fmt.Errorf("get review: %w", err))
	}
	return decodeReview(snap)
}

func (v *txView) CreateJob(_ context.Context, job domain.Job) error {
	return mapError(v.tx.Create(v.doc(store.CollectionJobs, job.ID.String()), toJobDoc(job)))
}

func (v *txView) UpdateJob(_ context.Context, job domain.Job) error {
	d := toJobDoc(job)
	return mapError(v.tx.Update(v.doc(store.CollectionJobs, job.ID.String()), []firestore.Update{
		{Path: "title", Value: d.Title},
		{Path: "description", Value: d.Description},
		{Path: "category", Value: d.Category},
		{Path: "location", Value: d.Location},
		{Path: "budgetCents", Value: d.BudgetCents},
		{Path: "currency", Value: d.Currency},
		{Path: "status", Value: d.Status},
		{Path: "assignedProviderId", Value: d.AssignedProviderID},
		{Path: "acceptedQuoteId", Value: d.AcceptedQuoteID},
		{Path: "updatedAt", Value: d.UpdatedAt},
	}))
}

func (v *txView) CreateQuote(_ context.Context, quote domain.Quote) error {
	return mapError(v.tx.Create(v.doc(store.CollectionQuotes, quote.ID.String()), toQuoteDoc(quote)))
}

func (v *txView) UpdateQuote(_ context.Context, quote domain.Quote) error {
	d := toQuoteDoc(quote)
	return mapError(v.tx.Update(v.doc(store.CollectionQuotes, quote.ID.String()), []firestore.Update{
		{Path: "amountCents", Value: d.AmountCents},
		{Path: "currency", Value: d.Currency},
		{Path: "message", Value: d.Message},
		{Path: "status", Value: d.Status},
		{Path: "updatedAt", Value: d.UpdatedAt},
	}))
}

func (v *txView) IncrementQuotesReceived(_ context.Context, jobID uuid.UUID) error {
	return mapError(v.tx.Update(v.doc(store.CollectionJobs, jobID.String()), []firestore.Update{
		{Path: "quotesReceived", Value: firestore.Increment(1)},
	}))
}

func (v *txView) CreateReview(_ context.Context, review domain.Review) error {
	guard := v.doc(collectionReviewGuards, reviewGuardID(review.JobID, review.ClientID))
	if err := v.tx.Create(guard, reviewGuard{ReviewID: review.ID.String()}); err != nil {
		return mapError(err)
	}
	return mapError(v.tx.Create(v.doc(store.CollectionReviews, review.ID.String()), toReviewDoc(review)))
}

func (v *txView) SetProviderAggregate(_ context.Context, providerID uuid.UUID, agg domain.ProviderAggregate) error {
	return mapError(v.tx.Update(v.doc(store.CollectionProviderProfiles, providerID.String()), []firestore.Update{
		{Path: "rating", Value: agg.Rating},
		{Path: "reviewsCount", Value: agg.ReviewsCount},
		{Path: "updatedAt", Value: firestore.ServerTimestamp},
	}))
}

func decodeJob(snap *firestore.DocumentSnapshot) (domain.Job, error) {
	var d jobDoc
	if err := snap.DataTo(&d); err != nil {
		return domain.Job{}, fmt.Errorf("decode job %s: %w", snap.Ref.ID, err)
	}
	return d.toDomain(snap.Ref.ID), nil
}

func decodeQuote(snap *firestore.DocumentSnapshot) (domain.Quote, error) {
	var d quoteDoc
	if err := snap.DataTo(&d); err != nil {
		return domain.Quote{}, fmt.Errorf("decode quote %s: %w", snap.Ref.ID, err)
	}
	return d.toDomain(snap.Ref.ID), nil
}

func decodeReview(snap *firestore.DocumentSnapshot) (domain.Review, error) {
	var d reviewDoc
	if err := snap.DataTo(&d); err != nil {
		return domain.Review{}, fmt.Errorf("decode review %s: %w", snap.Ref.ID, err)
	}
	return d.toDomain(snap.Ref.ID), nil
}

func decodeProfile(snap *firestore.DocumentSnapshot) (domain.ProviderProfile, error) {
	var d profileDoc
	if err := snap.DataTo(&d); err != nil {
		return domain.ProviderProfile{}, fmt.Errorf("decode provider profile %s: %w", snap.Ref.ID, err)
	}
	return d.toDomain(snap.Ref.ID), nil
}
