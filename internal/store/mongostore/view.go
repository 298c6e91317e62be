package mongostore

import (
	"context"
	"fmt"

	"kazi_backend/internal/domain"
	"kazi_backend/internal/store"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// view implements store.Tx. Inside RunTransaction the ctx it receives is a
// mongo.SessionContext, which binds every call to the transaction.
type view struct {
	db *mongo.Database
}

func (v view) collection(name string) *mongo.Collection {
	return v.db.Collection(name)
}

func (v view) GetJob(ctx context.Context, id uuid.UUID) (domain.Job, error) {
	var d jobDoc
	if err := v.findOne(ctx, store.CollectionJobs, bson.M{"_id": id.String()}, &d); err != nil {
		return domain.Job{}, err
	}
	return d.toDomain(), nil
}

func (v view) GetQuote(ctx context.Context, id uuid.UUID) (domain.Quote, error) {
	var d quoteDoc
	if err := v.findOne(ctx, store.CollectionQuotes, bson.M{"_id": id.String()}, &d); err != nil {
		return domain.Quote{}, err
	}
	return d.toDomain(), nil
}

func (v view) GetProviderProfile(ctx context.Context, providerID uuid.UUID) (domain.ProviderProfile, error) {
	var d profileDoc
	if err := v.findOne(ctx, store.CollectionProviderProfiles, bson.M{"_id": providerID.String()}, &d); err != nil {
		return domain.ProviderProfile{}, err
	}
	return d.toDomain(), nil
}

func (v view) FindReview(ctx context.Context, jobID, clientID uuid.UUID) (domain.Review, error) {
	var d reviewDoc
	filter := bson.M{"jobId": jobID.String(), "clientId": clientID.String()}
	if err := v.findOne(ctx, store.CollectionReviews, filter, &d); err != nil {
		return domain.Review{}, err
	}
	return d.toDomain(), nil
}

func (v view) CreateJob(ctx context.Context, job domain.Job) error {
	return v.insert(ctx, store.CollectionJobs, toJobDoc(job))
}

func (v view) UpdateJob(ctx context.Context, job domain.Job) error {
	d := toJobDoc(job)
	update := bson.M{"$set": bson.M{
		"title":              d.Title,
		"description":        d.Description,
		"category":           d.Category,
		"location":           d.Location,
		"budgetCents":        d.BudgetCents,
		"currency":           d.Currency,
		"status":             d.Status,
		"assignedProviderId": d.AssignedProviderID,
		"acceptedQuoteId":    d.AcceptedQuoteID,
		"updatedAt":          d.UpdatedAt,
	}}
	return v.updateOne(ctx, store.CollectionJobs, d.ID, update)
}

func (v view) CreateQuote(ctx context.Context, quote domain.Quote) error {
	return v.insert(ctx, store.CollectionQuotes, toQuoteDoc(quote))
}

func (v view) UpdateQuote(ctx context.Context, quote domain.Quote) error {
	d := toQuoteDoc(quote)
	update := bson.M{"$set": bson.M{
		"amountCents": d.AmountCents,
		"currency":    d.Currency,
		"message":     d.Message,
		"status":      d.Status,
		"updatedAt":   d.UpdatedAt,
	}}
	return v.updateOne(ctx, store.CollectionQuotes, d.ID, update)
}

func (v view) IncrementQuotesReceived(ctx context.Context, jobID uuid.UUID) error {
	return v.updateOne(ctx, store.CollectionJobs, jobID.String(), bson.M{"$inc": bson.M{"quotesReceived": 1}})
}

func (v view) CreateReview(ctx context.Context, review domain.Review) error {
	return v.insert(ctx, store.CollectionReviews, toReviewDoc(review))
}

func (v view) SetProviderAggregate(ctx context.Context, providerID uuid.UUID, agg domain.ProviderAggregate) error {
	update := bson.M{
		"$set":         bson.M{"rating": agg.Rating, "reviewsCount": agg.ReviewsCount},
		"$currentDate": bson.M{"updatedAt": true},
	}
	return v.updateOne(ctx, store.CollectionProviderProfiles, providerID.String(), update)
}

func (v view) findOne(ctx context.Context, coll string, filter bson.M, out interface{}) error {
	if err := v.collection(coll).FindOne(ctx, filter).Decode(out); err != nil {
		return mapError(fmt.Errorf("find %s: %w", coll, err))
	}
	return nil
}

func (v view) insert(ctx context.Context, coll string, doc interface{}) error {
	if _, err := v.collection(coll).InsertOne(ctx, doc); err != nil {
		return mapError(fmt.Errorf("insert %s: %w", coll, err))
	}
	return nil
}

func (v view) updateOne(ctx context.Context, coll, id string, update bson.M) error {
	res, err := v.collection(coll).UpdateOne(ctx, bson.M{"_id": id}, update)
	if err != nil {
		return mapError(fmt.Errorf("update %s: %w", coll, err))
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("update %s %s: %w", coll, id, store.ErrNotFound)
	}
	return nil
}
