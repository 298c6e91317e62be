// Package mongostore implements the store gateway on MongoDB. Transactions
// run in a session with snapshot reads and majority writes; the driver
// retries transient transaction errors itself before the conflict reaches
// the caller.
package mongostore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"kazi_backend/internal/domain"
	"kazi_backend/internal/store"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readconcern"
	"go.mongodb.org/mongo-driver/mongo/writeconcern"
)

const (
	writeConflictCode = 112
	transientTxnLabel = "TransientTransactionError"
)

// Store is the MongoDB gateway.
type Store struct {
	client *mongo.Client
	view
}

// New creates a gateway over the named database.
func New(client *mongo.Client, database string) *Store {
	return &Store{client: client, view: view{db: client.Database(database)}}
}

// Connect dials uri and verifies the deployment answers.
func Connect(ctx context.Context, uri string) (*mongo.Client, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping mongo: %w", err)
	}
	return client, nil
}

// EnsureIndexes creates the indexes the gateway relies on for uniqueness
// and list queries.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	indexes := map[string][]mongo.IndexModel{
		store.CollectionJobs: {
			{Keys: bson.D{{Key: "clientId", Value: 1}, {Key: "postedAt", Value: -1}}},
		},
		store.CollectionQuotes: {
			{Keys: bson.D{{Key: "jobId", Value: 1}, {Key: "createdAt", Value: 1}}},
			{
				Keys: bson.D{{Key: "jobId", Value: 1}},
				Options: options.Index().
					SetName("one_accepted_quote_per_job").
					SetUnique(true).
					SetPartialFilterExpression(bson.M{"status": string(domain.QuoteAccepted)}),
			},
		},
		store.CollectionReviews: {
			{
				Keys:    bson.D{{Key: "jobId", Value: 1}, {Key: "clientId", Value: 1}},
				Options: options.Index().SetName("one_review_per_job_client").SetUnique(true),
			},
			{Keys: bson.D{{Key: "providerId", Value: 1}, {Key: "reviewDate", Value: -1}}},
		},
	}
	for coll, models := range indexes {
		if _, err := s.db.Collection(coll).Indexes().CreateMany(ctx, models); err != nil {
			return fmt.Errorf("failed to create %s indexes: %w", coll, err)
		}
	}
	return nil
}

// RunTransaction runs fn inside a session transaction. fn receives the
// session context and must pass it to every tx call.
func (s *Store) RunTransaction(ctx context.Context, fn func(ctx context.Context, tx store.Tx) error) error {
	session, err := s.client.StartSession()
	if err != nil {
		return fmt.Errorf("start session: %w", err)
	}
	defer session.EndSession(ctx)

	opts := options.Transaction().
		SetReadConcern(readconcern.Snapshot()).
		SetWriteConcern(writeconcern.Majority())

	_, err = session.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		return nil, fn(sc, s.view)
	}, opts)
	return mapError(err)
}

func (s *Store) CreateProviderProfile(ctx context.Context, p domain.ProviderProfile) error {
	_, err := s.collection(store.CollectionProviderProfiles).InsertOne(ctx, toProfileDoc(p))
	if err != nil {
		return mapError(fmt.Errorf("insert provider profile: %w", err))
	}
	return nil
}

func (s *Store) ListJobsByClient(ctx context.Context, clientID uuid.UUID) ([]domain.Job, error) {
	opts := options.Find().SetSort(bson.D{{Key: "postedAt", Value: -1}})
	var docs []jobDoc
	if err := s.find(ctx, store.CollectionJobs, bson.M{"clientId": clientID.String()}, opts, &docs); err != nil {
		return nil, err
	}
	out := make([]domain.Job, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.toDomain())
	}
	return out, nil
}

func (s *Store) ListQuotesByJob(ctx context.Context, jobID uuid.UUID) ([]domain.Quote, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}})
	var docs []quoteDoc
	if err := s.find(ctx, store.CollectionQuotes, bson.M{"jobId": jobID.String()}, opts, &docs); err != nil {
		return nil, err
	}
	out := make([]domain.Quote, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.toDomain())
	}
	return out, nil
}

func (s *Store) ListReviewsByProvider(ctx context.Context, providerID uuid.UUID) ([]domain.Review, error) {
	opts := options.Find().SetSort(bson.D{{Key: "reviewDate", Value: -1}})
	var docs []reviewDoc
	if err := s.find(ctx, store.CollectionReviews, bson.M{"providerId": providerID.String()}, opts, &docs); err != nil {
		return nil, err
	}
	out := make([]domain.Review, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.toDomain())
	}
	return out, nil
}

func (s *Store) find(ctx context.Context, coll string, filter bson.M, opts *options.FindOptions, out interface{}) error {
	cursor, err := s.collection(coll).Find(ctx, filter, opts)
	if err != nil {
		return mapError(fmt.Errorf("find %s: %w", coll, err))
	}
	if err := cursor.All(ctx, out); err != nil {
		return mapError(fmt.Errorf("decode %s: %w", coll, err))
	}
	return nil
}

// mapError translates driver errors into store sentinels.
func mapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, mongo.ErrNoDocuments) {
		return fmt.Errorf("%w: %w", store.ErrNotFound, err)
	}
	if mongo.IsDuplicateKeyError(err) {
		return fmt.Errorf("%w: %w", store.ErrDuplicate, err)
	}
	var serverErr mongo.ServerError
	if errors.As(err, &serverErr) {
		if serverErr.HasErrorCode(writeConflictCode) || serverErr.HasErrorLabel(transientTxnLabel) {
			return fmt.Errorf("%w: %w", store.ErrConflict, err)
		}
	}
	return err
}

var _ store.Gateway = (*Store)(nil)
