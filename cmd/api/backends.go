package main

import (
	"context"
	"fmt"

	"kazi_backend/internal/notification/push"
	"kazi_backend/internal/store"
	"kazi_backend/internal/store/firestorestore"
	"kazi_backend/internal/store/mongostore"
	"kazi_backend/internal/store/postgres"
	"kazi_backend/platform/config"
	"kazi_backend/platform/firebase"
	"kazi_backend/platform/logger"

	"firebase.google.com/go/v4/messaging"
	"github.com/jackc/pgx/v5/pgxpool"
)

// backends holds the store gateway picked by STORE_DRIVER and the optional
// FCM client, plus whatever must be closed on shutdown.
type backends struct {
	Gateway store.Gateway
	Pusher  *messaging.Client
	closers []func()
}

func (b *backends) Close() {
	for i := len(b.closers) - 1; i >= 0; i-- {
		b.closers[i]()
	}
}

func (b *backends) newPushSender(tokens push.Tokens, log *logger.Logger) *push.Sender {
	return push.NewSender(b.Pusher, tokens, log)
}

func openBackends(ctx context.Context, cfg *config.Config, pool *pgxpool.Pool, log *logger.Logger) (*backends, error) {
	b := &backends{}
	needFirebase := cfg.GetStoreDriver() == config.StoreDriverFirestore || cfg.IsFCMEnabled()

	switch cfg.GetStoreDriver() {
	case config.StoreDriverPostgres:
		b.Gateway = postgres.New(pool)
	case config.StoreDriverMongo:
		client, err := mongostore.Connect(ctx, cfg.GetMongoURI())
		if err != nil {
			return nil, err
		}
		b.closers = append(b.closers, func() { _ = client.Disconnect(context.Background()) })
		ms := mongostore.New(client, cfg.GetMongoDatabase())
		if err := ms.EnsureIndexes(ctx); err != nil {
			b.Close()
			return nil, err
		}
		b.Gateway = ms
	case config.StoreDriverFirestore:
		// opened below from the firebase app
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.GetStoreDriver())
	}

	if !needFirebase {
		return b, nil
	}

	app, err := firebase.NewApp(ctx, cfg)
	if err != nil {
		b.Close()
		return nil, err
	}
	if cfg.GetStoreDriver() == config.StoreDriverFirestore {
		fs, err := app.Firestore(ctx)
		if err != nil {
			b.Close()
			return nil, fmt.Errorf("firestore: open client: %w", err)
		}
		b.closers = append(b.closers, func() { _ = fs.Close() })
		b.Gateway = firestorestore.New(fs)
	}
	if cfg.IsFCMEnabled() {
		client, err := app.Messaging(ctx)
		if err != nil {
			log.Warn("push notifications disabled", "error", err)
		} else {
			b.Pusher = client
		}
	}
	return b, nil
}
