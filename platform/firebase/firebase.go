// Package firebase initializes the Firebase app shared by the Firestore
// store and Cloud Messaging.
package firebase

import (
	"context"
	"fmt"

	firebase "firebase.google.com/go/v4"
	"google.golang.org/api/option"

	"kazi_backend/platform/config"
)

// NewApp creates a Firebase app for the configured project. Without a
// credentials file the application default credentials are used.
func NewApp(ctx context.Context, cfg config.FirebaseConfig) (*firebase.App, error) {
	var opts []option.ClientOption
	if file := cfg.GetFirebaseCredentialsFile(); file != "" {
		opts = append(opts, option.WithCredentialsFile(file))
	}

	app, err := firebase.NewApp(ctx, &firebase.Config{ProjectID: cfg.GetFirebaseProjectID()}, opts...)
	if err != nil {
		return nil, fmt.Errorf("firebase: initialize app: %w", err)
	}
	return app, nil
}
