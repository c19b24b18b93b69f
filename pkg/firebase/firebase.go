package firebase

import (
	"context"
	"errors"
	"fmt"
	"os"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/auth"
	"go.uber.org/zap"
	"google.golang.org/api/option"
)

// ErrNoCredentials is returned when sign-in with Firebase is requested without a service account
var ErrNoCredentials = errors.New("firebase credentials path not provided")

// NewAuthClient builds the Firebase Admin auth client used to verify client ID tokens.
// The service account file is checked up front so a bad path fails at startup.
func NewAuthClient(ctx context.Context, credentialsPath string, logger *zap.Logger) (*auth.Client, error) {
	if credentialsPath == "" {
		return nil, ErrNoCredentials
	}
	info, err := os.Stat(credentialsPath)
	if err != nil {
		return nil, fmt.Errorf("firebase credentials file %s: %w", credentialsPath, err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("firebase credentials path %s is a directory", credentialsPath)
	}

	app, err := firebase.NewApp(ctx, nil, option.WithCredentialsFile(credentialsPath))
	if err != nil {
		return nil, fmt.Errorf("initialize firebase app: %w", err)
	}
	client, err := app.Auth(ctx)
	if err != nil {
		return nil, fmt.Errorf("create firebase auth client: %w", err)
	}

	logger.Info("firebase auth client ready", zap.String("credentials", credentialsPath))
	return client, nil
}
