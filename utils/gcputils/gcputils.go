// Copyright 2025 The Rota Fácil Authors
// SPDX-License-Identifier: Apache-2.0

// Package gcputils discovers Google API keys through the Application Default
// Credentials, so a developer logged in with gcloud does not need to export
// GOOGLE_MAPS_API_KEY.
package gcputils

import (
	"context"
	"errors"
	"fmt"
	"os"

	apikeys "cloud.google.com/go/apikeys/apiv2"
	"cloud.google.com/go/apikeys/apiv2/apikeyspb"
	"github.com/rs/zerolog/log"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/iterator"
)

// DefaultKeyDisplayName is the display name of the key provisioned for the
// geocoding and vision APIs.
const DefaultKeyDisplayName = "Rota Facil Geocoding Key"

var (
	ErrNoProject   = errors.New("no Google Cloud project in credentials or GOOGLE_CLOUD_PROJECT")
	ErrKeyNotFound = errors.New("API key not found")
)

// keyStore is the subset of the API Keys service used here.
type keyStore interface {
	// listKeys returns a Next-style iterator over the keys of parent.
	listKeys(ctx context.Context, parent string) func() (*apikeyspb.Key, error)
	// keyString returns the secret of a key; listing redacts it.
	keyString(ctx context.Context, name string) (string, error)
}

type apiKeysStore struct {
	client *apikeys.Client
}

func (s *apiKeysStore) listKeys(ctx context.Context, parent string) func() (*apikeyspb.Key, error) {
	return s.client.ListKeys(ctx, &apikeyspb.ListKeysRequest{Parent: parent}).Next
}

func (s *apiKeysStore) keyString(ctx context.Context, name string) (string, error) {
	resp, err := s.client.GetKeyString(ctx, &apikeyspb.GetKeyStringRequest{Name: name})
	if err != nil {
		return "", err
	}

	return resp.GetKeyString(), nil
}

// projectID returns the project of the credentials, then GOOGLE_CLOUD_PROJECT.
// User credentials without a quota project carry none.
func projectID(ctx context.Context) (string, error) {
	creds, err := google.FindDefaultCredentials(ctx, "https://www.googleapis.com/auth/cloud-platform")
	if err != nil {
		return "", fmt.Errorf("finding default credentials: %w", err)
	}

	if creds.ProjectID != "" {
		return creds.ProjectID, nil
	}

	if p := os.Getenv("GOOGLE_CLOUD_PROJECT"); p != "" {
		log.Warn().Str("project", p).Msg("no project in credentials, using GOOGLE_CLOUD_PROJECT")

		return p, nil
	}

	return "", ErrNoProject
}

// APIKeyFromADC returns the secret of the key named displayName in the
// project of the Application Default Credentials.
func APIKeyFromADC(ctx context.Context, displayName string) (string, error) {
	project, err := projectID(ctx)
	if err != nil {
		return "", err
	}

	client, err := apikeys.NewClient(ctx)
	if err != nil {
		return "", fmt.Errorf("creating apikeys client: %w", err)
	}
	defer client.Close()

	return findKey(ctx, &apiKeysStore{client: client}, project, displayName)
}

func findKey(ctx context.Context, store keyStore, project, displayName string) (string, error) {
	next := store.listKeys(ctx, fmt.Sprintf("projects/%s/locations/global", project))

	for {
		key, err := next()
		if errors.Is(err, iterator.Done) {
			break
		}

		if err != nil {
			return "", fmt.Errorf("listing keys: %w", err)
		}

		if key.GetDisplayName() != displayName {
			continue
		}

		log.Debug().Str("key", key.GetName()).Msg("found API key, retrieving secret")

		secret, err := store.keyString(ctx, key.GetName())
		if err != nil {
			return "", fmt.Errorf("getting key string: %w", err)
		}

		if secret == "" {
			return "", fmt.Errorf("key %q has an empty key string", displayName)
		}

		return secret, nil
	}

	return "", fmt.Errorf("%w: %q in project %s", ErrKeyNotFound, displayName, project)
}
