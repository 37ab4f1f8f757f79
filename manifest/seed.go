// Copyright 2025 The Rota Fácil Authors
// SPDX-License-Identifier: Apache-2.0

package manifest

import (
	"encoding/json"
	"fmt"
	"os"
	"time"
)

// Snapshot is the JSON export format.
type Snapshot struct {
	Version     string      `json:"version"`
	LastUpdated time.Time   `json:"last_updated"`
	Manifests   []*Manifest `json:"manifests"`
}

const snapshotVersion = "1.0"

// ExportToJSON writes every stored manifest to a JSON file.
func ExportToJSON(repo Repository, filepath string) (int, error) {
	summaries, err := repo.ListManifests()
	if err != nil {
		return 0, fmt.Errorf("listing manifests: %w", err)
	}

	snapshot := &Snapshot{
		Version:     snapshotVersion,
		LastUpdated: time.Now().UTC(),
		Manifests:   make([]*Manifest, 0, len(summaries)),
	}

	for _, s := range summaries {
		m, err := repo.GetManifest(s.ID)
		if err != nil {
			return 0, err
		}

		snapshot.Manifests = append(snapshot.Manifests, m)
	}

	data, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return 0, fmt.Errorf("marshaling JSON: %w", err)
	}

	if err := os.WriteFile(filepath, data, 0o600); err != nil {
		return 0, fmt.Errorf("writing file: %w", err)
	}

	return len(snapshot.Manifests), nil
}

// ImportFromJSON loads the manifests of a JSON export. Manifests already
// stored with the same id are replaced.
func ImportFromJSON(repo Repository, filepath string) (int, error) {
	data, err := os.ReadFile(filepath) // #nosec G304 - filepath is provided by the user
	if err != nil {
		return 0, fmt.Errorf("reading file: %w", err)
	}

	var snapshot Snapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return 0, fmt.Errorf("parsing JSON: %w", err)
	}

	imported := 0

	for _, m := range snapshot.Manifests {
		for _, item := range m.Items {
			if err := item.Validate(); err != nil {
				return imported, fmt.Errorf("manifest %s item %d: %w", m.ID, item.Sequence, err)
			}
		}

		if _, err := repo.SaveManifest(m); err != nil {
			return imported, fmt.Errorf("saving manifest %s: %w", m.ID, err)
		}

		imported++
	}

	return imported, nil
}
