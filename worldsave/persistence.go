// SPDX-FileCopyrightText: 2021 Softbear, Inc.
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package worldsave implements JSON world persistence: atomic save,
// load-on-start, and the fixed on-disk schema. Uses
// github.com/json-iterator/go as a drop-in encoding/json replacement.
package worldsave

import (
	"fmt"
	"os"
	"path/filepath"

	jsoniter "github.com/json-iterator/go"

	"github.com/kenshimp/replicore/protocol"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// SchemaVersion is the only version this package currently writes or
// accepts; a mismatched version is treated the same as a corrupt file.
const SchemaVersion = 1

// SavedEntity is the on-disk shape of one ServerEntity.
type SavedEntity struct {
	ID           protocol.EntityID  `json:"id"`
	Type         protocol.EntityType `json:"type"`
	Owner        protocol.PlayerID  `json:"owner"`
	TemplateID   uint32             `json:"templateId"`
	FactionID    uint32             `json:"factionId"`
	Position     [3]float32         `json:"position"`
	Rotation     [4]float32         `json:"rotation"`
	Alive        bool               `json:"alive"`
	Health       [protocol.BodyPartCount]float32 `json:"health"`
	TemplateName string             `json:"templateName,omitempty"`
}

// World is the top-level on-disk document.
type World struct {
	Version   int           `json:"version"`
	TimeOfDay float32       `json:"timeOfDay"`
	Weather   int32         `json:"weather"`
	Entities  []SavedEntity `json:"entities"`
}

// Save writes w to path atomically: write to a sibling temp file, then
// rename over the destination.
func Save(path string, w World) error {
	w.Version = SchemaVersion
	data, err := json.MarshalIndent(w, "", "  ")
	if err != nil {
		return fmt.Errorf("worldsave: marshal: %w", err)
	}

	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".worldsave-*.tmp")
	if err != nil {
		return fmt.Errorf("worldsave: create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath) // no-op once the rename below succeeds

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("worldsave: write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("worldsave: sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("worldsave: close temp file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("worldsave: rename into place: %w", err)
	}
	return nil
}

// Load reads path. A missing file is not an error: it returns an empty
// World and ok=false so the caller starts fresh. A present but corrupt
// or unparseable file is also non-fatal: it logs via the
// returned error for the caller to report, and ok is false.
func Load(path string) (World, bool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return World{}, false, nil
		}
		return World{}, false, fmt.Errorf("worldsave: read %s: %w", path, err)
	}
	var w World
	if err := json.Unmarshal(data, &w); err != nil {
		return World{}, false, fmt.Errorf("worldsave: parse %s: %w", path, err)
	}
	if w.Version != SchemaVersion {
		return World{}, false, fmt.Errorf("worldsave: %s has schema version %d, want %d", path, w.Version, SchemaVersion)
	}
	return w, true, nil
}

// Encode marshals w to the same JSON shape Save writes, for callers that
// need the bytes directly (e.g. an off-box backup copy).
func Encode(w World) ([]byte, error) {
	w.Version = SchemaVersion
	data, err := json.MarshalIndent(w, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("worldsave: marshal: %w", err)
	}
	return data, nil
}

// NextEntityID returns one past the largest id present in w, so the
// server's id allocator never reissues a restored id.
func NextEntityID(w World) protocol.EntityID {
	var max protocol.EntityID
	for _, e := range w.Entities {
		if e.ID > max {
			max = e.ID
		}
	}
	return max + 1
}
