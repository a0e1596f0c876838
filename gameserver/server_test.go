// SPDX-FileCopyrightText: 2021 Softbear, Inc.
// SPDX-License-Identifier: AGPL-3.0-or-later

package gameserver

import (
	"path/filepath"
	"testing"

	"github.com/kenshimp/replicore/config"
	"github.com/kenshimp/replicore/protocol"
)

func newTestConfig(t *testing.T) config.Config {
	t.Helper()
	cfg := config.Defaults()
	cfg.Port = 0 // ephemeral local port
	cfg.MaxPlayers = 4
	cfg.SavePath = filepath.Join(t.TempDir(), "world.json")
	cfg.Status.Enabled = false
	return cfg
}

// TestSaveReloadFidelity spawns a handful of entities with distinct
// owners, positions, and health, saves the world, constructs a fresh
// Server against the same save path, and checks every field survives
// the round trip unchanged.
func TestSaveReloadFidelity(t *testing.T) {
	cfg := newTestConfig(t)

	s, err := New(cfg)
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	defer s.host.Shutdown()

	e1 := s.entities.Spawn(ServerEntity{
		Type:         protocol.EntityTypePlayerCharacter,
		Owner:        1,
		Position:     protocol.Vec3{X: 100, Y: 2, Z: -300},
		Rotation:     protocol.Quat{W: 0.7, X: 0, Y: 0.7, Z: 0},
		Alive:        true,
		TemplateName: "Wanderer",
	})
	e1.Health[protocol.BodyPartChest] = -20

	e2 := s.entities.Spawn(ServerEntity{
		Type:       protocol.EntityTypeBuilding,
		Owner:      0,
		Position:   protocol.Vec3{X: -50, Y: 0, Z: 50},
		TemplateID: 42,
		FactionID:  3,
	})

	s.timeOfDay = 0.42
	s.weatherState = 2

	if err := s.saveWorld(); err != nil {
		t.Fatalf("saveWorld() error: %v", err)
	}

	reloaded, err := New(cfg)
	if err != nil {
		t.Fatalf("New() on reload error: %v", err)
	}
	defer reloaded.host.Shutdown()

	if reloaded.entities.Count() != 2 {
		t.Fatalf("reloaded entity count = %d, want 2", reloaded.entities.Count())
	}
	got1, ok := reloaded.entities.Get(e1.ID)
	if !ok {
		t.Fatalf("entity %d missing after reload", e1.ID)
	}
	if got1.Owner != e1.Owner || got1.Position != e1.Position || got1.TemplateName != e1.TemplateName {
		t.Fatalf("entity %d fields mismatch after reload: got %+v, want owner=%d pos=%+v name=%q",
			e1.ID, got1, e1.Owner, e1.Position, e1.TemplateName)
	}
	if got1.Rotation != e1.Rotation {
		t.Fatalf("entity %d rotation mismatch: got %+v, want %+v", e1.ID, got1.Rotation, e1.Rotation)
	}
	if got1.Health[protocol.BodyPartChest] != -20 {
		t.Fatalf("entity %d health mismatch: got %v, want -20", e1.ID, got1.Health[protocol.BodyPartChest])
	}

	got2, ok := reloaded.entities.Get(e2.ID)
	if !ok {
		t.Fatalf("entity %d missing after reload", e2.ID)
	}
	if got2.TemplateID != 42 || got2.FactionID != 3 {
		t.Fatalf("entity %d template/faction mismatch: got %+v", e2.ID, got2)
	}

	if reloaded.timeOfDay != 0.42 {
		t.Fatalf("timeOfDay = %v, want 0.42", reloaded.timeOfDay)
	}
	if reloaded.weatherState != 2 {
		t.Fatalf("weatherState = %d, want 2", reloaded.weatherState)
	}
}

func TestLoadWorldStartsEmptyWhenSaveMissing(t *testing.T) {
	cfg := newTestConfig(t)
	cfg.SavePath = filepath.Join(t.TempDir(), "does-not-exist.json")

	s, err := New(cfg)
	if err != nil {
		t.Fatalf("New() error with a missing save file: %v", err)
	}
	defer s.host.Shutdown()

	if s.entities.Count() != 0 {
		t.Fatalf("entities.Count() = %d, want 0 for a fresh world", s.entities.Count())
	}
}
