// SPDX-FileCopyrightText: 2021 Softbear, Inc.
// SPDX-License-Identifier: AGPL-3.0-or-later

package worldsave

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/kenshimp/replicore/protocol"
)

func TestLoadMissingFileIsNotAnError(t *testing.T) {
	w, ok, err := Load(filepath.Join(t.TempDir(), "does-not-exist.json"))
	if err != nil {
		t.Fatalf("unexpected error for missing file: %v", err)
	}
	if ok {
		t.Fatal("expected ok=false for missing file")
	}
	if len(w.Entities) != 0 {
		t.Fatal("expected empty World for missing file")
	}
}

func TestLoadCorruptFileIsNonFatal(t *testing.T) {
	path := filepath.Join(t.TempDir(), "world.json")
	if err := os.WriteFile(path, []byte("{not valid json"), 0o644); err != nil {
		t.Fatal(err)
	}
	_, ok, err := Load(path)
	if err == nil {
		t.Fatal("expected an error describing the corrupt file")
	}
	if ok {
		t.Fatal("expected ok=false for a corrupt file")
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	// P8 + scenario 6: five entities, one with a non-ASCII template name,
	// atomic save, and next id strictly greater than any restored id.
	path := filepath.Join(t.TempDir(), "world.json")
	want := World{
		TimeOfDay: 12.5,
		Weather:   2,
		Entities: []SavedEntity{
			{ID: 1, Type: protocol.EntityTypePlayerCharacter, Owner: 1, TemplateID: 10, Position: [3]float32{1, 0, 1}, Rotation: [4]float32{1, 0, 0, 0}, Alive: true, Health: [7]float32{100, 100, 100, 100, 100, 100, 100}},
			{ID: 2, Type: protocol.EntityTypeNPC, TemplateID: 20, TemplateName: "盗賊", Position: [3]float32{2, 0, 2}, Rotation: [4]float32{1, 0, 0, 0}, Alive: true},
			{ID: 3, Type: protocol.EntityTypeAnimal, TemplateID: 30, Position: [3]float32{3, 0, 3}, Alive: false},
			{ID: 4, Type: protocol.EntityTypeBuilding, TemplateID: 40, Position: [3]float32{4, 0, 4}},
			{ID: 17, Type: protocol.EntityTypeItem, TemplateID: 50, Position: [3]float32{5, 0, 5}},
		},
	}

	if err := Save(path, want); err != nil {
		t.Fatalf("Save: %v", err)
	}

	entries, err := os.ReadDir(filepath.Dir(path))
	if err != nil {
		t.Fatal(err)
	}
	for _, e := range entries {
		if e.Name() != filepath.Base(path) {
			t.Fatalf("leftover temp file after Save: %s", e.Name())
		}
	}

	got, ok, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !ok {
		t.Fatal("expected ok=true after a successful save")
	}
	if len(got.Entities) != len(want.Entities) {
		t.Fatalf("got %d entities, want %d", len(got.Entities), len(want.Entities))
	}
	if got.Entities[1].TemplateName != "盗賊" {
		t.Fatalf("non-ASCII template name did not round-trip: %q", got.Entities[1].TemplateName)
	}

	next := NextEntityID(got)
	if next <= 17 {
		t.Fatalf("NextEntityID = %d, want > 17", next)
	}
	for _, e := range got.Entities {
		if e.ID >= next {
			t.Fatalf("NextEntityID %d not strictly greater than restored id %d", next, e.ID)
		}
	}
}

func TestSaveOverwritesExistingFileAtomically(t *testing.T) {
	path := filepath.Join(t.TempDir(), "world.json")
	if err := Save(path, World{Entities: []SavedEntity{{ID: 1}}}); err != nil {
		t.Fatal(err)
	}
	if err := Save(path, World{Entities: []SavedEntity{{ID: 1}, {ID: 2}}}); err != nil {
		t.Fatal(err)
	}
	got, ok, err := Load(path)
	if err != nil || !ok {
		t.Fatalf("Load after second Save: ok=%v err=%v", ok, err)
	}
	if len(got.Entities) != 2 {
		t.Fatalf("expected second Save to fully replace contents, got %d entities", len(got.Entities))
	}
}
