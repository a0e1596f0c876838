// SPDX-FileCopyrightText: 2021 Softbear, Inc.
// SPDX-License-Identifier: AGPL-3.0-or-later

package combat

import (
	"testing"

	"github.com/kenshimp/replicore/protocol"
)

func TestBodyPartWeightsSumTo100(t *testing.T) {
	sum := 0
	for _, w := range bodyPartWeights {
		sum += w
	}
	if sum != 100 {
		t.Fatalf("body part weights sum to %d, want 100", sum)
	}
}

func TestDeathThresholdMatchesAliveFlag(t *testing.T) {
	// P7: alive == false iff Chest or Head has ever reached <= -100.
	r := NewResolver(1)
	attacker := NewCombatant()
	target := NewCombatant()

	diedObserved := false
	for i := 0; i < 500 && target.Alive; i++ {
		res := r.Resolve(&attacker, &target)
		if res.Died {
			diedObserved = true
		}
		if target.Health[protocol.BodyPartChest] <= DeathThreshold || target.Health[protocol.BodyPartHead] <= DeathThreshold {
			if target.Alive {
				t.Fatalf("health crossed death threshold but Alive still true: %+v", target.Health)
			}
		} else if !target.Alive {
			t.Fatalf("Alive false without either death condition: %+v", target.Health)
		}
	}
	if !diedObserved && !target.Alive {
		t.Fatal("target died but no Result ever reported Died=true")
	}
}

func TestKOFlagsAnyPartBelowThreshold(t *testing.T) {
	r := NewResolver(2)
	attacker := NewCombatant()
	target := NewCombatant()
	target.Health[protocol.BodyPartLeftArm] = -49

	var res Result
	for i := 0; i < 50; i++ {
		res = r.Resolve(&attacker, &target)
		if res.BodyPart == protocol.BodyPartLeftArm && target.Health[protocol.BodyPartLeftArm] <= KOThreshold {
			if !res.KO {
				t.Fatalf("expected KO once LeftArm health %f <= %f", target.Health[protocol.BodyPartLeftArm], KOThreshold)
			}
			return
		}
	}
}

func TestBlockedHitStaysUnderScaledCeiling(t *testing.T) {
	// A blocked hit's total damage can never exceed BlockScale times the
	// maximum possible unblocked total (full variance, zero defense).
	ceiling := (DefaultAttack * 1.2) * BlockScale
	r := NewResolver(7)
	attacker := NewCombatant()
	target := NewCombatant()
	target.DefenseStat = 0
	observedBlock := false
	for i := 0; i < 500; i++ {
		res := r.Resolve(&attacker, &target)
		if res.Blocked {
			observedBlock = true
			if res.Cut+res.Blunt > ceiling+0.001 {
				t.Fatalf("blocked hit total %f exceeds ceiling %f", res.Cut+res.Blunt, ceiling)
			}
		}
		if !target.Alive {
			target = NewCombatant()
			target.DefenseStat = 0
		}
	}
	if !observedBlock {
		t.Skip("no blocked hit observed within the sample budget")
	}
}

func TestPierceIsAlwaysZero(t *testing.T) {
	r := NewResolver(3)
	attacker := NewCombatant()
	target := NewCombatant()
	for i := 0; i < 10; i++ {
		res := r.Resolve(&attacker, &target)
		if res.Pierce != 0 {
			t.Fatalf("expected Pierce == 0 always, got %f", res.Pierce)
		}
	}
}
