// SPDX-FileCopyrightText: 2021 Softbear, Inc.
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package combat implements the server-authoritative combat resolver:
// weighted body-part selection, defense-scaled damage with a block
// chance, and KO/death thresholds.
package combat

import (
	"math/rand"

	"github.com/kenshimp/replicore/protocol"
)

// DefaultAttack and DefaultDefense are the stat values used when no
// stat system override is present.
const (
	DefaultAttack  float32 = 20
	DefaultDefense float32 = 10
)

// BlockChance is the fixed probability a hit is blocked.
const BlockChance float32 = 0.2

// BlockScale multiplies both cut and blunt damage on a blocked hit.
const BlockScale float32 = 0.3

// KOThreshold and DeathThreshold are health[part] cutoffs:
// KO on any part, death only on Chest or Head.
const (
	KOThreshold    float32 = -50
	DeathThreshold float32 = -100
)

// bodyPartWeights sums to 100.
var bodyPartWeights = [protocol.BodyPartCount]int{
	protocol.BodyPartHead:     10,
	protocol.BodyPartChest:    30,
	protocol.BodyPartStomach:  20,
	protocol.BodyPartLeftArm:  10,
	protocol.BodyPartRightArm: 10,
	protocol.BodyPartLeftLeg:  10,
	protocol.BodyPartRightLeg: 10,
}

// Combatant is the subset of ServerEntity state the resolver mutates.
type Combatant struct {
	AttackStat  float32
	DefenseStat float32
	Health      [protocol.BodyPartCount]float32
	Alive       bool
}

// Result is one resolved attack, matching S2C_CombatHit's payload plus
// the KO/death flags the caller broadcasts separately.
type Result struct {
	BodyPart     protocol.BodyPart
	Cut          float32
	Blunt        float32
	Pierce       float32
	ResultHealth float32
	Blocked      bool
	KO           bool
	Died         bool
}

// Resolver holds the per-server PRNG. It is deterministic given a seed
// but makes no attempt at cross-run reproducibility.
type Resolver struct {
	rng *rand.Rand
}

func NewResolver(seed int64) *Resolver {
	return &Resolver{rng: rand.New(rand.NewSource(seed))}
}

// SelectBodyPart picks a part using the fixed weight table.
func (r *Resolver) SelectBodyPart() protocol.BodyPart {
	roll := r.rng.Intn(100)
	acc := 0
	for part, weight := range bodyPartWeights {
		acc += weight
		if roll < acc {
			return protocol.BodyPart(part)
		}
	}
	return protocol.BodyPartChest // unreachable given weights sum to 100
}

// Resolve applies attacker's attack to target and returns the outcome.
// Callers are responsible for the ownership/alive gate before invoking
// this; Resolve itself assumes the attack is already authorized.
func (r *Resolver) Resolve(attacker *Combatant, target *Combatant) Result {
	part := r.SelectBodyPart()

	variance := 0.8 + r.rng.Float32()*0.4 // random(0.8, 1.2)
	defenseFactor := 1 - minF(target.DefenseStat/100, 0.9)
	total := attacker.AttackStatOrDefault() * variance * defenseFactor

	blocked := r.rng.Float32() < BlockChance
	cut := total / 2
	blunt := total / 2
	if blocked {
		cut *= BlockScale
		blunt *= BlockScale
	}

	target.Health[part] -= cut + blunt
	resultHealth := target.Health[part]

	ko := false
	for _, h := range target.Health {
		if h <= KOThreshold {
			ko = true
			break
		}
	}
	died := target.Health[protocol.BodyPartChest] <= DeathThreshold || target.Health[protocol.BodyPartHead] <= DeathThreshold
	if died {
		target.Alive = false
	}

	return Result{
		BodyPart:     part,
		Cut:          cut,
		Blunt:        blunt,
		Pierce:       0,
		ResultHealth: resultHealth,
		Blocked:      blocked,
		KO:           ko,
		Died:         died,
	}
}

// AttackStatOrDefault lets zero-value Combatants (tests, freshly spawned
// entities without a stat system wired in yet) fall back to the
// default attack stat rather than dealing zero damage.
func (c *Combatant) AttackStatOrDefault() float32 {
	if c.AttackStat == 0 {
		return DefaultAttack
	}
	return c.AttackStat
}

func minF(a, b float32) float32 {
	if a < b {
		return a
	}
	return b
}

// NewCombatant returns a Combatant with full health and default stats,
// matching a freshly spawned ServerEntity.
func NewCombatant() Combatant {
	c := Combatant{AttackStat: DefaultAttack, DefenseStat: DefaultDefense, Alive: true}
	for i := range c.Health {
		c.Health[i] = 100
	}
	return c
}
