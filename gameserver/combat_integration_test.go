// SPDX-FileCopyrightText: 2021 Softbear, Inc.
// SPDX-License-Identifier: AGPL-3.0-or-later

package gameserver

import (
	"testing"

	"github.com/kenshimp/replicore/combat"
	"github.com/kenshimp/replicore/interest"
	"github.com/kenshimp/replicore/protocol"
)

// sendAttackIntent drives one C2S_AttackIntent through the handler,
// standing in for a KCP-delivered packet from sender's client.
func sendAttackIntent(s *Server, sender *ConnectedPlayer, attacker, target protocol.EntityID) {
	w := protocol.NewWriter()
	protocol.MsgAttackIntent{AttackerID: attacker, TargetID: target}.Encode(w)
	s.handleAttackIntent(sender, protocol.NewReader(w.Bytes()))
}

func newCombatTestServer() (*Server, *ConnectedPlayer, *ConnectedPlayer) {
	s := &Server{
		entities: NewEntityStore(),
		players:  NewPlayerTable(),
		zones:    interest.NewManager(),
		combat:   combat.NewResolver(42),
	}
	attackerPeer := &fakePeer{addr: fakeAddr("10.0.0.1:1"), connected: true}
	targetPeer := &fakePeer{addr: fakeAddr("10.0.0.2:2"), connected: true}
	s.players.MarkPending(1)
	attacker := s.players.Admit(1, attackerPeer, "Attacker")
	s.players.MarkPending(2)
	target := s.players.Admit(2, targetPeer, "Target")
	return s, attacker, target
}

// TestAttackIntentAppliesDamageToOwnedEntity exercises the ordinary
// non-lethal path: one hit, health decreases, no KO or death broadcast.
func TestAttackIntentAppliesDamageToOwnedEntity(t *testing.T) {
	s, attackerPlayer, targetPlayer := newCombatTestServer()
	attackerEntity := s.entities.Spawn(ServerEntity{
		Owner: attackerPlayer.ID, AttackStat: combat.DefaultAttack, DefenseStat: combat.DefaultDefense, Alive: true,
	})
	targetEntity := s.entities.Spawn(ServerEntity{Owner: targetPlayer.ID, DefenseStat: combat.DefaultDefense, Alive: true})
	for i := range targetEntity.Health {
		targetEntity.Health[i] = 100
	}

	sendAttackIntent(s, attackerPlayer, attackerEntity.ID, targetEntity.ID)

	got, _ := s.entities.Get(targetEntity.ID)
	total := float32(0)
	for _, h := range got.Health {
		total += 100 - h
	}
	if total <= 0 {
		t.Fatal("a resolved attack must reduce the target's health somewhere")
	}
	if !got.Alive {
		t.Fatal("a single hit at full health must not kill the target")
	}
}

// TestAttackIntentRejectsNonOwnedAttacker ensures the ownership gate
// blocks an attack declared by an entity the sender does not control.
func TestAttackIntentRejectsNonOwnedAttacker(t *testing.T) {
	s, attackerPlayer, targetPlayer := newCombatTestServer()
	otherOwnerEntity := s.entities.Spawn(ServerEntity{Owner: targetPlayer.ID, Alive: true})
	targetEntity := s.entities.Spawn(ServerEntity{Owner: targetPlayer.ID, Alive: true})
	for i := range targetEntity.Health {
		targetEntity.Health[i] = 100
	}

	sendAttackIntent(s, attackerPlayer, otherOwnerEntity.ID, targetEntity.ID)

	got, _ := s.entities.Get(targetEntity.ID)
	for part, h := range got.Health {
		if h != 100 {
			t.Fatalf("health[%d] = %v, want unchanged 100 when the attacker isn't owned by sender", part, h)
		}
	}
}

// TestRepeatedAttacksEventuallyKillTarget drives attacks until the
// resolver reports a death, verifying Alive flips false and the
// server-side health stays at or below the death threshold.
func TestRepeatedAttacksEventuallyKillTarget(t *testing.T) {
	s, attackerPlayer, targetPlayer := newCombatTestServer()
	attackerEntity := s.entities.Spawn(ServerEntity{
		Owner: attackerPlayer.ID, AttackStat: 500, DefenseStat: 0, Alive: true,
	})
	targetEntity := s.entities.Spawn(ServerEntity{Owner: targetPlayer.ID, DefenseStat: 0, Alive: true})
	for i := range targetEntity.Health {
		targetEntity.Health[i] = 100
	}

	const maxAttacks = 200
	died := false
	for i := 0; i < maxAttacks; i++ {
		sendAttackIntent(s, attackerPlayer, attackerEntity.ID, targetEntity.ID)
		got, _ := s.entities.Get(targetEntity.ID)
		if !got.Alive {
			died = true
			break
		}
	}
	if !died {
		t.Fatalf("target survived %d attacks at AttackStat=500, DefenseStat=0; resolver may be under-damaging", maxAttacks)
	}

	got, _ := s.entities.Get(targetEntity.ID)
	if got.Health[protocol.BodyPartChest] > combat.DeathThreshold && got.Health[protocol.BodyPartHead] > combat.DeathThreshold {
		t.Fatalf("target marked dead but neither chest nor head crossed DeathThreshold: %+v", got.Health)
	}
}
