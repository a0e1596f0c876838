// SPDX-FileCopyrightText: 2021 Softbear, Inc.
// SPDX-License-Identifier: AGPL-3.0-or-later

// Command kenshimpbot is a demo bot client exercising the replication
// loop against a live kenshimpd, for manual and integration testing.
// Grounded on examples/bot.go's "connect, spawn, drive in a loop"
// shape, adapted away from the naval Hub/ClientData API onto this
// domain's transport.Client + replication.Loop pair.
package main

import (
	"flag"
	"fmt"
	"log"
	"math/rand"
	"time"

	"github.com/chewxy/math32"

	"github.com/kenshimp/replicore/interest"
	"github.com/kenshimp/replicore/protocol"
	"github.com/kenshimp/replicore/registry"
	"github.com/kenshimp/replicore/replication"
	"github.com/kenshimp/replicore/snapshot"
	"github.com/kenshimp/replicore/transport"
)

func main() {
	addr := flag.String("addr", "127.0.0.1:27800", "server address")
	name := flag.String("name", "Bot", "bot player name")
	flag.Parse()

	client, err := transport.NewClient()
	if err != nil {
		log.Fatalf("kenshimpbot: %v", err)
	}
	if err := client.Connect(*addr); err != nil {
		log.Fatalf("kenshimpbot: %v", err)
	}
	defer client.Disconnect()
	log.Printf("kenshimpbot: connected to %s", *addr)

	w := protocol.NewWriter()
	protocol.WriteHeader(w, protocol.Header{Type: protocol.C2SHandshake})
	protocol.MsgHandshake{
		ProtocolVersion:  1,
		PlayerName:       *name,
		GameVersionMajor: 1,
	}.Encode(w)
	if err := client.Send(transport.ChannelReliableOrdered, w.Bytes()); err != nil {
		log.Fatalf("kenshimpbot: handshake send: %v", err)
	}

	reg := registry.New()
	buf := snapshot.NewBuffer()
	zones := interest.NewManager()
	clock := &wallClock{start: time.Now()}
	bot := &botCharacter{pos: protocol.Vec3{X: 0, Y: 0, Z: 0}}

	var localPID protocol.PlayerID
	ui := &logSink{}
	dispatcher := &replication.Dispatcher{
		Registry: reg,
		Buffer:   buf,
		UI:       ui,
		Now:      clock.Now,
	}

	ackCh := make(chan struct{})
	go func() {
		for {
			client.Poll(func(e transport.Event) {
				if e.Kind == transport.EventReceive {
					r := protocol.NewReader(e.Data)
					if h, err := protocol.ReadHeader(r); err == nil && h.Type == protocol.S2CHandshakeAck {
						if ack, err := protocol.DecodeMsgHandshakeAck(r); err == nil {
							localPID = ack.PlayerID
							log.Printf("kenshimpbot: admitted as player %d", ack.PlayerID)
							close(ackCh)
						}
						return
					}
				}
				dispatcher.Handle(e)
			})
			if !client.Connected() {
				return
			}
			time.Sleep(10 * time.Millisecond)
		}
	}()

	select {
	case <-ackCh:
	case <-time.After(transport.ConnectTimeout):
		log.Fatal("kenshimpbot: handshake ack timed out")
	}

	loop := replication.NewLoop(bot, clock, reg, buf, zones, client, localPID)

	ticker := time.NewTicker(50 * time.Millisecond)
	defer ticker.Stop()
	for range ticker.C {
		bot.wander()
		loop.OnGameTick()
		if !client.Connected() {
			log.Println("kenshimpbot: disconnected")
			return
		}
	}
}

// wallClock implements replication.GameClock over time.Since.
type wallClock struct {
	start time.Time
}

func (c *wallClock) Now() float32 {
	return float32(time.Since(c.start).Seconds())
}

// botCharacter is a single fake locally-owned player character that
// wanders in a slow circle, standing in for the real injection-layer
// LocalCharacterSource a host game would provide.
type botCharacter struct {
	pos     protocol.Vec3
	heading float32
}

func (b *botCharacter) wander() {
	b.heading += (rand.Float32() - 0.5) * 0.2
	const speed = 2.0 // m/s at a 50ms tick
	b.pos.X += speed * 0.05 * math32.Cos(b.heading)
	b.pos.Z += speed * 0.05 * math32.Sin(b.heading)
}

func (b *botCharacter) EnumerateLocal() []replication.LocalState {
	return []replication.LocalState{{
		Object:    b,
		IsPlayer:  true,
		Pos:       b.pos,
		Rot:       protocol.IdentityQuat,
		MoveSpeed: 2.0,
		AnimState: 0,
	}}
}

func (b *botCharacter) ApplyRemote(obj registry.GameObject, s snapshot.Interpolated) {
	// The bot has no rendering layer to drive; remote interpolation is
	// exercised purely for its side effects on the registry/buffer.
}

func (b *botCharacter) LocalPlayerPosition() protocol.Vec3 {
	return b.pos
}

// logSink prints chat/lifecycle notices to stdout.
type logSink struct{}

func (logSink) SystemMessage(text string) { fmt.Println("[system]", text) }
func (logSink) ChatMessage(sender protocol.PlayerID, text string) {
	fmt.Printf("[chat] %d: %s\n", sender, text)
}
func (logSink) PlayerJoined(id protocol.PlayerID, name string) {
	fmt.Printf("[join] %d %s\n", id, name)
}
func (logSink) PlayerLeft(id protocol.PlayerID, reason uint8) {
	fmt.Printf("[leave] %d (reason %d)\n", id, reason)
}
