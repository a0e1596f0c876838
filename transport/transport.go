// SPDX-FileCopyrightText: 2021 Softbear, Inc.
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package transport implements the three-channel reliable-UDP
// abstraction: a reliable-ordered channel, a reliable-unordered channel,
// and an unreliable-sequenced channel, all multiplexed over a single UDP
// socket. The two reliable channels are carried by independent KCP
// sessions (github.com/xtaci/kcp-go); the sequenced channel is raw
// datagrams. Neither the transport nor its receivers check a sequence
// number on channel 2: every datagram that arrives is delivered, in
// arrival order, including one older than a datagram already delivered.
package transport

import (
	"errors"
	"net"
	"time"
)

// Channel selects one of the three delivery semantics a message travels
// under. The core never depends on the substrate providing more than this
// contract.
type Channel uint8

const (
	// ChannelReliableOrdered carries connection control, entity lifecycle,
	// chat, build events, time-sync, and combat death/KO.
	ChannelReliableOrdered Channel = 0
	// ChannelReliableUnordered carries combat hits, stat updates, and move
	// commands: delivered at most once, arrival order not guaranteed.
	ChannelReliableUnordered Channel = 1
	// ChannelUnreliableSequenced carries position updates: may be dropped
	// or arrive out of order. A late older message is delivered like any
	// other; it is not discarded in favour of a newer one.
	ChannelUnreliableSequenced Channel = 2
)

const ChannelCount = 3

// controlAck is a reserved single-byte frame the host writes on channel 0
// the instant both of a peer's KCP sessions are usable. It is transport
// plumbing, not an application message, and is filtered out of the event stream on both ends.
const controlAck = 0xFE

var ErrInvalidChannel = errors.New("transport: invalid channel")

// TimeoutMS is the idle-peer timeout value in milliseconds. KCPHost and
// KCPClient do not apply it: no read deadline is set, so a silent peer
// is not disconnected after this long.
const TimeoutMS = 10_000

// ConnectTimeout bounds Client.Connect.
const ConnectTimeout = 5 * time.Second

// DisconnectDrain bounds Client.Disconnect.
const DisconnectDrain = 3 * time.Second

// EventKind discriminates the three kinds of transport event a poll loop
// observes.
type EventKind uint8

const (
	EventConnect EventKind = iota
	EventReceive
	EventDisconnect
)

// Event is one occurrence drained from Host.Poll or Client.Poll.
type Event struct {
	Kind    EventKind
	PeerID  uint32 // server-assigned connection id; 0 is never valid
	Channel Channel
	Data    []byte
}

// PacketHandler is invoked once per Event during a drain pass.
type PacketHandler func(Event)

// Peer is one connected endpoint as seen from whichever side didn't
// originate it: the server's view of a client, or the client's view of
// the server.
type Peer interface {
	// Send enqueues data for delivery on the given channel. Thread-safe;
	// may be called from a goroutine other than the one draining events.
	Send(ch Channel, data []byte) error
	RemoteAddr() net.Addr
	Connected() bool
}

// PingPeer is implemented by Peers that can report a round-trip estimate
// from the underlying reliable session, used by the server tick loop to
// refresh ConnectedPlayer.PingMS.
type PingPeer interface {
	RTTMillis() uint32
}

// Host is the server-side half of the transport: a listening socket
// accepting many peers.
type Host interface {
	// Poll drains all currently pending events and invokes handler for
	// each, then returns without blocking.
	Poll(handler PacketHandler)
	Peer(id uint32) (Peer, bool)
	Broadcast(ch Channel, data []byte, except uint32) error
	Disconnect(id uint32)
	// Shutdown closes every peer session and the socket at once. It sends
	// no disconnect notice and does not wait for queued data to drain.
	Shutdown()
	Addr() net.Addr
}

// Client is the client-side half: a single outgoing connection to one
// Host.
type Client interface {
	// Connect blocks up to ConnectTimeout; returns an error if no
	// connection-accepted event arrives in time.
	Connect(address string) error
	// Poll drains all currently pending events and invokes handler.
	Poll(handler PacketHandler)
	Send(ch Channel, data []byte) error
	// Disconnect drains events for up to DisconnectDrain, then closes the
	// connection. It sends no disconnect notice to the host.
	Disconnect()
	Connected() bool
}
