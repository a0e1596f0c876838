// SPDX-FileCopyrightText: 2021 Softbear, Inc.
// SPDX-License-Identifier: AGPL-3.0-or-later

package gameserver

import (
	"net"
	"testing"

	"github.com/kenshimp/replicore/combat"
	"github.com/kenshimp/replicore/config"
	"github.com/kenshimp/replicore/interest"
	"github.com/kenshimp/replicore/protocol"
	"github.com/kenshimp/replicore/transport"
)

// fakeAddr satisfies net.Addr for a test peer with no real socket.
type fakeAddr string

func (a fakeAddr) Network() string { return "fake" }
func (a fakeAddr) String() string  { return string(a) }

// fakePeer records every Send call so a test can decode what the server
// would have written to the wire.
type fakePeer struct {
	addr      net.Addr
	connected bool
	sent      [][]byte
}

func (p *fakePeer) Send(ch transport.Channel, data []byte) error {
	p.sent = append(p.sent, data)
	return nil
}
func (p *fakePeer) RemoteAddr() net.Addr { return p.addr }
func (p *fakePeer) Connected() bool      { return p.connected }

// fakeHost is the minimal transport.Host a handler test needs: a single
// pre-registered peer and a recorded Disconnect call, no real socket.
type fakeHost struct {
	peer         *fakePeer
	peerID       uint32
	disconnected bool
}

func (h *fakeHost) Poll(handler transport.PacketHandler) {}
func (h *fakeHost) Peer(id uint32) (transport.Peer, bool) {
	if id == h.peerID {
		return h.peer, true
	}
	return nil, false
}
func (h *fakeHost) Broadcast(ch transport.Channel, data []byte, except uint32) error { return nil }
func (h *fakeHost) Disconnect(id uint32) {
	if id == h.peerID {
		h.disconnected = true
	}
}
func (h *fakeHost) Shutdown()      {}
func (h *fakeHost) Addr() net.Addr { return fakeAddr("fake:0") }

func newHandshakeTestServer(maxPlayers int) (*Server, *fakeHost) {
	host := &fakeHost{
		peer:   &fakePeer{addr: fakeAddr("10.0.0.1:9999"), connected: true},
		peerID: 1,
	}
	s := &Server{
		host:     host,
		entities: NewEntityStore(),
		players:  NewPlayerTable(),
		zones:    interest.NewManager(),
		combat:   combat.NewResolver(1),
		cfg:      config.Config{MaxPlayers: maxPlayers},
	}
	return s, host
}

func sendHandshake(s *Server, peerID uint32, version uint32, name string) {
	s.players.MarkPending(peerID)
	w := protocol.NewWriter()
	protocol.MsgHandshake{ProtocolVersion: version, PlayerName: name, GameVersionMajor: 1}.Encode(w)
	s.handleHandshake(peerID, readerFromWriter(w))
}

func readerFromWriter(w *protocol.Writer) *protocol.Reader {
	return protocol.NewReader(w.Bytes())
}

func lastMessageType(data []byte) protocol.MessageType {
	r := protocol.NewReader(data)
	h, err := protocol.ReadHeader(r)
	if err != nil {
		return 0
	}
	return h.Type
}

func TestHandshakeAcceptsMatchingVersion(t *testing.T) {
	s, host := newHandshakeTestServer(4)
	sendHandshake(s, host.peerID, ProtocolVersion, "Alice")

	if s.players.Count() != 1 {
		t.Fatalf("players.Count() = %d, want 1 after an accepted handshake", s.players.Count())
	}
	if s.players.IsPending(host.peerID) {
		t.Fatal("handleHandshake must clear the pending entry on success")
	}
	if host.disconnected {
		t.Fatal("handleHandshake must not disconnect an accepted peer")
	}
	if len(host.peer.sent) == 0 {
		t.Fatal("handleHandshake must send at least a handshake ack")
	}
	if got := lastMessageType(host.peer.sent[0]); got != protocol.S2CHandshakeAck {
		t.Fatalf("first message type = 0x%02x, want S2CHandshakeAck", got)
	}
}

func TestHandshakeRejectsVersionMismatch(t *testing.T) {
	s, host := newHandshakeTestServer(4)
	sendHandshake(s, host.peerID, ProtocolVersion+1, "Bob")

	if s.players.Count() != 0 {
		t.Fatalf("players.Count() = %d, want 0 after a version-mismatch handshake", s.players.Count())
	}
	if !host.disconnected {
		t.Fatal("a version-mismatch handshake must disconnect the peer")
	}
	if len(host.peer.sent) != 1 {
		t.Fatalf("expected exactly one reject message sent, got %d", len(host.peer.sent))
	}
	got := lastMessageType(host.peer.sent[0])
	if got != protocol.S2CHandshakeReject {
		t.Fatalf("message type = 0x%02x, want S2CHandshakeReject", got)
	}
	reject, err := protocol.DecodeMsgHandshakeReject(protocol.NewReader(host.peer.sent[0][protocol.HeaderSize:]))
	if err != nil {
		t.Fatalf("DecodeMsgHandshakeReject: %v", err)
	}
	if reject.Code != protocol.RejectVersionMismatch {
		t.Fatalf("reject code = %d, want RejectVersionMismatch", reject.Code)
	}
}

func TestHandshakeRejectsWhenServerFull(t *testing.T) {
	s, host := newHandshakeTestServer(0)
	sendHandshake(s, host.peerID, ProtocolVersion, "Carol")

	if s.players.Count() != 0 {
		t.Fatalf("players.Count() = %d, want 0 when the server is full", s.players.Count())
	}
	if !host.disconnected {
		t.Fatal("a full server must disconnect the new peer")
	}
	if len(host.peer.sent) != 0 {
		t.Fatalf("a full-server rejection sends no payload, got %d messages", len(host.peer.sent))
	}
}
