// SPDX-FileCopyrightText: 2021 Softbear, Inc.
// SPDX-License-Identifier: AGPL-3.0-or-later

package transport

import (
	"net"
	"sync"
	"sync/atomic"

	"github.com/xtaci/kcp-go/v5"
)

// KCPHost is the server-side Host: one listening UDP socket multiplexing
// two KCP sessions per peer plus raw channel-2 datagrams.
type KCPHost struct {
	realConn net.PacketConn
	mux0     *demuxConn
	mux1     *demuxConn
	l0, l1   *kcp.Listener

	mu         sync.RWMutex
	byAddr     map[string]*hostPeer
	byID       map[uint32]*hostPeer
	nextID     uint32
	maxPeers   int
	events     chan Event
	closed     chan struct{}
	closeOnce  sync.Once
}

type hostPeer struct {
	id        uint32
	addr      net.Addr
	sess0     *kcp.UDPSession
	sess1     *kcp.UDPSession
	connected int32 // atomic bool
	host      *KCPHost
}

func (p *hostPeer) Send(ch Channel, data []byte) error {
	switch ch {
	case ChannelReliableOrdered:
		_, err := p.sess0.Write(data)
		return err
	case ChannelReliableUnordered:
		_, err := p.sess1.Write(data)
		return err
	case ChannelUnreliableSequenced:
		return writeChannel2(p.host.realConn, p.addr, data)
	default:
		return ErrInvalidChannel
	}
}

func (p *hostPeer) RemoteAddr() net.Addr { return p.addr }
func (p *hostPeer) Connected() bool      { return atomic.LoadInt32(&p.connected) != 0 }

// RTTMillis reports channel 0's smoothed round-trip estimate, satisfying
// transport.PingPeer.
func (p *hostPeer) RTTMillis() uint32 {
	if p.sess0 == nil {
		return 0
	}
	srtt := p.sess0.GetSRTT()
	if srtt < 0 {
		return 0
	}
	return uint32(srtt)
}

// NewHost opens a listening socket on address with maxPlayers peer slots
// and no bandwidth cap.
func NewHost(address string, maxPlayers int) (*KCPHost, error) {
	conn, err := net.ListenPacket("udp", address)
	if err != nil {
		return nil, err
	}
	h := &KCPHost{
		realConn: conn,
		mux0:     newDemuxConn(tagChannel0, conn),
		mux1:     newDemuxConn(tagChannel1, conn),
		byAddr:   make(map[string]*hostPeer),
		byID:     make(map[uint32]*hostPeer),
		maxPeers: maxPlayers,
		events:   make(chan Event, 4096),
		closed:   make(chan struct{}),
	}
	h.l0, err = kcp.ServeConn(nil, kcpDataShards, kcpParityShards, h.mux0)
	if err != nil {
		conn.Close()
		return nil, err
	}
	h.l1, err = kcp.ServeConn(nil, kcpDataShards, kcpParityShards, h.mux1)
	if err != nil {
		conn.Close()
		return nil, err
	}
	go dispatchLoop(conn, h.mux0, h.mux1, h.handleChannel2)
	go h.acceptLoop(h.l0, 0)
	go h.acceptLoop(h.l1, 1)
	return h, nil
}

func (h *KCPHost) Addr() net.Addr { return h.realConn.LocalAddr() }

func (h *KCPHost) peerFor(addr net.Addr) *hostPeer {
	key := addr.String()
	h.mu.Lock()
	defer h.mu.Unlock()
	if p, ok := h.byAddr[key]; ok {
		return p
	}
	if h.maxPeers > 0 && len(h.byAddr) >= h.maxPeers {
		return nil
	}
	h.nextID++
	p := &hostPeer{id: h.nextID, addr: addr, host: h}
	h.byAddr[key] = p
	return p
}

func (h *KCPHost) acceptLoop(l *kcp.Listener, which int) {
	for {
		sess, err := l.AcceptKCP()
		if err != nil {
			return
		}
		tuneSession(sess)
		p := h.peerFor(sess.RemoteAddr())
		if p == nil {
			sess.Close()
			continue
		}
		h.mu.Lock()
		if which == 0 {
			p.sess0 = sess
		} else {
			p.sess1 = sess
		}
		ready := p.sess0 != nil && p.sess1 != nil && !p.Connected()
		if ready {
			atomic.StoreInt32(&p.connected, 1)
			h.byID[p.id] = p
		}
		h.mu.Unlock()
		if ready {
			// Transport-level connect acknowledgement, not an application
			// message: lets Client.Connect return as soon as both
			// sessions are usable, before any C2SHandshake is exchanged.
			p.sess0.Write([]byte{controlAck})
			h.pushEvent(Event{Kind: EventConnect, PeerID: p.id})
		}
		go h.readLoop(p, sess, Channel(which))
	}
}

func (h *KCPHost) readLoop(p *hostPeer, sess *kcp.UDPSession, ch Channel) {
	buf := make([]byte, 65536)
	for {
		n, err := sess.Read(buf)
		if err != nil {
			h.dropPeer(p)
			return
		}
		if ch == ChannelReliableOrdered && n == 1 && buf[0] == controlAck {
			continue
		}
		data := make([]byte, n)
		copy(data, buf[:n])
		h.pushEvent(Event{Kind: EventReceive, PeerID: p.id, Channel: ch, Data: data})
	}
}

func (h *KCPHost) handleChannel2(data []byte, addr net.Addr) {
	h.mu.RLock()
	p, ok := h.byAddr[addr.String()]
	h.mu.RUnlock()
	if !ok || !p.Connected() {
		return
	}
	h.pushEvent(Event{Kind: EventReceive, PeerID: p.id, Channel: ChannelUnreliableSequenced, Data: data})
}

func (h *KCPHost) dropPeer(p *hostPeer) {
	h.mu.Lock()
	if _, ok := h.byID[p.id]; !ok {
		h.mu.Unlock()
		return
	}
	delete(h.byID, p.id)
	delete(h.byAddr, p.addr.String())
	wasConnected := p.Connected()
	atomic.StoreInt32(&p.connected, 0)
	h.mu.Unlock()
	if p.sess0 != nil {
		p.sess0.Close()
	}
	if p.sess1 != nil {
		p.sess1.Close()
	}
	if wasConnected {
		h.pushEvent(Event{Kind: EventDisconnect, PeerID: p.id})
	}
}

func (h *KCPHost) pushEvent(e Event) {
	select {
	case h.events <- e:
	case <-h.closed:
	}
}

// Poll drains all currently queued events without blocking.
func (h *KCPHost) Poll(handler PacketHandler) {
	for {
		select {
		case e := <-h.events:
			handler(e)
		default:
			return
		}
	}
}

func (h *KCPHost) Peer(id uint32) (Peer, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	p, ok := h.byID[id]
	return p, ok
}

func (h *KCPHost) Broadcast(ch Channel, data []byte, except uint32) error {
	h.mu.RLock()
	peers := make([]*hostPeer, 0, len(h.byID))
	for id, p := range h.byID {
		if id != except {
			peers = append(peers, p)
		}
	}
	h.mu.RUnlock()
	var firstErr error
	for _, p := range peers {
		if err := p.Send(ch, data); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (h *KCPHost) Disconnect(id uint32) {
	h.mu.RLock()
	p, ok := h.byID[id]
	h.mu.RUnlock()
	if ok {
		h.dropPeer(p)
	}
}

// Shutdown closes every peer session and the listening socket. The
// caller is expected to have already broadcast an application-level
// disconnect notice.
func (h *KCPHost) Shutdown() {
	h.closeOnce.Do(func() {
		close(h.closed)
		h.mu.Lock()
		peers := make([]*hostPeer, 0, len(h.byID))
		for _, p := range h.byID {
			peers = append(peers, p)
		}
		h.mu.Unlock()
		for _, p := range peers {
			h.dropPeer(p)
		}
		h.l0.Close()
		h.l1.Close()
		h.realConn.Close()
	})
}
