// SPDX-FileCopyrightText: 2021 Softbear, Inc.
// SPDX-License-Identifier: AGPL-3.0-or-later

package transport

import (
	"fmt"
	"net"
	"sync/atomic"
	"time"

	"github.com/xtaci/kcp-go/v5"
)

// KCPClient is the client-side half of the transport: one outgoing
// connection, two KCP sessions plus raw channel-2 datagrams, all sharing
// one local UDP socket.
type KCPClient struct {
	localConn net.PacketConn
	mux0, mux1 *demuxConn
	sess0, sess1 *kcp.UDPSession
	remote    net.Addr

	connected int32
	events    chan Event
	closed    chan struct{}
}

// NewClient allocates the local UDP socket but does not yet connect. No
// bandwidth limit is applied in either direction.
func NewClient() (*KCPClient, error) {
	conn, err := net.ListenPacket("udp", ":0")
	if err != nil {
		return nil, err
	}
	return &KCPClient{
		localConn: conn,
		mux0:      newDemuxConn(tagChannel0, conn),
		mux1:      newDemuxConn(tagChannel1, conn),
		events:    make(chan Event, 1024),
		closed:    make(chan struct{}),
	}, nil
}

// Connect issues a connection to address and blocks up to ConnectTimeout;
// returns an error if address does not resolve, a session cannot be
// created, or no transport-level connect acknowledgement arrives in time.
func (c *KCPClient) Connect(address string) error {
	raddr, err := net.ResolveUDPAddr("udp", address)
	if err != nil {
		return err
	}
	c.remote = raddr

	c.sess0, err = kcp.NewConn2(raddr, nil, kcpDataShards, kcpParityShards, c.mux0)
	if err != nil {
		return err
	}
	c.sess1, err = kcp.NewConn2(raddr, nil, kcpDataShards, kcpParityShards, c.mux1)
	if err != nil {
		c.sess0.Close()
		return err
	}
	tuneSession(c.sess0)
	tuneSession(c.sess1)

	go dispatchLoop(c.localConn, c.mux0, c.mux1, c.handleChannel2)

	ackCh := make(chan struct{}, 1)
	go c.waitForAck(ackCh)

	select {
	case <-ackCh:
		atomic.StoreInt32(&c.connected, 1)
		go c.readLoop(c.sess0, ChannelReliableOrdered)
		go c.readLoop(c.sess1, ChannelReliableUnordered)
		return nil
	case <-time.After(ConnectTimeout):
		c.sess0.Close()
		c.sess1.Close()
		return fmt.Errorf("transport: connect to %s timed out after %s", address, ConnectTimeout)
	}
}

func (c *KCPClient) waitForAck(ackCh chan<- struct{}) {
	buf := make([]byte, 2)
	n, err := c.sess0.Read(buf)
	if err == nil && n == 1 && buf[0] == controlAck {
		ackCh <- struct{}{}
	}
}

func (c *KCPClient) readLoop(sess *kcp.UDPSession, ch Channel) {
	buf := make([]byte, 65536)
	for {
		n, err := sess.Read(buf)
		if err != nil {
			c.handleDisconnect()
			return
		}
		data := make([]byte, n)
		copy(data, buf[:n])
		c.pushEvent(Event{Kind: EventReceive, Channel: ch, Data: data})
	}
}

func (c *KCPClient) handleChannel2(data []byte, addr net.Addr) {
	if !c.Connected() {
		return
	}
	cp := make([]byte, len(data))
	copy(cp, data)
	c.pushEvent(Event{Kind: EventReceive, Channel: ChannelUnreliableSequenced, Data: cp})
}

func (c *KCPClient) handleDisconnect() {
	if atomic.CompareAndSwapInt32(&c.connected, 1, 0) {
		c.pushEvent(Event{Kind: EventDisconnect})
	}
}

func (c *KCPClient) pushEvent(e Event) {
	select {
	case c.events <- e:
	case <-c.closed:
	}
}

// Poll drains all currently queued events without blocking.
func (c *KCPClient) Poll(handler PacketHandler) {
	for {
		select {
		case e := <-c.events:
			handler(e)
		default:
			return
		}
	}
}

func (c *KCPClient) Send(ch Channel, data []byte) error {
	switch ch {
	case ChannelReliableOrdered:
		_, err := c.sess0.Write(data)
		return err
	case ChannelReliableUnordered:
		_, err := c.sess1.Write(data)
		return err
	case ChannelUnreliableSequenced:
		return writeChannel2(c.localConn, c.remote, data)
	default:
		return ErrInvalidChannel
	}
}

func (c *KCPClient) Connected() bool { return atomic.LoadInt32(&c.connected) != 0 }

// RemoteAddr satisfies the Peer interface so callers can hand a
// *KCPClient directly to anything expecting a transport.Peer (e.g.
// replication.NewLoop's peer argument).
func (c *KCPClient) RemoteAddr() net.Addr { return c.remote }

// Disconnect drains events for up to DisconnectDrain before tearing down
// the sessions and the local socket. No disconnect notice is sent.
func (c *KCPClient) Disconnect() {
	if !c.Connected() {
		return
	}
	deadline := time.Now().Add(DisconnectDrain)
	for time.Now().Before(deadline) {
		c.Poll(func(Event) {})
		if !c.Connected() {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}
	atomic.StoreInt32(&c.connected, 0)
	close(c.closed)
	if c.sess0 != nil {
		c.sess0.Close()
	}
	if c.sess1 != nil {
		c.sess1.Close()
	}
	c.localConn.Close()
}
