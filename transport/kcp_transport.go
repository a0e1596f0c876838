// SPDX-FileCopyrightText: 2021 Softbear, Inc.
// SPDX-License-Identifier: AGPL-3.0-or-later

package transport

import (
	"github.com/xtaci/kcp-go/v5"
)

// tuneSession configures a KCP session for low-latency game traffic
// ("turbo mode" in kcp-go's own terminology): nodelay mode, 10ms internal
// tick, fast retransmit after 2 skipped ACKs, no congestion control. Both
// the channel-0 and channel-1 sessions use the same tuning, so channel 1
// is delivered in order as well, which meets its looser reliable-unordered
// contract.
func tuneSession(s *kcp.UDPSession) {
	s.SetNoDelay(1, 10, 2, 1)
	s.SetWindowSize(128, 128)
	s.SetACKNoDelay(true)
	s.SetStreamMode(false)
	s.SetMtu(1350)
}

// kcpDataShards/kcpParityShards disable FEC: the game's own application
// layer tolerates loss on channel 2 and channels 0/1 are already
// retransmitted by KCP, so forward error correction would only add CPU
// cost for no latency win at LAN/WAN scales this server targets.
const (
	kcpDataShards   = 0
	kcpParityShards = 0
)
