// SPDX-FileCopyrightText: 2021 Softbear, Inc.
// SPDX-License-Identifier: AGPL-3.0-or-later

package db

// Ban is one persistent-ban-list record, consulted on the handshake-time
// rejection path. Uses the same dynamo-tagged record
// into this domain's ban list; the leaderboard-specific Score/Server
// shapes have no Kenshi analogue and are dropped.
type Ban struct {
	Name   string `dynamo:"name"`
	Reason string `dynamo:"reason"`
	Since  int64  `dynamo:"since"`
}
