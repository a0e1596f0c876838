// SPDX-FileCopyrightText: 2021 Softbear, Inc.
// SPDX-License-Identifier: AGPL-3.0-or-later

package gameserver

import (
	"github.com/finnbear/moderation"
)

// moderateName screens a requested player name at handshake time,
// falling back to a generic name rather than rejecting the connection
// outright.
func moderateName(name string) string {
	if name == "" {
		return "Player"
	}
	if moderation.Scan(name).Is(moderation.Inappropriate) {
		return "Player"
	}
	return name
}

// moderateChat censors an outbound chat line: scan, then censor in
// place rather than dropping the
// whole message.
func moderateChat(text string) string {
	if moderation.Scan(text).Is(moderation.Inappropriate) {
		text, _ = moderation.Censor(text, moderation.Inappropriate)
	}
	return text
}
