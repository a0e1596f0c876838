// SPDX-FileCopyrightText: 2021 Softbear, Inc.
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package cloud implements an optional AWS-backed backend for this
// domain's three supplemental uses: S3 world-save backup, Route53
// direct-connect discovery, and a DynamoDB persistent ban list backing
// ownership/ban enforcement. Every method is a safe no-op on a nil
// *Cloud, so callers never need a separate offline code path.
package cloud

import (
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/kenshimp/replicore/cloud/db"
	"github.com/kenshimp/replicore/cloud/dns"
	"github.com/kenshimp/replicore/cloud/fs"
)

// Config names the AWS resources this server's cloud backends bind to.
type Config struct {
	Region        string
	Stage         string
	Domain        string
	Route53ZoneID string
}

// Cloud is the live AWS-backed implementation. A nil *Cloud is valid to
// call any method on and is the offline mode: every method is then a
// no-op. There is no separate offline type.
type Cloud struct {
	region string
	ip     net.IP
	fs     fs.Filesystem
	dns    dns.DNS
	db     db.Database
}

func (c *Cloud) String() string {
	if c == nil {
		return "[offline]"
	}
	var b strings.Builder
	b.WriteByte('[')
	b.WriteString(c.region)
	b.WriteByte(' ')
	if c.ip != nil {
		b.WriteString(c.ip.String())
	}
	b.WriteByte(']')
	return b.String()
}

// New connects to S3, Route53, and DynamoDB using cfg and the host's
// ambient AWS credentials. Returns an error (never a partially-wired
// *Cloud) if any backend cannot be reached; the caller is expected to
// fall back to a nil *Cloud on error, keeping the server fully
// operable offline.
func New(cfg Config) (*Cloud, error) {
	sess, err := getAWSSession(cfg.Region)
	if err != nil {
		return nil, fmt.Errorf("cloud: aws session: %w", err)
	}
	ip, err := publicIP()
	if err != nil {
		return nil, fmt.Errorf("cloud: public ip: %w", err)
	}

	fsBackend, err := fs.NewS3Filesystem(sess, cfg.Stage)
	if err != nil {
		return nil, fmt.Errorf("cloud: s3: %w", err)
	}
	dnsBackend, err := dns.NewRoute53DNS(sess, cfg.Domain, cfg.Route53ZoneID)
	if err != nil {
		return nil, fmt.Errorf("cloud: route53: %w", err)
	}
	dbBackend, err := db.NewDynamoDBDatabase(sess, cfg.Stage)
	if err != nil {
		return nil, fmt.Errorf("cloud: dynamodb: %w", err)
	}

	return &Cloud{region: cfg.Region, ip: ip, fs: fsBackend, dns: dnsBackend, db: dbBackend}, nil
}

// BackupWorldSave uploads a copy of the world-save JSON to S3, in
// addition to the always-on local atomic save. No-op when c is nil.
func (c *Cloud) BackupWorldSave(data []byte) error {
	if c == nil {
		return nil
	}
	return c.fs.UploadStaticFile("world-backup.json", 0, data)
}

// RegisterAddress publishes this server's public address under
// play-<region>-0.<domain> for direct-connect discovery; this domain
// runs one server per region, so the slot is always 0. No-op when c is
// nil.
func (c *Cloud) RegisterAddress() error {
	if c == nil {
		return nil
	}
	return c.dns.UpdateRoute(c.region, 0, c.ip)
}

// banKey is the DynamoDB partition key for a banned player: the name
// chosen at handshake time (player ids are not stable across restarts,
// but a chosen name is what an operator types into `kick`/`ban`).
func banKey(name string) string { return strings.ToLower(strings.TrimSpace(name)) }

// IsBanned reports whether name appears on the persistent ban list.
// Consulted at handshake time, ahead of the RejectBanned reason code.
// Always false when c is nil.
func (c *Cloud) IsBanned(name string) (bool, error) {
	if c == nil {
		return false, nil
	}
	return c.db.IsBanned(banKey(name))
}

// Ban adds name to the persistent ban list.
func (c *Cloud) Ban(name, reason string) error {
	if c == nil {
		return nil
	}
	return c.db.PutBan(db.Ban{
		Name:   banKey(name),
		Reason: reason,
		Since:  time.Now().Unix(),
	})
}

// Unban removes name from the persistent ban list.
func (c *Cloud) Unban(name string) error {
	if c == nil {
		return nil
	}
	return c.db.DeleteBan(banKey(name))
}
