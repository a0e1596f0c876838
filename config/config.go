// SPDX-FileCopyrightText: 2021 Softbear, Inc.
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config loads the dedicated server's JSON configuration file.
// The server's single positional argument is a config path, so the
// JSON struct is the whole of it.
package config

import (
	"encoding/json"
	"fmt"
	"os"
)

// Config is the JSON shape recognized by the dedicated server.
// Unknown fields are ignored by encoding/json; missing fields keep
// the zero value, so Defaults() is applied before use.
type Config struct {
	ServerName  string  `json:"serverName"`
	Port        uint16  `json:"port"`
	MaxPlayers  int     `json:"maxPlayers"`
	Password    string  `json:"password"` // reserved; parsed but not checked at handshake
	SavePath    string  `json:"savePath"`
	TickRate    int     `json:"tickRate"`
	PvPEnabled  bool    `json:"pvpEnabled"`
	GameSpeed   float32 `json:"gameSpeed"`
	SaveIntervalSec int `json:"saveIntervalSec"`

	Cloud Cloud `json:"cloud"`
	Status Status `json:"status"`
}

// Cloud configures the optional AWS-backed backends: S3 world-save
// backup, Route53 direct-connect discovery, and a
// DynamoDB persistent ban list. Absent or Enabled=false leaves the
// server's *cloud.Cloud nil, which every call site treats as a valid
// all-offline instance (cloud.Cloud's doc comment).
type Cloud struct {
	Enabled       bool   `json:"enabled"`
	Region        string `json:"region"`
	Stage         string `json:"stage"`
	Domain        string `json:"domain"`
	Route53ZoneID string `json:"route53ZoneId"`
}

// Status configures the optional operator status dashboard. Binds
// loopback-only unless Address is set, so the default deployment is
// never exposed off-box.
type Status struct {
	Enabled bool   `json:"enabled"`
	Address string `json:"address"`
}

// Defaults returns the baseline configuration prior to overlaying a
// loaded file.
func Defaults() Config {
	return Config{
		ServerName: "Kenshi Multiplayer Server",
		Port:       27800,
		MaxPlayers: 16,
		SavePath:   "world.json",
		TickRate:   20,
		GameSpeed:  1,
		SaveIntervalSec: 300,
		Status: Status{Address: "127.0.0.1:8910"},
	}
}

// Load reads and parses the config file at path, overlaying it onto
// Defaults(). A missing file is not an error: it is equivalent to an
// empty JSON object.
func Load(path string) (Config, error) {
	cfg := Defaults()
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("config: read %s: %w", path, err)
	}
	if err := json.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("config: parse %s: %w", path, err)
	}
	return cfg, nil
}
