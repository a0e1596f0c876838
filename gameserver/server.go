// SPDX-FileCopyrightText: 2021 Softbear, Inc.
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package gameserver implements the authoritative dedicated server: the
// 20 Hz tick loop and the ownership/command validation gate every
// mutating request passes through, built around a ticker-driven Run()
// loop, restructured around a
// five-step per-tick sequence.
package gameserver

import (
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/kenshimp/replicore/cloud"
	"github.com/kenshimp/replicore/combat"
	"github.com/kenshimp/replicore/config"
	"github.com/kenshimp/replicore/interest"
	"github.com/kenshimp/replicore/protocol"
	"github.com/kenshimp/replicore/transport"
	"github.com/kenshimp/replicore/worldsave"
)

// ProtocolVersion is the exact version the handshake handler requires.
const ProtocolVersion uint32 = 1

// TimeSyncInterval is the accumulated-tick-time cadence for
// S2C_TimeSync broadcasts.
const TimeSyncInterval = 5 * time.Second

var logger = log.New(log.Writer(), "[gameserver] ", log.LstdFlags)

// Server is the top-level struct owning every server-side subsystem,
// passed by reference into handlers, replacing the source's
// process-wide singletons.
type Server struct {
	cfg  config.Config
	host transport.Host

	entities *EntityStore
	players  *PlayerTable
	zones    *interest.Manager
	combat   *combat.Resolver
	weather  *weatherDrift
	cloud    *cloud.Cloud

	tick         uint32
	timeOfDay    float32
	weatherState int32

	sinceTimeSync time.Duration
	sinceSave     time.Duration

	adminQueue chan AdminCommand
	shutdown   int32
	done       chan struct{}

	mu sync.Mutex // guards timeOfDay/weatherState reads from the console thread
}

// New constructs a Server bound to cfg but does not start listening;
// call Run to drive the tick loop.
func New(cfg config.Config) (*Server, error) {
	host, err := transport.NewHost(fmt.Sprintf(":%d", cfg.Port), cfg.MaxPlayers)
	if err != nil {
		return nil, fmt.Errorf("gameserver: listen on port %d: %w", cfg.Port, err)
	}

	var cl *cloud.Cloud
	if cfg.Cloud.Enabled {
		cl, err = cloud.New(cloud.Config{
			Region:        cfg.Cloud.Region,
			Stage:         cfg.Cloud.Stage,
			Domain:        cfg.Cloud.Domain,
			Route53ZoneID: cfg.Cloud.Route53ZoneID,
		})
		if err != nil {
			logger.Printf("cloud backends unavailable, continuing offline: %v", err)
			cl = nil
		} else if err := cl.RegisterAddress(); err != nil {
			logger.Printf("direct-connect registration failed: %v", err)
		}
	}

	s := &Server{
		cfg:        cfg,
		host:       host,
		entities:   NewEntityStore(),
		players:    NewPlayerTable(),
		zones:      interest.NewManager(),
		combat:     combat.NewResolver(time.Now().UnixNano()),
		weather:    newWeatherDrift(time.Now().UnixNano()),
		cloud:      cl,
		adminQueue: make(chan AdminCommand, 32),
		done:       make(chan struct{}),
	}
	s.loadWorld()
	return s, nil
}

// loadWorld restores server_entities from the configured save path, if
// present and parseable. A missing or corrupt file is
// never fatal: the world simply starts empty.
func (s *Server) loadWorld() {
	w, ok, err := worldsave.Load(s.cfg.SavePath)
	if err != nil {
		logger.Printf("world load warning: %v (starting with an empty world)", err)
		return
	}
	if !ok {
		return
	}
	s.timeOfDay = w.TimeOfDay
	s.weatherState = w.Weather
	for _, se := range w.Entities {
		s.entities.Restore(ServerEntity{
			ID:           se.ID,
			Type:         se.Type,
			Owner:        se.Owner,
			TemplateID:   se.TemplateID,
			FactionID:    se.FactionID,
			TemplateName: se.TemplateName,
			Position:     protocol.Vec3{X: se.Position[0], Y: se.Position[1], Z: se.Position[2]},
			Rotation:     protocol.Quat{W: se.Rotation[0], X: se.Rotation[1], Y: se.Rotation[2], Z: se.Rotation[3]},
			Alive:        se.Alive,
			Health:       se.Health,
			AttackStat:   combat.DefaultAttack,
			DefenseStat:  combat.DefaultDefense,
		})
	}
	logger.Printf("loaded %d entities from %s", len(w.Entities), s.cfg.SavePath)
}

// saveWorld serializes current state to disk atomically, and mirrors
// it to S3 if cloud backup is configured.
func (s *Server) saveWorld() error {
	w := worldsave.World{
		TimeOfDay: s.timeOfDay,
		Weather:   s.weatherState,
	}
	for _, e := range s.entities.All() {
		w.Entities = append(w.Entities, worldsave.SavedEntity{
			ID:           e.ID,
			Type:         e.Type,
			Owner:        e.Owner,
			TemplateID:   e.TemplateID,
			FactionID:    e.FactionID,
			Position:     [3]float32{e.Position.X, e.Position.Y, e.Position.Z},
			Rotation:     [4]float32{e.Rotation.W, e.Rotation.X, e.Rotation.Y, e.Rotation.Z},
			Alive:        e.Alive,
			Health:       e.Health,
			TemplateName: e.TemplateName,
		})
	}
	if err := worldsave.Save(s.cfg.SavePath, w); err != nil {
		return err
	}
	if s.cloud != nil {
		if data, err := worldsave.Encode(w); err == nil {
			if err := s.cloud.BackupWorldSave(data); err != nil {
				logger.Printf("cloud backup failed: %v", err)
			}
		}
	}
	return nil
}

// requestShutdown signals Run to stop after the current tick.
func (s *Server) requestShutdown() {
	atomic.StoreInt32(&s.shutdown, 1)
}

// Stop requests a graceful shutdown from outside the tick loop (e.g. an
// OS signal handler in cmd/kenshimpd); Run performs the actual save and
// transport teardown on its next iteration, then closes Done.
func (s *Server) Stop() {
	s.requestShutdown()
}

func (s *Server) shuttingDown() bool {
	return atomic.LoadInt32(&s.shutdown) != 0
}

// Run drives the tick loop at cfg.TickRate Hz until Stop is called or
// requestShutdown fires from an admin command. Blocks the calling
// goroutine.
func (s *Server) Run() {
	rate := s.cfg.TickRate
	if rate <= 0 {
		rate = 20
	}
	period := time.Second / time.Duration(rate)
	ticker := time.NewTicker(period)
	defer ticker.Stop()

	logger.Printf("listening on %s (tick rate %dHz, max players %d)", s.host.Addr(), rate, s.cfg.MaxPlayers)

	for {
		select {
		case <-ticker.C:
			s.onTick(float32(period.Seconds()), period)
			if s.shuttingDown() {
				s.Shutdown()
				close(s.done)
				return
			}
		}
	}
}

// Done reports a channel closed once Run has fully exited.
func (s *Server) Done() <-chan struct{} { return s.done }

// onTick executes the server's five-step per-tick sequence.
func (s *Server) onTick(dt float32, period time.Duration) {
	s.drainAdmin()
	s.host.Poll(s.handleEvent)

	s.tick++
	s.mu.Lock()
	s.timeOfDay += dt * s.cfg.GameSpeed / 86400
	if s.timeOfDay >= 1 {
		s.timeOfDay -= float32(int(s.timeOfDay))
	}
	s.weatherState = s.weather.Advance(float64(dt) * float64(s.cfg.GameSpeed))
	s.mu.Unlock()

	s.broadcastPositions()

	s.sinceTimeSync += period
	if s.sinceTimeSync >= TimeSyncInterval {
		s.sinceTimeSync = 0
		s.broadcastTimeSync()
	}

	s.refreshPing()

	if s.cfg.SaveIntervalSec > 0 {
		s.sinceSave += period
		if s.sinceSave >= time.Duration(s.cfg.SaveIntervalSec)*time.Second {
			s.sinceSave = 0
			if err := s.saveWorld(); err != nil {
				logger.Printf("scheduled save failed: %v", err)
			}
		}
	}
}

// refreshPing copies each peer's RTT estimate into ConnectedPlayer.PingMS.
func (s *Server) refreshPing() {
	for _, p := range s.players.All() {
		if rp, ok := p.Peer.(transport.PingPeer); ok {
			p.PingMS = rp.RTTMillis()
		}
	}
}

// broadcastPositions composes one interest-filtered S2C_PositionUpdate
// per connected player.
func (s *Server) broadcastPositions() {
	all := s.entities.All()
	byID := make(map[protocol.EntityID]*ServerEntity, len(all))
	for _, e := range all {
		byID[e.ID] = e
	}
	zoneOf := func(id protocol.EntityID) protocol.ZoneCoord {
		if e, ok := byID[id]; ok {
			return e.Zone
		}
		return protocol.ZoneCoord{}
	}

	for _, p := range s.players.All() {
		s.zones.OnPlayerMoved(p.ID, p.Zone)
		candidates := make([]protocol.EntityID, 0, len(all))
		for _, e := range all {
			if e.Owner != p.ID {
				candidates = append(candidates, e.ID)
			}
		}
		visible := s.zones.EntitiesForPlayer(p.ID, zoneOf, candidates)

		var entries []protocol.CharacterPosition
		for _, id := range visible {
			e := byID[id]
			entries = append(entries, protocol.CharacterPosition{
				EntityID:       e.ID,
				Position:       e.Position,
				CompressedQuat: protocol.CompressQuat(e.Rotation),
				AnimStateID:    e.AnimState,
				MoveSpeed:      e.MoveSpeed,
				Flags:          e.Flags,
			})
			if len(entries) == protocol.MaxPositionBatch {
				s.sendPositionBatch(p.ID, entries)
				entries = nil
			}
		}
		if len(entries) > 0 {
			s.sendPositionBatch(p.ID, entries)
		}
	}
}

func (s *Server) sendPositionBatch(to protocol.PlayerID, entries []protocol.CharacterPosition) {
	data := encode(protocol.S2CPositionUpdate, s.tick, func(w *protocol.Writer) {
		protocol.EncodeS2CPositionUpdate(w, 0, entries)
	})
	s.sendTo(to, transport.ChannelUnreliableSequenced, data)
}

func (s *Server) broadcastTimeSync() {
	s.mu.Lock()
	tod, weather := s.timeOfDay, s.weatherState
	s.mu.Unlock()
	gameSpeed := uint8(s.cfg.GameSpeed)
	if gameSpeed == 0 {
		gameSpeed = 1
	}
	data := encode(protocol.S2CTimeSync, s.tick, func(w *protocol.Writer) {
		protocol.MsgTimeSync{ServerTick: s.tick, TimeOfDay: tod, WeatherState: weather, GameSpeed: gameSpeed}.Encode(w)
	})
	s.broadcast(transport.ChannelReliableOrdered, data)
}

// Shutdown saves the world, then closes the transport host. No
// disconnect notice is sent to peers and there is no drain period.
func (s *Server) Shutdown() {
	if err := s.saveWorld(); err != nil {
		logger.Printf("shutdown save failed: %v", err)
	}
	s.host.Shutdown()
}

// Status is a point-in-time snapshot for the operator dashboard.
type Status struct {
	Tick           uint32  `json:"tick"`
	Players        int     `json:"players"`
	MaxPlayers     int     `json:"maxPlayers"`
	Entities       int     `json:"entities"`
	TimeOfDay      float32 `json:"timeOfDay"`
	WeatherState   int32   `json:"weatherState"`
	ServerName     string  `json:"serverName"`
}

func (s *Server) Status() Status {
	s.mu.Lock()
	tod, weather := s.timeOfDay, s.weatherState
	s.mu.Unlock()
	return Status{
		Tick:         s.tick,
		Players:      s.players.Count(),
		MaxPlayers:   s.cfg.MaxPlayers,
		Entities:     s.entities.Count(),
		TimeOfDay:    tod,
		WeatherState: weather,
		ServerName:   s.cfg.ServerName,
	}
}
