// SPDX-FileCopyrightText: 2021 Softbear, Inc.
// SPDX-License-Identifier: AGPL-3.0-or-later

// Command kenshimpd is the dedicated replication-core server.
// Grounded on server_main/main.go's flag-parsed startup plus
// `go hub.Run()`; the console's "start on a goroutine, drive from
// stdin, shut down on signal" shape is the same, restructured around
// this domain's config-file argument instead of flags.
package main

import (
	"bufio"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/kenshimp/replicore/config"
	"github.com/kenshimp/replicore/gameserver"
	"github.com/kenshimp/replicore/status"
)

func main() {
	path := "server.json"
	if len(os.Args) > 1 {
		path = os.Args[1]
	}

	cfg, err := config.Load(path)
	if err != nil {
		log.Fatalf("kenshimpd: %v", err)
	}

	srv, err := gameserver.New(cfg)
	if err != nil {
		log.Fatalf("kenshimpd: %v", err)
	}

	if cfg.Status.Enabled {
		dash := status.NewDashboard(func() interface{} { return srv.Status() })
		go func() {
			if err := dash.ListenAndServe(cfg.Status.Address); err != nil {
				log.Printf("kenshimpd: status dashboard stopped: %v", err)
			}
		}()
	}

	go srv.Run()
	go runConsole(srv)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	select {
	case <-sigCh:
		log.Println("kenshimpd: signal received, shutting down")
		srv.Stop()
		<-srv.Done()
	case <-srv.Done():
	}
}

// runConsole reads admin commands from stdin and enqueues them for the
// tick loop to apply; it never mutates server state directly.
func runConsole(srv *gameserver.Server) {
	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			continue
		}
		reply := make(chan string, 1)
		srv.Enqueue(gameserver.AdminCommand{Line: line, Reply: reply})
		if text, ok := <-reply; ok {
			fmt.Println(text)
		}
	}
}
