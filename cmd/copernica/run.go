// Copyright (C) 2025 sage-x-project
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as
// published by the Free Software Foundation, either version 3 of the
// License, or (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with this program. If not, see <https://www.gnu.org/licenses/>.

// SPDX-License-Identifier: LGPL-3.0-or-later

package main

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/netip"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/fractalide/copernica/config"
	"github.com/fractalide/copernica/copernica"
	"github.com/fractalide/copernica/identity"
	"github.com/fractalide/copernica/internal/logger"
	"github.com/fractalide/copernica/internal/metrics"
	"github.com/fractalide/copernica/link"
	"github.com/fractalide/copernica/link/mpsc"
	"github.com/fractalide/copernica/link/udp"
	"github.com/fractalide/copernica/linkpacket"
	"github.com/fractalide/copernica/pkg/store"
	memstore "github.com/fractalide/copernica/pkg/store/memory"
	pgstore "github.com/fractalide/copernica/pkg/store/postgres"
	"github.com/fractalide/copernica/router"
)

var runConfigPath string

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a Copernica node from a topology config",
	Long: `Run brings up every link named in the config file, a Router sized by
its bloom settings, and the content store backend it selects, then
blocks forwarding packets between links until interrupted.`,
	Example: `  copernica run --config node.yaml`,
	RunE:    runRun,
}

func init() {
	rootCmd.AddCommand(runCmd)
	runCmd.Flags().StringVarP(&runConfigPath, "config", "c", "", "Path to the node's YAML config file")
	_ = runCmd.MarkFlagRequired("config")
}

func runRun(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(config.LoaderOptions{Path: runConfigPath})
	if err != nil {
		return fmt.Errorf("run: %w", err)
	}
	configureLogging(cfg.Logging)

	nodeIdentity, err := loadOrGenerateIdentity(cfg.Node.ID)
	if err != nil {
		return fmt.Errorf("run: %w", err)
	}
	logger.Info("run: node identity ready", logger.String("short_id", nodeIdentity.PublicID().ID()))

	ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	contentStore, closeStore, err := buildStore(ctx, cfg.Store)
	if err != nil {
		return fmt.Errorf("run: %w", err)
	}
	if closeStore != nil {
		defer closeStore()
	}

	r := router.New(cfg.Bloom.Bits, cfg.Bloom.MatchThreshold)
	core := copernica.New(r)

	for _, lc := range cfg.Links {
		if err := peerLink(core, lc, nodeIdentity); err != nil {
			return fmt.Errorf("run: %w", err)
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return core.Run(gctx, contentStore) })
	g.Go(func() error { return serveMetrics(gctx, cfg.Metrics.Listen) })

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("run: %w", err)
	}
	return nil
}

func configureLogging(cfg config.LoggingConfig) {
	l := logger.GetDefaultLogger()
	l.SetLevel(levelFromString(cfg.Level))
	l.SetPrettyPrint(cfg.Pretty)
}

func levelFromString(s string) logger.Level {
	switch s {
	case "debug":
		return logger.DebugLevel
	case "warn":
		return logger.WarnLevel
	case "error":
		return logger.ErrorLevel
	case "fatal":
		return logger.FatalLevel
	default:
		return logger.InfoLevel
	}
}

// loadOrGenerateIdentity reconstitutes a PrivateIdentity from a hex-encoded
// seed-and-chain-code pair (the format copernica keygen prints), or
// generates a fresh one when hexID is empty.
func loadOrGenerateIdentity(hexID string) (identity.PrivateIdentity, error) {
	if hexID == "" {
		return identity.Generate()
	}
	raw, err := hex.DecodeString(hexID)
	if err != nil {
		return identity.PrivateIdentity{}, fmt.Errorf("decode node.id: %w", err)
	}
	if len(raw) != 64 {
		return identity.PrivateIdentity{}, fmt.Errorf("node.id must decode to 64 bytes (seed||chain_code), got %d", len(raw))
	}
	var seed, chainCode [32]byte
	copy(seed[:], raw[:32])
	copy(chainCode[:], raw[32:])
	return identity.FromSeed(seed, chainCode)
}

func buildStore(ctx context.Context, cfg config.StoreConfig) (store.ContentStore, func(), error) {
	switch cfg.Backend {
	case config.StoreBackendPostgres:
		pg, err := pgstore.NewStore(ctx, pgstore.Config{
			Host:     cfg.Postgres.Host,
			Port:     cfg.Postgres.Port,
			User:     cfg.Postgres.User,
			Password: cfg.Postgres.Password,
			Database: cfg.Postgres.Database,
			SSLMode:  cfg.Postgres.SSLMode,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("open postgres store: %w", err)
		}
		if err := pg.EnsureSchema(ctx); err != nil {
			pg.Close()
			return nil, nil, fmt.Errorf("ensure postgres schema: %w", err)
		}
		return pg, pg.Close, nil
	case config.StoreBackendMemory:
		return memstore.NewStore(), nil, nil
	default:
		return nil, nil, fmt.Errorf("unknown store backend %q", cfg.Backend)
	}
}

// peerLink registers lc with core. Every configured link is assigned a
// fresh UUID-derived LinkID rather than reusing its config name directly,
// following the teacher's use of github.com/google/uuid for identifier
// generation; the config name is kept only for operator-facing logging.
func peerLink(core *copernica.Copernica, lc config.LinkConfig, nodeIdentity identity.PrivateIdentity) error {
	id := linkpacket.NewLinkID(uuid.NewString())

	switch lc.Kind {
	case config.LinkKindMpsc:
		core.Peer(id, func(t2c chan<- linkpacket.InterLinkPacket, c2t <-chan linkpacket.InterLinkPacket) link.Link {
			return mpsc.New(id, t2c, c2t)
		})
	case config.LinkKindUDP:
		addr, err := netip.ParseAddrPort(lc.Listen)
		if err != nil {
			host, port, splitErr := net.SplitHostPort(lc.Listen)
			if splitErr != nil {
				return fmt.Errorf("link %q: parse listen address %q: %w", lc.Name, lc.Listen, err)
			}
			resolved, resolveErr := net.ResolveIPAddr("ip", host)
			if resolveErr != nil {
				return fmt.Errorf("link %q: resolve %q: %w", lc.Name, host, resolveErr)
			}
			addrPort, parseErr := netip.ParseAddrPort(fmt.Sprintf("%s:%s", resolved.IP, port))
			if parseErr != nil {
				return fmt.Errorf("link %q: build listen address: %w", lc.Name, parseErr)
			}
			addr = addrPort
		}

		conn, err := udp.Listen(addr)
		if err != nil {
			return fmt.Errorf("link %q: %w", lc.Name, err)
		}
		core.Peer(id, func(t2c chan<- linkpacket.InterLinkPacket, c2t <-chan linkpacket.InterLinkPacket) link.Link {
			return udp.New(id, conn, t2c, c2t, nodeIdentity, nil)
		})
	default:
		return fmt.Errorf("link %q: unknown kind %q", lc.Name, lc.Kind)
	}

	logger.Info("run: link registered", logger.String("name", lc.Name), logger.String("id", id.String()), logger.String("kind", string(lc.Kind)))
	return nil
}

func serveMetrics(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())
	srv := &http.Server{Addr: addr, Handler: mux}

	go func() {
		<-ctx.Done()
		srv.Close()
	}()

	logger.Info("run: serving metrics", logger.String("listen", addr))
	err := srv.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return ctx.Err()
	}
	return err
}
