// teld is the telescope mount control daemon. It owns the serial link to
// the mount controller and exposes a JSON HTTP API, a websocket status feed,
// Prometheus metrics and a plain-text TCP command interface.
package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/warwick-one-metre/rasa-teld/config"
	"github.com/warwick-one-metre/rasa-teld/internal/metrics"
	"github.com/warwick-one-metre/rasa-teld/mount"
	"github.com/warwick-one-metre/rasa-teld/power"
	"github.com/warwick-one-metre/rasa-teld/telescope"
)

var (
	configPath = flag.String("config", "/etc/teld/teld.json", "path to the config file")
	simulate   = flag.Bool("simulate", false, "use a simulated mount instead of the serial controller")
)

func main() {
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal(err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var ch mount.Channel
	if *simulate {
		ch = mount.NewSimulator(cfg.SimulatorConfig())
	} else {
		ch = mount.NewSerial(cfg.SerialConfig())
	}

	sup := telescope.NewSupervisor(ch, cfg.SupervisorConfig())
	sup.Metrics = metrics.New(nil)

	srv := NewServer(sup)
	sup.StatusCallback = srv.statusCallback

	if cfg.Power.Enabled {
		pm, err := power.Connect(ctx, cfg.Power.Port, cfg.Power.Baud, cfg.Power.SlaveID, nil)
		if err != nil {
			log.Fatalf("connecting to PDU on %q: %v", cfg.Power.Port, err)
		}
		srv.pm = pm
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return sup.Run(ctx) })
	g.Go(func() error { return srv.ListenHTTP(ctx, cfg.Daemon.HTTPAddr) })
	g.Go(func() error { return srv.ListenText(ctx, cfg.Daemon.ListenAddr) })

	log.Printf("teld listening on http %s, tcp %s", cfg.Daemon.HTTPAddr, cfg.Daemon.ListenAddr)
	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		log.Fatal(err)
	}
}
