// Command duallink-receiver runs the DualLink receiver: it generates a
// TLS identity and pairing PIN, fans out one session per display (spec
// §4.H), and builds and logs its mDNS TXT record. No mDNS announcement is
// sent on the network.
//
// Grounded on _examples/LanternOps-breeze/apps/agent's cobra root-command
// bootstrap: a root command wired to a RunE that loads config via viper,
// builds a zap logger, and hands off to the long-running supervisor.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/duallink/duallink/internal/config"
	"github.com/duallink/duallink/internal/logging"
	"github.com/duallink/duallink/internal/mdns"
	"github.com/duallink/duallink/internal/ports"
	"github.com/duallink/duallink/internal/supervisor"
)

var (
	flagDisplays int
	flagDevMode  bool
)

func main() {
	root := &cobra.Command{
		Use:   "duallink-receiver",
		Short: "Run the DualLink screen-mirroring receiver",
		RunE:  runReceiver,
	}
	root.Flags().IntVar(&flagDisplays, "displays", 0, "number of displays to serve (overrides DUALLINK_DISPLAY_COUNT; clamped to [1,8])")
	root.Flags().BoolVar(&flagDevMode, "dev", false, "use human-readable console logging instead of JSON")

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func runReceiver(cmd *cobra.Command, args []string) error {
	var log *zap.Logger
	var err error
	if flagDevMode {
		log, err = logging.NewDevelopment("receiver")
	} else {
		log, err = logging.New("receiver", logging.LevelInfo)
	}
	if err != nil {
		return fmt.Errorf("receiver: init logger: %w", err)
	}
	defer log.Sync() //nolint:errcheck

	cfg, err := config.LoadReceiverConfig()
	if err != nil {
		return fmt.Errorf("receiver: load config: %w", err)
	}
	displayCount := cfg.DisplayCount
	if flagDisplays > 0 {
		displayCount = config.ClampDisplayCount(flagDisplays)
	}

	sup, err := supervisor.New(displayCount, supervisor.NoopDecoderFactory, log)
	if err != nil {
		return fmt.Errorf("receiver: build supervisor: %w", err)
	}

	id := sup.Identity()
	log.Info("receiver identity generated",
		zap.String("pairing_pin", id.PairingPIN),
		zap.String("tls_fingerprint", id.TLSFingerprint),
	)

	for i := 0; i < displayCount; i++ {
		d := sup.Display(i)
		if ports.ProbeFree(d.SignalPort) || ports.ProbeFree(d.VideoPort) {
			log.Warn("receiver: a port for this display looks already bound; a previous run may not have exited cleanly",
				zap.Int("display_index", i),
				zap.Int("video_port", d.VideoPort),
				zap.Int("signal_port", d.SignalPort),
			)
		}
	}

	if txt, err := mdns.NewTXTRecord(displayCount, d0SignalPort(sup), id.TLSFingerprint); err != nil {
		log.Warn("receiver: mdns TXT record build failed, continuing without advertisement", zap.Error(err))
	} else {
		log.Info("receiver: mdns advertisement ready", zap.Any("txt", txt.Map()), zap.String("service", mdns.ServiceType))
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	log.Info("receiver: starting display sessions", zap.Int("display_count", displayCount))
	if err := sup.Run(ctx); err != nil {
		return fmt.Errorf("receiver: %w", err)
	}
	log.Info("receiver: all displays reached terminal state, exiting")
	return nil
}

func d0SignalPort(sup *supervisor.Supervisor) int {
	d := sup.Display(0)
	if d == nil {
		return 0
	}
	return d.SignalPort
}
