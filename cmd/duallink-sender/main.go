// Command duallink-sender pairs with a receiver display, negotiates a
// stream, opens the UDP video socket, and keeps the signaling session
// alive with keepalives (spec §4.F). No Encoder/Capturer is wired, so no
// video frames are sent, and input events received from the receiver are
// only logged, not injected.
//
// Grounded on _examples/LanternOps-breeze/apps/agent's cobra root-command
// bootstrap, mirrored from cmd/duallink-receiver/main.go.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/duallink/duallink/internal/config"
	"github.com/duallink/duallink/internal/logging"
	"github.com/duallink/duallink/internal/ports"
	"github.com/duallink/duallink/internal/signaling/client"
	"github.com/duallink/duallink/internal/transport/udp"
	"github.com/duallink/duallink/internal/utils"
)

var (
	flagHost         string
	flagPIN          string
	flagDisplayIndex int
	flagDevMode      bool
)

func main() {
	root := &cobra.Command{
		Use:   "duallink-sender",
		Short: "Pair with a DualLink receiver and stream one display",
		RunE:  runSender,
	}
	root.Flags().StringVar(&flagHost, "host", "", "receiver host or IP (overrides DUALLINK_HOST)")
	root.Flags().StringVar(&flagPIN, "pin", "", "6-digit pairing PIN shown on the receiver (overrides DUALLINK_PIN)")
	root.Flags().IntVar(&flagDisplayIndex, "display-index", -1, "display index to pair with (overrides DUALLINK_DISPLAY_INDEX)")
	root.Flags().BoolVar(&flagDevMode, "dev", false, "use human-readable console logging instead of JSON")

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func runSender(cmd *cobra.Command, args []string) error {
	var log *zap.Logger
	var err error
	if flagDevMode {
		log, err = logging.NewDevelopment("sender")
	} else {
		log, err = logging.New("sender", logging.LevelInfo)
	}
	if err != nil {
		return fmt.Errorf("sender: init logger: %w", err)
	}
	defer log.Sync() //nolint:errcheck

	cfg, err := config.LoadSenderConfig()
	if err != nil {
		return fmt.Errorf("sender: load config: %w", err)
	}
	if flagHost != "" {
		cfg.Host = flagHost
	}
	if flagPIN != "" {
		cfg.PairingPIN = flagPIN
	}
	if flagDisplayIndex >= 0 {
		cfg.DisplayIndex = flagDisplayIndex
	}
	if cfg.Host == "" {
		return fmt.Errorf("sender: no receiver host configured (set --host or DUALLINK_HOST)")
	}

	signalPort := ports.Signaling(cfg.DisplayIndex)
	videoPort := ports.Video(cfg.DisplayIndex)

	log.Info("sender: connecting",
		zap.String("host", cfg.Host),
		zap.Int("signal_port", signalPort),
		zap.Int("display_index", cfg.DisplayIndex),
	)

	sc, err := client.Connect(cfg.Host, signalPort, log)
	if err != nil {
		return fmt.Errorf("sender: connect: %w", err)
	}
	defer sc.Close()

	log.Info("sender: TLS handshake complete (trust-on-first-use)", zap.String("peer_fingerprint", sc.PeerFingerprint))

	sessionID := newSessionID()
	streamCfg := cfg.StreamConfig()
	result, err := sc.SendHello(sessionID, "duallink-sender", streamCfg, cfg.PairingPIN, uint8(cfg.DisplayIndex))
	if err != nil {
		return fmt.Errorf("sender: hello handshake: %w", err)
	}
	if !result.Accepted {
		return fmt.Errorf("sender: receiver rejected hello: %s", result.Reason)
	}
	log.Info("sender: paired", zap.String("session_id", result.SessionID))

	egress, err := udp.Dial(fmt.Sprintf("%s:%d", cfg.Host, videoPort), uint8(cfg.DisplayIndex))
	if err != nil {
		return fmt.Errorf("sender: dial video socket: %w", err)
	}
	defer egress.Close()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	inputEvents := sc.StartRecvLoop()
	utils.GoSafe(log, "sender-input-events", func() {
		for ev := range inputEvents {
			log.Debug("sender: input event received", zap.String("kind", string(ev.Type)))
			// Delivering ev to a concrete adapter.Injector is out of
			// scope here (spec §1, §6); a real sender wires one in.
		}
	})

	writer := sc.Writer()
	keepaliveTicker := time.NewTicker(2 * time.Second)
	defer keepaliveTicker.Stop()

	log.Info("sender: streaming started; no Encoder/Capturer is wired in this build, so only keepalives are sent",
		zap.Uint64("max_bitrate_bps", streamCfg.MaxBitrateBps),
	)

	for {
		select {
		case <-ctx.Done():
			_ = writer.SendStop(result.SessionID)
			log.Info("sender: shutting down")
			return nil
		case <-keepaliveTicker.C:
			if err := writer.SendKeepalive(uint64(time.Now().UnixMilli())); err != nil {
				return fmt.Errorf("sender: keepalive: %w", err)
			}
		}
	}
}

func newSessionID() string {
	return uuid.NewString()
}
