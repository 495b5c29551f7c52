package cli

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/simdrive/simdrive/internal/config"
	"github.com/simdrive/simdrive/internal/imagedump"
	"github.com/simdrive/simdrive/internal/logging"
	"github.com/simdrive/simdrive/internal/report"
	"github.com/simdrive/simdrive/internal/session"
	"github.com/simdrive/simdrive/internal/sim"
)

var (
	runHost      string
	runPort      int
	runEpisodes  int
	runFrames    int
	runAutopilot bool
	runImages    bool
	runImageDir  string
	runSettings  string
	runVerbose   bool
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the episode/frame session loop",
	Long: `Connects to the server and runs the configured number of episodes,
each a fixed number of synchronously-stepped frames. Any connection or
protocol failure discards the session and reconnects after a short backoff,
indefinitely, until the run completes or an interrupt is received.

Example:
  simdrive run
  simdrive run --host 10.0.0.7 -p 2000 -a -i
  simdrive run --settings episode.yaml --episodes 5 --frames 100`,
	RunE: runRun,
}

func init() {
	runCmd.Flags().StringVar(&runHost, "host", config.DefaultHost, "IP of the host server")
	runCmd.Flags().IntVarP(&runPort, "port", "p", config.DefaultPort, "TCP port to connect to")
	runCmd.Flags().IntVar(&runEpisodes, "episodes", config.DefaultEpisodes, "number of episodes to run")
	runCmd.Flags().IntVar(&runFrames, "frames", config.DefaultFrames, "frames per episode")
	runCmd.Flags().BoolVarP(&runAutopilot, "autopilot", "a", false, "relay the server's autopilot control")
	runCmd.Flags().BoolVarP(&runImages, "images-to-disk", "i", false, "save sensor images to disk")
	runCmd.Flags().StringVar(&runImageDir, "image-dir", config.DefaultImageDir, "base directory for saved images")
	runCmd.Flags().StringVar(&runSettings, "settings", "", "episode settings YAML file")
	runCmd.Flags().BoolVarP(&runVerbose, "verbose", "v", false, "print debug information")

	rootCmd.AddCommand(runCmd)
}

func runRun(cmd *cobra.Command, args []string) error {
	cfg := config.Client{
		Host:         runHost,
		Port:         runPort,
		Episodes:     runEpisodes,
		Frames:       runFrames,
		Autopilot:    runAutopilot,
		ImagesToDisk: runImages,
		ImageDir:     runImageDir,
	}
	if err := config.ValidateClient(&cfg); err != nil {
		return err
	}

	episode, err := config.LoadEpisode(runSettings)
	if err != nil {
		return err
	}

	if runVerbose {
		logging.SetLevel(logging.LevelDebug)
	}
	log := logging.Default()
	log.Info("connecting to server", "host", cfg.Host, "port", cfg.Port)

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	rng := rand.New(rand.NewSource(time.Now().UnixNano()))

	var policy session.Policy
	if cfg.Autopilot {
		policy = session.NewAutopilotRelayPolicy(rng)
	} else {
		policy = session.NewManualPolicy(rng)
	}

	printer := report.NewPrinter()

	var images *imagedump.Writer
	if cfg.ImagesToDisk {
		images = imagedump.NewWriter(cfg.ImageDir)
	}

	orch := session.New(session.Options{
		Dial: func(ctx context.Context) (sim.Conn, error) {
			return sim.Dial(ctx, cfg.Host, cfg.Port)
		},
		Policy:        policy,
		EpisodeConfig: episode.Build,
		Episodes:      cfg.Episodes,
		Frames:        cfg.Frames,
		Rand:          rng,
		Log:           log,
		OnFrame: func(ev session.FrameEvent) {
			printer.Print(&ev.Bundle.Player)
			if images != nil {
				if err := images.SaveAll(ev.Episode, ev.Frame, ev.Sensors); err != nil {
					log.Warn("failed to save sensor images", "err", err)
				}
			}
		},
	})

	if err := orch.Run(ctx); err != nil {
		var se *sim.Error
		if errors.As(err, &se) && se.Kind == sim.KindTermination {
			printer.Finish()
			fmt.Println("Cancelled by user. Bye!")
			return nil
		}
		return err
	}

	printer.Finish()
	fmt.Println("Done.")
	return nil
}
