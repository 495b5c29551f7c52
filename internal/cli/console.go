package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/simdrive/simdrive/internal/config"
	"github.com/simdrive/simdrive/internal/console"
	"github.com/simdrive/simdrive/internal/logging"
	"github.com/simdrive/simdrive/internal/sim"
)

var (
	consoleHost     string
	consolePort     int
	consoleSettings string
	consoleVerbose  bool
)

var consoleCmd = &cobra.Command{
	Use:   "console",
	Short: "Interactive protocol console",
	Long: `Opens a line console for driving the server one protocol call at a
time: negotiate an episode, start it, read measurements, send controls.
Synchronous stepping is always on, so reads and controls must alternate.`,
	RunE: runConsole,
}

func init() {
	consoleCmd.Flags().StringVar(&consoleHost, "host", config.DefaultHost, "IP of the host server")
	consoleCmd.Flags().IntVarP(&consolePort, "port", "p", config.DefaultPort, "TCP port to connect to")
	consoleCmd.Flags().StringVar(&consoleSettings, "settings", "", "episode settings YAML file")
	consoleCmd.Flags().BoolVarP(&consoleVerbose, "verbose", "v", false, "print debug information")

	rootCmd.AddCommand(consoleCmd)
}

func runConsole(cmd *cobra.Command, args []string) error {
	cfg := config.Client{
		Host:     consoleHost,
		Port:     consolePort,
		Episodes: config.DefaultEpisodes,
		Frames:   config.DefaultFrames,
	}
	if err := config.ValidateClient(&cfg); err != nil {
		return err
	}

	episode, err := config.LoadEpisode(consoleSettings)
	if err != nil {
		return err
	}

	if consoleVerbose {
		logging.SetLevel(logging.LevelDebug)
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	c := console.New(console.Options{
		In:  os.Stdin,
		Out: os.Stdout,
		Dial: func(ctx context.Context) (sim.Conn, error) {
			return sim.Dial(ctx, cfg.Host, cfg.Port)
		},
		Episode: episode,
	})
	return c.Run(ctx)
}
