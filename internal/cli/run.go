package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"golang.org/x/term"

	"github.com/liveprof/liveprof/internal/config"
	"github.com/liveprof/liveprof/internal/logging"
	"github.com/liveprof/liveprof/internal/workload"
	"github.com/liveprof/liveprof/live"
	"github.com/liveprof/liveprof/profile"
	"github.com/liveprof/liveprof/render"
	"github.com/liveprof/liveprof/sink"
)

var (
	runConfigPath string
	runWorkload   string
	runDuration   time.Duration
	runInterval   time.Duration
	runTopN       int
	runMode       string
	runWidth      int
	runNoColor    bool
	runStreamAddr string
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a demo workload under live reporting",
	Long: `Runs a synthetic workload while the runtime snapshot table updates in
place on the terminal. The final snapshot stays on screen when the
workload completes or is interrupted.

Available workloads: ` + strings.Join(workload.Names(), ", ") + `.

Example:
  liveprof run
  liveprof run --workload alloc --duration 10s --interval 50ms
  liveprof run --mode append --no-color
  liveprof run --stream 127.0.0.1:8998`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runProfiled(cmd)
	},
}

func init() {
	runCmd.Flags().StringVar(&runConfigPath, "config", "liveprof.yaml", "path to config file")
	runCmd.Flags().StringVar(&runWorkload, "workload", "mixed", "workload to run")
	runCmd.Flags().DurationVar(&runDuration, "duration", 5*time.Second, "how long to run the workload")
	runCmd.Flags().DurationVar(&runInterval, "interval", 0, "refresh interval (overrides config)")
	runCmd.Flags().IntVar(&runTopN, "top", 0, "allocation rows to show (overrides config)")
	runCmd.Flags().StringVar(&runMode, "mode", "", "display mode: live, append, or final (overrides config)")
	runCmd.Flags().IntVar(&runWidth, "width", 0, "frame width (overrides config)")
	runCmd.Flags().BoolVar(&runNoColor, "no-color", false, "disable ANSI colors")
	runCmd.Flags().StringVar(&runStreamAddr, "stream", "", "also serve frames over websocket on this address (overrides config)")

	rootCmd.AddCommand(runCmd)
}

func runProfiled(cmd *cobra.Command) error {
	cfg, err := config.Load(runConfigPath)
	if err != nil {
		return err
	}
	applyFlagOverrides(cfg, cmd.Flags())
	if err := config.Validate(cfg); err != nil {
		return err
	}

	level, err := logging.ParseLevel(cfg.LogLevel)
	if err != nil {
		return err
	}
	logging.SetLevel(level)

	displaySink, cleanup, err := buildSink(cfg, os.Stdout)
	if err != nil {
		return err
	}
	defer cleanup()

	// Redirected output gets plain text even when color is on.
	color := cfg.Color && term.IsTerminal(int(os.Stdout.Fd()))

	ctrl, err := live.New(live.Options{
		Interval: cfg.Interval(),
		Source:   profile.NewSampler(cfg.TopN),
		Renderer: render.NewTable(cfg.Width, color),
		Sink:     displaySink,
		Errors:   sink.NewLogErrors(logging.With("component", "live")),
	})
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err = ctrl.Run(func() error {
		return workload.Run(ctx, runWorkload, runDuration)
	})
	if errors.Is(err, context.Canceled) {
		// Interrupted by the user; the final snapshot was still shown.
		return nil
	}
	if err != nil {
		return fmt.Errorf("run: %w", err)
	}
	return nil
}

// applyFlagOverrides lets explicitly set flags win over the config file.
func applyFlagOverrides(cfg *config.Config, flags *pflag.FlagSet) {
	if flags.Changed("interval") {
		cfg.IntervalMillis = int(runInterval / time.Millisecond)
	}
	if flags.Changed("top") {
		cfg.TopN = runTopN
	}
	if flags.Changed("mode") {
		cfg.Mode = runMode
	}
	if flags.Changed("width") {
		cfg.Width = runWidth
	}
	if flags.Changed("no-color") && runNoColor {
		cfg.Color = false
	}
	if flags.Changed("stream") {
		cfg.StreamAddr = runStreamAddr
	}
}

// buildSink constructs the display sink for the configured mode, fanning
// out to a websocket stream when one is configured. The returned cleanup
// must be called when reporting is done.
func buildSink(cfg *config.Config, out *os.File) (live.Sink, func() error, error) {
	var display live.Sink
	switch cfg.Mode {
	case config.ModeLive:
		display = sink.NewLive(out)
	case config.ModeAppend:
		display = sink.NewAppend(out)
	case config.ModeFinal:
		display = sink.NewFinalOnly(sink.NewAppend(out))
	default:
		return nil, nil, config.ValidationError{Field: "mode", Message: "must be live, append, or final"}
	}

	cleanup := func() error { return nil }
	if cfg.StreamAddr != "" {
		stream, err := sink.NewStream(cfg.StreamAddr)
		if err != nil {
			return nil, nil, err
		}
		display = sink.NewMulti(display, stream)
		cleanup = stream.Close
	}
	return display, cleanup, nil
}
