package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/opencode-ai/illo/internal/control"
	"github.com/opencode-ai/illo/internal/logging"
	"github.com/opencode-ai/illo/internal/palette"
	"github.com/opencode-ai/illo/internal/renderer"
	"github.com/opencode-ai/illo/internal/source"
	"github.com/opencode-ai/illo/internal/tui"
	"github.com/opencode-ai/illo/internal/watch"
	"github.com/opencode-ai/illo/internal/worker"
	"github.com/spf13/cobra"
)

var (
	playWidth       int
	playHeight      int
	playDuration    time.Duration
	playScheme      string
	playDynamic     bool
	playStatic      bool
	playWatch       bool
	playProcess     bool
	playEventSocket string
	playTUI         bool
	playListen      string
)

func init() {
	rootCmd.AddCommand(playCmd)
	playCmd.Flags().IntVar(&playWidth, "width", 320, "surface width in CSS pixels")
	playCmd.Flags().IntVar(&playHeight, "height", 240, "surface height in CSS pixels")
	playCmd.Flags().DurationVar(&playDuration, "duration", 0, "stop after this long (default: until interrupted)")
	playCmd.Flags().StringVar(&playScheme, "scheme", "", "initial color scheme (default from config)")
	playCmd.Flags().BoolVar(&playDynamic, "dynamic", false, "recolor the animation from the palette")
	playCmd.Flags().BoolVar(&playStatic, "static", false, "render with the colors bundled in the asset")
	playCmd.Flags().BoolVar(&playWatch, "watch", false, "reload the animation when a local source changes")
	playCmd.Flags().BoolVar(&playProcess, "process", false, "run the worker in a subprocess")
	playCmd.Flags().StringVar(&playEventSocket, "event-socket", "", "also stream events to this unix socket")
	playCmd.Flags().BoolVar(&playTUI, "tui", false, "open the interactive player")
	playCmd.Flags().StringVar(&playListen, "listen", "", "serve remote control on unix:///path or host:port (default control.listen)")
	playCmd.MarkFlagsMutuallyExclusive("dynamic", "static")
}

var playCmd = &cobra.Command{
	Use:   "play [source]",
	Short: "Play an animation on a headless worker",
	Long: `Drive an animation through the controller lifecycle on a headless worker.

The source defaults to renderer.source from the config. Send SIGUSR1 to toggle
between the light and dark schemes while playing.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		cfg := GetConfig()
		logger := logging.Component("play")

		src := cfg.Renderer.Source
		if len(args) > 0 {
			src = args[0]
		}
		if strings.TrimSpace(src) == "" {
			return &PreflightError{
				Message:  "no animation source given",
				Hint:     "pass a path or URL, or set renderer.source in the config",
				NextStep: "illo play welcome.json",
			}
		}
		if playWidth <= 0 || playHeight <= 0 {
			return fmt.Errorf("surface size must be positive, got %dx%d", playWidth, playHeight)
		}

		theme, err := loadTheme(cfg, playScheme)
		if err != nil {
			return err
		}
		factory, mode, err := workerFactory(cfg, playProcess)
		if err != nil {
			return err
		}

		if playTUI && (IsJSONOutput() || IsJSONLOutput()) {
			return errors.New("--tui cannot be combined with --json or --jsonl")
		}
		if playTUI && !IsInteractive() {
			return &PreflightError{
				Message: "--tui needs an interactive terminal",
				Hint:    "drop --tui to print events instead",
			}
		}

		var tuiEvents *renderer.ChannelSink
		if playTUI {
			tuiEvents = renderer.NewChannelSink(64)
		}
		sinks, err := playSinks(ctx, tuiEvents, cfg.Journal.Path != "", playEventSocket)
		if err != nil {
			return err
		}

		listen := cfg.Control.Listen
		if cmd.Flags().Changed("listen") {
			listen = playListen
		}
		var hub *control.Hub
		if strings.TrimSpace(listen) != "" {
			hub = control.NewHub(64)
			sinks = append(sinks, hub)
		}
		defer sinks.Close()

		dynamic := cfg.Renderer.Dynamic
		if cmd.Flags().Changed("dynamic") {
			dynamic = playDynamic
		}
		if playStatic {
			dynamic = false
		}

		opts := renderer.DefaultOptions()
		opts.Source = src
		opts.Autoplay = cfg.Renderer.Autoplay
		opts.Loop = cfg.Renderer.Loop
		opts.Dynamic = dynamic
		opts.Tokens = tokenSet(cfg)
		opts.PixelRatio = cfg.Renderer.PixelRatio
		opts.Palette = theme
		opts.Notifier = theme
		opts.WorkerFactory = factory
		opts.EventSink = sinks
		opts.Logger = &logger

		ctrl := renderer.New(opts)
		defer ctrl.Close()

		var daemon *control.Daemon
		if hub != nil {
			daemon, err = newControlDaemon(cfg, listen, ctrl, theme, hub)
			if err != nil {
				return err
			}
		}

		if err := ctrl.Attach(ctx); err != nil {
			return fmt.Errorf("attach %s worker: %w", mode, err)
		}
		bounds := worker.Size{Width: float64(playWidth), Height: float64(playHeight)}
		if err := ctrl.SurfaceReady(worker.NewSurface(playWidth, playHeight), bounds); err != nil {
			return err
		}

		runCtx, cancel := playContext(ctx, playDuration)
		defer cancel()

		var wg sync.WaitGroup
		if cfg.Palette.Watch && strings.TrimSpace(cfg.Palette.File) != "" {
			wg.Add(1)
			go func() {
				defer wg.Done()
				if err := palette.Watch(runCtx, cfg.Palette.File, theme); err != nil {
					logger.Warn().Err(err).Msg("palette watch stopped")
				}
			}()
		}
		if playWatch {
			path, ok := source.LocalPath(src)
			if !ok {
				logger.Warn().Str("source", src).Msg("--watch ignored for remote sources")
			} else {
				wg.Add(1)
				go func() {
					defer wg.Done()
					w := watch.NewFile(path, func(string) { ctrl.SetSource(src) })
					if err := w.Run(runCtx); err != nil {
						logger.Warn().Err(err).Msg("asset watch stopped")
					}
				}()
			}
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			toggleSchemeOnSignal(runCtx, theme, logger)
		}()
		if daemon != nil {
			wg.Add(1)
			go func() {
				defer wg.Done()
				if err := daemon.Run(runCtx); err != nil {
					logger.Error().Err(err).Msg("control server failed")
				}
			}()
		}

		if playTUI {
			err := tui.Run(runCtx, tui.Options{
				Player: ctrl,
				Theme:  theme,
				Events: tuiEvents.Events(),
				Bounds: bounds,
			})
			if err != nil {
				logger.Error().Err(err).Msg("player exited")
			}
			cancel()
		}

		<-runCtx.Done()
		snap := ctrl.Snapshot()
		ctrl.Detach()
		cancel()
		wg.Wait()

		return writeSnapshot(os.Stdout, snap)
	},
}

func playContext(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d > 0 {
		return context.WithTimeout(ctx, d)
	}
	return context.WithCancel(ctx)
}

// playSinks assembles the event sinks for a play session.
func playSinks(ctx context.Context, events *renderer.ChannelSink, journal bool, socket string) (renderer.MultiSink, error) {
	var sinks renderer.MultiSink
	if events != nil {
		sinks = append(sinks, events)
	} else if IsJSONLOutput() {
		sinks = append(sinks, renderer.NewStreamSink(struct{ io.Writer }{os.Stdout}))
	} else if !IsJSONOutput() {
		sinks = append(sinks, &printSink{out: os.Stdout})
	}

	if journal {
		database, err := openJournal(ctx, GetConfig())
		if err != nil {
			sinks.Close()
			return nil, err
		}
		sinks = append(sinks, renderer.NewJournalSink(database, map[string]string{"command": "play"}))
	}

	if strings.TrimSpace(socket) != "" {
		sink, err := renderer.NewSocketSink(socket)
		if err != nil {
			sinks.Close()
			return nil, fmt.Errorf("connect event socket: %w", err)
		}
		sinks = append(sinks, sink)
	}
	return sinks, nil
}

func writeSnapshot(out io.Writer, snap renderer.Snapshot) error {
	if IsJSONOutput() || IsJSONLOutput() {
		return WriteOutput(out, snap)
	}
	rows := [][]string{
		{"State", formatState(snap.State, stdoutIsTerminal())},
		{"Source", snap.Source},
		{"Loaded", formatYesNo(snap.Loaded)},
		{"Surface transferred", formatYesNo(snap.Transferred)},
		{"Tokens", strconv.Itoa(snap.Tokens)},
		{"Draw size", fmt.Sprintf("%gx%g", snap.DrawSize.Width, snap.DrawSize.Height)},
	}
	return writeTable(out, nil, rows)
}

// printSink writes one human readable line per controller event.
type printSink struct {
	mu  sync.Mutex
	out io.Writer
}

func (s *printSink) Emit(ctx context.Context, event renderer.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := fmt.Fprintf(s.out, "%s  %-28s %s\n",
		event.Timestamp.Local().Format("15:04:05.000"), event.Type, describeEventData(event.Data))
	return err
}

func (s *printSink) Close() error {
	return nil
}

func describeEventData(data any) string {
	if data == nil {
		return ""
	}
	raw, err := json.Marshal(data)
	if err != nil {
		return fmt.Sprintf("%v", data)
	}
	if string(raw) == "{}" {
		return ""
	}
	return string(raw)
}
