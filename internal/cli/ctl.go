package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/opencode-ai/illo/internal/config"
	"github.com/opencode-ai/illo/internal/control"
	"github.com/opencode-ai/illo/internal/logging"
	"github.com/opencode-ai/illo/internal/palette"
	"github.com/opencode-ai/illo/internal/renderer"
	"github.com/spf13/cobra"
)

var (
	ctlAddr    string
	ctlTimeout time.Duration
)

func init() {
	rootCmd.AddCommand(ctlCmd)
	ctlCmd.PersistentFlags().StringVar(&ctlAddr, "addr", "", "control address of a running player (default control.listen)")
	ctlCmd.PersistentFlags().DurationVar(&ctlTimeout, "timeout", 5*time.Second, "per-call timeout")

	ctlCmd.AddCommand(ctlPlayCmd, ctlPauseCmd, ctlStopCmd, ctlResizeCmd, ctlSourceCmd, ctlSchemeCmd, ctlStatusCmd, ctlEventsCmd)
}

// newControlDaemon builds the control server for a playing controller.
func newControlDaemon(cfg *config.Config, listen string, ctrl *renderer.Controller, theme *palette.Theme, hub *control.Hub) (*control.Daemon, error) {
	logger := logging.Component("control")
	server := control.NewServer(ctrl, logger,
		control.WithTheme(theme),
		control.WithHub(hub),
	)

	var limiter *control.RateLimiter
	if cfg.Control.RequestsPerSecond > 0 && cfg.Control.Burst > 0 {
		limiter = control.NewRateLimiter(control.WithGlobalLimit(control.RateLimitConfig{
			RequestsPerSecond: cfg.Control.RequestsPerSecond,
			BurstSize:         cfg.Control.Burst,
		}))
	}
	return control.NewDaemon(listen, server, limiter, logger)
}

var ctlCmd = &cobra.Command{
	Use:   "ctl",
	Short: "Control a running `illo play --listen`",
}

func withClient(cmd *cobra.Command, fn func(ctx context.Context, client *control.Client) error) error {
	addr := ctlAddr
	if strings.TrimSpace(addr) == "" {
		addr = GetConfig().Control.Listen
	}
	if strings.TrimSpace(addr) == "" {
		return &PreflightError{
			Message:  "no control address given",
			Hint:     "start the player with --listen and pass the same address with --addr",
			NextStep: "illo play welcome.json --listen unix:///tmp/illo.sock",
		}
	}

	client, err := control.Dial(addr)
	if err != nil {
		return err
	}
	defer client.Close()

	ctx, cancel := context.WithTimeout(cmd.Context(), ctlTimeout)
	defer cancel()
	return fn(ctx, client)
}

func controlAckCommand(use, short string, call func(*control.Client, context.Context) (control.Ack, error)) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(cmd, func(ctx context.Context, client *control.Client) error {
				ack, err := call(client, ctx)
				if err != nil {
					return err
				}
				if IsJSONOutput() || IsJSONLOutput() {
					return WriteOutput(os.Stdout, ack)
				}
				fmt.Fprintf(os.Stdout, "%s (request %d)\n", ack.Name, ack.ID)
				return nil
			})
		},
	}
}

var (
	ctlPlayCmd  = controlAckCommand("play", "Resume playback", (*control.Client).Play)
	ctlPauseCmd = controlAckCommand("pause", "Pause playback", (*control.Client).Pause)
	ctlStopCmd  = controlAckCommand("stop", "Stop playback", (*control.Client).Stop)
)

var ctlResizeCmd = &cobra.Command{
	Use:   "resize <width> <height>",
	Short: "Resize the surface",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		width, err := strconv.ParseFloat(args[0], 64)
		if err != nil {
			return fmt.Errorf("invalid width %q", args[0])
		}
		height, err := strconv.ParseFloat(args[1], 64)
		if err != nil {
			return fmt.Errorf("invalid height %q", args[1])
		}
		return withClient(cmd, func(ctx context.Context, client *control.Client) error {
			return client.Resize(ctx, width, height)
		})
	},
}

var ctlSourceCmd = &cobra.Command{
	Use:   "source <path-or-url>",
	Short: "Load a different animation",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withClient(cmd, func(ctx context.Context, client *control.Client) error {
			return client.SetSource(ctx, args[0])
		})
	},
}

var ctlSchemeCmd = &cobra.Command{
	Use:   "scheme <name>",
	Short: "Switch the color scheme",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withClient(cmd, func(ctx context.Context, client *control.Client) error {
			return client.SetScheme(ctx, args[0])
		})
	},
}

var ctlStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the player state",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withClient(cmd, func(ctx context.Context, client *control.Client) error {
			st, err := client.Status(ctx)
			if err != nil {
				return err
			}
			if IsJSONOutput() || IsJSONLOutput() {
				return WriteOutput(os.Stdout, st)
			}
			rows := [][]string{
				{"State", fmt.Sprint(st["state"])},
				{"Source", fmt.Sprint(st["source"])},
				{"Scheme", fmt.Sprint(st["scheme"])},
				{"Loaded", fmt.Sprint(st["loaded"])},
				{"Tokens", fmt.Sprint(st["tokens"])},
				{"Uptime", fmt.Sprintf("%.0fs", st["uptime_seconds"])},
			}
			return writeTable(os.Stdout, nil, rows)
		})
	},
}

var ctlEventsCmd = &cobra.Command{
	Use:   "events",
	Short: "Follow live controller events as JSON lines",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		addr := ctlAddr
		if strings.TrimSpace(addr) == "" {
			addr = GetConfig().Control.Listen
		}
		client, err := control.Dial(addr)
		if err != nil {
			return err
		}
		defer client.Close()

		encoder := json.NewEncoder(os.Stdout)
		return client.StreamEvents(cmd.Context(), func(event map[string]any) error {
			return encoder.Encode(event)
		})
	},
}
