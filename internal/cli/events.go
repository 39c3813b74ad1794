package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/opencode-ai/illo/internal/db"
	"github.com/opencode-ai/illo/internal/models"
	"github.com/spf13/cobra"
)

var (
	eventsSince    string
	eventsTypes    []string
	eventsSessions []string
	eventsLimit    int
	watchMode      bool
	pruneOlderThan string
	showLimit      int
)

func init() {
	rootCmd.AddCommand(eventsCmd)
	eventsCmd.AddCommand(eventsPruneCmd)
	eventsCmd.AddCommand(eventsShowCmd)

	eventsCmd.Flags().StringVar(&eventsSince, "since", "", "only events after this time (1h, 7d, or RFC3339)")
	eventsCmd.Flags().StringSliceVar(&eventsTypes, "type", nil, "filter by event type (repeatable)")
	eventsCmd.Flags().StringSliceVar(&eventsSessions, "session", nil, "filter by session id (repeatable)")
	eventsCmd.Flags().IntVar(&eventsLimit, "limit", 50, "maximum number of events to list")
	eventsCmd.Flags().BoolVarP(&watchMode, "watch", "w", false, "follow new events (requires --jsonl)")

	eventsShowCmd.Flags().IntVar(&showLimit, "limit", 100, "maximum number of session events to list")
	eventsPruneCmd.Flags().StringVar(&pruneOlderThan, "older-than", "7d", "delete events older than this")
}

// MustBeJSONLForWatch rejects --watch without --jsonl.
func MustBeJSONLForWatch() error {
	if watchMode && !IsJSONLOutput() {
		return errors.New("--watch requires --jsonl output")
	}
	return nil
}

var eventsCmd = &cobra.Command{
	Use:   "events",
	Short: "List controller events from the journal",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := MustBeJSONLForWatch(); err != nil {
			return err
		}
		since, err := ParseSince(eventsSince)
		if err != nil {
			return err
		}

		ctx := cmd.Context()
		database, err := requireJournal(ctx, GetConfig())
		if err != nil {
			return err
		}
		defer database.Close()
		repo := db.NewEventRepository(database)

		types := make([]models.EventType, 0, len(eventsTypes))
		for _, value := range eventsTypes {
			types = append(types, models.EventType(strings.TrimSpace(value)))
		}

		if watchMode {
			config := DefaultStreamConfig()
			config.Since = since
			config.IncludeExisting = since != nil
			config.Types = types
			config.Sessions = eventsSessions
			return NewEventStreamer(repo, os.Stdout, config).Stream(ctx)
		}

		config := DefaultStreamConfig()
		config.Types = types
		config.Sessions = eventsSessions
		config.BatchSize = eventsLimit
		streamer := NewEventStreamer(repo, os.Stdout, config)

		var listed []*models.Event
		cursor := ""
		for len(listed) < eventsLimit {
			batch, next, err := streamer.poll(ctx, cursor, since)
			if err != nil {
				return err
			}
			listed = append(listed, batch...)
			if next == cursor {
				break
			}
			cursor = next
		}
		if len(listed) > eventsLimit {
			listed = listed[:eventsLimit]
		}

		if IsJSONLOutput() {
			for _, event := range listed {
				if err := streamer.writeEvent(event); err != nil {
					return err
				}
			}
			return nil
		}
		if IsJSONOutput() {
			return WriteOutput(os.Stdout, listed)
		}

		if len(listed) == 0 {
			fmt.Fprintln(os.Stdout, "No events found")
			return nil
		}
		rows := make([][]string, 0, len(listed))
		for _, event := range listed {
			rows = append(rows, []string{
				event.Timestamp.Local().Format("2006-01-02 15:04:05"),
				string(event.Type),
				event.EntityID,
				string(event.Payload),
			})
		}
		return writeTable(os.Stdout, []string{"TIME", "TYPE", "SESSION", "PAYLOAD"}, rows)
	},
}

var eventsPruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Delete old events from the journal",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cutoff, err := ParseSince(pruneOlderThan)
		if err != nil {
			return err
		}
		if cutoff == nil {
			return errors.New("--older-than is required")
		}

		ctx := cmd.Context()
		database, err := requireJournal(ctx, GetConfig())
		if err != nil {
			return err
		}
		defer database.Close()

		removed, err := db.NewEventRepository(database).Prune(ctx, *cutoff)
		if err != nil {
			return err
		}
		if IsJSONOutput() || IsJSONLOutput() {
			return WriteOutput(os.Stdout, map[string]any{"removed": removed, "before": cutoff})
		}
		fmt.Fprintf(os.Stdout, "Removed %d events older than %s\n", removed, cutoff.Local().Format("2006-01-02 15:04:05"))
		return nil
	},
}

var eventsShowCmd = &cobra.Command{
	Use:   "show <event-or-session-id>",
	Short: "Show one event, or every event of a session",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		database, err := requireJournal(ctx, GetConfig())
		if err != nil {
			return err
		}
		defer database.Close()

		listed, err := lookupEvents(ctx, db.NewEventRepository(database), args[0], showLimit)
		if err != nil {
			return err
		}
		if len(listed) == 0 {
			return &PreflightError{
				Message:  fmt.Sprintf("no event or session %q in the journal", args[0]),
				NextStep: "illo events --limit 20",
			}
		}

		if IsJSONOutput() || IsJSONLOutput() {
			items := make([]any, 0, len(listed))
			for _, event := range listed {
				items = append(items, event)
			}
			return WriteOutput(os.Stdout, items)
		}
		rows := make([][]string, 0, len(listed))
		for _, event := range listed {
			rows = append(rows, []string{
				event.ID,
				event.Timestamp.Local().Format("2006-01-02 15:04:05.000"),
				string(event.Type),
				string(event.Payload),
			})
		}
		return writeTable(os.Stdout, []string{"ID", "TIME", "TYPE", "PAYLOAD"}, rows)
	},
}

type eventLookup interface {
	Get(ctx context.Context, id string) (*models.Event, error)
	ListByEntity(ctx context.Context, entityType models.EntityType, entityID string, limit int) ([]*models.Event, error)
}

// lookupEvents resolves id as an event id first and as a session id
// otherwise.
func lookupEvents(ctx context.Context, repo eventLookup, id string, limit int) ([]*models.Event, error) {
	event, err := repo.Get(ctx, id)
	if err == nil {
		return []*models.Event{event}, nil
	}
	if !errors.Is(err, db.ErrEventNotFound) {
		return nil, err
	}
	return repo.ListByEntity(ctx, models.EntityTypeSession, id, limit)
}
