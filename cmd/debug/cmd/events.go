package cmd

import (
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/dustin/go-humanize/english"
	"github.com/spf13/cobra"

	"github.com/thatsimonsguy/filtration-controller/db"
)

var (
	eventLimit int
	showCounts bool

	eventsCmd = &cobra.Command{
		Use:   "events",
		Short: "Show the most recent journal events",
		Args:  cobra.NoArgs,
		RunE: func(c *cobra.Command, _ []string) error {
			dbConn, err := db.OpenReadOnly(dbPath)
			if err != nil {
				return err
			}
			defer dbConn.Close()

			if showCounts {
				counts, err := db.CountEventsByKind(dbConn)
				if err != nil {
					return err
				}
				printCounts(c.OutOrStdout(), counts)
				return nil
			}

			events, err := db.RecentEvents(dbConn, eventLimit)
			if err != nil {
				return err
			}
			printEvents(c.OutOrStdout(), events, time.Now())
			return nil
		},
	}

	sessionCmd = &cobra.Command{
		Use:   "session [session-id]",
		Short: "List uptime sessions, or the events of one session",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			dbConn, err := db.OpenReadOnly(dbPath)
			if err != nil {
				return err
			}
			defer dbConn.Close()

			if len(args) == 1 {
				events, err := db.EventsBySession(dbConn, args[0])
				if err != nil {
					return err
				}
				printEvents(c.OutOrStdout(), events, time.Now())
				return nil
			}

			sessions, err := db.Sessions(dbConn, eventLimit)
			if err != nil {
				return err
			}
			for _, s := range sessions {
				fmt.Fprintf(c.OutOrStdout(), "%s  started %s  %s\n",
					s.ID, humanize.Time(s.StartedAt), english.Plural(s.Events, "event", "events"))
			}
			return nil
		},
	}
)

func printEvents(w io.Writer, events []db.Event, now time.Time) {
	if len(events) == 0 {
		fmt.Fprintln(w, "no events")
		return
	}
	for _, e := range events {
		fmt.Fprintf(w, "%-6d %-16s %s  %-15s %s\n",
			e.ID, humanize.RelTime(e.RecordedAt, now, "ago", "from now"), e.OccurredAt, e.Kind, e.Detail)
	}
}

func printCounts(w io.Writer, counts map[string]int) {
	kinds := make([]string, 0, len(counts))
	for k := range counts {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)
	for _, k := range kinds {
		fmt.Fprintf(w, "%-16s %s\n", k, humanize.Comma(int64(counts[k])))
	}
}

func init() {
	eventsCmd.Flags().IntVarP(&eventLimit, "limit", "n", 20, "number of events to show")
	eventsCmd.Flags().BoolVar(&showCounts, "counts", false, "show totals per event kind instead")
	sessionCmd.Flags().IntVarP(&eventLimit, "limit", "n", 20, "number of sessions to list")
}
