package cmd

import (
	"fmt"
	"os"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"cxc-checkin/internal/events"
	"cxc-checkin/internal/storage"
)

var eventCmd = &cobra.Command{
	Use:   "event",
	Short: "Manage events",
}

var listEventsCmd = &cobra.Command{
	Use:   "list",
	Short: "List all events, latest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		list, err := newEventService(cfg, provider).List(cmd.Context())
		if err != nil {
			return err
		}
		printEvents(list)
		return nil
	},
}

var nowEventsCmd = &cobra.Command{
	Use:   "now",
	Short: "List events currently accepting check-ins",
	RunE: func(cmd *cobra.Command, args []string) error {
		list, err := newEventService(cfg, provider).HappeningNow(cmd.Context())
		if err != nil {
			return err
		}
		printEvents(list)
		return nil
	},
}

var (
	eventStart        string
	eventEnd          string
	eventBuffer       time.Duration
	eventLocation     string
	eventRegistration bool
	eventPayment      bool
)

var createEventCmd = &cobra.Command{
	Use:   "create <name>",
	Short: "Create an event",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		start, err := time.Parse(time.RFC3339, eventStart)
		if err != nil {
			return fail("invalid --start: %w", err)
		}
		end, err := time.Parse(time.RFC3339, eventEnd)
		if err != nil {
			return fail("invalid --end: %w", err)
		}

		in := events.EventInput{
			Name:                 args[0],
			StartTime:            &start,
			EndTime:              &end,
			RegistrationRequired: &eventRegistration,
			PaymentRequired:      &eventPayment,
		}
		if eventLocation != "" {
			in.Location = &eventLocation
		}
		if cmd.Flags().Changed("buffer") {
			window := events.BufferedWindow(start, end, eventBuffer)
			in.BufferedStartTime = &window.BufferedStart
			in.BufferedEndTime = &window.BufferedEnd
		}

		event, err := newEventService(cfg, provider).Create(cmd.Context(), in)
		if err != nil {
			return err
		}
		fmt.Printf("Created event %d (%s)\n", event.ID, event.Name)
		return nil
	},
}

var deleteEventCmd = &cobra.Command{
	Use:   "delete <event-id>",
	Short: "Delete an event and its attendance records",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fail("invalid event id %q", args[0])
		}
		if err := newEventService(cfg, provider).Delete(cmd.Context(), id); err != nil {
			return err
		}
		fmt.Printf("Deleted event %d\n", id)
		return nil
	},
}

func printEvents(list []storage.Event) {
	if len(list) == 0 {
		fmt.Println("No events found")
		return
	}

	now := time.Now()
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tSTATUS\tCHECK-IN OPENS\tSTART\tEND\tCHECK-IN CLOSES")
	for _, e := range list {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%s\t%s\n", e.ID, e.Name, eventStatus(&e, now),
			formatTime(e.BufferedStartTime), formatTime(e.StartTime),
			formatTime(e.EndTime), formatTime(e.BufferedEndTime))
	}
	w.Flush()
	fmt.Printf("\nTotal events: %d\n", len(list))
}

func eventStatus(e *storage.Event, now time.Time) string {
	window := events.WindowOf(e)
	switch {
	case window.InProgress(now):
		return "in progress"
	case window.IsOpen(now):
		return "check-in open"
	case now.Before(window.BufferedStart):
		return "upcoming"
	}
	return "ended"
}

func formatTime(t time.Time) string {
	return t.Local().Format("2006-01-02 15:04")
}

func init() {
	createEventCmd.Flags().StringVar(&eventStart, "start", "", "start time (RFC3339)")
	createEventCmd.Flags().StringVar(&eventEnd, "end", "", "end time (RFC3339)")
	createEventCmd.Flags().DurationVar(&eventBuffer, "buffer", 30*time.Minute, "check-in buffer around start and end")
	createEventCmd.Flags().StringVar(&eventLocation, "location", "", "event location")
	createEventCmd.Flags().BoolVar(&eventRegistration, "registration-required", false, "attendees must register first")
	createEventCmd.Flags().BoolVar(&eventPayment, "payment-required", true, "attendance requires payment")
	createEventCmd.MarkFlagRequired("start")
	createEventCmd.MarkFlagRequired("end")

	rootCmd.AddCommand(eventCmd)
	eventCmd.AddCommand(listEventsCmd, nowEventsCmd, createEventCmd, deleteEventCmd)
}
