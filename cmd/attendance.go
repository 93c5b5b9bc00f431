package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"cxc-checkin/internal/broker"
)

var attendanceCmd = &cobra.Command{
	Use:   "attendance",
	Short: "Inspect and record event attendance",
}

func parseEventID(arg string) (int64, error) {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil || id <= 0 {
		return 0, fail("invalid event id %q", arg)
	}
	return id, nil
}

var listAttendanceCmd = &cobra.Command{
	Use:   "list <event-id>",
	Short: "List attendance records of an event",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		eventID, err := parseEventID(args[0])
		if err != nil {
			return err
		}
		rows, err := newCheckInService(cfg, provider, nil).Attendance(cmd.Context(), eventID)
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', 0)
		fmt.Fprintln(w, "PROFILE ID\tCHECKED IN\tCHECKED IN AT")
		checkedIn := 0
		for _, row := range rows {
			at := "-"
			if row.CheckedInAt != nil {
				at = formatTime(*row.CheckedInAt)
			}
			if row.CheckedIn {
				checkedIn++
			}
			fmt.Fprintf(w, "%s\t%t\t%s\n", row.ProfileID, row.CheckedIn, at)
		}
		w.Flush()
		fmt.Printf("\nChecked in: %d / %d\n", checkedIn, len(rows))
		return nil
	},
}

var registerAttendanceCmd = &cobra.Command{
	Use:   "register <event-id> <profile-id>",
	Short: "Register a profile for an event without checking in",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		eventID, err := parseEventID(args[0])
		if err != nil {
			return err
		}
		row, err := newCheckInService(cfg, provider, nil).Register(cmd.Context(), eventID, args[1])
		if err != nil {
			return err
		}
		fmt.Printf("Profile %s registered for event %d (checked in: %t)\n", row.ProfileID, row.EventID, row.CheckedIn)
		return nil
	},
}

var checkinAttendanceCmd = &cobra.Command{
	Use:   "checkin <event-id> <nfc-id>",
	Short: "Check in a badge for an event",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		eventID, err := parseEventID(args[0])
		if err != nil {
			return err
		}

		publisher, err := broker.NewPublisher(cfg.NATS)
		if err != nil {
			return err
		}
		defer publisher.Close()

		result, err := newCheckInService(cfg, provider, publisher).CheckIn(cmd.Context(), eventID, args[1])
		if err != nil {
			return err
		}
		if result.AlreadyCheckedIn {
			fmt.Printf("Profile %s was already checked in to %s\n", result.Profile.ID, result.Event.Name)
		} else {
			fmt.Printf("Checked in profile %s to %s\n", result.Profile.ID, result.Event.Name)
		}
		return nil
	},
}

var watchAttendanceCmd = &cobra.Command{
	Use:   "watch",
	Short: "Print check-ins broadcast by running servers",
	RunE: func(cmd *cobra.Command, args []string) error {
		if cfg.NATS.URL == "" {
			return fail("nats.url is not configured")
		}
		conn, err := broker.Connect(cfg.NATS)
		if err != nil {
			return err
		}
		defer conn.Close()

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		fmt.Fprintln(os.Stderr, "Waiting for check-ins, press Ctrl+C to stop")
		return broker.Watch(ctx, conn, cfg.NATS.SubjectPrefix, func(msg broker.CheckIn) {
			state := "checked in"
			if msg.AlreadyCheckedIn {
				state = "already checked in"
			}
			fmt.Printf("%s  event=%d  profile=%s  %s\n",
				msg.CheckedInAt.Local().Format(time.DateTime), msg.EventID, msg.ProfileID, state)
		})
	},
}

func init() {
	rootCmd.AddCommand(attendanceCmd)
	attendanceCmd.AddCommand(listAttendanceCmd, registerAttendanceCmd, checkinAttendanceCmd, watchAttendanceCmd)
}
