package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/jmylchreest/toastd/internal/codec"
	"github.com/jmylchreest/toastd/internal/model"
)

var sendOpts struct {
	icon       string
	pinned     bool
	noMinimize bool
	expires    string
	strict     bool
}

var sendCmd = &cobra.Command{
	Use:   "send <title> <message...>",
	Short: "Write a notification to the trigger file",
	Long: `Write a notification to the trigger file for toastd to pick up.

Any existing trigger file is overwritten in place. The write is not atomic;
toastd drops a notification it reads half-written.

--expires takes either a duration from now (30s, 5m, 2h) or an ISO-8601
timestamp (2026-03-01T12:00:00Z, 2026-03-01T12:00:00, 2026-03-01).

Examples:
  # Simple toast
  toast send "Build" "All tests passed"

  # Pinned toast with an icon that expires in 10 minutes
  toast send "Deploy" "Rolling out v2" --icon ~/icons/rocket.png --pinned --expires 10m

  # Fail if the file cannot be written
  toast send "Backup" "Done" --strict`,
	Args: cobra.MinimumNArgs(2),
	RunE: runSend,
}

func init() {
	rootCmd.AddCommand(sendCmd)

	sendCmd.Flags().StringVarP(&sendOpts.icon, "icon", "i", "",
		"Path to an icon image")
	sendCmd.Flags().BoolVar(&sendOpts.pinned, "pinned", false,
		"Toast cannot be closed by the user")
	sendCmd.Flags().BoolVar(&sendOpts.noMinimize, "no-minimize", false,
		"Toast cannot be minimized")
	sendCmd.Flags().StringVarP(&sendOpts.expires, "expires", "e", "",
		"Expiry as a duration from now or an ISO-8601 timestamp")
	sendCmd.Flags().BoolVar(&sendOpts.strict, "strict", false,
		"Report write failures instead of logging them")
}

func runSend(cmd *cobra.Command, args []string) error {
	n, err := buildNotification(args[0], strings.Join(args[1:], " "), time.Now())
	if err != nil {
		return err
	}

	path := cfg.Trigger.Path
	if sendOpts.strict {
		if err := codec.Write(path, n); err != nil {
			return err
		}
	} else if err := codec.Encode(path, n); err != nil {
		return err
	}

	logger.Debug("notification written", "path", path, "title", n.Title())
	return nil
}

// buildNotification assembles a notification from the send flags.
func buildNotification(title, message string, now time.Time) (*model.Notification, error) {
	var opts []model.Option
	if sendOpts.icon != "" {
		opts = append(opts, model.WithIconPath(sendOpts.icon))
	}
	if sendOpts.pinned {
		opts = append(opts, model.WithClosable(false))
	}
	if sendOpts.noMinimize {
		opts = append(opts, model.WithMinimizable(false))
	}
	if sendOpts.expires != "" {
		exp, err := parseExpiry(sendOpts.expires, now)
		if err != nil {
			return nil, err
		}
		opts = append(opts, model.WithExpiryTime(exp))
	}

	return model.NewNotification(title, message, opts...)
}

// parseExpiry accepts a duration relative to now or an absolute timestamp.
func parseExpiry(s string, now time.Time) (time.Time, error) {
	if d, err := time.ParseDuration(s); err == nil {
		return now.Add(d), nil
	}
	t, err := codec.ParseTimestamp(s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid --expires: %w", err)
	}
	return t, nil
}
