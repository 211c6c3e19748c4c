package commands

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"strconv"

	"github.com/zainiii163/tearence-backend-sub004/internal/logger"
	"github.com/zainiii163/tearence-backend-sub004/internal/tasks"
)

// Exit codes.
const (
	ExitOK      = 0
	ExitFailure = 1
	ExitUsage   = 2
)

// JobRunner runs the batch jobs. *tasks.TaskProcessor implements it.
type JobRunner interface {
	RunModeration(ctx context.Context, enforce bool) (*tasks.ModerationRun, error)
	RunCleanup(ctx context.Context, days int) (*tasks.CleanupRun, error)
}

// Run executes the command named by args[0] and returns the process exit code.
// Per-record failures inside a batch are reported but do not change the code.
func Run(ctx context.Context, runner JobRunner, args []string, out io.Writer) int {
	if len(args) == 0 {
		usage(out)
		return ExitUsage
	}

	switch args[0] {
	case tasks.TypeModerateHarmful:
		return moderateHarmful(ctx, runner, args[1:], out)
	case tasks.TypeDeleteOldAds:
		return deleteOld(ctx, runner, args[1:], out)
	default:
		fmt.Fprintf(out, "unknown command %q\n", args[0])
		usage(out)
		return ExitUsage
	}
}

func usage(out io.Writer) {
	fmt.Fprintln(out, "Usage:")
	fmt.Fprintf(out, "  %s [--delete]   report potentially harmful listings; --delete flags and deactivates them\n", tasks.TypeModerateHarmful)
	fmt.Fprintf(out, "  %s [days]         delete listings older than days (default from AD_MAX_AGE_DAYS, 21)\n", tasks.TypeDeleteOldAds)
}

func moderateHarmful(ctx context.Context, runner JobRunner, args []string, out io.Writer) int {
	fs := flag.NewFlagSet(tasks.TypeModerateHarmful, flag.ContinueOnError)
	fs.SetOutput(out)
	enforce := fs.Bool("delete", false, "flag and deactivate harmful listings instead of reporting them")
	if err := fs.Parse(args); err != nil || fs.NArg() > 0 {
		if err == nil {
			fmt.Fprintf(out, "unexpected arguments: %v\n", fs.Args())
		}
		return ExitUsage
	}

	run, err := runner.RunModeration(ctx, *enforce)
	if err != nil {
		return reportFailure(out, tasks.TypeModerateHarmful, err)
	}

	if !*enforce {
		fmt.Fprintln(out, "Scanning for potentially harmful listings (dry run)...")
	} else {
		fmt.Fprintln(out, "Scanning and flagging harmful listings...")
	}
	for _, f := range run.Findings {
		fmt.Fprintf(out, "%s\t%q\tscore=%d\t%s\n", f.ListingID.Hex(), f.Title, f.Score, f.Reason)
	}
	if *enforce {
		fmt.Fprintf(out, "Scanned %d listings, flagged %d, marked harmful %d, failed %d.\n",
			run.Scanned, run.Flagged, run.Enforced, run.Failed)
	} else {
		fmt.Fprintf(out, "Scanned %d listings, found %d potentially harmful. Run with --delete to flag them.\n",
			run.Scanned, run.Flagged)
	}
	printReportKey(out, run.ReportKey)
	return ExitOK
}

func deleteOld(ctx context.Context, runner JobRunner, args []string, out io.Writer) int {
	days := 0
	switch len(args) {
	case 0:
	case 1:
		n, err := strconv.Atoi(args[0])
		if err != nil || n <= 0 {
			fmt.Fprintf(out, "days must be a positive integer, got %q\n", args[0])
			return ExitUsage
		}
		days = n
	default:
		fmt.Fprintf(out, "unexpected arguments: %v\n", args[1:])
		return ExitUsage
	}

	run, err := runner.RunCleanup(ctx, days)
	if err != nil {
		return reportFailure(out, tasks.TypeDeleteOldAds, err)
	}

	fmt.Fprintf(out, "Deleted %d listings older than %d days (%d flagged harmful), %d failed.\n",
		run.Deleted, run.Days, run.HarmfulDeleted, run.Failed)
	printReportKey(out, run.ReportKey)
	return ExitOK
}

func reportFailure(out io.Writer, command string, err error) int {
	if errors.Is(err, tasks.ErrJobRunning) {
		fmt.Fprintf(out, "%s is already running, try again later\n", command)
	} else {
		fmt.Fprintf(out, "%s failed: %v\n", command, err)
	}
	logger.Error("command failed", "command", command, "error", err)
	return ExitFailure
}

func printReportKey(out io.Writer, key string) {
	if key != "" {
		fmt.Fprintf(out, "Report archived at %s\n", key)
	}
}
