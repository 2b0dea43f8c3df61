// Command lead-resend re-sends the operator notification email for a set of
// leads, one at a time with a pause between sends. Interrupting the command
// cancels the job before its next send.
//
// Usage:
//
//	lead-resend -ids 2b1c...,9f4e...
//	lead-resend -from 2026-09-01 -to 2026-09-30
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"slices"
	"strings"
	"syscall"
	"time"

	"talent_intake_backend/internal/bulkresend"
	"talent_intake_backend/internal/email"
	"talent_intake_backend/internal/events"
	"talent_intake_backend/internal/leads/domain"
	leadrepo "talent_intake_backend/internal/leads/repository"
	"talent_intake_backend/internal/notification"
	"talent_intake_backend/platform/config"
	"talent_intake_backend/platform/db"
	"talent_intake_backend/platform/logger"

	"github.com/google/uuid"
)

const dateLayout = "2006-01-02"

const (
	exitOK    = 0
	exitError = 1
	exitUsage = 2
)

func main() {
	os.Exit(run())
}

// run does the work of main and returns the exit code, so deferred cleanup
// runs before the process exits.
func run() int {
	idsFlag := flag.String("ids", "", "comma separated lead ids")
	fromFlag := flag.String("from", "", "first creation day to include (YYYY-MM-DD)")
	toFlag := flag.String("to", "", "last creation day to include (YYYY-MM-DD)")
	delayFlag := flag.Duration("delay", 0, "pause between sends (defaults to BULK_RESEND_DELAY)")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "failed to load config:", err)
		return exitError
	}

	log := logger.NewWithFile(cfg.Env, cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := db.NewPool(ctx, cfg)
	if err != nil {
		log.Error("failed to connect to database", "error", err)
		return exitError
	}
	defer pool.Close()

	repo := leadrepo.New(pool)

	ids, err := selectLeadIDs(ctx, repo, *idsFlag, *fromFlag, *toFlag)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		flag.Usage()
		return exitUsage
	}

	sender, err := email.NewSender(cfg)
	if err != nil {
		log.Error("failed to initialize email sender", "error", err)
		return exitError
	}

	delay := cfg.GetBulkResendDelay()
	if *delayFlag > 0 {
		delay = *delayFlag
	}

	emailCh := notification.NewEmailChannel(sender, cfg.GetAdminEmail())
	manager := bulkresend.NewManager(repo, bulkresend.NewOrchestrator(emailCh, delay, log), events.NewInMemoryBus(log), log)

	log.Info("starting lead resend", "leads", len(ids), "delay", delay.String())
	snap, err := manager.Run(ctx, ids)
	if err != nil {
		log.Error("lead resend failed", "error", err)
		return exitError
	}

	printReport(os.Stdout, snap)
	return exitCode(snap)
}

// printReport writes the job summary followed by one line per lead that was
// not sent.
func printReport(w io.Writer, snap bulkresend.Snapshot) {
	fmt.Fprintln(w, snap.Summary)
	for _, f := range snap.Failures {
		fmt.Fprintf(w, "  %s: %s\n", f.LeadID, f.Error)
	}
	for _, id := range snap.MissingLeadIDs {
		fmt.Fprintf(w, "  %s: not found\n", id)
	}
}

// exitCode is non-zero when the job was interrupted or any send failed.
// Missing leads alone do not fail the run.
func exitCode(snap bulkresend.Snapshot) int {
	if snap.Cancelled || len(snap.Failures) > 0 {
		return exitError
	}
	return exitOK
}

type leadLister interface {
	List(ctx context.Context, params leadrepo.ListParams) ([]domain.Lead, error)
}

// selectLeadIDs resolves the flags to lead ids. Explicit ids win over a date
// range; range results are sent oldest first.
func selectLeadIDs(ctx context.Context, repo leadLister, rawIDs, from, to string) ([]uuid.UUID, error) {
	if strings.TrimSpace(rawIDs) != "" {
		return parseIDs(rawIDs)
	}
	if from == "" && to == "" {
		return nil, errors.New("either -ids or -from/-to is required")
	}

	var params leadrepo.ListParams
	var err error
	if params.From, err = parseDay(from); err != nil {
		return nil, fmt.Errorf("invalid -from: %w", err)
	}
	if params.To, err = parseDay(to); err != nil {
		return nil, fmt.Errorf("invalid -to: %w", err)
	}

	leads, err := repo.List(ctx, params)
	if err != nil {
		return nil, err
	}
	if len(leads) == 0 {
		return nil, errors.New("no leads in the given range")
	}

	ids := make([]uuid.UUID, 0, len(leads))
	for _, lead := range leads {
		ids = append(ids, lead.ID)
	}
	slices.Reverse(ids)
	return ids, nil
}

func parseIDs(raw string) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := uuid.Parse(part)
		if err != nil {
			return nil, fmt.Errorf("invalid lead id %q", part)
		}
		ids = append(ids, id)
	}
	if len(ids) == 0 {
		return nil, errors.New("no lead ids given")
	}
	return ids, nil
}

func parseDay(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, nil
	}
	return time.ParseInLocation(dateLayout, value, time.UTC)
}
