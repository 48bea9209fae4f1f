package core

// scheduler.go refreshes the decay component of open issue scores.
//
// Decay depends on the clock, so stored scores drift from what Score would
// return today. The rescore job walks every table, recomputes open issues
// from their stored inputs under the current configuration and saves tables
// whose scores changed. Failures on one table are logged and do not stop the
// run.

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// StartRescoreScheduler runs RescoreOpenIssues immediately and then every
// interval until ctx is cancelled. A non-positive interval disables it.
func (s *Service) StartRescoreScheduler(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		slog.Info("rescore scheduler disabled")
		return
	}
	slog.Info("rescore scheduler started", "interval", interval.String())

	s.runRescoreJob(ctx)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("rescore scheduler stopped")
			return
		case <-ticker.C:
			s.runRescoreJob(ctx)
		}
	}
}

func (s *Service) runRescoreJob(ctx context.Context) {
	start := time.Now()
	n, err := s.RescoreOpenIssues(ctx)
	if err != nil {
		slog.Error("rescore failed", "error", err)
		return
	}
	slog.Info("rescore job completed",
		"issues_rescored", n,
		"duration_ms", time.Since(start).Milliseconds(),
	)
}

// RescoreOpenIssues recomputes every open issue's score and returns how many
// changed. Each run is a new scoring pass, so severity follows the thresholds
// in force when it runs.
func (s *Service) RescoreOpenIssues(ctx context.Context) (int, error) {
	tables, err := s.repo.ListTables(ctx)
	if err != nil {
		return 0, fmt.Errorf("rescore: list tables: %w", err)
	}

	total := 0
	for _, t := range tables {
		if err := ctx.Err(); err != nil {
			return total, err
		}
		n, err := s.rescoreTable(ctx, t.TableID)
		if err != nil {
			slog.Error("rescore table failed", "table_id", t.TableID, "error", err)
			continue
		}
		total += n
	}
	return total, nil
}

func (s *Service) rescoreTable(ctx context.Context, tableID string) (int, error) {
	unlock := s.locks.lock(tableID)
	defer unlock()

	st, err := s.load(ctx, tableID)
	if err != nil {
		return 0, err
	}

	cfg := s.scoring.Get()
	now := s.now()
	next := st.clone()
	changed := 0
	for i := range next.Issues {
		is := &next.Issues[i]
		if !is.IsOpen() {
			continue
		}
		prevScore, prevSeverity := is.Score, is.Severity
		s.rescore(is, cfg, now)
		if is.Score != prevScore || is.Severity != prevSeverity {
			changed++
		}
	}
	if changed == 0 {
		return 0, nil
	}
	if err := s.repo.SaveTable(ctx, next); err != nil {
		return 0, fmt.Errorf("save: %w", err)
	}
	return changed, nil
}
