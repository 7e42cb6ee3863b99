package pipeline

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"igudar/internal/models"
)

// DefaultConcurrency bounds the number of in-flight confirm calls.
const DefaultConcurrency = 4

// SettlementClient is the subset of the API a settlement run needs.
type SettlementClient interface {
	ConfirmInvestment(ctx context.Context, id string) (*models.Investment, error)
	RecordSnapshots(ctx context.Context, recordedAt time.Time) (*SnapshotResult, error)
}

// SettleError records a single investment that could not be confirmed.
type SettleError struct {
	InvestmentID string
	Err          error
}

// RunResult contains the outcome of a settlement run.
type RunResult struct {
	Requested         int
	Confirmed         []*models.Investment
	Errors            []SettleError
	SnapshotsRecorded int
	Duration          time.Duration
}

// Failed reports whether any investment in the run was left unconfirmed.
func (r *RunResult) Failed() bool { return len(r.Errors) > 0 }

// Settler confirms pending investments and refreshes portfolio snapshots.
type Settler struct {
	client      SettlementClient
	concurrency int
	snapshot    bool
	logger      *zap.SugaredLogger
}

// NewSettler creates a Settler. A non-positive concurrency falls back to
// DefaultConcurrency.
func NewSettler(client SettlementClient, concurrency int, snapshot bool, logger *zap.SugaredLogger) *Settler {
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}
	return &Settler{
		client:      client,
		concurrency: concurrency,
		snapshot:    snapshot,
		logger:      logger,
	}
}

// Run confirms every id and, when at least one confirmation succeeded and
// snapshots are enabled, records a snapshot for every portfolio at
// recordedAt. Confirmation failures are collected per id and never abort
// the other confirmations. Confirmed keeps the order of ids.
func (s *Settler) Run(ctx context.Context, ids []string, recordedAt time.Time) (*RunResult, error) {
	start := time.Now()
	result := &RunResult{Requested: len(ids)}

	if len(ids) == 0 {
		s.logger.Info("no investments to confirm, nothing to do")
		result.Duration = time.Since(start)
		return result, nil
	}

	confirmed := make([]*models.Investment, len(ids))
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for i, id := range ids {
		g.Go(func() error {
			investment, err := s.client.ConfirmInvestment(gctx, id)
			if err != nil {
				s.logger.Warnw("confirm failed", "investment_id", id, "error", err)
				mu.Lock()
				result.Errors = append(result.Errors, SettleError{InvestmentID: id, Err: err})
				mu.Unlock()
				return nil
			}
			s.logger.Debugw("investment confirmed", "investment_id", id, "property_id", investment.PropertyID)
			confirmed[i] = investment
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	for _, inv := range confirmed {
		if inv != nil {
			result.Confirmed = append(result.Confirmed, inv)
		}
	}

	if s.snapshot && len(result.Confirmed) > 0 {
		snap, err := s.client.RecordSnapshots(ctx, recordedAt)
		if err != nil {
			s.logger.Warnw("failed to record snapshots", "error", err)
		} else {
			result.SnapshotsRecorded = snap.SnapshotsRecorded
		}
	}

	result.Duration = time.Since(start)
	s.logger.Infow("settlement complete",
		"requested", result.Requested,
		"confirmed", len(result.Confirmed),
		"errors", len(result.Errors),
		"snapshots", result.SnapshotsRecorded,
		"duration", result.Duration,
	)
	return result, nil
}
