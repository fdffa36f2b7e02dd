// Package orchestrator implements the Round Orchestrator: the only
// component that composes I/O and computation. It resolves a round,
// reconciles attendance, and drives the two-pass engine to persistence.
package orchestrator

import (
	"context"
	"fmt"
	"time"

	"github.com/naividh/member-profile-processor/internal/apperrors"
	"github.com/naividh/member-profile-processor/internal/logging"
	"github.com/naividh/member-profile-processor/internal/metrics"
	"github.com/naividh/member-profile-processor/internal/model"
	"github.com/naividh/member-profile-processor/internal/ratingengine"
)

// Result is the outcome of a calculate invocation.
type Result int

const (
	// Success indicates the round's unrated slate was processed and persisted.
	Success Result = iota
	// AlreadyCalculated indicates the round had no unrated slate to process.
	AlreadyCalculated
)

func (r Result) String() string {
	if r == AlreadyCalculated {
		return "ALREADY_CALCULATED"
	}
	return "SUCCESS"
}

// RoundResolver resolves a legacy contest id to a round id. Satisfied by
// *store.Store.
type RoundResolver interface {
	RoundByLegacyContestID(ctx context.Context, contestID int64) (roundID int64, found bool, err error)
}

// SlateLoader loads the unrated slate for a round. Satisfied by
// *store.Loader.
type SlateLoader interface {
	Load(ctx context.Context, roundID int64) ([]model.Participant, error)
}

// SlatePersistor writes an engine pass's outputs back. Satisfied by
// *store.Persistor.
type SlatePersistor interface {
	Persist(ctx context.Context, roundID int64, participants []model.Participant) error
}

// AttendanceReconciler reconciles attendance for a round, best-effort.
// Satisfied by *reconcile.Reconciler.
type AttendanceReconciler interface {
	Reconcile(ctx context.Context, roundID, challengeID int64)
}

// Orchestrator composes the Loader, Reconciler, Engine, and Persistor into
// the round-calculation operations.
type Orchestrator struct {
	rounds     RoundResolver
	loader     SlateLoader
	persistor  SlatePersistor
	reconciler AttendanceReconciler
}

// New creates an Orchestrator.
func New(rounds RoundResolver, loader SlateLoader, persistor SlatePersistor, reconciler AttendanceReconciler) *Orchestrator {
	return &Orchestrator{rounds: rounds, loader: loader, persistor: persistor, reconciler: reconciler}
}

// Calculate implements calculate(challenge_id, legacy_id): resolves round_id
// from legacy_id (falling back to legacy_id itself when no mapping is
// found), then delegates to CalculateByRound.
func (o *Orchestrator) Calculate(ctx context.Context, challengeID, legacyID int64) (Result, error) {
	roundID, found, err := o.rounds.RoundByLegacyContestID(ctx, legacyID)
	if err != nil {
		return AlreadyCalculated, fmt.Errorf("resolve round for legacy id %d: %w", legacyID, err)
	}
	if !found {
		roundID = legacyID
	}
	return o.CalculateByRound(ctx, roundID, challengeID)
}

// CalculateByRound implements calculate_by_round(round_id): equivalent to
// Calculate with the resolution step skipped. challengeID is used only to
// drive reconciliation and may be zero if unknown, in which case
// reconciliation is skipped (there is nothing to cross-check against).
func (o *Orchestrator) CalculateByRound(ctx context.Context, roundID, challengeID int64) (Result, error) {
	start := time.Now()
	defer func() { metrics.RoundProcessingDuration.Observe(time.Since(start).Seconds()) }()

	if challengeID != 0 {
		o.reconciler.Reconcile(ctx, roundID, challengeID)
	}

	slate, err := o.loader.Load(ctx, roundID)
	if err != nil {
		return AlreadyCalculated, fmt.Errorf("load unrated slate for round %d: %w", roundID, err)
	}

	if len(slate) == 0 {
		metrics.RoundsProcessedTotal.WithLabelValues("already_calculated").Inc()
		return AlreadyCalculated, apperrors.ErrAlreadyCalculated
	}

	provisional := ratingengine.Run(slate)

	firstTimers := make([]model.Participant, 0, len(provisional))
	experienced := make([]model.Participant, 0, len(slate))
	for i, p := range provisional {
		if p.NewNumRatings == 1 {
			firstTimers = append(firstTimers, p)
		} else {
			experienced = append(experienced, slate[i])
		}
	}

	if err := o.persistor.Persist(ctx, roundID, firstTimers); err != nil {
		return AlreadyCalculated, fmt.Errorf("persist provisional pass for round %d: %w", roundID, err)
	}
	metrics.EngineParticipantsRated.WithLabelValues("provisional").Add(float64(len(firstTimers)))

	nonProvisional := ratingengine.Run(experienced)
	if err := o.persistor.Persist(ctx, roundID, nonProvisional); err != nil {
		return AlreadyCalculated, fmt.Errorf("persist non-provisional pass for round %d: %w", roundID, err)
	}
	metrics.EngineParticipantsRated.WithLabelValues("non_provisional").Add(float64(len(nonProvisional)))

	metrics.RoundsProcessedTotal.WithLabelValues("success").Inc()
	logging.From(ctx).Info().Int64("round_id", roundID).Int("participants", len(slate)).Msg("round rated")

	return Success, nil
}
