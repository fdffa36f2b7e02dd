// Package reconcile implements the Attendance Reconciler: cross-checking
// the round's participant list against the submission catalogue and
// flipping attendance for members with a final graded submission. It is
// best-effort by design — a failure here must never block rating
// calculation, the same posture any external-enrichment call should take
// toward the pipeline it enriches.
package reconcile

import (
	"context"
	"fmt"
	"time"

	"github.com/naividh/member-profile-processor/internal/apperrors"
	"github.com/naividh/member-profile-processor/internal/authtoken"
	"github.com/naividh/member-profile-processor/internal/logging"
	"github.com/naividh/member-profile-processor/internal/metrics"
	"github.com/naividh/member-profile-processor/internal/v5client"
)

// SubmissionLister fetches the submission catalogue for a challenge. Satisfied
// by *v5client.Client.
type SubmissionLister interface {
	ListSubmissions(ctx context.Context, token string, challengeID int64) ([]v5client.Submission, error)
}

// AttendanceStore flips attendance for a resolved member set. Satisfied by
// *store.Store.
type AttendanceStore interface {
	FlipAttendance(ctx context.Context, roundID int64, memberIDs []int64) error
}

// Reconciler implements reconcile(round_id, challenge_id).
type Reconciler struct {
	submissions SubmissionLister
	tokens      *authtoken.Cache
	store       AttendanceStore
}

// New creates a Reconciler.
func New(submissions SubmissionLister, tokens *authtoken.Cache, store AttendanceStore) *Reconciler {
	return &Reconciler{submissions: submissions, tokens: tokens, store: store}
}

// Reconcile fetches the challenge's submissions, reduces to one graded
// submission per member, and flips attendance for matches in roundID. Any
// failure — token fetch, HTTP, or store write — is logged and swallowed:
// the round proceeds with whatever attendance data already exists.
func (r *Reconciler) Reconcile(ctx context.Context, roundID, challengeID int64) {
	start := time.Now()
	defer func() {
		metrics.StoreQueryDuration.WithLabelValues("reconcile").Observe(time.Since(start).Seconds())
	}()

	members, err := r.gradedMembers(ctx, challengeID)
	if err != nil {
		logging.Warn().Err(err).Int64("round_id", roundID).Int64("challenge_id", challengeID).
			Msg("attendance reconciliation unavailable, proceeding with existing attendance")
		metrics.ReconcileFailuresTotal.Inc()
		return
	}

	if len(members) == 0 {
		return
	}

	if err := r.store.FlipAttendance(ctx, roundID, members); err != nil {
		logging.Warn().Err(err).Int64("round_id", roundID).Msg("failed to persist reconciled attendance")
		metrics.ReconcileFailuresTotal.Inc()
	}
}

// gradedMembers returns the member ids with a latest submission that carries
// a reviewSummation, wrapping any failure in apperrors.ErrReconcileUnavailable.
func (r *Reconciler) gradedMembers(ctx context.Context, challengeID int64) ([]int64, error) {
	token, err := r.tokens.Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrReconcileUnavailable, err)
	}

	submissions, err := r.submissions.ListSubmissions(ctx, token, challengeID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrReconcileUnavailable, err)
	}

	latest := make(map[int64]v5client.Submission, len(submissions))
	for _, s := range submissions {
		if prior, ok := latest[s.MemberID]; !ok || s.Created.After(prior.Created) {
			latest[s.MemberID] = s
		}
	}

	members := make([]int64, 0, len(latest))
	for memberID, s := range latest {
		if s.ReviewSummation != nil {
			members = append(members, memberID)
		}
	}
	return members, nil
}
