// Package router implements the Event Router: classifying inbound bus
// messages by topic and payload shape and deciding which orchestrator
// action to invoke. Envelopes are decoded with goccy/go-json for its
// drop-in encoding/json compatibility at lower allocation cost.
package router

import (
	"context"
	"fmt"
	"strings"

	"github.com/goccy/go-json"

	"github.com/naividh/member-profile-processor/internal/apperrors"
	"github.com/naividh/member-profile-processor/internal/logging"
	"github.com/naividh/member-profile-processor/internal/metrics"
	"github.com/naividh/member-profile-processor/internal/orchestrator"
	"github.com/naividh/member-profile-processor/internal/v5client"
)

// ChallengeResolver looks up challenge details by legacy id. Satisfied by
// *v5client.Client via a token-carrying adapter — see TokenedChallengeResolver.
type ChallengeResolver interface {
	ResolveChallenge(ctx context.Context, legacyID int64) (v5client.Challenge, error)
}

// RoundCalculator runs calculate(challenge_id, legacy_id). Satisfied by
// *orchestrator.Orchestrator.
type RoundCalculator interface {
	Calculate(ctx context.Context, challengeID, legacyID int64) (orchestrator.Result, error)
}

// autopilotNotification is Topic A's payload shape.
type autopilotNotification struct {
	PhaseTypeName string `json:"phaseTypeName"`
	State         string `json:"state"`
	ProjectID     int64  `json:"projectId"`
}

// ratingServiceEvent is Topic B's payload shape.
type ratingServiceEvent struct {
	Originator string `json:"originator"`
	Event      string `json:"event"`
	Status     string `json:"status"`
	RoundID    int64  `json:"roundId"`
}

const (
	eventRatingsCalculation = "RATINGS_CALCULATION"
	eventLoadCoders         = "LOAD_CODERS"
	statusSuccess           = "SUCCESS"
	originatorRatingService = "rating.calculation.service"
	subTrackMarathonMatch   = "marathon_match"
)

// LegacyLoader stubs the two legacy data-warehouse hand-offs (loadCoders,
// loadRatings). They exist only to preserve Topic B's ordering contract;
// their actual bodies are out of scope.
type LegacyLoader interface {
	LoadCoders(ctx context.Context, roundID int64)
	LoadRatings(ctx context.Context, roundID int64)
}

// Router classifies and dispatches inbound envelopes from both topics.
type Router struct {
	challenges ChallengeResolver
	rounds     RoundCalculator
	legacy     LegacyLoader
}

// New creates a Router.
func New(challenges ChallengeResolver, rounds RoundCalculator, legacy LegacyLoader) *Router {
	return &Router{challenges: challenges, rounds: rounds, legacy: legacy}
}

// Topic identifies which of the two subscribed topics a message arrived on.
type Topic int

const (
	// TopicAutopilotNotifications carries phase-transition notifications.
	TopicAutopilotNotifications Topic = iota
	// TopicRatingService carries rating-pipeline stage events.
	TopicRatingService
)

// Dispatch decodes payload per topic and performs the classified action.
// Malformed JSON and unrecognized shapes are logged and dropped, never
// returned as retryable errors — the Consumer Harness commits the offset
// regardless.
func (r *Router) Dispatch(ctx context.Context, topic Topic, payload []byte) {
	switch topic {
	case TopicAutopilotNotifications:
		r.dispatchAutopilot(ctx, payload)
	case TopicRatingService:
		r.dispatchRatingService(ctx, payload)
	default:
		err := fmt.Errorf("%w: %d", apperrors.ErrUnrecognizedTopic, topic)
		logging.From(ctx).Warn().Err(err).Int("topic", int(topic)).Msg("unrecognized topic")
		metrics.MessagesDroppedTotal.WithLabelValues("unrecognized_topic").Inc()
	}
}

func (r *Router) dispatchAutopilot(ctx context.Context, payload []byte) {
	log := logging.From(ctx)

	var n autopilotNotification
	if err := json.Unmarshal(payload, &n); err != nil {
		log.Warn().Err(fmt.Errorf("%w: %v", apperrors.ErrMalformedEnvelope, err)).Msg("malformed autopilot notification envelope")
		metrics.MessagesDroppedTotal.WithLabelValues("malformed_envelope").Inc()
		return
	}

	if !strings.EqualFold(n.PhaseTypeName, "review") || !strings.EqualFold(n.State, "end") {
		return
	}

	challenge, err := r.challenges.ResolveChallenge(ctx, n.ProjectID)
	if err != nil {
		log.Warn().Err(err).Int64("project_id", n.ProjectID).Msg("challenge unresolvable, dropping message")
		metrics.MessagesDroppedTotal.WithLabelValues("unresolvable_challenge").Inc()
		return
	}

	if !strings.EqualFold(challenge.SubTrack, subTrackMarathonMatch) {
		return
	}

	result, err := r.rounds.Calculate(ctx, challenge.ID, challenge.LegacyID)
	if err != nil && err != apperrors.ErrAlreadyCalculated {
		log.Warn().Err(err).Int64("challenge_id", challenge.ID).Msg("round calculation failed")
		return
	}
	log.Info().Int64("challenge_id", challenge.ID).Str("result", result.String()).Msg("calculate dispatched")
}

func (r *Router) dispatchRatingService(ctx context.Context, payload []byte) {
	log := logging.From(ctx)

	var e ratingServiceEvent
	if err := json.Unmarshal(payload, &e); err != nil {
		log.Warn().Err(fmt.Errorf("%w: %v", apperrors.ErrMalformedEnvelope, err)).Msg("malformed rating-service event envelope")
		metrics.MessagesDroppedTotal.WithLabelValues("malformed_envelope").Inc()
		return
	}

	if e.Originator != originatorRatingService {
		return
	}
	if e.RoundID == 0 {
		log.Warn().Err(apperrors.ErrMissingRoundID).Msg("rating-service event missing roundId, dropping")
		metrics.MessagesDroppedTotal.WithLabelValues("missing_round_id").Inc()
		return
	}
	if e.Status != statusSuccess {
		return
	}

	switch e.Event {
	case eventRatingsCalculation:
		r.legacy.LoadCoders(ctx, e.RoundID)
	case eventLoadCoders:
		r.legacy.LoadRatings(ctx, e.RoundID)
	}
}
