package router

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/naividh/member-profile-processor/internal/apperrors"
	"github.com/naividh/member-profile-processor/internal/orchestrator"
	"github.com/naividh/member-profile-processor/internal/v5client"
)

type fakeChallengeResolver struct {
	challenge v5client.Challenge
	err       error
	lastArg   int64
}

func (f *fakeChallengeResolver) ResolveChallenge(_ context.Context, legacyID int64) (v5client.Challenge, error) {
	f.lastArg = legacyID
	return f.challenge, f.err
}

type fakeRoundCalculator struct {
	result       orchestrator.Result
	err          error
	challengeID  int64
	legacyID     int64
	wasCalled    bool
}

func (f *fakeRoundCalculator) Calculate(_ context.Context, challengeID, legacyID int64) (orchestrator.Result, error) {
	f.wasCalled = true
	f.challengeID = challengeID
	f.legacyID = legacyID
	return f.result, f.err
}

type fakeLegacyLoader struct {
	loadCodersRoundID  int64
	loadRatingsRoundID int64
}

func (f *fakeLegacyLoader) LoadCoders(_ context.Context, roundID int64)  { f.loadCodersRoundID = roundID }
func (f *fakeLegacyLoader) LoadRatings(_ context.Context, roundID int64) { f.loadRatingsRoundID = roundID }

func TestDispatchAutopilotInvokesCalculateOnMarathonReviewEnd(t *testing.T) {
	challenges := &fakeChallengeResolver{challenge: v5client.Challenge{ID: 7, LegacyID: 42, SubTrack: "MARATHON_MATCH"}}
	rounds := &fakeRoundCalculator{result: orchestrator.Success}
	legacy := &fakeLegacyLoader{}
	r := New(challenges, rounds, legacy)

	payload := []byte(`{"phaseTypeName":"Review","state":"END","projectId":42}`)
	r.Dispatch(context.Background(), TopicAutopilotNotifications, payload)

	assert.True(t, rounds.wasCalled)
	assert.EqualValues(t, 7, rounds.challengeID)
	assert.EqualValues(t, 42, rounds.legacyID)
	assert.EqualValues(t, 42, challenges.lastArg)
}

func TestDispatchAutopilotIgnoresNonReviewEndPhases(t *testing.T) {
	challenges := &fakeChallengeResolver{}
	rounds := &fakeRoundCalculator{}
	r := New(challenges, rounds, &fakeLegacyLoader{})

	payload := []byte(`{"phaseTypeName":"Registration","state":"END","projectId":42}`)
	r.Dispatch(context.Background(), TopicAutopilotNotifications, payload)

	assert.False(t, rounds.wasCalled)
}

func TestDispatchAutopilotIgnoresNonMarathonSubTrack(t *testing.T) {
	challenges := &fakeChallengeResolver{challenge: v5client.Challenge{ID: 7, LegacyID: 42, SubTrack: "develop"}}
	rounds := &fakeRoundCalculator{}
	r := New(challenges, rounds, &fakeLegacyLoader{})

	payload := []byte(`{"phaseTypeName":"review","state":"end","projectId":42}`)
	r.Dispatch(context.Background(), TopicAutopilotNotifications, payload)

	assert.False(t, rounds.wasCalled)
}

func TestDispatchAutopilotDropsUnresolvableChallenge(t *testing.T) {
	challenges := &fakeChallengeResolver{err: errors.New("404")}
	rounds := &fakeRoundCalculator{}
	r := New(challenges, rounds, &fakeLegacyLoader{})

	payload := []byte(`{"phaseTypeName":"review","state":"end","projectId":42}`)
	assert.NotPanics(t, func() {
		r.Dispatch(context.Background(), TopicAutopilotNotifications, payload)
	})
	assert.False(t, rounds.wasCalled)
}

func TestDispatchAutopilotDropsMalformedJSON(t *testing.T) {
	rounds := &fakeRoundCalculator{}
	r := New(&fakeChallengeResolver{}, rounds, &fakeLegacyLoader{})

	assert.NotPanics(t, func() {
		r.Dispatch(context.Background(), TopicAutopilotNotifications, []byte(`not json`))
	})
	assert.False(t, rounds.wasCalled)
}

func TestDispatchAutopilotToleratesAlreadyCalculated(t *testing.T) {
	challenges := &fakeChallengeResolver{challenge: v5client.Challenge{ID: 7, LegacyID: 42, SubTrack: "marathon_match"}}
	rounds := &fakeRoundCalculator{result: orchestrator.AlreadyCalculated, err: apperrors.ErrAlreadyCalculated}
	r := New(challenges, rounds, &fakeLegacyLoader{})

	payload := []byte(`{"phaseTypeName":"review","state":"end","projectId":42}`)
	assert.NotPanics(t, func() {
		r.Dispatch(context.Background(), TopicAutopilotNotifications, payload)
	})
}

func TestDispatchRatingServiceInvokesLoadCodersOnSuccess(t *testing.T) {
	legacy := &fakeLegacyLoader{}
	r := New(&fakeChallengeResolver{}, &fakeRoundCalculator{}, legacy)

	payload := []byte(`{"originator":"rating.calculation.service","event":"RATINGS_CALCULATION","status":"SUCCESS","roundId":10001}`)
	r.Dispatch(context.Background(), TopicRatingService, payload)

	assert.EqualValues(t, 10001, legacy.loadCodersRoundID)
	assert.Zero(t, legacy.loadRatingsRoundID)
}

func TestDispatchRatingServiceInvokesLoadRatingsOnLoadCodersSuccess(t *testing.T) {
	legacy := &fakeLegacyLoader{}
	r := New(&fakeChallengeResolver{}, &fakeRoundCalculator{}, legacy)

	payload := []byte(`{"originator":"rating.calculation.service","event":"LOAD_CODERS","status":"SUCCESS","roundId":10001}`)
	r.Dispatch(context.Background(), TopicRatingService, payload)

	assert.EqualValues(t, 10001, legacy.loadRatingsRoundID)
}

func TestDispatchRatingServiceIgnoresOtherOriginators(t *testing.T) {
	legacy := &fakeLegacyLoader{}
	r := New(&fakeChallengeResolver{}, &fakeRoundCalculator{}, legacy)

	payload := []byte(`{"originator":"someone.else","event":"RATINGS_CALCULATION","status":"SUCCESS","roundId":10001}`)
	r.Dispatch(context.Background(), TopicRatingService, payload)

	assert.Zero(t, legacy.loadCodersRoundID)
}

func TestDispatchRatingServiceDropsMissingRoundID(t *testing.T) {
	legacy := &fakeLegacyLoader{}
	r := New(&fakeChallengeResolver{}, &fakeRoundCalculator{}, legacy)

	payload := []byte(`{"originator":"rating.calculation.service","event":"RATINGS_CALCULATION","status":"SUCCESS"}`)
	assert.NotPanics(t, func() {
		r.Dispatch(context.Background(), TopicRatingService, payload)
	})
	assert.Zero(t, legacy.loadCodersRoundID)
}
