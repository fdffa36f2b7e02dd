// Package v5client implements the three HTTP collaborators the processor
// depends on: the Auth0 M2M token endpoint, the challenge lookup endpoint,
// and the paginated submission listing endpoint. Every call goes through
// one *http.Client with a bounded timeout, wrapped in a gobreaker circuit
// breaker so a flaky downstream can't stall every caller behind it.
package v5client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/naividh/member-profile-processor/internal/apperrors"
	"github.com/naividh/member-profile-processor/internal/metrics"
)

// DefaultTimeout is the per-call HTTP timeout, on the order of seconds.
const DefaultTimeout = 10 * time.Second

// Config holds the client's external endpoints and credentials.
type Config struct {
	V5APIURL          string
	Auth0URL          string
	Auth0Audience     string
	Auth0ClientID     string
	Auth0ClientSecret string
	Timeout           time.Duration
}

// Client talks to the Auth0 token endpoint and the V5 API.
type Client struct {
	cfg        Config
	httpClient *http.Client
	breaker    *gobreaker.CircuitBreaker[any]
}

// New creates a Client. A zero Timeout in cfg is replaced with
// DefaultTimeout.
func New(cfg Config) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}

	settings := gobreaker.Settings{
		Name:        "v5client",
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(_ string, _, to gobreaker.State) {
			metrics.CircuitBreakerState.WithLabelValues("v5client").Set(float64(to))
		},
	}

	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		breaker:    gobreaker.NewCircuitBreaker[any](settings),
	}
}

// tokenResponse is the Auth0 client-credentials grant response.
type tokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int64  `json:"expires_in"`
}

// FetchToken implements authtoken.Fetcher by POSTing a client-credentials
// grant to Auth0.
func (c *Client) FetchToken(ctx context.Context) (string, time.Duration, error) {
	body, err := json.Marshal(map[string]string{
		"grant_type":    "client_credentials",
		"client_id":     c.cfg.Auth0ClientID,
		"client_secret": c.cfg.Auth0ClientSecret,
		"audience":      c.cfg.Auth0Audience,
	})
	if err != nil {
		return "", 0, fmt.Errorf("marshal token request: %w", err)
	}

	v, err := c.breaker.Execute(func() (any, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.Auth0URL, bytes.NewReader(body))
		if err != nil {
			return nil, fmt.Errorf("build token request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", apperrors.ErrTokenFetchFailed, err)
		}
		defer resp.Body.Close()

		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return nil, fmt.Errorf("%w: status %d", apperrors.ErrTokenFetchFailed, resp.StatusCode)
		}

		var tr tokenResponse
		if err := json.NewDecoder(resp.Body).Decode(&tr); err != nil {
			return nil, fmt.Errorf("decode token response: %w", err)
		}
		return tr, nil
	})
	if err != nil {
		return "", 0, err
	}

	tr := v.(tokenResponse)
	return tr.AccessToken, time.Duration(tr.ExpiresIn) * time.Second, nil
}

// Challenge is the subset of the challenge-lookup response the router and
// orchestrator need.
type Challenge struct {
	ID       int64
	LegacyID int64
	SubTrack string
}

type challengeResponseEntry struct {
	ID       int64 `json:"id"`
	LegacyID int64 `json:"legacyId"`
	Legacy   struct {
		SubTrack string `json:"subTrack"`
	} `json:"legacy"`
}

// LookupChallengeByLegacyID resolves a challenge via
// GET {V5_API_URL}/challenges?legacyId=<n>. Returns
// apperrors.ErrChallengeUnresolvable if the lookup fails or returns no
// results — a fatal input to calculate().
func (c *Client) LookupChallengeByLegacyID(ctx context.Context, token string, legacyID int64) (Challenge, error) {
	endpoint := fmt.Sprintf("%s/challenges?legacyId=%d", c.cfg.V5APIURL, legacyID)

	v, err := c.breaker.Execute(func() (any, error) {
		var entries []challengeResponseEntry
		if err := c.getJSON(ctx, endpoint, token, &entries); err != nil {
			return nil, err
		}
		if len(entries) == 0 {
			return nil, fmt.Errorf("%w: legacyId %d", apperrors.ErrChallengeUnresolvable, legacyID)
		}
		return entries[0], nil
	})
	if err != nil {
		return Challenge{}, fmt.Errorf("%w: %v", apperrors.ErrChallengeUnresolvable, err)
	}

	e := v.(challengeResponseEntry)
	return Challenge{ID: e.ID, LegacyID: e.LegacyID, SubTrack: e.Legacy.SubTrack}, nil
}

// Submission is the subset of a submission listing entry the reconciler
// needs.
type Submission struct {
	MemberID        int64     `json:"memberId"`
	Created         time.Time `json:"created"`
	ReviewSummation *struct{} `json:"reviewSummation"`
}

// ListSubmissions paginates
// GET {V5_API_URL}/submissions?challengeId=<id>&perPage=500&page=<n> until
// the server-reported x-page response header equals x-total-pages, rather
// than trusting the locally tracked request counter to match what the
// server actually served.
func (c *Client) ListSubmissions(ctx context.Context, token string, challengeID int64) ([]Submission, error) {
	var all []Submission
	page := 1
	for {
		endpoint := fmt.Sprintf("%s/submissions?challengeId=%d&perPage=500&page=%d", c.cfg.V5APIURL, challengeID, page)

		var batch []Submission
		var actualPage, totalPages int
		_, err := c.breaker.Execute(func() (any, error) {
			var err error
			actualPage, totalPages, err = c.getJSONPage(ctx, endpoint, token, &batch)
			return nil, err
		})
		if err != nil {
			return nil, err
		}
		all = append(all, batch...)

		if actualPage >= totalPages || totalPages == 0 {
			break
		}
		page = actualPage + 1
	}
	return all, nil
}

func (c *Client) getJSON(ctx context.Context, endpoint, token string, out any) error {
	_, _, err := c.getJSONPage(ctx, endpoint, token, out)
	return err
}

// getJSONPage performs the GET and returns the server-reported x-page and
// x-total-pages header values (0 if absent — callers treat that as "no
// pagination needed").
func (c *Client) getJSONPage(ctx context.Context, endpoint, token string, out any) (int, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return 0, 0, fmt.Errorf("build request for %s: %w", endpoint, err)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, 0, fmt.Errorf("request %s: %w", endpoint, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return 0, 0, fmt.Errorf("request %s: status %d", endpoint, resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return 0, 0, fmt.Errorf("decode response from %s: %w", endpoint, err)
	}

	actualPage, _ := strconv.Atoi(resp.Header.Get("x-page"))
	totalPages, _ := strconv.Atoi(resp.Header.Get("x-total-pages"))
	return actualPage, totalPages, nil
}
