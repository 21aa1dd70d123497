package oracle

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/failsafe-go/failsafe-go/circuitbreaker"
	"github.com/jonboulle/clockwork"
	"github.com/pscheid92/moodpulse/internal/domain"
	"github.com/pscheid92/moodpulse/internal/metrics"
	"golang.org/x/sync/singleflight"
)

const (
	DefaultTimeout = 3 * time.Second

	maxResponseBytes = 64 << 10
)

var (
	errUnexpectedStatus = errors.New("unexpected status")
	errMalformed        = errors.New("malformed response")
	errUnknownLabel     = errors.New("unknown label")
)

var _ domain.Classifier = (*Client)(nil)

type predictRequest struct {
	Text string `json:"text"`
}

type predictResponse struct {
	Emotion    string   `json:"emotion"`
	Confidence *float64 `json:"confidence"`
	Language   string   `json:"language"`
	Label      string   `json:"label"`
}

// Client talks to the classification service. Classify never fails: every
// problem on the way degrades to domain.FallbackClassification.
type Client struct {
	url     string
	timeout time.Duration
	http    *http.Client
	breaker circuitbreaker.CircuitBreaker[any]
	clock   clockwork.Clock
	group   singleflight.Group
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

func WithClock(clock clockwork.Clock) Option {
	return func(c *Client) { c.clock = clock }
}

func WithCircuitBreaker(cb circuitbreaker.CircuitBreaker[any]) Option {
	return func(c *Client) { c.breaker = cb }
}

func NewClient(url string, timeout time.Duration, opts ...Option) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	c := &Client{
		url:     url,
		timeout: timeout,
		http:    &http.Client{},
		breaker: NewCircuitBreaker(),
		clock:   clockwork.NewRealClock(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// NewCircuitBreaker opens after 60% failures over at least 5 calls in 10s and
// probes again after 30s.
func NewCircuitBreaker() circuitbreaker.CircuitBreaker[any] {
	return circuitbreaker.NewBuilder[any]().
		WithFailureRateThreshold(0.6, 5, 10*time.Second).
		WithDelay(30 * time.Second).
		WithSuccessThreshold(1).
		OnStateChanged(func(e circuitbreaker.StateChangedEvent) {
			slog.Warn("Circuit breaker state changed",
				"component", "oracle",
				"from", e.OldState.String(),
				"to", e.NewState.String(),
			)
			metrics.CircuitBreakerStateChanges.WithLabelValues("oracle", e.NewState.String()).Inc()
			metrics.CircuitBreakerState.WithLabelValues("oracle").Set(stateToFloat(e.NewState))
		}).
		Build()
}

func stateToFloat(state circuitbreaker.State) float64 {
	switch state {
	case circuitbreaker.ClosedState:
		return 0
	case circuitbreaker.HalfOpenState:
		return 1
	case circuitbreaker.OpenState:
		return 2
	default:
		return -1
	}
}

// Classify asks the oracle for text's emotion. Concurrent calls for the same text
// share one request.
func (c *Client) Classify(ctx context.Context, text string) domain.Classification {
	v, err, shared := c.group.Do(text, func() (any, error) {
		return c.predict(ctx, text)
	})
	if err != nil {
		reason := failureReason(err)
		metrics.OracleFailuresTotal.WithLabelValues(reason).Inc()
		slog.WarnContext(ctx, "Classification failed, using fallback", "reason", reason, "error", err)
		return domain.FallbackClassification(text)
	}
	if shared {
		slog.DebugContext(ctx, "Shared in-flight classification")
	}
	return v.(domain.Classification)
}

func (c *Client) predict(ctx context.Context, text string) (domain.Classification, error) {
	if !c.breaker.TryAcquirePermit() {
		return domain.Classification{}, circuitbreaker.ErrOpen
	}

	start := c.clock.Now()
	result, err := c.call(ctx, text)
	metrics.OracleRequestDuration.Observe(c.clock.Since(start).Seconds())

	if err != nil {
		c.breaker.RecordError(err)
		return domain.Classification{}, err
	}
	c.breaker.RecordSuccess()
	return result, nil
}

func (c *Client) call(ctx context.Context, text string) (domain.Classification, error) {
	// Detached from the caller's cancellation: the request may be shared.
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.timeout)
	defer cancel()

	body, err := json.Marshal(predictRequest{Text: text})
	if err != nil {
		return domain.Classification{}, fmt.Errorf("failed to encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return domain.Classification{}, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return domain.Classification{}, fmt.Errorf("oracle request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxResponseBytes))
		return domain.Classification{}, fmt.Errorf("%w: %d", errUnexpectedStatus, resp.StatusCode)
	}

	var pr predictResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBytes)).Decode(&pr); err != nil {
		return domain.Classification{}, fmt.Errorf("%w: %w", errMalformed, err)
	}
	return toClassification(pr, text)
}

func toClassification(pr predictResponse, text string) (domain.Classification, error) {
	if pr.Confidence == nil {
		return domain.Classification{}, fmt.Errorf("%w: missing confidence", errMalformed)
	}

	label, remapped, ok := resolveLabel(pr.Emotion)
	if !ok {
		return domain.Classification{}, fmt.Errorf("%w: %q", errUnknownLabel, pr.Emotion)
	}

	lang, ok := domain.ParseLanguage(pr.Language)
	if !ok {
		lang = domain.DetectLanguage(text)
	}

	display := pr.Label
	if display == "" || remapped {
		display = label.Display(lang)
	}

	return domain.Classification{
		Label:        label,
		Confidence:   clamp(*pr.Confidence),
		Language:     lang,
		DisplayLabel: display,
	}, nil
}

func clamp(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}

func failureReason(err error) string {
	var netErr net.Error
	switch {
	case errors.Is(err, circuitbreaker.ErrOpen):
		return "circuit_open"
	case errors.Is(err, context.DeadlineExceeded), errors.As(err, &netErr) && netErr.Timeout():
		return "timeout"
	case errors.Is(err, errUnexpectedStatus):
		return "status"
	case errors.Is(err, errMalformed):
		return "malformed"
	case errors.Is(err, errUnknownLabel):
		return "unknown_label"
	default:
		return "transport"
	}
}
