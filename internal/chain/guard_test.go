package chain

//go:generate mockgen -source=anchor.go -destination=mocks/mock_anchor.go -package=mocks

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"credchain/internal/fingerprint"
	"credchain/internal/platform/metrics"
	"credchain/pkg/platform/circuit"
)

type stubClient struct {
	issue func(ctx context.Context, id string, fp fingerprint.Fingerprint) (*Receipt, error)
	read  func(ctx context.Context, id string) (*Anchor, error)
	calls int
}

func (s *stubClient) Issue(ctx context.Context, id string, fp fingerprint.Fingerprint) (*Receipt, error) {
	s.calls++
	return s.issue(ctx, id, fp)
}

func (s *stubClient) Read(ctx context.Context, id string) (*Anchor, error) {
	s.calls++
	return s.read(ctx, id)
}

func (s *stubClient) SetIssuerAuthorization(context.Context, string, bool) (*Receipt, error) {
	s.calls++
	return &Receipt{Reference: "0xabc"}, nil
}

func (s *stubClient) Network() string { return "stub" }

func newTestGuard(next AnchorClient, opts ...GuardOption) *Guard {
	logger := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
	base := []GuardOption{WithLogger(logger), WithMetrics(metrics.New(prometheus.NewRegistry()))}
	return NewGuard(next, append(base, opts...)...)
}

func TestGuardPassesThroughSuccess(t *testing.T) {
	fp := fingerprint.Bind([]byte("x"), nil)
	stub := &stubClient{issue: func(context.Context, string, fingerprint.Fingerprint) (*Receipt, error) {
		return &Receipt{Reference: "0x01", BlockNumber: 7}, nil
	}}
	g := newTestGuard(stub)

	receipt, err := g.Issue(context.Background(), "CERT-1", fp)
	require.NoError(t, err)
	assert.Equal(t, uint64(7), receipt.BlockNumber)
	assert.Equal(t, "stub", g.Network())
}

func TestGuardTimeoutIsUnavailable(t *testing.T) {
	stub := &stubClient{issue: func(ctx context.Context, _ string, _ fingerprint.Fingerprint) (*Receipt, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	}}
	g := newTestGuard(stub, WithTimeout(10*time.Millisecond))

	_, err := g.Issue(context.Background(), "CERT-1", fingerprint.Bind([]byte("x"), nil))
	require.Error(t, err)
	assert.True(t, IsUnavailable(err))
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestGuardClassifiesUntypedErrorsAsUnavailable(t *testing.T) {
	stub := &stubClient{read: func(context.Context, string) (*Anchor, error) {
		return nil, errors.New("connection refused")
	}}
	g := newTestGuard(stub)

	_, err := g.Read(context.Background(), "CERT-1")
	assert.True(t, IsUnavailable(err))
}

func TestGuardOpensBreakerOnUnavailable(t *testing.T) {
	stub := &stubClient{read: func(context.Context, string) (*Anchor, error) {
		return nil, Unavailable("read", errors.New("rpc down"))
	}}
	breaker := circuit.New("chain", circuit.WithFailureThreshold(2), circuit.WithCooldown(time.Hour))
	g := newTestGuard(stub, WithBreaker(breaker))

	for range 2 {
		_, err := g.Read(context.Background(), "CERT-1")
		require.True(t, IsUnavailable(err))
	}
	require.True(t, breaker.IsOpen())

	_, err := g.Read(context.Background(), "CERT-1")
	assert.ErrorIs(t, err, ErrCircuitOpen)
	assert.Equal(t, 2, stub.calls, "open breaker fails fast without calling the ledger")
}

func TestGuardRejectionsAndNotFoundDoNotTripBreaker(t *testing.T) {
	stub := &stubClient{
		issue: func(context.Context, string, fingerprint.Fingerprint) (*Receipt, error) {
			return nil, Rejected("issue", ReasonDuplicateID, nil)
		},
		read: func(_ context.Context, id string) (*Anchor, error) {
			return nil, NotFound("read", id)
		},
	}
	breaker := circuit.New("chain", circuit.WithFailureThreshold(1))
	g := newTestGuard(stub, WithBreaker(breaker))

	_, err := g.Issue(context.Background(), "CERT-1", fingerprint.Bind([]byte("x"), nil))
	assert.True(t, IsRejected(err))
	_, err = g.Read(context.Background(), "CERT-1")
	assert.True(t, IsNotFound(err))

	assert.False(t, breaker.IsOpen())
}

func TestGuardCallerCancellationDoesNotTripBreaker(t *testing.T) {
	stub := &stubClient{read: func(ctx context.Context, id string) (*Anchor, error) {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(50 * time.Millisecond):
			return &Anchor{Issuer: "0x01"}, nil
		}
	}}
	breaker := circuit.New("chain", circuit.WithFailureThreshold(2), circuit.WithCooldown(time.Hour))
	g := newTestGuard(stub, WithBreaker(breaker))

	for range 5 {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Millisecond)
		_, err := g.Read(ctx, "CERT-1")
		cancel()
		require.True(t, IsUnavailable(err))
	}
	assert.False(t, breaker.IsOpen())

	anchor, err := g.Read(context.Background(), "CERT-1")
	require.NoError(t, err)
	assert.Equal(t, "0x01", anchor.Issuer)
}

func TestGuardOwnTimeoutStillTripsBreaker(t *testing.T) {
	stub := &stubClient{read: func(ctx context.Context, _ string) (*Anchor, error) {
		<-ctx.Done()
		return nil, Unavailable("read", ctx.Err())
	}}
	breaker := circuit.New("chain", circuit.WithFailureThreshold(2), circuit.WithCooldown(time.Hour))
	g := newTestGuard(stub, WithBreaker(breaker), WithTimeout(5*time.Millisecond))

	for range 2 {
		_, err := g.Read(context.Background(), "CERT-1")
		require.True(t, IsUnavailable(err))
		assert.Equal(t, 1, strings.Count(err.Error(), "[unavailable]"), "typed errors are not wrapped twice")
		assert.ErrorIs(t, err, context.DeadlineExceeded)
	}
	assert.True(t, breaker.IsOpen())
}

func TestErrorFormatting(t *testing.T) {
	err := Rejected("issue", ReasonDuplicateID, nil)
	assert.Equal(t, "chain issue [rejected]: certificate id already anchored", err.Error())
	assert.False(t, IsRetryable(err))

	kind, ok := KindOf(Unavailable("read", errors.New("eof")))
	assert.True(t, ok)
	assert.Equal(t, KindUnavailable, kind)
}
