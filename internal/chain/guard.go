package chain

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"credchain/internal/fingerprint"
	"credchain/internal/platform/metrics"
	"credchain/pkg/platform/circuit"
)

const tracerName = "credchain/internal/chain"

// Guard decorates an AnchorClient with a per-call deadline, a circuit
// breaker, tracing and latency metrics. A call that runs out of time is
// reported as Unavailable: for Issue its on-ledger outcome is then unknown.
type Guard struct {
	next    AnchorClient
	breaker *circuit.Breaker
	timeout time.Duration
	logger  *slog.Logger
	metrics *metrics.Metrics
}

type GuardOption func(*Guard)

func WithTimeout(d time.Duration) GuardOption {
	return func(g *Guard) {
		if d > 0 {
			g.timeout = d
		}
	}
}

func WithBreaker(b *circuit.Breaker) GuardOption {
	return func(g *Guard) {
		g.breaker = b
	}
}

func WithLogger(logger *slog.Logger) GuardOption {
	return func(g *Guard) {
		g.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) GuardOption {
	return func(g *Guard) {
		g.metrics = m
	}
}

func NewGuard(next AnchorClient, opts ...GuardOption) *Guard {
	g := &Guard{
		next:    next,
		timeout: 2 * time.Minute,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(g)
	}
	if g.breaker == nil {
		g.breaker = circuit.New("chain")
	}
	return g
}

func (g *Guard) Network() string {
	return g.next.Network()
}

func (g *Guard) Issue(ctx context.Context, certificateID string, fp fingerprint.Fingerprint) (*Receipt, error) {
	var receipt *Receipt
	err := g.call(ctx, "issue", func(ctx context.Context) error {
		var err error
		receipt, err = g.next.Issue(ctx, certificateID, fp)
		return err
	}, attribute.String("certificate_id", certificateID))
	return receipt, err
}

func (g *Guard) Read(ctx context.Context, certificateID string) (*Anchor, error) {
	var anchor *Anchor
	err := g.call(ctx, "read", func(ctx context.Context) error {
		var err error
		anchor, err = g.next.Read(ctx, certificateID)
		return err
	}, attribute.String("certificate_id", certificateID))
	return anchor, err
}

func (g *Guard) SetIssuerAuthorization(ctx context.Context, address string, allowed bool) (*Receipt, error) {
	var receipt *Receipt
	err := g.call(ctx, "set_issuer", func(ctx context.Context) error {
		var err error
		receipt, err = g.next.SetIssuerAuthorization(ctx, address, allowed)
		return err
	}, attribute.String("issuer_address", address), attribute.Bool("allowed", allowed))
	return receipt, err
}

func (g *Guard) call(ctx context.Context, op string, fn func(context.Context) error, attrs ...attribute.KeyValue) error {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "chain."+op)
	defer span.End()
	span.SetAttributes(append(attrs, attribute.String("chain.network", g.next.Network()))...)

	start := time.Now()
	err := g.attempt(ctx, op, fn)
	outcome := outcomeOf(err)
	g.metrics.ObserveChainCall(op, outcome, time.Since(start))

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, outcome)
	}
	return err
}

func (g *Guard) attempt(ctx context.Context, op string, fn func(context.Context) error) error {
	if !g.breaker.Allow() {
		return Unavailable(op, ErrCircuitOpen)
	}

	callCtx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	err := fn(callCtx)
	if err != nil {
		var ce *Error
		if !errors.As(err, &ce) {
			if cerr := callCtx.Err(); cerr != nil && !errors.Is(err, cerr) {
				err = errors.Join(cerr, err)
			}
			err = Unavailable(op, err)
		}
	}

	// The caller gave up before the ledger answered. That says nothing about
	// the ledger, so the breaker is left alone.
	if ctxErr := ctx.Err(); ctxErr != nil && IsUnavailable(err) {
		g.logger.DebugContext(ctx, "chain call abandoned by caller", "op", op, "error", ctxErr)
		return err
	}

	if IsUnavailable(err) {
		if _, change := g.breaker.RecordFailure(); change.Opened {
			g.logger.WarnContext(ctx, "chain circuit opened", "breaker", g.breaker.Name(), "error", err)
			g.metrics.SetChainBreakerOpen(true)
		}
		return err
	}
	if _, change := g.breaker.RecordSuccess(); change.Closed {
		g.logger.InfoContext(ctx, "chain circuit closed", "breaker", g.breaker.Name())
		g.metrics.SetChainBreakerOpen(false)
	}
	return err
}

func outcomeOf(err error) string {
	if err == nil {
		return "success"
	}
	if kind, ok := KindOf(err); ok {
		return string(kind)
	}
	return "error"
}
