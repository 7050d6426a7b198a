package mail

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// Result describes one Deliver call.
type Result struct {
	Delivered bool
	Transport string
	FellBack  bool
	Duration  time.Duration
}

// ProbeResult is one transport's reachability.
type ProbeResult struct {
	Method string `json:"method"`
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

// OK reports whether the transport was reachable.
func (p ProbeResult) OK() bool { return p.Status == "success" }

// Gateway delivers through a primary transport with one fallback.
type Gateway struct {
	primary  Transport
	fallback Transport
	logger   *zap.Logger
	now      func() time.Time
}

// NewGateway builds a gateway. fallback and logger may be nil.
func NewGateway(primary, fallback Transport, logger *zap.Logger) *Gateway {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Gateway{
		primary:  primary,
		fallback: fallback,
		logger:   logger.Named("mail"),
		now:      time.Now,
	}
}

// HasFallback reports whether a second route is configured.
func (g *Gateway) HasFallback() bool {
	return g != nil && g.fallback != nil
}

// Deliver sends msg. When both routes fail the returned error wraps
// ErrDeliveryFailed and carries the last underlying failure.
func (g *Gateway) Deliver(ctx context.Context, msg Message) (Result, error) {
	if g == nil || g.primary == nil {
		return Result{}, ErrNoTransport
	}
	start := g.now()

	err := g.primary.Send(ctx, msg)
	if err == nil {
		return Result{Delivered: true, Transport: g.primary.Name(), Duration: g.now().Sub(start)}, nil
	}
	if errors.Is(err, ErrInvalidRecipient) {
		return Result{Transport: g.primary.Name(), Duration: g.now().Sub(start)}, fmt.Errorf("%w: %v", ErrDeliveryFailed, err)
	}

	if g.fallback == nil || ctx.Err() != nil {
		g.logger.Warn("mail delivery failed",
			zap.String("transport", g.primary.Name()),
			zap.Error(err),
		)
		return Result{Transport: g.primary.Name(), Duration: g.now().Sub(start)}, fmt.Errorf("%w: %v", ErrDeliveryFailed, err)
	}

	g.logger.Warn("primary transport failed, trying fallback",
		zap.String("primary", g.primary.Name()),
		zap.String("fallback", g.fallback.Name()),
		zap.Error(err),
	)

	if ferr := g.fallback.Send(ctx, msg); ferr != nil {
		g.logger.Error("mail delivery exhausted",
			zap.String("transport", g.fallback.Name()),
			zap.Error(ferr),
		)
		return Result{Transport: g.fallback.Name(), FellBack: true, Duration: g.now().Sub(start)}, fmt.Errorf("%w: %v", ErrDeliveryFailed, ferr)
	}

	return Result{Delivered: true, Transport: g.fallback.Name(), FellBack: true, Duration: g.now().Sub(start)}, nil
}

// Probe dials each configured transport in order.
func (g *Gateway) Probe(ctx context.Context) []ProbeResult {
	if g == nil {
		return nil
	}
	var results []ProbeResult
	for _, t := range []Transport{g.primary, g.fallback} {
		if t == nil {
			continue
		}
		res := ProbeResult{Method: t.Name(), Status: "success"}
		if err := t.Probe(ctx); err != nil {
			res.Status = "failed"
			res.Error = err.Error()
		}
		results = append(results, res)
	}
	return results
}

// Reachable reports whether any probe succeeded.
func Reachable(results []ProbeResult) bool {
	for _, r := range results {
		if r.OK() {
			return true
		}
	}
	return false
}
