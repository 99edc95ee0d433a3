package handler

import (
	"context"

	"github.com/go-faster/errors"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/xenking/kart-wholesale/internal/domain/order"
	"github.com/xenking/kart-wholesale/internal/domain/wholesale"
)

// Metrics counts wholesale pricing decisions.
type Metrics struct {
	gateChecks metric.Int64Counter
	discounted metric.Int64Counter
	orders     metric.Int64Counter
}

// NewMetrics registers the pricing instruments on mp.
func NewMetrics(mp metric.MeterProvider) (*Metrics, error) {
	meter := mp.Meter("github.com/xenking/kart-wholesale/internal/handler")

	gateChecks, err := meter.Int64Counter("wholesale.gate.checks",
		metric.WithDescription("Quantity gate evaluations by outcome"),
	)
	if err != nil {
		return nil, errors.Wrap(err, "gate checks counter")
	}
	discounted, err := meter.Int64Counter("wholesale.lines.discounted",
		metric.WithDescription("Cart lines priced at their wholesale price"),
	)
	if err != nil {
		return nil, errors.Wrap(err, "discounted lines counter")
	}
	orders, err := meter.Int64Counter("wholesale.orders",
		metric.WithDescription("Placed orders by pricing tier"),
	)
	if err != nil {
		return nil, errors.Wrap(err, "orders counter")
	}

	return &Metrics{gateChecks: gateChecks, discounted: discounted, orders: orders}, nil
}

func (m *Metrics) recordQuote(ctx context.Context, q *order.Quote, mode wholesale.GateMode) {
	if m == nil || !q.Resolution.Eligible {
		return
	}
	m.gateChecks.Add(ctx, 1, metric.WithAttributes(
		attribute.Bool("admitted", q.Gate.Admitted),
		attribute.String("gate_mode", string(mode)),
	))
	if q.Resolution.Discounted > 0 {
		m.discounted.Add(ctx, int64(q.Resolution.Discounted))
	}
}

func (m *Metrics) recordOrder(ctx context.Context, o *order.Order) {
	if m == nil {
		return
	}
	tier := "regular"
	if o.Wholesale {
		tier = "wholesale"
	}
	m.orders.Add(ctx, 1, metric.WithAttributes(attribute.String("tier", tier)))
}

func (m *Metrics) recordRejection(ctx context.Context, mode wholesale.GateMode) {
	if m == nil {
		return
	}
	m.gateChecks.Add(ctx, 1, metric.WithAttributes(
		attribute.Bool("admitted", false),
		attribute.String("gate_mode", string(mode)),
	))
}
