package order

import (
	"context"
	"fmt"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/xenking/kart-wholesale/internal/domain/product"
	"github.com/xenking/kart-wholesale/internal/domain/wholesale"
)

// ErrEmptyItems is returned for a cart without lines.
var ErrEmptyItems = errors.New("items required")

// ProductNotFoundError indicates a requested product does not exist.
type ProductNotFoundError struct {
	ProductID string
}

func (e *ProductNotFoundError) Error() string {
	return fmt.Sprintf("product %s not found", e.ProductID)
}

// InvalidQuantityError indicates a line item has a non-positive quantity.
type InvalidQuantityError struct {
	ProductID string
}

func (e *InvalidQuantityError) Error() string {
	return fmt.Sprintf("quantity must be greater than 0 for product %s", e.ProductID)
}

// AdmissionError blocks checkout of a cart rejected by the quantity gate.
// Message is meant for the shopper.
type AdmissionError struct {
	Quantity int
	Message  string
}

func (e *AdmissionError) Error() string {
	return e.Message
}

// ConfigSource supplies the wholesale configuration for a request.
type ConfigSource interface {
	Current() wholesale.Config
}

// Quote is a priced cart that has not been persisted.
type Quote struct {
	Cart       wholesale.Cart
	Products   []product.Product
	Gate       wholesale.GateResult
	Resolution wholesale.Resolution
	Subtotal   decimal.Decimal
}

// WholesaleApplied reports whether any line got its wholesale price.
func (q *Quote) WholesaleApplied() bool {
	return q.Resolution.Discounted > 0
}

// LineWholesale reports whether line i was priced at its wholesale price.
func (q *Quote) LineWholesale(i int) bool {
	if !q.Resolution.Eligible || !q.Gate.Admitted {
		return false
	}
	_, ok := q.Cart.Lines[i].Pricing.Wholesale()
	return ok
}

// PlaceOrderResult holds the output of a successfully placed order.
type PlaceOrderResult struct {
	Order    *Order
	Products []product.Product
}

// Service prices carts and places orders.
type Service struct {
	products product.Repository
	settings ConfigSource
	policy   wholesale.PricingPolicy
	orders   Repository
	tracer   trace.Tracer
}

// NewService creates an order Service with the required domain dependencies.
func NewService(
	products product.Repository,
	settings ConfigSource,
	policy wholesale.PricingPolicy,
	orders Repository,
	tracer trace.Tracer,
) *Service {
	return &Service{
		products: products,
		settings: settings,
		policy:   policy,
		orders:   orders,
		tracer:   tracer,
	}
}

// Quote builds the cart from the catalog, runs the quantity gate and resolves
// line prices. A rejected gate is reported in the result, not as an error.
func (s *Service) Quote(ctx context.Context, actor wholesale.Actor, items []Item) (*Quote, error) {
	ctx, span := s.tracer.Start(ctx, "order.Quote")
	defer span.End()

	q, err := s.quote(ctx, actor, s.settings.Current(), items)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	return q, nil
}

func (s *Service) quote(ctx context.Context, actor wholesale.Actor, cfg wholesale.Config, items []Item) (*Quote, error) {
	if len(items) == 0 {
		return nil, ErrEmptyItems
	}

	ids := make([]string, len(items))
	for i, item := range items {
		if item.Quantity <= 0 {
			return nil, &InvalidQuantityError{ProductID: item.ProductID}
		}
		ids[i] = item.ProductID
	}

	fetched, err := s.products.GetByIDs(ctx, ids)
	if err != nil {
		return nil, errors.Wrap(err, "get products")
	}
	productMap := make(map[string]product.Product, len(fetched))
	for _, p := range fetched {
		productMap[p.ID] = p
	}

	products := make([]product.Product, 0, len(items))
	cart := wholesale.Cart{Lines: make([]wholesale.CartLine, 0, len(items))}
	for _, item := range items {
		p, ok := productMap[item.ProductID]
		if !ok {
			return nil, &ProductNotFoundError{ProductID: item.ProductID}
		}
		products = append(products, p)
		cart.Lines = append(cart.Lines, wholesale.NewLine(p.ID, item.Quantity, p.Pricing()))
	}

	// Admission is decided before prices are resolved; totals come last.
	gate := s.policy.CheckAdmission(actor, &cart, cfg)
	res := s.policy.Resolve(actor, &cart, cfg)

	trace.SpanFromContext(ctx).SetAttributes(
		attribute.Int("cart.quantity", cart.AggregateQuantity()),
		attribute.Bool("wholesale.eligible", res.Eligible),
		attribute.Bool("wholesale.admitted", gate.Admitted),
		attribute.Int("wholesale.discounted_lines", res.Discounted),
	)

	return &Quote{
		Cart:       cart,
		Products:   products,
		Gate:       gate,
		Resolution: res,
		Subtotal:   cart.Subtotal(),
	}, nil
}

// PlaceOrder prices the cart, refuses checkout when the quantity gate rejects
// it, and persists the order with the resolved line prices.
func (s *Service) PlaceOrder(ctx context.Context, actor wholesale.Actor, items []Item) (*PlaceOrderResult, error) {
	ctx, span := s.tracer.Start(ctx, "order.PlaceOrder")
	defer span.End()

	result, err := s.placeOrder(ctx, actor, items)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	span.SetAttributes(attribute.String("order.id", result.Order.ID))
	return result, nil
}

func (s *Service) placeOrder(ctx context.Context, actor wholesale.Actor, items []Item) (*PlaceOrderResult, error) {
	q, err := s.quote(ctx, actor, s.settings.Current(), items)
	if err != nil {
		return nil, err
	}
	if !q.Gate.Admitted {
		return nil, &AdmissionError{Quantity: q.Cart.AggregateQuantity(), Message: q.Gate.Message}
	}

	orderItems := make([]OrderItem, len(q.Cart.Lines))
	for i, line := range q.Cart.Lines {
		orderItems[i] = OrderItem{
			ProductID: line.ProductID,
			Quantity:  line.Quantity,
			UnitPrice: line.Price,
			Wholesale: q.LineWholesale(i),
		}
	}

	o := &Order{
		ID:        uuid.New().String(),
		ActorID:   actor.ID,
		Items:     orderItems,
		Total:     q.Subtotal.Round(2),
		Wholesale: q.WholesaleApplied(),
		CreatedAt: time.Now().UTC(),
	}
	if err := s.orders.Create(ctx, o); err != nil {
		return nil, errors.Wrap(err, "create order")
	}

	return &PlaceOrderResult{
		Order:    o,
		Products: q.Products,
	}, nil
}
