package orders

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	kafkax "github.com/ariefcatur/go-sales-orders/internal/kafka"
	"github.com/ariefcatur/go-sales-orders/internal/money"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	kafkago "github.com/segmentio/kafka-go"
)

// Store persists orders. Insert and Delete are each one transaction.
type Store interface {
	Insert(ctx context.Context, o *Order) error
	List(ctx context.Context) ([]Order, error)
	Get(ctx context.Context, id int64) (Order, error)
	Delete(ctx context.Context, id int64) error
	// SetItemNames writes product_name for the given item ids.
	SetItemNames(ctx context.Context, names map[int64]string) error
}

type TaxRates interface {
	GetRate(ctx context.Context) (float64, error)
}

// NameResolver maps product ids to display names. A partial or empty result
// is a normal answer, not a failure.
type NameResolver interface {
	ResolveNames(ctx context.Context, ids []int64) map[int64]string
}

type Publisher interface {
	Publish(key, value []byte, headers ...kafkago.Header) error
}

type Service struct {
	Store       Store
	Taxes       TaxRates
	Catalog     NameResolver
	Publisher   Publisher
	Log         zerolog.Logger
	ServiceName string // stamped on events as producer

	now func() time.Time
}

func (s *Service) clock() time.Time {
	if s.now != nil {
		return s.now()
	}
	return time.Now().UTC()
}

// Create prices the cart with the current tax rate and stores the order with
// all of its items atomically.
func (s *Service) Create(ctx context.Context, in CreateInput) (CreateResult, error) {
	if len(in.Items) == 0 {
		return CreateResult{}, ErrEmptyCart
	}
	for i, it := range in.Items {
		if err := validateItem(it); err != nil {
			return CreateResult{}, fmt.Errorf("item %d: %w", i, err)
		}
	}

	lines := make([]float64, len(in.Items))
	var sum float64
	for i, it := range in.Items {
		lines[i] = money.LineTotal(it.Price, it.Quantity)
		sum += it.Price * float64(it.Quantity)
	}
	subtotal := money.Round2(sum)

	rate, err := s.Taxes.GetRate(ctx)
	if err != nil {
		return CreateResult{}, fmt.Errorf("tax rate: %w", err)
	}
	tax := money.Percent(subtotal, rate)

	name := strings.TrimSpace(in.CustomerName)
	if name == "" {
		name = DefaultCustomerName
	}
	o := &Order{
		CustomerName: name,
		Subtotal:     subtotal,
		Tax:          tax,
		Total:        money.Round2(subtotal + tax),
		CreatedAt:    s.clock(),
		Items:        make([]OrderItem, 0, len(in.Items)),
	}
	for i, it := range in.Items {
		o.Items = append(o.Items, OrderItem{
			ProductID:   it.ProductID,
			ProductName: cleanName(it.Name),
			VariantID:   it.VariantID,
			Qty:         it.Quantity,
			UnitPrice:   it.Price,
			TotalPrice:  lines[i],
		})
	}

	if err := s.Store.Insert(ctx, o); err != nil {
		return CreateResult{}, fmt.Errorf("store order: %w", err)
	}
	s.Log.Info().Int64("order_id", o.ID).Float64("total", o.Total).Int("items", len(o.Items)).Msg("order stored")

	s.publish(ctx, o.ID, EventOrderCreated, createdPayload(o))
	return CreateResult{OrderID: o.ID, Total: o.Total, ItemCount: len(o.Items)}, nil
}

// List returns all orders, newest first. Items still missing a product name
// are looked up in the catalog in one batch; names found are written back.
func (s *Service) List(ctx context.Context) ([]Order, error) {
	list, err := s.Store.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	s.backfillNames(ctx, list)
	return list, nil
}

func (s *Service) Get(ctx context.Context, id int64) (Order, error) {
	o, err := s.Store.Get(ctx, id)
	if err != nil {
		return Order{}, err
	}
	one := []Order{o}
	s.backfillNames(ctx, one)
	return one[0], nil
}

// Delete removes the order and its items, or returns ErrNotFound.
func (s *Service) Delete(ctx context.Context, id int64) error {
	if err := s.Store.Delete(ctx, id); err != nil {
		return err
	}
	s.Log.Info().Int64("order_id", id).Msg("order deleted")
	s.publish(ctx, id, EventOrderDeleted, OrderDeletedPayload{OrderID: id})
	return nil
}

// backfillNames fills missing product names in place. Lookup misses leave
// the name nil; a failed write-back is logged and otherwise ignored.
func (s *Service) backfillNames(ctx context.Context, list []Order) {
	if s.Catalog == nil {
		return
	}
	missing := map[int64]struct{}{}
	for _, o := range list {
		for _, it := range o.Items {
			if it.missingName() {
				missing[it.ProductID] = struct{}{}
			}
		}
	}
	if len(missing) == 0 {
		return
	}
	ids := make([]int64, 0, len(missing))
	for id := range missing {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	found := s.Catalog.ResolveNames(ctx, ids)
	if len(found) == 0 {
		return
	}

	updates := map[int64]string{}
	for oi := range list {
		items := list[oi].Items
		for ii := range items {
			if !items[ii].missingName() {
				continue
			}
			n, ok := found[items[ii].ProductID]
			if !ok || n == "" {
				continue
			}
			name := n
			items[ii].ProductName = &name
			updates[items[ii].ID] = n
		}
	}
	if len(updates) == 0 {
		return
	}
	if err := s.Store.SetItemNames(ctx, updates); err != nil {
		s.Log.Warn().Err(err).Int("items", len(updates)).Msg("product name backfill not persisted")
	}
}

// publish sends an order event after the change has been committed. The
// request id set by the HTTP layer, if any, travels as the trace id.
func (s *Service) publish(ctx context.Context, orderID int64, eventType string, payload any) {
	if s.Publisher == nil {
		return
	}
	ev := Envelope{
		EventID:       uuid.NewString(),
		EventType:     eventType,
		EventVersion:  1,
		OccurredAt:    s.clock(),
		Producer:      s.ServiceName,
		TraceID:       middleware.GetReqID(ctx),
		CorrelationID: PartitionKeyString(orderID),
		Payload:       kafkax.MustMarshal(payload),
	}
	err := s.Publisher.Publish(PartitionKey(orderID), kafkax.MustMarshal(ev),
		kafkago.Header{Key: "x-event-type", Value: []byte(eventType)},
		kafkago.Header{Key: "x-event-version", Value: []byte("1")},
	)
	if err != nil {
		s.Log.Warn().Err(err).Int64("order_id", orderID).Str("event", eventType).Msg("order event dropped")
	}
}

func createdPayload(o *Order) OrderCreatedPayload {
	lines := make([]ItemLine, 0, len(o.Items))
	for _, it := range o.Items {
		lines = append(lines, ItemLine{
			ProductID:  it.ProductID,
			VariantID:  it.VariantID,
			Qty:        it.Qty,
			UnitPrice:  it.UnitPrice,
			TotalPrice: it.TotalPrice,
		})
	}
	return OrderCreatedPayload{
		OrderID:      o.ID,
		CustomerName: o.CustomerName,
		Items:        lines,
		Subtotal:     o.Subtotal,
		Tax:          o.Tax,
		Total:        o.Total,
	}
}

func validateItem(it ItemInput) error {
	switch {
	case it.ProductID <= 0:
		return fmt.Errorf("%w: productId is required", ErrInvalidItem)
	case it.Quantity <= 0:
		return fmt.Errorf("%w: quantity must be positive", ErrInvalidItem)
	case it.Price < 0:
		return fmt.Errorf("%w: price must not be negative", ErrInvalidItem)
	}
	return nil
}

func cleanName(n *string) *string {
	if n == nil {
		return nil
	}
	t := strings.TrimSpace(*n)
	if t == "" {
		return nil
	}
	return &t
}
