package orders

import "time"

const DefaultCustomerName = "Guest"

type Order struct {
	ID           int64
	CustomerName string
	Subtotal     float64
	Tax          float64
	Total        float64
	CreatedAt    time.Time
	Items        []OrderItem
}

type OrderItem struct {
	ID          int64
	OrderID     int64
	ProductID   int64
	ProductName *string // nil until known; backfilled from the catalog
	VariantID   *int64
	Qty         int
	UnitPrice   float64 // price at purchase time
	TotalPrice  float64
}

func (it OrderItem) missingName() bool {
	return it.ProductName == nil || *it.ProductName == ""
}

// ItemInput is one cart line as submitted by the client.
type ItemInput struct {
	ProductID int64
	Quantity  int
	Price     float64
	VariantID *int64
	Name      *string
}

type CreateInput struct {
	CustomerName string
	Items        []ItemInput
}

type CreateResult struct {
	OrderID   int64
	Total     float64
	ItemCount int
}
