package services

import (
	"context"
	"errors"
	"fmt"

	"storefront/internal/models"
	"storefront/internal/repositories"
	"storefront/pkg/metrics"

	"go.uber.org/zap"
)

// StockLine is one requested decrement or restoration.
type StockLine struct {
	ProductID string
	Title     string
	Size      string
	Color     string
	Quantity  int
}

func stockLinesFromItems(items []models.OrderItem) []StockLine {
	lines := make([]StockLine, 0, len(items))
	for _, item := range items {
		lines = append(lines, StockLine{
			ProductID: item.ProductID,
			Title:     item.DisplayName(),
			Size:      item.SelectedSize,
			Color:     item.SelectedColor,
			Quantity:  item.Quantity,
		})
	}
	return lines
}

type cellKey struct {
	productID string
	size      string
	color     string
}

// cellDemand is the total requested from one cell across an order.
type cellDemand struct {
	cellKey
	title     string
	quantity  int
	available int
}

// StockReserver decrements stock cells for an order. All lines are validated against
// a snapshot before anything is written; each cell is then committed with the
// repository's conditional decrement, and committed cells are restored if a later
// one fails.
type StockReserver struct {
	products repositories.ProductRepository
	logger   *zap.Logger
	metrics  *metrics.Metrics
}

// NewStockReserver creates a StockReserver over the product store.
func NewStockReserver(products repositories.ProductRepository, logger *zap.Logger, m *metrics.Metrics) *StockReserver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StockReserver{products: products, logger: logger, metrics: m}
}

// Reservation is a set of committed decrements that can be undone.
type Reservation struct {
	reserver  *StockReserver
	committed []cellDemand
}

// Check runs the validation pass only. Nothing is written.
func (r *StockReserver) Check(ctx context.Context, lines []StockLine) error {
	_, err := r.plan(ctx, lines)
	return err
}

// Reserve validates every line and then commits the decrements.
func (r *StockReserver) Reserve(ctx context.Context, lines []StockLine) (*Reservation, error) {
	demands, err := r.plan(ctx, lines)
	if err != nil {
		return nil, err
	}

	res := &Reservation{reserver: r}
	for _, d := range demands {
		_, err := r.products.AdjustStock(ctx, d.productID, d.size, d.color, -d.quantity)
		if err == nil {
			res.committed = append(res.committed, d)
			continue
		}

		res.Release(ctx)
		return nil, r.commitFailure(ctx, d, err)
	}
	return res, nil
}

// Release restores every committed decrement. Failures are logged; the caller has
// already decided the reservation is void.
func (res *Reservation) Release(ctx context.Context) {
	if res == nil {
		return
	}
	for i := len(res.committed) - 1; i >= 0; i-- {
		d := res.committed[i]
		if _, err := res.reserver.products.AdjustStock(ctx, d.productID, d.size, d.color, d.quantity); err != nil {
			res.reserver.logger.Error("failed to release reserved stock",
				zap.String("product_id", d.productID),
				zap.String("size", d.size),
				zap.String("color", d.color),
				zap.Int("quantity", d.quantity),
				zap.Error(err),
			)
		}
	}
	res.committed = nil
}

// Restore adds quantities back, e.g. on cancellation. Lines whose product or cell no
// longer exists are skipped with a warning.
func (r *StockReserver) Restore(ctx context.Context, lines []StockLine) error {
	for _, line := range lines {
		if line.Quantity <= 0 {
			continue
		}
		_, err := r.products.AdjustStock(ctx, line.ProductID, line.Size, line.Color, line.Quantity)
		switch {
		case err == nil:
		case errors.Is(err, repositories.ErrNotFound), errors.Is(err, repositories.ErrStockCellNotFound):
			r.logger.Warn("skipping stock restore for missing product or cell",
				zap.String("product_id", line.ProductID),
				zap.String("size", line.Size),
				zap.String("color", line.Color),
				zap.Int("quantity", line.Quantity),
			)
		default:
			return fmt.Errorf("failed to restore stock for %s: %w", line.ProductID, err)
		}
	}
	return nil
}

// plan resolves every line against the current catalog and sums duplicate cells.
func (r *StockReserver) plan(ctx context.Context, lines []StockLine) ([]cellDemand, error) {
	products := make(map[string]*models.Product)
	index := make(map[cellKey]int)
	var demands []cellDemand

	for _, line := range lines {
		if line.ProductID == "" {
			r.metrics.StockReservationFailed("missing_product_id")
			return nil, newError(ErrValidation, "Product ID missing for item: %s", line.Title)
		}
		if line.Quantity <= 0 {
			r.metrics.StockReservationFailed("invalid_quantity")
			return nil, newError(ErrValidation, "Invalid quantity for item: %s", line.Title)
		}

		product, ok := products[line.ProductID]
		if !ok {
			p, err := r.products.GetByID(ctx, line.ProductID)
			if errors.Is(err, repositories.ErrNotFound) {
				r.metrics.StockReservationFailed("product_not_found")
				return nil, newError(ErrNotFound, "Product not found: %s", line.Title)
			}
			if err != nil {
				return nil, fmt.Errorf("failed to load product %s: %w", line.ProductID, err)
			}
			products[line.ProductID] = p
			product = p
		}

		if !product.StockDetails.HasSize(line.Size) {
			r.metrics.StockReservationFailed("invalid_selection")
			return nil, newError(ErrInvalidSelection, "Size %s not available for %s", line.Size, product.Title)
		}
		cell, ok := product.StockDetails.Cell(line.Size, line.Color)
		if !ok {
			r.metrics.StockReservationFailed("invalid_selection")
			return nil, newError(ErrInvalidSelection, "Color %s not available for %s", line.Color, product.Title)
		}

		key := cellKey{productID: line.ProductID, size: line.Size, color: line.Color}
		if i, seen := index[key]; seen {
			demands[i].quantity += line.Quantity
			continue
		}
		index[key] = len(demands)
		demands = append(demands, cellDemand{
			cellKey:   key,
			title:     product.Title,
			quantity:  line.Quantity,
			available: int(cell.Quantity),
		})
	}

	for _, d := range demands {
		if d.available < d.quantity {
			r.metrics.StockReservationFailed("insufficient_stock")
			return nil, &StockError{Product: d.title, Available: d.available, Requested: d.quantity}
		}
	}
	return demands, nil
}

// commitFailure translates a failed conditional decrement. A lost race re-reads the
// cell so the error reports what is actually left.
func (r *StockReserver) commitFailure(ctx context.Context, d cellDemand, err error) error {
	switch {
	case errors.Is(err, repositories.ErrInsufficientStock):
		r.metrics.StockReservationFailed("insufficient_stock")
		available := 0
		if p, getErr := r.products.GetByID(ctx, d.productID); getErr == nil {
			if cell, ok := p.StockDetails.Cell(d.size, d.color); ok {
				available = int(cell.Quantity)
			}
		}
		return &StockError{Product: d.title, Available: available, Requested: d.quantity}
	case errors.Is(err, repositories.ErrNotFound):
		r.metrics.StockReservationFailed("product_not_found")
		return newError(ErrNotFound, "Product not found: %s", d.title)
	case errors.Is(err, repositories.ErrStockCellNotFound):
		r.metrics.StockReservationFailed("invalid_selection")
		return newError(ErrInvalidSelection, "Size %s / color %s no longer available for %s", d.size, d.color, d.title)
	default:
		return fmt.Errorf("failed to reserve stock for %s: %w", d.productID, err)
	}
}
