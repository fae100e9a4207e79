package repositories_test

import (
	"context"
	"fmt"
	"os"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"storefront/internal/database"
	"storefront/internal/models"
	"storefront/internal/repositories"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/mongo"
	"gorm.io/gorm"
)

// backend builds fresh product, order and cart stores for one test.
type backend struct {
	name   string
	stores func(t *testing.T) (repositories.ProductRepository, repositories.OrderRepository, repositories.CartRepository)
}

func openDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := database.OpenTest(t.Name())
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return db
}

var mongoSeq atomic.Int64

// openMongo connects to MONGO_TEST_URI and returns a throwaway database.
func openMongo(t *testing.T) *mongo.Database {
	t.Helper()
	uri := os.Getenv("MONGO_TEST_URI")
	if uri == "" {
		t.Skip("MONGO_TEST_URI not set")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	client, err := repositories.ConnectMongo(ctx, uri)
	require.NoError(t, err)

	db := client.Database(fmt.Sprintf("storefront_test_%d_%d", time.Now().UnixNano(), mongoSeq.Add(1)))
	require.NoError(t, repositories.EnsureMongoIndexes(ctx, db))
	t.Cleanup(func() {
		_ = db.Drop(context.Background())
		_ = client.Disconnect(context.Background())
	})
	return db
}

func backends() []backend {
	return []backend{
		{"mock", func(*testing.T) (repositories.ProductRepository, repositories.OrderRepository, repositories.CartRepository) {
			return repositories.NewMockProductRepository(), repositories.NewMockOrderRepository(), repositories.NewMockCartRepository()
		}},
		{"gorm", func(t *testing.T) (repositories.ProductRepository, repositories.OrderRepository, repositories.CartRepository) {
			db := openDB(t)
			return repositories.NewGORMProductRepository(db), repositories.NewGORMOrderRepository(db), repositories.NewGORMCartRepository(db)
		}},
		{"mongo", func(t *testing.T) (repositories.ProductRepository, repositories.OrderRepository, repositories.CartRepository) {
			db := openMongo(t)
			return repositories.NewMongoProductRepository(db), repositories.NewMongoOrderRepository(db), repositories.NewMongoCartRepository(db)
		}},
	}
}

func newProduct(id, collection string, price float64, quantity int) *models.Product {
	details := models.StockDetails{}
	details.SetQuantity("M", "Red", quantity)
	return &models.Product{
		ID:           id,
		Collection:   collection,
		Title:        "Product " + id,
		Price:        price,
		SellingPrice: price,
		Stock:        models.StockStatusFor(quantity),
		StockDetails: details,
		IsActive:     true,
		CreatedAt:    time.Now(),
	}
}

func TestProductRepository(t *testing.T) {
	for _, b := range backends() {
		t.Run(b.name, func(t *testing.T) {
			products, _, _ := b.stores(t)
			ctx := context.Background()

			require.NoError(t, products.Create(ctx, newProduct("P1", "Womens", 999, 3)))
			require.NoError(t, products.Create(ctx, newProduct("P2", "Kids", 299, 0)))
			inactive := newProduct("P3", "Womens", 450, 8)
			inactive.IsActive = false
			require.NoError(t, products.Create(ctx, inactive))

			err := products.Create(ctx, newProduct("P1", "Womens", 1, 1))
			assert.ErrorIs(t, err, repositories.ErrDuplicate)

			got, err := products.GetByID(ctx, "P1")
			require.NoError(t, err)
			cell, ok := got.StockDetails.Cell("M", "Red")
			require.True(t, ok)
			assert.Equal(t, models.Quantity(3), cell.Quantity)

			_, err = products.GetByID(ctx, "missing")
			assert.ErrorIs(t, err, repositories.ErrNotFound)

			active := true
			list, total, err := products.GetAll(ctx, models.ProductFilter{Collection: "womens", IsActive: &active})
			require.NoError(t, err)
			assert.EqualValues(t, 1, total)
			require.Len(t, list, 1)
			assert.Equal(t, "P1", list[0].ID)

			maxPrice := 500.0
			list, _, err = products.GetAll(ctx, models.ProductFilter{MaxPrice: &maxPrice, SortBy: "sellingPrice", SortAsc: true})
			require.NoError(t, err)
			require.Len(t, list, 2)
			assert.Equal(t, "P2", list[0].ID)

			list, _, err = products.GetAll(ctx, models.ProductFilter{Search: "product p2"})
			require.NoError(t, err)
			require.Len(t, list, 1)

			byIDs, err := products.GetByIDs(ctx, []string{"P3", "P2", "P1"}, true)
			require.NoError(t, err)
			require.Len(t, byIDs, 2)
			assert.Equal(t, "P2", byIDs[0].ID)
			assert.Equal(t, "P1", byIDs[1].ID)

			got.Title = "Renamed"
			got.IsActive = false
			require.NoError(t, products.Update(ctx, got))
			got, err = products.GetByID(ctx, "P1")
			require.NoError(t, err)
			assert.Equal(t, "Renamed", got.Title)
			assert.False(t, got.IsActive)

			assert.ErrorIs(t, products.Update(ctx, newProduct("ghost", "Womens", 1, 1)), repositories.ErrNotFound)

			require.NoError(t, products.Delete(ctx, "P3"))
			assert.ErrorIs(t, products.Delete(ctx, "P3"), repositories.ErrNotFound)
		})
	}
}

func TestProductStockAdjustments(t *testing.T) {
	for _, b := range backends() {
		t.Run(b.name, func(t *testing.T) {
			products, _, _ := b.stores(t)
			ctx := context.Background()
			require.NoError(t, products.Create(ctx, newProduct("S1", "Womens", 999, 6)))

			p, err := products.AdjustStock(ctx, "S1", "M", "Red", -2)
			require.NoError(t, err)
			cell, _ := p.StockDetails.Cell("M", "Red")
			assert.Equal(t, models.Quantity(4), cell.Quantity)
			assert.Equal(t, models.StockLowStock, p.Stock)

			_, err = products.AdjustStock(ctx, "S1", "M", "Red", -5)
			assert.ErrorIs(t, err, repositories.ErrInsufficientStock)
			p, err = products.GetByID(ctx, "S1")
			require.NoError(t, err)
			cell, _ = p.StockDetails.Cell("M", "Red")
			assert.Equal(t, models.Quantity(4), cell.Quantity, "failed decrement leaves the cell untouched")

			_, err = products.AdjustStock(ctx, "S1", "XL", "Red", -1)
			assert.ErrorIs(t, err, repositories.ErrStockCellNotFound)
			_, err = products.AdjustStock(ctx, "nope", "M", "Red", -1)
			assert.ErrorIs(t, err, repositories.ErrNotFound)

			p, err = products.SetStock(ctx, "S1", "L", "Blue", 0)
			require.NoError(t, err)
			assert.Equal(t, models.StockOutOfStock, p.Stock)
			_, ok := p.StockDetails.Cell("L", "Blue")
			assert.True(t, ok)
		})
	}
}

func TestConcurrentDecrementsNeverOversell(t *testing.T) {
	for _, b := range backends() {
		t.Run(b.name, func(t *testing.T) {
			products, _, _ := b.stores(t)
			ctx := context.Background()
			require.NoError(t, products.Create(ctx, newProduct("C1", "Womens", 999, 5)))

			var wg sync.WaitGroup
			var succeeded atomic.Int32
			for i := 0; i < 12; i++ {
				wg.Add(1)
				go func() {
					defer wg.Done()
					if _, err := products.AdjustStock(ctx, "C1", "M", "Red", -1); err == nil {
						succeeded.Add(1)
					}
				}()
			}
			wg.Wait()

			assert.EqualValues(t, 5, succeeded.Load())
			p, err := products.GetByID(ctx, "C1")
			require.NoError(t, err)
			cell, _ := p.StockDetails.Cell("M", "Red")
			assert.Equal(t, models.Quantity(0), cell.Quantity)
			assert.Equal(t, models.StockOutOfStock, p.Stock)
		})
	}
}

func TestOrderRepository(t *testing.T) {
	for _, b := range backends() {
		t.Run(b.name, func(t *testing.T) {
			_, orders, _ := b.stores(t)
			ctx := context.Background()
			base := time.Now().Truncate(time.Millisecond)

			for i, id := range []string{"O1", "O2"} {
				o := &models.Order{
					OrderID:       id,
					UserID:        "u1",
					TotalAmount:   100,
					PaymentMethod: models.PaymentCOD,
					Items:         []models.OrderItem{{ProductID: "P1", Quantity: 1, SelectedSize: "M", SelectedColor: "Red"}},
					CreatedAt:     base.Add(time.Duration(i) * time.Minute),
				}
				o.Transition(models.StatusOrderPlaced, "placed", o.CreatedAt)
				require.NoError(t, orders.Create(ctx, o))
			}

			list, err := orders.ListByUser(ctx, "u1")
			require.NoError(t, err)
			require.Len(t, list, 2)
			assert.Equal(t, "O2", list[0].OrderID)

			list, err = orders.ListByUser(ctx, "nobody")
			require.NoError(t, err)
			assert.Empty(t, list)

			change := models.StatusChange{Status: models.StatusCancelled, Timestamp: base, Note: "cancel"}
			o, err := orders.Transition(ctx, "O1", change, models.StatusOrderPlaced, models.StatusProcessing)
			require.NoError(t, err)
			assert.Equal(t, models.StatusCancelled, o.Status)
			assert.Len(t, o.StatusHistory, 2)

			_, err = orders.Transition(ctx, "O1", change, models.StatusOrderPlaced, models.StatusProcessing)
			assert.ErrorIs(t, err, repositories.ErrStatusMismatch)

			o, err = orders.Transition(ctx, "O1", models.StatusChange{Status: models.StatusShipped, Timestamp: base})
			require.NoError(t, err)
			assert.Equal(t, models.StatusShipped, o.Status)

			stored, err := orders.GetByOrderID(ctx, "O1")
			require.NoError(t, err)
			assert.Len(t, stored.StatusHistory, 3)

			_, err = orders.Transition(ctx, "missing", change)
			assert.ErrorIs(t, err, repositories.ErrNotFound)
			_, err = orders.GetByOrderID(ctx, "missing")
			assert.ErrorIs(t, err, repositories.ErrNotFound)
		})
	}
}

func TestCartRepository(t *testing.T) {
	for _, b := range backends() {
		t.Run(b.name, func(t *testing.T) {
			_, _, carts := b.stores(t)
			ctx := context.Background()

			_, err := carts.Get(ctx, models.GuestCartOwner)
			assert.ErrorIs(t, err, repositories.ErrNotFound)
			assert.ErrorIs(t, carts.Clear(ctx, models.GuestCartOwner), repositories.ErrNotFound)

			cart := &models.Cart{
				UserID: models.GuestCartOwner,
				Items:  []models.CartItem{{ProductID: "P1", SelectedSize: "M", SelectedColor: "Red", Quantity: 2, Price: 10}},
			}
			require.NoError(t, carts.Save(ctx, cart))

			cart.Items[0].Quantity = 3
			require.NoError(t, carts.Save(ctx, cart))

			got, err := carts.Get(ctx, models.GuestCartOwner)
			require.NoError(t, err)
			assert.Equal(t, 3, got.TotalItems())

			require.NoError(t, carts.Clear(ctx, models.GuestCartOwner))
			got, err = carts.Get(ctx, models.GuestCartOwner)
			require.NoError(t, err)
			assert.Empty(t, got.Items)
		})
	}
}

func TestUserRepository(t *testing.T) {
	users := repositories.NewGORMUserRepository(openDB(t))
	ctx := context.Background()

	u := &models.User{Name: "Asha", Phone: "9876543210", Password: "hash"}
	require.NoError(t, users.Create(ctx, u))
	assert.NotEmpty(t, u.ID)

	err := users.Create(ctx, &models.User{Name: "Other", Phone: "9876543210"})
	assert.ErrorIs(t, err, repositories.ErrDuplicate)

	expiry := time.Now().Add(time.Minute)
	u.OTP, u.OTPExpiry = "123456", &expiry
	require.NoError(t, users.Update(ctx, u))
	u.ClearOTP()
	require.NoError(t, users.Update(ctx, u))

	got, err := users.GetByPhone(ctx, "9876543210")
	require.NoError(t, err)
	assert.Empty(t, got.OTP)
	assert.Nil(t, got.OTPExpiry)

	_, err = users.GetByID(ctx, "missing")
	assert.ErrorIs(t, err, repositories.ErrNotFound)
}

func TestContentRepositories(t *testing.T) {
	db := openDB(t)
	ctx := context.Background()

	collections := repositories.NewGORMCollectionRepository(db)
	pos, err := collections.NextPosition(ctx)
	require.NoError(t, err)
	require.NoError(t, collections.Create(ctx,
		&models.Collection{Name: "Womens", NormalizedName: "Womens", Enabled: true, Position: pos},
		&models.Collection{Name: "Home Textiles", NormalizedName: "Home_Textiles", Enabled: true, OfferEnabled: true, Position: pos + 1},
		&models.Collection{Name: "Archive", NormalizedName: "Archive", OfferEnabled: true, Position: pos + 2},
	))
	enabled, err := collections.List(ctx, repositories.CollectionFilter{EnabledOnly: true})
	require.NoError(t, err)
	require.Len(t, enabled, 2)
	assert.Equal(t, "Womens", enabled[0].Name)
	offers, err := collections.List(ctx, repositories.CollectionFilter{OffersOnly: true})
	require.NoError(t, err)
	require.Len(t, offers, 1)
	assert.Equal(t, "Home Textiles", offers[0].Name)
	_, err = collections.GetByNormalizedName(ctx, "home_textiles")
	assert.ErrorIs(t, err, repositories.ErrNotFound, "lookup is case-sensitive")

	quotes := repositories.NewGORMQuoteRepository(db)
	require.NoError(t, quotes.Create(ctx, &models.Quote{Text: "one"}))
	require.NoError(t, quotes.Create(ctx, &models.Quote{Text: "two"}))
	n, err := quotes.DeleteAll(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)

	best := repositories.NewGORMBestSellingRepository(db)
	require.NoError(t, best.Create(ctx, &models.BestSelling{ProductID: "P1", IsActive: true}))
	assert.ErrorIs(t, best.Create(ctx, &models.BestSelling{ProductID: "P1"}), repositories.ErrDuplicate)
	next, err := best.NextPosition(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, next)
	removed, err := best.DeleteByProductIDs(ctx, "P1", "P9")
	require.NoError(t, err)
	assert.EqualValues(t, 1, removed)
}
