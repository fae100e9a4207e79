package services_test

import (
	"context"
	"testing"

	"storefront/internal/models"
	"storefront/internal/repositories"
	"storefront/internal/services"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newCartFixture(t *testing.T) (*services.CartService, *repositories.MockProductRepository) {
	t.Helper()
	products := repositories.NewMockProductRepository()
	details := models.StockDetails{}
	details.SetQuantity("M", "Red", 3)
	details.SetQuantity("L", "Blue", 0)
	require.NoError(t, products.Create(context.Background(), &models.Product{
		ID:           "P1",
		Title:        "Cotton Saree",
		Collection:   "Womens",
		Price:        999,
		SellingPrice: 799,
		Discount:     20,
		StockDetails: details,
		ColorImages:  map[string][]string{"Red": {"red.jpg"}},
		IsActive:     true,
	}))
	return services.NewCartService(repositories.NewMockCartRepository(), products), products
}

func TestCartService_GetCartCreatesEmpty(t *testing.T) {
	svc, _ := newCartFixture(t)
	cart, err := svc.GetCart(context.Background(), models.GuestCartOwner)
	require.NoError(t, err)
	assert.Equal(t, models.GuestCartOwner, cart.UserID)
	assert.Empty(t, cart.Items)
}

func TestCartService_AddItem(t *testing.T) {
	svc, _ := newCartFixture(t)
	ctx := context.Background()
	owner := models.CartOwner("user-1")

	cart, err := svc.AddItem(ctx, owner, services.AddCartItemInput{ProductID: "P1", SelectedSize: "M", SelectedColor: "Red", Quantity: 2})
	require.NoError(t, err)
	require.Len(t, cart.Items, 1)
	assert.Equal(t, 799.0, cart.Items[0].Price)
	assert.Equal(t, 999.0, cart.Items[0].OriginalPrice)
	assert.Equal(t, "red.jpg", cart.Items[0].Image)

	_, err = svc.AddItem(ctx, owner, services.AddCartItemInput{ProductID: "P1", SelectedSize: "M", SelectedColor: "Red", Quantity: 2})
	var stockErr *services.StockError
	require.ErrorAs(t, err, &stockErr)
	assert.Equal(t, "Cannot add more items. Stock limit reached", err.Error())
	assert.Equal(t, 3, stockErr.Available)
	assert.Equal(t, 2, stockErr.InCart)

	cart, err = svc.AddItem(ctx, owner, services.AddCartItemInput{ProductID: "P1", SelectedSize: "M", SelectedColor: "Red", Quantity: 1})
	require.NoError(t, err)
	require.Len(t, cart.Items, 1)
	assert.Equal(t, 3, cart.Items[0].Quantity)

	count, err := svc.Count(ctx, owner)
	require.NoError(t, err)
	assert.Equal(t, 3, count)
}

func TestCartService_AddItem_Rejections(t *testing.T) {
	svc, _ := newCartFixture(t)
	ctx := context.Background()
	owner := models.CartOwner("user-1")

	_, err := svc.AddItem(ctx, owner, services.AddCartItemInput{ProductID: "P1", SelectedSize: "M"})
	require.ErrorIs(t, err, services.ErrValidation)
	assert.Equal(t, "Missing required fields: productId, selectedSize, selectedColor, quantity", err.Error())

	_, err = svc.AddItem(ctx, owner, services.AddCartItemInput{ProductID: "NOPE", SelectedSize: "M", SelectedColor: "Red", Quantity: 1})
	require.ErrorIs(t, err, services.ErrNotFound)

	_, err = svc.AddItem(ctx, owner, services.AddCartItemInput{ProductID: "P1", SelectedSize: "L", SelectedColor: "Blue", Quantity: 1})
	require.ErrorIs(t, err, services.ErrInsufficientStock)
	assert.Equal(t, "Insufficient stock", err.Error())

	_, err = svc.AddItem(ctx, owner, services.AddCartItemInput{ProductID: "P1", SelectedSize: "XL", SelectedColor: "Red", Quantity: 1})
	require.ErrorIs(t, err, services.ErrInsufficientStock)
}

func TestCartService_UpdateRemoveClear(t *testing.T) {
	svc, _ := newCartFixture(t)
	ctx := context.Background()
	owner := models.CartOwner("user-1")

	_, err := svc.UpdateItem(ctx, owner, 0, 1)
	require.ErrorIs(t, err, services.ErrNotFound)
	assert.Equal(t, "Cart not found", err.Error())

	_, err = svc.AddItem(ctx, owner, services.AddCartItemInput{ProductID: "P1", SelectedSize: "M", SelectedColor: "Red", Quantity: 1})
	require.NoError(t, err)

	cart, err := svc.UpdateItem(ctx, owner, 0, 3)
	require.NoError(t, err)
	assert.Equal(t, 3, cart.Items[0].Quantity)

	_, err = svc.UpdateItem(ctx, owner, 0, 4)
	assert.ErrorIs(t, err, services.ErrInsufficientStock)
	_, err = svc.UpdateItem(ctx, owner, 0, 0)
	assert.ErrorIs(t, err, services.ErrValidation)
	_, err = svc.UpdateItem(ctx, owner, 5, 1)
	require.ErrorIs(t, err, services.ErrValidation)
	assert.Equal(t, "Invalid item index", err.Error())

	cart, err = svc.RemoveItem(ctx, owner, 0)
	require.NoError(t, err)
	assert.Empty(t, cart.Items)

	_, err = svc.AddItem(ctx, owner, services.AddCartItemInput{ProductID: "P1", SelectedSize: "M", SelectedColor: "Red", Quantity: 1})
	require.NoError(t, err)
	cart, err = svc.Clear(ctx, owner)
	require.NoError(t, err)
	assert.Empty(t, cart.Items)

	count, err := svc.Count(ctx, "someone-else")
	require.NoError(t, err)
	assert.Zero(t, count)
}
