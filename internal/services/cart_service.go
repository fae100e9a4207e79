package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"storefront/internal/models"
	"storefront/internal/repositories"
)

// AddCartItemInput is a request to put a product selection into a cart.
type AddCartItemInput struct {
	ProductID     string `validate:"required"`
	SelectedSize  string `validate:"required"`
	SelectedColor string `validate:"required"`
	Quantity      int    `validate:"required,min=1"`
}

var addCartItemMessages = fieldMessages{
	"required":     "Missing required fields: productId, selectedSize, selectedColor, quantity",
	"Quantity.min": "Quantity must be at least 1",
}

// CartService handles business logic related to carts. Every mutation re-checks the
// live stock cell; nothing is reserved until an order is placed.
type CartService struct {
	cartRepo    repositories.CartRepository
	productRepo repositories.ProductRepository
	now         func() time.Time
}

// NewCartService creates a new CartService.
func NewCartService(cartRepo repositories.CartRepository, productRepo repositories.ProductRepository) *CartService {
	return &CartService{cartRepo: cartRepo, productRepo: productRepo, now: time.Now}
}

// GetCart returns the owner's cart, creating an empty one on first access.
func (s *CartService) GetCart(ctx context.Context, owner models.CartOwner) (*models.Cart, error) {
	cart, err := s.cartRepo.Get(ctx, owner)
	if err == nil {
		return cart, nil
	}
	if !errors.Is(err, repositories.ErrNotFound) {
		return nil, fmt.Errorf("failed to fetch cart: %w", err)
	}

	now := s.now()
	cart = &models.Cart{UserID: owner, Items: []models.CartItem{}, CreatedAt: now, UpdatedAt: now}
	if err := s.cartRepo.Save(ctx, cart); err != nil {
		return nil, fmt.Errorf("failed to create cart: %w", err)
	}
	return cart, nil
}

// AddItem adds a selection, merging with an existing line for the same product, size
// and color.
func (s *CartService) AddItem(ctx context.Context, owner models.CartOwner, in AddCartItemInput) (*models.Cart, error) {
	if err := checkStruct(in, addCartItemMessages, "Invalid cart item"); err != nil {
		return nil, err
	}

	product, err := s.getProduct(ctx, in.ProductID)
	if err != nil {
		return nil, err
	}
	cell, ok := product.StockDetails.Cell(in.SelectedSize, in.SelectedColor)
	available := int(cell.Quantity)
	if !ok || available < in.Quantity {
		return nil, &StockError{Product: product.Title, Available: available, Requested: in.Quantity, Message: "Insufficient stock"}
	}

	cart, err := s.GetCart(ctx, owner)
	if err != nil {
		return nil, err
	}

	if i := cart.FindItem(in.ProductID, in.SelectedSize, in.SelectedColor); i >= 0 {
		merged := cart.Items[i].Quantity + in.Quantity
		if merged > available {
			return nil, &StockError{
				Product:   product.Title,
				Available: available,
				Requested: merged,
				InCart:    cart.Items[i].Quantity,
				Message:   "Cannot add more items. Stock limit reached",
			}
		}
		cart.Items[i].Quantity = merged
	} else {
		cart.Items = append(cart.Items, models.CartItem{
			ProductID:     in.ProductID,
			Title:         product.Title,
			Image:         product.DisplayImage(in.SelectedSize, in.SelectedColor),
			Price:         product.EffectivePrice(),
			OriginalPrice: product.Price,
			Discount:      product.Discount,
			SelectedSize:  in.SelectedSize,
			SelectedColor: in.SelectedColor,
			Quantity:      in.Quantity,
			Collection:    product.Collection,
		})
	}

	return s.save(ctx, cart)
}

// UpdateItem sets the quantity of the line at index.
func (s *CartService) UpdateItem(ctx context.Context, owner models.CartOwner, index, quantity int) (*models.Cart, error) {
	if quantity < 1 {
		return nil, newError(ErrValidation, "Quantity must be at least 1")
	}
	cart, err := s.existingCart(ctx, owner)
	if err != nil {
		return nil, err
	}
	if index < 0 || index >= len(cart.Items) {
		return nil, newError(ErrValidation, "Invalid item index")
	}

	item := cart.Items[index]
	product, err := s.getProduct(ctx, item.ProductID)
	if err != nil {
		return nil, err
	}
	cell, ok := product.StockDetails.Cell(item.SelectedSize, item.SelectedColor)
	if !ok || int(cell.Quantity) < quantity {
		return nil, &StockError{Product: product.Title, Available: int(cell.Quantity), Requested: quantity, Message: "Insufficient stock"}
	}

	cart.Items[index].Quantity = quantity
	return s.save(ctx, cart)
}

// RemoveItem deletes the line at index.
func (s *CartService) RemoveItem(ctx context.Context, owner models.CartOwner, index int) (*models.Cart, error) {
	cart, err := s.existingCart(ctx, owner)
	if err != nil {
		return nil, err
	}
	if index < 0 || index >= len(cart.Items) {
		return nil, newError(ErrValidation, "Invalid item index")
	}
	cart.Items = append(cart.Items[:index], cart.Items[index+1:]...)
	return s.save(ctx, cart)
}

// Clear empties an existing cart.
func (s *CartService) Clear(ctx context.Context, owner models.CartOwner) (*models.Cart, error) {
	cart, err := s.existingCart(ctx, owner)
	if err != nil {
		return nil, err
	}
	cart.Items = []models.CartItem{}
	return s.save(ctx, cart)
}

// Count is the total quantity in the cart, zero when there is none.
func (s *CartService) Count(ctx context.Context, owner models.CartOwner) (int, error) {
	cart, err := s.cartRepo.Get(ctx, owner)
	if errors.Is(err, repositories.ErrNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to get cart count: %w", err)
	}
	return cart.TotalItems(), nil
}

func (s *CartService) existingCart(ctx context.Context, owner models.CartOwner) (*models.Cart, error) {
	cart, err := s.cartRepo.Get(ctx, owner)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, newError(ErrNotFound, "Cart not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch cart: %w", err)
	}
	return cart, nil
}

func (s *CartService) getProduct(ctx context.Context, id string) (*models.Product, error) {
	product, err := s.productRepo.GetByID(ctx, id)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, newError(ErrNotFound, "Product not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load product %s: %w", id, err)
	}
	return product, nil
}

func (s *CartService) save(ctx context.Context, cart *models.Cart) (*models.Cart, error) {
	cart.UpdatedAt = s.now()
	if err := s.cartRepo.Save(ctx, cart); err != nil {
		return nil, fmt.Errorf("failed to save cart: %w", err)
	}
	return cart, nil
}
