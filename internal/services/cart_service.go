package services

import (
	"context"

	"farm_store/internal/cart"
	"farm_store/internal/errs"
)

// CartService adapts the cart engine to request handling: it loads the
// shopper's cart, snapshots product data from the catalog on add, and saves it
// back.
type CartService interface {
	Get(ctx context.Context, cartID string) (*cart.Cart, error)
	AddItem(ctx context.Context, cartID string, productID uint, quantity int, addOn bool) (*cart.Cart, error)
	// UpdateQuantity clamps quantity into [1, stock snapshot] before setting it.
	UpdateQuantity(ctx context.Context, cartID, lineID string, quantity int) (*cart.Cart, error)
	RemoveItem(ctx context.Context, cartID, lineID string) (*cart.Cart, error)
	ToggleAddOn(ctx context.Context, cartID, lineID string, included bool) (*cart.Cart, error)
	Clear(ctx context.Context, cartID string) error
}

type cartService struct {
	store   cart.Store
	catalog CatalogService
}

func NewCartService(store cart.Store, catalog CatalogService) CartService {
	return &cartService{store: store, catalog: catalog}
}

func (s *cartService) Get(ctx context.Context, cartID string) (*cart.Cart, error) {
	c, err := s.store.Load(ctx, cartID)
	if err != nil {
		return nil, errs.Dependency("cartService.Get", err)
	}
	return c, nil
}

func (s *cartService) AddItem(ctx context.Context, cartID string, productID uint, quantity int, addOn bool) (*cart.Cart, error) {
	const op = "cartService.AddItem"
	product, err := s.catalog.GetActive(ctx, productID)
	if err != nil {
		return nil, err
	}
	if addOn && !product.OffersAddOn() {
		return nil, errs.Validation(op, "this product has no add-on service")
	}

	return s.mutate(ctx, op, cartID, func(c *cart.Cart) error {
		_, err := c.AddItem(cart.Item{
			ProductID:     product.ID,
			Name:          product.Name,
			Price:         product.Price,
			ImageURL:      product.ImageURL,
			Category:      string(product.Category),
			Quantity:      quantity,
			StockQuantity: product.StockQuantity,
			AddOnIncluded: addOn,
			AddOnName:     product.AddOnName,
			AddOnFee:      product.AddOnFee,
		})
		return err
	})
}

func (s *cartService) UpdateQuantity(ctx context.Context, cartID, lineID string, quantity int) (*cart.Cart, error) {
	const op = "cartService.UpdateQuantity"
	return s.mutate(ctx, op, cartID, func(c *cart.Cart) error {
		line, ok := c.Find(lineID)
		if !ok {
			return errs.NotFound(op, "cart line not found")
		}
		_, err := c.UpdateQuantity(lineID, max(1, min(quantity, line.StockQuantity)))
		return err
	})
}

func (s *cartService) RemoveItem(ctx context.Context, cartID, lineID string) (*cart.Cart, error) {
	return s.mutate(ctx, "cartService.RemoveItem", cartID, func(c *cart.Cart) error {
		return c.RemoveItem(lineID)
	})
}

func (s *cartService) ToggleAddOn(ctx context.Context, cartID, lineID string, included bool) (*cart.Cart, error) {
	const op = "cartService.ToggleAddOn"
	return s.mutate(ctx, op, cartID, func(c *cart.Cart) error {
		line, ok := c.Find(lineID)
		if !ok {
			return errs.NotFound(op, "cart line not found")
		}
		if included && !line.AddOnFee.IsPositive() {
			return errs.Validation(op, "this product has no add-on service")
		}
		_, err := c.ToggleAddOnService(lineID, included)
		return err
	})
}

func (s *cartService) Clear(ctx context.Context, cartID string) error {
	if err := s.store.Delete(ctx, cartID); err != nil {
		return errs.Dependency("cartService.Clear", err)
	}
	return nil
}

func (s *cartService) mutate(ctx context.Context, op, cartID string, fn func(c *cart.Cart) error) (*cart.Cart, error) {
	c, err := s.store.Load(ctx, cartID)
	if err != nil {
		return nil, errs.Dependency(op, err)
	}
	if err := fn(c); err != nil {
		return nil, err
	}
	if err := s.store.Save(ctx, cartID, c); err != nil {
		return nil, errs.Dependency(op, err)
	}
	return c, nil
}
