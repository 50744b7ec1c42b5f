package models

import (
	"strings"

	"farm_store/internal/errs"

	"github.com/shopspring/decimal"
)

// ToProduct validates the draft and builds the product it describes.
func (d ProductDraft) ToProduct() (*Product, error) {
	const op = "models.ProductDraft.ToProduct"

	name := strings.TrimSpace(d.Name)
	if name == "" {
		return nil, errs.Validation(op, "name is required")
	}
	category, ok := ParseCategory(d.Category)
	if !ok {
		return nil, errs.Validation(op, "category is missing or unknown")
	}
	if d.Price == nil || d.Price.IsNegative() {
		return nil, errs.Validation(op, "price must be zero or greater")
	}
	description := strings.TrimSpace(d.Description)
	if description == "" {
		return nil, errs.Validation(op, "description is required")
	}
	imageURL := strings.TrimSpace(d.ImageURL)
	if imageURL == "" {
		return nil, errs.Validation(op, "image is required")
	}
	if d.StockQuantity == nil || *d.StockQuantity < 0 {
		return nil, errs.Validation(op, "stock quantity must be zero or greater")
	}
	addOnFee := decimal.Zero
	if d.AddOnFee != nil {
		if d.AddOnFee.IsNegative() {
			return nil, errs.Validation(op, "add-on fee must be zero or greater")
		}
		addOnFee = d.AddOnFee.Round(2)
	}
	active := true
	if d.IsActive != nil {
		active = *d.IsActive
	}

	return &Product{
		Name:          name,
		Category:      category,
		Price:         d.Price.Round(2),
		Description:   description,
		ImageURL:      imageURL,
		StockQuantity: *d.StockQuantity,
		IsActive:      active,
		AddOnName:     strings.TrimSpace(d.AddOnName),
		AddOnFee:      addOnFee,
	}, nil
}

// Apply validates the patch against p and mutates p in place.
func (pt ProductPatch) Apply(p *Product) error {
	const op = "models.ProductPatch.Apply"

	if pt.Name != nil {
		name := strings.TrimSpace(*pt.Name)
		if name == "" {
			return errs.Validation(op, "name cannot be empty")
		}
		p.Name = name
	}
	if pt.Category != nil {
		category, ok := ParseCategory(*pt.Category)
		if !ok {
			return errs.Validation(op, "unknown category")
		}
		p.Category = category
	}
	if pt.Price != nil {
		if pt.Price.IsNegative() {
			return errs.Validation(op, "price must be zero or greater")
		}
		p.Price = pt.Price.Round(2)
	}
	if pt.Description != nil {
		description := strings.TrimSpace(*pt.Description)
		if description == "" {
			return errs.Validation(op, "description cannot be empty")
		}
		p.Description = description
	}
	if pt.ImageURL != nil {
		imageURL := strings.TrimSpace(*pt.ImageURL)
		if imageURL == "" {
			return errs.Validation(op, "image cannot be empty")
		}
		p.ImageURL = imageURL
	}
	if pt.StockQuantity != nil {
		if *pt.StockQuantity < 0 {
			return errs.Validation(op, "stock quantity must be zero or greater")
		}
		p.StockQuantity = *pt.StockQuantity
	}
	if pt.IsActive != nil {
		p.IsActive = *pt.IsActive
	}
	if pt.AddOnName != nil {
		p.AddOnName = strings.TrimSpace(*pt.AddOnName)
	}
	if pt.AddOnFee != nil {
		if pt.AddOnFee.IsNegative() {
			return errs.Validation(op, "add-on fee must be zero or greater")
		}
		p.AddOnFee = pt.AddOnFee.Round(2)
	}
	return nil
}

// Columns maps the fields the patch sets to their column values, read from p
// after Apply. Untouched columns are left out so a concurrent stock change is
// never overwritten.
func (pt ProductPatch) Columns(p *Product) map[string]interface{} {
	cols := make(map[string]interface{})
	if pt.Name != nil {
		cols["name"] = p.Name
	}
	if pt.Category != nil {
		cols["category"] = p.Category
	}
	if pt.Price != nil {
		cols["price"] = p.Price
	}
	if pt.Description != nil {
		cols["description"] = p.Description
	}
	if pt.ImageURL != nil {
		cols["image_url"] = p.ImageURL
	}
	if pt.StockQuantity != nil {
		cols["stock_quantity"] = p.StockQuantity
	}
	if pt.IsActive != nil {
		cols["is_active"] = p.IsActive
	}
	if pt.AddOnName != nil {
		cols["add_on_name"] = p.AddOnName
	}
	if pt.AddOnFee != nil {
		cols["add_on_fee"] = p.AddOnFee
	}
	return cols
}
