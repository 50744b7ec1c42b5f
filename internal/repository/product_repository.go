package repository

import (
	"context"

	"farm_store/internal/errs"
	"farm_store/internal/models"

	"gorm.io/gorm"
)

type ProductRepository interface {
	Create(ctx context.Context, product *models.Product) error
	GetByID(ctx context.Context, id uint) (*models.Product, error)
	// ListActive returns active products, newest first; an empty category means all.
	ListActive(ctx context.Context, category models.Category) ([]models.Product, error)
	ListAll(ctx context.Context) ([]models.Product, error)
	// UpdateColumns writes only the given columns of one product.
	UpdateColumns(ctx context.Context, id uint, columns map[string]interface{}) error
	Delete(ctx context.Context, id uint) error
}

type productRepository struct {
	db *gorm.DB
}

func NewProductRepository(db *gorm.DB) ProductRepository {
	return &productRepository{db: db}
}

func (r *productRepository) Create(ctx context.Context, product *models.Product) error {
	return translate("productRepository.Create", r.db.WithContext(ctx).Create(product).Error)
}

func (r *productRepository) GetByID(ctx context.Context, id uint) (*models.Product, error) {
	var product models.Product
	err := r.db.WithContext(ctx).First(&product, id).Error
	if err != nil {
		return nil, translate("productRepository.GetByID", err)
	}
	return &product, nil
}

func (r *productRepository) ListActive(ctx context.Context, category models.Category) ([]models.Product, error) {
	var products []models.Product
	query := r.db.WithContext(ctx).Where("is_active = ?", true)
	if category != "" {
		query = query.Where("category = ?", category)
	}
	err := query.Order("created_at DESC").Find(&products).Error
	return products, translate("productRepository.ListActive", err)
}

func (r *productRepository) ListAll(ctx context.Context) ([]models.Product, error) {
	var products []models.Product
	err := r.db.WithContext(ctx).Order("created_at DESC").Find(&products).Error
	return products, translate("productRepository.ListAll", err)
}

func (r *productRepository) UpdateColumns(ctx context.Context, id uint, columns map[string]interface{}) error {
	const op = "productRepository.UpdateColumns"
	if len(columns) == 0 {
		return nil
	}
	res := r.db.WithContext(ctx).Model(&models.Product{}).Where("id = ?", id).Updates(columns)
	if res.Error != nil {
		return translate(op, res.Error)
	}
	if res.RowsAffected == 0 {
		return errs.NotFound(op, "product not found")
	}
	return nil
}

func (r *productRepository) Delete(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Delete(&models.Product{}, id)
	if res.Error != nil {
		return translate("productRepository.Delete", res.Error)
	}
	if res.RowsAffected == 0 {
		return errs.NotFound("productRepository.Delete", "product not found")
	}
	return nil
}
