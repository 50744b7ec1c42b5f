package repository

import (
	"context"

	"farm_store/internal/errs"
	"farm_store/internal/models"

	"gorm.io/gorm"
)

type ContactRepository interface {
	Create(ctx context.Context, msg *models.ContactMessage) error
	List(ctx context.Context) ([]models.ContactMessage, error)
	GetByID(ctx context.Context, id uint) (*models.ContactMessage, error)
	UpdateStatus(ctx context.Context, id uint, status models.ContactStatus) error
	Delete(ctx context.Context, id uint) error
}

type contactRepository struct {
	db *gorm.DB
}

func NewContactRepository(db *gorm.DB) ContactRepository {
	return &contactRepository{db: db}
}

func (r *contactRepository) Create(ctx context.Context, msg *models.ContactMessage) error {
	return translate("contactRepository.Create", r.db.WithContext(ctx).Create(msg).Error)
}

func (r *contactRepository) List(ctx context.Context) ([]models.ContactMessage, error) {
	var msgs []models.ContactMessage
	err := r.db.WithContext(ctx).Order("created_at DESC").Find(&msgs).Error
	return msgs, translate("contactRepository.List", err)
}

func (r *contactRepository) GetByID(ctx context.Context, id uint) (*models.ContactMessage, error) {
	var msg models.ContactMessage
	if err := r.db.WithContext(ctx).First(&msg, id).Error; err != nil {
		return nil, translate("contactRepository.GetByID", err)
	}
	return &msg, nil
}

func (r *contactRepository) UpdateStatus(ctx context.Context, id uint, status models.ContactStatus) error {
	res := r.db.WithContext(ctx).Model(&models.ContactMessage{}).Where("id = ?", id).Update("status", status)
	if res.Error != nil {
		return translate("contactRepository.UpdateStatus", res.Error)
	}
	if res.RowsAffected == 0 {
		return errs.NotFound("contactRepository.UpdateStatus", "message not found")
	}
	return nil
}

func (r *contactRepository) Delete(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Delete(&models.ContactMessage{}, id)
	if res.Error != nil {
		return translate("contactRepository.Delete", res.Error)
	}
	if res.RowsAffected == 0 {
		return errs.NotFound("contactRepository.Delete", "message not found")
	}
	return nil
}
