package migrations

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"farm_store/internal/models"
	"farm_store/internal/services"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type SeedConfig struct {
	AdminUsername string
	AdminPassword string
	AdminEmail    string
	// SeedCatalog fills an empty products table with the starter catalog.
	SeedCatalog bool
}

// Run migrates the schema, repairs legacy category values and creates the
// default admin and catalog.
func Run(ctx context.Context, db *gorm.DB, cfg SeedConfig, log zerolog.Logger) error {
	log.Info().Msg("running database migrations")
	db = db.WithContext(ctx)

	err := db.AutoMigrate(
		&models.Product{},
		&models.Order{},
		&models.OrderItem{},
		&models.ContactMessage{},
		&models.AdminUser{},
	)
	if err != nil {
		return fmt.Errorf("failed to migrate schema: %w", err)
	}

	if err := normalizeCategories(db, log); err != nil {
		return err
	}
	if err := ensureAdmin(db, cfg, log); err != nil {
		return err
	}
	if cfg.SeedCatalog {
		if err := seedCatalog(db, log); err != nil {
			return err
		}
	}

	log.Info().Msg("database migrations completed")
	return nil
}

// canonicalCategory maps a stored category onto the closed set. Goats that
// older data filed under poultry or livestock move to Goats.
func canonicalCategory(name, raw string) (models.Category, bool) {
	category, ok := models.ParseCategory(raw)
	if !ok {
		return "", false
	}
	if strings.Contains(strings.ToLower(name), "goat") &&
		(category == models.CategoryLivePoultry || category == models.CategoryLivestock) {
		return models.CategoryGoats, true
	}
	return category, true
}

func normalizeCategories(db *gorm.DB, log zerolog.Logger) error {
	var rows []struct {
		ID       uint
		Name     string
		Category string
	}
	if err := db.Model(&models.Product{}).Select("id", "name", "category").Find(&rows).Error; err != nil {
		return fmt.Errorf("failed to read product categories: %w", err)
	}

	for _, row := range rows {
		category, ok := canonicalCategory(row.Name, row.Category)
		if !ok {
			log.Warn().Uint("product_id", row.ID).Str("category", row.Category).Msg("unknown product category left unchanged")
			continue
		}
		if string(category) == row.Category {
			continue
		}
		err := db.Model(&models.Product{}).Where("id = ?", row.ID).Update("category", category).Error
		if err != nil {
			return fmt.Errorf("failed to fix category of product %d: %w", row.ID, err)
		}
		log.Info().Uint("product_id", row.ID).Str("from", row.Category).Str("to", string(category)).Msg("product category normalized")
	}
	return nil
}

func ensureAdmin(db *gorm.DB, cfg SeedConfig, log zerolog.Logger) error {
	if cfg.AdminUsername == "" || cfg.AdminPassword == "" {
		return nil
	}

	var existing models.AdminUser
	err := db.Where("username = ?", cfg.AdminUsername).First(&existing).Error
	if err == nil {
		log.Info().Str("username", cfg.AdminUsername).Msg("admin user already exists")
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("failed to look up admin user: %w", err)
	}

	hashed, err := services.HashPassword(cfg.AdminPassword)
	if err != nil {
		return fmt.Errorf("failed to hash admin password: %w", err)
	}
	admin := &models.AdminUser{
		Username:     cfg.AdminUsername,
		PasswordHash: hashed,
		Email:        cfg.AdminEmail,
	}
	if err := db.Create(admin).Error; err != nil {
		return fmt.Errorf("failed to create admin user: %w", err)
	}
	log.Info().Str("username", admin.Username).Msg("admin user created")
	return nil
}

func seedCatalog(db *gorm.DB, log zerolog.Logger) error {
	var count int64
	if err := db.Model(&models.Product{}).Count(&count).Error; err != nil {
		return fmt.Errorf("failed to count products: %w", err)
	}
	if count > 0 {
		return nil
	}

	products := StarterCatalog()
	if err := db.Create(&products).Error; err != nil {
		return fmt.Errorf("failed to seed catalog: %w", err)
	}
	log.Info().Int("products", len(products)).Msg("starter catalog seeded")
	return nil
}

// StarterCatalog is what a fresh store opens with.
func StarterCatalog() []models.Product {
	product := func(name string, category models.Category, price, description, image string, stock int) models.Product {
		return models.Product{
			Name:          name,
			Category:      category,
			Price:         decimal.RequireFromString(price),
			Description:   description,
			ImageURL:      "https://images.unsplash.com/" + image + "?w=800",
			StockQuantity: stock,
			IsActive:      true,
		}
	}
	withProcessing := func(p models.Product, fee string) models.Product {
		p.AddOnName = "Processing"
		p.AddOnFee = decimal.RequireFromString(fee)
		return p
	}

	return []models.Product{
		product("Farm Fresh Eggs (Dozen)", models.CategoryFreshEggs, "6.99",
			"Organic free-range eggs from our happy hens. Rich in nutrients and flavor.", "photo-1582722872445-44dc5f7e3c8f", 50),
		product("Organic Brown Eggs (18 Pack)", models.CategoryFreshEggs, "9.99",
			"Premium organic brown eggs. Perfect for baking and cooking.", "photo-1518492104633-130d0cc84637", 30),
		withProcessing(product("Young Rooster", models.CategoryLivePoultry, "25.00",
			"Healthy young rooster, perfect for your backyard flock.", "photo-1548550023-2bdb3c5beed7", 8), "5.00"),
		withProcessing(product("Laying Hen", models.CategoryLivePoultry, "20.00",
			"Productive laying hen, excellent egg producer.", "photo-1563281577-a7be47e20db9", 15), "5.00"),
		product("Angus Calf", models.CategoryLivestock, "1200.00",
			"Purebred Angus calf, grass-fed and healthy.", "photo-1560493676-04071c5f467b", 3),
		withProcessing(product("Dairy Goat", models.CategoryGoats, "350.00",
			"Friendly dairy goat, great milk producer.", "photo-1517849845537-4d257902454a", 5), "75.00"),
		product("Farm Consultation", models.CategoryServices, "50.00",
			"An hour with our team on flock health, housing and feed planning.", "photo-1500595046743-cd271d694d30", 20),
	}
}
