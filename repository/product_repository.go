package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/maisonarome/storefront/models"
)

// ProductRepository defines the interface for catalogue data access.
type ProductRepository interface {
	Create(ctx context.Context, product *models.Product) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
	FindVariant(ctx context.Context, productID uuid.UUID, size string) (*models.ProductVariant, error)
	List(ctx context.Context, filter models.ProductFilter) ([]models.Product, int64, error)
	Update(ctx context.Context, product *models.Product) error
	Delete(ctx context.Context, id uuid.UUID) error
	AdjustStock(ctx context.Context, variantID uuid.UUID, delta int) error
	UpdateRating(ctx context.Context, productID uuid.UUID, avgRating float64, reviewCount int) error
	Count(ctx context.Context) (int64, error)
}

// GormProductRepository implements ProductRepository using GORM.
type GormProductRepository struct {
	db *gorm.DB
}

// NewGormProductRepository creates a new GormProductRepository.
func NewGormProductRepository(db *gorm.DB) ProductRepository {
	return &GormProductRepository{db: db}
}

func (r *GormProductRepository) Create(ctx context.Context, product *models.Product) error {
	return r.db.WithContext(ctx).Create(product).Error
}

func (r *GormProductRepository) FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	var product models.Product
	if err := r.db.WithContext(ctx).
		Preload("Variants").
		Where("id = ?", id).
		First(&product).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

func (r *GormProductRepository) FindVariant(ctx context.Context, productID uuid.UUID, size string) (*models.ProductVariant, error) {
	var variant models.ProductVariant
	if err := r.db.WithContext(ctx).
		Where("product_id = ? AND size = ?", productID, size).
		First(&variant).Error; err != nil {
		return nil, err
	}
	return &variant, nil
}

// List applies the catalogue filters and pagination. Price bounds filter on
// the cheapest variant of each product.
func (r *GormProductRepository) List(ctx context.Context, filter models.ProductFilter) ([]models.Product, int64, error) {
	var products []models.Product
	var total int64

	query := r.db.WithContext(ctx).Model(&models.Product{}).Where("active = ?", true)

	if filter.Category != "" {
		query = query.Where("category = ?", filter.Category)
	}
	if filter.Brand != "" {
		query = query.Where("brand = ?", filter.Brand)
	}
	if filter.Search != "" {
		like := "%" + filter.Search + "%"
		query = query.Where("name ILIKE ? OR brand ILIKE ? OR description ILIKE ?", like, like, like)
	}
	if filter.Featured != nil {
		query = query.Where("featured = ?", *filter.Featured)
	}
	if filter.MinPrice > 0 || filter.MaxPrice > 0 {
		sub := r.db.Table("product_variants").
			Select("product_id").
			Group("product_id")
		if filter.MinPrice > 0 {
			sub = sub.Having("MIN(price) >= ?", filter.MinPrice)
		}
		if filter.MaxPrice > 0 {
			sub = sub.Having("MIN(price) <= ?", filter.MaxPrice)
		}
		query = query.Where("id IN (?)", sub)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	switch filter.Sort {
	case "price_asc":
		query = query.Order("(SELECT MIN(price) FROM product_variants pv WHERE pv.product_id = products.id) ASC")
	case "price_desc":
		query = query.Order("(SELECT MIN(price) FROM product_variants pv WHERE pv.product_id = products.id) DESC")
	case "rating":
		query = query.Order("avg_rating DESC")
	default:
		query = query.Order("created_at DESC")
	}

	offset := (filter.Page - 1) * filter.Limit
	if err := query.
		Preload("Variants").
		Offset(offset).
		Limit(filter.Limit).
		Find(&products).Error; err != nil {
		return nil, 0, err
	}

	return products, total, nil
}

func (r *GormProductRepository) Update(ctx context.Context, product *models.Product) error {
	return r.db.WithContext(ctx).Save(product).Error
}

func (r *GormProductRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&models.Product{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// AdjustStock atomically changes a variant's stock by delta. A negative
// delta that would take stock below zero fails.
func (r *GormProductRepository) AdjustStock(ctx context.Context, variantID uuid.UUID, delta int) error {
	result := r.db.WithContext(ctx).
		Model(&models.ProductVariant{}).
		Where("id = ? AND stock + ? >= 0", variantID, delta).
		UpdateColumn("stock", gorm.Expr("stock + ?", delta))
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// UpdateRating writes the denormalised review aggregates onto the product.
func (r *GormProductRepository) UpdateRating(ctx context.Context, productID uuid.UUID, avgRating float64, reviewCount int) error {
	return r.db.WithContext(ctx).
		Model(&models.Product{}).
		Where("id = ?", productID).
		Updates(map[string]interface{}{"avg_rating": avgRating, "review_count": reviewCount}).
		Error
}

func (r *GormProductRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&models.Product{}).Count(&n).Error
	return n, err
}
