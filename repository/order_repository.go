package repository

import (
	"context"

	"github.com/Manish-456/eatsy-backend/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// OrderRepository defines the interface for order data access
type OrderRepository interface {
	Create(ctx context.Context, order *models.Order) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error)
	FindByUserID(ctx context.Context, userID string) ([]models.Order, error)
	FindByRestaurantID(ctx context.Context, restaurantID string) ([]models.Order, error)
	MarkPaid(ctx context.Context, id uuid.UUID, amount int64) (*models.Order, bool, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, from, to models.OrderStatus) (bool, error)
	DeleteIfStatus(ctx context.Context, id uuid.UUID, status models.OrderStatus) (bool, error)
	ExistsWithMenuItem(ctx context.Context, menuItemID string) (bool, error)
}

// GormOrderRepository implements OrderRepository using GORM
type GormOrderRepository struct {
	db *gorm.DB
}

// NewGormOrderRepository creates a new instance of GormOrderRepository
func NewGormOrderRepository(db *gorm.DB) *GormOrderRepository {
	return &GormOrderRepository{db: db}
}

// Create inserts the order and its cart snapshot in one transaction.
func (r *GormOrderRepository) Create(ctx context.Context, order *models.Order) error {
	for i := range order.CartItems {
		order.CartItems[i].Position = i
	}
	return r.db.WithContext(ctx).Create(order).Error
}

func preloadCart(db *gorm.DB) *gorm.DB {
	return db.Order("position ASC")
}

// FindByID retrieves an order with its cart items
func (r *GormOrderRepository) FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).
		Preload("CartItems", preloadCart).
		First(&order, "id = ?", id).Error
	if err != nil {
		return nil, translate(err)
	}
	return &order, nil
}

// FindByUserID returns a customer's orders, newest first.
func (r *GormOrderRepository) FindByUserID(ctx context.Context, userID string) ([]models.Order, error) {
	return r.findWhere(ctx, "user_id = ?", userID)
}

// FindByRestaurantID returns every order placed with a restaurant, newest first.
func (r *GormOrderRepository) FindByRestaurantID(ctx context.Context, restaurantID string) ([]models.Order, error) {
	return r.findWhere(ctx, "restaurant_id = ?", restaurantID)
}

func (r *GormOrderRepository) findWhere(ctx context.Context, query string, arg interface{}) ([]models.Order, error) {
	orders := []models.Order{}
	err := r.db.WithContext(ctx).
		Preload("CartItems", preloadCart).
		Where(query, arg).
		Order("created_at DESC").
		Find(&orders).Error
	if err != nil {
		return nil, err
	}
	return orders, nil
}

// MarkPaid moves a placed order to paid and records the charged amount. The
// row is locked for the duration of the transaction and status and amount
// are written by a single UPDATE. For an order that is already past placed
// nothing is written and applied is false.
func (r *GormOrderRepository) MarkPaid(ctx context.Context, id uuid.UUID, amount int64) (*models.Order, bool, error) {
	var order models.Order
	applied := false

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&order, "id = ?", id).Error; err != nil {
			return err
		}
		if order.Status != models.StatusPlaced {
			return nil
		}

		res := tx.Model(&models.Order{}).
			Where("id = ? AND status = ?", id, models.StatusPlaced).
			Updates(map[string]interface{}{
				"status":       models.StatusPaid,
				"total_amount": amount,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 1 {
			applied = true
			order.Status = models.StatusPaid
			order.TotalAmount = &amount
		}
		return nil
	})
	if err != nil {
		return nil, false, translate(err)
	}
	return &order, applied, nil
}

// UpdateStatus writes to only if the order is still in from. It reports
// false when another writer got there first.
func (r *GormOrderRepository) UpdateStatus(ctx context.Context, id uuid.UUID, from, to models.OrderStatus) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ? AND status = ?", id, from).
		Update("status", to)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// DeleteIfStatus removes the order and its cart items if it is still in
// status.
func (r *GormOrderRepository) DeleteIfStatus(ctx context.Context, id uuid.UUID, status models.OrderStatus) (bool, error) {
	deleted := false
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var order models.Order
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&order, "id = ?", id).Error; err != nil {
			return err
		}
		if order.Status != status {
			return nil
		}
		if err := tx.Where("order_id = ?", id).Delete(&models.CartItem{}).Error; err != nil {
			return err
		}
		if err := tx.Delete(&models.Order{}, "id = ?", id).Error; err != nil {
			return err
		}
		deleted = true
		return nil
	})
	if err != nil {
		return false, translate(err)
	}
	return deleted, nil
}

// ExistsWithMenuItem reports whether any stored cart references the item.
func (r *GormOrderRepository) ExistsWithMenuItem(ctx context.Context, menuItemID string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.CartItem{}).
		Where("menu_item_id = ?", menuItemID).
		Count(&count).Error
	return count > 0, err
}
