package repository

import (
	"encoding/json"
	"errors"

	"gorm.io/gorm"

	"vpnshop/internal/models"
)

// ErrOrderResolved is returned when a decision is attempted on an order
// that already left the pending state.
var ErrOrderResolved = errors.New("order is already resolved")

// OrderRepository handles order database operations. The per-admin
// notification message ids are stored as a JSON text column; callers
// only ever see the map form.
type OrderRepository struct {
	db *gorm.DB
}

func NewOrderRepository(db *gorm.DB) *OrderRepository {
	return &OrderRepository{db: db}
}

// Create persists a new pending order with the admin notification map.
func (r *OrderRepository) Create(order *models.Order, adminMessageIDs map[int64]int) error {
	raw, err := json.Marshal(adminMessageIDs)
	if err != nil {
		return err
	}
	order.AdminMessageIDs = string(raw)
	order.Status = models.OrderPending
	return r.db.Create(order).Error
}

// FindByTrackingCode finds an order by its unique tracking code.
func (r *OrderRepository) FindByTrackingCode(code string) (*models.Order, error) {
	var order models.Order
	if err := r.db.Preload("User").Where("tracking_code = ?", code).First(&order).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

// AdminMessageIDs decodes the serialized notification map for an order.
func (r *OrderRepository) AdminMessageIDs(order *models.Order) map[int64]int {
	ids := make(map[int64]int)
	if order.AdminMessageIDs == "" {
		return ids
	}
	_ = json.Unmarshal([]byte(order.AdminMessageIDs), &ids)
	return ids
}

// Resolve moves a pending order to a terminal status and records the
// resolving admin. The status guard is part of the UPDATE itself, so a
// second decision on the same order affects zero rows and is reported
// as ErrOrderResolved without touching status or processed_by.
func (r *OrderRepository) Resolve(code, status, processedBy string) error {
	res := r.db.Model(&models.Order{}).
		Where("tracking_code = ? AND status = ?", code, models.OrderPending).
		Updates(map[string]interface{}{
			"status":       status,
			"processed_by": processedBy,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrOrderResolved
	}
	return nil
}

// MarkFailed flips a confirmed-in-progress order to failed after a
// provisioning error. Guarded on the confirmed status so it can only
// ever follow a successful Resolve claim; any other state is reported
// as ErrOrderResolved and left untouched.
func (r *OrderRepository) MarkFailed(code string) error {
	res := r.db.Model(&models.Order{}).
		Where("tracking_code = ? AND status = ?", code, models.OrderConfirmed).
		Update("status", models.OrderFailed)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrOrderResolved
	}
	return nil
}

// CountByStatus returns the number of orders in a given status.
func (r *OrderRepository) CountByStatus(status string) (int64, error) {
	var count int64
	err := r.db.Model(&models.Order{}).Where("status = ?", status).Count(&count).Error
	return count, err
}
