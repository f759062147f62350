package repository

import (
	"errors"

	"gorm.io/gorm"

	"vpnshop/internal/models"
)

// ErrPanelInUse is returned when deleting a panel that is still linked
// to at least one plan.
var ErrPanelInUse = errors.New("panel is referenced by one or more plans")

// PanelRepository handles panel database operations.
type PanelRepository struct {
	db *gorm.DB
}

func NewPanelRepository(db *gorm.DB) *PanelRepository {
	return &PanelRepository{db: db}
}

// Create adds a new panel.
func (r *PanelRepository) Create(panel *models.Panel) error {
	return r.db.Create(panel).Error
}

// FindByID returns a panel by primary key.
func (r *PanelRepository) FindByID(id uint) (*models.Panel, error) {
	var panel models.Panel
	if err := r.db.First(&panel, id).Error; err != nil {
		return nil, err
	}
	return &panel, nil
}

// FindActive returns all active panels.
func (r *PanelRepository) FindActive() ([]models.Panel, error) {
	var panels []models.Panel
	err := r.db.Where("is_active = ?", true).Find(&panels).Error
	return panels, err
}

// Delete removes a panel. inUse reports whether any plan still links to
// the panel id; when it does, the delete is rejected and nothing changes.
// Plans live in the flat-file catalog, so the referential check is passed
// in rather than expressed as a foreign key.
func (r *PanelRepository) Delete(id uint, inUse func(panelID uint) bool) error {
	if inUse != nil && inUse(id) {
		return ErrPanelInUse
	}
	return r.db.Delete(&models.Panel{}, id).Error
}
