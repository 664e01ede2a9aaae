package planner

import (
	"planner/core/recurrence"
	"planner/core/series"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Feature implements the loader.Feature interface.
type Feature struct {
	store   *GormStore
	service *series.Service
	handler *Handler
}

// NewFeature creates the planner feature over db. A nil db disables it.
func NewFeature(db *gorm.DB, cfg recurrence.Config, logger *zap.Logger) *Feature {
	f := &Feature{}
	if db == nil {
		return f
	}
	f.store = NewGormStore(db)
	f.service = series.NewService(f.store, recurrence.NewGenerator(cfg.MaxOccurrences), logger)
	f.handler = NewHandler(f.service, logger)
	return f
}

// Name returns the name of the feature.
func (f *Feature) Name() string {
	return "planner"
}

// IsEnabled reports whether a database is available.
func (f *Feature) IsEnabled() bool {
	return f.store != nil
}

// Service returns the series service, or nil when disabled.
func (f *Feature) Service() *series.Service {
	return f.service
}

// Store returns the gorm store, or nil when disabled.
func (f *Feature) Store() *GormStore {
	return f.store
}

// Load registers the feature's routes.
func (f *Feature) Load(app fiber.Router) error {
	f.handler.RegisterRoutes(app)
	return nil
}
