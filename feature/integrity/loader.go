package integrity

import (
	"planner/core/storage"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Feature implements the loader.Feature interface.
type Feature struct {
	service *Service
	handler *Handler
	enabled bool
}

// NewFeature creates the integrity feature. It is enabled when storage or a database is available.
func NewFeature(client storage.Client, bucket string, db *gorm.DB, logger *zap.Logger) *Feature {
	service := NewService(client, bucket, db, logger)
	return &Feature{
		service: service,
		handler: NewHandler(service),
		enabled: client != nil || db != nil,
	}
}

// Name returns the name of the feature.
func (f *Feature) Name() string {
	return "integrity"
}

// IsEnabled reports whether anything can be checked.
func (f *Feature) IsEnabled() bool {
	return f.enabled
}

// Service returns the integrity service.
func (f *Feature) Service() *Service {
	return f.service
}

// Load registers the feature's routes.
func (f *Feature) Load(app fiber.Router) error {
	f.handler.RegisterRoutes(app)
	return nil
}
