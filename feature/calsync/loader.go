package calsync

import (
	"time"

	"planner/core/recurrence"
	"planner/core/recurrence/codec"
	"planner/core/series"
	"planner/core/storage"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// Options wires the calendar feature.
type Options struct {
	// Service is the planner service imports write through.
	Service *series.Service
	// Storage holds exports. Nil disables the export endpoints.
	Storage storage.Client
	Bucket  string
	// Calendar is the push target. Nil disables sync.
	Calendar   Calendar
	CalendarID string
	// Location is the zone for UNTIL values and timed events.
	Location       *time.Location
	MaxOccurrences int
}

// Feature implements the loader.Feature interface.
type Feature struct {
	syncer   *Syncer
	exporter *Exporter
	importer *Importer
	handler  *Handler
}

// NewFeature creates the calendar feature. It is disabled without a service.
func NewFeature(opts Options, logger *zap.Logger) *Feature {
	f := &Feature{}
	if opts.Service == nil {
		return f
	}
	loc := opts.Location
	if loc == nil {
		loc = time.UTC
	}
	c := codec.New(loc)
	store := opts.Service.Store()
	gen := recurrence.NewGenerator(opts.MaxOccurrences)

	if opts.Calendar != nil {
		f.syncer = NewSyncer(store, opts.Calendar, c, gen, opts.CalendarID, logger)
	}
	f.exporter = NewExporter(store, c, gen, opts.Storage, opts.Bucket, logger)
	f.importer = NewImporter(opts.Service, c, opts.MaxOccurrences, logger)
	f.handler = NewHandler(f.syncer, f.exporter, f.importer, logger)
	return f
}

// Name returns the name of the feature.
func (f *Feature) Name() string {
	return "calsync"
}

// IsEnabled reports whether the feature has a planner service to work on.
func (f *Feature) IsEnabled() bool {
	return f.handler != nil
}

// Syncer returns the syncer, or nil when no calendar is configured.
func (f *Feature) Syncer() *Syncer { return f.syncer }

// Exporter returns the exporter.
func (f *Feature) Exporter() *Exporter { return f.exporter }

// Importer returns the importer.
func (f *Feature) Importer() *Importer { return f.importer }

// Load registers the feature's routes.
func (f *Feature) Load(app fiber.Router) error {
	f.handler.RegisterRoutes(app)
	return nil
}
