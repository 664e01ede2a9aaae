// Package loader provides the plugin-like feature loading system.
//
// Each feature implements the Feature interface, which names it, reports
// whether it is enabled and registers its routes.
//
// # Manager
//
// The Manager holds the registry of features. Register adds one and LoadAll
// loads every enabled feature in registration order. Features like planner,
// calsync and integrity are developed and tested in isolation.
package loader
