// Package database handles database connections and schema inspection.
//
// It wraps GORM and opens either MySQL or SQLite depending on Config.Driver.
// SQLite is the default for a single-user planner; MySQL suits a shared
// server.
//
// # Schema Inspection
//
// GetTableColumns reads the live column definitions of a table. The
// integrity feature compares them with the GORM models of the planner
// tables to catch a schema that drifted from the code.
//
// # Usage
//
//	db, err := database.Connect(cfg.Database)
//	if err != nil {
//	    return err
//	}
//
//	columns, err := database.GetTableColumns(db, "instances")
package database
