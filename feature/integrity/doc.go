// Package integrity provides health checks over the planner's storage.
//
// # Checks Provided
//
//   - Structure: the exports/ folder exists in the storage bucket.
//   - Server: the database schema matches the series and instances models (columns, types).
//   - Data: no instance points at a missing series and no series holds two instances on one date.
//
// # HTTP Endpoints
//
//   - GET /integrity : Runs all checks.
//   - GET /integrity/structure : Runs structure check (supports ?fix=true).
//   - GET /integrity/server : Runs server schema check.
//   - GET /integrity/data : Runs data check (supports ?fix=true to delete orphans).
package integrity
