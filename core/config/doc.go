// Package config provides configuration management for the planner.
//
// It loads an optional .env file with godotenv, then reads environment
// variables through Viper. Defaults come from the `default` struct tags of
// each section.
//
// # Configuration Structure
//
//   - Server: HTTP port, API key, body limit, shutdown timeout
//   - Database: sqlite or MySQL connection details
//   - Storage: S3/MinIO credentials and the export bucket
//   - Log: logging level and format
//   - Recurrence: occurrence safety cap
//   - Sync: Google Calendar push, schedule and breaker
//   - Cache: client reconciliation timeouts and server URL
//
// # Usage
//
//	cfg, err := config.LoadConfig(".")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(cfg.Server.Port)
package config
