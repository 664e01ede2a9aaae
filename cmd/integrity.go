package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"planner/core/database"
	"planner/core/storage"
	"planner/feature/integrity"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var (
	fixFlag  bool
	jsonFlag bool
)

// integrityCmd represents the integrity command
var integrityCmd = &cobra.Command{
	Use:   "integrity",
	Short: "Perform integrity checks on storage and the planner database",
	Long:  `Checks the export bucket layout, the planner table schema and the stored instances.`,
	Run: func(cmd *cobra.Command, args []string) {
		if len(args) > 0 {
			cmd.Help()
			return
		}
		runIntegrityChecks(cmd.Context(), true, true, true, false)
	},
}

// structureCmd represents the integrity structure command
var structureCmd = &cobra.Command{
	Use:   "structure",
	Short: "Check and fix the export bucket layout",
	Run: func(cmd *cobra.Command, args []string) {
		runIntegrityChecks(cmd.Context(), true, false, false, fixFlag)
	},
}

// serverCmd represents the integrity server command
var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Check the planner tables against the expected schema",
	Run: func(cmd *cobra.Command, args []string) {
		runIntegrityChecks(cmd.Context(), false, true, false, false)
	},
}

// dataCmd represents the integrity data command
var dataCmd = &cobra.Command{
	Use:   "data",
	Short: "Check stored instances for orphans and duplicate dates",
	Long:  `Finds instances whose series no longer exists and series with two instances on one date. With --json the findings are saved to a file.`,
	Run: func(cmd *cobra.Command, args []string) {
		runIntegrityChecks(cmd.Context(), false, false, true, fixFlag)
	},
}

func init() {
	RootCmd.AddCommand(integrityCmd)
	integrityCmd.AddCommand(structureCmd, serverCmd, dataCmd)

	structureCmd.Flags().BoolVar(&fixFlag, "fix", false, "Create missing folders")
	dataCmd.Flags().BoolVar(&fixFlag, "fix", false, "Delete orphan instances")
	dataCmd.Flags().BoolVar(&jsonFlag, "json", false, "Save the findings as JSON")
}

func runIntegrityChecks(ctx context.Context, runStructure, runServer, runData, fix bool) {
	rt, err := loadRuntime()
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
	logg := rt.logger
	cfg := rt.cfg

	var store storage.Client
	if runStructure {
		client, err := storage.NewClient(cfg.Storage)
		if err != nil {
			logg.Fatal("Failed to create storage client", zap.Error(err))
		}
		store = client
	}

	var db *gorm.DB
	if runServer || runData {
		if conn, err := database.Connect(cfg.Database); err != nil {
			logg.Warn("Database connection failed, skipping database checks", zap.Error(err))
			runServer, runData = false, false
		} else {
			db = conn
			logg = logg.With(zap.String("driver", cfg.Database.Driver))
		}
	}

	svc := integrity.NewService(store, cfg.Storage.Bucket, db, logg)

	if runStructure {
		logg.Info("Checking folder structure...", zap.String("bucket", cfg.Storage.Bucket))
		missing, err := svc.CheckStructure(ctx)
		if err != nil {
			logg.Fatal("Structure check failed", zap.Error(err))
		}

		if len(missing) == 0 {
			logg.Info("Structure is intact.")
		} else {
			logg.Warn("Missing folders detected", zap.Strings("missing", missing))
			if fix {
				if err := svc.FixStructure(ctx, missing); err != nil {
					logg.Fatal("Failed to fix structure", zap.Error(err))
				}
				logg.Info("Structure fixed successfully.")
			} else {
				logg.Info("Run 'integrity structure --fix' to create missing folders.")
			}
		}
	}

	if runServer {
		logg.Info("Checking server schema integrity...")
		report, err := svc.CheckServer()
		if err != nil {
			logg.Error("Server schema check failed", zap.Error(err))
		} else if report.Matched {
			logg.Info("Server schema matches expected definition.")
		} else {
			logg.Warn("Server schema mismatches found")
			for table, tblReport := range report.Tables {
				if tblReport.Status == "ok" {
					continue
				}
				if len(tblReport.MissingColumns) > 0 {
					logg.Warn("Missing Columns", zap.String("table", table), zap.Strings("columns", tblReport.MissingColumns))
				}
				if len(tblReport.TypeMismatches) > 0 {
					logg.Warn("Type Mismatches", zap.String("table", table), zap.Strings("mismatches", tblReport.TypeMismatches))
				}
			}
			for _, e := range report.Errors {
				logg.Error("Inspection Error", zap.String("error", e))
			}
		}
	}

	if runData {
		logg.Info("Checking stored instances...")
		report, err := svc.CheckData(ctx)
		if err != nil {
			logg.Fatal("Data check failed", zap.Error(err))
		}

		if report.Status == "ok" {
			logg.Info("Instances are consistent.")
		} else {
			logg.Warn("Inconsistent instances found",
				zap.Int("orphans", len(report.OrphanInstances)),
				zap.Int("duplicate_dates", len(report.DuplicateDates)),
			)
			if jsonFlag {
				filename := fmt.Sprintf("integrity_data_%d.json", time.Now().Unix())
				data, _ := json.MarshalIndent(report, "", "  ")
				if err := os.WriteFile(filename, data, 0644); err != nil {
					logg.Error("Failed to save integrity report", zap.Error(err))
				} else {
					logg.Info("Detailed JSON report saved", zap.String("file", filename))
				}
			}
			if fix {
				removed, err := svc.FixData(ctx, report)
				if err != nil {
					logg.Fatal("Failed to fix instances", zap.Error(err))
				}
				logg.Info("Instances repaired", zap.Int64("removed", removed))
			} else {
				logg.Info("Run 'integrity data --fix' to delete orphan instances.")
			}
		}
	}
}
