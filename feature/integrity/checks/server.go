package checks

import (
	"fmt"
	"reflect"
	"strings"

	"planner/core/database"
	"planner/feature/planner/models"

	"gorm.io/gorm"
)

// ServerReport is the result of comparing the database schema with the planner models.
type ServerReport struct {
	Driver  string                 `json:"driver"`
	Matched bool                   `json:"matched"`
	Tables  map[string]TableReport `json:"tables"`
	Errors  []string               `json:"errors"`
}

type TableReport struct {
	MissingColumns []string `json:"missing_columns"`
	TypeMismatches []string `json:"type_mismatches"`
	Status         string   `json:"status"` // "ok", "error"
}

// CheckServerIntegrity verifies the database schema using the gorm models as the source of truth.
func CheckServerIntegrity(db *gorm.DB) (*ServerReport, error) {
	if db == nil {
		return nil, fmt.Errorf("database connection is nil")
	}

	report := &ServerReport{
		Driver:  db.Dialector.Name(),
		Tables:  make(map[string]TableReport),
		Matched: true,
		Errors:  []string{},
	}
	for _, model := range models.All() {
		checkTable(db, model, report)
	}
	return report, nil
}

func checkTable(db *gorm.DB, model any, report *ServerReport) {
	typ := reflect.TypeOf(model)
	if typ.Kind() == reflect.Pointer {
		typ = typ.Elem()
	}
	tabler, ok := reflect.New(typ).Interface().(interface{ TableName() string })
	if !ok {
		report.Errors = append(report.Errors, fmt.Sprintf("model %s does not implement TableName", typ.Name()))
		report.Matched = false
		return
	}
	tableName := tabler.TableName()

	actual, err := database.GetTableColumns(db, tableName)
	if err != nil {
		report.Errors = append(report.Errors, fmt.Sprintf("Failed to inspect table %s: %v", tableName, err))
		report.Matched = false
		return
	}
	actualMap := make(map[string]database.ColumnInfo, len(actual))
	for _, col := range actual {
		actualMap[col.Field] = col
	}

	tbl := TableReport{MissingColumns: []string{}, TypeMismatches: []string{}, Status: "ok"}
	for i := 0; i < typ.NumField(); i++ {
		tag := typ.Field(i).Tag.Get("gorm")
		colName := parseGormColumn(tag)
		if colName == "" {
			continue
		}

		col, exists := actualMap[colName]
		if !exists {
			tbl.MissingColumns = append(tbl.MissingColumns, colName)
			tbl.Status = "error"
			continue
		}

		// Only columns with an explicit type are compared.
		expType := strings.ToLower(parseGormType(tag))
		if expType != "" && !strings.Contains(col.Type, expType) && !sameFamily(expType, col.Type) {
			tbl.TypeMismatches = append(tbl.TypeMismatches, fmt.Sprintf("%s: expected %s, got %s", colName, expType, col.Type))
			tbl.Status = "error"
		}
	}
	if tbl.Status != "ok" {
		report.Matched = false
	}
	report.Tables[tableName] = tbl
}

// sameFamily accepts the text types mysql may widen a declared text column to.
func sameFamily(expected, actual string) bool {
	return expected == "text" && strings.HasSuffix(actual, "text")
}

func parseGormColumn(tag string) string {
	for _, p := range strings.Split(tag, ";") {
		if strings.HasPrefix(p, "column:") {
			return strings.TrimPrefix(p, "column:")
		}
	}
	return ""
}

func parseGormType(tag string) string {
	for _, p := range strings.Split(tag, ";") {
		if strings.HasPrefix(p, "type:") {
			return strings.TrimPrefix(p, "type:")
		}
	}
	return ""
}
