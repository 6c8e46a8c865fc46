// Package datasource loads a schema context from a live database:
// tables, columns, foreign keys, low-cardinality domain values, and any
// table or column comments as business context. Deployments that prefer
// a static catalog use a YAML schema file instead and never touch this
// package.
package datasource

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/sundar-blr76/report-smith-sub001/pkg/config"
	"github.com/sundar-blr76/report-smith-sub001/pkg/models"
)

// SchemaReader loads the full schema context from one datasource.
type SchemaReader interface {
	ReadSchemaContext(ctx context.Context) (*models.SchemaContext, error)
	Close() error
}

// New returns the reader for the configured datasource type.
func New(ctx context.Context, cfg config.DatasourceConfig, logger *zap.Logger) (SchemaReader, error) {
	switch cfg.Type {
	case "postgres":
		return NewPostgresReader(ctx, cfg, logger)
	case "mssql":
		return NewMSSQLReader(ctx, cfg, logger)
	default:
		return nil, fmt.Errorf("unsupported datasource type %q", cfg.Type)
	}
}

// isTemporalType reports whether a column type holds dates or times.
func isTemporalType(dataType string) bool {
	lower := strings.ToLower(dataType)
	return strings.Contains(lower, "date") || strings.Contains(lower, "time")
}

// isMetricType reports whether a column type is numeric and therefore a
// candidate for aggregation. Keys are excluded by the callers.
func isMetricType(dataType string) bool {
	switch strings.ToLower(dataType) {
	case "integer", "bigint", "smallint", "int", "numeric", "decimal",
		"real", "double precision", "float", "money", "smallmoney", "tinyint":
		return true
	default:
		return false
	}
}

// isTextType reports whether a column type can carry domain-value labels.
func isTextType(dataType string) bool {
	switch strings.ToLower(dataType) {
	case "text", "character varying", "varchar", "character", "char",
		"nvarchar", "nchar":
		return true
	default:
		return false
	}
}
