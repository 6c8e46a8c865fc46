package datasource

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"

	_ "github.com/microsoft/go-mssqldb"
	"go.uber.org/zap"

	"github.com/sundar-blr76/report-smith-sub001/pkg/config"
	"github.com/sundar-blr76/report-smith-sub001/pkg/models"
)

// MSSQLReader loads a schema context from a SQL Server database.
type MSSQLReader struct {
	db     *sql.DB
	cfg    config.DatasourceConfig
	logger *zap.Logger
}

// NewMSSQLReader opens a connection to the configured database.
func NewMSSQLReader(ctx context.Context, cfg config.DatasourceConfig, logger *zap.Logger) (*MSSQLReader, error) {
	u := &url.URL{
		Scheme: "sqlserver",
		User:   url.UserPassword(cfg.User, cfg.Password),
		Host:   fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
	}
	q := url.Values{}
	q.Set("database", cfg.Database)
	u.RawQuery = q.Encode()

	db, err := sql.Open("sqlserver", u.String())
	if err != nil {
		return nil, fmt.Errorf("open sqlserver connection: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlserver: %w", err)
	}
	return &MSSQLReader{
		db:     db,
		cfg:    cfg,
		logger: logger.Named("mssql"),
	}, nil
}

func (r *MSSQLReader) Close() error {
	return r.db.Close()
}

// ReadSchemaContext discovers tables, columns, foreign keys, and sampled
// domain values from the system catalog, in name order for reproducible
// analysis.
func (r *MSSQLReader) ReadSchemaContext(ctx context.Context) (*models.SchemaContext, error) {
	sc := &models.SchemaContext{}

	tables, err := r.readTables(ctx)
	if err != nil {
		return nil, err
	}
	for _, table := range tables {
		columns, err := r.readColumns(ctx, table.Name)
		if err != nil {
			return nil, err
		}
		table.Columns = columns
		sc.Tables = append(sc.Tables, table)
	}

	if sc.Relationships, err = r.readForeignKeys(ctx); err != nil {
		return nil, err
	}
	if sc.DomainValues, err = r.sampleDomainValues(ctx, sc.Tables); err != nil {
		return nil, err
	}

	r.logger.Info("schema context loaded",
		zap.Int("tables", len(sc.Tables)),
		zap.Int("relationships", len(sc.Relationships)),
		zap.Int("domain_values", len(sc.DomainValues)))
	return sc, nil
}

func (r *MSSQLReader) readTables(ctx context.Context) ([]models.TableInfo, error) {
	const query = `
	SET NOCOUNT ON;
	SELECT t.name
	FROM sys.tables t
	WHERE t.is_ms_shipped = 0
	ORDER BY t.name
	`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query tables: %w", err)
	}
	defer rows.Close()

	var tables []models.TableInfo
	for rows.Next() {
		var t models.TableInfo
		if err := rows.Scan(&t.Name); err != nil {
			return nil, fmt.Errorf("scan table: %w", err)
		}
		tables = append(tables, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate tables: %w", err)
	}
	return tables, nil
}

func (r *MSSQLReader) readColumns(ctx context.Context, tableName string) ([]models.ColumnInfo, error) {
	const query = `
	SET NOCOUNT ON;
	SELECT c.COLUMN_NAME,
	       c.DATA_TYPE,
	       CASE WHEN pk.COLUMN_NAME IS NULL THEN 0 ELSE 1 END AS is_primary
	FROM INFORMATION_SCHEMA.COLUMNS c
	LEFT JOIN (
		SELECT kcu.COLUMN_NAME
		FROM INFORMATION_SCHEMA.TABLE_CONSTRAINTS tc
		JOIN INFORMATION_SCHEMA.KEY_COLUMN_USAGE kcu
			ON tc.CONSTRAINT_NAME = kcu.CONSTRAINT_NAME
		WHERE tc.CONSTRAINT_TYPE = 'PRIMARY KEY'
		  AND tc.TABLE_NAME = @p1
	) pk ON c.COLUMN_NAME = pk.COLUMN_NAME
	WHERE c.TABLE_NAME = @p1
	ORDER BY c.ORDINAL_POSITION
	`
	rows, err := r.db.QueryContext(ctx, query, tableName)
	if err != nil {
		return nil, fmt.Errorf("query columns for %s: %w", tableName, err)
	}
	defer rows.Close()

	var columns []models.ColumnInfo
	for rows.Next() {
		var col models.ColumnInfo
		var isPrimary int
		if err := rows.Scan(&col.Name, &col.DataType, &isPrimary); err != nil {
			return nil, fmt.Errorf("scan column: %w", err)
		}
		col.IsPrimary = isPrimary == 1
		col.IsTemporal = isTemporalType(col.DataType)
		col.IsMetric = !col.IsPrimary && isMetricType(col.DataType)
		columns = append(columns, col)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate columns: %w", err)
	}
	return columns, nil
}

func (r *MSSQLReader) readForeignKeys(ctx context.Context) ([]models.Relationship, error) {
	const query = `
	SET NOCOUNT ON;
	SELECT
	    OBJECT_NAME(fkc.parent_object_id)         AS source_table,
	    COL_NAME(fkc.parent_object_id, fkc.parent_column_id) AS source_column,
	    OBJECT_NAME(fkc.referenced_object_id)     AS target_table,
	    COL_NAME(fkc.referenced_object_id, fkc.referenced_column_id) AS target_column
	FROM sys.foreign_key_columns fkc
	ORDER BY source_table, source_column
	`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query foreign keys: %w", err)
	}
	defer rows.Close()

	var rels []models.Relationship
	for rows.Next() {
		var rel models.Relationship
		if err := rows.Scan(&rel.SourceTable, &rel.SourceColumn, &rel.TargetTable, &rel.TargetColumn); err != nil {
			return nil, fmt.Errorf("scan foreign key: %w", err)
		}
		rel.Cardinality = models.CardinalityNTo1
		rels = append(rels, rel)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate foreign keys: %w", err)
	}
	return rels, nil
}

func (r *MSSQLReader) sampleDomainValues(ctx context.Context, tables []models.TableInfo) ([]models.DomainValueEntry, error) {
	limit := r.cfg.DomainValueLimit
	if limit <= 0 {
		return nil, nil
	}

	var entries []models.DomainValueEntry
	for _, table := range tables {
		for _, col := range table.Columns {
			if col.IsPrimary || !isTextType(col.DataType) {
				continue
			}
			values, err := r.distinctValues(ctx, table.Name, col.Name, limit)
			if err != nil {
				r.logger.Warn("domain value sampling failed",
					zap.String("table", table.Name),
					zap.String("column", col.Name),
					zap.Error(err))
				continue
			}
			for _, v := range values {
				entries = append(entries, models.DomainValueEntry{
					Table:  table.Name,
					Column: col.Name,
					Value:  v,
				})
			}
		}
	}
	return entries, nil
}

func (r *MSSQLReader) distinctValues(ctx context.Context, table, column string, limit int) ([]string, error) {
	query := fmt.Sprintf(`
	SELECT DISTINCT TOP (%d) CAST([%s] AS NVARCHAR(MAX))
	FROM [%s]
	WHERE [%s] IS NOT NULL
	ORDER BY 1
	`, limit+1, column, table, column)

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("distinct values for %s.%s: %w", table, column, err)
	}
	defer rows.Close()

	var values []string
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, fmt.Errorf("scan distinct value: %w", err)
		}
		values = append(values, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate distinct values: %w", err)
	}
	if len(values) > limit {
		return nil, nil // high cardinality, not an enum-like column
	}
	return values, nil
}

var _ SchemaReader = (*MSSQLReader)(nil)
