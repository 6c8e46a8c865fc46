package datasource

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/sundar-blr76/report-smith-sub001/pkg/config"
	"github.com/sundar-blr76/report-smith-sub001/pkg/models"
)

// PostgresReader loads a schema context from a PostgreSQL database.
type PostgresReader struct {
	pool   *pgxpool.Pool
	cfg    config.DatasourceConfig
	logger *zap.Logger
}

// NewPostgresReader connects a pool to the configured database.
func NewPostgresReader(ctx context.Context, cfg config.DatasourceConfig, logger *zap.Logger) (*PostgresReader, error) {
	pool, err := pgxpool.New(ctx, cfg.ConnectionString())
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}
	return &PostgresReader{
		pool:   pool,
		cfg:    cfg,
		logger: logger.Named("postgres"),
	}, nil
}

func (r *PostgresReader) Close() error {
	r.pool.Close()
	return nil
}

// ReadSchemaContext discovers tables, columns, foreign keys, sampled
// domain values, and comments, in catalog order so the resulting context
// yields the same analysis on every load.
func (r *PostgresReader) ReadSchemaContext(ctx context.Context) (*models.SchemaContext, error) {
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

		if table.Description != "" {
			sc.BusinessContext = append(sc.BusinessContext, models.BusinessContextEntry{
				Table:       table.Name,
				Description: table.Description,
			})
		}
		for _, col := range columns {
			if col.Description != "" {
				sc.BusinessContext = append(sc.BusinessContext, models.BusinessContextEntry{
					Table:       table.Name,
					Column:      col.Name,
					Description: col.Description,
				})
			}
		}
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

func (r *PostgresReader) readTables(ctx context.Context) ([]models.TableInfo, error) {
	const query = `
		SELECT t.table_name,
		       COALESCE(obj_description(c.oid), '') AS description
		FROM information_schema.tables t
		LEFT JOIN pg_class c ON c.relname = t.table_name
		LEFT JOIN pg_namespace n ON n.oid = c.relnamespace AND n.nspname = t.table_schema
		WHERE t.table_type = 'BASE TABLE'
		  AND t.table_schema NOT IN ('pg_catalog', 'information_schema', 'pg_toast')
		ORDER BY t.table_name
	`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query tables: %w", err)
	}
	defer rows.Close()

	var tables []models.TableInfo
	for rows.Next() {
		var t models.TableInfo
		if err := rows.Scan(&t.Name, &t.Description); err != nil {
			return nil, fmt.Errorf("scan table: %w", err)
		}
		tables = append(tables, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate tables: %w", err)
	}
	return tables, nil
}

func (r *PostgresReader) readColumns(ctx context.Context, tableName string) ([]models.ColumnInfo, error) {
	const query = `
		SELECT c.column_name,
		       c.data_type,
		       COALESCE(col_description(pc.oid, c.ordinal_position), '') AS description,
		       COALESCE(pk.is_pk, false) AS is_primary
		FROM information_schema.columns c
		LEFT JOIN pg_class pc ON pc.relname = c.table_name
		LEFT JOIN pg_namespace pn ON pn.oid = pc.relnamespace AND pn.nspname = c.table_schema
		LEFT JOIN (
			SELECT a.attname AS column_name, true AS is_pk
			FROM pg_index ix
			JOIN pg_class t ON t.oid = ix.indrelid
			JOIN pg_attribute a ON a.attrelid = t.oid AND a.attnum = ANY(ix.indkey)
			WHERE ix.indisprimary = true AND t.relname = $1
		) pk ON c.column_name = pk.column_name
		WHERE c.table_name = $1
		  AND c.table_schema NOT IN ('pg_catalog', 'information_schema')
		ORDER BY c.ordinal_position
	`
	rows, err := r.pool.Query(ctx, query, tableName)
	if err != nil {
		return nil, fmt.Errorf("query columns for %s: %w", tableName, err)
	}
	defer rows.Close()

	var columns []models.ColumnInfo
	for rows.Next() {
		var col models.ColumnInfo
		if err := rows.Scan(&col.Name, &col.DataType, &col.Description, &col.IsPrimary); err != nil {
			return nil, fmt.Errorf("scan column: %w", err)
		}
		col.IsTemporal = isTemporalType(col.DataType)
		col.IsMetric = !col.IsPrimary && isMetricType(col.DataType)
		columns = append(columns, col)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate columns: %w", err)
	}
	return columns, nil
}

func (r *PostgresReader) readForeignKeys(ctx context.Context) ([]models.Relationship, error) {
	const query = `
		SELECT kcu.table_name  AS source_table,
		       kcu.column_name AS source_column,
		       ccu.table_name  AS target_table,
		       ccu.column_name AS target_column
		FROM information_schema.table_constraints tc
		JOIN information_schema.key_column_usage kcu
			ON tc.constraint_name = kcu.constraint_name
			AND tc.table_schema = kcu.table_schema
		JOIN information_schema.constraint_column_usage ccu
			ON tc.constraint_name = ccu.constraint_name
			AND tc.table_schema = ccu.table_schema
		WHERE tc.constraint_type = 'FOREIGN KEY'
		  AND tc.table_schema NOT IN ('pg_catalog', 'information_schema', 'pg_toast')
		ORDER BY kcu.table_name, kcu.column_name
	`
	rows, err := r.pool.Query(ctx, query)
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

// sampleDomainValues collects distinct values from low-cardinality text
// columns. A column whose distinct count exceeds the limit is not a
// label-like column and contributes nothing; sampling a prefix of it
// would make entity matching depend on row order.
func (r *PostgresReader) sampleDomainValues(ctx context.Context, tables []models.TableInfo) ([]models.DomainValueEntry, error) {
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

// distinctValues returns all distinct values of a column when there are
// at most limit of them, nil otherwise.
func (r *PostgresReader) distinctValues(ctx context.Context, table, column string, limit int) ([]string, error) {
	query := fmt.Sprintf(`
		SELECT DISTINCT %s::text
		FROM %s
		WHERE %s IS NOT NULL
		ORDER BY 1
		LIMIT $1
	`, pgx.Identifier{column}.Sanitize(), pgx.Identifier{table}.Sanitize(), pgx.Identifier{column}.Sanitize())

	rows, err := r.pool.Query(ctx, query, limit+1)
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

var _ SchemaReader = (*PostgresReader)(nil)
