package services

import (
	"time"

	"go.uber.org/zap"

	"github.com/sundar-blr76/report-smith-sub001/pkg/config"
	"github.com/sundar-blr76/report-smith-sub001/pkg/models"
)

// fundsSchema is the shared fixture: a small fund-accounting schema with
// one deliberately unreachable table (fee_transactions has no declared
// relationships).
func fundsSchema() *models.SchemaContext {
	return &models.SchemaContext{
		Tables: []models.TableInfo{
			{
				Name:        "funds",
				Description: "investment funds under management",
				Columns: []models.ColumnInfo{
					{Name: "id", DataType: "integer", IsPrimary: true},
					{Name: "name", DataType: "text"},
					{Name: "fund_type_id", DataType: "integer"},
					{Name: "aum", DataType: "numeric", Description: "assets under management", IsMetric: true},
					{Name: "inception_date", DataType: "date", IsTemporal: true},
				},
			},
			{
				Name: "fund_types",
				Columns: []models.ColumnInfo{
					{Name: "id", DataType: "integer", IsPrimary: true},
					{Name: "label", DataType: "text"},
				},
			},
			{
				Name: "clients",
				Columns: []models.ColumnInfo{
					{Name: "id", DataType: "integer", IsPrimary: true},
					{Name: "name", DataType: "text"},
				},
			},
			{
				Name: "holdings",
				Columns: []models.ColumnInfo{
					{Name: "id", DataType: "integer", IsPrimary: true},
					{Name: "fund_id", DataType: "integer"},
					{Name: "client_id", DataType: "integer"},
					{Name: "quantity", DataType: "numeric", IsMetric: true},
					{Name: "trade_date", DataType: "date", Description: "date the position was traded", IsTemporal: true},
				},
			},
			{
				Name: "fee_transactions",
				Columns: []models.ColumnInfo{
					{Name: "id", DataType: "integer", IsPrimary: true},
					{Name: "amount", DataType: "numeric", IsMetric: true},
					{Name: "fee_date", DataType: "date", IsTemporal: true},
				},
			},
		},
		Relationships: []models.Relationship{
			{SourceTable: "funds", SourceColumn: "fund_type_id", TargetTable: "fund_types", TargetColumn: "id", Cardinality: models.CardinalityNTo1},
			{SourceTable: "holdings", SourceColumn: "fund_id", TargetTable: "funds", TargetColumn: "id", Cardinality: models.CardinalityNTo1},
			{SourceTable: "holdings", SourceColumn: "client_id", TargetTable: "clients", TargetColumn: "id", Cardinality: models.CardinalityNTo1},
		},
		DomainValues: []models.DomainValueEntry{
			{Table: "fund_types", Column: "label", Value: "Equity"},
			{Table: "fund_types", Column: "label", Value: "Bond"},
			{Table: "fund_types", Column: "label", Value: "Money Market"},
		},
		BusinessContext: []models.BusinessContextEntry{
			{Table: "funds", Description: "AUM figures are restated monthly"},
			{Table: "holdings", Column: "trade_date", Description: "use trade_date for period reporting"},
		},
	}
}

func testAnalysisConfig() config.AnalysisConfig {
	return config.AnalysisConfig{
		RefinementBudget:    3,
		SchemaMinScore:      0.5,
		DomainMinScore:      0.6,
		ContextMinScore:     0.4,
		BroadMatchWarning:   8,
		CollaboratorTimeout: 5 * time.Second,
		PinScore:            0.85,
		RelaxStep:           0.1,
		RelaxFloor:          0.2,
	}
}

func testLogger() *zap.Logger {
	return zap.NewNop()
}

// fixedNow is the reference clock used where relative temporal scopes
// must resolve reproducibly.
func fixedNow() time.Time {
	return time.Date(2026, time.August, 30, 12, 0, 0, 0, time.UTC)
}
