package services

import (
	"reflect"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestSchemaGraphTablesDeclarationOrder(t *testing.T) {
	g := NewSchemaGraph(fundsSchema())

	want := []string{"funds", "fund_types", "clients", "holdings", "fee_transactions"}
	if got := g.Tables(); !reflect.DeepEqual(got, want) {
		t.Errorf("Tables() = %v, want %v", got, want)
	}
}

func TestSchemaGraphNeighbors(t *testing.T) {
	g := NewSchemaGraph(fundsSchema())

	tests := []struct {
		table string
		want  []string
	}{
		{"funds", []string{"fund_types", "holdings"}},
		{"holdings", []string{"funds", "clients"}},
		{"fee_transactions", nil},
		{"unknown", nil},
	}
	for _, tt := range tests {
		t.Run(tt.table, func(t *testing.T) {
			if got := g.Neighbors(tt.table); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Neighbors(%q) = %v, want %v", tt.table, got, tt.want)
			}
		})
	}
}

func TestSchemaGraphConnectedComponents(t *testing.T) {
	g := NewSchemaGraph(fundsSchema())

	components, islands := g.ConnectedComponents()
	if len(components) != 1 {
		t.Fatalf("expected 1 multi-table component, got %d", len(components))
	}
	if components[0].Size != 4 {
		t.Errorf("component size = %d, want 4", components[0].Size)
	}
	if !reflect.DeepEqual(islands, []string{"fee_transactions"}) {
		t.Errorf("islands = %v, want [fee_transactions]", islands)
	}
}

func TestSchemaGraphLogConnectivity(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)

	NewSchemaGraph(fundsSchema()).LogConnectivity(zap.New(core))

	entries := logs.FilterMessage("schema graph connectivity").All()
	if len(entries) != 1 {
		t.Fatalf("connectivity entries = %d, want 1", len(entries))
	}
	fields := entries[0].ContextMap()
	if fields["components"] != int64(1) || fields["islands"] != int64(1) {
		t.Errorf("fields = %v, want 1 component and 1 island", fields)
	}
}
