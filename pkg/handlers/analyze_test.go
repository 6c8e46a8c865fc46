package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/sundar-blr76/report-smith-sub001/pkg/apperrors"
	"github.com/sundar-blr76/report-smith-sub001/pkg/models"
)

type stubAnalyzer struct {
	plan *models.QueryPlan
	err  error

	gotQuery  string
	gotSchema *models.SchemaContext
}

func (s *stubAnalyzer) Analyze(_ context.Context, query string, sc *models.SchemaContext) (*models.QueryPlan, error) {
	s.gotQuery = query
	s.gotSchema = sc
	return s.plan, s.err
}

func minimalSchema() *models.SchemaContext {
	return &models.SchemaContext{
		Tables: []models.TableInfo{
			{Name: "funds", Columns: []models.ColumnInfo{{Name: "id", DataType: "integer", IsPrimary: true}}},
		},
	}
}

func doAnalyze(t *testing.T, h *AnalyzeHandler, method, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, "/api/analyze", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.Analyze(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) map[string]string {
	t.Helper()
	var body map[string]string
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode error body: %v", err)
	}
	return body
}

func TestAnalyzeSuccess(t *testing.T) {
	stub := &stubAnalyzer{plan: &models.QueryPlan{
		SQL:     "SELECT funds.id FROM funds",
		Outcome: models.OutcomeAccepted,
	}}
	h := NewAnalyzeHandler(stub, minimalSchema(), zap.NewNop())

	rec := doAnalyze(t, h, http.MethodPost, `{"query": "all funds"}`)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var plan models.QueryPlan
	if err := json.NewDecoder(rec.Body).Decode(&plan); err != nil {
		t.Fatalf("decode plan: %v", err)
	}
	if plan.SQL != "SELECT funds.id FROM funds" || plan.Outcome != models.OutcomeAccepted {
		t.Errorf("plan = %+v", plan)
	}
	if stub.gotQuery != "all funds" {
		t.Errorf("analyzer saw query %q", stub.gotQuery)
	}
	if stub.gotSchema == nil || stub.gotSchema.Tables[0].Name != "funds" {
		t.Error("analyzer did not receive the server schema")
	}
}

func TestAnalyzeHistoryOnlyWhenVerbose(t *testing.T) {
	stub := &stubAnalyzer{plan: &models.QueryPlan{
		SQL:     "SELECT funds.id FROM funds",
		History: []*models.QueryAnalysisResult{{Iteration: 1}, {Iteration: 2}},
	}}
	h := NewAnalyzeHandler(stub, minimalSchema(), zap.NewNop())

	rec := doAnalyze(t, h, http.MethodPost, `{"query": "all funds"}`)
	var plan models.QueryPlan
	if err := json.NewDecoder(rec.Body).Decode(&plan); err != nil {
		t.Fatalf("decode plan: %v", err)
	}
	if plan.History != nil {
		t.Errorf("history returned without verbose: %d entries", len(plan.History))
	}

	req := httptest.NewRequest(http.MethodPost, "/api/analyze?verbose=1", strings.NewReader(`{"query": "all funds"}`))
	rec = httptest.NewRecorder()
	h.Analyze(rec, req)
	plan = models.QueryPlan{}
	if err := json.NewDecoder(rec.Body).Decode(&plan); err != nil {
		t.Fatalf("decode verbose plan: %v", err)
	}
	if len(plan.History) != 2 {
		t.Errorf("verbose history length = %d, want 2", len(plan.History))
	}
}

func TestAnalyzeRequestSchemaOverridesServerSchema(t *testing.T) {
	stub := &stubAnalyzer{plan: &models.QueryPlan{SQL: "SELECT t.id FROM t"}}
	h := NewAnalyzeHandler(stub, minimalSchema(), zap.NewNop())

	body := `{"query": "q", "schema_context": {"tables": [{"name": "t", "columns": [{"name": "id", "data_type": "integer"}]}]}}`
	rec := doAnalyze(t, h, http.MethodPost, body)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	if stub.gotSchema == nil || len(stub.gotSchema.Tables) != 1 || stub.gotSchema.Tables[0].Name != "t" {
		t.Errorf("analyzer schema = %+v", stub.gotSchema)
	}
}

func TestAnalyzeBadRequests(t *testing.T) {
	tests := []struct {
		name      string
		schema    *models.SchemaContext
		body      string
		wantError string
	}{
		{"malformed json", minimalSchema(), `{"query": `, "invalid_request"},
		{"missing query", minimalSchema(), `{}`, "invalid_request"},
		{"no schema anywhere", nil, `{"query": "all funds"}`, "invalid_request"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewAnalyzeHandler(&stubAnalyzer{}, tt.schema, zap.NewNop())
			rec := doAnalyze(t, h, http.MethodPost, tt.body)

			if rec.Code != http.StatusBadRequest {
				t.Fatalf("status = %d", rec.Code)
			}
			if body := decodeError(t, rec); body["error"] != tt.wantError {
				t.Errorf("error code = %q", body["error"])
			}
		})
	}
}

func TestAnalyzeMethodNotAllowed(t *testing.T) {
	h := NewAnalyzeHandler(&stubAnalyzer{}, minimalSchema(), zap.NewNop())

	rec := doAnalyze(t, h, http.MethodGet, "")

	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestAnalyzeErrorMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{
			name:       "malformed schema",
			err:        apperrors.ErrMalformedSchema,
			wantStatus: http.StatusBadRequest,
			wantCode:   "malformed_schema",
		},
		{
			name:       "no entities",
			err:        &apperrors.NoEntitiesResolvedError{Query: "q"},
			wantStatus: http.StatusUnprocessableEntity,
			wantCode:   "no_entities_resolved",
		},
		{
			name:       "disconnected schema",
			err:        &apperrors.DisconnectedSchemaError{Pairs: [][2]string{{"a", "b"}}},
			wantStatus: http.StatusUnprocessableEntity,
			wantCode:   "disconnected_schema",
		},
		{
			name:       "plan assembly",
			err:        &apperrors.PlanAssemblyError{Reason: "nothing to select"},
			wantStatus: http.StatusUnprocessableEntity,
			wantCode:   "plan_assembly_failed",
		},
		{
			name:       "cancelled",
			err:        context.Canceled,
			wantStatus: http.StatusRequestTimeout,
			wantCode:   "request_cancelled",
		},
		{
			name:       "unrecognized",
			err:        errForTest("boom"),
			wantStatus: http.StatusInternalServerError,
			wantCode:   "internal_error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewAnalyzeHandler(&stubAnalyzer{err: tt.err}, minimalSchema(), zap.NewNop())
			rec := doAnalyze(t, h, http.MethodPost, `{"query": "all funds"}`)

			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if body := decodeError(t, rec); body["error"] != tt.wantCode {
				t.Errorf("error code = %q, want %q", body["error"], tt.wantCode)
			}
		})
	}
}

type errForTest string

func (e errForTest) Error() string { return string(e) }
