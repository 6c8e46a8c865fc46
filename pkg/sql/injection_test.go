package sql

import "testing"

func TestCheckFilterValueClean(t *testing.T) {
	for _, value := range []string{"Equity", "Money Market", "2026-01-01", "O'Brien Capital"} {
		if r := CheckFilterValue("label", value); r != nil {
			t.Errorf("value %q flagged: %+v", value, r)
		}
	}
}

func TestCheckFilterValueInjection(t *testing.T) {
	r := CheckFilterValue("label", "Equity' OR '1'='1")
	if r == nil {
		t.Fatal("classic tautology injection not flagged")
	}
	if !r.IsSQLi {
		t.Error("IsSQLi = false on a flagged result")
	}
	if r.Column != "label" || r.Value != "Equity' OR '1'='1" {
		t.Errorf("offender detail = %+v", r)
	}
	if r.Fingerprint == "" {
		t.Error("flagged result carries no fingerprint")
	}
}

func TestCheckFilterValues(t *testing.T) {
	results := CheckFilterValues("label", []string{
		"Equity",
		"1; DROP TABLE funds--",
		"Bond",
		"x' UNION SELECT password FROM users--",
	})
	if len(results) != 2 {
		t.Fatalf("flagged %d values, want 2: %+v", len(results), results)
	}
	if results[0].Value != "1; DROP TABLE funds--" {
		t.Errorf("first offender = %q", results[0].Value)
	}
	if results[1].Value != "x' UNION SELECT password FROM users--" {
		t.Errorf("second offender = %q", results[1].Value)
	}
}
