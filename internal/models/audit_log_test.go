package models

import (
	"testing"
)

func TestAuditMetadata_ValueScan(t *testing.T) {
	in := AuditMetadata{"status": "DISABLED", "revoked": float64(3)}

	v, err := in.Value()
	if err != nil {
		t.Fatalf("Value() error = %v", err)
	}

	var out AuditMetadata
	if err := out.Scan(v); err != nil {
		t.Fatalf("Scan([]byte) error = %v", err)
	}
	if out["status"] != "DISABLED" || out["revoked"] != float64(3) {
		t.Errorf("round trip mismatch: %v", out)
	}

	var fromString AuditMetadata
	if err := fromString.Scan(`{"a":"b"}`); err != nil {
		t.Fatalf("Scan(string) error = %v", err)
	}
	if fromString["a"] != "b" {
		t.Errorf("Scan(string) = %v", fromString)
	}
}

func TestAuditMetadata_Nil(t *testing.T) {
	var m AuditMetadata
	v, err := m.Value()
	if err != nil || v != nil {
		t.Errorf("nil Value() = %v, %v; want nil, nil", v, err)
	}

	if err := m.Scan(nil); err != nil {
		t.Fatalf("Scan(nil) error = %v", err)
	}
	if m == nil || len(m) != 0 {
		t.Errorf("Scan(nil) should yield an empty map, got %v", m)
	}
}

func TestAuditMetadata_ScanRejectsOtherTypes(t *testing.T) {
	var m AuditMetadata
	if err := m.Scan(42); err == nil {
		t.Error("expected error scanning an int")
	}
}
