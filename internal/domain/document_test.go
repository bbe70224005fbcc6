package domain

import "testing"

func TestIsCanonicalKey(t *testing.T) {
	valid := []string{"tensao_v", "capacidade_ah", "grau_ip", "portas", "memoria_ram_gb", "a1"}
	for _, k := range valid {
		if !IsCanonicalKey(k) {
			t.Errorf("IsCanonicalKey(%q) = false, want true", k)
		}
	}
	invalid := []string{"", "Tensao_V", "1tensao", "_tensao", "tensao-v", "tensão_v", "tensao v"}
	for _, k := range invalid {
		if IsCanonicalKey(k) {
			t.Errorf("IsCanonicalKey(%q) = true, want false", k)
		}
	}
}

func TestNewProductDocumentDropsInvalidKeys(t *testing.T) {
	doc := NewProductDocument(StringPtr("Bateria"), nil, map[string]Attribute{
		"tensao_v":  {Value: 12.0},
		"Tensao-V!": {Value: 99.0},
	})
	if len(doc.Attributes) != 1 {
		t.Fatalf("attributes = %d, want 1", len(doc.Attributes))
	}
	if _, ok := doc.Attributes["tensao_v"]; !ok {
		t.Error("valid key should survive")
	}
}

func TestNewEditalDocumentDropsUnboundedRequirements(t *testing.T) {
	doc := NewEditalDocument("Item 1", nil, map[string]Requirement{
		"tensao_v":      {ValueMin: Float64Ptr(12)},
		"capacidade_ah": {}, // no bounds
		"Invalid Key":   {ValueMin: Float64Ptr(1)},
	})
	if len(doc.Requirements) != 1 {
		t.Fatalf("requirements = %d, want 1", len(doc.Requirements))
	}
	if _, ok := doc.Requirements["tensao_v"]; !ok {
		t.Error("bounded canonical requirement should survive")
	}
}

func TestRequirementIsMandatory(t *testing.T) {
	if !(Requirement{}).IsMandatory() {
		t.Error("nil Mandatory means mandatory")
	}
	if !(Requirement{Mandatory: BoolPtr(true)}).IsMandatory() {
		t.Error("explicit true is mandatory")
	}
	if (Requirement{Mandatory: BoolPtr(false)}).IsMandatory() {
		t.Error("explicit false is optional")
	}
}

func TestProductHint(t *testing.T) {
	tests := []struct {
		name string
		doc  *ProductDocument
		want string
	}{
		{"type and name", NewProductDocument(StringPtr("Bateria X"), StringPtr("bateria"), nil), "bateria Bateria X"},
		{"type only", NewProductDocument(nil, StringPtr("bateria"), nil), "bateria"},
		{"name only", NewProductDocument(StringPtr("Bateria X"), nil, nil), "Bateria X"},
		{"empty", NewProductDocument(nil, nil, nil), ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.doc.Hint(); got != tt.want {
				t.Errorf("Hint() = %q, want %q", got, tt.want)
			}
		})
	}
}
