package core

import "testing"

func TestIsKeyColumn(t *testing.T) {
	tests := []struct {
		name string
		want bool
	}{
		{"id", true},
		{"ID", true},
		{"key", true},
		{"customer_id", true},
		{"order_key", true},
		{"customerId", true},
		{"productID", true},
		{"accountKey", true},
		{"valid", false},
		{"keyboard", false},
		{"idea", false},
		{"name", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := IsKeyColumn(tt.name); got != tt.want {
			t.Errorf("IsKeyColumn(%q) = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestIsPIIColumn(t *testing.T) {
	tests := []struct {
		name string
		want bool
	}{
		{"email", true},
		{"Work_Email", true},
		{"phone_number", true},
		{"ssn", true},
		{"gdpr_consent", true},
		{"name", false},
		{"amount", false},
	}
	for _, tt := range tests {
		if got := IsPIIColumn(tt.name); got != tt.want {
			t.Errorf("IsPIIColumn(%q) = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestIsAmountColumn(t *testing.T) {
	tests := []struct {
		name string
		want bool
	}{
		{"price", true},
		{"unit_cost", true},
		{"TotalAmount", true},
		{"qty", true},
		{"age", true},
		{"temperature", false},
		{"delta", false},
	}
	for _, tt := range tests {
		if got := IsAmountColumn(tt.name); got != tt.want {
			t.Errorf("IsAmountColumn(%q) = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestIsIdentifierColumn(t *testing.T) {
	for _, name := range []string{"id", "UUID", " sku ", "code", "key"} {
		if !IsIdentifierColumn(name) {
			t.Errorf("IsIdentifierColumn(%q) = false, want true", name)
		}
	}
	for _, name := range []string{"customer_id", "identifier", ""} {
		if IsIdentifierColumn(name) {
			t.Errorf("IsIdentifierColumn(%q) = true, want false", name)
		}
	}
}

func TestForeignKeyEntity(t *testing.T) {
	tests := []struct {
		name       string
		wantEntity string
		wantOK     bool
	}{
		{"customer_id", "customer", true},
		{"productId", "product", true},
		{"orderID", "order", true},
		{"orderid", "order", true},
		{"id", "", false},
		{"uuid", "", false},
		{"_id", "", false},
		{"1_id", "", false},
		{"paid", "", false},
		{"name", "", false},
	}
	for _, tt := range tests {
		got, ok := ForeignKeyEntity(tt.name)
		if ok != tt.wantOK || got != tt.wantEntity {
			t.Errorf("ForeignKeyEntity(%q) = (%q, %v), want (%q, %v)", tt.name, got, ok, tt.wantEntity, tt.wantOK)
		}
	}
}

func TestIsNumericNamedColumn(t *testing.T) {
	tests := []struct {
		name string
		want bool
	}{
		{"quantity", true},
		{"order_number", true},
		{"item_count", true},
		{"unit_price", true},
		{"customer_id", true},
		{"id", true},
		{"name", false},
		{"valid", false},
		{"provider", false},
	}
	for _, tt := range tests {
		if got := IsNumericNamedColumn(tt.name); got != tt.want {
			t.Errorf("IsNumericNamedColumn(%q) = %v, want %v", tt.name, got, tt.want)
		}
	}
}
