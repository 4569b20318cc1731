package core

import (
	"encoding/json"
	"testing"
)

func TestColumnKind_JSONRoundTrip(t *testing.T) {
	in := []ColumnInfo{
		{Name: "age", Kind: KindNumeric, Missing: 1, Distinct: 2},
		{Name: "color", Kind: KindCategorical, Distinct: 3},
	}
	data, err := json.Marshal(in)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}

	var out []ColumnInfo
	if err := json.Unmarshal(data, &out); err != nil {
		t.Fatalf("Unmarshal(%s) error = %v", data, err)
	}
	if len(out) != 2 || out[0] != in[0] || out[1] != in[1] {
		t.Errorf("round trip = %+v, want %+v", out, in)
	}
}

func TestColumnKind_UnmarshalText(t *testing.T) {
	tests := []struct {
		in      string
		want    ColumnKind
		wantErr bool
	}{
		{"numeric", KindNumeric, false},
		{"categorical", KindCategorical, false},
		{"text", KindCategorical, true},
	}
	for _, tt := range tests {
		var k ColumnKind
		err := k.UnmarshalText([]byte(tt.in))
		if (err != nil) != tt.wantErr {
			t.Errorf("UnmarshalText(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
		}
		if err == nil && k != tt.want {
			t.Errorf("UnmarshalText(%q) = %v, want %v", tt.in, k, tt.want)
		}
	}
}
