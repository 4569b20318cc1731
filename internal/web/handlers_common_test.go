package web

import (
	"errors"
	"reflect"
	"testing"

	"github.com/JonMunkholm/cleanlytics/internal/core"
)

func TestParseMappingForm(t *testing.T) {
	tests := []struct {
		name    string
		values  []string
		codes   []string
		want    core.Mapping
		wantErr bool
	}{
		{"numbers", []string{"red", "blue"}, []string{"1", " 2.5 "}, core.Mapping{"red": 1, "blue": 2.5}, false},
		{"blank code unmapped", []string{"red", "blue"}, []string{"-3", ""}, core.Mapping{"red": -3}, false},
		{"not a number", []string{"red"}, []string{"abc"}, nil, true},
		{"NaN", []string{"red"}, []string{"NaN"}, nil, true},
		{"positive infinity", []string{"red"}, []string{"+Inf"}, nil, true},
		{"negative infinity", []string{"red"}, []string{"-inf"}, nil, true},
		{"overflow", []string{"red"}, []string{"1e999"}, nil, true},
		{"length mismatch", []string{"red", "blue"}, []string{"1"}, nil, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseMappingForm(tt.values, tt.codes)
			if tt.wantErr {
				if !errors.Is(err, core.ErrInvalidCode) {
					t.Fatalf("error = %v, want ErrInvalidCode", err)
				}
				if msg := core.MapError(err); msg.Code != "MAP004" {
					t.Errorf("code = %s, want MAP004", msg.Code)
				}
				return
			}
			if err != nil {
				t.Fatalf("parseMappingForm() error = %v", err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("parseMappingForm() = %v, want %v", got, tt.want)
			}
		})
	}
}
