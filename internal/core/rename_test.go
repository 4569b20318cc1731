package core

import (
	"errors"
	"reflect"
	"strings"
	"testing"
)

func TestRename(t *testing.T) {
	tests := []struct {
		name    string
		targets map[string]string
		want    []string
	}{
		{"nil targets is identity", nil, []string{"name", "age", "city"}},
		{"explicit identity", map[string]string{"name": "name", "age": "age", "city": "city"}, []string{"name", "age", "city"}},
		{"single rename", map[string]string{"age": "years"}, []string{"name", "years", "city"}},
		{"blank target keeps name", map[string]string{"age": "   "}, []string{"name", "age", "city"}},
		{"targets are trimmed", map[string]string{"city": "  town "}, []string{"name", "age", "town"}},
		{"swap", map[string]string{"name": "city", "city": "name"}, []string{"city", "age", "name"}},
		{"case differs is no collision", map[string]string{"age": "Name"}, []string{"name", "Name", "city"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tbl := mustParse(t, "name,age,city\nAlice,30,Oslo\n")
			out, err := Rename(tbl, tt.targets)
			if err != nil {
				t.Fatalf("Rename() error = %v", err)
			}
			if got := out.Names(); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Names() = %v, want %v", got, tt.want)
			}
			for i := range tbl.Columns {
				if !reflect.DeepEqual(out.Columns[i].Values, tbl.Columns[i].Values) {
					t.Errorf("column %d values changed", i)
				}
				if out.Columns[i].Kind != tbl.Columns[i].Kind {
					t.Errorf("column %d kind changed", i)
				}
			}
			if got := tbl.Names(); !reflect.DeepEqual(got, []string{"name", "age", "city"}) {
				t.Errorf("input renamed in place: %v", got)
			}
		})
	}
}

func TestRename_Collision(t *testing.T) {
	tests := []struct {
		name        string
		targets     map[string]string
		wantTargets []string
	}{
		{"two onto a new name", map[string]string{"a": "x", "b": "x"}, []string{"x"}},
		{"onto an untouched column", map[string]string{"a": "c"}, []string{"c"}},
		{"normalised names collide", map[string]string{"a": "caf\u00e9", "b": "cafe\u0301 "}, []string{"caf\u00e9"}},
		{"every collision is listed", map[string]string{"a": "x", "b": "x", "c": "y", "d": "y"}, []string{"x", "y"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tbl := mustParse(t, "a,b,c,d\n1,2,3,4\n")
			out, err := Rename(tbl, tt.targets)

			if !errors.Is(err, ErrRenameCollision) {
				t.Fatalf("error = %v, want ErrRenameCollision", err)
			}
			var ce *CollisionError
			if !errors.As(err, &ce) {
				t.Fatalf("error %T is not *CollisionError", err)
			}
			for _, target := range tt.wantTargets {
				if len(ce.Targets[target]) < 2 {
					t.Errorf("Targets[%q] = %v, want at least two sources", target, ce.Targets[target])
				}
				if !strings.Contains(err.Error(), target) {
					t.Errorf("message %q does not name %q", err, target)
				}
			}
			if out != tbl {
				t.Error("Rename must return the input table on collision")
			}
			if got := tbl.Names(); !reflect.DeepEqual(got, []string{"a", "b", "c", "d"}) {
				t.Errorf("names changed on collision: %v", got)
			}
		})
	}
}

func TestRename_UnknownColumn(t *testing.T) {
	tbl := mustParse(t, "a,b\n1,2\n")
	_, err := Rename(tbl, map[string]string{"zzz": "y"})
	if !errors.Is(err, ErrUnknownColumn) {
		t.Errorf("error = %v, want ErrUnknownColumn", err)
	}
}
