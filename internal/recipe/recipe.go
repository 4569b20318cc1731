// Package recipe replays a saved sequence of cleaning steps on a session.
//
// A recipe is a YAML document:
//
//	clean:
//	  remove_duplicates: true
//	  remove_incomplete_rows: false
//	rename:
//	  Color: colour
//	mappings:
//	  - column: colour
//	    codes: {red: 1, green: 2}
//
// Renames are keyed by the column names of the uploaded file. Mappings name
// columns after renaming and are applied in order.
package recipe

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/JonMunkholm/cleanlytics/internal/core"
	"gopkg.in/yaml.v3"
)

// ErrInvalid is wrapped by every decoding or validation failure.
var ErrInvalid = errors.New("invalid recipe")

// Recipe is a replayable description of a session's transformations.
type Recipe struct {
	Clean    core.CleanFlags   `yaml:"clean"`
	Rename   map[string]string `yaml:"rename,omitempty"`
	Mappings []Step            `yaml:"mappings,omitempty"`
}

// Step applies one categorical mapping.
type Step struct {
	Column string       `yaml:"column"`
	Codes  core.Mapping `yaml:"codes"`
}

// Parse decodes and validates a recipe. Unknown keys are rejected.
func Parse(data []byte) (*Recipe, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var r Recipe
	if err := dec.Decode(&r); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	if err := r.Validate(); err != nil {
		return nil, err
	}
	return &r, nil
}

// ReadFile parses the recipe stored at path.
func ReadFile(path string) (*Recipe, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read recipe: %w", err)
	}
	return Parse(data)
}

// Validate checks that every mapping names a column and has finite codes.
func (r *Recipe) Validate() error {
	for i, s := range r.Mappings {
		if s.Column == "" {
			return fmt.Errorf("%w: mapping %d has no column", ErrInvalid, i+1)
		}
		if len(s.Codes) == 0 {
			return fmt.Errorf("%w: mapping %q has no codes", ErrInvalid, s.Column)
		}
		if err := s.Codes.Validate(); err != nil {
			return fmt.Errorf("%w: mapping %q: %w", ErrInvalid, s.Column, err)
		}
	}
	return nil
}

// Marshal encodes the recipe as YAML.
func (r *Recipe) Marshal() ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(r); err != nil {
		return nil, fmt.Errorf("encode recipe: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Apply replays the recipe on a loaded session from its uploaded table:
// flags, then renames, then each mapping. Earlier renames and mappings on
// the session are replaced. If any step fails the session is unchanged.
func (r *Recipe) Apply(s *core.Session) ([]core.MappingStats, error) {
	steps := make([]core.MappingStep, len(r.Mappings))
	for i, m := range r.Mappings {
		steps[i] = core.MappingStep{Column: m.Column, Codes: m.Codes}
	}
	return s.Replay(r.Clean, r.Rename, steps)
}

// FromView captures a session's current transformations as a recipe.
// Renames are recovered positionally from the raw and working tables.
func FromView(v core.View) *Recipe {
	r := &Recipe{Clean: v.Flags}
	if !v.Loaded() {
		return r
	}

	for i, c := range v.Raw.Columns {
		if to := v.Working.Columns[i].Name; to != c.Name {
			if r.Rename == nil {
				r.Rename = make(map[string]string)
			}
			r.Rename[c.Name] = to
		}
	}
	for i, col := range v.Applied {
		r.Mappings = append(r.Mappings, Step{Column: col, Codes: v.AppliedCodes[i]})
	}
	return r
}
