package core

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	// ErrUnknownColumn is returned when an operation names a column the
	// working table does not have.
	ErrUnknownColumn = errors.New("column not found")

	// ErrRenameCollision is returned when two columns would share a name.
	ErrRenameCollision = errors.New("rename collision")
)

// CollisionError lists the target names claimed by more than one column.
type CollisionError struct {
	// Targets maps each contested name to the current names that chose it.
	Targets map[string][]string
}

func (e *CollisionError) Error() string {
	names := make([]string, 0, len(e.Targets))
	for target := range e.Targets {
		names = append(names, target)
	}
	sort.Strings(names)

	parts := make([]string, len(names))
	for i, target := range names {
		parts[i] = fmt.Sprintf("%q <- %s", target, strings.Join(quoteAll(e.Targets[target]), ", "))
	}
	return fmt.Sprintf("rename collision: %s", strings.Join(parts, "; "))
}

func (e *CollisionError) Unwrap() error { return ErrRenameCollision }

// ResolveRenames completes targets into a total function over the current
// column names: missing or blank entries map a column to itself. Targets are
// normalised with NormalizeName. The result is in column order.
func ResolveRenames(t *Table, targets map[string]string) ([]string, error) {
	for from := range targets {
		if t.Index(from) < 0 {
			return nil, fmt.Errorf("rename %q: %w", from, ErrUnknownColumn)
		}
	}

	resolved := make([]string, len(t.Columns))
	claims := make(map[string][]string, len(t.Columns))
	for i, c := range t.Columns {
		to := NormalizeName(targets[c.Name])
		if to == "" {
			to = c.Name
		}
		resolved[i] = to
		claims[to] = append(claims[to], c.Name)
	}

	collisions := make(map[string][]string)
	for to, from := range claims {
		if len(from) > 1 {
			collisions[to] = from
		}
	}
	if len(collisions) > 0 {
		return nil, &CollisionError{Targets: collisions}
	}
	return resolved, nil
}

// Rename returns a table with t's columns renamed; values are shared with t.
// On error t is returned unchanged alongside the error.
func Rename(t *Table, targets map[string]string) (*Table, error) {
	resolved, err := ResolveRenames(t, targets)
	if err != nil {
		return t, err
	}
	return renameTo(t, resolved), nil
}

// renameTo relabels t's columns positionally.
func renameTo(t *Table, names []string) *Table {
	out := &Table{Columns: make([]*Column, len(t.Columns))}
	for i, c := range t.Columns {
		out.Columns[i] = &Column{Name: names[i], Kind: c.Kind, Values: c.Values}
	}
	return out
}

func quoteAll(ss []string) []string {
	out := make([]string, len(ss))
	for i, s := range ss {
		out[i] = fmt.Sprintf("%q", s)
	}
	return out
}
