package core

import (
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"sync"
	"sync/atomic"
	"time"

	"github.com/JonMunkholm/cleanlytics/internal/metrics"
)

var (
	// ErrNoDataset is returned by transitions attempted before an upload.
	ErrNoDataset = errors.New("no dataset uploaded")

	// ErrNoMapping is returned when a mapping is applied without codes.
	ErrNoMapping = errors.New("no mapping declared for column")
)

// appliedMapping records a confirmed mapping by column position so it can
// be replayed when the cleaning flags change.
type appliedMapping struct {
	index int
	codes Mapping
}

// Session owns one user's raw table and the transformations applied to it.
//
// The working table is always clean(raw, flags) followed by the committed
// renames and then the applied mappings in order. Tables are never mutated
// once built, so a View taken under the lock stays valid after it is
// released.
type Session struct {
	ID        string
	CreatedAt time.Time

	lastSeen atomic.Int64 // unix nanoseconds

	mu         sync.Mutex
	fileName   string
	raw        *Table
	flags      CleanFlags
	cleanStats CleanStats
	names      []string // committed column names by position; nil keeps ingestion names
	pending    map[int]Mapping
	applied    []appliedMapping
	working    *Table
}

// NewSession returns an empty session.
func NewSession(id string, now time.Time) *Session {
	s := &Session{
		ID:        id,
		CreatedAt: now,
		pending:   make(map[int]Mapping),
	}
	s.touch(now)
	return s
}

// View is a consistent snapshot of a session.
type View struct {
	ID         string             `json:"session_id"`
	FileName   string             `json:"file_name"`
	Raw        *Table             `json:"-"`
	Working    *Table             `json:"-"`
	Flags      CleanFlags         `json:"flags"`
	CleanStats CleanStats         `json:"clean_stats"`
	Pending    map[string]Mapping `json:"pending_mappings"`
	Applied    []string           `json:"applied_mappings"`
	// AppliedCodes holds the codes of each entry of Applied.
	AppliedCodes []Mapping `json:"-"`
}

// Loaded reports whether the view holds a dataset.
func (v View) Loaded() bool {
	return v.Working != nil
}

// Load replaces the session's dataset. Flags, renames and mappings are reset
// and the working table starts as a full copy of t.
func (s *Session) Load(t *Table, fileName string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.fileName = fileName
	s.raw = t
	s.flags = CleanFlags{}
	s.names = nil
	s.pending = make(map[int]Mapping)
	s.applied = nil
	s.working, s.cleanStats = Clean(t, s.flags)

	slog.Info("dataset loaded",
		"session_id", s.ID,
		"file", fileName,
		"rows", t.NumRows(),
		"columns", t.NumCols(),
	)
}

// SetFlags re-evaluates the pipeline with new cleaning flags.
func (s *Session) SetFlags(flags CleanFlags) (CleanStats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.raw == nil {
		return CleanStats{}, ErrNoDataset
	}
	if flags == s.flags {
		return s.cleanStats, nil
	}

	start := time.Now()
	working, stats, err := s.rebuild(flags)
	metrics.RecordStep("clean", err, time.Since(start))
	if err != nil {
		return s.cleanStats, err
	}
	metrics.RecordRows("duplicate", stats.DuplicatesDropped)
	metrics.RecordRows("incomplete", stats.IncompleteDropped)

	s.flags, s.cleanStats, s.working = flags, stats, working

	slog.Debug("cleaning flags changed",
		"session_id", s.ID,
		"remove_duplicates", flags.RemoveDuplicates,
		"remove_incomplete_rows", flags.RemoveIncomplete,
		"rows_out", stats.RowsOut,
	)
	return stats, nil
}

// Rename commits new column names. targets is keyed by current name; absent
// or blank entries keep the current name. On error nothing changes.
func (s *Session) Rename(targets map[string]string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.raw == nil {
		return ErrNoDataset
	}

	start := time.Now()
	names, err := ResolveRenames(s.working, targets)
	metrics.RecordStep("rename", err, time.Since(start))
	if err != nil {
		return err
	}

	s.working = renameTo(s.working, names)
	s.names = names
	return nil
}

// DistinctValues lists the values of a categorical working column.
func (s *Session) DistinctValues(column string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.raw == nil {
		return nil, ErrNoDataset
	}
	return DistinctValues(s.working, column)
}

// DeclareMapping stores codes as the pending mapping of column without
// touching the table.
func (s *Session) DeclareMapping(column string, codes Mapping) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx, err := s.categoricalIndex(column)
	if err != nil {
		return err
	}
	if err := codes.Validate(); err != nil {
		return err
	}
	s.pending[idx] = maps.Clone(codes)
	return nil
}

// DiscardMapping drops the pending mapping of column, if any.
func (s *Session) DiscardMapping(column string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.raw == nil {
		return ErrNoDataset
	}
	idx := s.working.Index(column)
	if idx < 0 {
		return fmt.Errorf("%q: %w", column, ErrUnknownColumn)
	}
	delete(s.pending, idx)
	return nil
}

// ApplyMapping materialises a mapping on column. When codes is nil the
// pending mapping is used. Other columns' pending mappings are kept. A column
// without values is left unchanged and reported through stats.EmptyDomain.
func (s *Session) ApplyMapping(column string, codes Mapping) (MappingStats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	start := time.Now()
	stats, err := s.applyMapping(column, codes)
	metrics.RecordStep("map", err, time.Since(start))
	return stats, err
}

func (s *Session) applyMapping(column string, codes Mapping) (MappingStats, error) {
	idx, err := s.categoricalIndex(column)
	if err != nil {
		return MappingStats{Column: column}, err
	}

	if codes == nil {
		var ok bool
		if codes, ok = s.pending[idx]; !ok {
			return MappingStats{Column: column}, fmt.Errorf("%q: %w", column, ErrNoMapping)
		}
	}
	codes = maps.Clone(codes)

	out, stats, err := mapColumn(s.working, idx, codes)
	if err != nil {
		return stats, err
	}
	delete(s.pending, idx)
	if stats.EmptyDomain {
		return stats, nil
	}

	s.working = out
	s.applied = append(s.applied, appliedMapping{index: idx, codes: codes})

	slog.Debug("mapping applied",
		"session_id", s.ID,
		"column", column,
		"mapped", stats.Mapped,
		"unmapped", stats.Unmapped,
	)
	return stats, nil
}

func (s *Session) categoricalIndex(column string) (int, error) {
	if s.raw == nil {
		return -1, ErrNoDataset
	}
	idx := s.working.Index(column)
	if idx < 0 {
		return -1, fmt.Errorf("%q: %w", column, ErrUnknownColumn)
	}
	if s.working.Columns[idx].Kind != KindCategorical {
		return -1, fmt.Errorf("%q: %w", column, ErrNotCategorical)
	}
	return idx, nil
}

// MappingStep is one mapping of a replayed sequence.
type MappingStep struct {
	Column string
	Codes  Mapping
}

// Replay replaces the session's transformations with flags, renames and
// steps, evaluated from the raw table. renames is keyed by the column names
// of the upload and steps name columns after renaming. Either every step
// succeeds and the result is committed, or the session is left unchanged.
// Pending mappings survive except on columns a step maps.
func (s *Session) Replay(flags CleanFlags, renames map[string]string, steps []MappingStep) ([]MappingStats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.raw == nil {
		return nil, ErrNoDataset
	}

	start := time.Now()
	working, cleanStats, names, applied, stats, err := s.replay(flags, renames, steps)
	metrics.RecordStep("replay", err, time.Since(start))
	if err != nil {
		return nil, err
	}
	metrics.RecordRows("duplicate", cleanStats.DuplicatesDropped)
	metrics.RecordRows("incomplete", cleanStats.IncompleteDropped)

	for _, am := range applied {
		delete(s.pending, am.index)
	}
	s.flags, s.cleanStats, s.names, s.applied, s.working = flags, cleanStats, names, applied, working

	slog.Debug("transformations replayed",
		"session_id", s.ID,
		"renamed", len(renames),
		"mappings", len(applied),
	)
	return stats, nil
}

func (s *Session) replay(flags CleanFlags, renames map[string]string, steps []MappingStep) (*Table, CleanStats, []string, []appliedMapping, []MappingStats, error) {
	t, cleanStats := Clean(s.raw, flags)

	var names []string
	if len(renames) > 0 {
		var err error
		if names, err = ResolveRenames(t, renames); err != nil {
			return nil, cleanStats, nil, nil, nil, fmt.Errorf("rename: %w", err)
		}
		t = renameTo(t, names)
	}

	var applied []appliedMapping
	stats := make([]MappingStats, 0, len(steps))
	for _, step := range steps {
		idx := t.Index(step.Column)
		if idx < 0 {
			return nil, cleanStats, nil, nil, nil, fmt.Errorf("mapping %q: %w", step.Column, ErrUnknownColumn)
		}
		out, st, err := mapColumn(t, idx, step.Codes)
		if err != nil {
			return nil, cleanStats, nil, nil, nil, fmt.Errorf("mapping %q: %w", step.Column, err)
		}
		stats = append(stats, st)
		if st.EmptyDomain {
			continue
		}
		t = out
		applied = append(applied, appliedMapping{index: idx, codes: maps.Clone(step.Codes)})
	}
	return t, cleanStats, names, applied, stats, nil
}

// rebuild evaluates clean(raw, flags), then renames, then the mapping
// journal.
func (s *Session) rebuild(flags CleanFlags) (*Table, CleanStats, error) {
	t, stats := Clean(s.raw, flags)
	if s.names != nil {
		t = renameTo(t, s.names)
	}
	for _, am := range s.applied {
		var err error
		if t, _, err = mapColumn(t, am.index, am.codes); err != nil {
			return nil, stats, fmt.Errorf("replay mapping: %w", err)
		}
	}
	return t, stats, nil
}

// Snapshot returns the current state of the session.
func (s *Session) Snapshot() View {
	s.mu.Lock()
	defer s.mu.Unlock()

	v := View{
		ID:         s.ID,
		FileName:   s.fileName,
		Raw:        s.raw,
		Working:    s.working,
		Flags:      s.flags,
		CleanStats: s.cleanStats,
		Pending:    make(map[string]Mapping, len(s.pending)),
	}
	if s.working == nil {
		return v
	}
	for idx, m := range s.pending {
		v.Pending[s.working.Columns[idx].Name] = maps.Clone(m)
	}
	for _, am := range s.applied {
		v.Applied = append(v.Applied, s.working.Columns[am.index].Name)
		v.AppliedCodes = append(v.AppliedCodes, maps.Clone(am.codes))
	}
	return v
}

// Working returns the current working table, or ErrNoDataset.
func (s *Session) Working() (*Table, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.working == nil {
		return nil, ErrNoDataset
	}
	return s.working, nil
}

func (s *Session) touch(now time.Time) {
	s.lastSeen.Store(now.UnixNano())
}

func (s *Session) idleSince() time.Time {
	return time.Unix(0, s.lastSeen.Load())
}
