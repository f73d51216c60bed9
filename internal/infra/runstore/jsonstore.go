package runstore

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/renameio/v2"
	"github.com/google/uuid"

	"github.com/deshima-dev/desim/internal/domain"
	"github.com/deshima-dev/desim/internal/ports"
)

const (
	defaultRunsDir = "runs"
	indexFile      = "index.jsonl"
	minIDPrefix    = 8
)

type JSONStore struct {
	rootDir     string
	runsDirName string
	now         func() time.Time
	newID       func() string
}

type Option func(*JSONStore)

// WithNow is useful for tests.
func WithNow(now func() time.Time) Option {
	return func(s *JSONStore) { s.now = now }
}

// WithIDs replaces the UUID generator.
func WithIDs(gen func() string) Option {
	return func(s *JSONStore) { s.newID = gen }
}

func NewJSONStore(root string, cfg domain.Config, opts ...Option) *JSONStore {
	runsDir := cfg.Paths.RunsDir
	if strings.TrimSpace(runsDir) == "" {
		runsDir = defaultRunsDir
	}

	s := &JSONStore{
		rootDir:     root,
		runsDirName: runsDir,
		now:         time.Now,
		newID:       func() string { return uuid.NewString() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

var _ ports.ArtifactStore = (*JSONStore)(nil)

func (s *JSONStore) dir() string {
	if filepath.IsAbs(s.runsDirName) {
		return s.runsDirName
	}
	return filepath.Join(s.rootDir, s.runsDirName)
}

// SaveRun writes runs/<UTC ts>_<slug>_<short id>.json atomically and
// appends the run to runs/index.jsonl. The artifact keeps its ID when set.
func (s *JSONStore) SaveRun(run domain.RunArtifact) (string, error) {
	dir := s.dir()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", &domain.OpError{
			Op:   "runstore.mkdir",
			Kind: domain.KindExecution,
			Path: dir,
			Err:  err,
		}
	}

	toSave := run
	if strings.TrimSpace(toSave.ID) == "" {
		toSave.ID = s.newID()
	}
	if toSave.StartedAt.IsZero() {
		toSave.StartedAt = s.now()
	}
	ts := toSave.StartedAt.UTC()

	namePart := run.InstrumentName
	if strings.TrimSpace(namePart) == "" {
		namePart = strings.TrimSuffix(filepath.Base(run.InstrumentPath), filepath.Ext(run.InstrumentPath))
	}
	slug := slugify(namePart)
	if slug == "" {
		slug = "run"
	}

	short := strings.ReplaceAll(toSave.ID, "-", "")
	if len(short) > minIDPrefix {
		short = short[:minIDPrefix]
	}
	filename := fmt.Sprintf("%s_%s_%s.json", ts.Format("20060102T150405Z"), slug, slugify(short))
	path := filepath.Join(dir, filename)

	b, err := json.MarshalIndent(toSave, "", "  ")
	if err != nil {
		return "", &domain.OpError{
			Op:   "runstore.marshal",
			Kind: domain.KindExecution,
			Path: path,
			Err:  err,
		}
	}

	if err := renameio.WriteFile(path, append(b, '\n'), 0o644); err != nil {
		return "", &domain.OpError{
			Op:   "runstore.write",
			Kind: domain.KindExecution,
			Path: path,
			Err:  err,
		}
	}

	ref := domain.RunRef{
		ID:         toSave.ID,
		File:       filename,
		Instrument: toSave.InstrumentName,
		Conditions: toSave.ConditionsName,
		Points:     len(toSave.Table.Rows),
		StartedAt:  toSave.StartedAt,
	}
	if err := appendIndex(dir, ref); err != nil {
		return toSave.ID, &domain.OpError{
			Op:   "runstore.index",
			Kind: domain.KindExecution,
			Path: filepath.Join(dir, indexFile),
			Err:  err,
		}
	}

	return toSave.ID, nil
}

func appendIndex(dir string, ref domain.RunRef) error {
	line, err := json.Marshal(ref)
	if err != nil {
		return err
	}

	f, err := os.OpenFile(filepath.Join(dir, indexFile), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()

	_, err = f.Write(append(line, '\n'))
	return err
}

// ListRuns returns the indexed runs, newest first. Malformed index lines
// and entries whose file is gone are skipped.
func (s *JSONStore) ListRuns() ([]domain.RunRef, error) {
	dir := s.dir()
	f, err := os.Open(filepath.Join(dir, indexFile))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return []domain.RunRef{}, nil
		}
		return nil, &domain.OpError{
			Op:   "runstore.list",
			Kind: domain.KindExecution,
			Path: filepath.Join(dir, indexFile),
			Err:  err,
		}
	}
	defer f.Close()

	refs := []domain.RunRef{}
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		var ref domain.RunRef
		if err := json.Unmarshal([]byte(line), &ref); err != nil || ref.ID == "" {
			continue
		}
		if _, err := os.Stat(filepath.Join(dir, ref.File)); err != nil {
			continue
		}
		refs = append(refs, ref)
	}
	if err := sc.Err(); err != nil {
		return nil, &domain.OpError{
			Op:   "runstore.list",
			Kind: domain.KindExecution,
			Path: filepath.Join(dir, indexFile),
			Err:  err,
		}
	}

	sort.SliceStable(refs, func(i, j int) bool { return refs[i].StartedAt.After(refs[j].StartedAt) })
	return refs, nil
}

// LoadRun accepts a full run ID, a unique ID prefix of at least 8
// characters, or the file name (with or without .json).
func (s *JSONStore) LoadRun(id string) (domain.RunArtifact, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return domain.RunArtifact{}, notFound("runstore.load", "", fmt.Errorf("empty run id: %w", domain.ErrNotFound))
	}

	refs, err := s.ListRuns()
	if err != nil {
		return domain.RunArtifact{}, err
	}

	file, err := match(refs, id)
	if err != nil {
		return domain.RunArtifact{}, err
	}
	if file == "" {
		// not indexed: treat id as a file stem
		file = strings.TrimSuffix(filepath.Base(id), ".json") + ".json"
	}

	path := filepath.Join(s.dir(), file)
	b, err := os.ReadFile(path)
	if err != nil {
		return domain.RunArtifact{}, notFound("runstore.load", path, fmt.Errorf("run %q: %w", id, domain.ErrNotFound))
	}

	var run domain.RunArtifact
	if err := json.Unmarshal(b, &run); err != nil {
		return domain.RunArtifact{}, &domain.OpError{
			Op:   "runstore.load",
			Kind: domain.KindInvalidConfig,
			Path: path,
			Err:  err,
		}
	}
	return run, nil
}

// RawRun returns the stored JSON document of a run.
func (s *JSONStore) RawRun(id string) ([]byte, error) {
	run, err := s.LoadRun(id)
	if err != nil {
		return nil, err
	}
	return json.Marshal(run)
}

func match(refs []domain.RunRef, id string) (string, error) {
	stem := strings.TrimSuffix(id, ".json")

	var hits []domain.RunRef
	for _, r := range refs {
		switch {
		case r.ID == id || strings.TrimSuffix(r.File, ".json") == stem:
			return r.File, nil
		case len(id) >= minIDPrefix && strings.HasPrefix(r.ID, id):
			hits = append(hits, r)
		}
	}

	switch len(hits) {
	case 0:
		return "", nil
	case 1:
		return hits[0].File, nil
	default:
		return "", &domain.OpError{
			Op:   "runstore.load",
			Kind: domain.KindInvalidConfig,
			Err:  fmt.Errorf("run id prefix %q matches %d runs: %w", id, len(hits), domain.ErrInvalidConfig),
		}
	}
}

func notFound(op, path string, err error) error {
	return &domain.OpError{Op: op, Kind: domain.KindNotFound, Path: path, Err: err}
}

// slugify produces a safe filename component.
func slugify(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return ""
	}

	var b strings.Builder
	b.Grow(len(s))

	lastDash := false
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastDash = false
		default:
			if !lastDash {
				b.WriteByte('-')
				lastDash = true
			}
		}
	}

	return strings.Trim(b.String(), "-")
}
