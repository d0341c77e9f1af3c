// Package store persists fitted models and their metadata on disk, one
// artifact slot per entity key.
package store

import (
	"encoding/gob"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/allen-cinnamoroll/LTOWebsiteCapstone-sub000/model"
)

var (
	// ErrNotTrained means no artifact exists for the requested entity.
	ErrNotTrained = errors.New("no trained model for entity")
	// ErrCorruptArtifact means an artifact exists but cannot be decoded.
	ErrCorruptArtifact = errors.New("model artifact is corrupt")
)

// AggregateKey is the slot used when no entity key is given.
const AggregateKey = "aggregate"

// Metadata describes a persisted model. LastObservedDate is a pointer so
// artifacts written before the field existed still load; readers must
// fall back to LastBucketDate when it is nil.
type Metadata struct {
	ID          string `json:"id"`
	EntityKey   string `json:"entity_key"`
	Granularity string `json:"granularity"`

	Order  model.Order        `json:"order"`
	Search model.SearchResult `json:"search"`

	TrainMetrics    *model.Metrics     `json:"train_metrics,omitempty"`
	TestMetrics     *model.Metrics     `json:"test_metrics,omitempty"`
	Coverage        float64            `json:"interval_coverage"`
	Diagnostics     *model.Diagnostics `json:"diagnostics,omitempty"`
	CrossValidation *model.CVSummary   `json:"cross_validation,omitempty"`

	LastObservedDate *time.Time `json:"last_observed_date,omitempty"`
	LastBucketDate   time.Time  `json:"last_bucket_date"`

	TrainPeriods int       `json:"train_periods"`
	TestPeriods  int       `json:"test_periods"`
	TotalEvents  int       `json:"total_events"`
	TrainedAt    time.Time `json:"trained_at"`
}

// Store is a keyed artifact store backed by a directory. Writes are
// atomic: encode to a temp file, then rename into place.
type Store struct {
	dir string
	log *logrus.Entry

	mu sync.Mutex
}

// New opens a store rooted at dir, creating it if needed.
func New(dir string, log *logrus.Entry) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating store directory: %w", err)
	}
	return &Store{dir: dir, log: log}, nil
}

// NormalizeKey canonicalizes an entity key: lowercased, trimmed, inner
// whitespace collapsed to underscores. Empty keys map to the aggregate
// slot.
func NormalizeKey(key string) string {
	key = strings.ToLower(strings.TrimSpace(key))
	if key == "" {
		return AggregateKey
	}
	return strings.Join(strings.Fields(key), "_")
}

func (s *Store) modelPath(key string) string {
	return filepath.Join(s.dir, key+".model.gob")
}

func (s *Store) metaPath(key string) string {
	return filepath.Join(s.dir, key+".meta.json")
}

// Exists reports whether a trained artifact is present for the entity.
func (s *Store) Exists(key string) bool {
	key = NormalizeKey(key)
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := os.Stat(s.modelPath(key))
	return err == nil
}

// Save persists the fitted model and its metadata for the entity,
// replacing any previous artifact.
func (s *Store) Save(key string, m *model.SARIMAX, meta *Metadata) error {
	if m == nil || !m.Trained {
		return errors.New("refusing to save an unfitted model")
	}
	key = NormalizeKey(key)
	meta.EntityKey = key

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := atomicWrite(s.modelPath(key), func(f *os.File) error {
		return gob.NewEncoder(f).Encode(m)
	}); err != nil {
		return fmt.Errorf("writing model artifact: %w", err)
	}
	if err := atomicWrite(s.metaPath(key), func(f *os.File) error {
		enc := json.NewEncoder(f)
		enc.SetIndent("", "  ")
		return enc.Encode(meta)
	}); err != nil {
		return fmt.Errorf("writing model metadata: %w", err)
	}

	if s.log != nil {
		s.log.WithFields(logrus.Fields{
			"entity": key,
			"order":  meta.Order.String(),
		}).Info("model artifact saved")
	}
	return nil
}

// Load restores the fitted model and metadata for the entity.
func (s *Store) Load(key string) (*model.SARIMAX, *Metadata, error) {
	key = NormalizeKey(key)
	s.mu.Lock()
	defer s.mu.Unlock()

	mf, err := os.Open(s.modelPath(key))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil, fmt.Errorf("%w: %s", ErrNotTrained, key)
		}
		return nil, nil, err
	}
	defer mf.Close()

	var m model.SARIMAX
	if err := gob.NewDecoder(mf).Decode(&m); err != nil {
		return nil, nil, fmt.Errorf("%w: %s: %v", ErrCorruptArtifact, key, err)
	}
	if !m.Trained {
		return nil, nil, fmt.Errorf("%w: %s: artifact holds an unfitted model", ErrCorruptArtifact, key)
	}

	meta, err := s.readMeta(key)
	if err != nil {
		return nil, nil, err
	}
	if meta.LastObservedDate == nil && s.log != nil {
		s.log.WithField("entity", key).Warn("metadata predates last-observed date tracking")
	}
	return &m, meta, nil
}

func (s *Store) readMeta(key string) (*Metadata, error) {
	data, err := os.ReadFile(s.metaPath(key))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s: metadata missing", ErrCorruptArtifact, key)
		}
		return nil, err
	}
	var meta Metadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrCorruptArtifact, key, err)
	}
	return &meta, nil
}

// List returns metadata for every stored entity, sorted by the directory
// listing order.
func (s *Store) List() ([]*Metadata, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, err
	}
	var out []*Metadata
	for _, e := range entries {
		name := e.Name()
		if !strings.HasSuffix(name, ".meta.json") {
			continue
		}
		meta, err := s.readMeta(strings.TrimSuffix(name, ".meta.json"))
		if err != nil {
			if s.log != nil {
				s.log.WithFields(logrus.Fields{"file": name, "error": err.Error()}).Warn("skipping unreadable metadata")
			}
			continue
		}
		out = append(out, meta)
	}
	return out, nil
}

// Delete removes the entity's artifact and metadata. Deleting a missing
// entity returns ErrNotTrained.
func (s *Store) Delete(key string) error {
	key = NormalizeKey(key)
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := os.Stat(s.modelPath(key)); os.IsNotExist(err) {
		return fmt.Errorf("%w: %s", ErrNotTrained, key)
	}
	if err := os.Remove(s.modelPath(key)); err != nil {
		return err
	}
	if err := os.Remove(s.metaPath(key)); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// atomicWrite encodes into a temp file in the target directory and
// renames it over the destination so readers never see a partial write.
func atomicWrite(path string, write func(*os.File) error) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if err := write(tmp); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}
