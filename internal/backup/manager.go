// Package backup snapshots the record store to timestamped, tagged files
// and restores from them. Snapshots are immutable once written; pruning is
// by count, oldest first.
package backup

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/MowgiAU/fuiji-fruit-bot-redesign-sub000/internal/logging"
	"github.com/MowgiAU/fuiji-fruit-bot-redesign-sub000/internal/store"
	"github.com/MowgiAU/fuiji-fruit-bot-redesign-sub000/pkg/util"
)

const (
	TagManual     = "manual"
	TagPeriodic   = "periodic"
	TagDaily      = "daily"
	TagPreSave    = "pre-save"
	TagPreRestore = "pre-restore"
)

var (
	ErrSnapshotNotFound = errors.New("snapshot not found")
	ErrInvalidSnapshot  = errors.New("invalid snapshot")
	ErrBadSnapshotID    = errors.New("invalid snapshot id")
)

// Metadata describes one snapshot.
type Metadata struct {
	ID        string `json:"id"`
	Tag       string `json:"tag"`
	Reason    string `json:"reason"`
	CreatedAt int64  `json:"createdAt"` // unix millis
	Version   int    `json:"formatVersion"`
}

// Snapshot is the on-disk envelope: metadata plus the full record store
// document.
type Snapshot struct {
	Metadata Metadata        `json:"metadata"`
	Data     json.RawMessage `json:"data"`
}

type Manager struct {
	mu         sync.Mutex
	dir        string
	store      *store.Store
	maxBackups int
	now        func() time.Time
}

func NewManager(dir string, st *store.Store, maxBackups int) (*Manager, error) {
	if maxBackups <= 0 {
		maxBackups = 50
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create backup directory: %w", err)
	}
	return &Manager{
		dir:        dir,
		store:      st,
		maxBackups: maxBackups,
		now:        time.Now,
	}, nil
}

// Create snapshots the live record store under tag with reason and prunes
// old snapshots afterwards.
func (m *Manager) Create(tag, reason string) (*Metadata, error) {
	doc := m.store.Snapshot()
	data, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal record store: %w", err)
	}
	return m.write(tag, reason, data)
}

// CreatePreSave snapshots the bytes currently on disk at primaryPath. It
// runs from the store's pre-save hook, before the primary file is
// overwritten, and must not call back into the store.
func (m *Manager) CreatePreSave(primaryPath string) {
	data, err := os.ReadFile(primaryPath)
	if err != nil {
		// Nothing on disk yet: the first save has no state to protect
		if !os.IsNotExist(err) {
			logging.Warn("Backup: pre-save read of %s failed: %v", primaryPath, err)
		}
		return
	}
	if !json.Valid(data) {
		logging.Warn("Backup: pre-save skipped, current %s does not parse", primaryPath)
		return
	}
	if _, err := m.write(TagPreSave, "automatic snapshot before save", data); err != nil {
		logging.Warn("Backup: pre-save snapshot failed: %v", err)
	}
}

// List returns all snapshots, newest first.
func (m *Manager) List() ([]Metadata, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.listLocked()
}

// Restore replaces the live record store with snapshot id. Current state is
// snapshotted under pre-restore first; a failed restore leaves both the
// pre-restore snapshot and the live store intact.
func (m *Manager) Restore(id string) (*Metadata, error) {
	snap, err := m.Load(id)
	if err != nil {
		return nil, err
	}

	var doc store.Document
	if err := json.Unmarshal(snap.Data, &doc); err != nil {
		return nil, fmt.Errorf("%w: data does not parse: %v", ErrInvalidSnapshot, err)
	}
	if doc.Users == nil {
		return nil, fmt.Errorf("%w: missing users mapping", ErrInvalidSnapshot)
	}

	if _, err := m.Create(TagPreRestore, "automatic snapshot before restoring "+id); err != nil {
		return nil, fmt.Errorf("failed to create pre-restore backup: %w", err)
	}

	repairs, err := m.store.Replace(&doc)
	if err != nil {
		return nil, fmt.Errorf("restore failed, record store unchanged: %w", err)
	}
	if repairs > 0 {
		logging.Info("Backup: restore of %s repaired %d field(s)", id, repairs)
	}
	logging.Info("Backup: restored record store from %s", id)
	return &snap.Metadata, nil
}

// Load reads and parses snapshot id without touching the live store.
func (m *Manager) Load(id string) (*Snapshot, error) {
	if !validID(id) {
		return nil, fmt.Errorf("%w: %q", ErrBadSnapshotID, id)
	}

	data, err := os.ReadFile(filepath.Join(m.dir, id))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrSnapshotNotFound, id)
		}
		return nil, fmt.Errorf("failed to read snapshot: %w", err)
	}

	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSnapshot, err)
	}
	if len(snap.Data) == 0 {
		return nil, fmt.Errorf("%w: empty data section", ErrInvalidSnapshot)
	}
	return &snap, nil
}

func (m *Manager) write(tag, reason string, data json.RawMessage) (*Metadata, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	meta := Metadata{
		Tag:       tag,
		Reason:    reason,
		CreatedAt: now.UnixMilli(),
		Version:   store.FormatVersion,
	}

	// Snapshots are never overwritten; bump the suffix until the name is free
	base := fmt.Sprintf("%s-%s", tag, now.UTC().Format("20060102-150405.000"))
	name := base + ".json"
	for i := 1; ; i++ {
		if _, err := os.Stat(filepath.Join(m.dir, name)); os.IsNotExist(err) {
			break
		}
		name = fmt.Sprintf("%s-%d.json", base, i)
	}
	meta.ID = name

	payload, err := json.Marshal(Snapshot{Metadata: meta, Data: data})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal snapshot: %w", err)
	}
	if err := util.WriteFileAtomic(filepath.Join(m.dir, name), payload, 0644); err != nil {
		return nil, fmt.Errorf("failed to write snapshot: %w", err)
	}

	m.pruneLocked()
	return &meta, nil
}

func (m *Manager) listLocked() ([]Metadata, error) {
	entries, err := os.ReadDir(m.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read backup directory: %w", err)
	}

	metas := make([]Metadata, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		data, err := os.ReadFile(filepath.Join(m.dir, entry.Name()))
		if err != nil {
			logging.Warn("Backup: could not read %s while listing: %v", entry.Name(), err)
			continue
		}
		var snap Snapshot
		if err := json.Unmarshal(data, &snap); err != nil {
			logging.Warn("Backup: skipping unparseable snapshot %s: %v", entry.Name(), err)
			continue
		}
		snap.Metadata.ID = entry.Name()
		metas = append(metas, snap.Metadata)
	}

	sort.Slice(metas, func(i, j int) bool {
		if metas[i].CreatedAt != metas[j].CreatedAt {
			return metas[i].CreatedAt > metas[j].CreatedAt
		}
		return metas[i].ID > metas[j].ID
	})
	return metas, nil
}

// pruneLocked keeps the maxBackups newest snapshots. Deletion failures are
// logged, never fatal.
func (m *Manager) pruneLocked() {
	metas, err := m.listLocked()
	if err != nil {
		logging.Warn("Backup: prune skipped, listing failed: %v", err)
		return
	}
	if len(metas) <= m.maxBackups {
		return
	}
	for _, meta := range metas[m.maxBackups:] {
		if err := os.Remove(filepath.Join(m.dir, meta.ID)); err != nil && !os.IsNotExist(err) {
			logging.Warn("Backup: failed to prune %s: %v", meta.ID, err)
		}
	}
}

// validID rejects anything that could escape the backup directory.
func validID(id string) bool {
	if id == "" || !strings.HasSuffix(id, ".json") {
		return false
	}
	if strings.ContainsAny(id, "/\\") || strings.Contains(id, "..") {
		return false
	}
	return true
}
