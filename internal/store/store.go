// Package store owns persistence of per-(user, guild) XP records. All
// mutations go through one store-level lock so concurrent grants can never
// erase each other's writes; reads copy under a shared lock.
package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/MowgiAU/fuiji-fruit-bot-redesign-sub000/internal/logging"
	"github.com/MowgiAU/fuiji-fruit-bot-redesign-sub000/pkg/util"
)

const FormatVersion = 1

var (
	ErrSaveFailed    = errors.New("store save failed")
	ErrNotFound      = errors.New("record not found")
	ErrInvalidRecord = errors.New("invalid record data")
)

// Record is one user's counters within one guild. Level is derived from XP
// and recomputed on every committed mutation.
type Record struct {
	XP                   int64 `json:"xp"`
	Level                int   `json:"level"`
	LastMessageTimestamp int64 `json:"lastMessageTimestamp"` // unix millis
	VoiceMinutes         int64 `json:"voiceMinutes"`
	ReactionsGiven       int64 `json:"reactionsGiven"`
	ReactionsReceived    int64 `json:"reactionsReceived"`
}

// Document is the full persisted store: users -> guilds -> record.
type Document struct {
	Version int                           `json:"version"`
	Users   map[string]map[string]*Record `json:"users"`
}

func NewDocument() *Document {
	return &Document{
		Version: FormatVersion,
		Users:   make(map[string]map[string]*Record),
	}
}

type Store struct {
	mu         sync.RWMutex
	path       string
	doc        *Document
	retries    int
	retryDelay time.Duration

	// preSave runs before every overwrite of the primary file, while the
	// previous state is still on disk.
	preSave func(primaryPath string)
}

// Open loads the store from path. A missing file starts empty; a corrupt
// file is moved aside and the store starts empty rather than crashing.
func Open(path string) (*Store, error) {
	s := &Store{
		path:       path,
		doc:        NewDocument(),
		retries:    3,
		retryDelay: 50 * time.Millisecond,
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			logging.Info("Record store: no existing data at %s, starting empty", path)
			return s, nil
		}
		return nil, fmt.Errorf("failed to read record store: %w", err)
	}

	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		aside := fmt.Sprintf("%s.corrupt-%d", path, time.Now().Unix())
		if renameErr := os.Rename(path, aside); renameErr != nil {
			logging.Error("Record store: corrupt data file could not be moved aside: %v", renameErr)
		} else {
			logging.Error("Record store: CORRUPT data file at %s, moved to %s, starting empty: %v", path, aside, err)
		}
		return s, nil
	}

	if doc.Users == nil {
		doc.Users = make(map[string]map[string]*Record)
	}
	doc.Version = FormatVersion
	s.doc = &doc

	repairs := repairDocument(s.doc)
	if repairs > 0 {
		logging.Warn("Record store: repaired %d field(s) while loading %s", repairs, path)
	}

	logging.Info("Record store: loaded %d user(s) from %s", len(doc.Users), path)
	return s, nil
}

// SetRetryPolicy overrides the save retry count and delay.
func (s *Store) SetRetryPolicy(retries int, delay time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if retries > 0 {
		s.retries = retries
	}
	if delay > 0 {
		s.retryDelay = delay
	}
}

// SetPreSaveHook registers a callback invoked before each primary-file
// overwrite. The hook must not call back into the store.
func (s *Store) SetPreSaveHook(hook func(primaryPath string)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.preSave = hook
}

// Path returns the primary file path.
func (s *Store) Path() string {
	return s.path
}

// Get returns a copy of the record for (userID, guildID).
func (s *Store) Get(userID, guildID string) (Record, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	guilds, ok := s.doc.Users[userID]
	if !ok {
		return Record{}, false
	}
	rec, ok := guilds[guildID]
	if !ok || rec == nil {
		return Record{}, false
	}
	return *rec, true
}

// Update runs fn on the (lazily created) record for (userID, guildID) and
// persists the result. The whole read-modify-write-persist cycle holds the
// store lock, so concurrent updates are linearized. If the save fails after
// retries the in-memory mutation is rolled back and the error returned.
func (s *Store) Update(userID, guildID string, fn func(*Record)) (Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	guilds, ok := s.doc.Users[userID]
	if !ok {
		guilds = make(map[string]*Record)
		s.doc.Users[userID] = guilds
	}
	prev, existed := guilds[guildID]

	var work Record
	if existed && prev != nil {
		work = *prev
	}
	fn(&work)
	guilds[guildID] = &work

	if err := s.saveLocked(); err != nil {
		// Roll back so memory and disk never diverge
		if existed {
			guilds[guildID] = prev
		} else {
			delete(guilds, guildID)
			if len(guilds) == 0 {
				delete(s.doc.Users, userID)
			}
		}
		return Record{}, err
	}
	return work, nil
}

// GuildRecords returns a copy of every record in guildID keyed by userID.
func (s *Store) GuildRecords(guildID string) map[string]Record {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[string]Record)
	for userID, guilds := range s.doc.Users {
		if rec, ok := guilds[guildID]; ok && rec != nil {
			out[userID] = *rec
		}
	}
	return out
}

// Snapshot returns a deep copy of the whole document.
func (s *Store) Snapshot() *Document {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneDocument(s.doc)
}

// Replace swaps in doc wholesale (used by restore), repairing it first and
// persisting atomically. On save failure the previous state is kept.
func (s *Store) Replace(doc *Document) (int, error) {
	if doc == nil || doc.Users == nil {
		return 0, ErrInvalidRecord
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	clone := cloneDocument(doc)
	clone.Version = FormatVersion
	repairs := repairDocument(clone)

	prev := s.doc
	s.doc = clone
	if err := s.saveLocked(); err != nil {
		s.doc = prev
		return 0, err
	}
	return repairs, nil
}

// Repair runs the validation/sync pass on the live document and persists it
// when anything changed. Safe to run at any time; running it twice in a row
// changes nothing the second time.
func (s *Store) Repair() (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	repairs := repairDocument(s.doc)
	if repairs == 0 {
		return 0, nil
	}
	if err := s.saveLocked(); err != nil {
		return repairs, err
	}
	return repairs, nil
}

// Save persists the current document unconditionally.
func (s *Store) Save() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saveLocked()
}

// UserCount returns how many users have at least one record.
func (s *Store) UserCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.doc.Users)
}

// saveLocked serializes the document and writes it with the
// write-temp / verify / atomic-rename discipline, retrying transient
// failures a bounded number of times. Caller must hold mu.
func (s *Store) saveLocked() error {
	data, err := json.MarshalIndent(s.doc, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal record store: %w", err)
	}

	// Verify the bytes parse back before they replace the primary file
	var check Document
	if err := json.Unmarshal(data, &check); err != nil || check.Users == nil {
		return fmt.Errorf("%w: serialized document failed verification", ErrSaveFailed)
	}

	if s.preSave != nil {
		s.preSave(s.path)
	}

	var lastErr error
	for attempt := 0; attempt < s.retries; attempt++ {
		if attempt > 0 {
			time.Sleep(s.retryDelay)
		}
		if lastErr = util.WriteFileAtomic(s.path, data, 0644); lastErr == nil {
			return nil
		}
		logging.Warn("Record store: save attempt %d/%d failed: %v", attempt+1, s.retries, lastErr)
	}
	return fmt.Errorf("%w after %d attempts: %v", ErrSaveFailed, s.retries, lastErr)
}

func cloneDocument(doc *Document) *Document {
	out := &Document{
		Version: doc.Version,
		Users:   make(map[string]map[string]*Record, len(doc.Users)),
	}
	for userID, guilds := range doc.Users {
		cg := make(map[string]*Record, len(guilds))
		for guildID, rec := range guilds {
			if rec == nil {
				cg[guildID] = &Record{}
				continue
			}
			cp := *rec
			cg[guildID] = &cp
		}
		out.Users[userID] = cg
	}
	return out
}
