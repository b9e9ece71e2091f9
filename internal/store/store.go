// Package store persists scan history and the blocked-URL set as two
// independent JSON files under a data directory. Storage is best-effort:
// absent or corrupt files load as empty state, never as an error.
package store

import (
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"qrshield/internal/models"
)

const (
	historyFile = "history.json"
	blockedFile = "blocked_urls.json"

	// MaxHistory bounds the history list to the most recent entries.
	MaxHistory = 50
)

// Store manages scan history and blocked URLs.
type Store struct {
	dir    string
	logger *slog.Logger

	mu      sync.RWMutex
	history []models.ScanResult
	blocked map[string]struct{}
}

// Open loads the store from dir, creating it on first use. Unreadable or
// unparsable files are treated as empty.
func Open(dir string, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, err
	}
	s := &Store{
		dir:     dir,
		logger:  logger,
		blocked: make(map[string]struct{}),
	}
	s.load()
	return s, nil
}

func (s *Store) load() {
	var history []models.ScanResult
	if data, err := os.ReadFile(filepath.Join(s.dir, historyFile)); err == nil {
		if err := json.Unmarshal(data, &history); err != nil {
			s.logger.Warn("history file unreadable, starting empty", "error", err)
			history = nil
		}
	}
	if len(history) > MaxHistory {
		history = history[:MaxHistory]
	}
	s.history = history

	var blocked []string
	if data, err := os.ReadFile(filepath.Join(s.dir, blockedFile)); err == nil {
		if err := json.Unmarshal(data, &blocked); err != nil {
			s.logger.Warn("blocked-urls file unreadable, starting empty", "error", err)
			blocked = nil
		}
	}
	for _, u := range blocked {
		s.blocked[u] = struct{}{}
	}
}

// Record prepends r to the history, truncates to MaxHistory and persists.
// Older entries are evicted silently.
func (s *Store) Record(r models.ScanResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.history = append([]models.ScanResult{r}, s.history...)
	if len(s.history) > MaxHistory {
		s.history = s.history[:MaxHistory]
	}
	return s.writeJSON(historyFile, s.history)
}

// History returns a copy of the history, newest first.
func (s *Store) History() []models.ScanResult {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.ScanResult, len(s.history))
	copy(out, s.history)
	return out
}

// Find returns the stored result with the given id.
func (s *Store) Find(id string) (models.ScanResult, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, r := range s.history {
		if r.ID == id {
			return r, true
		}
	}
	return models.ScanResult{}, false
}

// IsBlocked reports whether url is on the block list. Exact, case-sensitive
// string match.
func (s *Store) IsBlocked(url string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.blocked[url]
	return ok
}

// Block adds url to the block list and persists. Idempotent; the list only
// ever grows.
func (s *Store) Block(url string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.blocked[url]; ok {
		return nil
	}
	s.blocked[url] = struct{}{}
	return s.writeJSON(blockedFile, s.blockedSlice())
}

// Blocked returns the blocked URLs, sorted for stable output.
func (s *Store) Blocked() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.blockedSlice()
}

func (s *Store) blockedSlice() []string {
	out := make([]string, 0, len(s.blocked))
	for u := range s.blocked {
		out = append(out, u)
	}
	sort.Strings(out)
	return out
}

func (s *Store) writeJSON(name string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(s.dir, name), data, 0600)
}
