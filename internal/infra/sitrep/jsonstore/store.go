package jsonstore

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/SatvikDB/aegis/internal/domain/sitrep"
)

// Store persists scan artifacts as a single JSON mapping of scan id to
// artifact, surviving restarts. Every mutation is a whole-file
// read-modify-write under one mutex, so concurrent chat appends cannot
// lose updates; writes go through a temp file and rename.
type Store struct {
	path string
	mu   sync.Mutex
}

func New(path string) *Store {
	return &Store{path: path}
}

func (s *Store) Create(ctx context.Context, scanID string, a sitrep.Artifact) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	store, err := s.read()
	if err != nil {
		return err
	}
	if a.ChatHistory == nil {
		a.ChatHistory = []sitrep.ChatTurn{}
	}
	store[scanID] = a
	return s.write(store)
}

func (s *Store) Get(ctx context.Context, scanID string) (*sitrep.Artifact, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	store, err := s.read()
	if err != nil {
		return nil, err
	}
	a, ok := store[scanID]
	if !ok {
		return nil, sitrep.ErrNotFound
	}
	return &a, nil
}

func (s *Store) AppendChatTurn(ctx context.Context, scanID, role, content string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	store, err := s.read()
	if err != nil {
		return err
	}
	a, ok := store[scanID]
	if !ok {
		log.Warn().Str("scan_id", scanID).Msg("scan not found, dropping chat turn")
		return nil
	}
	a.ChatHistory = append(a.ChatHistory, sitrep.ChatTurn{Role: role, Content: content})
	store[scanID] = a
	return s.write(store)
}

func (s *Store) ChatHistory(ctx context.Context, scanID string) ([]sitrep.ChatTurn, error) {
	a, err := s.Get(ctx, scanID)
	if err == sitrep.ErrNotFound {
		return []sitrep.ChatTurn{}, nil
	}
	if err != nil {
		return nil, err
	}
	return a.ChatHistory, nil
}

// Retain keeps the n most recently created artifacts.
func (s *Store) Retain(ctx context.Context, n int) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	store, err := s.read()
	if err != nil {
		return err
	}
	if len(store) <= n {
		return nil
	}

	ids := make([]string, 0, len(store))
	for id := range store {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		return store[ids[i]].Timestamp.After(store[ids[j]].Timestamp)
	})
	evicted := 0
	for _, id := range ids[n:] {
		delete(store, id)
		evicted++
	}
	if err := s.write(store); err != nil {
		return err
	}
	log.Info().Int("evicted", evicted).Int("kept", len(store)).Msg("scan artifact store compacted")
	return nil
}

// read loads the whole store; a missing or corrupt file yields an empty
// map so the store self-heals. Callers must hold the mutex.
func (s *Store) read() (map[string]sitrep.Artifact, error) {
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return map[string]sitrep.Artifact{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading artifact store: %w", err)
	}
	var store map[string]sitrep.Artifact
	if err := json.Unmarshal(data, &store); err != nil {
		log.Warn().Err(err).Str("path", s.path).Msg("artifact store unreadable, starting empty")
		return map[string]sitrep.Artifact{}, nil
	}
	if store == nil {
		store = map[string]sitrep.Artifact{}
	}
	return store, nil
}

func (s *Store) write(store map[string]sitrep.Artifact) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("creating store directory: %w", err)
	}
	data, err := json.MarshalIndent(store, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding artifact store: %w", err)
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("writing artifact store: %w", err)
	}
	return os.Rename(tmp, s.path)
}
