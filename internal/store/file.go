// internal/store/file.go
//
// File-backed Store: one indented JSON document per player at
// {dir}/{playerID}.json. Writes go to a temp file first and are renamed into
// place so a crash never leaves a half-written save.

package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/robalobadob/cardmatch/internal/game"
)

type fileStore struct {
	dir string
	mu  sync.Mutex
}

// NewFileStore stores saves under dir, creating it on first write.
func NewFileStore(dir string) Store {
	if dir == "" {
		dir = "./data/saves"
	}
	return &fileStore{dir: dir}
}

func (s *fileStore) pathFor(playerID string) (string, error) {
	id := strings.TrimSpace(playerID)
	if id == "" {
		return "", ErrInvalidPlayer
	}
	// Player IDs come from cookies and tokens; keep them inside dir.
	if strings.ContainsAny(id, `/\`) || id == "." || id == ".." {
		return "", fmt.Errorf("store: invalid player id %q", playerID)
	}
	return filepath.Join(s.dir, id+".json"), nil
}

func (s *fileStore) Load(ctx context.Context, playerID string) (*game.Snapshot, error) {
	path, err := s.pathFor(playerID)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var out game.Snapshot
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return &out, nil
}

func (s *fileStore) Save(ctx context.Context, playerID string, snap *game.Snapshot) error {
	if snap == nil {
		return errors.New("store: nil snapshot")
	}
	path, err := s.pathFor(playerID)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return err
	}
	f, err := os.CreateTemp(s.dir, ".save-*.json")
	if err != nil {
		return err
	}
	tmp := f.Name()
	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(snap); err != nil {
		f.Close()
		os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return err
	}
	return os.Rename(tmp, path)
}

func (s *fileStore) Delete(ctx context.Context, playerID string) error {
	path, err := s.pathFor(playerID)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

func (s *fileStore) Close() error { return nil }
