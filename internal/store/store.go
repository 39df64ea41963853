// Package store persists runs as one JSON record per run in a
// dedicated directory. Saves are atomic (write temp file, rename) and
// worker logs/activity are truncated at write time to bound on-disk
// size. LoadAll reconciles in-flight state so a restart never leaves a
// run stuck in planning/executing/judging.
package store

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/driftworks/crew/internal/model"
)

// maxPersistedEntries caps per-worker log and activity arrays at
// write time.
const maxPersistedEntries = 100

// SaveInterval is how often the autosave loop snapshots every run.
const SaveInterval = 10 * time.Second

// Store reads and writes run records under a single directory.
type Store struct {
	dir string
}

// Open creates the data directory if needed and returns a store.
func Open(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating run store dir: %w", err)
	}
	return &Store{dir: dir}, nil
}

// Dir returns the store's data directory.
func (s *Store) Dir() string { return s.dir }

func (s *Store) path(runID string) string {
	return filepath.Join(s.dir, runID+".json")
}

// Save atomically persists the run record under its identifier.
// The run is snapshotted internally; callers must not hold the run's
// guard when calling Save.
func (s *Store) Save(r *model.Run) error {
	snap := r.Snapshot()
	truncateWorkers(snap)

	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding run %s: %w", snap.ID, err)
	}

	tmp, err := os.CreateTemp(s.dir, snap.ID+".*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("writing run %s: %w", snap.ID, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("closing temp file: %w", err)
	}
	if err := os.Rename(tmpName, s.path(snap.ID)); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("renaming run %s record: %w", snap.ID, err)
	}
	return nil
}

// LoadAll reads every stored run, applying the legacy-record migration
// and restart reconciliation. Unreadable records are skipped with an
// error-level log so one corrupt file cannot take the daemon down.
func (s *Store) LoadAll() ([]*model.Run, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("reading run store dir: %w", err)
	}

	var runs []*model.Run
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		path := filepath.Join(s.dir, entry.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			log.Printf("ERROR: skipping unreadable run record %s: %v", entry.Name(), err)
			continue
		}
		run, err := decodeRun(data)
		if err != nil {
			log.Printf("ERROR: skipping malformed run record %s: %v", entry.Name(), err)
			continue
		}
		reconcile(run)
		runs = append(runs, run)
	}
	return runs, nil
}

// AutoSave periodically persists every run returned by list until the
// context is cancelled. Persistence failures are logged and retried on
// the next tick.
func (s *Store) AutoSave(ctx context.Context, list func() []*model.Run) {
	ticker := time.NewTicker(SaveInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			for _, r := range list() {
				if err := s.Save(r); err != nil {
					log.Printf("ERROR: autosave of run %s failed: %v", r.ID, err)
				}
			}
		}
	}
}

// reconcile rewrites a loaded run so no phantom in-flight state
// survives a process death: active runs park as paused, running
// workers become failed, in-progress tasks roll back to pending.
func reconcile(r *model.Run) {
	if r.Status.IsActive() {
		r.Status = model.RunPaused
	}
	now := time.Now()
	for _, w := range r.Workers {
		if w.Status == model.WorkerRunning {
			w.Status = model.WorkerFailed
			t := now
			w.CompletedAt = &t
		}
	}
	for _, t := range r.Tasks {
		if t.Status == model.TaskInProgress {
			t.ResetToPending()
		}
	}
}

// truncateWorkers caps each worker's log and activity arrays to the
// most recent entries.
func truncateWorkers(r *model.Run) {
	for _, w := range r.Workers {
		if len(w.Logs) > maxPersistedEntries {
			w.Logs = w.Logs[len(w.Logs)-maxPersistedEntries:]
		}
		if len(w.Activity) > maxPersistedEntries {
			w.Activity = w.Activity[len(w.Activity)-maxPersistedEntries:]
		}
	}
}
