package store

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/pkg/errors"

	"github.com/ricardocosta23/formularioguias/log"
	"github.com/ricardocosta23/formularioguias/model"
)

var ErrNotFound = errors.New("form not found")

// FormStore persists form definitions across a process-lifetime cache and a
// durable per-form JSON file.
type FormStore interface {
	Put(form model.FormDefinition) error
	Get(id string) (model.FormDefinition, error)
	Delete(id string) bool
	List() []model.FormSummary
}

type fileStore struct {
	mu    sync.Mutex
	dir   string
	cache map[string]model.FormDefinition
}

// NewFileStore opens a store over the given directory. If the directory
// cannot be created (read-only deployments) the store degrades to cache-only
// operation; forms then live only as long as the process.
func NewFileStore(dir string) FormStore {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		log.Warnf("store.init: cache-only mode: %s", err)
	}
	return &fileStore{
		dir:   dir,
		cache: map[string]model.FormDefinition{},
	}
}

func (s *fileStore) Put(form model.FormDefinition) error {
	if form.ID == "" {
		return errors.New("store.put: form has no id")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// Durable tier first; the cache only reflects what was accepted.
	if err := s.writeFile(form); err != nil {
		log.Warnf("store.put: durable write failed, keeping %s in cache only: %s", form.ID, err)
	}
	s.cache[form.ID] = form
	return nil
}

func (s *fileStore) Get(id string) (model.FormDefinition, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if form, ok := s.cache[id]; ok {
		return form, nil
	}

	form, err := s.readFile(id)
	if err != nil {
		if !os.IsNotExist(errors.Cause(err)) {
			log.Warnf("store.get: %s", err)
		}
		return model.FormDefinition{}, ErrNotFound
	}

	// Read-through: repopulate the cache on a durable hit.
	s.cache[id] = form
	return form, nil
}

func (s *fileStore) Delete(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, cached := s.cache[id]
	delete(s.cache, id)

	err := os.Remove(s.path(id))
	if err != nil && !os.IsNotExist(err) {
		log.Warnf("store.delete: %s", err)
	}
	return cached || err == nil
}

func (s *fileStore) List() []model.FormSummary {
	s.mu.Lock()
	defer s.mu.Unlock()

	summaries := make([]model.FormSummary, 0, len(s.cache))
	seen := make(map[string]bool, len(s.cache))
	for id, form := range s.cache {
		summaries = append(summaries, form.Summary())
		seen[id] = true
	}

	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if !os.IsNotExist(err) {
			log.Warnf("store.list: %s", err)
		}
		sortSummaries(summaries)
		return summaries
	}

	for _, entry := range entries {
		id := strings.TrimSuffix(entry.Name(), ".json")
		if id == entry.Name() || seen[id] {
			continue
		}
		form, err := s.readFile(id)
		if err != nil {
			log.Warnf("store.list: %s", err)
			continue
		}
		summaries = append(summaries, form.Summary())
	}

	sortSummaries(summaries)
	return summaries
}

func (s *fileStore) path(id string) string {
	return filepath.Join(s.dir, id+".json")
}

func (s *fileStore) writeFile(form model.FormDefinition) error {
	data, err := json.MarshalIndent(form, "", "  ")
	if err != nil {
		return errors.Wrap(err, "marshal form")
	}
	if err := os.WriteFile(s.path(form.ID), data, 0o644); err != nil {
		return errors.Wrap(err, "write form file")
	}
	return nil
}

func (s *fileStore) readFile(id string) (form model.FormDefinition, err error) {
	data, err := os.ReadFile(s.path(id))
	if err != nil {
		return form, errors.Wrap(err, "read form file")
	}
	if err := json.Unmarshal(data, &form); err != nil {
		return form, errors.Wrapf(err, "parse form file %s", id)
	}
	return form, nil
}

func sortSummaries(summaries []model.FormSummary) {
	sort.Slice(summaries, func(i, j int) bool {
		if !summaries[i].CreatedAt.Equal(summaries[j].CreatedAt) {
			return summaries[i].CreatedAt.After(summaries[j].CreatedAt)
		}
		return summaries[i].ID < summaries[j].ID
	})
}
