// Package store persists imported project records and maps project ids to
// their source directories.
package store

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/harshul/phpack/internal/analyzer"
	"github.com/harshul/phpack/internal/apperr"
)

// Resolver maps a project id to the directory holding its sources.
type Resolver interface {
	Resolve(id string) (string, error)
}

type document struct {
	Projects []analyzer.ProjectRecord `yaml:"projects"`
}

// File is a YAML file of project records. Every call reads the file fresh so
// several processes can share it; writes from this process are serialized.
type File struct {
	path string
	mu   sync.Mutex
}

// Open returns a store backed by path. The file is created on first Save.
func Open(path string) *File {
	return &File{path: path}
}

// Path returns the backing file.
func (f *File) Path() string {
	return f.path
}

func (f *File) load() (document, error) {
	var doc document
	data, err := os.ReadFile(f.path)
	if errors.Is(err, fs.ErrNotExist) {
		return doc, nil
	}
	if err != nil {
		return doc, fmt.Errorf("read project store: %w", err)
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return doc, fmt.Errorf("parse project store %s: %w", f.path, err)
	}
	return doc, nil
}

func (f *File) save(doc document) error {
	sort.Slice(doc.Projects, func(i, j int) bool {
		return doc.Projects[i].CreatedAt.Before(doc.Projects[j].CreatedAt)
	})
	data, err := yaml.Marshal(&doc)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(f.path), 0o755); err != nil {
		return fmt.Errorf("create store directory: %w", err)
	}

	tmp := f.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write project store: %w", err)
	}
	return os.Rename(tmp, f.path)
}

// List returns every stored record, oldest first.
func (f *File) List() ([]analyzer.ProjectRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	doc, err := f.load()
	if err != nil {
		return nil, err
	}
	return doc.Projects, nil
}

// Get returns the record with id.
func (f *File) Get(id string) (analyzer.ProjectRecord, error) {
	records, err := f.List()
	if err != nil {
		return analyzer.ProjectRecord{}, err
	}
	for _, r := range records {
		if r.ID == id {
			return r, nil
		}
	}
	return analyzer.ProjectRecord{}, apperr.New(apperr.NotFound, "get project", "no project with id %s", id)
}

// Save inserts rec or replaces the record with the same id, updating its
// LastModified time.
func (f *File) Save(rec analyzer.ProjectRecord) error {
	if rec.ID == "" {
		return errors.New("save project: record has no id")
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	doc, err := f.load()
	if err != nil {
		return err
	}

	rec.LastModified = time.Now().UTC()
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = rec.LastModified
	}

	replaced := false
	for i := range doc.Projects {
		if doc.Projects[i].ID == rec.ID {
			doc.Projects[i] = rec
			replaced = true
			break
		}
	}
	if !replaced {
		doc.Projects = append(doc.Projects, rec)
	}
	return f.save(doc)
}

// Delete removes the record with id.
func (f *File) Delete(id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	doc, err := f.load()
	if err != nil {
		return err
	}
	for i := range doc.Projects {
		if doc.Projects[i].ID == id {
			doc.Projects = append(doc.Projects[:i], doc.Projects[i+1:]...)
			return f.save(doc)
		}
	}
	return apperr.New(apperr.NotFound, "delete project", "no project with id %s", id)
}

// Resolve returns the stored path for id.
func (f *File) Resolve(id string) (string, error) {
	rec, err := f.Get(id)
	if err != nil {
		return "", err
	}
	return rec.Path, nil
}

// Convention resolves ids to Root/<id> without consulting any record.
type Convention struct {
	Root string
}

// Resolve returns Root/<id> if that directory exists.
func (c Convention) Resolve(id string) (string, error) {
	path := filepath.Join(c.Root, id)
	info, err := os.Stat(path)
	if err != nil || !info.IsDir() {
		return "", apperr.New(apperr.NotFound, "resolve project", "%s does not exist", path)
	}
	return path, nil
}

// Chain tries each resolver in order and returns the first hit. Errors other
// than NotFound stop the search.
type Chain []Resolver

func (c Chain) Resolve(id string) (string, error) {
	for _, r := range c {
		path, err := r.Resolve(id)
		if err == nil {
			return path, nil
		}
		if !errors.Is(err, apperr.ErrNotFound) {
			return "", err
		}
	}
	return "", apperr.New(apperr.NotFound, "resolve project", "no source directory for project %s", id)
}
