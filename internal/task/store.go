package task

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/google/uuid"

	"reelgen/internal/fileutil"
	"reelgen/internal/services"
)

// Store persists task snapshots under a root directory, one directory per task.
// A task document has a single writer; callers serialize runs per task.
type Store struct {
	root string
}

// NewStore returns a store rooted at root, creating the directory if needed.
func NewStore(root string) (*Store, error) {
	root = strings.TrimSpace(root)
	if root == "" {
		return nil, services.Wrap(services.ErrConfiguration, "", "open store", "root directory required", nil)
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, services.WrapStorage(nil, "open store", root, err)
	}
	return &Store{root: root}, nil
}

// Root returns the directory holding all tasks.
func (s *Store) Root() string { return s.root }

// Dir returns the work directory of task id.
func (s *Store) Dir(id string) string { return filepath.Join(s.root, id) }

// Create validates opts, allocates a new task directory skeleton, and writes
// the initial document.
func (s *Store) Create(opts Options) (*Task, error) {
	opts = opts.Normalize()
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	id := uuid.NewString()
	t := &Task{
		ID:         id,
		Options:    opts,
		Extensions: []string{},
		Script:     []string{},
		Completed:  []Stage{},
		Root:       s.Dir(id),
	}
	for _, dir := range t.Layout().Subdirs() {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, services.WrapStorage(nil, "create task", dir, err)
		}
	}
	if err := s.Save(t); err != nil {
		return nil, err
	}
	return t, nil
}

// Load reconstructs task id from its document. It fails with
// services.ErrNotFound when the task is absent and services.ErrCorrupt when the
// document cannot be trusted.
func (s *Store) Load(id string) (*Task, error) {
	if err := checkID(id); err != nil {
		return nil, err
	}
	dir := s.Dir(id)
	data, err := os.ReadFile(Layout{Dir: dir}.Document())
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, services.WrapStorage(services.ErrNotFound, "load task", id, nil)
		}
		return nil, services.WrapStorage(nil, "load task", id, err)
	}
	doc, err := decodeDocument(data)
	if err != nil {
		return nil, services.WrapStorage(services.ErrCorrupt, "load task", id, err)
	}
	if doc.TaskID != id {
		return nil, services.WrapStorage(services.ErrCorrupt, "load task", id,
			fmt.Errorf("document belongs to task %q", doc.TaskID))
	}
	return &Task{
		ID:         doc.TaskID,
		Options:    doc.Options,
		Extensions: doc.Extensions,
		Script:     doc.Script,
		Completed:  doc.Completed,
		Root:       dir,
	}, nil
}

// Save atomically replaces the task document with the full snapshot of t.
func (s *Store) Save(t *Task) error {
	if t == nil || t.ID == "" {
		return services.Wrap(services.ErrValidation, "", "save task", "task id required", nil)
	}
	data, err := encodeDocument(t.Document())
	if err != nil {
		return services.WrapStorage(nil, "save task", t.ID, err)
	}
	if err := fileutil.WriteFileAtomic(t.Layout().Document(), data, 0o644); err != nil {
		return services.WrapStorage(nil, "save task", t.ID, err)
	}
	return nil
}

// AddAsset registers a new input asset with extension ext, persists the task,
// and returns the path the asset must be written to.
func (s *Store) AddAsset(t *Task, ext string) (string, error) {
	normalized, err := NormalizeExtension(ext)
	if err != nil {
		return "", err
	}
	t.Extensions = append(t.Extensions, normalized)
	if err := s.Save(t); err != nil {
		t.Extensions = t.Extensions[:len(t.Extensions)-1]
		return "", err
	}
	return t.InputPath(len(t.Extensions) - 1), nil
}

// Exists reports whether task id has a document on disk.
func (s *Store) Exists(id string) bool {
	if checkID(id) != nil {
		return false
	}
	info, err := os.Stat(Layout{Dir: s.Dir(id)}.Document())
	return err == nil && !info.IsDir()
}

// List returns the ids of all tasks with a document, sorted.
func (s *Store) List() ([]string, error) {
	entries, err := os.ReadDir(s.root)
	if err != nil {
		return nil, services.WrapStorage(nil, "list tasks", s.root, err)
	}
	ids := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() && s.Exists(entry.Name()) {
			ids = append(ids, entry.Name())
		}
	}
	slices.Sort(ids)
	return ids, nil
}

// NormalizeExtension lower-cases ext and ensures a single leading dot.
func NormalizeExtension(ext string) (string, error) {
	trimmed := strings.ToLower(strings.TrimSpace(ext))
	trimmed = strings.TrimLeft(trimmed, ".")
	if trimmed == "" || len(trimmed) > 10 {
		return "", services.Wrap(services.ErrValidation, "", "add asset", fmt.Sprintf("invalid extension %q", ext), nil)
	}
	for _, r := range trimmed {
		if (r < 'a' || r > 'z') && (r < '0' || r > '9') {
			return "", services.Wrap(services.ErrValidation, "", "add asset", fmt.Sprintf("invalid extension %q", ext), nil)
		}
	}
	return "." + trimmed, nil
}

func checkID(id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return services.Wrap(services.ErrValidation, "", "task id", fmt.Sprintf("malformed task id %q", id), nil)
	}
	return nil
}
