package extractors

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/LilVoxy/mayabus_analytics/ETL/models"
)

// ErrFileNamePrefix is returned when a file name does not start with the prefix
// of its category
var ErrFileNamePrefix = errors.New("file name does not match the category")

// FileSummary describes a registered file without its rows
type FileSummary struct {
	Name     string          `json:"name"`
	Category models.Category `json:"category"`
	Rows     int             `json:"rows"`
	LoadedAt time.Time       `json:"loadedAt"`
}

// FileSet is the registry of decoded export files, safe for concurrent use
type FileSet struct {
	mu    sync.RWMutex
	files map[models.Category][]models.FileData
	now   func() time.Time
}

// NewFileSet creates an empty registry
func NewFileSet() *FileSet {
	return &FileSet{
		files: make(map[models.Category][]models.FileData),
		now:   time.Now,
	}
}

// CategoryForFileName returns the category whose prefix the file name carries
func CategoryForFileName(name string) (models.Category, bool) {
	base := strings.ToLower(filepath.Base(name))
	for _, c := range models.Categories {
		if strings.HasPrefix(base, c.FilePrefix()) {
			return c, true
		}
	}
	return "", false
}

// ValidateFileName checks the file name against the prefix of the category
func ValidateFileName(category models.Category, name string) error {
	if !strings.HasPrefix(strings.ToLower(filepath.Base(name)), category.FilePrefix()) {
		return fmt.Errorf("%w: %q must start with %q", ErrFileNamePrefix, name, category.FilePrefix())
	}
	return nil
}

// Load decodes a file and registers it under its category
func (s *FileSet) Load(category models.Category, name string, r io.Reader) (models.FileData, error) {
	if err := ValidateFileName(category, name); err != nil {
		return models.FileData{}, err
	}
	rows, err := Decode(name, r)
	if err != nil {
		return models.FileData{}, &DecodeError{File: name, Category: category, Err: err}
	}
	file := models.FileData{Name: name, Category: category, Rows: rows, LoadedAt: s.now()}
	if _, err := s.Add(file); err != nil {
		return models.FileData{}, err
	}
	return file, nil
}

// Add registers a decoded file. A file with the same name in the category is
// replaced in place; replaced reports whether that happened.
func (s *FileSet) Add(file models.FileData) (replaced bool, err error) {
	if _, err := models.ParseCategory(string(file.Category)); err != nil {
		return false, err
	}
	if err := ValidateFileName(file.Category, file.Name); err != nil {
		return false, err
	}
	if file.LoadedAt.IsZero() {
		file.LoadedAt = s.now()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	files := s.files[file.Category]
	for i := range files {
		if files[i].Name == file.Name {
			files[i] = file
			return true, nil
		}
	}
	s.files[file.Category] = append(files, file)
	return false, nil
}

// Delete removes a file; it reports whether the file was registered
func (s *FileSet) Delete(category models.Category, name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	files := s.files[category]
	for i := range files {
		if files[i].Name == name {
			s.files[category] = append(files[:i:i], files[i+1:]...)
			return true
		}
	}
	return false
}

// List returns the registered files by category then registration order
func (s *FileSet) List() []FileSummary {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []FileSummary
	for _, c := range models.Categories {
		for _, f := range s.files[c] {
			out = append(out, FileSummary{Name: f.Name, Category: c, Rows: len(f.Rows), LoadedAt: f.LoadedAt})
		}
	}
	return out
}

// Names returns the sorted file names of a category
func (s *FileSet) Names(category models.Category) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	names := make([]string, 0, len(s.files[category]))
	for _, f := range s.files[category] {
		names = append(names, f.Name)
	}
	sort.Strings(names)
	return names
}

// Len returns the number of registered files
func (s *FileSet) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := 0
	for _, files := range s.files {
		n += len(files)
	}
	return n
}

// Datasets concatenates the rows of every file of each category in
// registration order. The returned slices are owned by the caller.
func (s *FileSet) Datasets() models.Datasets {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return models.Datasets{
		Tickets:     s.concat(models.CategoryTickets),
		Services:    s.concat(models.CategoryServices),
		Validations: s.concat(models.CategoryValidations),
	}
}

func (s *FileSet) concat(category models.Category) []models.RawRow {
	var n int
	for _, f := range s.files[category] {
		n += len(f.Rows)
	}
	if n == 0 {
		return nil
	}
	rows := make([]models.RawRow, 0, n)
	for _, f := range s.files[category] {
		rows = append(rows, f.Rows...)
	}
	return rows
}
