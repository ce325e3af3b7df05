package extractors

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/LilVoxy/mayabus_analytics/ETL/models"
	"github.com/LilVoxy/mayabus_analytics/ETL/utils"
)

// Extractor reads every export file of an input directory
type Extractor struct {
	dir    string
	logger *utils.ETLLogger
}

// NewExtractor creates a new Extractor over dir
func NewExtractor(dir string, logger *utils.ETLLogger) *Extractor {
	if logger == nil {
		logger = utils.NewTestLogger()
	}
	return &Extractor{dir: dir, logger: logger}
}

// Dir returns the input directory
func (e *Extractor) Dir() string {
	return e.dir
}

// Extract decodes the export files of the directory in name order. Files that
// fail to decode are reported in ExtractedData.Errors and skipped; only an
// unreadable directory fails the call.
func (e *Extractor) Extract(ctx context.Context) (*models.ExtractedData, error) {
	startTime := time.Now()
	e.logger.LogExtractStart(e.dir)

	entries, err := os.ReadDir(e.dir)
	if err != nil {
		e.logger.Error("reading input directory %s: %v", e.dir, err)
		return nil, fmt.Errorf("reading input directory: %w", err)
	}

	set := NewFileSet()
	data := &models.ExtractedData{}

	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if entry.IsDir() || !SupportedExtension(entry.Name()) {
			continue
		}
		category, ok := CategoryForFileName(entry.Name())
		if !ok {
			e.logger.Debug("skipping %s: no category prefix", entry.Name())
			continue
		}

		file, err := e.loadFile(set, category, entry.Name())
		if err != nil {
			e.logger.Warn("skipping %s: %v", entry.Name(), err)
			data.Errors = append(data.Errors, err)
			continue
		}
		data.Files = append(data.Files, file)
	}

	data.Datasets = set.Datasets()
	data.LastRunTS = time.Now()

	e.logger.LogExtractComplete(
		len(data.Files),
		len(data.Datasets.Tickets),
		len(data.Datasets.Services),
		len(data.Datasets.Validations),
		len(data.Errors),
		time.Since(startTime),
	)

	return data, nil
}

func (e *Extractor) loadFile(set *FileSet, category models.Category, name string) (models.FileData, error) {
	f, err := os.Open(filepath.Join(e.dir, name))
	if err != nil {
		return models.FileData{}, &DecodeError{File: name, Category: category, Err: err}
	}
	defer f.Close()

	file, err := set.Load(category, name, f)
	if err != nil {
		return models.FileData{}, err
	}
	e.logger.Debug("decoded %s: %d %s rows", name, len(file.Rows), category)
	return file, nil
}
