package main

import (
	"context"
	"fmt"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/LilVoxy/mayabus_analytics/ETL/extractors"
	"github.com/LilVoxy/mayabus_analytics/ETL/models"
	"github.com/LilVoxy/mayabus_analytics/processor"
)

// watchDebounce groups the burst of events produced by one file copy
const watchDebounce = 500 * time.Millisecond

// relevantEvent reports whether an event concerns an export file
func relevantEvent(ev fsnotify.Event) bool {
	if !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Remove) && !ev.Has(fsnotify.Rename) {
		return false
	}
	if !extractors.SupportedExtension(ev.Name) {
		return false
	}
	_, ok := extractors.CategoryForFileName(ev.Name)
	return ok
}

// Watch runs the pipeline once at start and again after every change of the
// input directory. A change during a run supersedes it.
func (r *ETLRunner) Watch(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(r.extractor.Dir()); err != nil {
		return fmt.Errorf("watching %s: %w", r.extractor.Dir(), err)
	}

	coordinator := processor.NewCoordinator(r.runPipeline, r.reportDelivered, r.logger)
	defer coordinator.Close()

	submit := func() {
		datasets, err := r.extract(ctx)
		if err != nil {
			r.logger.Error("extract phase: %v", err)
			return
		}
		if _, err := coordinator.Submit(datasets); err != nil {
			r.logger.Error("submitting run: %v", err)
		}
	}

	r.logger.Info("watching %s for changes", r.extractor.Dir())
	submit()

	var debounce <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			r.logger.Info("watch stopped")
			return nil

		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if relevantEvent(ev) {
				r.logger.Debug("input change: %s", ev)
				debounce = time.After(watchDebounce)
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			r.logger.Warn("watcher: %v", err)

		case <-debounce:
			debounce = nil
			submit()
		}
	}
}

func (r *ETLRunner) reportDelivered(out *models.ProcessedData) {
	r.logger.Debug("run %s delivered", out.RunID)
}
