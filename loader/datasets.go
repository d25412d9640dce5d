package loader

import (
	"context"
	"fmt"
	"iter"

	log "github.com/sirupsen/logrus"

	"github.com/helix-tools/metadata-loader/types"
)

const tableDatasets = "datasets"

// loadDatasets creates one dataset per group of rows in the dataset CSV,
// parented to projectID.
func (l *Loader) loadDatasets(ctx context.Context, projectID string) error {
	table, err := l.openCSV(ctx, l.opts.DatasetsCSV)
	if err != nil {
		return err
	}
	defer table.Close()

	header := NormalizeHeader(table.header)

	for rec, err := range GroupDatasets(header, l.countRows(tableDatasets, table), projectID) {
		if err != nil {
			return fmt.Errorf("datasets %s: %w", l.opts.DatasetsCSV, err)
		}

		if l.opts.Debug {
			l.logRecord(rec)
		}

		if err := l.submitDataset(ctx, rec); err != nil {
			return err
		}
	}

	return nil
}

// countRows passes through the table's rows, counting each one.
func (l *Loader) countRows(name string, table *csvTable) iter.Seq2[[]string, error] {
	return func(yield func([]string, error) bool) {
		for row, err := range table.Rows() {
			if err == nil {
				l.opts.Metrics.RowRead(name)
			}
			if !yield(row, err) {
				return
			}
		}
	}
}

// submitDataset creates rec's dataset, writes its annotations and records
// the assigned id under the dataset name.
func (l *Loader) submitDataset(ctx context.Context, rec DatasetRecord) error {
	var created types.Dataset
	if err := l.repo.CreateEntity(ctx, types.DatasetURI, rec.Dataset, &created); err != nil {
		return fmt.Errorf("failed to create dataset %q: %w", rec.Dataset.Name, err)
	}

	annotationsURI := created.Annotations
	if annotationsURI == "" {
		annotationsURI = types.DatasetURI + "/" + created.ID + "/annotations"
	}

	if err := l.repo.UpdateEntity(ctx, annotationsURI, rec.Annotations.Payload()); err != nil {
		return fmt.Errorf("failed to annotate dataset %q: %w", rec.Dataset.Name, err)
	}

	l.datasets[rec.Dataset.Name] = created.ID
	l.summary.Datasets++

	l.logger.WithFields(log.Fields{
		"dataset_id":  created.ID,
		"name":        rec.Dataset.Name,
		"annotations": rec.Annotations.Len(),
	}).Info("created dataset")

	return l.created(ctx, "dataset", created.ID, rec.Dataset.Name, rec.Dataset.ParentID)
}

func (l *Loader) logRecord(rec DatasetRecord) {
	entry := l.logger.WithField("group", rec.GroupKey)

	for key, values := range rec.Annotations.StringAnnotations {
		entry.WithField("values", values).Debugf("string %s", key)
	}
	for key, values := range rec.Annotations.LongAnnotations {
		entry.WithField("values", values).Debugf("long %s", key)
	}
	for key, values := range rec.Annotations.DoubleAnnotations {
		entry.WithField("values", values).Debugf("double %s", key)
	}
	for key, values := range rec.Annotations.DateAnnotations {
		entry.WithField("values", values).Debugf("date %s", key)
	}
}
