package loader

import (
	"iter"
)

// isBoundary reports whether moving from group key prev to next starts a
// new dataset.
func isBoundary(prev, next string) bool {
	return prev != next
}

func groupKey(row []string) string {
	if len(row) == 0 {
		return ""
	}
	return row[0]
}

// GroupDatasets folds consecutive rows sharing column 0 into one
// DatasetRecord each, parented to projectID. The last group is always
// emitted, so empty input yields a single empty record. Iteration stops at
// the first error.
func GroupDatasets(header []string, rows iter.Seq2[[]string, error], projectID string) iter.Seq2[DatasetRecord, error] {
	return func(yield func(DatasetRecord, error) bool) {
		current := newDatasetRecord("")
		started := false

		for row, err := range rows {
			if err != nil {
				yield(DatasetRecord{}, err)
				return
			}

			key := groupKey(row)
			if !started {
				current.GroupKey = key
				started = true
			} else if isBoundary(current.GroupKey, key) {
				if !yield(current, nil) {
					return
				}
				current = newDatasetRecord(key)
			}

			if err := current.Apply(header, row); err != nil {
				yield(DatasetRecord{}, err)
				return
			}
			current.Dataset.ParentID = projectID
		}

		yield(current, nil)
	}
}
