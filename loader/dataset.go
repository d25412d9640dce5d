package loader

import (
	"fmt"

	"github.com/helix-tools/metadata-loader/types"
)

// DatasetRecord is one dataset assembled from a run of CSV rows sharing a
// group key.
type DatasetRecord struct {
	GroupKey    string
	Dataset     types.Dataset
	Annotations *types.Annotations
}

func newDatasetRecord(groupKey string) DatasetRecord {
	return DatasetRecord{
		GroupKey:    groupKey,
		Annotations: types.NewAnnotations(),
	}
}

// Apply classifies every cell of row against header and folds it into the
// record. Later rows overwrite single-valued annotations; Tissue/Tumor
// values accumulate.
func (r *DatasetRecord) Apply(header, row []string) error {
	if len(row) > len(header) {
		return fmt.Errorf("row has %d columns but header has %d", len(row), len(header))
	}

	for i, cell := range row {
		c := Classify(header[i], cell)

		switch c.Kind {
		case FieldPrimary:
			r.setPrimary(c.Attribute, c.Value.Text)
		case FieldSkip:
		case FieldTissueTumor:
			r.Annotations.AppendString(types.TissueTumorKey, c.Value.Text)
		default:
			r.Annotations.Set(header[i], c.Value)
		}
	}

	return nil
}

func (r *DatasetRecord) setPrimary(attr, value string) {
	switch attr {
	case "name":
		r.Dataset.Name = value
	case "description":
		r.Dataset.Description = value
	case "creator":
		r.Dataset.Creator = value
	case "creationDate":
		r.Dataset.CreationDate = value
	case "status":
		r.Dataset.Status = value
	case "releaseDate":
		r.Dataset.ReleaseDate = value
	case "version":
		r.Dataset.Version = value
	}
}
