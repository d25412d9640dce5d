package loader

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	log "github.com/sirupsen/logrus"

	"github.com/helix-tools/metadata-loader/types"
)

const (
	tableLayers = "layers"

	// DefaultLocationColumn is the only location column loaded unless
	// configured otherwise.
	DefaultLocationColumn = "awss3"

	previewLines = 6
)

// Layer CSV columns in their historical positions:
// Dataset Name,type,status,name,Number of samples,Platform,Version,preview,sage,awsebs,awss3,qcby
var layerColumns = []struct {
	name  string
	index int
}{
	{"dataset_name", 0},
	{"type", 1},
	{"status", 2},
	{"name", 3},
	{"number_of_samples", 4},
	{"platform", 5},
	{"version", 6},
	{"preview", 7},
	{"qcby", 11},
}

var locationFallback = map[string]int{
	"sage":   8,
	"awsebs": 9,
	"awss3":  10,
}

// LayerSchema holds the column index of every layer CSV field.
type LayerSchema struct {
	DatasetName int
	Type        int
	Status      int
	Name        int
	NumSamples  int
	Platform    int
	Version     int
	Preview     int
	QCBy        int

	// Locations are the location columns to load, in configured order.
	Locations []int
}

func layerKey(name string) string {
	return strings.ToLower(NormalizeHeaderName(strings.TrimSpace(name)))
}

// ResolveLayerSchema finds each field by header name, ignoring case and
// whitespace, and falls back to its historical position when the header
// does not name it.
func ResolveLayerSchema(header, locationColumns []string) (LayerSchema, error) {
	byName := make(map[string]int, len(header))
	for i, h := range header {
		key := layerKey(h)
		if _, dup := byName[key]; !dup {
			byName[key] = i
		}
	}

	resolve := func(name string, fallback int) int {
		if i, ok := byName[name]; ok {
			return i
		}
		return fallback
	}

	idx := make(map[string]int, len(layerColumns))
	for _, c := range layerColumns {
		idx[c.name] = resolve(c.name, c.index)
	}

	schema := LayerSchema{
		DatasetName: idx["dataset_name"],
		Type:        idx["type"],
		Status:      idx["status"],
		Name:        idx["name"],
		NumSamples:  idx["number_of_samples"],
		Platform:    idx["platform"],
		Version:     idx["version"],
		Preview:     idx["preview"],
		QCBy:        idx["qcby"],
	}

	for _, col := range locationColumns {
		key := layerKey(col)
		if i, ok := byName[key]; ok {
			schema.Locations = append(schema.Locations, i)
			continue
		}
		i, ok := locationFallback[key]
		if !ok {
			return LayerSchema{}, fmt.Errorf("unknown location column %q", col)
		}
		schema.Locations = append(schema.Locations, i)
	}

	return schema, nil
}

// cell returns row[i], or "" when the row is too short.
func cell(row []string, i int) string {
	if i < 0 || i >= len(row) {
		return ""
	}
	return row[i]
}

// loadLayers creates a layer per layer CSV row, with its locations and
// preview.
func (l *Loader) loadLayers(ctx context.Context) error {
	table, err := l.openCSV(ctx, l.opts.LayersCSV)
	if err != nil {
		return err
	}
	defer table.Close()

	schema, err := ResolveLayerSchema(table.header, l.opts.LocationColumns)
	if err != nil {
		return fmt.Errorf("layers %s: %w", l.opts.LayersCSV, err)
	}

	rowNum := 1
	for row, err := range l.countRows(tableLayers, table) {
		rowNum++
		if err != nil {
			return fmt.Errorf("layers %s: %w", l.opts.LayersCSV, err)
		}

		if err := l.loadLayerRow(ctx, table.header, schema, row); err != nil {
			return fmt.Errorf("layers %s row %d: %w", l.opts.LayersCSV, rowNum, err)
		}
	}

	return nil
}

func (l *Loader) loadLayerRow(ctx context.Context, header []string, schema LayerSchema, row []string) error {
	datasetName := cell(row, schema.DatasetName)

	datasetID, err := l.datasets.Lookup(datasetName)
	if err != nil {
		return err
	}

	layer := types.Layer{
		ParentID:   datasetID,
		Type:       cell(row, schema.Type),
		Status:     cell(row, schema.Status),
		Name:       cell(row, schema.Name),
		NumSamples: cell(row, schema.NumSamples),
		Platform:   cell(row, schema.Platform),
		Version:    cell(row, schema.Version),
		QCBy:       cell(row, schema.QCBy),
	}

	var created types.Layer
	if err := l.repo.CreateEntity(ctx, types.LayerURI, layer, &created); err != nil {
		return fmt.Errorf("failed to create layer %q for %q: %w", layer.Name, datasetName, err)
	}
	l.summary.Layers++

	l.logger.WithFields(log.Fields{
		"layer_id": created.ID,
		"name":     layer.Name,
		"dataset":  datasetName,
	}).Info("created layer")

	if err := l.created(ctx, "layer", created.ID, layer.Name, datasetID); err != nil {
		return err
	}

	for _, col := range schema.Locations {
		raw := cell(row, col)
		if raw == "" {
			continue
		}

		locationType := cell(header, col)
		if err := l.createLocation(ctx, created.ID, locationType, raw); err != nil {
			return err
		}
	}

	if previewPath := cell(row, schema.Preview); previewPath != "" {
		if err := l.createPreview(ctx, created.ID, previewPath); err != nil {
			return err
		}
	}

	return nil
}

// NewLocation builds the location of the file at raw, attaching its
// checksum from idx, or the fake checksum when fake is set.
func NewLocation(layerID, locationType, raw string, idx ChecksumIndex, fake bool) types.Location {
	path := strings.TrimSpace(raw)

	loc := types.Location{
		ParentID: layerID,
		Type:     locationType,
		Path:     path,
	}
	if !strings.HasPrefix(path, "/") {
		loc.Path = "/" + path
	}

	if sum, ok := idx.Lookup(path); ok {
		loc.MD5Sum = sum
	} else if fake {
		loc.MD5Sum = types.FakeMD5Sum
	}

	return loc
}

func (l *Loader) createLocation(ctx context.Context, layerID, locationType, raw string) error {
	loc := NewLocation(layerID, locationType, raw, l.checksums, l.opts.FakeLocalData)

	var created types.Location
	if err := l.repo.CreateEntity(ctx, types.LocationURI, loc, &created); err != nil {
		return fmt.Errorf("failed to create location %s: %w", loc.Path, err)
	}
	l.summary.Locations++

	l.logger.WithFields(log.Fields{
		"location_id": created.ID,
		"type":        loc.Type,
		"path":        loc.Path,
		"checksum":    loc.MD5Sum != "",
	}).Debug("created location")

	return l.created(ctx, "location", created.ID, loc.Path, layerID)
}

func (l *Loader) createPreview(ctx context.Context, layerID, path string) error {
	preview := types.Preview{ParentID: layerID}

	if l.opts.FakeLocalData {
		preview.PreviewString = types.FakePreview
	} else {
		head, err := l.readHead(ctx, path, previewLines)
		if err != nil {
			return fmt.Errorf("preview: %w", err)
		}
		preview.PreviewString = head
	}

	var created types.Preview
	if err := l.repo.CreateEntity(ctx, types.PreviewURI, preview, &created); err != nil {
		return fmt.Errorf("failed to create preview for layer %s: %w", layerID, err)
	}
	l.summary.Previews++

	return l.created(ctx, "preview", created.ID, path, layerID)
}

// readHead returns the first n lines of path, newlines included.
func (l *Loader) readHead(ctx context.Context, path string, n int) (string, error) {
	rc, err := l.opts.Opener.Open(ctx, path)
	if err != nil {
		return "", err
	}
	defer rc.Close()

	return ReadHead(rc, n)
}

// ReadHead returns the first n lines of r, newlines included.
func ReadHead(r io.Reader, n int) (string, error) {
	br := bufio.NewReader(r)

	var sb strings.Builder
	for range n {
		line, err := br.ReadString('\n')
		sb.WriteString(line)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return "", err
		}
	}

	return sb.String(), nil
}
