// Package loader reads the dataset and layer CSV exports and recreates them
// as projects, datasets, layers, locations and previews in the repository
// service.
//
// A run always creates new entities; the repository does not enforce unique
// dataset names, so use Nuke first to start from an empty store.
package loader

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/helix-tools/metadata-loader/metrics"
	"github.com/helix-tools/metadata-loader/notify"
	"github.com/helix-tools/metadata-loader/source"
	"github.com/helix-tools/metadata-loader/types"
)

// DefaultProjectName is the umbrella project every dataset is parented to.
const DefaultProjectName = "SageBioCuration"

// Repository is the subset of the repository client a run needs.
// *api.Client implements it.
type Repository interface {
	Authenticate(ctx context.Context, user, password string) error
	GetPrincipals(ctx context.Context) ([]types.Principal, error)
	CreateEntity(ctx context.Context, uri string, entity, result any) error
	GetEntity(ctx context.Context, uri string, result any) error
	UpdateEntity(ctx context.Context, uri string, payload map[string]any) error
}

// FileOpener opens input files by path. *source.Opener implements it and
// is used when none is given.
type FileOpener interface {
	Open(ctx context.Context, path string) (io.ReadCloser, error)
}

// Notifier receives an event for every created entity. *notify.Publisher
// implements it.
type Notifier interface {
	Publish(ctx context.Context, ev notify.Event) error
}

// Options configures a run.
type Options struct {
	DatasetsCSV  string
	LayersCSV    string
	ChecksumsCSV string

	// FakeLocalData skips the checksum manifest and preview files and
	// stores placeholder values instead.
	FakeLocalData bool

	User     string
	Password string

	ProjectName string

	// Encoding of the CSV inputs, EncodingLatin1 (default) or EncodingUTF8.
	Encoding string

	// LocationColumns names the layer CSV columns that hold file locations.
	LocationColumns []string

	Debug bool

	Opener   FileOpener
	Metrics  *metrics.Metrics
	Notifier Notifier
	Logger   *log.Entry
	RunID    string

	// Now returns the run date used on ACL changes.
	Now func() time.Time
}

// Summary counts the entities a run created.
type Summary struct {
	ProjectID string
	Datasets  int
	Layers    int
	Locations int
	Previews  int
}

// Loader runs one load against a repository.
type Loader struct {
	repo   Repository
	opts   Options
	logger *log.Entry

	checksums ChecksumIndex
	datasets  DatasetIndex
	summary   Summary
}

// New returns a Loader, filling in defaults for unset options.
func New(repo Repository, opts Options) *Loader {
	if opts.ProjectName == "" {
		opts.ProjectName = DefaultProjectName
	}
	if opts.Encoding == "" {
		opts.Encoding = EncodingLatin1
	}
	if len(opts.LocationColumns) == 0 {
		opts.LocationColumns = []string{DefaultLocationColumn}
	}
	if opts.RunID == "" {
		opts.RunID = uuid.NewString()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Opener == nil {
		opts.Opener = source.NewOpener(nil)
	}

	logger := opts.Logger
	if logger == nil {
		logger = log.NewEntry(log.StandardLogger())
	}

	return &Loader{
		repo:      repo,
		opts:      opts,
		logger:    logger.WithField("run_id", opts.RunID),
		checksums: ChecksumIndex{},
		datasets:  DatasetIndex{},
	}
}

// Run loads the checksum manifest, authenticates, creates the project with
// its access list, then every dataset and finally every layer.
func (l *Loader) Run(ctx context.Context) (Summary, error) {
	start := l.opts.Now()

	if !l.opts.FakeLocalData && l.opts.ChecksumsCSV != "" {
		idx, err := l.loadChecksums(ctx, l.opts.ChecksumsCSV)
		if err != nil {
			return l.summary, err
		}
		l.checksums = idx
	}

	if err := l.repo.Authenticate(ctx, l.opts.User, l.opts.Password); err != nil {
		return l.summary, fmt.Errorf("authentication failed: %w", err)
	}

	// Warms the service's group cache before principals are listed.
	var warm types.EntityList
	if err := l.repo.GetEntity(ctx, types.DatasetURI, &warm); err != nil {
		return l.summary, fmt.Errorf("failed to list datasets: %w", err)
	}

	principals, err := l.repo.GetPrincipals(ctx)
	if err != nil {
		return l.summary, fmt.Errorf("failed to get principals: %w", err)
	}

	project, err := l.createProject(ctx, l.opts.ProjectName, CreateAccessList(principals))
	if err != nil {
		return l.summary, err
	}
	l.summary.ProjectID = project.ID

	if err := l.loadDatasets(ctx, project.ID); err != nil {
		return l.summary, err
	}

	if l.opts.LayersCSV != "" {
		if err := l.loadLayers(ctx); err != nil {
			return l.summary, err
		}
	}

	end := l.opts.Now()
	l.opts.Metrics.RunFinished(start, end)

	if err := l.notify(ctx, notify.Event{EventType: notify.EventRunCompleted, EntityID: project.ID}); err != nil {
		return l.summary, err
	}

	l.logger.WithFields(log.Fields{
		"project_id": l.summary.ProjectID,
		"datasets":   l.summary.Datasets,
		"layers":     l.summary.Layers,
		"locations":  l.summary.Locations,
		"previews":   l.summary.Previews,
		"duration":   end.Sub(start).String(),
	}).Info("load complete")

	return l.summary, nil
}

// Datasets returns the name to id index built so far.
func (l *Loader) Datasets() DatasetIndex {
	return l.datasets
}

// created records a new entity in metrics and publishes it.
func (l *Loader) created(ctx context.Context, kind, id, name, parentID string) error {
	l.opts.Metrics.EntityCreated(kind)

	return l.notify(ctx, notify.Event{
		EventType: notify.EventEntityCreated,
		Kind:      kind,
		EntityID:  id,
		Name:      name,
		ParentID:  parentID,
	})
}

func (l *Loader) notify(ctx context.Context, ev notify.Event) error {
	if l.opts.Notifier == nil {
		return nil
	}

	ev.RunID = l.opts.RunID
	if err := l.opts.Notifier.Publish(ctx, ev); err != nil {
		return fmt.Errorf("notify: %w", err)
	}

	return nil
}

// ErrUnknownDataset is returned when a layer names a dataset that was not
// created in this run.
var ErrUnknownDataset = errors.New("unknown dataset")

// DatasetIndex maps dataset names to the ids the repository assigned them.
type DatasetIndex map[string]string

// Lookup returns the id of the dataset called name.
func (idx DatasetIndex) Lookup(name string) (string, error) {
	id, ok := idx[name]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownDataset, name)
	}
	return id, nil
}
