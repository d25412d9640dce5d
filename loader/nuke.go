package loader

import (
	"context"
	"errors"
	"fmt"

	log "github.com/sirupsen/logrus"

	"github.com/helix-tools/metadata-loader/api"
	"github.com/helix-tools/metadata-loader/types"
)

const nukePageSize = 100

// NukeRepository is what Nuke needs from the repository client.
type NukeRepository interface {
	Authenticate(ctx context.Context, user, password string) error
	GetEntity(ctx context.Context, uri string, result any) error
	DeleteEntity(ctx context.Context, uri string) error
}

// Nuke deletes every dataset in the repository, most recently listed
// first, and returns how many it deleted. Individual failures do not stop
// the remaining deletions.
func Nuke(ctx context.Context, repo NukeRepository, user, password string, logger *log.Entry) (int, error) {
	if logger == nil {
		logger = log.NewEntry(log.StandardLogger())
	}

	if err := repo.Authenticate(ctx, user, password); err != nil {
		return 0, fmt.Errorf("authentication failed: %w", err)
	}

	uris, err := listDatasetURIs(ctx, repo)
	if err != nil {
		return 0, err
	}

	deleter := &countingDeleter{EntityDeleter: repo}
	registry := api.NewCleanupRegistry(logger)
	for _, uri := range uris {
		registry.RegisterEntityCleanup(deleter, uri)
	}

	logger.WithField("datasets", registry.Count()).Info("deleting datasets")

	errs := registry.RunAll(ctx)

	return deleter.deleted, errors.Join(errs...)
}

type countingDeleter struct {
	api.EntityDeleter
	deleted int
}

func (d *countingDeleter) DeleteEntity(ctx context.Context, uri string) error {
	if err := d.EntityDeleter.DeleteEntity(ctx, uri); err != nil {
		return err
	}
	d.deleted++
	return nil
}

func listDatasetURIs(ctx context.Context, repo NukeRepository) ([]string, error) {
	var uris []string

	for offset := 1; ; offset += nukePageSize {
		var page types.EntityList
		uri := fmt.Sprintf("%s?offset=%d&limit=%d", types.DatasetURI, offset, nukePageSize)
		if err := repo.GetEntity(ctx, uri, &page); err != nil {
			return nil, fmt.Errorf("failed to list datasets: %w", err)
		}

		for _, entity := range page.Results {
			if u := entityURI(types.DatasetURI, entity); u != "" {
				uris = append(uris, u)
			}
		}

		if len(page.Results) < nukePageSize || offset+nukePageSize > page.TotalNumberOfResults {
			return uris, nil
		}
	}
}

// entityURI returns the entity's own uri, or builds one from its id.
func entityURI(collection string, entity map[string]any) string {
	if u, ok := entity["uri"].(string); ok && u != "" {
		return u
	}
	if id, ok := entity["id"].(string); ok && id != "" {
		return collection + "/" + id
	}
	return ""
}
