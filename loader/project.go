package loader

import (
	"context"
	"fmt"

	log "github.com/sirupsen/logrus"

	"github.com/helix-tools/metadata-loader/types"
)

const (
	projectDescription  = "Umbrella for Sage-curated projects"
	projectCreationDate = "2011-06-06"
	projectCreator      = "x.schildwachter@sagebase.org"
	aclModifiedBy       = "dataLoader"
)

// createProject creates the umbrella project and replaces its ACL with
// accessList.
func (l *Loader) createProject(ctx context.Context, name string, accessList []types.ResourceAccess) (types.Project, error) {
	draft := types.Project{
		Name:         name,
		Description:  projectDescription,
		CreationDate: projectCreationDate,
		Creator:      projectCreator,
	}

	var project types.Project
	if err := l.repo.CreateEntity(ctx, types.ProjectURI, draft, &project); err != nil {
		return types.Project{}, fmt.Errorf("failed to create project %q: %w", name, err)
	}
	if project.ID == "" {
		return types.Project{}, fmt.Errorf("project %q created without an id", name)
	}

	acl := types.AccessControlList{
		ModifiedBy:     aclModifiedBy,
		ModifiedOn:     l.opts.Now().Format("2006-01-02"),
		ResourceAccess: accessList,
	}

	if err := l.repo.UpdateEntity(ctx, projectACLURI(project.ID), aclPayload(acl)); err != nil {
		return types.Project{}, fmt.Errorf("failed to update acl of project %s: %w", project.ID, err)
	}

	l.logger.WithFields(log.Fields{
		"project_id": project.ID,
		"name":       name,
		"grants":     len(accessList),
	}).Info("created project")

	if err := l.created(ctx, "project", project.ID, name, ""); err != nil {
		return types.Project{}, err
	}

	return project, nil
}

func projectACLURI(id string) string {
	return types.ProjectURI + "/" + id + "/acl"
}

func aclPayload(acl types.AccessControlList) map[string]any {
	return map[string]any{
		"modifiedBy":     acl.ModifiedBy,
		"modifiedOn":     acl.ModifiedOn,
		"resourceAccess": acl.ResourceAccess,
	}
}
