package loader

import (
	"github.com/helix-tools/metadata-loader/types"
)

// Access types granted on the project.
const (
	AccessRead              = "READ"
	AccessChangePermissions = "CHANGE_PERMISSIONS"
	AccessDelete            = "DELETE"
	AccessUpdate            = "UPDATE"
	AccessCreate            = "CREATE"
)

// accessPolicy maps group names to what they may do on the project.
var accessPolicy = map[string][]string{
	"Sage Curators":    {AccessRead, AccessChangePermissions, AccessDelete, AccessUpdate, AccessCreate},
	"Identified Users": {AccessRead},
}

// CreateAccessList grants each principal named in the policy its access
// types, in principal order. Principals outside the policy are ignored.
func CreateAccessList(principals []types.Principal) []types.ResourceAccess {
	al := make([]types.ResourceAccess, 0, len(accessPolicy))

	for _, p := range principals {
		access, ok := accessPolicy[p.Name]
		if !ok {
			continue
		}
		al = append(al, types.ResourceAccess{
			UserGroupID: p.ID,
			AccessType:  append([]string(nil), access...),
		})
	}

	return al
}
