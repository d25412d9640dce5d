// Package types defines the repository entities written by the loader.
package types

// FakeMD5Sum is stored on locations whose file is absent from the checksum
// manifest when the loader runs against fake local data.
const FakeMD5Sum = "0123456789ABCDEF0123456789ABCDEF"

// FakePreview replaces the head of a preview file in fake-data mode.
const FakePreview = "this\tis\ta\tfake\tpreview\nthis\tis\ta\tfake\tpreview\n"

// Entity collection URIs on the repository service.
const (
	ProjectURI  = "/project"
	DatasetURI  = "/dataset"
	LayerURI    = "/layer"
	LocationURI = "/location"
	PreviewURI  = "/preview"
)

// Project is the umbrella entity every dataset is parented to.
type Project struct {
	ID           string `json:"id,omitempty"`
	Name         string `json:"name"`
	Description  string `json:"description"`
	CreationDate string `json:"creationDate"`
	Creator      string `json:"creator"`
	ETag         string `json:"etag,omitempty"`
	URI          string `json:"uri,omitempty"`
}

// Dataset carries the primary fields of a dataset entity.
type Dataset struct {
	ID           string `json:"id,omitempty"`
	Name         string `json:"name,omitempty"`
	Description  string `json:"description,omitempty"`
	Creator      string `json:"creator,omitempty"`
	CreationDate string `json:"creationDate,omitempty"`
	Status       string `json:"status,omitempty"`
	ReleaseDate  string `json:"releaseDate,omitempty"`
	Version      string `json:"version,omitempty"`
	ParentID     string `json:"parentId,omitempty"`

	// Annotations is the URI of the dataset's annotation document, set by
	// the repository on creation.
	Annotations string `json:"annotations,omitempty"`
}

// Layer is one experimental data type/version under a dataset.
type Layer struct {
	ID         string `json:"id,omitempty"`
	ParentID   string `json:"parentId"`
	Type       string `json:"type"`
	Status     string `json:"status"`
	Name       string `json:"name"`
	NumSamples string `json:"numSamples"`
	Platform   string `json:"platform"`
	Version    string `json:"version"`
	QCBy       string `json:"qcBy"`
}

// Location points a layer at a stored file.
type Location struct {
	ID       string `json:"id,omitempty"`
	ParentID string `json:"parentId"`
	Type     string `json:"type"`
	Path     string `json:"path"`
	MD5Sum   string `json:"md5sum,omitempty"`
}

// Preview holds the first lines of a layer's file.
type Preview struct {
	ID            string `json:"id,omitempty"`
	ParentID      string `json:"parentId"`
	PreviewString string `json:"previewString"`
}

// Principal is a user or group known to the repository.
type Principal struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// PrincipalsResponse is the response for GET /principals.
type PrincipalsResponse struct {
	TotalNumberOfResults int         `json:"totalNumberOfResults"`
	Results              []Principal `json:"results"`
}

// ResourceAccess grants a principal a set of access types.
type ResourceAccess struct {
	UserGroupID string   `json:"userGroupId"`
	AccessType  []string `json:"accessType"`
}

// AccessControlList is the body PUT to an entity's acl URI.
type AccessControlList struct {
	ModifiedBy     string           `json:"modifiedBy"`
	ModifiedOn     string           `json:"modifiedOn"`
	ResourceAccess []ResourceAccess `json:"resourceAccess"`
}

// EntityList is a page of entities returned by a collection GET.
type EntityList struct {
	TotalNumberOfResults int              `json:"totalNumberOfResults"`
	Results              []map[string]any `json:"results"`
}
