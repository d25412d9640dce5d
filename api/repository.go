package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/helix-tools/metadata-loader/types"
)

// ErrNoSessionToken is returned when the auth service accepts the
// credentials but issues no token.
var ErrNoSessionToken = errors.New("authentication response carried no session token")

// Authenticate exchanges a user name and password for a session token used
// on every later request.
func (c *Client) Authenticate(ctx context.Context, user, password string) error {
	body := map[string]string{
		"email":    user,
		"password": password,
	}

	var resp struct {
		SessionToken string `json:"sessionToken"`
	}

	if err := c.do(ctx, http.MethodPost, c.resolve(c.authURL, "/session"), nil, body, &resp); err != nil {
		return fmt.Errorf("authenticate %s: %w", user, err)
	}

	if resp.SessionToken == "" {
		return ErrNoSessionToken
	}

	c.sessionToken = resp.SessionToken

	return nil
}

// GetPrincipals lists the users and groups known to the repository.
func (c *Client) GetPrincipals(ctx context.Context) ([]types.Principal, error) {
	var resp types.PrincipalsResponse

	if err := c.Get(ctx, "/principals", &resp); err != nil {
		return nil, fmt.Errorf("get principals: %w", err)
	}

	return resp.Results, nil
}

// CreateEntity POSTs entity to the collection at uri and decodes the created
// entity into result.
func (c *Client) CreateEntity(ctx context.Context, uri string, entity, result any) error {
	if err := c.Post(ctx, uri, entity, result); err != nil {
		return fmt.Errorf("create %s: %w", uri, err)
	}

	return nil
}

// GetEntity GETs the entity or collection at uri.
func (c *Client) GetEntity(ctx context.Context, uri string, result any) error {
	if err := c.Get(ctx, uri, result); err != nil {
		return fmt.Errorf("get %s: %w", uri, err)
	}

	return nil
}

// UpdateEntity reads the entity at uri, merges payload into it and PUTs the
// result back, passing the entity's etag so concurrent edits are rejected.
func (c *Client) UpdateEntity(ctx context.Context, uri string, payload map[string]any) error {
	current := map[string]any{}
	if err := c.Get(ctx, uri, &current); err != nil {
		return fmt.Errorf("update %s: read current: %w", uri, err)
	}

	var headers map[string]string
	if etag, ok := current["etag"].(string); ok && etag != "" {
		headers = map[string]string{"ETag": etag}
	}

	merged := deepMergeMaps(current, payload)

	if err := c.do(ctx, http.MethodPut, c.resolve(c.repoURL, uri), headers, merged, nil); err != nil {
		return fmt.Errorf("update %s: %w", uri, err)
	}

	return nil
}

// DeleteEntity deletes the entity at uri. A missing entity is not an error.
func (c *Client) DeleteEntity(ctx context.Context, uri string) error {
	if err := c.Delete(ctx, uri); err != nil && !IsNotFoundError(err) {
		return fmt.Errorf("delete %s: %w", uri, err)
	}

	return nil
}

func deepMergeMaps(base, overrides map[string]any) map[string]any {
	if overrides == nil {
		return base
	}
	for key, value := range overrides {
		if existing, ok := base[key]; ok {
			existingMap, existingIsMap := existing.(map[string]any)
			valueMap, valueIsMap := value.(map[string]any)
			if existingIsMap && valueIsMap {
				deepMergeMaps(existingMap, valueMap)
				continue
			}
		}
		base[key] = value
	}
	return base
}
