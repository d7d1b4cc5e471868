// internal/infra/secrets/secretmanager.go
package secrets

import (
	"context"
	"errors"
	"fmt"
	"strings"

	secretmanager "cloud.google.com/go/secretmanager/apiv1"
	secretmanagerpb "cloud.google.com/go/secretmanager/apiv1/secretmanagerpb"
)

const refPrefix = "sm://"

var (
	ErrNotConfigured = errors.New("secrets: secret manager not configured")
	ErrInvalidRef    = errors.New("secrets: invalid secret reference")
)

// AccessFunc fetches the payload of a fully qualified secret version name.
type AccessFunc func(ctx context.Context, name string) ([]byte, error)

// Resolver resolves sm://<secret>[#version] references against one project.
// Fully qualified references (sm://projects/<p>/secrets/<s>/versions/<v>)
// are passed through unchanged.
type Resolver struct {
	projectID string
	access    AccessFunc
}

// NewResolver wraps a Secret Manager client.
func NewResolver(client *secretmanager.Client, projectID string) *Resolver {
	if client == nil {
		return &Resolver{projectID: strings.TrimSpace(projectID)}
	}
	return NewResolverFunc(projectID, func(ctx context.Context, name string) ([]byte, error) {
		resp, err := client.AccessSecretVersion(ctx, &secretmanagerpb.AccessSecretVersionRequest{Name: name})
		if err != nil {
			return nil, err
		}
		if resp == nil || resp.Payload == nil {
			return nil, fmt.Errorf("empty payload (%s)", name)
		}
		return resp.Payload.Data, nil
	})
}

func NewResolverFunc(projectID string, access AccessFunc) *Resolver {
	return &Resolver{projectID: strings.TrimSpace(projectID), access: access}
}

// Resolve returns the trimmed secret payload.
func (r *Resolver) Resolve(ctx context.Context, ref string) (string, error) {
	if r == nil || r.access == nil {
		return "", ErrNotConfigured
	}
	name, err := VersionName(r.projectID, ref)
	if err != nil {
		return "", err
	}
	data, err := r.access(ctx, name)
	if err != nil {
		return "", fmt.Errorf("secrets: AccessSecretVersion failed (%s): %w", name, err)
	}
	return strings.TrimSpace(string(data)), nil
}

// VersionName maps a reference to projects/<p>/secrets/<id>/versions/<v>.
func VersionName(projectID, ref string) (string, error) {
	ref = strings.TrimSpace(ref)
	if !strings.HasPrefix(ref, refPrefix) {
		return "", fmt.Errorf("%w: missing %s prefix (got %q)", ErrInvalidRef, refPrefix, ref)
	}
	body := strings.TrimPrefix(ref, refPrefix)

	if strings.HasPrefix(body, "projects/") {
		parts := strings.Split(body, "/")
		if len(parts) != 6 || parts[2] != "secrets" || parts[4] != "versions" || parts[1] == "" || parts[3] == "" || parts[5] == "" {
			return "", fmt.Errorf("%w: %q", ErrInvalidRef, ref)
		}
		return body, nil
	}

	id, ver, _ := strings.Cut(body, "#")
	id = strings.TrimSpace(id)
	ver = strings.TrimSpace(ver)
	if id == "" || strings.Contains(id, "/") {
		return "", fmt.Errorf("%w: %q", ErrInvalidRef, ref)
	}
	if ver == "" {
		ver = "latest"
	}
	prj := strings.TrimSpace(projectID)
	if prj == "" {
		return "", fmt.Errorf("%w: projectID is empty for %q", ErrInvalidRef, ref)
	}
	return "projects/" + prj + "/secrets/" + id + "/versions/" + ver, nil
}
