package provider

import (
	"context"
	"fmt"
	"path"
	"strings"

	"github.com/geofetch/landsat-mirror/common"
	"github.com/geofetch/landsat-mirror/service/log"
)

const (
	// DefaultGSAccess is the object-storage scheme prefix of the catalog base paths
	DefaultGSAccess = "gs://"
	// DefaultHTTPAccess is its public HTTP-accessible equivalent
	DefaultHTTPAccess = "https://storage.googleapis.com/"
)

// HTTPProvider implements ArtifactProvider for the public, unauthenticated
// HTTP mirror of the Landsat bucket.
type HTTPProvider struct {
	gsAccess   string
	httpAccess string
}

// NewHTTPProvider creates an ArtifactProvider for the public Landsat bucket.
func NewHTTPProvider() *HTTPProvider {
	return &HTTPProvider{gsAccess: DefaultGSAccess, httpAccess: DefaultHTTPAccess}
}

// NewHTTPProviderFor creates an ArtifactProvider rewriting gsAccess base
// paths to the mirror at httpAccess.
func NewHTTPProviderFor(gsAccess, httpAccess string) *HTTPProvider {
	return &HTTPProvider{gsAccess: gsAccess, httpAccess: httpAccess}
}

// Name implements ArtifactProvider
func (p *HTTPProvider) Name() string {
	return "HTTP"
}

// publicURL derives the download URL of an artifact from the scene's
// object-storage base path: the storage scheme prefix is rewritten to its
// HTTP equivalent and the artifact suffix is appended to the trailing scene
// name. The mapping is the provider's fixed naming convention: any deviation
// is a 404.
func (p *HTTPProvider) publicURL(baseURL string, artifact common.Artifact) (string, error) {
	if !strings.HasPrefix(baseURL, p.gsAccess) {
		return "", fmt.Errorf("publicURL: base path %s does not start with %s", baseURL, p.gsAccess)
	}
	httpBase := p.httpAccess + strings.TrimPrefix(baseURL, p.gsAccess)
	return httpBase + "/" + artifact.RemoteName(path.Base(baseURL)), nil
}

// PublicURL derives the public download URL of an artifact of a catalog
// record with base path baseURL.
func PublicURL(baseURL string, artifact common.Artifact) (string, error) {
	return NewHTTPProvider().publicURL(baseURL, artifact)
}

// Download implements ArtifactProvider
func (p *HTTPProvider) Download(ctx context.Context, scene common.Scene, artifact common.Artifact, localFile string) error {
	url, err := p.publicURL(scene.BaseURL, artifact)
	if err != nil {
		return fmt.Errorf("HTTPProvider: %w", err)
	}
	log.Logger(ctx).Sugar().Debugf("GET %s", url)
	if err := downloadFile(ctx, url, localFile, p.Name()+":"+scene.Key()); err != nil {
		return fmt.Errorf("HTTPProvider.%w", err)
	}
	return nil
}
