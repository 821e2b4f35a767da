package provider

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"strings"

	"cloud.google.com/go/storage"
	"github.com/geofetch/landsat-mirror/common"
	"github.com/geofetch/landsat-mirror/service"
	"google.golang.org/api/option"
)

// GSProvider implements ArtifactProvider reading the public Landsat bucket
// natively through the Google Storage API (anonymous access).
type GSProvider struct {
}

// NewGSProvider creates a new ArtifactProvider from the Google Storage Landsat bucket
func NewGSProvider() *GSProvider {
	return &GSProvider{}
}

// Name implements ArtifactProvider
func (p *GSProvider) Name() string {
	return "GoogleStorage"
}

// parseGsURI splits gs://bucket/prefix into bucket and prefix.
func parseGsURI(uri string) (bucket, prefix string, err error) {
	if !strings.HasPrefix(uri, "gs://") {
		return "", "", fmt.Errorf("parseGsURI: not a gs:// uri: %s", uri)
	}
	uri = strings.TrimPrefix(uri, "gs://")
	i := strings.Index(uri, "/")
	if i <= 0 || i == len(uri)-1 {
		return "", "", fmt.Errorf("parseGsURI: missing bucket or object: %s", uri)
	}
	return uri[:i], uri[i+1:], nil
}

// Download implements ArtifactProvider
func (p *GSProvider) Download(ctx context.Context, scene common.Scene, artifact common.Artifact, localFile string) error {
	bucket, prefix, err := parseGsURI(scene.BaseURL)
	if err != nil {
		return fmt.Errorf("GSProvider: %w", err)
	}
	object := prefix + "/" + artifact.RemoteName(path.Base(scene.BaseURL))

	client, err := storage.NewClient(ctx, option.WithoutAuthentication())
	if err != nil {
		return service.MakeTemporary(fmt.Errorf("GSProvider.NewClient: %w", err))
	}
	defer client.Close()

	r, err := client.Bucket(bucket).Object(object).NewReader(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotExist) {
			return fmt.Errorf("GSProvider.%w", ErrArtifactNotFound{URL: "gs://" + bucket + "/" + object})
		}
		return fmt.Errorf("GSProvider.NewReader[%s]: %w", object, err)
	}
	defer r.Close()

	partFile := localFile + ".part"
	f, err := os.Create(partFile)
	if err != nil {
		return fmt.Errorf("GSProvider.Create: %w", err)
	}
	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		return service.MakeTemporary(fmt.Errorf("GSProvider.Copy[%s]: %w", object, err))
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("GSProvider.Close: %w", err)
	}
	if err := os.Rename(partFile, localFile); err != nil {
		return fmt.Errorf("GSProvider.Rename: %w", err)
	}
	return nil
}
