package provider

import (
	"context"

	"github.com/geofetch/landsat-mirror/common"
)

// ArtifactProvider is the interface of an artifact download service.
type ArtifactProvider interface {
	// Download one artifact of a scene to localFile. The file is only
	// visible at localFile after a full, successful transfer.
	Download(ctx context.Context, scene common.Scene, artifact common.Artifact, localFile string) error

	// Name of the provider
	Name() string
}
