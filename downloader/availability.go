package downloader

import (
	"os"
	"path/filepath"

	"github.com/geofetch/landsat-mirror/common"
)

// ProductDir returns the canonical local directory of a product:
// <saveRoot>/<sensor>/<key>.
func ProductDir(saveRoot string, scene common.Scene) string {
	return filepath.Join(saveRoot, scene.SensorID, scene.Key())
}

// ArtifactPath returns the canonical local path of an artifact. It is a pure
// function of (saveRoot, sensor, key, artifact) and distinct artifacts never
// map to the same path.
func ArtifactPath(saveRoot string, scene common.Scene, artifact common.Artifact) string {
	return filepath.Join(ProductDir(saveRoot, scene), filepath.FromSlash(artifact.LocalName(scene.Key())))
}

// CheckProductAvailable reports whether the requested artifacts of a product
// are complete on local disk, and the per-artifact presence map. The request
// is expanded per scene (quality mask and gap masks are conditional), so for
// a gap-mask-bearing sensor a band is only complete together with its gap
// mask. Purely local: no network access.
func CheckProductAvailable(saveRoot string, scene common.Scene, req common.ArtifactRequest) (bool, map[common.Artifact]bool) {
	complete := true
	status := map[common.Artifact]bool{}
	for _, artifact := range req.Expand(scene) {
		if _, err := os.Stat(ArtifactPath(saveRoot, scene, artifact)); err == nil {
			status[artifact] = true
		} else {
			status[artifact] = false
			complete = false
		}
	}
	return complete, status
}
