// Package downloader mirrors the requested artifacts of catalog records onto
// local disk, one scene at a time, one artifact at a time.
//
// Running two processes against the same save root is unsafe: the
// exists-then-write pattern is not atomic against concurrent writers.
package downloader

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/geofetch/landsat-mirror/common"
	"github.com/geofetch/landsat-mirror/interface/provider"
	"github.com/geofetch/landsat-mirror/service"
	"github.com/geofetch/landsat-mirror/service/log"
	"github.com/mholt/archiver"
	"go.uber.org/zap"
)

// ProcessScenes downloads the missing artifacts of each scene, skipping the
// ones already present. A failed band invalidates the product (its directory
// is removed) but not the batch; a failed auxiliary artifact is only logged.
func ProcessScenes(ctx context.Context, providers []provider.ArtifactProvider, saveRoot string, scenes []common.Scene, req common.ArtifactRequest) error {
	for i, scene := range scenes {
		log.Logger(ctx).Sugar().Infof("%d/%d %s", i+1, len(scenes), scene.Key())
		if err := ProcessScene(log.With(ctx, "image", scene.Key()), providers, saveRoot, scene, req); err != nil {
			return fmt.Errorf("ProcessScenes.%w", err)
		}
	}
	log.Logger(ctx).Info("downloading finished")
	return nil
}

// ProcessScene downloads the missing artifacts of one scene.
func ProcessScene(ctx context.Context, providers []provider.ArtifactProvider, saveRoot string, scene common.Scene, req common.ArtifactRequest) error {
	complete, status := CheckProductAvailable(saveRoot, scene, req)
	if complete {
		log.Logger(ctx).Sugar().Debugf("%s already complete", scene.Key())
		return nil
	}

	productDir := ProductDir(saveRoot, scene)
	if err := os.MkdirAll(productDir, 0755); err != nil {
		return fmt.Errorf("ProcessScene.MkdirAll: %w", err)
	}

	for _, artifact := range req.Expand(scene) {
		if status[artifact] {
			continue
		}
		if err := downloadArtifact(ctx, providers, saveRoot, scene, artifact); err != nil {
			if service.Fatal(err) {
				return fmt.Errorf("ProcessScene.%w", err)
			}
			if artifact.Essential() {
				// all-or-nothing for the imagery payload
				log.Logger(ctx).Warn("band download failed, deleting already-downloaded files", zap.String("artifact", artifact.String()), zap.Error(err))
				if rmErr := os.RemoveAll(productDir); rmErr != nil {
					return fmt.Errorf("ProcessScene.RemoveAll: %w", rmErr)
				}
				return nil
			}
			log.Logger(ctx).Warn("artifact download failed", zap.String("artifact", artifact.String()), zap.Error(err))
		}
	}
	return nil
}

// downloadArtifact fetches one artifact with the first successful provider,
// then decompresses it when the artifact is published compressed.
func downloadArtifact(ctx context.Context, providers []provider.ArtifactProvider, saveRoot string, scene common.Scene, artifact common.Artifact) error {
	localFile := ArtifactPath(saveRoot, scene, artifact)
	if err := os.MkdirAll(filepath.Dir(localFile), 0755); err != nil {
		return fmt.Errorf("downloadArtifact.MkdirAll: %w", err)
	}

	destFile := localFile
	if artifact.Compressed() {
		destFile = localFile + ".gz"
	}

	var err error
	for _, p := range providers {
		e := p.Download(ctx, scene, artifact, destFile)
		if err = service.MergeErrors(false, err, e); err == nil {
			break
		}
		log.Logger(ctx).Sugar().Warnf("%v", e)
	}
	if err != nil {
		return fmt.Errorf("downloadArtifact.Providers.%w", err)
	}

	if artifact.Compressed() {
		if err := decompress(destFile, localFile); err != nil {
			// a corrupt gap mask aborts the run
			return service.MakeFatal(fmt.Errorf("downloadArtifact.%w", err))
		}
	}
	return nil
}

// decompress gzFile to localFile and remove gzFile.
func decompress(gzFile, localFile string) error {
	if err := archiver.DecompressFile(gzFile, localFile); err != nil {
		return fmt.Errorf("decompress[%s]: %w", filepath.Base(gzFile), err)
	}
	if err := os.Remove(gzFile); err != nil {
		return fmt.Errorf("decompress.Remove: %w", err)
	}
	return nil
}

// ProviderNames returns a display string for a provider chain.
func ProviderNames(providers []provider.ArtifactProvider) string {
	names := make([]string, len(providers))
	for i, p := range providers {
		names[i] = p.Name()
	}
	return strings.Join(names, ", ")
}
