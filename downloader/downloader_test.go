package downloader

import (
	"bytes"
	"compress/gzip"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"sync/atomic"
	"testing"

	"github.com/geofetch/landsat-mirror/common"
	"github.com/geofetch/landsat-mirror/interface/provider"
)

// bucketServer serves the given object names under the layout of the public
// bucket and counts the requests.
type bucketServer struct {
	*httptest.Server
	requests int64
	objects  map[string][]byte
}

func newBucketServer(objects map[string][]byte) *bucketServer {
	bs := &bucketServer{objects: objects}
	bs.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			atomic.AddInt64(&bs.requests, 1)
		}
		if content, ok := bs.objects[r.URL.Path]; ok {
			w.Write(content)
			return
		}
		http.NotFound(w, r)
	}))
	return bs
}

func (bs *bucketServer) providers() []provider.ArtifactProvider {
	return []provider.ArtifactProvider{provider.NewHTTPProviderFor("gs://", bs.URL+"/")}
}

func gzipped(t *testing.T, content string) []byte {
	t.Helper()
	var buf bytes.Buffer
	w := gzip.NewWriter(&buf)
	if _, err := w.Write([]byte(content)); err != nil {
		t.Fatal(err)
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func tmScene() common.Scene {
	return common.Scene{
		SceneID:    "LT50050131991221KIS00",
		Spacecraft: "LANDSAT_5",
		SensorID:   "TM",
		Collection: common.CollectionPre,
		BaseURL:    "gs://landsat/LT05/PRE/005/013/LT50050131991221KIS00",
	}
}

func TestProcessScenesIdempotent(t *testing.T) {
	base := "/landsat/LT05/PRE/005/013/LT50050131991221KIS00/LT50050131991221KIS00"
	bs := newBucketServer(map[string][]byte{
		base + "_B1.TIF":  []byte("b1"),
		base + "_B2.TIF":  []byte("b2"),
		base + "_MTL.txt": []byte("mtl"),
	})
	defer bs.Close()

	root := t.TempDir()
	scenes := []common.Scene{tmScene()}
	req := common.ArtifactRequest{Bands: []int{1, 2}, Metadata: true}

	ctx := context.Background()
	if err := ProcessScenes(ctx, bs.providers(), root, scenes, req); err != nil {
		t.Fatal(err)
	}
	if complete, _ := CheckProductAvailable(root, scenes[0], req); !complete {
		t.Fatal("expecting complete product after first run")
	}
	firstRun := atomic.LoadInt64(&bs.requests)
	if firstRun != 3 {
		t.Errorf("expecting 3 requests, got %d", firstRun)
	}

	// second run must not hit the network at all
	if err := ProcessScenes(ctx, bs.providers(), root, scenes, req); err != nil {
		t.Fatal(err)
	}
	if got := atomic.LoadInt64(&bs.requests); got != firstRun {
		t.Errorf("expecting no further requests, got %d", got-firstRun)
	}
}

func TestProcessSceneBandFailureCleansUp(t *testing.T) {
	base := "/landsat/LT05/PRE/005/013/LT50050131991221KIS00/LT50050131991221KIS00"
	// B2 is missing remotely
	bs := newBucketServer(map[string][]byte{
		base + "_B1.TIF":  []byte("b1"),
		base + "_MTL.txt": []byte("mtl"),
	})
	defer bs.Close()

	root := t.TempDir()
	scene := tmScene()
	req := common.ArtifactRequest{Bands: []int{1, 2}, Metadata: true}

	if err := ProcessScene(context.Background(), bs.providers(), root, scene, req); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(ProductDir(root, scene)); !os.IsNotExist(err) {
		t.Error("expecting the product directory to be removed after a band failure")
	}
}

func TestProcessSceneAuxiliaryFailureKeepsSiblings(t *testing.T) {
	base := "/landsat/LT05/PRE/005/013/LT50050131991221KIS00/LT50050131991221KIS00"
	// MTL is missing remotely
	bs := newBucketServer(map[string][]byte{
		base + "_B1.TIF": []byte("b1"),
	})
	defer bs.Close()

	root := t.TempDir()
	scene := tmScene()
	req := common.ArtifactRequest{Bands: []int{1}, Metadata: true}

	if err := ProcessScene(context.Background(), bs.providers(), root, scene, req); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(ArtifactPath(root, scene, common.Band(1))); err != nil {
		t.Error("expecting the downloaded band to survive an auxiliary failure")
	}
}

func TestProcessSceneGapMasks(t *testing.T) {
	scene := common.Scene{
		SceneID:    "LE70050132003124EDC00",
		Spacecraft: "LANDSAT_7",
		SensorID:   "ETM",
		Collection: common.Collection1,
		BaseURL:    "gs://landsat/LE07/01/005/013/LE70050132003124EDC00",
	}
	dir := "/landsat/LE07/01/005/013/LE70050132003124EDC00"
	bs := newBucketServer(map[string][]byte{
		dir + "/LE70050132003124EDC00_B3.TIF":                []byte("b3"),
		dir + "/gap_mask/LE70050132003124EDC00_GM_B3.TIF.gz": gzipped(t, "gapmask"),
	})
	defer bs.Close()

	root := t.TempDir()
	req := common.ArtifactRequest{Bands: []int{3}}

	if err := ProcessScene(context.Background(), bs.providers(), root, scene, req); err != nil {
		t.Fatal(err)
	}

	gapMask := ArtifactPath(root, scene, common.GapMask(3))
	content, err := os.ReadFile(gapMask)
	if err != nil {
		t.Fatal(err)
	}
	if string(content) != "gapmask" {
		t.Errorf("expecting the gap mask to be decompressed, got %q", content)
	}
	if _, err := os.Stat(gapMask + ".gz"); !os.IsNotExist(err) {
		t.Error("expecting the compressed gap mask to be removed")
	}
	if complete, _ := CheckProductAvailable(root, scene, req); !complete {
		t.Error("expecting complete product after gap mask decompression")
	}
}
