package provider

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/geofetch/landsat-mirror/common"
)

func TestPublicURL(t *testing.T) {
	base := "gs://gcp-public-data-landsat/LT05/PRE/005/013/LT50050131991221KIS00"

	url, err := PublicURL(base, common.Band(4))
	if err != nil {
		t.Fatal(err)
	}
	expected := "https://storage.googleapis.com/gcp-public-data-landsat/LT05/PRE/005/013/LT50050131991221KIS00/LT50050131991221KIS00_B4.TIF"
	if url != expected {
		t.Errorf("expecting %s, got %s", expected, url)
	}

	url, err = PublicURL(base, common.Metadata())
	if err != nil {
		t.Fatal(err)
	}
	if url != "https://storage.googleapis.com/gcp-public-data-landsat/LT05/PRE/005/013/LT50050131991221KIS00/LT50050131991221KIS00_MTL.txt" {
		t.Errorf("unexpected metadata url %s", url)
	}

	if _, err := PublicURL("s3://other-bucket/LT05", common.Band(4)); err == nil {
		t.Error("expecting error for a non-gs base path")
	}
}

func testScene() common.Scene {
	return common.Scene{
		SceneID:    "LT50050131991221KIS00",
		Spacecraft: "LANDSAT_5",
		SensorID:   "TM",
		Collection: common.CollectionPre,
		BaseURL:    "gs://landsat/LT05/PRE/005/013/LT50050131991221KIS00",
	}
}

func TestHTTPProviderDownload(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/landsat/LT05/PRE/005/013/LT50050131991221KIS00/LT50050131991221KIS00_B4.TIF" {
			http.NotFound(w, r)
			return
		}
		w.Write([]byte("imagery"))
	}))
	defer ts.Close()

	p := NewHTTPProviderFor("gs://", ts.URL+"/")
	dir := t.TempDir()
	localFile := filepath.Join(dir, "LT50050131991221KIS00_B4.TIF")

	if err := p.Download(context.Background(), testScene(), common.Band(4), localFile); err != nil {
		t.Fatal(err)
	}
	content, err := os.ReadFile(localFile)
	if err != nil {
		t.Fatal(err)
	}
	if string(content) != "imagery" {
		t.Errorf("unexpected content %q", content)
	}
	if _, err := os.Stat(localFile + ".part"); !os.IsNotExist(err) {
		t.Error("expecting the .part file to be renamed away")
	}
}

func TestHTTPProviderNotFound(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(http.NotFound))
	defer ts.Close()

	p := NewHTTPProviderFor("gs://", ts.URL+"/")
	dir := t.TempDir()
	localFile := filepath.Join(dir, "LT50050131991221KIS00_B4.TIF")

	err := p.Download(context.Background(), testScene(), common.Band(4), localFile)
	var notFound ErrArtifactNotFound
	if !errors.As(err, &notFound) {
		t.Fatalf("expecting ErrArtifactNotFound, got %v", err)
	}
	if _, err := os.Stat(localFile); !os.IsNotExist(err) {
		t.Error("no file must be visible at the final path")
	}
}

func TestHTTPProviderInterrupted(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Length", "1000000")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("partial"))
		if f, ok := w.(http.Flusher); ok {
			f.Flush()
		}
		panic(http.ErrAbortHandler)
	}))
	defer ts.Close()

	p := NewHTTPProviderFor("gs://", ts.URL+"/")
	dir := t.TempDir()
	localFile := filepath.Join(dir, "LT50050131991221KIS00_B4.TIF")

	if err := p.Download(context.Background(), testScene(), common.Band(4), localFile); err == nil {
		t.Fatal("expecting the interrupted download to fail")
	}
	// only the .part staging file may remain
	if _, err := os.Stat(localFile); !os.IsNotExist(err) {
		t.Error("an interrupted download must never be visible at the final path")
	}
}
