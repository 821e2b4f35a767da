package provider

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/cavaliercoder/grab"
	"github.com/geofetch/landsat-mirror/service"
	"github.com/geofetch/landsat-mirror/service/log"
)

const (
	connectTimeout = 5 * time.Second
	readTimeout    = 5 * time.Second
)

// ErrArtifactNotFound is an error returned when an artifact is not found or
// available at its derived remote location.
type ErrArtifactNotFound struct {
	URL string
}

func (e ErrArtifactNotFound) Error() string {
	return fmt.Sprintf("Artifact not found or unavailable: %s", e.URL)
}

func fmtBytes(bytes int64) string {
	v := float64(bytes)
	switch {
	case v > 1<<30:
		return fmt.Sprintf("%.2fGo", v/(1<<30))
	case v > 1<<20:
		return fmt.Sprintf("%.2fMo", v/(1<<20))
	case v > 1<<10:
		return fmt.Sprintf("%.2fko", v/(1<<10))
	default:
		return fmt.Sprintf("%.2fo", v)
	}
}

func displayProgress(ctx context.Context, prefix string, resp *grab.Response, progressPeriod float64) {
	t := time.NewTicker(time.Second)
	defer t.Stop()

	progress, lastBytes, seconds := 0.0, int64(0), int64(0)
	for {
		select {
		case <-t.C:
			seconds++
			if resp.Progress() > progress {
				log.Logger(ctx).Sugar().Debugf("%s: %.2f%% %s/%s (%s/s)", prefix, 100*resp.Progress(), fmtBytes(resp.BytesComplete()), fmtBytes(resp.Size), fmtBytes((resp.BytesComplete()-lastBytes)/seconds))
				seconds = 0
				progress += progressPeriod
				lastBytes = resp.BytesComplete()
			}

		case <-resp.Done:
			return
		}
	}
}

// downloadFile streams url to localFile with display every 5%. The transfer
// is staged in localFile+".part" and renamed into place on success, so a
// partial download is never visible at the final path. A ".part" file left
// behind by a crash is orphaned: no resume is attempted.
func downloadFile(ctx context.Context, url, localFile, displayPrefix string) error {
	partFile := localFile + ".part"
	req, err := grab.NewRequest(partFile, url)
	if err != nil {
		return fmt.Errorf("downloadFile.NewRequest: %w", err)
	}
	req.NoResume = true
	req = req.WithContext(ctx)

	client := grab.NewClient()
	client.HTTPClient = &http.Client{
		Transport: &http.Transport{
			DialContext:           (&net.Dialer{Timeout: connectTimeout}).DialContext,
			ResponseHeaderTimeout: readTimeout,
		},
	}
	resp := client.Do(req)

	displayProgress(ctx, displayPrefix, resp, 0.05)

	if err := resp.Err(); err != nil {
		err = fmt.Errorf("downloadFile[%s]: %w", url, err)
		if resp.HTTPResponse == nil {
			return service.MakeTemporary(err)
		}
		switch {
		case resp.HTTPResponse.StatusCode == 408 || resp.HTTPResponse.StatusCode == 429 || resp.HTTPResponse.StatusCode >= 500:
			return service.MakeTemporary(err)
		case resp.HTTPResponse.StatusCode >= 400:
			return fmt.Errorf("downloadFile.%w", ErrArtifactNotFound{URL: url})
		default:
			return err
		}
	}

	if err := os.Rename(partFile, localFile); err != nil {
		return fmt.Errorf("downloadFile.Rename: %w", err)
	}
	return nil
}
