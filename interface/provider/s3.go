package provider

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/geofetch/landsat-mirror/common"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

const (
	usgsBucket         = "usgs-landsat"
	usgsPrefixTemplate = "collection02/level-1/standard/%s/%s/%s/%s/%s/"
	usgsRegion         = "us-west-2"
)

// S3Provider implements ArtifactProvider for the USGS collection-2
// requester-pays bucket. Only collection-02 products are addressable there.
type S3Provider struct {
	accessKeyId     string
	secretAccessKey string
}

// NewS3Provider creates a new ArtifactProvider from the USGS bucket.
// Credentials are required: the bucket is requester-pays.
func NewS3Provider(accessKeyId, secretAccessKey string) *S3Provider {
	return &S3Provider{accessKeyId, secretAccessKey}
}

// Name implements ArtifactProvider
func (p *S3Provider) Name() string {
	return "UsgsS3"
}

// Download implements ArtifactProvider
func (p *S3Provider) Download(ctx context.Context, scene common.Scene, artifact common.Artifact, localFile string) error {
	if scene.Collection != common.Collection2 {
		return fmt.Errorf("S3Provider: only collection 02 products are available on %s", usgsBucket)
	}
	key := scene.Key()
	info, err := common.Info(key)
	if err != nil {
		return fmt.Errorf("S3Provider.common.Info: %w", err)
	}
	objectKey := fmt.Sprintf(usgsPrefixTemplate, info["COLLECTION"], info["YEAR"], info["PATH"], info["ROW"], key) + artifact.RemoteName(key)

	cfg, err := config.LoadDefaultConfig(ctx,
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(p.accessKeyId, p.secretAccessKey, "")),
		config.WithRegion(usgsRegion),
	)
	if err != nil {
		return fmt.Errorf("S3Provider config.LoadDefaultConfig: %w", err)
	}

	client := s3.NewFromConfig(cfg)
	downloader := manager.NewDownloader(client, func(d *manager.Downloader) {
		d.PartSize = 10 * 1024 * 1024 // 10MB per part
	})

	partFile := localFile + ".part"
	file, err := os.Create(partFile)
	if err != nil {
		return fmt.Errorf("S3Provider: failed to create file %s: %w", partFile, err)
	}

	_, err = downloader.Download(ctx, file, &s3.GetObjectInput{
		Bucket:       aws.String(usgsBucket),
		Key:          aws.String(objectKey),
		RequestPayer: "requester",
	})
	if err != nil {
		file.Close()
		var noKey *types.NoSuchKey
		if errors.As(err, &noKey) {
			return fmt.Errorf("S3Provider.%w", ErrArtifactNotFound{URL: "s3://" + usgsBucket + "/" + objectKey})
		}
		return fmt.Errorf("S3Provider: failed to download object %s:%s: %w", usgsBucket, objectKey, err)
	}
	if err := file.Close(); err != nil {
		return fmt.Errorf("S3Provider.Close: %w", err)
	}
	if err := os.Rename(partFile, localFile); err != nil {
		return fmt.Errorf("S3Provider.Rename: %w", err)
	}
	return nil
}
