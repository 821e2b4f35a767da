package main

import (
	"context"
	"flag"
	"fmt"
	"strconv"
	"strings"

	"github.com/araddon/dateparse"
	"github.com/geofetch/landsat-mirror/common"
	"github.com/geofetch/landsat-mirror/downloader"
	"github.com/geofetch/landsat-mirror/interface/catalog"
	"github.com/geofetch/landsat-mirror/interface/catalog/pg"
	"github.com/geofetch/landsat-mirror/interface/provider"
	"github.com/geofetch/landsat-mirror/service/log"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type config struct {
	DbConnection string
	Table        string
	SaveRoot     string

	AOI         string
	BBox        string
	Spacecraft  string
	Sensors     []string
	Collections []string
	MaxCloud    float64
	From        string
	To          string
	Limit       int
	PreOnly     bool

	Bands   []int
	WithMTL bool
	WithBQA bool

	WithGSProvider     bool
	AwsAccessKeyId     string
	AwsSecretAccessKey string
}

func newAppConfig() (*config, error) {
	config := config{}

	// Catalog store
	flag.StringVar(&config.DbConnection, "db", "", "connection to the catalog database (postgres://...)")
	flag.StringVar(&config.Table, "table", "landsat_index", "name of the Landsat index table")

	// Local storage
	flag.StringVar(&config.SaveRoot, "save-root", "", "root directory where products are mirrored")

	// Query predicate
	flag.StringVar(&config.AOI, "aoi", "", "WKT geometry the scene footprints must intersect (optional)")
	flag.StringVar(&config.BBox, "bbox", "", "lon/lat bounding box 'minLon,minLat,maxLon,maxLat' (optional, alternative to -aoi)")
	flag.StringVar(&config.Spacecraft, "spacecraft", "", "spacecraft filter, e.g. LANDSAT_5 (optional)")
	sensors := flag.String("sensors", "", "comma-separated sensor filter, e.g. TM,ETM (optional)")
	collections := flag.String("collections", "", "comma-separated collection filter among PRE,01,02 (optional)")
	flag.Float64Var(&config.MaxCloud, "max-cloud", -1, "maximum cloud cover in percent (optional)")
	flag.StringVar(&config.From, "from", "", "minimum acquisition date (optional)")
	flag.StringVar(&config.To, "to", "", "maximum acquisition date (optional)")
	flag.IntVar(&config.Limit, "limit", 0, "maximum number of records to mirror (optional)")
	flag.BoolVar(&config.PreOnly, "pre-only", false, "keep only the scenes available solely as pre-collection products (requires querying PRE together with the other collections)")

	// Artifacts
	bands := flag.String("bands", "", "comma-separated band numbers to download, e.g. 1,2,3,4,5")
	flag.BoolVar(&config.WithMTL, "with-mtl", true, "download the MTL metadata file")
	flag.BoolVar(&config.WithBQA, "with-bqa", true, "download the BQA quality mask (collection products only)")

	// Providers
	flag.BoolVar(&config.WithGSProvider, "gs-provider", false, "also read the bucket natively through the Google Storage API (optional fallback)")
	flag.StringVar(&config.AwsAccessKeyId, "aws-access-key-id", "", "AWS access key id (optional). To configure the USGS requester-pays bucket as a fallback provider.")
	flag.StringVar(&config.AwsSecretAccessKey, "aws-secret-access-key", "", "AWS secret access key (optional)")

	flag.Parse()

	if config.DbConnection == "" {
		return nil, fmt.Errorf("missing db config flag")
	}
	if config.SaveRoot == "" {
		return nil, fmt.Errorf("missing save-root config flag")
	}
	if *bands == "" {
		return nil, fmt.Errorf("missing bands config flag")
	}
	for _, b := range strings.Split(*bands, ",") {
		n, err := strconv.Atoi(strings.TrimSpace(b))
		if err != nil || n < 1 || n > 11 {
			return nil, fmt.Errorf("invalid band: %s", b)
		}
		config.Bands = append(config.Bands, n)
	}
	if *sensors != "" {
		config.Sensors = strings.Split(*sensors, ",")
	}
	if *collections != "" {
		config.Collections = strings.Split(*collections, ",")
	}
	if config.AOI != "" && config.BBox != "" {
		return nil, fmt.Errorf("aoi and bbox are exclusive")
	}
	return &config, nil
}

func newFilter(config *config) (catalog.Filter, error) {
	filter := catalog.Filter{
		Spacecraft:    config.Spacecraft,
		Sensors:       config.Sensors,
		MaxCloudCover: config.MaxCloud,
		Limit:         config.Limit,
	}

	var err error
	if config.AOI != "" {
		if filter.AOIWKT, err = catalog.ValidateAOI(config.AOI); err != nil {
			return filter, fmt.Errorf("aoi: %w", err)
		}
	}
	if config.BBox != "" {
		coords := strings.Split(config.BBox, ",")
		if len(coords) != 4 {
			return filter, fmt.Errorf("bbox: must be minLon,minLat,maxLon,maxLat")
		}
		bbox := [4]float64{}
		for i, c := range coords {
			if bbox[i], err = strconv.ParseFloat(strings.TrimSpace(c), 64); err != nil {
				return filter, fmt.Errorf("bbox: %w", err)
			}
		}
		if filter.AOIWKT, err = catalog.BBoxWKT(bbox[0], bbox[1], bbox[2], bbox[3]); err != nil {
			return filter, fmt.Errorf("bbox: %w", err)
		}
	}
	for _, c := range config.Collections {
		collection, err := common.GetCollectionFromString(c)
		if err != nil {
			return filter, err
		}
		filter.Collections = append(filter.Collections, collection)
	}
	if config.From != "" {
		if filter.From, err = dateparse.ParseAny(config.From); err != nil {
			return filter, fmt.Errorf("from: %w", err)
		}
	}
	if config.To != "" {
		if filter.To, err = dateparse.ParseAny(config.To); err != nil {
			return filter, fmt.Errorf("to: %w", err)
		}
	}
	return filter, nil
}

func main() {
	ctx := context.Background()
	err := run(ctx)
	if err != nil {
		log.Fatal("error", zap.Error(err))
	}
}

func run(ctx context.Context) error {
	config, err := newAppConfig()
	if err != nil {
		return err
	}
	ctx = log.With(ctx, "job", uuid.New().String())

	filter, err := newFilter(config)
	if err != nil {
		return err
	}

	// Catalog store
	store, err := pg.New(ctx, config.DbConnection, config.Table)
	if err != nil {
		return fmt.Errorf("catalog: %w", err)
	}
	defer store.Close()

	scenes, err := store.Scenes(ctx, filter)
	if err != nil {
		return fmt.Errorf("catalog: %w", err)
	}
	if config.PreOnly {
		scenes = catalog.PreOnly(scenes)
	}
	log.Logger(ctx).Sugar().Infof("%d scenes selected", len(scenes))

	// Artifact providers, tried in order
	providers := []provider.ArtifactProvider{provider.NewHTTPProvider()}
	if config.WithGSProvider {
		providers = append(providers, provider.NewGSProvider())
	}
	if config.AwsAccessKeyId != "" {
		providers = append(providers, provider.NewS3Provider(config.AwsAccessKeyId, config.AwsSecretAccessKey))
	}

	req := common.ArtifactRequest{
		Bands:       config.Bands,
		QualityMask: config.WithBQA,
		Metadata:    config.WithMTL,
	}

	log.Logger(ctx).Debug("downloader starts, downloading images from " + downloader.ProviderNames(providers) + " exporting to " + config.SaveRoot)
	return downloader.ProcessScenes(ctx, providers, config.SaveRoot, scenes, req)
}
