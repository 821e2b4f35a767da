package common

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

// Collection is the catalog-provider versioning tier of a Landsat product:
// the legacy pre-collection tier or a numbered reprocessing collection.
type Collection int

const (
	CollectionUnknown Collection = iota
	CollectionPre                // pre-collection legacy products, identified by scene id only
	Collection1
	Collection2
)

func (c Collection) String() string {
	switch c {
	case CollectionPre:
		return "PRE"
	case Collection1:
		return "01"
	case Collection2:
		return "02"
	}
	return "UNKNOWN"
}

// GetCollectionFromString parses a collection_number value as found in the
// GCP Landsat index ("PRE", "01", "02", sometimes unpadded).
func GetCollectionFromString(input string) (Collection, error) {
	switch strings.ToUpper(strings.TrimSpace(input)) {
	case "PRE":
		return CollectionPre, nil
	case "1", "01":
		return Collection1, nil
	case "2", "02":
		return Collection2, nil
	}
	return CollectionUnknown, fmt.Errorf("unknown collection: %s", input)
}

// ArtifactKind discriminates the closed set of downloadable artifacts of a
// Landsat product.
type ArtifactKind int

const (
	BandArtifact        ArtifactKind = iota // one spectral channel image
	QualityMaskArtifact                     // per-pixel quality raster
	MetadataArtifact                        // acquisition parameters text file
	GapMaskArtifact                         // SLC-off missing-data raster (ETM+ only)
)

// Artifact identifies one file of a Landsat product. Band is set for
// BandArtifact and GapMaskArtifact only.
type Artifact struct {
	Kind ArtifactKind
	Band int
}

func Band(n int) Artifact    { return Artifact{Kind: BandArtifact, Band: n} }
func QualityMask() Artifact  { return Artifact{Kind: QualityMaskArtifact} }
func Metadata() Artifact     { return Artifact{Kind: MetadataArtifact} }
func GapMask(n int) Artifact { return Artifact{Kind: GapMaskArtifact, Band: n} }

func (a Artifact) String() string {
	switch a.Kind {
	case BandArtifact:
		return fmt.Sprintf("B%d", a.Band)
	case QualityMaskArtifact:
		return "BQA"
	case MetadataArtifact:
		return "MTL"
	case GapMaskArtifact:
		return fmt.Sprintf("GM_%s", gapMaskBand(a.Band))
	}
	return "UNKNOWN"
}

// gapMaskBand names the band part of a gap mask file. Band 6 gap masks are
// published for the first VCID only.
func gapMaskBand(n int) string {
	if n == 6 {
		return "B6_VCID_1"
	}
	return fmt.Sprintf("B%d", n)
}

// RemoteName returns the object name of the artifact relative to the product
// directory, for the given scene base name. The mapping encodes the bucket
// provider's fixed naming convention and must not deviate from it.
func (a Artifact) RemoteName(base string) string {
	switch a.Kind {
	case BandArtifact:
		return fmt.Sprintf("%s_B%d.TIF", base, a.Band)
	case QualityMaskArtifact:
		return base + "_BQA.TIF"
	case MetadataArtifact:
		return base + "_MTL.txt"
	case GapMaskArtifact:
		return fmt.Sprintf("gap_mask/%s_GM_%s.TIF.gz", base, gapMaskBand(a.Band))
	}
	panic("RemoteName: unknown artifact kind")
}

// LocalName returns the file name of the artifact relative to the local
// product directory, for the given product key. Gap masks are stored
// decompressed.
func (a Artifact) LocalName(key string) string {
	if a.Kind == GapMaskArtifact {
		return fmt.Sprintf("gap_mask/%s_GM_%s.TIF", key, gapMaskBand(a.Band))
	}
	return a.RemoteName(key)
}

// Essential returns whether a failed download of the artifact invalidates the
// whole product (imagery payload is all-or-nothing, auxiliary files are not).
func (a Artifact) Essential() bool {
	return a.Kind == BandArtifact
}

// Compressed returns whether the artifact is published gzip-compressed and
// must be decompressed after download.
func (a Artifact) Compressed() bool {
	return a.Kind == GapMaskArtifact
}

// ArtifactRequest is the set of artifacts the caller wants for each product.
// Quality mask and metadata are included only when their flag is set.
type ArtifactRequest struct {
	Bands       []int
	QualityMask bool
	Metadata    bool
}

// Expand resolves the request into the concrete artifact list for one scene:
// the quality mask only exists for collection products (not PRE), and each
// band of a gap-mask-bearing sensor drags its gap mask along.
func (r ArtifactRequest) Expand(s Scene) []Artifact {
	var artifacts []Artifact
	for _, b := range r.Bands {
		artifacts = append(artifacts, Band(b))
		if HasGapMasks(s.SensorID) {
			artifacts = append(artifacts, GapMask(b))
		}
	}
	if r.QualityMask && s.Collection != CollectionPre {
		artifacts = append(artifacts, QualityMask())
	}
	if r.Metadata {
		artifacts = append(artifacts, Metadata())
	}
	return artifacts
}

// HasGapMasks returns whether the sensor family publishes per-band gap masks
// (ETM+ products after the 2003 scan-line-corrector failure).
func HasGapMasks(sensorID string) bool {
	return strings.HasPrefix(strings.ToUpper(sensorID), "ETM")
}

var productIdRe = regexp.MustCompile(`^L[COTEM]0[1-9]_`)

// Info extracts the named parts of a collection product identifier
// (LXSS_LLLL_PPPRRR_YYYYMMDD_yyyymmdd_CC_TX).
func Info(productID string) (map[string]string, error) {
	if len(productID) < len("LXSS_LLLL_PPPRRR_YYYYMMDD_yyyymmdd_CC_TX") || !productIdRe.MatchString(productID) {
		return nil, fmt.Errorf("invalid Landsat product id: %s", productID)
	}
	mission := productID[2:4]
	sensorCollection := "oli-tirs"
	switch productID[1] {
	case 'O':
		sensorCollection = "oli"
	case 'E':
		sensorCollection = "etm"
	case 'M':
		sensorCollection = "mss"
	case 'T':
		// 'T' is TIRS on Landsat 8/9 and TM on earlier missions
		if mission >= "08" {
			sensorCollection = "tirs"
		} else {
			sensorCollection = "tm"
		}
	}

	return map[string]string{
		"SCENE":      productID,
		"MISSION_ID": productID[0:1] + mission,
		"COLLECTION": sensorCollection,
		"PATH":       productID[10:13],
		"ROW":        productID[13:16],
		"DATE":       productID[17:25],
		"YEAR":       productID[17:21],
		"MONTH":      productID[21:23],
		"DAY":        productID[23:25],
	}, nil
}

// GetDateFromProductId returns the acquisition date encoded in a collection
// product identifier.
func GetDateFromProductId(productID string) (time.Time, error) {
	info, err := Info(productID)
	if err != nil {
		return time.Time{}, err
	}
	return time.Parse("20060102", info["DATE"])
}
