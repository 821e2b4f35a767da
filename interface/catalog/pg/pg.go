package pg

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/geofetch/landsat-mirror/common"
	"github.com/geofetch/landsat-mirror/interface/catalog"
	"github.com/geofetch/landsat-mirror/service"
	"github.com/go-spatial/geom/encoding/wkb"
	"github.com/lib/pq"
)

/* http://www.postgresql.org/docs/9.3/static/errcodes-appendix.html */
const (
	noError           = "00000"
	connectionFailure = "08006"

	notPqError = "X"
)

func pqErrorCode(err error) pq.ErrorCode {
	if err == nil {
		return noError
	}
	var pqerr *pq.Error
	if errors.As(err, &pqerr) {
		return pqerr.Code
	}
	return notPqError
}

// Backend implements catalog.Store against a PostGIS copy of the GCP Landsat
// index. The connection is read-only in usage: nothing here writes.
type Backend struct {
	db    *sql.DB
	table string
}

// New opens a connection to the catalog store. table is the name of the
// Landsat index table.
func New(ctx context.Context, dbConnection, table string) (*Backend, error) {
	db, err := sql.Open("postgres", dbConnection)
	if err != nil {
		return nil, fmt.Errorf("sql.open: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		if pqErrorCode(err) == connectionFailure {
			err = service.MakeTemporary(err)
		}
		return nil, fmt.Errorf("pg.ping: %w", err)
	}
	return &Backend{db: db, table: table}, nil
}

// Close the connection to the store.
func (b *Backend) Close() error {
	return b.db.Close()
}

// buildWhere translates the filter into a WHERE clause with positional args.
func buildWhere(f catalog.Filter) (string, []interface{}) {
	var clauses []string
	var args []interface{}
	arg := func(v interface{}) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if f.AOIWKT != "" {
		clauses = append(clauses, fmt.Sprintf("ST_Intersects(geom, ST_GeomFromText(%s, 4326))", arg(f.AOIWKT)))
	}
	if f.Spacecraft != "" {
		clauses = append(clauses, fmt.Sprintf("spacecraft_id = %s", arg(f.Spacecraft)))
	}
	if len(f.Sensors) != 0 {
		clauses = append(clauses, fmt.Sprintf("sensor_id = ANY(%s)", arg(pq.Array(f.Sensors))))
	}
	if len(f.Collections) != 0 {
		collections := make([]string, len(f.Collections))
		for i, c := range f.Collections {
			collections[i] = c.String()
		}
		clauses = append(clauses, fmt.Sprintf("collection_number = ANY(%s)", arg(pq.Array(collections))))
	}
	if f.MaxCloudCover >= 0 {
		clauses = append(clauses, fmt.Sprintf("cloud_cover <= %s", arg(f.MaxCloudCover)))
	}
	if !f.From.IsZero() {
		clauses = append(clauses, fmt.Sprintf("date_acquired >= %s", arg(f.From)))
	}
	if !f.To.IsZero() {
		clauses = append(clauses, fmt.Sprintf("date_acquired <= %s", arg(f.To)))
	}

	if len(clauses) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}

// Scenes implements catalog.Store. Columns are selected with lower-case
// aliases so access does not depend on the casing of the source table.
func (b *Backend) Scenes(ctx context.Context, f catalog.Filter) ([]common.Scene, error) {
	where, args := buildWhere(f)
	query := fmt.Sprintf(
		"SELECT scene_id, product_id, spacecraft_id, sensor_id, collection_number, cloud_cover, base_url, date_acquired, ST_AsBinary(geom) AS geom FROM %s%s ORDER BY date_acquired",
		pq.QuoteIdentifier(b.table), where)
	if f.Limit > 0 {
		args = append(args, f.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}

	rows, err := b.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("scenes.QueryContext: %w", err)
	}
	defer rows.Close()

	scenes := make([]common.Scene, 0)
	for rows.Next() {
		var (
			s          common.Scene
			productID  sql.NullString
			collection string
			geomWKB    []byte
		)
		if err := rows.Scan(&s.SceneID, &productID, &s.Spacecraft, &s.SensorID, &collection, &s.CloudCover, &s.BaseURL, &s.Date, &geomWKB); err != nil {
			return nil, fmt.Errorf("scenes.Scan: %w", err)
		}
		s.ProductID = productID.String
		if s.Collection, err = common.GetCollectionFromString(collection); err != nil {
			return nil, fmt.Errorf("scenes[%s]: %w", s.SceneID, err)
		}
		if len(geomWKB) != 0 {
			if s.Geometry, err = wkb.DecodeBytes(geomWKB); err != nil {
				return nil, fmt.Errorf("scenes[%s].DecodeBytes: %w", s.SceneID, err)
			}
		}
		scenes = append(scenes, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("scenes.rows.err: %w", err)
	}
	return scenes, nil
}
