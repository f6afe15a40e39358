package gazetteer

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"

	_ "github.com/mattn/go-sqlite3"
)

// DefaultDBPath is the offline store location relative to the working
// directory.
const DefaultDBPath = "resources/gazetteers.db"

// Every location with an alias equal to the query (case-insensitive), once,
// with all of its aliases.
const resolveQuery = `
WITH matches AS (
	SELECT DISTINCT loc_id FROM names WHERE name = ? COLLATE NOCASE
)
SELECT sources.name, locs.loc_id, GROUP_CONCAT(names.name, '|'), locs.lon, locs.lat
FROM sources, locs, names, matches
WHERE names.loc_id = matches.loc_id
  AND names.loc_id = locs.loc_id
  AND locs.source_id = sources.source_id
GROUP BY matches.loc_id`

// SQLite resolves names against a local gazetteer database with tables
// sources(source_id, name), locs(loc_id, source_id, lon, lat) and
// names(loc_id, name).
type SQLite struct {
	DB *sql.DB
}

// OpenSQLite opens the store at path read-only.
func OpenSQLite(path string) (*SQLite, error) {
	if path == "" {
		path = DefaultDBPath
	}
	dsn := "file:" + path + "?mode=ro"
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("open gazetteer %s: %w", path, err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("open gazetteer %s: %w", path, err)
	}
	return &SQLite{DB: db}, nil
}

// Close implements io.Closer.
func (s *SQLite) Close() error {
	return s.DB.Close()
}

// Resolve implements Resolver. Lang is ignored and any positive Limit is
// rejected with ErrLimitUnsupported.
func (s *SQLite) Resolve(ctx context.Context, q Query) ([]Candidate, error) {
	if q.Limit > 0 {
		return nil, ErrLimitUnsupported
	}

	rows, err := s.DB.QueryContext(ctx, resolveQuery, q.Name)
	if err != nil {
		return nil, fmt.Errorf("gazetteer query %q: %w", q.Name, err)
	}
	defer rows.Close()

	var out []Candidate
	for rows.Next() {
		var (
			source string
			id     int64
			names  string
			lon    float64
			lat    float64
		)
		if err := rows.Scan(&source, &id, &names, &lon, &lat); err != nil {
			return nil, fmt.Errorf("gazetteer scan: %w", err)
		}
		out = append(out, Candidate{
			Name:   names,
			Lon:    lon,
			Lat:    lat,
			ID:     strconv.FormatInt(id, 10),
			Source: source,
			Search: q.Name,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("gazetteer rows: %w", err)
	}
	return out, nil
}
