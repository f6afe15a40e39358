package main

import (
	"bytes"
	"database/sql"
	"path/filepath"
	"testing"

	"maponyms/internal/gazetteer"
	"maponyms/internal/matchset"
	"maponyms/internal/pipeline"
	"maponyms/pkg/geometry"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(append([]string{"--config", filepath.Join(t.TempDir(), "none.toml"), "--log-level", "error"}, args...))
	err := root.Execute()
	return out.String(), err
}

func TestVersionCommand(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "maponyms version: 0.1.0")
}

func TestResolveOffline(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gazetteers.db")
	db, err := sql.Open("sqlite3", path)
	require.NoError(t, err)
	for _, s := range []string{
		`CREATE TABLE sources (source_id INTEGER PRIMARY KEY, name TEXT)`,
		`CREATE TABLE locs (loc_id INTEGER PRIMARY KEY, source_id INTEGER, lon REAL, lat REAL)`,
		`CREATE TABLE names (loc_id INTEGER, name TEXT)`,
		`INSERT INTO sources VALUES (1, 'natearth')`,
		`INSERT INTO locs VALUES (7, 1, 2.3522, 48.8566)`,
		`INSERT INTO names VALUES (7, 'Paris')`,
	} {
		_, err := db.Exec(s)
		require.NoError(t, err)
	}
	require.NoError(t, db.Close())

	out, err := execute(t, "resolve", "paris", "--db", path)
	require.NoError(t, err)
	assert.Contains(t, out, "1 matches")
	assert.Contains(t, out, "Paris")
	assert.Contains(t, out, "natearth #7")

	out, err = execute(t, "resolve", "Atlantis", "--db", path)
	require.NoError(t, err)
	assert.Contains(t, out, "no matches")

	_, err = execute(t, "resolve", "Paris", "--db", path, "--limit", "3")
	assert.ErrorIs(t, err, gazetteer.ErrLimitUnsupported)
}

func TestRunRequiresImage(t *testing.T) {
	_, err := execute(t, "run")
	assert.Error(t, err)

	_, err = execute(t, "run", filepath.Join(t.TempDir(), "missing.png"), "--color", "200,0,0")
	assert.Error(t, err)
}

func TestPrintSummary(t *testing.T) {
	res := &pipeline.Result{
		Match: &matchset.Result{
			Family:    matchset.Similarity,
			Transform: geometry.Similarity(100, 0, 0, 0),
			RMS:       1.5,
		},
		TiePoints: []pipeline.TiePoint{{Name: "Oslo", MatchName: "Oslo, Norway", Lon: 10.75, Lat: 59.91}},
	}

	var out bytes.Buffer
	printSummary(&out, res, geometry.Point2D{X: 500, Y: -4000}, []string{"tiepoints.geojson"})
	s := out.String()
	assert.Contains(t, s, "rms 1.50 px")
	assert.Contains(t, s, "rotation:  0.00 deg")
	assert.Contains(t, s, "center:    (5.0000, 40.0000)")
	assert.Contains(t, s, "Oslo, Norway")
	assert.Contains(t, s, "tiepoints.geojson")
}
