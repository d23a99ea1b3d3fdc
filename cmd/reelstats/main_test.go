package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/verte-zerg/reelstats/internal/stats"
)

const testCatalog = `show_id,type,title,release_year,duration,genre
s1,Movie,A,1991,90,Action
s2,Movie,B,1993,94,Action
s3,Movie,C,1995,94,Drama
s4,Movie,D,1997,88,"Action, Comedy"
s5,TV Show,E,1998,1,Action
s6,Movie,F,2004,70,Action
`

type testEnv struct {
	configDir string
	csvPath   string
}

func setupEnv(t *testing.T) testEnv {
	t.Helper()
	dir := t.TempDir()
	configDir := filepath.Join(dir, "config")
	t.Setenv("XDG_CONFIG_HOME", configDir)
	t.Setenv("XDG_DATA_HOME", filepath.Join(dir, "data"))
	t.Setenv("REELSTATS_DB", filepath.Join(dir, "data", "reelstats.db"))
	t.Setenv("NO_COLOR", "1")

	csvPath := filepath.Join(dir, "titles.csv")
	require.NoError(t, os.WriteFile(csvPath, []byte(testCatalog), 0o644))
	return testEnv{configDir: configDir, csvPath: csvPath}
}

func (e testEnv) writeConfig(t *testing.T, body string) {
	t.Helper()
	path := filepath.Join(e.configDir, "reelstats", "config.toml")
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(append([]string{"--log-level", "error"}, args...))
	err := cmd.Execute()
	return out.String(), err
}

func TestStatsFromFile(t *testing.T) {
	env := setupEnv(t)
	out, err := run(t, "--file", env.csvPath)
	require.NoError(t, err)
	assert.Equal(t, strings.Join([]string{
		"Titles (1990s): 5",
		"Most frequent duration (1990s): 94",
		"Short Action titles under 90 min (1990s): 2",
		"",
	}, "\n"), out)
}

func TestStatsKindFilter(t *testing.T) {
	env := setupEnv(t)
	out, err := run(t, "--file", env.csvPath, "--kind", "Movie")
	require.NoError(t, err)
	assert.Contains(t, out, "Titles (1990s): 4\n")
	assert.Contains(t, out, "Short Action titles under 90 min (1990s): 1\n")
}

func TestStatsJSON(t *testing.T) {
	env := setupEnv(t)
	out, err := run(t, "--file", env.csvPath, "--format", "json", "--top", "2", "--decade", "2000")
	require.NoError(t, err)

	var got jsonReport
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, "2000s", got.Decade)
	assert.Equal(t, 2000, got.StartYear)
	assert.Equal(t, 2010, got.EndYear)
	assert.Equal(t, 6, got.CatalogTitles)
	assert.Equal(t, 1, got.Titles)
	assert.Equal(t, 70.0, got.ModeDuration)
	assert.Equal(t, 1, got.ShortTitleCount)
	assert.Equal(t, jsonCriteria{Genre: "Action", MaxDuration: 90}, got.Criteria)
	assert.Equal(t, []jsonDuration{{Duration: 70, Titles: 1}}, got.TopDurations)
}

func TestStatsTopText(t *testing.T) {
	env := setupEnv(t)
	out, err := run(t, "--file", env.csvPath, "--top", "1")
	require.NoError(t, err)
	assert.Contains(t, out, "Top Durations\n")
	assert.Contains(t, out, "40.00%")
}

func TestStatsEmptyDecade(t *testing.T) {
	env := setupEnv(t)
	_, err := run(t, "--file", env.csvPath, "--decade", "1950")
	require.Error(t, err)
	assert.True(t, errors.Is(err, stats.ErrEmptyInput))
	assert.Contains(t, err.Error(), "--decade")
}

func TestStatsInvalidFlags(t *testing.T) {
	env := setupEnv(t)
	_, err := run(t, "--file", env.csvPath, "--format", "xml")
	assert.ErrorContains(t, err, "--format")

	_, err = run(t, "--file", env.csvPath, "--max-duration", "-1")
	assert.ErrorContains(t, err, "--max-duration")

	_, err = run(t, "--file", env.csvPath, "--max-duration", "NaN")
	assert.ErrorContains(t, err, "--max-duration")

	_, err = run(t, "decades", "--file", env.csvPath, "--max-duration", "NaN")
	assert.ErrorContains(t, err, "--max-duration")
}

const seasonsCatalog = `show_id,type,title,release_year,duration,genre
s1,Movie,A,1991,85 min,Action
s2,TV Show,B,1995,2 Seasons,Action
`

func writeSeasonsCatalog(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "seasons.csv")
	require.NoError(t, os.WriteFile(path, []byte(seasonsCatalog), 0o644))
	return path
}

func TestStatsKindIgnoresOtherKindDurations(t *testing.T) {
	setupEnv(t)
	path := writeSeasonsCatalog(t)

	out, err := run(t, "--file", path, "--kind", "Movie")
	require.NoError(t, err)
	assert.Contains(t, out, "Titles (1990s): 1\n")
	assert.Contains(t, out, "Most frequent duration (1990s): 85\n")

	_, err = run(t, "--file", path)
	assert.ErrorContains(t, err, `"2 Seasons"`)
}

func TestDecadesKindIgnoresOtherKindDurations(t *testing.T) {
	setupEnv(t)
	path := writeSeasonsCatalog(t)

	out, err := run(t, "decades", "--file", path, "--kind", "Movie")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	require.Len(t, lines, 4)
	assert.True(t, strings.HasPrefix(lines[3], "1990s"))
}

func TestDecadesSkipInvalid(t *testing.T) {
	setupEnv(t)
	path := writeSeasonsCatalog(t)

	_, err := run(t, "decades", "--file", path)
	assert.ErrorContains(t, err, `"2 Seasons"`)

	out, err := run(t, "decades", "--file", path, "--skip-invalid")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	require.Len(t, lines, 4)
	assert.Regexp(t, `^1990s\s+1\s+85\s+1$`, lines[3])
}

func TestStatsWithoutImport(t *testing.T) {
	setupEnv(t)
	_, err := run(t)
	assert.ErrorContains(t, err, "no catalog imported yet")
}

func TestImportThenStats(t *testing.T) {
	env := setupEnv(t)
	out, err := run(t, "import", "--file", env.csvPath)
	require.NoError(t, err)
	assert.Equal(t, "Imported 6 titles from "+env.csvPath+" (2 decades, 0 rows skipped)\n", out)

	out, err = run(t, "--kind", "Movie")
	require.NoError(t, err)
	assert.Contains(t, out, "Titles (1990s): 4\n")
}

func TestImportKindFilter(t *testing.T) {
	env := setupEnv(t)
	out, err := run(t, "import", "--file", env.csvPath, "--kind", "TV Show")
	require.NoError(t, err)
	assert.Contains(t, out, "Imported 1 titles")

	out, err = run(t)
	require.NoError(t, err)
	assert.Contains(t, out, "Titles (1990s): 1\n")
	assert.Contains(t, out, "Most frequent duration (1990s): 1\n")
}

func TestImportRequiresFile(t *testing.T) {
	setupEnv(t)
	_, err := run(t, "import")
	assert.ErrorContains(t, err, "--file is required")
}

func TestConfigFileDefaults(t *testing.T) {
	env := setupEnv(t)
	env.writeConfig(t, "[stats]\nfile = \""+filepath.ToSlash(env.csvPath)+"\"\ndecade = 2000\ngenre = \"Drama\"\n")

	out, err := run(t)
	require.NoError(t, err)
	assert.Contains(t, out, "Titles (2000s): 1\n")
	assert.Contains(t, out, "Short Drama titles under 90 min (2000s): 0\n")

	out, err = run(t, "--decade", "1990")
	require.NoError(t, err)
	assert.Contains(t, out, "Titles (1990s): 5\n")
}

func TestConfigFileUnknownKey(t *testing.T) {
	env := setupEnv(t)
	env.writeConfig(t, "[stats]\nyear = 1990\n")
	_, err := run(t, "--file", env.csvPath)
	assert.ErrorContains(t, err, "unknown config key")
}

func TestDecadesCommand(t *testing.T) {
	env := setupEnv(t)
	out, err := run(t, "decades", "--file", env.csvPath, "--kind", "Movie")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	require.Len(t, lines, 5)
	assert.Equal(t, "Per-Decade", lines[0])
	assert.True(t, strings.HasPrefix(lines[3], "1990s"))
	assert.True(t, strings.HasPrefix(lines[4], "2000s"))
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	logger, err := newLogger(&buf, "warn")
	require.NoError(t, err)
	logger.Info("hidden")
	logger.Warn("shown")
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "shown")

	_, err = newLogger(&buf, "loud")
	assert.Error(t, err)
}
