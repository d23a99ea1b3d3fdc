package catalog

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleCSV = `show_id,type,title,release_year,duration,genre
s1,Movie,Speed,1994,116,Action
s2,Movie,"Crash, Bang",1995,94 min,"Action, Comedy"
s3,TV Show,Series,1996,2,Drama
s4,Movie,Short,1999,88.5,Action
`

func TestLoad(t *testing.T) {
	res, err := Load(strings.NewReader(sampleCSV))
	require.NoError(t, err)
	require.Len(t, res.Records, 4)
	assert.Empty(t, res.Skipped)

	rec := res.Records[1]
	assert.Equal(t, "s2", rec.ShowID)
	assert.Equal(t, "Movie", rec.Kind)
	assert.Equal(t, "Crash, Bang", rec.Title)
	assert.Equal(t, 1995, rec.ReleaseYear)
	assert.Equal(t, 94.0, rec.Duration)
	assert.Equal(t, "Action, Comedy", rec.Genre)
	assert.Equal(t, 88.5, res.Records[3].Duration)
}

func TestLoadWithKind(t *testing.T) {
	res, err := Load(strings.NewReader(sampleCSV), WithKind("Movie"))
	require.NoError(t, err)
	require.Len(t, res.Records, 3)
	for _, rec := range res.Records {
		assert.Equal(t, "Movie", rec.Kind)
	}
}

func TestLoadWithKindNeedsTypeColumn(t *testing.T) {
	body := "release_year,duration,genre\n1990,90,Action\n"
	_, err := Load(strings.NewReader(body), WithKind("Movie"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), `"type"`)
}

func TestLoadMinimalColumns(t *testing.T) {
	body := "Release Year;Duration;Genre\n1990;90;Action\n"
	res, err := Load(strings.NewReader(body), WithDelimiter(';'))
	require.NoError(t, err)
	require.Len(t, res.Records, 1)
	assert.Equal(t, 1990, res.Records[0].ReleaseYear)
	assert.Empty(t, res.Records[0].Title)
}

func TestLoadMissingColumn(t *testing.T) {
	body := "title,release_year,genre\nx,1990,Action\n"
	_, err := Load(strings.NewReader(body))
	require.Error(t, err)
	assert.Contains(t, err.Error(), `missing required column "duration"`)
}

func TestLoadNoRows(t *testing.T) {
	_, err := Load(strings.NewReader("release_year,duration,genre\n"))
	assert.ErrorIs(t, err, ErrNoRows)
}

func TestLoadEmpty(t *testing.T) {
	for _, body := range []string{"", "\n\n"} {
		_, err := Load(strings.NewReader(body))
		assert.ErrorIs(t, err, ErrEmpty)
		assert.NotErrorIs(t, err, ErrNoRows)
	}
}

func TestLoadWithKindSkipsOtherRowsBeforeParsing(t *testing.T) {
	body := "type,release_year,duration,genre\nMovie,1991,85 min,Action\nTV Show,1995,2 Seasons,Action\n"
	res, err := Load(strings.NewReader(body), WithKind("Movie"))
	require.NoError(t, err)
	require.Len(t, res.Records, 1)
	assert.Equal(t, 85.0, res.Records[0].Duration)
	assert.Empty(t, res.Skipped)
}

func TestLoadInvalidRow(t *testing.T) {
	body := "release_year,duration,genre\n1990,90,Action\n199x,90,Action\n1991,,Drama\n1992,85,Drama\n"

	_, err := Load(strings.NewReader(body))
	require.Error(t, err)
	var rowErr *RowError
	require.True(t, errors.As(err, &rowErr))
	assert.Equal(t, 2, rowErr.Row)
	assert.Equal(t, "release_year", rowErr.Column)
	assert.Equal(t, "199x", rowErr.Value)

	res, err := Load(strings.NewReader(body), SkipInvalid(true))
	require.NoError(t, err)
	require.Len(t, res.Records, 2)
	require.Len(t, res.Skipped, 2)
	assert.Equal(t, 3, res.Skipped[1].Row)
	assert.Equal(t, "duration", res.Skipped[1].Column)
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "titles.csv")
	require.NoError(t, os.WriteFile(path, []byte("\ufeff"+sampleCSV), 0o644))

	res, err := LoadFile(path)
	require.NoError(t, err)
	assert.Len(t, res.Records, 4)
	assert.Equal(t, "s1", res.Records[0].ShowID)

	_, err = LoadFile(filepath.Join(t.TempDir(), "missing.csv"))
	assert.Error(t, err)
}

func TestParseDuration(t *testing.T) {
	cases := []struct {
		raw  string
		want float64
		ok   bool
	}{
		{raw: "94", want: 94, ok: true},
		{raw: "94.5", want: 94.5, ok: true},
		{raw: " 94 min ", want: 94, ok: true},
		{raw: "0", want: 0, ok: true},
		{raw: "", ok: false},
		{raw: "min", ok: false},
		{raw: "2 Seasons", ok: false},
		{raw: "NaN", ok: false},
		{raw: "Inf", ok: false},
		{raw: "-3", ok: false},
	}
	for _, tc := range cases {
		got, err := ParseDuration(tc.raw)
		if !tc.ok {
			assert.Error(t, err, tc.raw)
			continue
		}
		require.NoError(t, err, tc.raw)
		assert.Equal(t, tc.want, got, tc.raw)
	}
}

func TestNormalizeColumn(t *testing.T) {
	assert.Equal(t, "release_year", NormalizeColumn("Release Year"))
	assert.Equal(t, "release_year", NormalizeColumn("\ufeffrelease-year"))
	assert.Equal(t, "genre", NormalizeColumn(" Genre "))
}
