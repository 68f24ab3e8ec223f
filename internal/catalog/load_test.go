package catalog

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/Adithya-Monish-Kumar-K/movie-catalog-service/pkg/errors"
)

const netflixSample = `show_id,type,title,director,cast,country,date_added,release_year,rating,duration,listed_in,description
s1,Movie,Dick Johnson Is Dead,Kirsten Johnson,,United States,"September 25, 2021",2020,PG-13,90 min,Documentaries,"As her father nears the end of his life, filmmaker Kirsten Johnson stages his death."
s2,TV Show,Blood & Water,,"Ama Qamata, Khosi Ngema",South Africa,"September 24, 2021",2021,TV-MA,2 Seasons,"International TV Shows, TV Dramas, TV Mysteries","After crossing paths at a party, a Cape Town teen sets out to prove whether a private-school swimming star is her sister."
s3,Movie,Untitled,,,,,,NA,,Comedies,
`

func TestLoadProjectsColumns(t *testing.T) {
	s, err := Load(strings.NewReader(netflixSample), "sample")
	require.NoError(t, err)
	require.Equal(t, 3, s.Len())

	all := s.All()
	assert.Equal(t, Movie{
		ID:       "s1",
		Title:    "Dick Johnson Is Dead",
		Year:     "2020",
		Category: "Documentaries",
		Rating:   "PG-13",
		Overview: "As her father nears the end of his life, filmmaker Kirsten Johnson stages his death.",
	}, all[0])
	assert.Equal(t, "International TV Shows, TV Dramas, TV Mysteries", all[1].Category)

	blank := all[2]
	assert.Equal(t, Year(""), blank.Year)
	assert.Equal(t, "", blank.Rating, "NA marker loads as empty")
	assert.Equal(t, "", blank.Overview)
}

func TestLoadStripsBOMAndReordersColumns(t *testing.T) {
	data := "\xEF\xBB\xBFdescription,listed_in,rating,release_year,title,show_id\n" +
		"A heist.,Action & Adventure,R,2011.0,Job,s9\n"
	s, err := Load(strings.NewReader(data), "bom")
	require.NoError(t, err)

	m, err := s.Find("s9")
	require.NoError(t, err)
	assert.Equal(t, "Job", m.Title)
	assert.Equal(t, Year("2011"), m.Year)
	assert.Equal(t, "Action & Adventure", m.Category)
}

func TestLoadShortRows(t *testing.T) {
	data := "show_id,title,release_year,listed_in,rating,description\ns1,Only Title\n"
	s, err := Load(strings.NewReader(data), "short")
	require.NoError(t, err)
	m, err := s.Find("s1")
	require.NoError(t, err)
	assert.Equal(t, "Only Title", m.Title)
	assert.Equal(t, "", m.Category)
}

func TestLoadErrors(t *testing.T) {
	cases := []struct {
		name string
		data string
		msg  string
	}{
		{"empty input", "", "missing header row"},
		{"missing columns", "show_id,title\ns1,x\n", "missing required columns: release_year, listed_in, rating, description"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Load(strings.NewReader(tc.data), tc.name)
			require.Error(t, err)
			assert.True(t, errors.Is(err, apperrors.ErrCatalogLoad))
			var loadErr *LoadError
			require.True(t, errors.As(err, &loadErr))
			assert.Equal(t, tc.name, loadErr.Source)
			assert.Contains(t, err.Error(), tc.msg)
		})
	}
}

func TestLoadCSV(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "netflix_titles.csv")
	require.NoError(t, os.WriteFile(path, []byte(netflixSample), 0o644))

	s, err := LoadCSV(path)
	require.NoError(t, err)
	assert.Equal(t, 3, s.Len())

	_, err = LoadCSV(filepath.Join(dir, "missing.csv"))
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrCatalogLoad)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestParseYear(t *testing.T) {
	cases := map[string]Year{
		"2019":   "2019",
		" 2019 ": "2019",
		"2019.0": "2019",
		"":       "",
		"TBD":    "TBD",
		"2019.5": "2019.5",
	}
	for in, want := range cases {
		assert.Equal(t, want, ParseYear(in), "ParseYear(%q)", in)
	}
}

func TestYearJSON(t *testing.T) {
	out, err := json.Marshal(Movie{ID: "1", Year: "2020"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"Id":"1","Title":"","Year":2020,"Category":"","Rating":"","Overview":""}`, string(out))

	out, err = json.Marshal(Movie{ID: "2"})
	require.NoError(t, err)
	assert.Contains(t, string(out), `"Year":""`)

	var m Movie
	require.NoError(t, json.Unmarshal([]byte(`{"Id":"3","Year":1999}`), &m))
	assert.Equal(t, Year("1999"), m.Year)
	require.NoError(t, json.Unmarshal([]byte(`{"Id":"3","Year":""}`), &m))
	assert.Equal(t, Year(""), m.Year)
	require.NoError(t, json.Unmarshal([]byte(`{"Id":"3","Year":null}`), &m))
	assert.Equal(t, Year(""), m.Year)
}
