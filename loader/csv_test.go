package loader

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/brequin/brequin/advising/catalog"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const advisingCatalog = `MATH201,Discrete Mathematics
CSCI300,Introduction to Algorithms,CSCI200,MATH201
CSCI350,Operating Systems,CSCI300
CSCI101,Introduction to Programming in C++,CSCI100
CSCI100,Introduction to Computer Science
CSCI301,Advanced Programming in C++,CSCI101
CSCI400,Large Software Development,CSCI301,CSCI350
CSCI200,Data Structures,CSCI101
`

func quietOptions(strict bool) (Options, *test.Hook) {
	logger, hook := test.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)
	return Options{Strict: strict, Logger: logger}, hook
}

func TestParse(t *testing.T) {
	tests := []struct {
		name string
		line string
		want catalog.Course
		err  bool
	}{
		{"id and title", "CS101,Intro to CS", catalog.Course{ID: "CS101", Title: "Intro to CS"}, false},
		{"prerequisites in order", "CS300,Data Structures,CS101,MATH201", catalog.Course{ID: "CS300", Title: "Data Structures", Prerequisites: []string{"CS101", "MATH201"}}, false},
		{"carriage return", "CS101,Intro to CS,MATH100\r", catalog.Course{ID: "CS101", Title: "Intro to CS", Prerequisites: []string{"MATH100"}}, false},
		{"empty prerequisite fields", "CS101,Intro,,MATH100,", catalog.Course{ID: "CS101", Title: "Intro", Prerequisites: []string{"MATH100"}}, false},
		{"empty title", "CS101,", catalog.Course{ID: "CS101"}, false},
		{"single field", "CS101", catalog.Course{}, true},
		{"empty id", ",Intro", catalog.Course{}, true},
		{"empty id with prerequisites", ",Orphan Title,CS101", catalog.Course{}, true},
		{"empty", "", catalog.Course{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(tt.line)
			if tt.err {
				assert.ErrorIs(t, err, ErrMalformedLine)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLoad(t *testing.T) {
	opts, _ := quietOptions(false)
	ix := catalog.NewIndex()

	result, err := Load(strings.NewReader(advisingCatalog), ix, opts)
	require.NoError(t, err)
	assert.Equal(t, 8, result.Loaded)
	assert.Equal(t, 0, result.Skipped)
	assert.NotZero(t, result.Fingerprint)

	var ids []string
	for _, c := range ix.Courses() {
		ids = append(ids, c.ID)
	}
	assert.Equal(t, []string{"CSCI100", "CSCI101", "CSCI200", "CSCI300", "CSCI301", "CSCI350", "CSCI400", "MATH201"}, ids)

	course, found := ix.Search("CSCI400")
	require.True(t, found)
	assert.Equal(t, "Large Software Development", course.Title)
	assert.Equal(t, []string{"CSCI301", "CSCI350"}, course.Prerequisites)
}

func TestLoadSkipsMalformedLines(t *testing.T) {
	opts, hook := quietOptions(false)
	ix := catalog.NewIndex()

	input := "CS101,Intro\nBROKEN\n\nCS200,Next,CS101\nALSO BROKEN\n"
	result, err := Load(strings.NewReader(input), ix, opts)

	var loadErr *LoadError
	require.True(t, errors.As(err, &loadErr))
	assert.ErrorIs(t, err, ErrMalformedLine)
	assert.Equal(t, []LineError{{Line: 2, Text: "BROKEN"}, {Line: 5, Text: "ALSO BROKEN"}}, loadErr.Lines)

	assert.Equal(t, 2, result.Loaded)
	assert.Equal(t, 2, result.Skipped)
	assert.Equal(t, 2, ix.Len())

	var warnings int
	for _, entry := range hook.AllEntries() {
		if entry.Level == logrus.WarnLevel {
			warnings++
		}
	}
	assert.Equal(t, 2, warnings)
}

func TestLoadRejectsEmptyId(t *testing.T) {
	opts, _ := quietOptions(false)
	ix := catalog.NewIndex()

	result, err := Load(strings.NewReader("CS101,Intro\n,Orphan Title\n"), ix, opts)

	var loadErr *LoadError
	require.True(t, errors.As(err, &loadErr))
	assert.Equal(t, []LineError{{Line: 2, Text: ",Orphan Title"}}, loadErr.Lines)
	assert.Equal(t, 1, result.Loaded)

	_, found := ix.Search("")
	assert.False(t, found)
	for _, course := range ix.Courses() {
		assert.NotEmpty(t, course.ID)
	}
}

func TestLoadStrictAborts(t *testing.T) {
	opts, _ := quietOptions(true)
	ix := catalog.NewIndex()

	input := "CS101,Intro\nCS102,Second\nBROKEN\nCS200,Never,CS101\n"
	result, err := Load(strings.NewReader(input), ix, opts)

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMalformedLine)
	assert.Contains(t, err.Error(), "line 3")
	assert.Equal(t, 2, result.Loaded)

	// Records inserted before the abort remain reachable.
	assert.Equal(t, 2, ix.Len())
	_, found := ix.Search("CS102")
	assert.True(t, found)
	_, found = ix.Search("CS200")
	assert.False(t, found)
}

func TestLoadFingerprint(t *testing.T) {
	opts, _ := quietOptions(false)

	first, err := Load(strings.NewReader(advisingCatalog), catalog.NewIndex(), opts)
	require.NoError(t, err)
	second, err := Load(strings.NewReader(advisingCatalog), catalog.NewIndex(), opts)
	require.NoError(t, err)
	other, err := Load(strings.NewReader(advisingCatalog+"PHYS100,Physics\n"), catalog.NewIndex(), opts)
	require.NoError(t, err)

	assert.Equal(t, first.Fingerprint, second.Fingerprint)
	assert.NotEqual(t, first.Fingerprint, other.Fingerprint)
}

func TestLoadFile(t *testing.T) {
	opts, _ := quietOptions(false)

	t.Run("missing file", func(t *testing.T) {
		ix := catalog.NewIndex()
		_, err := LoadFile(filepath.Join(t.TempDir(), "missing.csv"), ix, opts)
		require.Error(t, err)
		assert.True(t, os.IsNotExist(errors.Cause(err)))
		assert.NotErrorIs(t, err, ErrMalformedLine)
		assert.True(t, ix.Empty())
	})

	t.Run("windows line endings", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "courses.csv")
		require.NoError(t, os.WriteFile(path, []byte("CS101,Intro\r\nCS200,Next,CS101\r\n"), 0o644))

		ix := catalog.NewIndex()
		result, err := LoadFile(path, ix, opts)
		require.NoError(t, err)
		assert.Equal(t, 2, result.Loaded)

		course, found := ix.Search("CS200")
		require.True(t, found)
		assert.Equal(t, []string{"CS101"}, course.Prerequisites)
	})
}
