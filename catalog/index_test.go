package catalog

import (
	"fmt"
	"math/rand"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ids(courses []Course) []string {
	var result []string
	for _, c := range courses {
		result = append(result, c.ID)
	}
	return result
}

func TestEmptyIndex(t *testing.T) {
	ix := NewIndex()

	assert.True(t, ix.Empty())
	assert.Equal(t, 0, ix.Len())
	assert.Equal(t, 0, ix.Height())
	assert.Empty(t, ix.Courses())

	course, found := ix.Search("CS101")
	assert.False(t, found)
	assert.True(t, course.IsZero())

	next := ix.Sorted()
	_, ok := next()
	assert.False(t, ok)
}

func TestAdvisingExample(t *testing.T) {
	ix := NewIndex()
	ix.Insert(Course{ID: "MATH201", Title: "Discrete Math"})
	ix.Insert(Course{ID: "CS101", Title: "Intro to CS"})
	ix.Insert(Course{ID: "CS300", Title: "Data Structures", Prerequisites: []string{"CS101"}})

	assert.False(t, ix.Empty())
	assert.Equal(t, []string{"CS101", "CS300", "MATH201"}, ids(ix.Courses()))

	course, found := ix.Search("CS300")
	require.True(t, found)
	assert.Equal(t, "Data Structures", course.Title)
	assert.Equal(t, []string{"CS101"}, course.Prerequisites)

	course, found = ix.Search("PHYS100")
	assert.False(t, found)
	assert.True(t, course.IsZero())
}

func TestDuplicateIdsRouteRight(t *testing.T) {
	ix := NewIndex()
	ix.Insert(Course{ID: "A", Title: "First"})
	ix.Insert(Course{ID: "A", Title: "Second"})

	course, found := ix.Search("A")
	require.True(t, found)
	assert.Equal(t, "First", course.Title)

	courses := ix.Courses()
	require.Len(t, courses, 2)
	assert.Equal(t, "A", courses[0].ID)
	assert.Equal(t, "First", courses[0].Title)
	assert.Equal(t, "A", courses[1].ID)
	assert.Equal(t, "Second", courses[1].Title)
	assert.Equal(t, 2, ix.Len())
	assert.Equal(t, 2, ix.Height())
}

func TestDuplicateBelowSmallerKeys(t *testing.T) {
	ix := NewIndex()
	ix.Insert(Course{ID: "M", Title: "root"})
	ix.Insert(Course{ID: "C", Title: "first"})
	ix.Insert(Course{ID: "A"})
	ix.Insert(Course{ID: "C", Title: "second"})
	ix.Insert(Course{ID: "E"})

	course, found := ix.Search("C")
	require.True(t, found)
	assert.Equal(t, "first", course.Title)
	assert.Equal(t, []string{"A", "C", "C", "E", "M"}, ids(ix.Courses()))
}

func TestOrderingIsCaseSensitive(t *testing.T) {
	ix := NewIndex()
	ix.Insert(Course{ID: "cs101"})
	ix.Insert(Course{ID: "CS101"})
	ix.Insert(Course{ID: "Cs101"})

	assert.Equal(t, []string{"CS101", "Cs101", "cs101"}, ids(ix.Courses()))

	_, found := ix.Search("CS101")
	assert.True(t, found)
	_, found = ix.Search("cS101")
	assert.False(t, found)
}

func TestSortedRandomInsertOrder(t *testing.T) {
	r := rand.New(rand.NewSource(499))

	for round := 0; round < 20; round++ {
		ix := NewIndex()
		var inserted []string
		for i := 0; i < 200; i++ {
			id := fmt.Sprintf("C%03d", r.Intn(150))
			inserted = append(inserted, id)
			ix.Insert(Course{ID: id, Title: fmt.Sprint(i)})
		}

		got := ids(ix.Courses())
		assert.Len(t, got, len(inserted))
		assert.True(t, sort.StringsAreSorted(got))

		for _, id := range inserted {
			course, found := ix.Search(id)
			assert.True(t, found)
			assert.Equal(t, id, course.ID)
		}
	}
}

func TestDistinctIdsCount(t *testing.T) {
	ix := NewIndex()
	perm := rand.New(rand.NewSource(7)).Perm(100)
	for _, i := range perm {
		ix.Insert(Course{ID: fmt.Sprintf("ID%03d", i)})
	}

	assert.Equal(t, 100, ix.Len())
	assert.Len(t, ix.Courses(), 100)
}

func TestFirstInsertedDuplicateWins(t *testing.T) {
	r := rand.New(rand.NewSource(42))
	ix := NewIndex()
	first := make(map[string]string)

	for i := 0; i < 300; i++ {
		id := fmt.Sprintf("K%02d", r.Intn(40))
		title := fmt.Sprintf("title-%d", i)
		if _, seen := first[id]; !seen {
			first[id] = title
		}
		ix.Insert(Course{ID: id, Title: title})
	}

	for id, title := range first {
		course, found := ix.Search(id)
		require.True(t, found)
		assert.Equal(t, title, course.Title, id)
	}
}

func TestSortedIsRestartable(t *testing.T) {
	ix := NewIndex()
	for _, id := range []string{"D", "B", "F", "A", "C", "E", "G"} {
		ix.Insert(Course{ID: id})
	}

	first := ids(ix.Courses())
	second := ids(ix.Courses())
	assert.Equal(t, first, second)

	t.Run("interleaved iterators", func(t *testing.T) {
		a, b := ix.Sorted(), ix.Sorted()
		a()
		ca, _ := a()
		cb, _ := b()
		assert.Equal(t, "B", ca.ID)
		assert.Equal(t, "A", cb.ID)
	})

	t.Run("exhausted stays exhausted", func(t *testing.T) {
		next := ix.Sorted()
		for i := 0; i < 7; i++ {
			_, ok := next()
			require.True(t, ok)
		}
		_, ok := next()
		assert.False(t, ok)
		_, ok = next()
		assert.False(t, ok)
	})
}

func TestWalkStopsEarly(t *testing.T) {
	ix := NewIndex()
	for _, id := range []string{"B", "A", "C"} {
		ix.Insert(Course{ID: id})
	}

	var visited []string
	ix.Walk(func(c Course) bool {
		visited = append(visited, c.ID)
		return c.ID != "B"
	})
	assert.Equal(t, []string{"A", "B"}, visited)
}

func TestPreSortedInputDegenerates(t *testing.T) {
	ix := NewIndex()
	const n = 5000
	for i := 0; i < n; i++ {
		ix.Insert(Course{ID: fmt.Sprintf("C%06d", i)})
	}

	assert.Equal(t, n, ix.Height())
	assert.Equal(t, n, len(ix.Courses()))

	course, found := ix.Search(fmt.Sprintf("C%06d", n-1))
	assert.True(t, found)
	assert.Equal(t, fmt.Sprintf("C%06d", n-1), course.ID)
}

func TestStoredRecordsDoNotAlias(t *testing.T) {
	ix := NewIndex()
	prerequisites := []string{"CS101"}
	ix.Insert(Course{ID: "CS200", Prerequisites: prerequisites})
	prerequisites[0] = "changed"

	course, _ := ix.Search("CS200")
	assert.Equal(t, []string{"CS101"}, course.Prerequisites)

	course.Prerequisites[0] = "changed"
	again, _ := ix.Search("CS200")
	assert.Equal(t, []string{"CS101"}, again.Prerequisites)
}

func TestCourseFormatting(t *testing.T) {
	c := Course{ID: "CS300", Title: "Data Structures", Prerequisites: []string{"CS101", "MATH201"}}
	assert.Equal(t, "CS300, Data Structures", c.String())
	assert.Equal(t, "CS101, MATH201", c.PrerequisiteList())
	assert.Equal(t, "", Course{ID: "X"}.PrerequisiteList())
}
