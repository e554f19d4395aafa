package db

import (
	"context"

	"github.com/brequin/brequin/advising/catalog"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pkg/errors"
)

const createCourses = `CREATE TABLE IF NOT EXISTS courses (id TEXT PRIMARY KEY, title TEXT NOT NULL)`
const createPrerequisites = `CREATE TABLE IF NOT EXISTS prerequisites (course_id TEXT NOT NULL REFERENCES courses (id) ON DELETE CASCADE, position INTEGER NOT NULL, prerequisite_id TEXT NOT NULL, PRIMARY KEY (course_id, position))`

const insertCourse = `INSERT INTO courses (id, title) VALUES ($1, $2) ON CONFLICT (id) DO UPDATE SET title=EXCLUDED.title`
const clearPrerequisites = `DELETE FROM prerequisites WHERE course_id = $1`
const insertPrerequisite = `INSERT INTO prerequisites (course_id, position, prerequisite_id) VALUES ($1, $2, $3)`

const addCourse = `INSERT INTO courses (id, title) VALUES ($1, $2) ON CONFLICT (id) DO NOTHING`
const updateCourse = `UPDATE courses SET title = $2 WHERE id = $1`

const listCourses = `SELECT courses.id, courses.title, prerequisites.prerequisite_id FROM courses LEFT JOIN prerequisites ON prerequisites.course_id = courses.id ORDER BY courses.id, prerequisites.position`
const findCourse = `SELECT courses.id, courses.title, prerequisites.prerequisite_id FROM courses LEFT JOIN prerequisites ON prerequisites.course_id = courses.id WHERE courses.id = $1 ORDER BY prerequisites.position`
const deleteCourse = `DELETE FROM courses WHERE id = $1`

func insertCallback(ct pgconn.CommandTag) error {
	return nil
}

// EnsureSchema creates the catalog tables if they are missing.
func (d *Database) EnsureSchema(ctx context.Context) error {
	for _, sql := range []string{createCourses, createPrerequisites} {
		if _, err := d.Pool.Exec(ctx, sql); err != nil {
			return errors.Wrap(err, "unable to create catalog schema")
		}
	}
	return nil
}

// SaveCourses upserts courses. A stored course's prerequisite list is
// replaced by the saved one; when courses repeats an id the last one wins.
func (d *Database) SaveCourses(ctx context.Context, courses []catalog.Course) error {
	if len(courses) == 0 {
		return nil
	}

	batch := pgx.Batch{}
	var queuedQueries []*pgx.QueuedQuery

	for _, course := range courses {
		row, prerequisites := courseRows(course)

		queuedQueries = append(queuedQueries, batch.Queue(insertCourse, row.Id, row.Title))
		queuedQueries = append(queuedQueries, batch.Queue(clearPrerequisites, row.Id))
		for _, prerequisite := range prerequisites {
			queuedQueries = append(queuedQueries, batch.Queue(insertPrerequisite, prerequisite.CourseId, prerequisite.Position, prerequisite.PrerequisiteId))
		}
	}

	for _, queuedQuery := range queuedQueries {
		queuedQuery.Exec(insertCallback)
	}

	if err := d.Pool.SendBatch(ctx, &batch).Close(); err != nil {
		return errors.Wrap(err, "unable to save courses")
	}

	return nil
}

// AddCourse stores a new course. created is false, and nothing changes, when
// the id is already stored.
func (d *Database) AddCourse(ctx context.Context, course catalog.Course) (bool, error) {
	return d.writeCourse(ctx, addCourse, course)
}

// UpdateCourse replaces the title and prerequisite list of a stored course.
// updated is false when the id is not stored.
func (d *Database) UpdateCourse(ctx context.Context, course catalog.Course) (bool, error) {
	return d.writeCourse(ctx, updateCourse, course)
}

// writeCourse runs sql for the course row and, if it touched a row, rewrites
// the prerequisite list in the same transaction.
func (d *Database) writeCourse(ctx context.Context, sql string, course catalog.Course) (bool, error) {
	row, prerequisites := courseRows(course)

	written := false
	err := pgx.BeginFunc(ctx, d.Pool, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, sql, row.Id, row.Title)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return nil
		}
		written = true

		if _, err := tx.Exec(ctx, clearPrerequisites, row.Id); err != nil {
			return err
		}
		for _, prerequisite := range prerequisites {
			if _, err := tx.Exec(ctx, insertPrerequisite, prerequisite.CourseId, prerequisite.Position, prerequisite.PrerequisiteId); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return false, errors.Wrapf(err, "unable to write course %s", course.ID)
	}
	return written, nil
}

func (d *Database) ListCourses(ctx context.Context) ([]catalog.Course, error) {
	rows, err := d.Pool.Query(ctx, listCourses)
	if err != nil {
		return nil, errors.Wrap(err, "unable to list courses")
	}
	defer rows.Close()

	return scanCourses(rows)
}

// FindCourse returns the stored course with id. found is false when there
// is none; that is not an error.
func (d *Database) FindCourse(ctx context.Context, id string) (catalog.Course, bool, error) {
	rows, err := d.Pool.Query(ctx, findCourse, id)
	if err != nil {
		return catalog.Course{}, false, errors.Wrapf(err, "unable to find course %s", id)
	}
	defer rows.Close()

	courses, err := scanCourses(rows)
	if err != nil {
		return catalog.Course{}, false, err
	}
	if len(courses) == 0 {
		return catalog.Course{}, false, nil
	}
	return courses[0], true, nil
}

// DeleteCourse removes a stored course and its prerequisite list. Courses
// that name it as a prerequisite keep that reference.
func (d *Database) DeleteCourse(ctx context.Context, id string) (bool, error) {
	tag, err := d.Pool.Exec(ctx, deleteCourse, id)
	if err != nil {
		return false, errors.Wrapf(err, "unable to delete course %s", id)
	}
	return tag.RowsAffected() > 0, nil
}

// LoadIndex inserts every stored course into ix and returns how many were
// inserted.
func (d *Database) LoadIndex(ctx context.Context, ix *catalog.Index) (int, error) {
	courses, err := d.ListCourses(ctx)
	if err != nil {
		return 0, err
	}

	for _, i := range balancedOrder(len(courses)) {
		ix.Insert(courses[i])
	}
	return len(courses), nil
}

// scanCourses folds joined (course, prerequisite) rows into courses. Rows
// must arrive grouped by course id with prerequisites in position order.
func scanCourses(rows pgx.Rows) ([]catalog.Course, error) {
	var courses []catalog.Course
	for rows.Next() {
		var id, title string
		var prerequisiteId *string
		if err := rows.Scan(&id, &title, &prerequisiteId); err != nil {
			return nil, errors.Wrap(err, "unable to scan course")
		}

		if len(courses) == 0 || courses[len(courses)-1].ID != id {
			courses = append(courses, catalog.Course{ID: id, Title: title})
		}
		if prerequisiteId != nil {
			last := &courses[len(courses)-1]
			last.Prerequisites = append(last.Prerequisites, *prerequisiteId)
		}
	}

	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "unable to read courses")
	}

	return courses, nil
}

// balancedOrder returns the indices 0..n-1 midpoint first, so inserting a
// sorted slice in that order builds a tree of logarithmic height.
func balancedOrder(n int) []int {
	order := make([]int, 0, n)

	type span struct{ lo, hi int }
	queue := []span{{0, n}}
	for len(queue) > 0 {
		s := queue[0]
		queue = queue[1:]
		if s.lo >= s.hi {
			continue
		}
		mid := s.lo + (s.hi-s.lo)/2
		order = append(order, mid)
		queue = append(queue, span{s.lo, mid}, span{mid + 1, s.hi})
	}
	return order
}
