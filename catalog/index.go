// Package catalog holds course records and the ordered index they are
// browsed through.
package catalog

type node struct {
	course Course
	left   *node
	right  *node
}

// Index is an unbalanced binary search tree keyed by course id.
//
// Ids compare as plain strings, so ordering is case-sensitive. Inserting an
// id that is already present does not replace the stored record: the new
// node is placed in the right subtree of the existing one, Search keeps
// returning the first record, and traversal yields both.
//
// An Index is not safe for concurrent use.
type Index struct {
	root *node
	size int
}

func NewIndex() *Index {
	return &Index{}
}

// Insert adds course to the index. The prerequisite slice is copied.
func (ix *Index) Insert(course Course) {
	n := &node{course: course.clone()}
	ix.size++

	if ix.root == nil {
		ix.root = n
		return
	}

	current := ix.root
	for {
		if current.course.ID > course.ID {
			if current.left == nil {
				current.left = n
				return
			}
			current = current.left
		} else {
			if current.right == nil {
				current.right = n
				return
			}
			current = current.right
		}
	}
}

// Search returns the record stored under id. The second result is false
// and the record is zero when no such id was inserted.
func (ix *Index) Search(id string) (Course, bool) {
	current := ix.root
	for current != nil {
		if current.course.ID == id {
			return current.course.clone(), true
		}
		if current.course.ID > id {
			current = current.left
		} else {
			current = current.right
		}
	}
	return Course{}, false
}

// Sorted returns an iterator over the records in ascending id order.
// Each call to the returned function yields the next record; ok turns false
// once the walk is exhausted and stays false. Every call to Sorted starts a
// fresh walk. The index must not be modified while an iterator is in use.
func (ix *Index) Sorted() func() (course Course, ok bool) {
	var stack []*node
	current := ix.root

	return func() (Course, bool) {
		for current != nil {
			stack = append(stack, current)
			current = current.left
		}
		if len(stack) == 0 {
			return Course{}, false
		}

		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		current = n.right

		return n.course.clone(), true
	}
}

// Walk calls fn for every record in ascending id order until fn returns false.
func (ix *Index) Walk(fn func(Course) bool) {
	next := ix.Sorted()
	for {
		course, ok := next()
		if !ok || !fn(course) {
			return
		}
	}
}

// Courses returns every record in ascending id order.
func (ix *Index) Courses() []Course {
	courses := make([]Course, 0, ix.size)
	ix.Walk(func(c Course) bool {
		courses = append(courses, c)
		return true
	})
	return courses
}

// Len returns the number of nodes, duplicates included.
func (ix *Index) Len() int {
	return ix.size
}

func (ix *Index) Empty() bool {
	return ix.root == nil
}

// Height returns the number of nodes on the longest root-to-leaf path.
func (ix *Index) Height() int {
	if ix.root == nil {
		return 0
	}

	type level struct {
		n     *node
		depth int
	}

	height := 0
	pending := []level{{ix.root, 1}}
	for len(pending) > 0 {
		l := pending[len(pending)-1]
		pending = pending[:len(pending)-1]

		if l.depth > height {
			height = l.depth
		}
		if l.n.left != nil {
			pending = append(pending, level{l.n.left, l.depth + 1})
		}
		if l.n.right != nil {
			pending = append(pending, level{l.n.right, l.depth + 1})
		}
	}
	return height
}
