package catalog

import "strings"

type Course struct {
	ID            string
	Title         string
	Prerequisites []string
}

// IsZero reports whether c is the empty record returned for a missing id.
func (c Course) IsZero() bool {
	return c.ID == ""
}

func (c Course) String() string {
	return c.ID + ", " + c.Title
}

// PrerequisiteList joins the prerequisite ids in their original order.
func (c Course) PrerequisiteList() string {
	return strings.Join(c.Prerequisites, ", ")
}

func (c Course) clone() Course {
	if c.Prerequisites != nil {
		prerequisites := make([]string, len(c.Prerequisites))
		copy(prerequisites, c.Prerequisites)
		c.Prerequisites = prerequisites
	}
	return c
}
