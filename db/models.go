package db

import "github.com/brequin/brequin/advising/catalog"

type Course struct {
	Id    string
	Title string
}

type Prerequisite struct {
	CourseId       string
	Position       int
	PrerequisiteId string
}

func courseRows(course catalog.Course) (Course, []Prerequisite) {
	row := Course{Id: course.ID, Title: course.Title}

	var prerequisites []Prerequisite
	for position, prerequisiteId := range course.Prerequisites {
		prerequisites = append(prerequisites, Prerequisite{CourseId: course.ID, Position: position, PrerequisiteId: prerequisiteId})
	}
	return row, prerequisites
}
