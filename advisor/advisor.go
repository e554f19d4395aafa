// Package advisor runs the interactive course advising menu.
package advisor

import (
	"bufio"
	"context"
	"io"
	"strconv"
	"strings"

	"github.com/brequin/brequin/advising/catalog"
	"github.com/brequin/brequin/advising/loader"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

const (
	choiceLoad    = 1
	choiceDisplay = 2
	choiceFind    = 3
	choiceExit    = 9

	// Entered at the find prompt to look up State.DefaultCourse.
	defaultCourseToken = "."
)

// State is everything the menu handlers share.
type State struct {
	Index       *catalog.Index
	CatalogPath string
	LoadOptions loader.Options
	Logger      logrus.FieldLogger
	Printer     *Printer
	// DefaultCourse is offered at the find prompt when set.
	DefaultCourse string

	// Fingerprints of sources already merged into Index.
	loaded map[uint64]bool
}

func NewState(ix *catalog.Index, catalogPath string, printer *Printer, logger logrus.FieldLogger) *State {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &State{
		Index:       ix,
		CatalogPath: catalogPath,
		LoadOptions: loader.Options{Logger: logger},
		Logger:      logger,
		Printer:     printer,
		loaded:      make(map[uint64]bool),
	}
}

// Run shows the menu and handles choices read from in until the user exits,
// in reaches EOF, or ctx is cancelled.
func (s *State) Run(ctx context.Context, in io.Reader) error {
	scanner := bufio.NewScanner(in)
	scanner.Split(bufio.ScanWords)

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		s.menu()
		token, ok := s.next(scanner)
		if !ok {
			s.Printer.Line("")
			break
		}

		choice, err := strconv.Atoi(token)
		if err != nil {
			s.Printer.Line("Invalid input. Please enter a number.")
			s.Printer.Line("")
			continue
		}
		if choice == choiceExit {
			s.Printer.Line("")
			break
		}

		switch choice {
		case choiceLoad:
			s.Load(ctx)
		case choiceDisplay:
			s.Display()
		case choiceFind:
			s.Printer.Line("")
			s.findPrompt()
			id, ok := s.next(scanner)
			s.Printer.Line("")
			if !ok {
				break
			}
			if id == defaultCourseToken && s.DefaultCourse != "" {
				id = s.DefaultCourse
			}
			s.Find(id)
		default:
			s.Printer.Line("%d is not a valid option.", choice)
		}
		s.Printer.Line("")
	}

	s.Printer.Line("Good bye.")
	return errors.Wrap(scanner.Err(), "unable to read input")
}

func (s *State) menu() {
	s.Printer.Heading("Menu:")
	s.Printer.Line("  1. Load Courses")
	s.Printer.Line("  2. Display All Courses")
	s.Printer.Line("  3. Find Course")
	s.Printer.Line("  9. Exit")
	s.Printer.Prompt("Enter choice: ")
}

func (s *State) findPrompt() {
	if s.DefaultCourse == "" {
		s.Printer.Prompt("Please Enter The Course ID: ")
		return
	}
	s.Printer.Prompt("Please Enter The Course ID (" + defaultCourseToken + " for " + s.DefaultCourse + "): ")
}

func (s *State) next(scanner *bufio.Scanner) (string, bool) {
	if !scanner.Scan() {
		return "", false
	}
	return scanner.Text(), true
}

type pending []catalog.Course

func (p *pending) Insert(course catalog.Course) {
	*p = append(*p, course)
}

// Load reads the catalog source into the index. A source whose contents were
// already loaded is not loaded again. Nothing is inserted when the source
// cannot be read or a strict load aborts.
func (s *State) Load(ctx context.Context) {
	var courses pending
	result, err := loader.LoadPath(ctx, s.CatalogPath, &courses, s.LoadOptions)

	var loadErr *loader.LoadError
	if err != nil && !errors.As(err, &loadErr) {
		s.Logger.WithError(err).Error("Catalog load failed")
		s.Printer.Notice("Unable to load courses: %v", err)
		return
	}

	if s.loaded[result.Fingerprint] {
		s.Printer.Line("Courses already loaded.")
		return
	}
	s.loaded[result.Fingerprint] = true

	for _, course := range courses {
		s.Index.Insert(course)
	}

	s.Logger.WithFields(logrus.Fields{
		"source":      s.CatalogPath,
		"loaded":      result.Loaded,
		"skipped":     result.Skipped,
		"fingerprint": strconv.FormatUint(result.Fingerprint, 16),
	}).Info("Catalog loaded")

	if loadErr != nil {
		s.Printer.Notice("Skipped %d malformed line(s).", len(loadErr.Lines))
	}
	s.Printer.Line("Courses loaded successfully.")
}

func (s *State) Display() {
	s.Printer.Line("Here is a sample schedule: ")
	s.Printer.Line("")
	if s.Printer.Schedule(s.Index) == 0 {
		s.Printer.Notice("No courses loaded. Choose 1 to load the catalog.")
	}
}

// Find looks up id after upper-casing it and prints the course or a
// not-found message.
func (s *State) Find(id string) {
	id = strings.ToUpper(id)

	course, found := s.Index.Search(id)
	if !found {
		s.Printer.Line("Course Id %s not found.", id)
		return
	}
	s.Printer.Course(course)
}
