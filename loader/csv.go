// Package loader fills a catalog.Index from course catalog sources.
//
// The text format is one course per line:
//
//	<courseId>,<title>,<prereq1>,<prereq2>,...
//
// There is no header and no quoting. A line needs at least the id and the
// title; remaining fields are prerequisite ids in order.
package loader

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/OneOfOne/xxhash"
	"github.com/brequin/brequin/advising/catalog"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

const maxLineLength = 1 << 20

var ErrMalformedLine = errors.New("malformed catalog line")

// Inserter receives parsed courses in source order. *catalog.Index is the
// usual Inserter.
type Inserter interface {
	Insert(course catalog.Course)
}

type Options struct {
	// Strict stops the load at the first malformed line. Otherwise malformed
	// lines are skipped and reported together in a *LoadError.
	Strict bool
	Logger logrus.FieldLogger
}

func (o Options) logger() logrus.FieldLogger {
	if o.Logger == nil {
		return logrus.StandardLogger()
	}
	return o.Logger
}

type Result struct {
	Loaded  int
	Skipped int
	// Fingerprint is the xxhash64 of the bytes read from the source.
	Fingerprint uint64
}

type LineError struct {
	Line int
	Text string
}

// LoadError lists the lines skipped by a non-strict load. The courses on
// every other line were inserted.
type LoadError struct {
	Source string
	Lines  []LineError
}

func (e *LoadError) Error() string {
	if len(e.Lines) == 1 {
		return fmt.Sprintf("%s: line %d: %v: %q", e.Source, e.Lines[0].Line, ErrMalformedLine, e.Lines[0].Text)
	}
	return fmt.Sprintf("%s: %d malformed lines skipped (first at line %d)", e.Source, len(e.Lines), e.Lines[0].Line)
}

func (e *LoadError) Unwrap() error {
	return ErrMalformedLine
}

// Parse splits one catalog line into a course. A line without an id is
// malformed, since the empty id marks a missing course.
func Parse(line string) (catalog.Course, error) {
	fields := strings.Split(strings.TrimSuffix(line, "\r"), ",")
	if len(fields) < 2 || fields[0] == "" {
		return catalog.Course{}, ErrMalformedLine
	}

	course := catalog.Course{ID: fields[0], Title: fields[1]}
	for _, prerequisite := range fields[2:] {
		if prerequisite == "" {
			continue
		}
		course.Prerequisites = append(course.Prerequisites, prerequisite)
	}
	return course, nil
}

// Load reads catalog lines from r and inserts each course into ix.
// Courses inserted before a strict-mode abort stay in ix; each insert is
// complete on its own, so ix is never left half-updated.
func Load(r io.Reader, ix Inserter, opts Options) (Result, error) {
	return load(r, "catalog", ix, opts)
}

// LoadFile is Load for a file on disk.
func LoadFile(path string, ix Inserter, opts Options) (Result, error) {
	file, err := os.Open(path)
	if err != nil {
		return Result{}, errors.Wrap(err, "unable to open catalog")
	}
	defer file.Close()

	return load(file, path, ix, opts)
}

func load(r io.Reader, source string, ix Inserter, opts Options) (Result, error) {
	log := opts.logger().WithField("source", source)

	digest := xxhash.New64()
	scanner := bufio.NewScanner(io.TeeReader(r, digest))
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineLength)

	var result Result
	var skipped []LineError

	lineNumber := 0
	for scanner.Scan() {
		lineNumber++
		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}

		course, err := Parse(line)
		if err != nil {
			if opts.Strict {
				result.Fingerprint = digest.Sum64()
				return result, errors.Wrapf(err, "%s: line %d", source, lineNumber)
			}
			log.WithField("line", lineNumber).Warnf("Skipping malformed catalog line %q", line)
			skipped = append(skipped, LineError{Line: lineNumber, Text: line})
			result.Skipped++
			continue
		}

		ix.Insert(course)
		result.Loaded++
	}
	result.Fingerprint = digest.Sum64()

	if err := scanner.Err(); err != nil {
		return result, errors.Wrapf(err, "%s: read failed after line %d", source, lineNumber)
	}

	log.WithFields(logrus.Fields{"loaded": result.Loaded, "skipped": result.Skipped}).Debug("Catalog loaded")

	if len(skipped) > 0 {
		return result, &LoadError{Source: source, Lines: skipped}
	}
	return result, nil
}
