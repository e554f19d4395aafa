package loader

import (
	"context"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/OneOfOne/xxhash"
	"github.com/PuerkitoBio/goquery"
	"github.com/brequin/brequin/advising/catalog"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"golang.org/x/net/html"
)

// Rows of a published catalog page. Each row holds the id, the title and a
// comma-separated prerequisite cell, in that order. Rows without td cells
// are headings.
const catalogRowSelector = "table.catalog tr"

// LoadHTML reads a catalog page from r and inserts each course row into ix.
func LoadHTML(r io.Reader, ix Inserter, opts Options) (Result, error) {
	return loadHTML(r, "catalog page", ix, opts)
}

// FetchHTML downloads a catalog page and loads it into ix.
func FetchHTML(ctx context.Context, url string, ix Inserter, opts Options) (Result, error) {
	request, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return Result{}, errors.Wrap(err, "unable to build catalog request")
	}

	response, err := http.DefaultClient.Do(request)
	if err != nil {
		return Result{}, errors.Wrap(err, "unable to fetch catalog")
	}
	defer response.Body.Close()

	if response.StatusCode != http.StatusOK {
		return Result{}, errors.Errorf("unable to fetch catalog %s: %s", url, response.Status)
	}

	return loadHTML(response.Body, url, ix, opts)
}

// LoadPath picks the source kind from path: http(s) URLs are fetched,
// .html and .htm files are parsed as catalog pages, anything else is read as
// catalog lines.
func LoadPath(ctx context.Context, path string, ix Inserter, opts Options) (Result, error) {
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return FetchHTML(ctx, path, ix, opts)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".html", ".htm":
		file, err := os.Open(path)
		if err != nil {
			return Result{}, errors.Wrap(err, "unable to open catalog")
		}
		defer file.Close()
		return loadHTML(file, path, ix, opts)
	default:
		return LoadFile(path, ix, opts)
	}
}

func loadHTML(r io.Reader, source string, ix Inserter, opts Options) (Result, error) {
	log := opts.logger().WithField("source", source)

	digest := xxhash.New64()
	document, err := goquery.NewDocumentFromReader(io.TeeReader(r, digest))
	if err != nil {
		return Result{}, errors.Wrapf(err, "%s: unable to parse catalog page", source)
	}

	var result Result
	var skipped []LineError

	rows := document.Find(catalogRowSelector)
	if rows.Length() == 0 {
		log.Warn("Catalog page has no catalog table rows")
	}

	for i, root := range rows.Nodes {
		rowNumber := i + 1

		course, cells := parseCatalogRow(root)
		if cells == 0 {
			continue
		}
		if cells < 2 || course.ID == "" {
			text := strings.TrimSpace(nodeText(root))
			if opts.Strict {
				result.Fingerprint = digest.Sum64()
				return result, errors.Wrapf(ErrMalformedLine, "%s: row %d", source, rowNumber)
			}
			log.WithField("row", rowNumber).Warnf("Skipping malformed catalog row %q", text)
			skipped = append(skipped, LineError{Line: rowNumber, Text: text})
			result.Skipped++
			continue
		}

		ix.Insert(course)
		result.Loaded++
	}
	result.Fingerprint = digest.Sum64()

	log.WithFields(logrus.Fields{"loaded": result.Loaded, "skipped": result.Skipped}).Debug("Catalog page loaded")

	if len(skipped) > 0 {
		return result, &LoadError{Source: source, Lines: skipped}
	}
	return result, nil
}

// parseCatalogRow reads the td children of a tr node. It returns the number
// of td cells so callers can tell headings (none) from short rows.
func parseCatalogRow(root *html.Node) (catalog.Course, int) {
	var texts []string
	for child := root.FirstChild; child != nil; child = child.NextSibling {
		if child.Type == html.ElementNode && child.Data == "td" {
			texts = append(texts, strings.TrimSpace(nodeText(child)))
		}
	}
	if len(texts) < 2 {
		return catalog.Course{}, len(texts)
	}

	course := catalog.Course{ID: texts[0], Title: texts[1]}
	for _, cell := range texts[2:] {
		for _, prerequisite := range strings.Split(cell, ",") {
			prerequisite = strings.TrimSpace(prerequisite)
			if prerequisite == "" {
				continue
			}
			course.Prerequisites = append(course.Prerequisites, prerequisite)
		}
	}
	return course, len(texts)
}

// nodeText concatenates the text nodes below n in document order.
func nodeText(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
			return
		}
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}
	}
	walk(n)
	return b.String()
}
