package listing

import (
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/pfrederiksen/pcjc-awards/internal/award"
)

// Year index pages link each award as "YYYYMMDD/NNNN.html", sometimes with a
// leading slash or the site root.
var indexLinkPattern = regexp.MustCompile(`(?:^|/)(\d{8})/(\d+\.html)$`)

// ParseIndex extracts award page references from a year index page.
// Links are returned in document order; repeated links are reported once.
func ParseIndex(r io.Reader) ([]award.Reference, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("parsing index HTML: %w", err)
	}

	refs := make([]award.Reference, 0)
	seen := make(map[string]bool)

	doc.Find("a[href]").Each(func(i int, sel *goquery.Selection) {
		href, _ := sel.Attr("href")
		href = strings.TrimSpace(href)
		if j := strings.IndexAny(href, "?#"); j >= 0 {
			href = href[:j]
		}

		matches := indexLinkPattern.FindStringSubmatch(href)
		if matches == nil {
			return
		}

		ref := award.Reference{
			Directory: matches[1] + "/",
			Filename:  matches[2],
			Kind:      award.KindHTML,
		}
		if seen[ref.Key()] {
			return
		}
		seen[ref.Key()] = true
		refs = append(refs, ref)
	})

	return refs, nil
}
