// pkg/browser/snapshot.go
package browser

import (
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

// Snapshot is the rendered markup of a page at one moment.
type Snapshot struct {
	URL     string
	HTML    string
	TakenAt time.Time
}

func (s Snapshot) Document() (*goquery.Document, error) {
	return goquery.NewDocumentFromReader(strings.NewReader(s.HTML))
}
