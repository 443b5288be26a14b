// Package opml reads and writes organizer source subscriptions as OPML.
package opml

import (
	"encoding/xml"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/bryan-buckman/donorhub/internal/model"
)

// OPML represents the root of an OPML document.
type OPML struct {
	XMLName xml.Name `xml:"opml"`
	Version string   `xml:"version,attr"`
	Head    Head     `xml:"head"`
	Body    Body     `xml:"body"`
}

// Head contains OPML metadata.
type Head struct {
	Title       string `xml:"title,omitempty"`
	DateCreated string `xml:"dateCreated,omitempty"`
}

// Body contains the outlines.
type Body struct {
	Outlines []Outline `xml:"outline"`
}

// Outline is a source (xmlUrl set) or a group of outlines.
type Outline struct {
	Text     string    `xml:"text,attr"`
	Title    string    `xml:"title,attr,omitempty"`
	Type     string    `xml:"type,attr,omitempty"`
	XMLURL   string    `xml:"xmlUrl,attr,omitempty"`
	HTMLURL  string    `xml:"htmlUrl,attr,omitempty"`
	Outlines []Outline `xml:"outline,omitempty"`
}

// Subscription is one source found in a document.
type Subscription struct {
	Title string
	URL   string
	Kind  string
}

// outlineType maps a source kind to the OPML type attribute.
func outlineType(kind string) string {
	if kind == model.SourceJSON {
		return "json"
	}
	return "rss"
}

func sourceKind(outlineType string) string {
	if strings.EqualFold(outlineType, "json") {
		return model.SourceJSON
	}
	return model.SourceFeed
}

// Parse reads an OPML document. Groups are flattened; a URL listed more
// than once is returned once.
func Parse(r io.Reader) ([]Subscription, error) {
	var doc OPML
	if err := xml.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode opml: %w", err)
	}
	var subs []Subscription
	seen := make(map[string]bool)
	var walk func(outlines []Outline)
	walk = func(outlines []Outline) {
		for _, o := range outlines {
			if url := strings.TrimSpace(o.XMLURL); url != "" {
				if seen[url] {
					continue
				}
				seen[url] = true
				title := o.Title
				if title == "" {
					title = o.Text
				}
				if title == "" {
					title = url
				}
				subs = append(subs, Subscription{Title: title, URL: url, Kind: sourceKind(o.Type)})
				continue
			}
			walk(o.Outlines)
		}
	}
	walk(doc.Body.Outlines)
	return subs, nil
}

// Export writes sources as a flat OPML 2.0 document, in the order given.
func Export(title string, sources []model.Source) ([]byte, error) {
	doc := OPML{
		Version: "2.0",
		Head: Head{
			Title:       title,
			DateCreated: time.Now().Format(time.RFC1123Z),
		},
	}
	for _, src := range sources {
		doc.Body.Outlines = append(doc.Body.Outlines, Outline{
			Text:   src.Title,
			Title:  src.Title,
			Type:   outlineType(src.Kind),
			XMLURL: src.URL,
		})
	}

	output, err := xml.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, err
	}
	return append([]byte(xml.Header), output...), nil
}
