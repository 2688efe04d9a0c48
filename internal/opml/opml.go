// ABOUTME: OPML subscription-list parsing and writing
// ABOUTME: Flattens nested category outlines into (url, title) pairs for the add pipeline

package opml

import (
	"encoding/xml"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/samber/lo"
)

// Document represents an OPML document with a title and hierarchical outlines
type Document struct {
	Title    string
	Outlines []Outline
}

// Outline represents a node in the OPML tree structure.
// A node with an XMLURL is a feed; one without is a category.
type Outline struct {
	Text     string
	Title    string
	Type     string
	XMLURL   string
	Children []Outline
}

// Feed is a flattened subscription entry extracted from the outline tree
type Feed struct {
	URL   string
	Title string // title ?? text; empty when the outline has neither
}

// XML structs for parsing and writing OPML files
type opmlXML struct {
	XMLName xml.Name `xml:"opml"`
	Version string   `xml:"version,attr"`
	Head    headXML  `xml:"head"`
	Body    bodyXML  `xml:"body"`
}

type headXML struct {
	Title string `xml:"title"`
}

type bodyXML struct {
	Outlines []outlineXML `xml:"outline"`
}

type outlineXML struct {
	Text     string       `xml:"text,attr"`
	Title    string       `xml:"title,attr,omitempty"`
	Type     string       `xml:"type,attr,omitempty"`
	XMLURL   string       `xml:"xmlUrl,attr,omitempty"`
	Children []outlineXML `xml:"outline,omitempty"`
}

// Parse reads OPML data from an io.Reader and returns a Document.
// Entity references are decoded by the XML decoder.
func Parse(r io.Reader) (*Document, error) {
	var doc opmlXML
	if err := xml.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode OPML: %w", err)
	}

	result := &Document{
		Title:    doc.Head.Title,
		Outlines: make([]Outline, len(doc.Body.Outlines)),
	}
	for i, outline := range doc.Body.Outlines {
		result.Outlines[i] = outlineFromXML(outline)
	}
	return result, nil
}

// ParseFile reads OPML data from a file and returns a Document
func ParseFile(path string) (*Document, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open OPML file: %w", err)
	}
	defer file.Close()

	return Parse(file)
}

// AllFeeds returns every outline carrying an xmlUrl, in document order,
// deduplicated by URL. Outlines without xmlUrl are descended into, not emitted.
func (d *Document) AllFeeds() []Feed {
	var feeds []Feed
	for _, outline := range d.Outlines {
		feeds = append(feeds, collectFeeds(outline)...)
	}
	return lo.UniqBy(feeds, func(f Feed) string { return f.URL })
}

func collectFeeds(outline Outline) []Feed {
	var feeds []Feed
	if outline.XMLURL != "" {
		feeds = append(feeds, Feed{URL: outline.XMLURL, Title: outlineTitle(outline)})
	}
	for _, child := range outline.Children {
		feeds = append(feeds, collectFeeds(child)...)
	}
	return feeds
}

func outlineTitle(outline Outline) string {
	if outline.Title != "" {
		return outline.Title
	}
	return outline.Text
}

// Write writes the OPML document to an io.Writer
func (d *Document) Write(w io.Writer) error {
	doc := opmlXML{
		Version: "2.0",
		Head:    headXML{Title: d.Title},
		Body:    bodyXML{Outlines: make([]outlineXML, len(d.Outlines))},
	}
	for i, outline := range d.Outlines {
		doc.Body.Outlines[i] = outlineToXML(outline)
	}

	if _, err := w.Write([]byte(xml.Header)); err != nil {
		return fmt.Errorf("write XML header: %w", err)
	}

	encoder := xml.NewEncoder(w)
	encoder.Indent("", "  ")
	if err := encoder.Encode(doc); err != nil {
		return fmt.Errorf("encode OPML: %w", err)
	}
	return nil
}

// WriteFile writes the OPML document to a file
func (d *Document) WriteFile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create directory: %w", err)
	}

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create file: %w", err)
	}
	defer file.Close()

	return d.Write(file)
}

// FromFeeds builds a flat document from subscription entries, for export.
func FromFeeds(title string, feeds []Feed) *Document {
	doc := &Document{Title: title}
	for _, feed := range feeds {
		doc.Outlines = append(doc.Outlines, Outline{
			Text:   feed.Title,
			Title:  feed.Title,
			Type:   "rss",
			XMLURL: feed.URL,
		})
	}
	return doc
}

func outlineFromXML(x outlineXML) Outline {
	o := Outline{
		Text:     x.Text,
		Title:    x.Title,
		Type:     x.Type,
		XMLURL:   x.XMLURL,
		Children: make([]Outline, len(x.Children)),
	}
	for i, child := range x.Children {
		o.Children[i] = outlineFromXML(child)
	}
	return o
}

func outlineToXML(o Outline) outlineXML {
	x := outlineXML{
		Text:     o.Text,
		Title:    o.Title,
		Type:     o.Type,
		XMLURL:   o.XMLURL,
		Children: make([]outlineXML, len(o.Children)),
	}
	for i, child := range o.Children {
		x.Children[i] = outlineToXML(child)
	}
	return x
}
