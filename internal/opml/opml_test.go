// ABOUTME: Tests for OPML parsing and writing
// ABOUTME: Covers nested outlines, title fallback, entity decoding, and round-trips

package opml

import (
	"bytes"
	"strings"
	"testing"
)

const sampleOPML = `<?xml version="1.0" encoding="UTF-8"?>
<opml version="2.0">
  <head><title>Subscriptions</title></head>
  <body>
    <outline text="Tech" title="Tech">
      <outline type="rss" text="Example Blog" title="Example Blog" xmlUrl="https://example.com/rss"/>
      <outline type="rss" text="Nested Deeper">
        <outline type="rss" text="Deep Feed" xmlUrl="https://deep.example.com/atom"/>
      </outline>
    </outline>
    <outline type="rss" text="Root Feed" xmlUrl="https://root.example.com/feed"/>
    <outline text="Empty Category"/>
  </body>
</opml>`

func TestParseFlattensNestedOutlines(t *testing.T) {
	doc, err := Parse(strings.NewReader(sampleOPML))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	if doc.Title != "Subscriptions" {
		t.Errorf("title = %q", doc.Title)
	}

	feeds := doc.AllFeeds()
	if len(feeds) != 3 {
		t.Fatalf("expected 3 feeds, got %d", len(feeds))
	}

	urls := map[string]string{}
	for _, f := range feeds {
		urls[f.URL] = f.Title
	}
	if urls["https://example.com/rss"] != "Example Blog" {
		t.Errorf("title for example.com = %q", urls["https://example.com/rss"])
	}
	if urls["https://deep.example.com/atom"] != "Deep Feed" {
		t.Errorf("deeply nested outline not collected: %q", urls["https://deep.example.com/atom"])
	}
	if urls["https://root.example.com/feed"] != "Root Feed" {
		t.Errorf("root outline missing: %q", urls["https://root.example.com/feed"])
	}
}

func TestParseTitleFallsBackToText(t *testing.T) {
	opml := `<?xml version="1.0"?>
<opml version="2.0"><head/><body>
  <outline xmlUrl="A" title="a"/>
  <outline xmlUrl="B" text="b-text"/>
  <outline xmlUrl="C"/>
</body></opml>`

	doc, err := Parse(strings.NewReader(opml))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	feeds := doc.AllFeeds()
	if len(feeds) != 3 {
		t.Fatalf("expected 3 feeds, got %d", len(feeds))
	}
	if feeds[0].Title != "a" {
		t.Errorf("title attr should win: %q", feeds[0].Title)
	}
	if feeds[1].Title != "b-text" {
		t.Errorf("text attr fallback: %q", feeds[1].Title)
	}
	if feeds[2].Title != "" {
		t.Errorf("no title and no text should stay empty: %q", feeds[2].Title)
	}
}

func TestParseDecodesEntities(t *testing.T) {
	opml := `<?xml version="1.0"?>
<opml version="2.0"><head/><body>
  <outline xmlUrl="https://example.com/feed?a=1&amp;b=2" title="Fish &amp; Chips"/>
</body></opml>`

	doc, err := Parse(strings.NewReader(opml))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	feeds := doc.AllFeeds()
	if feeds[0].URL != "https://example.com/feed?a=1&b=2" {
		t.Errorf("url = %q", feeds[0].URL)
	}
	if feeds[0].Title != "Fish & Chips" {
		t.Errorf("title = %q", feeds[0].Title)
	}
}

func TestParseSkipsOutlinesWithoutXMLURL(t *testing.T) {
	opml := `<?xml version="1.0"?>
<opml version="2.0"><head/><body>
  <outline text="just a label"/>
  <outline xmlUrl="https://example.com/rss" text="real"/>
</body></opml>`

	doc, _ := Parse(strings.NewReader(opml))
	feeds := doc.AllFeeds()
	if len(feeds) != 1 {
		t.Errorf("expected 1 feed, got %d", len(feeds))
	}
}

func TestParseDeduplicatesByURL(t *testing.T) {
	opml := `<?xml version="1.0"?>
<opml version="2.0"><head/><body>
  <outline xmlUrl="https://example.com/rss" title="First"/>
  <outline xmlUrl="https://example.com/rss" title="Duplicate"/>
</body></opml>`

	doc, _ := Parse(strings.NewReader(opml))
	feeds := doc.AllFeeds()
	if len(feeds) != 1 {
		t.Fatalf("expected 1 feed after dedup, got %d", len(feeds))
	}
	if feeds[0].Title != "First" {
		t.Errorf("dedup should keep the first occurrence: %q", feeds[0].Title)
	}
}

func TestParseMalformedXML(t *testing.T) {
	if _, err := Parse(strings.NewReader("<opml><body><outline")); err == nil {
		t.Error("expected error for malformed XML")
	}
}

func TestWriteRoundTrip(t *testing.T) {
	doc := FromFeeds("rivulet feeds", []Feed{
		{URL: "https://example.com/rss", Title: "Example"},
		{URL: "https://other.com/atom", Title: ""},
	})

	var buf bytes.Buffer
	if err := doc.Write(&buf); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	parsed, err := Parse(&buf)
	if err != nil {
		t.Fatalf("re-parse failed: %v", err)
	}

	feeds := parsed.AllFeeds()
	if len(feeds) != 2 {
		t.Fatalf("expected 2 feeds after round-trip, got %d", len(feeds))
	}
	if feeds[0].URL != "https://example.com/rss" || feeds[0].Title != "Example" {
		t.Errorf("round-trip mangled feed: %+v", feeds[0])
	}
}
