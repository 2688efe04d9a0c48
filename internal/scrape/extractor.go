// ABOUTME: Builds the in-page extraction script and cleans extracted HTML
// ABOUTME: The script removes unwanted nodes, then tries content selectors in priority order

package scrape

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// minSelectorTextLength is the text length a selector match must exceed to be
// accepted before falling back to the next selector.
const minSelectorTextLength = 100

// extractionResult mirrors the object returned by the in-page script
type extractionResult struct {
	HTML     string `json:"html"`
	Text     string `json:"text"`
	Selector string `json:"selector"`
}

// ExtractionScript returns JavaScript that runs in the page context:
// it removes every node matching removeSelectors, then returns the innerHTML
// of the first contentSelectors match with enough text, falling back to body.
func ExtractionScript(contentSelectors, removeSelectors []string) string {
	return fmt.Sprintf(`
(() => {
    const removeSelectors = [%s];
    for (const selector of removeSelectors) {
        document.querySelectorAll(selector).forEach(el => el.remove());
    }

    const contentSelectors = [%s];
    for (const selector of contentSelectors) {
        const element = document.querySelector(selector);
        if (element && element.innerText.trim().length > %d) {
            return { html: element.innerHTML, text: element.innerText, selector: selector };
        }
    }

    const body = document.body;
    if (body) {
        return { html: body.innerHTML, text: body.innerText, selector: 'body' };
    }
    return { html: '', text: '', selector: null };
})()
`, quoteSelectors(removeSelectors), quoteSelectors(contentSelectors), minSelectorTextLength)
}

func quoteSelectors(selectors []string) string {
	quoted := make([]string, len(selectors))
	for i, s := range selectors {
		quoted[i] = "'" + strings.ReplaceAll(s, "'", `\'`) + "'"
	}
	return strings.Join(quoted, ", ")
}

// CleanHTML strips every node matching removeSelectors from an HTML fragment.
// Used by the readability fallback, which has no page context to run the
// extraction script in.
func CleanHTML(htmlFragment string, removeSelectors []string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(htmlFragment))
	if err != nil {
		return "", fmt.Errorf("parse HTML: %w", err)
	}

	for _, selector := range removeSelectors {
		doc.Find(selector).Remove()
	}

	cleaned, err := doc.Find("body").Html()
	if err != nil {
		return "", fmt.Errorf("serialize HTML: %w", err)
	}
	return strings.TrimSpace(cleaned), nil
}
