package fetch

import (
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

const maxImagesPerPage = 50

// ExtractImageURLs pulls listing image URLs from raw HTML, resolving relative
// paths against the page URL. Data URIs and tracking pixels are skipped.
func ExtractImageURLs(html, pageURL string) []string {
	if html == "" {
		return nil
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil
	}

	base, err := url.Parse(pageURL)
	if err != nil {
		base = nil
	}

	seen := make(map[string]bool)
	var images []string

	doc.Find("img").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		src, ok := sel.Attr("src")
		if !ok || src == "" {
			src, ok = sel.Attr("data-src")
		}
		if !ok || src == "" {
			return true
		}
		if strings.HasPrefix(src, "data:") {
			return true
		}

		resolved := resolveImageURL(base, src)
		if resolved == "" || seen[resolved] {
			return true
		}
		if looksLikePixel(sel) {
			return true
		}

		seen[resolved] = true
		images = append(images, resolved)
		return len(images) < maxImagesPerPage
	})

	return images
}

func resolveImageURL(base *url.URL, src string) string {
	ref, err := url.Parse(src)
	if err != nil {
		return ""
	}
	if ref.IsAbs() {
		return ref.String()
	}
	if base == nil {
		return ""
	}
	return base.ResolveReference(ref).String()
}

func looksLikePixel(sel *goquery.Selection) bool {
	w, _ := sel.Attr("width")
	h, _ := sel.Attr("height")
	return w == "1" || h == "1"
}
