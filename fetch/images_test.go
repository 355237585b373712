package fetch

import "testing"

func TestExtractImageURLs(t *testing.T) {
	html := `<html><body>
		<img src="https://cdn.example.com/a.jpg">
		<img src="/images/b.png">
		<img data-src="https://cdn.example.com/lazy.webp">
		<img src="data:image/gif;base64,R0lGOD">
		<img src="https://tracker.example.com/px.gif" width="1" height="1">
		<img src="https://cdn.example.com/a.jpg">
	</body></html>`

	images := ExtractImageURLs(html, "https://www.example.com/search?q=bike")

	want := []string{
		"https://cdn.example.com/a.jpg",
		"https://www.example.com/images/b.png",
		"https://cdn.example.com/lazy.webp",
	}
	if len(images) != len(want) {
		t.Fatalf("got %d images, want %d: %v", len(images), len(want), images)
	}
	for i, w := range want {
		if images[i] != w {
			t.Errorf("images[%d] = %q, want %q", i, images[i], w)
		}
	}
}

func TestExtractImageURLsEmptyHTML(t *testing.T) {
	if images := ExtractImageURLs("", "https://example.com"); images != nil {
		t.Errorf("expected nil for empty HTML, got %v", images)
	}
}
