package profile

import (
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const profilePageURL = "https://www.backstage.com/tal/jane-doe/"

func extractFixture(t *testing.T, html string) []string {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	require.NoError(t, err)
	return ExtractImageURLs(doc, html, profilePageURL)
}

func TestExtractImageURLsFromImgTags(t *testing.T) {
	html := `<html><body>
		<img src="/photos/headshot1.jpg">
		<img src="https://media.example.com/headshot2.png">
		<img data-src="/photos/headshot3.jpg">
		<img src="/photos/headshot4.jpeg">
	</body></html>`

	urls := extractFixture(t, html)

	require.Len(t, urls, 4)
	assert.Equal(t, "https://www.backstage.com/photos/headshot1.jpg", urls[0])
	assert.Equal(t, "https://media.example.com/headshot2.png", urls[1])
	assert.Equal(t, "https://www.backstage.com/photos/headshot3.jpg", urls[2])
	assert.Equal(t, "https://www.backstage.com/photos/headshot4.jpeg", urls[3])
}

func TestExtractImageURLsFiltersThumbnailsAndIcons(t *testing.T) {
	html := `<html><body>
		<img src="/photos/headshot1.jpg">
		<img src="/photos/headshot1_thumb.jpg">
		<img src="/assets/favicon.png">
		<img src="/assets/placeholder.jpg">
		<img src="/pixel.gif">
	</body></html>`

	urls := extractFixture(t, html)

	require.Len(t, urls, 1)
	assert.Equal(t, "https://www.backstage.com/photos/headshot1.jpg", urls[0])
}

func TestExtractImageURLsCloudfrontGallery(t *testing.T) {
	// Script-rendered gallery: photos only appear inside embedded JSON
	html := `<html><body><script>
		var gallery = [
			"https://d1abc.cloudfront.net/media/casting_call/11111111-2222-3333-4444-555555555555.jpg",
			"https://d1abc.cloudfront.net/media/casting_call/aaaaaaaa-bbbb-cccc-dddd-eeeeeeeeeeee.jpg",
			"https://d1abc.cloudfront.net/media/banners/99999999-8888-7777-6666-555555555555.jpg"
		];
	</script></body></html>`

	urls := extractFixture(t, html)

	// Only casting_call URLs are profile photos
	require.Len(t, urls, 2)
	assert.Contains(t, urls[0], "11111111-2222-3333-4444-555555555555")
	assert.Contains(t, urls[1], "aaaaaaaa-bbbb-cccc-dddd-eeeeeeeeeeee")
}

func TestExtractImageURLsPrefersFullSizeVariant(t *testing.T) {
	html := `<html><body><script>
		var gallery = [
			"https://d1abc.cloudfront.net/media/casting_call/11111111-2222-3333-4444-555555555555.jpg",
			"https://d1abc.cloudfront.net/media/casting_call/11111111-2222-3333-4444-555555555555-bWFpbi.jpg"
		];
	</script></body></html>`

	urls := extractFixture(t, html)

	require.Len(t, urls, 1)
	assert.Contains(t, urls[0], "-bWFpbi")
}

func TestExtractImageURLsFixesDoubledPrefix(t *testing.T) {
	html := `<img src="https://www.backstage.comhttps://d1abc.cloudfront.net/media/casting_call/photo.jpg">`

	urls := extractFixture(t, html)

	require.Len(t, urls, 1)
	assert.Equal(t, "https://d1abc.cloudfront.net/media/casting_call/photo.jpg", urls[0])
}

func TestExtractImageURLsGenericFallback(t *testing.T) {
	// No img tags and no CDN URLs
	html := `<html><body><script>
		var og = "https://media.example.com/profile-pic.png";
	</script></body></html>`

	urls := extractFixture(t, html)

	require.Len(t, urls, 1)
	assert.Equal(t, "https://media.example.com/profile-pic.png", urls[0])
}

func TestExtractImageURLsEmptyPage(t *testing.T) {
	urls := extractFixture(t, `<html><body><p>nothing here</p></body></html>`)
	assert.Empty(t, urls)
}

func TestGuessExtension(t *testing.T) {
	tests := []struct {
		url  string
		want string
	}{
		{"https://cdn.example.com/photo.jpg", ".jpg"},
		{"https://cdn.example.com/photo.jpeg", ".jpeg"},
		{"https://cdn.example.com/photo.PNG?size=large", ".png"},
		{"https://cdn.example.com/photo.webp", ".webp"},
		{"https://cdn.example.com/photo", ".jpg"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, GuessExtension(tt.url), tt.url)
	}
}
