package parser

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const rssFeed = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0">
  <channel>
    <title>Example Blog</title>
    <link>https://example.com</link>
    <language>en-us</language>
    <item>
      <guid>post-1</guid>
      <title>First Post</title>
      <link>https://example.com/posts/1</link>
      <description><![CDATA[<p>Hello <b>world</b></p><script>alert(1)</script>]]></description>
      <pubDate>Mon, 01 Jan 2024 10:00:00 GMT</pubDate>
      <author>alice@example.com (Alice)</author>
      <category>go</category>
    </item>
    <item>
      <title>No GUID</title>
      <link>https://example.com/posts/2</link>
      <description>Plain text</description>
    </item>
  </channel>
</rss>`

const atomFeed = `<?xml version="1.0" encoding="utf-8"?>
<feed xmlns="http://www.w3.org/2005/Atom">
  <title>Atom Feed</title>
  <link href="https://atom.example.com/"/>
  <entry>
    <id>urn:uuid:1</id>
    <title>Atom Entry</title>
    <link href="https://atom.example.com/1"/>
    <updated>2024-01-02T10:00:00Z</updated>
    <content type="html">&lt;h1&gt;Title&lt;/h1&gt;&lt;p&gt;Body&lt;/p&gt;</content>
  </entry>
</feed>`

const podcastFeed = `<?xml version="1.0"?>
<rss version="2.0">
  <channel>
    <title>Cast</title>
    <item>
      <guid>ep1</guid>
      <title>Episode 1</title>
      <enclosure url="https://cdn.example.com/ep1.mp3" length="1" type="audio/mpeg"/>
    </item>
  </channel>
</rss>`

func TestFeedParser_RSS(t *testing.T) {
	p := NewFeedParser(Options{})

	feed, err := p.Parse(context.Background(), "https://example.com/feed.xml", []byte(rssFeed))
	require.NoError(t, err)

	assert.Equal(t, "https://example.com/feed.xml", feed.URL)
	assert.Equal(t, "Example Blog", feed.Title)
	assert.Equal(t, "https://example.com", feed.HomePageURL)
	assert.Equal(t, "en-us", feed.Language)
	assert.Equal(t, "article", feed.FeedType)
	require.Len(t, feed.Items, 2)

	first := feed.Items[0]
	assert.Equal(t, "post-1", first.ID)
	assert.Equal(t, "First Post", first.Title)
	assert.Equal(t, "Hello world", first.Summary)
	assert.Equal(t, []string{"go"}, first.Categories)
	require.NotNil(t, first.Published)
	assert.Equal(t, 2024, first.Published.Year())
	assert.True(t, first.IsValid())

	second := feed.Items[1]
	assert.Equal(t, "https://example.com/posts/2", second.ID, "link is the fallback ID")
	assert.Equal(t, "Plain text", second.Content)
}

func TestFeedParser_Atom(t *testing.T) {
	p := NewFeedParser(Options{})

	feed, err := p.Parse(context.Background(), "https://atom.example.com/feed", []byte(atomFeed))
	require.NoError(t, err)

	require.Len(t, feed.Items, 1)
	item := feed.Items[0]
	assert.Equal(t, "urn:uuid:1", item.ID)
	assert.Equal(t, "https://atom.example.com/1", item.Link)
	assert.Contains(t, item.Content, "<h1>Title</h1>")
	require.NotNil(t, item.Updated)
}

func TestFeedParser_MarkdownContent(t *testing.T) {
	p := NewFeedParser(Options{Markdown: true})

	feed, err := p.Parse(context.Background(), "https://atom.example.com/feed", []byte(atomFeed))
	require.NoError(t, err)

	require.Len(t, feed.Items, 1)
	assert.Contains(t, feed.Items[0].Content, "# Title")
	assert.NotContains(t, feed.Items[0].Content, "<h1>")
}

func TestFeedParser_JSONFeed(t *testing.T) {
	body := `{"version":"https://jsonfeed.org/version/1.1","title":"JSON","home_page_url":"https://json.example.com","items":[{"id":"j1","title":"Entry","content_text":"text"}]}`

	feed, err := NewFeedParser(Options{}).Parse(context.Background(), "https://json.example.com/feed.json", []byte(body))
	require.NoError(t, err)

	assert.Equal(t, "https://json.example.com", feed.HomePageURL)
	require.Len(t, feed.Items, 1)
	assert.Equal(t, "j1", feed.Items[0].ID)
}

func TestFeedParser_PodcastType(t *testing.T) {
	feed, err := NewFeedParser(Options{}).Parse(context.Background(), "https://cast.example.com/rss", []byte(podcastFeed))
	require.NoError(t, err)
	assert.Equal(t, "podcast", feed.FeedType)
}

func TestFeedParser_Errors(t *testing.T) {
	p := NewFeedParser(Options{})

	_, err := p.Parse(context.Background(), "https://example.com/feed", nil)
	assert.Error(t, err)

	_, err = p.Parse(context.Background(), "https://example.com/feed", []byte("<html><body>not a feed</body></html>"))
	assert.Error(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = p.Parse(ctx, "https://example.com/feed", []byte(rssFeed))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestHTMLToText(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"empty", "", ""},
		{"plain", "just text", "just text"},
		{"tags", "<p>Hello <em>there</em></p>", "Hello there"},
		{"entities", "Fish &amp; chips", "Fish & chips"},
		{"style removed", "<style>p{}</style><p>Body</p>", "Body"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, htmlToText(tt.input))
		})
	}
}
