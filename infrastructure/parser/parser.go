// ABOUTME: Feed parser built on mmcdole/gofeed for RSS, Atom and JSON Feed bodies
// ABOUTME: Converts parsed entries into domain items with plain-text summaries

package parser

import (
	"bytes"
	"context"
	"errors"
	"strings"

	"digests-refresher/core/domain"
	feedtime "digests-refresher/pkg/utils/time"
	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/PuerkitoBio/goquery"
	"github.com/mmcdole/gofeed"
)

// Options configures content conversion
type Options struct {
	// Markdown converts item content from HTML to Markdown
	Markdown bool
}

// FeedParser implements the Parser interface using gofeed
type FeedParser struct {
	opts      Options
	converter *md.Converter
}

// NewFeedParser creates a parser
func NewFeedParser(opts Options) *FeedParser {
	p := &FeedParser{opts: opts}
	if opts.Markdown {
		p.converter = md.NewConverter("", true, nil)
	}
	return p
}

// Parse parses a downloaded feed body
func (p *FeedParser) Parse(ctx context.Context, feedURL string, data []byte) (*domain.ParsedFeed, error) {
	if len(data) == 0 {
		return nil, errors.New("empty feed content")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// gofeed.Parser is not safe for concurrent use
	parsed, err := gofeed.NewParser().Parse(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}

	feed := &domain.ParsedFeed{
		URL:         feedURL,
		Title:       strings.TrimSpace(parsed.Title),
		HomePageURL: parsed.Link,
		Language:    parsed.Language,
		FeedType:    detectFeedType(parsed),
		Items:       make([]domain.ParsedItem, 0, len(parsed.Items)),
	}

	for _, item := range parsed.Items {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		feed.Items = append(feed.Items, p.convertItem(item))
	}

	return feed, nil
}

// convertItem converts a gofeed item to a domain item
func (p *FeedParser) convertItem(item *gofeed.Item) domain.ParsedItem {
	parsed := domain.ParsedItem{
		ID:         strings.TrimSpace(item.GUID),
		Title:      strings.TrimSpace(item.Title),
		Link:       item.Link,
		Summary:    htmlToText(item.Description),
		Categories: item.Categories,
		Published:  item.PublishedParsed,
		Updated:    item.UpdatedParsed,
	}

	if parsed.ID == "" {
		parsed.ID = item.Link
	}
	if parsed.Published == nil {
		parsed.Published = feedtime.ParsePtr(item.Published)
	}

	if item.ITunesExt != nil && item.ITunesExt.Author != "" {
		parsed.Author = item.ITunesExt.Author
	} else if item.Author != nil && item.Author.Name != "" {
		parsed.Author = item.Author.Name
	}

	content := item.Content
	if content == "" {
		content = item.Description
	}
	parsed.Content = p.convertContent(content)

	if parsed.Summary == "" && item.ITunesExt != nil {
		parsed.Summary = htmlToText(item.ITunesExt.Summary)
	}

	return parsed
}

// convertContent keeps HTML as-is unless Markdown output is enabled
func (p *FeedParser) convertContent(html string) string {
	if p.converter == nil || html == "" {
		return html
	}
	markdown, err := p.converter.ConvertString(html)
	if err != nil {
		return html
	}
	return strings.TrimSpace(markdown)
}

// htmlToText extracts readable text from an HTML fragment
func htmlToText(html string) string {
	if html == "" {
		return ""
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return strings.TrimSpace(html)
	}
	doc.Find("script, style").Remove()
	return strings.Join(strings.Fields(doc.Text()), " ")
}

// detectFeedType determines if this is an article feed, podcast, or generic RSS
func detectFeedType(feed *gofeed.Feed) string {
	if feed.ITunesExt != nil {
		return "podcast"
	}

	for _, item := range feed.Items {
		for _, enc := range item.Enclosures {
			if strings.HasPrefix(enc.Type, "audio/") || strings.HasPrefix(enc.Type, "video/") {
				return "podcast"
			}
		}
	}

	title := strings.ToLower(feed.Title)
	if strings.Contains(title, "news") || strings.Contains(title, "blog") ||
		strings.Contains(strings.ToLower(feed.Description), "news") {
		return "article"
	}

	return "rss"
}
