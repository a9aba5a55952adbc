// Package extract converts a page URL into a portable markdown rendition of
// its main content.
package extract

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	readability "github.com/go-shiori/go-readability"
)

// Extractor fetches a page and reduces it to markdown. Every failure mode
// (network, timeout, parse) yields an empty result; callers treat that as
// "content unavailable" and move on.
type Extractor struct {
	client    *http.Client
	userAgent string
	logger    *slog.Logger
}

// NewExtractor creates an Extractor with a bounded request timeout and a
// browser-like User-Agent so origins don't trivially reject the fetch.
func NewExtractor(timeout time.Duration, userAgent string, logger *slog.Logger) *Extractor {
	return &Extractor{
		client:    &http.Client{Timeout: timeout},
		userAgent: userAgent,
		logger:    logger,
	}
}

// Markdown returns the markdown rendition of the page at pageURL, or an empty
// string if the content could not be fetched or parsed.
func (e *Extractor) Markdown(ctx context.Context, pageURL string) string {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		e.logger.Warn("invalid page URL", "url", pageURL, "error", err.Error())
		return ""
	}
	req.Header.Set("User-Agent", e.userAgent)

	resp, err := e.client.Do(req)
	if err != nil {
		e.logger.Warn("page fetch failed", "url", pageURL, "error", err.Error())
		return ""
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		e.logger.Warn("page fetch returned non-200", "url", pageURL, "status", resp.StatusCode)
		return ""
	}

	parsed, err := url.Parse(pageURL)
	if err != nil {
		return ""
	}

	article, err := readability.FromReader(resp.Body, parsed)
	if err != nil {
		e.logger.Warn("readability parse failed", "url", pageURL, "error", err.Error())
		return ""
	}

	md, err := HTMLToMarkdown(article.Content)
	if err != nil {
		e.logger.Warn("markdown conversion failed", "url", pageURL, "error", err.Error())
		return ""
	}

	if article.Title != "" && md != "" {
		md = "# " + article.Title + "\n\n" + md
	}

	return md
}

var blankLines = regexp.MustCompile(`\n{3,}`)

// HTMLToMarkdown renders an HTML fragment as markdown. It covers the
// constructs that appear in article bodies: headings, paragraphs, lists,
// quotes, code blocks, links, images and emphasis.
func HTMLToMarkdown(htmlContent string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(htmlContent))
	if err != nil {
		return "", fmt.Errorf("failed to parse content HTML: %w", err)
	}

	doc.Find("script, style, noscript, iframe").Remove()

	// Rewrite inline elements first so their markdown survives the block walk.
	doc.Find("a").Each(func(_ int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		text := strings.TrimSpace(s.Text())
		if href == "" || text == "" {
			return
		}
		s.ReplaceWithHtml(fmt.Sprintf("[%s](%s)", text, href))
	})
	doc.Find("img").Each(func(_ int, s *goquery.Selection) {
		src, _ := s.Attr("src")
		alt, _ := s.Attr("alt")
		if src == "" {
			s.Remove()
			return
		}
		s.ReplaceWithHtml(fmt.Sprintf("![%s](%s)", alt, src))
	})
	doc.Find("strong, b").Each(func(_ int, s *goquery.Selection) {
		if text := strings.TrimSpace(s.Text()); text != "" {
			s.ReplaceWithHtml("**" + text + "**")
		}
	})
	doc.Find("em, i").Each(func(_ int, s *goquery.Selection) {
		if text := strings.TrimSpace(s.Text()); text != "" {
			s.ReplaceWithHtml("*" + text + "*")
		}
	})

	var b strings.Builder
	doc.Find("h1, h2, h3, h4, h5, h6, p, li, blockquote, pre").Each(func(_ int, s *goquery.Selection) {
		// Nested blocks (a <p> inside a <blockquote>, a <pre> inside a <li>)
		// are already emitted by their container.
		if s.ParentsFiltered("blockquote, li, pre").Length() > 0 {
			return
		}

		text := strings.TrimSpace(s.Text())
		if text == "" {
			return
		}

		switch goquery.NodeName(s) {
		case "h1":
			b.WriteString("# " + text)
		case "h2":
			b.WriteString("## " + text)
		case "h3":
			b.WriteString("### " + text)
		case "h4", "h5", "h6":
			b.WriteString("#### " + text)
		case "li":
			b.WriteString("- " + text)
		case "blockquote":
			b.WriteString("> " + text)
		case "pre":
			b.WriteString("```\n" + text + "\n```")
		default:
			b.WriteString(text)
		}
		b.WriteString("\n\n")
	})

	md := strings.TrimSpace(blankLines.ReplaceAllString(b.String(), "\n\n"))
	return md, nil
}
