package email

import (
	"fmt"

	"aibrief/internal/core"

	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"
)

// RenderHTML converts the composed email to a self-contained HTML body
// suitable for the html part of a multipart message.
func RenderHTML(r core.EmailDigestResponse) string {
	extensions := parser.CommonExtensions
	mdParser := parser.NewWithExtensions(extensions)

	htmlFlags := html.CommonFlags | html.HrefTargetBlank
	renderer := html.NewRenderer(html.RendererOptions{Flags: htmlFlags})

	body := markdown.ToHTML([]byte(ToMarkdown(r)), mdParser, renderer)

	return fmt.Sprintf(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="UTF-8">
<meta name="viewport" content="width=device-width, initial-scale=1.0">
<style type="text/css">
  body {
    margin: 0;
    padding: 24px;
    background-color: #f8fafc;
    font-family: system-ui, -apple-system, 'Segoe UI', Roboto, sans-serif;
    color: #1e293b;
    line-height: 1.6;
  }
  .container {
    max-width: 600px;
    margin: 0 auto;
    background-color: #ffffff;
    border: 1px solid #e2e8f0;
    border-radius: 8px;
    padding: 24px;
  }
  h2 {
    color: #1e293b;
    font-size: 20px;
    font-weight: 600;
    margin: 24px 0 12px 0;
  }
  a {
    color: #3b82f6;
    text-decoration: none;
  }
  a:hover {
    text-decoration: underline;
  }
  hr {
    border: none;
    border-top: 1px solid #e2e8f0;
    margin: 20px 0;
  }
</style>
</head>
<body>
<div class="container">
%s
</div>
</body>
</html>`, body)
}
