package application

import (
	"bytes"
	"encoding/json"
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
	"unicode"

	"github.com/AzielCF/az-agent/knowledge/domain"
	"github.com/PuerkitoBio/goquery"
	"golang.org/x/text/unicode/norm"
)

var (
	mdHeader    = regexp.MustCompile(`(?m)#{1,6}\s+`)
	mdBold      = regexp.MustCompile(`\*\*(.*?)\*\*`)
	mdItalic    = regexp.MustCompile(`\*(.*?)\*`)
	mdLink      = regexp.MustCompile(`\[(.*?)\]\(.*?\)`)
	mdCode      = regexp.MustCompile("`(.*?)`")
	whitespace  = regexp.MustCompile(`\s+`)
	blockTags   = "p, div, li, br, tr, td, th, h1, h2, h3, h4, h5, h6, section, article, header, footer"
	droppedTags = "script, style, noscript, template, svg"
)

// ResolveType maps DocumentFile (and an empty type) to a concrete type using the file extension.
func ResolveType(doc domain.Document) domain.DocumentType {
	if doc.Type != "" && doc.Type != domain.DocumentFile {
		return doc.Type
	}
	switch strings.ToLower(filepath.Ext(doc.Name)) {
	case ".md", ".markdown":
		return domain.DocumentMarkdown
	case ".html", ".htm":
		return domain.DocumentHTML
	case ".json":
		return domain.DocumentJSON
	default:
		return domain.DocumentText
	}
}

// ExtractText returns the cleaned plain text of doc.
func ExtractText(doc domain.Document) (string, error) {
	var (
		text string
		err  error
	)
	switch ResolveType(doc) {
	case domain.DocumentHTML:
		text, err = extractHTML(doc.Content)
	case domain.DocumentMarkdown:
		text = extractMarkdown(doc.Content)
	case domain.DocumentJSON:
		text, err = extractJSON(doc.Content)
	default:
		text = doc.Content
	}
	if err != nil {
		return "", fmt.Errorf("extract %s: %w", doc.Name, err)
	}
	return CleanText(text), nil
}

func extractHTML(content string) (string, error) {
	page, err := goquery.NewDocumentFromReader(strings.NewReader(content))
	if err != nil {
		return "", err
	}
	page.Find(droppedTags).Remove()
	// keep words of adjacent blocks apart
	page.Find(blockTags).Each(func(_ int, s *goquery.Selection) {
		s.AppendHtml(" ")
	})

	root := page.Find("body")
	if root.Length() == 0 {
		root = page.Selection
	}
	return root.Text(), nil
}

func extractMarkdown(content string) string {
	text := mdHeader.ReplaceAllString(content, "")
	text = mdBold.ReplaceAllString(text, "$1")
	text = mdItalic.ReplaceAllString(text, "$1")
	text = mdLink.ReplaceAllString(text, "$1")
	text = mdCode.ReplaceAllString(text, "$1")
	return strings.TrimSpace(text)
}

func extractJSON(content string) (string, error) {
	var out bytes.Buffer
	if err := json.Indent(&out, []byte(content), "", "  "); err != nil {
		return "", err
	}
	return out.String(), nil
}

// CleanText normalizes to NFC, collapses whitespace and keeps only ASCII, Hebrew and Arabic runes.
func CleanText(text string) string {
	text = norm.NFC.String(text)
	text = strings.Map(func(r rune) rune {
		switch {
		case r <= unicode.MaxASCII:
			return r
		case r >= 0x0590 && r <= 0x05FF: // Hebrew
			return r
		case r >= 0x0600 && r <= 0x06FF: // Arabic
			return r
		case unicode.IsSpace(r):
			return ' '
		}
		return -1
	}, text)
	return strings.TrimSpace(whitespace.ReplaceAllString(text, " "))
}
