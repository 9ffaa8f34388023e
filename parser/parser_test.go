package parser

import (
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
)

func parseHTML(t *testing.T, html string) *goquery.Selection {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		t.Fatalf("parse fixture: %v", err)
	}
	return doc.Selection
}

func TestPaginationLinks(t *testing.T) {
	tests := []struct {
		name     string
		html     string
		expected []string
		wantErr  bool
	}{
		{
			name: "multiple links",
			html: `<html><body><ul class="pagination">
				<li><a class="page-link" href="?page=0">1</a></li>
				<li><a class="page-link" href="?page=1">2</a></li>
				<li><a class="page-link" href="?page=2">3</a></li>
			</ul></body></html>`,
			expected: []string{"?page=0", "?page=1", "?page=2"},
		},
		{
			name:     "no pagination",
			html:     `<html><body><ul class="list-papers"></ul></body></html>`,
			expected: nil,
		},
		{
			name: "ignores links outside pagination",
			html: `<html><body>
				<a class="page-link" href="?page=9">stray</a>
				<ul class="pagination"><li><a class="page-link" href="?page=0">1</a></li></ul>
			</body></html>`,
			expected: []string{"?page=0"},
		},
		{
			name:    "link missing href",
			html:    `<html><body><ul class="pagination"><li><a class="page-link">1</a></li></ul></body></html>`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			links, err := PaginationLinks(parseHTML(t, tt.html))
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error, got links %v", links)
				}
				return
			}
			if err != nil {
				t.Fatalf("pagination links: %v", err)
			}
			if len(links) != len(tt.expected) {
				t.Fatalf("links = %v, want %v", links, tt.expected)
			}
			for i := range links {
				if links[i] != tt.expected[i] {
					t.Fatalf("links[%d] = %q, want %q", i, links[i], tt.expected[i])
				}
			}
		})
	}
}

func TestArticleCards(t *testing.T) {
	html := `<html><body><ul class="list-papers">
		<li class="col"><div class="card">
			<a hreflang="en" href="/papers/alpha"> Alpha Study </a>
		</div></li>
		<li class="col"><div class="card">
			<a hreflang="en" href="/papers/beta">Beta Study</a>
		</div></li>
	</ul></body></html>`

	cards, err := ArticleCards(parseHTML(t, html))
	if err != nil {
		t.Fatalf("article cards: %v", err)
	}
	if len(cards) != 2 {
		t.Fatalf("cards = %d, want 2", len(cards))
	}
	if cards[0].Title != "Alpha Study" || cards[0].Href != "/papers/alpha" {
		t.Fatalf("first card = %+v", cards[0])
	}
	if cards[1].Title != "Beta Study" || cards[1].Href != "/papers/beta" {
		t.Fatalf("second card = %+v", cards[1])
	}
}

func TestArticleCardsMissingTitleLink(t *testing.T) {
	html := `<html><body><ul class="list-papers">
		<li class="col"><div class="card"><span>no link</span></div></li>
	</ul></body></html>`

	if _, err := ArticleCards(parseHTML(t, html)); err == nil {
		t.Fatalf("expected error for card without title link")
	}
}

func TestMetadataField(t *testing.T) {
	tests := []struct {
		name      string
		html      string
		wantName  string
		wantValue string
		wantErr   bool
	}{
		{
			name: "link field uses href not text",
			html: `<div class="field">
				<div class="field__label">Link</div>
				<div class="field__item"><a href="/papers/x">Read the paper</a></div>
			</div>`,
			wantName:  "Link",
			wantValue: "/papers/x",
		},
		{
			name:      "unlabeled field is the abstract",
			html:      `<div class="field"><div class="field__item"> Summary text </div></div>`,
			wantName:  "Abstract",
			wantValue: "Summary text",
		},
		{
			name:      "unlabeled field falls back to paragraph",
			html:      `<div class="field"><p> A paragraph abstract </p></div>`,
			wantName:  "Abstract",
			wantValue: "A paragraph abstract",
		},
		{
			name: "multiple items concatenate without separator",
			html: "<div class=\"field\"><div class=\"field__label\">Benefits</div>" +
				"<div class=\"field__item\">A\n</div><div class=\"field__item\">B\n</div></div>",
			wantName:  "Benefits",
			wantValue: "AB",
		},
		{
			name: "single item trims only newlines",
			html: "<div class=\"field\"><div class=\"field__label\">Who age?</div>" +
				"<div class=\"field__item\">\n5-8 years\n</div></div>",
			wantName:  "Who age?",
			wantValue: "5-8 years",
		},
		{
			name:      "labeled field with no items yields empty value",
			html:      `<div class="field"><div class="field__label">Setting</div></div>`,
			wantName:  "Setting",
			wantValue: "",
		},
		{
			name:    "unlabeled field with no item fails",
			html:    `<div class="field"><span>nothing useful</span></div>`,
			wantErr: true,
		},
		{
			name: "link field with no anchor fails",
			html: `<div class="field">
				<div class="field__label">Link</div>
				<div class="field__item">no anchor here</div>
			</div>`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sel := parseHTML(t, tt.html).Find("div.field").First()
			field, err := MetadataField(sel)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error, got field %+v", field)
				}
				return
			}
			if err != nil {
				t.Fatalf("metadata field: %v", err)
			}
			if field.Name != tt.wantName {
				t.Fatalf("name = %q, want %q", field.Name, tt.wantName)
			}
			if field.Value != tt.wantValue {
				t.Fatalf("value = %q, want %q", field.Value, tt.wantValue)
			}
		})
	}
}

func TestParseArticle(t *testing.T) {
	html := `<html><body>
		<h1> A Study of Tutors </h1>
		<div class="node__content">
			<div class="field"><div class="field__item">An abstract about tutoring.</div></div>
			<div class="field">
				<div class="field__label">Who age?</div>
				<div class="field__item">9-12 years</div>
			</div>
			<div class="field">
				<div class="field__label">Link</div>
				<div class="field__item"><a href="https://journals.test/tutors">publisher</a></div>
			</div>
		</div>
	</body></html>`

	article, err := ParseArticle(parseHTML(t, html), "http://example.test/papers/tutors")
	if err != nil {
		t.Fatalf("parse article: %v", err)
	}

	if got := article.Title(); got != "A Study of Tutors" {
		t.Fatalf("title = %q", got)
	}
	if got, _ := article.Get("Abstract"); got != "An abstract about tutoring." {
		t.Fatalf("abstract = %q", got)
	}
	if got, _ := article.Get("Who age?"); got != "9-12 years" {
		t.Fatalf("who age = %q", got)
	}
	if got, _ := article.Get("Link"); got != "https://journals.test/tutors" {
		t.Fatalf("link = %q", got)
	}
	if article.URL != "http://example.test/papers/tutors" {
		t.Fatalf("url = %q", article.URL)
	}
}

func TestParseArticleStructuralFailures(t *testing.T) {
	tests := []struct {
		name string
		html string
	}{
		{
			name: "missing h1",
			html: `<html><body><div class="node__content"></div></body></html>`,
		},
		{
			name: "missing content node",
			html: `<html><body><h1>Title Only</h1></body></html>`,
		},
		{
			name: "broken field aborts the page",
			html: `<html><body><h1>Title</h1><div class="node__content">
				<div class="field"><span>unlabeled, no item</span></div>
			</div></body></html>`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ParseArticle(parseHTML(t, tt.html), "http://example.test/papers/x"); err == nil {
				t.Fatalf("expected error")
			}
		})
	}
}

func TestParseArticleRepeatedLabelKeepsLastValue(t *testing.T) {
	html := `<html><body><h1>Repeats</h1><div class="node__content">
		<div class="field"><div class="field__label">Setting</div><div class="field__item">First</div></div>
		<div class="field"><div class="field__label">Setting</div><div class="field__item">Second</div></div>
	</div></body></html>`

	article, err := ParseArticle(parseHTML(t, html), "http://example.test/papers/r")
	if err != nil {
		t.Fatalf("parse article: %v", err)
	}
	if got, _ := article.Get("Setting"); got != "Second" {
		t.Fatalf("setting = %q, want %q", got, "Second")
	}
	if len(article.Fields) != 2 { // Title + Setting
		t.Fatalf("fields = %d, want 2", len(article.Fields))
	}
}
