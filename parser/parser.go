// Package parser extracts structured data from repository page markup.
// It is the only package that knows the site's HTML structure, so a
// markup change on the repository side stays contained here.
package parser

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/mspencer/gse-genai-scraper/models"
)

// Selectors for the repository's page structure.
const (
	paginationSelector  = "ul.pagination li a.page-link"
	articleCardSelector = "ul.list-papers li.col"
	cardTitleSelector   = "div.card a[hreflang='en']"
	cardLinkSelector    = "div.card a[href]"
	contentSelector     = "div.node__content"
	fieldSelector       = "div.field"
	fieldLabelSelector  = "div.field__label"
	fieldItemSelector   = "div.field__item"
	abstractSelector    = "div.field__item, p"
)

// Card is one article summary on a listing page.
type Card struct {
	Title string
	Href  string
}

// PaginationLinks returns the hrefs of the pagination controls on a
// listing page, in document order. An empty result means the page is
// not paginated.
func PaginationLinks(sel *goquery.Selection) ([]string, error) {
	var hrefs []string
	var err error
	sel.Find(paginationSelector).EachWithBreak(func(_ int, link *goquery.Selection) bool {
		href, ok := link.Attr("href")
		if !ok {
			err = fmt.Errorf("pagination link missing href attribute")
			return false
		}
		hrefs = append(hrefs, href)
		return true
	})
	if err != nil {
		return nil, err
	}
	return hrefs, nil
}

// ArticleCards extracts every article summary card on a listing page,
// in document order.
func ArticleCards(sel *goquery.Selection) ([]Card, error) {
	var cards []Card
	var err error
	sel.Find(articleCardSelector).EachWithBreak(func(_ int, cardSel *goquery.Selection) bool {
		var card Card
		card, err = articleCard(cardSel)
		if err != nil {
			return false
		}
		cards = append(cards, card)
		return true
	})
	if err != nil {
		return nil, err
	}
	return cards, nil
}

// articleCard extracts the title and detail-page href from one summary
// card. The title is the dedup key during discovery.
func articleCard(sel *goquery.Selection) (Card, error) {
	titleLink := sel.Find(cardTitleSelector).First()
	if titleLink.Length() == 0 {
		return Card{}, fmt.Errorf("article card has no title link")
	}
	title := strings.TrimSpace(titleLink.Text())

	href, ok := sel.Find(cardLinkSelector).First().Attr("href")
	if !ok {
		return Card{}, fmt.Errorf("article card %q has no href", title)
	}
	return Card{Title: title, Href: href}, nil
}

// ParseArticle builds the metadata record for one article detail page:
// the page's h1 becomes the "Title" field, then every field container
// under the main content node is parsed in order. Fields sharing a
// name overwrite earlier values, so the record keeps one value per
// label.
func ParseArticle(sel *goquery.Selection, url string) (*models.Article, error) {
	h1 := sel.Find("h1").First()
	if h1.Length() == 0 {
		return nil, fmt.Errorf("article page %s has no h1 title", url)
	}

	article := &models.Article{URL: url}
	article.Set("Title", strings.TrimSpace(h1.Text()))

	content := sel.Find(contentSelector).First()
	if content.Length() == 0 {
		return nil, fmt.Errorf("article page %s has no content node", url)
	}

	var err error
	content.Find(fieldSelector).EachWithBreak(func(_ int, fieldSel *goquery.Selection) bool {
		var field models.Field
		field, err = MetadataField(fieldSel)
		if err != nil {
			err = fmt.Errorf("article page %s: %w", url, err)
			return false
		}
		article.Set(field.Name, field.Value)
		return true
	})
	if err != nil {
		return nil, err
	}
	return article, nil
}

// MetadataField parses one field container into a name/value pair.
//
// A container without a label element is the abstract: the value is
// the trimmed text of its first item or paragraph. A field labeled
// exactly "Link" yields the href of its anchor rather than the anchor
// text. Any other field concatenates the text of every item element,
// trimming leading and trailing newlines per item with no separator in
// between; multi-item fields therefore run together, matching the
// site's historical output.
func MetadataField(sel *goquery.Selection) (models.Field, error) {
	label := sel.Find(fieldLabelSelector).First()
	if label.Length() == 0 {
		item := sel.Find(abstractSelector).First()
		if item.Length() == 0 {
			return models.Field{}, fmt.Errorf("unlabeled field has no item or paragraph")
		}
		return models.Field{Name: "Abstract", Value: strings.TrimSpace(item.Text())}, nil
	}

	name := strings.TrimSpace(label.Text())

	if name == "Link" {
		href, ok := sel.Find("a[href]").First().Attr("href")
		if !ok {
			return models.Field{}, fmt.Errorf("link field has no anchor")
		}
		return models.Field{Name: name, Value: href}, nil
	}

	var value strings.Builder
	sel.Find(fieldItemSelector).Each(func(_ int, item *goquery.Selection) {
		value.WriteString(strings.Trim(item.Text(), "\n"))
	})
	return models.Field{Name: name, Value: value.String()}, nil
}
