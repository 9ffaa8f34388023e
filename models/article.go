// Package models defines data structures for the scraper.
package models

import "time"

// Field is a single labeled metadata value from an article page.
type Field struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// Article holds the metadata extracted from one article detail page.
// Fields keep insertion order so the CSV column union is stable; the
// set of field names varies per article with whatever labels the
// repository page carries.
type Article struct {
	URL       string    `json:"url"`
	Fields    []Field   `json:"fields"`
	ScrapedAt time.Time `json:"scraped_at"`
}

// Set assigns a field value, replacing an existing field of the same
// name in place rather than appending a duplicate.
func (a *Article) Set(name, value string) {
	for i := range a.Fields {
		if a.Fields[i].Name == name {
			a.Fields[i].Value = value
			return
		}
	}
	a.Fields = append(a.Fields, Field{Name: name, Value: value})
}

// Get returns a field value and whether the field is present.
func (a *Article) Get(name string) (string, bool) {
	for _, f := range a.Fields {
		if f.Name == name {
			return f.Value, true
		}
	}
	return "", false
}

// Title returns the article title, empty if missing.
func (a *Article) Title() string {
	title, _ := a.Get("Title")
	return title
}

// Map flattens the fields into a name/value map.
func (a *Article) Map() map[string]string {
	out := make(map[string]string, len(a.Fields))
	for _, f := range a.Fields {
		out[f.Name] = f.Value
	}
	return out
}

// ScrapeResult holds the overall result of a scraping run.
type ScrapeResult struct {
	StartTime    time.Time
	EndTime      time.Time
	PageCount    int
	ArticleCount int
	TotalCount   int
	RequestCount int
	ErrorCount   int
	SkippedURLs  []string
	ErrorsByType map[string]int
}
