package pipeline

import (
	"bufio"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/mspencer/gse-genai-scraper/models"
)

// The repository encodes one age field inconsistently; the output
// table carries the corrected column name.
const (
	renameColumnFrom = "Who age?"
	renameColumnTo   = "What age?"
)

// CSVWriter buffers article records and materializes the full table on
// Close: columns are the union of all field names in first-appearance
// order, missing cells are empty, and rows sort ascending by Title.
// Writing only on Close means an interrupted run leaves no partial
// file behind.
type CSVWriter struct {
	path string

	mu       sync.Mutex
	articles []*models.Article
	written  bool
}

// NewCSVWriter initialises a CSV writer targeting path.
func NewCSVWriter(path string) (*CSVWriter, error) {
	if err := ensureDir(path); err != nil {
		return nil, err
	}
	return &CSVWriter{path: path}, nil
}

// Write buffers articles for the final table.
func (cw *CSVWriter) Write(articles []*models.Article) error {
	cw.mu.Lock()
	defer cw.mu.Unlock()

	if cw.written {
		return fmt.Errorf("csv writer already closed")
	}
	cw.articles = append(cw.articles, articles...)
	return nil
}

// Close builds the table and writes the file in one step.
func (cw *CSVWriter) Close() error {
	cw.mu.Lock()
	defer cw.mu.Unlock()

	if cw.written {
		return nil
	}

	header, rows := buildTable(cw.articles)

	f, err := os.Create(cw.path)
	if err != nil {
		return fmt.Errorf("create csv file: %w", err)
	}

	writer := csv.NewWriter(f)
	if err := writer.Write(header); err != nil {
		f.Close()
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, row := range rows {
		if err := writer.Write(row); err != nil {
			f.Close()
			return fmt.Errorf("write csv record: %w", err)
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		f.Close()
		return fmt.Errorf("flush csv records: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close csv file: %w", err)
	}

	cw.written = true
	return nil
}

// Validate ensures the file was written and has content besides the
// header. Only meaningful after Close.
func (cw *CSVWriter) Validate() error {
	cw.mu.Lock()
	defer cw.mu.Unlock()

	if !cw.written {
		return fmt.Errorf("csv file not written yet")
	}
	info, err := os.Stat(cw.path)
	if err != nil {
		return fmt.Errorf("stat csv file: %w", err)
	}
	if info.Size() <= 0 {
		return fmt.Errorf("csv file is empty")
	}
	return nil
}

// buildTable flattens heterogeneous records into header and rows.
// Columns appear in first-seen order across records, the known
// inconsistent column is renamed, and rows sort by title.
func buildTable(articles []*models.Article) ([]string, [][]string) {
	var columns []string
	seen := make(map[string]struct{})
	for _, article := range articles {
		for _, field := range article.Fields {
			if _, ok := seen[field.Name]; ok {
				continue
			}
			seen[field.Name] = struct{}{}
			columns = append(columns, field.Name)
		}
	}

	sorted := make([]*models.Article, len(articles))
	copy(sorted, articles)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Title() < sorted[j].Title()
	})

	rows := make([][]string, 0, len(sorted))
	for _, article := range sorted {
		row := make([]string, len(columns))
		for i, name := range columns {
			value, _ := article.Get(name)
			row[i] = value
		}
		rows = append(rows, row)
	}

	header := make([]string, len(columns))
	for i, name := range columns {
		if name == renameColumnFrom {
			name = renameColumnTo
		}
		header[i] = name
	}
	return header, rows
}

// jsonArticle is the JSONL representation of one record.
type jsonArticle struct {
	URL       string            `json:"url"`
	Fields    map[string]string `json:"fields"`
	ScrapedAt time.Time         `json:"scraped_at"`
}

// JSONWriter writes newline-delimited JSON records as they arrive.
type JSONWriter struct {
	file    *os.File
	writer  *bufio.Writer
	encoder *json.Encoder
	mu      sync.Mutex
}

// NewJSONWriter initialises the JSON writer.
func NewJSONWriter(path string) (*JSONWriter, error) {
	if err := ensureDir(path); err != nil {
		return nil, err
	}

	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create json file: %w", err)
	}

	buffer := bufio.NewWriter(f)
	return &JSONWriter{
		file:    f,
		writer:  buffer,
		encoder: json.NewEncoder(buffer),
	}, nil
}

// Write appends articles in JSONL format.
func (jw *JSONWriter) Write(articles []*models.Article) error {
	jw.mu.Lock()
	defer jw.mu.Unlock()

	for _, article := range articles {
		record := jsonArticle{
			URL:       article.URL,
			Fields:    article.Map(),
			ScrapedAt: article.ScrapedAt,
		}
		if err := jw.encoder.Encode(record); err != nil {
			return fmt.Errorf("encode json record: %w", err)
		}
	}

	if err := jw.writer.Flush(); err != nil {
		return fmt.Errorf("flush json writer: %w", err)
	}

	return nil
}

// Close flushes buffers and closes the underlying file.
func (jw *JSONWriter) Close() error {
	jw.mu.Lock()
	defer jw.mu.Unlock()

	if err := jw.writer.Flush(); err != nil {
		return fmt.Errorf("flush json writer: %w", err)
	}
	return jw.file.Close()
}

// Validate ensures the JSON file has data.
func (jw *JSONWriter) Validate() error {
	info, err := os.Stat(jw.file.Name())
	if err != nil {
		return fmt.Errorf("stat json file: %w", err)
	}
	if info.Size() <= 0 {
		return fmt.Errorf("json file is empty")
	}
	return nil
}

func ensureDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "" || dir == "." {
		return nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create directory %q: %w", dir, err)
	}
	return nil
}
