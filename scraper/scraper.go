// Package scraper implements the three-stage crawl over the research
// repository: listing-page discovery, article-URL discovery, and
// per-article metadata extraction.
package scraper

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gocolly/colly/v2"

	"github.com/mspencer/gse-genai-scraper/config"
	"github.com/mspencer/gse-genai-scraper/models"
	"github.com/mspencer/gse-genai-scraper/parser"
	"github.com/mspencer/gse-genai-scraper/pipeline"
)

// Crawl stage labels, used for logs and request metrics.
const (
	stagePages    = "page_discovery"
	stageListings = "article_discovery"
	stageExtract  = "extraction"
)

// Scraper drives colly collectors through the three crawl stages.
// Each stage gets its own collector so handlers stay stage-local; all
// stages share the transport and the error accounting.
type Scraper struct {
	cfg       *config.Config
	host      string
	transport http.RoundTripper
	Metrics   *Metrics

	requestCount int64
	errorCount   int64

	mu           sync.Mutex
	skippedURLs  []string
	errorsByType map[string]int
	fatal        error
}

// NewScraper builds a scraper instance configured from cfg.
func NewScraper(cfg *config.Config) (*Scraper, error) {
	parsed, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if parsed.Host == "" {
		return nil, fmt.Errorf("base url must include a host")
	}

	transport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   cfg.Timeout,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:        100,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
	}

	return &Scraper{
		cfg:          cfg,
		host:         parsed.Host,
		transport:    transport,
		Metrics:      NewMetrics(),
		errorsByType: make(map[string]int),
	}, nil
}

// Run executes the full crawl: seeds to listing pages, listing pages
// to distinct article URLs, article URLs to metadata records streamed
// into the pipeline. A non-200 response at any stage skips that URL
// with a warning; network failures and structural parse failures abort
// the run.
func (s *Scraper) Run(ctx context.Context, p *pipeline.Pipeline) (*models.ScrapeResult, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	start := time.Now()

	pages, err := s.DiscoverPages(ctx, s.cfg.SeedURLs)
	if err != nil {
		return nil, fmt.Errorf("page discovery: %w", err)
	}

	articleURLs, err := s.DiscoverArticles(ctx, pages)
	if err != nil {
		return nil, fmt.Errorf("article discovery: %w", err)
	}

	extracted, err := s.ExtractArticles(ctx, articleURLs, p)
	if err != nil {
		return nil, fmt.Errorf("article extraction: %w", err)
	}

	return &models.ScrapeResult{
		StartTime:    start,
		EndTime:      time.Now(),
		PageCount:    len(pages),
		ArticleCount: len(articleURLs),
		TotalCount:   extracted,
		RequestCount: int(atomic.LoadInt64(&s.requestCount)),
		ErrorCount:   int(atomic.LoadInt64(&s.errorCount)),
		SkippedURLs:  s.snapshotSkippedURLs(),
		ErrorsByType: s.snapshotErrors(),
	}, nil
}

// DiscoverPages fetches each seed search URL and collects the set of
// result-listing pages. A seed whose response carries no pagination
// controls is itself the only listing page; otherwise every pagination
// href is resolved against the repository base path and the seed is
// not included.
func (s *Scraper) DiscoverPages(ctx context.Context, seeds []string) (map[string]struct{}, error) {
	c, err := s.newCollector(stagePages)
	if err != nil {
		return nil, err
	}

	pages := make(map[string]struct{})
	var mu sync.Mutex

	c.OnHTML("html", func(e *colly.HTMLElement) {
		links, perr := parser.PaginationLinks(e.DOM)
		if perr != nil {
			s.setFatal(fmt.Errorf("parse %s: %w", e.Request.URL, perr))
			return
		}
		mu.Lock()
		defer mu.Unlock()
		if len(links) == 0 {
			pages[e.Request.URL.String()] = struct{}{}
			return
		}
		for _, href := range links {
			pages[s.cfg.BaseURL+s.cfg.RepositoryPath+href] = struct{}{}
		}
	})

	if err := s.visitAll(ctx, c, seeds); err != nil {
		return nil, err
	}
	c.Wait()
	if err := s.fatalErr(); err != nil {
		return nil, err
	}

	slog.Info("identified listing pages", slog.Int("count", len(pages)))
	return pages, nil
}

// DiscoverArticles fetches each listing page and collects distinct
// article detail-page URLs. The article title is the dedup key across
// all listing pages, so two cards sharing a title yield one URL even
// when their hrefs differ.
func (s *Scraper) DiscoverArticles(ctx context.Context, pages map[string]struct{}) (map[string]struct{}, error) {
	c, err := s.newCollector(stageListings)
	if err != nil {
		return nil, err
	}

	articles := make(map[string]struct{})
	seenTitles := make(map[string]struct{})
	var mu sync.Mutex

	c.OnHTML("html", func(e *colly.HTMLElement) {
		cards, perr := parser.ArticleCards(e.DOM)
		if perr != nil {
			s.setFatal(fmt.Errorf("parse %s: %w", e.Request.URL, perr))
			return
		}
		mu.Lock()
		defer mu.Unlock()
		for _, card := range cards {
			if _, seen := seenTitles[card.Title]; seen {
				s.Metrics.IncDuplicateTitle()
				continue
			}
			seenTitles[card.Title] = struct{}{}
			articles[s.cfg.BaseURL+card.Href] = struct{}{}
		}
	})

	if err := s.visitAll(ctx, c, setToSlice(pages)); err != nil {
		return nil, err
	}
	c.Wait()
	if err := s.fatalErr(); err != nil {
		return nil, err
	}

	slog.Info("identified distinct articles to scrape", slog.Int("count", len(articles)))
	return articles, nil
}

// ExtractArticles fetches each article page, parses it into a metadata
// record, and streams the records into the pipeline. Returns the
// number of articles extracted.
func (s *Scraper) ExtractArticles(ctx context.Context, urls map[string]struct{}, p *pipeline.Pipeline) (int, error) {
	c, err := s.newCollector(stageExtract)
	if err != nil {
		return 0, err
	}

	slog.Info("scraping article metadata", slog.Int("count", len(urls)))

	var extracted int64
	c.OnHTML("html", func(e *colly.HTMLElement) {
		article, perr := parser.ParseArticle(e.DOM, e.Request.URL.String())
		if perr != nil {
			s.setFatal(perr)
			return
		}
		article.ScrapedAt = time.Now()
		s.Metrics.IncArticles()
		atomic.AddInt64(&extracted, 1)
		if err := p.Process(article); err != nil && !errors.Is(err, pipeline.ErrPipelineClosed) {
			slog.Error("pipeline process error", slog.Any("error", err))
		}
	})

	if err := s.visitAll(ctx, c, setToSlice(urls)); err != nil {
		return 0, err
	}
	c.Wait()
	if err := s.fatalErr(); err != nil {
		return 0, err
	}

	slog.Info("scraped article metadata", slog.Int("count", int(extracted)))
	return int(extracted), nil
}

func (s *Scraper) newCollector(stage string) (*colly.Collector, error) {
	c := colly.NewCollector(
		colly.Async(true),
		colly.AllowedDomains(s.host),
		colly.UserAgent(s.cfg.UserAgent),
	)
	c.SetRequestTimeout(s.cfg.Timeout)
	c.IgnoreRobotsTxt = true
	c.WithTransport(s.transport)

	if err := c.Limit(&colly.LimitRule{
		DomainGlob:  "*",
		Parallelism: s.cfg.Parallelism,
		Delay:       s.cfg.Delay,
		RandomDelay: s.cfg.RandomDelay,
	}); err != nil {
		return nil, fmt.Errorf("configure rate limits: %w", err)
	}

	c.OnRequest(func(r *colly.Request) {
		r.Ctx.Put("start", time.Now())
		atomic.AddInt64(&s.requestCount, 1)
		s.Metrics.IncRequest(stage)
	})

	c.OnResponse(func(r *colly.Response) {
		if start, ok := r.Request.Ctx.GetAny("start").(time.Time); ok {
			s.Metrics.ObserveDuration(time.Since(start))
		}
	})

	c.OnError(func(r *colly.Response, err error) {
		atomic.AddInt64(&s.errorCount, 1)
		statusCode := 0
		requestURL := ""
		if r != nil {
			statusCode = r.StatusCode
			if r.Request != nil && r.Request.URL != nil {
				requestURL = r.Request.URL.String()
			}
		}
		classified := classifyError(err, statusCode)
		category := errorTypeLabel(classified)

		s.mu.Lock()
		s.errorsByType[category]++
		s.mu.Unlock()
		s.Metrics.IncError(category)

		if statusCode != 0 {
			// non-200 response: skip the URL, the crawl continues
			slog.Warn("failed to retrieve url, skipping",
				slog.String("url", requestURL),
				slog.Int("status", statusCode),
				slog.String("stage", stage),
			)
			s.mu.Lock()
			s.skippedURLs = append(s.skippedURLs, requestURL)
			s.mu.Unlock()
			return
		}

		slog.Error("request failed",
			slog.String("url", requestURL),
			slog.String("stage", stage),
			slog.Any("error", err),
		)
		s.setFatal(classified)
	})

	return c, nil
}

func (s *Scraper) visitAll(ctx context.Context, c *colly.Collector, urls []string) error {
	for _, u := range urls {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := c.Visit(u); err != nil && !errors.Is(err, colly.ErrAlreadyVisited) {
			return fmt.Errorf("visit %s: %w", u, err)
		}
	}
	return nil
}

func (s *Scraper) setFatal(err error) {
	if err == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fatal == nil {
		s.fatal = err
	}
}

func (s *Scraper) fatalErr() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.fatal
}

func (s *Scraper) snapshotSkippedURLs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.skippedURLs))
	copy(out, s.skippedURLs)
	return out
}

func (s *Scraper) snapshotErrors() map[string]int {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]int, len(s.errorsByType))
	for k, v := range s.errorsByType {
		out[k] = v
	}
	return out
}

func setToSlice(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for u := range set {
		out = append(out, u)
	}
	return out
}

func classifyError(err error, statusCode int) error {
	if err == nil && statusCode == 0 {
		return nil
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return ErrTimeout{Err: err}
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return ErrTimeout{Err: err}
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return ErrConnection{Err: err}
	}

	if statusCode != 0 && statusCode != http.StatusOK {
		wrapped := err
		if wrapped == nil {
			wrapped = fmt.Errorf("http status %d", statusCode)
		}
		switch statusCode {
		case http.StatusForbidden:
			return ErrForbidden{Err: wrapped}
		case http.StatusNotFound:
			return ErrNotFound{Err: wrapped}
		default:
			return ErrBadStatus{Code: statusCode, Err: wrapped}
		}
	}

	if err == nil {
		return nil
	}
	return err
}
