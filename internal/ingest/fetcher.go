// Package ingest pulls camp announcements from organizer sources: JSON
// camp catalogs and RSS/Atom feeds.
package ingest

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/mmcdole/gofeed"
	"github.com/rs/zerolog/log"

	"github.com/bryan-buckman/donorhub/internal/catalog"
	"github.com/bryan-buckman/donorhub/internal/database"
	"github.com/bryan-buckman/donorhub/internal/model"
)

// Concurrency settings
const (
	// MaxConcurrencyPostgres is the number of parallel fetches for PostgreSQL
	MaxConcurrencyPostgres = 10
	// MaxConcurrencySQLite is the number of parallel fetches for SQLite
	MaxConcurrencySQLite = 1
)

const maxErrorLen = 200

// truncateError cuts msg to at most maxErrorLen bytes of valid UTF-8.
func truncateError(msg string) string {
	msg = strings.ToValidUTF8(msg, "\uFFFD")
	if len(msg) <= maxErrorLen {
		return msg
	}
	n := maxErrorLen
	for n > 0 && !utf8.RuneStart(msg[n]) {
		n--
	}
	return msg[:n]
}

// Fetcher reads sources and stores the camps they announce.
type Fetcher struct {
	db            database.Store
	client        *http.Client
	parser        *gofeed.Parser
	concurrency   int
	domainLimiter *domainLimiter
}

// Option customizes a Fetcher.
type Option func(*Fetcher)

// WithHTTPClient replaces the client used for both source kinds.
func WithHTTPClient(c *http.Client) Option {
	return func(f *Fetcher) {
		f.client = c
		f.parser.Client = c
	}
}

// WithDomainDelay overrides DelayBetweenDomainRequests.
func WithDomainDelay(d time.Duration) Option {
	return func(f *Fetcher) { f.domainLimiter.delay = d }
}

// WithConcurrency overrides the worker count picked from the store.
func WithConcurrency(n int) Option {
	return func(f *Fetcher) {
		if n > 0 {
			f.concurrency = n
		}
	}
}

// NewFetcher creates a fetcher whose concurrency follows the store.
func NewFetcher(db database.Store, opts ...Option) *Fetcher {
	concurrency := MaxConcurrencySQLite
	if db.SupportsHighConcurrency() {
		concurrency = MaxConcurrencyPostgres
	}
	client := &http.Client{Timeout: 30 * time.Second}
	parser := gofeed.NewParser()
	parser.Client = client
	parser.UserAgent = "donorhub/1.0"

	f := &Fetcher{
		db:            db,
		client:        client,
		parser:        parser,
		concurrency:   concurrency,
		domainLimiter: newDomainLimiter(DelayBetweenDomainRequests),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// FetchSource reads one source and stores camps it has not announced
// before. Returns the number of new camps.
func (f *Fetcher) FetchSource(ctx context.Context, src model.Source) (int, error) {
	host := hostOf(src.URL)
	if err := f.domainLimiter.acquire(ctx, host); err != nil {
		return 0, fmt.Errorf("rate limit cancelled for %s: %w", src.URL, err)
	}
	defer f.domainLimiter.release(host)

	var camps []model.Camp
	var err error
	switch src.Kind {
	case model.SourceJSON:
		camps, err = f.readJSON(ctx, src)
	default:
		camps, err = f.readFeed(ctx, src)
	}
	if err != nil {
		if uerr := f.db.UpdateSourceError(src.ID, truncateError(err.Error())); uerr != nil {
			log.Error().Err(uerr).Int64("source_id", src.ID).Msg("Failed to record source error")
		}
		return 0, fmt.Errorf("read source %s: %w", src.URL, err)
	}

	newCount := 0
	for i := range camps {
		camp := camps[i]
		camp.SourceID = &src.ID
		_, isNew, err := f.db.AddImportedCamp(&camp)
		if err != nil {
			log.Error().Err(err).Str("guid", camp.GUID).Msg("Failed to store imported camp")
			continue
		}
		if isNew {
			newCount++
		}
	}

	if err := f.db.UpdateSourceFetched(src.ID, time.Now().UTC()); err != nil {
		log.Error().Err(err).Int64("source_id", src.ID).Msg("Failed to update last_fetched")
	}
	return newCount, nil
}

func (f *Fetcher) readJSON(ctx context.Context, src model.Source) ([]model.Camp, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, src.URL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	resp, err := f.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("http error: %s", resp.Status)
	}

	decoded, err := catalog.DecodeCamps(io.LimitReader(resp.Body, 10<<20))
	if err != nil {
		return nil, err
	}
	camps := make([]model.Camp, 0, len(decoded))
	for _, dc := range decoded {
		camps = append(camps, campFromDecoded(dc))
	}
	return camps, nil
}

func (f *Fetcher) readFeed(ctx context.Context, src model.Source) ([]model.Camp, error) {
	parsed, err := f.parser.ParseURLWithContext(src.URL, ctx)
	if err != nil {
		return nil, err
	}
	organizer := parsed.Title
	if organizer == "" {
		organizer = src.Title
	}
	camps := make([]model.Camp, 0, len(parsed.Items))
	for _, item := range parsed.Items {
		camp, ok := campFromItem(item, organizer)
		if !ok {
			log.Debug().Str("source", src.URL).Str("title", item.Title).Msg("Skipping feed entry without camp details")
			continue
		}
		camps = append(camps, camp)
	}
	return camps, nil
}

// FetchResult holds the result of fetching a single source.
type FetchResult struct {
	SourceID int64
	NewCamps int
	Error    error
}

// FetchAll fetches every source, in parallel when the store allows it.
// Returns source ID -> new camp count for the sources that succeeded.
func (f *Fetcher) FetchAll(ctx context.Context) (map[int64]int, error) {
	sources, err := f.db.GetSources()
	if err != nil {
		return nil, err
	}
	if len(sources) == 0 {
		return make(map[int64]int), nil
	}

	log.Info().Int("sources", len(sources)).Int("concurrency", f.concurrency).Msg("Fetching sources")

	if f.concurrency <= 1 {
		return f.fetchSequential(ctx, sources)
	}
	return f.fetchParallel(ctx, sources)
}

func (f *Fetcher) fetchSequential(ctx context.Context, sources []model.Source) (map[int64]int, error) {
	results := make(map[int64]int)
	for i, src := range sources {
		if err := ctx.Err(); err != nil {
			log.Warn().Int("done", i).Int("total", len(sources)).Msg("FetchAll cancelled")
			return results, err
		}
		count, err := f.FetchSource(ctx, src)
		if err != nil {
			log.Warn().Err(err).Str("source", src.URL).Msg("Failed to fetch source")
			continue
		}
		results[src.ID] = count
	}
	return results, nil
}

func (f *Fetcher) fetchParallel(ctx context.Context, sources []model.Source) (map[int64]int, error) {
	var wg sync.WaitGroup
	sourceChan := make(chan model.Source)
	resultChan := make(chan FetchResult, len(sources))

	for i := 0; i < f.concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for src := range sourceChan {
				count, err := f.FetchSource(ctx, src)
				resultChan <- FetchResult{SourceID: src.ID, NewCamps: count, Error: err}
			}
		}()
	}

	go func() {
		defer close(sourceChan)
		for _, src := range sources {
			select {
			case <-ctx.Done():
				return
			case sourceChan <- src:
			}
		}
	}()

	go func() {
		wg.Wait()
		close(resultChan)
	}()

	results := make(map[int64]int)
	for result := range resultChan {
		if result.Error != nil {
			log.Warn().Err(result.Error).Int64("source_id", result.SourceID).Msg("Failed to fetch source")
			continue
		}
		results[result.SourceID] = result.NewCamps
	}
	return results, ctx.Err()
}
