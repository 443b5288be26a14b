package ingest

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/bryan-buckman/donorhub/internal/database"
	"github.com/bryan-buckman/donorhub/internal/model"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m,
		goleak.IgnoreTopFunction("net/http.(*persistConn).readLoop"),
		goleak.IgnoreTopFunction("net/http.(*persistConn).writeLoop"),
		goleak.IgnoreTopFunction("internal/poll.runtime_pollWait"),
	)
}

const campFeed = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0">
<channel>
  <title>Red Cross Society</title>
  <link>https://redcross.example.org</link>
  <description>Upcoming drives</description>
  <item>
    <title>Community Health Center Drive</title>
    <guid>rc-2025-05-18</guid>
    <description>Walk-ins welcome</description>
    <date>May 18, 2025</date>
    <time>9:00 AM - 2:00 PM</time>
    <location>Community Health Center</location>
    <city>Mumbai</city>
    <category>O-</category>
    <category>B+</category>
  </item>
  <item>
    <title>Station Drive</title>
    <guid>rc-2025-06-01</guid>
    <pubDate>Sun, 01 Jun 2025 09:00:00 +0000</pubDate>
    <category>Pune</category>
  </item>
  <item>
    <title>Newsletter, not a camp</title>
    <guid>rc-news</guid>
  </item>
</channel>
</rss>`

const campJSON = `[
  {"id": "c-1", "title": "Corporate Office Drive", "organizer": "Tech Solutions Inc.", "date": "2025-05-22",
   "location": "Tech Park Building A", "city": "Hyderabad", "bloodTypesNeeded": ["A+"]},
  {"title": "Mall Awareness Drive", "organizer": "Blood Connects NGO", "date": "May 27, 2025",
   "location": "Central City Mall", "city": "Delhi"}
]`

func openStore(t *testing.T) *database.DB {
	t.Helper()
	db, err := database.New(filepath.Join(t.TempDir(), "ingest.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func organizerServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/feed.xml", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/rss+xml")
		w.Write([]byte(campFeed))
	})
	mux.HandleFunc("/camps.json", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(campJSON))
	})
	mux.HandleFunc("/broken.json", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[{"title": "no city"}]`))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func newTestFetcher(t *testing.T, db database.Store, opts ...Option) *Fetcher {
	t.Helper()
	client := &http.Client{Timeout: 5 * time.Second}
	t.Cleanup(client.CloseIdleConnections)
	return NewFetcher(db, append([]Option{WithHTTPClient(client), WithDomainDelay(0)}, opts...)...)
}

func TestFetchFeedSource(t *testing.T) {
	db := openStore(t)
	srv := organizerServer(t)
	f := newTestFetcher(t, db)

	id, _, err := db.GetOrCreateSource("Red Cross", srv.URL+"/feed.xml", model.SourceFeed)
	require.NoError(t, err)
	src, err := db.GetSourceByID(id)
	require.NoError(t, err)

	n, err := f.FetchSource(context.Background(), *src)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	camps, err := db.GetCamps()
	require.NoError(t, err)
	require.Len(t, camps, 2)

	first := camps[0]
	assert.Equal(t, "Community Health Center Drive", first.Title)
	assert.Equal(t, "Red Cross Society", first.Organizer)
	assert.Equal(t, "May 18, 2025", first.Date)
	assert.Equal(t, "Mumbai", first.City)
	assert.Equal(t, []model.BloodType{model.ONeg, model.BPos}, first.BloodTypesNeeded)
	require.NotNil(t, first.SourceID)
	assert.Equal(t, id, *first.SourceID)

	second := camps[1]
	assert.Equal(t, "2025-06-01", second.Date)
	assert.Equal(t, "Pune", second.City)
	assert.Equal(t, "Pune", second.Location)

	n, err = f.FetchSource(context.Background(), *src)
	require.NoError(t, err)
	assert.Zero(t, n, "refetch must not duplicate camps")

	src, err = db.GetSourceByID(id)
	require.NoError(t, err)
	assert.False(t, src.LastFetched.IsZero())
}

func TestFetchJSONSource(t *testing.T) {
	db := openStore(t)
	srv := organizerServer(t)
	f := newTestFetcher(t, db)

	id, _, err := db.GetOrCreateSource("Partners", srv.URL+"/camps.json", model.SourceJSON)
	require.NoError(t, err)
	src, err := db.GetSourceByID(id)
	require.NoError(t, err)

	n, err := f.FetchSource(context.Background(), *src)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	n, err = f.FetchSource(context.Background(), *src)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestFetchSourceRecordsError(t *testing.T) {
	db := openStore(t)
	srv := organizerServer(t)
	f := newTestFetcher(t, db)

	id, _, err := db.GetOrCreateSource("Broken", srv.URL+"/broken.json", model.SourceJSON)
	require.NoError(t, err)
	src, err := db.GetSourceByID(id)
	require.NoError(t, err)

	_, err = f.FetchSource(context.Background(), *src)
	require.Error(t, err)

	src, err = db.GetSourceByID(id)
	require.NoError(t, err)
	assert.Contains(t, src.LastError, "missing")
}

func TestTruncateErrorKeepsRunesWhole(t *testing.T) {
	short := "connection refused"
	assert.Equal(t, short, truncateError(short))

	// 1 ASCII byte then 2-byte runes: byte 200 falls inside a rune.
	long := "a" + strings.Repeat("é", 150)
	got := truncateError(long)
	assert.True(t, utf8.ValidString(got))
	assert.Len(t, got, 199)
	assert.True(t, strings.HasPrefix(long, got))

	assert.True(t, utf8.ValidString(truncateError("bad \xff\xfe byte")))
}

func TestFetchAll(t *testing.T) {
	for _, workers := range []int{1, 4} {
		db := openStore(t)
		srv := organizerServer(t)
		f := newTestFetcher(t, db, WithConcurrency(workers))

		feedID, _, err := db.GetOrCreateSource("Red Cross", srv.URL+"/feed.xml", model.SourceFeed)
		require.NoError(t, err)
		jsonID, _, err := db.GetOrCreateSource("Partners", srv.URL+"/camps.json", model.SourceJSON)
		require.NoError(t, err)
		_, _, err = db.GetOrCreateSource("Broken", srv.URL+"/broken.json", model.SourceJSON)
		require.NoError(t, err)

		results, err := f.FetchAll(context.Background())
		require.NoError(t, err)
		assert.Equal(t, map[int64]int{feedID: 2, jsonID: 2}, results, "workers=%d", workers)
	}
}

func TestFetchAllNoSources(t *testing.T) {
	db := openStore(t)
	results, err := newTestFetcher(t, db).FetchAll(context.Background())
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestPollerStartStop(t *testing.T) {
	db := openStore(t)
	srv := organizerServer(t)
	_, _, err := db.GetOrCreateSource("Partners", srv.URL+"/camps.json", model.SourceJSON)
	require.NoError(t, err)

	p := NewPoller(db, newTestFetcher(t, db))
	p.Start()

	require.Eventually(t, func() bool {
		n, err := db.CountCamps()
		return err == nil && n == 2
	}, 5*time.Second, 20*time.Millisecond)

	p.Stop()
	p.Stop()
}

func TestDomainLimiterBoundsConcurrency(t *testing.T) {
	dl := newDomainLimiter(0)
	ctx := context.Background()

	var active, peak atomic.Int32
	done := make(chan struct{})
	for i := 0; i < 6; i++ {
		go func() {
			defer func() { done <- struct{}{} }()
			if !assert.NoError(t, dl.acquire(ctx, "example.org")) {
				return
			}
			n := active.Add(1)
			for {
				p := peak.Load()
				if n <= p || peak.CompareAndSwap(p, n) {
					break
				}
			}
			time.Sleep(10 * time.Millisecond)
			active.Add(-1)
			dl.release("example.org")
		}()
	}
	for i := 0; i < 6; i++ {
		<-done
	}
	assert.LessOrEqual(t, peak.Load(), int32(MaxConcurrencyPerDomain))
}

func TestDomainLimiterHonoursCancel(t *testing.T) {
	dl := newDomainLimiter(time.Hour)
	require.NoError(t, dl.acquire(context.Background(), "example.org"))
	dl.release("example.org")

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, dl.acquire(ctx, "example.org"), context.DeadlineExceeded)
}

func TestHostOf(t *testing.T) {
	assert.Equal(t, "example.org:8080", hostOf("http://example.org:8080/feed.xml"))
	assert.Equal(t, "not a url", hostOf("not a url"))
}
