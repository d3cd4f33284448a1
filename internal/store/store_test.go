package store

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEntryType(t *testing.T) {
	typ, ok := ParseEntryType(" SEO ")
	require.True(t, ok)
	assert.Equal(t, TypeSEO, typ)
	assert.Equal(t, "SEO", typ.Label())
	assert.Equal(t, "Suche", TypeSearch.Label())
	assert.Equal(t, "E-Procurement", TypeProcurement.Label())
	assert.Equal(t, "weather", EntryType("weather").Label())

	_, ok = ParseEntryType("weather")
	assert.False(t, ok)
}

func TestNewEntry(t *testing.T) {
	content := strings.Repeat("ä", 250)
	e := NewEntry(TypeScrape, "https://shop.example", "jina", "Shop", content, map[string]int{"n": 1})

	assert.Equal(t, TypeScrape, e.Type)
	assert.Equal(t, PreviewLength, len([]rune(e.Preview)))
	assert.JSONEq(t, `{"n":1}`, string(e.Data))
	assert.Empty(t, e.ID)

	e = NewEntry(TypeMap, "https://shop.example", "", "", "short", func() {})
	assert.Nil(t, e.Data)
	assert.Equal(t, "short", e.Preview)
}

func TestPrepare(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 123456789, time.FixedZone("CET", 3600))
	e := prepare(Entry{URL: "https://a.example"}, now)

	assert.Len(t, e.ID, 36)
	assert.Equal(t, time.UTC, e.Timestamp.Location())
	assert.Equal(t, now.UnixMilli(), e.Timestamp.UnixMilli())
	assert.Zero(t, e.Timestamp.Nanosecond()%int(time.Millisecond))

	kept := prepare(Entry{ID: "fixed", Timestamp: now}, time.Now())
	assert.Equal(t, "fixed", kept.ID)
}

func TestListQuery(t *testing.T) {
	since := time.UnixMilli(1000)
	until := time.UnixMilli(2000)

	q, args := sqliteDialect.listQuery(Filter{})
	assert.Equal(t, "SELECT "+entryColumns+" FROM history ORDER BY seq DESC LIMIT ?", q)
	assert.Equal(t, []any{MaxEntries}, args)

	q, args = postgresDialect.listQuery(Filter{Type: TypeTech, URL: " Shop ", Since: since, Until: until, Limit: 5})
	assert.Equal(t, "SELECT "+entryColumns+" FROM history WHERE type = $1 AND strpos(lower(url), $2) > 0 AND ts_ms >= $3 AND ts_ms <= $4 ORDER BY seq DESC LIMIT $5", q)
	assert.Equal(t, []any{"tech", "shop", int64(1000), int64(2000), 5}, args)

	_, args = sqliteDialect.listQuery(Filter{Limit: 500})
	assert.Equal(t, []any{MaxEntries}, args)

	_, args = sqliteDialect.listQuery(Filter{Domain: "shop.example", Limit: 5})
	assert.Equal(t, []any{MaxEntries}, args, "domain matching needs every row")
}

func TestInsertAndPruneQuery(t *testing.T) {
	assert.Equal(t, "INSERT INTO history ("+entryColumns+") VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)", postgresDialect.insertQuery())
	assert.Contains(t, sqliteDialect.pruneQuery(), "ORDER BY seq DESC LIMIT ?")
}

func TestTags(t *testing.T) {
	b, err := encodeTags(nil)
	require.NoError(t, err)
	assert.Equal(t, "[]", string(b))

	tags, err := decodeTags(b)
	require.NoError(t, err)
	assert.Nil(t, tags)

	tags, err = decodeTags([]byte(`["b2b","oci"]`))
	require.NoError(t, err)
	assert.Equal(t, []string{"b2b", "oci"}, tags)

	_, err = decodeTags([]byte(`{`))
	assert.Error(t, err)
}

func TestDomainHelpers(t *testing.T) {
	assert.Equal(t, "shop.example", Domain("https://shop.example/path?q=1"))
	assert.Equal(t, "not a url", Domain("not a url"))

	entries := []Entry{
		{URL: "https://shop.example/a", Type: TypeScrape},
		{URL: "https://other.example", Type: TypeSEO},
		{URL: "https://shop.example/b", Type: TypeSEO},
	}
	assert.Len(t, ForDomain(entries, "https://shop.example"), 2)
	assert.Len(t, ForDomain(entries, "SHOP.example"), 2)
	assert.Empty(t, ForDomain(entries, "none.example"))
}

func TestComputeStats(t *testing.T) {
	now := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	entries := []Entry{
		{URL: "https://shop.example/a", Type: TypeScrape, Timestamp: now.Add(-time.Hour)},
		{URL: "https://shop.example/b", Type: TypeSEO, Timestamp: now.Add(-6 * 24 * time.Hour)},
		{URL: "https://other.example", Type: TypeSEO, Timestamp: now.Add(-30 * 24 * time.Hour)},
	}
	st := ComputeStats(entries, now)
	assert.Equal(t, 3, st.Total)
	assert.Equal(t, map[string]int{"scrape": 1, "seo": 2}, st.ByType)
	assert.Equal(t, map[string]int{"shop.example": 2, "other.example": 1}, st.ByDomain)
	assert.Equal(t, 2, st.LastWeek)
}

func TestEntry_JSON(t *testing.T) {
	e := Entry{ID: "x", URL: "https://a.example", Type: TypeCrawl, Data: json.RawMessage(`[1]`)}
	b, err := json.Marshal(e)
	require.NoError(t, err)
	assert.Contains(t, string(b), `"type":"crawl"`)
	assert.Contains(t, string(b), `"data":[1]`)
	assert.NotContains(t, string(b), `"tags"`)
}
