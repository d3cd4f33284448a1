// Package store persists the history of scrape, search and analysis
// results. Writes are best effort; see Recorder.
package store

import (
	"context"
	"encoding/json"
	"net/url"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
)

const (
	// MaxEntries is how many entries are kept; older ones are pruned on Add.
	MaxEntries = 100
	// PreviewLength is the rune length of Entry.Preview.
	PreviewLength = 200
)

// ErrNotFound is returned for unknown entry IDs.
var ErrNotFound = eris.New("history entry not found")

// EntryType is the operation that produced an entry.
type EntryType string

// Entry types.
const (
	TypeScrape      EntryType = "scrape"
	TypeSearch      EntryType = "search"
	TypeCrawl       EntryType = "crawl"
	TypeMap         EntryType = "map"
	TypeAgent       EntryType = "agent"
	TypeExtract     EntryType = "extract"
	TypeTech        EntryType = "tech"
	TypeSEO         EntryType = "seo"
	TypeProcurement EntryType = "procurement"
)

var typeLabels = map[EntryType]string{
	TypeScrape:      "Scrape",
	TypeSearch:      "Suche",
	TypeCrawl:       "Crawl",
	TypeMap:         "Map",
	TypeAgent:       "Agent",
	TypeExtract:     "Extract",
	TypeTech:        "Tech-Stack",
	TypeSEO:         "SEO",
	TypeProcurement: "E-Procurement",
}

// Label returns the German display name, or the raw type when unknown.
func (t EntryType) Label() string {
	if l, ok := typeLabels[t]; ok {
		return l
	}
	return string(t)
}

// ParseEntryType accepts the lower-case type names.
func ParseEntryType(s string) (EntryType, bool) {
	t := EntryType(strings.ToLower(strings.TrimSpace(s)))
	_, ok := typeLabels[t]
	return t, ok
}

// Entry is one history record.
type Entry struct {
	ID        string          `json:"id" yaml:"id"`
	Timestamp time.Time       `json:"timestamp" yaml:"timestamp"`
	URL       string          `json:"url" yaml:"url"`
	Type      EntryType       `json:"type" yaml:"type"`
	Provider  string          `json:"provider,omitempty" yaml:"provider,omitempty"`
	Title     string          `json:"title,omitempty" yaml:"title,omitempty"`
	Preview   string          `json:"preview,omitempty" yaml:"preview,omitempty"`
	Data      json.RawMessage `json:"data,omitempty" yaml:"-"`
	Tags      []string        `json:"tags,omitempty" yaml:"tags,omitempty"`
}

// NewEntry builds an unsaved entry. content feeds the preview; data is
// marshaled to JSON and dropped if it cannot be.
func NewEntry(typ EntryType, pageURL, provider, title, content string, data any) Entry {
	e := Entry{
		URL:      pageURL,
		Type:     typ,
		Provider: provider,
		Title:    title,
		Preview:  Preview(content),
	}
	if data != nil {
		if raw, err := json.Marshal(data); err == nil {
			e.Data = raw
		}
	}
	return e
}

// Preview returns the first PreviewLength runes of content.
func Preview(content string) string {
	r := []rune(content)
	if len(r) <= PreviewLength {
		return content
	}
	return string(r[:PreviewLength])
}

// Filter narrows List. Zero fields match everything.
type Filter struct {
	Type   EntryType
	URL    string // case-insensitive substring
	Domain string // exact host, e.g. shop.example
	Tag    string
	Since  time.Time
	Until  time.Time
	Limit  int
}

// matchesInGo reports whether part of f is applied after the query. The log
// never exceeds MaxEntries, so those filters run over the fetched rows.
func (f Filter) matchesInGo() bool {
	return strings.TrimSpace(f.Domain) != "" || strings.TrimSpace(f.Tag) != ""
}

// refine applies the Domain and Tag filters and then the limit.
func (f Filter) refine(entries []Entry) []Entry {
	if !f.matchesInGo() {
		return entries
	}
	if d := strings.TrimSpace(f.Domain); d != "" {
		entries = ForDomain(entries, d)
	}
	if tag := strings.TrimSpace(f.Tag); tag != "" {
		entries = slices.DeleteFunc(entries, func(e Entry) bool {
			return !slices.ContainsFunc(e.Tags, func(t string) bool { return strings.EqualFold(t, tag) })
		})
	}
	if f.Limit > 0 && len(entries) > f.Limit {
		entries = entries[:f.Limit]
	}
	return entries
}

// Store is implemented by the SQLite and Postgres backends.
type Store interface {
	// Add assigns ID and timestamp, saves the entry and prunes the log to
	// MaxEntries.
	Add(ctx context.Context, e Entry) (*Entry, error)
	Get(ctx context.Context, id string) (*Entry, error)
	// List returns matching entries, newest first.
	List(ctx context.Context, f Filter) ([]Entry, error)
	Delete(ctx context.Context, id string) error
	Clear(ctx context.Context) error

	Migrate(ctx context.Context) error
	Close() error
}

// prepare fills the generated fields of e.
func prepare(e Entry, now time.Time) Entry {
	if e.ID == "" {
		e.ID = uuid.New().String()
	}
	if e.Timestamp.IsZero() {
		e.Timestamp = now
	}
	e.Timestamp = e.Timestamp.UTC().Truncate(time.Millisecond)
	e.Preview = Preview(e.Preview)
	return e
}

func encodeTags(tags []string) ([]byte, error) {
	if len(tags) == 0 {
		return []byte("[]"), nil
	}
	b, err := json.Marshal(tags)
	return b, eris.Wrap(err, "store: marshal tags")
}

func decodeTags(raw []byte) ([]string, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var tags []string
	if err := json.Unmarshal(raw, &tags); err != nil {
		return nil, eris.Wrap(err, "store: unmarshal tags")
	}
	if len(tags) == 0 {
		return nil, nil
	}
	return tags, nil
}

func nullableData(d json.RawMessage) any {
	if len(d) == 0 {
		return nil
	}
	return []byte(d)
}

const entryColumns = `id, ts_ms, url, type, provider, title, preview, data, tags`

// dialect abstracts the SQL differences between the backends.
type dialect struct {
	placeholder func(n int) string
	contains    func(col, param string) string
}

var sqliteDialect = dialect{
	placeholder: func(int) string { return "?" },
	contains:    func(col, param string) string { return "instr(lower(" + col + "), " + param + ") > 0" },
}

var postgresDialect = dialect{
	placeholder: func(n int) string { return "$" + strconv.Itoa(n) },
	contains:    func(col, param string) string { return "strpos(lower(" + col + "), " + param + ") > 0" },
}

// listQuery builds the SELECT for f.
func (d dialect) listQuery(f Filter) (string, []any) {
	var (
		where []string
		args  []any
	)
	arg := func(v any) string {
		args = append(args, v)
		return d.placeholder(len(args))
	}

	if f.Type != "" {
		where = append(where, "type = "+arg(string(f.Type)))
	}
	if u := strings.TrimSpace(f.URL); u != "" {
		where = append(where, d.contains("url", arg(strings.ToLower(u))))
	}
	if !f.Since.IsZero() {
		where = append(where, "ts_ms >= "+arg(f.Since.UnixMilli()))
	}
	if !f.Until.IsZero() {
		where = append(where, "ts_ms <= "+arg(f.Until.UnixMilli()))
	}

	var b strings.Builder
	b.WriteString("SELECT " + entryColumns + " FROM history")
	if len(where) > 0 {
		b.WriteString(" WHERE " + strings.Join(where, " AND "))
	}
	b.WriteString(" ORDER BY seq DESC")
	limit := f.Limit
	if limit <= 0 || limit > MaxEntries || f.matchesInGo() {
		limit = MaxEntries
	}
	b.WriteString(" LIMIT " + arg(limit))
	return b.String(), args
}

func (d dialect) insertQuery() string {
	ps := make([]string, 9)
	for i := range ps {
		ps[i] = d.placeholder(i + 1)
	}
	return "INSERT INTO history (" + entryColumns + ") VALUES (" + strings.Join(ps, ", ") + ")"
}

func (d dialect) pruneQuery() string {
	return "DELETE FROM history WHERE seq NOT IN (SELECT seq FROM history ORDER BY seq DESC LIMIT " + d.placeholder(1) + ")"
}

type scannable interface {
	Scan(dest ...any) error
}

func scanEntry(row scannable) (*Entry, error) {
	var (
		e    Entry
		ts   int64
		typ  string
		data []byte
		tags []byte
	)
	if err := row.Scan(&e.ID, &ts, &e.URL, &typ, &e.Provider, &e.Title, &e.Preview, &data, &tags); err != nil {
		return nil, err
	}
	e.Timestamp = time.UnixMilli(ts).UTC()
	e.Type = EntryType(typ)
	if len(data) > 0 {
		e.Data = json.RawMessage(data)
	}
	t, err := decodeTags(tags)
	if err != nil {
		return nil, err
	}
	e.Tags = t
	return &e, nil
}

// Domain returns the host of rawURL, or rawURL itself if it does not parse.
func Domain(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Hostname() == "" {
		return rawURL
	}
	return u.Hostname()
}

// ForDomain keeps the entries whose URL has the same host as rawURL. A bare
// host name works as rawURL too.
func ForDomain(entries []Entry, rawURL string) []Entry {
	host := Domain(rawURL)
	var out []Entry
	for _, e := range entries {
		if strings.EqualFold(Domain(e.URL), host) {
			out = append(out, e)
		}
	}
	return out
}

// Stats summarizes a set of entries.
type Stats struct {
	Total    int            `json:"total" yaml:"total"`
	ByType   map[string]int `json:"byType" yaml:"by_type"`
	ByDomain map[string]int `json:"byDomain" yaml:"by_domain"`
	LastWeek int            `json:"lastWeek" yaml:"last_week"`
}

// ComputeStats counts entries per type and domain and those of the last
// seven days before now.
func ComputeStats(entries []Entry, now time.Time) Stats {
	st := Stats{
		Total:    len(entries),
		ByType:   make(map[string]int),
		ByDomain: make(map[string]int),
	}
	weekAgo := now.Add(-7 * 24 * time.Hour)
	for _, e := range entries {
		st.ByType[string(e.Type)]++
		st.ByDomain[Domain(e.URL)]++
		if !e.Timestamp.Before(weekAgo) {
			st.LastWeek++
		}
	}
	return st
}
