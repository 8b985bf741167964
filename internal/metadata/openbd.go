package metadata

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"
)

// LabelDelimiter joins multiple collection/series titles into one label.
const LabelDelimiter = " | "

// ErrBookNotFound is returned when openBD has no record for an ISBN.
// The lookup response is an array; an empty or null first element is a
// domain-level "not found", not a transport failure.
var ErrBookNotFound = errors.New("book not found")

// BookMetadata is the normalized result of an openBD lookup. All fields are
// optional: malformed or missing payload sections resolve to absent values
// rather than errors.
type BookMetadata struct {
	Title       string     `json:"title,omitempty"`
	Description string     `json:"description,omitempty"`
	Authors     []string   `json:"authors,omitempty"`
	Publisher   string     `json:"publisher,omitempty"`
	Label       string     `json:"label,omitempty"`
	PublishDate *time.Time `json:"publish_date,omitempty"`
	ISBN13      string     `json:"isbn13,omitempty"`
	CoverURL    string     `json:"cover_url,omitempty"`
	PageCount   *int       `json:"page_count,omitempty"`
}

// OpenBDClient fetches book metadata from the openBD API.
type OpenBDClient struct {
	httpClient  *http.Client
	baseURL     string
	rateLimiter *rateLimiter
}

type rateLimiter struct {
	mu       sync.Mutex
	lastCall time.Time
	interval time.Duration
}

func newRateLimiter(interval time.Duration) *rateLimiter {
	return &rateLimiter{interval: interval}
}

func (r *rateLimiter) wait() {
	r.mu.Lock()
	defer r.mu.Unlock()

	since := time.Since(r.lastCall)
	if since < r.interval {
		time.Sleep(r.interval - since)
	}
	r.lastCall = time.Now()
}

// NewOpenBDClient creates a new openBD API client with rate limiting.
func NewOpenBDClient(baseURL string) *OpenBDClient {
	return &OpenBDClient{
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		baseURL:     baseURL,
		rateLimiter: newRateLimiter(time.Second),
	}
}

// Resolve looks up a validated ISBN-13 and maps the response to metadata.
func (c *OpenBDClient) Resolve(ctx context.Context, isbn13 string) (*BookMetadata, error) {
	c.rateLimiter.wait()

	lookupURL := fmt.Sprintf("%s/v1/get?isbn=%s", c.baseURL, url.QueryEscape(isbn13))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, lookupURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", "TsundokuServer/1.0 (https://github.com/ponmiso/tsundoku-server)")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch ISBN data: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status: %d", resp.StatusCode)
	}

	var records []*openBDRecord
	if err := json.NewDecoder(resp.Body).Decode(&records); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	// openBD answers unknown ISBNs with [null]
	if len(records) == 0 || records[0] == nil {
		return nil, ErrBookNotFound
	}

	return convertToMetadata(records[0]), nil
}

func convertToMetadata(record *openBDRecord) *BookMetadata {
	metadata := &BookMetadata{}

	if s := record.Summary; s != nil {
		metadata.Title = s.Title
		metadata.Publisher = s.Publisher
		metadata.ISBN13 = s.ISBN
		metadata.CoverURL = s.Cover
		metadata.PublishDate = parsePubdate(s.Pubdate)
	}

	if record.ONIX == nil {
		return metadata
	}

	if cd := record.ONIX.CollateralDetail; cd != nil {
		metadata.Description = joinDescriptions(cd.TextContent)
	}

	if dd := record.ONIX.DescriptiveDetail; dd != nil {
		metadata.Authors = authorNames(dd.Contributor)
		metadata.Label = collectionLabel(dd.Collection)
		metadata.PageCount = pageCount(dd.Extent)
	}

	return metadata
}

// joinDescriptions concatenates the distinct text-content entries.
// Publishers sometimes split one description across several entries.
func joinDescriptions(entries []textContent) string {
	var parts []string
	seen := make(map[string]bool)
	for _, entry := range entries {
		if entry.Text == "" || seen[entry.Text] {
			continue
		}
		seen[entry.Text] = true
		parts = append(parts, entry.Text)
	}
	return strings.Join(parts, "")
}

// authorNames renders contributors as "name (kana)" when a phonetic
// collation key is present. Names and keys are paired by contributor index;
// duplicates are dropped afterward, keeping the first occurrence.
func authorNames(contributors []contributor) []string {
	var names []string
	seen := make(map[string]bool)
	for _, c := range contributors {
		if c.PersonName == nil || c.PersonName.Content == "" {
			continue
		}
		name := c.PersonName.Content
		if c.PersonName.CollationKey != "" {
			name = fmt.Sprintf("%s (%s)", name, c.PersonName.CollationKey)
		}
		if seen[name] {
			continue
		}
		seen[name] = true
		names = append(names, name)
	}
	return names
}

// collectionLabel joins the distinct non-empty series/collection titles.
func collectionLabel(coll *collection) string {
	if coll == nil || coll.TitleDetail == nil {
		return ""
	}
	var titles []string
	seen := make(map[string]bool)
	for _, el := range coll.TitleDetail.TitleElement {
		if el.TitleText == nil || el.TitleText.Content == "" || seen[el.TitleText.Content] {
			continue
		}
		seen[el.TitleText.Content] = true
		titles = append(titles, el.TitleText.Content)
	}
	return strings.Join(titles, LabelDelimiter)
}

// pageCount takes the first extent whose value parses as an integer.
func pageCount(extents []extent) *int {
	for _, e := range extents {
		if pages, err := strconv.Atoi(e.ExtentValue); err == nil {
			return &pages
		}
	}
	return nil
}

// jst pins pubdate parsing to Japan Standard Time so the stored date does
// not drift with the server's timezone or locale.
var jst = func() *time.Location {
	if loc, err := time.LoadLocation("Asia/Tokyo"); err == nil {
		return loc
	}
	return time.FixedZone("JST", 9*60*60)
}()

// parsePubdate parses the 8-digit YYYYMMDD publication date.
func parsePubdate(pubdate string) *time.Time {
	t, err := time.ParseInLocation("20060102", pubdate, jst)
	if err != nil {
		return nil
	}
	return &t
}

// openBD API response types (internal)

type openBDRecord struct {
	Summary *openBDSummary `json:"summary"`
	ONIX    *openBDONIX    `json:"onix"`
}

type openBDSummary struct {
	ISBN      string `json:"isbn"`
	Title     string `json:"title"`
	Series    string `json:"series"`
	Publisher string `json:"publisher"`
	Pubdate   string `json:"pubdate"`
	Cover     string `json:"cover"`
	Author    string `json:"author"`
}

type openBDONIX struct {
	DescriptiveDetail *descriptiveDetail `json:"DescriptiveDetail"`
	CollateralDetail  *collateralDetail  `json:"CollateralDetail"`
}

type collateralDetail struct {
	TextContent []textContent `json:"TextContent"`
}

type textContent struct {
	TextType string `json:"TextType"`
	Text     string `json:"Text"`
}

type descriptiveDetail struct {
	Contributor []contributor `json:"Contributor"`
	Collection  *collection   `json:"Collection"`
	Extent      []extent      `json:"Extent"`
}

type contributor struct {
	SequenceNumber string      `json:"SequenceNumber"`
	PersonName     *personName `json:"PersonName"`
}

type personName struct {
	Content      string `json:"content"`
	CollationKey string `json:"collationkey"`
}

type collection struct {
	TitleDetail *titleDetail `json:"TitleDetail"`
}

type titleDetail struct {
	TitleElement []titleElement `json:"TitleElement"`
}

type titleElement struct {
	TitleText *titleText `json:"TitleText"`
}

type titleText struct {
	Content string `json:"content"`
}

type extent struct {
	ExtentType  string `json:"ExtentType"`
	ExtentValue string `json:"ExtentValue"`
}
