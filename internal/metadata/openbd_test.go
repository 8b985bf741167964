package metadata

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestJoinDescriptions(t *testing.T) {
	tests := []struct {
		name     string
		entries  []textContent
		expected string
	}{
		{"none", nil, ""},
		{"single", []textContent{{Text: "A story."}}, "A story."},
		{"split entries concatenated", []textContent{{Text: "Part one. "}, {Text: "Part two."}}, "Part one. Part two."},
		{"duplicates collapse", []textContent{{Text: "Same"}, {Text: "Same"}}, "Same"},
		{"empty entries skipped", []textContent{{Text: ""}, {Text: "Kept"}}, "Kept"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := joinDescriptions(tt.entries); got != tt.expected {
				t.Errorf("joinDescriptions() = %q, expected %q", got, tt.expected)
			}
		})
	}
}

func TestAuthorNames(t *testing.T) {
	contributors := []contributor{
		{PersonName: &personName{Content: "山田太郎", CollationKey: "ヤマダタロウ"}},
		{PersonName: &personName{Content: "鈴木花子", CollationKey: "スズキハナコ"}},
		{PersonName: &personName{Content: "山田太郎", CollationKey: "ヤマダタロウ"}}, // duplicate
		{PersonName: &personName{Content: "No Kana"}},
		{PersonName: nil},
	}

	got := authorNames(contributors)
	expected := []string{"山田太郎 (ヤマダタロウ)", "鈴木花子 (スズキハナコ)", "No Kana"}
	if len(got) != len(expected) {
		t.Fatalf("authorNames() = %v, expected %v", got, expected)
	}
	// Name/kana pairing follows contributor order, so positions are stable.
	for i := range expected {
		if got[i] != expected[i] {
			t.Errorf("authorNames()[%d] = %q, expected %q", i, got[i], expected[i])
		}
	}
}

func TestCollectionLabel(t *testing.T) {
	tests := []struct {
		name     string
		coll     *collection
		expected string
	}{
		{"nil collection", nil, ""},
		{
			"single title",
			&collection{TitleDetail: &titleDetail{TitleElement: []titleElement{
				{TitleText: &titleText{Content: "文庫"}},
			}}},
			"文庫",
		},
		{
			"multiple joined",
			&collection{TitleDetail: &titleDetail{TitleElement: []titleElement{
				{TitleText: &titleText{Content: "文庫"}},
				{TitleText: &titleText{Content: "青い鳥文庫"}},
			}}},
			"文庫 | 青い鳥文庫",
		},
		{
			"empty titles dropped",
			&collection{TitleDetail: &titleDetail{TitleElement: []titleElement{
				{TitleText: &titleText{Content: ""}},
				{TitleText: nil},
				{TitleText: &titleText{Content: "新書"}},
			}}},
			"新書",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := collectionLabel(tt.coll); got != tt.expected {
				t.Errorf("collectionLabel() = %q, expected %q", got, tt.expected)
			}
		})
	}
}

func TestPageCount(t *testing.T) {
	if got := pageCount([]extent{{ExtentType: "11", ExtentValue: "200"}}); got == nil || *got != 200 {
		t.Errorf("pageCount() = %v, expected 200", got)
	}
	if got := pageCount([]extent{{ExtentValue: "not-a-number"}}); got != nil {
		t.Errorf("pageCount() = %v, expected nil for non-numeric value", got)
	}
	if got := pageCount(nil); got != nil {
		t.Errorf("pageCount() = %v, expected nil for missing extent", got)
	}
	if got := pageCount([]extent{{ExtentValue: "x"}, {ExtentValue: "320"}}); got == nil || *got != 320 {
		t.Errorf("pageCount() = %v, expected first numeric value 320", got)
	}
}

func TestParsePubdate(t *testing.T) {
	got := parsePubdate("20230415")
	if got == nil {
		t.Fatal("parsePubdate(20230415) = nil")
	}
	if got.Year() != 2023 || got.Month() != time.April || got.Day() != 15 {
		t.Errorf("parsePubdate(20230415) = %v", got)
	}
	if zone, _ := got.Zone(); zone != "JST" && zone != "Asia/Tokyo" {
		// LoadLocation names the zone JST; the fixed-zone fallback does too.
		t.Errorf("parsePubdate zone = %q, expected JST", zone)
	}

	if parsePubdate("2023-04-15") != nil {
		t.Error("parsePubdate should reject non-YYYYMMDD input")
	}
	if parsePubdate("") != nil {
		t.Error("parsePubdate should reject empty input")
	}
}

func newTestClient(baseURL string) *OpenBDClient {
	return &OpenBDClient{
		httpClient:  &http.Client{Timeout: 5 * time.Second},
		baseURL:     baseURL,
		rateLimiter: newRateLimiter(0), // No rate limiting for tests
	}
}

func TestResolve(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/get" || r.URL.Query().Get("isbn") != "9784780802047" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[
			{
				"summary": {
					"isbn": "9784780802047",
					"title": "Test Book",
					"publisher": "Test Publisher",
					"pubdate": "20230415",
					"cover": "https://cover.openbd.jp/9784780802047.jpg"
				},
				"onix": {
					"DescriptiveDetail": {
						"Contributor": [
							{"PersonName": {"content": "山田太郎", "collationkey": "ヤマダタロウ"}}
						],
						"Collection": {
							"TitleDetail": {
								"TitleElement": [{"TitleText": {"content": "テスト文庫"}}]
							}
						},
						"Extent": [{"ExtentType": "11", "ExtentValue": "200"}]
					},
					"CollateralDetail": {
						"TextContent": [{"TextType": "03", "Text": "A description."}]
					}
				}
			}
		]`))
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	metadata, err := client.Resolve(context.Background(), "9784780802047")
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}

	if metadata.Title != "Test Book" {
		t.Errorf("Title = %q", metadata.Title)
	}
	if metadata.Publisher != "Test Publisher" {
		t.Errorf("Publisher = %q", metadata.Publisher)
	}
	if metadata.ISBN13 != "9784780802047" {
		t.Errorf("ISBN13 = %q", metadata.ISBN13)
	}
	if metadata.CoverURL != "https://cover.openbd.jp/9784780802047.jpg" {
		t.Errorf("CoverURL = %q", metadata.CoverURL)
	}
	if metadata.PageCount == nil || *metadata.PageCount != 200 {
		t.Errorf("PageCount = %v", metadata.PageCount)
	}
	if metadata.Description != "A description." {
		t.Errorf("Description = %q", metadata.Description)
	}
	if len(metadata.Authors) != 1 || metadata.Authors[0] != "山田太郎 (ヤマダタロウ)" {
		t.Errorf("Authors = %v", metadata.Authors)
	}
	if metadata.Label != "テスト文庫" {
		t.Errorf("Label = %q", metadata.Label)
	}
	if metadata.PublishDate == nil || metadata.PublishDate.Year() != 2023 {
		t.Errorf("PublishDate = %v", metadata.PublishDate)
	}
}

func TestResolveNotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[null]`))
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	_, err := client.Resolve(context.Background(), "9780000000000")
	if !errors.Is(err, ErrBookNotFound) {
		t.Fatalf("Resolve error = %v, expected ErrBookNotFound", err)
	}
}

func TestResolveEmptyArray(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[]`))
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	_, err := client.Resolve(context.Background(), "9780000000000")
	if !errors.Is(err, ErrBookNotFound) {
		t.Fatalf("Resolve error = %v, expected ErrBookNotFound", err)
	}
}

func TestResolveTransportError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	_, err := client.Resolve(context.Background(), "9784780802047")
	if err == nil {
		t.Fatal("Resolve expected error for 500 response")
	}
	if errors.Is(err, ErrBookNotFound) {
		t.Fatal("transport failure must not masquerade as not-found")
	}
}

func TestResolveLenientMapping(t *testing.T) {
	// A record with only a summary block must resolve with absent fields,
	// not fail.
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[{"summary": {"isbn": "9784780802047", "title": "Bare", "pubdate": "garbage"}}]`))
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	metadata, err := client.Resolve(context.Background(), "9784780802047")
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if metadata.Title != "Bare" {
		t.Errorf("Title = %q", metadata.Title)
	}
	if metadata.PublishDate != nil {
		t.Errorf("PublishDate = %v, expected nil for unparseable pubdate", metadata.PublishDate)
	}
	if metadata.PageCount != nil || metadata.Description != "" || metadata.Label != "" || len(metadata.Authors) != 0 {
		t.Error("missing onix block must map to absent fields")
	}
}
