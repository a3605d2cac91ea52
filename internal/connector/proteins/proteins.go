package proteins

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"

	"github.com/tidwall/gjson"
	"go.uber.org/zap"

	"github.com/hejijunhao/candidates/internal/connector"
	"github.com/hejijunhao/candidates/internal/connector/httpclient"
	"github.com/hejijunhao/candidates/internal/model"
)

// DefaultBaseURL is the public EBI Proteins API.
const DefaultBaseURL = "https://www.ebi.ac.uk/proteins/api"

const (
	acceptFasta = "text/x-fasta"
	acceptJSON  = "application/json"

	// totalHeader carries the full hit count regardless of page size.
	totalHeader = "X-Pagination-TotalRecords"
)

// ErrMalformedResponse is returned when a 2xx reply lacks what the caller needs.
var ErrMalformedResponse = errors.New("malformed response")

func init() {
	connector.Register("ebi", func(cfg connector.SourceConfig) (connector.Source, error) {
		base := cfg.BaseURL
		if base == "" {
			base = DefaultBaseURL
		}
		return New(httpclient.New(base, cfg.HTTPOptions()...)), nil
	})
}

// Client implements connector.Source for the EBI Proteins API.
type Client struct {
	http *httpclient.Client
}

// New wraps an httpclient pointed at the Proteins API base URL.
func New(hc *httpclient.Client) *Client {
	return &Client{http: hc}
}

func familyPath(id string) string {
	return "/proteins/InterPro:" + url.PathEscape(id)
}

// CountHits asks for a single FASTA entry and reads the total from the
// pagination header, so the body size stays constant whatever the count.
func (c *Client) CountHits(ctx context.Context, log *zap.Logger, id string, reviewed bool) (int, error) {
	q := url.Values{}
	q.Set("offset", "0")
	q.Set("size", "1")
	q.Set("reviewed", strconv.FormatBool(reviewed))

	resp, err := c.http.Get(ctx, log, familyPath(id), q, acceptFasta)
	if err != nil {
		return 0, fmt.Errorf("proteins: count %s: %w", id, err)
	}
	raw := resp.Header.Get(totalHeader)
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("proteins: count %s: %w: %s header %q", id, ErrMalformedResponse, totalHeader, raw)
	}
	return n, nil
}

// Records fetches every reviewed record for the family in one request.
func (c *Client) Records(ctx context.Context, log *zap.Logger, id string) ([]model.RawRecord, error) {
	q := url.Values{}
	q.Set("offset", "0")
	q.Set("size", "-1")
	q.Set("reviewed", "true")

	resp, err := c.http.Get(ctx, log, familyPath(id), q, acceptJSON)
	if err != nil {
		return nil, fmt.Errorf("proteins: records %s: %w", id, err)
	}
	recs, err := SplitRecords(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("proteins: records %s: %w", id, err)
	}
	return recs, nil
}

// SplitRecords splits a JSON array of records into one RawRecord per element.
func SplitRecords(body []byte) ([]model.RawRecord, error) {
	if !gjson.ValidBytes(body) {
		return nil, fmt.Errorf("%w: invalid JSON", ErrMalformedResponse)
	}
	root := gjson.ParseBytes(body)
	if !root.IsArray() {
		return nil, fmt.Errorf("%w: expected a JSON array, got %s", ErrMalformedResponse, root.Type)
	}
	items := root.Array()
	recs := make([]model.RawRecord, 0, len(items))
	for _, item := range items {
		recs = append(recs, model.RawRecord(item.Raw))
	}
	return recs, nil
}
