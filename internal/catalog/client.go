// Package catalog reads product names from the external catalog service.
// Every failure degrades to "no names"; nothing here returns an error.
package catalog

import (
	"context"
	"fmt"
	"io"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/tidwall/gjson"
)

const DefaultTimeout = 5 * time.Second

// maxBody caps how much of the catalog response is read.
const maxBody = 8 << 20

type Client struct {
	BaseURL string
	HTTP    *http.Client
	Log     zerolog.Logger
}

func New(baseURL string, timeout time.Duration, log zerolog.Logger) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		HTTP:    &http.Client{Timeout: timeout},
		Log:     log,
	}
}

// FetchNames returns product id -> name for every well-formed entry of
// GET {BaseURL}/products. Malformed entries are skipped; a failed or
// malformed response yields an empty map.
func (c *Client) FetchNames(ctx context.Context) map[int64]string {
	names := map[int64]string{}

	body, err := c.get(ctx, "/products")
	if err != nil {
		c.Log.Warn().Err(err).Msg("catalog unavailable; product names not resolved")
		return names
	}
	if !gjson.ValidBytes(body) {
		c.Log.Warn().Msg("catalog returned invalid json")
		return names
	}
	doc := gjson.ParseBytes(body)
	if !doc.IsArray() {
		c.Log.Warn().Str("type", doc.Type.String()).Msg("catalog returned a non-array payload")
		return names
	}

	skipped := 0
	doc.ForEach(func(_, entry gjson.Result) bool {
		id, name, ok := parseEntry(entry)
		if !ok {
			skipped++
			return true
		}
		names[id] = name
		return true
	})
	if skipped > 0 {
		c.Log.Debug().Int("skipped", skipped).Msg("catalog entries without usable id/name")
	}
	return names
}

// ResolveNames looks up names for ids with a single catalog fetch. Ids the
// catalog does not know are absent from the result.
func (c *Client) ResolveNames(ctx context.Context, ids []int64) map[int64]string {
	out := map[int64]string{}
	if len(ids) == 0 {
		return out
	}
	all := c.FetchNames(ctx)
	for _, id := range ids {
		if n, ok := all[id]; ok {
			out[id] = n
		}
	}
	return out
}

func (c *Client) get(ctx context.Context, path string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+path, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("catalog status %d", resp.StatusCode)
	}
	return io.ReadAll(io.LimitReader(resp.Body, maxBody))
}

// parseEntry accepts integral ids (number or decimal string) and names that
// are strings or numbers. Fractional ids and boolean, array or object names
// are skipped rather than coerced.
func parseEntry(entry gjson.Result) (int64, string, bool) {
	if !entry.IsObject() {
		return 0, "", false
	}
	rawID, rawName := entry.Get("id"), entry.Get("name")
	if !rawID.Exists() || !rawName.Exists() || rawName.Type == gjson.Null {
		return 0, "", false
	}

	var id int64
	switch rawID.Type {
	case gjson.Number:
		f := rawID.Float()
		if f != math.Trunc(f) || math.Abs(f) > 1<<53 {
			return 0, "", false
		}
		id = int64(f)
	case gjson.String:
		n, err := strconv.ParseInt(strings.TrimSpace(rawID.Str), 10, 64)
		if err != nil {
			return 0, "", false
		}
		id = n
	default:
		return 0, "", false
	}

	switch rawName.Type {
	case gjson.String, gjson.Number:
		return id, rawName.String(), true
	default:
		return 0, "", false
	}
}
