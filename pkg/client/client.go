package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"rankdb/pkg/common"
	"rankdb/pkg/core/topk"
	"rankdb/pkg/storage"
)

// Client talks to the HTTP API served by cmd/server.
type Client struct {
	base string
	http *http.Client
}

func Dial(baseURL string) (*Client, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("unsupported scheme %q", u.Scheme)
	}
	return &Client{
		base: strings.TrimRight(baseURL, "/"),
		http: &http.Client{
			Timeout: 30 * time.Second,
			Transport: &http.Transport{
				MaxIdleConnsPerHost: 100,
			},
		},
	}, nil
}

type RankedRow struct {
	Key    common.KeyType     `json:"key"`
	Score  float64            `json:"score"`
	Values []common.ValueType `json:"values"`
}

type TopKResponse struct {
	Strategy  string      `json:"strategy"`
	K         int         `json:"k"`
	Header    []string    `json:"header"`
	Results   []RankedRow `json:"results"`
	Stats     topk.Stats  `json:"stats"`
	LatencyNs int64       `json:"latency_ns"`
}

// TopK ranks the served table. An empty strategy or k <= 0 uses the server
// defaults; nil weights weight every attribute 1.
func (c *Client) TopK(ctx context.Context, strategy string, k int, weights []float64) (*TopKResponse, error) {
	q := url.Values{}
	if strategy != "" {
		q.Set("strategy", strategy)
	}
	if k > 0 {
		q.Set("k", strconv.Itoa(k))
	}
	if len(weights) > 0 {
		parts := make([]string, len(weights))
		for i, w := range weights {
			parts[i] = strconv.FormatFloat(w, 'g', -1, 64)
		}
		q.Set("weights", strings.Join(parts, ","))
	}
	var resp TopKResponse
	if err := c.get(ctx, "/api/topk", q, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Get returns every attribute of key by column name.
func (c *Client) Get(ctx context.Context, key common.KeyType) (map[string]common.ValueType, error) {
	q := url.Values{"key": {strconv.Itoa(int(key))}}
	var resp struct {
		Values map[string]common.ValueType `json:"values"`
	}
	if err := c.get(ctx, "/api/get", q, &resp); err != nil {
		return nil, err
	}
	return resp.Values, nil
}

func (c *Client) Stats(ctx context.Context) (map[string]interface{}, error) {
	var resp map[string]interface{}
	if err := c.get(ctx, "/api/stats", nil, &resp); err != nil {
		return nil, err
	}
	return resp, nil
}

func (c *Client) Runs(ctx context.Context, limit int) ([]storage.Run, error) {
	q := url.Values{}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	var resp struct {
		Runs []storage.Run `json:"runs"`
	}
	if err := c.get(ctx, "/api/runs", q, &resp); err != nil {
		return nil, err
	}
	return resp.Runs, nil
}

func (c *Client) Close() error {
	c.http.CloseIdleConnections()
	return nil
}

func (c *Client) get(ctx context.Context, path string, q url.Values, out interface{}) error {
	target := c.base + path
	if len(q) > 0 {
		target += "?" + q.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return statusError(resp)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// statusError maps error responses back onto the common error kinds.
func statusError(resp *http.Response) error {
	var body struct {
		Error string `json:"error"`
	}
	json.NewDecoder(resp.Body).Decode(&body)
	msg := body.Error
	if msg == "" {
		msg = resp.Status
	}
	switch resp.StatusCode {
	case http.StatusNotFound:
		return fmt.Errorf("%w: %s", common.ErrKeyNotFound, msg)
	case http.StatusBadRequest:
		return fmt.Errorf("%w: %s", common.ErrMalformedInput, msg)
	default:
		return errors.New(msg)
	}
}
