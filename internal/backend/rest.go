package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
)

// RestClient reaches the managed backend over its row-oriented REST surface.
// Filters compile to query-string conditions, inserts return the created
// representation, and Subscribe rides the realtime websocket.
type RestClient struct {
	baseURL     string
	realtimeURL string
	apiKey      string
	token       string
	http        *http.Client
}

type RestConfig struct {
	BaseURL     string
	RealtimeURL string
	APIKey      string
	AccessToken string
}

func NewRestClient(cfg RestConfig) *RestClient {
	realtime := cfg.RealtimeURL
	if realtime == "" {
		realtime = deriveRealtimeURL(cfg.BaseURL)
	}
	return &RestClient{
		baseURL:     strings.TrimRight(cfg.BaseURL, "/"),
		realtimeURL: realtime,
		apiKey:      cfg.APIKey,
		token:       cfg.AccessToken,
		http:        &http.Client{},
	}
}

// SetAccessToken swaps the bearer token after sign-in or refresh.
func (c *RestClient) SetAccessToken(token string) {
	c.token = token
}

func (c *RestClient) Query(ctx context.Context, table string, filter Filter, order *Order) ([]Record, error) {
	endpoint := fmt.Sprintf("%s/rest/v1/%s", c.baseURL, url.PathEscape(table))

	params := url.Values{}
	params.Set("select", "*")
	for col, cond := range filterParams(filter) {
		params.Set(col, cond)
	}
	if order != nil {
		dir := "desc"
		if order.Ascending {
			dir = "asc"
		}
		params.Set("order", order.Column+"."+dir)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}
	c.setHeaders(req)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", table, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, responseError("query", table, resp)
	}

	var rows []Record
	if err := json.NewDecoder(resp.Body).Decode(&rows); err != nil {
		return nil, fmt.Errorf("query %s: decode response: %w", table, err)
	}
	return rows, nil
}

func (c *RestClient) Insert(ctx context.Context, table string, record Record) (Record, error) {
	endpoint := fmt.Sprintf("%s/rest/v1/%s", c.baseURL, url.PathEscape(table))

	body, err := json.Marshal(record)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	c.setHeaders(req)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Prefer", "return=representation")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("insert %s: %w", table, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusOK {
		return nil, responseError("insert", table, resp)
	}

	var rows []Record
	if err := json.NewDecoder(resp.Body).Decode(&rows); err != nil {
		return nil, fmt.Errorf("insert %s: decode response: %w", table, err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("insert %s: empty representation", table)
	}
	return rows[0], nil
}

func (c *RestClient) Subscribe(ctx context.Context, table string, filter Filter) (Subscription, error) {
	return dialRealtime(ctx, c.realtimeURL, c.apiKey, c.token, table, filter)
}

func (c *RestClient) setHeaders(req *http.Request) {
	if c.apiKey != "" {
		req.Header.Set("apikey", c.apiKey)
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
}

func filterParams(filter Filter) map[string]string {
	out := make(map[string]string, len(filter))
	for col, want := range filter {
		switch w := want.(type) {
		case []string:
			out[col] = "in.(" + strings.Join(w, ",") + ")"
		default:
			out[col] = fmt.Sprintf("eq.%v", w)
		}
	}
	return out
}

func responseError(op, table string, resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
	msg := strings.TrimSpace(string(body))
	if msg == "" {
		msg = resp.Status
	}
	return fmt.Errorf("%s %s: backend returned %d: %s", op, table, resp.StatusCode, msg)
}

func deriveRealtimeURL(baseURL string) string {
	ws := strings.Replace(baseURL, "https://", "wss://", 1)
	ws = strings.Replace(ws, "http://", "ws://", 1)
	return strings.TrimRight(ws, "/") + "/realtime/v1/websocket"
}
