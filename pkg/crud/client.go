// Package crud dispatches list/read/create/update/delete calls for one
// document type against its static FormAPI endpoints.
package crud

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/goliatone/go-crudform/internal/transport"
)

// Record is one backend row keyed by field id.
type Record map[string]any

// ID returns the record's id as a string.
func (r Record) ID() string {
	value, ok := r["id"]
	if !ok || value == nil {
		return ""
	}
	switch v := value.(type) {
	case string:
		return v
	case json.Number:
		return v.String()
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return fmt.Sprint(v)
	}
}

// Client issues CRUD calls through the shared transport.
type Client struct {
	transport *transport.Client
}

// NewClient constructs a Client.
func NewClient(t *transport.Client) *Client {
	return &Client{transport: t}
}

// List sends GET read and returns the records under data, or the top-level
// array.
func (c *Client) List(ctx context.Context, api FormAPI) ([]Record, error) {
	body, err := c.call(ctx, http.MethodGet, api.Read, "", nil)
	if err != nil {
		return nil, err
	}
	return decodeRecords(body)
}

// Get sends GET read/{id}.
func (c *Client) Get(ctx context.Context, api FormAPI, id string) (Record, error) {
	body, err := c.call(ctx, http.MethodGet, api.Read, id, nil)
	if err != nil {
		return nil, err
	}
	return decodeRecord(body)
}

// Create sends POST create. One record goes out as an object, several as an
// array. The created records echoed by the backend are returned when present.
func (c *Client) Create(ctx context.Context, api FormAPI, records ...Record) ([]Record, error) {
	if len(records) == 0 {
		return nil, fmt.Errorf("crud: create: no records")
	}
	var payload any = records
	if len(records) == 1 {
		payload = records[0]
	}
	body, err := c.call(ctx, http.MethodPost, api.Create, "", payload)
	if err != nil {
		return nil, err
	}
	return decodeRecords(body)
}

// Update sends PUT update/{id}.
func (c *Client) Update(ctx context.Context, api FormAPI, id string, record Record) (Record, error) {
	if id == "" {
		return nil, fmt.Errorf("crud: update: id is required")
	}
	body, err := c.call(ctx, http.MethodPut, api.Update, id, record)
	if err != nil {
		return nil, err
	}
	return decodeRecord(body)
}

// Delete sends DELETE delete/{id}.
func (c *Client) Delete(ctx context.Context, api FormAPI, id string) error {
	if id == "" {
		return fmt.Errorf("crud: delete: id is required")
	}
	_, err := c.call(ctx, http.MethodDelete, api.Delete, id, nil)
	return err
}

func (c *Client) call(ctx context.Context, method, endpoint, id string, payload any) ([]byte, error) {
	if c == nil || c.transport == nil {
		return nil, fmt.Errorf("crud: transport is nil")
	}
	endpoint = strings.TrimSpace(endpoint)
	if endpoint == "" {
		return nil, fmt.Errorf("crud: %s: %w", method, ErrNoEndpoint)
	}
	if id != "" {
		endpoint = strings.TrimRight(endpoint, "/") + "/" + url.PathEscape(id)
	}

	resp, err := c.transport.Do(ctx, method, endpoint, payload)
	if err != nil {
		return nil, fmt.Errorf("crud: %w", err)
	}
	if !resp.OK() {
		return nil, &APIError{Method: method, URL: endpoint, Status: resp.Status, Body: resp.Body}
	}
	return resp.Body, nil
}

func decodeRecords(body []byte) ([]Record, error) {
	if len(strings.TrimSpace(string(body))) == 0 {
		return nil, nil
	}
	if !gjson.ValidBytes(body) {
		return nil, fmt.Errorf("crud: malformed JSON response")
	}
	root := gjson.ParseBytes(body)
	list := root
	if root.IsObject() {
		data := root.Get("data")
		if !data.Exists() {
			return []Record{}, nil
		}
		list = data
	}
	switch {
	case list.IsArray():
		var out []Record
		if err := json.Unmarshal([]byte(list.Raw), &out); err != nil {
			return nil, fmt.Errorf("crud: decode records: %w", err)
		}
		if out == nil {
			out = []Record{}
		}
		return out, nil
	case list.IsObject():
		var one Record
		if err := json.Unmarshal([]byte(list.Raw), &one); err != nil {
			return nil, fmt.Errorf("crud: decode record: %w", err)
		}
		return []Record{one}, nil
	case list.Type == gjson.Null:
		return []Record{}, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnexpectedShape, list.Type)
	}
}

func decodeRecord(body []byte) (Record, error) {
	records, err := decodeRecords(body)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, nil
	}
	return records[0], nil
}
