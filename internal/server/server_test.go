package server_test

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goliatone/go-crudform/internal/server"
	"github.com/goliatone/go-crudform/pkg/config"
	"github.com/goliatone/go-crudform/pkg/crud"
	"github.com/goliatone/go-crudform/pkg/fetch"
	"github.com/goliatone/go-crudform/pkg/logger"
	"github.com/goliatone/go-crudform/pkg/render"
)

const salesSchema = `{"data": {"general": {"title": "General", "fields": [
  {"key": "id", "label": "ID", "inTable": true},
  {"key": "name", "label": "Name", "type": "textinput", "inTable": true, "isForm": true, "isPrint": true, "createKey": "customer_name"},
  {"key": "status", "label": "Status", "type": "dropdown", "isForm": true, "isPrint": true,
   "options": [{"value": "open", "label": "Open"}, {"value": "closed", "label": "Closed"}]},
  {"key": "action", "label": "Action", "inTable": true}
]}}}`

type backend struct {
	mu        sync.Mutex
	hits      map[string]int
	lastBody  map[string]any
	lastAuth  string
	createErr bool
}

func (b *backend) record(r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.hits[r.Method+" "+r.URL.Path]++
	b.lastAuth = r.Header.Get("Authorization")
	if r.Body != nil {
		data, _ := io.ReadAll(r.Body)
		if len(data) > 0 {
			b.lastBody = map[string]any{}
			_ = json.Unmarshal(data, &b.lastBody)
		}
	}
}

func (b *backend) count(key string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.hits[key]
}

func (b *backend) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	b.record(r)
	w.Header().Set("Content-Type", "application/json")
	switch r.Method + " " + r.URL.Path {
	case "GET /schema/sales":
		_, _ = io.WriteString(w, salesSchema)
	case "GET /schema/broken":
		w.WriteHeader(http.StatusInternalServerError)
	case "GET /api/sales":
		_, _ = io.WriteString(w, `{"data": [{"id": 1, "name": "Widget", "status": "open"}]}`)
	case "GET /api/sales/1":
		_, _ = io.WriteString(w, `{"data": {"id": 1, "name": "Widget", "status": "closed"}}`)
	case "GET /api/sales/2":
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = io.WriteString(w, `{"message": "database down"}`)
	case "POST /api/sales":
		b.mu.Lock()
		failCreate := b.createErr
		b.mu.Unlock()
		if failCreate {
			w.WriteHeader(http.StatusUnprocessableEntity)
			_, _ = io.WriteString(w, `{"message": "Validation failed", "errors": {"customer_name": ["Name is taken"]}}`)
			return
		}
		w.WriteHeader(http.StatusCreated)
		_, _ = io.WriteString(w, `{"data": {"id": 2}}`)
	case "PUT /api/sales/1":
		_, _ = io.WriteString(w, `{"data": {"id": 1}}`)
	case "DELETE /api/sales/1":
		w.WriteHeader(http.StatusNoContent)
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func newServer(t *testing.T) (*httptest.Server, *backend) {
	t.Helper()

	b := &backend{hits: map[string]int{}}
	upstream := httptest.NewServer(b)
	t.Cleanup(upstream.Close)

	cfg := config.Config{
		API:    config.APIConfig{BaseURL: upstream.URL},
		Server: config.ServerConfig{Addr: ":0"},
		Pages: []config.PageConfig{
			{Name: "sales", Title: "Sales", Schema: "/schema/sales", FormAPI: crud.FormAPI{Read: "/api/sales"}.WithDefaults()},
			{Name: "broken", Title: "Broken", Schema: "/schema/broken", FormAPI: crud.FormAPI{Read: "/api/broken"}.WithDefaults()},
		},
	}

	fetcher, err := fetch.New(fetch.WithBaseURL(upstream.URL))
	require.NoError(t, err)

	themes, err := render.NewThemes("default", "", render.ManifestFromTokens("default", map[string]string{"primary": "#123456"}, nil))
	require.NoError(t, err)

	srv, err := server.New(cfg, fetcher, crud.NewClient(fetcher.Transport()),
		server.WithLogger(logger.Nop()),
		server.WithThemes(themes),
	)
	require.NoError(t, err)

	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts, b
}

func noRedirectClient() *http.Client {
	return &http.Client{CheckRedirect: func(*http.Request, []*http.Request) error {
		return http.ErrUseLastResponse
	}}
}

func get(t *testing.T, ts *httptest.Server, path string) (*http.Response, string) {
	t.Helper()
	resp, err := noRedirectClient().Get(ts.URL + path)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, string(body)
}

func postForm(t *testing.T, ts *httptest.Server, path string, form url.Values) (*http.Response, string) {
	t.Helper()
	resp, err := noRedirectClient().PostForm(ts.URL+path, form)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, string(body)
}

func TestHealthz(t *testing.T) {
	ts, _ := newServer(t)
	resp, body := get(t, ts, "/healthz")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"status":"ok"}`, body)
	assert.NotEmpty(t, resp.Header.Get(server.HeaderRequestID))
}

func TestRequestIDIsEchoed(t *testing.T) {
	ts, _ := newServer(t)
	req, err := http.NewRequest(http.MethodGet, ts.URL+"/healthz", nil)
	require.NoError(t, err)
	req.Header.Set(server.HeaderRequestID, "req-123")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "req-123", resp.Header.Get(server.HeaderRequestID))
}

func TestListPages(t *testing.T) {
	ts, _ := newServer(t)
	resp, body := get(t, ts, "/api/pages")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var payload struct {
		Pages []struct {
			Name    string       `json:"name"`
			FormAPI crud.FormAPI `json:"formApi"`
		} `json:"pages"`
	}
	require.NoError(t, json.Unmarshal([]byte(body), &payload))
	require.Len(t, payload.Pages, 2)
	assert.Equal(t, "sales", payload.Pages[0].Name)
	assert.Equal(t, "/api/sales", payload.Pages[0].FormAPI.Create)
}

func TestPageSchema(t *testing.T) {
	ts, _ := newServer(t)

	resp, body := get(t, ts, "/api/pages/sales/schema")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, `"state":"ready"`)
	assert.Contains(t, body, `"ready":true`)

	resp, body = get(t, ts, "/api/pages/broken/schema")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, `"state":"empty"`)
	assert.Contains(t, body, `"error"`)
}

func TestPageOpenAPI(t *testing.T) {
	ts, _ := newServer(t)
	resp, body := get(t, ts, "/api/pages/sales/openapi")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, `"operationId":"listSales"`)
	assert.Contains(t, body, `"customer_name"`)
}

func TestShowList(t *testing.T) {
	ts, b := newServer(t)
	resp, body := get(t, ts, "/pages/sales")

	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "text/html")
	assert.Contains(t, body, `<td data-key="name">Widget</td>`)
	assert.Contains(t, body, `action="/pages/sales/records"`)
	assert.Contains(t, body, `href="/pages/sales/records/1"`)
	assert.Contains(t, body, `--primary: #123456`)
	assert.Equal(t, 1, b.count("GET /schema/sales"))
	assert.Equal(t, 1, b.count("GET /api/sales"))

	// A reload mounts a fresh page and fetches the schema again.
	get(t, ts, "/pages/sales")
	assert.Equal(t, 2, b.count("GET /schema/sales"))
}

func TestShowList_SchemaFailureRendersNothingAndSkipsRows(t *testing.T) {
	ts, b := newServer(t)
	resp, body := get(t, ts, "/pages/broken")

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Empty(t, body)
	assert.Equal(t, 0, b.count("GET /api/broken"))
}

func TestUnknownPage(t *testing.T) {
	ts, _ := newServer(t)
	resp, body := get(t, ts, "/pages/nope")

	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Contains(t, body, `"code":"not_found"`)
}

func TestUnknownTheme(t *testing.T) {
	ts, _ := newServer(t)
	resp, body := get(t, ts, "/pages/sales?theme=missing")

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, body, `"code":"bad_request"`)
}

func TestCreate_ValidationRerendersForm(t *testing.T) {
	ts, b := newServer(t)
	resp, body := postForm(t, ts, "/pages/sales/records", url.Values{"status": {"open"}})

	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	assert.Contains(t, body, "Enter Name")
	assert.Contains(t, body, `<option value="open" selected>Open</option>`)
	assert.Equal(t, 0, b.count("POST /api/sales"))
}

func TestCreate_PostsRecordAndRedirects(t *testing.T) {
	ts, b := newServer(t)
	resp, _ := postForm(t, ts, "/pages/sales/records", url.Values{"name": {"Gadget"}, "status": {"closed"}})

	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/pages/sales", resp.Header.Get("Location"))
	assert.Equal(t, 1, b.count("POST /api/sales"))
	assert.Equal(t, map[string]any{"customer_name": "Gadget", "status": "closed"}, b.lastBody)
}

func TestCreate_BackendValidationMapsToFields(t *testing.T) {
	ts, b := newServer(t)
	b.mu.Lock()
	b.createErr = true
	b.mu.Unlock()

	resp, body := postForm(t, ts, "/pages/sales/records", url.Values{"name": {"Gadget"}, "status": {"closed"}})

	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	assert.Contains(t, body, `<p class="crudform-error">Name is taken</p>`)
	assert.Contains(t, body, "Validation failed")
}

func TestShowRecordAndPrint(t *testing.T) {
	ts, _ := newServer(t)

	resp, body := get(t, ts, "/pages/sales/records/1")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, `name="_method" value="PUT"`)
	assert.Contains(t, body, `value="Widget"`)
	assert.Contains(t, body, `<option value="closed" selected>Closed</option>`)

	resp, body = get(t, ts, "/pages/sales/records/1/print")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, `<dd data-key="status">Closed</dd>`)
}

func TestShowRecord_BackendFailure(t *testing.T) {
	ts, _ := newServer(t)
	resp, body := get(t, ts, "/pages/sales/records/2")

	assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
	assert.Contains(t, body, `"code":"backend_error"`)
	assert.Contains(t, body, "database down")
}

func TestUpdateAndDelete(t *testing.T) {
	ts, b := newServer(t)

	resp, _ := postForm(t, ts, "/pages/sales/records/1", url.Values{"name": {"Renamed"}, "status": {"open"}})
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, 1, b.count("PUT /api/sales/1"))
	assert.Equal(t, "Renamed", b.lastBody["name"])

	resp, _ = postForm(t, ts, "/pages/sales/records/1/delete", url.Values{})
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, 1, b.count("DELETE /api/sales/1"))
}

func TestPostToBrokenPage(t *testing.T) {
	ts, _ := newServer(t)
	resp, body := postForm(t, ts, "/pages/broken/records", url.Values{"name": {"x"}})

	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	assert.True(t, strings.Contains(body, `"code":"schema_unavailable"`), body)
}
