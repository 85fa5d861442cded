package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"strconv"
	"strings"
	"time"
)

const (
	defaultHTTPTimeout = 30 * time.Second
	defaultUserAgent   = "consync/dev"
	maxErrorBodyBytes  = 1 << 20
)

// AuthMode selects how HTTPClient authenticates, per spec §4.9: exactly one
// of basic credentials or a bearer personal-access token.
type AuthMode int

const (
	AuthBasic AuthMode = iota
	AuthBearer
)

// HTTPClientConfig configures HTTPClient.
type HTTPClientConfig struct {
	BaseURL    string
	AuthMode   AuthMode
	Username   string // required for AuthBasic
	APIToken   string // API token (basic) or PAT (bearer)
	Timeout    time.Duration
	HTTPClient *http.Client
	UserAgent  string
}

// HTTPClient implements Service against the Confluence REST v1 content API,
// embedding Storage Format bodies as a JSON string in body.storage.value.
type HTTPClient struct {
	baseURL    string
	authMode   AuthMode
	username   string
	token      string
	httpClient *http.Client
	userAgent  string
}

// NewHTTPClient builds an HTTPClient from cfg.
func NewHTTPClient(cfg HTTPClientConfig) (*HTTPClient, error) {
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		return nil, errors.New("remote: base URL is required")
	}
	if _, err := url.ParseRequestURI(baseURL); err != nil {
		return nil, fmt.Errorf("remote: invalid base URL: %w", err)
	}
	token := strings.TrimSpace(cfg.APIToken)
	if token == "" {
		return nil, errors.New("remote: API token is required")
	}
	if cfg.AuthMode == AuthBasic && strings.TrimSpace(cfg.Username) == "" {
		return nil, errors.New("remote: username is required for basic auth")
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultHTTPTimeout
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: timeout}
	}
	userAgent := strings.TrimSpace(cfg.UserAgent)
	if userAgent == "" {
		userAgent = defaultUserAgent
	}

	return &HTTPClient{
		baseURL:    baseURL,
		authMode:   cfg.AuthMode,
		username:   strings.TrimSpace(cfg.Username),
		token:      token,
		httpClient: httpClient,
		userAgent:  userAgent,
	}, nil
}

// Close releases pooled idle connections.
func (c *HTTPClient) Close() {
	c.httpClient.CloseIdleConnections()
}

type spaceDTO struct {
	ID   json.Number `json:"id"`
	Key  string      `json:"key"`
	Name string      `json:"name"`
}

type contentDTO struct {
	ID    string `json:"id"`
	Type  string `json:"type"`
	Title string `json:"title"`
	Space struct {
		Key string `json:"key"`
	} `json:"space"`
	Version struct {
		Number int `json:"number"`
	} `json:"version"`
	Ancestors []struct {
		ID string `json:"id"`
	} `json:"ancestors"`
	Body struct {
		Storage struct {
			Value string `json:"value"`
		} `json:"storage"`
	} `json:"body"`
	Links struct {
		WebUI string `json:"webui"`
	} `json:"_links"`
}

func (d contentDTO) toPage() Page {
	parentID := ""
	if len(d.Ancestors) > 0 {
		parentID = d.Ancestors[len(d.Ancestors)-1].ID
	}
	return Page{
		ID:        d.ID,
		Title:     d.Title,
		SpaceKey:  d.Space.Key,
		Version:   d.Version.Number,
		ParentID:  parentID,
		Body:      d.Body.Storage.Value,
		WebUILink: d.Links.WebUI,
	}
}

type contentSearchDTO struct {
	Results []contentDTO `json:"results"`
}

// GetSpace resolves a space by key via the space endpoint.
func (c *HTTPClient) GetSpace(ctx context.Context, spaceKey string) (Space, error) {
	key := strings.TrimSpace(spaceKey)
	if key == "" {
		return Space{}, errors.New("remote: space key is required")
	}
	req, err := c.newRequest(ctx, http.MethodGet, "/wiki/rest/api/space/"+url.PathEscape(key), nil, nil)
	if err != nil {
		return Space{}, err
	}
	var dto spaceDTO
	if err := c.do(req, &dto); err != nil {
		return Space{}, err
	}
	return Space{ID: dto.ID.String(), Key: dto.Key, Name: dto.Name}, nil
}

// GetPage fetches a page by ID with storage body, version, and ancestors.
func (c *HTTPClient) GetPage(ctx context.Context, pageID string) (Page, error) {
	id := strings.TrimSpace(pageID)
	if id == "" {
		return Page{}, errors.New("remote: page ID is required")
	}
	query := url.Values{"expand": []string{"body.storage,version,ancestors"}}
	req, err := c.newRequest(ctx, http.MethodGet, "/wiki/rest/api/content/"+url.PathEscape(id), query, nil)
	if err != nil {
		return Page{}, err
	}
	var dto contentDTO
	if err := c.do(req, &dto); err != nil {
		return Page{}, err
	}
	return dto.toPage(), nil
}

// GetPageByTitle looks a page up by space and exact title.
func (c *HTTPClient) GetPageByTitle(ctx context.Context, spaceKey, title string) (Page, bool, error) {
	query := url.Values{
		"spaceKey": []string{spaceKey},
		"title":    []string{title},
		"expand":   []string{"body.storage,version,ancestors"},
	}
	req, err := c.newRequest(ctx, http.MethodGet, "/wiki/rest/api/content", query, nil)
	if err != nil {
		return Page{}, false, err
	}
	var dto contentSearchDTO
	if err := c.do(req, &dto); err != nil {
		return Page{}, false, err
	}
	if len(dto.Results) == 0 {
		return Page{}, false, nil
	}
	return dto.Results[0].toPage(), true, nil
}

// bodyWrapper is the `body.storage.{value,representation}` shape every
// create/update payload embeds its Storage Format content in.
type bodyWrapper struct {
	Storage struct {
		Value          string `json:"value"`
		Representation string `json:"representation"`
	} `json:"storage"`
}

func storageBody(value string) bodyWrapper {
	var b bodyWrapper
	b.Storage.Value = value
	b.Storage.Representation = "storage"
	return b
}

type createContentBody struct {
	Type  string `json:"type"`
	Title string `json:"title"`
	Space struct {
		Key string `json:"key"`
	} `json:"space"`
	Ancestors []map[string]string `json:"ancestors,omitempty"`
	Body      bodyWrapper `json:"body"`
}

// CreatePage creates a new page (spec §4.9 createPage: Conflict if the
// title already exists in the space).
func (c *HTTPClient) CreatePage(ctx context.Context, input PageInput) (Page, error) {
	var payload createContentBody
	payload.Type = "page"
	payload.Title = input.Title
	payload.Space.Key = input.SpaceKey
	payload.Body = storageBody(input.Body)
	if input.ParentID != "" {
		payload.Ancestors = []map[string]string{{"id": input.ParentID}}
	}

	req, err := c.newRequest(ctx, http.MethodPost, "/wiki/rest/api/content", nil, payload)
	if err != nil {
		return Page{}, err
	}
	var dto contentDTO
	if err := c.do(req, &dto); err != nil {
		return Page{}, err
	}
	return dto.toPage(), nil
}

type updateContentBody struct {
	Type    string `json:"type"`
	Title   string `json:"title"`
	Version struct {
		Number int `json:"number"`
	} `json:"version"`
	Ancestors []map[string]string `json:"ancestors,omitempty"`
	Body      bodyWrapper `json:"body"`
}

// UpdatePage updates title/body/ancestor and advances the version counter
// (spec §4.9 updatePage: Conflict if input.Version is stale).
func (c *HTTPClient) UpdatePage(ctx context.Context, pageID string, input PageInput) (Page, error) {
	id := strings.TrimSpace(pageID)
	if id == "" {
		return Page{}, errors.New("remote: page ID is required")
	}
	var payload updateContentBody
	payload.Type = "page"
	payload.Title = input.Title
	payload.Version.Number = input.Version
	payload.Body = storageBody(input.Body)
	if input.ParentID != "" {
		payload.Ancestors = []map[string]string{{"id": input.ParentID}}
	}

	req, err := c.newRequest(ctx, http.MethodPut, "/wiki/rest/api/content/"+url.PathEscape(id), nil, payload)
	if err != nil {
		return Page{}, err
	}
	var dto contentDTO
	if err := c.do(req, &dto); err != nil {
		return Page{}, err
	}
	return dto.toPage(), nil
}

// DeletePage moves a page to trash (Confluence's non-destructive delete).
func (c *HTTPClient) DeletePage(ctx context.Context, pageID string) error {
	id := strings.TrimSpace(pageID)
	if id == "" {
		return errors.New("remote: page ID is required")
	}
	req, err := c.newRequest(ctx, http.MethodDelete, "/wiki/rest/api/content/"+url.PathEscape(id), nil, nil)
	if err != nil {
		return err
	}
	return c.do(req, nil)
}

// MovePage re-parents a page: fetch current version, title and body, then
// issue an update that resends that title and body with the new ancestor.
func (c *HTTPClient) MovePage(ctx context.Context, pageID, newParentID string) (Page, error) {
	current, err := c.GetPage(ctx, pageID)
	if err != nil {
		return Page{}, err
	}
	return c.UpdatePage(ctx, pageID, PageInput{
		Title:    current.Title,
		Body:     current.Body,
		Version:  current.Version + 1,
		ParentID: newParentID,
	})
}

// TestConnection verifies the configured credentials are accepted.
func (c *HTTPClient) TestConnection(ctx context.Context) error {
	req, err := c.newRequest(ctx, http.MethodGet, "/wiki/rest/api/space", url.Values{"limit": []string{"1"}}, nil)
	if err != nil {
		return err
	}
	return c.do(req, nil)
}

func (c *HTTPClient) newRequest(ctx context.Context, method, pathSuffix string, query url.Values, body any) (*http.Request, error) {
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return nil, err
	}
	u.Path = path.Join(u.Path, pathSuffix)
	if query != nil {
		q := u.Query()
		for key, vals := range query {
			for _, v := range vals {
				q.Add(key, v)
			}
		}
		u.RawQuery = q.Encode()
	}

	var bodyReader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("remote: marshal request body: %w", err)
		}
		bodyReader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), bodyReader)
	if err != nil {
		return nil, err
	}
	if c.authMode == AuthBearer {
		req.Header.Set("Authorization", "Bearer "+c.token)
	} else {
		req.SetBasicAuth(c.username, c.token)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return req, nil
}

func (c *HTTPClient) do(req *http.Request, out any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &APIError{
			Kind:    ErrNetwork,
			Method:  req.Method,
			URL:     req.URL.String(),
			Message: err.Error(),
		}
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyBytes))
	if err != nil {
		return &APIError{Kind: ErrNetwork, Method: req.Method, URL: req.URL.String(), Message: err.Error()}
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		apiErr := &APIError{
			Kind:       classifyStatus(resp.StatusCode),
			StatusCode: resp.StatusCode,
			Method:     req.Method,
			URL:        req.URL.String(),
			Message:    decodeAPIErrorMessage(bodyBytes),
		}
		if apiErr.Kind == ErrRateLimited {
			apiErr.RetryAfter = parseRetryAfter(resp.Header.Get("Retry-After"))
		}
		return apiErr
	}

	if out == nil || len(bodyBytes) == 0 {
		return nil
	}
	if err := json.Unmarshal(bodyBytes, out); err != nil {
		return fmt.Errorf("remote: decode response JSON: %w", err)
	}
	return nil
}

func decodeAPIErrorMessage(body []byte) string {
	if len(body) == 0 {
		return ""
	}
	var payload map[string]any
	if err := json.Unmarshal(body, &payload); err != nil {
		return ""
	}
	for _, key := range []string{"message", "error", "reason"} {
		if v, ok := payload[key].(string); ok {
			return v
		}
	}
	return ""
}

func parseRetryAfter(header string) time.Duration {
	header = strings.TrimSpace(header)
	if header == "" {
		return 0
	}
	if secs, err := strconv.Atoi(header); err == nil {
		return time.Duration(secs) * time.Second
	}
	if t, err := http.ParseTime(header); err == nil {
		return time.Until(t)
	}
	return 0
}
