package jira

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

const pageSize = 100

type cloudClient struct {
	cfg        Config
	httpClient *http.Client

	throttleMu  sync.Mutex
	lastRequest time.Time

	// Metadata cache (sprints, boards)
	cache      map[string]*cacheEntry
	cacheMutex sync.RWMutex
}

type cacheEntry struct {
	Value      any
	Expiration time.Time
}

// NewCloudClient creates a Jira Cloud REST client.
func NewCloudClient(cfg Config) Client {
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	cfg.BaseURL = trimSlash(cfg.BaseURL)
	return &cloudClient{
		cfg: cfg,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		cache: make(map[string]*cacheEntry),
	}
}

func (c *cloudClient) getFromCache(key string) (any, bool) {
	c.cacheMutex.RLock()
	entry, ok := c.cache[key]
	c.cacheMutex.RUnlock()

	if !ok || time.Now().After(entry.Expiration) {
		log.Debug().Str("key", key).Msg("Cache miss")
		return nil, false
	}
	log.Debug().Str("key", key).Msg("Cache hit")
	return entry.Value, true
}

func (c *cloudClient) addToCache(key string, value any, ttl time.Duration) {
	c.cacheMutex.Lock()
	defer c.cacheMutex.Unlock()

	c.cache[key] = &cacheEntry{
		Value:      value,
		Expiration: time.Now().Add(ttl),
	}
	log.Debug().Str("key", key).Dur("ttl", ttl).Msg("Added to cache")
}

// throttle spaces requests by RequestDelay. Safe for concurrent callers:
// each caller reserves the next free slot before sleeping.
func (c *cloudClient) throttle(ctx context.Context) error {
	if c.cfg.RequestDelay <= 0 {
		return nil
	}

	c.throttleMu.Lock()
	now := time.Now()
	slot := c.lastRequest.Add(c.cfg.RequestDelay)
	if slot.Before(now) {
		slot = now
	}
	c.lastRequest = slot
	c.throttleMu.Unlock()

	wait := time.Until(slot)
	if wait <= 0 {
		return nil
	}
	log.Debug().Dur("wait", wait).Msg("Throttling Jira request")

	timer := time.NewTimer(wait)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func (c *cloudClient) authenticateRequest(req *http.Request) {
	// 1. Prioritize Personal Access Token (PAT)
	if c.cfg.Token != "" {
		req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", c.cfg.Token))
		return
	}

	// 2. Jira Cloud account email + API token
	if c.cfg.Email != "" || c.cfg.APIToken != "" {
		req.SetBasicAuth(c.cfg.Email, c.cfg.APIToken)
	}
}

// do performs one request and decodes a JSON response into out (when non-nil).
// subject names the requested resource in error messages.
func (c *cloudClient) do(ctx context.Context, method, path string, params url.Values, body any, out any, subject string) error {
	if err := c.throttle(ctx); err != nil {
		return err
	}

	reqURL := c.cfg.BaseURL + path
	if len(params) > 0 {
		reqURL += "?" + params.Encode()
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request for %s: %w", subject, err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, reqURL, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	c.authenticateRequest(req)

	log.Debug().Str("method", method).Str("url", reqURL).Msg("Jira request")
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("Jira request for %s failed: %w", subject, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return statusError(resp, subject)
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode %s response: %w", subject, err)
	}
	return nil
}

func statusError(resp *http.Response, subject string) error {
	switch resp.StatusCode {
	case http.StatusNotFound:
		return fmt.Errorf("%s not found", subject)
	case http.StatusUnauthorized, http.StatusForbidden:
		return fmt.Errorf("Jira authentication failed (%d). Please check JIRA_EMAIL and JIRA_API_TOKEN.", resp.StatusCode)
	case http.StatusTooManyRequests:
		if retryAfter := resp.Header.Get("Retry-After"); retryAfter != "" {
			return fmt.Errorf("Jira rate limit exceeded (429). Retry after %s seconds.", retryAfter)
		}
		return fmt.Errorf("Jira rate limit exceeded (429).")
	default:
		return fmt.Errorf("Jira API returned status %d for %s", resp.StatusCode, subject)
	}
}

func (c *cloudClient) SearchIssues(ctx context.Context, jql string, fields []string) ([]IssueDTO, error) {
	log.Info().Str("jql", jql).Msg("Requesting issues from Jira")

	var all []IssueDTO
	for startAt := 0; ; {
		params := url.Values{}
		params.Set("jql", jql)
		params.Set("startAt", strconv.Itoa(startAt))
		params.Set("maxResults", strconv.Itoa(pageSize))
		if len(fields) > 0 {
			params.Set("fields", strings.Join(fields, ","))
		}

		var page SearchResponse
		if err := c.do(ctx, http.MethodGet, "/rest/api/3/search", params, nil, &page, "issue search"); err != nil {
			return nil, err
		}

		all = append(all, page.Issues...)
		startAt += len(page.Issues)
		if len(page.Issues) == 0 || startAt >= page.Total {
			break
		}
	}

	log.Debug().Int("count", len(all)).Msg("Search complete")
	return all, nil
}

func (c *cloudClient) GetIssueWorklogs(ctx context.Context, key string) ([]WorklogDTO, error) {
	var all []WorklogDTO
	for startAt := 0; ; {
		params := url.Values{}
		params.Set("startAt", strconv.Itoa(startAt))
		params.Set("maxResults", strconv.Itoa(pageSize*10))

		var page WorklogPage
		path := fmt.Sprintf("/rest/api/3/issue/%s/worklog", url.PathEscape(key))
		if err := c.do(ctx, http.MethodGet, path, params, nil, &page, "worklogs of "+key); err != nil {
			return nil, err
		}

		all = append(all, page.Worklogs...)
		startAt += len(page.Worklogs)
		if len(page.Worklogs) == 0 || startAt >= page.Total {
			break
		}
	}
	return all, nil
}

func (c *cloudClient) GetIssueChangelog(ctx context.Context, key string) ([]HistoryDTO, error) {
	var all []HistoryDTO
	for startAt := 0; ; {
		params := url.Values{}
		params.Set("startAt", strconv.Itoa(startAt))
		params.Set("maxResults", strconv.Itoa(pageSize))

		var page pagedValues[HistoryDTO]
		path := fmt.Sprintf("/rest/api/3/issue/%s/changelog", url.PathEscape(key))
		if err := c.do(ctx, http.MethodGet, path, params, nil, &page, "changelog of "+key); err != nil {
			return nil, err
		}

		all = append(all, page.Values...)
		startAt += len(page.Values)
		if page.IsLast || len(page.Values) == 0 || (page.Total > 0 && startAt >= page.Total) {
			break
		}
	}
	return all, nil
}

func (c *cloudClient) getBoards(ctx context.Context, projectKey string) ([]BoardDTO, error) {
	cacheKey := "boards:" + projectKey
	if val, ok := c.getFromCache(cacheKey); ok {
		return val.([]BoardDTO), nil
	}

	var all []BoardDTO
	for startAt := 0; ; {
		params := url.Values{}
		params.Set("projectKeyOrId", projectKey)
		params.Set("startAt", strconv.Itoa(startAt))
		params.Set("maxResults", "50")

		var page pagedValues[BoardDTO]
		if err := c.do(ctx, http.MethodGet, "/rest/agile/1.0/board", params, nil, &page, "boards of project "+projectKey); err != nil {
			return nil, err
		}
		all = append(all, page.Values...)
		startAt += len(page.Values)
		if page.IsLast || len(page.Values) == 0 {
			break
		}
	}

	c.addToCache(cacheKey, all, 10*time.Minute)
	return all, nil
}

// GetSprints lists the sprints of every board of the project. Only the board
// list is cached; sprint lists and states are always read fresh.
func (c *cloudClient) GetSprints(ctx context.Context, projectKey string) ([]SprintDTO, error) {
	boards, err := c.getBoards(ctx, projectKey)
	if err != nil {
		return nil, err
	}
	if len(boards) == 0 {
		log.Warn().Str("project", projectKey).Msg("No boards found for project")
		return nil, nil
	}

	seen := make(map[int]bool)
	var sprints []SprintDTO
	for _, board := range boards {
		for startAt := 0; ; {
			params := url.Values{}
			params.Set("startAt", strconv.Itoa(startAt))
			params.Set("maxResults", "50")

			var page pagedValues[SprintDTO]
			path := fmt.Sprintf("/rest/agile/1.0/board/%d/sprint", board.ID)
			if err := c.do(ctx, http.MethodGet, path, params, nil, &page, fmt.Sprintf("sprints of board %d", board.ID)); err != nil {
				// Kanban boards reject the sprint endpoint; keep the other boards.
				log.Warn().Err(err).Int("board", board.ID).Msg("Skipping board sprints")
				break
			}
			for _, s := range page.Values {
				if !seen[s.ID] {
					seen[s.ID] = true
					sprints = append(sprints, s)
				}
			}
			startAt += len(page.Values)
			if page.IsLast || len(page.Values) == 0 {
				break
			}
		}
	}

	return sprints, nil
}

func (c *cloudClient) GetSprint(ctx context.Context, id int) (*SprintDTO, error) {
	var sprint SprintDTO
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/rest/agile/1.0/sprint/%d", id), nil, nil, &sprint, fmt.Sprintf("sprint %d", id)); err != nil {
		return nil, err
	}
	return &sprint, nil
}

func (c *cloudClient) GetSprintIssues(ctx context.Context, sprintID int, fields []string) ([]IssueDTO, error) {
	log.Info().Int("sprint", sprintID).Msg("Requesting sprint issues from Jira")

	var all []IssueDTO
	for startAt := 0; ; {
		params := url.Values{}
		params.Set("startAt", strconv.Itoa(startAt))
		params.Set("maxResults", strconv.Itoa(pageSize))
		params.Set("expand", "changelog")
		if len(fields) > 0 {
			params.Set("fields", strings.Join(fields, ","))
		}

		var page SearchResponse
		path := fmt.Sprintf("/rest/agile/1.0/sprint/%d/issue", sprintID)
		if err := c.do(ctx, http.MethodGet, path, params, nil, &page, fmt.Sprintf("issues of sprint %d", sprintID)); err != nil {
			return nil, err
		}

		all = append(all, page.Issues...)
		startAt += len(page.Issues)
		if len(page.Issues) == 0 || startAt >= page.Total {
			break
		}
	}
	return all, nil
}

func (c *cloudClient) UpdateIssueField(ctx context.Context, key string, fieldID string, value any) error {
	body := map[string]any{
		"fields": map[string]any{fieldID: value},
	}
	path := fmt.Sprintf("/rest/api/3/issue/%s", url.PathEscape(key))
	return c.do(ctx, http.MethodPut, path, nil, body, nil, "issue "+key)
}
