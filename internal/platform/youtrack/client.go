// Package youtrack implements the typed HTTP client for the YouTrack REST
// API. It is the only package that talks to the network; every response is
// decoded into the explicit shapes in internal/domain before it reaches the
// reconciliation engine.
package youtrack

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/phrazzld/sprintsync/internal/domain"
)

// listPageSize caps list endpoints. YouTrack pages at $top entries; boards,
// projects, and sprints are assumed to fit in one page.
const listPageSize = 1000

// defaultTimeout bounds every individual API call. There is no whole-run
// deadline; callers pass a context if they need one.
const defaultTimeout = 30 * time.Second

// APIError reports a non-2xx response from the YouTrack API.
type APIError struct {
	Status int
	Path   string
	Body   string
}

// Error implements the error interface.
func (e *APIError) Error() string {
	return fmt.Sprintf("youtrack API %s returned %d: %s", e.Path, e.Status, e.Body)
}

// Client is a YouTrack REST API client using bearer-token authorization.
type Client struct {
	baseURL string
	token   string
	client  *http.Client
}

// NewClient creates a client for the YouTrack instance at baseURL.
// A trailing slash on baseURL is tolerated.
func NewClient(baseURL, token string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		client:  &http.Client{Timeout: defaultTimeout},
	}
}

// do performs one API call and decodes a 2xx JSON response into out (when
// out is non-nil). Returns the HTTP status code so callers can distinguish
// outcomes like 404 on delete.
func (c *Client) do(
	ctx context.Context,
	method, path string,
	query url.Values,
	payload interface{},
	out interface{},
) (int, error) {
	reqURL := c.baseURL + path
	if len(query) > 0 {
		reqURL += "?" + query.Encode()
	}

	var body io.Reader
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			return 0, fmt.Errorf("failed to encode request payload: %w", err)
		}
		body = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, reqURL, body)
	if err != nil {
		return 0, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("request to %s failed: %w", path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return resp.StatusCode, &APIError{
			Status: resp.StatusCode,
			Path:   path,
			Body:   strings.TrimSpace(string(raw)),
		}
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return resp.StatusCode, fmt.Errorf("failed to decode response from %s: %w", path, err)
		}
	}
	return resp.StatusCode, nil
}

// listQuery builds the standard fields/$top query for list endpoints.
func listQuery(fields string) url.Values {
	return url.Values{
		"fields": {fields},
		"$top":   {fmt.Sprint(listPageSize)},
	}
}

// FindBoardID looks up an agile board by exact name.
func (c *Client) FindBoardID(ctx context.Context, name string) (string, bool, error) {
	var boards []domain.Board
	if _, err := c.do(ctx, http.MethodGet, "/api/agiles", listQuery("id,name"), nil, &boards); err != nil {
		return "", false, err
	}

	for _, board := range boards {
		if board.Name == name && board.ID != "" {
			return board.ID, true, nil
		}
	}
	return "", false, nil
}

// FindProjectID looks up a project by exact name.
func (c *Client) FindProjectID(ctx context.Context, name string) (string, bool, error) {
	var projects []domain.Project
	if _, err := c.do(ctx, http.MethodGet, "/api/admin/projects", listQuery("id,name"), nil, &projects); err != nil {
		return "", false, err
	}

	for _, project := range projects {
		if project.Name == name && project.ID != "" {
			return project.ID, true, nil
		}
	}
	return "", false, nil
}

// FindSprintID looks up a sprint by exact name on a board.
func (c *Client) FindSprintID(ctx context.Context, boardID, name string) (string, bool, error) {
	path := fmt.Sprintf("/api/agiles/%s/sprints", boardID)

	var sprints []domain.Sprint
	if _, err := c.do(ctx, http.MethodGet, path, listQuery("id,name"), nil, &sprints); err != nil {
		return "", false, err
	}

	for _, sprint := range sprints {
		if sprint.Name == name && sprint.ID != "" {
			return sprint.ID, true, nil
		}
	}
	return "", false, nil
}

// SprintExists reports whether a sprint with the given name exists on the board.
func (c *Client) SprintExists(ctx context.Context, boardID, name string) (bool, error) {
	_, found, err := c.FindSprintID(ctx, boardID, name)
	return found, err
}

// CreateSprint creates a new sprint on the board.
func (c *Client) CreateSprint(
	ctx context.Context,
	boardID string,
	draft domain.SprintDraft,
) (*domain.Sprint, error) {
	path := fmt.Sprintf("/api/agiles/%s/sprints", boardID)

	var sprint domain.Sprint
	if _, err := c.do(ctx, http.MethodPost, path, nil, draft, &sprint); err != nil {
		return nil, err
	}
	if sprint.ID == "" {
		return nil, fmt.Errorf("sprint create response from %s missing id", path)
	}
	return &sprint, nil
}

// GetProjectFields fetches the project's custom fields with bundle values.
func (c *Client) GetProjectFields(ctx context.Context, projectID string) ([]domain.ProjectField, error) {
	path := fmt.Sprintf("/api/admin/projects/%s/customFields", projectID)
	query := listQuery("id,field(id,name),bundle(id,values(id,name)),defaultValues(id,name)")

	var fields []domain.ProjectField
	if _, err := c.do(ctx, http.MethodGet, path, query, nil, &fields); err != nil {
		return nil, err
	}
	return fields, nil
}

// GetFieldDefaults fetches the field's name and current default values.
func (c *Client) GetFieldDefaults(
	ctx context.Context,
	projectID, fieldID string,
) (*domain.FieldDefaults, error) {
	path := fmt.Sprintf("/api/admin/projects/%s/customFields/%s", projectID, fieldID)
	query := url.Values{"fields": {"field(name),defaultValues(id,name)"}}

	var defaults domain.FieldDefaults
	if _, err := c.do(ctx, http.MethodGet, path, query, nil, &defaults); err != nil {
		return nil, err
	}
	return &defaults, nil
}

// GetCurrentDefaultIDs fetches the set of value IDs currently marked default
// for the field. Order is irrelevant to callers, membership is everything.
func (c *Client) GetCurrentDefaultIDs(
	ctx context.Context,
	projectID, fieldID string,
) (map[string]struct{}, error) {
	path := fmt.Sprintf("/api/admin/projects/%s/customFields/%s/defaultValues", projectID, fieldID)

	var values []domain.BundleValue
	if _, err := c.do(ctx, http.MethodGet, path, listQuery("id"), nil, &values); err != nil {
		return nil, err
	}

	ids := make(map[string]struct{}, len(values))
	for _, value := range values {
		if value.ID != "" {
			ids[value.ID] = struct{}{}
		}
	}
	return ids, nil
}

// AddDefaultValue marks a bundle value as a default for the field.
func (c *Client) AddDefaultValue(ctx context.Context, projectID, fieldID, valueID string) error {
	path := fmt.Sprintf("/api/admin/projects/%s/customFields/%s/defaultValues", projectID, fieldID)

	payload := map[string]string{
		"id":    valueID,
		"$type": "VersionBundleElement",
	}
	_, err := c.do(ctx, http.MethodPost, path, nil, payload, nil)
	return err
}

// RemoveDefaultValue unmarks a bundle value as a default for the field.
// A 404 means the value was already gone, reported via alreadyAbsent and
// treated as success since concurrent external edits cannot be excluded.
func (c *Client) RemoveDefaultValue(
	ctx context.Context,
	projectID, fieldID, valueID string,
) (alreadyAbsent bool, err error) {
	path := fmt.Sprintf(
		"/api/admin/projects/%s/customFields/%s/defaultValues/%s",
		projectID, fieldID, valueID,
	)

	status, err := c.do(ctx, http.MethodDelete, path, nil, nil, nil)
	if err != nil {
		if status == http.StatusNotFound {
			return true, nil
		}
		return false, err
	}
	return false, nil
}
