package youtrack

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phrazzld/sprintsync/internal/domain"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewClient(server.URL, "perm:test-token")
}

func TestFindBoardID(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/agiles", r.URL.Path)
		assert.Equal(t, "Bearer perm:test-token", r.Header.Get("Authorization"))
		assert.Equal(t, "id,name", r.URL.Query().Get("fields"))
		assert.Equal(t, "1000", r.URL.Query().Get("$top"))

		_ = json.NewEncoder(w).Encode([]domain.Board{
			{ID: "100-1", Name: "Other Board"},
			{ID: "100-2", Name: "Team Board"},
		})
	})

	id, found, err := client.FindBoardID(context.Background(), "Team Board")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "100-2", id)
}

func TestFindBoardIDAbsent(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode([]domain.Board{{ID: "100-1", Name: "Other Board"}})
	})

	id, found, err := client.FindBoardID(context.Background(), "Missing Board")
	require.NoError(t, err)
	assert.False(t, found)
	assert.Empty(t, id)
}

func TestFindSprintID(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/agiles/100-2/sprints", r.URL.Path)
		_ = json.NewEncoder(w).Encode([]domain.Sprint{
			{ID: "101-5", Name: "2025.29 Sprint"},
			{ID: "101-6", Name: "2025.30 Sprint"},
		})
	})

	id, found, err := client.FindSprintID(context.Background(), "100-2", "2025.30 Sprint")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "101-6", id)
}

func TestCreateSprint(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/agiles/100-2/sprints", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var draft domain.SprintDraft
		require.NoError(t, json.NewDecoder(r.Body).Decode(&draft))
		assert.Equal(t, "2025.30 Sprint", draft.Name)
		assert.Equal(t, int64(1753056000000), draft.Start)

		_ = json.NewEncoder(w).Encode(domain.Sprint{
			ID:     "101-7",
			Name:   draft.Name,
			Start:  draft.Start,
			Finish: draft.Finish,
		})
	})

	sprint, err := client.CreateSprint(context.Background(), "100-2", domain.SprintDraft{
		Name:   "2025.30 Sprint",
		Start:  1753056000000,
		Finish: 1753487999999,
	})
	require.NoError(t, err)
	assert.Equal(t, "101-7", sprint.ID)
	assert.Equal(t, "2025.30 Sprint", sprint.Name)
}

func TestCreateSprintMissingID(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"name":"2025.30 Sprint"}`))
	})

	sprint, err := client.CreateSprint(context.Background(), "100-2", domain.SprintDraft{Name: "2025.30 Sprint"})
	require.Error(t, err)
	assert.Nil(t, sprint)
	assert.Contains(t, err.Error(), "missing id")
}

func TestGetProjectFields(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/admin/projects/0-1/customFields", r.URL.Path)
		assert.Equal(
			t,
			"id,field(id,name),bundle(id,values(id,name)),defaultValues(id,name)",
			r.URL.Query().Get("fields"),
		)

		_ = json.NewEncoder(w).Encode([]domain.ProjectField{
			{
				ID:    "110-3",
				Field: domain.FieldInfo{ID: "55-2", Name: "Sprints"},
				Bundle: domain.Bundle{
					ID: "77-1",
					Values: []domain.BundleValue{
						{ID: "120-1", Name: "2025.29 Sprint"},
						{ID: "120-2", Name: "2025.30 Sprint"},
					},
				},
			},
		})
	})

	fields, err := client.GetProjectFields(context.Background(), "0-1")
	require.NoError(t, err)
	require.Len(t, fields, 1)
	assert.Equal(t, "Sprints", fields[0].Field.Name)
	assert.Len(t, fields[0].Bundle.Values, 2)
}

func TestGetCurrentDefaultIDs(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/admin/projects/0-1/customFields/110-3/defaultValues", r.URL.Path)
		_ = json.NewEncoder(w).Encode([]domain.BundleValue{
			{ID: "120-1"},
			{ID: "120-2"},
		})
	})

	ids, err := client.GetCurrentDefaultIDs(context.Background(), "0-1", "110-3")
	require.NoError(t, err)
	assert.Equal(t, map[string]struct{}{"120-1": {}, "120-2": {}}, ids)
}

func TestAddDefaultValue(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/admin/projects/0-1/customFields/110-3/defaultValues", r.URL.Path)

		var payload map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		assert.Equal(t, "120-2", payload["id"])
		assert.Equal(t, "VersionBundleElement", payload["$type"])

		_, _ = w.Write([]byte(`{}`))
	})

	err := client.AddDefaultValue(context.Background(), "0-1", "110-3", "120-2")
	require.NoError(t, err)
}

func TestRemoveDefaultValue(t *testing.T) {
	tests := []struct {
		name              string
		status            int
		wantAlreadyAbsent bool
		expectError       bool
	}{
		{name: "removed", status: http.StatusOK, wantAlreadyAbsent: false},
		{name: "removed no content", status: http.StatusNoContent, wantAlreadyAbsent: false},
		{name: "already gone is success", status: http.StatusNotFound, wantAlreadyAbsent: true},
		{name: "server error", status: http.StatusInternalServerError, expectError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, http.MethodDelete, r.Method)
				assert.Equal(
					t,
					"/api/admin/projects/0-1/customFields/110-3/defaultValues/120-1",
					r.URL.Path,
				)
				w.WriteHeader(tt.status)
			})

			alreadyAbsent, err := client.RemoveDefaultValue(context.Background(), "0-1", "110-3", "120-1")

			if tt.expectError {
				require.Error(t, err)
				var apiErr *APIError
				require.ErrorAs(t, err, &apiErr)
				assert.Equal(t, tt.status, apiErr.Status)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.wantAlreadyAbsent, alreadyAbsent)
		})
	}
}

func TestAPIErrorSurfaced(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":"Unauthorized"}`))
	})

	_, _, err := client.FindBoardID(context.Background(), "Board")
	require.Error(t, err)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnauthorized, apiErr.Status)
	assert.Equal(t, "/api/agiles", apiErr.Path)
	assert.Contains(t, apiErr.Body, "Unauthorized")
}

func TestContextCancellation(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, _, err := client.FindBoardID(ctx, "Board")
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestBaseURLTrailingSlash(t *testing.T) {
	var gotPath string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		_, _ = w.Write([]byte(`[]`))
	}))
	t.Cleanup(server.Close)

	client := NewClient(server.URL+"/", "perm:test-token")
	_, _, err := client.FindBoardID(context.Background(), "Board")
	require.NoError(t, err)
	assert.Equal(t, "/api/agiles", gotPath)
}
