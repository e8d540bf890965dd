package entityapi_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zatekoja/medbackoffice/internal/domain/entities"
	"github.com/zatekoja/medbackoffice/internal/infrastructure/clients/entityapi"
	apperrors "github.com/zatekoja/medbackoffice/pkg/errors"
)

func newResource(t *testing.T, handler http.HandlerFunc) *entityapi.Resource[entities.InternalCode] {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	client := entityapi.NewClient(entityapi.Config{BaseURL: server.URL + "/api/", Token: "tkn"})
	return entityapi.NewResource[entities.InternalCode](client, entities.TypeInternalCode)
}

func TestResource_List(t *testing.T) {
	resource := newResource(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/api/entities/InternalCode", r.URL.Path)
		assert.Equal(t, "-code_number", r.URL.Query().Get("sort"))
		assert.Equal(t, "Bearer tkn", r.Header.Get("Authorization"))
		assert.NotEmpty(t, r.Header.Get(entityapi.RequestIDHeader))
		_, _ = io.WriteString(w, `[{"id":"1","code_number":"A1","is_active":true},{"id":"2","code_number":"B2"}]`)
	})

	items, err := resource.List(context.Background(), "-code_number")
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "A1", items[0].CodeNumber)
	assert.True(t, items[0].IsActive)
}

func TestResource_ListEnvelopeAndEmpty(t *testing.T) {
	resource := newResource(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("sort") == "empty" {
			_, _ = io.WriteString(w, `null`)
			return
		}
		_, _ = io.WriteString(w, `{"data":[{"id":"9","code_number":"Z9"}]}`)
	})

	items, err := resource.List(context.Background(), "")
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "Z9", items[0].CodeNumber)

	items, err = resource.List(context.Background(), "empty")
	require.NoError(t, err)
	assert.NotNil(t, items)
	assert.Empty(t, items)
}

func TestResource_RateLimited(t *testing.T) {
	resource := newResource(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = io.WriteString(w, `{"message":"Rate limit exceeded"}`)
	})

	_, err := resource.List(context.Background(), "")
	require.Error(t, err)
	assert.True(t, apperrors.IsRateLimited(err))
	assert.True(t, apperrors.IsRetryable(err))
	assert.Contains(t, err.Error(), "Rate limit exceeded")
}

func TestResource_NetworkFailure(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	server.Close()
	client := entityapi.NewClient(entityapi.Config{BaseURL: server.URL})
	resource := entityapi.NewResource[entities.InternalCode](client, entities.TypeInternalCode)

	_, err := resource.List(context.Background(), "")
	require.Error(t, err)
	assert.True(t, apperrors.IsNetwork(err))
}

func TestResource_CreateUpdateDelete(t *testing.T) {
	var calls []string
	resource := newResource(t, func(w http.ResponseWriter, r *http.Request) {
		calls = append(calls, r.Method+" "+r.URL.Path)
		switch r.Method {
		case http.MethodPost:
			var body entities.InternalCode
			assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			body.ID = "new-id"
			_ = json.NewEncoder(w).Encode(body)
		case http.MethodPut:
			var body entities.InternalCode
			assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			body.ID = path.Base(r.URL.Path)
			_ = json.NewEncoder(w).Encode(body)
		case http.MethodDelete:
			w.WriteHeader(http.StatusNoContent)
		}
	})
	ctx := context.Background()

	created, err := resource.Create(ctx, entities.InternalCode{CodeNumber: "C3"})
	require.NoError(t, err)
	assert.Equal(t, "new-id", created.ID)

	_, err = resource.Update(ctx, "new-id", entities.InternalCode{CodeNumber: "C4"})
	require.NoError(t, err)

	require.NoError(t, resource.Delete(ctx, "new-id"))

	assert.Equal(t, []string{
		"POST /api/entities/InternalCode",
		"PUT /api/entities/InternalCode/new-id",
		"DELETE /api/entities/InternalCode/new-id",
	}, calls)
}

func TestResource_BulkDelete(t *testing.T) {
	var got []string
	resource := newResource(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/entities/InternalCode/bulk-delete", r.URL.Path)
		var body struct {
			IDs []string `json:"ids"`
		}
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		got = body.IDs
		w.WriteHeader(http.StatusNoContent)
	})

	require.NoError(t, resource.BulkDelete(context.Background(), []string{"1", "2"}))
	assert.Equal(t, []string{"1", "2"}, got)
}

func TestResource_ErrorMapping(t *testing.T) {
	resource := newResource(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = io.WriteString(w, `{"error":"code_number already exists"}`)
	})

	_, err := resource.Create(context.Background(), entities.InternalCode{CodeNumber: "dup"})
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrorTypeValidation, apperrors.TypeOf(err))
	assert.Contains(t, err.Error(), "code_number already exists")
	assert.False(t, apperrors.IsRetryable(err))
}

func TestResource_RequiresID(t *testing.T) {
	resource := newResource(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request expected")
	})

	assert.Error(t, resource.Delete(context.Background(), " "))
	_, err := resource.Update(context.Background(), "", entities.InternalCode{})
	assert.Error(t, err)
}
