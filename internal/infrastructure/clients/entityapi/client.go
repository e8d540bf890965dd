package entityapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/zatekoja/medbackoffice/internal/domain/providers"
	"github.com/zatekoja/medbackoffice/internal/infrastructure/observability"
	apperrors "github.com/zatekoja/medbackoffice/pkg/errors"
)

// RequestIDHeader carries a per-request correlation id to the entity API.
const RequestIDHeader = "X-Request-ID"

// Config configures the entity API client
type Config struct {
	BaseURL string
	Token   string
	Timeout time.Duration
}

// Client talks to the external entity service over HTTP/JSON.
type Client struct {
	http *resty.Client
}

type errorBody struct {
	Message string `json:"message"`
	Error   string `json:"error"`
}

type bulkDeleteRequest struct {
	IDs []string `json:"ids"`
}

// NewClient creates a new entity API client. Retries are left to the caller so
// that the list backoff policy stays in one place.
func NewClient(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	httpClient := resty.New().
		SetBaseURL(strings.TrimRight(cfg.BaseURL, "/")).
		SetTimeout(timeout).
		SetRetryCount(0).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json").
		OnBeforeRequest(func(_ *resty.Client, req *resty.Request) error {
			if req.Header.Get(RequestIDHeader) == "" {
				req.SetHeader(RequestIDHeader, uuid.New().String())
			}
			return nil
		})
	if cfg.Token != "" {
		httpClient.SetAuthToken(cfg.Token)
	}

	return &Client{http: httpClient}
}

// Resource is the typed surface for one entity type, e.g. "MedicalCode".
type Resource[T any] struct {
	client     *Client
	entityType string
}

// NewResource binds the client to an entity type.
func NewResource[T any](client *Client, entityType string) *Resource[T] {
	return &Resource[T]{client: client, entityType: entityType}
}

var _ providers.EntityStore[struct{}] = (*Resource[struct{}])(nil)

// EntityType returns the entity type this resource addresses.
func (r *Resource[T]) EntityType() string {
	return r.entityType
}

// List fetches the whole collection. The API may answer with a bare array or
// with a {"data": [...]} envelope.
func (r *Resource[T]) List(ctx context.Context, sortSpec string) ([]T, error) {
	req := r.client.http.R().SetPathParam("type", r.entityType)
	if sortSpec != "" {
		req.SetQueryParam("sort", sortSpec)
	}

	body, err := r.client.do(ctx, r.entityType, "list", req, http.MethodGet, "/entities/{type}")
	if err != nil {
		return nil, err
	}

	items, err := decodeList[T](body)
	if err != nil {
		return nil, apperrors.NewExternalError(fmt.Sprintf("failed to decode %s list", r.entityType), err)
	}
	return items, nil
}

// Create persists a new record.
func (r *Resource[T]) Create(ctx context.Context, payload T) (T, error) {
	req := r.client.http.R().
		SetPathParam("type", r.entityType).
		SetBody(payload)
	return r.decodeOne(r.client.do(ctx, r.entityType, "create", req, http.MethodPost, "/entities/{type}"))
}

// Update replaces the record with the given id.
func (r *Resource[T]) Update(ctx context.Context, id string, payload T) (T, error) {
	var zero T
	if strings.TrimSpace(id) == "" {
		return zero, apperrors.NewValidationError("id is required for update")
	}
	req := r.client.http.R().
		SetPathParams(map[string]string{"type": r.entityType, "id": id}).
		SetBody(payload)
	return r.decodeOne(r.client.do(ctx, r.entityType, "update", req, http.MethodPut, "/entities/{type}/{id}"))
}

// Delete removes a single record.
func (r *Resource[T]) Delete(ctx context.Context, id string) error {
	if strings.TrimSpace(id) == "" {
		return apperrors.NewValidationError("id is required for delete")
	}
	req := r.client.http.R().SetPathParams(map[string]string{"type": r.entityType, "id": id})
	_, err := r.client.do(ctx, r.entityType, "delete", req, http.MethodDelete, "/entities/{type}/{id}")
	return err
}

// BulkDelete removes several records in one call.
func (r *Resource[T]) BulkDelete(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	req := r.client.http.R().
		SetPathParam("type", r.entityType).
		SetBody(bulkDeleteRequest{IDs: ids})
	_, err := r.client.do(ctx, r.entityType, "bulk_delete", req, http.MethodPost, "/entities/{type}/bulk-delete")
	return err
}

func (r *Resource[T]) decodeOne(body []byte, err error) (T, error) {
	var out T
	if err != nil {
		return out, err
	}
	if len(bytes.TrimSpace(body)) == 0 {
		return out, nil
	}
	if err := json.Unmarshal(body, &out); err != nil {
		return out, apperrors.NewExternalError(fmt.Sprintf("failed to decode %s record", r.entityType), err)
	}
	return out, nil
}

func (c *Client) do(ctx context.Context, entityType, operation string, req *resty.Request, method, path string) ([]byte, error) {
	ctx, span := observability.StartSpan(ctx, "entityapi."+operation,
		attribute.String("entity.type", entityType),
		attribute.String("http.method", method),
	)
	defer span.End()

	resp, err := req.SetContext(ctx).Execute(method, path)
	if err != nil {
		observability.RecordError(span, err)
		span.SetStatus(codes.Error, err.Error())
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, apperrors.NewNetworkError(fmt.Sprintf("%s %s request failed", entityType, operation), err)
	}

	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode()))
	if resp.IsError() {
		appErr := apperrors.FromStatus(resp.StatusCode(), errorMessage(entityType, operation, resp))
		span.SetStatus(codes.Error, appErr.Error())
		return nil, appErr
	}

	return resp.Body(), nil
}

func errorMessage(entityType, operation string, resp *resty.Response) string {
	var body errorBody
	if err := json.Unmarshal(resp.Body(), &body); err == nil {
		if body.Message != "" {
			return body.Message
		}
		if body.Error != "" {
			return body.Error
		}
	}
	return fmt.Sprintf("entity api %s %s returned status %d", entityType, operation, resp.StatusCode())
}

func decodeList[T any](body []byte) ([]T, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return []T{}, nil
	}

	if trimmed[0] == '{' {
		var envelope struct {
			Data []T `json:"data"`
		}
		if err := json.Unmarshal(trimmed, &envelope); err != nil {
			return nil, err
		}
		if envelope.Data == nil {
			return []T{}, nil
		}
		return envelope.Data, nil
	}

	var items []T
	if err := json.Unmarshal(trimmed, &items); err != nil {
		return nil, err
	}
	if items == nil {
		items = []T{}
	}
	return items, nil
}
