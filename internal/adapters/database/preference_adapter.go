package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres"

	"github.com/zatekoja/medbackoffice/internal/domain/providers"
	"github.com/zatekoja/medbackoffice/internal/infrastructure/clients/postgres"
	apperrors "github.com/zatekoja/medbackoffice/pkg/errors"
)

const preferencesTable = "view_preferences"

const preferencesSchema = `CREATE TABLE IF NOT EXISTS view_preferences (
	user_id    TEXT        NOT NULL,
	pref_key   TEXT        NOT NULL,
	value      TEXT        NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	PRIMARY KEY (user_id, pref_key)
)`

// PreferenceAdapter stores view preferences in Postgres.
type PreferenceAdapter struct {
	client *postgres.Client
	db     *goqu.Database
	now    func() time.Time
}

// NewPreferenceAdapter creates a new preference adapter.
func NewPreferenceAdapter(client *postgres.Client) *PreferenceAdapter {
	return &PreferenceAdapter{
		client: client,
		db:     goqu.New("postgres", client.DB()),
		now:    time.Now,
	}
}

// EnsureSchema creates the preferences table when it is missing.
func (a *PreferenceAdapter) EnsureSchema(ctx context.Context) error {
	if _, err := a.client.DB().ExecContext(ctx, preferencesSchema); err != nil {
		return apperrors.NewInternalError("failed to create view_preferences table", err)
	}
	return nil
}

// Get returns the stored value or providers.ErrPreferenceNotFound.
func (a *PreferenceAdapter) Get(ctx context.Context, userID, key string) (string, error) {
	query, args, err := a.db.From(preferencesTable).
		Select("value").
		Where(goqu.Ex{"user_id": userID, "pref_key": key}).
		Limit(1).
		ToSQL()
	if err != nil {
		return "", apperrors.NewInternalError("failed to build preference query", err)
	}

	var value string
	if err := a.client.DB().QueryRowContext(ctx, query, args...).Scan(&value); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", providers.ErrPreferenceNotFound
		}
		return "", apperrors.NewInternalError(fmt.Sprintf("failed to read preference %s", key), err)
	}
	return value, nil
}

// Set upserts the value.
func (a *PreferenceAdapter) Set(ctx context.Context, userID, key, value string) error {
	record := goqu.Record{
		"user_id":    userID,
		"pref_key":   key,
		"value":      value,
		"updated_at": a.now().UTC(),
	}
	query, args, err := a.db.Insert(preferencesTable).
		Rows(record).
		OnConflict(goqu.DoUpdate("user_id, pref_key", goqu.Record{
			"value":      goqu.L("EXCLUDED.value"),
			"updated_at": goqu.L("EXCLUDED.updated_at"),
		})).
		ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build preference upsert", err)
	}

	if _, err := a.client.DB().ExecContext(ctx, query, args...); err != nil {
		return apperrors.NewInternalError(fmt.Sprintf("failed to save preference %s", key), err)
	}
	return nil
}

// Delete removes the value; deleting a missing key is not an error.
func (a *PreferenceAdapter) Delete(ctx context.Context, userID, key string) error {
	query, args, err := a.db.Delete(preferencesTable).
		Where(goqu.Ex{"user_id": userID, "pref_key": key}).
		ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build preference delete", err)
	}

	if _, err := a.client.DB().ExecContext(ctx, query, args...); err != nil {
		return apperrors.NewInternalError(fmt.Sprintf("failed to delete preference %s", key), err)
	}
	return nil
}

var _ providers.PreferenceStore = (*PreferenceAdapter)(nil)
