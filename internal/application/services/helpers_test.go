package services_test

import (
	"context"
	"testing"
	"time"

	"github.com/zatekoja/medbackoffice/internal/adapters/database"
	"github.com/zatekoja/medbackoffice/internal/application/services"
	"github.com/zatekoja/medbackoffice/internal/domain/entities"
	"github.com/zatekoja/medbackoffice/internal/infrastructure/clients/entityapi/entityapitest"
	"github.com/zatekoja/medbackoffice/pkg/retry"
)

type harness struct {
	api      *entityapitest.Server
	prefs    *database.MemoryPreferenceStore
	hub      *services.CacheInvalidationService
	sessions *services.SessionService
}

func instantRetry() *retry.Config {
	cfg := retry.DefaultConfig()
	cfg.Sleep = func(context.Context, time.Duration) error { return nil }
	return &cfg
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	api := entityapitest.NewServer(t)
	prefs := database.NewMemoryPreferenceStore()
	hub := services.NewCacheInvalidationService(nil)

	sessions := services.NewSessionService(
		services.NewTabFactory(api.EntityClient()),
		services.NewPreferenceService(prefs),
		services.TabDeps{Retry: instantRetry()},
		hub,
		time.Hour,
		10,
	)
	hub.Register(sessions.HandleChange)
	t.Cleanup(hub.Stop)

	return &harness{api: api, prefs: prefs, hub: hub, sessions: sessions}
}

func seedInternalCodes(api *entityapitest.Server) {
	api.Seed(entities.TypeInternalCode,
		entities.InternalCode{ID: "ic-1", CodeNumber: "A100", DescriptionEn: "Consultation", IsActive: true, IsBillable: true},
		entities.InternalCode{ID: "ic-2", CodeNumber: "B200", DescriptionEn: "X-ray", IsActive: false},
		entities.InternalCode{ID: "ic-3", CodeNumber: "C300", DescriptionHe: "בדיקה", IsActive: true},
	)
}
