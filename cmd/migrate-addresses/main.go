// Command migrate-addresses moves the legacy free-text city and address of
// doctors and providers into Address records referenced by address_id.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"

	"github.com/zatekoja/medbackoffice/internal/domain/entities"
	"github.com/zatekoja/medbackoffice/internal/infrastructure/clients/entityapi"
	"github.com/zatekoja/medbackoffice/internal/infrastructure/observability"
	"github.com/zatekoja/medbackoffice/internal/migration"
	"github.com/zatekoja/medbackoffice/pkg/config"
)

func main() {
	dryRun := flag.Bool("dry-run", false, "report what would change without writing")
	flag.Parse()

	if _, err := config.LoadEnv(".env", ".env.local"); err != nil {
		fmt.Fprintf(os.Stderr, "failed to load .env files: %v\n", err)
		os.Exit(1)
	}
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	observability.InitLogger(cfg.OTEL.ServiceName+"-migrate", cfg.App.Env, cfg.App.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	client := entityapi.NewClient(entityapi.Config{
		BaseURL: cfg.EntityAPI.BaseURL,
		Token:   cfg.EntityAPI.Token,
		Timeout: cfg.EntityAPI.Timeout,
	})
	migrator := migration.NewAddressMigrator(
		entityapi.NewResource[entities.Address](client, entities.TypeAddress),
		entityapi.NewResource[entities.Doctor](client, entities.TypeDoctor),
		entityapi.NewResource[entities.Provider](client, entities.TypeProvider),
		*dryRun,
	)

	report, err := migrator.Run(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("address migration aborted")
	}

	out, _ := json.MarshalIndent(report, "", "  ")
	fmt.Println(string(out))
	if report.Doctors.Failed+report.Providers.Failed > 0 {
		os.Exit(2)
	}
}
