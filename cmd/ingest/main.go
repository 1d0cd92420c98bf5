// backend-go/cmd/ingest/main.go
package main

import (
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/gorilla/mux"
	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"

	"github.com/demandcast/backend-go/internal/config"
	"github.com/demandcast/backend-go/internal/ingest"
	"github.com/demandcast/backend-go/internal/repository/postgres"
	"github.com/demandcast/backend-go/internal/storage"
	"github.com/demandcast/backend-go/pkg/logger"
)

func newDBURLFlag() *cli.StringFlag {
	return &cli.StringFlag{
		Name:     "db-url",
		Usage:    "Database connection string",
		Required: true,
		EnvVars:  []string{"DATABASE_URL"},
	}
}

// buildService wires storage and repositories for one CLI invocation. The
// returned closer releases the database pool.
func buildService(c *cli.Context) (*ingest.Service, func() error, error) {
	cfg := config.Load()

	db, err := postgres.NewDBFromURL(c.String("db-url"))
	if err != nil {
		return nil, nil, err
	}

	store, err := storage.NewMinioClient(cfg.Storage)
	if err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("build storage client: %w", err)
	}

	svc := ingest.NewService(
		store,
		postgres.NewOrderRepository(db),
		postgres.NewCatalogRepository(db),
		postgres.NewIngestLogRepository(db),
		cfg.Storage.Prefix,
	)
	return svc, db.Close, nil
}

func runOnce(c *cli.Context) error {
	svc, closeDB, err := buildService(c)
	if err != nil {
		return err
	}
	defer closeDB()

	count, err := svc.Run(c.Context)
	if err != nil {
		return fmt.Errorf("ingestion run failed: %w", err)
	}

	logger.Log.Info().Int("objects", count).Msg("ingestion run complete")
	return nil
}

func runWatch(c *cli.Context) error {
	svc, closeDB, err := buildService(c)
	if err != nil {
		return err
	}
	defer closeDB()

	interval := time.Duration(c.Int("interval-seconds")) * time.Second
	ingest.NewWatcher(svc, interval).Start(c.Context)
	return nil
}

func runServe(c *cli.Context) error {
	svc, closeDB, err := buildService(c)
	if err != nil {
		return err
	}
	defer closeDB()

	router := mux.NewRouter()
	ingest.NewHandler(svc).RegisterRoutes(router)

	addr := ":" + c.String("port")
	logger.Log.Info().Str("addr", addr).Msg("ingest webhook server listening")
	return http.ListenAndServe(addr, router)
}

func main() {
	if err := godotenv.Load(".env"); err != nil {
		logger.Log.Debug().Err(err).Msg("no .env file loaded")
	}

	app := &cli.App{
		Name:  "ingest",
		Usage: "Ingest order CSV files from object storage",
		Commands: []*cli.Command{
			{
				Name:   "run",
				Usage:  "Ingest all unprocessed objects once and exit",
				Flags:  []cli.Flag{newDBURLFlag()},
				Action: runOnce,
			},
			{
				Name:  "watch",
				Usage: "Poll object storage and ingest new objects continuously",
				Flags: []cli.Flag{
					newDBURLFlag(),
					&cli.IntFlag{
						Name:    "interval-seconds",
						Usage:   "Polling interval in seconds",
						Value:   300,
						EnvVars: []string{"INGEST_INTERVAL_SECONDS"},
					},
				},
				Action: runWatch,
			},
			{
				Name:  "serve",
				Usage: "Serve the ingestion webhook endpoint",
				Flags: []cli.Flag{
					newDBURLFlag(),
					&cli.StringFlag{
						Name:    "port",
						Usage:   "HTTP port for the webhook server",
						Value:   "8090",
						EnvVars: []string{"INGEST_PORT"},
					},
				},
				Action: runServe,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		logger.Log.Fatal().Err(err).Msg("ingest command failed")
	}
}
