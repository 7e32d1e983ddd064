package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/nyumbani/rentmatch/internal/api"
	"github.com/nyumbani/rentmatch/internal/config"
	"github.com/nyumbani/rentmatch/internal/confirmation"
	"github.com/nyumbani/rentmatch/internal/domain"
	"github.com/nyumbani/rentmatch/internal/ingestion"
	"github.com/nyumbani/rentmatch/internal/matching"
	"github.com/nyumbani/rentmatch/internal/repository"
	"github.com/nyumbani/rentmatch/internal/statement"
)

func main() {
	logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	cfg := config.Load(".env")

	logrus.WithField("path", cfg.Database.Path).Info("initializing database")
	db, err := repository.InitDB(cfg.Database.Path)
	if err != nil {
		logrus.WithError(err).Fatal("failed to init db")
	}
	defer db.Close()

	// Repositories.
	tenantRepo := repository.NewTenantRepo(db)
	paymentRepo := repository.NewPaymentRepo(db)
	uploadRepo := repository.NewUploadRepo(db)

	// Engine.
	parser := statement.NewParser(cfg.DelimiterRune())
	scorer := matching.NewScorer(matching.Settings{
		CountryPrefix:   cfg.Matching.CountryPrefix,
		AmountTolerance: decimal.NewFromInt(int64(cfg.Matching.AmountTolerance)),
	})
	resolver := matching.NewResolver(scorer, cfg.Matching.MinScore)
	gate := confirmation.NewGate(paymentRepo)
	ingestionSvc := ingestion.NewService(parser, resolver, tenantRepo, uploadRepo)

	// Seed the tenant directory if it is empty.
	count, err := tenantRepo.Count()
	if err != nil {
		logrus.WithError(err).Fatal("failed to count tenants")
	}
	if count == 0 {
		logrus.Info("tenant directory is empty, seeding from testdata")
		if err := seedTenants(tenantRepo); err != nil {
			logrus.WithError(err).Warn("failed to seed tenants")
		}
	} else {
		logrus.WithField("tenants", count).Info("tenant directory loaded")
	}

	router := api.NewRouter(ingestionSvc, gate, paymentRepo, tenantRepo, uploadRepo)

	logrus.Info("Rentmatch Mobile-Money Rent Reconciler")
	logrus.Infof("Listening on http://localhost:%d", cfg.Server.Port)
	logrus.Infof("API base: http://localhost:%d/api/v1", cfg.Server.Port)
	logrus.Info("Endpoints:")
	logrus.Info("  POST   /api/v1/statements/ingest")
	logrus.Info("  GET    /api/v1/runs/{id}")
	logrus.Info("  POST   /api/v1/runs/{id}/matches/{receiptID}/override")
	logrus.Info("  POST   /api/v1/runs/{id}/matches/{receiptID}/confirm")
	logrus.Info("  GET    /api/v1/payments")
	logrus.Info("  GET    /api/v1/tenants")
	logrus.Info("  GET    /api/v1/uploads")
	logrus.Info("  GET    /api/v1/dashboard")

	if err := http.ListenAndServe(fmt.Sprintf(":%d", cfg.Server.Port), router); err != nil {
		logrus.WithError(err).Fatal("server failed")
	}
}

func seedTenants(repo *repository.TenantRepo) error {
	// Try multiple possible locations for testdata.
	candidates := []string{
		"testdata/tenants.json",
		filepath.Join(".", "testdata", "tenants.json"),
	}

	if exe, err := os.Executable(); err == nil {
		dir := filepath.Dir(exe)
		candidates = append(candidates,
			filepath.Join(dir, "testdata", "tenants.json"),
			filepath.Join(dir, "..", "..", "testdata", "tenants.json"),
		)
	}

	var data []byte
	var loadErr error
	for _, path := range candidates {
		data, loadErr = os.ReadFile(path)
		if loadErr == nil {
			logrus.WithField("path", path).Info("loaded tenant directory")
			break
		}
	}
	if loadErr != nil {
		return fmt.Errorf("could not find tenants.json in any candidate path: %w", loadErr)
	}

	var tenants []domain.TenantCandidate
	if err := json.Unmarshal(data, &tenants); err != nil {
		return fmt.Errorf("unmarshal tenants: %w", err)
	}

	inserted, err := repo.BulkInsert(tenants)
	if err != nil {
		return fmt.Errorf("bulk insert: %w", err)
	}

	logrus.WithFields(logrus.Fields{"inserted": inserted, "in_file": len(tenants)}).Info("seeded tenants")
	return nil
}
