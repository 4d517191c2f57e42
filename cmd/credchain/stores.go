package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	authmodels "credchain/internal/auth/models"
	authservice "credchain/internal/auth/service"
	accountstore "credchain/internal/auth/store/account"
	refreshstore "credchain/internal/auth/store/refresh-token"
	certmodels "credchain/internal/certificate/models"
	certservice "credchain/internal/certificate/service"
	certstore "credchain/internal/certificate/store/certificate"
	studentstore "credchain/internal/certificate/store/student"
	instservice "credchain/internal/institution/service"
	inststore "credchain/internal/institution/store"
	"credchain/internal/platform/config"
	"credchain/internal/platform/postgres"
	"credchain/internal/platform/redis"
	vtservice "credchain/internal/verifytoken/service"
	vtstore "credchain/internal/verifytoken/store"
	audit "credchain/pkg/platform/audit"
	auditmemory "credchain/pkg/platform/audit/store/memory"
	auditpostgres "credchain/pkg/platform/audit/store/postgres"
)

type accountStore interface {
	authservice.AccountStore
	Create(ctx context.Context, account *authmodels.Account) error
}

type studentStore interface {
	certservice.StudentStore
	Create(ctx context.Context, student *certmodels.Student) error
}

// stores holds one backend per record type. Postgres backs everything
// relational when a database URL is configured; Redis backs verification
// tokens when a Redis URL is configured.
type stores struct {
	db           *sql.DB
	redis        *redis.Client
	accounts     accountStore
	refresh      authservice.RefreshTokenStore
	students     studentStore
	institutions instservice.Store
	certificates certservice.CertificateStore
	tokens       vtservice.Store
	audit        audit.Store
	outbox       *auditpostgres.Store
}

func openStores(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*stores, error) {
	s := &stores{}
	if cfg.Database.URL == "" {
		logger.WarnContext(ctx, "no database configured, using in-memory stores")
		s.accounts = accountstore.NewInMemory()
		s.refresh = refreshstore.New()
		s.students = studentstore.NewInMemory()
		s.institutions = inststore.NewInMemory()
		s.certificates = certstore.NewInMemory()
		s.audit = auditmemory.NewInMemoryStore()
	} else {
		db, err := postgres.Open(ctx, cfg.Database, logger)
		if err != nil {
			return nil, err
		}
		s.db = db
		s.accounts = accountstore.NewPostgres(db)
		s.refresh = refreshstore.NewPostgres(db)
		s.students = studentstore.NewPostgres(db)
		s.institutions = inststore.NewPostgres(db)
		s.certificates = certstore.NewPostgres(db)
		s.outbox = auditpostgres.New(db)
		s.audit = s.outbox
	}

	rc, err := redis.New(ctx, cfg.Redis)
	if err != nil {
		s.close()
		return nil, fmt.Errorf("connect redis: %w", err)
	}
	if rc == nil {
		s.tokens = vtstore.NewInMemory()
	} else {
		s.redis = rc
		s.tokens = vtstore.NewRedis(rc.Client, vtstore.WithRetention(cfg.Verification.Retention))
	}
	return s, nil
}

func (s *stores) close() {
	if s.redis != nil {
		_ = s.redis.Close()
	}
	if s.db != nil {
		_ = s.db.Close()
	}
}
