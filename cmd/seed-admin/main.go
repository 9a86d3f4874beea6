// Command seed-admin creates or updates an operator account. Operator
// accounts are never managed through the API.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	_ "github.com/lib/pq"
	"golang.org/x/crypto/bcrypt"

	"github.com/novachain/admin-backend/internal/config"
	"github.com/novachain/admin-backend/internal/domain/admin"
	"github.com/novachain/admin-backend/internal/platform/migrations"
	"github.com/novachain/admin-backend/internal/storage/postgres"
	"github.com/novachain/admin-backend/pkg/logger"
)

func main() {
	var (
		email    = flag.String("email", "", "Operator email (required)")
		password = flag.String("password", "", "Operator password (required, min 6 chars)")
		role     = flag.String("role", string(admin.RoleSuperadmin), "Operator role: superadmin|support")
	)
	flag.Parse()

	log := logger.NewDefault("seed-admin")

	if *email == "" || *password == "" {
		flag.Usage()
		os.Exit(2)
	}
	if len(*password) < 6 {
		log.Error("password must be at least 6 characters")
		os.Exit(2)
	}
	r := admin.Role(*role)
	if !r.Valid() {
		log.WithField("role", *role).Error("unknown role")
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		log.WithError(err).Error("load configuration")
		os.Exit(1)
	}
	if cfg.Database.DSN == "" {
		log.Error("ADMIN_DATABASE_DSN is required")
		os.Exit(1)
	}

	ctx := context.Background()
	db, err := postgres.Connect(ctx, cfg.Database.DSN)
	if err != nil {
		log.WithError(err).Error("connect database")
		os.Exit(1)
	}
	defer db.Close()

	if err := migrations.Apply(ctx, db.DB); err != nil {
		log.WithError(err).Error("apply migrations")
		os.Exit(1)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(*password), bcrypt.DefaultCost)
	if err != nil {
		log.WithError(err).Error("hash password")
		os.Exit(1)
	}

	store := postgres.NewStore(db)
	if err := store.CreateAdmin(ctx, &admin.Admin{
		Email:        *email,
		PasswordHash: string(hash),
		Role:         r,
	}); err != nil {
		log.WithError(err).Error("create admin")
		os.Exit(1)
	}

	fmt.Printf("operator %s (%s) ready\n", *email, r)
}
