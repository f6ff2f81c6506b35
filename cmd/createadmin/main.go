// Command createadmin provisions an administrative account. The account
// is active immediately; no activation code is issued.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/newsline/accounts-service/internal/infra/config"
	"github.com/newsline/accounts-service/internal/infra/database"
	"github.com/newsline/accounts-service/internal/infra/logger"
	"github.com/newsline/accounts-service/internal/infra/security"
	pgrepo "github.com/newsline/accounts-service/internal/repository/postgres"
	"github.com/newsline/accounts-service/internal/usecase"
)

func main() {
	email := flag.String("email", "", "admin email address")
	firstName := flag.String("first-name", "Admin", "admin first name")
	lastName := flag.String("last-name", "", "admin last name")
	flag.Parse()

	if *email == "" {
		log.Fatal("usage: createadmin -email admin@example.com [-first-name ...] [-last-name ...]")
	}

	password := os.Getenv("ACCOUNTS_ADMIN_PASSWORD")
	if password == "" {
		log.Fatal("ACCOUNTS_ADMIN_PASSWORD must be set")
	}

	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	lg, err := logger.New(cfg.App.Env)
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}
	defer func() { _ = lg.Sync() }()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if cfg.Postgres.Migrate {
		if err := database.RunMigrations(ctx, cfg.Postgres, lg); err != nil {
			log.Fatalf("run migrations: %v", err)
		}
	}

	pool, err := database.NewPostgresPool(ctx, cfg.Postgres, lg)
	if err != nil {
		log.Fatalf("connect postgres: %v", err)
	}
	defer pool.Close()

	repos := pgrepo.NewRepositories(pool)

	registration := usecase.NewRegistrationService(
		repos.Users, repos.ActivationCodes, nil,
		security.NewPasswordHasher(security.DefaultArgon2Params()),
		security.NewPasswordValidator(),
		security.GenerateActivationCode,
		time.Second,
	)

	user, err := registration.CreateSuperuser(ctx, usecase.RegisterInput{
		Email:           *email,
		FirstName:       *firstName,
		LastName:        *lastName,
		Password:        password,
		PasswordConfirm: password,
	})
	if err != nil {
		log.Fatalf("create admin: %v", err)
	}

	fmt.Printf("admin account created: %s (%s)\n", user.Email, user.ID)
}
