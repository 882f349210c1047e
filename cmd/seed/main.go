package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"

	"github.com/avolkov/proxdeck/internal/apperrors"
	"github.com/avolkov/proxdeck/internal/db"
	"github.com/avolkov/proxdeck/internal/repository"
	"github.com/avolkov/proxdeck/internal/repository/postgres"
	"github.com/avolkov/proxdeck/internal/service/auth"
)

// Default dev credentials to avoid leaking personal data
const (
	defaultUsername = "admin"
	defaultPassword = "admin123"
)

// Seed creates the initial admin user so a fresh deployment has someone
// to log in as. Safe to run twice: an existing admin is left untouched
func main() {
	_ = godotenv.Load()

	dsn := os.Getenv("DATABASE_URL")
	password := defaultPassword

	fs := pflag.NewFlagSet("seed", pflag.ExitOnError)
	fs.StringVarP(&dsn, "database", "d", dsn, "Database connection string")
	fs.StringVarP(&password, "password", "p", password, "Admin password to set")
	_ = fs.Parse(os.Args[1:])

	if err := run(context.Background(), dsn, password); err != nil {
		fmt.Fprintf(os.Stderr, "seeding failed: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, dsn string, password string) error {
	pool, err := db.ConnectAndMigrate(ctx, dsn)
	if err != nil {
		return fmt.Errorf("error while connecting to db. Err: %w", err)
	}
	defer pool.Close()

	hash, err := auth.BcryptHasher{}.Hash(password)
	if err != nil {
		return fmt.Errorf("error while hashing password. Err: %w", err)
	}

	storage := postgres.NewStorage(pool)
	user, err := storage.User().CreateUser(ctx, repository.CreateUserParams{
		Username:       defaultUsername,
		HashedPassword: hash,
		Name:           "Admin User",
		Role:           "admin",
	})

	switch {
	case err == nil:
		fmt.Printf("admin user created\n  username: %s\n  password: %s\n  role: %s\n", user.Username, password, user.Role)
		return nil
	case errors.Is(err, apperrors.ErrUserAlreadyExists):
		fmt.Println("admin user exists already, nothing to do")
		return nil
	default:
		return err
	}
}
