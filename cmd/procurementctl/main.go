package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"procurement/db"
	"procurement/db/migrations"
	"procurement/internal/auth"
	"procurement/internal/config"
	"procurement/internal/logger"
	"procurement/internal/service"
	"procurement/models"
)

const usage = `procurementctl manages the procurement database.

Usage:
  procurementctl migrate [up|down|status]
  procurementctl create-admin -email EMAIL -password PASSWORD -first-name NAME -last-name NAME
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	var err error
	switch os.Args[1] {
	case "migrate":
		err = runMigrate(os.Args[2:])
	case "create-admin":
		err = runCreateAdmin(os.Args[2:])
	case "-h", "-help", "--help", "help":
		fmt.Print(usage)
		return
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n%s", os.Args[1], usage)
		os.Exit(2)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func runMigrate(args []string) error {
	direction := "up"
	if len(args) > 0 {
		direction = args[0]
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	cfg, err := loadPostgresConfig()
	if err != nil {
		return err
	}
	conn, err := db.Open(ctx, db.Options{DSN: cfg.DB.DSN})
	if err != nil {
		return err
	}
	defer conn.Close()

	switch direction {
	case "up":
		return migrations.Up(ctx, conn.DB)
	case "down":
		return migrations.Down(ctx, conn.DB)
	case "status":
		return migrations.Status(ctx, conn.DB)
	default:
		return fmt.Errorf("unknown migrate direction %q", direction)
	}
}

func runCreateAdmin(args []string) error {
	fs := flag.NewFlagSet("create-admin", flag.ContinueOnError)
	var (
		email     = fs.String("email", "", "Administrator email")
		password  = fs.String("password", "", "Administrator password, at least 8 characters")
		firstName = fs.String("first-name", "", "First name")
		lastName  = fs.String("last-name", "", "Last name")
	)
	if err := fs.Parse(args); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	cfg, err := loadPostgresConfig()
	if err != nil {
		return err
	}
	log := logger.New(cfg.Environment, cfg.LogLevel)

	conn, err := db.Open(ctx, db.Options{DSN: cfg.DB.DSN})
	if err != nil {
		return err
	}
	defer conn.Close()

	tokens := auth.NewManager(cfg.Auth.Secret, cfg.Auth.ExpiresIn)
	user, err := service.NewAuthService(db.NewStorage(conn), tokens).CreateAdmin(ctx, models.CreateAdminRequest{
		Email:     *email,
		Password:  *password,
		FirstName: *firstName,
		LastName:  *lastName,
	})
	if err != nil {
		return err
	}
	log.Info().Int64("user_id", user.ID).Str("email", user.Email).Msg("administrator created")
	return nil
}

func loadPostgresConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if cfg.DB.Driver != config.DriverPostgres {
		return nil, fmt.Errorf("STORAGE_DRIVER is %q, procurementctl needs postgres", cfg.DB.Driver)
	}
	return cfg, nil
}
