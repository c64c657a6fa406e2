package main

import (
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/joho/godotenv"
)

func main() {
	var (
		migrationsPath string
		databaseURL    string
		command        string
		steps          int
	)

	flag.StringVar(&migrationsPath, "path", "./migrations", "Path to migrations directory")
	flag.StringVar(&databaseURL, "database-url", "", "Database connection URL")
	flag.StringVar(&command, "command", "up", "Migration command: up, down, force, version, drop")
	flag.IntVar(&steps, "steps", 0, "Number of steps for up/down (0 = all)")
	flag.Parse()

	// A missing .env is fine; env vars win either way.
	_ = godotenv.Load()

	if databaseURL == "" {
		databaseURL = resolveDatabaseURL()
	}

	args := flag.Args()
	if len(args) > 0 {
		command = args[0]
	}
	if len(args) > 1 && (command == "up" || command == "down") {
		parsed, err := strconv.Atoi(args[1])
		if err != nil {
			log.Fatalf("invalid steps argument: %v", err)
		}
		steps = parsed
	}

	m, err := migrate.New("file://"+migrationsPath, databaseURL)
	if err != nil {
		log.Fatalf("failed to create migrate instance: %v", err)
	}
	defer m.Close()
	m.Log = verboseLogger{}

	if err := run(m, command, steps, args); err != nil {
		log.Fatal(err)
	}
}

// resolveDatabaseURL assembles the connection URL from DATABASE_URL or the
// WALLETPAY_DATABASE_* variables the service itself reads.
func resolveDatabaseURL() string {
	if url := os.Getenv("DATABASE_URL"); url != "" {
		return url
	}

	host := envOr("WALLETPAY_DATABASE_HOST", "localhost")
	port := envOr("WALLETPAY_DATABASE_PORT", "5432")
	user := envOr("WALLETPAY_DATABASE_USER", "postgres")
	password := envOr("WALLETPAY_DATABASE_PASSWORD", "postgres")
	dbname := envOr("WALLETPAY_DATABASE_DATABASE", "walletpay")
	sslmode := envOr("WALLETPAY_DATABASE_SSL_MODE", "disable")

	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		user, password, host, port, dbname, sslmode)
}

func run(m *migrate.Migrate, command string, steps int, args []string) error {
	switch command {
	case "up":
		if err := applySteps(m, steps, m.Up); err != nil {
			return fmt.Errorf("migration up failed: %w", err)
		}
		fmt.Println("Migrations applied successfully")

	case "down":
		if err := applySteps(m, -steps, m.Down); err != nil {
			return fmt.Errorf("migration down failed: %w", err)
		}
		fmt.Println("Migrations rolled back successfully")

	case "force":
		if len(args) < 2 {
			return errors.New("force requires a version argument")
		}
		version, err := strconv.Atoi(args[1])
		if err != nil {
			return fmt.Errorf("invalid version: %w", err)
		}
		if err := m.Force(version); err != nil {
			return fmt.Errorf("force failed: %w", err)
		}
		fmt.Printf("Forced version to %d\n", version)

	case "version":
		version, dirty, err := m.Version()
		switch {
		case errors.Is(err, migrate.ErrNilVersion):
			fmt.Println("No migrations applied yet")
		case err != nil:
			return fmt.Errorf("failed to get version: %w", err)
		default:
			fmt.Printf("Current version: %d (dirty: %v)\n", version, dirty)
		}

	case "drop":
		if err := m.Drop(); err != nil {
			return fmt.Errorf("drop failed: %w", err)
		}
		fmt.Println("All tables dropped successfully")

	case "create":
		if len(args) < 2 {
			return errors.New("create requires a migration name")
		}
		fmt.Printf("Creating migration: %s\n", args[1])
		fmt.Println("Please create files manually:")
		fmt.Printf("  migrations/XXXXXX_%s.up.sql\n", args[1])
		fmt.Printf("  migrations/XXXXXX_%s.down.sql\n", args[1])

	default:
		return fmt.Errorf("unknown command: %s\navailable commands: up, down, force, version, drop, create", command)
	}

	return nil
}

// applySteps migrates by the given number of steps (negative rolls back),
// or runs `all` when steps is zero. ErrNoChange is not an error.
func applySteps(m *migrate.Migrate, steps int, all func() error) error {
	var err error
	if steps != 0 {
		err = m.Steps(steps)
	} else {
		err = all()
	}
	if err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return err
	}
	return nil
}

func envOr(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

type verboseLogger struct{}

func (verboseLogger) Printf(format string, v ...any) { log.Printf(format, v...) }

func (verboseLogger) Verbose() bool { return true }
