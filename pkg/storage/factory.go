package storage

import (
	"fmt"
	"io"

	"github.com/absmach/fedkit/pkg/storage/badger"
	"github.com/absmach/fedkit/pkg/storage/postgres"
	"github.com/absmach/fedkit/pkg/storage/sqlite"
)

type Config struct {
	Type string `env:"STORAGE_TYPE" envDefault:"memory"`

	PostgresHost    string `env:"POSTGRES_HOST"    envDefault:"localhost"`
	PostgresPort    string `env:"POSTGRES_PORT"    envDefault:"5432"`
	PostgresUser    string `env:"POSTGRES_USER"    envDefault:"fedkit"`
	PostgresPass    string `env:"POSTGRES_PASS"    envDefault:"fedkit"`
	PostgresDB      string `env:"POSTGRES_DB"      envDefault:"fedkit"`
	PostgresSSLMode string `env:"POSTGRES_SSLMODE" envDefault:"disable"`

	SQLitePath string `env:"SQLITE_PATH" envDefault:"./fedkit.db"`

	BadgerPath string `env:"BADGER_PATH" envDefault:"./data/badger"`
}

type Repositories struct {
	Models   ModelRepository
	Sessions SessionRepository
	// Closer closes the underlying persistent storage connection.
	// It is nil for the in-memory backend.
	Closer io.Closer
}

func NewRepositories(cfg Config) (*Repositories, error) {
	switch cfg.Type {
	case "postgres":
		return newPostgresRepositories(cfg)
	case "sqlite":
		return newSQLiteRepositories(cfg)
	case "badger":
		return newBadgerRepositories(cfg)
	case "memory":
		return NewMemoryRepositories(), nil
	default:
		return nil, fmt.Errorf("unsupported storage type: %s", cfg.Type)
	}
}

func newPostgresRepositories(cfg Config) (*Repositories, error) {
	db, err := postgres.NewDatabase(
		cfg.PostgresHost,
		cfg.PostgresPort,
		cfg.PostgresUser,
		cfg.PostgresPass,
		cfg.PostgresDB,
		cfg.PostgresSSLMode,
	)
	if err != nil {
		return nil, err
	}

	repos := postgres.NewRepositories(db)

	return &Repositories{
		Models:   repos.Models,
		Sessions: repos.Sessions,
		Closer:   db,
	}, nil
}

func newSQLiteRepositories(cfg Config) (*Repositories, error) {
	db, err := sqlite.NewDatabase(cfg.SQLitePath)
	if err != nil {
		return nil, err
	}

	repos := sqlite.NewRepositories(db)

	return &Repositories{
		Models:   repos.Models,
		Sessions: repos.Sessions,
		Closer:   db,
	}, nil
}

func newBadgerRepositories(cfg Config) (*Repositories, error) {
	db, err := badger.NewDatabase(cfg.BadgerPath)
	if err != nil {
		return nil, err
	}

	repos, err := badger.NewRepositories(db)
	if err != nil {
		db.Close()

		return nil, err
	}

	return &Repositories{
		Models:   repos.Models,
		Sessions: repos.Sessions,
		Closer:   db,
	}, nil
}

// NewMemoryRepositories returns process-local repositories. State is lost on
// restart.
func NewMemoryRepositories() *Repositories {
	return &Repositories{
		Models:   newMemoryModelRepository(NewInMemoryStorage()),
		Sessions: newMemorySessionRepository(NewInMemoryStorage()),
	}
}
