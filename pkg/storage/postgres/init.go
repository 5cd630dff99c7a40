package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	pkgerrors "github.com/absmach/fedkit/pkg/errors"
	"github.com/absmach/fedkit/pkg/model"
	"github.com/absmach/fedkit/pkg/session"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	migrate "github.com/rubenv/sql-migrate"
)

var (
	ErrDBConnection = errors.New("database connection error")
	ErrDBQuery      = errors.New("database query error")
	ErrCreate       = errors.New("create error")
	ErrUpdate       = errors.New("update error")
	ErrNotFound     = pkgerrors.ErrNotFound
)

type ModelRepository interface {
	Create(ctx context.Context, m model.TFLiteModel) (model.TFLiteModel, error)
	Get(ctx context.Context, id int64) (model.TFLiteModel, error)
	Update(ctx context.Context, m model.TFLiteModel) error
	List(ctx context.Context, offset, limit uint64) ([]model.TFLiteModel, uint64, error)
	LatestByDataType(ctx context.Context, dataType string, requireMLModel bool) (model.TFLiteModel, error)
}

type SessionRepository interface {
	Create(ctx context.Context, s session.Session) (session.Session, error)
	Get(ctx context.Context, id int64) (session.Session, error)
	Update(ctx context.Context, s session.Session) error
	List(ctx context.Context, offset, limit uint64) ([]session.Session, uint64, error)
	ActiveByModel(ctx context.Context, modelID int64) (session.Session, error)
	ListActive(ctx context.Context) ([]session.Session, error)
}

type Repositories struct {
	Models   ModelRepository
	Sessions SessionRepository
}

func NewRepositories(db *Database) *Repositories {
	return &Repositories{
		Models:   NewModelRepository(db),
		Sessions: NewSessionRepository(db),
	}
}

type Database struct {
	*sqlx.DB
}

func NewDatabase(host, port, user, pass, name, sslMode string) (*Database, error) {
	dsn := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s", host, port, user, pass, name, sslMode)
	db, err := sqlx.Connect("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDBConnection, err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(5 * time.Minute)

	database := &Database{DB: db}

	if err := database.Migrate(); err != nil {
		db.Close()

		return nil, err
	}

	return database, nil
}

func (db *Database) Migrate() error {
	migrations := &migrate.MemoryMigrationSource{
		Migrations: []*migrate.Migration{
			{
				Id: "1_create_tables",
				Up: []string{
					`CREATE TABLE IF NOT EXISTS tflite_models (
						id BIGSERIAL PRIMARY KEY,
						name VARCHAR(256) NOT NULL UNIQUE,
						file_path TEXT NOT NULL,
						mlmodel_path TEXT NOT NULL DEFAULT '',
						layers_sizes JSONB NOT NULL,
						data_type VARCHAR(256) NOT NULL,
						created_at TIMESTAMPTZ NOT NULL
					)`,
					`CREATE INDEX IF NOT EXISTS idx_tflite_models_data_type ON tflite_models(data_type, id DESC)`,
					`CREATE TABLE IF NOT EXISTS training_sessions (
						id BIGSERIAL PRIMARY KEY,
						name TEXT NOT NULL,
						model_id BIGINT NOT NULL REFERENCES tflite_models(id) ON DELETE CASCADE,
						port BIGINT NOT NULL,
						start_fresh BOOLEAN NOT NULL DEFAULT FALSE,
						state TEXT NOT NULL,
						started_at TIMESTAMPTZ NOT NULL,
						ended_at TIMESTAMPTZ
					)`,
					`CREATE INDEX IF NOT EXISTS idx_training_sessions_state ON training_sessions(state, model_id)`,
				},
				Down: []string{
					`DROP INDEX IF EXISTS idx_training_sessions_state`,
					`DROP TABLE IF EXISTS training_sessions`,
					`DROP INDEX IF EXISTS idx_tflite_models_data_type`,
					`DROP TABLE IF EXISTS tflite_models`,
				},
			},
		},
	}

	if _, err := migrate.Exec(db.DB.DB, "postgres", migrations, migrate.Up); err != nil {
		return fmt.Errorf("database migration error: %w", err)
	}

	return nil
}
