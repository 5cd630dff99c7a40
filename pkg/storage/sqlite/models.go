package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	pkgerrors "github.com/absmach/fedkit/pkg/errors"
	"github.com/absmach/fedkit/pkg/model"
	"github.com/mattn/go-sqlite3"
)

const modelColumns = `id, name, file_path, mlmodel_path, layers_sizes, data_type, created_at`

type modelRepo struct {
	db *Database
}

func NewModelRepository(db *Database) ModelRepository {
	return &modelRepo{db: db}
}

type dbModel struct {
	ID          int64     `db:"id"`
	Name        string    `db:"name"`
	FilePath    string    `db:"file_path"`
	MLModelPath string    `db:"mlmodel_path"`
	LayersSizes []byte    `db:"layers_sizes"`
	DataType    string    `db:"data_type"`
	CreatedAt   time.Time `db:"created_at"`
}

func (r *modelRepo) Create(ctx context.Context, m model.TFLiteModel) (model.TFLiteModel, error) {
	layers, err := json.Marshal(layersOrEmpty(m.LayersSizes))
	if err != nil {
		return model.TFLiteModel{}, fmt.Errorf("marshal error: %w", err)
	}

	res, err := r.db.ExecContext(ctx,
		`INSERT INTO tflite_models (name, file_path, mlmodel_path, layers_sizes, data_type, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		m.Name, m.FilePath, m.MLModelPath, string(layers), m.DataType, m.CreatedAt,
	)
	if err != nil {
		var sqliteErr sqlite3.Error
		if errors.As(err, &sqliteErr) && sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique {
			return model.TFLiteModel{}, pkgerrors.ErrEntityExists
		}

		return model.TFLiteModel{}, fmt.Errorf("%w: %w", ErrCreate, err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return model.TFLiteModel{}, fmt.Errorf("%w: %w", ErrCreate, err)
	}
	m.ID = id

	return m, nil
}

func (r *modelRepo) Get(ctx context.Context, id int64) (model.TFLiteModel, error) {
	var dbm dbModel
	if err := r.db.GetContext(ctx, &dbm, `SELECT `+modelColumns+` FROM tflite_models WHERE id = ?`, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.TFLiteModel{}, ErrNotFound
		}

		return model.TFLiteModel{}, fmt.Errorf("%w: %w", ErrDBQuery, err)
	}

	return toModel(dbm)
}

func (r *modelRepo) Update(ctx context.Context, m model.TFLiteModel) error {
	layers, err := json.Marshal(layersOrEmpty(m.LayersSizes))
	if err != nil {
		return fmt.Errorf("marshal error: %w", err)
	}

	res, err := r.db.ExecContext(ctx,
		`UPDATE tflite_models SET file_path = ?, mlmodel_path = ?, layers_sizes = ?, data_type = ? WHERE id = ?`,
		m.FilePath, m.MLModelPath, string(layers), m.DataType, m.ID,
	)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrUpdate, err)
	}

	return checkAffected(res)
}

func (r *modelRepo) List(ctx context.Context, offset, limit uint64) ([]model.TFLiteModel, uint64, error) {
	var total uint64
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM tflite_models`); err != nil {
		return nil, 0, fmt.Errorf("%w: %w", ErrDBQuery, err)
	}

	var rows []dbModel
	if err := r.db.SelectContext(ctx, &rows,
		`SELECT `+modelColumns+` FROM tflite_models ORDER BY id DESC LIMIT ? OFFSET ?`,
		limit, offset,
	); err != nil {
		return nil, 0, fmt.Errorf("%w: %w", ErrDBQuery, err)
	}

	models := make([]model.TFLiteModel, len(rows))
	for i := range rows {
		m, err := toModel(rows[i])
		if err != nil {
			return nil, 0, err
		}
		models[i] = m
	}

	return models, total, nil
}

func (r *modelRepo) LatestByDataType(ctx context.Context, dataType string, requireMLModel bool) (model.TFLiteModel, error) {
	query := `SELECT ` + modelColumns + ` FROM tflite_models WHERE data_type = ?`
	if requireMLModel {
		query += ` AND mlmodel_path != ''`
	}
	query += ` ORDER BY id DESC LIMIT 1`

	var dbm dbModel
	if err := r.db.GetContext(ctx, &dbm, query, dataType); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.TFLiteModel{}, ErrNotFound
		}

		return model.TFLiteModel{}, fmt.Errorf("%w: %w", ErrDBQuery, err)
	}

	return toModel(dbm)
}

func toModel(dbm dbModel) (model.TFLiteModel, error) {
	var layers []int64
	if err := json.Unmarshal(dbm.LayersSizes, &layers); err != nil {
		return model.TFLiteModel{}, fmt.Errorf("unmarshal error: %w", err)
	}

	return model.TFLiteModel{
		ID:          dbm.ID,
		Name:        dbm.Name,
		FilePath:    dbm.FilePath,
		MLModelPath: dbm.MLModelPath,
		LayersSizes: layers,
		DataType:    dbm.DataType,
		CreatedAt:   dbm.CreatedAt,
	}, nil
}

func layersOrEmpty(layers []int64) []int64 {
	if layers == nil {
		return []int64{}
	}

	return layers
}

func checkAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: %w", ErrUpdate, err)
	}
	if n == 0 {
		return ErrNotFound
	}

	return nil
}
