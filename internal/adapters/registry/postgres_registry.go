package registry

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/zatekoja/clinicaltriage/internal/domain/entities"
	"github.com/zatekoja/clinicaltriage/internal/domain/repositories"
	"github.com/zatekoja/clinicaltriage/internal/infrastructure/observability"
	apperrors "github.com/zatekoja/clinicaltriage/pkg/errors"
)

const patientRecordsTable = "patient_records"

// Schema creates the table used by PostgresRegistry.
const Schema = `CREATE TABLE IF NOT EXISTS patient_records (
	id                    TEXT PRIMARY KEY,
	patient_key           TEXT NOT NULL UNIQUE,
	name                  TEXT NOT NULL,
	age                   INTEGER NOT NULL,
	priority              SMALLINT NOT NULL,
	priority_label        TEXT NOT NULL,
	ml_priority           SMALLINT NOT NULL,
	ml_priority_label     TEXT NOT NULL,
	ml_confidence         DOUBLE PRECISION NOT NULL,
	ml_probabilities      JSONB NOT NULL DEFAULT '{}',
	category              TEXT NOT NULL DEFAULT '',
	affirmative_questions TEXT[] NOT NULL DEFAULT '{}',
	temperature           DOUBLE PRECISION NOT NULL,
	blood_pressure        TEXT NOT NULL,
	heart_rate            DOUBLE PRECISION NOT NULL,
	oxygen                DOUBLE PRECISION NOT NULL,
	description           TEXT NOT NULL,
	stop                  BOOLEAN NOT NULL,
	timestamp             BIGINT NOT NULL,
	created_at            TIMESTAMPTZ NOT NULL
)`

var patientColumns = []interface{}{
	"id", "patient_key", "name", "age", "priority", "priority_label",
	"ml_priority", "ml_priority_label", "ml_confidence", "ml_probabilities",
	"category", "affirmative_questions", "temperature", "blood_pressure",
	"heart_rate", "oxygen", "description", "stop", "timestamp", "created_at",
}

// patientRow is the column layout of patient_records
type patientRow struct {
	ID                   string         `db:"id"`
	Key                  string         `db:"patient_key"`
	Name                 string         `db:"name"`
	Age                  int            `db:"age"`
	Priority             int            `db:"priority"`
	PriorityLabel        string         `db:"priority_label"`
	MLPriority           int            `db:"ml_priority"`
	MLPriorityLabel      string         `db:"ml_priority_label"`
	MLConfidence         float64        `db:"ml_confidence"`
	MLProbabilities      []byte         `db:"ml_probabilities"`
	Category             sql.NullString `db:"category"`
	AffirmativeQuestions pq.StringArray `db:"affirmative_questions"`
	Temperature          float64        `db:"temperature"`
	BloodPressure        string         `db:"blood_pressure"`
	HeartRate            float64        `db:"heart_rate"`
	Oxygen               float64        `db:"oxygen"`
	Description          string         `db:"description"`
	Stop                 bool           `db:"stop"`
	Timestamp            int64          `db:"timestamp"`
	CreatedAt            time.Time      `db:"created_at"`
}

// PostgresRegistry persists records in PostgreSQL, one row per patient key
type PostgresRegistry struct {
	db   *sqlx.DB
	goqu *goqu.Database
}

// NewPostgresRegistry creates a registry over an open database handle
func NewPostgresRegistry(db *sql.DB) repositories.PatientRepository {
	return &PostgresRegistry{
		db:   sqlx.NewDb(db, "postgres"),
		goqu: goqu.New("postgres", db),
	}
}

// EnsureSchema creates the patient_records table if it does not exist
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, Schema); err != nil {
		return apperrors.NewInternalError("failed to create patient_records table", err)
	}
	return nil
}

// Upsert inserts the record or replaces the row holding the same patient key
func (r *PostgresRegistry) Upsert(ctx context.Context, record *entities.PatientRecord) error {
	probabilities, err := json.Marshal(record.MLProbabilities)
	if err != nil {
		return apperrors.NewSerializationError("failed to encode probabilities for "+record.Key, err)
	}
	questions := record.AffirmativeQuestions
	if questions == nil {
		questions = []string{}
	}

	row := goqu.Record{
		"id":                    record.ID,
		"patient_key":           record.Key,
		"name":                  record.Name,
		"age":                   record.Age,
		"priority":              int(record.Priority),
		"priority_label":        record.PriorityLabel,
		"ml_priority":           int(record.MLPriority),
		"ml_priority_label":     record.MLPriorityLabel,
		"ml_confidence":         record.MLConfidence,
		"ml_probabilities":      string(probabilities),
		"category":              record.Category,
		"affirmative_questions": pq.Array(questions),
		"temperature":           record.Temperature,
		"blood_pressure":        record.BloodPressure,
		"heart_rate":            record.HeartRate,
		"oxygen":                record.Oxygen,
		"description":           record.Description,
		"stop":                  record.Stop,
		"timestamp":             record.Timestamp,
		"created_at":            record.CreatedAt,
	}

	update := goqu.Record{}
	for col := range row {
		if col == "id" || col == "patient_key" {
			continue
		}
		update[col] = goqu.I("excluded." + col)
	}

	query, args, err := r.goqu.Insert(patientRecordsTable).
		Prepared(true).
		Rows(row).
		OnConflict(goqu.DoUpdate("patient_key", update)).
		ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build upsert query", err)
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return apperrors.NewInternalError("failed to upsert patient record", err)
	}
	return nil
}

// List returns every row in dashboard order; rows with unreadable JSON are skipped
func (r *PostgresRegistry) List(ctx context.Context) ([]*entities.PatientRecord, error) {
	query, args, err := r.goqu.From(patientRecordsTable).
		Select(patientColumns...).
		Order(goqu.C("priority").Asc(), goqu.C("timestamp").Asc(), goqu.C("patient_key").Asc()).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build list query", err)
	}

	var rows []patientRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, apperrors.NewInternalError("failed to list patient records", err)
	}

	out := make([]*entities.PatientRecord, 0, len(rows))
	for i := range rows {
		rec, err := rows[i].toEntity()
		if err != nil {
			observability.LoggerFromContext(ctx).Warn().
				Err(err).
				Str("patient_key", rows[i].Key).
				Msg("Skipping patient record")
			continue
		}
		out = append(out, rec)
	}
	return out, nil
}

// Clear deletes every row
func (r *PostgresRegistry) Clear(ctx context.Context) error {
	query, args, err := r.goqu.Delete(patientRecordsTable).ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build delete query", err)
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return apperrors.NewInternalError("failed to clear patient records", err)
	}
	return nil
}

// Count returns the number of rows
func (r *PostgresRegistry) Count(ctx context.Context) (int, error) {
	query, args, err := r.goqu.From(patientRecordsTable).Select(goqu.COUNT("*")).ToSQL()
	if err != nil {
		return 0, apperrors.NewInternalError("failed to build count query", err)
	}

	var n int
	if err := r.db.GetContext(ctx, &n, query, args...); err != nil {
		return 0, apperrors.NewInternalError("failed to count patient records", err)
	}
	return n, nil
}

func (row *patientRow) toEntity() (*entities.PatientRecord, error) {
	rec := &entities.PatientRecord{
		ID:                   row.ID,
		Key:                  row.Key,
		Name:                 row.Name,
		Age:                  row.Age,
		Priority:             entities.Priority(row.Priority),
		PriorityLabel:        row.PriorityLabel,
		MLPriority:           entities.Priority(row.MLPriority),
		MLPriorityLabel:      row.MLPriorityLabel,
		MLConfidence:         row.MLConfidence,
		Category:             row.Category.String,
		AffirmativeQuestions: []string(row.AffirmativeQuestions),
		Temperature:          row.Temperature,
		BloodPressure:        row.BloodPressure,
		HeartRate:            row.HeartRate,
		Oxygen:               row.Oxygen,
		Description:          row.Description,
		Stop:                 row.Stop,
		Timestamp:            row.Timestamp,
		CreatedAt:            row.CreatedAt,
	}
	if rec.AffirmativeQuestions == nil {
		rec.AffirmativeQuestions = []string{}
	}
	if len(row.MLProbabilities) > 0 {
		if err := json.Unmarshal(row.MLProbabilities, &rec.MLProbabilities); err != nil {
			return nil, apperrors.NewSerializationError("undecodable ml_probabilities", err)
		}
	}
	return rec, nil
}
