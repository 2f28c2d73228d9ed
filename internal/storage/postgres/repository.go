package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/ilindan-dev/fact-scheduler/internal/domain/model"
	repo "github.com/ilindan-dev/fact-scheduler/internal/domain/repository"
)

// Ensure FactRepository implements the interface
var _ repo.FactRepository = (*FactRepository)(nil)

const factColumns = `id, language, text, category, image_url, scheduled_at, notification_id, shown_at, created_at, updated_at`

// FactRepository implements the domain FactRepository interface
// using PostgreSQL as a backend. The scheduling columns (scheduled_at,
// notification_id, shown_at) are owned exclusively by the scheduling service.
type FactRepository struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewFactRepository creates a new instance of the FactRepository.
func NewFactRepository(pool *pgxpool.Pool, logger *zerolog.Logger) *FactRepository {
	return &FactRepository{
		pool:   pool,
		logger: logger.With().Str("layer", "postgres_repository").Logger(),
	}
}

// Save persists a new fact and returns the created object.
func (r *FactRepository) Save(ctx context.Context, f *model.Fact) (*model.Fact, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO facts (id, language, text, category, image_url)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING `+factColumns,
		f.ID, f.Language, f.Text, f.Category, f.ImageURL)

	created, err := scanFact(row)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return nil, repo.ErrDuplicateRecord
		}
		r.logger.Err(err).Msg("cannot create fact")
		return nil, fmt.Errorf("postgres: inserting fact failed: %w", err)
	}
	return created, nil
}

// GetByID retrieves a fact by its unique ID.
func (r *FactRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Fact, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+factColumns+` FROM facts WHERE id = $1`, id)
	fact, err := scanFact(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			r.logger.Warn().Stringer("id", id).Msg("fact not found by id")
			return nil, repo.ErrNotFound
		}
		r.logger.Err(err).Str("method", "GetByID").Msg("cannot get fact")
		return nil, fmt.Errorf("postgres: selecting fact failed: %w", err)
	}
	return fact, nil
}

// GetRandomUnscheduled returns up to n random facts that are neither
// scheduled nor shown, filtered by language.
func (r *FactRepository) GetRandomUnscheduled(ctx context.Context, n int, language string) ([]model.Fact, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+factColumns+`
		FROM facts
		WHERE language = $1 AND scheduled_at IS NULL AND shown_at IS NULL
		ORDER BY random()
		LIMIT $2`,
		language, n)
	if err != nil {
		r.logger.Err(err).Msg("cannot select unscheduled facts")
		return nil, fmt.Errorf("postgres: selecting unscheduled facts failed: %w", err)
	}
	defer rows.Close()
	return scanFacts(rows)
}

// MarkScheduled records a confirmed queue registration for the fact.
func (r *FactRepository) MarkScheduled(ctx context.Context, id uuid.UUID, fireAt time.Time, handle string) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE facts
		SET scheduled_at = $2, notification_id = $3, updated_at = now()
		WHERE id = $1`,
		id, fireAt, handle)
	if err != nil {
		r.logger.Err(err).Stringer("id", id).Msg("cannot mark fact scheduled")
		return fmt.Errorf("postgres: marking fact scheduled failed: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return repo.ErrNotFound
	}
	return nil
}

// MarkShownAt transitions a fact to the shown state.
func (r *FactRepository) MarkShownAt(ctx context.Context, id uuid.UUID, shownAt time.Time) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE facts
		SET shown_at = $2, updated_at = now()
		WHERE id = $1`,
		id, shownAt)
	if err != nil {
		r.logger.Err(err).Stringer("id", id).Msg("cannot mark fact shown")
		return fmt.Errorf("postgres: marking fact shown failed: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return repo.ErrNotFound
	}
	return nil
}

// MarkAllPastDueShown transitions every past-due fact to the shown state,
// using its scheduled instant as the delivery time.
func (r *FactRepository) MarkAllPastDueShown(ctx context.Context, language string) (int64, error) {
	tag, err := r.pool.Exec(ctx, `
		UPDATE facts
		SET shown_at = scheduled_at, updated_at = now()
		WHERE scheduled_at IS NOT NULL
		  AND scheduled_at <= now()
		  AND shown_at IS NULL
		  AND ($1 = '' OR language = $1)`,
		language)
	if err != nil {
		r.logger.Err(err).Msg("cannot mark past-due facts shown")
		return 0, fmt.Errorf("postgres: marking past-due facts shown failed: %w", err)
	}
	return tag.RowsAffected(), nil
}

// ClearFutureScheduling returns future-scheduled facts to the unscheduled pool.
func (r *FactRepository) ClearFutureScheduling(ctx context.Context) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE facts
		SET scheduled_at = NULL, notification_id = NULL, updated_at = now()
		WHERE scheduled_at > now() AND shown_at IS NULL`)
	if err != nil {
		r.logger.Err(err).Msg("cannot clear future scheduling state")
		return fmt.Errorf("postgres: clearing future scheduling failed: %w", err)
	}
	return nil
}

// ClearAllScheduling wipes scheduling state from every not-yet-shown fact.
func (r *FactRepository) ClearAllScheduling(ctx context.Context) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE facts
		SET scheduled_at = NULL, notification_id = NULL, updated_at = now()
		WHERE scheduled_at IS NOT NULL AND shown_at IS NULL`)
	if err != nil {
		r.logger.Err(err).Msg("cannot clear scheduling state")
		return fmt.Errorf("postgres: clearing scheduling failed: %w", err)
	}
	return nil
}

// ClearStaleHandles drops scheduling state whose handle is not among the
// live queue handles.
func (r *FactRepository) ClearStaleHandles(ctx context.Context, validHandles []string) (int64, error) {
	if validHandles == nil {
		validHandles = []string{}
	}
	tag, err := r.pool.Exec(ctx, `
		UPDATE facts
		SET scheduled_at = NULL, notification_id = NULL, updated_at = now()
		WHERE scheduled_at > now()
		  AND shown_at IS NULL
		  AND notification_id IS NOT NULL
		  AND NOT (notification_id = ANY($1))`,
		validHandles)
	if err != nil {
		r.logger.Err(err).Msg("cannot clear stale handles")
		return 0, fmt.Errorf("postgres: clearing stale handles failed: %w", err)
	}
	return tag.RowsAffected(), nil
}

// CountFuturePending counts facts scheduled strictly in the future.
func (r *FactRepository) CountFuturePending(ctx context.Context, language string) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx, `
		SELECT count(*)
		FROM facts
		WHERE scheduled_at > now()
		  AND shown_at IS NULL
		  AND ($1 = '' OR language = $1)`,
		language).Scan(&count)
	if err != nil {
		r.logger.Err(err).Msg("cannot count future-scheduled facts")
		return 0, fmt.Errorf("postgres: counting future-scheduled facts failed: %w", err)
	}
	return count, nil
}

// LatestScheduledAt returns the latest scheduled instant, or nil when
// nothing is scheduled.
func (r *FactRepository) LatestScheduledAt(ctx context.Context) (*time.Time, error) {
	var latest pgtype.Timestamptz
	err := r.pool.QueryRow(ctx, `SELECT max(scheduled_at) FROM facts WHERE shown_at IS NULL`).Scan(&latest)
	if err != nil {
		r.logger.Err(err).Msg("cannot select latest scheduled instant")
		return nil, fmt.Errorf("postgres: selecting latest scheduled instant failed: %w", err)
	}
	if !latest.Valid {
		return nil, nil
	}
	t := latest.Time
	return &t, nil
}

// ListShown returns shown facts, newest delivery first.
func (r *FactRepository) ListShown(ctx context.Context, language string, limit int) ([]model.Fact, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+factColumns+`
		FROM facts
		WHERE shown_at IS NOT NULL AND language = $1
		ORDER BY shown_at DESC
		LIMIT $2`,
		language, limit)
	if err != nil {
		r.logger.Err(err).Msg("cannot select shown facts")
		return nil, fmt.Errorf("postgres: selecting shown facts failed: %w", err)
	}
	defer rows.Close()
	return scanFacts(rows)
}

// === Mapper Functions ===

// scanFact converts one database row into a domain fact.
func scanFact(row pgx.Row) (*model.Fact, error) {
	var (
		f              model.Fact
		imageURL       pgtype.Text
		scheduledAt    pgtype.Timestamptz
		notificationID pgtype.Text
		shownAt        pgtype.Timestamptz
	)
	err := row.Scan(&f.ID, &f.Language, &f.Text, &f.Category, &imageURL,
		&scheduledAt, &notificationID, &shownAt, &f.CreatedAt, &f.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if imageURL.Valid {
		f.ImageURL = &imageURL.String
	}
	if scheduledAt.Valid {
		f.ScheduledAt = &scheduledAt.Time
	}
	if notificationID.Valid {
		f.NotificationID = &notificationID.String
	}
	if shownAt.Valid {
		f.ShownAt = &shownAt.Time
	}
	return &f, nil
}

func scanFacts(rows pgx.Rows) ([]model.Fact, error) {
	var facts []model.Fact
	for rows.Next() {
		f, err := scanFact(rows)
		if err != nil {
			return nil, fmt.Errorf("postgres: scanning fact row failed: %w", err)
		}
		facts = append(facts, *f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: iterating fact rows failed: %w", err)
	}
	return facts, nil
}
