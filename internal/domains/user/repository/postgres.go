package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	loyalty "restaurant-backend/internal/domains/loyalty/model"
	"restaurant-backend/internal/domains/user/model"
)

type PostgresRepository struct {
	db *pgxpool.Pool
}

func NewPostgresRepository(db *pgxpool.Pool) UserRepository {
	return &PostgresRepository{db: db}
}

const userColumns = `
	id, email, password_hash, full_name, role,
	point, total_point, exp, rank, booster, exclude_from_leaderboard,
	version, created_at, updated_at, deleted_at`

func scanUser(row pgx.Row) (*model.User, error) {
	var u model.User
	err := row.Scan(
		&u.ID, &u.Email, &u.PasswordHash, &u.FullName, &u.Role,
		&u.Point, &u.TotalPoint, &u.Exp, &u.Rank, &u.Booster, &u.ExcludeFromLeaderboard,
		&u.Version, &u.CreatedAt, &u.UpdatedAt, &u.DeletedAt,
	)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *PostgresRepository) Create(ctx context.Context, u *model.User) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}

	query := `
		INSERT INTO users (id, email, password_hash, full_name, role,
			point, total_point, exp, rank, booster, exclude_from_leaderboard, version)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, 1)
		RETURNING created_at, updated_at`

	err := r.db.QueryRow(ctx, query,
		u.ID, strings.ToLower(u.Email), u.PasswordHash, u.FullName, u.Role,
		u.Point, u.TotalPoint, u.Exp, u.Rank, u.Booster, u.ExcludeFromLeaderboard,
	).Scan(&u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert user: %w", err)
	}

	u.Version = 1
	return nil
}

func (r *PostgresRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1 AND deleted_at IS NULL`

	u, err := scanUser(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, model.ErrUserNotFound
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	return u, nil
}

func (r *PostgresRepository) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1 AND deleted_at IS NULL`

	u, err := scanUser(r.db.QueryRow(ctx, query, strings.ToLower(email)))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, model.ErrUserNotFound
		}
		return nil, fmt.Errorf("find user by email: %w", err)
	}
	return u, nil
}

func (r *PostgresRepository) EmailExists(ctx context.Context, email string) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM users WHERE email = $1 AND deleted_at IS NULL)`,
		strings.ToLower(email)).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check email exists: %w", err)
	}
	return exists, nil
}

// Leaderboard xếp theo total_point giảm dần, bỏ user có cờ loại trừ
func (r *PostgresRepository) Leaderboard(ctx context.Context, limit int) ([]*model.LeaderboardEntry, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}

	query := `
		SELECT id, full_name, total_point, rank
		FROM users
		WHERE deleted_at IS NULL
		  AND exclude_from_leaderboard = false
		  AND role = $1
		ORDER BY total_point DESC, id
		LIMIT $2`

	rows, err := r.db.Query(ctx, query, model.RoleCustomer, limit)
	if err != nil {
		return nil, fmt.Errorf("query leaderboard: %w", err)
	}
	defer rows.Close()

	var result []*model.LeaderboardEntry
	for rows.Next() {
		var e model.LeaderboardEntry
		if err := rows.Scan(&e.UserID, &e.FullName, &e.TotalPoint, &e.Rank); err != nil {
			return nil, fmt.Errorf("scan leaderboard entry: %w", err)
		}
		result = append(result, &e)
	}
	return result, rows.Err()
}

// -------------------------------------------------------------------
// TRANSACTIONAL
// -------------------------------------------------------------------

func (r *PostgresRepository) FindByIDForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1 AND deleted_at IS NULL FOR UPDATE`

	u, err := scanUser(tx.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, model.ErrUserNotFound
		}
		return nil, fmt.Errorf("find user for update: %w", err)
	}
	return u, nil
}

// DebitPointsTx trừ điểm atomic. Guard trong WHERE là invariant:
// không bao giờ cho point âm dù hai redemption chạy song song.
func (r *PostgresRepository) DebitPointsTx(ctx context.Context, tx pgx.Tx, userID uuid.UUID, cost int64) error {
	tag, err := tx.Exec(ctx,
		`UPDATE users SET point = point - $2, updated_at = NOW(), version = version + 1
		 WHERE id = $1 AND point >= $2 AND deleted_at IS NULL`,
		userID, cost)
	if err != nil {
		return fmt.Errorf("debit points: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrInsufficientPoints
	}
	return nil
}

func (r *PostgresRepository) ApplyAccrualTx(ctx context.Context, tx pgx.Tx, userID uuid.UUID, points, exp int64, rank loyalty.Rank) error {
	tag, err := tx.Exec(ctx,
		`UPDATE users SET
			point = point + $2,
			total_point = total_point + $2,
			exp = exp + $3,
			rank = $4,
			updated_at = NOW(),
			version = version + 1
		 WHERE id = $1 AND deleted_at IS NULL`,
		userID, points, exp, rank)
	if err != nil {
		return fmt.Errorf("apply accrual: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrUserNotFound
	}
	return nil
}
