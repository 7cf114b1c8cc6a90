package store

import (
	"context"
	"fmt"
	"strings"
	"time"

	"foodforall/internal/utils"
	"foodforall/pkg/types"

	"github.com/jackc/pgx/v5/pgxpool"
)

type UserRepository struct {
	pool *pgxpool.Pool
}

func NewUserRepository(pool *pgxpool.Pool) *UserRepository {
	return &UserRepository{pool: pool}
}

func upsertUserQuery(user *types.User, now time.Time) (string, []any, error) {
	row := &userRow{
		Email:     strings.TrimSpace(user.Email),
		Name:      strings.TrimSpace(user.Name),
		Image:     strings.TrimSpace(user.Image),
		CreatedAt: now,
		UpdatedAt: now,
	}

	rowMap := utils.StructToMap(row)

	return psql().
		Insert(userTableName).
		SetMap(rowMap).
		Suffix(upsertSuffix("email", utils.SortedKeys(rowMap, "email", "created_at"))).
		ToSql()
}

// UpsertUser creates the profile on first sight; created_at is never overwritten.
func (r *UserRepository) UpsertUser(ctx context.Context, user *types.User) (*types.UpdateResult, error) {
	query, args, err := upsertUserQuery(user, time.Now())
	if err != nil {
		return nil, fmt.Errorf("failed to generate upsert user query: %w", err)
	}

	var inserted bool
	err = r.pool.QueryRow(ctx, query, args...).Scan(&inserted)
	if err != nil {
		return nil, fmt.Errorf("failed to upsert user: %w", err)
	}

	return upsertResult(user.Email, inserted), nil
}

func (r *UserRepository) CountUsers(ctx context.Context) (int64, error) {
	query, args, err := psql().Select("count(*)").From(userTableName).ToSql()
	if err != nil {
		return 0, fmt.Errorf("failed to generate count users query: %w", err)
	}

	var n int64
	if err := r.pool.QueryRow(ctx, query, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count users: %w", err)
	}

	return n, nil
}
