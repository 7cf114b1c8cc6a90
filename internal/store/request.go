package store

import (
	"context"
	"fmt"
	"strings"
	"time"

	"foodforall/internal/query"
	"foodforall/internal/utils"
	"foodforall/pkg/types"

	sq "github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5/pgxpool"
)

type RequestRepository struct {
	pool *pgxpool.Pool
}

func NewRequestRepository(pool *pgxpool.Pool) *RequestRepository {
	return &RequestRepository{pool: pool}
}

func claimFoodQuery(foodID string, now time.Time) (string, []any, error) {
	return psql().
		Update(foodTableName).
		Set("food_status", string(types.FoodStatusRequested)).
		Set("updated_at", now).
		Where(sq.Eq{"id": foodID, "food_status": string(types.FoodStatusAvailable)}).
		Suffix("RETURNING " + strings.Join(foodColumns, ", ")).
		ToSql()
}

// ClaimFood flips the listing from available to requested and inserts the
// request in a single transaction. The guarded UPDATE makes concurrent
// claims on the same listing serialize on the row lock; only one matches.
func (r *RequestRepository) ClaimFood(ctx context.Context, req *types.FoodRequest) (*types.InsertResult, error) {

	now := time.Now()

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin claim transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	claimQuery, claimArgs, err := claimFoodQuery(req.Food.ID, now)
	if err != nil {
		return nil, fmt.Errorf("failed to generate claim query for food %s: %w", req.Food.ID, err)
	}

	var row foodRow
	err = pgxscan.Get(ctx, tx, &row, claimQuery, claimArgs...)
	if err != nil {
		if pgxscan.NotFound(err) {
			return nil, types.ErrFoodUnavailable
		}
		return nil, fmt.Errorf("failed to claim food %s: %w", req.Food.ID, err)
	}

	req.ID = utils.NanoID()
	req.Food = *row.food()
	req.Status = types.FoodStatusRequested
	req.CreatedAt = now
	req.UpdatedAt = now
	if req.RequestedDate.IsZero() {
		req.RequestedDate = now
	}

	reqRow, err := newRequestRow(req)
	if err != nil {
		return nil, err
	}

	insertQuery, insertArgs, err := psql().Insert(requestTableName).SetMap(utils.StructToMap(reqRow)).ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to generate insert request query: %w", err)
	}

	if _, err := tx.Exec(ctx, insertQuery, insertArgs...); err != nil {
		return nil, fmt.Errorf("failed to insert request: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit claim for food %s: %w", req.Food.ID, err)
	}

	return &types.InsertResult{Acknowledged: true, InsertedID: req.ID}, nil
}

func requestsQuery(f query.RequestFilter) (string, []any, error) {
	b := psql().Select(requestColumns...).From(requestTableName)

	if f.RequesterEmail != "" {
		b = b.Where(sq.Eq{"requester_email": f.RequesterEmail})
	}

	if f.FoodID != "" {
		b = b.Where(sq.Eq{"food_id": f.FoodID})
	}

	return b.OrderBy("created_at ASC").ToSql()
}

func (r *RequestRepository) Requests(ctx context.Context, f query.RequestFilter) ([]*types.FoodRequest, error) {

	query, args, err := requestsQuery(f)
	if err != nil {
		return nil, fmt.Errorf("failed to generate requests query: %w", err)
	}

	var rows []*requestRow
	err = pgxscan.Select(ctx, r.pool, &rows, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch requests: %w", err)
	}

	out := make([]*types.FoodRequest, 0, len(rows))
	for _, row := range rows {
		req, err := row.request()
		if err != nil {
			return nil, err
		}
		out = append(out, req)
	}

	return out, nil
}

func (r *RequestRepository) Request(ctx context.Context, id string) (*types.FoodRequest, error) {
	query, args, err := psql().
		Select(requestColumns...).
		From(requestTableName).
		Where(sq.Eq{"id": id}).
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to generate request query: %w", err)
	}

	var row requestRow
	err = pgxscan.Get(ctx, r.pool, &row, query, args...)
	if err != nil {
		if pgxscan.NotFound(err) {
			return nil, types.ErrRequestNotFound
		}
		return nil, fmt.Errorf("failed to fetch request %s: %w", id, err)
	}

	return row.request()
}

func upsertRequestQuery(req *types.FoodRequest, now time.Time) (string, []any, error) {
	row, err := newRequestRow(req)
	if err != nil {
		return "", nil, err
	}
	row.CreatedAt = now
	row.UpdatedAt = now

	exclude := []string{"id", "created_at", "payment_intent_id"}
	if row.Status == "" {
		row.Status = string(types.FoodStatusRequested)
		exclude = append(exclude, "status")
	}

	rowMap := utils.StructToMap(row)

	return psql().
		Insert(requestTableName).
		SetMap(rowMap).
		Suffix(upsertSuffix("id", utils.SortedKeys(rowMap, exclude...))).
		ToSql()
}

func (r *RequestRepository) UpsertRequest(ctx context.Context, req *types.FoodRequest) (*types.UpdateResult, error) {

	query, args, err := upsertRequestQuery(req, time.Now())
	if err != nil {
		return nil, fmt.Errorf("failed to generate upsert request query for request %s: %w", req.ID, err)
	}

	var inserted bool
	err = r.pool.QueryRow(ctx, query, args...).Scan(&inserted)
	if err != nil {
		return nil, fmt.Errorf("failed to upsert request %s: %w", req.ID, err)
	}

	return upsertResult(req.ID, inserted), nil
}

func (r *RequestRepository) SetPaymentIntent(ctx context.Context, id, paymentIntentID string) error {
	query, args, err := psql().
		Update(requestTableName).
		Set("payment_intent_id", paymentIntentID).
		Set("updated_at", time.Now()).
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to generate payment intent query for request %s: %w", id, err)
	}

	tag, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to record payment intent for request %s: %w", id, err)
	}

	if tag.RowsAffected() == 0 {
		return types.ErrRequestNotFound
	}

	return nil
}

func (r *RequestRepository) DeleteRequest(ctx context.Context, id string) (*types.DeleteResult, error) {
	query, args, err := psql().Delete(requestTableName).Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to generate delete request query for request %s: %w", id, err)
	}

	tag, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to delete request %s: %w", id, err)
	}

	return &types.DeleteResult{Acknowledged: true, DeletedCount: tag.RowsAffected()}, nil
}

func (r *RequestRepository) CountRequestsByStatus(ctx context.Context, status types.FoodStatus) (int64, error) {
	query, args, err := psql().
		Select("count(*)").
		From(requestTableName).
		Where(sq.Eq{"status": string(status)}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("failed to generate count requests query: %w", err)
	}

	var n int64
	if err := r.pool.QueryRow(ctx, query, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count requests: %w", err)
	}

	return n, nil
}
