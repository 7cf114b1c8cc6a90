package store

import (
	"context"
	"fmt"
	"time"

	"foodforall/internal/query"
	"foodforall/internal/utils"
	"foodforall/pkg/types"

	sq "github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5/pgxpool"
)

type FoodRepository struct {
	pool *pgxpool.Pool
}

func NewFoodRepository(pool *pgxpool.Pool) *FoodRepository {
	return &FoodRepository{pool: pool}
}

func (r *FoodRepository) InsertFood(ctx context.Context, food *types.Food) (*types.InsertResult, error) {

	now := time.Now()
	food.ID = utils.NanoID()
	food.CreatedAt = now
	food.UpdatedAt = now
	if food.Status == "" {
		food.Status = types.FoodStatusAvailable
	}

	query, args, err := psql().Insert(foodTableName).SetMap(utils.StructToMap(newFoodRow(food))).ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to generate insert food query: %w", err)
	}

	_, err = r.pool.Exec(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to insert food: %w", err)
	}

	return &types.InsertResult{Acknowledged: true, InsertedID: food.ID}, nil
}

// applyListingFilter adds one WHERE predicate per populated filter field.
func applyListingFilter(b sq.SelectBuilder, f query.ListingFilter) sq.SelectBuilder {
	if f.Status != "" {
		b = b.Where(sq.Eq{"food_status": string(f.Status)})
	}

	if f.Name != "" {
		switch f.NameMatch {
		case query.NameMatchContains:
			b = b.Where(sq.ILike{"food_name": "%" + escapeLike(f.Name) + "%"})
		default:
			b = b.Where(sq.Eq{"food_name": f.Name})
		}
	}

	if f.DonatorEmail != "" {
		b = b.Where(sq.Eq{"donator_email": f.DonatorEmail})
	}

	if f.ID != "" {
		b = b.Where(sq.Eq{"id": f.ID})
	}

	return b
}

func listingOrder(order query.SortOrder) string {
	switch order {
	case query.SortQuantityDesc:
		return "food_quantity DESC"
	case query.SortExpiryAsc:
		// listings without an expiry are stored as NULL; the other stores sort them first
		return "expired_date_time ASC NULLS FIRST"
	}
	return "created_at ASC"
}

func foodsQuery(q query.ListingQuery) (string, []any, error) {
	b := psql().Select(foodColumns...).From(foodTableName)
	b = applyListingFilter(b, q.Filter)
	return b.OrderBy(listingOrder(q.Sort)).ToSql()
}

func (r *FoodRepository) Foods(ctx context.Context, q query.ListingQuery) ([]*types.Food, error) {

	query, args, err := foodsQuery(q)
	if err != nil {
		return nil, fmt.Errorf("failed to generate foods query: %w", err)
	}

	var rows []*foodRow
	err = pgxscan.Select(ctx, r.pool, &rows, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch foods: %w", err)
	}

	foods := make([]*types.Food, 0, len(rows))
	for _, row := range rows {
		foods = append(foods, row.food())
	}

	return foods, nil
}

func (r *FoodRepository) FoodsByID(ctx context.Context, id string) ([]*types.Food, error) {
	return r.Foods(ctx, query.ListingQuery{Filter: query.ListingFilter{ID: id}})
}

func upsertFoodQuery(id string, food *types.Food, now time.Time) (string, []any, error) {
	row := newFoodRow(food)
	row.ID = id
	row.CreatedAt = now
	row.UpdatedAt = now

	exclude := []string{"id", "created_at"}
	if row.Status == "" {
		// new rows start available; existing rows keep their status
		row.Status = string(types.FoodStatusAvailable)
		exclude = append(exclude, "food_status")
	}

	rowMap := utils.StructToMap(row)

	return psql().
		Insert(foodTableName).
		SetMap(rowMap).
		Suffix(upsertSuffix("id", utils.SortedKeys(rowMap, exclude...))).
		ToSql()
}

// UpsertFood replaces the listing's fields, creating the listing when id is
// unknown. An empty status leaves the stored status alone.
func (r *FoodRepository) UpsertFood(ctx context.Context, id string, food *types.Food) (*types.UpdateResult, error) {

	query, args, err := upsertFoodQuery(id, food, time.Now())
	if err != nil {
		return nil, fmt.Errorf("failed to generate upsert food query for food %s: %w", id, err)
	}

	var inserted bool
	err = r.pool.QueryRow(ctx, query, args...).Scan(&inserted)
	if err != nil {
		return nil, fmt.Errorf("failed to upsert food %s: %w", id, err)
	}

	return upsertResult(id, inserted), nil
}

func (r *FoodRepository) UpdateFoodStatus(ctx context.Context, id string, status types.FoodStatus) (*types.UpdateResult, error) {

	query, args, err := psql().
		Update(foodTableName).
		Set("food_status", string(status)).
		Set("updated_at", time.Now()).
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to generate update status query for food %s: %w", id, err)
	}

	tag, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to update status for food %s: %w", id, err)
	}

	return &types.UpdateResult{
		Acknowledged:  true,
		MatchedCount:  tag.RowsAffected(),
		ModifiedCount: tag.RowsAffected(),
	}, nil
}

func (r *FoodRepository) DeleteFood(ctx context.Context, id string) (*types.DeleteResult, error) {

	query, args, err := psql().Delete(foodTableName).Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to generate delete food query for food %s: %w", id, err)
	}

	tag, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to delete food %s: %w", id, err)
	}

	return &types.DeleteResult{Acknowledged: true, DeletedCount: tag.RowsAffected()}, nil
}

func upsertResult(id string, inserted bool) *types.UpdateResult {
	if inserted {
		return &types.UpdateResult{Acknowledged: true, UpsertedCount: 1, UpsertedID: id}
	}
	return &types.UpdateResult{Acknowledged: true, MatchedCount: 1, ModifiedCount: 1}
}
