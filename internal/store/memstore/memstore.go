// Package memstore is an in-memory implementation of the food, request and
// user stores. It backs tests and STORE_DRIVER=memory.
package memstore

import (
	"context"
	"sync"
	"time"

	"foodforall/internal/query"
	"foodforall/internal/utils"
	"foodforall/pkg/types"
)

type Store struct {
	mu       sync.Mutex
	foods    map[string]*types.Food
	requests map[string]*types.FoodRequest
	users    map[string]*types.User

	// insertion order keeps unsorted listings stable
	foodOrder    []string
	requestOrder []string

	now func() time.Time
}

func New() *Store {
	return &Store{
		foods:    make(map[string]*types.Food),
		requests: make(map[string]*types.FoodRequest),
		users:    make(map[string]*types.User),
		now:      time.Now,
	}
}

func (s *Store) InsertFood(_ context.Context, food *types.Food) (*types.InsertResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	food.ID = utils.NanoID()
	food.CreatedAt = now
	food.UpdatedAt = now
	if food.Status == "" {
		food.Status = types.FoodStatusAvailable
	}

	stored := *food
	s.foods[food.ID] = &stored
	s.foodOrder = append(s.foodOrder, food.ID)

	return &types.InsertResult{Acknowledged: true, InsertedID: food.ID}, nil
}

func (s *Store) Foods(_ context.Context, q query.ListingQuery) ([]*types.Food, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]*types.Food, 0)
	for _, id := range s.foodOrder {
		food, ok := s.foods[id]
		if !ok || !q.Filter.Matches(food) {
			continue
		}
		copied := *food
		out = append(out, &copied)
	}

	query.SortFoods(out, q.Sort)
	return out, nil
}

func (s *Store) FoodsByID(_ context.Context, id string) ([]*types.Food, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]*types.Food, 0, 1)
	if food, ok := s.foods[id]; ok {
		copied := *food
		out = append(out, &copied)
	}
	return out, nil
}

func (s *Store) UpsertFood(_ context.Context, id string, food *types.Food) (*types.UpdateResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	existing, ok := s.foods[id]
	if !ok {
		stored := *food
		stored.ID = id
		stored.CreatedAt = now
		stored.UpdatedAt = now
		if stored.Status == "" {
			stored.Status = types.FoodStatusAvailable
		}
		s.foods[id] = &stored
		s.foodOrder = append(s.foodOrder, id)
		return &types.UpdateResult{Acknowledged: true, UpsertedCount: 1, UpsertedID: id}, nil
	}

	existing.Name = food.Name
	existing.Image = food.Image
	existing.Quantity = food.Quantity
	existing.PickupLocation = food.PickupLocation
	existing.ExpiredDateTime = food.ExpiredDateTime
	existing.AdditionalNotes = food.AdditionalNotes
	existing.Donator = food.Donator
	if food.Status != "" {
		existing.Status = food.Status
	}
	existing.UpdatedAt = now

	return &types.UpdateResult{Acknowledged: true, MatchedCount: 1, ModifiedCount: 1}, nil
}

func (s *Store) UpdateFoodStatus(_ context.Context, id string, status types.FoodStatus) (*types.UpdateResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	food, ok := s.foods[id]
	if !ok {
		return &types.UpdateResult{Acknowledged: true}, nil
	}

	result := &types.UpdateResult{Acknowledged: true, MatchedCount: 1}
	if food.Status != status {
		food.Status = status
		food.UpdatedAt = s.now()
		result.ModifiedCount = 1
	}
	return result, nil
}

func (s *Store) DeleteFood(_ context.Context, id string) (*types.DeleteResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.foods[id]; !ok {
		return &types.DeleteResult{Acknowledged: true}, nil
	}

	delete(s.foods, id)
	s.foodOrder = removeID(s.foodOrder, id)
	return &types.DeleteResult{Acknowledged: true, DeletedCount: 1}, nil
}

// ClaimFood moves the listing from available to requested and records the
// request in one critical section.
func (s *Store) ClaimFood(_ context.Context, req *types.FoodRequest) (*types.InsertResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	food, ok := s.foods[req.Food.ID]
	if !ok || food.Status != types.FoodStatusAvailable {
		return nil, types.ErrFoodUnavailable
	}

	now := s.now()
	food.Status = types.FoodStatusRequested
	food.UpdatedAt = now

	req.ID = utils.NanoID()
	req.Food = *food
	req.Status = types.FoodStatusRequested
	req.CreatedAt = now
	req.UpdatedAt = now
	if req.RequestedDate.IsZero() {
		req.RequestedDate = now
	}

	stored := *req
	s.requests[req.ID] = &stored
	s.requestOrder = append(s.requestOrder, req.ID)

	return &types.InsertResult{Acknowledged: true, InsertedID: req.ID}, nil
}

func (s *Store) Requests(_ context.Context, filter query.RequestFilter) ([]*types.FoodRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]*types.FoodRequest, 0)
	for _, id := range s.requestOrder {
		req, ok := s.requests[id]
		if !ok || !filter.Matches(req) {
			continue
		}
		copied := *req
		out = append(out, &copied)
	}
	return out, nil
}

func (s *Store) Request(_ context.Context, id string) (*types.FoodRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	req, ok := s.requests[id]
	if !ok {
		return nil, types.ErrRequestNotFound
	}
	copied := *req
	return &copied, nil
}

func (s *Store) UpsertRequest(_ context.Context, req *types.FoodRequest) (*types.UpdateResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	existing, ok := s.requests[req.ID]
	if !ok {
		stored := *req
		stored.CreatedAt = now
		stored.UpdatedAt = now
		if stored.Status == "" {
			stored.Status = types.FoodStatusRequested
		}
		s.requests[req.ID] = &stored
		s.requestOrder = append(s.requestOrder, req.ID)
		return &types.UpdateResult{Acknowledged: true, UpsertedCount: 1, UpsertedID: req.ID}, nil
	}

	existing.Food = req.Food
	existing.Requester = req.Requester
	existing.DonationMoney = req.DonationMoney
	existing.AdditionalNotes = req.AdditionalNotes
	existing.RequestedDate = req.RequestedDate
	if req.Status != "" {
		existing.Status = req.Status
	}
	existing.UpdatedAt = now

	return &types.UpdateResult{Acknowledged: true, MatchedCount: 1, ModifiedCount: 1}, nil
}

func (s *Store) SetPaymentIntent(_ context.Context, id, paymentIntentID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	req, ok := s.requests[id]
	if !ok {
		return types.ErrRequestNotFound
	}
	req.PaymentIntentID = paymentIntentID
	req.UpdatedAt = s.now()
	return nil
}

func (s *Store) DeleteRequest(_ context.Context, id string) (*types.DeleteResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.requests[id]; !ok {
		return &types.DeleteResult{Acknowledged: true}, nil
	}

	delete(s.requests, id)
	s.requestOrder = removeID(s.requestOrder, id)
	return &types.DeleteResult{Acknowledged: true, DeletedCount: 1}, nil
}

func (s *Store) CountRequestsByStatus(_ context.Context, status types.FoodStatus) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var n int64
	for _, req := range s.requests {
		if req.Status == status {
			n++
		}
	}
	return n, nil
}

func (s *Store) UpsertUser(_ context.Context, user *types.User) (*types.UpdateResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	existing, ok := s.users[user.Email]
	if !ok {
		stored := *user
		stored.CreatedAt = now
		stored.UpdatedAt = now
		s.users[user.Email] = &stored
		return &types.UpdateResult{Acknowledged: true, UpsertedCount: 1, UpsertedID: user.Email}, nil
	}

	existing.Name = user.Name
	existing.Image = user.Image
	existing.UpdatedAt = now
	return &types.UpdateResult{Acknowledged: true, MatchedCount: 1, ModifiedCount: 1}, nil
}

func (s *Store) CountUsers(_ context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return int64(len(s.users)), nil
}

func removeID(ids []string, id string) []string {
	out := ids[:0]
	for _, v := range ids {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}
