package seed

import (
	"context"
	"fmt"
	"time"

	"foodforall/pkg/types"
)

type FoodUpserter interface {
	UpsertFood(ctx context.Context, id string, food *types.Food) (*types.UpdateResult, error)
}

type UserUpserter interface {
	UpsertUser(ctx context.Context, user *types.User) (*types.UpdateResult, error)
}

var donors = []types.Donator{
	{Name: "Ava Williams", Email: "ava.williams+seed1@example.com", Image: "https://i.pravatar.cc/150?u=seed1"},
	{Name: "Liam Johnson", Email: "liam.johnson+seed2@example.com", Image: "https://i.pravatar.cc/150?u=seed2"},
	{Name: "Mia Davis", Email: "mia.davis+seed3@example.com", Image: "https://i.pravatar.cc/150?u=seed3"},
}

type foodSeed struct {
	ID       string
	Name     string
	Quantity int
	Location string
	Notes    string
	Donor    int
	ExpireIn time.Duration
}

var foodSeeds = []foodSeed{
	{ID: "seedfood000000000000001", Name: "Vegetable Biryani", Quantity: 12, Location: "14 Market St", Notes: "Packed in foil trays", Donor: 0, ExpireIn: 18 * time.Hour},
	{ID: "seedfood000000000000002", Name: "Whole Wheat Bread", Quantity: 30, Location: "Corner Bakery, 2nd Ave", Notes: "Baked this morning", Donor: 1, ExpireIn: 48 * time.Hour},
	{ID: "seedfood000000000000003", Name: "Fresh Apples", Quantity: 40, Location: "Riverside Community Garden", Donor: 2, ExpireIn: 7 * 24 * time.Hour},
	{ID: "seedfood000000000000004", Name: "Lentil Soup", Quantity: 8, Location: "14 Market St", Notes: "Bring your own container", Donor: 0, ExpireIn: 10 * time.Hour},
	{ID: "seedfood000000000000005", Name: "Rice", Quantity: 25, Location: "Corner Bakery, 2nd Ave", Notes: "5kg bags", Donor: 1, ExpireIn: 30 * 24 * time.Hour},
}

// Foods builds the sample listings relative to now.
func Foods(now time.Time) []*types.Food {
	foods := make([]*types.Food, 0, len(foodSeeds))
	for _, s := range foodSeeds {
		foods = append(foods, &types.Food{
			ID:              s.ID,
			Name:            s.Name,
			Image:           "https://picsum.photos/seed/" + s.ID + "/640/480",
			Quantity:        s.Quantity,
			PickupLocation:  s.Location,
			ExpiredDateTime: now.Add(s.ExpireIn).UTC().Truncate(time.Minute),
			AdditionalNotes: s.Notes,
			Donator:         donors[s.Donor],
			Status:          types.FoodStatusAvailable,
		})
	}
	return foods
}

// Users returns a profile for every sample donor.
func Users() []*types.User {
	users := make([]*types.User, 0, len(donors))
	for _, d := range donors {
		users = append(users, &types.User{Email: d.Email, Name: d.Name, Image: d.Image})
	}
	return users
}

// SeedFoods upserts the sample donors and listings. Ids are fixed so running
// it twice resets the samples instead of duplicating them.
func SeedFoods(ctx context.Context, foods FoodUpserter, users UserUpserter, now time.Time) (int, error) {
	for _, user := range Users() {
		if _, err := users.UpsertUser(ctx, user); err != nil {
			return 0, fmt.Errorf("failed to seed user %s: %w", user.Email, err)
		}
	}

	seeded := 0
	for _, food := range Foods(now) {
		if _, err := foods.UpsertFood(ctx, food.ID, food); err != nil {
			return seeded, fmt.Errorf("failed to seed food %s: %w", food.ID, err)
		}
		seeded++
	}

	return seeded, nil
}
