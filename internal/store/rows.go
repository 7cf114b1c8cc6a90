package store

import (
	"encoding/json"
	"fmt"
	"time"

	"foodforall/internal/utils"
	"foodforall/pkg/types"
)

type foodRow struct {
	ID              string     `db:"id"`
	Name            string     `db:"food_name"`
	Image           string     `db:"food_image"`
	Quantity        int        `db:"food_quantity"`
	PickupLocation  string     `db:"pickup_location"`
	ExpiredDateTime *time.Time `db:"expired_date_time"`
	AdditionalNotes string     `db:"additional_notes"`
	DonatorName     string     `db:"donator_name"`
	DonatorEmail    string     `db:"donator_email"`
	DonatorImage    string     `db:"donator_image"`
	Status          string     `db:"food_status"`
	CreatedAt       time.Time  `db:"created_at"`
	UpdatedAt       time.Time  `db:"updated_at"`
}

var foodColumns = utils.StructTagValues(foodRow{})

func newFoodRow(food *types.Food) *foodRow {
	row := &foodRow{
		ID:              food.ID,
		Name:            food.Name,
		Image:           food.Image,
		Quantity:        food.Quantity,
		PickupLocation:  food.PickupLocation,
		AdditionalNotes: food.AdditionalNotes,
		DonatorName:     food.Donator.Name,
		DonatorEmail:    food.Donator.Email,
		DonatorImage:    food.Donator.Image,
		Status:          string(food.Status),
		CreatedAt:       food.CreatedAt,
		UpdatedAt:       food.UpdatedAt,
	}

	if !food.ExpiredDateTime.IsZero() {
		expires := food.ExpiredDateTime
		row.ExpiredDateTime = &expires
	}

	return row
}

func (r *foodRow) food() *types.Food {
	food := &types.Food{
		ID:              r.ID,
		Name:            r.Name,
		Image:           r.Image,
		Quantity:        r.Quantity,
		PickupLocation:  r.PickupLocation,
		AdditionalNotes: r.AdditionalNotes,
		Donator: types.Donator{
			Name:  r.DonatorName,
			Email: r.DonatorEmail,
			Image: r.DonatorImage,
		},
		Status:    types.FoodStatus(r.Status),
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}

	if r.ExpiredDateTime != nil {
		food.ExpiredDateTime = *r.ExpiredDateTime
	}

	return food
}

// requestRow stores the listing snapshot as jsonb; it is never queried
// beyond its id, which is copied into food_id.
type requestRow struct {
	ID              string     `db:"id"`
	FoodID          string     `db:"food_id"`
	Food            []byte     `db:"food"`
	RequesterName   string     `db:"requester_name"`
	RequesterEmail  string     `db:"requester_email"`
	RequesterImage  string     `db:"requester_image"`
	DonationMoney   float64    `db:"donation_money"`
	AdditionalNotes string     `db:"additional_notes"`
	RequestedDate   *time.Time `db:"requested_date"`
	Status          string     `db:"status"`
	PaymentIntentID *string    `db:"payment_intent_id"`
	CreatedAt       time.Time  `db:"created_at"`
	UpdatedAt       time.Time  `db:"updated_at"`
}

var requestColumns = utils.StructTagValues(requestRow{})

func newRequestRow(req *types.FoodRequest) (*requestRow, error) {
	snapshot, err := json.Marshal(req.Food)
	if err != nil {
		return nil, fmt.Errorf("failed to encode food snapshot: %w", err)
	}

	row := &requestRow{
		ID:              req.ID,
		FoodID:          req.Food.ID,
		Food:            snapshot,
		RequesterName:   req.Requester.Name,
		RequesterEmail:  req.Requester.Email,
		RequesterImage:  req.Requester.Image,
		DonationMoney:   req.DonationMoney,
		AdditionalNotes: req.AdditionalNotes,
		Status:          string(req.Status),
		CreatedAt:       req.CreatedAt,
		UpdatedAt:       req.UpdatedAt,
	}

	if !req.RequestedDate.IsZero() {
		requested := req.RequestedDate
		row.RequestedDate = &requested
	}

	if req.PaymentIntentID != "" {
		row.PaymentIntentID = &req.PaymentIntentID
	}

	return row, nil
}

func (r *requestRow) request() (*types.FoodRequest, error) {
	req := &types.FoodRequest{
		ID: r.ID,
		Requester: types.Requester{
			Name:  r.RequesterName,
			Email: r.RequesterEmail,
			Image: r.RequesterImage,
		},
		DonationMoney:   r.DonationMoney,
		AdditionalNotes: r.AdditionalNotes,
		Status:          types.FoodStatus(r.Status),
		CreatedAt:       r.CreatedAt,
		UpdatedAt:       r.UpdatedAt,
	}

	if len(r.Food) > 0 {
		if err := json.Unmarshal(r.Food, &req.Food); err != nil {
			return nil, fmt.Errorf("failed to decode food snapshot for request %s: %w", r.ID, err)
		}
	}

	if r.RequestedDate != nil {
		req.RequestedDate = *r.RequestedDate
	}

	if r.PaymentIntentID != nil {
		req.PaymentIntentID = *r.PaymentIntentID
	}

	return req, nil
}

type userRow struct {
	Email     string    `db:"email"`
	Name      string    `db:"name"`
	Image     string    `db:"image"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}
