package types

import (
	"encoding/json"
	"math"
	"time"
)

type Requester struct {
	Name  string `json:"name" bson:"name"`
	Email string `json:"email" bson:"email"`
	Image string `json:"image" bson:"image"`
}

// FoodRequest is a recipient's claim on a listing. Food is a snapshot taken
// when the request was created and is not kept in sync with the listing.
type FoodRequest struct {
	ID              string     `json:"_id" bson:"_id"`
	Food            Food       `json:"food" bson:"food"`
	Requester       Requester  `json:"requester" bson:"requester"`
	DonationMoney   float64    `json:"donationMoney" bson:"donationMoney"`
	AdditionalNotes string     `json:"additionalNotes" bson:"additionalNotes"`
	RequestedDate   time.Time  `json:"requestedDate" bson:"requestedDate"`
	Status          FoodStatus `json:"status" bson:"status"`
	PaymentIntentID string     `json:"paymentIntentId,omitempty" bson:"paymentIntentId,omitempty"`
	CreatedAt       time.Time  `json:"createdAt" bson:"createdAt"`
	UpdatedAt       time.Time  `json:"updatedAt" bson:"updatedAt"`
}

// UnmarshalJSON also reads notes sent under the misspelled "AdditionlNotes" key.
func (r *FoodRequest) UnmarshalJSON(data []byte) error {
	type alias FoodRequest
	aux := struct {
		*alias
		LegacyNotes string `json:"AdditionlNotes"`
	}{alias: (*alias)(r)}

	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}

	if r.AdditionalNotes == "" && aux.LegacyNotes != "" {
		r.AdditionalNotes = aux.LegacyNotes
	}

	return nil
}

// DonationCents converts the donation amount to the smallest currency unit.
func (r *FoodRequest) DonationCents() int64 {
	return int64(math.Round(r.DonationMoney * 100))
}
