package types

import (
	"time"
)

type FoodStatus string

const (
	FoodStatusAvailable FoodStatus = "available"
	FoodStatusRequested FoodStatus = "requested"
	FoodStatusDelivered FoodStatus = "delivered"
)

func (s FoodStatus) Valid() bool {
	switch s {
	case FoodStatusAvailable, FoodStatusRequested, FoodStatusDelivered:
		return true
	}
	return false
}

// ParseFoodStatus accepts the legacy "deliverd" spelling some clients still send.
func ParseFoodStatus(v string) (FoodStatus, error) {
	status := FoodStatus(v)
	if v == "deliverd" {
		status = FoodStatusDelivered
	}
	if !status.Valid() {
		return "", ErrInvalidStatus
	}
	return status, nil
}

type Donator struct {
	Name  string `json:"donatorName" bson:"donatorName"`
	Email string `json:"donatorEmail" bson:"donatorEmail"`
	Image string `json:"donatorImage" bson:"donatorImage"`
}

// Food is a listing of surplus food offered by a donator.
type Food struct {
	ID              string     `json:"_id" bson:"_id"`
	Name            string     `json:"foodName" bson:"foodName"`
	Image           string     `json:"foodImage" bson:"foodImage"`
	Quantity        int        `json:"foodQuantity" bson:"foodQuantity"`
	PickupLocation  string     `json:"pickupLocation" bson:"pickupLocation"`
	ExpiredDateTime time.Time  `json:"expiredDateTime" bson:"expiredDateTime"`
	AdditionalNotes string     `json:"additionalNotes" bson:"additionalNotes"`
	Donator         Donator    `json:"donator" bson:"donator"`
	Status          FoodStatus `json:"foodStatus" bson:"foodStatus"`
	CreatedAt       time.Time  `json:"createdAt" bson:"createdAt"`
	UpdatedAt       time.Time  `json:"updatedAt" bson:"updatedAt"`
}
