package types

import "time"

// User is keyed by email; profiles are upserted by the client after login.
type User struct {
	Email     string    `json:"email" bson:"_id"`
	Name      string    `json:"name" bson:"name"`
	Image     string    `json:"image" bson:"image"`
	CreatedAt time.Time `json:"createdAt" bson:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt" bson:"updatedAt"`
}

type Stats struct {
	Users     int64 `json:"users"`
	Delivered int64 `json:"delivered"`
}
