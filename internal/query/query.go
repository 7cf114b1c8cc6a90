// Package query turns listing and request query strings into backend
// neutral filters. Each store translates them into its own dialect.
package query

import (
	"fmt"
	"net/url"
	"sort"
	"strings"

	"foodforall/pkg/types"

	"github.com/go-playground/form/v4"
)

type NameMatch string

const (
	NameMatchExact    NameMatch = "exact"
	NameMatchContains NameMatch = "contains"
)

type SortOrder int

const (
	SortNone SortOrder = iota
	SortQuantityDesc
	SortExpiryAsc
)

func (o SortOrder) String() string {
	switch o {
	case SortQuantityDesc:
		return "quantity_desc"
	case SortExpiryAsc:
		return "expiry_asc"
	}
	return "none"
}

type ListingFilter struct {
	Status       types.FoodStatus
	Name         string
	NameMatch    NameMatch
	DonatorEmail string
	ID           string
}

type ListingQuery struct {
	Filter ListingFilter
	Sort   SortOrder
}

type RequestFilter struct {
	RequesterEmail string
	FoodID         string
}

// Config names the query parameters that switch each sort on. A sort is
// active when its parameter equals "1".
type Config struct {
	QuantityParam string
	ExpiryParam   string
	NameMatch     NameMatch
}

type Builder struct {
	config  Config
	decoder *form.Decoder
}

type listingParams struct {
	Name  string `form:"name"`
	Email string `form:"email"`
	ID    string `form:"id"`
}

type requestParams struct {
	Email  string `form:"email"`
	FoodID string `form:"foodId"`
}

func NewBuilder(config Config) (*Builder, error) {
	if config.NameMatch == "" {
		config.NameMatch = NameMatchExact
	}

	if config.NameMatch != NameMatchExact && config.NameMatch != NameMatchContains {
		return nil, fmt.Errorf("unsupported name match mode %q", config.NameMatch)
	}

	if config.QuantityParam == "" {
		config.QuantityParam = "quantity"
	}

	if config.ExpiryParam == "" {
		config.ExpiryParam = "Sort"
	}

	return &Builder{config: config, decoder: form.NewDecoder()}, nil
}

// Listing builds the public listing query. The status is always pinned to
// available; callers cannot widen it.
func (b *Builder) Listing(values url.Values) (ListingQuery, error) {
	var params listingParams
	if err := b.decoder.Decode(&params, values); err != nil {
		return ListingQuery{}, fmt.Errorf("decode listing params: %w", err)
	}

	q := ListingQuery{
		Filter: ListingFilter{
			Status:       types.FoodStatusAvailable,
			Name:         strings.TrimSpace(params.Name),
			NameMatch:    b.config.NameMatch,
			DonatorEmail: strings.TrimSpace(params.Email),
			ID:           strings.TrimSpace(params.ID),
		},
	}

	// expiry is checked last so it wins when both are set
	if values.Get(b.config.QuantityParam) == "1" {
		q.Sort = SortQuantityDesc
	}
	if values.Get(b.config.ExpiryParam) == "1" {
		q.Sort = SortExpiryAsc
	}

	return q, nil
}

func (b *Builder) Requests(values url.Values) (RequestFilter, error) {
	var params requestParams
	if err := b.decoder.Decode(&params, values); err != nil {
		return RequestFilter{}, fmt.Errorf("decode request params: %w", err)
	}

	return RequestFilter{
		RequesterEmail: strings.TrimSpace(params.Email),
		FoodID:         strings.TrimSpace(params.FoodID),
	}, nil
}

func (f ListingFilter) Matches(food *types.Food) bool {
	if f.Status != "" && food.Status != f.Status {
		return false
	}

	if f.Name != "" {
		switch f.NameMatch {
		case NameMatchContains:
			if !strings.Contains(strings.ToLower(food.Name), strings.ToLower(f.Name)) {
				return false
			}
		default:
			if food.Name != f.Name {
				return false
			}
		}
	}

	if f.DonatorEmail != "" && food.Donator.Email != f.DonatorEmail {
		return false
	}

	if f.ID != "" && food.ID != f.ID {
		return false
	}

	return true
}

func (f RequestFilter) Matches(req *types.FoodRequest) bool {
	if f.RequesterEmail != "" && req.Requester.Email != f.RequesterEmail {
		return false
	}

	if f.FoodID != "" && req.Food.ID != f.FoodID {
		return false
	}

	return true
}

// SortFoods orders foods in place. Ties keep their existing order.
func SortFoods(foods []*types.Food, order SortOrder) {
	switch order {
	case SortQuantityDesc:
		sort.SliceStable(foods, func(i, j int) bool {
			return foods[i].Quantity > foods[j].Quantity
		})
	case SortExpiryAsc:
		sort.SliceStable(foods, func(i, j int) bool {
			return foods[i].ExpiredDateTime.Before(foods[j].ExpiredDateTime)
		})
	}
}
