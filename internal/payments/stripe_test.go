package payments

import (
	"testing"

	"foodforall/pkg/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIntentParams(t *testing.T) {
	req := &types.FoodRequest{
		ID:            "r1",
		Food:          types.Food{ID: "f1", Donator: types.Donator{Email: "donor@example.com"}},
		Requester:     types.Requester{Email: "r@example.com"},
		DonationMoney: 12.5,
	}

	params, err := intentParams(req, "usd")
	require.NoError(t, err)

	assert.Equal(t, int64(1250), *params.Amount)
	assert.Equal(t, "usd", *params.Currency)
	assert.Equal(t, "r@example.com", *params.ReceiptEmail)
	assert.Equal(t, "r1", params.Metadata["request_id"])
	assert.Equal(t, "f1", params.Metadata["food_id"])
}

func TestIntentParamsRejectsNonPositive(t *testing.T) {
	for _, amount := range []float64{0, -5, 0.004} {
		_, err := intentParams(&types.FoodRequest{DonationMoney: amount}, "usd")
		assert.ErrorIs(t, err, ErrInvalidAmount)
	}
}
