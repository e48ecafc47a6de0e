package catalog

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestValidateDiscountAllOrNothing(t *testing.T) {
	start := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	end := start.Add(48 * time.Hour)
	amount := int64(1900)

	cases := []struct {
		name    string
		payload pricingPayload
		wantErr bool
	}{
		{"no discount", pricingPayload{PriceMinor: 2500}, false},
		{"full discount", pricingPayload{PriceMinor: 2500, DiscountMinor: &amount, DiscountStart: &start, DiscountEnd: &end}, false},
		{"amount only", pricingPayload{PriceMinor: 2500, DiscountMinor: &amount}, true},
		{"missing end", pricingPayload{PriceMinor: 2500, DiscountMinor: &amount, DiscountStart: &start}, true},
		{"window only", pricingPayload{PriceMinor: 2500, DiscountStart: &start, DiscountEnd: &end}, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := validateDiscount(tc.payload)
			if tc.wantErr {
				require.NotNil(t, err)
				require.Equal(t, http.StatusUnprocessableEntity, err.HTTPStatus)
			} else {
				require.Nil(t, err)
			}
		})
	}
}

func TestValidateDiscountBounds(t *testing.T) {
	start := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	end := start.Add(48 * time.Hour)

	tooBig := int64(2500)
	p := pricingPayload{PriceMinor: 2500, DiscountMinor: &tooBig, DiscountStart: &start, DiscountEnd: &end}
	require.NotNil(t, validateDiscount(p))

	zero := int64(0)
	p.DiscountMinor = &zero
	require.NotNil(t, validateDiscount(p))

	ok := int64(100)
	p.DiscountMinor = &ok
	require.Nil(t, validateDiscount(p))

	// inverted window
	p.DiscountStart = &end
	p.DiscountEnd = &start
	require.NotNil(t, validateDiscount(p))
}
