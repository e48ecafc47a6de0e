package checkout

import (
	"context"

	"github.com/noah-isme/backend-pustaka/internal/money"
)

// TaxCalculator produces the tax amount for a taxable base. Implementations
// may use the jurisdiction to select a rate; the calculator is mandatory for
// checkout, a missing one is a configuration error rather than zero tax.
type TaxCalculator interface {
	Tax(ctx context.Context, taxable money.Money, jurisdiction string) (money.Money, error)
}

// FlatRate applies one basis-point rate to every jurisdiction.
type FlatRate struct {
	Bps int64
}

// Tax implements TaxCalculator.
func (f FlatRate) Tax(_ context.Context, taxable money.Money, _ string) (money.Money, error) {
	if f.Bps <= 0 {
		return money.Zero(taxable.Currency()), nil
	}
	return taxable.Percent(f.Bps), nil
}
