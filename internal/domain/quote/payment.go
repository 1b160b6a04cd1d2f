package quote

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/yanqian/solarinfra/pkg/util"
)

// PaymentGateway charges an approved quote.
type PaymentGateway interface {
	Charge(ctx context.Context, q Quote, amount decimal.Decimal) (PaymentReceipt, error)
}

// SimulatedGateway approves every charge without moving money.
type SimulatedGateway struct {
	Clock util.Clock
}

// Charge issues a reference of the form SIM-XXXXXXXXXXXX.
func (g SimulatedGateway) Charge(ctx context.Context, _ Quote, amount decimal.Decimal) (PaymentReceipt, error) {
	if err := ctx.Err(); err != nil {
		return PaymentReceipt{}, err
	}
	ref := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))[:12]
	return PaymentReceipt{
		Reference: "SIM-" + ref,
		Amount:    amount,
		PaidAt:    g.Clock.OrNow()(),
	}, nil
}

var _ PaymentGateway = SimulatedGateway{}
