// Package payments abstracts the external payment processor. All amounts are
// integer minor currency units (fils/cents). The settlement engine and the
// Connect lifecycle manager talk to this interface only; Stripe specifics stay
// inside the adapter.
package payments

import "context"

type TransferInput struct {
	AmountCents          int64
	Currency             string
	DestinationAccountID string
	// Reference tags the movement with the booking reference code so the
	// transfer can be found again for reconciliation.
	Reference      string
	Metadata       map[string]string
	IdempotencyKey string
}

type TransferResult struct {
	ID string
}

type RefundInput struct {
	ChargeID       string
	AmountCents    int64
	Reason         string
	Metadata       map[string]string
	IdempotencyKey string
}

type RefundResult struct {
	ID string
}

type AccountInput struct {
	CountryCode string
	Email       string
	Metadata    map[string]string
}

// AccountStatus is the processor-side view of a Connect account. Status is
// "enabled" once both charges and payouts work, "restricted" when details were
// submitted but a capability is blocked, otherwise "pending".
type AccountStatus struct {
	ID               string
	Status           string
	ChargesEnabled   bool
	PayoutsEnabled   bool
	DetailsSubmitted bool
}

type Processor interface {
	CreateTransfer(ctx context.Context, in TransferInput) (*TransferResult, error)
	CreateRefund(ctx context.Context, in RefundInput) (*RefundResult, error)

	// ChargeIDFromPaymentIntent resolves the charge backing a payment intent,
	// needed to refund the deposit portion of the original payment.
	ChargeIDFromPaymentIntent(ctx context.Context, paymentIntentID string) (string, error)

	// FindTransferByReference looks up an existing transfer tagged with the
	// given booking reference. Returns (nil, nil) when none exists. Used to
	// resolve unknown outcomes after timeouts.
	FindTransferByReference(ctx context.Context, reference string) (*TransferResult, error)

	CreateConnectAccount(ctx context.Context, in AccountInput) (string, error)
	CreateAccountLink(ctx context.Context, accountID, refreshURL, returnURL string) (string, error)
	GetConnectAccountStatus(ctx context.Context, accountID string) (*AccountStatus, error)
}
