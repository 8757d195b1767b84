package payments

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	stripe "github.com/stripe/stripe-go/v78"
	"github.com/stripe/stripe-go/v78/client"
	"go.uber.org/zap"
)

// StripeProcessor implements Processor on Stripe Connect.
type StripeProcessor struct {
	api *client.API
	log *zap.Logger
}

// NewStripe builds the adapter with a bounded-timeout HTTP client so a hung
// processor call cannot block a settlement run indefinitely.
func NewStripe(secretKey string, logger *zap.Logger) *StripeProcessor {
	httpClient := &http.Client{Timeout: 30 * time.Second}
	api := &client.API{}
	api.Init(secretKey, stripe.NewBackends(httpClient))
	return &StripeProcessor{api: api, log: logger}
}

func (p *StripeProcessor) CreateTransfer(ctx context.Context, in TransferInput) (*TransferResult, error) {
	params := &stripe.TransferParams{
		Amount:        stripe.Int64(in.AmountCents),
		Currency:      stripe.String(strings.ToLower(in.Currency)),
		Destination:   stripe.String(in.DestinationAccountID),
		TransferGroup: stripe.String(in.Reference),
	}
	params.Context = ctx
	for k, v := range in.Metadata {
		params.AddMetadata(k, v)
	}
	if in.IdempotencyKey != "" {
		params.SetIdempotencyKey(in.IdempotencyKey)
	}

	tr, err := p.api.Transfers.New(params)
	if err != nil {
		return nil, p.classify("create transfer", err)
	}
	return &TransferResult{ID: tr.ID}, nil
}

func (p *StripeProcessor) CreateRefund(ctx context.Context, in RefundInput) (*RefundResult, error) {
	params := &stripe.RefundParams{
		Charge: stripe.String(in.ChargeID),
		Amount: stripe.Int64(in.AmountCents),
	}
	params.Context = ctx
	if in.Reason != "" {
		params.Reason = stripe.String(in.Reason)
	}
	for k, v := range in.Metadata {
		params.AddMetadata(k, v)
	}
	if in.IdempotencyKey != "" {
		params.SetIdempotencyKey(in.IdempotencyKey)
	}

	ref, err := p.api.Refunds.New(params)
	if err != nil {
		return nil, p.classify("create refund", err)
	}
	return &RefundResult{ID: ref.ID}, nil
}

func (p *StripeProcessor) ChargeIDFromPaymentIntent(ctx context.Context, paymentIntentID string) (string, error) {
	params := &stripe.PaymentIntentParams{}
	params.Context = ctx

	pi, err := p.api.PaymentIntents.Get(paymentIntentID, params)
	if err != nil {
		return "", p.classify("get payment intent", err)
	}
	if pi.LatestCharge == nil || pi.LatestCharge.ID == "" {
		return "", &Error{Op: "get payment intent", Code: ErrCodeNotFound, Msg: "payment intent has no charge"}
	}
	return pi.LatestCharge.ID, nil
}

func (p *StripeProcessor) FindTransferByReference(ctx context.Context, reference string) (*TransferResult, error) {
	params := &stripe.TransferListParams{TransferGroup: stripe.String(reference)}
	params.Context = ctx
	params.Limit = stripe.Int64(1)

	iter := p.api.Transfers.List(params)
	for iter.Next() {
		return &TransferResult{ID: iter.Transfer().ID}, nil
	}
	if err := iter.Err(); err != nil {
		return nil, p.classify("list transfers", err)
	}
	return nil, nil
}

func (p *StripeProcessor) CreateConnectAccount(ctx context.Context, in AccountInput) (string, error) {
	params := &stripe.AccountParams{
		Type:    stripe.String(string(stripe.AccountTypeExpress)),
		Country: stripe.String(in.CountryCode),
		Capabilities: &stripe.AccountCapabilitiesParams{
			CardPayments: &stripe.AccountCapabilitiesCardPaymentsParams{Requested: stripe.Bool(true)},
			Transfers:    &stripe.AccountCapabilitiesTransfersParams{Requested: stripe.Bool(true)},
		},
	}
	params.Context = ctx
	if in.Email != "" {
		params.Email = stripe.String(in.Email)
	}
	for k, v := range in.Metadata {
		params.AddMetadata(k, v)
	}

	acct, err := p.api.Accounts.New(params)
	if err != nil {
		return "", p.classify("create account", err)
	}
	return acct.ID, nil
}

func (p *StripeProcessor) CreateAccountLink(ctx context.Context, accountID, refreshURL, returnURL string) (string, error) {
	params := &stripe.AccountLinkParams{
		Account:    stripe.String(accountID),
		RefreshURL: stripe.String(refreshURL),
		ReturnURL:  stripe.String(returnURL),
		Type:       stripe.String(string(stripe.AccountLinkTypeAccountOnboarding)),
	}
	params.Context = ctx

	link, err := p.api.AccountLinks.New(params)
	if err != nil {
		return "", p.classify("create account link", err)
	}
	return link.URL, nil
}

func (p *StripeProcessor) GetConnectAccountStatus(ctx context.Context, accountID string) (*AccountStatus, error) {
	params := &stripe.AccountParams{}
	params.Context = ctx

	acct, err := p.api.Accounts.GetByID(accountID, params)
	if err != nil {
		return nil, p.classify("get account", err)
	}

	status := "pending"
	switch {
	case acct.ChargesEnabled && acct.PayoutsEnabled:
		status = "enabled"
	case acct.DetailsSubmitted:
		status = "restricted"
	}

	return &AccountStatus{
		ID:               acct.ID,
		Status:           status,
		ChargesEnabled:   acct.ChargesEnabled,
		PayoutsEnabled:   acct.PayoutsEnabled,
		DetailsSubmitted: acct.DetailsSubmitted,
	}, nil
}

func (p *StripeProcessor) classify(op string, err error) error {
	classified := classify(op, err)
	if p.log != nil {
		p.log.Warn("stripe call failed",
			zap.String("op", op),
			zap.String("code", string(CodeOf(classified))),
			zap.Error(err),
		)
	}
	return classified
}

// classify maps a raw Stripe error onto the typed taxonomy. Substring matching
// on capability markers only happens here, as an adapter-boundary fallback for
// responses that carry no usable code.
func classify(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return &Error{Op: op, Code: ErrCodeUnavailable, Msg: "request timed out", Err: err}
	}

	var sErr *stripe.Error
	if errors.As(err, &sErr) {
		return &Error{Op: op, Code: codeFromStripe(sErr), Msg: sErr.Msg, Err: err}
	}
	return &Error{Op: op, Code: ErrCodeUnknown, Msg: err.Error(), Err: err}
}

func codeFromStripe(sErr *stripe.Error) ErrorCode {
	if sErr.HTTPStatusCode >= 500 {
		return ErrCodeUnavailable
	}
	switch sErr.Code {
	case stripe.ErrorCodeRateLimit:
		return ErrCodeRateLimited
	case stripe.ErrorCodeResourceMissing:
		return ErrCodeNotFound
	case stripe.ErrorCodeAccountInvalid:
		return ErrCodeCapability
	}
	if hasCapabilityMarker(string(sErr.Code)) || hasCapabilityMarker(sErr.Param) || hasCapabilityMarker(sErr.Msg) {
		return ErrCodeCapability
	}
	if sErr.Type == stripe.ErrorTypeInvalidRequest {
		return ErrCodeInvalidRequest
	}
	return ErrCodeUnknown
}

var capabilityMarkers = []string{"capability", "transfers", "card_payments", "requested_capabilities"}

func hasCapabilityMarker(s string) bool {
	s = strings.ToLower(s)
	for _, marker := range capabilityMarkers {
		if strings.Contains(s, marker) {
			return true
		}
	}
	return false
}
