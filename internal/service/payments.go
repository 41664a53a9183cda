package service

import (
	"context"
	"strconv"
	"strings"

	"github.com/fork-archive-hub/drive-server/internal/apperr"
	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"
)

const (
	totalMembersField = "total_members"
	storageBytesField = "size_bytes"
)

// CheckoutSession is the part of a teams checkout the orchestrator needs
type CheckoutSession struct {
	Paid           bool
	TotalMembers   int
	SubscriptionID string
}

// Payments is the payments provider as seen by the storage upgrade
type Payments interface {
	RetrieveTeamsCheckoutSession(ctx context.Context, sessionID string) (*CheckoutSession, error)
	// SubscriptionStorage returns the storage in bytes purchased per member
	SubscriptionStorage(ctx context.Context, subscriptionID string) (int64, error)
}

// StripePayments is bound to one Stripe account, chosen once at startup
type StripePayments struct {
	API *client.API
}

func NewStripePayments(key string) *StripePayments {
	return &StripePayments{API: client.New(key, nil)}
}

func (p *StripePayments) RetrieveTeamsCheckoutSession(ctx context.Context, sessionID string) (*CheckoutSession, error) {
	params := &stripe.CheckoutSessionParams{}
	params.Context = ctx

	s, err := p.API.CheckoutSessions.Get(sessionID, params)
	if err != nil {
		return nil, apperr.ErrPaymentsFailed.Wrap(err)
	}

	var subscriptionID string
	if s.Subscription != nil {
		subscriptionID = s.Subscription.ID
	}

	return parseTeamsCheckoutSession(
		s.PaymentStatus == stripe.CheckoutSessionPaymentStatusPaid,
		s.Metadata,
		subscriptionID,
	)
}

func (p *StripePayments) SubscriptionStorage(ctx context.Context, subscriptionID string) (int64, error) {
	subParams := &stripe.SubscriptionParams{}
	subParams.Context = ctx

	sub, err := p.API.Subscriptions.Get(subscriptionID, subParams)
	if err != nil {
		return 0, apperr.ErrPaymentsFailed.Wrap(err)
	}

	if sub.Items == nil || len(sub.Items.Data) == 0 ||
		sub.Items.Data[0].Price == nil || sub.Items.Data[0].Price.Product == nil {
		return 0, apperr.ErrMissingMetadata
	}

	prodParams := &stripe.ProductParams{}
	prodParams.Context = ctx

	product, err := p.API.Products.Get(sub.Items.Data[0].Price.Product.ID, prodParams)
	if err != nil {
		return 0, apperr.ErrPaymentsFailed.Wrap(err)
	}

	return parseStorageBytes(product.Metadata)
}

// parseTeamsCheckoutSession reads the seat count of a paid session. Unpaid
// sessions are returned as such without looking at their metadata.
func parseTeamsCheckoutSession(paid bool, metadata map[string]string, subscriptionID string) (*CheckoutSession, error) {
	if !paid {
		return &CheckoutSession{}, nil
	}

	totalMembers, err := positiveMetadataInt(metadata, totalMembersField)
	if err != nil {
		return nil, err
	}

	return &CheckoutSession{
		Paid:           paid,
		TotalMembers:   int(totalMembers),
		SubscriptionID: subscriptionID,
	}, nil
}

func parseStorageBytes(metadata map[string]string) (int64, error) {
	return positiveMetadataInt(metadata, storageBytesField)
}

// positiveMetadataInt never defaults: quota correctness depends on the exact
// value being present
func positiveMetadataInt(metadata map[string]string, field string) (int64, error) {
	if len(metadata) == 0 {
		return 0, apperr.ErrMissingMetadata
	}

	raw, ok := metadata[field]
	if !ok || strings.TrimSpace(raw) == "" {
		return 0, apperr.MissingMetadataField(field)
	}

	n, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil {
		return 0, apperr.MalformedMetadata(field, err.Error())
	}

	if n <= 0 {
		return 0, apperr.MalformedMetadata(field, "must be bigger than 0")
	}

	return n, nil
}
