package internal

import (
	"context"
	"errors"
	"fmt"
	"time"

	"paygate/entity"
)

// PollPolicy bounds the confirmation loop of the barcode payment path.
// Tests substitute a zero-interval policy for fast execution.
type PollPolicy struct {
	MaxAttempts int
	Interval    time.Duration
}

// DefaultPollPolicy is the fixed production cadence: five attempts,
// five seconds apart.
func DefaultPollPolicy() PollPolicy {
	return PollPolicy{MaxAttempts: 5, Interval: 5 * time.Second}
}

// PayBarcode charges a buyer-presented barcode. The synchronous response
// of this payment mode may be ambiguous ("in progress"), in which case
// the outcome is resolved by polling Query up to the policy budget. On
// exhaustion a compensating Cancel is issued once, best-effort, and the
// operation fails with ErrPaymentTimeout.
func (g *Gateway) PayBarcode(ctx context.Context, merchant *entity.Merchant, order *entity.Order) (*entity.Notify, error) {
	o := *order
	if o.AuthCode == "" {
		return nil, &entity.ValidationError{Op: "barcode pay", Field: "auth_code"}
	}
	if o.Scene == "" {
		o.Scene = "bar_code"
	}

	result, err := g.request(ctx, merchant, entity.MethodPay, &o)
	if err != nil {
		return nil, err
	}
	if result.Succeeded() {
		return result, nil
	}
	if result.TradeNo == "" {
		// nothing to poll for, report the provider verdict directly
		return nil, resultError(result)
	}

	aux := &entity.Auxiliary{OutTradeNo: o.OutTradeNo, TradeNo: result.TradeNo}
	for attempt := 0; attempt < g.poll.MaxAttempts; attempt++ {
		if attempt > 0 && g.poll.Interval > 0 {
			time.Sleep(g.poll.Interval)
		}
		status, err := g.Query(ctx, merchant, aux)
		if err != nil {
			var opErr *OperationError
			if errors.As(err, &opErr) {
				// provider rejected the query, e.g. trade not visible
				// yet; the attempt counts but polling continues
				continue
			}
			// transport failures are fatal, they never consume the
			// polling budget quietly
			return nil, err
		}
		if status.Paid() {
			return status, nil
		}
	}

	// best-effort compensation against a payment that might still
	// complete after the caller gives up; the outcome is not checked
	if _, err := g.Cancel(ctx, merchant, aux); err != nil && g.logger != nil {
		g.logger.Warn(fmt.Sprintf("cancel after timeout: %v", err))
	}
	return nil, ErrPaymentTimeout
}
