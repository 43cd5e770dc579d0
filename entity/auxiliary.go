package entity

import "fmt"

// Lifecycle operations an Auxiliary bundle can be validated against.
const (
	OpQuery       = "query"
	OpCancel      = "cancel"
	OpClose       = "close"
	OpRefund      = "refund"
	OpRefundQuery = "refund query"
)

// ValidationError reports a missing required field before any network
// call is made.
type ValidationError struct {
	Op    string
	Field string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: missing required field %s", e.Op, e.Field)
}

// Auxiliary carries the parameters of a lifecycle operation on an
// existing trade: query, cancel, close, refund and refund query.
// It is marshalled as biz_content after Validate passes.
type Auxiliary struct {
	// OutTradeNo or TradeNo selects the target trade; at least one is required
	OutTradeNo string `json:"out_trade_no,omitempty"`
	TradeNo    string `json:"trade_no,omitempty"`
	// OutRequestNo identifies one refund among several for the same trade
	OutRequestNo string `json:"out_request_no,omitempty"`
	RefundAmount string `json:"refund_amount,omitempty"`
	RefundReason string `json:"refund_reason,omitempty"`
	OperatorId   string `json:"operator_id,omitempty"`
}

// Validate checks the operation-specific required fields.
func (a *Auxiliary) Validate(op string) error {
	if a.OutTradeNo == "" && a.TradeNo == "" {
		return &ValidationError{Op: op, Field: "out_trade_no or trade_no"}
	}
	switch op {
	case OpRefund:
		if a.RefundAmount == "" {
			return &ValidationError{Op: op, Field: "refund_amount"}
		}
	case OpRefundQuery:
		if a.OutRequestNo == "" {
			return &ValidationError{Op: op, Field: "out_request_no"}
		}
	}
	return nil
}
