package entity

import "time"

// Payment record statuses.
const (
	PaymentStatusCreated   = "created"
	PaymentStatusPaid      = "paid"
	PaymentStatusClosed    = "closed"
	PaymentStatusCancelled = "cancelled"
	PaymentStatusRefunded  = "refunded"
	PaymentStatusFailed    = "failed"
	PaymentStatusTimeout   = "timeout"
)

// Payment is the stored record of one payment attempt. It tracks the
// lifecycle of a trade across initiation, notification and refunds.
type Payment struct {
	OutTradeNo   string    `json:"out_trade_no" bson:"out_trade_no"`
	TradeNo      string    `json:"trade_no" bson:"trade_no"`
	Channel      string    `json:"channel" bson:"channel"`
	Amount       string    `json:"amount" bson:"amount"`
	Subject      string    `json:"subject" bson:"subject"`
	Status       string    `json:"status" bson:"status"`
	Result       string    `json:"result" bson:"result"`
	RefundAmount string    `json:"refund_amount" bson:"refund_amount"`
	TimeCreated  time.Time `json:"time_created" bson:"time_created"`
	TimePaid     time.Time `json:"time_paid,omitempty" bson:"time_paid,omitempty"`
	TimeClosed   time.Time `json:"time_closed,omitempty" bson:"time_closed,omitempty"`
}

// PaymentRequest is the caller-facing payload for initiating a payment.
type PaymentRequest struct {
	Channel    string `json:"channel"`
	OutTradeNo string `json:"out_trade_no"`
	Amount     string `json:"amount"`
	Subject    string `json:"subject"`
	Body       string `json:"body,omitempty"`
	AuthCode   string `json:"auth_code,omitempty"`
	BuyerId    string `json:"buyer_id,omitempty"`
	ReturnUrl  string `json:"return_url,omitempty"`
}

// PaymentResult is the caller-facing outcome of a payment initiation.
// Exactly one of the mode-specific fields is populated per channel.
type PaymentResult struct {
	OutTradeNo  string `json:"out_trade_no"`
	Channel     string `json:"channel"`
	TradeNo     string `json:"trade_no,omitempty"`
	TradeStatus string `json:"trade_status,omitempty"`
	PayForm     string `json:"pay_form,omitempty"`
	PayUrl      string `json:"pay_url,omitempty"`
	OrderString string `json:"order_string,omitempty"`
	QrCode      string `json:"qr_code,omitempty"`
}

// RefundRequest is the caller-facing payload for refunding a payment.
type RefundRequest struct {
	OutTradeNo   string `json:"out_trade_no"`
	TradeNo      string `json:"trade_no,omitempty"`
	Amount       string `json:"amount"`
	Reason       string `json:"reason,omitempty"`
	OutRequestNo string `json:"out_request_no,omitempty"`
}

// LogRecord is one persisted log line.
type LogRecord struct {
	Module    string    `json:"module" bson:"module"`
	Level     string    `json:"level" bson:"level"`
	Message   string    `json:"message" bson:"message"`
	Error     string    `json:"error,omitempty" bson:"error,omitempty"`
	Timestamp time.Time `json:"timestamp" bson:"timestamp"`
}

// DataType implements services.Data for persistence.
func (l *LogRecord) DataType() string {
	return "log_record"
}
