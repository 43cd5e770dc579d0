package entity

// Notify is the parsed result of a synchronous response or an
// asynchronous push from the provider. A Notify built from a push is
// trusted only after its signature has been verified; the trade status
// must never drive fulfilment before that.
type Notify struct {
	Code    string `json:"code" bson:"code"`
	Msg     string `json:"msg" bson:"msg"`
	SubCode string `json:"sub_code" bson:"sub_code"`
	SubMsg  string `json:"sub_msg" bson:"sub_msg"`

	Sign     string `json:"sign" bson:"sign"`
	SignType string `json:"sign_type" bson:"sign_type"`

	AppId      string `json:"app_id" bson:"app_id"`
	Charset    string `json:"charset" bson:"charset"`
	Version    string `json:"version" bson:"version"`
	NotifyId   string `json:"notify_id" bson:"notify_id"`
	NotifyTime string `json:"notify_time" bson:"notify_time"`
	NotifyType string `json:"notify_type" bson:"notify_type"`

	TradeNo        string `json:"trade_no" bson:"trade_no"`
	OutTradeNo     string `json:"out_trade_no" bson:"out_trade_no"`
	TradeStatus    string `json:"trade_status" bson:"trade_status"`
	TotalAmount    string `json:"total_amount" bson:"total_amount"`
	ReceiptAmount  string `json:"receipt_amount" bson:"receipt_amount"`
	BuyerPayAmount string `json:"buyer_pay_amount" bson:"buyer_pay_amount"`
	BuyerLogonId   string `json:"buyer_logon_id" bson:"buyer_logon_id"`
	BuyerUserId    string `json:"buyer_user_id" bson:"buyer_user_id"`
	SellerId       string `json:"seller_id" bson:"seller_id"`
	GmtCreate      string `json:"gmt_create" bson:"gmt_create"`
	GmtPayment     string `json:"gmt_payment" bson:"gmt_payment"`
	SendPayDate    string `json:"send_pay_date" bson:"send_pay_date"`

	// Refund result fields
	OutRequestNo string `json:"out_request_no" bson:"out_request_no"`
	RefundFee    string `json:"refund_fee" bson:"refund_fee"`
	RefundStatus string `json:"refund_status" bson:"refund_status"`
	FundChange   string `json:"fund_change" bson:"fund_change"`
	GmtRefundPay string `json:"gmt_refund_pay" bson:"gmt_refund_pay"`

	// Mode-specific extras
	QrCode          string `json:"qr_code" bson:"qr_code"`
	BillDownloadUrl string `json:"bill_download_url" bson:"bill_download_url"`
}

// Succeeded reports whether the response carries the canonical success
// result code.
func (n *Notify) Succeeded() bool {
	return n.Code == CodeSuccess
}

// Paid reports whether the trade status marks the payment as completed.
func (n *Notify) Paid() bool {
	return n.TradeStatus == TradeStatusSuccess || n.TradeStatus == TradeStatusFinished
}

// DataType implements services.Data for persistence.
func (n *Notify) DataType() string {
	return "notification"
}
