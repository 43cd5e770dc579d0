package entity

// Order is one payment intent. It is marshalled as the biz_content of a
// payment-initiating request and must not change once submitted.
type Order struct {
	// OutTradeNo is the merchant-side order number, unique per attempt
	OutTradeNo string `json:"out_trade_no,omitempty"`
	// TotalAmount in units with two decimals, e.g. "12.50"
	TotalAmount string `json:"total_amount,omitempty"`
	Subject     string `json:"subject,omitempty"`
	Body        string `json:"body,omitempty"`
	ProductCode string `json:"product_code,omitempty"`
	// AuthCode is the buyer-presented barcode for in-person payments
	AuthCode string `json:"auth_code,omitempty"`
	// Scene is "bar_code" for barcode payments
	Scene string `json:"scene,omitempty"`
	// BuyerId identifies the buyer for server-side trade creation
	BuyerId        string `json:"buyer_id,omitempty"`
	TimeoutExpress string `json:"timeout_express,omitempty"`
	TimeExpire     string `json:"time_expire,omitempty"`
	PassbackParams string `json:"passback_params,omitempty"`
	QuitUrl        string `json:"quit_url,omitempty"`
	StoreId        string `json:"store_id,omitempty"`
	OperatorId     string `json:"operator_id,omitempty"`
}
