// Package entity defines data models for the Paygate payment service.
package entity

import "strings"

// Provider API methods. Each payment mode and lifecycle operation maps
// to exactly one method; Merchant.Method must carry it before signing.
const (
	MethodPagePay     = "alipay.trade.page.pay"
	MethodWapPay      = "alipay.trade.wap.pay"
	MethodAppPay      = "alipay.trade.app.pay"
	MethodPrecreate   = "alipay.trade.precreate"
	MethodCreate      = "alipay.trade.create"
	MethodPay         = "alipay.trade.pay"
	MethodQuery       = "alipay.trade.query"
	MethodCancel      = "alipay.trade.cancel"
	MethodClose       = "alipay.trade.close"
	MethodRefund      = "alipay.trade.refund"
	MethodRefundQuery = "alipay.trade.fastpay.refund.query"
	MethodBillQuery   = "alipay.data.dataservice.bill.downloadurl.query"
)

// Product codes fixed by the provider contract per payment mode.
const (
	ProductCodeInstantTrade = "FAST_INSTANT_TRADE_PAY"
	ProductCodeWap          = "QUICK_WAP_WAY"
	ProductCodeApp          = "QUICK_MSECURITY_PAY"
	ProductCodeFaceToFace   = "FACE_TO_FACE_PAYMENT"
)

// Result codes returned in the response envelope.
const (
	CodeSuccess    = "10000"
	CodeInProgress = "10003"
)

// Trade statuses carried by query responses and asynchronous notifications.
const (
	TradeStatusWaitBuyerPay = "WAIT_BUYER_PAY"
	TradeStatusClosed       = "TRADE_CLOSED"
	TradeStatusSuccess      = "TRADE_SUCCESS"
	TradeStatusFinished     = "TRADE_FINISHED"
)

// Payment channels accepted by the service API.
const (
	ChannelPage    = "page"
	ChannelWap     = "wap"
	ChannelApp     = "app"
	ChannelQrCode  = "qrcode"
	ChannelBarcode = "barcode"
	ChannelMini    = "mini"
)

// ResponseKey returns the envelope field holding the result payload for
// the given API method, e.g. "alipay.trade.query" ->
// "alipay_trade_query_response".
func ResponseKey(method string) string {
	return strings.ReplaceAll(method, ".", "_") + "_response"
}
