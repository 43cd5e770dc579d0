package services

// Capability interfaces of the provider gateway. The protocol engine
// implements all of them; consumers depend only on the capabilities they
// actually use.

import (
	"context"
	"net/url"

	"paygate/entity"
)

// FormPayment builds a self-submitting HTML form for web payments.
type FormPayment interface {
	BuildPaymentForm(merchant *entity.Merchant, order *entity.Order) (string, error)
}

// UrlPayment builds a redirect URL for mobile web payments.
type UrlPayment interface {
	BuildPaymentUrl(merchant *entity.Merchant, order *entity.Order) (string, error)
}

// AppPayment builds the signed order string consumed by the in-app SDK.
type AppPayment interface {
	BuildAppParams(merchant *entity.Merchant, order *entity.Order) (string, error)
}

// ScanPayment creates a trade and returns a QR payload for the buyer to scan.
type ScanPayment interface {
	CreateQrPayment(ctx context.Context, merchant *entity.Merchant, order *entity.Order) (*entity.Notify, error)
}

// TradeCreator creates a trade server-side for mini-program payments.
type TradeCreator interface {
	CreateTrade(ctx context.Context, merchant *entity.Merchant, order *entity.Order) (*entity.Notify, error)
}

// BarcodePayment charges a buyer-presented barcode and resolves the
// ambiguous synchronous outcome by polling.
type BarcodePayment interface {
	PayBarcode(ctx context.Context, merchant *entity.Merchant, order *entity.Order) (*entity.Notify, error)
}

// TradeManager drives the lifecycle operations on an existing trade.
type TradeManager interface {
	Query(ctx context.Context, merchant *entity.Merchant, aux *entity.Auxiliary) (*entity.Notify, error)
	Cancel(ctx context.Context, merchant *entity.Merchant, aux *entity.Auxiliary) (*entity.Notify, error)
	Close(ctx context.Context, merchant *entity.Merchant, aux *entity.Auxiliary) (*entity.Notify, error)
	Refund(ctx context.Context, merchant *entity.Merchant, aux *entity.Auxiliary) (*entity.Notify, error)
	RefundQuery(ctx context.Context, merchant *entity.Merchant, aux *entity.Auxiliary) (*entity.Notify, error)
}

// BillDownloader resolves the download URL of a reconciliation bill.
type BillDownloader interface {
	DownloadBillUrl(ctx context.Context, merchant *entity.Merchant, billType, billDate string) (string, error)
}

// NotifyVerifier authenticates an asynchronous notification.
type NotifyVerifier interface {
	VerifyNotify(merchant *entity.Merchant, values url.Values) (*entity.Notify, error)
}

// Gateway is the full capability set of one provider gateway.
type Gateway interface {
	FormPayment
	UrlPayment
	AppPayment
	ScanPayment
	TradeCreator
	BarcodePayment
	TradeManager
	BillDownloader
	NotifyVerifier
}
