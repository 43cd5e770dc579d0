package services

import (
	"context"
	"net/url"

	"paygate/entity"
)

type Payments interface {
	CreatePayment(ctx context.Context, req *entity.PaymentRequest) (*entity.PaymentResult, error)
	QueryPayment(ctx context.Context, outTradeNo string) (*entity.Notify, error)
	CancelPayment(ctx context.Context, outTradeNo string) (*entity.Notify, error)
	ClosePayment(ctx context.Context, outTradeNo string) (*entity.Notify, error)
	RefundPayment(ctx context.Context, req *entity.RefundRequest) (*entity.Notify, error)
	QueryRefund(ctx context.Context, outTradeNo, outRequestNo string) (*entity.Notify, error)
	DownloadBill(ctx context.Context, billType, billDate string) (string, error)
	Notify(ctx context.Context, values url.Values) error
}
