package services

import (
	"context"

	"paygate/entity"
)

type Database interface {
	WriteLogMessage(data Data) error

	SavePayment(ctx context.Context, payment *entity.Payment) error
	GetPayment(ctx context.Context, outTradeNo string) (*entity.Payment, error)
	UpdatePayment(ctx context.Context, payment *entity.Payment) error

	SaveNotification(ctx context.Context, notify *entity.Notify) error
}

type Data interface {
	DataType() string
}
