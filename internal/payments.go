package internal

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"sync"
	"time"

	"paygate/config"
	"paygate/entity"
	"paygate/services"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Payments orchestrates payment processing on top of the protocol
// engine: it validates caller input, drives the gateway capability for
// the requested channel and keeps the stored payment records current.
// It uses fine-grained locking per order so operations on the same
// order serialize while different orders proceed in parallel.
type Payments struct {
	conf     *config.Config
	database services.Database
	logger   services.LogHandler
	gateway  services.Gateway
	locks    sync.Map // map[string]*sync.Mutex for per-order locking
}

func NewPayments(conf *config.Config) *Payments {
	return &Payments{
		conf:  conf,
		locks: sync.Map{},
	}
}

func (p *Payments) SetDatabase(database services.Database) {
	p.database = database
}

func (p *Payments) SetGateway(gateway services.Gateway) {
	p.gateway = gateway
}

func (p *Payments) SetLogger(logger services.LogHandler) {
	p.logger = logger
}

// lockOrder acquires the lock for one order number. Mutexes stay
// resident for the process lifetime: dropping one on unlock would let a
// waiter holding the old mutex overlap with a goroutine that stored a
// fresh one for the same order.
func (p *Payments) lockOrder(outTradeNo string) *sync.Mutex {
	value, _ := p.locks.LoadOrStore(outTradeNo, &sync.Mutex{})
	mutex := value.(*sync.Mutex)
	mutex.Lock()
	return mutex
}

func (p *Payments) unlockOrder(mutex *sync.Mutex) {
	mutex.Unlock()
}

// merchant builds a call-scoped merchant from configuration. Nothing is
// shared between calls, so concurrent payments cannot interfere.
func (p *Payments) merchant() *entity.Merchant {
	m := p.conf.Merchant
	return &entity.Merchant{
		AppId:      m.AppId,
		SignType:   m.SignType,
		NotifyUrl:  m.NotifyUrl,
		ReturnUrl:  m.ReturnUrl,
		PrivateKey: m.PrivateKey,
		PublicKey:  m.PublicKey,
	}
}

// CreatePayment initiates a payment on the requested channel and stores
// a payment record. The result carries the mode-specific payload: a
// form, a redirect URL, an SDK order string, a QR code or, for barcode,
// the final outcome.
func (p *Payments) CreatePayment(ctx context.Context, req *entity.PaymentRequest) (*entity.PaymentResult, error) {
	if p.gateway == nil {
		return nil, fmt.Errorf("gateway not set")
	}
	amount, err := normalizeAmount(req.Amount)
	if err != nil {
		return nil, err
	}
	if req.Subject == "" {
		return nil, &entity.ValidationError{Op: "create payment", Field: "subject"}
	}
	outTradeNo := req.OutTradeNo
	if outTradeNo == "" {
		outTradeNo = uuid.NewString()
	}

	mutex := p.lockOrder(outTradeNo)
	defer p.unlockOrder(mutex)

	p.logger.Info(fmt.Sprintf("create payment %s: channel %s, amount %s", outTradeNo, req.Channel, amount))

	order := &entity.Order{
		OutTradeNo:  outTradeNo,
		TotalAmount: amount,
		Subject:     req.Subject,
		Body:        req.Body,
		AuthCode:    req.AuthCode,
		BuyerId:     req.BuyerId,
	}
	merchant := p.merchant()
	if req.ReturnUrl != "" {
		merchant.ReturnUrl = req.ReturnUrl
	}

	record := &entity.Payment{
		OutTradeNo:  outTradeNo,
		Channel:     req.Channel,
		Amount:      amount,
		Subject:     req.Subject,
		Status:      entity.PaymentStatusCreated,
		TimeCreated: time.Now(),
	}
	result := &entity.PaymentResult{OutTradeNo: outTradeNo, Channel: req.Channel}

	switch req.Channel {
	case entity.ChannelPage:
		result.PayForm, err = p.gateway.BuildPaymentForm(merchant, order)
	case entity.ChannelWap:
		result.PayUrl, err = p.gateway.BuildPaymentUrl(merchant, order)
	case entity.ChannelApp:
		result.OrderString, err = p.gateway.BuildAppParams(merchant, order)
	case entity.ChannelQrCode:
		var notify *entity.Notify
		notify, err = p.gateway.CreateQrPayment(ctx, merchant, order)
		if err == nil {
			result.QrCode = notify.QrCode
		}
	case entity.ChannelMini:
		var notify *entity.Notify
		notify, err = p.gateway.CreateTrade(ctx, merchant, order)
		if err == nil {
			result.TradeNo = notify.TradeNo
			record.TradeNo = notify.TradeNo
		}
	case entity.ChannelBarcode:
		return p.payBarcode(ctx, merchant, order, record, result)
	default:
		return nil, &entity.ValidationError{Op: "create payment", Field: "channel"}
	}
	if err != nil {
		p.logger.Error(fmt.Sprintf("create payment %s", outTradeNo), err)
		return nil, err
	}

	p.savePayment(ctx, record)
	return result, nil
}

// payBarcode runs the in-person flow to completion: the outcome is known
// when this returns, either paid or failed.
func (p *Payments) payBarcode(ctx context.Context, merchant *entity.Merchant, order *entity.Order, record *entity.Payment, result *entity.PaymentResult) (*entity.PaymentResult, error) {
	p.logger.Debug(fmt.Sprintf("barcode %s: auth code %s", order.OutTradeNo, secret(order.AuthCode)))
	notify, err := p.gateway.PayBarcode(ctx, merchant, order)
	if err != nil {
		if errors.Is(err, ErrPaymentTimeout) {
			record.Status = entity.PaymentStatusTimeout
		} else {
			record.Status = entity.PaymentStatusFailed
		}
		record.Result = err.Error()
		record.TimeClosed = time.Now()
		p.savePayment(ctx, record)
		p.logger.Warn(fmt.Sprintf("barcode payment %s: %v", order.OutTradeNo, err))
		return nil, err
	}

	record.TradeNo = notify.TradeNo
	record.Status = entity.PaymentStatusPaid
	record.TimePaid = time.Now()
	p.savePayment(ctx, record)

	result.TradeNo = notify.TradeNo
	result.TradeStatus = notify.TradeStatus
	return result, nil
}

// Notify processes a payment notification pushed by the provider. The
// notification is authenticated before anything else happens; a forged
// or replayed callback must never mark a payment as paid.
func (p *Payments) Notify(ctx context.Context, values url.Values) error {
	if p.gateway == nil {
		return fmt.Errorf("gateway not set")
	}
	notify, err := p.gateway.VerifyNotify(p.merchant(), values)
	if err != nil {
		p.logger.Warn(fmt.Sprintf("notify rejected: %v", err))
		return err
	}
	p.logger.Info(fmt.Sprintf("notify: order %s, trade %s, status %s", notify.OutTradeNo, notify.TradeNo, notify.TradeStatus))

	if p.database != nil {
		if err := p.database.SaveNotification(ctx, notify); err != nil {
			p.logger.Error("save notification", err)
		}
	}

	mutex := p.lockOrder(notify.OutTradeNo)
	defer p.unlockOrder(mutex)

	record := p.getPayment(ctx, notify.OutTradeNo)
	if record == nil {
		return nil
	}
	record.TradeNo = notify.TradeNo
	switch {
	case notify.Paid():
		record.Status = entity.PaymentStatusPaid
		record.Result = notify.TradeStatus
		record.TimePaid = time.Now()
	case notify.TradeStatus == entity.TradeStatusClosed:
		record.Status = entity.PaymentStatusClosed
		record.Result = notify.TradeStatus
		record.TimeClosed = time.Now()
	}
	if err := p.database.UpdatePayment(ctx, record); err != nil {
		p.logger.Error("update payment", err)
	}
	return nil
}

// QueryPayment looks up the provider-side state of a payment.
func (p *Payments) QueryPayment(ctx context.Context, outTradeNo string) (*entity.Notify, error) {
	return p.gateway.Query(ctx, p.merchant(), &entity.Auxiliary{OutTradeNo: outTradeNo})
}

// CancelPayment revokes a payment and closes the stored record.
func (p *Payments) CancelPayment(ctx context.Context, outTradeNo string) (*entity.Notify, error) {
	mutex := p.lockOrder(outTradeNo)
	defer p.unlockOrder(mutex)

	notify, err := p.gateway.Cancel(ctx, p.merchant(), &entity.Auxiliary{OutTradeNo: outTradeNo})
	if err != nil {
		return nil, err
	}
	p.closeRecord(ctx, outTradeNo, entity.PaymentStatusCancelled)
	return notify, nil
}

// ClosePayment closes an unpaid payment.
func (p *Payments) ClosePayment(ctx context.Context, outTradeNo string) (*entity.Notify, error) {
	mutex := p.lockOrder(outTradeNo)
	defer p.unlockOrder(mutex)

	notify, err := p.gateway.Close(ctx, p.merchant(), &entity.Auxiliary{OutTradeNo: outTradeNo})
	if err != nil {
		return nil, err
	}
	p.closeRecord(ctx, outTradeNo, entity.PaymentStatusClosed)
	return notify, nil
}

// RefundPayment returns money on a paid payment. A missing refund
// request number is generated so repeated calls stay distinguishable.
func (p *Payments) RefundPayment(ctx context.Context, req *entity.RefundRequest) (*entity.Notify, error) {
	amount, err := normalizeAmount(req.Amount)
	if err != nil {
		return nil, err
	}
	outRequestNo := req.OutRequestNo
	if outRequestNo == "" {
		outRequestNo = uuid.NewString()
	}

	mutex := p.lockOrder(req.OutTradeNo)
	defer p.unlockOrder(mutex)

	p.logger.Info(fmt.Sprintf("refund %s: amount %s, request %s", req.OutTradeNo, amount, outRequestNo))
	notify, err := p.gateway.Refund(ctx, p.merchant(), &entity.Auxiliary{
		OutTradeNo:   req.OutTradeNo,
		TradeNo:      req.TradeNo,
		OutRequestNo: outRequestNo,
		RefundAmount: amount,
		RefundReason: req.Reason,
	})
	if err != nil {
		p.logger.Error(fmt.Sprintf("refund %s", req.OutTradeNo), err)
		return nil, err
	}

	record := p.getPayment(ctx, req.OutTradeNo)
	if record != nil {
		record.Status = entity.PaymentStatusRefunded
		record.RefundAmount = amount
		if err := p.database.UpdatePayment(ctx, record); err != nil {
			p.logger.Error("update payment", err)
		}
	}
	return notify, nil
}

// QueryRefund looks up the state of one refund request.
func (p *Payments) QueryRefund(ctx context.Context, outTradeNo, outRequestNo string) (*entity.Notify, error) {
	return p.gateway.RefundQuery(ctx, p.merchant(), &entity.Auxiliary{
		OutTradeNo:   outTradeNo,
		OutRequestNo: outRequestNo,
	})
}

// DownloadBill resolves the download URL of a reconciliation bill.
func (p *Payments) DownloadBill(ctx context.Context, billType, billDate string) (string, error) {
	return p.gateway.DownloadBillUrl(ctx, p.merchant(), billType, billDate)
}

func (p *Payments) savePayment(ctx context.Context, record *entity.Payment) {
	if p.database == nil {
		return
	}
	if err := p.database.SavePayment(ctx, record); err != nil {
		p.logger.Error("save payment", err)
	}
}

func (p *Payments) getPayment(ctx context.Context, outTradeNo string) *entity.Payment {
	if p.database == nil {
		return nil
	}
	record, err := p.database.GetPayment(ctx, outTradeNo)
	if err != nil {
		p.logger.Warn(fmt.Sprintf("payment %s not found", outTradeNo))
		return nil
	}
	return record
}

func (p *Payments) closeRecord(ctx context.Context, outTradeNo, status string) {
	record := p.getPayment(ctx, outTradeNo)
	if record == nil {
		return
	}
	record.Status = status
	record.TimeClosed = time.Now()
	if err := p.database.UpdatePayment(ctx, record); err != nil {
		p.logger.Error("update payment", err)
	}
}

// normalizeAmount validates a caller-supplied amount and renders it in
// the provider's two-decimal format.
func normalizeAmount(amount string) (string, error) {
	value, err := decimal.NewFromString(amount)
	if err != nil || !value.IsPositive() {
		return "", &entity.ValidationError{Op: "payment", Field: "amount"}
	}
	return value.StringFixed(2), nil
}

var _ services.Payments = (*Payments)(nil)
