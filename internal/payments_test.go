package internal

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"paygate/config"
	"paygate/entity"
	"paygate/services"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeDatabase struct {
	payments      map[string]*entity.Payment
	notifications []*entity.Notify
}

func newFakeDatabase() *fakeDatabase {
	return &fakeDatabase{payments: make(map[string]*entity.Payment)}
}

func (f *fakeDatabase) WriteLogMessage(services.Data) error { return nil }

func (f *fakeDatabase) SavePayment(_ context.Context, payment *entity.Payment) error {
	stored := *payment
	f.payments[payment.OutTradeNo] = &stored
	return nil
}

func (f *fakeDatabase) GetPayment(_ context.Context, outTradeNo string) (*entity.Payment, error) {
	payment, ok := f.payments[outTradeNo]
	if !ok {
		return nil, errors.New("payment not found")
	}
	stored := *payment
	return &stored, nil
}

func (f *fakeDatabase) UpdatePayment(_ context.Context, payment *entity.Payment) error {
	stored := *payment
	f.payments[payment.OutTradeNo] = &stored
	return nil
}

func (f *fakeDatabase) SaveNotification(_ context.Context, notify *entity.Notify) error {
	f.notifications = append(f.notifications, notify)
	return nil
}

var _ services.Database = (*fakeDatabase)(nil)

// testPayments wires the orchestrator with a fake database and a gateway
// aimed at endpoint; the merchant keys come from a generated pair.
func testPayments(t *testing.T, endpoint string) (*Payments, *fakeDatabase, *entity.Merchant) {
	t.Helper()
	merchant, _ := testMerchant(t)

	conf := &config.Config{}
	conf.Merchant.AppId = merchant.AppId
	conf.Merchant.SignType = merchant.SignType
	conf.Merchant.PrivateKey = merchant.PrivateKey
	conf.Merchant.PublicKey = merchant.PublicKey

	database := newFakeDatabase()
	gateway := NewGateway(endpoint, zeroPoll())

	payments := NewPayments(conf)
	payments.SetLogger(NewLogger("payments", false, nil))
	payments.SetDatabase(database)
	payments.SetGateway(gateway)
	return payments, database, merchant
}

func TestCreatePaymentPage(t *testing.T) {
	payments, database, _ := testPayments(t, "https://openapi.example.com/gateway.do")

	result, err := payments.CreatePayment(context.Background(), &entity.PaymentRequest{
		Channel:    entity.ChannelPage,
		OutTradeNo: "1001",
		Amount:     "12.5",
		Subject:    "Coffee",
	})
	require.NoError(t, err)

	assert.Contains(t, result.PayForm, "name='sign'")
	record := database.payments["1001"]
	require.NotNil(t, record)
	assert.Equal(t, entity.PaymentStatusCreated, record.Status)
	// caller amounts are normalized to two decimals
	assert.Equal(t, "12.50", record.Amount)
}

func TestCreatePaymentGeneratesOrderNumber(t *testing.T) {
	payments, database, _ := testPayments(t, "https://openapi.example.com/gateway.do")

	result, err := payments.CreatePayment(context.Background(), &entity.PaymentRequest{
		Channel: entity.ChannelWap,
		Amount:  "5",
		Subject: "Tea",
	})
	require.NoError(t, err)

	assert.NotEmpty(t, result.OutTradeNo)
	assert.NotEmpty(t, result.PayUrl)
	assert.NotNil(t, database.payments[result.OutTradeNo])
}

func TestCreatePaymentRejectsBadInput(t *testing.T) {
	payments, _, _ := testPayments(t, "https://openapi.example.com/gateway.do")
	ctx := context.Background()

	_, err := payments.CreatePayment(ctx, &entity.PaymentRequest{Channel: entity.ChannelPage, Amount: "-1", Subject: "x"})
	assert.True(t, isValidationError(err))

	_, err = payments.CreatePayment(ctx, &entity.PaymentRequest{Channel: entity.ChannelPage, Amount: "abc", Subject: "x"})
	assert.True(t, isValidationError(err))

	_, err = payments.CreatePayment(ctx, &entity.PaymentRequest{Channel: entity.ChannelPage, Amount: "10"})
	assert.True(t, isValidationError(err))

	_, err = payments.CreatePayment(ctx, &entity.PaymentRequest{Channel: "telepathy", Amount: "10", Subject: "x"})
	assert.True(t, isValidationError(err))
}

func TestCreatePaymentBarcode(t *testing.T) {
	provider := &barcodeProvider{t: t, payFields: map[string]string{
		"code":         entity.CodeSuccess,
		"trade_no":     "T1",
		"out_trade_no": "1001",
		"trade_status": entity.TradeStatusSuccess,
	}}
	server := httptest.NewServer(provider.handler())
	defer server.Close()

	payments, database, _ := testPayments(t, server.URL)
	result, err := payments.CreatePayment(context.Background(), &entity.PaymentRequest{
		Channel:    entity.ChannelBarcode,
		OutTradeNo: "1001",
		Amount:     "12.50",
		Subject:    "Coffee",
		AuthCode:   "288888888888888888",
	})
	require.NoError(t, err)

	assert.Equal(t, "T1", result.TradeNo)
	record := database.payments["1001"]
	require.NotNil(t, record)
	assert.Equal(t, entity.PaymentStatusPaid, record.Status)
}

func TestCreatePaymentBarcodeTimeout(t *testing.T) {
	provider := &barcodeProvider{
		t:         t,
		payFields: map[string]string{"code": entity.CodeInProgress, "trade_no": "T1"},
		queries:   []map[string]string{waiting(), waiting()},
	}
	server := httptest.NewServer(provider.handler())
	defer server.Close()

	payments, database, _ := testPayments(t, server.URL)
	payments.SetGateway(NewGateway(server.URL, PollPolicy{MaxAttempts: 2, Interval: 0}))

	_, err := payments.CreatePayment(context.Background(), &entity.PaymentRequest{
		Channel:    entity.ChannelBarcode,
		OutTradeNo: "1001",
		Amount:     "12.50",
		Subject:    "Coffee",
		AuthCode:   "288888888888888888",
	})
	assert.ErrorIs(t, err, ErrPaymentTimeout)
	assert.Equal(t, 1, provider.cancels)

	record := database.payments["1001"]
	require.NotNil(t, record)
	assert.Equal(t, entity.PaymentStatusTimeout, record.Status)
}

func TestLockOrderMutexStaysResident(t *testing.T) {
	payments, _, _ := testPayments(t, "https://openapi.example.com/gateway.do")

	// releasing the lock must not evict the mutex: a later lock on the
	// same order has to land on the same instance, otherwise two
	// goroutines could hold different mutexes for one order
	first := payments.lockOrder("1001")
	payments.unlockOrder(first)
	second := payments.lockOrder("1001")
	payments.unlockOrder(second)
	assert.Same(t, first, second)

	other := payments.lockOrder("1002")
	payments.unlockOrder(other)
	assert.NotSame(t, first, other)
}

func TestLockOrderSerializesSameOrder(t *testing.T) {
	payments, _, _ := testPayments(t, "https://openapi.example.com/gateway.do")

	const workers = 32
	counter := 0
	var wg sync.WaitGroup
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			mutex := payments.lockOrder("1001")
			defer payments.unlockOrder(mutex)
			counter++
		}()
	}
	wg.Wait()
	assert.Equal(t, workers, counter)
}

func TestNotifyUpdatesPayment(t *testing.T) {
	payments, database, merchant := testPayments(t, "https://openapi.example.com/gateway.do")
	database.payments["1001"] = &entity.Payment{
		OutTradeNo: "1001",
		Status:     entity.PaymentStatusCreated,
	}

	values := signedNotification(t, merchant.PrivateKey, notificationFields())
	require.NoError(t, payments.Notify(context.Background(), values))

	require.Len(t, database.notifications, 1)
	record := database.payments["1001"]
	assert.Equal(t, entity.PaymentStatusPaid, record.Status)
	assert.Equal(t, "T2026082500001", record.TradeNo)
}

func TestNotifyRejectsForged(t *testing.T) {
	payments, database, merchant := testPayments(t, "https://openapi.example.com/gateway.do")
	database.payments["1001"] = &entity.Payment{
		OutTradeNo: "1001",
		Status:     entity.PaymentStatusCreated,
	}

	values := signedNotification(t, merchant.PrivateKey, notificationFields())
	values.Set("total_amount", "9999.00")

	err := payments.Notify(context.Background(), values)
	assert.ErrorIs(t, err, ErrSignatureMismatch)

	// a forged push leaves no trace: nothing stored, nothing updated
	assert.Empty(t, database.notifications)
	assert.Equal(t, entity.PaymentStatusCreated, database.payments["1001"].Status)
}

func TestRefundPayment(t *testing.T) {
	server := httptest.NewServer(refundHandler(t))
	defer server.Close()

	payments, database, _ := testPayments(t, server.URL)
	database.payments["1001"] = &entity.Payment{
		OutTradeNo: "1001",
		Status:     entity.PaymentStatusPaid,
	}

	notify, err := payments.RefundPayment(context.Background(), &entity.RefundRequest{
		OutTradeNo: "1001",
		Amount:     "5",
		Reason:     "broken cup",
	})
	require.NoError(t, err)
	assert.Equal(t, "5.00", notify.RefundFee)

	record := database.payments["1001"]
	assert.Equal(t, entity.PaymentStatusRefunded, record.Status)
	assert.Equal(t, "5.00", record.RefundAmount)
}

func refundHandler(t *testing.T) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		assert.Equal(t, entity.MethodRefund, r.PostForm.Get("method"))
		// the generated refund request number travels in biz_content
		assert.Contains(t, r.PostForm.Get("biz_content"), "out_request_no")
		writeEnvelope(t, w, entity.MethodRefund, map[string]string{
			"code":         entity.CodeSuccess,
			"out_trade_no": "1001",
			"refund_fee":   "5.00",
		})
	}
}
