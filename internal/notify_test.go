package internal

import (
	"net/url"
	"testing"

	"paygate/entity"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// signedNotification builds a callback parameter set signed the way the
// provider signs pushes: over the sorted projection without sign and
// sign_type.
func signedNotification(t *testing.T, privateKey string, fields map[string]string) url.Values {
	t.Helper()
	values := url.Values{}
	for key, value := range fields {
		values.Set(key, value)
	}
	data := NewGatewayData()
	data.FromValues(values)

	signature, err := NewSigner(SignTypeRSA2).Sign(data.CanonicalString(false), privateKey)
	require.NoError(t, err)
	values.Set("sign", signature)
	values.Set("sign_type", SignTypeRSA2)
	return values
}

func notificationFields() map[string]string {
	return map[string]string{
		"notify_id":    "2026082500222",
		"notify_type":  "trade_status_sync",
		"app_id":       "2016000000000001",
		"out_trade_no": "1001",
		"trade_no":     "T2026082500001",
		"trade_status": entity.TradeStatusSuccess,
		"total_amount": "12.50",
	}
}

func TestVerifyNotifyValid(t *testing.T) {
	merchant, _ := testMerchant(t)
	values := signedNotification(t, merchant.PrivateKey, notificationFields())

	gateway := NewGateway("https://openapi.example.com/gateway.do", zeroPoll())
	notify, err := gateway.VerifyNotify(merchant, values)
	require.NoError(t, err)

	assert.True(t, notify.Paid())
	assert.Equal(t, "1001", notify.OutTradeNo)
	assert.Equal(t, "T2026082500001", notify.TradeNo)
	assert.Equal(t, "12.50", notify.TotalAmount)
}

func TestVerifyNotifyTampered(t *testing.T) {
	merchant, _ := testMerchant(t)
	values := signedNotification(t, merchant.PrivateKey, notificationFields())
	values.Set("total_amount", "9999.00")

	gateway := NewGateway("https://openapi.example.com/gateway.do", zeroPoll())
	notify, err := gateway.VerifyNotify(merchant, values)

	assert.ErrorIs(t, err, ErrSignatureMismatch)
	assert.Nil(t, notify)
}

func TestVerifyNotifyWrongKey(t *testing.T) {
	merchant, _ := testMerchant(t)
	stranger, _ := testKeys(t)
	values := signedNotification(t, stranger, notificationFields())

	gateway := NewGateway("https://openapi.example.com/gateway.do", zeroPoll())
	_, err := gateway.VerifyNotify(merchant, values)
	assert.ErrorIs(t, err, ErrSignatureMismatch)
}

func TestVerifyNotifyMissingSignature(t *testing.T) {
	merchant, _ := testMerchant(t)
	values := url.Values{}
	for key, value := range notificationFields() {
		values.Set(key, value)
	}

	gateway := NewGateway("https://openapi.example.com/gateway.do", zeroPoll())
	_, err := gateway.VerifyNotify(merchant, values)
	assert.ErrorIs(t, err, ErrSignatureMismatch)
}
