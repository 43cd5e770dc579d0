package internal

import (
	"net/url"
	"testing"

	"paygate/entity"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGatewayDataOrder(t *testing.T) {
	data := NewGatewayData()
	data.Set("b", "2")
	data.Set("a", "1")
	data.Set("c", "3")

	assert.Equal(t, 3, data.Len())
	assert.Equal(t, []string{"b", "a", "c"}, data.Keys())
	assert.Equal(t, "b=2&a=1&c=3", data.CanonicalString(true))

	// overwriting keeps the original position
	data.Set("a", "9")
	assert.Equal(t, []string{"b", "a", "c"}, data.Keys())
	assert.Equal(t, "9", data.Get("a"))

	data.Sort()
	assert.Equal(t, "a=9&b=2&c=3", data.CanonicalString(true))
}

func TestGatewayDataDeterminism(t *testing.T) {
	first := NewGatewayData()
	second := NewGatewayData()
	for _, pair := range [][2]string{{"method", "alipay.trade.query"}, {"app_id", "2016"}, {"charset", "utf-8"}} {
		first.Set(pair[0], pair[1])
		second.Set(pair[0], pair[1])
	}
	assert.Equal(t, first.CanonicalString(false), second.CanonicalString(false))

	// insertion order changes the projection until both sides sort
	reversed := NewGatewayData()
	reversed.Set("charset", "utf-8")
	reversed.Set("app_id", "2016")
	reversed.Set("method", "alipay.trade.query")
	assert.NotEqual(t, first.CanonicalString(false), reversed.CanonicalString(false))

	first.Sort()
	reversed.Sort()
	assert.Equal(t, first.CanonicalString(false), reversed.CanonicalString(false))
}

func TestGatewayDataSignExclusion(t *testing.T) {
	data := NewGatewayData()
	data.Set("app_id", "2016")
	data.Set("sign", "abc")
	data.Set("sign_type", "RSA2")
	data.Set("method", "alipay.trade.query")

	assert.Equal(t, "app_id=2016&method=alipay.trade.query", data.CanonicalString(false))
	assert.Equal(t, "app_id=2016&sign=abc&sign_type=RSA2&method=alipay.trade.query", data.Encode())
}

func TestGatewayDataValueEscaping(t *testing.T) {
	data := NewGatewayData()
	data.Set("biz_content", `{"out_trade_no":"A&B=C"}`)
	assert.Equal(t, "biz_content="+url.QueryEscape(`{"out_trade_no":"A&B=C"}`), data.Encode())
}

func TestGatewayDataRemove(t *testing.T) {
	data := NewGatewayData()
	data.Set("a", "1")
	data.Set("b", "2")
	data.Remove("a")
	data.Remove("missing")

	assert.Equal(t, 1, data.Len())
	assert.Equal(t, "", data.Get("a"))
	assert.Equal(t, []string{"b"}, data.Keys())
}

func TestGatewayDataAddFields(t *testing.T) {
	merchant := &entity.Merchant{
		AppId:      "2016",
		Method:     "alipay.trade.query",
		SignType:   "RSA2",
		BizContent: `{"out_trade_no":"1001"}`,
		PrivateKey: "secret",
	}
	data := NewGatewayData()
	data.AddFields(merchant)

	// declaration order, empty fields skipped, "-" fields excluded
	assert.Equal(t, []string{"app_id", "method", "sign_type", "biz_content"}, data.Keys())
	assert.Equal(t, "2016", data.Get("app_id"))
	assert.Equal(t, "", data.Get("private_key"))
}

func TestGatewayDataFromJSON(t *testing.T) {
	data := NewGatewayData()
	err := data.FromJSON([]byte(`{"msg":"Success","code":"10000","total_amount":12.5}`))
	require.NoError(t, err)

	// entries arrive sorted, non-string values keep their literal form
	assert.Equal(t, []string{"code", "msg", "total_amount"}, data.Keys())
	assert.Equal(t, "12.5", data.Get("total_amount"))
}

func TestGatewayDataFromJSONQuoted(t *testing.T) {
	data := NewGatewayData()
	err := data.FromJSON([]byte(`"{\"code\":\"10000\",\"trade_no\":\"T1\"}"`))
	require.NoError(t, err)
	assert.Equal(t, "T1", data.Get("trade_no"))
}

func TestGatewayDataFromJSONMalformed(t *testing.T) {
	data := NewGatewayData()
	err := data.FromJSON([]byte(`{"code":`))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMalformedResponse)
}

func TestGatewayDataFromValues(t *testing.T) {
	values := url.Values{}
	values.Set("trade_status", "TRADE_SUCCESS")
	values.Set("app_id", "2016")
	values.Set("out_trade_no", "1001")

	data := NewGatewayData()
	data.FromValues(values)
	assert.Equal(t, []string{"app_id", "out_trade_no", "trade_status"}, data.Keys())
}

func TestGatewayDataToStruct(t *testing.T) {
	data := NewGatewayData()
	data.Set("code", "10000")
	data.Set("trade_no", "T100")
	data.Set("trade_status", "TRADE_SUCCESS")

	var notify entity.Notify
	require.NoError(t, data.ToStruct(&notify))
	assert.True(t, notify.Succeeded())
	assert.True(t, notify.Paid())
	assert.Equal(t, "T100", notify.TradeNo)
}
