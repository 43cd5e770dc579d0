package internal

import (
	"context"
	"encoding/json"
	"fmt"
	"html"
	"io"
	"net/http"
	"strings"
	"time"

	"paygate/entity"
	"paygate/services"
)

const (
	formatJSON     = "JSON"
	charsetUTF8    = "utf-8"
	versionDefault = "1.0"
	timeLayout     = "2006-01-02 15:04:05"
)

// Gateway is the signed-request protocol engine for one provider
// endpoint. Every operation builds a call-scoped parameter container,
// so one Gateway instance is safe for concurrent independent payments.
type Gateway struct {
	endpoint   string
	poll       PollPolicy
	logger     services.LogHandler
	httpClient *http.Client
}

// NewGateway creates a protocol engine for the given provider endpoint
// with a configured HTTP client. A zero poll policy falls back to the
// default 5 attempts, 5 seconds apart.
func NewGateway(endpoint string, poll PollPolicy) *Gateway {
	if poll.MaxAttempts <= 0 {
		poll = DefaultPollPolicy()
	}
	return &Gateway{
		endpoint: endpoint,
		poll:     poll,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
				DisableKeepAlives:   false,
			},
		},
	}
}

func (g *Gateway) SetLogger(logger services.LogHandler) {
	g.logger = logger
}

// assemble merges the merchant fields and the operation payload into a
// fresh container, sorts it and attaches the signature. Merchant.Method
// must already be set; it determines the fixed parameter set covered by
// the signature.
func (g *Gateway) assemble(merchant *entity.Merchant, content any) (*GatewayData, error) {
	m := *merchant
	if m.Method == "" {
		return nil, fmt.Errorf("merchant method not set")
	}
	if m.Format == "" {
		m.Format = formatJSON
	}
	if m.Charset == "" {
		m.Charset = charsetUTF8
	}
	if m.Version == "" {
		m.Version = versionDefault
	}
	if m.SignType == "" {
		m.SignType = SignTypeRSA2
	}
	if m.Timestamp == "" {
		m.Timestamp = time.Now().Format(timeLayout)
	}
	if content != nil {
		raw, err := json.Marshal(content)
		if err != nil {
			return nil, fmt.Errorf("marshal biz content: %w", err)
		}
		m.BizContent = string(raw)
	}

	data := NewGatewayData()
	data.AddFields(&m)
	data.Sort()

	signer := NewSigner(m.SignType)
	signature, err := signer.Sign(data.CanonicalString(false), m.PrivateKey)
	if err != nil {
		return nil, err
	}
	data.Set(signField, signature)
	return data, nil
}

// submit posts the signed container to the provider endpoint and returns
// the raw response body.
func (g *Gateway) submit(ctx context.Context, data *GatewayData) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.endpoint, strings.NewReader(data.Encode()))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded;charset=utf-8")

	response, err := g.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("post request: %w", err)
	}
	defer func(body io.ReadCloser) {
		if err := body.Close(); err != nil && g.logger != nil {
			g.logger.Error("close response body", err)
		}
	}(response.Body)

	body, err := io.ReadAll(response.Body)
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}
	if response.StatusCode >= http.StatusBadRequest {
		return nil, fmt.Errorf("gateway returned status %d", response.StatusCode)
	}
	return body, nil
}

// unwrap extracts the envelope signature and the named result payload
// from a raw response and loads the payload into data. When the named
// key is absent the provider-level error_response is used instead.
func unwrap(body []byte, respKey string, data *GatewayData) (string, error) {
	var envelope map[string]json.RawMessage
	if err := json.Unmarshal(body, &envelope); err != nil {
		return "", fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	var signature string
	if raw, ok := envelope[signField]; ok {
		_ = json.Unmarshal(raw, &signature)
	}
	raw, ok := envelope[respKey]
	if !ok {
		if raw, ok = envelope["error_response"]; !ok {
			return "", fmt.Errorf("%w: missing %s", ErrMalformedResponse, respKey)
		}
	}
	if err := data.FromJSON(raw); err != nil {
		return "", err
	}
	return signature, nil
}

// Execute runs one assemble/submit/unwrap cycle for an arbitrary method,
// envelope key and result type. It returns the envelope signature; the
// result trust of a synchronous response is the provider status code,
// carried inside result, not that signature.
func (g *Gateway) Execute(ctx context.Context, merchant *entity.Merchant, method string, content any, respKey string, result any) (string, error) {
	m := *merchant
	m.Method = method
	data, err := g.assemble(&m, content)
	if err != nil {
		return "", err
	}
	body, err := g.submit(ctx, data)
	if err != nil {
		return "", err
	}
	payload := NewGatewayData()
	signature, err := unwrap(body, respKey, payload)
	if err != nil {
		return "", err
	}
	if err := payload.ToStruct(result); err != nil {
		return "", err
	}
	return signature, nil
}

// request performs one round-trip and classifies the result into a
// Notify without judging the status code.
func (g *Gateway) request(ctx context.Context, merchant *entity.Merchant, method string, content any) (*entity.Notify, error) {
	var notify entity.Notify
	signature, err := g.Execute(ctx, merchant, method, content, entity.ResponseKey(method), &notify)
	if err != nil {
		return nil, err
	}
	notify.Sign = signature
	return &notify, nil
}

// commit performs one round-trip and fails with an OperationError unless
// the provider returned the canonical success code.
func (g *Gateway) commit(ctx context.Context, merchant *entity.Merchant, method string, content any) (*entity.Notify, error) {
	notify, err := g.request(ctx, merchant, method, content)
	if err != nil {
		return nil, err
	}
	if !notify.Succeeded() {
		return nil, resultError(notify)
	}
	return notify, nil
}

func resultError(notify *entity.Notify) *OperationError {
	return &OperationError{
		Code:    notify.Code,
		Msg:     notify.Msg,
		SubCode: notify.SubCode,
		SubMsg:  notify.SubMsg,
	}
}

// BuildPaymentForm renders a self-submitting HTML form for the web
// payment mode. No network call is made; the buyer's browser posts the
// signed parameters to the provider.
func (g *Gateway) BuildPaymentForm(merchant *entity.Merchant, order *entity.Order) (string, error) {
	o := *order
	if o.ProductCode == "" {
		o.ProductCode = entity.ProductCodeInstantTrade
	}
	m := *merchant
	m.Method = entity.MethodPagePay
	data, err := g.assemble(&m, &o)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	b.WriteString(fmt.Sprintf("<form id='paygateForm' action='%s?charset=%s' method='POST'>\n", g.endpoint, charsetUTF8))
	for _, key := range data.Keys() {
		b.WriteString(fmt.Sprintf("<input type='hidden' name='%s' value='%s'/>\n",
			html.EscapeString(key), html.EscapeString(data.Get(key))))
	}
	b.WriteString("</form>\n<script>document.getElementById('paygateForm').submit();</script>")
	return b.String(), nil
}

// BuildPaymentUrl builds the redirect URL for the mobile web payment
// mode.
func (g *Gateway) BuildPaymentUrl(merchant *entity.Merchant, order *entity.Order) (string, error) {
	o := *order
	if o.ProductCode == "" {
		o.ProductCode = entity.ProductCodeWap
	}
	m := *merchant
	m.Method = entity.MethodWapPay
	data, err := g.assemble(&m, &o)
	if err != nil {
		return "", err
	}
	return g.endpoint + "?" + data.Encode(), nil
}

// BuildAppParams builds the signed order string handed to the in-app SDK.
func (g *Gateway) BuildAppParams(merchant *entity.Merchant, order *entity.Order) (string, error) {
	o := *order
	if o.ProductCode == "" {
		o.ProductCode = entity.ProductCodeApp
	}
	m := *merchant
	m.Method = entity.MethodAppPay
	data, err := g.assemble(&m, &o)
	if err != nil {
		return "", err
	}
	return data.Encode(), nil
}

// CreateQrPayment creates a trade and returns the QR payload in
// Notify.QrCode for the buyer to scan.
func (g *Gateway) CreateQrPayment(ctx context.Context, merchant *entity.Merchant, order *entity.Order) (*entity.Notify, error) {
	o := *order
	if o.ProductCode == "" {
		o.ProductCode = entity.ProductCodeFaceToFace
	}
	return g.commit(ctx, merchant, entity.MethodPrecreate, &o)
}

// CreateTrade creates a trade server-side for the mini-program payment
// mode; the returned trade number is handed to the client runtime.
func (g *Gateway) CreateTrade(ctx context.Context, merchant *entity.Merchant, order *entity.Order) (*entity.Notify, error) {
	o := *order
	return g.commit(ctx, merchant, entity.MethodCreate, &o)
}

// Query looks up the current state of a trade.
func (g *Gateway) Query(ctx context.Context, merchant *entity.Merchant, aux *entity.Auxiliary) (*entity.Notify, error) {
	if err := aux.Validate(entity.OpQuery); err != nil {
		return nil, err
	}
	return g.commit(ctx, merchant, entity.MethodQuery, aux)
}

// Cancel revokes a trade; unpaid trades are closed, paid ones reversed.
func (g *Gateway) Cancel(ctx context.Context, merchant *entity.Merchant, aux *entity.Auxiliary) (*entity.Notify, error) {
	if err := aux.Validate(entity.OpCancel); err != nil {
		return nil, err
	}
	return g.commit(ctx, merchant, entity.MethodCancel, aux)
}

// Close closes a trade that is still waiting for the buyer.
func (g *Gateway) Close(ctx context.Context, merchant *entity.Merchant, aux *entity.Auxiliary) (*entity.Notify, error) {
	if err := aux.Validate(entity.OpClose); err != nil {
		return nil, err
	}
	return g.commit(ctx, merchant, entity.MethodClose, aux)
}

// Refund returns money on a paid trade.
func (g *Gateway) Refund(ctx context.Context, merchant *entity.Merchant, aux *entity.Auxiliary) (*entity.Notify, error) {
	if err := aux.Validate(entity.OpRefund); err != nil {
		return nil, err
	}
	return g.commit(ctx, merchant, entity.MethodRefund, aux)
}

// RefundQuery looks up the state of one refund request.
func (g *Gateway) RefundQuery(ctx context.Context, merchant *entity.Merchant, aux *entity.Auxiliary) (*entity.Notify, error) {
	if err := aux.Validate(entity.OpRefundQuery); err != nil {
		return nil, err
	}
	return g.commit(ctx, merchant, entity.MethodRefundQuery, aux)
}

type billQuery struct {
	BillType string `json:"bill_type"`
	BillDate string `json:"bill_date"`
}

type billResult struct {
	Code            string `json:"code"`
	Msg             string `json:"msg"`
	SubCode         string `json:"sub_code"`
	SubMsg          string `json:"sub_msg"`
	BillDownloadUrl string `json:"bill_download_url"`
}

// DownloadBillUrl resolves the download URL of a reconciliation bill.
// billType is "trade" or "signcustomer", billDate a day (yyyy-MM-dd) or
// month (yyyy-MM).
func (g *Gateway) DownloadBillUrl(ctx context.Context, merchant *entity.Merchant, billType, billDate string) (string, error) {
	if billType == "" {
		return "", &entity.ValidationError{Op: "bill download", Field: "bill_type"}
	}
	if billDate == "" {
		return "", &entity.ValidationError{Op: "bill download", Field: "bill_date"}
	}
	var result billResult
	_, err := g.Execute(ctx, merchant, entity.MethodBillQuery,
		&billQuery{BillType: billType, BillDate: billDate},
		entity.ResponseKey(entity.MethodBillQuery), &result)
	if err != nil {
		return "", err
	}
	if result.Code != entity.CodeSuccess {
		return "", &OperationError{Code: result.Code, Msg: result.Msg, SubCode: result.SubCode, SubMsg: result.SubMsg}
	}
	return result.BillDownloadUrl, nil
}

var _ services.Gateway = (*Gateway)(nil)
