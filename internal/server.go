package internal

import (
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"

	"paygate/config"
	"paygate/entity"
	"paygate/services"

	"github.com/julienschmidt/httprouter"
)

const (
	createPayment = "/payment"
	queryPayment  = "/payment/:out_trade_no"
	cancelPayment = "/payment/:out_trade_no/cancel"
	closePayment  = "/payment/:out_trade_no/close"
	refundPayment = "/payment/:out_trade_no/refund"
	queryRefund   = "/payment/:out_trade_no/refund/:out_request_no"
	downloadBill  = "/bill/:bill_type/:bill_date"
	paymentNotify = "/notify"
)

type Server struct {
	conf       *config.Config
	httpServer *http.Server
	payments   services.Payments
	logger     services.LogHandler
}

func NewServer(conf *config.Config) *Server {

	server := Server{
		conf: conf,
	}

	// register itself as a router for httpServer handler
	router := httprouter.New()
	server.Register(router)
	server.httpServer = &http.Server{
		Handler: router,
	}

	return &server
}

func (s *Server) Register(router *httprouter.Router) {
	router.POST(createPayment, s.createPayment)
	router.GET(queryPayment, s.queryPayment)
	router.POST(cancelPayment, s.cancelPayment)
	router.POST(closePayment, s.closePayment)
	router.POST(refundPayment, s.refundPayment)
	router.GET(queryRefund, s.queryRefund)
	router.GET(downloadBill, s.downloadBill)
	router.POST(paymentNotify, s.paymentNotify)
}

func (s *Server) SetPaymentsService(payments services.Payments) {
	s.payments = payments
}

func (s *Server) SetLogger(logger services.LogHandler) {
	s.logger = logger
}

func (s *Server) Start() error {
	if s.conf == nil {
		return fmt.Errorf("configuration not loaded")
	}

	serverAddress := fmt.Sprintf("%s:%s", s.conf.Listen.BindIP, s.conf.Listen.Port)
	listener, err := net.Listen("tcp", serverAddress)
	if err != nil {
		return err
	}

	if s.conf.Listen.TLS {
		s.logger.Info(fmt.Sprintf("starting https TLS on %s", serverAddress))
		err = s.httpServer.ServeTLS(listener, s.conf.Listen.CertFile, s.conf.Listen.KeyFile)
	} else {
		s.logger.Info(fmt.Sprintf("starting http on %s", serverAddress))
		err = s.httpServer.Serve(listener)
	}

	return err
}

func (s *Server) createPayment(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ctx := WithRequestID(r.Context())
	reqID := GetRequestID(ctx)

	var req entity.PaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.logger.Warn(fmt.Sprintf("[%s] create payment: decode request body: %v", reqID, err))
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	result, err := s.payments.CreatePayment(ctx, &req)
	if err != nil {
		s.logger.Error(fmt.Sprintf("[%s] create payment", reqID), err)
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, reqID, result)
}

func (s *Server) queryPayment(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	ctx := WithRequestID(r.Context())
	reqID := GetRequestID(ctx)

	outTradeNo := ps.ByName("out_trade_no")
	if outTradeNo == "" {
		s.logger.Warn(fmt.Sprintf("[%s] empty order number", reqID))
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	notify, err := s.payments.QueryPayment(ctx, outTradeNo)
	if err != nil {
		s.logger.Error(fmt.Sprintf("[%s] query payment %s", reqID, outTradeNo), err)
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, reqID, notify)
}

func (s *Server) cancelPayment(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	ctx := WithRequestID(r.Context())
	reqID := GetRequestID(ctx)

	outTradeNo := ps.ByName("out_trade_no")
	notify, err := s.payments.CancelPayment(ctx, outTradeNo)
	if err != nil {
		s.logger.Error(fmt.Sprintf("[%s] cancel payment %s", reqID, outTradeNo), err)
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, reqID, notify)
}

func (s *Server) closePayment(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	ctx := WithRequestID(r.Context())
	reqID := GetRequestID(ctx)

	outTradeNo := ps.ByName("out_trade_no")
	notify, err := s.payments.ClosePayment(ctx, outTradeNo)
	if err != nil {
		s.logger.Error(fmt.Sprintf("[%s] close payment %s", reqID, outTradeNo), err)
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, reqID, notify)
}

func (s *Server) refundPayment(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	ctx := WithRequestID(r.Context())
	reqID := GetRequestID(ctx)

	var req entity.RefundRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.logger.Warn(fmt.Sprintf("[%s] refund: decode request body: %v", reqID, err))
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	req.OutTradeNo = ps.ByName("out_trade_no")

	notify, err := s.payments.RefundPayment(ctx, &req)
	if err != nil {
		s.logger.Error(fmt.Sprintf("[%s] refund payment %s", reqID, req.OutTradeNo), err)
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, reqID, notify)
}

func (s *Server) queryRefund(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	ctx := WithRequestID(r.Context())
	reqID := GetRequestID(ctx)

	outTradeNo := ps.ByName("out_trade_no")
	outRequestNo := ps.ByName("out_request_no")
	notify, err := s.payments.QueryRefund(ctx, outTradeNo, outRequestNo)
	if err != nil {
		s.logger.Error(fmt.Sprintf("[%s] query refund %s/%s", reqID, outTradeNo, outRequestNo), err)
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, reqID, notify)
}

func (s *Server) downloadBill(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	ctx := WithRequestID(r.Context())
	reqID := GetRequestID(ctx)

	billType := ps.ByName("bill_type")
	billDate := ps.ByName("bill_date")
	billUrl, err := s.payments.DownloadBill(ctx, billType, billDate)
	if err != nil {
		s.logger.Error(fmt.Sprintf("[%s] download bill %s %s", reqID, billType, billDate), err)
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, reqID, map[string]string{"bill_download_url": billUrl})
}

// paymentNotify receives the asynchronous callback pushed by the
// provider. The body is "success" or "fail" per the provider contract;
// anything but "success" makes the provider redeliver.
func (s *Server) paymentNotify(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ctx := WithRequestID(r.Context())
	reqID := GetRequestID(ctx)

	if err := r.ParseForm(); err != nil {
		s.logger.Error(fmt.Sprintf("[%s] payment notify: parse form", reqID), err)
		_, _ = w.Write([]byte("fail"))
		return
	}

	if err := s.payments.Notify(ctx, r.PostForm); err != nil {
		s.logger.Error(fmt.Sprintf("[%s] payment notify", reqID), err)
		_, _ = w.Write([]byte("fail"))
		return
	}
	_, _ = w.Write([]byte("success"))
}

func (s *Server) writeJSON(w http.ResponseWriter, reqID string, payload any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Error(fmt.Sprintf("[%s] encode response", reqID), err)
	}
}

// writeError maps engine errors onto HTTP statuses: caller mistakes are
// 400, provider rejections 502, an exhausted confirmation loop 504,
// everything else 500.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	var status int
	switch {
	case isValidationError(err):
		status = http.StatusBadRequest
	case isOperationError(err):
		status = http.StatusBadGateway
	case errors.Is(err, ErrPaymentTimeout):
		status = http.StatusGatewayTimeout
	default:
		status = http.StatusInternalServerError
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
}
