package main

import (
	"flag"
	"time"

	"paygate/config"
	"paygate/internal"
	"paygate/services"
)

func main() {

	logger := internal.NewLogger("main", false, nil)

	configPath := flag.String("conf", "config.yml", "path to config file")
	flag.Parse()

	logger.Info("using config file: " + *configPath)
	conf, err := config.GetConfig(*configPath)
	if err != nil {
		logger.Error("boot", err)
		return
	}

	var mongo services.Database
	if conf.Mongo.Enabled {
		mongo, err = internal.NewMongoClient(conf)
		if err != nil {
			logger.Error("mongo client", err)
			return
		}
		logger.Info("mongo client initialized")
	}

	gateway := internal.NewGateway(conf.Merchant.GatewayUrl, internal.PollPolicy{
		MaxAttempts: conf.Poll.Attempts,
		Interval:    time.Duration(conf.Poll.Interval) * time.Second,
	})
	gateway.SetLogger(internal.NewLogger("gateway", conf.IsDebug, mongo))

	payments := internal.NewPayments(conf)
	payments.SetLogger(internal.NewLogger("payments", conf.IsDebug, mongo))
	payments.SetDatabase(mongo)
	payments.SetGateway(gateway)

	server := internal.NewServer(conf)
	server.SetLogger(internal.NewLogger("server", conf.IsDebug, mongo))
	server.SetPaymentsService(payments)

	err = server.Start()
	if err != nil {
		logger.Error("server start", err)
		return
	}

}
