package internal

import (
	"context"
	"fmt"
	"log"
	"time"

	"paygate/config"
	"paygate/entity"
	"paygate/services"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	collectionLog           = "payment_log"
	collectionPayments      = "payments"
	collectionNotifications = "notifications"
)

type MongoDB struct {
	clientOptions *options.ClientOptions
	database      string
}

func NewMongoClient(conf *config.Config) (*MongoDB, error) {
	if !conf.Mongo.Enabled {
		return nil, nil
	}
	connectionUri := fmt.Sprintf("mongodb://%s:%s", conf.Mongo.Host, conf.Mongo.Port)
	clientOptions := options.Client().ApplyURI(connectionUri)
	if conf.Mongo.User != "" {
		clientOptions.SetAuth(options.Credential{
			Username:   conf.Mongo.User,
			Password:   conf.Mongo.Password,
			AuthSource: conf.Mongo.Database,
		})
	}
	return &MongoDB{
		clientOptions: clientOptions,
		database:      conf.Mongo.Database,
	}, nil
}

func (m *MongoDB) connect(ctx context.Context) (*mongo.Client, error) {
	connection, err := mongo.Connect(ctx, m.clientOptions)
	if err != nil {
		return nil, err
	}
	return connection, nil
}

func (m *MongoDB) disconnect(ctx context.Context, connection *mongo.Client) {
	if err := connection.Disconnect(ctx); err != nil {
		log.Println("mongodb disconnect error", err)
	}
}

func (m *MongoDB) WriteLogMessage(data services.Data) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	connection, err := m.connect(ctx)
	if err != nil {
		return err
	}
	defer m.disconnect(ctx, connection)
	collection := connection.Database(m.database).Collection(collectionLog)
	_, err = collection.InsertOne(ctx, data)
	return err
}

// SavePayment upserts a payment record keyed by the merchant order
// number, so initiation and later updates target the same document.
func (m *MongoDB) SavePayment(ctx context.Context, payment *entity.Payment) error {
	connection, err := m.connect(ctx)
	if err != nil {
		return err
	}
	defer m.disconnect(ctx, connection)

	filter := bson.D{{Key: "out_trade_no", Value: payment.OutTradeNo}}
	set := bson.M{"$set": payment}
	collection := connection.Database(m.database).Collection(collectionPayments)
	_, err = collection.UpdateOne(ctx, filter, set, options.Update().SetUpsert(true))
	return err
}

func (m *MongoDB) GetPayment(ctx context.Context, outTradeNo string) (*entity.Payment, error) {
	connection, err := m.connect(ctx)
	if err != nil {
		return nil, err
	}
	defer m.disconnect(ctx, connection)

	filter := bson.D{{Key: "out_trade_no", Value: outTradeNo}}
	collection := connection.Database(m.database).Collection(collectionPayments)
	var payment entity.Payment
	if err = collection.FindOne(ctx, filter).Decode(&payment); err != nil {
		return nil, err
	}
	return &payment, nil
}

func (m *MongoDB) UpdatePayment(ctx context.Context, payment *entity.Payment) error {
	connection, err := m.connect(ctx)
	if err != nil {
		return err
	}
	defer m.disconnect(ctx, connection)

	collection := connection.Database(m.database).Collection(collectionPayments)
	filter := bson.D{{Key: "out_trade_no", Value: payment.OutTradeNo}}
	update := bson.D{
		{Key: "$set", Value: bson.D{
			{Key: "trade_no", Value: payment.TradeNo},
			{Key: "status", Value: payment.Status},
			{Key: "result", Value: payment.Result},
			{Key: "refund_amount", Value: payment.RefundAmount},
			{Key: "time_paid", Value: payment.TimePaid},
			{Key: "time_closed", Value: payment.TimeClosed},
		}},
	}
	if _, err = collection.UpdateOne(ctx, filter, update); err != nil {
		return err
	}
	return nil
}

func (m *MongoDB) SaveNotification(ctx context.Context, notify *entity.Notify) error {
	connection, err := m.connect(ctx)
	if err != nil {
		return err
	}
	defer m.disconnect(ctx, connection)

	collection := connection.Database(m.database).Collection(collectionNotifications)
	_, err = collection.InsertOne(ctx, notify)
	return err
}

var _ services.Database = (*MongoDB)(nil)
