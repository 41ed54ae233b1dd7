package integration

import (
	"context"
	"time"

	"github.com/testcontainers/testcontainers-go/modules/kafka"
	"github.com/testcontainers/testcontainers-go/modules/mongodb"
	"github.com/testcontainers/testcontainers-go/modules/redis"
)

type Env struct {
	Mongo    *mongodb.MongoDBContainer
	Redis    *redis.RedisContainer
	Kafka    *kafka.KafkaContainer
	MongoURL string
	RedisURL string
	KAddr    []string
	Cancel   context.CancelFunc
}

func Setup(ctx context.Context) (*Env, error) {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Minute)

	mongoC, err := mongodb.Run(ctx, "mongo:7")
	if err != nil {
		cancel()
		return nil, err
	}
	mongoURL, err := mongoC.ConnectionString(ctx)
	if err != nil {
		cancel()
		return nil, err
	}

	redisC, err := redis.Run(ctx, "redis:7-alpine")
	if err != nil {
		cancel()
		return nil, err
	}
	redisURL, err := redisC.ConnectionString(ctx)
	if err != nil {
		cancel()
		return nil, err
	}

	kafkaC, err := kafka.Run(ctx,
		"confluentinc/confluent-local:7.5.0",
		kafka.WithClusterID("test-cluster"),
	)
	if err != nil {
		cancel()
		return nil, err
	}
	kafkaAddress, err := kafkaC.Brokers(ctx)
	if err != nil {
		cancel()
		return nil, err
	}

	return &Env{
		Mongo:    mongoC,
		Redis:    redisC,
		Kafka:    kafkaC,
		MongoURL: mongoURL,
		RedisURL: redisURL,
		KAddr:    kafkaAddress,
		Cancel:   cancel,
	}, nil
}

func (e *Env) Teardown(ctx context.Context) {
	e.Cancel()
	_ = e.Kafka.Terminate(ctx)
	_ = e.Redis.Terminate(ctx)
	_ = e.Mongo.Terminate(ctx)
}
