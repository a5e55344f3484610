// Command countries-smoke checks that the service's dependencies are reachable:
// the session redis, the countries upstream and the kafka events topic.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/IBM/sarama"
	"github.com/redis/go-redis/v9"

	"github.com/mohammed-shakir/country-catalog/internal/catalog"
	"github.com/mohammed-shakir/country-catalog/internal/core/config"
	"github.com/mohammed-shakir/country-catalog/internal/core/httpclient"
	"github.com/mohammed-shakir/country-catalog/internal/core/model"
	"github.com/mohammed-shakir/country-catalog/internal/core/upstream"
	"github.com/mohammed-shakir/country-catalog/internal/events"
)

func checkRedis(ctx context.Context, w io.Writer, addr string) error {
	_, _ = fmt.Fprintln(w, "Redis test")
	client := redis.NewClient(&redis.Options{
		Addr:        addr,
		DialTimeout: 2 * time.Second,
	})
	defer func() { _ = client.Close() }()

	if err := client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping: %w", err)
	}
	if err := client.Set(ctx, "countries:smoke", "ok", 30*time.Second).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	val, err := client.Get(ctx, "countries:smoke").Result()
	if err != nil {
		return fmt.Errorf("redis get: %w", err)
	}
	_, _ = fmt.Fprintln(w, "redis GET countries:smoke:", val)
	return nil
}

func checkUpstream(ctx context.Context, w io.Writer, up upstream.Fetcher) error {
	_, _ = fmt.Fprintln(w, "Upstream test")

	var recs []model.CountryRecord
	q := url.Values{"fields": {strings.Join(catalog.Fields, ",")}}
	if err := up.GetJSON(ctx, "all", q, &recs); err != nil {
		return fmt.Errorf("bulk fetch: %w", err)
	}
	if len(recs) == 0 {
		return fmt.Errorf("bulk fetch returned no records")
	}
	_, _ = fmt.Fprintf(w, "catalog size: %d, first: %s (%s)\n", len(recs), recs[0].Name, recs[0].Region)
	return nil
}

func checkKafka(w io.Writer, brokers []string, topic string) error {
	_, _ = fmt.Fprintln(w, "Kafka test")

	cfg := sarama.NewConfig()
	cfg.Producer.Return.Successes = true
	cfg.Version = sarama.V2_5_0_0
	prod, err := sarama.NewSyncProducer(brokers, cfg)
	if err != nil {
		return fmt.Errorf("producer create: %w", err)
	}
	defer func() { _ = prod.Close() }()

	b, _ := json.Marshal(events.Event{
		Kind:      events.CatalogLoaded,
		SessionID: "smoke",
		TS:        time.Now().UTC(),
	})
	partition, _, err := prod.SendMessage(&sarama.ProducerMessage{
		Topic: topic,
		Key:   sarama.StringEncoder("smoke"),
		Value: sarama.ByteEncoder(b),
	})
	if err != nil {
		return fmt.Errorf("send message: %w", err)
	}
	_, _ = fmt.Fprintln(w, "produced one message")

	consumer, err := sarama.NewConsumer(brokers, cfg)
	if err != nil {
		return fmt.Errorf("consumer create: %w", err)
	}
	defer func() { _ = consumer.Close() }()

	pc, err := consumer.ConsumePartition(topic, partition, sarama.OffsetOldest)
	if err != nil {
		return fmt.Errorf("consume partition: %w", err)
	}
	defer func() { _ = pc.Close() }()

	select {
	case m := <-pc.Messages():
		_, _ = fmt.Fprintln(w, "consumed:", string(m.Value))
	case <-time.After(5 * time.Second):
		_, _ = fmt.Fprintln(w, "no message consumed (timeout)")
	}
	return nil
}

func main() {
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	cfg := config.FromEnv()

	up, err := upstream.New(nil, httpclient.NewOutbound(cfg.UpstreamTimeout), cfg.CountriesAPIURL)
	if err != nil {
		fmt.Println("Upstream error:", err)
		os.Exit(1)
	}

	if cfg.Session.Backend == "redis" {
		if err := checkRedis(ctx, os.Stdout, cfg.Session.RedisAddr); err != nil {
			fmt.Println("Redis error:", err)
			os.Exit(1)
		}
	}
	if err := checkUpstream(ctx, os.Stdout, up); err != nil {
		fmt.Println("Upstream error:", err)
		os.Exit(1)
	}
	if cfg.Events.Enabled {
		if err := checkKafka(os.Stdout, cfg.Events.Brokers, cfg.Events.Topic); err != nil {
			fmt.Println("Kafka error:", err)
			os.Exit(1)
		}
	}
	fmt.Println("All checks completed")
}
