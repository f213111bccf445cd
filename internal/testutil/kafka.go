//go:build integration

package testutil

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/segmentio/kafka-go"
)

// OrderTopics — всё, что нужно консьюмеру в одном тесте:
// топик входящих заказов, топик опубликованных результатов и группа.
type OrderTopics struct {
	Orders  string
	Results string
	Group   string
}

var reTopicUnsafe = regexp.MustCompile(`[^a-zA-Z0-9._-]+`)

// NewOrderTopics — создаёт пару топиков с уникальными именами
// "<prefix>-<name>-<suffix>" и "<...>-results" и ждёт их появления в метаданных.
// name обычно t.Name(); недопустимые для Kafka символы заменяются на "-".
func (e *KafkaEnv) NewOrderTopics(ctx context.Context, name string) (OrderTopics, error) {
	base := fmt.Sprintf("%s-%s-%s", e.prefix, reTopicUnsafe.ReplaceAllString(name, "-"), UniqSuffix())
	ot := OrderTopics{Orders: base, Results: base + "-results", Group: base + "-group"}

	client := &kafka.Client{Addr: kafka.TCP(e.Brokers...), Timeout: 10 * time.Second}
	resp, err := client.CreateTopics(ctx, &kafka.CreateTopicsRequest{
		Topics: []kafka.TopicConfig{
			{Topic: ot.Orders, NumPartitions: 1, ReplicationFactor: 1},
			{Topic: ot.Results, NumPartitions: 1, ReplicationFactor: 1},
		},
	})
	if err != nil {
		return OrderTopics{}, fmt.Errorf("create topics: %w", err)
	}
	for topic, terr := range resp.Errors {
		if terr != nil && !errors.Is(terr, kafka.TopicAlreadyExists) {
			return OrderTopics{}, fmt.Errorf("create topic %s: %w", topic, terr)
		}
	}

	if err := waitTopicsReady(ctx, client, ot.Orders, ot.Results); err != nil {
		return OrderTopics{}, err
	}
	return ot, nil
}

// waitTopicsReady — опрашивает метаданные, пока у каждого топика не появится партиция.
func waitTopicsReady(ctx context.Context, client *kafka.Client, topics ...string) error {
	deadline := time.Now().Add(5 * time.Second)
	for {
		md, err := client.Metadata(ctx, &kafka.MetadataRequest{Topics: topics})
		if err == nil {
			ready := 0
			for _, tp := range md.Topics {
				if tp.Error == nil && len(tp.Partitions) > 0 {
					ready++
				}
			}
			if ready == len(topics) {
				return nil
			}
		}

		if time.Now().After(deadline) {
			return fmt.Errorf("topics %v not ready (last error: %v)", topics, err)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(200 * time.Millisecond):
		}
	}
}
