//go:build integration

package testutil

import (
	"context"
	"fmt"
	"log"
	"os"

	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/redpanda"
)

// redpandaImage — брокер для интеграционных тестов консьюмера заказов.
const redpandaImage = "docker.redpanda.com/redpandadata/redpanda:v23.3.8"

var tcLogger = log.New(os.Stdout, "[redpanda] ", log.LstdFlags)

func shortID(c tc.Container) string {
	id := c.GetContainerID()
	if len(id) > 12 {
		return id[:12]
	}
	return id
}

// lifecycleHooks — этапы жизни контейнера брокера в логе теста.
func lifecycleHooks(l *log.Logger) tc.ContainerLifecycleHooks {
	stage := func(name string) tc.ContainerHook {
		return func(_ context.Context, c tc.Container) error {
			l.Printf("%s id=%s", name, shortID(c))
			return nil
		}
	}
	return tc.ContainerLifecycleHooks{
		PreCreates: []tc.ContainerRequestHook{
			func(_ context.Context, req tc.ContainerRequest) error {
				l.Printf("creating broker image=%s", req.Image)
				return nil
			},
		},
		PostReadies:    []tc.ContainerHook{stage("broker ready")},
		PreTerminates:  []tc.ContainerHook{stage("terminating broker")},
		PostTerminates: []tc.ContainerHook{stage("broker terminated")},
	}
}

// KafkaEnv — брокер одного прогона. Топики заказов и результатов
// создаются на каждый тест через NewOrderTopics.
type KafkaEnv struct {
	Container *redpanda.Container
	Brokers   []string
	prefix    string // общий префикс имён топиков прогона
}

// StartKafkaTC — поднимает redpanda; stop терминирует контейнер.
func StartKafkaTC(ctx context.Context, topicPrefix string) (*KafkaEnv, func(context.Context) error, error) {
	rp, err := redpanda.Run(ctx, redpandaImage, tc.WithLifecycleHooks(lifecycleHooks(tcLogger)))
	if err != nil {
		return nil, nil, fmt.Errorf("run redpanda: %w", err)
	}

	seed, err := rp.KafkaSeedBroker(ctx)
	if err != nil {
		_ = tc.TerminateContainer(rp)
		return nil, nil, fmt.Errorf("seed broker: %w", err)
	}

	env := &KafkaEnv{Container: rp, Brokers: []string{seed}, prefix: topicPrefix}
	stop := func(_ context.Context) error { return tc.TerminateContainer(rp) }
	return env, stop, nil
}
