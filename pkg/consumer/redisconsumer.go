package consumer

import (
	"fmt"
	"time"

	"github.com/adjust/rmq/v5"
	"github.com/rs/zerolog"
)

// RedisConsumer attaches a number of consumers to one rmq queue
type RedisConsumer struct {
	Connection rmq.Connection
	QueueName  string

	NumberConsumers int
	PrefetchLimit   int64
	PollDuration    time.Duration

	Consumer rmq.Consumer

	Logger zerolog.Logger
}

func (c *RedisConsumer) Start() (rmq.Queue, error) {
	c.Logger.Info().Str("queue", c.QueueName).Int("consumers", c.NumberConsumers).Msg("Starting consumers")

	queue, err := c.Connection.OpenQueue(c.QueueName)
	if err != nil {
		return nil, err
	}

	prefetch := c.PrefetchLimit
	if prefetch <= 0 {
		prefetch = int64(c.NumberConsumers)
	}
	poll := c.PollDuration
	if poll <= 0 {
		poll = time.Second
	}

	if err := queue.StartConsuming(prefetch, poll); err != nil {
		return nil, err
	}

	for i := 0; i < c.NumberConsumers; i++ {
		tag := fmt.Sprintf("%s-consumer-%d", c.QueueName, i)
		if _, err := queue.AddConsumer(tag, c.Consumer); err != nil {
			return nil, err
		}

		c.Logger.Debug().Str("queue", c.QueueName).Str("consumer", tag).Msg("Started consumer")
	}

	return queue, nil
}

// Stop waits for consumers to finish their current deliveries
func (c *RedisConsumer) Stop() {
	c.Logger.Info().Str("queue", c.QueueName).Msg("Stopping consumers")

	<-c.Connection.StopAllConsuming()
}
