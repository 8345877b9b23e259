package consumer

import (
	"github.com/adjust/rmq/v5"
)

// QueueStatsHTML renders rmq's stats page for every open queue
func QueueStatsHTML(connection rmq.Connection, layout string, refresh string) (string, error) {
	queues, err := connection.GetOpenQueues()
	if err != nil {
		return "", err
	}

	stats, err := connection.CollectStats(queues)
	if err != nil {
		return "", err
	}

	return stats.GetHtml(layout, refresh), nil
}
