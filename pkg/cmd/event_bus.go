package cmd

import (
	"fmt"
	"log/slog"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"

	"github.com/agentcanvas/agentcanvas/pkg/channels/kafka"
	"github.com/agentcanvas/agentcanvas/pkg/eventbus"
)

// NewEventBus creates an event bus: Kafka for multi-node deployments, an
// in-process GoChannel otherwise.
func NewEventBus(provider string, logger *slog.Logger) eventbus.EventBus {
	switch provider {
	case "kafka":
		pub, sub, err := kafka.CreateChannel(watermill.NewSlogLogger(logger), "agentcanvas")
		if err != nil {
			panic(fmt.Errorf("failed to create Kafka pub/sub: %w", err))
		}

		return eventbus.NewWatermillEventBus(pub, sub)
	default:
		pubSub := gochannel.NewGoChannel(
			gochannel.Config{},
			watermill.NewSlogLogger(logger),
		)

		return eventbus.NewWatermillEventBus(pubSub, pubSub)
	}
}
