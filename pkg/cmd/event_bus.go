package cmd

import (
	"log/slog"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"

	"github.com/nstri/studyflow/pkg/eventbus"
)

// NewAuditBus creates the in-process audit bus. Durability is local-only, so
// the bus rides watermill's gochannel pubsub; consumers subscribe in the same
// process.
func NewAuditBus(logger *slog.Logger) *eventbus.WatermillBus {
	pubsub := gochannel.NewGoChannel(gochannel.Config{}, watermill.NewSlogLogger(logger))

	return eventbus.NewWatermillBus(pubsub, pubsub, logger)
}
