package main

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	cli "github.com/urfave/cli/v3"

	"github.com/nstri/studyflow/pkg/cmd"
	"github.com/nstri/studyflow/pkg/events"
	"github.com/nstri/studyflow/pkg/log"
	"github.com/nstri/studyflow/pkg/models"
	"github.com/nstri/studyflow/pkg/persistence"
	"github.com/nstri/studyflow/pkg/snapshot"
	"github.com/nstri/studyflow/pkg/validation"
)

func sourcesFlag() cli.Flag {
	return &cli.StringFlag{
		Name:     "sources",
		Usage:    "Comma-separated source article ids that seeded the schema",
		Required: true,
	}
}

func artifactKey(command *cli.Command) string {
	return models.ArtifactKey(strings.Split(command.String("sources"), ","))
}

func newStore(ctx context.Context, command *cli.Command) (*snapshot.Store, persistence.Persistence, error) {
	p, err := cmd.NewPersistence(ctx, command.String("persistence-url"))
	if err != nil {
		return nil, nil, err
	}

	tracer, err := tracerFor(ctx, command)
	if err != nil {
		_ = p.Close(ctx)

		return nil, nil, err
	}

	return snapshot.NewStore(p, log.WithModule("studyflow")).WithTracer(tracer), p, nil
}

// NewHistoryCommand lists, shows and reverts schema document revisions.
func NewHistoryCommand() *cli.Command {
	return &cli.Command{
		Name:  "history",
		Usage: "Inspect the schema version history",
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List retained revisions",
				Flags: []cli.Flag{sourcesFlag()},
				Action: func(ctx context.Context, command *cli.Command) error {
					store, p, err := newStore(ctx, command)
					if err != nil {
						return err
					}
					defer func() { _ = p.Close(ctx) }()

					key := artifactKey(command)

					history := store.Load(ctx, key)
					if len(history) == 0 {
						fmt.Printf("no history for artifact key %s\n", key)

						return nil
					}

					for _, snap := range history {
						meta := snap.Document.Version
						fmt.Printf("r%-4d %-20s %-24s %s\n", meta.Revision, meta.Author, meta.Timestamp, meta.Message)

						for _, change := range snap.Summary {
							fmt.Printf("      - %s\n", change)
						}
					}

					return nil
				},
			},
			{
				Name:  "show",
				Usage: "Print the document at one revision",
				Flags: []cli.Flag{
					sourcesFlag(),
					&cli.IntFlag{Name: "revision", Usage: "Revision number", Required: true},
				},
				Action: func(ctx context.Context, command *cli.Command) error {
					store, p, err := newStore(ctx, command)
					if err != nil {
						return err
					}
					defer func() { _ = p.Close(ctx) }()

					revision := command.Int("revision")

					document, err := store.Revert(ctx, artifactKey(command), revision)
					if persistence.IsRevisionNotFound(err) {
						return fmt.Errorf("revision %d is not in the retained history window", revision)
					}

					if err != nil {
						return err
					}

					payload, err := json.MarshalIndent(document, "", "  ")
					if err != nil {
						return err
					}

					fmt.Println(string(payload))

					return nil
				},
			},
			{
				Name:  "revert",
				Usage: "Commit a past revision's document as the new head",
				Flags: []cli.Flag{
					sourcesFlag(),
					&cli.IntFlag{Name: "revision", Usage: "Revision number to restore", Required: true},
					&cli.StringFlag{Name: "author", Usage: "Author recorded on the new revision", Value: "studyflow-cli"},
				},
				Action: func(ctx context.Context, command *cli.Command) error {
					store, p, err := newStore(ctx, command)
					if err != nil {
						return err
					}
					defer func() { _ = p.Close(ctx) }()

					logger := log.WithModule("studyflow")
					bus := cmd.NewAuditBus(logger)
					defer func() { _ = bus.Close() }()

					key := artifactKey(command)
					revision := command.Int("revision")

					document, err := store.Revert(ctx, key, revision)
					if persistence.IsRevisionNotFound(err) {
						return fmt.Errorf("revision %d is not in the retained history window", revision)
					}

					if err != nil {
						return err
					}

					event := events.VersionReverted{
						BaseEvent: events.NewBaseEvent(events.VersionRevertedEvent, events.CategorySchema,
							fmt.Sprintf("Working draft reverted to revision %d.", revision)),
						ArtifactKey:  key,
						Revision:     revision,
						WarningCount: validation.CountWarnings(validation.Validate(document)),
					}
					bus.Emit(ctx, event)

					snap, err := store.Commit(ctx, key, document,
						fmt.Sprintf("Revert to revision %d", revision), command.String("author"))
					if err != nil {
						return err
					}

					fmt.Printf("committed revision %d from revision %d\n", snap.Revision(), revision)

					return nil
				},
			},
		},
	}
}
