package main

import (
	"context"
	"fmt"

	cli "github.com/urfave/cli/v3"

	"github.com/nstri/studyflow/pkg/cmd"
	"github.com/nstri/studyflow/pkg/log"
	"github.com/nstri/studyflow/pkg/models"
	"github.com/nstri/studyflow/pkg/workflow"
)

// NewStateCommand inspects and adjusts the cross-step workflow state.
func NewStateCommand() *cli.Command {
	return &cli.Command{
		Name:  "state",
		Usage: "Inspect and adjust the workflow state",
		Commands: []*cli.Command{
			{
				Name:  "show",
				Usage: "Print the hydrated workflow state",
				Action: func(ctx context.Context, command *cli.Command) error {
					controller, closeFn, err := newController(ctx, command)
					if err != nil {
						return err
					}
					defer closeFn()

					state := controller.State()

					fmt.Printf("mode:         %s\n", state.ModeState.Mode())
					fmt.Printf("current step: %s\n", state.CurrentStep)

					for _, step := range models.StepOrder() {
						accessible := "locked"
						if controller.CanAccess(step) {
							accessible = "accessible"
						}

						fmt.Printf("  %-10s %-12s %s\n", step, state.Steps[step], accessible)
					}

					return nil
				},
			},
			{
				Name:  "reset",
				Usage: "Reset one step to idle",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "step",
						Usage:    "Step to reset (search, schema, cohort, analysis, report)",
						Required: true,
					},
				},
				Action: func(ctx context.Context, command *cli.Command) error {
					step := models.Step(command.String("step"))
					if !step.Valid() {
						return fmt.Errorf("unknown step: %s", command.String("step"))
					}

					controller, closeFn, err := newController(ctx, command)
					if err != nil {
						return err
					}
					defer closeFn()

					return controller.Dispatch(ctx, workflow.ResetStep{Step: step})
				},
			},
		},
	}
}

func newController(ctx context.Context, command *cli.Command) (*workflow.Controller, func(), error) {
	persistence, err := cmd.NewPersistence(ctx, command.String("persistence-url"))
	if err != nil {
		return nil, nil, err
	}

	tracer, err := tracerFor(ctx, command)
	if err != nil {
		_ = persistence.Close(ctx)

		return nil, nil, err
	}

	logger := log.WithModule("studyflow")
	bus := cmd.NewAuditBus(logger)

	controller := workflow.NewController(persistence, bus, logger).WithTracer(tracer)
	if err := controller.Load(ctx); err != nil {
		_ = persistence.Close(ctx)

		return nil, nil, err
	}

	closeFn := func() {
		_ = bus.Close()
		_ = persistence.Close(ctx)
	}

	return controller, closeFn, nil
}
