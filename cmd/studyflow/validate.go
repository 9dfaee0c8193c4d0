package main

import (
	"context"
	"fmt"

	cli "github.com/urfave/cli/v3"

	"github.com/nstri/studyflow/pkg/models"
	"github.com/nstri/studyflow/pkg/validation"
)

// NewValidateCommand runs the rule engine against the history head document.
func NewValidateCommand() *cli.Command {
	return &cli.Command{
		Name:  "validate",
		Usage: "Validate the latest committed schema document",
		Flags: []cli.Flag{sourcesFlag()},
		Action: func(ctx context.Context, command *cli.Command) error {
			store, p, err := newStore(ctx, command)
			if err != nil {
				return err
			}
			defer func() { _ = p.Close(ctx) }()

			key := artifactKey(command)

			head := store.Head(ctx, key)
			if head == nil {
				return fmt.Errorf("no history for artifact key %s", key)
			}

			issues := validation.Validate(head.Document)
			if len(issues) == 0 {
				fmt.Println("document is valid")

				return nil
			}

			for _, severity := range []models.IssueSeverity{models.SeverityError, models.SeverityWarning} {
				for _, issue := range issues {
					if issue.Severity != severity {
						continue
					}

					fmt.Printf("%-7s %-30s %s\n", issue.Severity, issue.Path, issue.Message)
				}
			}

			if validation.HasErrors(issues) {
				return fmt.Errorf("document has blocking validation errors")
			}

			return nil
		},
	}
}
