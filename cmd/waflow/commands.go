package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	cli "github.com/urfave/cli/v3"
	"github.com/waflow/waflow/pkg/advisor"
	"github.com/waflow/waflow/pkg/injector"
	"github.com/waflow/waflow/pkg/library"
	"github.com/waflow/waflow/pkg/log"
	"github.com/waflow/waflow/pkg/models"
	"github.com/waflow/waflow/pkg/validator"
)

// loadLibrary loads the node catalog named by the --catalog flag, falling
// back to the embedded default. Load failure is fatal: nothing can be
// validated without a catalog.
func loadLibrary(command *cli.Command) (*library.Library, error) {
	if path := command.String("catalog"); path != "" {
		return library.LoadFile(path)
	}

	return library.LoadDefault()
}

func readBlueprint(path string) (*models.Blueprint, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read blueprint file: %w", err)
	}

	var bp models.Blueprint
	if err := json.Unmarshal(data, &bp); err != nil {
		return nil, fmt.Errorf("failed to decode blueprint file: %w", err)
	}

	return &bp, nil
}

func printJSON(v any) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}

	fmt.Println(string(out))

	return nil
}

func validateCommand() *cli.Command {
	return &cli.Command{
		Name:  "validate",
		Usage: "Validate a blueprint file against the node catalog",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "file",
				Aliases:  []string{"f"},
				Usage:    "Path to the blueprint JSON file",
				Required: true,
			},
		},
		Action: func(_ context.Context, command *cli.Command) error {
			lib, err := loadLibrary(command)
			if err != nil {
				return err
			}

			bp, err := readBlueprint(command.String("file"))
			if err != nil {
				return err
			}

			v := validator.New(lib)
			result := v.ValidateBlueprint(bp)

			if err := printJSON(map[string]any{
				"result":     result,
				"executable": v.Analyzer().IsExecutable(bp),
				"complexity": v.Analyzer().ComplexityScore(bp),
			}); err != nil {
				return err
			}

			if !result.Valid {
				return fmt.Errorf("blueprint has %d validation error(s)", len(result.Errors))
			}

			return nil
		},
	}
}

func prepareCommand() *cli.Command {
	return &cli.Command{
		Name:  "prepare",
		Usage: "Resolve a blueprint's variable tokens against a context file",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "file",
				Aliases:  []string{"f"},
				Usage:    "Path to the blueprint JSON file",
				Required: true,
			},
			&cli.StringFlag{
				Name:     "context",
				Aliases:  []string{"c"},
				Usage:    "Path to the injection context JSON file",
				Required: true,
			},
		},
		Action: func(_ context.Context, command *cli.Command) error {
			bp, err := readBlueprint(command.String("file"))
			if err != nil {
				return err
			}

			data, err := os.ReadFile(command.String("context"))
			if err != nil {
				return fmt.Errorf("failed to read context file: %w", err)
			}

			var injCtx models.InjectionContext
			if err := json.Unmarshal(data, &injCtx); err != nil {
				return fmt.Errorf("failed to decode context file: %w", err)
			}

			engine := injector.NewEngine(injector.WithLogger(log.WithModule("injector")))

			injected, err := engine.InjectBlueprint(bp, &injCtx)
			if err != nil {
				return err
			}

			return printJSON(injected)
		},
	}
}

func recommendCommand() *cli.Command {
	return &cli.Command{
		Name:      "recommend",
		Usage:     "Suggest node types for a natural-language action",
		ArgsUsage: "<action text>",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "integration",
				Usage: "Integration name to bias suggestions toward",
			},
			&cli.StringFlag{
				Name:  "previous",
				Usage: "Node type immediately preceding the insertion point",
			},
		},
		Action: func(_ context.Context, command *cli.Command) error {
			action := command.Args().First()
			if action == "" {
				return fmt.Errorf("an action description is required")
			}

			lib, err := loadLibrary(command)
			if err != nil {
				return err
			}

			recs := advisor.New(lib).Recommend(action, &advisor.Context{
				Integration:      command.String("integration"),
				PreviousNodeType: command.String("previous"),
			})

			return printJSON(recs)
		},
	}
}
