package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/klix/internal/classifier"
	"github.com/desertthunder/klix/internal/shared"
	"github.com/urfave/cli/v3"
)

// Classify prints the user-facing classification of an error message. No network calls are made.
func (r *Runner) Classify(ctx context.Context, cmd *cli.Command) error {
	message := cmd.StringArg("message")
	if message == "" {
		return fmt.Errorf("%w: message", shared.ErrMissingArgument)
	}
	useJSON := cmd.Bool("json")
	pretty := cmd.Bool("pretty")

	if cmd.Bool("diagnose") {
		d := classifier.Diagnose(message)
		if useJSON {
			return r.writeJSON(d, pretty)
		}
		r.writePlainHeader("Diagnosis")
		r.writePlain("Code:           %s\n", d.CodeOrNA())
		r.writePlain("Probable cause: %s\n", d.ProbableCause)
		r.writePlain("Suggested fix:  %s\n", d.SuggestedFix)
		return r.writePlain("Summary:        %s\n", d.Summary)
	}

	res := classifier.Classify(message)
	if useJSON {
		return r.writeJSON(struct {
			Code          classifier.Code `json:"code"`
			Kind          classifier.Kind `json:"kind"`
			UserMessage   string          `json:"userMessage"`
			IsAuthFailure bool            `json:"isAuthFailure"`
		}{res.Code, res.Kind(), res.UserMessage, res.IsAuthFailure}, pretty)
	}

	code := string(res.Code)
	if code == "" {
		code = "none"
	}
	r.writePlain("[%s] %s\n", code, res.Kind())
	if res.IsAuthFailure {
		r.writePlain("credential failure: the API key must be replaced\n")
	}
	return r.writePlainln("%s", res.UserMessage)
}
