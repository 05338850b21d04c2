// submodule cmd contains command definitions
package main

import "github.com/urfave/cli/v3"

func userFlag() cli.Flag {
	return &cli.StringFlag{
		Name:     "user",
		Aliases:  []string{"u"},
		Usage:    "ID of the user acting in this session",
		Required: true,
	}
}

// setupCommand handles setup operations for the database.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Setup and configuration commands",
		Commands: []*cli.Command{
			{
				Name:   "database",
				Usage:  "Initialize database and run migrations",
				Action: r.SetupDatabase,
			},
		},
	}
}

// serveCommand starts the HTTP API.
func serveCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Run the HTTP API and event stream",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "host",
				Usage: "Listen host (overrides server.host)",
			},
			&cli.IntFlag{
				Name:  "port",
				Usage: "Listen port (overrides server.port)",
			},
			&cli.BoolFlag{
				Name:  "monitor",
				Usage: "Show the live event monitor while serving (logs go to logging.file)",
			},
		},
		Action: r.Serve,
	}
}

// classifyCommand classifies an error message offline.
func classifyCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "classify",
		Usage: "Classify an error message and print the user-facing text",
		Arguments: []cli.Argument{
			&cli.StringArg{
				Name: "message",
			},
		},
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "diagnose",
				Usage: "Print the probable cause and suggested fix",
			},
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Output raw JSON",
			},
			&cli.BoolFlag{
				Name:  "pretty",
				Usage: "Pretty-print output",
				Value: true,
			},
		},
		Action: r.Classify,
	}
}

// webhookCommand handles per-user webhook operations.
func webhookCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "webhook",
		Aliases: []string{"wh"},
		Usage:   "Per-user webhook operations",
		Commands: []*cli.Command{
			{
				Name:   "test",
				Usage:  "Send a test payload to the user's webhook",
				Flags:  []cli.Flag{userFlag()},
				Action: r.WebhookTest,
			},
			{
				Name:  "set",
				Usage: "Save (or clear, with an empty URL) the user's webhook URL",
				Arguments: []cli.Argument{
					&cli.StringArg{
						Name: "url",
					},
				},
				Flags:  []cli.Flag{userFlag()},
				Action: r.WebhookSet,
			},
			{
				Name:  "result",
				Usage: "Relay a generation result to the user's webhook",
				Flags: []cli.Flag{
					userFlag(),
					&cli.StringFlag{
						Name:  "type",
						Usage: "Result type (text, image, video, audio)",
						Value: "text",
					},
					&cli.StringFlag{
						Name:  "prompt",
						Usage: "Prompt that produced the result",
					},
					&cli.StringFlag{
						Name:  "text",
						Usage: "Text result",
					},
					&cli.StringFlag{
						Name:  "file",
						Usage: "Binary result read from a file",
					},
				},
				Action: r.WebhookResult,
			},
			{
				Name:  "social",
				Usage: "Send a composed social media post to the user's webhook",
				Flags: []cli.Flag{
					userFlag(),
					&cli.StringFlag{
						Name:  "caption",
						Usage: "Post caption",
					},
					&cli.StringFlag{
						Name:  "hashtags",
						Usage: "Hashtags",
					},
					&cli.StringFlag{
						Name:  "cta",
						Usage: "Call to action",
					},
					&cli.StringFlag{
						Name:  "link",
						Usage: "Link to include",
					},
					&cli.StringFlag{
						Name:  "schedule",
						Usage: "Schedule date (RFC3339 or local 2006-01-02T15:04)",
					},
					&cli.StringSliceFlag{
						Name:  "media",
						Usage: "Media files to attach (repeatable)",
					},
				},
				Action: r.WebhookSocial,
			},
		},
	}
}

// registerCommand records a trial registration.
func registerCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "register",
		Usage: "Register a trial user and notify the automation webhook",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "name",
				Usage:    "Full name",
				Required: true,
			},
			&cli.StringFlag{
				Name:     "email",
				Usage:    "Email address",
				Required: true,
			},
			&cli.StringFlag{
				Name:  "phone",
				Usage: "Phone number",
			},
		},
		Action: r.Register,
	}
}

// usersCommand manages user profiles.
func usersCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "users",
		Usage: "Manage user profiles",
		Commands: []*cli.Command{
			{
				Name:  "add",
				Usage: "Create a user profile",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "email",
						Usage:    "Email address",
						Required: true,
					},
					&cli.StringFlag{
						Name:  "username",
						Usage: "Display name",
					},
					&cli.StringFlag{
						Name:  "status",
						Usage: "Account status (trial, subscription, lifetime, admin, inactive)",
						Value: "trial",
					},
					&cli.StringFlag{
						Name:  "webhook",
						Usage: "Webhook URL",
					},
				},
				Action: r.UsersAdd,
			},
			{
				Name:  "list",
				Usage: "List user profiles",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "status",
						Usage: "Only users with this status",
					},
					&cli.BoolFlag{
						Name:  "trials",
						Usage: "List trial registrations instead",
					},
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
					&cli.BoolFlag{
						Name:  "pretty",
						Usage: "Pretty-print output",
						Value: true,
					},
				},
				Action: r.UsersList,
			},
		},
	}
}

// tuiCommand returns the top-level TUI command for the live event monitor.
func tuiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "tui",
		Aliases: []string{"monitor", "ui"},
		Usage:   "Watch a running server's dispatch events (admin users only)",
		Flags: []cli.Flag{
			userFlag(),
			&cli.StringFlag{
				Name:  "addr",
				Usage: "Server address (defaults to server.host:server.port)",
			},
			&cli.IntFlag{
				Name:  "tail",
				Usage: "Number of recent events to load first",
				Value: 50,
			},
		},
		Action: r.TUI,
	}
}
