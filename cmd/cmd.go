// submodule cmd contains command definitions
package main

import (
	"context"

	"github.com/charmbracelet/log"
	"github.com/urfave/cli/v3"

	"github.com/desertthunder/tanin/internal/shared"
)

// command builds the root command. Flags set here apply to every subcommand.
func (r *Runner) command() *cli.Command {
	return &cli.Command{
		Name:    "tanin",
		Usage:   "Ambient sound mixer for the terminal",
		Version: "0.1.0",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to configuration file",
			},
			&cli.BoolFlag{
				Name:  "debug",
				Usage: "Enable debug logging",
			},
		},
		Before:   r.before,
		Action:   r.TUI,
		Commands: r.register(),
	}
}

func (r *Runner) before(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	if cmd.Bool("debug") {
		shared.SetLogLevel(r.logger, log.DebugLevel)
	}
	return ctx, r.loadConfig(cmd.String("config"))
}

func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "setup",
		Usage: "Create the config file and initialize the database",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Output raw JSON",
			},
		},
		Action: r.Setup,
	}
}

func tuiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "tui",
		Aliases: []string{"ui"},
		Usage:   "Launch the interactive mixer (default)",
		Action:  r.TUI,
	}
}

func formatFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "format",
			Aliases: []string{"f"},
			Usage:   "Output format: text, csv, markdown or json",
			Value:   "text",
		},
		&cli.StringFlag{
			Name:    "output",
			Aliases: []string{"o"},
			Usage:   "Write to a file instead of stdout",
		},
	}
}

// soundsCommand manages the sound catalog without starting the mixer
func soundsCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "sounds",
		Usage: "Sound catalog operations",
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List sounds in display order",
				Flags: append(formatFlags(),
					&cli.BoolFlag{
						Name:  "all",
						Usage: "Include hidden sounds",
					},
				),
				Action: r.SoundsList,
			},
			{
				Name:  "add",
				Usage: "Fetch a sound with the download tool and add it to the catalog",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "name",
						Usage:    "Display name",
						Required: true,
					},
					&cli.StringFlag{
						Name:     "category",
						Usage:    "Category to file the sound under",
						Required: true,
					},
					&cli.StringFlag{
						Name:     "url",
						Usage:    "Source URL",
						Required: true,
					},
					&cli.StringFlag{
						Name:  "icon",
						Usage: "Icon shown next to the name",
					},
				},
				Action: r.SoundsAdd,
			},
			{
				Name:   "fetch-missing",
				Usage:  "Fetch every sound whose file is missing but has a source URL",
				Action: r.SoundsFetchMissing,
			},
		},
	}
}

// presetsCommand manages saved presets
func presetsCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "presets",
		Usage: "Preset operations",
		Commands: []*cli.Command{
			{
				Name:   "list",
				Usage:  "List saved presets",
				Flags:  formatFlags(),
				Action: r.PresetsList,
			},
			{
				Name:  "delete",
				Usage: "Delete a preset by name",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "name",
						Usage:    "Preset name",
						Required: true,
					},
				},
				Action: r.PresetsDelete,
			},
		},
	}
}
