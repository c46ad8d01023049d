// submodule cmd contains command definitions
package main

import "github.com/urfave/cli/v3"

func formatFlag(value string) *cli.StringFlag {
	return &cli.StringFlag{
		Name:    "format",
		Aliases: []string{"f"},
		Usage:   "Output format: json, csv, markdown, txt",
		Value:   value,
	}
}

func offlineFlag() *cli.BoolFlag {
	return &cli.BoolFlag{
		Name:  "offline",
		Usage: "Read tracks from the local cache instead of the API",
	}
}

// setupCommand handles setup operations for the config file and database.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Setup and configuration commands",
		Commands: []*cli.Command{
			{
				Name:  "database",
				Usage: "Initialize database and run migrations",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "config",
						Aliases: []string{"c"},
						Usage:   "Path to configuration file",
						Value:   "config.toml",
					},
					&cli.BoolFlag{
						Name:  "status",
						Usage: "List migrations and whether they are applied",
					},
					&cli.BoolFlag{
						Name:  "rollback",
						Usage: "Roll back the most recent migration",
					},
				},
				Action: r.SetupDatabase,
			},
			{
				Name:  "config",
				Usage: "Write an example configuration file",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "path",
						Aliases: []string{"p"},
						Usage:   "Where to write the file",
						Value:   "config.toml",
					},
				},
				Action: r.SetupConfig,
			},
		},
	}
}

// authCommand handles authentication operations
func authCommand(r *Runner) *cli.Command {
	credentialFlags := func() []cli.Flag {
		return []cli.Flag{
			&cli.StringFlag{Name: "email", Aliases: []string{"e"}, Usage: "Account email", Required: true},
			&cli.StringFlag{Name: "password", Aliases: []string{"p"}, Usage: "Account password", Required: true},
		}
	}

	return &cli.Command{
		Name:  "auth",
		Usage: "Manage authentication",
		Commands: []*cli.Command{
			{
				Name:  "signup",
				Usage: "Create an account",
				Flags: append(credentialFlags(), &cli.StringFlag{
					Name:  "username",
					Usage: "Display name (default: the part of the email before @)",
				}),
				Action: r.AuthSignup,
			},
			{
				Name:   "login",
				Usage:  "Sign in and store the session",
				Flags:  credentialFlags(),
				Action: r.AuthLogin,
			},
			{
				Name:   "logout",
				Usage:  "Remove the stored session",
				Action: r.AuthLogout,
			},
			{
				Name:  "status",
				Usage: "Show the signed-in user and token expiry",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "refresh", Usage: "Refresh the access token first"},
				},
				Action: r.AuthStatus,
			},
		},
	}
}

// tracksCommand lists catalog tracks with filters applied.
func tracksCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "tracks",
		Usage: "List catalog tracks",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "search", Aliases: []string{"s"}, Usage: "Keep tracks whose name starts with this text"},
			&cli.StringFlag{Name: "author", Aliases: []string{"a"}, Usage: "Keep tracks by this author"},
			&cli.StringFlag{Name: "genre", Aliases: []string{"g"}, Usage: "Keep tracks in this genre"},
			&cli.StringFlag{Name: "sort", Usage: "Release date order: default, newest, oldest", Value: "default"},
			formatFlag("txt"),
			&cli.StringFlag{Name: "output", Aliases: []string{"o"}, Usage: "Write to a file instead of stdout"},
			offlineFlag(),
		},
		Action: r.Tracks,
	}
}

func authorsCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "authors",
		Usage:  "List distinct track authors",
		Flags:  []cli.Flag{offlineFlag()},
		Action: r.Authors,
	}
}

func genresCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "genres",
		Usage:  "List distinct genres",
		Flags:  []cli.Flag{offlineFlag()},
		Action: r.Genres,
	}
}

// selectionsCommand handles curated selections.
func selectionsCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "selections",
		Aliases: []string{"sel"},
		Usage:   "Curated selections",
		Commands: []*cli.Command{
			{
				Name:   "list",
				Usage:  "List selections",
				Flags:  []cli.Flag{&cli.BoolFlag{Name: "json", Usage: "Output raw JSON"}},
				Action: r.SelectionsList,
			},
			{
				Name:  "show",
				Usage: "Show the tracks of a selection",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "id"},
				},
				Flags:  []cli.Flag{formatFlag("txt")},
				Action: r.SelectionsShow,
			},
			{
				Name:  "export",
				Usage: "Export selections to files with a manifest",
				Flags: []cli.Flag{
					&cli.StringSliceFlag{Name: "id", Usage: "Selection ids to export (default: all)"},
					formatFlag("json"),
					&cli.StringFlag{Name: "output-dir", Aliases: []string{"o"}, Usage: "Output directory (default: skyplay_export_{epoch})"},
					&cli.IntFlag{Name: "workers", Usage: "Concurrent writers (default: from config)"},
					&cli.FloatFlag{Name: "rate-limit", Usage: "Selection fetches per second (default: from config)"},
					&cli.BoolFlag{Name: "covers", Usage: "Download a cover image for markdown exports"},
				},
				Action: r.SelectionsExport,
			},
		},
	}
}

// favoritesCommand handles the signed-in user's likes.
func favoritesCommand(r *Runner) *cli.Command {
	idArg := func() []cli.Argument { return []cli.Argument{&cli.StringArg{Name: "id"}} }

	return &cli.Command{
		Name:    "favorites",
		Aliases: []string{"fav"},
		Usage:   "Liked tracks",
		Commands: []*cli.Command{
			{
				Name:   "list",
				Usage:  "List liked tracks",
				Flags:  []cli.Flag{formatFlag("txt")},
				Action: r.FavoritesList,
			},
			{
				Name:      "add",
				Usage:     "Like a track",
				Arguments: idArg(),
				Action:    r.FavoritesAdd,
			},
			{
				Name:      "remove",
				Aliases:   []string{"rm"},
				Usage:     "Unlike a track",
				Arguments: idArg(),
				Action:    r.FavoritesRemove,
			},
		},
	}
}

// cacheCommand handles the local track cache.
func cacheCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "cache",
		Usage: "Manage the local track cache",
		Commands: []*cli.Command{
			{
				Name:   "refresh",
				Usage:  "Replace the cache with the current catalog",
				Action: r.CacheRefresh,
			},
			{
				Name:   "list",
				Usage:  "List cached tracks",
				Flags:  []cli.Flag{formatFlag("txt")},
				Action: r.CacheList,
			},
		},
	}
}

// apiCommand handles direct API calls
func apiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "api",
		Usage: "Direct calls to the catalog API",
		Commands: []*cli.Command{
			{
				Name:  "get",
				Usage: "Direct GET, prints raw JSON",
				Arguments: []cli.Argument{
					&cli.StringArg{
						Name: "path",
					},
				},
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output compact JSON",
					},
				},
				Action: r.APIGet,
			},
			{
				Name:  "dump",
				Usage: "Dump tracks and selections",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "pretty",
						Usage: "Pretty-print output",
						Value: true,
					},
					&cli.BoolFlag{
						Name:  "save",
						Usage: "Save dump to api_dump.json",
					},
				},
				Action: r.APIDump,
			},
		},
	}
}

// playCommand returns the top-level command for the interactive player.
func playCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "play",
		Aliases: []string{"tui", "ui"},
		Usage:   "Launch the interactive player",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "selection", Usage: "Open a selection by id"},
			&cli.BoolFlag{Name: "favorites", Usage: "Start with liked tracks"},
			offlineFlag(),
		},
		Action: r.Play,
	}
}
