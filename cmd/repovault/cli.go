package main

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/urfave/cli/v2"

	"github.com/hpungsan/repovault/internal/bookmark"
	"github.com/hpungsan/repovault/internal/errors"
	"github.com/hpungsan/repovault/internal/ops"
	"github.com/hpungsan/repovault/internal/web"
)

// opener opens storage for a command; ephemeral selects the memory backend.
type opener func(ctx context.Context, ephemeral bool) (*runtime, error)

// session opens the runtime on first use so help and version never touch storage.
type session struct {
	open opener
	rt   *runtime
}

func (s *session) runtime(c *cli.Context) (*runtime, error) {
	if s.rt != nil {
		return s.rt, nil
	}
	rt, err := s.open(c.Context, c.Bool("ephemeral"))
	if err != nil {
		return nil, err
	}
	s.rt = rt
	return rt, nil
}

func (s *session) close() error {
	if s.rt == nil {
		return nil
	}
	err := s.rt.Close()
	s.rt = nil
	return err
}

// newCLIApp creates the CLI application with all commands.
func newCLIApp(open opener) *cli.App {
	s := &session{open: open}
	app := &cli.App{
		Name:    "repovault",
		Usage:   "GitHub repository bookmarks",
		Version: Version,
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "ephemeral", Usage: "Keep bookmarks in memory for this run only"},
		},
		Commands: []*cli.Command{
			addCmd(s),
			deleteCmd(s),
			clearCmd(s),
			listCmd(s),
			categoriesCmd(s),
			exportCmd(s),
			importCmd(s),
			countCmd(s),
			serveCmd(s),
		},
		After: func(_ *cli.Context) error {
			return s.close()
		},
	}
	// Disable default exit error handler to allow proper error return in tests
	app.ExitErrHandler = func(_ *cli.Context, _ error) {}
	return app
}

// withRuntime adapts an action that needs open storage.
func withRuntime(s *session, action func(c *cli.Context, rt *runtime) error) cli.ActionFunc {
	return func(c *cli.Context) error {
		rt, err := s.runtime(c)
		if err != nil {
			return outputError(err)
		}
		return action(c, rt)
	}
}

// addCmd creates the add command.
func addCmd(s *session) *cli.Command {
	return &cli.Command{
		Name:      "add",
		Usage:     "Bookmark a GitHub repository",
		ArgsUsage: "[--category C] [--notes N] <url>",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "category", Aliases: []string{"c"}, Usage: "Category (default: uncategorized)"},
			&cli.StringFlag{Name: "notes", Aliases: []string{"n"}, Usage: "Free-form notes"},
		},
		Action: withRuntime(s, func(c *cli.Context, rt *runtime) error {
			if c.NArg() == 0 {
				return outputError(errors.NewInvalidInput("url argument is required"))
			}

			output, err := ops.Add(c.Context, rt.store, ops.AddInput{
				URL:      c.Args().First(),
				Category: c.String("category"),
				Notes:    c.String("notes"),
			})
			if err != nil {
				return outputError(err)
			}

			return outputJSON(c.App.Writer, output)
		}),
	}
}

// deleteCmd creates the delete command.
func deleteCmd(s *session) *cli.Command {
	return &cli.Command{
		Name:      "delete",
		Usage:     "Delete a bookmark by id",
		ArgsUsage: "<id>",
		Action: withRuntime(s, func(c *cli.Context, rt *runtime) error {
			id, err := ops.ParseID(c.Args().First())
			if err != nil {
				return outputError(err)
			}

			output, err := ops.Delete(c.Context, rt.store, ops.DeleteInput{ID: id})
			if err != nil {
				return outputError(err)
			}

			return outputJSON(c.App.Writer, output)
		}),
	}
}

// clearCmd creates the clear command.
func clearCmd(s *session) *cli.Command {
	return &cli.Command{
		Name:  "clear",
		Usage: "Delete every bookmark",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "yes", Aliases: []string{"y"}, Usage: "Confirm deleting all bookmarks"},
		},
		Action: withRuntime(s, func(c *cli.Context, rt *runtime) error {
			output, err := ops.Clear(c.Context, rt.store, ops.ClearInput{Confirm: c.Bool("yes")})
			if err != nil {
				if errors.Is(err, errors.ErrInvalidInput) {
					return outputError(errors.NewInvalidInput("clear requires --yes"))
				}
				return outputError(err)
			}

			return outputJSON(c.App.Writer, output)
		}),
	}
}

// listCmd creates the list command.
func listCmd(s *session) *cli.Command {
	return &cli.Command{
		Name:  "list",
		Usage: "List bookmarks newest first",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "search", Aliases: []string{"s"}, Usage: "Match repo, owner or notes (case-insensitive)"},
			&cli.StringFlag{Name: "category", Aliases: []string{"c"}, Usage: "Exact category"},
			&cli.IntFlag{Name: "limit", Aliases: []string{"l"}, Value: ops.DefaultListLimit, Usage: "Max items to return"},
			&cli.IntFlag{Name: "offset", Aliases: []string{"o"}, Value: 0, Usage: "Items to skip"},
			&cli.StringFlag{Name: "format", Aliases: []string{"f"}, Value: "json", Usage: "Output format: json|text"},
		},
		Action: withRuntime(s, func(c *cli.Context, rt *runtime) error {
			format := c.String("format")
			if format != "json" && format != "text" {
				return outputError(errors.NewInvalidInput("format must be json or text"))
			}

			output, err := ops.List(rt.store, ops.ListInput{
				Search:   c.String("search"),
				Category: c.String("category"),
				Limit:    c.Int("limit"),
				Offset:   c.Int("offset"),
			})
			if err != nil {
				return outputError(err)
			}

			if format == "text" {
				printRecords(c.App.Writer, output.Items)
				return nil
			}
			return outputJSON(c.App.Writer, output)
		}),
	}
}

// categoriesCmd creates the categories command.
func categoriesCmd(s *session) *cli.Command {
	return &cli.Command{
		Name:  "categories",
		Usage: "List distinct categories",
		Action: withRuntime(s, func(c *cli.Context, rt *runtime) error {
			return outputJSON(c.App.Writer, ops.Categories(rt.store))
		}),
	}
}

// exportCmd creates the export command.
func exportCmd(s *session) *cli.Command {
	return &cli.Command{
		Name:  "export",
		Usage: "Export bookmarks to a JSON file",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "path", Aliases: []string{"p"}, Usage: "Output path (default: <base>/exports/repovault-backup-<ms>.json)"},
			&cli.BoolFlag{Name: "stdout", Usage: "Write the export to stdout instead of a file"},
		},
		Action: withRuntime(s, func(c *cli.Context, rt *runtime) error {
			if c.Bool("stdout") {
				data, err := rt.store.Export()
				if err != nil {
					return outputError(err)
				}
				_, err = fmt.Fprintln(c.App.Writer, string(data))
				return err
			}

			output, err := ops.Export(c.Context, rt.store, rt.cfg, rt.baseDir, ops.ExportInput{
				Path: c.String("path"),
			})
			if err != nil {
				return outputError(err)
			}

			return outputJSON(c.App.Writer, output)
		}),
	}
}

// importCmd creates the import command.
func importCmd(s *session) *cli.Command {
	return &cli.Command{
		Name:  "import",
		Usage: "Merge bookmarks from a JSON export (reads stdin when --path is omitted)",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "path", Aliases: []string{"p"}, Usage: "Import file path"},
		},
		Action: withRuntime(s, func(c *cli.Context, rt *runtime) error {
			var (
				output *ops.ImportOutput
				err    error
			)
			switch {
			case c.String("path") != "":
				output, err = ops.Import(c.Context, rt.store, rt.cfg, rt.baseDir, ops.ImportInput{
					Path: c.String("path"),
				})
			case stdinHasData():
				output, err = ops.ImportReader(c.Context, rt.store, os.Stdin)
			default:
				err = errors.NewInvalidInput("--path is required (or pipe a JSON export via stdin)")
			}
			if err != nil {
				return outputError(err)
			}

			return outputJSON(c.App.Writer, output)
		}),
	}
}

// countCmd creates the count command.
func countCmd(s *session) *cli.Command {
	return &cli.Command{
		Name:  "count",
		Usage: "Print the number of saved bookmarks",
		Action: withRuntime(s, func(c *cli.Context, rt *runtime) error {
			output, err := ops.HandleMessage(c.Context, rt.gw, rt.store.CollectionName(), ops.Message{
				Action: ops.ActionGetBookmarkCount,
			})
			if err != nil {
				return outputError(err)
			}

			return outputJSON(c.App.Writer, output)
		}),
	}
}

// serveCmd creates the serve command.
func serveCmd(s *session) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Start the web UI and JSON API",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "bind", Value: "127.0.0.1", Usage: "Address to bind"},
			&cli.IntFlag{Name: "port", Value: 8787, Usage: "Port to listen on"},
		},
		Action: withRuntime(s, func(c *cli.Context, rt *runtime) error {
			srv, err := web.NewServer(rt.store, rt.gw, rt.cfg, web.Options{
				Version: Version,
				Bind:    c.String("bind"),
				Port:    c.Int("port"),
				Logger:  rt.log,
			})
			if err != nil {
				return outputError(errors.NewInternal(err))
			}
			return web.Run(srv, rt.log)
		}),
	}
}

// Helper functions

// outputJSON writes v as indented JSON.
func outputJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// outputError formats error for CLI.
func outputError(err error) error {
	var vErr *errors.VaultError
	if stderrors.As(err, &vErr) {
		return cli.Exit(fmt.Sprintf("[%s] %s", vErr.Code, vErr.Message), 1)
	}
	return cli.Exit(err.Error(), 1)
}

// printRecords writes one colored line per bookmark, plus indented notes.
func printRecords(w io.Writer, records []bookmark.Record) {
	if len(records) == 0 {
		fmt.Fprintln(w, "no bookmarks")
		return
	}

	name := color.New(color.FgCyan, color.Bold)
	category := color.New(color.FgYellow)
	faint := color.New(color.Faint)

	for _, r := range records {
		name.Fprint(w, r.FullName())
		fmt.Fprint(w, " ")
		category.Fprintf(w, "[%s]", r.Category)
		fmt.Fprint(w, " ")
		faint.Fprintf(w, "%d · %s", r.ID, r.SavedAt)
		fmt.Fprintln(w)
		if r.Notes != "" {
			fmt.Fprintf(w, "    %s\n", r.Notes)
		}
	}
}

// stdinHasData returns true if stdin has piped data (not a terminal).
func stdinHasData() bool {
	stat, err := os.Stdin.Stat()
	if err != nil {
		return false
	}
	return (stat.Mode() & os.ModeCharDevice) == 0
}
