package main

import (
	"database/sql"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"log/slog"
	"runtime"
	"strconv"
	"strings"

	"github.com/urfave/cli/v2"
	"golang.org/x/sync/errgroup"

	"github.com/hpungsan/qdpx/internal/config"
	"github.com/hpungsan/qdpx/internal/diag"
	"github.com/hpungsan/qdpx/internal/errors"
	"github.com/hpungsan/qdpx/internal/ops"
	"github.com/hpungsan/qdpx/internal/refcheck"
	"github.com/hpungsan/qdpx/internal/report"
	"github.com/hpungsan/qdpx/internal/walk"
	"github.com/hpungsan/qdpx/internal/web"
)

// newCLIApp creates the CLI application with all commands.
//
// Files named on the command line are trusted: the allowlist that guards the
// tool server does not apply here.
func newCLIApp(db *sql.DB, cfg *config.Config) *cli.App {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	local := *cfg
	local.AllowUnsafePaths = true

	app := &cli.App{
		Name:    "qdpx",
		Usage:   "Read, validate and index REFI-QDA project files",
		Version: Version,
		Commands: []*cli.Command{
			inspectCmd(&local),
			codesCmd(&local),
			validateCmd(&local),
			reportCmd(&local),
			indexCmd(db, &local),
			listCmd(db),
			fetchCmd(db),
			searchCmd(db),
			deleteCmd(db),
			purgeCmd(db),
			serveCmd(db, &local),
		},
	}
	// Disable default exit error handler to allow proper error return in tests
	app.ExitErrHandler = func(_ *cli.Context, _ error) {}
	return app
}

// inspectOutput is the result of the inspect command.
type inspectOutput struct {
	Path        string         `json:"path"`
	Size        int64          `json:"size"`
	Checksum    string         `json:"checksum"`
	Summary     report.Summary `json:"summary"`
	Diagnostics []diag.Record  `json:"diagnostics"`
}

// inspectCmd creates the inspect command.
func inspectCmd(cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:      "inspect",
		Usage:     "Decode a project file and print entity counts",
		ArgsUsage: "<file>",
		Action: func(c *cli.Context) error {
			path, err := requireArg(c, "file")
			if err != nil {
				return outputError(err)
			}

			var collected diag.Collector
			loaded, err := ops.LoadProject(path, cfg, diag.Tee(&collected, logSink()))
			if err != nil {
				return outputError(err)
			}

			return outputJSON(c.App.Writer, inspectOutput{
				Path:        loaded.Path,
				Size:        loaded.Size,
				Checksum:    loaded.Checksum,
				Summary:     report.Summarize(loaded.Project),
				Diagnostics: collected.Records(),
			})
		},
	}
}

// codesCmd creates the codes command.
func codesCmd(cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:      "codes",
		Usage:     "Print the code tree of a project file",
		ArgsUsage: "<file>",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "flat", Usage: "Print one name path per line instead of JSON"},
		},
		Action: func(c *cli.Context) error {
			path, err := requireArg(c, "file")
			if err != nil {
				return outputError(err)
			}

			loaded, err := ops.LoadProject(path, cfg, logSink())
			if err != nil {
				return outputError(err)
			}

			if c.Bool("flat") {
				return writeCodePaths(c.App.Writer, loaded)
			}

			return outputJSON(c.App.Writer, map[string]any{
				"path":  loaded.Path,
				"codes": report.CodeTree(loaded.Project),
			})
		},
	}
}

// writeCodePaths prints "Parent / Child" paths, one code per line.
func writeCodePaths(w io.Writer, loaded *ops.Loaded) error {
	var werr error
	walk.CodePaths(loaded.Project.Codebook, func(cp walk.CodePath) walk.Signal {
		if _, werr = fmt.Fprintln(w, strings.Join(cp.Names, ops.CodePathSeparator)); werr != nil {
			return walk.Stop
		}
		return walk.Continue
	})
	return werr
}

// validateCmd creates the validate command. Files are checked in parallel;
// results keep argument order.
func validateCmd(cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:      "validate",
		Usage:     "Check identifiers and references of one or more project files",
		ArgsUsage: "<file...>",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "strict", Usage: "Fail on the first dangling reference"},
			&cli.BoolFlag{Name: "sources", Usage: "Reject an empty Sources element"},
		},
		Action: func(c *cli.Context) error {
			paths := c.Args().Slice()
			if len(paths) == 0 {
				return outputError(errors.NewInvalidRequest("at least one file is required"))
			}

			strict := optionalBool(c, "strict")
			sources := optionalBool(c, "sources")

			results := make([]*ops.ValidateOutput, len(paths))
			var g errgroup.Group
			g.SetLimit(runtime.GOMAXPROCS(0))
			for i, path := range paths {
				g.Go(func() error {
					out, err := ops.Validate(cfg, ops.ValidateInput{
						Path:         path,
						Strict:       strict,
						CheckSources: sources,
						Sink:         logSink(),
					})
					if err != nil {
						out = &ops.ValidateOutput{Path: path, Error: errorMessage(err)}
					}
					results[i] = out
					return nil
				})
			}
			_ = g.Wait()

			if err := outputJSON(c.App.Writer, results); err != nil {
				return err
			}

			failed := 0
			for _, r := range results {
				if !r.Valid {
					failed++
				}
			}
			if failed > 0 {
				return cli.Exit(fmt.Sprintf("%d of %d files failed validation", failed, len(results)), 1)
			}
			return nil
		},
	}
}

// reportCmd creates the report command.
func reportCmd(cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:      "report",
		Usage:     "Print a Markdown (or HTML) report of a project file",
		ArgsUsage: "<file>",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "html", Usage: "Render the report as HTML"},
			&cli.BoolFlag{Name: "validate", Usage: "Append a lenient reference check"},
		},
		Action: func(c *cli.Context) error {
			path, err := requireArg(c, "file")
			if err != nil {
				return outputError(err)
			}

			loaded, err := ops.LoadProject(path, cfg, logSink())
			if err != nil {
				return outputError(err)
			}

			var rep *refcheck.Report
			if c.Bool("validate") {
				lenient := false
				out, err := ops.CheckProject(loaded.Project, ops.ValidateOptions(cfg, &lenient, nil, nil))
				if err != nil {
					return outputError(err)
				}
				rep = out.Report
			}

			content := report.Build(loaded.Project, rep)
			if c.Bool("html") {
				if content, err = report.RenderHTML(content); err != nil {
					return outputError(err)
				}
			}

			_, err = io.WriteString(c.App.Writer, content)
			return err
		},
	}
}

// indexCmd creates the index command.
func indexCmd(db *sql.DB, cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:      "index",
		Usage:     "Add a project file to the local index (re-indexing replaces it)",
		ArgsUsage: "<file>",
		Action: func(c *cli.Context) error {
			path, err := requireArg(c, "file")
			if err != nil {
				return outputError(err)
			}

			output, err := ops.Index(c.Context, db, cfg, ops.IndexInput{Path: path, Sink: logSink()})
			if err != nil {
				return outputError(err)
			}

			return outputJSON(c.App.Writer, output)
		},
	}
}

// listCmd creates the list command.
func listCmd(db *sql.DB) *cli.Command {
	return &cli.Command{
		Name:  "list",
		Usage: "List indexed projects, newest first",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "limit", Aliases: []string{"l"}, Value: ops.DefaultListLimit, Usage: "Maximum items to return"},
			&cli.IntFlag{Name: "offset", Aliases: []string{"o"}, Value: 0, Usage: "Items to skip"},
			&cli.BoolFlag{Name: "include-deleted", Usage: "Include soft-deleted projects"},
		},
		Action: func(c *cli.Context) error {
			output, err := ops.List(c.Context, db, ops.ListInput{
				Limit:          c.Int("limit"),
				Offset:         c.Int("offset"),
				IncludeDeleted: c.Bool("include-deleted"),
			})
			if err != nil {
				return outputError(err)
			}

			return outputJSON(c.App.Writer, output)
		},
	}
}

// fetchCmd creates the fetch command.
func fetchCmd(db *sql.DB) *cli.Command {
	return &cli.Command{
		Name:      "fetch",
		Usage:     "Show an indexed project",
		ArgsUsage: "<id>",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "include-deleted", Usage: "Include soft-deleted projects"},
			&cli.BoolFlag{Name: "report", Usage: "Print the stored snapshot as a Markdown report"},
		},
		Action: func(c *cli.Context) error {
			id, err := requireArg(c, "id")
			if err != nil {
				return outputError(err)
			}

			output, err := ops.Fetch(c.Context, db, ops.FetchInput{
				ID:             id,
				IncludeDeleted: c.Bool("include-deleted"),
			})
			if err != nil {
				return outputError(err)
			}

			if c.Bool("report") {
				_, err = io.WriteString(c.App.Writer, report.Build(output.Project, nil))
				return err
			}
			return outputJSON(c.App.Writer, output)
		},
	}
}

// searchCmd creates the search command.
func searchCmd(db *sql.DB) *cli.Command {
	return &cli.Command{
		Name:      "search",
		Usage:     "Find codes by name across indexed projects",
		ArgsUsage: "<query>",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "project", Aliases: []string{"p"}, Usage: "Restrict to one indexed project ID"},
			&cli.IntFlag{Name: "limit", Aliases: []string{"l"}, Value: ops.DefaultSearchLimit, Usage: "Maximum items to return"},
			&cli.IntFlag{Name: "offset", Aliases: []string{"o"}, Value: 0, Usage: "Items to skip"},
		},
		Action: func(c *cli.Context) error {
			input := ops.SearchCodesInput{
				Query:  strings.Join(c.Args().Slice(), " "),
				Limit:  c.Int("limit"),
				Offset: c.Int("offset"),
			}
			if project := c.String("project"); project != "" {
				input.ProjectID = &project
			}

			output, err := ops.SearchCodes(c.Context, db, input)
			if err != nil {
				return outputError(err)
			}

			return outputJSON(c.App.Writer, output)
		},
	}
}

// deleteCmd creates the delete command.
func deleteCmd(db *sql.DB) *cli.Command {
	return &cli.Command{
		Name:      "delete",
		Usage:     "Soft-delete an indexed project",
		ArgsUsage: "<id>",
		Action: func(c *cli.Context) error {
			id, err := requireArg(c, "id")
			if err != nil {
				return outputError(err)
			}

			output, err := ops.Delete(c.Context, db, ops.DeleteInput{ID: id})
			if err != nil {
				return outputError(err)
			}

			return outputJSON(c.App.Writer, output)
		},
	}
}

// purgeCmd creates the purge command.
func purgeCmd(db *sql.DB) *cli.Command {
	return &cli.Command{
		Name:  "purge",
		Usage: "Permanently remove soft-deleted projects",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "older-than", Usage: "Only purge if deleted more than N days ago (e.g., 7d)"},
		},
		Action: func(c *cli.Context) error {
			input := ops.PurgeInput{}

			if olderThan := c.String("older-than"); olderThan != "" {
				days, err := parseDuration(olderThan)
				if err != nil {
					return outputError(errors.NewInvalidRequest(err.Error()))
				}
				input.OlderThanDays = &days
			}

			output, err := ops.Purge(c.Context, db, input)
			if err != nil {
				return outputError(err)
			}

			return outputJSON(c.App.Writer, output)
		},
	}
}

// serveCmd creates the serve command.
func serveCmd(db *sql.DB, cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:      "serve",
		Usage:     "Browse a project file and the index in a local web UI",
		ArgsUsage: "[file]",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "bind", Value: "127.0.0.1", Usage: "Address to bind"},
			&cli.IntFlag{Name: "port", Value: 8080, Usage: "Port to listen on"},
			&cli.BoolFlag{Name: "no-index", Usage: "Do not expose indexed projects"},
		},
		Action: func(c *cli.Context) error {
			var doc *web.Document
			if c.NArg() > 0 {
				loaded, err := ops.LoadProject(c.Args().First(), cfg, logSink())
				if err != nil {
					return outputError(err)
				}
				doc = &web.Document{Path: loaded.Path, Project: loaded.Project}
			}

			database := db
			if c.Bool("no-index") {
				database = nil
			}

			srv, err := web.NewServer(doc, database, cfg, Version, c.String("bind"), c.Int("port"))
			if err != nil {
				return outputError(err)
			}
			return web.Run(srv, slog.Default())
		},
	}
}

// Helper functions

// outputJSON marshals result to w as JSON.
func outputJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// outputError formats error for CLI.
func outputError(err error) error {
	return cli.Exit(errorMessage(err), 1)
}

// errorMessage renders err as "[CODE] message (at location)".
func errorMessage(err error) string {
	var qErr *errors.QdpxError
	if !stderrors.As(err, &qErr) {
		return err.Error()
	}
	msg := fmt.Sprintf("[%s] %s", qErr.Code, qErr.Message)
	if loc := qErr.Location.String(); loc != "" {
		msg += " at " + loc
	}
	return msg
}

// logSink forwards decode findings to the process logger.
func logSink() diag.Sink {
	return diag.NewLogSink(slog.Default())
}

// requireArg returns the first positional argument.
func requireArg(c *cli.Context, name string) (string, error) {
	arg := strings.TrimSpace(c.Args().First())
	if arg == "" {
		return "", errors.NewInvalidRequest(name + " is required")
	}
	return arg, nil
}

// optionalBool returns nil unless the flag was given explicitly.
func optionalBool(c *cli.Context, name string) *bool {
	if !c.IsSet(name) {
		return nil
	}
	v := c.Bool(name)
	return &v
}

// parseDuration parses "7d" format to days.
func parseDuration(s string) (int, error) {
	if numStr, ok := strings.CutSuffix(s, "d"); ok {
		days, err := strconv.Atoi(numStr)
		if err != nil {
			return 0, fmt.Errorf("invalid duration: %s", s)
		}
		if days < 0 {
			return 0, fmt.Errorf("duration must be non-negative")
		}
		return days, nil
	}
	return 0, fmt.Errorf("duration must end with 'd' (days), e.g., 7d")
}
