package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/joho/godotenv/autoload"
	"github.com/urfave/cli/v3"

	"github.com/marph91/jimmy/internal"
	"github.com/marph91/jimmy/internal/watch"
	pkgconfig "github.com/marph91/jimmy/pkg/config"
)

var version = "dev"

// loadConfig merges defaults, the optional config file and the global flags.
func loadConfig(cmd *cli.Command) (*internal.Config, error) {
	cfg := internal.NewDefaultConfig()
	if _, err := pkgconfig.LoadIfExists(cmd.String("config"), cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if cmd.IsSet("log-level") {
		if err := cfg.App.LogLevel.UnmarshalText([]byte(cmd.String("log-level"))); err != nil {
			return nil, fmt.Errorf("invalid log level: %w", err)
		}
	}
	if cmd.IsSet("log-format") {
		cfg.App.LogFormat = cmd.String("log-format")
	}
	return cfg, nil
}

func runConvert(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	out := &cfg.Output
	if cmd.IsSet("output-folder") {
		out.Folder = cmd.String("output-folder")
	}
	if cmd.IsSet("frontmatter") {
		out.Frontmatter = cmd.String("frontmatter")
	}
	if cmd.IsSet("template-file") {
		out.TemplateFile = cmd.String("template-file")
	}
	if cmd.IsSet("global-resource-folder") {
		out.GlobalResourceFolder = cmd.String("global-resource-folder")
	}
	if cmd.IsSet("local-resource-folder") {
		out.LocalResourceFolder = cmd.String("local-resource-folder")
	}
	if cmd.IsSet("local-image-folder") {
		out.LocalImageFolder = cmd.String("local-image-folder")
	}
	if cmd.IsSet("max-name-length") {
		out.MaxNameLength = int(cmd.Int("max-name-length"))
	}
	if cmd.Bool("print-tree") {
		out.PrintTree = true
	}

	filters := map[string]*[]string{
		"exclude-notes":           &cfg.Filter.ExcludeNotes,
		"include-notes":           &cfg.Filter.IncludeNotes,
		"exclude-notes-with-tags": &cfg.Filter.ExcludeNotesWithTags,
		"include-notes-with-tags": &cfg.Filter.IncludeNotesWithTags,
		"exclude-tags":            &cfg.Filter.ExcludeTags,
		"include-tags":            &cfg.Filter.IncludeTags,
	}
	for name, target := range filters {
		if cmd.IsSet(name) {
			*target = cmd.StringSlice(name)
		}
	}

	if cmd.Bool("manifest") {
		cfg.Manifest.Enabled = true
	}
	if cmd.IsSet("manifest-path") {
		cfg.Manifest.Enabled = true
		cfg.Manifest.Path = cmd.String("manifest-path")
	}

	opts := []internal.Option{
		internal.WithConfig(cfg),
		internal.WithInputs(cmd.Args().Slice()...),
		internal.WithFormat(cmd.String("format")),
		internal.WithVersion(version),
	}
	if cmd.Bool("watch") {
		opts = append(opts, internal.WithWatch(cmd.Duration("debounce")))
	}

	if err := internal.Run(ctx, opts...); err != nil {
		return fmt.Errorf("app run error: %w", err)
	}
	return nil
}

func runServe(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if cmd.IsSet("port") {
		cfg.Serve.HTTP.Port = int(cmd.Int("port"))
	}
	if cmd.IsSet("token") {
		cfg.Serve.Auth.Mode = internal.AuthModeToken
		cfg.Serve.Auth.Token = cmd.String("token")
	}
	return internal.Serve(ctx,
		internal.WithConfig(cfg),
		internal.WithImport(cmd.String("output"), cmd.String("manifest")),
	)
}

func runMCP(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	return internal.ServeMCP(ctx,
		internal.WithConfig(cfg),
		internal.WithVersion(version),
		internal.WithImport(cmd.String("output"), cmd.String("manifest")),
	)
}

func runFormats(_ context.Context, _ *cli.Command) error {
	for _, f := range internal.Formats() {
		fmt.Println(f)
	}
	return nil
}

func importFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:     "output",
			Usage:    "Output folder of a finished import",
			Required: true,
		},
		&cli.StringFlag{
			Name:  "manifest",
			Usage: "Path to the manifest (default: <output>/.jimmy/manifest.db)",
		},
	}
}

func main() {
	cmd := &cli.Command{
		Name:      "jimmy",
		Usage:     "Convert note exports to Markdown",
		Version:   version,
		ArgsUsage: "<input> [<input>...]",
		Action:    runConvert,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to config file",
				Sources: cli.EnvVars("JIMMY_CONFIG_FILE"),
			},
			&cli.StringFlag{Name: "log-level", Usage: "Log level (debug, info, warn, error)", Sources: cli.EnvVars("JIMMY_LOG_LEVEL")},
			&cli.StringFlag{Name: "log-format", Usage: "Log format (text, json)"},

			&cli.StringFlag{Name: "format", Local: true, Aliases: []string{"f"}, Usage: "Input format, see 'jimmy formats'"},
			&cli.StringFlag{Name: "output-folder", Local: true, Aliases: []string{"o"}, Usage: "Output folder (default: timestamped folder)"},
			&cli.StringFlag{Name: "frontmatter", Local: true, Usage: "Frontmatter style (joplin, obsidian, qownnotes)"},
			&cli.StringFlag{Name: "template-file", Local: true, Usage: "Template applied to every note"},
			&cli.StringFlag{Name: "global-resource-folder", Local: true, Usage: "Folder below the output root for all resources"},
			&cli.StringFlag{Name: "local-resource-folder", Local: true, Usage: "Folder next to each note for its resources"},
			&cli.StringFlag{Name: "local-image-folder", Local: true, Usage: "Folder next to each note for its images"},
			&cli.IntFlag{Name: "max-name-length", Local: true, Usage: "Maximum length of file and folder names", Value: 50},
			&cli.BoolFlag{Name: "print-tree", Local: true, Usage: "Print the note tree after filtering"},

			&cli.StringSliceFlag{Name: "exclude-notes", Local: true, Usage: "Exclude notes whose title matches a glob"},
			&cli.StringSliceFlag{Name: "include-notes", Local: true, Usage: "Include only notes whose title matches a glob"},
			&cli.StringSliceFlag{Name: "exclude-notes-with-tags", Local: true, Usage: "Exclude notes with a tag matching a glob"},
			&cli.StringSliceFlag{Name: "include-notes-with-tags", Local: true, Usage: "Include only notes with a tag matching a glob"},
			&cli.StringSliceFlag{Name: "exclude-tags", Local: true, Usage: "Drop tags matching a glob"},
			&cli.StringSliceFlag{Name: "include-tags", Local: true, Usage: "Keep only tags matching a glob"},

			&cli.BoolFlag{Name: "manifest", Local: true, Usage: "Write a SQLite manifest of the import"},
			&cli.StringFlag{Name: "manifest-path", Local: true, Usage: "Manifest location, relative to the output folder"},
			&cli.BoolFlag{Name: "watch", Local: true, Usage: "Convert again whenever an input changes"},
			&cli.DurationFlag{Name: "debounce", Local: true, Usage: "Delay before converting again in watch mode", Value: watch.DefaultDebounce},
		},
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "Serve a read-only HTTP report of a finished import",
				Action: runServe,
				Flags: append(importFlags(),
					&cli.IntFlag{Name: "port", Usage: "HTTP port", Value: 8080, Sources: cli.EnvVars("JIMMY_PORT")},
					&cli.StringFlag{Name: "token", Usage: "Require this bearer token", Sources: cli.EnvVars("JIMMY_API_TOKEN")},
				),
			},
			{
				Name:   "mcp",
				Usage:  "Expose a finished import as MCP tools on stdio",
				Action: runMCP,
				Flags:  importFlags(),
			},
			{
				Name:   "formats",
				Usage:  "List the supported input formats",
				Action: runFormats,
			},
		},
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := cmd.Run(ctx, os.Args); err != nil {
		slog.Error("application error", slog.String("error", err.Error()))
		stop()
		os.Exit(1)
	}
}
