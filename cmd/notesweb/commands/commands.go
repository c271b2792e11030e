package commands

import (
	"context"
	"fmt"
	"html/template"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/notesweb/core/internal/adapters/repository"
	"github.com/notesweb/core/internal/application/services"
	"github.com/notesweb/core/internal/domain/entities"
	"github.com/notesweb/core/internal/infrastructure/config"
	"github.com/notesweb/core/internal/infrastructure/logger"
	"github.com/notesweb/core/internal/infrastructure/server"
)

// Set at build time with -ldflags "-X .../commands.Version=..."
var (
	Version = "dev"
	Commit  = "none"
)

// config keys overridable from the command line
var flagKeys = map[string]string{
	"notes-root": "notes.root",
	"static-dir": "static.dir",
	"host":       "server.host",
	"port":       "server.port",
}

// NewServeCommand creates the serve command
func NewServeCommand(configFile *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the notes web server",
		Long:  "Serve the index, rendered notes and static assets until SIGINT or SIGTERM",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(*configFile, cmd.Flags())
			if err != nil {
				return err
			}
			return runServer(cfg)
		},
	}

	cmd.Flags().String("host", "", "listen host (default from config)")
	cmd.Flags().Int("port", 0, "listen port (default from config)")
	addNotesFlags(cmd.Flags())
	cmd.Flags().String("static-dir", "", "static asset directory (default from config)")

	return cmd
}

// NewListCommand prints every note the index page would show
func NewListCommand(configFile *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List notes below the notes root",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(*configFile, cmd.Flags())
			if err != nil {
				return err
			}
			cfg.Logger.Output = "stderr"

			appLogger, err := logger.New(cfg.Logger)
			if err != nil {
				return err
			}
			defer appLogger.Close()

			repo := repository.NewNoteRepository(afero.NewOsFs(), cfg.Notes.Root, cfg.Notes.Extension)
			index := services.NewIndexService(repo, nil, appLogger, services.IndexServiceConfig{RootAlias: cfg.Notes.RootAlias})

			notes, err := index.Notes(cmd.Context())
			if err != nil {
				return err
			}

			for _, note := range notes {
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", note.Href(cfg.Notes.RootAlias), note.Path)
			}
			return nil
		},
	}

	addNotesFlags(cmd.Flags())
	return cmd
}

// NewRenderCommand prints one note as the full HTML page the server returns
func NewRenderCommand(configFile *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "render <folder> <id>",
		Short: "Render a note to stdout",
		Long:  "Render folder/id exactly as GET /{folder}/{id} would. Exits non-zero when the fallback page was rendered.",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(*configFile, cmd.Flags())
			if err != nil {
				return err
			}
			cfg.Logger.Output = "stderr"

			ref, err := entities.ParseNoteRef("/" + args[0] + "/" + args[1])
			if err != nil {
				return err
			}

			appLogger, err := logger.New(cfg.Logger)
			if err != nil {
				return err
			}
			defer appLogger.Close()

			pages, err := server.NewTemplater(cfg.Page)
			if err != nil {
				return err
			}

			repo := repository.NewNoteRepository(afero.NewOsFs(), cfg.Notes.Root, cfg.Notes.Extension)
			notes := services.NewNoteService(repo, server.NewRenderer(cfg.Markdown), nil, appLogger, services.NoteServiceConfig{
				RootAlias:  cfg.Notes.RootAlias,
				TableClass: cfg.Markdown.TableClass,
			})

			note, err := notes.Resolve(cmd.Context(), ref)
			if err != nil {
				return err
			}

			page, err := pages.Page(note.Title, template.HTML(note.HTML))
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), page)

			if note.Outcome != entities.OutcomeRendered {
				return fmt.Errorf("%s: %s", ref.Href(), note.Outcome)
			}
			return nil
		},
	}

	addNotesFlags(cmd.Flags())
	return cmd
}

// NewVersionCommand creates the version command
func NewVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print notesweb version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "notesweb %s (commit %s)\n", Version, Commit)
		},
	}
}

func addNotesFlags(flags *pflag.FlagSet) {
	flags.String("notes-root", "", "directory holding the notes (default from config)")
}

// loadConfig reads the config file and environment, then applies any flags
// the command defines. Unset flags never override other sources.
func loadConfig(configFile string, flags *pflag.FlagSet) (*config.Config, error) {
	v, err := config.NewViper(configFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	for name, key := range flagKeys {
		flag := flags.Lookup(name)
		if flag == nil || !flag.Changed {
			continue
		}
		if err := v.BindPFlag(key, flag); err != nil {
			return nil, fmt.Errorf("failed to bind --%s: %w", name, err)
		}
	}

	cfg, err := config.FromViper(v)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	return cfg, nil
}

func runServer(cfg *config.Config) error {
	appLogger, err := logger.New(cfg.Logger)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer appLogger.Close()

	srv, err := server.New(cfg, afero.NewOsFs(), appLogger)
	if err != nil {
		return fmt.Errorf("failed to initialize server: %w", err)
	}

	appLogger.Infow("Starting notesweb",
		"address", cfg.Server.Address(),
		"environment", cfg.App.Environment,
		"version", cfg.App.Version,
	)

	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- srv.Start()
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case err := <-serverErrors:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case sig := <-quit:
		appLogger.Infow("Shutting down server", "signal", sig.String())
	}

	// Create a deadline for graceful shutdown
	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	appLogger.Info("Server exited gracefully")
	return nil
}
