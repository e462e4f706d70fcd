// Command menumail fetches the daily dining menu and emails it to subscribers.
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/dmitrymomot/menumail/internal/config"
	"github.com/dmitrymomot/menumail/internal/delivery"
	"github.com/dmitrymomot/menumail/internal/pipeline"
	"github.com/dmitrymomot/menumail/internal/server"
	"github.com/dmitrymomot/menumail/internal/tasks"
	"github.com/dmitrymomot/menumail/pkg/db"
	"github.com/dmitrymomot/menumail/pkg/health"
	"github.com/dmitrymomot/menumail/pkg/job"
	"github.com/dmitrymomot/menumail/pkg/logger"
	"github.com/dmitrymomot/menumail/pkg/menu"
	"github.com/dmitrymomot/menumail/pkg/redis"
)

const sentryFlushTimeout = 2 * time.Second

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRootCmd().ExecuteContext(ctx)
	stop()
	logger.Flush(sentryFlushTimeout)
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

type cli struct {
	envFile string
	cfg     *config.Config
}

func newRootCmd() *cobra.Command {
	c := &cli{}
	root := &cobra.Command{
		Use:           "menumail",
		Short:         "Email the daily dining menu to subscribers",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			var files []string
			if c.envFile != "" {
				files = append(files, c.envFile)
			}
			cfg, err := config.Load(files...)
			if err != nil {
				return err
			}
			c.cfg = cfg
			return nil
		},
	}
	root.PersistentFlags().StringVar(&c.envFile, "env-file", ".env", "optional dotenv file loaded before the environment")

	root.AddCommand(
		c.runCmd(),
		c.previewCmd(),
		c.serveCmd(),
		c.migrateCmd(),
		c.enqueueCmd(),
	)
	return root
}

// dateFlags are shared by run and preview.
type dateFlags struct {
	date   string
	offset int
}

func (f *dateFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.date, "date", "", "menu date as YYYY-MM-DD (default today in MENU_TIMEZONE)")
	cmd.Flags().IntVar(&f.offset, "offset", 0, "days to add to the date")
}

func (f *dateFlags) request(loc *time.Location) (pipeline.Request, error) {
	req := pipeline.Request{Offset: f.offset}
	if f.date != "" {
		d, err := menu.ParseDate(f.date, loc)
		if err != nil {
			return pipeline.Request{}, err
		}
		req.Date = d
	}
	return req, nil
}

func (c *cli) runCmd() *cobra.Command {
	var (
		dates  dateFlags
		dryRun bool
		force  bool
	)
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Fetch, render and send the menu once",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			validate, mode := c.cfg.ValidateDelivery, modeSend
			if dryRun {
				validate, mode = c.cfg.ValidateDryRun, modeDryRun
			}
			if err := validate(); err != nil {
				return err
			}

			a, err := newApp(c.cfg)
			if err != nil {
				return err
			}
			defer a.close()

			ctx := cmd.Context()
			if err := a.connect(ctx, false); err != nil {
				return err
			}
			runner, err := a.runner(ctx, mode)
			if err != nil {
				return err
			}

			req, err := dates.request(a.loc)
			if err != nil {
				return err
			}
			req.DryRun, req.Force = dryRun, force

			report, err := runner.Run(ctx, req)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s %s: %d items, %d skipped, %d recipients\n",
				report.Date, report.Status, report.Items, report.Skipped, report.Recipients)
			return nil
		},
	}
	dates.register(cmd)
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "render and count recipients without sending")
	cmd.Flags().BoolVar(&force, "force", false, "send even if the date was already delivered")
	return cmd
}

func (c *cli) previewCmd() *cobra.Command {
	var (
		dates dateFlags
		out   string
	)
	cmd := &cobra.Command{
		Use:   "preview",
		Short: "Render the menu email to a file without sending",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := c.cfg.Validate(); err != nil {
				return err
			}

			a, err := newApp(c.cfg)
			if err != nil {
				return err
			}
			defer a.close()

			ctx := cmd.Context()
			if err := a.connect(ctx, false); err != nil {
				return err
			}
			runner, err := a.runner(ctx, modePreview)
			if err != nil {
				return err
			}

			req, err := dates.request(a.loc)
			if err != nil {
				return err
			}
			prepared, err := runner.Preview(ctx, req)
			if err != nil {
				return err
			}

			if out == "-" {
				_, err = io.WriteString(cmd.OutOrStdout(), prepared.Email.HTML)
				return err
			}
			if out == "" {
				out = filepath.Join(c.cfg.ArchiveDir, "preview-"+prepared.DateKey+".html")
			}
			if err := os.MkdirAll(filepath.Dir(out), 0o755); err != nil {
				return err
			}
			if err := os.WriteFile(out, []byte(prepared.Email.HTML), 0o644); err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s: %q written to %s\n", prepared.DateKey, prepared.Email.Subject, out)
			return nil
		},
	}
	dates.register(cmd)
	cmd.Flags().StringVar(&out, "out", "", `output file, "-" for stdout (default <ARCHIVE_DIR>/preview-<date>.html)`)
	return cmd
}

func (c *cli) serveCmd() *cobra.Command {
	var migrate bool
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve health, preview and run endpoints and deliver on the cron schedule",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := c.cfg.ValidateServe(); err != nil {
				return err
			}

			a, err := newApp(c.cfg)
			if err != nil {
				return err
			}
			defer a.close()

			ctx := cmd.Context()
			if err := a.connect(ctx, true); err != nil {
				return err
			}
			if migrate {
				if err := a.migrate(ctx); err != nil {
					return err
				}
			}

			runner, err := a.runner(ctx, modeSend)
			if err != nil {
				return err
			}

			manager, err := job.NewManager(a.pool,
				job.WithLogger(a.log),
				job.WithLocation(a.loc),
				job.WithMaxWorkers(c.cfg.Jobs.MaxWorkers),
				job.WithJobTimeout(tasks.JobTimeout(c.cfg.MenuAPI.Policy())),
				job.WithTask[tasks.SendMenuPayload](tasks.NewSendMenu(runner, a.loc)),
				job.WithScheduledTask(tasks.NewDailyMenu(runner, c.cfg.Schedule, a.log)),
			)
			if err != nil {
				return err
			}

			checks := health.Checks{
				"db":   db.Healthcheck(a.pool),
				"jobs": job.Healthcheck(manager),
			}
			if a.redis != nil {
				checks["redis"] = redis.Healthcheck(a.redis)
			}

			srv := server.New(
				server.Config{Addr: c.cfg.HTTPAddr, ShutdownTimeout: c.cfg.ShutdownTimeout, APIToken: c.cfg.APIToken},
				server.Deps{
					Previewer:  runner,
					Enqueuer:   manager,
					Deliveries: delivery.NewRepository(a.pool),
					Checks:     checks,
					Location:   a.loc,
				},
				server.WithLogger(a.log),
				server.WithStartupHook(manager.StartFunc()),
				server.WithShutdownHook(manager.Shutdown()),
			)

			a.log.Info("serving",
				slog.String("addr", c.cfg.HTTPAddr),
				slog.String("schedule", c.cfg.Schedule),
				slog.String("timezone", a.loc.String()),
			)
			return srv.Run(ctx)
		},
	}
	cmd.Flags().BoolVar(&migrate, "migrate", true, "apply database migrations before serving")
	return cmd
}

func (c *cli) migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply database migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(c.cfg)
			if err != nil {
				return err
			}
			defer a.close()

			if err := a.connect(cmd.Context(), true); err != nil {
				return err
			}
			if err := a.migrate(cmd.Context()); err != nil {
				return err
			}
			a.log.Info("migrations applied")
			return nil
		},
	}
}

func (c *cli) enqueueCmd() *cobra.Command {
	var p tasks.SendMenuPayload
	cmd := &cobra.Command{
		Use:   "enqueue",
		Short: "Queue a delivery for the serve process",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(c.cfg)
			if err != nil {
				return err
			}
			defer a.close()

			ctx := cmd.Context()
			if err := a.connect(ctx, true); err != nil {
				return err
			}
			enq, err := job.NewEnqueuer(a.pool, job.WithEnqueuerLogger(a.log))
			if err != nil {
				return err
			}

			res, err := tasks.EnqueueSendMenu(ctx, enq, p)
			if err != nil {
				return err
			}
			if res.Duplicate {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), "already queued")
				return nil
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "queued job %d\n", res.ID)
			return nil
		},
	}
	cmd.Flags().StringVar(&p.Date, "date", "", "menu date as YYYY-MM-DD (default today)")
	cmd.Flags().BoolVar(&p.Force, "force", false, "send even if the date was already delivered")
	return cmd
}
