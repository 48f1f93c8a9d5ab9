package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"runtime/debug"
	"strings"

	"github.com/go-logr/logr"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"golang.org/x/term"

	"github.com/vikki-phucnguyen/onboarding-tools/dynamodb/ddbui"
	"github.com/vikki-phucnguyen/onboarding-tools/dynamodb/explorer"
	"github.com/vikki-phucnguyen/onboarding-tools/dynamodb/logger"
	"github.com/vikki-phucnguyen/onboarding-tools/dynamodb/query"
	"github.com/vikki-phucnguyen/onboarding-tools/dynamodb/render"
	"github.com/vikki-phucnguyen/onboarding-tools/dynamodb/tui"
)

const version = "0.1.0"

// rootOptions carries the global flags and the resolved configuration.
type rootOptions struct {
	configPath string
	verbose    int
	flags      Config

	cfg Config
	log logr.Logger
}

// Execute runs the ddbx command tree.
func Execute() error {
	return newRootCmd().ExecuteContext(context.Background())
}

func newRootCmd() *cobra.Command {
	o := &rootOptions{}
	cmd := &cobra.Command{
		Use:           "ddbx",
		Short:         "Explore DynamoDB records by environment, table and index",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return o.resolve(cmd.Flags())
		},
	}

	pf := cmd.PersistentFlags()
	pf.StringVar(&o.configPath, "config", "", "path to ddbx.yaml (default: nearest ddbx.yaml)")
	pf.StringVar(&o.flags.Backend, "backend", "", "data source: aws or local")
	pf.StringVar(&o.flags.Profile, "profile", "", "AWS shared config profile")
	pf.StringVar(&o.flags.Region, "region", "", "AWS region")
	pf.StringVar(&o.flags.DataDir, "data-dir", "", "local backend directory (default: in-memory)")
	pf.StringVar(&o.flags.Catalog, "catalog", "", "catalog YAML file (default: built-in)")
	pf.StringVar(&o.flags.Seed, "seed", "", "JSON file of items to load into the local backend")
	pf.CountVarP(&o.verbose, "verbose", "v", "increase log verbosity")

	cmd.AddCommand(
		newServeCmd(o),
		newTUICmd(o),
		newQueryCmd(o),
		newWhoamiCmd(o),
		newVersionCmd(),
	)
	return cmd
}

// resolve merges the config file, the environment and the flags that were
// set, then initialises the logger.
func (o *rootOptions) resolve(flags *pflag.FlagSet) error {
	cfg, path, err := LoadConfig(o.configPath, "")
	if err != nil {
		return err
	}
	cfg = cfg.applyEnv(os.Getenv)

	override := func(name string, dst *string, v string) {
		if flags.Changed(name) {
			*dst = v
		}
	}
	override("backend", &cfg.Backend, o.flags.Backend)
	override("profile", &cfg.Profile, o.flags.Profile)
	override("region", &cfg.Region, o.flags.Region)
	override("data-dir", &cfg.DataDir, o.flags.DataDir)
	override("catalog", &cfg.Catalog, o.flags.Catalog)
	override("seed", &cfg.Seed, o.flags.Seed)
	if flags.Changed("port") {
		cfg.Port = o.flags.Port
	}

	if err := cfg.Validate(); err != nil {
		return err
	}
	o.cfg = cfg

	log := logger.Get(-int8(min(o.verbose, 2)))
	o.log = *logger.WithValues(log, "command", "ddbx")
	if path != "" {
		o.log.V(1).Info("loaded config", "path", path)
	}
	return nil
}

func newServeCmd(o *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the web explorer",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := logger.WithLogger(cmd.Context(), &o.log)
			cat, err := loadCatalog(o.cfg)
			if err != nil {
				return fmt.Errorf("load table configuration: %w", err)
			}
			b, err := openBackend(ctx, o.cfg, cat, o.log)
			if err != nil {
				return err
			}

			opts := []ddbui.Option{ddbui.WithCloser(b), ddbui.WithLogger(o.log)}
			if b.identity != nil {
				opts = append(opts, ddbui.WithIdentity(b.identity))
			}
			srv := ddbui.NewServer(ddbui.ServerConfig{
				Port:    o.cfg.Port,
				Backend: o.cfg.Backend,
				Profile: o.cfg.Profile,
				Region:  o.cfg.Region,
				DataDir: o.cfg.DataDir,
			}, b.svc, opts...)
			return srv.Run(ctx)
		},
	}
	cmd.Flags().IntVarP(&o.flags.Port, "port", "p", 0, "HTTP port (default 8080)")
	return cmd
}

func newTUICmd(o *rootOptions) *cobra.Command {
	var noColor bool
	cmd := &cobra.Command{
		Use:   "tui",
		Short: "Start the terminal explorer",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			// Log output would corrupt the screen.
			quiet := logr.Discard()
			ctx := logger.WithLogger(cmd.Context(), &quiet)

			opts := tui.Options{NoColor: noColor || !isTerminal(os.Stdout)}
			cat, err := loadCatalog(o.cfg)
			if err != nil {
				return tui.Run(ctx, explorer.Failed(err), nil, opts)
			}
			b, err := openBackend(ctx, o.cfg, cat, quiet)
			if err != nil {
				return err
			}
			defer b.Close()
			return tui.Run(ctx, explorer.New(cat), b.svc, opts)
		},
	}
	cmd.Flags().BoolVar(&noColor, "no-color", false, "disable colours")
	return cmd
}

type queryOptions struct {
	env         string
	table       string
	index       string
	keys        map[string]string
	mode        string
	search      string
	noNormalize bool
	noColor     bool
}

func newQueryCmd(o *rootOptions) *cobra.Command {
	q := &queryOptions{}
	cmd := &cobra.Command{
		Use:   "query",
		Short: "Run one query and print the results",
		Example: "  ddbx query --table progress -k onboard_id=OB-1\n" +
			"  ddbx query --env prod --table progress --index phone_number_device_id -k phone_number=0901 --mode compact",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := logger.WithLogger(cmd.Context(), &o.log)
			mode, err := render.ParseMode(q.mode)
			if err != nil {
				return err
			}
			cat, err := loadCatalog(o.cfg)
			if err != nil {
				return fmt.Errorf("load table configuration: %w", err)
			}
			env := q.env
			if env == "" {
				if names := cat.EnvironmentNames(); len(names) > 0 {
					env = names[0]
				}
			}

			b, err := openBackend(ctx, o.cfg, cat, o.log)
			if err != nil {
				return err
			}
			defer b.Close()

			items, err := b.svc.Execute(ctx, query.Params{
				Environment: env,
				Table:       q.table,
				IndexName:   q.index,
				Values:      q.keys,
			})
			if err != nil {
				return err
			}

			p := render.Render(items, render.Options{
				Mode:      mode,
				Search:    strings.ToLower(q.search),
				Normalize: !q.noNormalize,
			})
			var theme *render.Theme
			if !q.noColor && isTerminal(cmd.OutOrStdout()) {
				t := render.DefaultTheme()
				theme = &t
			}
			out := cmd.OutOrStdout()
			if mode != render.ModeRaw {
				fmt.Fprintln(out, p.CountLabel)
			}
			fmt.Fprintln(out, render.Text(p, theme))
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVarP(&q.env, "env", "e", "", "environment (default: first in the catalog)")
	f.StringVarP(&q.table, "table", "t", "", "table key in the catalog")
	f.StringVarP(&q.index, "index", "i", "", "index name (default: primary)")
	f.StringToStringVarP(&q.keys, "key", "k", nil, "key field value, as field=value")
	f.StringVarP(&q.mode, "mode", "m", string(render.ModeFormatted), "view mode: formatted, compact or raw")
	f.StringVarP(&q.search, "search", "s", "", "highlight keys containing this text")
	f.BoolVar(&q.noNormalize, "no-normalize", false, "show nested JSON strings as stored")
	f.BoolVar(&q.noColor, "no-color", false, "disable colours")
	_ = cmd.MarkFlagRequired("table")
	return cmd
}

func newWhoamiCmd(o *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the AWS identity in use",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if o.cfg.Backend != backendAWS {
				return fmt.Errorf("whoami requires the %s backend", backendAWS)
			}
			b, err := openBackend(cmd.Context(), o.cfg, nil, o.log)
			if err != nil {
				return err
			}
			id, err := b.identity(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Account: %s\n", id.Account)
			if id.Alias != "" {
				fmt.Fprintf(out, "Alias:   %s\n", id.Alias)
			}
			fmt.Fprintf(out, "ARN:     %s\n", id.ARN)
			fmt.Fprintf(out, "User ID: %s\n", id.UserID)
			fmt.Fprintf(out, "Region:  %s\n", id.Region)
			if id.Profile != "" {
				fmt.Fprintf(out, "Profile: %s\n", id.Profile)
			}
			return nil
		},
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			goVersion := "unknown"
			if info, ok := debug.ReadBuildInfo(); ok {
				goVersion = info.GoVersion
			}
			fmt.Fprintf(cmd.OutOrStdout(), "ddbx version %s (%s)\n", version, goVersion)
			return nil
		},
	}
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
