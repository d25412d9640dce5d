// Command metadata-loader loads dataset and layer metadata exported as CSV
// into the repository service.
//
// Every run creates new entities; the service does not enforce unique
// dataset names. Run "metadata-loader nuke" first to start from an empty
// store.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/google/uuid"
	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/helix-tools/metadata-loader/api"
	"github.com/helix-tools/metadata-loader/config"
	"github.com/helix-tools/metadata-loader/loader"
	"github.com/helix-tools/metadata-loader/logging"
	"github.com/helix-tools/metadata-loader/metrics"
	"github.com/helix-tools/metadata-loader/notify"
	"github.com/helix-tools/metadata-loader/source"
)

func main() {
	// A missing .env is fine; the environment may already be set.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd(cfg).ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		stop()
		os.Exit(1)
	}
}

func newRootCmd(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "metadata-loader",
		Short: "Load dataset metadata into the repository service",
		Long: "Tool to load metadata into a repository service. Note that this always creates " +
			"new datasets (the service does not enforce uniqueness of dataset names). " +
			"Use the nuke command first to start with a clean datastore.",
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if cfg.Repository.Debug {
				cfg.Logging.Level = "debug"
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			logging.Setup(cfg.Logging.Level, cfg.Logging.Format)
			log.WithField("config", cfg.String()).Debug("configuration loaded")
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLoad(cmd.Context(), cfg)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&cfg.Input.DatasetsCSV, "datasetsCsv", "d", cfg.Input.DatasetsCSV, "the CSV file holding dataset metadata (local path or s3://bucket/key)")
	f.StringVarP(&cfg.Input.LayersCSV, "layersCsv", "l", cfg.Input.LayersCSV, "the CSV file holding layer metadata; empty skips layers")
	f.StringVarP(&cfg.Input.MD5SumCSV, "md5sumCsv", "m", cfg.Input.MD5SumCSV, "the manifest holding the md5sums of files")
	f.BoolVarP(&cfg.Input.FakeLocalData, "fakeLocalData", "f", cfg.Input.FakeLocalData, "use fake checksums and previews instead of reading the real data files")
	f.StringSliceVar(&cfg.Input.LocationColumns, "locationColumns", cfg.Input.LocationColumns, "layer CSV columns loaded as locations")
	f.StringVar(&cfg.Input.Encoding, "encoding", cfg.Input.Encoding, "CSV encoding: latin1 or utf-8")
	f.StringVar(&cfg.Metrics.File, "metricsFile", cfg.Metrics.File, "write run metrics to this node exporter textfile")

	pf := cmd.PersistentFlags()
	pf.StringVarP(&cfg.Repository.User, "user", "u", cfg.Repository.User, "repository user name")
	pf.StringVarP(&cfg.Repository.Password, "password", "p", cfg.Repository.Password, "repository password")
	pf.StringVar(&cfg.Repository.RepoEndpoint, "repoEndpoint", cfg.Repository.RepoEndpoint, "repository service base URL")
	pf.StringVar(&cfg.Repository.AuthEndpoint, "authEndpoint", cfg.Repository.AuthEndpoint, "authentication service base URL")
	pf.BoolVar(&cfg.Repository.Debug, "debug", cfg.Repository.Debug, "log every request and CSV cell")

	cmd.AddCommand(newNukeCmd(cfg))

	return cmd
}

func newNukeCmd(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "nuke",
		Short: "Delete every dataset in the repository service",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			logger := logging.ForRun(uuid.NewString())

			env, err := newEnvironment(ctx, cfg, logger)
			if err != nil {
				return err
			}

			n, err := loader.Nuke(ctx, env.client, cfg.Repository.User, env.password, logger)
			logger.WithField("deleted", n).Info("nuke finished")

			return err
		},
	}
}

func runLoad(ctx context.Context, cfg *config.Config) error {
	runID := uuid.NewString()
	logger := logging.ForRun(runID)

	env, err := newEnvironment(ctx, cfg, logger)
	if err != nil {
		return err
	}

	m := metrics.New()

	opts := loader.Options{
		DatasetsCSV:     cfg.Input.DatasetsCSV,
		LayersCSV:       cfg.Input.LayersCSV,
		ChecksumsCSV:    cfg.Input.MD5SumCSV,
		FakeLocalData:   cfg.Input.FakeLocalData,
		User:            cfg.Repository.User,
		Password:        env.password,
		Encoding:        cfg.Input.Encoding,
		LocationColumns: cfg.Input.LocationColumns,
		Debug:           cfg.Repository.Debug,
		Opener:          env.opener,
		Metrics:         m,
		Logger:          logger,
		RunID:           runID,
	}
	if env.publisher != nil {
		opts.Notifier = env.publisher
	}

	summary, runErr := loader.New(env.client, opts).Run(ctx)

	if cfg.Metrics.File != "" {
		if err := m.WriteTextfile(cfg.Metrics.File); err != nil {
			logger.WithError(err).Warn("failed to write metrics")
		}
	}

	if runErr != nil {
		logger.WithFields(log.Fields{
			"project_id": summary.ProjectID,
			"datasets":   summary.Datasets,
			"layers":     summary.Layers,
		}).Error("load aborted")
		return runErr
	}

	return nil
}

// environment holds the clients built from configuration.
type environment struct {
	client    *api.Client
	password  string
	opener    *source.Opener
	publisher *notify.Publisher
}

func newEnvironment(ctx context.Context, cfg *config.Config, logger *log.Entry) (*environment, error) {
	env := &environment{
		client: api.NewClient(cfg.ClientConfig()),
		opener: source.NewOpener(nil),
	}

	var awsCfg aws.Config
	if cfg.NeedsAWS() {
		var err error
		awsCfg, err = api.NewAWSConfig(ctx, cfg.Credentials(), cfg.AWS.Region)
		if err != nil {
			return nil, err
		}
	}

	if cfg.Repository.SignRequests {
		validateCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		arn, err := api.ValidateCredentials(validateCtx, awsCfg)
		cancel()
		if err != nil {
			return nil, err
		}
		logger.WithField("identity", arn).Info("signing requests")
		env.client.EnableSigning(awsCfg, cfg.AWS.Region)
	}

	password, err := api.ResolvePassword(ctx, awsCfg, cfg.PasswordSource())
	if err != nil {
		return nil, err
	}
	env.password = password

	if cfg.Input.UsesS3() {
		env.opener = source.NewOpener(source.NewS3Client(awsCfg, source.S3Config{
			Endpoint:  cfg.AWS.S3Endpoint,
			PathStyle: cfg.AWS.S3PathStyle,
		}))
	}

	if cfg.Notify.QueueURL != "" {
		env.publisher = notify.NewPublisher(notify.NewSQSClient(awsCfg), cfg.Notify.QueueURL)
	}

	return env, nil
}
