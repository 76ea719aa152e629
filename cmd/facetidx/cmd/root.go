package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/hupe1980/facetidx"
	"github.com/spf13/cobra"
)

var (
	logLevel  string
	logFormat string
	ddbTable  string
	s3Express bool
	minioTLS  bool

	logger *facetidx.Logger
)

// RootCmd represents the base command when called without any subcommands
var RootCmd = &cobra.Command{
	Use:   "facetidx",
	Short: "facetidx maintains facet levels of index snapshots",
	Long: `facetidx loads the latest snapshot from a store, modifies it and saves a new one.

A store is a local directory, s3://bucket/prefix or minio://endpoint/bucket/prefix.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var level slog.Level
		if err := level.UnmarshalText([]byte(logLevel)); err != nil {
			return fmt.Errorf("invalid --log-level %q", logLevel)
		}
		opts := &slog.HandlerOptions{Level: level}
		switch strings.ToLower(logFormat) {
		case "text":
			logger = facetidx.NewLogger(slog.NewTextHandler(os.Stderr, opts))
		case "json":
			logger = facetidx.NewLogger(slog.NewJSONHandler(os.Stderr, opts))
		default:
			return fmt.Errorf("invalid --log-format %q", logFormat)
		}
		return nil
	},
}

func init() {
	RootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level: debug, info, warn or error")
	RootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "text", "log format: text or json")
	RootCmd.PersistentFlags().StringVar(&ddbTable, "ddb-table", "", "DynamoDB table guarding CURRENT of s3:// stores")
	RootCmd.PersistentFlags().BoolVar(&s3Express, "s3-express", false, "treat the s3:// bucket as an S3 Express One Zone directory bucket")
	RootCmd.PersistentFlags().BoolVar(&minioTLS, "minio-tls", true, "use HTTPS for minio:// stores")
}
