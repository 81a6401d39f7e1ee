package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"dataplatform/internal/config"
	"dataplatform/internal/logging"
	"dataplatform/internal/otel"
	"dataplatform/internal/sharefetch"
)

// newRootCmd builds the command. Every flag can also be set through a
// SHARE_-prefixed environment variable (--base-url is SHARE_BASE_URL) or a
// config file passed with --config.
func newRootCmd() *cobra.Command {
	v := viper.New()
	v.SetEnvPrefix("SHARE")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	def := config.Load().Share

	cmd := &cobra.Command{
		Use:          "sharefetch",
		Short:        "Download an archive from the remote share",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		PreRunE: func(cmd *cobra.Command, args []string) error {
			if err := v.BindPFlags(cmd.Flags()); err != nil {
				return err
			}
			if file := v.GetString("config"); file != "" {
				v.SetConfigFile(file)
				if err := v.ReadInConfig(); err != nil {
					return fmt.Errorf("read config: %w", err)
				}
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			logging.Setup(v.GetString("log-level"), v.GetString("log-format"))

			shutdown, err := otel.Init(ctx, "sharefetch")
			if err != nil {
				return err
			}
			defer shutdown(ctx)

			client, err := sharefetch.New(config.ShareConfig{
				BaseURL:      strings.TrimRight(v.GetString("base-url"), "/"),
				ShareCode:    v.GetString("code"),
				LockFileName: v.GetString("lock-file-name"),
				RemoteDir:    v.GetString("remote-dir"),
				OutputDir:    v.GetString("output-dir"),
				NameSuffix:   v.GetString("name-suffix"),
				Timeout:      v.GetDuration("timeout"),
			})
			if err != nil {
				return err
			}

			res, err := client.Fetch(ctx, v.GetString("name"))
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), res.Path)
			return nil
		},
	}

	f := cmd.Flags()
	f.String("config", "", "Config file (yaml, json, toml)")
	f.String("base-url", def.BaseURL, "Share service base URL")
	f.String("code", def.ShareCode, "Share code")
	f.String("lock-file-name", def.LockFileName, "Locked file name as issued with the share")
	f.String("remote-dir", def.RemoteDir, "Remote directory holding the archives")
	f.String("output-dir", def.OutputDir, "Local directory for downloaded archives")
	f.String("name-suffix", def.NameSuffix, "Suffix appended to the date in the default archive name")
	f.String("name", "", "Archive name (default: yesterday as yyyymmdd + suffix)")
	f.Duration("timeout", def.Timeout, "Overall HTTP timeout per request, 0 for none")
	f.String("log-level", "info", "Log level: debug, info, warn, error")
	f.String("log-format", "json", "Log format: json, text")

	return cmd
}
