package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/peerpractice/server/internal/config"
	"github.com/peerpractice/server/practiceservice"
)

var (
	envFile string
	rootCmd = &cobra.Command{
		Use:   "peerpractice-server",
		Short: "Backend for the peer-practice scheduling service",
	}
)

func main() {
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", "", "Load environment variables from this file before starting")

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the server",
		RunE: func(cmd *cobra.Command, args []string) error {
			loadEnvFile()
			return practiceservice.Run()
		},
	}
	rootCmd.AddCommand(serveCmd)

	envCmd := &cobra.Command{
		Use:   "env",
		Short: "Print the resolved configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			loadEnvFile()
			cfg, err := config.New()
			if err != nil {
				return err
			}
			fmt.Printf("http_port=%d\n", cfg.HTTPPort)
			fmt.Printf("data_dir=%s\n", cfg.DataDir)
			fmt.Printf("web_root=%s\n", cfg.WebRoot)
			fmt.Printf("cors_allowed_origins=%v\n", cfg.CORSAllowedOrigins)
			fmt.Printf("sweep_interval_minutes=%d\n", cfg.SweepIntervalMinutes)
			fmt.Printf("smtp_host=%s:%d\n", cfg.SMTPHost, cfg.SMTPPort)
			fmt.Printf("mail_from=%s\n", cfg.MailFrom)
			return nil
		},
	}
	rootCmd.AddCommand(envCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// loadEnvFile loads --env-file when given, otherwise a .env in the working
// directory when present. Absence of either is not an error.
func loadEnvFile() {
	if envFile != "" {
		_ = godotenv.Load(envFile)
		return
	}
	_ = godotenv.Load()
}
