package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/redmonkez12/stocktrack-api/cmd/stocktrack-admin/ui"
	"github.com/redmonkez12/stocktrack-api/internal/audit"
	"github.com/redmonkez12/stocktrack-api/internal/auth"
	"github.com/redmonkez12/stocktrack-api/internal/client"
	"github.com/redmonkez12/stocktrack-api/internal/config"
	"github.com/redmonkez12/stocktrack-api/internal/database"
	"github.com/redmonkez12/stocktrack-api/internal/logging"
	"github.com/redmonkez12/stocktrack-api/internal/user"
)

const defaultServer = "http://localhost:3001"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:          "stocktrack-admin",
		Short:        "Operator tooling for the StockTrack API",
		SilenceUsage: true,
	}

	migrateCmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		RunE:  runMigrate,
	}
	migrateCmd.Flags().Bool("status", false, "Only print migration status")

	userCmd := &cobra.Command{
		Use:   "user",
		Short: "Manage user accounts",
	}

	resetCmd := &cobra.Command{
		Use:   "reset-password",
		Short: "Replace the password of an existing account",
		RunE:  runResetPassword,
	}
	resetCmd.Flags().String("email", "", "Account email")
	resetCmd.Flags().String("password", "", "New password (prompted when empty)")
	resetCmd.Flags().BoolP("yes", "y", false, "Skip confirmation prompt")
	userCmd.AddCommand(resetCmd)

	logsCmd := &cobra.Command{
		Use:   "logs",
		Short: "Show the audit log",
		RunE:  runLogs,
	}
	logsCmd.Flags().Int("take", audit.DefaultTake, "Number of entries to fetch (max 100)")
	logsCmd.Flags().Int("skip", 0, "Number of entries to skip")
	addServerFlags(logsCmd)

	productsCmd := &cobra.Command{
		Use:   "products",
		Short: "List products",
		RunE:  runProducts,
	}
	productsCmd.Flags().String("server", defaultServer, "API base URL")

	rootCmd.AddCommand(migrateCmd, userCmd, logsCmd, productsCmd)
	return rootCmd
}

func addServerFlags(cmd *cobra.Command) {
	cmd.Flags().String("server", defaultServer, "API base URL")
	cmd.Flags().String("email", "", "Login email (prompted when empty)")
	cmd.Flags().String("password", "", "Login password (prompted when empty)")
}

func runMigrate(cmd *cobra.Command, args []string) error {
	statusOnly, _ := cmd.Flags().GetBool("status")

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	db, err := database.Open(cfg.Database)
	if err != nil {
		return err
	}
	defer db.Close()

	if statusOnly {
		return database.MigrationStatus(cmd.Context(), db.DB)
	}

	if err := database.Migrate(cmd.Context(), db.DB); err != nil {
		ui.PrintError(cmd.ErrOrStderr(), err.Error())
		return err
	}

	ui.PrintSuccess(cmd.OutOrStdout(), "Migrations applied")
	return nil
}

func runResetPassword(cmd *cobra.Command, args []string) error {
	email, _ := cmd.Flags().GetString("email")
	password, _ := cmd.Flags().GetString("password")
	yes, _ := cmd.Flags().GetBool("yes")

	if err := ui.PromptCredentials("Reset password", &email, &password); err != nil {
		return fmt.Errorf("form cancelled: %w", err)
	}

	if !yes {
		ok, err := ui.Confirm(fmt.Sprintf("Replace the password of %s?", email))
		if err != nil {
			return fmt.Errorf("form cancelled: %w", err)
		}
		if !ok {
			fmt.Fprintln(cmd.OutOrStdout(), "Aborted.")
			return nil
		}
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	db, err := database.Open(cfg.Database)
	if err != nil {
		return err
	}
	defer db.Close()

	logger := logging.NewLogger(cfg.Server.IsDevelopment())
	recorder := audit.NewRecorder(audit.NewRepository(db), logger)
	// Only the credential update runs here, so the token format does not matter.
	service := auth.NewService(
		user.NewRepository(db),
		auth.NewPasswordHasher(cfg.Auth.BcryptCost),
		auth.NewJWTService(cfg.Auth.JWTSecret, cfg.Auth.TokenDuration),
		recorder,
		logger,
	)

	err = service.ResetPassword(cmd.Context(), email, password)
	recorder.Wait()
	if err != nil {
		ui.PrintError(cmd.ErrOrStderr(), err.Error())
		return err
	}

	ui.PrintSuccess(cmd.OutOrStdout(), "Password updated for "+email)
	return nil
}

func runLogs(cmd *cobra.Command, args []string) error {
	take, _ := cmd.Flags().GetInt("take")
	skip, _ := cmd.Flags().GetInt("skip")

	c, err := loggedInClient(cmd)
	if err != nil {
		return err
	}

	entries, err := c.ListLogs(cmd.Context(), take, skip)
	if err != nil {
		ui.PrintError(cmd.ErrOrStderr(), err.Error())
		return err
	}

	fmt.Fprintln(cmd.OutOrStdout(), ui.RenderLogs(entries))
	return nil
}

func runProducts(cmd *cobra.Command, args []string) error {
	server, _ := cmd.Flags().GetString("server")

	products, err := client.New(server, nil).ListProducts(cmd.Context())
	if err != nil {
		ui.PrintError(cmd.ErrOrStderr(), err.Error())
		return err
	}

	fmt.Fprintln(cmd.OutOrStdout(), ui.RenderProducts(products))
	return nil
}

func loggedInClient(cmd *cobra.Command) (*client.Client, error) {
	server, _ := cmd.Flags().GetString("server")
	email, _ := cmd.Flags().GetString("email")
	password, _ := cmd.Flags().GetString("password")

	if err := ui.PromptCredentials("Sign in to "+server, &email, &password); err != nil {
		return nil, fmt.Errorf("form cancelled: %w", err)
	}

	c := client.New(server, nil)
	if _, err := c.Login(cmd.Context(), email, password); err != nil {
		ui.PrintError(cmd.ErrOrStderr(), err.Error())
		return nil, err
	}
	return c, nil
}
