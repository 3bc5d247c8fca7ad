// Command backoffice is the admin console for the storefront: order
// status changes, dashboard figures, product maintenance and exports.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/fjod/go_cart/storefront/internal/catalog"
	"github.com/fjod/go_cart/storefront/internal/client"
	"github.com/fjod/go_cart/storefront/internal/config"
	"github.com/fjod/go_cart/storefront/internal/logger"
	"github.com/fjod/go_cart/storefront/internal/notify"
	"github.com/fjod/go_cart/storefront/internal/orders"
	"github.com/fjod/go_cart/storefront/internal/session"
	"github.com/fjod/go_cart/storefront/internal/storage"
	"github.com/fjod/go_cart/storefront/pkg/circuitbreaker"
	"github.com/spf13/cobra"
)

var (
	verbose bool
	apiURL  string
	timeout time.Duration
)

// app holds the collaborators shared by every subcommand.
type app struct {
	store    storage.Store
	api      *client.Client
	sessions *session.Store
	board    *orders.Board
	catalog  *catalog.Catalog
}

var current *app

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "backoffice",
	Short: "Storefront back-office console",
	Long: `Manage storefront orders and products from the terminal.

Sign in once with 'backoffice login'; the session is kept in the configured
local store and reused by later commands until it expires.`,
	SilenceUsage:       true,
	PersistentPreRunE:  setup,
	PersistentPostRunE: teardown,
}

func setup(cmd *cobra.Command, _ []string) error {
	// A failed command skips the post-run hook; release what it left open.
	if current != nil {
		current.store.Close()
		current = nil
	}

	cfg := config.Load()
	if apiURL != "" {
		cfg.APIURL = apiURL
	}
	level := "warn"
	if verbose {
		level = "debug"
	}
	log := logger.NewWithWriter(os.Stderr, level)

	store, err := storage.Open(cmd.Context(), storage.Options{
		Driver:        cfg.StorageDriver,
		SQLitePath:    cfg.SQLitePath,
		RedisAddr:     cfg.RedisAddr,
		RedisPassword: cfg.RedisPassword,
		MongoURI:      cfg.MongoURI,
		MongoDBName:   cfg.MongoDBName,
	})
	if err != nil {
		return fmt.Errorf("open storage: %w", err)
	}

	api := client.New(client.Config{
		BaseURL: cfg.APIURL,
		Timeout: timeout,
		Breaker: circuitbreaker.DefaultOptions(),
	}, log)

	toasts := notify.Func(func(t notify.Toast) {
		fmt.Fprintf(os.Stderr, "[%s] %s: %s\n", t.Severity, t.Title, t.Description)
	})

	sessions := session.NewStore(store, api, toasts, log)
	if err := sessions.Restore(cmd.Context()); err != nil && !errors.Is(err, session.ErrSessionExpired) {
		return err
	}

	current = &app{
		store:    store,
		api:      api,
		sessions: sessions,
		board:    orders.NewBoard(api, sessions, toasts, log),
		catalog:  catalog.New(api, log),
	}
	return nil
}

func teardown(*cobra.Command, []string) error {
	if current == nil {
		return nil
	}
	err := current.store.Close()
	current = nil
	return err
}

// requireSession fails fast for commands that need a signed-in admin.
func requireSession() error {
	if !current.sessions.IsAuthenticated() {
		return errors.New("not signed in; run 'backoffice login' first")
	}
	return nil
}

func withTimeout(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	return context.WithTimeout(cmd.Context(), timeout)
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVar(&apiURL, "api-url", "", "Storefront API base URL (or set API_URL env)")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 30*time.Second, "Operation timeout")

	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(logoutCmd)
	rootCmd.AddCommand(whoamiCmd)
	rootCmd.AddCommand(forgotPasswordCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(ordersCmd)
	rootCmd.AddCommand(productsCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
