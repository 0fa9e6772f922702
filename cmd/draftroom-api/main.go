package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/draftroomhq/draftroom/backend/internal/auth"
	"github.com/draftroomhq/draftroom/backend/internal/config"
	"github.com/draftroomhq/draftroom/backend/internal/database"
	"github.com/draftroomhq/draftroom/backend/internal/documents"
	"github.com/draftroomhq/draftroom/backend/internal/email"
	"github.com/draftroomhq/draftroom/backend/internal/logging"
	"github.com/draftroomhq/draftroom/backend/internal/notify"
	"github.com/draftroomhq/draftroom/backend/internal/publishing"
	"github.com/draftroomhq/draftroom/backend/internal/server"
	"github.com/draftroomhq/draftroom/backend/internal/users"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

var (
	cfgFile string
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "draftroom-api",
		Short: "Draftroom block-comment and notification backend service",
		PreRunE: func(cmd *cobra.Command, args []string) error {
			return initConfig()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context())
		},
	}

	setupFlags(rootCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func setupFlags(cmd *cobra.Command) {
	config.ApplyDefaults(viper.GetViper())
	defaults := config.NewViper()
	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "Path to configuration file")
	cmd.PersistentFlags().String("http-address", defaults.GetString("http.address"), "HTTP listen address")
	cmd.PersistentFlags().String("database-path", defaults.GetString("database.path"), "SQLite database path")
	cmd.PersistentFlags().String("log-level", defaults.GetString("log.level"), "Log level (debug, info, warn, error)")
	cmd.PersistentFlags().String("base-url", defaults.GetString("links.base_url"), "Public base URL for unsubscribe links")
	cmd.PersistentFlags().String("editor-base-url", defaults.GetString("links.editor_base_url"), "Editor base URL for edit/view links")
	cmd.PersistentFlags().String("signing-secret", "", "Opt-out link signing secret (overrides env)")
	cmd.PersistentFlags().String("smtp-host", defaults.GetString("smtp.host"), "SMTP host")
	cmd.PersistentFlags().String("smtp-port", defaults.GetString("smtp.port"), "SMTP port")
	cmd.PersistentFlags().String("smtp-from", defaults.GetString("smtp.from"), "Mail From address")

	bindFlag(cmd, "http.address", "http-address")
	bindFlag(cmd, "database.path", "database-path")
	bindFlag(cmd, "log.level", "log-level")
	bindFlag(cmd, "links.base_url", "base-url")
	bindFlag(cmd, "links.editor_base_url", "editor-base-url")
	bindFlag(cmd, "links.signing_secret", "signing-secret")
	bindFlag(cmd, "smtp.host", "smtp-host")
	bindFlag(cmd, "smtp.port", "smtp-port")
	bindFlag(cmd, "smtp.from", "smtp-from")
}

func bindFlag(cmd *cobra.Command, key, flag string) {
	if err := viper.BindPFlag(key, cmd.PersistentFlags().Lookup(flag)); err != nil {
		panic(err)
	}
}

func initConfig() error {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	}

	if err := viper.ReadInConfig(); err != nil {
		var configNotFound viper.ConfigFileNotFoundError
		if cfgFile != "" && errors.As(err, &configNotFound) {
			return err
		}
	}

	return nil
}

func runServer(ctx context.Context) error {
	appConfig, err := config.Load(viper.GetViper())
	if err != nil {
		return err
	}

	logger, err := logging.NewLogger(appConfig.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck

	db, err := database.OpenSQLite(appConfig.DatabasePath, logger)
	if err != nil {
		return err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	defer sqlDB.Close()

	userService, err := users.NewService(users.ServiceConfig{Database: db})
	if err != nil {
		return err
	}

	documentStore, err := documents.NewStore(documents.StoreConfig{Database: db})
	if err != nil {
		return err
	}

	optOutTokens := auth.NewOptOutTokenIssuer(auth.OptOutTokenIssuerConfig{
		SigningSecret: []byte(appConfig.SigningSecret),
	})

	mailer := email.NewMailer(email.Config{
		Host:     appConfig.SMTPHost,
		Port:     appConfig.SMTPPort,
		Username: appConfig.SMTPUsername,
		Password: appConfig.SMTPPassword,
		From:     appConfig.MailFrom,
		FromName: appConfig.MailFromName,
	})
	if !mailer.IsConfigured() {
		logger.Warn("smtp not configured; notification emails will fail to send")
	}

	dispatcher, err := notify.NewDispatcher(notify.DispatcherConfig{
		Mailer:        mailer,
		Users:         userService,
		Tokens:        optOutTokens,
		BaseURL:       appConfig.BaseURL,
		EditorBaseURL: appConfig.EditorBaseURL,
		Logger:        logger,
	})
	if err != nil {
		return err
	}

	publishingService, err := publishing.NewService(publishing.ServiceConfig{
		Database:   db,
		Resolver:   notify.NewResolver(userService, logger),
		Dispatcher: dispatcher,
		IDProvider: publishing.NewUUIDProvider(),
		Clock:      time.Now,
		Logger:     logger,
	})
	if err != nil {
		return err
	}

	handler, err := server.NewHTTPHandler(server.Dependencies{
		PublishingService: publishingService,
		UserService:       userService,
		DocumentStore:     documentStore,
		OptOutTokens:      optOutTokens,
		Logger:            logger,
	})
	if err != nil {
		return err
	}

	httpServer := &http.Server{
		Addr:    appConfig.HTTPAddress,
		Handler: handler,
	}

	signalCtx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server starting", zap.String("address", appConfig.HTTPAddress))
		err := httpServer.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-signalCtx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}
