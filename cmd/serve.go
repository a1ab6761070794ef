package cmd

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/magicfill/magicfill/internal/api"
	"github.com/magicfill/magicfill/internal/learning"
	"github.com/magicfill/magicfill/internal/logger"
	"github.com/magicfill/magicfill/internal/profile"
	"github.com/magicfill/magicfill/internal/resolver"
	"github.com/magicfill/magicfill/internal/secrets"
	"github.com/magicfill/magicfill/internal/storage"
)

const (
	defaultListen   = "127.0.0.1:8765"
	shutdownTimeout = 10 * time.Second
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the fill engine over HTTP for browser-side collaborators",
	Run: func(_ *cobra.Command, _ []string) {
		runServe()
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringP("listen", "l", defaultListen, "address to listen on")

	viper.BindPFlag("serve.listen", serveCmd.Flags().Lookup("listen"))

	if err := viper.BindEnv("serve.token-file", "MAGICFILL_TOKEN_FILE"); err != nil {
		log.Fatalf("binding MAGICFILL_TOKEN_FILE environment variable: %v", err)
	}
}

func runServe() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	zlog, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}

	config, err := getConfig()
	if err != nil {
		zlog.Fatal("getting a config", zap.Error(err))
	}

	tokenFile := viper.GetString("serve.token-file")
	token, err := secrets.Load(secrets.Source{
		Name: "api token",
		File: tokenFile,
	})
	if err != nil {
		zlog.Fatal(
			"loading the api token",
			zap.Error(err),
			zap.String("hint", "set MAGICFILL_TOKEN_FILE environment variable or the 'serve.token-file' key in the configuration file"),
		)
	}

	store, err := storage.Open(dataDir(config))
	if err != nil {
		zlog.Fatal("opening the answer store", zap.Error(err))
	}
	defer store.Close()

	var mappings map[string]profile.FieldMapping
	if config.MappingsFile != "" {
		if mappings, err = profile.LoadFieldMappings(config.MappingsFile); err != nil {
			zlog.Fatal("loading field mappings", zap.Error(err))
		}
	}

	handler := api.NewAppHandler(api.AppDeps{
		Store:    store,
		Resolver: resolver.New(resolver.Options{UseSiteAnswers: viper.GetBool("fill.site-answers")}, zlog),
		Capture:  learning.New(store, zlog),
		Mappings: mappings,
		Token:    token,
		Logger:   zlog,
	})

	srv := &http.Server{
		Addr:              viper.GetString("serve.listen"),
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	group, ctx := errgroup.WithContext(ctx)

	group.Go(func() error {
		zlog.Info("starting the http server", zap.String("listen", srv.Addr))
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	group.Go(func() error {
		<-ctx.Done()

		zlog.Info("shutting down the http server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		return srv.Shutdown(shutdownCtx)
	})

	if err := group.Wait(); err != nil {
		zlog.Fatal("http server failed", zap.Error(err))
	}

	zlog.Info("server stopped")
}
