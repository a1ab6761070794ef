package cmd

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/magicfill/magicfill/internal/learning"
	"github.com/magicfill/magicfill/internal/logger"
	"github.com/magicfill/magicfill/internal/profile"
	"github.com/magicfill/magicfill/internal/storage"
)

var answersCmd = &cobra.Command{
	Use:   "answers",
	Short: "Manage the learned answer library",
}

var answersListCmd = &cobra.Command{
	Use:   "list",
	Short: "List learned answers",
	Run: func(cmd *cobra.Command, _ []string) {
		withStore(func(ctx context.Context, store *storage.Store, zlog *zap.Logger) error {
			answers, err := store.ListAnswers(ctx, cmd.Flag("hostname").Value.String())
			if err != nil {
				return err
			}

			for _, a := range answers {
				if a.Hostname != "" {
					fmt.Printf("%s (%s) = %s\n", a.Key, a.Hostname, a.Value)
					continue
				}
				fmt.Printf("%s = %s\n", a.Key, a.Value)
			}

			zlog.Info("listed answers", zap.Int("count", len(answers)))
			return nil
		})
	},
}

var answersAddCmd = &cobra.Command{
	Use:   "add [key] [value]",
	Short: "Add or update an answer under an explicit key",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		withStore(func(ctx context.Context, store *storage.Store, zlog *zap.Logger) error {
			scope := answerScope(cmd)
			created, err := store.UpsertAnswer(ctx, args[0], args[1], scope)
			if err != nil {
				return err
			}

			zlog.Info("answer stored",
				zap.String("key", args[0]),
				zap.Bool("created", created),
				zap.Bool("site_specific", scope.Site),
			)
			return nil
		})
	},
}

var answersLearnCmd = &cobra.Command{
	Use:   "learn [field-context] [value]",
	Short: "Store an answer under the key derived from a field's context",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		withStore(func(ctx context.Context, store *storage.Store, zlog *zap.Logger) error {
			capture := learning.New(store, zlog)
			key, err := capture.OnFieldCommitted(ctx, args[0], args[1], answerScope(cmd))
			if err != nil {
				return err
			}
			if key == "" {
				return fmt.Errorf("nothing to learn from %q", args[0])
			}

			fmt.Printf("learned %s\n", key)
			return nil
		})
	},
}

var answersDeleteCmd = &cobra.Command{
	Use:   "delete [key]",
	Short: "Delete a learned answer",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		withStore(func(ctx context.Context, store *storage.Store, zlog *zap.Logger) error {
			if err := store.DeleteAnswer(ctx, args[0], answerScope(cmd)); err != nil {
				return err
			}

			zlog.Info("answer deleted", zap.String("key", args[0]))
			return nil
		})
	},
}

var answersExportCmd = &cobra.Command{
	Use:   "export [file]",
	Short: "Export the profile and answer library as JSON",
	Args:  cobra.ExactArgs(1),
	Run: func(_ *cobra.Command, args []string) {
		withStore(func(ctx context.Context, store *storage.Store, zlog *zap.Logger) error {
			data, err := store.PersonalData(ctx)
			if err != nil {
				return err
			}

			raw, err := data.ExportJSON()
			if err != nil {
				return err
			}

			if err := os.WriteFile(args[0], raw, 0o600); err != nil {
				return err
			}

			zlog.Info("exported answer library", zap.String("file", args[0]))
			return nil
		})
	},
}

var answersImportCmd = &cobra.Command{
	Use:   "import [file]",
	Short: "Import a previously exported profile and answer library",
	Args:  cobra.ExactArgs(1),
	Run: func(_ *cobra.Command, args []string) {
		withStore(func(ctx context.Context, store *storage.Store, zlog *zap.Logger) error {
			raw, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}

			data, err := profile.ImportJSON(raw)
			if err != nil {
				return err
			}

			if err := store.SaveProfile(ctx, data); err != nil {
				return err
			}

			zlog.Info("imported answer library", zap.String("file", args[0]))
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(answersCmd)
	answersCmd.AddCommand(answersListCmd, answersAddCmd, answersLearnCmd, answersDeleteCmd, answersExportCmd, answersImportCmd)

	answersCmd.PersistentFlags().String("hostname", "", "scope the operation to one site")
}

func answerScope(cmd *cobra.Command) learning.Scope {
	hostname := cmd.Flag("hostname").Value.String()
	return learning.Scope{Site: hostname != "", Hostname: hostname}
}

// withStore wires the shared setup of every answers subcommand: logger,
// config, store, and fatal error handling.
func withStore(fn func(ctx context.Context, store *storage.Store, zlog *zap.Logger) error) {
	zlog, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}

	config, err := getConfig()
	if err != nil {
		zlog.Fatal("getting a config", zap.Error(err))
	}

	store, err := storage.Open(dataDir(config))
	if err != nil {
		zlog.Fatal("opening the answer store", zap.Error(err))
	}
	defer store.Close()

	if err := fn(context.Background(), store, zlog); err != nil {
		zlog.Fatal("command failed", zap.Error(err))
	}
}
