package system

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/Alijeyrad/spa_backend/config"
	"github.com/Alijeyrad/spa_backend/internal/store"
	"github.com/Alijeyrad/spa_backend/pkg/logs"
	redispkg "github.com/Alijeyrad/spa_backend/pkg/redis"
)

func NewSnapshotCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "snapshot",
		Short: "Export or import the persisted state snapshot",
	}

	cmd.AddCommand(newSnapshotExportCommand())
	cmd.AddCommand(newSnapshotImportCommand())

	return cmd
}

func newSnapshotExportCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the persisted snapshot as JSON to --out (default stdout)",
		RunE: func(cmd *cobra.Command, args []string) error {
			out, _ := cmd.Flags().GetString("out")

			return withStore(cmd, func(ctx context.Context, db *store.Store) error {
				if err := db.Load(ctx); err != nil {
					return err
				}
				data, err := db.Export()
				if err != nil {
					return fmt.Errorf("failed to export snapshot: %w", err)
				}

				if out == "" || out == "-" {
					_, err = cmd.OutOrStdout().Write(append(data, '\n'))
					return err
				}
				if err := os.WriteFile(out, data, 0o600); err != nil {
					return fmt.Errorf("failed to write %q: %w", out, err)
				}
				fmt.Fprintf(cmd.ErrOrStderr(), "Snapshot written to %s\n", out)
				return nil
			})
		},
	}

	cmd.Flags().String("out", "", "Output file (default stdout)")

	return cmd
}

func newSnapshotImportCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Replace the persisted snapshot with a JSON export",
		Long: `Replace the persisted snapshot with a JSON export. Packages are normalized on
import: used items outside the session template are dropped and remaining
sessions are recomputed.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := readInput(cmd.InOrStdin(), args[0])
			if err != nil {
				return err
			}

			return withStore(cmd, func(ctx context.Context, db *store.Store) error {
				if err := db.Restore(ctx, data); err != nil {
					return fmt.Errorf("failed to import snapshot: %w", err)
				}
				fmt.Fprintln(cmd.ErrOrStderr(), "Snapshot imported.")
				return nil
			})
		},
	}

	return cmd
}

func readInput(stdin io.Reader, path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(stdin)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %q: %w", path, err)
	}
	return data, nil
}

// withStore opens a store backed by the configured Redis snapshot.
func withStore(cmd *cobra.Command, fn func(ctx context.Context, db *store.Store) error) error {
	cfgPath, err := cmd.Root().PersistentFlags().GetString("config")
	if err != nil {
		return fmt.Errorf("failed to get config flag: %w", err)
	}
	cfg, err := config.ReadConfig(filepath.Dir(cfgPath))
	if err != nil {
		return fmt.Errorf("failed to read config: %w", err)
	}
	if !cfg.Redis.Enabled {
		return errors.New("snapshots live in Redis: enable redis in the config")
	}

	timeout := time.Duration(cfg.Server.TimeoutSeconds) * time.Second
	ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
	defer cancel()

	rdb, err := redispkg.NewRedisFromCentral(ctx, cfg.Redis)
	if err != nil {
		return err
	}
	defer rdb.Close()

	ttl := time.Duration(cfg.Persistence.LockTTLSeconds) * time.Second
	db := store.New(
		store.WithLogger(logs.New(cfg)),
		store.WithPersister(store.NewRedisPersister(rdb, cfg.Persistence.SnapshotKey)),
		store.WithLocker(store.NewRedisLocker(rdb, cfg.Persistence.LockKey, ttl)),
	)
	return fn(ctx, db)
}
