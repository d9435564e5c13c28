package cmd

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/huangsam/tdacrash/internal/contract"
	"github.com/huangsam/tdacrash/internal/iocache"
	"github.com/huangsam/tdacrash/schema"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// cacheSetup loads minimal configuration needed for cache operations.
// This is used by commands that need cache access without full shared setup.
func cacheSetup() error {
	if err := loadConfigFile(); err != nil {
		return err
	}

	// Get cache-related config values
	backend := schema.DatabaseBackend(viper.GetString("cache-backend"))
	connStr := viper.GetString("cache-db-connect")

	// Basic validation for database backends
	if err := contract.ValidateDatabaseConnectionString(backend, connStr); err != nil {
		return err
	}

	// Initialize caching with the loaded config (no analysis tracking for cache commands)
	if err := iocache.InitStores(backend, connStr, "", ""); err != nil {
		return fmt.Errorf("failed to initialize cache: %w", err)
	}

	cfg.CacheBackend = backend
	cfg.CacheDBConnect = connStr

	return nil
}

// cacheSetupWrapper wraps cacheSetup to provide PreRunE for cache commands.
func cacheSetupWrapper(_ *cobra.Command, _ []string) error {
	return cacheSetup()
}

// cacheCmd focused on cache management.
//
// Note: Cache subcommands use minimal initialization (cacheSetup) instead of
// the full sharedSetup, so no featurization flags are validated.
var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Manage the persistence diagram cache (improves performance)",
	Long: `Manage the cache of persistence diagrams computed by the pipeline.

Every window's diagram is keyed by the oracle settings, the homology dimensions and
the exact coordinates of its point cloud, so re-running the pipeline on the same
prices skips the expensive ripser calls.

Supported backends: SQLite (default), MySQL, PostgreSQL, or None (disabled)

Subcommands:
  status - Show cache statistics and connection info
  prune  - Remove diagrams past their time to live
  clear  - Remove all cached diagrams

Examples:
  # Check cache status
  tdacrash cache status

  # Clear cache after upgrading ripser
  tdacrash cache clear`,
}

// cacheClearCmd clears the cache.
var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove all cached persistence diagrams",
	Long: `Delete all cached persistence diagrams from the configured backend.

For SQLite: Deletes the database file
For MySQL/PostgreSQL: Drops the cache table

Examples:
  # Clear SQLite cache (default)
  tdacrash cache clear

  # Clear MySQL cache (set connection string via env variable)
  TDACRASH_CACHE_BACKEND=mysql TDACRASH_CACHE_DB_CONNECT="..." tdacrash cache clear`,
	PreRunE: cacheSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		// Release the SQLite file before removing it
		iocache.CloseStores()
		if err := iocache.ClearCache(cfg.CacheBackend, contract.GetCacheDBFilePath(), cfg.CacheDBConnect); err != nil {
			contract.LogFatal("Failed to clear cache", err)
		}
		fmt.Println("Cache cleared successfully.")
	},
}

// cacheStatusCmd shows cache status.
var cacheStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Display cache statistics and connection details",
	Long: `Show detailed information about the persistence diagram cache.

Displays:
- Backend type and connection status
- Total number of cached diagrams
- Last and oldest cache entry timestamps

Examples:
  # Check cache status
  tdacrash cache status`,
	PreRunE: cacheSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		store := iocache.Manager.GetDiagramStore()
		if store == nil {
			contract.LogFatal("Failed to get cache status", errors.New("no cache backend configured"))
		}
		status, err := store.GetStatus()
		if err != nil {
			contract.LogFatal("Failed to get cache status", err)
		}
		iocache.PrintCacheStatus(os.Stdout, status)
	},
}

// cachePruneCmd removes expired diagrams.
var cachePruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Remove cached diagrams past their time to live",
	Long: `Delete cached persistence diagrams older than --older-than.

Expired diagrams are never served, so pruning only reclaims space.

Examples:
  # Remove diagrams older than the default time to live (7 days)
  tdacrash cache prune

  # Keep only the last day
  tdacrash cache prune --older-than 24h`,
	PreRunE: cacheSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		store := iocache.Manager.GetDiagramStore()
		if store == nil {
			contract.LogFatal("Failed to prune cache", errors.New("no cache backend configured"))
		}
		cutoff := time.Now().Add(-viper.GetDuration("older-than"))
		removed, err := store.Prune(cutoff.Unix())
		if err != nil {
			contract.LogFatal("Failed to prune cache", err)
		}
		fmt.Printf("Removed %d expired diagrams.\n", removed)
	},
}
