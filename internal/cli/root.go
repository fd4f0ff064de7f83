// Package cli implements the memory-engine CLI commands.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/rcliao/memory-engine/internal/config"
	"github.com/rcliao/memory-engine/internal/memory"
	"github.com/rcliao/memory-engine/internal/store"
)

var (
	dbPath     string
	configPath string
	cfg        = config.Default()
)

// RootCmd is the top-level command.
var RootCmd = &cobra.Command{
	Use:   "memory-engine",
	Short: "Persistent memory for AI assistants",
	Long:  "Store, redact, chunk and recall conversation memory. SQLite-backed, single binary.",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		loaded, err := config.Load(configPath)
		if err != nil {
			exitErr("load config", err)
		}
		cfg = loaded
		setupLogging(cfg.Log)
	},
}

func init() {
	RootCmd.PersistentFlags().StringVarP(&dbPath, "db", "d", "", "Database path (default: $MEMORY_ENGINE_DB or ~/.memory-engine/memory.db)")
	RootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Config file (default: ~/.memory-engine/config.yaml)")
}

func setupLogging(c config.LogConfig) {
	level, err := zerolog.ParseLevel(c.Level)
	if err != nil || c.Level == "" {
		level = zerolog.WarnLevel
	}
	zerolog.SetGlobalLevel(level)

	if c.Format == "json" {
		log.Logger = zerolog.New(os.Stderr).With().Timestamp().Logger()
		return
	}
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
}

func getDBPath() string {
	return cfg.DBPath(dbPath)
}

func openStore() (*store.SQLiteStore, error) {
	return store.NewSQLiteStore(getDBPath())
}

func newService(s store.Store) *memory.Service {
	return memory.New(s, memory.Options{
		MaxChunkChars:        cfg.Recall.MaxChunkChars,
		ProfileMinConfidence: cfg.Recall.ProfileMinConfidence,
		ContextLimit:         cfg.Recall.ContextLimit,
		Budget:               cfg.Budget,
	})
}

// readContent takes content from positional args, falling back to stdin.
func readContent(args []string) string {
	if len(args) > 0 {
		return strings.Join(args, " ")
	}
	stat, _ := os.Stdin.Stat()
	if (stat.Mode() & os.ModeCharDevice) == 0 {
		b, err := io.ReadAll(os.Stdin)
		if err != nil {
			exitErr("read stdin", err)
		}
		return string(b)
	}
	return ""
}

func splitList(s string) []string {
	var out []string
	for _, t := range strings.Split(s, ",") {
		t = strings.TrimSpace(t)
		if t != "" {
			out = append(out, t)
		}
	}
	return out
}

func printJSON(v interface{}) {
	b, _ := json.MarshalIndent(v, "", "  ")
	fmt.Println(string(b))
}

func exitErr(msg string, err error) {
	fmt.Fprintf(os.Stderr, "error: %s: %v\n", msg, err)
	os.Exit(1)
}
