package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/rcliao/memory-engine/internal/config"
)

func init() {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration management",
	}

	showCmd := &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration as YAML",
		Run: func(cmd *cobra.Command, args []string) {
			b, err := yaml.Marshal(cfg)
			if err != nil {
				exitErr("marshal config", err)
			}
			fmt.Print(string(b))
		},
	}

	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Write a default config file",
		Run: func(cmd *cobra.Command, args []string) {
			path := configPath
			if path == "" {
				path = config.DefaultPath()
			}
			if err := config.Default().Save(path); err != nil {
				exitErr("write config", err)
			}
			fmt.Printf(`{"ok":true,"path":%q}`+"\n", path)
		},
	}

	configCmd.AddCommand(showCmd, initCmd)
	RootCmd.AddCommand(configCmd)
}
