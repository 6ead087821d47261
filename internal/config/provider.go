package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/covault-org/covault-cli/internal/safe"
)

// Provider resolves the RuntimeConfig from viper for dependency injection.
func Provider(v *viper.Viper) (*RuntimeConfig, error) {
	projectRoot := v.GetString("project_root")
	if projectRoot == "" {
		var err error
		projectRoot, err = FindProjectRoot()
		if err != nil {
			return nil, err
		}
	}

	file, err := loadFileConfig(projectRoot)
	if err != nil {
		return nil, err
	}

	dataDir := filepath.Join(projectRoot, ".covault")
	cfg := &RuntimeConfig{
		ProjectRoot:    projectRoot,
		DataDir:        dataDir,
		StorePath:      filepath.Join(dataDir, "covault.db"),
		Debug:          v.GetBool("debug"),
		NonInteractive: v.GetBool("non_interactive"),
		JSON:           v.GetBool("json"),
		Timeout:        v.GetDuration("timeout"),
		ShareOrigin:    v.GetString("share_origin"),
		Contracts:      safe.DefaultDeployments(),
		File:           file,
	}
	if cfg.ShareOrigin == "" && file.Share.Origin != "" {
		cfg.ShareOrigin = file.Share.Origin
	}

	if networkName := v.GetString("network"); networkName != "" {
		network, err := ResolveNetwork(file, networkName)
		if err != nil {
			return nil, err
		}
		cfg.Network = network
		cfg.Contracts = ResolveContracts(file, network.ChainID)
	}

	return cfg, nil
}

// FindProjectRoot walks up from the current directory looking for a
// covault.toml or an existing .covault data dir; the working directory is
// the fallback so the tool works outside a configured project.
func FindProjectRoot() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", err
	}
	start := dir
	for {
		if _, err := os.Stat(filepath.Join(dir, "covault.toml")); err == nil {
			return dir, nil
		}
		if info, err := os.Stat(filepath.Join(dir, ".covault")); err == nil && info.IsDir() {
			return dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return start, nil
		}
		dir = parent
	}
}

// SetupViper creates the viper instance backing Provider, binding command
// flags, COVAULT_* environment variables and .covault/config.local.json.
func SetupViper(projectRoot string, cmd *cobra.Command) *viper.Viper {
	v := viper.New()

	v.SetConfigName("config.local")
	v.SetConfigType("json")
	v.AddConfigPath(filepath.Join(projectRoot, ".covault"))

	v.SetEnvPrefix("COVAULT")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))

	v.SetDefault("timeout", "6m30s")
	v.SetDefault("debug", false)
	v.SetDefault("non_interactive", false)
	v.SetDefault("project_root", projectRoot)

	_ = v.ReadInConfig()

	cmd.Flags().VisitAll(func(f *pflag.Flag) {
		if err := v.BindPFlag(f.Name, f); err != nil {
			panic(fmt.Sprintf("bind flag %s: %v", f.Name, err))
		}
	})

	return v
}
