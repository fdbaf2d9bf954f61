package main

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/dreamer-zq/savekit/internal/config"
)

func initCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Generate a node configuration file",
		Long:  "Generate config.yaml for a SaveKit node with the selected storage, serializer and ciphers.",
		RunE:  runInit,
	}

	cmd.Flags().StringP(flagOutput, "o", "./", "Output directory for the config file")
	cmd.Flags().String("storage", "file", "Storage type (file|leveldb|redis|memory)")
	cmd.Flags().String("storage-path", "./data/saves", "Storage path for file and leveldb storage")
	cmd.Flags().String("redis-addr", "127.0.0.1:6379", "Redis address for redis storage")
	cmd.Flags().String("serializer", "json", "Serializer (json|yaml)")
	cmd.Flags().StringSlice("cipher", nil, "Cipher chain links in order, e.g. --cipher aes-gcm --cipher base64")
	cmd.Flags().Int("http-port", 8080, "HTTP API port")
	cmd.Flags().Bool("auth", false, "Enable JWT authentication with a freshly generated secret")
	cmd.Flags().Bool("force", false, "Overwrite an existing config file")

	return cmd
}

func runInit(cmd *cobra.Command, _ []string) error {
	outputDir, _ := cmd.Flags().GetString(flagOutput)
	storageType, _ := cmd.Flags().GetString("storage")
	storagePath, _ := cmd.Flags().GetString("storage-path")
	redisAddr, _ := cmd.Flags().GetString("redis-addr")
	serializerName, _ := cmd.Flags().GetString("serializer")
	ciphers, _ := cmd.Flags().GetStringSlice("cipher")
	httpPort, _ := cmd.Flags().GetInt("http-port")
	withAuth, _ := cmd.Flags().GetBool("auth")
	force, _ := cmd.Flags().GetBool("force")

	cfg := config.Default()
	cfg.Storage.Type = storageType
	cfg.Storage.Path = storagePath
	cfg.Storage.Redis.Addr = redisAddr
	cfg.Pipeline.Serializer = serializerName
	cfg.Server.HTTP.Port = httpPort

	links, err := cipherLinks(ciphers)
	if err != nil {
		return err
	}
	cfg.Pipeline.Ciphers = links

	if withAuth {
		secret, err := generateSecret()
		if err != nil {
			return err
		}
		cfg.Security.APIAuth = config.AuthConfig{Enabled: true, JWTSecret: secret, JWTIssuer: "savekit"}
	}

	if err := config.Validate(cfg); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	configFile := filepath.Join(outputDir, "config.yaml")
	if _, err := os.Stat(configFile); err == nil && !force {
		return fmt.Errorf("%s already exists, use --force to overwrite", configFile)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(configFile, data, 0o600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	logger.Info("Generated configuration",
		zap.String("file", configFile),
		zap.String("storage", storageType),
		zap.Int("ciphers", len(links)),
		zap.Bool("auth", withAuth))
	return nil
}

// cipherLinks turns --cipher values into config links. Password based
// ciphers read SAVEKIT_PASSWORD; xor and rotate get generated parameters.
func cipherLinks(types []string) ([]config.CipherConfig, error) {
	links := make([]config.CipherConfig, 0, len(types))
	for _, t := range types {
		link := config.CipherConfig{Type: t}
		switch t {
		case "xor":
			key, err := generateSecret()
			if err != nil {
				return nil, err
			}
			link.Key = key
		case "rotate":
			link.Shift = 13
		case "aes-cbc", "aes-gcm", "chacha20":
			link.PasswordEnv = "SAVEKIT_PASSWORD"
		}
		links = append(links, link)
	}
	return links, nil
}

// generateSecret returns 32 random bytes, hex encoded
func generateSecret() (string, error) {
	key := make([]byte, 32)
	if _, err := rand.Read(key); err != nil {
		return "", fmt.Errorf("failed to generate random secret: %w", err)
	}
	return hex.EncodeToString(key), nil
}
