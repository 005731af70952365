package cmd

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	cfgpkg "github.com/KaramelBytes/bizdata-cli/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "View or set bizdata configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show effective configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		c := current()
		out := cmd.OutOrStdout()
		for _, key := range cfgpkg.Keys {
			val := configValue(c, key)
			if key == "api_key" {
				val = mask(val)
			}
			fmt.Fprintf(out, "%s: %s\n", key, val)
		}
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a config value and save to disk",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, val := args[0], strings.TrimSpace(args[1])
		// Start from the file and defaults only, so env overrides are not persisted.
		c, err := cfgpkg.LoadFile(cfgFile)
		if err != nil {
			return err
		}
		switch key {
		case "api_key":
			c.APIKey = val
		case "provider":
			c.Provider = strings.ToLower(val)
		case "model":
			c.Model = val
		case "gemini_endpoint":
			c.GeminiEndpoint = val
		case "openrouter_base_url":
			c.OpenRouterBaseURL = val
		case "ollama_host":
			c.OllamaHost = val
		case "timezone":
			c.Timezone = val
		case "log_level":
			c.LogLevel = strings.ToLower(val)
		case "log_format":
			c.LogFormat = strings.ToLower(val)
		case "serve_addr":
			c.ServeAddr = val
		case "temperature", "top_p", "chat_rate_per_sec":
			f, err := strconv.ParseFloat(val, 64)
			if err != nil {
				return fmt.Errorf("invalid float for %s: %w", key, err)
			}
			switch key {
			case "temperature":
				c.Temperature = f
			case "top_p":
				c.TopP = f
			default:
				c.ChatRatePerSec = f
			}
		case "max_tokens", "http_timeout_sec", "chat_burst", "max_upload_mb":
			i, err := strconv.Atoi(val)
			if err != nil {
				return fmt.Errorf("invalid int for %s: %w", key, err)
			}
			switch key {
			case "max_tokens":
				c.MaxTokens = i
			case "http_timeout_sec":
				c.HTTPTimeoutSec = i
			case "chat_burst":
				c.ChatBurst = i
			default:
				c.MaxUploadMB = i
			}
		default:
			return fmt.Errorf("unknown key: %s (known: %s)", key, strings.Join(cfgpkg.Keys, ", "))
		}
		if err := c.Validate(); err != nil {
			return err
		}
		if err := cfgpkg.Save(c, cfgFile); err != nil {
			return err
		}
		cfg = nil
		fmt.Fprintln(cmd.OutOrStdout(), "Saved config")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
}

func configValue(c *cfgpkg.Global, key string) string {
	switch key {
	case "api_key":
		return c.APIKey
	case "provider":
		return c.Provider
	case "model":
		return c.Model
	case "temperature":
		return strconv.FormatFloat(c.Temperature, 'f', -1, 64)
	case "top_p":
		return strconv.FormatFloat(c.TopP, 'f', -1, 64)
	case "max_tokens":
		return strconv.Itoa(c.MaxTokens)
	case "http_timeout_sec":
		return strconv.Itoa(c.HTTPTimeoutSec)
	case "gemini_endpoint":
		return c.GeminiEndpoint
	case "openrouter_base_url":
		return c.OpenRouterBaseURL
	case "ollama_host":
		return c.OllamaHost
	case "timezone":
		return c.Timezone
	case "log_level":
		return c.LogLevel
	case "log_format":
		return c.LogFormat
	case "serve_addr":
		return c.ServeAddr
	case "chat_rate_per_sec":
		return strconv.FormatFloat(c.ChatRatePerSec, 'f', -1, 64)
	case "chat_burst":
		return strconv.Itoa(c.ChatBurst)
	case "max_upload_mb":
		return strconv.Itoa(c.MaxUploadMB)
	}
	return ""
}

func mask(s string) string {
	if s == "" {
		return ""
	}
	if len(s) <= 6 {
		return "******"
	}
	return s[:3] + "****" + s[len(s)-3:]
}
