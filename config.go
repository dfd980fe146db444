package main

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/Seednode/wordchain/internal/dictionary"
	"github.com/Seednode/wordchain/internal/wordchain"
)

type Config struct {
	bind                string
	dictionaryCacheSize int
	dictionaryKey       string
	dictionaryTimeout   time.Duration
	dictionaryTTL       time.Duration
	dictionaryURL       string
	maxPlayers          int
	port                int
	prefix              string
	profile             bool
	rateBurst           int
	rateLimit           float64
	tlsCert             string
	tlsKey              string
	turnTime            time.Duration
	verbose             bool
	version             bool
	wordList            string

	log zerolog.Logger
}

func (c *Config) validate() error {
	if (c.tlsCert == "") != (c.tlsKey == "") {
		return errors.New("both --tls-cert and --tls-key must be provided together")
	}
	if c.port < 1 || c.port > 65535 {
		return fmt.Errorf("invalid port (must be between 1-65535 inclusive): %d", c.port)
	}
	if c.maxPlayers < 2 || c.maxPlayers > wordchain.DefaultMaxPlayers {
		return fmt.Errorf("invalid max players (must be between 2-%d inclusive): %d", wordchain.DefaultMaxPlayers, c.maxPlayers)
	}
	if c.turnTime < time.Second {
		return fmt.Errorf("turn time must be at least 1s: %s", c.turnTime)
	}
	if c.dictionaryTimeout <= 0 || c.dictionaryTTL <= 0 {
		return errors.New("--dictionary-timeout and --dictionary-ttl must be positive")
	}
	if c.dictionaryCacheSize < 1 {
		return fmt.Errorf("invalid dictionary cache size: %d", c.dictionaryCacheSize)
	}
	if c.rateLimit <= 0 || c.rateBurst < 1 {
		return errors.New("--rate-limit and --rate-burst must be positive")
	}
	return nil
}

func (c *Config) scheme() string {
	if c.tlsCert != "" && c.tlsKey != "" {
		return "https"
	}
	return "http"
}

func newCmd(cfg *Config) *cobra.Command {
	v := viper.New()
	v.SetEnvPrefix("WORDCHAIN")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	cmd := &cobra.Command{
		Use:           "wordchain",
		Short:         "A real-time Korean word chain game for two to four players.",
		Args:          cobra.ExactArgs(0),
		SilenceErrors: true,
		Version:       releaseVersion,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cfg.validate(); err != nil {
				return err
			}
			cfg.log = newLogger(cfg.verbose)
			return ServePage(cmd.Context(), cfg, args)
		},
	}

	fs := cmd.Flags()

	fs.SetNormalizeFunc(func(_ *pflag.FlagSet, name string) pflag.NormalizedName {
		return pflag.NormalizedName(strings.ReplaceAll(name, "_", "-"))
	})

	fs.StringVarP(&cfg.bind, "bind", "b", "0.0.0.0", "address to bind to (env: WORDCHAIN_BIND)")
	fs.IntVar(&cfg.dictionaryCacheSize, "dictionary-cache-size", dictionary.DefaultMaxEntries, "maximum number of cached dictionary lookups (env: WORDCHAIN_DICTIONARY_CACHE_SIZE)")
	fs.StringVar(&cfg.dictionaryKey, "dictionary-key", "", "krdict.korean.go.kr API key (env: WORDCHAIN_DICTIONARY_KEY)")
	fs.DurationVar(&cfg.dictionaryTimeout, "dictionary-timeout", wordchain.DefaultLookupTimeout, "time to wait for a dictionary lookup (env: WORDCHAIN_DICTIONARY_TIMEOUT)")
	fs.DurationVar(&cfg.dictionaryTTL, "dictionary-ttl", dictionary.DefaultTTL, "time to cache dictionary lookups (env: WORDCHAIN_DICTIONARY_TTL)")
	fs.StringVar(&cfg.dictionaryURL, "dictionary-url", dictionary.DefaultKRDictURL, "krdict search endpoint (env: WORDCHAIN_DICTIONARY_URL)")
	fs.IntVar(&cfg.maxPlayers, "max-players", wordchain.DefaultMaxPlayers, "players allowed per room (env: WORDCHAIN_MAX_PLAYERS)")
	fs.IntVarP(&cfg.port, "port", "p", 8080, "port to listen on (env: WORDCHAIN_PORT)")
	fs.StringVar(&cfg.prefix, "prefix", "", "path to prepend to all URLs, for use behind reverse proxy (env: WORDCHAIN_PREFIX)")
	fs.BoolVar(&cfg.profile, "profile", false, "register net/http/pprof handlers (env: WORDCHAIN_PROFILE)")
	fs.IntVar(&cfg.rateBurst, "rate-burst", 10, "messages a connection may send in a burst (env: WORDCHAIN_RATE_BURST)")
	fs.Float64Var(&cfg.rateLimit, "rate-limit", 5, "messages per second allowed per connection (env: WORDCHAIN_RATE_LIMIT)")
	fs.StringVar(&cfg.tlsCert, "tls-cert", "", "path to tls certificate (env: WORDCHAIN_TLS_CERT)")
	fs.StringVar(&cfg.tlsKey, "tls-key", "", "path to tls keyfile (env: WORDCHAIN_TLS_KEY)")
	fs.DurationVar(&cfg.turnTime, "turn-time", wordchain.DefaultTimeLimit, "time each player has to answer (env: WORDCHAIN_TURN_TIME)")
	fs.BoolVarP(&cfg.verbose, "verbose", "v", false, "display additional output (env: WORDCHAIN_VERBOSE)")
	fs.BoolVarP(&cfg.version, "version", "V", false, "display version and exit (env: WORDCHAIN_VERSION)")
	fs.StringVar(&cfg.wordList, "word-list", "", "file of accepted words, one per line, used when no API key is set (env: WORDCHAIN_WORD_LIST)")

	fs.VisitAll(func(f *pflag.Flag) {
		_ = v.BindPFlag(f.Name, f)
		_ = v.BindEnv(f.Name)
		if !f.Changed && v.IsSet(f.Name) {
			_ = fs.Set(f.Name, fmt.Sprintf("%v", v.Get(f.Name)))
		}
	})

	cmd.CompletionOptions.HiddenDefaultCmd = true
	cmd.SetHelpCommand(&cobra.Command{Hidden: true})
	cmd.SetVersionTemplate("wordchain v{{.Version}}\n")

	cmd.SilenceErrors = true
	cmd.SilenceUsage = true

	return cmd
}
