package conf

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/solace-community/pubsubplus-topology/sempclient"
)

const defaultVaultAuthPath = "auth/kubernetes"

// ReconcilerConfig holds the settings that apply to every task of a run.
// Connection parameters live in the task file or a connection profile.
type ReconcilerConfig struct {
	// Fixed delay between attempts of a request that failed transiently.
	RetryDelay time.Duration `mapstructure:"retry-delay"`
	// Retries after the first attempt.
	RetryAttempts int `mapstructure:"retry-attempts"`
	// Interval between polls of a Solace Cloud request or service.
	CloudPollInterval time.Duration `mapstructure:"cloud-poll-interval"`
	// How long to wait for a Solace Cloud job to finish.
	CloudTimeoutMinutes int `mapstructure:"cloud-timeout-minutes"`
	// Extra keys excluded from the diff, on top of the built in ones.
	WhitelistKeys []string `mapstructure:"whitelist-keys"`
	// INI file with named connection profiles.
	ProfilesFile string `mapstructure:"profiles-file"`
	Profile      string `mapstructure:"profile"`
	// Vault Kubernetes auth role. Empty means VAULT_TOKEN is used.
	VaultRole     string `mapstructure:"vault-role"`
	VaultAuthPath string `mapstructure:"vault-auth-path"`
	// Resolve credentials from Kubernetes Secrets using the ambient kubeconfig.
	UseKubernetes bool `mapstructure:"use-kubernetes"`
	// Write the Prometheus text exposition of the run metrics to this file.
	MetricsFile string `mapstructure:"metrics-file"`
}

// Source is how external configuration sources populate the reconciler config.
type Source struct {
	v          *viper.Viper
	fset       *pflag.FlagSet
	configFile string
}

// NewSource creates a new Source based on default configuration values.
func NewSource() *Source {
	v := viper.New()
	v.SetDefault("retry-delay", sempclient.DefaultRetryDelay.String())
	v.SetDefault("retry-attempts", sempclient.DefaultRetryAttempts)
	v.SetDefault("cloud-poll-interval", sempclient.DefaultPollInterval.String())
	v.SetDefault("cloud-timeout-minutes", sempclient.DefaultTimeoutMinutes)
	v.SetDefault("whitelist-keys", []string{})
	v.SetDefault("profiles-file", "")
	v.SetDefault("profile", "")
	v.SetDefault("vault-role", "")
	v.SetDefault("vault-auth-path", defaultVaultAuthPath)
	v.SetDefault("use-kubernetes", false)
	v.SetDefault("metrics-file", "")
	return &Source{v: v}
}

// SetConfigFile makes Read load the given file instead of searching the
// default locations. A missing file is then an error.
func (s *Source) SetConfigFile(path string) {
	s.configFile = path
}

// Flags returns a pflag FlagSet populated with flags based on the default
// configuration. Once parsed these flags act as a configuration source.
func (s *Source) Flags() *pflag.FlagSet {
	if s.fset != nil {
		return s.fset
	}
	s.fset = pflag.NewFlagSet("conf", pflag.ExitOnError)
	for _, k := range s.v.AllKeys() {
		s.fset.String(k, "",
			fmt.Sprintf("Specify the %q configuration parameter", k))
	}
	return s.fset
}

// Read a new ReconcilerConfig from all available sources.
func (s *Source) Read() (*ReconcilerConfig, error) {
	v := s.v

	if s.configFile != "" {
		v.SetConfigFile(s.configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, err
		}
	} else {
		// none of these files are required
		v.AddConfigPath("/etc/pubsubplus-topology")
		v.AddConfigPath(".")
		v.SetConfigName("pubsubplus-topology")
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return nil, err
			}
		}
	}

	v.SetEnvPrefix("PUBSUBPLUS")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if s.fset != nil {
		if err := v.BindPFlags(s.fset); err != nil {
			return nil, err
		}
	}

	c := &ReconcilerConfig{}
	if err := v.Unmarshal(c); err != nil {
		return nil, err
	}
	if err := c.validate(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *ReconcilerConfig) validate() error {
	if c.RetryDelay < 0 {
		return fmt.Errorf("retry-delay must not be negative: %s", c.RetryDelay)
	}
	if c.RetryAttempts < 0 {
		return fmt.Errorf("retry-attempts must not be negative: %d", c.RetryAttempts)
	}
	if c.CloudPollInterval <= 0 {
		return fmt.Errorf("cloud-poll-interval must be positive: %s", c.CloudPollInterval)
	}
	if c.CloudTimeoutMinutes < 1 {
		return fmt.Errorf("cloud-timeout-minutes must be at least 1: %d", c.CloudTimeoutMinutes)
	}
	return nil
}
