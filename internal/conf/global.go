package conf

import (
	"github.com/prometheus/client_golang/prometheus"
	ctrl "sigs.k8s.io/controller-runtime"

	"github.com/solace-community/pubsubplus-topology/internal"
	"github.com/solace-community/pubsubplus-topology/sempclient"
)

var globalConf *ReconcilerConfig

// Get the global reconciler configuration. Until Load succeeds it holds the
// built in defaults.
func Get() *ReconcilerConfig {
	if globalConf == nil {
		return Defaults()
	}
	return globalConf
}

// Load reads and validates the configuration of a run. A failed Load keeps
// the previous configuration.
func Load(s *Source) error {
	c, err := s.Read()
	if err != nil {
		return err
	}
	globalConf = c
	return nil
}

// Defaults is the configuration of a run without any file, flag or
// environment variable.
func Defaults() *ReconcilerConfig {
	return &ReconcilerConfig{
		RetryDelay:          sempclient.DefaultRetryDelay,
		RetryAttempts:       sempclient.DefaultRetryAttempts,
		CloudPollInterval:   sempclient.DefaultPollInterval,
		CloudTimeoutMinutes: sempclient.DefaultTimeoutMinutes,
		WhitelistKeys:       []string{},
		VaultAuthPath:       defaultVaultAuthPath,
	}
}

// ClientOptions returns the SEMP and Solace Cloud client options of a run.
// Request, retry and poll counters are registered on reg unless it is nil.
func (c *ReconcilerConfig) ClientOptions(reg prometheus.Registerer) sempclient.Options {
	opts := sempclient.DefaultOptions()
	opts.RetryDelay = c.RetryDelay
	opts.RetryAttempts = c.RetryAttempts
	opts.PollInterval = c.CloudPollInterval
	opts.TimeoutMinutes = c.CloudTimeoutMinutes
	opts.Logger = ctrl.Log.WithName("retry")
	if reg != nil {
		opts.Metrics = sempclient.NewMetrics(reg)
	}
	return opts
}

// Whitelist holds the whitelist-keys, excluded from the diff of every kind.
func (c *ReconcilerConfig) Whitelist() internal.Whitelist {
	return internal.NewWhitelist(c.WhitelistKeys)
}
