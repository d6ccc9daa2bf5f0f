package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"k8s.io/apimachinery/pkg/runtime"
	clientgoscheme "k8s.io/client-go/kubernetes/scheme"
	ctrl "sigs.k8s.io/controller-runtime"
	"sigs.k8s.io/controller-runtime/pkg/client"

	topology "github.com/solace-community/pubsubplus-topology/api/v1beta1"
	"github.com/solace-community/pubsubplus-topology/controllers"
	"github.com/solace-community/pubsubplus-topology/internal"
	"github.com/solace-community/pubsubplus-topology/internal/conf"
)

// runOutput is printed to stdout after a run.
type runOutput struct {
	Changed bool                  `json:"changed"`
	Failed  bool                  `json:"failed"`
	Results []topology.TaskResult `json:"results"`
}

func newApplyCommand() *cobra.Command {
	var checkMode bool
	cmd := &cobra.Command{
		Use:   "apply TASK_FILE",
		Short: "Run the tasks of a YAML or JSON task file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return apply(cmd.Context(), args[0], checkMode, cmd.OutOrStdout())
		},
	}
	cmd.Flags().BoolVar(&checkMode, "check", false, "Report the changes without applying them")
	return cmd
}

func newKindsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "kinds",
		Short: "List the supported task kinds",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			for _, k := range controllers.NewRegistry().Kinds() {
				fmt.Fprintln(cmd.OutOrStdout(), k)
			}
		},
	}
}

func apply(ctx context.Context, path string, checkMode bool, out io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}
	cfg := conf.Get()

	file, err := loadTaskFile(path)
	if err != nil {
		return err
	}
	file.CheckMode = file.CheckMode || checkMode

	if cfg.Profile != "" {
		profile, err := internal.LoadConnectionProfile(cfg.ProfilesFile, cfg.Profile)
		if err != nil {
			return err
		}
		file.Connection = overlayConnection(profile, file.Connection)
	}

	credentials, err := credentialsProvider(cfg)
	if err != nil {
		return err
	}

	reg := prometheus.NewRegistry()
	runner := &controllers.Runner{
		Registry:    controllers.NewRegistry(),
		Credentials: credentials,
		Options:     cfg.ClientOptions(reg),
		Whitelist:   cfg.Whitelist(),
	}
	results, runErr := runner.Run(ctrl.LoggerInto(ctx, ctrl.Log.WithName("run")), file)

	output := runOutput{Failed: runErr != nil, Results: results}
	for _, r := range results {
		output.Changed = output.Changed || r.Changed
	}
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	if err := enc.Encode(output); err != nil {
		return fmt.Errorf("unable to write results: %w", err)
	}

	if cfg.MetricsFile != "" {
		if err := writeMetrics(reg, cfg.MetricsFile); err != nil {
			log.Error(err, "unable to write metrics", "file", cfg.MetricsFile)
		}
	}
	return runErr
}

// overlayConnection applies the connection of the task file over a profile.
func overlayConnection(profile, fileConnection topology.TaskConfig) topology.TaskConfig {
	t := topology.Task{Connection: &fileConnection}
	return t.MergedConnection(profile)
}

func credentialsProvider(cfg *conf.ReconcilerConfig) (*internal.BrokerCredentialsProvider, error) {
	var k8sClient client.Client
	if cfg.UseKubernetes {
		scheme := runtime.NewScheme()
		if err := clientgoscheme.AddToScheme(scheme); err != nil {
			return nil, err
		}
		restConfig, err := ctrl.GetConfig()
		if err != nil {
			return nil, fmt.Errorf("unable to load kubeconfig: %w", err)
		}
		if k8sClient, err = client.New(restConfig, client.Options{Scheme: scheme}); err != nil {
			return nil, fmt.Errorf("unable to create Kubernetes client: %w", err)
		}
	}
	return internal.NewBrokerCredentialsProvider(k8sClient, &lazyVaultStore{role: cfg.VaultRole, authPath: cfg.VaultAuthPath}), nil
}

// lazyVaultStore logs in to Vault on the first credentials lookup only, so
// that runs without Vault references need no Vault.
type lazyVaultStore struct {
	role, authPath string
	client         *internal.VaultClient
}

func (s *lazyVaultStore) ReadCredentials(path string) (internal.CredentialsProvider, error) {
	if s.client == nil {
		reader, err := internal.NewVaultSecretReader(s.role, s.authPath)
		if err != nil {
			return nil, err
		}
		s.client = &internal.VaultClient{Reader: reader}
	}
	return s.client.ReadCredentials(path)
}

func writeMetrics(g prometheus.Gatherer, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return encodeMetrics(g, f)
}
