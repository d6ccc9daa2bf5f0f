package internal

import (
	"context"
	"errors"
	"fmt"

	corev1 "k8s.io/api/core/v1"
	"k8s.io/apimachinery/pkg/types"
	"sigs.k8s.io/controller-runtime/pkg/client"

	topology "github.com/solace-community/pubsubplus-topology/api/v1beta1"
)

const defaultSecretNamespace = "default"

type CredentialsProvider interface {
	Data(key string) ([]byte, bool)
}

type BrokerCredentials struct {
	data map[string][]byte
}

func NewBrokerCredentials(username, password string) BrokerCredentials {
	return BrokerCredentials{data: map[string][]byte{
		"username": []byte(username),
		"password": []byte(password),
	}}
}

func (c BrokerCredentials) Data(key string) ([]byte, bool) {
	result, ok := c.data[key]
	return result, ok
}

type CredentialsSourceProvider interface {
	GetCredentialsProvider(ctx context.Context, config *topology.TaskConfig) (CredentialsProvider, error)
	Accept(config *topology.TaskConfig) bool
}

// BrokerCredentialsProvider asks its providers in order: Vault, Kubernetes
// Secret, then the username and password of the task config.
type BrokerCredentialsProvider struct {
	providers []CredentialsSourceProvider
}

// NewBrokerCredentialsProvider accepts a nil client and a nil secret store;
// tasks referencing the missing source then fail with an error.
func NewBrokerCredentialsProvider(c client.Client, store SecretStoreClient) *BrokerCredentialsProvider {
	return &BrokerCredentialsProvider{providers: []CredentialsSourceProvider{
		&VaultCredentialsProvider{store: store},
		&K8sSecretCredentialsProvider{client: c},
		&StaticCredentialsProvider{},
	}}
}

func (p *BrokerCredentialsProvider) GetCredentialsProvider(ctx context.Context, config *topology.TaskConfig) (CredentialsProvider, error) {
	for _, provider := range p.providers {
		if provider.Accept(config) {
			return provider.GetCredentialsProvider(ctx, config)
		}
	}
	return nil, fmt.Errorf("unable to find suitable credentials provider for broker %s", config.Host)
}

// ResolveCredentials returns a copy of config with username and password
// taken from the accepted provider.
func (p *BrokerCredentialsProvider) ResolveCredentials(ctx context.Context, config topology.TaskConfig) (topology.TaskConfig, error) {
	creds, err := p.GetCredentialsProvider(ctx, &config)
	if err != nil {
		return config, err
	}
	username, found := creds.Data("username")
	if !found {
		return config, keyMissingErr("username")
	}
	password, found := creds.Data("password")
	if !found {
		return config, keyMissingErr("password")
	}
	config.Username = string(username)
	config.Password = string(password)
	return config, nil
}

func keyMissingErr(key string) error {
	return fmt.Errorf("failed to retrieve %s: key %s missing from credentials", key, key)
}

type StaticCredentialsProvider struct{}

func (s *StaticCredentialsProvider) GetCredentialsProvider(_ context.Context, config *topology.TaskConfig) (CredentialsProvider, error) {
	return NewBrokerCredentials(config.Username, config.Password), nil
}

func (s *StaticCredentialsProvider) Accept(_ *topology.TaskConfig) bool {
	return true
}

type K8sSecretCredentialsProvider struct {
	client client.Client
}

func (p *K8sSecretCredentialsProvider) Accept(config *topology.TaskConfig) bool {
	return config.Credentials != nil && config.Credentials.Secret != nil
}

func (p *K8sSecretCredentialsProvider) GetCredentialsProvider(ctx context.Context, config *topology.TaskConfig) (CredentialsProvider, error) {
	if p.client == nil {
		return nil, errors.New("credentials reference a Kubernetes Secret but no Kubernetes client is configured")
	}
	ref := config.Credentials.Secret
	namespace := ref.Namespace
	if namespace == "" {
		namespace = defaultSecretNamespace
	}
	secret := &corev1.Secret{}
	if err := p.client.Get(ctx, types.NamespacedName{Namespace: namespace, Name: ref.Name}, secret); err != nil {
		return nil, fmt.Errorf("unable to retrieve credentials from Kubernetes secret %s: %w", ref.Name, err)
	}
	return readCredentialsFromKubernetesSecret(secret)
}

func readCredentialsFromKubernetesSecret(secret *corev1.Secret) (CredentialsProvider, error) {
	if secret == nil {
		return nil, errors.New("unable to extract data from nil secret")
	}
	username, ok := secret.Data["username"]
	if !ok {
		return nil, keyMissingErr("username")
	}
	password, ok := secret.Data["password"]
	if !ok {
		return nil, keyMissingErr("password")
	}
	return BrokerCredentials{data: map[string][]byte{
		"username": username,
		"password": password,
	}}, nil
}

type VaultCredentialsProvider struct {
	store SecretStoreClient
}

func (p *VaultCredentialsProvider) Accept(config *topology.TaskConfig) bool {
	return config.Credentials != nil && config.Credentials.VaultPath != ""
}

func (p *VaultCredentialsProvider) GetCredentialsProvider(_ context.Context, config *topology.TaskConfig) (CredentialsProvider, error) {
	if p.store == nil {
		return nil, errors.New("credentials reference a Vault path but no Vault client is configured")
	}
	cp, err := p.store.ReadCredentials(config.Credentials.VaultPath)
	if err != nil {
		return nil, fmt.Errorf("unable to retrieve credentials from secret store: %w", err)
	}
	return cp, nil
}
