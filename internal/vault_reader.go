package internal

import (
	"errors"
	"fmt"
	"os"
	"sort"

	vault "github.com/hashicorp/vault/api"
)

const defaultAuthPath = "auth/kubernetes"

type SecretStoreClient interface {
	ReadCredentials(path string) (CredentialsProvider, error)
}

//go:generate go run github.com/maxbrunsfeld/counterfeiter/v6 . SecretReader
type SecretReader interface {
	ReadSecret(path string) (*vault.Secret, error)
}

// VaultClient reads broker credentials stored in a kv v2 secret as data.username and data.password.
type VaultClient struct {
	Reader SecretReader
}

var ServiceAccountToken = readServiceAccountToken

// ReadCredentials returns the broker username and password held at path.
func (vc VaultClient) ReadCredentials(path string) (CredentialsProvider, error) {
	secret, err := vc.Reader.ReadSecret(path)
	if err != nil {
		return nil, fmt.Errorf("unable to read Vault secret: %w", err)
	}
	data, err := kvV2Data(secret)
	if err != nil {
		return nil, fmt.Errorf("vault secret %s: %w", path, err)
	}

	var values [2]string
	for i, key := range []string{"username", "password"} {
		v, ok := data[key].(string)
		if !ok {
			return nil, fmt.Errorf("vault secret %s: expected %s to be a string but is a %T", path, key, data[key])
		}
		values[i] = v
	}
	return NewBrokerCredentials(values[0], values[1]), nil
}

// kvV2Data unwraps the data.data map of a kv v2 read.
func kvV2Data(secret *vault.Secret) (map[string]interface{}, error) {
	switch {
	case secret == nil:
		return nil, errors.New("returned Vault secret is nil")
	case len(secret.Warnings) > 0:
		return nil, fmt.Errorf("warnings were returned from Vault: %v", secret.Warnings)
	case len(secret.Data) == 0:
		return nil, errors.New("returned Vault secret has no data")
	case secret.Data["data"] == nil:
		return nil, fmt.Errorf("no value for key 'data', available keys are: %v", availableKeys(secret.Data))
	}
	data, ok := secret.Data["data"].(map[string]interface{})
	if !ok {
		return nil, fmt.Errorf("expected 'data' to be a map but is a %T", secret.Data["data"])
	}
	return data, nil
}

func availableKeys(m map[string]interface{}) []string {
	result := make([]string, 0, len(m))
	for k := range m {
		result = append(result, k)
	}
	sort.Strings(result)
	return result
}

// VaultSecretReader talks to Vault with the Vault Go client. VAULT_ADDR and
// VAULT_TOKEN are read from the environment.
type VaultSecretReader struct {
	client *vault.Client
}

// NewVaultSecretReader logs in with the Kubernetes auth method when role is
// set, and uses VAULT_TOKEN otherwise.
func NewVaultSecretReader(role, authPath string) (*VaultSecretReader, error) {
	vaultClient, err := vault.NewClient(vault.DefaultConfig())
	if err != nil {
		return nil, fmt.Errorf("unable to initialize Vault client: %w", err)
	}
	r := &VaultSecretReader{client: vaultClient}
	if role == "" {
		return r, nil
	}
	if authPath == "" {
		authPath = defaultAuthPath
	}
	jwt, err := ServiceAccountToken()
	if err != nil {
		return nil, fmt.Errorf("unable to read file containing service account token: %w", err)
	}
	loginSecret, err := vaultClient.Logical().Write(authPath+"/login", map[string]interface{}{
		"jwt":  string(jwt),
		"role": role,
	})
	if err != nil {
		return nil, fmt.Errorf("unable to login to Vault: %w", err)
	}
	if loginSecret == nil || loginSecret.Auth == nil || loginSecret.Auth.ClientToken == "" {
		return nil, errors.New("no client token found in Vault secret")
	}
	vaultClient.SetToken(loginSecret.Auth.ClientToken)
	return r, nil
}

func (r *VaultSecretReader) ReadSecret(path string) (*vault.Secret, error) {
	secret, err := r.client.Logical().Read(path)
	if err != nil {
		return nil, fmt.Errorf("unable to read Vault secret: %w", err)
	}
	return secret, nil
}

func readServiceAccountToken() ([]byte, error) {
	// Kubernetes mounts the token here unless an administrator configured otherwise.
	path := "/var/run/secrets/kubernetes.io/serviceaccount/token"
	token, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("unable to read file %s: %w", path, err)
	}
	return token, nil
}
