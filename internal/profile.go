package internal

import (
	"fmt"

	"gopkg.in/ini.v1"

	topology "github.com/solace-community/pubsubplus-topology/api/v1beta1"
)

// LoadConnectionProfile reads section name of an INI file into a TaskConfig.
// Keys use the same names as the connection block of a task file:
//
//	[broker-1]
//	host = broker-1.example.com
//	port = 943
//	secure_connection = true
//	vault_path = secret/data/broker-1
//
// Keys that are not set keep their zero value so that Default can fill them.
func LoadConnectionProfile(path, name string) (topology.TaskConfig, error) {
	cfg, err := ini.Load(path)
	if err != nil {
		return topology.TaskConfig{}, fmt.Errorf("unable to load connection profiles from %s: %w", path, err)
	}
	return connectionProfileFromINI(cfg, name)
}

func connectionProfileFromINI(cfg *ini.File, name string) (topology.TaskConfig, error) {
	if !cfg.HasSection(name) {
		return topology.TaskConfig{}, fmt.Errorf("connection profile %q not found; available profiles are: %v", name, cfg.SectionStrings()[1:])
	}
	section := cfg.Section(name)

	config := topology.TaskConfig{
		Host:                 section.Key("host").String(),
		Port:                 section.Key("port").MustInt(0),
		SecureConnection:     section.Key("secure_connection").MustBool(false),
		Username:             section.Key("username").String(),
		Password:             section.Key("password").String(),
		Timeout:              section.Key("timeout").MustInt(0),
		CABundle:             section.Key("ca_bundle").String(),
		XBroker:              section.Key("x_broker").String(),
		SolaceCloudAPIToken:  section.Key("solace_cloud_api_token").String(),
		SolaceCloudServiceID: section.Key("solace_cloud_service_id").String(),
		SolaceCloudHome:      section.Key("solace_cloud_home").String(),
	}
	if section.HasKey("validate_certs") {
		validate := section.Key("validate_certs").MustBool(true)
		config.ValidateCerts = &validate
	}
	if section.HasKey("semp_base_path") {
		config.ReverseProxy = &topology.ReverseProxy{
			SempBasePath: section.Key("semp_base_path").String(),
			UseBasicAuth: section.Key("use_basic_auth").MustBool(false),
		}
	}
	if vaultPath := section.Key("vault_path").String(); vaultPath != "" {
		config.Credentials = &topology.CredentialsSource{VaultPath: vaultPath}
	} else if secret := section.Key("secret_name").String(); secret != "" {
		config.Credentials = &topology.CredentialsSource{Secret: &topology.SecretReference{
			Name:      secret,
			Namespace: section.Key("secret_namespace").String(),
		}}
	}
	return config, nil
}
