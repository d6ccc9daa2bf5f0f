package sempclient

import (
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"os"

	"github.com/cloudflare/cfssl/helpers"
)

// tlsConfig returns nil when the system defaults apply.
func tlsConfig(validateCerts bool, caBundle string) (*tls.Config, error) {
	if validateCerts && caBundle == "" {
		return nil, nil
	}
	cfg := &tls.Config{MinVersion: tls.VersionTLS12}
	if !validateCerts {
		cfg.InsecureSkipVerify = true // #nosec G402
		return cfg, nil
	}
	pool, err := loadCertPool(caBundle)
	if err != nil {
		return nil, err
	}
	cfg.RootCAs = pool
	return cfg, nil
}

// loadCertPool returns the system pool extended with the certificates of a
// PEM bundle.
func loadCertPool(caBundle string) (*x509.CertPool, error) {
	pemBytes, err := os.ReadFile(caBundle)
	if err != nil {
		return nil, fmt.Errorf("unable to read CA bundle %s: %w", caBundle, err)
	}
	certs, err := helpers.ParseCertificatesPEM(pemBytes)
	if err != nil {
		return nil, fmt.Errorf("unable to parse CA bundle %s: %w", caBundle, err)
	}
	pool, err := x509.SystemCertPool()
	if err != nil {
		pool = x509.NewCertPool()
	}
	for _, cert := range certs {
		pool.AddCert(cert)
	}
	return pool, nil
}
