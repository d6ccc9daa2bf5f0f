package sempclient_test

import (
	"context"
	"encoding/pem"
	"errors"
	"net/http"
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/onsi/gomega/ghttp"
	"github.com/prometheus/client_golang/prometheus/testutil"
	clocktesting "k8s.io/utils/clock/testing"

	topology "github.com/solace-community/pubsubplus-topology/api/v1beta1"
	"github.com/solace-community/pubsubplus-topology/sempclient"
)

var _ = Describe("TLS", func() {
	var (
		server *ghttp.Server
		config topology.TaskConfig
		opts   sempclient.Options
	)

	BeforeEach(func() {
		server = ghttp.NewTLSServer()
		config = brokerConfig(server)
		opts = testOptions(clocktesting.NewFakeClock(fakeNow))
		server.AllowUnhandledRequests = true
		server.UnhandledRequestStatusCode = http.StatusOK
	})

	AfterEach(func() {
		server.Close()
	})

	It("fails on an unknown certificate authority without retrying", func() {
		client, err := sempclient.NewClient(config, opts)
		Expect(err).NotTo(HaveOccurred())
		_, err = client.GetObject(context.Background(), "msgVpns", "default")
		var netErr *sempclient.NetworkError
		Expect(errors.As(err, &netErr)).To(BeTrue())
		Expect(netErr.IsTLS()).To(BeTrue())
		Expect(testutil.ToFloat64(opts.Metrics.Retries.WithLabelValues("semp_v2", sempclient.OpReadObject))).To(Equal(0.0))
	})

	It("trusts the certificates of the CA bundle", func() {
		bundle := filepath.Join(GinkgoT().TempDir(), "ca.pem")
		cert := server.HTTPTestServer.Certificate()
		Expect(os.WriteFile(bundle, pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: cert.Raw}), 0o600)).To(Succeed())
		config.CABundle = bundle

		client, err := sempclient.NewClient(config, opts)
		Expect(err).NotTo(HaveOccurred())
		_, err = client.GetObject(context.Background(), "msgVpns", "default")
		Expect(err).NotTo(HaveOccurred())
	})

	It("skips verification when validate_certs is false", func() {
		validate := false
		config.ValidateCerts = &validate

		client, err := sempclient.NewClient(config, opts)
		Expect(err).NotTo(HaveOccurred())
		_, err = client.GetObject(context.Background(), "msgVpns", "default")
		Expect(err).NotTo(HaveOccurred())
	})

	It("rejects an unreadable CA bundle", func() {
		config.CABundle = filepath.Join(GinkgoT().TempDir(), "missing.pem")
		_, err := sempclient.NewClient(config, opts)
		Expect(err).To(MatchError(ContainSubstring("unable to read CA bundle")))
	})
})
