package v1beta1

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("TaskConfig", func() {
	var config TaskConfig

	BeforeEach(func() {
		config = TaskConfig{}
	})

	Context("Default", func() {
		It("sets broker defaults", func() {
			config.Default(false)
			Expect(config.Host).To(Equal("localhost"))
			Expect(config.Port).To(Equal(8080))
			Expect(config.Username).To(Equal("admin"))
			Expect(config.Password).To(Equal("admin"))
			Expect(config.Timeout).To(Equal(10))
			Expect(config.ShouldValidateCerts()).To(BeTrue())
			Expect(config.BrokerURL()).To(Equal("http://localhost:8080"))
		})

		It("uses a longer timeout for Solace Cloud", func() {
			config.Default(true)
			Expect(config.Timeout).To(Equal(60))
		})

		It("keeps explicit values", func() {
			noValidate := false
			config = TaskConfig{Host: "broker", Port: 1943, SecureConnection: true, Timeout: 3, ValidateCerts: &noValidate}
			config.Default(false)
			Expect(config.BrokerURL()).To(Equal("https://broker:1943"))
			Expect(config.Timeout).To(Equal(3))
			Expect(config.ShouldValidateCerts()).To(BeFalse())
		})

		It("does not default credentials when a credentials source is set", func() {
			config.Credentials = &CredentialsSource{VaultPath: "secret/data/broker"}
			config.Default(false)
			Expect(config.Username).To(BeEmpty())
			Expect(config.Password).To(BeEmpty())
		})
	})

	Context("Validate", func() {
		BeforeEach(func() {
			config.Default(false)
		})

		It("accepts the defaults", func() {
			Expect(config.Validate()).To(Succeed())
		})

		It("rejects a partial Solace Cloud configuration", func() {
			config.SolaceCloudAPIToken = "token"
			Expect(config.Validate()).To(MatchError(ContainSubstring("must provide either both or none for Solace Cloud")))
			Expect(config.IsSolaceCloud()).To(BeFalse())
		})

		It("accepts a full Solace Cloud configuration", func() {
			config.SolaceCloudAPIToken = "token"
			config.SolaceCloudServiceID = "service-id"
			Expect(config.Validate()).To(Succeed())
			Expect(config.IsSolaceCloud()).To(BeTrue())
		})

		It("rejects an unknown Solace Cloud home", func() {
			config.SolaceCloudHome = "eu"
			Expect(config.Validate()).To(MatchError(ContainSubstring("connection.solace_cloud_home")))
		})

		It("rejects an out of range port", func() {
			config.Port = 70000
			Expect(config.Validate()).To(MatchError(ContainSubstring("must be between 1 and 65535")))
		})

		It("rejects both credentials sources", func() {
			config.Credentials = &CredentialsSource{
				VaultPath: "secret/data/broker",
				Secret:    &SecretReference{Name: "broker-admin"},
			}
			Expect(config.Validate()).To(MatchError(ContainSubstring("do not provide both vault_path and secret")))
		})

		It("reports every invalid field", func() {
			config.Port = 0
			config.Timeout = 0
			err := config.Validate()
			Expect(err).To(MatchError(ContainSubstring("connection.port")))
			Expect(err).To(MatchError(ContainSubstring("connection.timeout")))
		})
	})
})
