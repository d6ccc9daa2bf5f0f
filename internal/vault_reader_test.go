package internal_test

import (
	"errors"

	vault "github.com/hashicorp/vault/api"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/solace-community/pubsubplus-topology/internal"
	"github.com/solace-community/pubsubplus-topology/internal/internalfakes"
)

var _ = Describe("VaultReader", func() {
	var (
		err                    error
		credsProvider          internal.CredentialsProvider
		secretStoreClient      internal.SecretStoreClient
		fakeSecretReader       *internalfakes.FakeSecretReader
		credsData              map[string]interface{}
		secretData             map[string]interface{}
		existingBrokerUsername = "abc123"
		existingBrokerPassword = "foo1234"
	)

	BeforeEach(func() {
		fakeSecretReader = &internalfakes.FakeSecretReader{}
		secretStoreClient = internal.VaultClient{Reader: fakeSecretReader}
	})

	JustBeforeEach(func() {
		credsProvider, err = secretStoreClient.ReadCredentials("some/path")
	})

	When("the credentials exist in the expected location", func() {
		BeforeEach(func() {
			credsData = map[string]interface{}{
				"username": existingBrokerUsername,
				"password": existingBrokerPassword,
			}
			secretData = map[string]interface{}{"data": credsData}
			fakeSecretReader.ReadSecretReturns(&vault.Secret{Data: secretData}, nil)
		})

		It("should return a credentials provider", func() {
			Expect(err).NotTo(HaveOccurred())
			usernameBytes, _ := credsProvider.Data("username")
			passwordBytes, _ := credsProvider.Data("password")
			Expect(usernameBytes).To(Equal([]byte(existingBrokerUsername)))
			Expect(passwordBytes).To(Equal([]byte(existingBrokerPassword)))
		})

		It("reads the requested path", func() {
			Expect(fakeSecretReader.ReadSecretCallCount()).To(Equal(1))
			Expect(fakeSecretReader.ReadSecretArgsForCall(0)).To(Equal("some/path"))
		})
	})

	When("unable to read secret from Vault", func() {
		BeforeEach(func() {
			fakeSecretReader.ReadSecretReturns(nil, errors.New("something bad happened"))
		})

		It("should have returned an error", func() {
			Expect(credsProvider).To(BeNil())
			Expect(err).To(MatchError("unable to read Vault secret: something bad happened"))
		})
	})

	When("Vault returns warnings", func() {
		BeforeEach(func() {
			fakeSecretReader.ReadSecretReturns(&vault.Secret{Warnings: []string{"I am a warning"}}, nil)
		})

		It("should have returned an error", func() {
			Expect(credsProvider).To(BeNil())
			Expect(err).To(MatchError("vault secret some/path: warnings were returned from Vault: [I am a warning]"))
		})
	})

	When("Vault secret data does not contain expected map", func() {
		BeforeEach(func() {
			fakeSecretReader.ReadSecretReturns(&vault.Secret{}, nil)
		})

		It("should have returned an error", func() {
			Expect(credsProvider).To(BeNil())
			Expect(err).To(MatchError("vault secret some/path: returned Vault secret has no data"))
		})
	})

	When("Vault secret data map does not contain expected key/value entry", func() {
		BeforeEach(func() {
			fakeSecretReader.ReadSecretReturns(&vault.Secret{Data: map[string]interface{}{"somekey": "somevalue"}}, nil)
		})

		It("should have returned an error", func() {
			Expect(credsProvider).To(BeNil())
			Expect(err).To(MatchError("vault secret some/path: no value for key 'data', available keys are: [somekey]"))
		})
	})

	When("Vault secret data does not contain expected type", func() {
		BeforeEach(func() {
			fakeSecretReader.ReadSecretReturns(&vault.Secret{Data: map[string]interface{}{"data": "I am not a map"}}, nil)
		})

		It("should have returned an error", func() {
			Expect(credsProvider).To(BeNil())
			Expect(err).To(MatchError("vault secret some/path: expected 'data' to be a map but is a string"))
		})
	})

	When("Vault secret data map does not contain password", func() {
		BeforeEach(func() {
			secretData = map[string]interface{}{"data": map[string]interface{}{"username": existingBrokerUsername}}
			fakeSecretReader.ReadSecretReturns(&vault.Secret{Data: secretData}, nil)
		})

		It("should have returned an error", func() {
			Expect(credsProvider).To(BeNil())
			Expect(err.Error()).To(Equal("vault secret some/path: expected password to be a string but is a <nil>"))
		})
	})
})
