package controllers_test

import (
	"errors"
	"net/http"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/onsi/gomega/ghttp"

	topology "github.com/solace-community/pubsubplus-topology/api/v1beta1"
	"github.com/solace-community/pubsubplus-topology/controllers"
)

func cloudData(data interface{}) map[string]interface{} {
	return map[string]interface{}{"data": data}
}

func completedRequest() http.HandlerFunc {
	return ghttp.RespondWithJSONEncoded(http.StatusOK, cloudData(map[string]interface{}{
		"id": "req-1", "adminProgress": "completed",
	}))
}

var _ = Describe("Solace Cloud task kinds", func() {
	var (
		server  *ghttp.Server
		session *controllers.Session
	)

	BeforeEach(func() {
		server = ghttp.NewServer()
		config, opts := cloudConfig(server)
		session = &controllers.Session{Config: config, Options: opts}
	})

	AfterEach(func() {
		server.Close()
	})

	Describe("cloud_client_profile", func() {
		var reconciler *controllers.ObjectReconciler

		BeforeEach(func() {
			reconciler = &controllers.ObjectReconciler{Adapter: controllers.NewCloudClientProfileReconciler()}
		})

		It("creates a profile from the defaults and the declared settings", func() {
			server.AppendHandlers(
				ghttp.CombineHandlers(
					ghttp.VerifyRequest("GET", "/api/v0/services/svc-1/clientProfiles/cp1"),
					ghttp.VerifyHeaderKV("Authorization", "Bearer cloud-token"),
					ghttp.RespondWith(http.StatusNotFound, `{"message":"not found"}`),
				),
				ghttp.CombineHandlers(
					ghttp.VerifyRequest("POST", "/api/v0/services/svc-1/requests/clientProfileRequests"),
					func(w http.ResponseWriter, r *http.Request) {
						var body map[string]interface{}
						Expect(decodeBody(r, &body)).To(Succeed())
						Expect(body).To(HaveKeyWithValue("operation", "create"))
						profile := body["clientProfile"].(map[string]interface{})
						Expect(profile).To(HaveKeyWithValue("clientProfileName", "cp1"))
						Expect(profile).To(HaveKeyWithValue("maxEgressFlowCount", BeNumerically("==", 200)))
						Expect(profile).To(HaveKeyWithValue("tcpMaxWindowSize", "256"))
						Expect(profile).To(HaveKey("eventClientProvisionedEndpointSpoolUsageThreshold"))
					},
					completedRequest(),
				),
			)
			result, err := reconciler.Reconcile(ctx, session, &topology.Task{
				Kind: "cloud_client_profile", Name: "cp1",
				Settings: map[string]interface{}{"maxEgressFlowCount": "200"},
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(result.Changed).To(BeTrue())
			Expect(server.ReceivedRequests()).To(HaveLen(2))
		})

		It("compares string typed current settings with native desired ones", func() {
			server.AppendHandlers(ghttp.RespondWithJSONEncoded(http.StatusOK, cloudData(map[string]interface{}{
				"clientProfileName": "cp1", "maxEgressFlowCount": "100", "elidingEnabled": "True",
			})))
			result, err := reconciler.Reconcile(ctx, session, &topology.Task{
				Kind: "cloud_client_profile", Name: "cp1",
				Settings: map[string]interface{}{"maxEgressFlowCount": 100, "elidingEnabled": true},
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(result.Changed).To(BeFalse())
		})

		It("sends the delta and the spool usage threshold on update", func() {
			server.AppendHandlers(
				ghttp.RespondWithJSONEncoded(http.StatusOK, cloudData(map[string]interface{}{
					"clientProfileName": "cp1", "maxEgressFlowCount": "100", "elidingEnabled": "true",
				})),
				ghttp.CombineHandlers(
					ghttp.VerifyRequest("POST", "/api/v0/services/svc-1/requests/clientProfileRequests"),
					ghttp.VerifyJSONRepresenting(map[string]interface{}{
						"operation": "update",
						"clientProfile": map[string]interface{}{
							"clientProfileName":  "cp1",
							"maxEgressFlowCount": 200,
							"eventClientProvisionedEndpointSpoolUsageThreshold": map[string]interface{}{
								"setPercent": 85, "clearPercent": 65,
							},
						},
					}),
					completedRequest(),
				),
			)
			result, err := reconciler.Reconcile(ctx, session, &topology.Task{
				Kind: "cloud_client_profile", Name: "cp1",
				Settings: map[string]interface{}{
					"maxEgressFlowCount": 200,
					"elidingEnabled":     true,
					"eventClientProvisionedEndpointSpoolUsageThreshold": map[string]interface{}{
						"setPercent": "85", "clearPercent": "65",
					},
				},
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(result.Delta).To(Equal(map[string]interface{}{"maxEgressFlowCount": int64(200)}))
		})

		It("requires the service id", func() {
			session.Config.SolaceCloudServiceID = ""
			_, err := reconciler.Reconcile(ctx, session, &topology.Task{Kind: "cloud_client_profile", Name: "cp1"})
			var validationErr *controllers.ValidationError
			Expect(errors.As(err, &validationErr)).To(BeTrue())
		})
	})

	Describe("cloud_service", func() {
		var reconciler *controllers.ObjectReconciler

		BeforeEach(func() {
			reconciler = &controllers.ObjectReconciler{Adapter: controllers.NewCloudServiceReconciler()}
		})

		existing := func() {
			server.AppendHandlers(
				ghttp.CombineHandlers(
					ghttp.VerifyRequest("GET", "/api/v0/services"),
					ghttp.RespondWithJSONEncoded(http.StatusOK, cloudData([]interface{}{
						map[string]interface{}{"name": "other", "serviceId": "s0"},
						map[string]interface{}{"name": "svc", "serviceId": "s1"},
					})),
				),
				ghttp.CombineHandlers(
					ghttp.VerifyRequest("GET", "/api/v0/services/s1"),
					ghttp.RespondWithJSONEncoded(http.StatusOK, cloudData(map[string]interface{}{
						"name": "svc", "serviceId": "s1", "msgVpnName": "vpn", "datacenterId": "aws-eu-central-1",
						"serviceClassId": "enterprise-250-nano", "serviceTypeId": "enterprise", "creationState": "completed",
					})),
				),
			)
		}

		It("requires the mandatory settings to create a service", func() {
			server.AppendHandlers(ghttp.RespondWithJSONEncoded(http.StatusOK, cloudData([]interface{}{})))
			_, err := reconciler.Reconcile(ctx, session, &topology.Task{
				Kind: "cloud_service", Name: "svc", Settings: map[string]interface{}{"msgVpnName": "vpn"},
			})
			Expect(err).To(MatchError(ContainSubstring("mandatory keys missing in 'settings'")))
			Expect(err).To(MatchError(ContainSubstring("datacenterId")))
		})

		It("creates a service with the defaults", func() {
			server.AppendHandlers(
				ghttp.RespondWithJSONEncoded(http.StatusOK, cloudData([]interface{}{})),
				ghttp.CombineHandlers(
					ghttp.VerifyRequest("POST", "/api/v0/services"),
					ghttp.VerifyJSONRepresenting(map[string]interface{}{
						"name": "svc", "msgVpnName": "vpn", "datacenterId": "aws-eu-central-1",
						"serviceClassId": "enterprise-250-nano", "serviceTypeId": "enterprise",
						"adminState": "start", "partitionId": "default",
					}),
					ghttp.RespondWithJSONEncoded(http.StatusOK, cloudData(map[string]interface{}{"serviceId": "s1"})),
				),
				ghttp.RespondWithJSONEncoded(http.StatusOK, cloudData(map[string]interface{}{
					"serviceId": "s1", "creationState": "completed",
				})),
			)
			result, err := reconciler.Reconcile(ctx, session, &topology.Task{
				Kind: "cloud_service", Name: "svc",
				Settings: map[string]interface{}{
					"msgVpnName": "vpn", "datacenterId": "aws-eu-central-1",
					"serviceClassId": "enterprise-250-nano", "serviceTypeId": "enterprise",
				},
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(result.Changed).To(BeTrue())
		})

		It("is idempotent for an existing service", func() {
			existing()
			result, err := reconciler.Reconcile(ctx, session, &topology.Task{
				Kind: "cloud_service", Name: "svc", Settings: map[string]interface{}{"msgVpnName": "vpn"},
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(result.Changed).To(BeFalse())
		})

		It("refuses to update an existing service", func() {
			existing()
			_, err := reconciler.Reconcile(ctx, session, &topology.Task{
				Kind: "cloud_service", Name: "svc", Settings: map[string]interface{}{"msgVpnName": "vpn2"},
			})
			var usageErr *controllers.UsageError
			Expect(errors.As(err, &usageErr)).To(BeTrue())
			Expect(usageErr.Msg).To(ContainSubstring("delete & re-create"))
		})

		It("rejects settings the service does not have", func() {
			existing()
			_, err := reconciler.Reconcile(ctx, session, &topology.Task{
				Kind: "cloud_service", Name: "svc", Settings: map[string]interface{}{"msgVpnNam": "vpn"},
			})
			var keysErr *controllers.InvalidKeysError
			Expect(errors.As(err, &keysErr)).To(BeTrue())
			Expect(keysErr.Invalid).To(Equal([]string{"msgVpnNam"}))
		})

		It("deletes by service id and waits until it is gone", func() {
			server.AppendHandlers(
				ghttp.CombineHandlers(
					ghttp.VerifyRequest("GET", "/api/v0/services/s9"),
					ghttp.RespondWithJSONEncoded(http.StatusOK, cloudData(map[string]interface{}{"serviceId": "s9", "name": "svc"})),
				),
				ghttp.CombineHandlers(
					ghttp.VerifyRequest("DELETE", "/api/v0/services/s9"),
					ghttp.RespondWithJSONEncoded(http.StatusOK, cloudData(map[string]interface{}{"serviceId": "s9"})),
				),
				ghttp.RespondWith(http.StatusNotFound, `{}`),
			)
			result, err := reconciler.Reconcile(ctx, session, &topology.Task{
				Kind: "cloud_service", State: topology.StateAbsent, Params: map[string]interface{}{"service_id": "s9"},
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(result.Changed).To(BeTrue())
			Expect(server.ReceivedRequests()).To(HaveLen(3))
		})

		It("needs a name or a service id for state absent", func() {
			_, err := reconciler.Reconcile(ctx, session, &topology.Task{Kind: "cloud_service", State: topology.StateAbsent})
			Expect(err).To(MatchError(ContainSubstring("service_id")))
		})
	})

	Describe("cloud_service_hostnames", func() {
		It("adds and removes hostnames by their first label", func() {
			server.AppendHandlers(
				ghttp.CombineHandlers(
					ghttp.VerifyRequest("GET", "/api/v0/services/svc-1"),
					ghttp.RespondWithJSONEncoded(http.StatusOK, cloudData(map[string]interface{}{
						"serviceId":           "svc-1",
						"additionalHostnames": []interface{}{"old.messaging.solace.cloud", "keep.messaging.solace.cloud"},
					})),
				),
				ghttp.CombineHandlers(
					ghttp.VerifyRequest("POST", "/api/v0/services/svc-1/serviceHostNames"),
					ghttp.VerifyJSONRepresenting(map[string]interface{}{"serviceHostName": "new", "operation": "create"}),
					completedRequest(),
				),
				ghttp.CombineHandlers(
					ghttp.VerifyRequest("POST", "/api/v0/services/svc-1/serviceHostNames"),
					ghttp.VerifyJSONRepresenting(map[string]interface{}{"serviceHostName": "old", "operation": "delete"}),
					completedRequest(),
				),
			)
			reconciler := &controllers.ListReconciler{Adapter: controllers.NewCloudServiceHostnamesReconciler()}
			result, err := reconciler.Reconcile(ctx, session, &topology.Task{
				Kind: "cloud_service_hostnames", State: topology.StateExactly, Names: []string{"keep", "new"},
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(reportJSON(result)).To(MatchJSON(
				`[{"added":"new.messaging.solace.cloud"},{"deleted":"old.messaging.solace.cloud"}]`))
		})
	})

	Describe("cloud_get_services", func() {
		It("lists the services of the account", func() {
			server.AppendHandlers(ghttp.RespondWithJSONEncoded(http.StatusOK, cloudData([]interface{}{
				map[string]interface{}{"name": "a", "serviceId": "s1"},
			})))
			result, err := controllers.NewCloudGetServicesReconciler().Reconcile(ctx, session, &topology.Task{Kind: "cloud_get_services"})
			Expect(err).NotTo(HaveOccurred())
			Expect(*result.ResultListCount).To(Equal(1))
		})
	})
})
