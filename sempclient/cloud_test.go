package sempclient_test

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"strings"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/onsi/gomega/ghttp"
	"github.com/prometheus/client_golang/prometheus/testutil"
	clocktesting "k8s.io/utils/clock/testing"

	topology "github.com/solace-community/pubsubplus-topology/api/v1beta1"
	"github.com/solace-community/pubsubplus-topology/sempclient"
)

func cloudData(data interface{}) map[string]interface{} {
	return map[string]interface{}{"data": data}
}

var _ = Describe("Solace Cloud client", func() {
	var (
		ctx       context.Context
		server    *ghttp.Server
		fakeClock *clocktesting.FakeClock
		opts      sempclient.Options
		config    topology.TaskConfig
		client    *sempclient.CloudClient
	)

	BeforeEach(func() {
		ctx = sempclient.WithModule(context.Background(), "solace_cloud_client_profile")
		server = ghttp.NewServer()
		fakeClock = clocktesting.NewFakeClock(fakeNow)
		opts = testOptions(fakeClock)
		opts.CloudBaseURL = server.URL() + "/api/v0"
		config = topology.TaskConfig{SolaceCloudAPIToken: "cloud-token", SolaceCloudServiceID: "svc1"}
		config.Default(true)
	})

	JustBeforeEach(func() {
		var err error
		client, err = sempclient.NewCloudClient(config, opts)
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		server.Close()
	})

	It("requires an api token", func() {
		_, err := sempclient.NewCloudClient(topology.TaskConfig{}, opts)
		Expect(err).To(MatchError(ContainSubstring("solace_cloud_api_token is required")))
	})

	It("selects the api url of the home region", func() {
		Expect(sempclient.CloudBaseURL("")).To(Equal(sempclient.SolaceCloudBaseURL))
		Expect(sempclient.CloudBaseURL("us")).To(Equal(sempclient.SolaceCloudBaseURL))
		Expect(sempclient.CloudBaseURL("AU")).To(Equal(sempclient.SolaceCloudAUBaseURL))
	})

	Describe("Get", func() {
		It("sends the api token as bearer token", func() {
			server.AppendHandlers(ghttp.CombineHandlers(
				ghttp.VerifyRequest("GET", "/api/v0/services/svc1"),
				ghttp.VerifyHeaderKV("Authorization", "Bearer cloud-token"),
				ghttp.RespondWithJSONEncoded(http.StatusOK, cloudData(map[string]interface{}{"serviceId": "svc1", "name": "dev"})),
			))
			res, err := client.GetService(ctx, "svc1")
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Found).To(BeTrue())
			Expect(res.Settings).To(HaveKeyWithValue("name", "dev"))
		})

		It("reports 404 as not found", func() {
			server.AppendHandlers(ghttp.RespondWithJSONEncoded(http.StatusNotFound, map[string]interface{}{"message": "not found"}))
			res, err := client.GetService(ctx, "svc1")
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Found).To(BeFalse())
		})

		It("returns other statuses as ApiError", func() {
			server.AppendHandlers(ghttp.RespondWithJSONEncoded(http.StatusForbidden, map[string]interface{}{"subCode": 17, "message": "forbidden"}))
			_, err := client.GetService(ctx, "svc1")
			var apiErr *sempclient.ApiError
			Expect(errors.As(err, &apiErr)).To(BeTrue())
			Expect(apiErr.StatusCode).To(Equal(http.StatusForbidden))
			subCode, ok := apiErr.CloudSubCode()
			Expect(ok).To(BeTrue())
			Expect(subCode).To(Equal("17"))
		})
	})

	Describe("ServiceRequest", func() {
		var requestPath = []string{"requests", "clientProfileRequests"}

		BeforeEach(func() {
			server.AppendHandlers(ghttp.CombineHandlers(
				ghttp.VerifyRequest("POST", "/api/v0/services/svc1/requests/clientProfileRequests"),
				ghttp.VerifyJSONRepresenting(map[string]interface{}{
					"operation":     "create",
					"clientProfile": map[string]interface{}{"clientProfileName": "p1"},
				}),
				ghttp.RespondWithJSONEncoded(http.StatusOK, cloudData(map[string]interface{}{"id": "r1", "adminProgress": "accepted"})),
			))
		})

		body := sempclient.Settings{
			"operation":     "create",
			"clientProfile": map[string]interface{}{"clientProfileName": "p1"},
		}

		It("polls the request until it is completed", func() {
			server.AppendHandlers(
				ghttp.CombineHandlers(
					ghttp.VerifyRequest("GET", "/api/v0/services/svc1/requests/r1"),
					ghttp.RespondWithJSONEncoded(http.StatusOK, cloudData(map[string]interface{}{"id": "r1", "adminProgress": "inProgress"})),
				),
				ghttp.CombineHandlers(
					ghttp.VerifyRequest("GET", "/api/v0/services/svc1/requests/r1"),
					ghttp.RespondWithJSONEncoded(http.StatusOK, cloudData(map[string]interface{}{"id": "r1", "adminProgress": "completed"})),
				),
			)
			data, err := client.ServiceRequest(ctx, sempclient.OpCreateObject, "svc1", requestPath, body)
			Expect(err).NotTo(HaveOccurred())
			Expect(data).To(HaveKeyWithValue("adminProgress", "completed"))
			Expect(fakeClock.Since(fakeNow)).To(Equal(2 * sempclient.DefaultPollInterval))
			Expect(testutil.ToFloat64(opts.Metrics.Polls.WithLabelValues(sempclient.OpCreateObject))).To(Equal(2.0))
		})

		It("returns JobError when the request fails", func() {
			server.AppendHandlers(ghttp.RespondWithJSONEncoded(http.StatusOK,
				cloudData(map[string]interface{}{"id": "r1", "adminProgress": "failed", "error": "invalid profile"})))
			_, err := client.ServiceRequest(ctx, sempclient.OpCreateObject, "svc1", requestPath, body)
			var jobErr *sempclient.JobError
			Expect(errors.As(err, &jobErr)).To(BeTrue())
			Expect(jobErr.ID).To(Equal("r1"))
			Expect(jobErr.State).To(Equal("failed"))
			Expect(jobErr.Module).To(Equal("solace_cloud_client_profile"))
			Expect(jobErr.Data).To(HaveKeyWithValue("error", "invalid profile"))
		})

		When("the request does not finish in time", func() {
			BeforeEach(func() {
				opts.TimeoutMinutes = 1
				opts.PollInterval = 30 * time.Second
				server.RouteToHandler("GET", "/api/v0/services/svc1/requests/r1",
					ghttp.RespondWithJSONEncoded(http.StatusOK, cloudData(map[string]interface{}{"id": "r1", "adminProgress": "inProgress"})))
			})

			It("gives up after the poll budget", func() {
				_, err := client.ServiceRequest(ctx, sempclient.OpCreateObject, "svc1", requestPath, body)
				var jobErr *sempclient.JobError
				Expect(errors.As(err, &jobErr)).To(BeTrue())
				Expect(jobErr.State).To(Equal("inProgress (timed out after 2 polls)"))
				Expect(fakeClock.Since(fakeNow)).To(Equal(time.Minute))
			})
		})
	})

	It("returns a request that completes right away without polling", func() {
		server.AppendHandlers(ghttp.RespondWithJSONEncoded(http.StatusOK,
			cloudData(map[string]interface{}{"id": "r2", "adminProgress": "completed"})))
		_, err := client.ServiceRequest(ctx, sempclient.OpDeleteObject, "svc1", []string{"serviceHostNames"},
			sempclient.Settings{"serviceHostName": "host-1", "operation": "delete"})
		Expect(err).NotTo(HaveOccurred())
		Expect(server.ReceivedRequests()).To(HaveLen(1))
		Expect(fakeClock.Since(fakeNow)).To(BeZero())
	})

	Describe("FindServiceByName", func() {
		It("reads the service of the matching list entry", func() {
			server.AppendHandlers(
				ghttp.CombineHandlers(
					ghttp.VerifyRequest("GET", "/api/v0/services"),
					ghttp.RespondWithJSONEncoded(http.StatusOK, cloudData([]interface{}{
						map[string]interface{}{"name": "dev", "serviceId": "s1"},
						map[string]interface{}{"name": "prod", "serviceId": "s2"},
					})),
				),
				ghttp.CombineHandlers(
					ghttp.VerifyRequest("GET", "/api/v0/services/s2"),
					ghttp.RespondWithJSONEncoded(http.StatusOK, cloudData(map[string]interface{}{"name": "prod", "serviceId": "s2", "creationState": "completed"})),
				),
			)
			res, err := client.FindServiceByName(ctx, "prod")
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Found).To(BeTrue())
			Expect(res.Settings).To(HaveKeyWithValue("creationState", "completed"))
		})

		It("reports an unknown name as not found", func() {
			server.AppendHandlers(ghttp.RespondWithJSONEncoded(http.StatusOK, cloudData([]interface{}{})))
			res, err := client.FindServiceByName(ctx, "prod")
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Found).To(BeFalse())
		})
	})

	Describe("CreateService", func() {
		It("deletes a failed service and creates it again", func() {
			settings := sempclient.Settings{"name": "dev", "msgVpnName": "dev", "datacenterId": "aws-eu-central-1a", "serviceClassId": "enterprise-250-nano", "serviceTypeId": "enterprise"}
			server.AppendHandlers(
				ghttp.CombineHandlers(
					ghttp.VerifyRequest("POST", "/api/v0/services"),
					ghttp.VerifyJSONRepresenting(settings),
					ghttp.RespondWithJSONEncoded(http.StatusCreated, cloudData(map[string]interface{}{"serviceId": "s1", "creationState": "pending"})),
				),
				ghttp.CombineHandlers(
					ghttp.VerifyRequest("GET", "/api/v0/services/s1"),
					ghttp.RespondWithJSONEncoded(http.StatusOK, cloudData(map[string]interface{}{"serviceId": "s1", "creationState": "failed"})),
				),
				ghttp.CombineHandlers(
					ghttp.VerifyRequest("DELETE", "/api/v0/services/s1"),
					ghttp.RespondWithJSONEncoded(http.StatusAccepted, cloudData(map[string]interface{}{"serviceId": "s1"})),
				),
				ghttp.CombineHandlers(
					ghttp.VerifyRequest("GET", "/api/v0/services/s1"),
					ghttp.RespondWithJSONEncoded(http.StatusNotFound, map[string]interface{}{}),
				),
				ghttp.CombineHandlers(
					ghttp.VerifyRequest("POST", "/api/v0/services"),
					ghttp.RespondWithJSONEncoded(http.StatusCreated, cloudData(map[string]interface{}{"serviceId": "s2", "creationState": "pending"})),
				),
				ghttp.CombineHandlers(
					ghttp.VerifyRequest("GET", "/api/v0/services/s2"),
					ghttp.RespondWithJSONEncoded(http.StatusOK, cloudData(map[string]interface{}{"serviceId": "s2", "creationState": "completed"})),
				),
			)
			data, err := client.CreateService(ctx, settings)
			Expect(err).NotTo(HaveOccurred())
			Expect(data).To(HaveKeyWithValue("serviceId", "s2"))
			Expect(server.ReceivedRequests()).To(HaveLen(6))
		})

		It("gives up after the last retry of a failing service", func() {
			var posts, deletes int
			deleted := map[string]bool{}
			server.RouteToHandler("POST", "/api/v0/services", func(w http.ResponseWriter, r *http.Request) {
				posts++
				id := fmt.Sprintf("s%d", posts)
				ghttp.RespondWithJSONEncoded(http.StatusCreated, cloudData(map[string]interface{}{"serviceId": id, "creationState": "pending"}))(w, r)
			})
			server.RouteToHandler("GET", regexp.MustCompile(`^/api/v0/services/s\d+$`), func(w http.ResponseWriter, r *http.Request) {
				id := strings.TrimPrefix(r.URL.Path, "/api/v0/services/")
				if deleted[id] {
					ghttp.RespondWithJSONEncoded(http.StatusNotFound, map[string]interface{}{})(w, r)
					return
				}
				ghttp.RespondWithJSONEncoded(http.StatusOK, cloudData(map[string]interface{}{"serviceId": id, "creationState": "failed"}))(w, r)
			})
			server.RouteToHandler("DELETE", regexp.MustCompile(`^/api/v0/services/s\d+$`), func(w http.ResponseWriter, r *http.Request) {
				deletes++
				deleted[strings.TrimPrefix(r.URL.Path, "/api/v0/services/")] = true
				ghttp.RespondWithJSONEncoded(http.StatusAccepted, cloudData(map[string]interface{}{}))(w, r)
			})

			_, err := client.CreateService(ctx, sempclient.Settings{"name": "dev"})
			var jobErr *sempclient.JobError
			Expect(errors.As(err, &jobErr)).To(BeTrue())
			Expect(jobErr.ID).To(Equal("s4"))
			Expect(jobErr.State).To(Equal("failed"))
			// first creation and three retries; the last failed service is kept
			Expect(posts).To(Equal(4))
			Expect(deletes).To(Equal(3))
		})
	})

	Describe("DeleteService", func() {
		It("treats an unknown service as deleted", func() {
			server.AppendHandlers(ghttp.CombineHandlers(
				ghttp.VerifyRequest("DELETE", "/api/v0/services/s1"),
				ghttp.RespondWithJSONEncoded(http.StatusNotFound, map[string]interface{}{}),
			))
			data, err := client.DeleteService(ctx, "s1")
			Expect(err).NotTo(HaveOccurred())
			Expect(data).To(BeEmpty())
		})

		It("waits until the service is gone", func() {
			server.AppendHandlers(
				ghttp.RespondWithJSONEncoded(http.StatusAccepted, cloudData(map[string]interface{}{"serviceId": "s1"})),
				ghttp.RespondWithJSONEncoded(http.StatusOK, cloudData(map[string]interface{}{"serviceId": "s1", "creationState": "completed"})),
				ghttp.RespondWithJSONEncoded(http.StatusNotFound, map[string]interface{}{}),
			)
			_, err := client.DeleteService(ctx, "s1")
			Expect(err).NotTo(HaveOccurred())
			Expect(server.ReceivedRequests()).To(HaveLen(3))
			Expect(fakeClock.Since(fakeNow)).To(Equal(2 * sempclient.DefaultPollInterval))
		})
	})
})
