package controllers_test

import (
	"encoding/json"
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	topology "github.com/solace-community/pubsubplus-topology/api/v1beta1"
	"github.com/solace-community/pubsubplus-topology/controllers"
	"github.com/solace-community/pubsubplus-topology/internal"
	"github.com/solace-community/pubsubplus-topology/sempclient"
)

var _ = Describe("ObjectReconciler", func() {
	var (
		adapter    *fakeObjectAdapter
		reconciler *controllers.ObjectReconciler
		session    *controllers.Session
		task       *topology.Task
	)

	BeforeEach(func() {
		adapter = newFakeObjectAdapter()
		reconciler = &controllers.ObjectReconciler{Adapter: adapter}
		session = &controllers.Session{}
		task = &topology.Task{Kind: "fake", Name: "q1"}
	})

	When("the object does not exist", func() {
		BeforeEach(func() {
			adapter.current = sempclient.NotFound()
		})

		It("creates it with normalized settings", func() {
			task.Settings = map[string]interface{}{"maxMsgSpoolUsage": "5000", "accessType": "exclusive"}
			result, err := reconciler.Reconcile(ctx, session, task)
			Expect(err).NotTo(HaveOccurred())
			Expect(result.Changed).To(BeTrue())
			Expect(result.RC).To(Equal(topology.RCSuccess))
			Expect(adapter.created).To(Equal(internal.Settings{"maxMsgSpoolUsage": int64(5000), "accessType": "exclusive"}))
			Expect(result.Response).To(Equal(map[string]interface{}{"created": true}))
		})

		It("creates it without settings", func() {
			_, err := reconciler.Reconcile(ctx, session, task)
			Expect(err).NotTo(HaveOccurred())
			Expect(adapter.created).To(BeEmpty())
			Expect(adapter.created).NotTo(BeNil())
		})

		It("does nothing for state absent", func() {
			task.State = topology.StateAbsent
			result, err := reconciler.Reconcile(ctx, session, task)
			Expect(err).NotTo(HaveOccurred())
			Expect(result.Changed).To(BeFalse())
			Expect(adapter.calls).To(Equal([]string{"get"}))
		})

		It("only reports the change in check mode", func() {
			session.CheckMode = true
			result, err := reconciler.Reconcile(ctx, session, task)
			Expect(err).NotTo(HaveOccurred())
			Expect(result.Changed).To(BeTrue())
			Expect(adapter.calls).To(Equal([]string{"get"}))
		})

		It("returns create failures", func() {
			adapter.opErr = errors.New("boom")
			_, err := reconciler.Reconcile(ctx, session, task)
			Expect(err).To(MatchError("boom"))
		})
	})

	When("the object exists", func() {
		BeforeEach(func() {
			adapter.current = sempclient.Found(sempclient.Settings{
				"queueName":        "q1",
				"maxMsgSpoolUsage": json.Number("5000"),
				"egressEnabled":    true,
				"eventBindCountThreshold": map[string]interface{}{
					"setPercent":   json.Number("80"),
					"clearPercent": json.Number("60"),
				},
			})
		})

		It("is idempotent when settings match after normalization", func() {
			task.Settings = map[string]interface{}{
				"maxMsgSpoolUsage":        "5000",
				"egressEnabled":           true,
				"password":                "never-returned",
				"eventBindCountThreshold": map[string]interface{}{"setPercent": 80},
			}
			result, err := reconciler.Reconcile(ctx, session, task)
			Expect(err).NotTo(HaveOccurred())
			Expect(result.Changed).To(BeFalse())
			Expect(result.Delta).To(BeEmpty())
			Expect(result.Response).To(HaveKeyWithValue("queueName", "q1"))
			Expect(adapter.calls).To(Equal([]string{"get"}))
		})

		It("sends the full desired settings and reports the delta", func() {
			task.Settings = map[string]interface{}{
				"maxMsgSpoolUsage":        6000,
				"egressEnabled":           true,
				"eventBindCountThreshold": map[string]interface{}{"setPercent": 90, "clearPercent": 60},
			}
			result, err := reconciler.Reconcile(ctx, session, task)
			Expect(err).NotTo(HaveOccurred())
			Expect(result.Changed).To(BeTrue())
			Expect(result.Delta).To(Equal(map[string]interface{}{
				"maxMsgSpoolUsage":        int64(6000),
				"eventBindCountThreshold": map[string]interface{}{"setPercent": int64(90)},
			}))
			Expect(adapter.updated).To(HaveLen(3))
			Expect(adapter.delta).To(Equal(result.Delta))
		})

		It("reports the delta without updating in check mode", func() {
			session.CheckMode = true
			task.Settings = map[string]interface{}{"egressEnabled": false}
			result, err := reconciler.Reconcile(ctx, session, task)
			Expect(err).NotTo(HaveOccurred())
			Expect(result.Changed).To(BeTrue())
			Expect(result.Delta).To(Equal(map[string]interface{}{"egressEnabled": false}))
			Expect(adapter.calls).To(Equal([]string{"get"}))
		})

		It("excludes session whitelist keys from the comparison", func() {
			session.Whitelist = internal.NewWhitelist([]string{"owner"})
			task.Settings = map[string]interface{}{"owner": "alice"}
			result, err := reconciler.Reconcile(ctx, session, task)
			Expect(err).NotTo(HaveOccurred())
			Expect(result.Changed).To(BeFalse())
		})

		It("deletes it for state absent", func() {
			task.State = topology.StateAbsent
			result, err := reconciler.Reconcile(ctx, session, task)
			Expect(err).NotTo(HaveOccurred())
			Expect(result.Changed).To(BeTrue())
			Expect(adapter.deleted).To(BeTrue())
		})

		It("rejects keys the object does not have when asked to", func() {
			adapter.kind.RejectUnknownKeys = true
			task.Settings = map[string]interface{}{"maxMsgSpoolUsag": 6000, "egressEnabled": true}
			_, err := reconciler.Reconcile(ctx, session, task)
			var keysErr *controllers.InvalidKeysError
			Expect(errors.As(err, &keysErr)).To(BeTrue())
			Expect(keysErr.Invalid).To(Equal([]string{"maxMsgSpoolUsag"}))
			Expect(keysErr.Valid).To(ContainElements("queueName", "maxMsgSpoolUsage", "password"))
			Expect(adapter.calls).To(Equal([]string{"get"}))
		})
	})

	It("fails validation before calling the api", func() {
		task.Name = ""
		_, err := reconciler.Reconcile(ctx, session, task)
		Expect(err).To(HaveOccurred())
		Expect(adapter.calls).To(BeEmpty())
	})

	It("returns read failures", func() {
		adapter.getErr = errors.New("connection refused")
		_, err := reconciler.Reconcile(ctx, session, task)
		Expect(err).To(MatchError("connection refused"))
	})
})
