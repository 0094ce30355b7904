package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	. "github.com/smartystreets/goconvey/convey"
)

// family returns the gathered metric family with the given full name.
func family(reg *prometheus.Registry, name string) *dto.MetricFamily {
	families, err := reg.Gather()
	So(err, ShouldBeNil)
	for _, f := range families {
		if f.GetName() == name {
			return f
		}
	}
	return nil
}

func labelValue(m *dto.Metric, name string) string {
	for _, l := range m.GetLabel() {
		if l.GetName() == name {
			return l.GetValue()
		}
	}
	return ""
}

func TestMetricsManagerCreation(t *testing.T) {
	Convey("Given metrics manager creation", t, func() {
		Convey("When creating with a fresh registry", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(WithPrometheusRegistry(registry))

			Convey("Then it should use the default namespace", func() {
				So(manager, ShouldNotBeNil)
				manager.RecordSessionCreated()
				So(family(registry, "terimu_storybook_sessions_created_total"), ShouldNotBeNil)
			})
		})

		Convey("When creating with custom options", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(
				WithNamespace("test"),
				WithSubsystem("game"),
				WithHistogramBuckets([]float64{1, 10, 100}),
				WithConstLabels(map[string]string{"env": "test"}),
				WithPrometheusRegistry(registry),
			)
			manager.RecordDrop("swap")

			Convey("Then names and const labels should follow the options", func() {
				f := family(registry, "test_game_drops_total")
				So(f, ShouldNotBeNil)
				So(labelValue(f.GetMetric()[0], "env"), ShouldEqual, "test")
				So(labelValue(f.GetMetric()[0], "move"), ShouldEqual, "swap")
			})
		})

		Convey("When registering twice on the same registry", func() {
			registry := prometheus.NewRegistry()
			NewManager(WithPrometheusRegistry(registry))

			Convey("Then promauto should panic on the duplicate", func() {
				So(func() { NewManager(WithPrometheusRegistry(registry)) }, ShouldPanic)
			})
		})
	})
}

func TestMetricsRecording(t *testing.T) {
	Convey("Given a manager on its own registry", t, func() {
		registry := prometheus.NewRegistry()
		m := NewManager(WithPrometheusRegistry(registry))

		Convey("When sessions open and close", func() {
			m.RecordSessionCreated()
			m.RecordSessionCreated()
			m.RecordSessionCreated()
			m.RecordSessionEnded(EndReasonClosed)
			m.RecordSessionEnded(EndReasonExpired)

			Convey("Then the active gauge tracks the difference", func() {
				f := family(registry, "terimu_storybook_sessions_active")
				So(f.GetMetric()[0].GetGauge().GetValue(), ShouldEqual, 1.0)

				ended := family(registry, "terimu_storybook_sessions_ended_total")
				So(len(ended.GetMetric()), ShouldEqual, 2)
			})
		})

		Convey("When drops and checks are recorded", func() {
			m.RecordDrop("place")
			m.RecordDrop("place")
			m.RecordDrop("swap")
			m.RecordCheck("incorrect")
			m.RecordCheck("success")

			Convey("Then each label keeps its own count", func() {
				f := family(registry, "terimu_storybook_drops_total")
				counts := map[string]float64{}
				for _, metric := range f.GetMetric() {
					counts[labelValue(metric, "move")] = metric.GetCounter().GetValue()
				}
				So(counts["place"], ShouldEqual, 2.0)
				So(counts["swap"], ShouldEqual, 1.0)

				checks := family(registry, "terimu_storybook_checks_total")
				So(len(checks.GetMetric()), ShouldEqual, 2)
			})
		})

		Convey("When a completion is recorded", func() {
			m.RecordCompletion("te-rimu", 3)

			Convey("Then the attempts histogram observes the count", func() {
				f := family(registry, "terimu_storybook_completion_attempts")
				So(f.GetMetric()[0].GetHistogram().GetSampleCount(), ShouldEqual, uint64(1))
				So(f.GetMetric()[0].GetHistogram().GetSampleSum(), ShouldEqual, 3.0)
			})
		})

		Convey("When notification outcomes are recorded", func() {
			m.RecordNotification("webhook", "delivered", 12)
			m.RecordNotification("webhook", "failed", 40)
			m.RecordNotifyRetry()

			Convey("Then they are split by outcome", func() {
				f := family(registry, "terimu_storybook_notifications_total")
				So(len(f.GetMetric()), ShouldEqual, 2)
				So(family(registry, "terimu_storybook_notify_retries_total"), ShouldNotBeNil)
			})
		})
	})
}

func TestGlobalHelpers(t *testing.T) {
	Convey("Given the global manager", t, func() {
		Convey("Then package helpers should not panic", func() {
			So(func() {
				RecordSessionCreated()
				RecordSessionEnded(EndReasonClosed)
				RecordSessionRejected()
				RecordDrop("return")
				RecordGestureDuplicate()
				RecordCheck("incomplete")
				RecordCompletion("te-rimu", 1)
				RecordNotification("log", "delivered", 0.1)
				RecordNotifyRetry()
				UpdateQueueSize(3)
				UpdateQueueCapacity(10)
				RecordQueueEnqueue()
				RecordQueueDequeue()
				RecordQueueEnqueueError()
				UpdateWorkerCount(2)
				UpdateWorkerActiveCount(1)
				RecordWorkerProcessingLatency(1.5)
				UpdateStoreShardCount(8)
				UpdateStoreSessionsPerShard("0", 4)
				RecordStoreSweepDuration(0.2)
				RecordHTTPRequest("/sessions", "POST", "201")
				RecordHTTPRequestDuration("/sessions", "POST", "201", 2)
				RecordErrorByComponent("api", "not_found")
				UpdateSystemMemoryUsage(1024)
				UpdateSystemGoroutineCount(12)
				RecordSystemGCPauseTime(0.3)
			}, ShouldNotPanic)
		})

		Convey("Then the registry should expose the recorded families", func() {
			RecordDrop("place")
			So(family(GetRegistry(), "terimu_storybook_drops_total"), ShouldNotBeNil)
		})
	})
}
