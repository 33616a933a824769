package service_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	service "github.com/okian/dyscreen/internal/app"
	"github.com/okian/dyscreen/internal/domain/features"
	"github.com/okian/dyscreen/internal/domain/model"
	"github.com/okian/dyscreen/internal/domain/scoring"
	"github.com/okian/dyscreen/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

func ptr(v float64) *float64 { return &v }

func dyslexicReading() map[string]*float64 {
	return map[string]*float64{
		features.ReadingTime:        ptr(151.8),
		features.ComprehensionScore: ptr(45),
		features.RevisitCount:       ptr(12),
		features.PauseCount:         ptr(15),
		features.AvgPauseDuration:   ptr(6000),
	}
}

func newService(opts ...service.Option) *service.Service {
	svc, err := service.New(opts...)
	So(err, ShouldBeNil)
	return svc
}

func TestService_New(t *testing.T) {
	Convey("Given a new service with default options", t, func() {
		svc := newService()

		Convey("Then it reports the built-in keystroke blend and is not started", func() {
			stats := svc.GetStats()
			So(stats["started"], ShouldEqual, false)
			So(stats["anomalyEnabled"], ShouldEqual, false)
			So(stats["keystrokeRuleWeight"], ShouldEqual, scoring.KeystrokeRuleWeight)
		})
	})

	Convey("Given custom models", t, func() {
		reading, err := scoring.NewModel(scoring.Reading, []scoring.FeatureSpec{{
			Name:   features.ReadingTime,
			Range:  scoring.ReferenceRange{Normal: 0, Atypical: 100, Direction: scoring.HigherIsWorse},
			Weight: 1,
			Policy: scoring.Required,
		}})
		So(err, ShouldBeNil)
		svc := newService(service.WithModels(nil, reading))

		Convey("Then the reading engine uses them", func() {
			res := svc.AssessReading(context.Background(), features.NewVector(map[string]float64{features.ReadingTime: 25}))
			So(res.RiskScore, ShouldEqual, 25)
			So(res.RiskLevel, ShouldEqual, scoring.TierLow)
		})
	})
}

func TestService_Assess(t *testing.T) {
	ctx := context.Background()

	Convey("Given a service", t, func() {
		svc := newService()

		Convey("When a reading submission carries features", func() {
			a, err := svc.Assess(ctx, model.Submission{
				ID:        "sub-1",
				SubjectID: "child-7",
				Modality:  scoring.Reading,
				Features:  dyslexicReading(),
			})

			Convey("Then the assessment is high risk and keeps its identity", func() {
				So(err, ShouldBeNil)
				So(a.SubmissionID, ShouldEqual, "sub-1")
				So(a.SubjectID, ShouldEqual, "child-7")
				So(a.Result.RiskScore, ShouldEqual, 86)
				So(a.Result.RiskLevel, ShouldEqual, scoring.TierHigh)
				So(a.AssessedAt.IsZero(), ShouldBeFalse)
			})
		})

		Convey("When a reading submission carries a raw session", func() {
			a, err := svc.Assess(ctx, model.Submission{
				ID:       "sub-2",
				Modality: scoring.Reading,
				Reading: &features.ReadingSession{
					TotalReadingTimeMS: 70400,
					CorrectAnswers:     9,
					TotalQuestions:     10,
					PauseDurationsMS:   []float64{4000, 4000, 4000, 4000, 4000},
				},
			})

			Convey("Then features are extracted before scoring", func() {
				So(err, ShouldBeNil)
				So(a.Result.RiskLevel, ShouldEqual, scoring.TierLow)
				So(a.Result.Imputed(), ShouldBeEmpty)
			})
		})

		Convey("When a reading session asked no comprehension questions", func() {
			session := features.ReadingSession{TotalReadingTimeMS: 70400}
			_, err := svc.Assess(ctx, model.Submission{ID: "sub-4", Modality: scoring.Reading, Reading: &session})

			Convey("Then the submission is rejected", func() {
				So(errors.Is(err, model.ErrIncompleteSession), ShouldBeTrue)
			})

			Convey("Then scoring its features directly treats comprehension as missing", func() {
				res := svc.AssessReading(ctx, features.ExtractReading(session))
				So(res.Imputed(), ShouldContain, features.ComprehensionScore)
				So(res.RiskScore, ShouldEqual, 15)
				So(res.RiskLevel, ShouldEqual, scoring.TierLow)
			})
		})

		Convey("When every keystroke feature is missing", func() {
			a, err := svc.Assess(ctx, model.Submission{
				ID:       "sub-3",
				Modality: scoring.Keystroke,
				Features: map[string]*float64{},
			})

			Convey("Then required features fall back to neutral and the anomaly term is skipped", func() {
				So(err, ShouldBeNil)
				So(a.Result.RiskScore, ShouldEqual, 23)
				So(a.Result.Anomaly, ShouldNotBeNil)
				So(a.Result.Anomaly.Available, ShouldBeFalse)
				So(len(a.Result.Imputed()), ShouldEqual, 5)
			})
		})

		Convey("When the submission is malformed", func() {
			_, err := svc.Assess(ctx, model.Submission{ID: "bad", Modality: "handwriting"})
			So(errors.Is(err, model.ErrUnknownModality), ShouldBeTrue)
		})
	})

	Convey("Given a service with an anomaly scorer", t, func() {
		var got scoring.AnomalyFeatures
		scorer := scoring.AnomalyScorerFunc(func(_ context.Context, f scoring.AnomalyFeatures) (scoring.AnomalyScore, error) {
			got = f
			anomalous := true
			return scoring.AnomalyScore{Score: -0.5, IsAnomalous: &anomalous, Available: true}, nil
		})
		svc := newService(service.WithAnomalyScorer(scorer, 0))

		Convey("When a worst-case keystroke vector is assessed", func() {
			res := svc.AssessKeystroke(ctx, features.NewVector(map[string]float64{
				features.CVHoldTime:     45,
				features.CVFlightTime:   100,
				features.BackspaceRate:  20,
				features.PauseFrequency: 15,
				features.WPM:            10,
			}))

			Convey("Then the anomaly term is blended in", func() {
				So(res.RiskScore, ShouldEqual, 85)
				So(res.Anomaly.Available, ShouldBeTrue)
				So(got.CVHoldTime, ShouldEqual, 45)
				So(svc.GetStats()["anomalyEnabled"], ShouldEqual, true)
			})
		})
	})
}

func TestService_AssessBatch(t *testing.T) {
	ctx := context.Background()

	Convey("Given a service with a batch limit of 3", t, func() {
		svc := newService(service.WithBatchLimits(3, 2))

		Convey("When a mixed batch is assessed", func() {
			items, err := svc.AssessBatch(ctx, []model.Submission{
				{Modality: scoring.Reading, Features: dyslexicReading()},
				{Modality: "handwriting"},
				{Modality: scoring.Keystroke, Features: map[string]*float64{}},
			})

			Convey("Then each entry is reported in input order", func() {
				So(err, ShouldBeNil)
				So(len(items), ShouldEqual, 3)
				So(items[0].Index, ShouldEqual, 0)
				So(items[0].Result.RiskScore, ShouldEqual, 86)
				So(items[1].Result, ShouldBeNil)
				So(items[1].Error, ShouldContainSubstring, "unknown modality")
				So(items[2].Result.RiskScore, ShouldEqual, 23)
			})
		})

		Convey("When the batch exceeds the limit", func() {
			subs := make([]model.Submission, 4)
			_, err := svc.AssessBatch(ctx, subs)
			So(errors.Is(err, model.ErrBatchTooLarge), ShouldBeTrue)
		})
	})
}

func TestService_Submit(t *testing.T) {
	ctx := context.Background()

	Convey("Given a service that is not started", t, func() {
		svc := newService()

		Convey("Then Submit is refused", func() {
			_, _, err := svc.Submit(ctx, model.Submission{Modality: scoring.Reading, Features: dyslexicReading()})
			So(errors.Is(err, model.ErrNotStarted), ShouldBeTrue)
		})
	})

	Convey("Given a started service", t, func() {
		svc := newService(service.WithWorkerCount(1), service.WithQueueSize(10))
		So(svc.Start(ctx), ShouldBeNil)
		defer func() { _ = svc.Stop(ctx) }()

		Convey("When a submission has no id", func() {
			id, status, err := svc.Submit(ctx, model.Submission{Modality: scoring.Reading, Features: dyslexicReading()})

			Convey("Then one is generated", func() {
				So(err, ShouldBeNil)
				So(status, ShouldEqual, model.Accepted)
				So(id, ShouldNotBeEmpty)
			})
		})

		Convey("When the same id is submitted twice", func() {
			sub := model.Submission{ID: "dup-1", Modality: scoring.Reading, Features: dyslexicReading()}
			_, first, err1 := svc.Submit(ctx, sub)
			_, second, err2 := svc.Submit(ctx, sub)

			Convey("Then the second is a duplicate", func() {
				So(err1, ShouldBeNil)
				So(err2, ShouldBeNil)
				So(first, ShouldEqual, model.Accepted)
				So(second, ShouldEqual, model.Duplicate)
			})
		})

		Convey("When the submission is invalid", func() {
			_, _, err := svc.Submit(ctx, model.Submission{ID: "x", Modality: scoring.Reading})
			So(errors.Is(err, model.ErrNoInput), ShouldBeTrue)
		})
	})
}

func TestService_Backpressure(t *testing.T) {
	Convey("Given a started service whose queue is saturated", t, func() {
		ctx := context.Background()
		block := make(chan struct{})
		scorer := scoring.AnomalyScorerFunc(func(ctx context.Context, _ scoring.AnomalyFeatures) (scoring.AnomalyScore, error) {
			<-block
			return scoring.AnomalyScore{}, ctx.Err()
		})
		svc := newService(
			service.WithWorkerCount(1),
			service.WithQueueSize(1),
			service.WithAnomalyScorer(scorer, 0),
		)
		So(svc.Start(ctx), ShouldBeNil)
		defer func() {
			close(block)
			_ = svc.Stop(ctx)
		}()

		var rejected error
		var rejectedID string
		for i := range 5 {
			id := fmt.Sprintf("bp-%d", i)
			if _, _, err := svc.Submit(ctx, model.Submission{ID: id, Modality: scoring.Keystroke, Features: map[string]*float64{}}); err != nil {
				rejected, rejectedID = err, id
				break
			}
		}

		Convey("Then Submit reports backpressure and the id can be retried", func() {
			So(errors.Is(rejected, model.ErrBackpressure), ShouldBeTrue)
			_, _, err := svc.Submit(ctx, model.Submission{ID: rejectedID, Modality: scoring.Keystroke, Features: map[string]*float64{}})
			So(errors.Is(err, model.ErrBackpressure), ShouldBeTrue)
		})
	})
}
