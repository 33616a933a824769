package features

import "time"

// Pause window in milliseconds. Shorter gaps are ordinary reading, longer
// ones are treated as distraction rather than cognitive load.
const (
	defaultMinPauseMS = 3000
	defaultMaxPauseMS = 30000

	msPerSecond = float64(time.Second / time.Millisecond)
	msPerMinute = float64(time.Minute / time.Millisecond)
)

// Revisit is a backwards navigation to an earlier segment.
type Revisit struct {
	SegmentIndex int     `json:"segmentIndex"`
	TimestampMS  float64 `json:"timestamp"`
}

// ReadingSession is the raw telemetry of one reading test.
type ReadingSession struct {
	PassageWords       int       `json:"passageTotalWords"`
	PassageSegments    int       `json:"passageTotalSegments"`
	TotalReadingTimeMS float64   `json:"totalReadingTime"`
	SegmentTimesMS     []float64 `json:"segmentTimes"`
	TimeToAnswerMS     float64   `json:"timeToAnswerQuestions"`
	Revisits           []Revisit `json:"revisitDetails"`
	PauseDurationsMS   []float64 `json:"pauseDurations"`
	CorrectAnswers     int       `json:"correctAnswers"`
	TotalQuestions     int       `json:"totalQuestions"`
}

// ReadingOption configures ExtractReading.
type ReadingOption func(*readingOptions)

type readingOptions struct {
	minPauseMS float64
	maxPauseMS float64
}

// WithPauseWindow overrides the (min, max] window in which a pause is counted.
func WithPauseWindow(minMS, maxMS float64) ReadingOption {
	return func(o *readingOptions) {
		if minMS >= 0 && maxMS > minMS {
			o.minPauseMS = minMS
			o.maxPauseMS = maxMS
		}
	}
}

// pauses returns the pause durations that fall inside the window.
func (s ReadingSession) pauses(o readingOptions) []float64 {
	out := make([]float64, 0, len(s.PauseDurationsMS))
	for _, d := range s.PauseDurationsMS {
		if d > o.minPauseMS && d <= o.maxPauseMS {
			out = append(out, d)
		}
	}
	return out
}

// ExtractReading derives the reading feature vector from a session.
func ExtractReading(s ReadingSession, opts ...ReadingOption) Vector {
	o := readingOptions{minPauseMS: defaultMinPauseMS, maxPauseMS: defaultMaxPauseMS}
	for _, opt := range opts {
		opt(&o)
	}

	readingMS := max(s.TotalReadingTimeMS, 0)
	minutes := readingMS / msPerMinute

	var comprehension float64
	answered := s.TotalQuestions > 0
	if answered {
		comprehension = float64(s.CorrectAnswers) / float64(s.TotalQuestions) * percent
	}

	pauses := s.pauses(o)
	var longest float64
	for _, p := range pauses {
		longest = max(longest, p)
	}

	unique := make(map[int]struct{}, len(s.Revisits))
	for _, r := range s.Revisits {
		unique[r.SegmentIndex] = struct{}{}
	}

	var efficiency float64
	if totalMinutes := (readingMS + max(s.TimeToAnswerMS, 0)) / msPerMinute; readingMS > 0 && totalMinutes > 0 {
		efficiency = comprehension / totalMinutes
	}

	values := map[string]float64{
		ReadingTime:             readingMS / msPerSecond,
		RevisitCount:            float64(len(s.Revisits)),
		PauseCount:              float64(len(pauses)),
		AvgPauseDuration:        Mean(pauses),
		WordsPerMinute:          RatePerMinute(float64(s.PassageWords), minutes),
		RevisitRate:             RatePer100(float64(len(unique)), float64(s.PassageSegments)),
		PausesPerMinute:         RatePerMinute(float64(len(pauses)), minutes),
		AvgTimePerSegment:       Mean(Positive(s.SegmentTimesMS)),
		LongestPause:            longest,
		ComprehensionEfficiency: efficiency,
	}
	// with no questions asked there is no score to report; leave it missing
	if answered {
		values[ComprehensionScore] = comprehension
	}
	return NewVector(values)
}
