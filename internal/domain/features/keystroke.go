package features

import (
	"strings"
	"time"
)

const (
	defaultKeystrokePause = 1000 // ms between keys that counts as a hesitation
	backspaceKey          = "Backspace"
)

// Keystroke is a single key press with down/up timestamps in milliseconds.
type Keystroke struct {
	Key    string  `json:"key"`
	DownMS float64 `json:"keyDownTime"`
	UpMS   float64 `json:"keyUpTime"`
}

// KeystrokeSession is the raw telemetry of one typing test.
type KeystrokeSession struct {
	Prompt     string      `json:"prompt"`
	TypedText  string      `json:"typedText"`
	Start      time.Time   `json:"startTime"`
	End        time.Time   `json:"endTime"`
	Keystrokes []Keystroke `json:"keystrokes"`
}

// KeystrokeOption configures ExtractKeystroke.
type KeystrokeOption func(*keystrokeOptions)

type keystrokeOptions struct {
	pauseMS float64
}

// WithKeystrokePause overrides the flight time above which a gap counts as a pause.
func WithKeystrokePause(ms float64) KeystrokeOption {
	return func(o *keystrokeOptions) {
		if ms > 0 {
			o.pauseMS = ms
		}
	}
}

// HoldTimes returns up-down per key in order.
func (s KeystrokeSession) HoldTimes() []float64 {
	out := make([]float64, len(s.Keystrokes))
	for i, k := range s.Keystrokes {
		out[i] = k.UpMS - k.DownMS
	}
	return out
}

// FlightTimes returns the gap between each key release and the next key press.
func (s KeystrokeSession) FlightTimes() []float64 {
	if len(s.Keystrokes) < 2 {
		return nil
	}
	out := make([]float64, 0, len(s.Keystrokes)-1)
	for i := 1; i < len(s.Keystrokes); i++ {
		out = append(out, s.Keystrokes[i].DownMS-s.Keystrokes[i-1].UpMS)
	}
	return out
}

// ExtractKeystroke derives the keystroke feature vector from a session.
func ExtractKeystroke(s KeystrokeSession, opts ...KeystrokeOption) Vector {
	o := keystrokeOptions{pauseMS: defaultKeystrokePause}
	for _, opt := range opts {
		opt(&o)
	}

	holds := Positive(s.HoldTimes())
	flights := Positive(s.FlightTimes())

	var durationMS float64
	if !s.Start.IsZero() && !s.End.IsZero() {
		durationMS = float64(s.End.Sub(s.Start).Milliseconds())
	}
	minutes := 0.0
	if durationMS > 0 {
		minutes = durationMS / float64(time.Minute/time.Millisecond)
	}

	words := float64(len(strings.Fields(s.TypedText)))
	textLen := float64(len([]rune(s.TypedText)))

	var backspaces float64
	for _, k := range s.Keystrokes {
		if k.Key == backspaceKey {
			backspaces++
		}
	}

	var pauses float64
	for _, f := range flights {
		if f > o.pauseMS {
			pauses++
		}
	}

	accuracy := Accuracy(s.Prompt, s.TypedText)

	return NewVector(map[string]float64{
		AvgHoldTime:    Mean(holds),
		StdHoldTime:    StdDev(holds),
		CVHoldTime:     CoefficientOfVariation(holds),
		AvgFlightTime:  Mean(flights),
		StdFlightTime:  StdDev(flights),
		CVFlightTime:   CoefficientOfVariation(flights),
		WPM:            RatePerMinute(words, minutes),
		TypingAccuracy: accuracy,
		ErrorRate:      percent - accuracy,
		BackspaceCount: backspaces,
		BackspaceRate:  RatePer100(backspaces, textLen),
		PauseCount:     pauses,
		PauseFrequency: RatePer100(pauses, textLen),
		DurationMS:     max(durationMS, 0),
	})
}
