package baseline

import invoice "github.com/teo1264/enel-system/internal/invoice/domain"

// Severity classifies a month's consumption against its baseline.
type Severity string

const (
	// SeverityHigh fires when consumption reaches the alert threshold
	// as a percentage of the baseline average.
	SeverityHigh Severity = "high consumption alert"
	// SeverityNormal covers consumption below the threshold.
	SeverityNormal Severity = "normal"
	// SeverityInsufficientHistory means no usable prior months exist,
	// so no judgement is made either way.
	SeverityInsufficientHistory Severity = "insufficient history"
)

const (
	// DefaultThresholdPct: current at or above 150% of baseline alerts.
	DefaultThresholdPct = 150.0
	// DefaultWindow is how many prior months feed the baseline average.
	DefaultWindow = 6
)

// Assessment is the result of scoring one month.
type Assessment struct {
	Severity Severity
	// BaselineKWh is the average of the prior window, zero when
	// history was insufficient.
	BaselineKWh float64
	// PercentOfBaseline is current/baseline in percent.
	PercentOfBaseline float64
	// DeviationPct is the signed deviation from baseline in percent.
	DeviationPct float64
	// SampleCount is how many prior months fed the baseline.
	SampleCount int
}

// Engine scores consumption. The zero value is not usable; NewEngine
// applies the default threshold and window.
type Engine struct {
	ThresholdPct float64
	Window       int
}

func NewEngine() *Engine {
	return &Engine{ThresholdPct: DefaultThresholdPct, Window: DefaultWindow}
}

// Assess scores currentKWh for period against h. It is a pure
// function of its inputs: the history is read, never modified, so the
// current month never feeds its own baseline.
func (e *Engine) Assess(h *History, period invoice.BillingPeriod, currentKWh float64) Assessment {
	window := e.Window
	if window <= 0 {
		window = DefaultWindow
	}
	threshold := e.ThresholdPct
	if threshold <= 0 {
		threshold = DefaultThresholdPct
	}

	prior := h.PriorWindow(period, window)
	if len(prior) == 0 {
		return Assessment{Severity: SeverityInsufficientHistory}
	}

	var sum float64
	for _, p := range prior {
		sum += p.ConsumptionKWh
	}
	avg := sum / float64(len(prior))

	pct := currentKWh / avg * 100
	a := Assessment{
		BaselineKWh:       avg,
		PercentOfBaseline: pct,
		DeviationPct:      pct - 100,
		SampleCount:       len(prior),
	}
	if pct >= threshold {
		a.Severity = SeverityHigh
	} else {
		a.Severity = SeverityNormal
	}
	return a
}
