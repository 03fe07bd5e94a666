package dialect

// Classification is the result of scoring evidence for a file.
type Classification struct {
	Kind            Kind
	Score           int
	TotalScore      int
	Confidence      float64
	RunnerUp        Kind
	RunnerUpScore   int
	ObservedSignals int
}

// Classifier scores evidence and chooses a dominant dialect.
// Callers apply their own thresholds.
type Classifier struct{}

func (Classifier) Classify(e *Evidence) Classification {
	if e == nil || len(e.hints) == 0 {
		return Classification{Kind: Unknown}
	}

	var scores [kindCount]int
	total := 0
	for _, h := range e.hints {
		if h.Score <= 0 || h.Dialect <= Unknown || h.Dialect >= kindCount {
			continue
		}
		scores[h.Dialect] += h.Score
		total += h.Score
	}

	best, runner := C, CXX
	if scores[CXX] > scores[C] {
		best, runner = CXX, C
	}
	if scores[best] == 0 {
		best = Unknown
	}
	conf := 0.0
	if total > 0 {
		conf = float64(scores[best]) / float64(total)
	}
	return Classification{
		Kind:            best,
		Score:           scores[best],
		TotalScore:      total,
		Confidence:      conf,
		RunnerUp:        runner,
		RunnerUpScore:   scores[runner],
		ObservedSignals: len(e.hints),
	}
}

// Decide picks the dialect for an input whose extension did not settle it.
// C wins only on clear evidence; everything else is analysed as C++.
func Decide(c Classification) Kind {
	if c.Kind == C && c.Score >= 4 && c.Confidence >= 0.7 {
		return C
	}
	return CXX
}
