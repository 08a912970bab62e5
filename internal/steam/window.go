package steam

import "time"

type sample struct {
	at    time.Time
	price float64
}

// window holds the rolling price history for one outcome. Samples older
// than the lookback horizon are trimmed, except that the most recent
// pre-horizon sample is kept as an anchor: a quiet feed must not lose its
// comparison baseline just because nothing traded for a while.
type window struct {
	samples []sample
}

func (w *window) add(at time.Time, price float64) {
	w.samples = append(w.samples, sample{at: at, price: price})
}

func (w *window) trim(cutoff time.Time) {
	first := 0
	for i, s := range w.samples {
		if !s.at.Before(cutoff) {
			break
		}
		first = i
	}
	if first > 0 {
		w.samples = append(w.samples[:0], w.samples[first:]...)
	}
}

func (w *window) oldest() (sample, bool) {
	if len(w.samples) == 0 {
		return sample{}, false
	}
	return w.samples[0], true
}

func (w *window) newest() (sample, bool) {
	if len(w.samples) == 0 {
		return sample{}, false
	}
	return w.samples[len(w.samples)-1], true
}

func (w *window) len() int {
	return len(w.samples)
}
