package analysis

import (
	"math"
	"strings"

	"github.com/pavelanni/karne/internal/model"
)

// LGS per-question weights. Main subjects (Turkish, maths, science) carry
// four times the value of the minor subjects.
const (
	mainWrongWeight  = 5.33
	mainBlankWeight  = 4.0
	minorWrongWeight = 1.33
	minorBlankWeight = 1.0
)

// percentTolerance is how far a reported success percentage may drift from
// the recomputed one before the recomputed value replaces it.
const percentTolerance = 5.0

var mainSubjectMarkers = []string{"mat", "fen", "türk", "turk"}

// IsMainSubject reports whether subject is one of the 4x weighted LGS subjects.
func IsMainSubject(subject string) bool {
	lower := strings.ToLower(strings.TrimSpace(subject))
	for _, m := range mainSubjectMarkers {
		if strings.Contains(lower, m) {
			return true
		}
	}
	return false
}

// LostPoints estimates the LGS score forfeited through wrong and blank
// answers on a topic of the given subject. Negative counts count as zero.
func LostPoints(subject string, wrong, blank float64) float64 {
	w := math.Max(wrong, 0)
	b := math.Max(blank, 0)
	if IsMainSubject(subject) {
		return Round2(w*mainWrongWeight + b*mainBlankWeight)
	}
	return Round2(w*minorWrongWeight + b*minorBlankWeight)
}

// SuccessPercentage is correct / (correct+wrong+blank) * 100, or 0 when no
// question was counted.
func SuccessPercentage(correct, wrong, blank float64) float64 {
	total := correct + wrong + blank
	if total <= 0 {
		return 0
	}
	return correct / total * 100
}

// StatusFor derives the tier from a success percentage using half-open
// bands: >=80, [70,80), [50,70), <50.
func StatusFor(percentage float64) model.Status {
	switch {
	case percentage >= 80:
		return model.StatusExcellent
	case percentage >= 70:
		return model.StatusGood
	case percentage >= 50:
		return model.StatusNeedsWork
	default:
		return model.StatusCritical
	}
}

// Round2 rounds to two decimal places.
func Round2(f float64) float64 {
	return math.Round(f*100) / 100
}
