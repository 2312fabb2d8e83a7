package analysis

import (
	"errors"
	"fmt"
	"math"
	"slices"
	"sort"

	"github.com/pavelanni/karne/internal/model"
)

// ScopeAll selects the combined view over every stored analysis.
const ScopeAll = "all"

// ErrNotFound is returned by Select when no analysis has the requested id.
var ErrNotFound = errors.New("analysis not found")

const combinedBanner = "### 📊 GENEL BAKIŞ MODU (%d Dosya Kaydı)\n\n" +
	"Şu anda **tüm denemelerin ortalaması ve kümülatif verileri** üzerinden analiz yapıyorsunuz. " +
	"Aşağıdaki veriler, yüklenen tüm sınavların toplam performansını yansıtır.\n\n"

type topicKey struct {
	subject string
	topic   string
}

type examKey struct {
	date string
	name string
}

// Aggregate merges sanitized results into one composite result covering all
// exams. Topic counts are summed per (subject, topic), exam history is the
// de-duplicated union, and the percentile is the mean of the inputs. Fields
// that are not aggregated come from the most recently saved input.
//
// A single input is returned unchanged. An empty input yields the zero value.
// Inputs are never modified.
func Aggregate(results []model.AnalysisResult) model.AnalysisResult {
	switch len(results) {
	case 0:
		return model.AnalysisResult{}
	case 1:
		return results[0]
	}

	base := clone(latest(results))

	var sum float64
	var n int
	for _, r := range results {
		p := r.ExecutiveSummary.EstimatedPercentile
		if math.IsNaN(p) || math.IsInf(p, 0) {
			continue
		}
		sum += p
		n++
	}
	if n > 0 {
		base.ExecutiveSummary.EstimatedPercentile = sum / float64(n)
	}

	base.TopicAnalysis = mergeTopics(results)
	base.ExamHistory = unionExams(results)
	base.ExecutiveSummary.Narrative = fmt.Sprintf(combinedBanner, len(results)) + base.ExecutiveSummary.Narrative
	return base
}

// latest returns the input with the greatest SavedAt, ignoring inputs that
// were never saved. Ties go to the later element. When no input carries a
// timestamp the first element wins.
func latest(results []model.AnalysisResult) model.AnalysisResult {
	idx := -1
	for i, r := range results {
		if r.SavedAt == 0 {
			continue
		}
		if idx < 0 || r.SavedAt >= results[idx].SavedAt {
			idx = i
		}
	}
	if idx < 0 {
		return results[0]
	}
	return results[idx]
}

func mergeTopics(results []model.AnalysisResult) []model.TopicRecord {
	index := make(map[topicKey]int)
	merged := []model.TopicRecord{}
	for _, r := range results {
		for _, t := range r.TopicAnalysis {
			k := topicKey{subject: t.Subject, topic: t.Topic}
			i, ok := index[k]
			if !ok {
				index[k] = len(merged)
				merged = append(merged, t)
				continue
			}
			m := &merged[i]
			m.Correct += t.Correct
			m.Wrong += t.Wrong
			m.Blank += t.Blank
			m.LostPoints += t.LostPoints
		}
	}

	for i := range merged {
		m := &merged[i]
		total := m.Correct + m.Wrong + m.Blank
		if total == 0 {
			total = 1
		}
		m.SuccessPercentage = m.Correct / total * 100
		m.LostPoints = Round2(m.LostPoints)
	}
	return merged
}

func unionExams(results []model.AnalysisResult) []model.ExamRecord {
	seen := make(map[examKey]bool)
	out := []model.ExamRecord{}
	for _, r := range results {
		for _, e := range r.ExamHistory {
			k := examKey{date: e.Date, name: e.ExamName}
			if seen[k] {
				continue
			}
			seen[k] = true
			e.SubjectNets = slices.Clone(e.SubjectNets)
			out = append(out, e)
		}
	}
	return out
}

// clone copies r so that the slices of the copy share no memory with r.
func clone(r model.AnalysisResult) model.AnalysisResult {
	r.ExecutiveSummary.Strengths = slices.Clone(r.ExecutiveSummary.Strengths)
	r.ExecutiveSummary.Weaknesses = slices.Clone(r.ExecutiveSummary.Weaknesses)
	r.ActionPlan = slices.Clone(r.ActionPlan)
	r.Simulation.Steps = slices.Clone(r.Simulation.Steps)
	return r
}

// Select resolves a dashboard scope against the history. ScopeAll (or an
// empty scope) yields the combined view over the history with duplicate ids
// removed; any other scope is looked up as an analysis id.
func Select(history []model.AnalysisResult, scope string) (model.AnalysisResult, error) {
	if len(history) == 0 {
		return model.AnalysisResult{}, ErrNotFound
	}
	if scope == "" || scope == ScopeAll {
		return Aggregate(uniqueByID(history)), nil
	}
	for _, r := range history {
		if r.ID == scope {
			return r, nil
		}
	}
	return model.AnalysisResult{}, fmt.Errorf("%w: %s", ErrNotFound, scope)
}

func uniqueByID(history []model.AnalysisResult) []model.AnalysisResult {
	seen := make(map[string]bool, len(history))
	out := make([]model.AnalysisResult, 0, len(history))
	for _, r := range history {
		if seen[r.ID] {
			continue
		}
		seen[r.ID] = true
		out = append(out, r)
	}
	return out
}

// Trend builds the progress chart: one point per analysis in save order,
// scored by the last exam of that analysis. Analyses without a positive
// score are left out.
func Trend(history []model.AnalysisResult) []model.TrendPoint {
	ordered := slices.Clone(history)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].SavedAt < ordered[j].SavedAt
	})

	points := []model.TrendPoint{}
	for _, r := range ordered {
		if len(r.ExamHistory) == 0 {
			continue
		}
		last := r.ExamHistory[len(r.ExamHistory)-1]
		if last.TotalScore <= 0 {
			continue
		}
		name := last.ExamName
		if name == "" {
			name = "Sınav"
		}
		points = append(points, model.TrendPoint{
			AnalysisID: r.ID,
			SavedAt:    r.SavedAt,
			ExamName:   name,
			Score:      last.TotalScore,
		})
	}
	return points
}
