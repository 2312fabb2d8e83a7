// Package analysis turns the loosely shaped JSON returned by the analysis
// service into consistent AnalysisResult values and merges them into the
// combined all-exams view.
package analysis

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"

	"github.com/pavelanni/karne/internal/model"
)

var (
	// ErrInvalidShape is returned when the top-level value is not a JSON object.
	ErrInvalidShape = errors.New("analysis response is not an object")
	// ErrMalformedJSON is returned by SanitizeJSON when the bytes do not decode.
	ErrMalformedJSON = errors.New("analysis response is not valid JSON")
)

// Placeholders used when the service omits a field.
const (
	DefaultStudentName = "Öğrenci"
	DefaultNarrative   = "Analiz hazırlanıyor..."
	DefaultScenario    = "Simülasyon senaryosu hazırlanıyor..."
	DefaultTaskMethod  = "Genel Çalışma"
)

// Sanitize converts one decoded JSON value into a fully populated
// AnalysisResult. Only a nil or non-object top-level value is an error;
// every other defect is repaired with a default.
func Sanitize(raw any) (model.AnalysisResult, error) {
	root, ok := raw.(map[string]any)
	if !ok || root == nil {
		return model.AnalysisResult{}, fmt.Errorf("sanitize: %w (got %T)", ErrInvalidShape, raw)
	}

	student := Object(root["ogrenci_bilgi"])
	summary := Object(root["executive_summary"])

	res := model.AnalysisResult{
		ID:      Text(root["id"], ""),
		SavedAt: savedAt(root["savedAt"]),
		StudentInfo: model.StudentInfo{
			Name:       Text(student["ad_soyad"], DefaultStudentName),
			Section:    Text(student["sube"], "-"),
			RollNumber: Text(student["numara"], "-"),
		},
		ExecutiveSummary: model.ExecutiveSummary{
			Narrative:           Text(summary["mevcut_durum"], DefaultNarrative),
			Strengths:           Texts(summary["guclu_yonler"]),
			Weaknesses:          Texts(summary["zayif_yonler"]),
			EstimatedPercentile: NumberIn(summary["lgs_tahmini_yuzdelik"], 0, 0, 100),
		},
		ExamHistory:   sanitizeList(root["exams_history"], sanitizeExam),
		TopicAnalysis: sanitizeList(root["konu_analizi"], sanitizeTopic),
		ActionPlan:    sanitizeList(root["calisma_plani"], sanitizeAction),
		Simulation:    sanitizeSimulation(Object(root["simulasyon"])),
	}
	return res, nil
}

// SanitizeJSON decodes data and passes the result through Sanitize.
func SanitizeJSON(data []byte) (model.AnalysisResult, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var raw any
	if err := dec.Decode(&raw); err != nil {
		return model.AnalysisResult{}, fmt.Errorf("%w: %v", ErrMalformedJSON, err)
	}
	return Sanitize(raw)
}

func sanitizeList[T any](v any, fn func(map[string]any) T) []T {
	list := List(v)
	out := make([]T, 0, len(list))
	for _, item := range list {
		out = append(out, fn(Object(item)))
	}
	return out
}

func sanitizeTopic(raw map[string]any) model.TopicRecord {
	subject := Text(raw["ders"], "Genel")
	correct := NumberMin(raw["dogru"], 0, 0)
	wrong := NumberMin(raw["yanlis"], 0, 0)
	blank := NumberMin(raw["bos"], 0, 0)

	computed := SuccessPercentage(correct, wrong, blank)
	percent := computed
	if reported, ok := number(raw["basari_yuzdesi"]); ok && math.Abs(reported-computed) < percentTolerance {
		percent = reported
	}
	percent = Round2(clamp(percent, 0, 100))

	status := model.Status(Text(raw["durum"], ""))
	if !status.IsValid() {
		status = StatusFor(percent)
	}

	return model.TopicRecord{
		Subject:           subject,
		Topic:             Text(raw["konu"], "Belirsiz Konu"),
		Correct:           correct,
		Wrong:             wrong,
		Blank:             blank,
		SuccessPercentage: percent,
		LostPoints:        LostPoints(subject, wrong, blank),
		Status:            status,
	}
}

func sanitizeExam(raw map[string]any) model.ExamRecord {
	return model.ExamRecord{
		ExamName:          Text(raw["sinav_adi"], "Deneme Sınavı"),
		Publisher:         Text(raw["yayin_evi"], "Bilinmiyor"),
		Date:              Text(raw["tarih"], ""),
		TotalScore:        NumberIn(raw["toplam_puan"], 0, 0, 500),
		OverallPercentile: NumberIn(raw["genel_yuzdelik"], 0, 0, 100),
		// Nets are not clamped: three wrongs and one right is -0.33.
		SubjectNets: sanitizeList(raw["ders_netleri"], func(d map[string]any) model.SubjectNet {
			return model.SubjectNet{
				Subject: Text(d["ders"], "Ders"),
				Net:     Number(d["net"], 0),
			}
		}),
	}
}

func sanitizeAction(raw map[string]any) model.ActionPlanItem {
	priority := model.PriorityMedium
	switch p := Number(raw["oncelik"], float64(model.PriorityMedium)); p {
	case 1, 2, 3:
		priority = model.Priority(p)
	}

	return model.ActionPlanItem{
		Topic:      Text(raw["konu"], "Konu"),
		Subject:    Text(raw["ders"], "Ders"),
		Reason:     Text(raw["sebep"], "Gelişim alanı."),
		Advice:     Text(raw["tavsiye"], "Tekrar yapın."),
		Priority:   priority,
		Importance: NumberIn(raw["onem_derecesi"], 5, 1, 10),
		TaskMethod: Text(raw["gorev_tipi"], DefaultTaskMethod),
	}
}

func sanitizeSimulation(raw map[string]any) model.Simulation {
	return model.Simulation{
		Scenario:         Text(raw["senaryo"], DefaultScenario),
		TargetPercentile: NumberIn(raw["hedef_yuzdelik"], 0, 0, 100),
		TargetScore:      NumberIn(raw["hedef_puan"], 0, 0, 500),
		ScoreRange:       Text(raw["puan_araligi"], "-"),
		RequiredNetGain:  Text(raw["gerekli_net_artisi"], "-"),
		Steps: sanitizeList(raw["gelisim_adimlari"], func(s map[string]any) model.SimulationStep {
			return model.SimulationStep{
				Title:           Text(s["baslik"], "Adım"),
				WhatToDo:        Text(s["ne_yapmali"], "-"),
				HowToDo:         Text(s["nasil_yapmali"], "-"),
				Duration:        Text(s["sure"], "-"),
				ExpectedOutcome: Text(s["ongoru"], "-"),
			}
		}),
	}
}

func savedAt(v any) int64 {
	n, ok := number(v)
	if !ok || n <= 0 {
		return 0
	}
	return int64(n)
}
