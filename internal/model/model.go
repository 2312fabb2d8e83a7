package model

// Status is the qualitative performance tier of a topic.
type Status string

const (
	// StatusExcellent is assigned at 80% success and above.
	StatusExcellent Status = "Mükemmel"
	// StatusGood covers [70, 80).
	StatusGood Status = "İyi"
	// StatusNeedsWork covers [50, 70).
	StatusNeedsWork Status = "Geliştirilmeli"
	// StatusCritical is anything below 50%.
	StatusCritical Status = "Kritik"
)

var validStatuses = map[Status]bool{
	StatusExcellent: true,
	StatusGood:      true,
	StatusNeedsWork: true,
	StatusCritical:  true,
}

// IsValid reports whether s is one of the four allowed tiers.
func (s Status) IsValid() bool {
	return validStatuses[s]
}

// Priority is the study-plan urgency: 1 (highest) to 3.
type Priority int

const (
	PriorityHigh   Priority = 1
	PriorityMedium Priority = 2
	PriorityLow    Priority = 3
)

// StudentInfo identifies the student on the uploaded report card.
type StudentInfo struct {
	Name       string `json:"ad_soyad"`
	Section    string `json:"sube"`
	RollNumber string `json:"numara"`
}

// ExecutiveSummary is the narrative part of an analysis.
type ExecutiveSummary struct {
	Narrative           string   `json:"mevcut_durum"`
	Strengths           []string `json:"guclu_yonler"`
	Weaknesses          []string `json:"zayif_yonler"`
	EstimatedPercentile float64  `json:"lgs_tahmini_yuzdelik"`
}

// SubjectNet is the net score (correct - wrong/3) for one subject.
type SubjectNet struct {
	Subject string  `json:"ders"`
	Net     float64 `json:"net"`
}

// ExamRecord is one historical exam sitting.
type ExamRecord struct {
	ExamName          string       `json:"sinav_adi"`
	Publisher         string       `json:"yayin_evi"`
	Date              string       `json:"tarih"`
	TotalScore        float64      `json:"toplam_puan"`
	OverallPercentile float64      `json:"genel_yuzdelik"`
	SubjectNets       []SubjectNet `json:"ders_netleri"`
}

// TopicRecord is one row of the subject/topic performance breakdown.
type TopicRecord struct {
	Subject           string  `json:"ders"`
	Topic             string  `json:"konu"`
	Correct           float64 `json:"dogru"`
	Wrong             float64 `json:"yanlis"`
	Blank             float64 `json:"bos"`
	SuccessPercentage float64 `json:"basari_yuzdesi"`
	LostPoints        float64 `json:"lgs_kayip_puan"`
	Status            Status  `json:"durum"`
}

// ActionPlanItem is one study-plan entry.
type ActionPlanItem struct {
	Topic      string   `json:"konu"`
	Subject    string   `json:"ders"`
	Reason     string   `json:"sebep"`
	Advice     string   `json:"tavsiye"`
	Priority   Priority `json:"oncelik"`
	Importance float64  `json:"onem_derecesi"`
	TaskMethod string   `json:"gorev_tipi"`
}

// SimulationStep is one step of the improvement simulation.
type SimulationStep struct {
	Title           string `json:"baslik"`
	WhatToDo        string `json:"ne_yapmali"`
	HowToDo         string `json:"nasil_yapmali"`
	Duration        string `json:"sure"`
	ExpectedOutcome string `json:"ongoru"`
}

// Simulation is the "what-if" improvement scenario.
type Simulation struct {
	Scenario         string           `json:"senaryo"`
	TargetPercentile float64          `json:"hedef_yuzdelik"`
	TargetScore      float64          `json:"hedef_puan"`
	ScoreRange       string           `json:"puan_araligi"`
	RequiredNetGain  string           `json:"gerekli_net_artisi"`
	Steps            []SimulationStep `json:"gelisim_adimlari"`
}

// AnalysisResult is the root aggregate produced for one upload.
// SavedAt is a Unix timestamp in milliseconds; zero means unset.
type AnalysisResult struct {
	ID               string           `json:"id,omitempty"`
	SavedAt          int64            `json:"savedAt,omitempty"`
	StudentInfo      StudentInfo      `json:"ogrenci_bilgi"`
	ExecutiveSummary ExecutiveSummary `json:"executive_summary"`
	ExamHistory      []ExamRecord     `json:"exams_history"`
	TopicAnalysis    []TopicRecord    `json:"konu_analizi"`
	ActionPlan       []ActionPlanItem `json:"calisma_plani"`
	Simulation       Simulation       `json:"simulasyon"`
}

// TrendPoint is one point of the progress-over-time chart.
type TrendPoint struct {
	AnalysisID string  `json:"id"`
	SavedAt    int64   `json:"savedAt"`
	ExamName   string  `json:"name"`
	Score      float64 `json:"score"`
}

// ChatRole is the speaker of a coach chat message.
type ChatRole string

const (
	ChatRoleUser  ChatRole = "user"
	ChatRoleModel ChatRole = "model"
)

// ChatMessage is one turn of the coach conversation.
type ChatMessage struct {
	Role ChatRole `json:"role"`
	Text string   `json:"text"`
}

// Theme is the persisted dashboard colour scheme.
type Theme string

const (
	ThemeLight Theme = "light"
	ThemeDark  Theme = "dark"
)

// HostConfig holds runtime parameters of the local dashboard host set via CLI flags.
type HostConfig struct {
	Lang      string // UI language (tr, en)
	MaxUpload int64  // bytes accepted per upload request
}
