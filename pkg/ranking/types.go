// Package ranking implements the village risk ranking engine.
// It turns the current open health cases and water source readings into a
// leaderboard of villages ordered by a composite risk score.
package ranking

import (
	"fmt"
	"strings"
	"time"
)

// CaseStatus is the lifecycle state of a health case.
type CaseStatus string

const (
	CasePending    CaseStatus = "pending"
	CaseInProgress CaseStatus = "in-progress"
	CaseResolved   CaseStatus = "resolved"
)

// Open reports whether the case still counts toward its village's risk.
func (s CaseStatus) Open() bool { return s != CaseResolved }

// Valid reports whether s is one of the known case states.
func (s CaseStatus) Valid() bool {
	switch s {
	case CasePending, CaseInProgress, CaseResolved:
		return true
	}
	return false
}

// ParseCaseStatus normalizes and validates a textual case status.
func ParseCaseStatus(s string) (CaseStatus, error) {
	status := CaseStatus(strings.ToLower(strings.TrimSpace(s)))
	if !status.Valid() {
		return "", fmt.Errorf("unknown case status %q", s)
	}
	return status, nil
}

// SourceStatus is the safety classification of a water source.
type SourceStatus string

const (
	SourceSafe    SourceStatus = "safe"
	SourceWarning SourceStatus = "warning"
)

// Valid reports whether s is one of the known source states.
func (s SourceStatus) Valid() bool {
	return s == SourceSafe || s == SourceWarning
}

// ParseSourceStatus normalizes and validates a textual source status.
func ParseSourceStatus(s string) (SourceStatus, error) {
	status := SourceStatus(strings.ToLower(strings.TrimSpace(s)))
	if !status.Valid() {
		return "", fmt.Errorf("unknown water source status %q", s)
	}
	return status, nil
}

// Gender is the optional patient gender recorded with a case.
type Gender string

const (
	GenderMale   Gender = "male"
	GenderFemale Gender = "female"
	GenderOther  Gender = "other"
)

// Valid reports whether g is empty or one of the known values.
func (g Gender) Valid() bool {
	switch g {
	case "", GenderMale, GenderFemale, GenderOther:
		return true
	}
	return false
}

// ParseGender normalizes a textual gender. The empty string means not
// recorded.
func ParseGender(s string) (Gender, error) {
	g := Gender(strings.ToLower(strings.TrimSpace(s)))
	if !g.Valid() {
		return "", fmt.Errorf("unknown gender %q", s)
	}
	return g, nil
}

// Case is a recorded health incident. Age and Gender are optional patient
// details; zero values mean not recorded.
type Case struct {
	ID          string     `json:"id" yaml:"id"`
	PatientName string     `json:"patientName" yaml:"patient_name"`
	Age         int        `json:"age,omitempty" yaml:"age,omitempty"`
	Gender      Gender     `json:"gender,omitempty" yaml:"gender,omitempty"`
	Issue       string     `json:"issue" yaml:"issue"`
	WorkerID    string     `json:"workerId,omitempty" yaml:"worker_id,omitempty"`
	Status      CaseStatus `json:"status" yaml:"status"`
	Date        string     `json:"date" yaml:"date"`
	Village     string     `json:"village" yaml:"village"`
}

// WaterSource is a monitored water point.
type WaterSource struct {
	ID         string       `json:"id" yaml:"id"`
	Name       string       `json:"name" yaml:"name"`
	Status     SourceStatus `json:"status" yaml:"status"`
	LastTested string       `json:"lastTested" yaml:"last_tested"`
	Location   string       `json:"location" yaml:"location"`
	Village    string       `json:"village" yaml:"village"`
}

// VillageScore is the risk aggregate for one village. It exists only for the
// duration of a ranking pass.
type VillageScore struct {
	Village     string `json:"village"`
	Score       int    `json:"score"`
	Patients    int    `json:"patients"`
	WaterIssues int    `json:"waterIssues"`
}

// RankedVillage is a VillageScore with its 1-based leaderboard position.
type RankedVillage struct {
	Rank int `json:"rank"`
	VillageScore
}

// Board is a leaderboard computed from one version of the input collections.
type Board struct {
	GeneratedAt time.Time       `json:"generatedAt"`
	Version     uint64          `json:"version"`
	Entries     []RankedVillage `json:"entries"`
}

// NewBoard numbers an already ranked slice of scores.
func NewBoard(version uint64, at time.Time, scores []VillageScore) *Board {
	entries := make([]RankedVillage, len(scores))
	for i, s := range scores {
		entries[i] = RankedVillage{Rank: i + 1, VillageScore: s}
	}
	return &Board{GeneratedAt: at.UTC(), Version: version, Entries: entries}
}

// Top returns a copy of the board truncated to at most n entries.
// A non-positive n returns the full board.
func (b *Board) Top(n int) *Board {
	out := *b
	if n > 0 && n < len(b.Entries) {
		out.Entries = b.Entries[:n:n]
	}
	return &out
}
