package api

import (
	"github.com/techleadershub/gita-counsellor/internal/verses"
)

type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
}

type VersesResponse struct {
	Verses []verses.Verse `json:"verses"`
	Count  int            `json:"count"`
}

type StatsResponse struct {
	TotalVerses  int `json:"total_verses"`
	Chapters     int `json:"chapters"`
	VectorPoints int `json:"vector_points"`
}

type IngestRequest struct {
	VersesPath string `json:"verses_path,omitempty" description:"Path to a verses JSON export; server default when omitted"`
}

type IngestResponse struct {
	Message string `json:"message"`
}

type BlockedResponse struct {
	Error    string `json:"error"`
	Category string `json:"category"`
	Reason   string `json:"reason"`
}
