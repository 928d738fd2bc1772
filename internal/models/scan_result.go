package models

import "time"

// ScanResult is Scout's quickScanFromYellowstone output, published on
// discovery.new always and on agent.analyst-*.investigate when
// suspicious or high-scoring (spec §4.5).
type ScanResult struct {
	Token      string
	Features   FeatureVector
	Score      float64
	Flags      []string
	Suspicious bool
	Slot       uint64
	Timestamp  time.Time
}

func (ScanResult) PayloadType() string { return "discovery.new" }
