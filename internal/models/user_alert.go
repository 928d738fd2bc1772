package models

import "time"

// AlertSeverity grades a user-facing alert (spec §7 "user-visible
// failures: surfaced via user.alert with severity info | warning |
// critical").
type AlertSeverity string

const (
	AlertInfo     AlertSeverity = "info"
	AlertWarning  AlertSeverity = "warning"
	AlertCritical AlertSeverity = "critical"
)

// UserAlert is the payload carried on the user.alert topic.
type UserAlert struct {
	Severity  AlertSeverity
	Source    string
	Message   string
	Timestamp time.Time
}

func (UserAlert) PayloadType() string { return "user.alert" }
