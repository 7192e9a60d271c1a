package model

import "time"

// VisitorStats is the singleton visitor counter row.
type VisitorStats struct {
	TotalVisitors  int64     `json:"totalVisitors"`
	UniqueVisitors int64     `json:"uniqueVisitors"`
	LastUpdated    time.Time `json:"lastUpdated"`
}

// VisitResult is returned by a tracked visit.
type VisitResult struct {
	IsNewVisitor   bool  `json:"isNewVisitor"`
	TotalVisitors  int64 `json:"totalVisitors"`
	UniqueVisitors int64 `json:"uniqueVisitors"`
}

// VisitorLog records when a visitor token was first and last seen.
type VisitorLog struct {
	ID         string    `json:"id"`
	VisitorID  string    `json:"visitorId"`
	FirstVisit time.Time `json:"firstVisit"`
	LastVisit  time.Time `json:"lastVisit"`
}
