package models

import "time"

// ChatCount is a message count grouped by chat title
type ChatCount struct {
	ChatTitle string `json:"chatTitle"`
	Count     int64  `json:"count"`
}

// DailyCount is a message count for one calendar day (YYYY-MM-DD)
type DailyCount struct {
	Date  string `json:"date"`
	Count int64  `json:"count"`
}

// HourlyCount is a message count for one hour of one calendar day
type HourlyCount struct {
	Date  string `json:"date"`
	Hour  int    `json:"hour"`
	Count int64  `json:"count"`
}

// SenderCount is a message count grouped by sender display name
type SenderCount struct {
	SenderName string `json:"senderName"`
	Count      int64  `json:"count"`
}

// SearchResult is one match returned by message search
type SearchResult struct {
	ChatTitle  string    `json:"chatTitle"`
	SenderName string    `json:"senderName"`
	Text       string    `json:"text"`
	Date       time.Time `json:"date"`
}

// DashboardStats is the combined payload served by the stats endpoint.
// Each part comes from an independent query.
type DashboardStats struct {
	TodayMessageCount  int64        `json:"todayMessageCount"`
	SevenDayGroupStats []ChatCount  `json:"sevenDayGroupStats"`
	SevenDayTotalStats []DailyCount `json:"sevenDayTotalStats"`
	SevenDayTopTalker  *SenderCount `json:"sevenDayTopTalker"`
}

// ActivityStats is the payload of the activity endpoint
type ActivityStats struct {
	TodayGroupStats []ChatCount   `json:"todayGroupStats"`
	TopTalkers      []SenderCount `json:"topTalkers"`
	HourlyActivity  []HourlyCount `json:"hourlyActivity"`
}
