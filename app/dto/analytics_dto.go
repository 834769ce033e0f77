package dto

import "time"

// AnalyticsRequest bounds the dashboard aggregation window
type AnalyticsRequest struct {
	StartDate *time.Time `json:"start_date,omitempty"`
	EndDate   *time.Time `json:"end_date,omitempty"`
}

// CountBucket is one labeled count in a chart series
type CountBucket struct {
	Label string `json:"label"`
	Count int64  `json:"count"`
}

// DashboardResponse returns chart-ready aggregate series
type DashboardResponse struct {
	Message              string        `json:"message"`
	TotalTickets         int64         `json:"total_tickets"`
	OpenTickets          int64         `json:"open_tickets"`
	ClosedTickets        int64         `json:"closed_tickets"`
	ByStatus             []CountBucket `json:"by_status"`
	ByIssueType          []CountBucket `json:"by_issue_type"`
	ByDay                []CountBucket `json:"by_day"`
	AvgResolutionHours   *float64      `json:"avg_resolution_hours,omitempty"`
	AvgSupportScore      *float64      `json:"avg_support_score,omitempty"`
	AvgProductScore      *float64      `json:"avg_product_score,omitempty"`
	SurveysSent          int64         `json:"surveys_sent"`
	SurveysSubmitted     int64         `json:"surveys_submitted"`
}
