package businessflow

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"

	"github.com/merchantops/support-console/app/dto"
	"github.com/merchantops/support-console/models"
)

// AnalyticsFlow aggregates ticket and survey data into dashboard series
type AnalyticsFlow interface {
	Dashboard(ctx context.Context, req *dto.AnalyticsRequest, actor *Actor, metadata *ClientMetadata) (*dto.DashboardResponse, error)
	Export(ctx context.Context, req *dto.AnalyticsRequest, actor *Actor, metadata *ClientMetadata) (string, []byte, error)
}

// AnalyticsFlowImpl implements AnalyticsFlow
type AnalyticsFlowImpl struct {
	db *gorm.DB
}

func NewAnalyticsFlow(db *gorm.DB) AnalyticsFlow {
	return &AnalyticsFlowImpl{db: db}
}

func (f *AnalyticsFlowImpl) window(query *gorm.DB, req *dto.AnalyticsRequest, column string) *gorm.DB {
	if req.StartDate != nil {
		query = query.Where(column+" >= ?", *req.StartDate)
	}
	if req.EndDate != nil {
		query = query.Where(column+" <= ?", *req.EndDate)
	}
	return query
}

func (f *AnalyticsFlowImpl) Dashboard(ctx context.Context, req *dto.AnalyticsRequest, actor *Actor, metadata *ClientMetadata) (*dto.DashboardResponse, error) {
	if err := validateDateRange(req.StartDate, req.EndDate); err != nil {
		return nil, err
	}

	result := &dto.DashboardResponse{Message: "Dashboard retrieved successfully"}

	base := func() *gorm.DB {
		return f.window(f.db.WithContext(ctx).Model(&models.SupportRequest{}), req, "created_at")
	}

	if err := base().Count(&result.TotalTickets).Error; err != nil {
		return nil, NewBusinessError("STORAGE_FAILED", "failed to count tickets", err)
	}
	closedStatuses := []models.TicketStatus{models.TicketStatusResolved, models.TicketStatusClosed}
	if err := base().Where("status IN ?", closedStatuses).Count(&result.ClosedTickets).Error; err != nil {
		return nil, NewBusinessError("STORAGE_FAILED", "failed to count closed tickets", err)
	}
	result.OpenTickets = result.TotalTickets - result.ClosedTickets

	var byStatus []bucketRow
	if err := base().Select("status AS label, COUNT(*) AS count").Group("status").Order("count DESC").Scan(&byStatus).Error; err != nil {
		return nil, NewBusinessError("STORAGE_FAILED", "failed to aggregate by status", err)
	}
	result.ByStatus = toBuckets(byStatus)

	var byType []bucketRow
	if err := base().Select("COALESCE(issue_type, 'Uncategorized') AS label, COUNT(*) AS count").
		Group("COALESCE(issue_type, 'Uncategorized')").Order("count DESC").Scan(&byType).Error; err != nil {
		return nil, NewBusinessError("STORAGE_FAILED", "failed to aggregate by issue type", err)
	}
	result.ByIssueType = toBuckets(byType)

	var byDay []bucketRow
	if err := base().Select("TO_CHAR(created_at, 'YYYY-MM-DD') AS label, COUNT(*) AS count").
		Group("TO_CHAR(created_at, 'YYYY-MM-DD')").Order("label ASC").Scan(&byDay).Error; err != nil {
		return nil, NewBusinessError("STORAGE_FAILED", "failed to aggregate by day", err)
	}
	result.ByDay = toBuckets(byDay)

	var resolution struct {
		AvgHours *float64
	}
	if err := base().Where("closed_at IS NOT NULL").
		Select("AVG(EXTRACT(EPOCH FROM (closed_at - created_at)) / 3600) AS avg_hours").
		Scan(&resolution).Error; err != nil {
		return nil, NewBusinessError("STORAGE_FAILED", "failed to compute resolution time", err)
	}
	result.AvgResolutionHours = resolution.AvgHours

	surveyQuery := f.window(f.db.WithContext(ctx).Model(&models.CSATResponse{}), req, "submitted_at")
	var scores struct {
		AvgSupport *float64
		AvgProduct *float64
		Submitted  int64
	}
	if err := surveyQuery.
		Select("AVG(support_score) AS avg_support, AVG(product_score) AS avg_product, COUNT(*) AS submitted").
		Scan(&scores).Error; err != nil {
		return nil, NewBusinessError("STORAGE_FAILED", "failed to aggregate survey scores", err)
	}
	result.AvgSupportScore = scores.AvgSupport
	result.AvgProductScore = scores.AvgProduct
	result.SurveysSubmitted = scores.Submitted

	tokenQuery := f.window(f.db.WithContext(ctx).Model(&models.CSATToken{}), req, "created_at")
	if err := tokenQuery.Count(&result.SurveysSent).Error; err != nil {
		return nil, NewBusinessError("STORAGE_FAILED", "failed to count issued surveys", err)
	}

	return result, nil
}

// Export renders the dashboard aggregates as a workbook, one sheet per
// section
func (f *AnalyticsFlowImpl) Export(ctx context.Context, req *dto.AnalyticsRequest, actor *Actor, metadata *ClientMetadata) (string, []byte, error) {
	dashboard, err := f.Dashboard(ctx, req, actor, metadata)
	if err != nil {
		return "", nil, err
	}

	xl := excelize.NewFile()
	defer func() { _ = xl.Close() }()

	writeBuckets := func(sheet string, buckets []dto.CountBucket, labelHeader string) {
		header := []string{labelHeader, "count"}
		_ = xl.SetSheetRow(sheet, "A1", &header)
		for i, b := range buckets {
			cellRef, _ := excelize.CoordinatesToCellName(1, i+2)
			record := []any{b.Label, b.Count}
			_ = xl.SetSheetRow(sheet, cellRef, &record)
		}
	}

	summary := sanitizeSheetName("Summary")
	xl.SetSheetName(xl.GetSheetName(0), summary)
	summaryRows := [][]any{
		{"metric", "value"},
		{"total_tickets", dashboard.TotalTickets},
		{"open_tickets", dashboard.OpenTickets},
		{"closed_tickets", dashboard.ClosedTickets},
		{"surveys_sent", dashboard.SurveysSent},
		{"surveys_submitted", dashboard.SurveysSubmitted},
	}
	if dashboard.AvgResolutionHours != nil {
		summaryRows = append(summaryRows, []any{"avg_resolution_hours", *dashboard.AvgResolutionHours})
	}
	if dashboard.AvgSupportScore != nil {
		summaryRows = append(summaryRows, []any{"avg_support_score", *dashboard.AvgSupportScore})
	}
	if dashboard.AvgProductScore != nil {
		summaryRows = append(summaryRows, []any{"avg_product_score", *dashboard.AvgProductScore})
	}
	for i := range summaryRows {
		cellRef, _ := excelize.CoordinatesToCellName(1, i+1)
		_ = xl.SetSheetRow(summary, cellRef, &summaryRows[i])
	}

	sections := []struct {
		name    string
		buckets []dto.CountBucket
		label   string
	}{
		{"By Status", dashboard.ByStatus, "status"},
		{"By Issue Type", dashboard.ByIssueType, "issue_type"},
		{"By Day", dashboard.ByDay, "day"},
	}
	for _, s := range sections {
		name := sanitizeSheetName(s.name)
		_, _ = xl.NewSheet(name)
		writeBuckets(name, s.buckets, s.label)
	}

	buf, err := xl.WriteToBuffer()
	if err != nil {
		return "", nil, NewBusinessError("EXCEL_WRITE_ERROR", "failed to write export file", err)
	}
	filename := fmt.Sprintf("support_analytics_%s.xlsx", time.Now().UTC().Format("2006-01-02"))
	return filename, buf.Bytes(), nil
}

type bucketRow struct {
	Label string
	Count int64
}

func toBuckets(rows []bucketRow) []dto.CountBucket {
	buckets := make([]dto.CountBucket, 0, len(rows))
	for _, r := range rows {
		buckets = append(buckets, dto.CountBucket{Label: r.Label, Count: r.Count})
	}
	return buckets
}

// Excel sheet names cannot contain : \ / ? * [ ] and must be <= 31 chars
func sanitizeSheetName(name string) string {
	replacer := strings.NewReplacer(":", "_", "\\", "_", "/", "_", "?", "_", "*", "_", "[", "_", "]", "_")
	safe := strings.TrimSpace(replacer.Replace(name))
	if len(safe) > 31 {
		safe = safe[:31]
	}
	if safe == "" {
		safe = "Sheet"
	}
	return safe
}
