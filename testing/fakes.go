// Package testing provides in-memory repository fakes and fixtures for
// exercising the business flows without a database.
package testing

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/lib/pq"

	"github.com/merchantops/support-console/models"
)

// FakeSupportRequestRepo is an in-memory SupportRequestRepository
type FakeSupportRequestRepo struct {
	mu     sync.Mutex
	rows   map[uint]*models.SupportRequest
	nextID uint
}

func NewFakeSupportRequestRepo() *FakeSupportRequestRepo {
	return &FakeSupportRequestRepo{rows: make(map[uint]*models.SupportRequest)}
}

func (r *FakeSupportRequestRepo) ByID(ctx context.Context, id uint) (*models.SupportRequest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	row, ok := r.rows[id]
	if !ok {
		return nil, nil
	}
	copied := *row
	return &copied, nil
}

func (r *FakeSupportRequestRepo) ByFilter(ctx context.Context, filter models.SupportRequestFilter, orderBy string, limit, offset int) ([]*models.SupportRequest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	matched := make([]*models.SupportRequest, 0)
	for _, row := range r.rows {
		if matchTicketFilter(row, filter) {
			copied := *row
			matched = append(matched, &copied)
		}
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].ID > matched[j].ID })
	return paginate(matched, limit, offset), nil
}

func (r *FakeSupportRequestRepo) Save(ctx context.Context, entity *models.SupportRequest) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := time.Now().UTC()
	if entity.ID == 0 {
		r.nextID++
		entity.ID = r.nextID
		entity.CreatedAt = now
	}
	entity.UpdatedAt = now
	copied := *entity
	r.rows[entity.ID] = &copied
	return nil
}

func (r *FakeSupportRequestRepo) SaveBatch(ctx context.Context, entities []*models.SupportRequest) error {
	for _, e := range entities {
		if err := r.Save(ctx, e); err != nil {
			return err
		}
	}
	return nil
}

func (r *FakeSupportRequestRepo) Count(ctx context.Context, filter models.SupportRequestFilter) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var count int64
	for _, row := range r.rows {
		if matchTicketFilter(row, filter) {
			count++
		}
	}
	return count, nil
}

func (r *FakeSupportRequestRepo) Exists(ctx context.Context, filter models.SupportRequestFilter) (bool, error) {
	count, err := r.Count(ctx, filter)
	return count > 0, err
}

func (r *FakeSupportRequestRepo) UpdateFields(ctx context.Context, id uint, updates map[string]any) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	row, ok := r.rows[id]
	if !ok {
		return false, nil
	}
	for column, value := range updates {
		applyTicketColumn(row, column, value)
	}
	return true, nil
}

func (r *FakeSupportRequestRepo) ListWithClickupTask(ctx context.Context, afterID uint, limit int) ([]*models.SupportRequest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	matched := make([]*models.SupportRequest, 0)
	for _, row := range r.rows {
		if row.ID > afterID && row.ClickupTaskID != nil && *row.ClickupTaskID != "" {
			copied := *row
			matched = append(matched, &copied)
		}
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].ID < matched[j].ID })
	return paginate(matched, limit, 0), nil
}

func applyTicketColumn(row *models.SupportRequest, column string, value any) {
	switch column {
	case "status":
		if s, ok := value.(models.TicketStatus); ok {
			row.Status = s
		}
	case "hidden":
		row.Hidden, _ = value.(*bool)
	case "merchant_name":
		row.MerchantName, _ = value.(*string)
	case "phone_number":
		row.PhoneNumber, _ = value.(*string)
	case "email":
		row.Email, _ = value.(*string)
	case "fid":
		row.FID, _ = value.(*string)
	case "oid":
		row.OID, _ = value.(*string)
	case "franchise_name_resolved":
		row.FranchiseNameResolved, _ = value.(*string)
	case "outlet_name_resolved":
		row.OutletNameResolved, _ = value.(*string)
	case "issue_type":
		row.IssueType, _ = value.(*string)
	case "issue_subcategory1":
		row.IssueSubcategory1, _ = value.(*string)
	case "issue_subcategory2":
		row.IssueSubcategory2, _ = value.(*string)
	case "issue_description":
		row.IssueDescription, _ = value.(*string)
	case "ticket_description":
		row.TicketDescription, _ = value.(*string)
	case "ms_pic_user_id":
		row.MSPICUserID, _ = value.(*uint)
	case "clickup_task_id":
		row.ClickupTaskID, _ = value.(*string)
	case "clickup_link":
		row.ClickupLink, _ = value.(*string)
	case "clickup_task_status":
		row.ClickupTaskStatus, _ = value.(*string)
	case "clickup_task_status_synced_at":
		if t, ok := value.(time.Time); ok {
			row.ClickupTaskStatusSyncedAt = &t
		}
	case "updated_by":
		if s, ok := value.(string); ok {
			row.UpdatedBy = &s
		}
	case "updated_at":
		if t, ok := value.(time.Time); ok {
			row.UpdatedAt = t
		}
	case "closed_at":
		if value == nil {
			row.ClosedAt = nil
		} else if t, ok := value.(time.Time); ok {
			row.ClosedAt = &t
		}
	}
}

func matchTicketFilter(row *models.SupportRequest, f models.SupportRequestFilter) bool {
	if f.ID != nil && row.ID != *f.ID {
		return false
	}
	if f.Channel != nil && row.Channel != *f.Channel {
		return false
	}
	if f.Status != nil && row.Status != *f.Status {
		return false
	}
	if f.Hidden != nil {
		hidden := row.Hidden != nil && *row.Hidden
		if hidden != *f.Hidden {
			return false
		}
	}
	if f.PhoneNumber != nil && !ptrEqual(row.PhoneNumber, f.PhoneNumber) {
		return false
	}
	if f.FID != nil && !ptrEqual(row.FID, f.FID) {
		return false
	}
	if f.OID != nil && !ptrEqual(row.OID, f.OID) {
		return false
	}
	if f.IssueType != nil && !ptrEqual(row.IssueType, f.IssueType) {
		return false
	}
	if f.MSPICUserID != nil && (row.MSPICUserID == nil || *row.MSPICUserID != *f.MSPICUserID) {
		return false
	}
	if f.HasClickup != nil {
		linked := row.ClickupTaskID != nil && *row.ClickupTaskID != ""
		if linked != *f.HasClickup {
			return false
		}
	}
	if f.CreatedAfter != nil && row.CreatedAt.Before(*f.CreatedAfter) {
		return false
	}
	if f.CreatedBefore != nil && row.CreatedAt.After(*f.CreatedBefore) {
		return false
	}
	return true
}

// FakeHistoryRepo is an in-memory SupportRequestHistoryRepository
type FakeHistoryRepo struct {
	mu     sync.Mutex
	rows   []*models.SupportRequestHistory
	nextID uint
}

func NewFakeHistoryRepo() *FakeHistoryRepo {
	return &FakeHistoryRepo{}
}

func (r *FakeHistoryRepo) ByID(ctx context.Context, id uint) (*models.SupportRequestHistory, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, row := range r.rows {
		if row.ID == id {
			copied := *row
			return &copied, nil
		}
	}
	return nil, nil
}

func (r *FakeHistoryRepo) ByFilter(ctx context.Context, filter models.SupportRequestHistoryFilter, orderBy string, limit, offset int) ([]*models.SupportRequestHistory, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	matched := make([]*models.SupportRequestHistory, 0)
	for _, row := range r.rows {
		if filter.RequestID != nil && row.RequestID != *filter.RequestID {
			continue
		}
		if filter.FieldName != nil && row.FieldName != *filter.FieldName {
			continue
		}
		copied := *row
		matched = append(matched, &copied)
	}
	return paginate(matched, limit, offset), nil
}

func (r *FakeHistoryRepo) Save(ctx context.Context, entity *models.SupportRequestHistory) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	entity.ID = r.nextID
	copied := *entity
	r.rows = append(r.rows, &copied)
	return nil
}

func (r *FakeHistoryRepo) SaveBatch(ctx context.Context, entities []*models.SupportRequestHistory) error {
	for _, e := range entities {
		if err := r.Save(ctx, e); err != nil {
			return err
		}
	}
	return nil
}

func (r *FakeHistoryRepo) Count(ctx context.Context, filter models.SupportRequestHistoryFilter) (int64, error) {
	rows, err := r.ByFilter(ctx, filter, "", 0, 0)
	return int64(len(rows)), err
}

func (r *FakeHistoryRepo) Exists(ctx context.Context, filter models.SupportRequestHistoryFilter) (bool, error) {
	count, err := r.Count(ctx, filter)
	return count > 0, err
}

func (r *FakeHistoryRepo) ListByRequest(ctx context.Context, requestID uint) ([]*models.SupportRequestHistory, error) {
	return r.ByFilter(ctx, models.SupportRequestHistoryFilter{RequestID: &requestID}, "", 0, 0)
}

func (r *FakeHistoryRepo) HasFieldEntry(ctx context.Context, requestID uint, fieldName string) (bool, error) {
	return r.Exists(ctx, models.SupportRequestHistoryFilter{RequestID: &requestID, FieldName: &fieldName})
}

// RowsFor returns all history rows of one request, in insertion order
func (r *FakeHistoryRepo) RowsFor(requestID uint) []*models.SupportRequestHistory {
	rows, _ := r.ListByRequest(context.Background(), requestID)
	return rows
}

// FakeCSATTokenRepo is an in-memory CSATTokenRepository
type FakeCSATTokenRepo struct {
	mu     sync.Mutex
	rows   map[uint]*models.CSATToken
	nextID uint
}

func NewFakeCSATTokenRepo() *FakeCSATTokenRepo {
	return &FakeCSATTokenRepo{rows: make(map[uint]*models.CSATToken)}
}

func (r *FakeCSATTokenRepo) ByID(ctx context.Context, id uint) (*models.CSATToken, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	row, ok := r.rows[id]
	if !ok {
		return nil, nil
	}
	copied := *row
	return &copied, nil
}

func (r *FakeCSATTokenRepo) ByFilter(ctx context.Context, filter models.CSATTokenFilter, orderBy string, limit, offset int) ([]*models.CSATToken, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	matched := make([]*models.CSATToken, 0)
	for _, row := range r.rows {
		if filter.RequestID != nil && row.RequestID != *filter.RequestID {
			continue
		}
		if filter.Token != nil && row.Token != *filter.Token {
			continue
		}
		if filter.Unused != nil && (row.UsedAt == nil) != *filter.Unused {
			continue
		}
		copied := *row
		matched = append(matched, &copied)
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].ID > matched[j].ID })
	return paginate(matched, limit, offset), nil
}

func (r *FakeCSATTokenRepo) Save(ctx context.Context, entity *models.CSATToken) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if entity.ID == 0 {
		r.nextID++
		entity.ID = r.nextID
	}
	copied := *entity
	r.rows[entity.ID] = &copied
	return nil
}

func (r *FakeCSATTokenRepo) SaveBatch(ctx context.Context, entities []*models.CSATToken) error {
	for _, e := range entities {
		if err := r.Save(ctx, e); err != nil {
			return err
		}
	}
	return nil
}

func (r *FakeCSATTokenRepo) Count(ctx context.Context, filter models.CSATTokenFilter) (int64, error) {
	rows, err := r.ByFilter(ctx, filter, "", 0, 0)
	return int64(len(rows)), err
}

func (r *FakeCSATTokenRepo) Exists(ctx context.Context, filter models.CSATTokenFilter) (bool, error) {
	count, err := r.Count(ctx, filter)
	return count > 0, err
}

func (r *FakeCSATTokenRepo) ByToken(ctx context.Context, token string) (*models.CSATToken, error) {
	rows, err := r.ByFilter(ctx, models.CSATTokenFilter{Token: &token}, "", 0, 0)
	if err != nil || len(rows) == 0 {
		return nil, err
	}
	return rows[0], nil
}

func (r *FakeCSATTokenRepo) LatestByRequest(ctx context.Context, requestID uint) (*models.CSATToken, error) {
	rows, err := r.ByFilter(ctx, models.CSATTokenFilter{RequestID: &requestID}, "id DESC", 0, 0)
	if err != nil || len(rows) == 0 {
		return nil, err
	}
	return rows[0], nil
}

func (r *FakeCSATTokenRepo) InvalidateUnused(ctx context.Context, requestID uint, usedAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, row := range r.rows {
		if row.RequestID == requestID && row.UsedAt == nil {
			stamped := usedAt
			row.UsedAt = &stamped
		}
	}
	return nil
}

func (r *FakeCSATTokenRepo) MarkUsed(ctx context.Context, tokenID uint, usedAt time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	row, ok := r.rows[tokenID]
	if !ok || row.UsedAt != nil {
		return false, nil
	}
	stamped := usedAt
	row.UsedAt = &stamped
	return true, nil
}

// FakeCSATResponseRepo is an in-memory CSATResponseRepository
type FakeCSATResponseRepo struct {
	mu     sync.Mutex
	rows   []*models.CSATResponse
	nextID uint
}

func NewFakeCSATResponseRepo() *FakeCSATResponseRepo {
	return &FakeCSATResponseRepo{}
}

func (r *FakeCSATResponseRepo) ByID(ctx context.Context, id uint) (*models.CSATResponse, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, row := range r.rows {
		if row.ID == id {
			copied := *row
			return &copied, nil
		}
	}
	return nil, nil
}

func (r *FakeCSATResponseRepo) ByFilter(ctx context.Context, filter models.CSATResponseFilter, orderBy string, limit, offset int) ([]*models.CSATResponse, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	matched := make([]*models.CSATResponse, 0)
	for _, row := range r.rows {
		if filter.RequestID != nil && row.RequestID != *filter.RequestID {
			continue
		}
		if filter.TokenID != nil && row.TokenID != *filter.TokenID {
			continue
		}
		copied := *row
		matched = append(matched, &copied)
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].ID > matched[j].ID })
	return paginate(matched, limit, offset), nil
}

func (r *FakeCSATResponseRepo) Save(ctx context.Context, entity *models.CSATResponse) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	entity.ID = r.nextID
	copied := *entity
	r.rows = append(r.rows, &copied)
	return nil
}

func (r *FakeCSATResponseRepo) SaveBatch(ctx context.Context, entities []*models.CSATResponse) error {
	for _, e := range entities {
		if err := r.Save(ctx, e); err != nil {
			return err
		}
	}
	return nil
}

func (r *FakeCSATResponseRepo) Count(ctx context.Context, filter models.CSATResponseFilter) (int64, error) {
	rows, err := r.ByFilter(ctx, filter, "", 0, 0)
	return int64(len(rows)), err
}

func (r *FakeCSATResponseRepo) Exists(ctx context.Context, filter models.CSATResponseFilter) (bool, error) {
	count, err := r.Count(ctx, filter)
	return count > 0, err
}

func (r *FakeCSATResponseRepo) ByTokenID(ctx context.Context, tokenID uint) (*models.CSATResponse, error) {
	rows, err := r.ByFilter(ctx, models.CSATResponseFilter{TokenID: &tokenID}, "", 0, 0)
	if err != nil || len(rows) == 0 {
		return nil, err
	}
	return rows[0], nil
}

func (r *FakeCSATResponseRepo) LatestByRequest(ctx context.Context, requestID uint) (*models.CSATResponse, error) {
	rows, err := r.ByFilter(ctx, models.CSATResponseFilter{RequestID: &requestID}, "", 0, 0)
	if err != nil || len(rows) == 0 {
		return nil, err
	}
	return rows[0], nil
}

// FakeTaskRequestRepo is an in-memory ClickupTaskRequestRepository. The
// conditional update holds the same lock as reads so racing reviewers observe
// exactly one winner.
type FakeTaskRequestRepo struct {
	mu     sync.Mutex
	rows   map[uint]*models.ClickupTaskRequest
	nextID uint
}

func NewFakeTaskRequestRepo() *FakeTaskRequestRepo {
	return &FakeTaskRequestRepo{rows: make(map[uint]*models.ClickupTaskRequest)}
}

func (r *FakeTaskRequestRepo) ByID(ctx context.Context, id uint) (*models.ClickupTaskRequest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	row, ok := r.rows[id]
	if !ok {
		return nil, nil
	}
	copied := *row
	return &copied, nil
}

func (r *FakeTaskRequestRepo) ByFilter(ctx context.Context, filter models.ClickupTaskRequestFilter, orderBy string, limit, offset int) ([]*models.ClickupTaskRequest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	matched := make([]*models.ClickupTaskRequest, 0)
	for _, row := range r.rows {
		if filter.TicketID != nil && (row.TicketID == nil || *row.TicketID != *filter.TicketID) {
			continue
		}
		if filter.Status != nil && row.Status != *filter.Status {
			continue
		}
		if filter.CreatedByUserID != nil && row.CreatedByUserID != *filter.CreatedByUserID {
			continue
		}
		copied := *row
		matched = append(matched, &copied)
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].ID > matched[j].ID })
	return paginate(matched, limit, offset), nil
}

func (r *FakeTaskRequestRepo) Save(ctx context.Context, entity *models.ClickupTaskRequest) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := time.Now().UTC()
	if entity.ID == 0 {
		r.nextID++
		entity.ID = r.nextID
		entity.CreatedAt = now
	}
	entity.UpdatedAt = now
	copied := *entity
	r.rows[entity.ID] = &copied
	return nil
}

func (r *FakeTaskRequestRepo) SaveBatch(ctx context.Context, entities []*models.ClickupTaskRequest) error {
	for _, e := range entities {
		if err := r.Save(ctx, e); err != nil {
			return err
		}
	}
	return nil
}

func (r *FakeTaskRequestRepo) Count(ctx context.Context, filter models.ClickupTaskRequestFilter) (int64, error) {
	rows, err := r.ByFilter(ctx, filter, "", 0, 0)
	return int64(len(rows)), err
}

func (r *FakeTaskRequestRepo) Exists(ctx context.Context, filter models.ClickupTaskRequestFilter) (bool, error) {
	count, err := r.Count(ctx, filter)
	return count > 0, err
}

func (r *FakeTaskRequestRepo) UpdateIfStatus(ctx context.Context, id uint, expected models.TaskRequestStatus, requesterID *uint, updates map[string]any) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	row, ok := r.rows[id]
	if !ok || row.Status != expected {
		return false, nil
	}
	if requesterID != nil && row.CreatedByUserID != *requesterID {
		return false, nil
	}
	for column, value := range updates {
		applyTaskRequestColumn(row, column, value)
	}
	row.UpdatedAt = time.Now().UTC()
	return true, nil
}

func applyTaskRequestColumn(row *models.ClickupTaskRequest, column string, value any) {
	switch column {
	case "status":
		if s, ok := value.(models.TaskRequestStatus); ok {
			row.Status = s
		}
	case "product":
		if s, ok := value.(string); ok {
			row.Product = s
		}
	case "department":
		row.Department, _ = value.(*string)
	case "fid":
		row.FID, _ = value.(*string)
	case "oid":
		row.OID, _ = value.(*string)
	case "franchise_name":
		row.FranchiseName, _ = value.(*string)
	case "outlet_name":
		row.OutletName, _ = value.(*string)
	case "priority":
		if s, ok := value.(string); ok {
			row.Priority = s
		}
	case "severity":
		if s, ok := value.(string); ok {
			row.Severity = s
		}
	case "title":
		if s, ok := value.(string); ok {
			row.Title = s
		}
	case "description":
		if s, ok := value.(string); ok {
			row.Description = s
		}
	case "attachments":
		if a, ok := value.(pq.StringArray); ok {
			row.Attachments = a
		}
	case "decision_reason":
		switch v := value.(type) {
		case nil:
			row.DecisionReason = nil
		case string:
			row.DecisionReason = &v
		case *string:
			row.DecisionReason = v
		}
	case "decision_by_user_id":
		if value == nil {
			row.DecisionByUserID = nil
		} else {
			row.DecisionByUserID, _ = value.(*uint)
		}
	case "decision_at":
		if value == nil {
			row.DecisionAt = nil
		} else if t, ok := value.(time.Time); ok {
			row.DecisionAt = &t
		}
	case "clickup_task_id":
		switch v := value.(type) {
		case nil:
			row.ClickupTaskID = nil
		case string:
			row.ClickupTaskID = &v
		case *string:
			row.ClickupTaskID = v
		}
	case "clickup_link":
		switch v := value.(type) {
		case nil:
			row.ClickupLink = nil
		case string:
			row.ClickupLink = &v
		case *string:
			row.ClickupLink = v
		}
	}
}

// FakeMerchantRepo is an in-memory MerchantRepository keyed by fid
type FakeMerchantRepo struct {
	mu   sync.Mutex
	rows map[string]*models.Merchant
}

func NewFakeMerchantRepo() *FakeMerchantRepo {
	return &FakeMerchantRepo{rows: make(map[string]*models.Merchant)}
}

func (r *FakeMerchantRepo) ByID(ctx context.Context, id uint) (*models.Merchant, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, row := range r.rows {
		if row.ID == id {
			copied := *row
			return &copied, nil
		}
	}
	return nil, nil
}

func (r *FakeMerchantRepo) ByFilter(ctx context.Context, filter models.MerchantFilter, orderBy string, limit, offset int) ([]*models.Merchant, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	matched := make([]*models.Merchant, 0)
	for _, row := range r.rows {
		if filter.FID != nil && row.FID != *filter.FID {
			continue
		}
		copied := *row
		matched = append(matched, &copied)
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].ID < matched[j].ID })
	return paginate(matched, limit, offset), nil
}

func (r *FakeMerchantRepo) Save(ctx context.Context, entity *models.Merchant) error {
	_, err := r.Upsert(ctx, entity)
	return err
}

func (r *FakeMerchantRepo) SaveBatch(ctx context.Context, entities []*models.Merchant) error {
	for _, e := range entities {
		if err := r.Save(ctx, e); err != nil {
			return err
		}
	}
	return nil
}

func (r *FakeMerchantRepo) Count(ctx context.Context, filter models.MerchantFilter) (int64, error) {
	rows, err := r.ByFilter(ctx, filter, "", 0, 0)
	return int64(len(rows)), err
}

func (r *FakeMerchantRepo) Exists(ctx context.Context, filter models.MerchantFilter) (bool, error) {
	count, err := r.Count(ctx, filter)
	return count > 0, err
}

func (r *FakeMerchantRepo) ByFID(ctx context.Context, fid string) (*models.Merchant, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	row, ok := r.rows[fid]
	if !ok {
		return nil, nil
	}
	copied := *row
	return &copied, nil
}

func (r *FakeMerchantRepo) Upsert(ctx context.Context, merchant *models.Merchant) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	existing, ok := r.rows[merchant.FID]
	if ok {
		merchant.ID = existing.ID
		copied := *merchant
		r.rows[merchant.FID] = &copied
		return false, nil
	}
	merchant.ID = uint(len(r.rows) + 1)
	copied := *merchant
	r.rows[merchant.FID] = &copied
	return true, nil
}

// FakeOutletRepo is an in-memory MerchantOutletRepository keyed by fid+oid
type FakeOutletRepo struct {
	mu   sync.Mutex
	rows map[string]*models.MerchantOutlet
}

func NewFakeOutletRepo() *FakeOutletRepo {
	return &FakeOutletRepo{rows: make(map[string]*models.MerchantOutlet)}
}

func outletKey(fid, oid string) string { return fid + "/" + oid }

func (r *FakeOutletRepo) ByID(ctx context.Context, id uint) (*models.MerchantOutlet, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, row := range r.rows {
		if row.ID == id {
			copied := *row
			return &copied, nil
		}
	}
	return nil, nil
}

func (r *FakeOutletRepo) ByFilter(ctx context.Context, filter models.MerchantOutletFilter, orderBy string, limit, offset int) ([]*models.MerchantOutlet, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	matched := make([]*models.MerchantOutlet, 0)
	for _, row := range r.rows {
		if filter.FID != nil && row.FID != *filter.FID {
			continue
		}
		if filter.OID != nil && row.OID != *filter.OID {
			continue
		}
		copied := *row
		matched = append(matched, &copied)
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].ID < matched[j].ID })
	return paginate(matched, limit, offset), nil
}

func (r *FakeOutletRepo) Save(ctx context.Context, entity *models.MerchantOutlet) error {
	_, err := r.Upsert(ctx, entity)
	return err
}

func (r *FakeOutletRepo) SaveBatch(ctx context.Context, entities []*models.MerchantOutlet) error {
	for _, e := range entities {
		if err := r.Save(ctx, e); err != nil {
			return err
		}
	}
	return nil
}

func (r *FakeOutletRepo) Count(ctx context.Context, filter models.MerchantOutletFilter) (int64, error) {
	rows, err := r.ByFilter(ctx, filter, "", 0, 0)
	return int64(len(rows)), err
}

func (r *FakeOutletRepo) Exists(ctx context.Context, filter models.MerchantOutletFilter) (bool, error) {
	count, err := r.Count(ctx, filter)
	return count > 0, err
}

func (r *FakeOutletRepo) ByFIDAndOID(ctx context.Context, fid, oid string) (*models.MerchantOutlet, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	row, ok := r.rows[outletKey(fid, oid)]
	if !ok {
		return nil, nil
	}
	copied := *row
	return &copied, nil
}

func (r *FakeOutletRepo) Upsert(ctx context.Context, outlet *models.MerchantOutlet) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := outletKey(outlet.FID, outlet.OID)
	existing, ok := r.rows[key]
	if ok {
		outlet.ID = existing.ID
		copied := *outlet
		r.rows[key] = &copied
		return false, nil
	}
	outlet.ID = uint(len(r.rows) + 1)
	copied := *outlet
	r.rows[key] = &copied
	return true, nil
}

// FakeUserRepo is an in-memory UserRepository
type FakeUserRepo struct {
	mu   sync.Mutex
	rows map[uint]*models.User
}

func NewFakeUserRepo(users ...*models.User) *FakeUserRepo {
	repo := &FakeUserRepo{rows: make(map[uint]*models.User)}
	for _, u := range users {
		copied := *u
		repo.rows[u.ID] = &copied
	}
	return repo
}

func (r *FakeUserRepo) ByID(ctx context.Context, id uint) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	row, ok := r.rows[id]
	if !ok {
		return nil, nil
	}
	copied := *row
	return &copied, nil
}

func (r *FakeUserRepo) ByFilter(ctx context.Context, filter models.UserFilter, orderBy string, limit, offset int) ([]*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	matched := make([]*models.User, 0)
	for _, row := range r.rows {
		if filter.Email != nil && row.Email != *filter.Email {
			continue
		}
		if filter.Role != nil && row.Role != *filter.Role {
			continue
		}
		if filter.IsActive != nil {
			active := row.IsActive != nil && *row.IsActive
			if active != *filter.IsActive {
				continue
			}
		}
		copied := *row
		matched = append(matched, &copied)
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].ID < matched[j].ID })
	return paginate(matched, limit, offset), nil
}

func (r *FakeUserRepo) Save(ctx context.Context, entity *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if entity.ID == 0 {
		entity.ID = uint(len(r.rows) + 1)
	}
	copied := *entity
	r.rows[entity.ID] = &copied
	return nil
}

func (r *FakeUserRepo) SaveBatch(ctx context.Context, entities []*models.User) error {
	for _, e := range entities {
		if err := r.Save(ctx, e); err != nil {
			return err
		}
	}
	return nil
}

func (r *FakeUserRepo) Count(ctx context.Context, filter models.UserFilter) (int64, error) {
	rows, err := r.ByFilter(ctx, filter, "", 0, 0)
	return int64(len(rows)), err
}

func (r *FakeUserRepo) Exists(ctx context.Context, filter models.UserFilter) (bool, error) {
	count, err := r.Count(ctx, filter)
	return count > 0, err
}

func (r *FakeUserRepo) ByEmail(ctx context.Context, email string) (*models.User, error) {
	rows, err := r.ByFilter(ctx, models.UserFilter{Email: &email}, "", 0, 0)
	if err != nil || len(rows) == 0 {
		return nil, err
	}
	return rows[0], nil
}

func (r *FakeUserRepo) ListActive(ctx context.Context, limit, offset int) ([]*models.User, error) {
	active := true
	return r.ByFilter(ctx, models.UserFilter{IsActive: &active}, "", limit, offset)
}

func paginate[T any](rows []*T, limit, offset int) []*T {
	if offset > 0 {
		if offset >= len(rows) {
			return nil
		}
		rows = rows[offset:]
	}
	if limit > 0 && limit < len(rows) {
		rows = rows[:limit]
	}
	return rows
}

func ptrEqual(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
