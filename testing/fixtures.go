package testing

import (
	"context"
	"fmt"
	"time"

	"github.com/merchantops/support-console/models"
	"github.com/merchantops/support-console/utils"
)

// Fixtures provides helper methods for seeding the in-memory fakes
type Fixtures struct {
	Tickets   *FakeSupportRequestRepo
	History   *FakeHistoryRepo
	Tokens    *FakeCSATTokenRepo
	Responses *FakeCSATResponseRepo
	Requests  *FakeTaskRequestRepo
	Merchants *FakeMerchantRepo
	Outlets   *FakeOutletRepo
	Users     *FakeUserRepo
}

// NewFixtures creates a full set of empty fakes
func NewFixtures() *Fixtures {
	return &Fixtures{
		Tickets:   NewFakeSupportRequestRepo(),
		History:   NewFakeHistoryRepo(),
		Tokens:    NewFakeCSATTokenRepo(),
		Responses: NewFakeCSATResponseRepo(),
		Requests:  NewFakeTaskRequestRepo(),
		Merchants: NewFakeMerchantRepo(),
		Outlets:   NewFakeOutletRepo(),
		Users:     NewFakeUserRepo(),
	}
}

// CreateTicket seeds an open form ticket and returns it
func (f *Fixtures) CreateTicket(mutate ...func(*models.SupportRequest)) *models.SupportRequest {
	ticket := &models.SupportRequest{
		Channel:      models.TicketChannelForm,
		Status:       models.TicketStatusOpen,
		Hidden:       utils.ToPtr(false),
		MerchantName: utils.ToPtr("Kopi Kenangan"),
		PhoneNumber:  utils.ToPtr("+628111111111"),
	}
	for _, m := range mutate {
		m(ticket)
	}
	if err := f.Tickets.Save(context.Background(), ticket); err != nil {
		panic(fmt.Sprintf("failed to seed ticket: %v", err))
	}
	return ticket
}

// CreateClosedTicket seeds a ticket already in a closed status with an
// active survey token
func (f *Fixtures) CreateClosedTicket(status models.TicketStatus) (*models.SupportRequest, *models.CSATToken) {
	now := time.Now().UTC()
	ticket := f.CreateTicket(func(t *models.SupportRequest) {
		t.Status = status
		t.ClosedAt = &now
	})
	token := f.CreateToken(ticket.ID, now.Add(utils.CSATTokenTTL))
	return ticket, token
}

// CreateToken seeds a survey token with the given expiry
func (f *Fixtures) CreateToken(requestID uint, expiresAt time.Time) *models.CSATToken {
	token := &models.CSATToken{
		RequestID: requestID,
		Token:     fmt.Sprintf("tok%dabcdefghijklmnopqrstuvwxyz0123456789", requestID),
		CreatedAt: time.Now().UTC(),
		ExpiresAt: expiresAt,
	}
	if err := f.Tokens.Save(context.Background(), token); err != nil {
		panic(fmt.Sprintf("failed to seed token: %v", err))
	}
	return token
}

// CreateUser seeds a console user
func (f *Fixtures) CreateUser(id uint, name string, role models.UserRole) *models.User {
	user := &models.User{
		ID:       id,
		Name:     name,
		Email:    fmt.Sprintf("%s@console.test", name),
		Role:     role,
		IsActive: utils.ToPtr(true),
	}
	if err := f.Users.Save(context.Background(), user); err != nil {
		panic(fmt.Sprintf("failed to seed user: %v", err))
	}
	return user
}

// CreateTaskRequest seeds a pending approval request owned by userID
func (f *Fixtures) CreateTaskRequest(userID uint, mutate ...func(*models.ClickupTaskRequest)) *models.ClickupTaskRequest {
	row := &models.ClickupTaskRequest{
		Product:         "POS App",
		Priority:        "High",
		Severity:        "Major",
		Title:           "Printer not pairing",
		Description:     "Bluetooth printer drops connection after sleep",
		Status:          models.TaskRequestStatusPending,
		CreatedByUserID: userID,
	}
	for _, m := range mutate {
		m(row)
	}
	if err := f.Requests.Save(context.Background(), row); err != nil {
		panic(fmt.Sprintf("failed to seed task request: %v", err))
	}
	return row
}

// CreateMerchant seeds a franchise with one outlet
func (f *Fixtures) CreateMerchant(fid, franchiseName, oid, outletName string) (*models.Merchant, *models.MerchantOutlet) {
	merchant := &models.Merchant{FID: fid, FranchiseName: franchiseName}
	if _, err := f.Merchants.Upsert(context.Background(), merchant); err != nil {
		panic(fmt.Sprintf("failed to seed merchant: %v", err))
	}
	outlet := &models.MerchantOutlet{
		MerchantID: merchant.ID,
		FID:        fid,
		OID:        oid,
		OutletName: outletName,
	}
	if _, err := f.Outlets.Upsert(context.Background(), outlet); err != nil {
		panic(fmt.Sprintf("failed to seed outlet: %v", err))
	}
	return merchant, outlet
}
