// Package businessflow contains the business logic for the support console.
package businessflow

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/merchantops/support-console/models"
	"github.com/merchantops/support-console/repository"
	"github.com/merchantops/support-console/utils"
)

// Actor identifies who is performing an operation. Identity arrives from the
// gateway as trusted headers; UserID is nil for unauthenticated surfaces
// (public form, survey submission, webhooks).
type Actor struct {
	UserID     *uint  `json:"user_id,omitempty"`
	Role       string `json:"role,omitempty"`
	Department string `json:"department,omitempty"`
}

// IsAdmin reports whether the actor holds the admin role
func (a *Actor) IsAdmin() bool {
	return a != nil && a.Role == string(models.UserRoleAdmin)
}

// ClientMetadata holds client-related information for audit logging
type ClientMetadata struct {
	IPAddress string `json:"ip_address"`
	UserAgent string `json:"user_agent"`
	RequestID string `json:"request_id,omitempty"`
}

// NewClientMetadata creates a new ClientMetadata instance
func NewClientMetadata(ipAddress, userAgent string) *ClientMetadata {
	return &ClientMetadata{
		IPAddress: ipAddress,
		UserAgent: userAgent,
	}
}

// SetRequestID sets the request ID
func (cm *ClientMetadata) SetRequestID(requestID string) {
	cm.RequestID = requestID
}

// resolveActorLabel produces the display value recorded as "changed by".
// Falls back to "system" when the actor is anonymous or unknown.
func resolveActorLabel(ctx context.Context, userRepo repository.UserRepository, actor *Actor) string {
	if actor == nil || actor.UserID == nil || userRepo == nil {
		return "system"
	}
	user, err := userRepo.ByID(ctx, *actor.UserID)
	if err != nil || user == nil {
		return fmt.Sprintf("user:%d", *actor.UserID)
	}
	return user.ActorLabel()
}

// normalizeValue maps any proposed or stored value to its canonical
// string-or-null form for change detection. Booleans normalize to "1"/"0"
// so a boolean true and the stored string "1" compare equal; type-only
// differences never count as changes.
func normalizeValue(v any) *string {
	if v == nil {
		return nil
	}
	switch t := v.(type) {
	case *string:
		if t == nil {
			return nil
		}
		return utils.ToPtr(*t)
	case string:
		return utils.ToPtr(t)
	case *bool:
		if t == nil {
			return nil
		}
		return utils.ToPtr(boolString(*t))
	case bool:
		return utils.ToPtr(boolString(t))
	case *uint:
		if t == nil {
			return nil
		}
		return utils.ToPtr(strconv.FormatUint(uint64(*t), 10))
	case uint:
		return utils.ToPtr(strconv.FormatUint(uint64(t), 10))
	case *int:
		if t == nil {
			return nil
		}
		return utils.ToPtr(strconv.Itoa(*t))
	case int:
		return utils.ToPtr(strconv.Itoa(t))
	case int64:
		return utils.ToPtr(strconv.FormatInt(t, 10))
	case float64:
		return utils.ToPtr(strconv.FormatFloat(t, 'f', -1, 64))
	case *time.Time:
		if t == nil {
			return nil
		}
		return utils.ToPtr(t.UTC().Format(time.RFC3339))
	case time.Time:
		return utils.ToPtr(t.UTC().Format(time.RFC3339))
	case models.TicketStatus:
		return utils.ToPtr(string(t))
	case fmt.Stringer:
		return utils.ToPtr(t.String())
	default:
		return utils.ToPtr(fmt.Sprintf("%v", t))
	}
}

func boolString(b bool) string {
	if b {
		return "1"
	}
	return "0"
}

// normalizedEqual compares two canonical string-or-null values
func normalizedEqual(a, b *string) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

// maskToken renders the display-safe preview of a survey token. The full
// value is never exposed on read surfaces.
func maskToken(token string) string {
	if len(token) <= utils.CSATTokenMaskPrefix+utils.CSATTokenMaskSuffix {
		return token
	}
	return token[:utils.CSATTokenMaskPrefix] + "..." + token[len(token)-utils.CSATTokenMaskSuffix:]
}

// normalizePagination validates and defaults page/page_size
func normalizePagination(page, pageSize uint) (int, int, error) {
	if page == 0 {
		page = 1
	}
	if pageSize == 0 {
		pageSize = 20
	}
	if pageSize > 100 {
		return 0, 0, ErrInvalidPageSize
	}
	limit := int(pageSize)
	offset := (int(page) - 1) * limit
	return limit, offset, nil
}

// validateDateRange rejects inverted windows
func validateDateRange(start, end *time.Time) error {
	if start != nil && end != nil && start.After(*end) {
		return ErrStartDateAfterEndDate
	}
	return nil
}
