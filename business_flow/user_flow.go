package businessflow

import (
	"context"

	"github.com/merchantops/support-console/app/dto"
	"github.com/merchantops/support-console/repository"
)

// UserFlow exposes console operators for assignment pickers
type UserFlow interface {
	ListActiveUsers(ctx context.Context, actor *Actor, metadata *ClientMetadata) (*dto.ListUsersResponse, error)
}

// UserFlowImpl implements UserFlow
type UserFlowImpl struct {
	userRepo repository.UserRepository
}

func NewUserFlow(userRepo repository.UserRepository) UserFlow {
	return &UserFlowImpl{userRepo: userRepo}
}

func (f *UserFlowImpl) ListActiveUsers(ctx context.Context, actor *Actor, metadata *ClientMetadata) (*dto.ListUsersResponse, error) {
	users, err := f.userRepo.ListActive(ctx, 0, 0)
	if err != nil {
		return nil, NewBusinessError("STORAGE_FAILED", "failed to list users", err)
	}

	items := make([]dto.UserItem, 0, len(users))
	for _, u := range users {
		items = append(items, dto.UserItem{
			ID:         u.ID,
			Name:       u.Name,
			Email:      u.Email,
			Role:       string(u.Role),
			Department: u.Department,
		})
	}
	return &dto.ListUsersResponse{
		Message: "Users retrieved successfully",
		Items:   items,
	}, nil
}
