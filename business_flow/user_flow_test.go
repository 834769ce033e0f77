package businessflow

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/merchantops/support-console/models"
	testutil "github.com/merchantops/support-console/testing"
	"github.com/merchantops/support-console/utils"
)

func TestListActiveUsers(t *testing.T) {
	ctx := context.Background()
	fx := testutil.NewFixtures()
	fx.CreateUser(1, "dina", models.UserRoleAgent)
	fx.CreateUser(2, "raka", models.UserRoleAdmin)
	inactive := fx.CreateUser(3, "gone", models.UserRoleAgent)
	inactive.IsActive = utils.ToPtr(false)
	require.NoError(t, fx.Users.Save(ctx, inactive))

	flow := NewUserFlow(fx.Users)
	resp, err := flow.ListActiveUsers(ctx, agentActor(1), testMetadata())
	require.NoError(t, err)

	require.Len(t, resp.Items, 2)
	names := []string{resp.Items[0].Name, resp.Items[1].Name}
	assert.ElementsMatch(t, []string{"dina", "raka"}, names)
	for _, item := range resp.Items {
		assert.NotEmpty(t, item.Email)
		assert.NotEmpty(t, item.Role)
	}
}
