package businessflow

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/merchantops/support-console/app/dto"
	"github.com/merchantops/support-console/app/services"
	testutil "github.com/merchantops/support-console/testing"
	"github.com/merchantops/support-console/utils"
)

func newMerchantFlowForTest(fx *testutil.Fixtures, pos services.POSService) MerchantFlow {
	return NewMerchantFlow(fx.Merchants, fx.Outlets, pos, services.NewMockMerchantCache(), 0)
}

func directoryPage(merchants ...services.POSMerchant) services.POSMerchantPage {
	return services.POSMerchantPage{Merchants: merchants}
}

func TestImportMerchants(t *testing.T) {
	ctx := context.Background()

	t.Run("NonAdminRejected", func(t *testing.T) {
		fx := testutil.NewFixtures()
		flow := newMerchantFlowForTest(fx, services.NewMockPOSService())

		_, err := flow.ImportMerchants(ctx, agentActor(1), testMetadata())
		assert.True(t, IsReviewerNotAdmin(err))
	})

	t.Run("ImportsPagesAndTallies", func(t *testing.T) {
		fx := testutil.NewFixtures()
		fx.CreateMerchant("F100", "Kopi Kenangan (stale)", "O7", "Grand Indonesia")

		pos := services.NewMockPOSService(
			directoryPage(
				services.POSMerchant{
					FID:           "F100",
					FranchiseName: "Kopi Kenangan",
					Outlets: []services.POSOutlet{
						{OID: "O7", OutletName: "Grand Indonesia"},
						{OID: "O8", OutletName: "Pacific Place"},
					},
				},
			),
			directoryPage(
				services.POSMerchant{
					FID:           "F200",
					FranchiseName: "Bakso Boedjangan",
					Outlets:       []services.POSOutlet{{OID: "O1", OutletName: "Dago"}},
				},
			),
		)
		flow := newMerchantFlowForTest(fx, pos)

		resp, err := flow.ImportMerchants(ctx, adminActor(1), testMetadata())
		require.NoError(t, err)

		assert.Equal(t, 2, resp.PagesFetched)
		assert.Equal(t, 1, resp.MerchantsCreated)
		assert.Equal(t, 1, resp.MerchantsUpdated)
		assert.Equal(t, 2, resp.OutletsCreated)
		assert.Equal(t, 1, resp.OutletsUpdated)

		refreshed, err := fx.Merchants.ByFID(ctx, "F100")
		require.NoError(t, err)
		require.NotNil(t, refreshed)
		assert.Equal(t, "Kopi Kenangan", refreshed.FranchiseName)
	})

	t.Run("FetchFailureSurfacesUpstreamError", func(t *testing.T) {
		fx := testutil.NewFixtures()
		pos := services.NewMockPOSService()
		pos.FetchErr = errors.New("directory unreachable")
		flow := newMerchantFlowForTest(fx, pos)

		_, err := flow.ImportMerchants(ctx, adminActor(1), testMetadata())
		var bizErr *BusinessError
		require.ErrorAs(t, err, &bizErr)
		assert.Equal(t, "UPSTREAM_FAILED", bizErr.Code)
	})

	t.Run("EmptyDirectoryIsANoOp", func(t *testing.T) {
		fx := testutil.NewFixtures()
		flow := newMerchantFlowForTest(fx, services.NewMockPOSService())

		resp, err := flow.ImportMerchants(ctx, adminActor(1), testMetadata())
		require.NoError(t, err)
		assert.Equal(t, 0, resp.PagesFetched)
		assert.Equal(t, 0, resp.MerchantsCreated)
	})
}

func TestMerchantLookup(t *testing.T) {
	ctx := context.Background()

	t.Run("ResolvesBothNames", func(t *testing.T) {
		fx := testutil.NewFixtures()
		fx.CreateMerchant("F100", "Kopi Kenangan", "O7", "Grand Indonesia")
		flow := newMerchantFlowForTest(fx, services.NewMockPOSService())

		resp, err := flow.Lookup(ctx, &dto.MerchantLookupRequest{FID: "F100", OID: utils.ToPtr("O7")}, testMetadata())
		require.NoError(t, err)
		require.NotNil(t, resp.FranchiseName)
		assert.Equal(t, "Kopi Kenangan", *resp.FranchiseName)
		require.NotNil(t, resp.OutletName)
		assert.Equal(t, "Grand Indonesia", *resp.OutletName)
	})

	t.Run("UnknownIdentifiersComeBackNull", func(t *testing.T) {
		fx := testutil.NewFixtures()
		flow := newMerchantFlowForTest(fx, services.NewMockPOSService())

		resp, err := flow.Lookup(ctx, &dto.MerchantLookupRequest{FID: "F404", OID: utils.ToPtr("O404")}, testMetadata())
		require.NoError(t, err)
		assert.Nil(t, resp.FranchiseName)
		assert.Nil(t, resp.OutletName)
	})

	t.Run("OmittedOutletSkipsOutletLookup", func(t *testing.T) {
		fx := testutil.NewFixtures()
		fx.CreateMerchant("F100", "Kopi Kenangan", "O7", "Grand Indonesia")
		flow := newMerchantFlowForTest(fx, services.NewMockPOSService())

		resp, err := flow.Lookup(ctx, &dto.MerchantLookupRequest{FID: "F100"}, testMetadata())
		require.NoError(t, err)
		require.NotNil(t, resp.FranchiseName)
		assert.Nil(t, resp.OutletName)
	})
}
