package service

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MainDotCpp/BlueUnion/internal/datamodels/inventory"
	"github.com/MainDotCpp/BlueUnion/internal/errs"
)

func TestImportBatch(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	p := f.seedProduct(t, "9.90")

	res, err := f.inventorySvc.Import(ctx, p.ID, []ImportItem{
		{CardNumber: "AAAA-1111", CardPassword: "pw1"},
		{CardNumber: "  BBBB-2222  "},
		{CardNumber: "   "}, // 空卡密跳过
		{CardNumber: "CCCC-3333"},
	}, "admin")
	require.NoError(t, err)
	assert.Equal(t, 3, res.Success)
	assert.Equal(t, 1, res.Failed)
	assert.True(t, strings.HasPrefix(res.BatchID, "batch_"))

	units, total, err := f.inventorySvc.List(ctx, inventory.ListFilter{ProductID: p.ID})
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	for _, u := range units {
		assert.Equal(t, inventory.StatusAvailable, u.Status)
		assert.Equal(t, res.BatchID, u.BatchID)
		assert.Equal(t, "admin", u.ImportedBy)
	}
	// 卡密去掉首尾空白后入库
	var trimmed *inventory.Unit
	for _, u := range units {
		if u.CardNumber == "BBBB-2222" {
			trimmed = u
		}
	}
	require.NotNil(t, trimmed)
}

func TestImportValidation(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	p := f.seedProduct(t, "1.00")

	_, err := f.inventorySvc.Import(ctx, p.ID, nil, "admin")
	assert.ErrorIs(t, err, errs.ErrEmptyImport)

	_, err = f.inventorySvc.Import(ctx, p.ID, []ImportItem{{CardNumber: " "}}, "admin")
	assert.ErrorIs(t, err, errs.ErrEmptyImport)

	_, err = f.inventorySvc.Import(ctx, 9999, []ImportItem{{CardNumber: "X"}}, "admin")
	assert.ErrorIs(t, err, errs.ErrProductNotFound)
}

func TestGetUnit(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	p := f.seedProduct(t, "1.00")
	f.seedUnits(t, p.ID, 1)

	units, _, err := f.inventorySvc.List(ctx, inventory.ListFilter{ProductID: p.ID})
	require.NoError(t, err)
	require.Len(t, units, 1)

	u, err := f.inventorySvc.GetUnit(ctx, units[0].ID)
	require.NoError(t, err)
	assert.Equal(t, units[0].CardNumber, u.CardNumber)

	_, err = f.inventorySvc.GetUnit(ctx, 424242)
	assert.ErrorIs(t, err, errs.ErrUnitNotFound)
}

func TestInventoryStats(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	p := f.seedProduct(t, "4.00")
	f.seedUnits(t, p.ID, 3)

	_, err := f.fulfillSvc.Fulfill(ctx, FulfillInput{ProductID: p.ID, Quantity: 1})
	require.NoError(t, err)

	stats, err := f.inventorySvc.Stats(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), stats[inventory.StatusAvailable])
	assert.Equal(t, int64(1), stats[inventory.StatusSold])
}
