package service

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MainDotCpp/BlueUnion/internal/datamodels/inventory"
	"github.com/MainDotCpp/BlueUnion/internal/datamodels/product"
	"github.com/MainDotCpp/BlueUnion/internal/errs"
)

func TestProductCreateValidation(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	existing := f.seedProduct(t, "10.00")

	// slug 重复
	dup := &product.Product{Name: "重复", Slug: existing.Slug, CategoryID: existing.CategoryID}
	assert.ErrorIs(t, f.productSvc.Create(ctx, dup), errs.ErrSlugTaken)

	// 缺字段
	assert.ErrorIs(t, f.productSvc.Create(ctx, &product.Product{Name: "没分类", Slug: "x"}), errs.ErrMissingFields)

	// 负价格
	neg := &product.Product{
		Name:       "负价",
		Slug:       "neg",
		CategoryID: existing.CategoryID,
		Price:      decimal.RequireFromString("-1.00"),
	}
	err := f.productSvc.Create(ctx, neg)
	require.Error(t, err)
	assert.Equal(t, errs.KindValidation, errs.KindOf(err))

	// 缺省状态与库存类型
	p := &product.Product{Name: "草稿", Slug: "draft", CategoryID: existing.CategoryID}
	require.NoError(t, f.productSvc.Create(ctx, p))
	assert.Equal(t, product.StatusDraft, p.Status)
	assert.Equal(t, product.StockTypeCard, p.StockType)
}

func TestProductUpdateSlugConflict(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	a := f.seedProduct(t, "1.00")

	b := &product.Product{Name: "另一个", Slug: "other", CategoryID: a.CategoryID}
	require.NoError(t, f.productSvc.Create(ctx, b))

	b.Slug = a.Slug
	assert.ErrorIs(t, f.productSvc.Update(ctx, b), errs.ErrSlugTaken)

	// slug 不变允许更新
	fresh, err := f.productSvc.Get(ctx, a.ID)
	require.NoError(t, err)
	fresh.Name = "改名"
	require.NoError(t, f.productSvc.Update(ctx, fresh))
}

func TestProductDeleteCascadesInventory(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	p := f.seedProduct(t, "3.00")
	f.seedUnits(t, p.ID, 3)

	require.NoError(t, f.productSvc.Delete(ctx, p.ID))

	_, err := f.productSvc.Get(ctx, p.ID)
	assert.ErrorIs(t, err, errs.ErrProductNotFound)
	var count int64
	require.NoError(t, f.db.Model(&inventory.Unit{}).Where("product_id = ?", p.ID).Count(&count).Error)
	assert.Zero(t, count)
}

func TestProductListFilters(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	a := f.seedProduct(t, "5.00")

	draft := &product.Product{Name: "未上架", Slug: "draft-item", CategoryID: a.CategoryID}
	require.NoError(t, f.productSvc.Create(ctx, draft))

	active, total, err := f.productSvc.List(ctx, product.ListFilter{Status: product.StatusActive})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, active, 1)
	assert.Equal(t, a.ID, active[0].ID)

	all, total, err := f.productSvc.List(ctx, product.ListFilter{CategoryID: a.CategoryID})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	assert.Len(t, all, 2)
}

func TestRecordViewWithoutRedis(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	p := f.seedProduct(t, "2.00")

	f.productSvc.RecordView(ctx, p.ID)
	f.productSvc.RecordView(ctx, p.ID)

	fresh, err := f.productSvc.Get(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), fresh.ViewCount)
}
