package pricing

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sequentialIDs() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("cat-%d", n)
	}
}

func TestAdjustmentsAddRemove(t *testing.T) {
	adjs := Adjustments{}.Add().Add().Add()
	assert.Nil(t, adjs[0].Category)
	assert.True(t, adjs[0].Amount.IsZero())

	adjs, err := adjs.Remove(0)
	require.NoError(t, err)
	assert.Equal(t, 0, adjs[0].Order)
	assert.Equal(t, 1, adjs[1].Order)
}

func TestAdjustmentsUpdateAmount(t *testing.T) {
	adjs := Adjustments{}.Add()
	adjs, err := adjs.UpdateAmount(0, "-12.5")
	require.NoError(t, err)
	assert.True(t, dec("-12.5").Equal(adjs[0].Amount))

	same, err := adjs.UpdateAmount(0, "twelve")
	require.ErrorIs(t, err, ErrNotANumber)
	assert.True(t, dec("-12.5").Equal(same[0].Amount))
}

func TestTotalAddsAdjustments(t *testing.T) {
	items := Items{item("2", "5", "1"), item("1", "3", "0")}
	adjs := Adjustments{{Category: Confirmed{ID: "a"}, Amount: dec("2")}, {Category: Confirmed{ID: "b"}, Amount: dec("-1")}}
	totals := ComputeTotals(items, adjs.Sum())
	assert.True(t, dec("14").Equal(totals.Subtotal))
	assert.True(t, dec("15").Equal(totals.Total))
}

func TestAdjustmentsValidate(t *testing.T) {
	zero := Adjustments{{Category: Confirmed{ID: "a"}}}
	require.ErrorIs(t, zero.Validate(), ErrAdjustmentAmount)

	missing := Adjustments{{Amount: dec("3")}}
	require.ErrorIs(t, missing.Validate(), ErrAdjustmentCategory)

	both := Adjustments{{Amount: dec("3")}, {Category: Confirmed{ID: "a"}}}
	require.ErrorIs(t, both.Validate(), ErrAdjustmentAmount)

	ok := Adjustments{{Category: Pending{LocalID: "new-1"}, Amount: dec("-3")}}
	require.NoError(t, ok.Validate())
}

func TestCreatePendingIssuesUniqueIDs(t *testing.T) {
	now := time.UnixMilli(1700000000000)
	opts := CategoryOptions{Confirmed: []Category{{ID: "x", Name: "Shipping"}}}

	opts, first := opts.CreatePending("Rush Fee", now)
	opts, second := opts.CreatePending("", now)
	opts, third := opts.CreatePending("Other", now)

	assert.Equal(t, "new-1700000000000", first.LocalID)
	assert.Equal(t, "new-1700000000000-2", second.LocalID)
	assert.Equal(t, "new-1700000000000-3", third.LocalID)
	assert.True(t, IsPendingID(second.LocalID))
	require.Len(t, opts.Pending, 3)

	ref, ok := opts.Lookup(first.LocalID)
	require.True(t, ok)
	assert.Equal(t, "Rush Fee", opts.Name(ref))
	ref, ok = opts.Lookup("x")
	require.True(t, ok)
	assert.Equal(t, Confirmed{ID: "x"}, ref)
}

func TestResolverIssuesOneCategoryPerPendingID(t *testing.T) {
	rush := Pending{LocalID: "new-1", Name: "Rush Fee"}
	unnamed := Pending{LocalID: "new-2"}
	adjs := Adjustments{
		{Category: rush, Amount: dec("10")},
		{Category: Confirmed{ID: "ship"}, Amount: dec("4")},
		{Category: rush, Amount: dec("-2")},
		{Category: unnamed, Amount: dec("1")},
	}

	r := NewResolverWithIDs(sequentialIDs())
	lines, created, err := r.Resolve(adjs)
	require.NoError(t, err)
	require.Equal(t, []NewCategory{{ID: "cat-1", Name: "Rush Fee"}, {ID: "cat-2", Name: DefaultCategoryName}}, created)

	require.Len(t, lines, 4)
	assert.Equal(t, "cat-1", lines[0].Category)
	assert.Equal(t, "ship", lines[1].Category)
	assert.Equal(t, "cat-1", lines[2].Category)
	assert.Equal(t, "cat-2", lines[3].Category)
	for _, l := range lines {
		assert.False(t, IsPendingID(l.Category))
	}

	again, createdAgain, err := r.Resolve(adjs)
	require.NoError(t, err)
	assert.Empty(t, createdAgain)
	assert.Equal(t, lines, again)
}

func TestResolverRejectsUnsetCategory(t *testing.T) {
	_, _, err := NewResolver().Resolve(Adjustments{{Amount: dec("1")}})
	require.ErrorIs(t, err, ErrAdjustmentCategory)
}

func TestAdjustmentsFromLines(t *testing.T) {
	adjs := AdjustmentsFromLines([]AdjustmentLine{{Category: "a", Amount: dec("5"), Order: 4}})
	require.Len(t, adjs, 1)
	assert.Equal(t, Confirmed{ID: "a"}, adjs[0].Category)
	assert.Equal(t, 0, adjs[0].Order)
}
