package menu

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pagebuilder/internal/domain"
)

func item(id string, children ...*domain.MenuItem) *domain.MenuItem {
	return &domain.MenuItem{ID: id, Label: id, LinkType: domain.LinkExternal, Children: children}
}

// shop -> (men -> shirts), (women); about
func sampleTree() []*domain.MenuItem {
	return []*domain.MenuItem{
		item("shop", item("men", item("shirts")), item("women")),
		item("about"),
	}
}

func labels(tree []*domain.MenuItem) []string {
	var out []string
	for _, it := range tree {
		out = append(out, it.ID)
	}
	return out
}

func TestNewItem_Defaults(t *testing.T) {
	it := NewItem("")
	assert.NotEmpty(t, it.ID)
	assert.Equal(t, "New item", it.Label)
	assert.Equal(t, domain.LinkExternal, it.LinkType)
	assert.NotEqual(t, it.ID, NewItem("x").ID)
}

func TestAddRoot_DoesNotMutateInput(t *testing.T) {
	tree := sampleTree()
	out := AddRoot(tree, item("blog"))
	assert.Equal(t, []string{"shop", "about", "blog"}, labels(out))
	assert.Len(t, tree, 2)
}

func TestFind_Nested(t *testing.T) {
	tree := sampleTree()
	require.NotNil(t, Find(tree, "shirts"))
	assert.Equal(t, "shirts", Find(tree, "shirts").ID)
	assert.Nil(t, Find(tree, "missing"))
}

func TestRemove_RebuildsOnlyChangedPath(t *testing.T) {
	tree := sampleTree()
	shop, about := tree[0], tree[1]
	men, women := shop.Children[0], shop.Children[1]

	removed, out := Remove(tree, "shirts")

	require.NotNil(t, removed)
	assert.Equal(t, "shirts", removed.ID)
	assert.Nil(t, Find(out, "shirts"))

	// untouched siblings are shared, the path to the removed node is new
	assert.Same(t, about, out[1])
	assert.Same(t, women, out[0].Children[1])
	assert.NotSame(t, shop, out[0])
	assert.NotSame(t, men, out[0].Children[0])

	// the input tree is unchanged
	assert.NotNil(t, Find(tree, "shirts"))
}

func TestRemove_Missing(t *testing.T) {
	tree := sampleTree()
	removed, out := Remove(tree, "nope")
	assert.Nil(t, removed)
	assert.Equal(t, labels(tree), labels(out))
}

func TestMoveToRoot(t *testing.T) {
	out, err := MoveToRoot(sampleTree(), "men")
	require.NoError(t, err)
	assert.Equal(t, []string{"shop", "about", "men"}, labels(out))
	assert.Equal(t, "shirts", out[2].Children[0].ID)
	assert.Len(t, out[0].Children, 1)

	_, err = MoveToRoot(sampleTree(), "nope")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMoveToChildren(t *testing.T) {
	out, err := MoveToChildren(sampleTree(), "about", "women")
	require.NoError(t, err)
	assert.Equal(t, []string{"shop"}, labels(out))
	assert.Equal(t, "about", Find(out, "women").Children[0].ID)
}

func TestMoveToChildren_RejectsCycles(t *testing.T) {
	tree := sampleTree()
	tests := []struct {
		name     string
		id       string
		parentID string
	}{
		{"self", "shop", "shop"},
		{"child", "shop", "men"},
		{"grandchild", "shop", "shirts"},
		{"middle to leaf", "men", "shirts"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := MoveToChildren(tree, tt.id, tt.parentID)
			assert.ErrorIs(t, err, ErrCycle)
			assert.Equal(t, labels(tree), labels(out))
			assert.Equal(t, "shirts", Find(out, "men").Children[0].ID)
		})
	}
}

func TestMoveToChildren_Unknown(t *testing.T) {
	_, err := MoveToChildren(sampleTree(), "shop", "nope")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUpdate_KeepsIDAndChildren(t *testing.T) {
	out, err := Update(sampleTree(), "men", func(it domain.MenuItem) domain.MenuItem {
		it.Label = "Men's"
		it.ID = "hijack"
		it.Children = nil
		return it
	})
	require.NoError(t, err)
	men := Find(out, "men")
	require.NotNil(t, men)
	assert.Equal(t, "Men's", men.Label)
	assert.Len(t, men.Children, 1)

	_, err = Update(sampleTree(), "nope", func(it domain.MenuItem) domain.MenuItem { return it })
	assert.ErrorIs(t, err, ErrNotFound)
}

func ptr(s string) *string { return &s }

// grandparent -> parent -> node
func chainRows() []domain.MenuRow {
	return []domain.MenuRow{
		{ID: "grandparent"},
		{ID: "parent", ParentID: ptr("grandparent")},
		{ID: "node", ParentID: ptr("parent")},
	}
}

func TestReparent_RejectsCycleOnThreeLevelChain(t *testing.T) {
	rows := chainRows()

	for _, target := range []string{"node", "parent"} {
		out, err := Reparent(rows, "grandparent", target)
		assert.ErrorIs(t, err, ErrCycle, "grandparent under %s", target)
		assert.Nil(t, out[0].ParentID)
	}
	_, err := Reparent(rows, "parent", "node")
	assert.ErrorIs(t, err, ErrCycle)

	_, err = Reparent(rows, "node", "node")
	assert.ErrorIs(t, err, ErrCycle)
}

func TestReparent_ValidMoves(t *testing.T) {
	rows := chainRows()

	out, err := Reparent(rows, "node", "grandparent")
	require.NoError(t, err)
	assert.Equal(t, "grandparent", *out[2].ParentID)
	assert.Equal(t, "parent", *rows[2].ParentID)

	out, err = Reparent(rows, "parent", "")
	require.NoError(t, err)
	assert.Nil(t, out[1].ParentID)

	_, err = Reparent(rows, "ghost", "")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = Reparent(rows, "node", "ghost")
	assert.ErrorIs(t, err, ErrNotFound)
}
