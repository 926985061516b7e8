package cart

import (
	"context"
	"errors"
	"sync"
	"testing"

	"hayase/internal/domain"
	cartrepo "hayase/internal/repository/cart"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubSnapshots struct {
	mu        sync.Mutex
	saved     []domain.CartSnapshot
	saveErr   error
	loadSnap  domain.CartSnapshot
	loadErr   error
	loadCalls int
}

func (s *stubSnapshots) Save(_ context.Context, _ string, snap domain.CartSnapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.saved = append(s.saved, snap)
	return s.saveErr
}

func (s *stubSnapshots) Load(_ context.Context, _ string) (domain.CartSnapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loadCalls++
	return s.loadSnap, s.loadErr
}

func (s *stubSnapshots) last() domain.CartSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saved[len(s.saved)-1]
}

var (
	rem   = domain.Product{ID: "rem", Name: "Nendoroid Rem", Price: 120000, Stock: 2}
	saber = domain.Product{ID: "saber", Name: "figma Saber", Price: 85050, Stock: 0}
)

func TestStore_AddItemPersistsAndOpensDrawer(t *testing.T) {
	snaps := &stubSnapshots{loadErr: cartrepo.ErrNoSnapshot}
	store := NewStore("hayase-cart:s1", snaps, nil)
	ctx := context.Background()

	assert.False(t, store.DrawerOpen())
	got := store.AddItem(ctx, rem, 2)

	assert.True(t, store.DrawerOpen())
	assert.Equal(t, domain.Money(240000), got.Subtotal())
	require.Len(t, snaps.saved, 1)
	assert.Equal(t, got, snaps.last())

	store.AddItem(ctx, saber, 0)
	assert.Equal(t, domain.Money(240000+85050), store.Subtotal())
}

func TestStore_UpdateQuantityZeroRemoves(t *testing.T) {
	snaps := &stubSnapshots{}
	store := NewStore("k", snaps, nil)
	ctx := context.Background()

	store.AddItem(ctx, rem, 1)
	store.AddItem(ctx, saber, 1)
	got := store.UpdateQuantity(ctx, "rem", 0)

	_, found := got.Find("rem")
	assert.False(t, found)
	assert.Equal(t, domain.Money(85050), got.Subtotal())
	assert.Equal(t, got, snaps.last())
}

func TestStore_RemoveAbsentIsNoop(t *testing.T) {
	store := NewStore("k", &stubSnapshots{}, nil)
	ctx := context.Background()
	store.AddItem(ctx, rem, 1)

	got := store.RemoveItem(ctx, "missing")
	assert.Len(t, got.Items, 1)
}

func TestStore_ClearCartIsIdempotent(t *testing.T) {
	snaps := &stubSnapshots{}
	store := NewStore("k", snaps, nil)
	ctx := context.Background()

	store.AddItem(ctx, rem, 1)
	store.ClearCart(ctx)
	got := store.ClearCart(ctx)

	assert.True(t, got.IsEmpty())
	assert.True(t, snaps.last().IsEmpty())
	assert.NotNil(t, snaps.last().Items)
}

func TestStore_RemoveOrderedKeepsLaterAdditions(t *testing.T) {
	snaps := &stubSnapshots{}
	store := NewStore("k", snaps, nil)
	ctx := context.Background()

	ordered := store.AddItem(ctx, rem, 2)
	lines := domain.NewOrderPayload("key", domain.ShippingInfo{}, ordered, nil, 0, "UTR").Lines
	store.AddItem(ctx, saber, 1)

	got := store.RemoveOrdered(ctx, lines)
	require.Len(t, got.Items, 1)
	assert.Equal(t, "saber", got.Items[0].ProductID)
	assert.Equal(t, got, snaps.last())
}

func TestStore_LoadsOnce(t *testing.T) {
	persisted := domain.CartSnapshot{}.WithProduct(rem, 3)
	snaps := &stubSnapshots{loadSnap: persisted}
	store := NewStore("k", snaps, nil)
	ctx := context.Background()

	assert.Equal(t, persisted, store.Load(ctx))
	store.AddItem(ctx, rem, 1)
	store.Load(ctx)

	assert.Equal(t, 1, snaps.loadCalls)
	item, ok := store.Snapshot().Find("rem")
	require.True(t, ok)
	assert.Equal(t, 4, item.Quantity)
}

func TestStore_CorruptStateDegradesToEmpty(t *testing.T) {
	snaps := &stubSnapshots{loadErr: errors.New("unmarshal cart: invalid character")}
	store := NewStore("k", snaps, nil)

	got := store.Load(context.Background())
	assert.True(t, got.IsEmpty())
	assert.Equal(t, domain.Money(0), store.Subtotal())
}

func TestStore_DropsInvalidPersistedLines(t *testing.T) {
	snaps := &stubSnapshots{loadSnap: domain.CartSnapshot{Items: []domain.CartLineItem{
		{ProductID: "rem", UnitPrice: 120000, Quantity: 1},
		{ProductID: "ghost", UnitPrice: 100, Quantity: 0},
	}}}
	store := NewStore("k", snaps, nil)

	got := store.Load(context.Background())
	require.Len(t, got.Items, 1)
	assert.Equal(t, "rem", got.Items[0].ProductID)
}

func TestStore_SaveFailureIsSwallowed(t *testing.T) {
	snaps := &stubSnapshots{saveErr: errors.New("redis down")}
	store := NewStore("k", snaps, nil)

	got := store.AddItem(context.Background(), rem, 1)
	assert.Len(t, got.Items, 1)
	assert.Len(t, store.Snapshot().Items, 1)
}

func TestStore_ConcurrentMutationsSerialise(t *testing.T) {
	snaps := &stubSnapshots{}
	store := NewStore("k", snaps, nil)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			store.AddItem(ctx, rem, 1)
		}()
	}
	wg.Wait()

	item, ok := store.Snapshot().Find("rem")
	require.True(t, ok)
	assert.Equal(t, 50, item.Quantity)
	assert.Equal(t, 50, snaps.last().Items[0].Quantity)
}
