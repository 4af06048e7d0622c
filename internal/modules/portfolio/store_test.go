package portfolio

import (
	"context"
	"errors"
	"testing"

	"github.com/aristath/predictions-dashboard/internal/domain"
	testingpkg "github.com/aristath/predictions-dashboard/internal/testing"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStorageKey(t *testing.T) {
	assert.Equal(t, "predictions-dashboard:alice:portfolio", StorageKey("", "alice"))
	assert.Equal(t, "ns:bob:portfolio", StorageKey("ns", "bob"))
}

func TestStore_SaveLoadRoundTrip(t *testing.T) {
	kv := testingpkg.NewMockKeyValueStore()
	store := NewStore(kv, "", 1000, zerolog.Nop())
	ctx := context.Background()

	state := testingpkg.NewPortfolioFixture()
	require.NoError(t, store.Save(ctx, "alice", state))

	raw, ok := kv.Raw("predictions-dashboard:alice:portfolio")
	require.True(t, ok)
	assert.Contains(t, raw, `"averagePrice":0.4`)
	assert.Contains(t, raw, `"lastTradeAt":"2026-01-02T15:04:05.000Z"`)

	loaded, err := store.Load(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, state, loaded)
}

func TestStore_NoIdentityNeverTouchesBackend(t *testing.T) {
	kv := testingpkg.NewMockKeyValueStore()
	store := NewStore(kv, "", 1000, zerolog.Nop())
	ctx := context.Background()

	state, err := store.Load(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, domain.DefaultPortfolioState(1000), state)

	require.NoError(t, store.Save(ctx, "", testingpkg.NewPortfolioFixture()))
	assert.Equal(t, 0, kv.GetCalls())
	assert.Equal(t, 0, kv.SetCalls())
}

func TestStore_LoadMissingIsDefault(t *testing.T) {
	store := NewStore(testingpkg.NewMockKeyValueStore(), "", 250, zerolog.Nop())

	state, err := store.Load(context.Background(), "nobody")
	require.NoError(t, err)
	assert.Equal(t, 250.0, state.Balance)
	assert.NotNil(t, state.Positions)
	assert.Empty(t, state.Positions)
}

func TestStore_LoadRepairs(t *testing.T) {
	testCases := []struct {
		name      string
		raw       string
		balance   float64
		positions int
	}{
		{"unparsable", `{not json`, 1000, 0},
		{"not an object", `[1,2,3]`, 1000, 0},
		{"null document", `null`, 1000, 0},
		{"missing balance", `{"positions":[]}`, 1000, 0},
		{"string balance", `{"balance":"42.5","positions":[]}`, 42.5, 0},
		{"non-numeric balance", `{"balance":"lots","positions":[]}`, 1000, 0},
		{"boolean balance", `{"balance":true,"positions":[]}`, 1000, 0},
		{"positions not an array", `{"balance":10,"positions":{"a":1}}`, 10, 0},
		{"positions missing", `{"balance":10}`, 10, 0},
		{"non-object entries dropped", `{"balance":10,"positions":[1,"x",null,{"id":"M1:YES","marketId":"M1","side":"YES","quantity":5}]}`, 10, 1},
		{"zero balance kept", `{"balance":0,"positions":[]}`, 0, 0},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			kv := testingpkg.NewMockKeyValueStore()
			kv.Put("predictions-dashboard:alice:portfolio", tc.raw)
			store := NewStore(kv, "", 1000, zerolog.Nop())

			state, err := store.Load(context.Background(), "alice")
			require.NoError(t, err)
			assert.Equal(t, tc.balance, state.Balance)
			assert.Len(t, state.Positions, tc.positions)
			assert.NotNil(t, state.Positions)
		})
	}
}

func TestStore_LoadRepairsPositions(t *testing.T) {
	testCases := []struct {
		name      string
		positions string
		kept      int
	}{
		{"negative quantity dropped", `[{"marketId":"m","side":"YES","averagePrice":0.4,"quantity":-250,"totalInvested":-100}]`, 0},
		{"zero quantity dropped", `[{"marketId":"m","side":"YES","averagePrice":0.4,"quantity":0,"totalInvested":0}]`, 0},
		{"missing quantity dropped", `[{"marketId":"m","side":"YES","averagePrice":0.4,"totalInvested":100}]`, 0},
		{"negative investment dropped", `[{"marketId":"m","side":"NO","averagePrice":0.4,"quantity":250,"totalInvested":-100}]`, 0},
		{"unknown side dropped", `[{"marketId":"m","side":"MAYBE","averagePrice":0.4,"quantity":250,"totalInvested":100}]`, 0},
		{"missing market dropped", `[{"side":"YES","averagePrice":0.4,"quantity":250,"totalInvested":100}]`, 0},
		{"valid entries survive", `[{"marketId":"m","side":"YES","averagePrice":0.4,"quantity":-1,"totalInvested":1},{"marketId":"n","side":"NO","averagePrice":0.5,"quantity":200,"totalInvested":100}]`, 1},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			kv := testingpkg.NewMockKeyValueStore()
			kv.Put("predictions-dashboard:alice:portfolio", `{"balance":500,"positions":`+tc.positions+`}`)
			store := NewStore(kv, "", 1000, zerolog.Nop())

			state, err := store.Load(context.Background(), "alice")
			require.NoError(t, err)
			assert.Equal(t, 500.0, state.Balance)
			assert.Len(t, state.Positions, tc.kept)
		})
	}
}

func TestStore_LoadRebuildsDerivedPositionFields(t *testing.T) {
	kv := testingpkg.NewMockKeyValueStore()
	kv.Put("predictions-dashboard:alice:portfolio",
		`{"balance":500,"positions":[`+
			`{"id":"wrong","marketId":"M1","side":"yes","averagePrice":0.9,"quantity":200,"totalInvested":100},`+
			`{"id":"M2:NO","marketId":"M2","side":"NO","averagePrice":0.25,"quantity":400}]}`)
	store := NewStore(kv, "", 1000, zerolog.Nop())

	state, err := store.Load(context.Background(), "alice")
	require.NoError(t, err)
	require.Len(t, state.Positions, 2)

	first := state.Positions[0]
	assert.Equal(t, "M1:YES", first.ID)
	assert.Equal(t, domain.SideYes, first.Side)
	assert.Equal(t, 0.5, first.AveragePrice)

	second := state.Positions[1]
	assert.Equal(t, 100.0, second.TotalInvested)
	assert.Equal(t, 0.25, second.AveragePrice)
}

func TestStore_RepairedPositionAcceptsFurtherBuys(t *testing.T) {
	kv := testingpkg.NewMockKeyValueStore()
	kv.Put("predictions-dashboard:alice:portfolio",
		`{"positions":[{"marketId":"m","side":"YES","averagePrice":0.4,"quantity":-250,"totalInvested":-100}]}`)
	store := NewStore(kv, "", 1000, zerolog.Nop())
	accounts := NewAccounts(store, nil, zerolog.Nop())

	account, err := accounts.Acquire(context.Background(), "alice")
	require.NoError(t, err)
	defer accounts.Release(account)

	state, result, err := account.Buy(context.Background(), domain.BuyOrder{
		MarketID: "m", Side: domain.SideYes, Price: 0.5, Amount: 100, Timestamp: "t",
	})
	require.NoError(t, err)
	require.True(t, result.Success)
	require.Len(t, state.Positions, 1)
	assert.Equal(t, 200.0, state.Positions[0].Quantity)
	assert.Equal(t, 900.0, state.Balance)
}

func TestStore_LoadKeepsLooselyTypedPositions(t *testing.T) {
	kv := testingpkg.NewMockKeyValueStore()
	kv.Put("predictions-dashboard:alice:portfolio",
		`{"balance":900,"positions":[{"id":"7:NO","eventId":3,"marketId":7,"side":"NO","averagePrice":"0.5","quantity":200,"totalInvested":100}]}`)
	store := NewStore(kv, "", 1000, zerolog.Nop())

	state, err := store.Load(context.Background(), "alice")
	require.NoError(t, err)
	require.Len(t, state.Positions, 1)

	p := state.Positions[0]
	assert.Equal(t, "7", p.MarketID)
	assert.Equal(t, "3", p.EventID)
	assert.Equal(t, domain.SideNo, p.Side)
	assert.Equal(t, 0.5, p.AveragePrice)
	assert.Equal(t, 200.0, p.Quantity)
}

func TestStore_BackendErrors(t *testing.T) {
	kv := testingpkg.NewMockKeyValueStore()
	store := NewStore(kv, "", 1000, zerolog.Nop())
	ctx := context.Background()

	kv.SetGetError(errors.New("disk gone"))
	_, err := store.Load(ctx, "alice")
	assert.ErrorContains(t, err, "disk gone")

	kv.SetSetError(errors.New("read only"))
	assert.ErrorContains(t, store.Save(ctx, "alice", store.Default()), "read only")
}
