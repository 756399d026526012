package earlybirds

import (
	"math/big"
	"strings"
	"testing"
	"time"

	"github.com/Shivam-Patel-G/earlybirds/core/relay-chain/token"
	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	owner = common.HexToAddress("0x627306090abaB3A6e1400e9345bC60c78a8BEf57")
	alice = common.HexToAddress("0xf17f52151EbEF6C7334FAD080c5704D77216b732")
	bob   = common.HexToAddress("0xC5fdf4076b8F3A5357c5E395ab970B5B54098Fef")
	carl  = common.HexToAddress("0x821aEa9a577a9b44299B9c15c88cf3087F3b5544")

	wormiesAddr  = common.HexToAddress("0x345cA3e014Aaf5dcA488057592ee47305D9B3e10")
	contractAddr = common.HexToAddress("0xf25186B5081Ff5cE73482AD761DB0eB0d25abfBF")
)

const (
	title    = "Early Bird Offer"
	capacity = 1
)

type fixture struct {
	wormies  *token.Token
	contract *EarlyBirds
	block    uint64
}

func setup(t *testing.T) *fixture {
	t.Helper()
	wormies, err := token.NewWormies(wormiesAddr, owner, token.ToWei(1000000), nil)
	require.NoError(t, err)
	contract, err := New(contractAddr, owner, wormies, token.ToWei(100), nil)
	require.NoError(t, err)
	require.NoError(t, wormies.Transfer(owner, contractAddr, token.ToWei(10000)))
	return &fixture{wormies: wormies, contract: contract}
}

func (f *fixture) msg(from common.Address) Msg {
	f.block++
	return Msg{Sender: from, BlockNumber: f.block, Time: time.Now()}
}

func (f *fixture) addCampaign(t *testing.T, host common.Address, capacity uint64) Details {
	t.Helper()
	id, err := f.contract.AddCampaign(f.msg(host), title, capacity)
	require.NoError(t, err)
	details, err := f.contract.GetCampaignDetails(id)
	require.NoError(t, err)
	return details
}

func (f *fixture) balance(t *testing.T, addr common.Address) *big.Int {
	t.Helper()
	b, err := f.wormies.BalanceOf(addr)
	require.NoError(t, err)
	return b
}

func assertWei(t *testing.T, want, got *big.Int) {
	t.Helper()
	assert.Equal(t, want.String(), got.String())
}

func TestVariables(t *testing.T) {
	f := setup(t)

	assert.Equal(t, owner, f.contract.Owner())
	assert.Equal(t, uint64(0), f.contract.CampaignCount())
	assert.True(t, f.contract.Demo(), "demo mode starts enabled")
	assert.Equal(t, common.Address{}, f.contract.Admin())

	t.Run("State enum", func(t *testing.T) {
		for i, name := range []string{"Open", "Full", "Closed", "Airdropped"} {
			st, err := ParseState(name)
			require.NoError(t, err)
			assert.Equal(t, State(i), st)
			assert.Equal(t, name, st.String())
		}
		_, err := ParseState("Pending")
		assert.Error(t, err)
	})
}

func TestAddCampaign(t *testing.T) {
	f := setup(t)

	t.Run("Stores title, capacity, state and host", func(t *testing.T) {
		id, err := f.contract.AddCampaign(f.msg(alice), title, capacity)
		require.NoError(t, err)
		assert.Equal(t, uint64(1), id)
		assert.Equal(t, id, f.contract.GetCampaignID())

		details, err := f.contract.GetCampaignDetails(id)
		require.NoError(t, err)
		assert.Equal(t, title, details.Title)
		assert.Equal(t, uint64(capacity), details.Capacity)
		assert.Equal(t, Open, details.State)
		assert.Equal(t, alice, details.Host)
		assert.Len(t, details.Code, 8)
	})

	t.Run("Emits LogCampaignOpened", func(t *testing.T) {
		opened := f.contract.GetEventsByType(EventCampaignOpened)
		require.Len(t, opened, 1)
		assert.Equal(t, uint64(1), opened[0].CampaignID)
		assert.Equal(t, alice, opened[0].Account)
	})

	t.Run("Codes are unique", func(t *testing.T) {
		seen := map[string]bool{}
		for i := 0; i < 50; i++ {
			d := f.addCampaign(t, bob, 3)
			assert.False(t, seen[d.Code], "duplicate code %s", d.Code)
			seen[d.Code] = true
		}
		last, err := f.contract.GetLastCampaignDetails()
		require.NoError(t, err)
		assert.Equal(t, uint64(51), last.ID)
	})

	t.Run("Rejects bad input", func(t *testing.T) {
		_, err := f.contract.AddCampaign(f.msg(alice), "   ", 1)
		assert.ErrorIs(t, err, ErrInvalidTitle)

		_, err = f.contract.AddCampaign(f.msg(alice), title, 0)
		assert.ErrorIs(t, err, ErrInvalidCapacity)

		_, err = f.contract.AddCampaign(f.msg(common.Address{}), title, 1)
		assert.ErrorIs(t, err, ErrInvalidAddress)

		assert.Equal(t, uint64(51), f.contract.CampaignCount())
	})

	t.Run("Unknown campaign", func(t *testing.T) {
		_, err := f.contract.GetCampaignDetails(999)
		assert.ErrorIs(t, err, ErrCampaignNotFound)
	})
}

func TestRegister(t *testing.T) {
	t.Run("Registration fills the campaign", func(t *testing.T) {
		f := setup(t)
		d := f.addCampaign(t, alice, 1)

		var order []EventType
		f.contract.RegisterEventHandler(func(e Event) { order = append(order, e.Type) })

		id, err := f.contract.Register(f.msg(bob), d.Code)
		require.NoError(t, err)
		assert.Equal(t, d.ID, id)

		// the full notice precedes the registration log
		assert.Equal(t, []EventType{EventCampaignFull, EventRegistration}, order)

		after, err := f.contract.GetCampaignDetails(d.ID)
		require.NoError(t, err)
		assert.Equal(t, Full, after.State)
		assert.Equal(t, uint64(1), after.Registered)
	})

	t.Run("Cannot register twice", func(t *testing.T) {
		f := setup(t)
		d := f.addCampaign(t, alice, 2)
		_, err := f.contract.Register(f.msg(bob), d.Code)
		require.NoError(t, err)

		_, err = f.contract.Register(f.msg(bob), d.Code)
		assert.ErrorIs(t, err, ErrAlreadyRegistered)

		registrants, err := f.contract.Registrants(d.ID)
		require.NoError(t, err)
		assert.Equal(t, []common.Address{bob}, registrants)
	})

	t.Run("Cannot register once full", func(t *testing.T) {
		f := setup(t)
		d := f.addCampaign(t, alice, 1)
		_, err := f.contract.Register(f.msg(bob), d.Code)
		require.NoError(t, err)

		_, err = f.contract.Register(f.msg(carl), d.Code)
		assert.ErrorIs(t, err, ErrCampaignFull)

		ok, err := f.contract.IsRegistered(d.ID, carl)
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("Cannot register once closed", func(t *testing.T) {
		f := setup(t)
		d := f.addCampaign(t, alice, 5)
		require.NoError(t, f.contract.Close(f.msg(alice), d.ID))

		_, err := f.contract.Register(f.msg(bob), d.Code)
		assert.ErrorIs(t, err, ErrCampaignNotOpen)
	})

	t.Run("Unknown code", func(t *testing.T) {
		f := setup(t)
		_, err := f.contract.Register(f.msg(bob), "DEADBEEF")
		assert.ErrorIs(t, err, ErrCampaignNotFound)
	})

	t.Run("Contract cannot register", func(t *testing.T) {
		f := setup(t)
		d := f.addCampaign(t, alice, 2)
		_, err := f.contract.Register(f.msg(contractAddr), d.Code)
		assert.ErrorIs(t, err, ErrInvalidAddress)

		registrants, err := f.contract.Registrants(d.ID)
		require.NoError(t, err)
		assert.Empty(t, registrants)
	})

	t.Run("Code lookup is case and space insensitive", func(t *testing.T) {
		f := setup(t)
		d := f.addCampaign(t, alice, 2)
		_, err := f.contract.Register(f.msg(bob), "  "+strings.ToLower(d.Code)+" ")
		require.NoError(t, err)

		byCode, err := f.contract.CampaignByCode(strings.ToLower(d.Code))
		require.NoError(t, err)
		assert.Equal(t, d.ID, byCode.ID)
	})
}

func TestClose(t *testing.T) {
	t.Run("Host closes", func(t *testing.T) {
		f := setup(t)
		d := f.addCampaign(t, alice, 1)
		require.NoError(t, f.contract.Close(f.msg(alice), d.ID))

		after, _ := f.contract.GetCampaignDetails(d.ID)
		assert.Equal(t, Closed, after.State)
		assert.Len(t, f.contract.GetEventsByType(EventCampaignClosed), 1)
	})

	t.Run("Non-host cannot close", func(t *testing.T) {
		f := setup(t)
		d := f.addCampaign(t, alice, 1)
		assert.ErrorIs(t, f.contract.Close(f.msg(carl), d.ID), ErrNotHost)
		assert.ErrorIs(t, f.contract.Close(f.msg(owner), d.ID), ErrNotHost)

		after, _ := f.contract.GetCampaignDetails(d.ID)
		assert.Equal(t, Open, after.State)
	})

	t.Run("Full campaign can be closed once", func(t *testing.T) {
		f := setup(t)
		d := f.addCampaign(t, alice, 1)
		_, err := f.contract.Register(f.msg(bob), d.Code)
		require.NoError(t, err)

		require.NoError(t, f.contract.Close(f.msg(alice), d.ID))
		assert.ErrorIs(t, f.contract.Close(f.msg(alice), d.ID), ErrAlreadyClosed)
	})

	t.Run("Close latest", func(t *testing.T) {
		f := setup(t)
		_, err := f.contract.CloseLatest(f.msg(alice))
		assert.ErrorIs(t, err, ErrNoCampaigns)

		f.addCampaign(t, bob, 1)
		second := f.addCampaign(t, alice, 1)
		id, err := f.contract.CloseLatest(f.msg(alice))
		require.NoError(t, err)
		assert.Equal(t, second.ID, id)

		first, _ := f.contract.GetCampaignDetails(1)
		assert.Equal(t, Open, first.State)
	})
}

func TestAirdrop(t *testing.T) {
	reward := token.ToWei(100)

	registered := func(t *testing.T) (*fixture, Details) {
		f := setup(t)
		d := f.addCampaign(t, alice, capacity)
		_, err := f.contract.Register(f.msg(bob), d.Code)
		require.NoError(t, err)
		return f, d
	}

	t.Run("Owner can airdrop", func(t *testing.T) {
		f, d := registered(t)
		before := f.balance(t, bob)

		require.NoError(t, f.contract.Airdrop(f.msg(owner), d.ID))

		assertWei(t, new(big.Int).Add(before, reward), f.balance(t, bob))

		details, _ := f.contract.GetCampaignDetails(d.ID)
		assert.Equal(t, Airdropped, details.State)
	})

	t.Run("Registrant cannot airdrop", func(t *testing.T) {
		f, d := registered(t)
		assert.ErrorIs(t, f.contract.Airdrop(f.msg(bob), d.ID), ErrAirdropForbidden)
		assert.Equal(t, 0, f.balance(t, bob).Sign())
	})

	t.Run("Host can airdrop in demo mode", func(t *testing.T) {
		f, d := registered(t)
		require.NoError(t, f.contract.Airdrop(f.msg(alice), d.ID))
		assertWei(t, reward, f.balance(t, bob))
	})

	t.Run("Host cannot airdrop outside demo mode", func(t *testing.T) {
		f := setup(t)
		require.NoError(t, f.contract.SetDemo(f.msg(owner), false))
		d := f.addCampaign(t, alice, capacity)
		_, err := f.contract.Register(f.msg(bob), d.Code)
		require.NoError(t, err)

		assert.ErrorIs(t, f.contract.Airdrop(f.msg(alice), d.ID), ErrAirdropForbidden)
	})

	t.Run("Owner can appoint an admin who can airdrop", func(t *testing.T) {
		f, d := registered(t)
		require.NoError(t, f.contract.SetDemo(f.msg(owner), false))
		require.NoError(t, f.contract.SetAdmin(f.msg(owner), carl))

		require.NoError(t, f.contract.Airdrop(f.msg(carl), d.ID))
		assertWei(t, reward, f.balance(t, bob))
	})

	t.Run("Cannot airdrop twice", func(t *testing.T) {
		f, d := registered(t)
		require.NoError(t, f.contract.Airdrop(f.msg(owner), d.ID))
		assert.ErrorIs(t, f.contract.Airdrop(f.msg(owner), d.ID), ErrAlreadyAirdropped)
		assertWei(t, reward, f.balance(t, bob))
	})

	t.Run("Closed campaign can be airdropped but not reopened", func(t *testing.T) {
		f, d := registered(t)
		require.NoError(t, f.contract.Close(f.msg(alice), d.ID))
		require.NoError(t, f.contract.Airdrop(f.msg(owner), d.ID))
		assert.ErrorIs(t, f.contract.Close(f.msg(alice), d.ID), ErrAlreadyAirdropped)
	})

	t.Run("Underfunded contract reverts", func(t *testing.T) {
		wormies, err := token.NewWormies(wormiesAddr, owner, token.ToWei(1000), nil)
		require.NoError(t, err)
		contract, err := New(contractAddr, owner, wormies, token.ToWei(100), nil)
		require.NoError(t, err)
		require.NoError(t, wormies.Transfer(owner, contractAddr, token.ToWei(150)))

		f := &fixture{wormies: wormies, contract: contract}
		d := f.addCampaign(t, alice, 2)
		_, err = contract.Register(f.msg(bob), d.Code)
		require.NoError(t, err)
		_, err = contract.Register(f.msg(carl), d.Code)
		require.NoError(t, err)

		err = contract.Airdrop(f.msg(owner), d.ID)
		assert.ErrorIs(t, err, ErrAirdropFailed)
		assert.ErrorIs(t, err, token.ErrInsufficientBalance)

		details, _ := contract.GetCampaignDetails(d.ID)
		assert.Equal(t, Full, details.State)
		assert.Equal(t, 0, f.balance(t, bob).Sign())
		assertWei(t, token.ToWei(150), f.balance(t, contractAddr))
	})

	t.Run("Airdrop latest with no registrants", func(t *testing.T) {
		f := setup(t)
		f.addCampaign(t, alice, 3)
		id, err := f.contract.AirdropLatest(f.msg(alice))
		require.NoError(t, err)

		details, _ := f.contract.GetCampaignDetails(id)
		assert.Equal(t, Airdropped, details.State)
		assertWei(t, token.ToWei(10000), f.balance(t, contractAddr))
	})
}

func TestOwnerOnly(t *testing.T) {
	f := setup(t)

	assert.ErrorIs(t, f.contract.SetDemo(f.msg(alice), false), ErrNotOwner)
	assert.ErrorIs(t, f.contract.SetAdmin(f.msg(alice), alice), ErrNotOwner)
	assert.ErrorIs(t, f.contract.TransferOwnership(f.msg(alice), alice), ErrNotOwner)
	assert.True(t, f.contract.Demo())

	require.NoError(t, f.contract.TransferOwnership(f.msg(owner), alice))
	assert.Equal(t, alice, f.contract.Owner())
	assert.ErrorIs(t, f.contract.SetDemo(f.msg(owner), false), ErrNotOwner)

	require.NoError(t, f.contract.SetAdmin(f.msg(alice), bob))
	assert.Equal(t, bob, f.contract.Admin())
	require.NoError(t, f.contract.SetAdmin(f.msg(alice), common.Address{}))
	assert.Equal(t, common.Address{}, f.contract.Admin())

	assert.ErrorIs(t, f.contract.TransferOwnership(f.msg(alice), common.Address{}), ErrInvalidAddress)
}

func TestSnapshotRestore(t *testing.T) {
	f := setup(t)
	d := f.addCampaign(t, alice, 2)
	_, err := f.contract.Register(f.msg(bob), d.Code)
	require.NoError(t, err)
	require.NoError(t, f.contract.SetAdmin(f.msg(owner), carl))

	state := f.contract.Snapshot()

	restored, err := New(contractAddr, bob, f.wormies, big.NewInt(1), nil)
	require.NoError(t, err)
	require.NoError(t, restored.Restore(state))

	assert.Equal(t, owner, restored.Owner())
	assert.Equal(t, carl, restored.Admin())
	assertWei(t, token.ToWei(100), restored.Reward())

	// registration bookkeeping survives the round trip
	_, err = restored.Register(f.msg(bob), d.Code)
	assert.ErrorIs(t, err, ErrAlreadyRegistered)
	_, err = restored.Register(f.msg(carl), d.Code)
	require.NoError(t, err)

	details, _ := restored.GetCampaignDetails(d.ID)
	assert.Equal(t, Full, details.State)

	t.Run("Rejects incoherent state", func(t *testing.T) {
		bad := f.contract.Snapshot()
		bad.CampaignCount = 7
		assert.Error(t, restored.Restore(bad))

		bad = f.contract.Snapshot()
		bad.Campaigns[0].Registrants = append(bad.Campaigns[0].Registrants, bob)
		assert.Error(t, restored.Restore(bad))
	})
}

func TestEventHistoryIsBounded(t *testing.T) {
	defer func(limit int) { eventHistoryLimit = limit }(eventHistoryLimit)
	eventHistoryLimit = 4

	f := setup(t)
	for i := 0; i < 10; i++ {
		f.addCampaign(t, alice, 1)
	}

	events := f.contract.GetEvents()
	require.Len(t, events, 4)
	assert.Equal(t, uint64(7), events[0].CampaignID)
	assert.Equal(t, uint64(10), events[3].CampaignID)
	assert.LessOrEqual(t, len(f.contract.events), 5)
	assert.Len(t, f.contract.GetEventsByType(EventCampaignOpened), 4)
}
