package chain

import (
	"math/big"
	"path/filepath"
	"testing"
	"time"

	"github.com/Shivam-Patel-G/earlybirds/core/relay-chain/earlybirds"
	"github.com/Shivam-Patel-G/earlybirds/core/relay-chain/storage"
	"github.com/Shivam-Patel-G/earlybirds/core/relay-chain/token"
	"github.com/Shivam-Patel-G/earlybirds/core/relay-chain/txlog"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	owner = common.HexToAddress("0x627306090abaB3A6e1400e9345bC60c78a8BEf57")
	alice = common.HexToAddress("0xf17f52151EbEF6C7334FAD080c5704D77216b732")
	bob   = common.HexToAddress("0xC5fdf4076b8F3A5357c5E395ab970B5B54098Fef")
	carl  = common.HexToAddress("0x821aEa9a577a9b44299B9c15c88cf3087F3b5544")
)

func testOptions(store storage.Store) Options {
	return Options{
		Owner:   owner,
		Supply:  token.ToWei(1000000000),
		Funding: token.ToWei(1000000),
		Reward:  token.ToWei(100),
		Store:   store,
	}
}

func newTestChain(t *testing.T) *Blockchain {
	t.Helper()
	b, err := New(testOptions(storage.NewMemory()))
	require.NoError(t, err)
	return b
}

func balance(t *testing.T, b *Blockchain, addr common.Address) string {
	t.Helper()
	bal, err := b.Token().BalanceOf(addr)
	require.NoError(t, err)
	return bal.String()
}

func addCampaign(t *testing.T, b *Blockchain, host common.Address, capacity uint64) (uint64, string) {
	t.Helper()
	r, err := b.AddCampaign(host, "Early Bird Offer", capacity)
	require.NoError(t, err)
	return r.Return["id"].(uint64), r.Return["code"].(string)
}

func TestGenesis(t *testing.T) {
	b := newTestChain(t)

	assert.Equal(t, crypto.CreateAddress(owner, 0), b.Token().Address)
	assert.Equal(t, crypto.CreateAddress(owner, 1), b.Contract().Address())
	assert.Equal(t, owner, b.Contract().Owner())

	// funding transfer is the first block
	assert.Equal(t, uint64(1), b.BlockNumber())
	assert.Equal(t, uint64(3), b.Nonce(owner))

	assert.Equal(t, token.ToWei(1000000).String(), balance(t, b, b.Contract().Address()))
	assert.Equal(t, token.ToWei(999000000).String(), balance(t, b, owner))

	receipts, err := b.Receipts(0)
	require.NoError(t, err)
	require.Len(t, receipts, 1)
	assert.Equal(t, MethodTransfer, receipts[0].Method)
	assert.Equal(t, []string{"Transfer"}, receipts[0].EventNames())
}

func TestGenesisValidation(t *testing.T) {
	_, err := New(Options{Supply: token.ToWei(1)})
	assert.ErrorIs(t, err, ErrInvalidSender)

	_, err = New(Options{Owner: owner})
	assert.Error(t, err)
}

func TestCampaignLifecycle(t *testing.T) {
	b := newTestChain(t)

	id, code := addCampaign(t, b, alice, 1)
	assert.Equal(t, uint64(1), id)
	assert.Len(t, code, 8)

	t.Run("Register logs full before registration", func(t *testing.T) {
		r, err := b.Register(bob, code)
		require.NoError(t, err)
		assert.True(t, r.Succeeded())
		assert.Equal(t, []string{"LogCampaignFull", "LogRegistration"}, r.EventNames())
		for i, l := range r.Logs {
			assert.Equal(t, uint(i), l.Index)
			assert.Equal(t, r.TxHash, l.TxHash)
			assert.Equal(t, r.BlockNumber, l.BlockNumber)
			assert.Equal(t, b.Contract().Address(), l.Address)
		}
	})

	t.Run("Reverted registration", func(t *testing.T) {
		block := b.BlockNumber()
		nonce := b.Nonce(carl)

		r, err := b.Register(carl, code)
		assert.ErrorIs(t, err, earlybirds.ErrCampaignFull)
		require.NotNil(t, r)
		assert.Equal(t, ReceiptStatusFailed, r.Status)
		assert.Equal(t, earlybirds.ErrCampaignFull.Error(), r.Error)
		assert.Empty(t, r.Logs)

		assert.Equal(t, block+1, b.BlockNumber())
		assert.Equal(t, nonce+1, b.Nonce(carl))
	})

	t.Run("Host airdrops in demo mode", func(t *testing.T) {
		r, err := b.Airdrop(alice, id)
		require.NoError(t, err)
		assert.Equal(t, []string{"Transfer", "LogAirdrop"}, r.EventNames())
		assert.Equal(t, b.Token().Address, r.Logs[0].Address)
		assert.Equal(t, token.ToWei(100).String(), r.Logs[0].Data["value"])
		assert.Equal(t, token.ToWei(100).String(), balance(t, b, bob))
	})

	t.Run("Close after airdrop reverts", func(t *testing.T) {
		_, err := b.CloseCampaign(alice, id)
		assert.ErrorIs(t, err, earlybirds.ErrAlreadyAirdropped)
	})
}

func TestLatestCampaignCalls(t *testing.T) {
	b := newTestChain(t)

	_, err := b.CloseLatestCampaign(alice)
	assert.ErrorIs(t, err, earlybirds.ErrNoCampaigns)

	addCampaign(t, b, alice, 5)
	id, code := addCampaign(t, b, alice, 5)
	_, err = b.Register(bob, code)
	require.NoError(t, err)

	r, err := b.CloseLatestCampaign(alice)
	require.NoError(t, err)
	assert.Equal(t, id, r.Return["id"])

	_, err = b.SetDemo(owner, false)
	require.NoError(t, err)
	_, err = b.AirdropLatestCampaign(alice)
	assert.ErrorIs(t, err, earlybirds.ErrAirdropForbidden)

	_, err = b.SetAdmin(owner, carl)
	require.NoError(t, err)
	r, err = b.AirdropLatestCampaign(carl)
	require.NoError(t, err)
	assert.Equal(t, id, r.Return["id"])

	details, err := b.Contract().GetCampaignDetails(id)
	require.NoError(t, err)
	assert.Equal(t, earlybirds.Airdropped, details.State)
}

func TestOwnershipAndTransfer(t *testing.T) {
	b := newTestChain(t)

	_, err := b.TransferOwnership(alice, bob)
	assert.ErrorIs(t, err, earlybirds.ErrNotOwner)

	r, err := b.TransferOwnership(owner, alice)
	require.NoError(t, err)
	assert.Equal(t, []string{"LogOwnershipTransferred"}, r.EventNames())
	assert.Equal(t, alice, b.Contract().Owner())

	_, err = b.Transfer(owner, bob, token.ToWei(5))
	require.NoError(t, err)
	assert.Equal(t, token.ToWei(5).String(), balance(t, b, bob))

	_, err = b.Transfer(bob, carl, token.ToWei(6))
	assert.ErrorIs(t, err, token.ErrInsufficientBalance)

	_, err = b.Transfer(common.Address{}, carl, token.ToWei(1))
	assert.ErrorIs(t, err, ErrInvalidSender)
}

func TestReceiptLookup(t *testing.T) {
	b := newTestChain(t)
	first, err := b.AddCampaign(alice, "One", 2)
	require.NoError(t, err)
	second, err := b.AddCampaign(alice, "Two", 2)
	require.NoError(t, err)

	got, err := b.Receipt(first.TxHash)
	require.NoError(t, err)
	assert.Equal(t, first.BlockNumber, got.BlockNumber)
	assert.Equal(t, MethodAddCampaign, got.Method)

	_, err = b.Receipt(common.HexToHash("0x01"))
	assert.ErrorIs(t, err, ErrReceiptNotFound)

	latest, err := b.Receipts(2)
	require.NoError(t, err)
	require.Len(t, latest, 2)
	assert.Equal(t, second.TxHash, latest[0].TxHash)
	assert.Equal(t, first.TxHash, latest[1].TxHash)
}

func TestSubscribe(t *testing.T) {
	b := newTestChain(t)
	ch, cancel := b.Subscribe(4)

	r, err := b.AddCampaign(alice, "Stream", 1)
	require.NoError(t, err)

	select {
	case got := <-ch:
		assert.Equal(t, r.TxHash, got.TxHash)
	case <-time.After(time.Second):
		t.Fatal("receipt not delivered")
	}

	cancel()
	cancel()
	_, open := <-ch
	assert.False(t, open)

	_, err = b.AddCampaign(alice, "After cancel", 1)
	require.NoError(t, err)
}

func TestRestoreFromStore(t *testing.T) {
	dir := t.TempDir()
	store, err := storage.OpenBolt(filepath.Join(dir, "chain.db"))
	require.NoError(t, err)

	b, err := New(testOptions(store))
	require.NoError(t, err)
	_, code := addCampaign(t, b, alice, 2)
	_, err = b.Register(bob, code)
	require.NoError(t, err)
	_, err = b.SetAdmin(owner, carl)
	require.NoError(t, err)

	block := b.BlockNumber()
	nonce := b.Nonce(alice)
	contractBalance := balance(t, b, b.Contract().Address())
	require.NoError(t, b.Close())

	store, err = storage.OpenBolt(filepath.Join(dir, "chain.db"))
	require.NoError(t, err)
	// genesis settings are ignored once a snapshot exists
	opts := testOptions(store)
	opts.Funding = token.ToWei(1)
	restored, err := New(opts)
	require.NoError(t, err)
	defer restored.Close()

	assert.Equal(t, block, restored.BlockNumber())
	assert.Equal(t, nonce, restored.Nonce(alice))
	assert.Equal(t, carl, restored.Contract().Admin())
	assert.Equal(t, contractBalance, balance(t, restored, restored.Contract().Address()))

	_, err = restored.Register(bob, code)
	assert.ErrorIs(t, err, earlybirds.ErrAlreadyRegistered)

	r, err := restored.Register(carl, code)
	require.NoError(t, err)
	assert.Equal(t, block+2, r.BlockNumber)
	assert.Equal(t, []string{"LogCampaignFull", "LogRegistration"}, r.EventNames())
}

func TestJournal(t *testing.T) {
	journal, err := txlog.NewJournal(txlog.Config{Path: filepath.Join(t.TempDir(), "tx.jsonl")})
	require.NoError(t, err)

	opts := testOptions(storage.NewMemory())
	opts.Journal = journal
	b, err := New(opts)
	require.NoError(t, err)

	_, err = b.Register(bob, "NOPE0000")
	assert.ErrorIs(t, err, earlybirds.ErrCampaignNotFound)

	// funding transfer plus the reverted registration
	assert.Equal(t, uint64(2), journal.Written())
	require.NoError(t, b.Close())
}

func TestTransactionHash(t *testing.T) {
	at := time.Unix(1700000000, 0)
	a := NewTransaction(alice, bob, MethodRegister, map[string]interface{}{"code": "ABCD1234"}, 0, at)
	b := NewTransaction(alice, bob, MethodRegister, map[string]interface{}{"code": "ABCD1234"}, 1, at)

	assert.Equal(t, a.Hash, a.CalculateHash())
	assert.NotEqual(t, a.Hash, b.Hash)
	assert.Equal(t, uint64(21000+2*375), gasUsed(2))
	assert.Equal(t, 0, new(big.Int).SetUint64(gasUsed(0)).Cmp(big.NewInt(21000)))
}
