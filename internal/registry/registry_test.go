package registry

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateTestDefaults(t *testing.T) {
	r := New()

	first := r.CreateTest("")
	assert.Equal(t, "Test 1", first.Name)
	assert.Equal(t, StatusPending, first.Status)
	assert.Equal(t, "tesSUCCESS", first.ExpectedResult)
	assert.Empty(t, first.TransactionType)
	assert.NotEmpty(t, first.ID)
	assert.Equal(t, first.ID, r.CurrentID())

	second := r.CreateTest("")
	assert.Equal(t, "Test 2", second.Name)
	assert.Equal(t, second.ID, r.CurrentID())

	named := r.CreateTest("escrow happy path")
	assert.Equal(t, "escrow happy path", named.Name)
}

func TestNameCounterNeverReused(t *testing.T) {
	r := New()

	first := r.CreateTest("")
	second := r.CreateTest("")
	r.RemoveTest(first.ID)
	r.RemoveTest(second.ID)

	third := r.CreateTest("")
	assert.Equal(t, "Test 3", third.Name)
}

func TestRemoveCurrentMovesPointer(t *testing.T) {
	r := New()
	a := r.CreateTest("")
	b := r.CreateTest("")
	c := r.CreateTest("")

	// c is current; removing it moves the pointer to the first remaining.
	require.Equal(t, c.ID, r.CurrentID())
	r.RemoveTest(c.ID)
	assert.Equal(t, a.ID, r.CurrentID())

	// Removing a non-current test never moves the pointer.
	r.RemoveTest(b.ID)
	assert.Equal(t, a.ID, r.CurrentID())

	// Removing the only remaining test clears the pointer.
	r.RemoveTest(a.ID)
	assert.Empty(t, r.CurrentID())
	assert.Empty(t, r.Tests())

	_, ok := r.Current()
	assert.False(t, ok)
}

func TestRemoveUnknownIsNoop(t *testing.T) {
	r := New()
	a := r.CreateTest("")

	r.RemoveTest("no-such-id")
	assert.Len(t, r.Tests(), 1)
	assert.Equal(t, a.ID, r.CurrentID())
}

func TestSwitchCurrent(t *testing.T) {
	r := New()
	a := r.CreateTest("")
	r.CreateTest("")

	require.NoError(t, r.SwitchCurrent(a.ID))
	assert.Equal(t, a.ID, r.CurrentID())

	err := r.SwitchCurrent("no-such-id")
	assert.ErrorIs(t, err, ErrTestNotFound)
	assert.Equal(t, a.ID, r.CurrentID())
}

func TestAddFieldRejectsDuplicate(t *testing.T) {
	r := New()
	tt := r.CreateTest("")

	require.NoError(t, r.AddField(tt.ID, "Destination", Scalar("rDest1")))
	err := r.AddField(tt.ID, "Destination", Scalar("rDest2"))
	assert.ErrorIs(t, err, ErrDuplicateField)

	// Original value preserved.
	got, ok := r.Test(tt.ID)
	require.True(t, ok)
	require.Len(t, got.Fields, 1)
	assert.Equal(t, Scalar("rDest1"), got.Fields[0].Value)
}

func TestFieldMutators(t *testing.T) {
	r := New()
	tt := r.CreateTest("")

	require.NoError(t, r.AddField(tt.ID, "Amount", Scalar("1000000")))
	require.NoError(t, r.AddField(tt.ID, "Destination", Scalar("rDest")))

	require.NoError(t, r.UpdateFieldValue(tt.ID, "Amount", IssuedAmount{
		Currency: "USD", Issuer: "rIssuer", Value: "10",
	}))
	got, _ := r.Test(tt.ID)
	assert.Equal(t, IssuedAmount{Currency: "USD", Issuer: "rIssuer", Value: "10"}, got.Fields[0].Value)

	assert.ErrorIs(t, r.UpdateFieldValue(tt.ID, "Nope", Scalar("x")), ErrFieldNotFound)

	require.NoError(t, r.RemoveField(tt.ID, "Amount"))
	got, _ = r.Test(tt.ID)
	require.Len(t, got.Fields, 1)
	assert.Equal(t, "Destination", got.Fields[0].Name)

	assert.ErrorIs(t, r.RemoveField(tt.ID, "Amount"), ErrFieldNotFound)
}

func TestSetStatusStampsSubmittedAt(t *testing.T) {
	r := New()
	tt := r.CreateTest("")

	require.NoError(t, r.SetStatus(tt.ID, StatusRunning, ""))
	got, _ := r.Test(tt.ID)
	assert.Equal(t, StatusRunning, got.Status)
	require.NotNil(t, got.SubmittedAt)

	require.NoError(t, r.SetStatus(tt.ID, StatusPassed, "tesSUCCESS"))
	got, _ = r.Test(tt.ID)
	assert.Equal(t, StatusPassed, got.Status)
	assert.Equal(t, "tesSUCCESS", got.ActualResult)
}

func TestSetStatusRunningDropsPreviousOutcome(t *testing.T) {
	r := New()
	tt := r.CreateTest("")
	require.NoError(t, r.SetStatus(tt.ID, StatusPassed, "tesSUCCESS"))
	require.NoError(t, r.SetHash(tt.ID, "OLDHASH"))

	require.NoError(t, r.SetStatus(tt.ID, StatusRunning, ""))

	got, _ := r.Test(tt.ID)
	assert.Equal(t, StatusRunning, got.Status)
	assert.Empty(t, got.Hash, "a re-run must not keep the previous submission's hash")
	assert.Empty(t, got.ActualResult)
	require.NotNil(t, got.SubmittedAt)
}

func TestResetAll(t *testing.T) {
	r := New()
	tt := r.CreateTest("")
	require.NoError(t, r.SetStatus(tt.ID, StatusRunning, ""))
	require.NoError(t, r.SetStatus(tt.ID, StatusFailed, "tecNO_DST"))
	require.NoError(t, r.SetHash(tt.ID, "ABCDEF"))

	r.ResetAll()

	got, _ := r.Test(tt.ID)
	assert.Equal(t, StatusPending, got.Status)
	assert.Empty(t, got.ActualResult)
	assert.Empty(t, got.Hash)
	assert.Nil(t, got.SubmittedAt)
}

func TestClearRecreatesDefaultTest(t *testing.T) {
	r := New()
	r.CreateTest("")
	r.CreateTest("")

	fresh := r.Clear()
	assert.Equal(t, "Test 1", fresh.Name)
	assert.Len(t, r.Tests(), 1)
	assert.Equal(t, fresh.ID, r.CurrentID())
}

func TestSnapshotRestoreRoundTrip(t *testing.T) {
	r := New()
	a := r.CreateTest("payment")
	require.NoError(t, r.SetTransactionType(a.ID, "Payment"))
	require.NoError(t, r.AddField(a.ID, "Amount", Scalar("1000000")))
	require.NoError(t, r.AddField(a.ID, "SendMax", IssuedAmount{Currency: "USD", Issuer: "rI", Value: "5"}))
	require.NoError(t, r.AddField(a.ID, "DeliverMin", TokenAmount{MPTIssuanceID: "00001234", Value: "7"}))
	b := r.CreateTest("")
	require.NoError(t, r.SwitchCurrent(a.ID))

	// Round-trip through JSON the way the persistence layer does.
	blob, err := json.Marshal(r.Snapshot())
	require.NoError(t, err)
	var snap Snapshot
	require.NoError(t, json.Unmarshal(blob, &snap))

	restored := New()
	restored.Restore(snap)

	assert.Equal(t, a.ID, restored.CurrentID())
	tests := restored.Tests()
	require.Len(t, tests, 2)
	assert.Equal(t, "payment", tests[0].Name)
	assert.Equal(t, "Payment", tests[0].TransactionType)
	require.Len(t, tests[0].Fields, 3)
	assert.Equal(t, Scalar("1000000"), tests[0].Fields[0].Value)
	assert.Equal(t, IssuedAmount{Currency: "USD", Issuer: "rI", Value: "5"}, tests[0].Fields[1].Value)
	assert.Equal(t, TokenAmount{MPTIssuanceID: "00001234", Value: "7"}, tests[0].Fields[2].Value)
	assert.Equal(t, b.ID, tests[1].ID)

	// Counter continues past restored names.
	next := restored.CreateTest("")
	assert.Equal(t, "Test 3", next.Name)
}

func TestRestoreRepairsDanglingCurrent(t *testing.T) {
	r := New()
	a := r.CreateTest("")

	snap := r.Snapshot()
	snap.CurrentID = "gone"
	restored := New()
	restored.Restore(snap)
	assert.Equal(t, a.ID, restored.CurrentID())
}

func TestSigningAccount(t *testing.T) {
	r := New()

	_, ok := r.SigningAccount()
	assert.False(t, ok)

	r.AddAccount(Account{Address: "rWatchOnly"})
	_, ok = r.SigningAccount()
	assert.False(t, ok)

	r.AddAccount(Account{Address: "rSigner", Seed: "sEd7..."})
	got, ok := r.SigningAccount()
	require.True(t, ok)
	assert.Equal(t, "rSigner", got.Address)
}

type failingPersister struct{ calls int }

func (p *failingPersister) SaveTests(Snapshot) error       { p.calls++; return assert.AnError }
func (p *failingPersister) SaveAccounts([]Account) error   { p.calls++; return assert.AnError }
func (p *failingPersister) SaveNetwork(string) error       { p.calls++; return assert.AnError }

func TestPersistenceFailuresAreNonFatal(t *testing.T) {
	p := &failingPersister{}
	r := New(WithPersister(p))

	tt := r.CreateTest("")
	require.NoError(t, r.AddField(tt.ID, "Amount", Scalar("1")))
	r.SetNetwork("testnet")
	r.AddAccount(Account{Address: "rX", Seed: "s"})

	assert.Equal(t, 4, p.calls)
	assert.Len(t, r.Tests(), 1)
	assert.Equal(t, "testnet", r.Network())
}
