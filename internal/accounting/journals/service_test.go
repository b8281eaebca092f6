package journals

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meridian-erp/meridian-erp/internal/accounting/accounts"
	"github.com/meridian-erp/meridian-erp/internal/accounting/shared"
	internalShared "github.com/meridian-erp/meridian-erp/internal/shared"
	_ "github.com/meridian-erp/meridian-erp/testing"
)

type mockRepository struct {
	mu sync.Mutex

	accounts    map[string]*accounts.Account
	entries     map[int64]*JournalEntry
	lines       map[int64][]JournalLine
	counters    map[string]int64
	invalidated map[int64]bool
	nextEntryID int64
	nextAccID   int64

	sourceKeys map[string]bool
}

func newMockRepository() *mockRepository {
	return &mockRepository{
		accounts:    make(map[string]*accounts.Account),
		entries:     make(map[int64]*JournalEntry),
		lines:       make(map[int64][]JournalLine),
		counters:    make(map[string]int64),
		invalidated: make(map[int64]bool),
		sourceKeys:  make(map[string]bool),
		nextEntryID: 1,
		nextAccID:   1,
	}
}

func (m *mockRepository) addAccount(code string, postable bool, status accounts.LifecycleStatus) *accounts.Account {
	m.mu.Lock()
	defer m.mu.Unlock()
	a := &accounts.Account{
		ID:                 m.nextAccID,
		Code:               code,
		Name:               "Account " + code,
		Type:               accounts.AccountTypeAsset,
		NormalBalance:      accounts.NormalBalanceDebit,
		AllowDirectPosting: postable,
		Status:             status,
	}
	m.nextAccID++
	m.accounts[code] = a
	return a
}

func (m *mockRepository) Get(ctx context.Context, tenantID uuid.UUID, entryID int64) (JournalEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[entryID]
	if !ok {
		return JournalEntry{}, shared.ErrJournalNotFound
	}
	out := *e
	out.Lines = m.lines[entryID]
	return out, nil
}

func (m *mockRepository) List(ctx context.Context, tenantID uuid.UUID, limit, offset int) ([]JournalEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []JournalEntry
	for _, e := range m.entries {
		out = append(out, *e)
	}
	return out, nil
}

func (m *mockRepository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return fn(ctx, &mockTxRepo{mock: m})
}

type mockTxRepo struct {
	mock *mockRepository
}

func (t *mockTxRepo) ResolveAccountForPosting(ctx context.Context, tenantID uuid.UUID, code string) (accounts.Account, error) {
	t.mock.mu.Lock()
	defer t.mock.mu.Unlock()
	a, ok := t.mock.accounts[code]
	if !ok {
		return accounts.Account{}, shared.ErrAccountNotFound
	}
	return *a, nil
}

func (t *mockTxRepo) SetAccountStatus(ctx context.Context, tenantID uuid.UUID, accountID int64, status accounts.LifecycleStatus) error {
	t.mock.mu.Lock()
	defer t.mock.mu.Unlock()
	for _, a := range t.mock.accounts {
		if a.ID == accountID {
			a.Status = status
			return nil
		}
	}
	return shared.ErrAccountNotFound
}

func (t *mockTxRepo) NextEntrySequence(ctx context.Context, tenantID uuid.UUID, day time.Time, prefix string) (int64, error) {
	t.mock.mu.Lock()
	defer t.mock.mu.Unlock()
	key := fmt.Sprintf("%s/%s/%s", tenantID, day.Format("20060102"), prefix)
	t.mock.counters[key]++
	return t.mock.counters[key], nil
}

func (t *mockTxRepo) InsertEntry(ctx context.Context, e JournalEntry) (JournalEntry, error) {
	t.mock.mu.Lock()
	defer t.mock.mu.Unlock()
	sourceKey := fmt.Sprintf("%s/%s/%s", e.TenantID, e.ReferenceType, e.ReferenceID)
	if t.mock.sourceKeys[sourceKey] {
		return JournalEntry{}, shared.ErrSourceAlreadyPosted
	}
	t.mock.sourceKeys[sourceKey] = true
	e.ID = t.mock.nextEntryID
	t.mock.nextEntryID++
	e.Status = EntryStatusPosted
	now := time.Now()
	e.PostedAt = now
	e.CreatedAt = now
	stored := e
	t.mock.entries[e.ID] = &stored
	return e, nil
}

func (t *mockTxRepo) InsertLines(ctx context.Context, entryID int64, lines []JournalLine) error {
	t.mock.mu.Lock()
	defer t.mock.mu.Unlock()
	t.mock.lines[entryID] = append([]JournalLine(nil), lines...)
	return nil
}

func (t *mockTxRepo) GetEntryForUpdate(ctx context.Context, tenantID uuid.UUID, entryID int64) (JournalEntry, error) {
	t.mock.mu.Lock()
	defer t.mock.mu.Unlock()
	e, ok := t.mock.entries[entryID]
	if !ok {
		return JournalEntry{}, shared.ErrJournalNotFound
	}
	out := *e
	out.Lines = t.mock.lines[entryID]
	return out, nil
}

func (t *mockTxRepo) MarkReversed(ctx context.Context, tenantID uuid.UUID, originalID, reversalID int64) error {
	t.mock.mu.Lock()
	defer t.mock.mu.Unlock()
	e, ok := t.mock.entries[originalID]
	if !ok || e.Status != EntryStatusPosted {
		return shared.ErrInvalidStatus
	}
	e.Status = EntryStatusReversed
	e.ReversedBy = &reversalID
	return nil
}

func (t *mockTxRepo) InvalidateBalances(ctx context.Context, tenantID uuid.UUID, accountIDs []int64) error {
	t.mock.mu.Lock()
	defer t.mock.mu.Unlock()
	for _, id := range accountIDs {
		t.mock.invalidated[id] = true
	}
	return nil
}

// replayTotals sums lines the way the balance replay reads them: entries
// that are posted or reversed count, cancelled ones never do.
func (m *mockRepository) replayTotals(accountID int64) (debit, credit float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, e := range m.entries {
		if e.Status != EntryStatusPosted && e.Status != EntryStatusReversed {
			continue
		}
		for _, line := range m.lines[id] {
			if line.AccountID != accountID {
				continue
			}
			debit += line.Debit
			credit += line.Credit
		}
	}
	return debit, credit
}

type stubGuard struct {
	err error
}

func (g stubGuard) EnsureOpenForPosting(ctx context.Context, tenantID uuid.UUID, date time.Time) error {
	return g.err
}

type captureAudit struct {
	mu   sync.Mutex
	logs []internalShared.AuditLog
}

func (a *captureAudit) Record(ctx context.Context, log internalShared.AuditLog) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.logs = append(a.logs, log)
	return nil
}

func newTestService(repo *mockRepository) (*Service, *captureAudit) {
	audit := &captureAudit{}
	svc := NewService(repo, stubGuard{}, audit)
	svc.WithNow(func() time.Time { return time.Date(2025, 3, 7, 10, 0, 0, 0, time.UTC) })
	return svc, audit
}

func salesInput(tenantID uuid.UUID) PostingInput {
	return PostingInput{
		TenantID:      tenantID,
		Date:          time.Date(2025, 3, 7, 0, 0, 0, 0, time.UTC),
		ReferenceType: ReferenceSale,
		ReferenceID:   uuid.New(),
		Memo:          "Invoice 42",
		CreatedBy:     9,
		Lines: []PostingLineInput{
			{AccountCode: "1100", Debit: 110},
			{AccountCode: "4010", Credit: 100},
			{AccountCode: "2100", Credit: 10},
		},
	}
}

func TestPostHappyPath(t *testing.T) {
	repo := newMockRepository()
	ar := repo.addAccount("1100", true, accounts.StatusActive)
	rev := repo.addAccount("4010", true, accounts.StatusActive)
	tax := repo.addAccount("2100", true, accounts.StatusActive)
	svc, audit := newTestService(repo)

	tenantID := uuid.New()
	entry, err := svc.Post(context.Background(), salesInput(tenantID))
	require.NoError(t, err)

	assert.Equal(t, "SAL-20250307-0001", entry.Number)
	assert.Equal(t, EntryStatusPosted, entry.Status)
	assert.InDelta(t, 110, entry.TotalDebit, 0.001)
	assert.InDelta(t, 110, entry.TotalCredit, 0.001)
	require.Len(t, entry.Lines, 3)
	assert.Equal(t, "Account 1100", entry.Lines[0].AccountName)

	for _, id := range []int64{ar.ID, rev.ID, tax.ID} {
		assert.True(t, repo.invalidated[id], "balance cache should be invalidated")
	}
	require.Len(t, audit.logs, 1)
	assert.Equal(t, "journal.post", audit.logs[0].Action)
	assert.Equal(t, tenantID, audit.logs[0].TenantID)
}

func TestPostSequencePerDayAndPrefix(t *testing.T) {
	repo := newMockRepository()
	repo.addAccount("1100", true, accounts.StatusActive)
	repo.addAccount("4010", true, accounts.StatusActive)
	repo.addAccount("2100", true, accounts.StatusActive)
	svc, _ := newTestService(repo)
	tenantID := uuid.New()

	first, err := svc.Post(context.Background(), salesInput(tenantID))
	require.NoError(t, err)
	second, err := svc.Post(context.Background(), salesInput(tenantID))
	require.NoError(t, err)
	assert.Equal(t, "SAL-20250307-0001", first.Number)
	assert.Equal(t, "SAL-20250307-0002", second.Number)

	// A different reference type runs its own sequence.
	manual := salesInput(tenantID)
	manual.ReferenceType = ReferenceManual
	entry, err := svc.Post(context.Background(), manual)
	require.NoError(t, err)
	assert.Equal(t, "JE-20250307-0001", entry.Number)
}

func TestPostRejectsClosedPeriod(t *testing.T) {
	repo := newMockRepository()
	repo.addAccount("1100", true, accounts.StatusActive)
	repo.addAccount("4010", true, accounts.StatusActive)
	repo.addAccount("2100", true, accounts.StatusActive)
	audit := &captureAudit{}
	svc := NewService(repo, stubGuard{err: shared.ErrPeriodClosed}, audit)

	_, err := svc.Post(context.Background(), salesInput(uuid.New()))
	assert.ErrorIs(t, err, shared.ErrPeriodClosed)
	assert.Empty(t, repo.entries)
}

func TestPostRejectsSummaryAccount(t *testing.T) {
	repo := newMockRepository()
	repo.addAccount("1100", false, accounts.StatusActive)
	repo.addAccount("4010", true, accounts.StatusActive)
	repo.addAccount("2100", true, accounts.StatusActive)
	svc, _ := newTestService(repo)

	_, err := svc.Post(context.Background(), salesInput(uuid.New()))
	assert.ErrorIs(t, err, shared.ErrParentPostingDenied)
}

func TestPostRestoresDeletedAccount(t *testing.T) {
	repo := newMockRepository()
	deleted := repo.addAccount("1100", true, accounts.StatusDeleted)
	repo.addAccount("4010", true, accounts.StatusActive)
	repo.addAccount("2100", true, accounts.StatusActive)
	svc, _ := newTestService(repo)

	_, err := svc.Post(context.Background(), salesInput(uuid.New()))
	require.NoError(t, err)
	assert.Equal(t, accounts.StatusActive, deleted.Status)
}

func TestPostInactiveManualAccountFails(t *testing.T) {
	repo := newMockRepository()
	inactive := repo.addAccount("1100", true, accounts.StatusInactive)
	inactive.Origin = accounts.OriginManual
	repo.addAccount("4010", true, accounts.StatusActive)
	repo.addAccount("2100", true, accounts.StatusActive)
	svc, _ := newTestService(repo)

	_, err := svc.Post(context.Background(), salesInput(uuid.New()))
	assert.ErrorIs(t, err, shared.ErrAccountNotFound)
}

func TestPostInactiveSystemAccountReactivates(t *testing.T) {
	repo := newMockRepository()
	inactive := repo.addAccount("1100", true, accounts.StatusInactive)
	inactive.IsSystemAccount = true
	repo.addAccount("4010", true, accounts.StatusActive)
	repo.addAccount("2100", true, accounts.StatusActive)
	svc, _ := newTestService(repo)

	_, err := svc.Post(context.Background(), salesInput(uuid.New()))
	require.NoError(t, err)
	assert.Equal(t, accounts.StatusActive, inactive.Status)
}

func TestPostRejectsReconLockedAccount(t *testing.T) {
	repo := newMockRepository()
	locked := repo.addAccount("1100", true, accounts.StatusActive)
	owner := int64(5)
	expires := time.Date(2025, 3, 7, 12, 0, 0, 0, time.UTC)
	locked.Recon.LockedBy = &owner
	locked.Recon.LockExpiresAt = &expires
	repo.addAccount("4010", true, accounts.StatusActive)
	repo.addAccount("2100", true, accounts.StatusActive)
	svc, _ := newTestService(repo)

	_, err := svc.Post(context.Background(), salesInput(uuid.New()))
	assert.ErrorIs(t, err, shared.ErrReconciliationLocked)
}

func TestPostDuplicateSourceRejected(t *testing.T) {
	repo := newMockRepository()
	repo.addAccount("1100", true, accounts.StatusActive)
	repo.addAccount("4010", true, accounts.StatusActive)
	repo.addAccount("2100", true, accounts.StatusActive)
	svc, _ := newTestService(repo)

	in := salesInput(uuid.New())
	_, err := svc.Post(context.Background(), in)
	require.NoError(t, err)
	_, err = svc.Post(context.Background(), in)
	assert.ErrorIs(t, err, shared.ErrSourceAlreadyPosted)
}

func TestReverseSwapsSides(t *testing.T) {
	repo := newMockRepository()
	repo.addAccount("1100", true, accounts.StatusActive)
	repo.addAccount("4010", true, accounts.StatusActive)
	repo.addAccount("2100", true, accounts.StatusActive)
	svc, _ := newTestService(repo)
	tenantID := uuid.New()

	original, err := svc.Post(context.Background(), salesInput(tenantID))
	require.NoError(t, err)

	reversal, err := svc.Reverse(context.Background(), ReverseInput{
		TenantID: tenantID,
		EntryID:  original.ID,
		ActorID:  9,
	})
	require.NoError(t, err)

	require.Len(t, reversal.Lines, 3)
	for i, line := range reversal.Lines {
		assert.InDelta(t, original.Lines[i].Credit, line.Debit, 0.001)
		assert.InDelta(t, original.Lines[i].Debit, line.Credit, 0.001)
	}
	require.NotNil(t, reversal.ReversalOf)
	assert.Equal(t, original.ID, *reversal.ReversalOf)
	assert.Contains(t, reversal.Memo, original.Number)

	stored, err := svc.Get(context.Background(), tenantID, original.ID)
	require.NoError(t, err)
	assert.Equal(t, EntryStatusReversed, stored.Status)
	require.NotNil(t, stored.ReversedBy)
	assert.Equal(t, reversal.ID, *stored.ReversedBy)
}

func TestReverseRestoresReplayBalances(t *testing.T) {
	repo := newMockRepository()
	ar := repo.addAccount("1100", true, accounts.StatusActive)
	rev := repo.addAccount("4010", true, accounts.StatusActive)
	tax := repo.addAccount("2100", true, accounts.StatusActive)
	svc, _ := newTestService(repo)
	tenantID := uuid.New()

	original, err := svc.Post(context.Background(), salesInput(tenantID))
	require.NoError(t, err)
	_, err = svc.Reverse(context.Background(), ReverseInput{TenantID: tenantID, EntryID: original.ID, ActorID: 9})
	require.NoError(t, err)

	// The original stays in the replay as REVERSED next to its POSTED
	// mirror, so every touched account nets back to zero.
	for _, a := range []*accounts.Account{ar, rev, tax} {
		debit, credit := repo.replayTotals(a.ID)
		assert.InDelta(t, debit, credit, 0.001, "account %s", a.Code)
		assert.Greater(t, debit+credit, 0.0, "account %s replay must see both entries", a.Code)
	}
}

func TestReverseTwiceRejected(t *testing.T) {
	repo := newMockRepository()
	repo.addAccount("1100", true, accounts.StatusActive)
	repo.addAccount("4010", true, accounts.StatusActive)
	repo.addAccount("2100", true, accounts.StatusActive)
	svc, _ := newTestService(repo)
	tenantID := uuid.New()

	original, err := svc.Post(context.Background(), salesInput(tenantID))
	require.NoError(t, err)

	_, err = svc.Reverse(context.Background(), ReverseInput{TenantID: tenantID, EntryID: original.ID, ActorID: 9})
	require.NoError(t, err)
	_, err = svc.Reverse(context.Background(), ReverseInput{TenantID: tenantID, EntryID: original.ID, ActorID: 9})
	assert.ErrorIs(t, err, shared.ErrAlreadyReversed)
}

func TestPostConcurrentUniqueNumbers(t *testing.T) {
	repo := newMockRepository()
	repo.addAccount("1100", true, accounts.StatusActive)
	repo.addAccount("4010", true, accounts.StatusActive)
	repo.addAccount("2100", true, accounts.StatusActive)
	svc, _ := newTestService(repo)
	tenantID := uuid.New()

	const n = 20
	numbers := make(chan string, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			entry, err := svc.Post(context.Background(), salesInput(tenantID))
			if err != nil {
				t.Errorf("post failed: %v", err)
				return
			}
			numbers <- entry.Number
		}()
	}
	wg.Wait()
	close(numbers)

	seen := make(map[string]bool)
	for number := range numbers {
		if seen[number] {
			t.Fatalf("duplicate entry number %s", number)
		}
		seen[number] = true
	}
	assert.Len(t, seen, n)
}
