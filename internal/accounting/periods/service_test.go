package periods

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meridian-erp/meridian-erp/internal/accounting/shared"
	internalShared "github.com/meridian-erp/meridian-erp/internal/shared"
	_ "github.com/meridian-erp/meridian-erp/testing"
)

type mockRepository struct {
	years        map[int64]*FiscalYear
	periods      map[int64]*Period
	nextYearID   int64
	nextPeriodID int64
}

func newMockRepository() *mockRepository {
	return &mockRepository{
		years:        make(map[int64]*FiscalYear),
		periods:      make(map[int64]*Period),
		nextYearID:   1,
		nextPeriodID: 1,
	}
}

func (m *mockRepository) addPeriod(p Period) *Period {
	p.ID = m.nextPeriodID
	m.nextPeriodID++
	if p.Status == "" {
		p.Status = PeriodStatusOpen
	}
	stored := p
	m.periods[p.ID] = &stored
	return &stored
}

func (m *mockRepository) FindByDate(ctx context.Context, tenantID uuid.UUID, date time.Time) (Period, error) {
	for _, p := range m.periods {
		if p.Contains(date) {
			return *p, nil
		}
	}
	return Period{}, shared.ErrPeriodNotFound
}

func (m *mockRepository) ListYearPeriods(ctx context.Context, tenantID uuid.UUID, year int) ([]Period, error) {
	var out []Period
	for _, p := range m.periods {
		if p.StartDate.Year() == year {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (m *mockRepository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return fn(ctx, &mockTx{mock: m})
}

type mockTx struct {
	mock *mockRepository
}

func (t *mockTx) InsertYear(ctx context.Context, fy FiscalYear) (FiscalYear, error) {
	for _, existing := range t.mock.years {
		if existing.Year == fy.Year {
			return FiscalYear{}, shared.ErrInvalidPeriodTransition
		}
	}
	fy.ID = t.mock.nextYearID
	t.mock.nextYearID++
	fy.Status = YearStatusOpen
	stored := fy
	t.mock.years[fy.ID] = &stored
	return fy, nil
}

func (t *mockTx) InsertPeriod(ctx context.Context, p Period) (Period, error) {
	p.Status = PeriodStatusOpen
	return *t.mock.addPeriod(p), nil
}

func (t *mockTx) GetPeriodForUpdate(ctx context.Context, tenantID uuid.UUID, periodID int64) (Period, error) {
	p, ok := t.mock.periods[periodID]
	if !ok {
		return Period{}, shared.ErrPeriodNotFound
	}
	return *p, nil
}

func (t *mockTx) GetYearForUpdate(ctx context.Context, tenantID uuid.UUID, year int) (FiscalYear, error) {
	for _, fy := range t.mock.years {
		if fy.Year == year {
			return *fy, nil
		}
	}
	return FiscalYear{}, shared.ErrPeriodNotFound
}

func (t *mockTx) UpdatePeriodStatus(ctx context.Context, p Period) error {
	stored, ok := t.mock.periods[p.ID]
	if !ok {
		return shared.ErrPeriodNotFound
	}
	*stored = p
	return nil
}

func (t *mockTx) CountPeriodsNotClosed(ctx context.Context, fiscalYearID int64) (int, error) {
	n := 0
	for _, p := range t.mock.periods {
		if p.FiscalYearID == fiscalYearID && p.Status != PeriodStatusClosed {
			n++
		}
	}
	return n, nil
}

func (t *mockTx) CloseYear(ctx context.Context, fiscalYearID, actorID int64, at time.Time) error {
	fy, ok := t.mock.years[fiscalYearID]
	if !ok || fy.Status != YearStatusOpen {
		return shared.ErrInvalidPeriodTransition
	}
	fy.Status = YearStatusClosed
	fy.ClosedBy = &actorID
	fy.ClosedAt = &at
	return nil
}

type stubLocker struct {
	err      error
	acquired int
	released int
}

func (l *stubLocker) Acquire(ctx context.Context, key string, ttl time.Duration) (func(context.Context) error, error) {
	if l.err != nil {
		return nil, l.err
	}
	l.acquired++
	return func(context.Context) error {
		l.released++
		return nil
	}, nil
}

func newTestService(repo *mockRepository, locker Locker) *Service {
	svc := NewService(repo, nil, locker)
	svc.WithNow(func() time.Time { return time.Date(2025, 3, 7, 10, 0, 0, 0, time.UTC) })
	return svc
}

func TestBootstrapYear(t *testing.T) {
	repo := newMockRepository()
	svc := newTestService(repo, nil)
	tenantID := uuid.New()

	fy, list, err := svc.BootstrapYear(context.Background(), tenantID, 2025, 1)
	require.NoError(t, err)
	assert.Equal(t, 2025, fy.Year)
	assert.Equal(t, YearStatusOpen, fy.Status)
	require.Len(t, list, 12)

	assert.Equal(t, "2025-01", list[0].Name)
	assert.Equal(t, "2025-12", list[11].Name)
	assert.Equal(t, time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC), list[1].StartDate)
	assert.Equal(t, time.Date(2025, 2, 28, 0, 0, 0, 0, time.UTC), list[1].EndDate)
	for _, p := range list {
		assert.Equal(t, PeriodStatusOpen, p.Status)
	}

	_, _, err = svc.BootstrapYear(context.Background(), tenantID, 2025, 1)
	assert.ErrorIs(t, err, shared.ErrInvalidPeriodTransition)

	_, _, err = svc.BootstrapYear(context.Background(), tenantID, 123, 1)
	assert.Error(t, err)
}

func TestLockUnlockClose(t *testing.T) {
	repo := newMockRepository()
	period := repo.addPeriod(Period{
		StartDate: time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC),
		EndDate:   time.Date(2025, 3, 31, 0, 0, 0, 0, time.UTC),
	})
	svc := newTestService(repo, nil)
	tenantID := uuid.New()

	locked, err := svc.LockPeriod(context.Background(), tenantID, period.ID, 4)
	require.NoError(t, err)
	assert.Equal(t, PeriodStatusLocked, locked.Status)
	require.NotNil(t, locked.LockedBy)
	assert.Equal(t, int64(4), *locked.LockedBy)

	reopened, err := svc.UnlockPeriod(context.Background(), tenantID, period.ID, 4)
	require.NoError(t, err)
	assert.Equal(t, PeriodStatusOpen, reopened.Status)
	assert.Nil(t, reopened.LockedBy)

	// Open periods cannot close directly.
	_, err = svc.ClosePeriod(context.Background(), tenantID, period.ID, 4)
	assert.ErrorIs(t, err, shared.ErrInvalidPeriodTransition)

	_, err = svc.LockPeriod(context.Background(), tenantID, period.ID, 4)
	require.NoError(t, err)
	closed, err := svc.ClosePeriod(context.Background(), tenantID, period.ID, 4)
	require.NoError(t, err)
	assert.Equal(t, PeriodStatusClosed, closed.Status)
	require.NotNil(t, closed.ClosedBy)

	// Closed periods reopen only through the explicit override path.
	back, err := svc.ReopenPeriod(context.Background(), tenantID, period.ID, 4)
	require.NoError(t, err)
	assert.Equal(t, PeriodStatusOpen, back.Status)
	assert.Nil(t, back.ClosedBy)
}

func TestClosePeriodLockContention(t *testing.T) {
	repo := newMockRepository()
	period := repo.addPeriod(Period{Status: PeriodStatusLocked})
	svc := newTestService(repo, &stubLocker{err: internalShared.ErrLockNotAcquired})

	_, err := svc.ClosePeriod(context.Background(), uuid.New(), period.ID, 4)
	assert.ErrorIs(t, err, shared.ErrInvalidPeriodTransition)
}

func TestClosePeriodReleasesLock(t *testing.T) {
	repo := newMockRepository()
	period := repo.addPeriod(Period{Status: PeriodStatusLocked})
	locker := &stubLocker{}
	svc := newTestService(repo, locker)

	_, err := svc.ClosePeriod(context.Background(), uuid.New(), period.ID, 4)
	require.NoError(t, err)
	assert.Equal(t, 1, locker.acquired)
	assert.Equal(t, 1, locker.released)
}

func TestEnsureOpenForPosting(t *testing.T) {
	repo := newMockRepository()
	repo.addPeriod(Period{
		StartDate: time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC),
		EndDate:   time.Date(2025, 3, 31, 0, 0, 0, 0, time.UTC),
		Status:    PeriodStatusLocked,
	})
	repo.addPeriod(Period{
		StartDate: time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC),
		EndDate:   time.Date(2025, 4, 30, 0, 0, 0, 0, time.UTC),
	})
	svc := newTestService(repo, nil)
	tenantID := uuid.New()

	err := svc.EnsureOpenForPosting(context.Background(), tenantID, time.Date(2025, 3, 15, 0, 0, 0, 0, time.UTC))
	assert.ErrorIs(t, err, shared.ErrPeriodClosed)

	err = svc.EnsureOpenForPosting(context.Background(), tenantID, time.Date(2025, 4, 15, 0, 0, 0, 0, time.UTC))
	assert.NoError(t, err)

	// Dates outside any configured calendar pass through.
	err = svc.EnsureOpenForPosting(context.Background(), tenantID, time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC))
	assert.NoError(t, err)
}

func TestCloseYear(t *testing.T) {
	repo := newMockRepository()
	svc := newTestService(repo, nil)
	tenantID := uuid.New()

	fy, list, err := svc.BootstrapYear(context.Background(), tenantID, 2025, 1)
	require.NoError(t, err)

	_, err = svc.CloseYear(context.Background(), tenantID, 2025, 1)
	assert.ErrorIs(t, err, shared.ErrYearNotClosable)

	for _, p := range list {
		repo.periods[p.ID].Status = PeriodStatusClosed
	}
	closed, err := svc.CloseYear(context.Background(), tenantID, 2025, 1)
	require.NoError(t, err)
	assert.Equal(t, YearStatusClosed, closed.Status)
	assert.Equal(t, fy.ID, closed.ID)

	// A closed year cannot close again.
	_, err = svc.CloseYear(context.Background(), tenantID, 2025, 1)
	assert.ErrorIs(t, err, shared.ErrInvalidPeriodTransition)
}
