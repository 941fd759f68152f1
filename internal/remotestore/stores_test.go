package remotestore

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jomei/notionapi"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carteiraapp/carteira/internal/domain"
)

// fakeService scripts API responses per call.
type fakeService struct {
	createdPages []notionapi.Properties
	updatedPages map[string]notionapi.Properties
	deletedPages []string

	createID   string
	createErr  error
	updateErr  error
	deleteErr  error
	queryErr   error
	queryPages [][]notionapi.Page // one slice per call, chained via HasMore
	queryCalls []*notionapi.DatabaseQueryRequest
}

func newFakeService() *fakeService {
	return &fakeService{
		updatedPages: make(map[string]notionapi.Properties),
		createID:     "page-1",
	}
}

func (f *fakeService) CreatePage(ctx context.Context, databaseID string, properties notionapi.Properties) (*notionapi.Page, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	f.createdPages = append(f.createdPages, properties)
	return &notionapi.Page{ID: notionapi.ObjectID(f.createID)}, nil
}

func (f *fakeService) UpdatePage(ctx context.Context, pageID string, properties notionapi.Properties) (*notionapi.Page, error) {
	if f.updateErr != nil {
		return nil, f.updateErr
	}
	f.updatedPages[pageID] = properties
	return &notionapi.Page{ID: notionapi.ObjectID(pageID)}, nil
}

func (f *fakeService) DeletePage(ctx context.Context, pageID string) error {
	if f.deleteErr != nil {
		return f.deleteErr
	}
	f.deletedPages = append(f.deletedPages, pageID)
	return nil
}

func (f *fakeService) QueryDatabase(ctx context.Context, databaseID string, filter *notionapi.DatabaseQueryRequest) (*notionapi.DatabaseQueryResponse, error) {
	if f.queryErr != nil {
		return nil, f.queryErr
	}
	f.queryCalls = append(f.queryCalls, filter)

	call := len(f.queryCalls) - 1
	var results []notionapi.Page
	if call < len(f.queryPages) {
		results = f.queryPages[call]
	}
	return &notionapi.DatabaseQueryResponse{
		Results: results,
		HasMore: call < len(f.queryPages)-1,
		NextCursor: notionapi.Cursor("cursor"),
	}, nil
}

func TestUserStore_FindByEmail(t *testing.T) {
	svc := newFakeService()
	svc.queryPages = [][]notionapi.Page{{{ID: "user-doc"}}}
	store := NewUserStore(svc, "db-users")

	docID, err := store.FindByEmail(context.Background(), "ana@example.com")
	require.NoError(t, err)
	assert.Equal(t, "user-doc", docID)

	require.Len(t, svc.queryCalls, 1)
	filter, ok := svc.queryCalls[0].Filter.(*notionapi.PropertyFilter)
	require.True(t, ok)
	assert.Equal(t, propEmail, filter.Property)
	assert.Equal(t, "ana@example.com", filter.RichText.Equals)
}

func TestUserStore_FindByEmail_NoMatchIsNotAnError(t *testing.T) {
	svc := newFakeService()
	svc.queryPages = [][]notionapi.Page{{}}
	store := NewUserStore(svc, "db-users")

	docID, err := store.FindByEmail(context.Background(), "nobody@example.com")
	require.NoError(t, err)
	assert.Empty(t, docID)
}

func TestUserStore_Add_ReturnsDocumentID(t *testing.T) {
	svc := newFakeService()
	svc.createID = "user-doc"
	store := NewUserStore(svc, "db-users")

	docID, err := store.Add(context.Background(), &domain.User{Name: "Ana", Email: "ana@example.com"})
	require.NoError(t, err)
	assert.Equal(t, "user-doc", docID)
	require.Len(t, svc.createdPages, 1)
}

func TestPeriodStore_DeleteIsIdempotent(t *testing.T) {
	cases := []struct {
		name string
		err  error
	}{
		{"page already gone", &notionapi.Error{Status: 404, Message: "not found"}},
		{"page already archived", &notionapi.Error{Status: 400, Message: "Can't update a page that is archived"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc := newFakeService()
			svc.deleteErr = tc.err
			store := NewPeriodStore(svc, "db-periods")

			assert.NoError(t, store.Delete(context.Background(), "doc-period"))
		})
	}
}

func TestPeriodStore_DeleteRealFailureSurfaces(t *testing.T) {
	svc := newFakeService()
	svc.deleteErr = &notionapi.Error{Status: 500, Message: "internal"}
	store := NewPeriodStore(svc, "db-periods")

	err := store.Delete(context.Background(), "doc-period")
	var remoteErr *domain.RemoteError
	assert.ErrorAs(t, err, &remoteErr)
}

func TestPeriodStore_UpdateMissingPageIsNotFound(t *testing.T) {
	svc := newFakeService()
	svc.updateErr = &notionapi.Error{Status: 404, Message: "not found"}
	store := NewPeriodStore(svc, "db-periods")

	err := store.Update(context.Background(), "gone", &domain.Period{StartDate: time.Now()}, "doc-user")
	assert.ErrorIs(t, err, domain.ErrRemoteNotFound)
}

func TestPeriodStore_ByOwnerPaginates(t *testing.T) {
	start := notionapi.Date(time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC))
	page := func(id string) notionapi.Page {
		return notionapi.Page{
			ID: notionapi.ObjectID(id),
			Properties: notionapi.Properties{
				propStart:    &notionapi.DateProperty{Date: &notionapi.DateObject{Start: &start}},
				propSelected: &notionapi.CheckboxProperty{Checkbox: true},
				propIncome:   &notionapi.NumberProperty{Number: 1000},
				propExpenses: &notionapi.NumberProperty{Number: 250.5},
			},
		}
	}

	svc := newFakeService()
	svc.queryPages = [][]notionapi.Page{{page("p1")}, {page("p2")}}
	store := NewPeriodStore(svc, "db-periods")

	periods, err := store.ByOwner(context.Background(), "doc-user")
	require.NoError(t, err)
	require.Len(t, periods, 2)
	assert.Len(t, svc.queryCalls, 2)

	p := periods[0]
	assert.Equal(t, "p1", p.RemoteID)
	assert.True(t, p.Selected)
	assert.True(t, p.StartDate.Equal(time.Time(start)))
	assert.Nil(t, p.EndDate)
	assert.True(t, p.TotalIncome.Equal(decimal.NewFromInt(1000)))
	assert.True(t, p.TotalExpenses.Equal(decimal.NewFromFloat(250.5)))
	// Local ids are never assigned from remote data.
	assert.Zero(t, p.ID)
	assert.Zero(t, p.UserID)
}

func TestTransactionStore_ByOwnerTranslatesDocuments(t *testing.T) {
	date := notionapi.Date(time.Date(2026, 8, 15, 0, 0, 0, 0, time.UTC))
	svc := newFakeService()
	svc.queryPages = [][]notionapi.Page{{{
		ID: "tx-doc",
		Properties: notionapi.Properties{
			propDescription: &notionapi.TitleProperty{Title: []notionapi.RichText{{PlainText: "mercado"}}},
			propDate:        &notionapi.DateProperty{Date: &notionapi.DateObject{Start: &date}},
			propAmount:      &notionapi.NumberProperty{Number: -45.9},
			propCategory:    &notionapi.SelectProperty{Select: notionapi.Option{Name: domain.CategoryGroceries}},
			propCredit:      &notionapi.CheckboxProperty{Checkbox: false},
			propImported:    &notionapi.CheckboxProperty{Checkbox: true},
			propOwner:       &notionapi.RichTextProperty{RichText: []notionapi.RichText{{PlainText: "doc-user"}}},
			propPeriod:      &notionapi.RichTextProperty{RichText: []notionapi.RichText{{PlainText: "doc-period"}}},
		},
	}}}
	store := NewTransactionStore(svc, "db-transactions")

	txs, err := store.ByOwner(context.Background(), "doc-user")
	require.NoError(t, err)
	require.Len(t, txs, 1)

	tx := txs[0]
	assert.Equal(t, "tx-doc", tx.RemoteID)
	assert.Equal(t, "mercado", tx.Description)
	assert.Equal(t, domain.CategoryGroceries, tx.Category)
	assert.True(t, tx.Amount.Equal(decimal.NewFromFloat(-45.9)))
	assert.True(t, tx.Imported)
	assert.Equal(t, "doc-user", tx.RemoteUserID)
	assert.Equal(t, "doc-period", tx.RemotePeriodID)
}

func TestTransactionStore_ByOwnerToleratesSparseDocuments(t *testing.T) {
	svc := newFakeService()
	svc.queryPages = [][]notionapi.Page{{{ID: "bare-doc", Properties: notionapi.Properties{}}}}
	store := NewTransactionStore(svc, "db-transactions")

	txs, err := store.ByOwner(context.Background(), "doc-user")
	require.NoError(t, err)
	require.Len(t, txs, 1)
	assert.Equal(t, "bare-doc", txs[0].RemoteID)
	assert.True(t, txs[0].Amount.IsZero())
	assert.Empty(t, txs[0].Category)
}

func TestTransactionStore_AddFailureIsTransient(t *testing.T) {
	svc := newFakeService()
	svc.createErr = errors.New("connection reset")
	store := NewTransactionStore(svc, "db-transactions")

	_, err := store.Add(context.Background(), &domain.Transaction{Description: "x"})
	assert.True(t, domain.IsTransient(err))
	var remoteErr *domain.RemoteError
	assert.ErrorAs(t, err, &remoteErr)
}
