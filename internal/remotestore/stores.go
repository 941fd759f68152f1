package remotestore

import (
	"context"

	"github.com/jomei/notionapi"

	"github.com/carteiraapp/carteira/internal/domain"
)

const queryPageSize = 100

// queryAll pages through a database query until exhaustion.
func queryAll(ctx context.Context, svc Service, databaseID string, filter *notionapi.PropertyFilter) ([]notionapi.Page, error) {
	var pages []notionapi.Page
	var cursor notionapi.Cursor

	for {
		req := &notionapi.DatabaseQueryRequest{PageSize: queryPageSize}
		if filter != nil {
			req.Filter = filter
		}
		if cursor != "" {
			req.StartCursor = cursor
		}

		resp, err := svc.QueryDatabase(ctx, databaseID, req)
		if err != nil {
			return nil, err
		}
		pages = append(pages, resp.Results...)

		if !resp.HasMore {
			break
		}
		cursor = resp.NextCursor
	}
	return pages, nil
}

func ownerFilter(ownerDocID string) *notionapi.PropertyFilter {
	return &notionapi.PropertyFilter{
		Property: propOwner,
		RichText: &notionapi.TextFilterCondition{Equals: ownerDocID},
	}
}

// UserStore mirrors User records into the users database.
type UserStore struct {
	svc        Service
	databaseID string
}

// NewUserStore creates a UserStore over svc.
func NewUserStore(svc Service, databaseID string) *UserStore {
	return &UserStore{svc: svc, databaseID: databaseID}
}

func userProps(user *domain.User) notionapi.Properties {
	return notionapi.Properties{
		propName:       titleProp(user.Name),
		propEmail:      richTextProp(user.Email),
		propSubscribed: checkboxProp(user.Subscribed),
	}
}

// Add creates the remote user document and returns its document id.
func (s *UserStore) Add(ctx context.Context, user *domain.User) (string, error) {
	page, err := s.svc.CreatePage(ctx, s.databaseID, userProps(user))
	if err != nil {
		return "", wrapRemote("add user", err)
	}
	return string(page.ID), nil
}

// Update overwrites the syncable fields of an existing user document.
func (s *UserStore) Update(ctx context.Context, docID string, user *domain.User) error {
	if _, err := s.svc.UpdatePage(ctx, docID, userProps(user)); err != nil {
		return wrapRemote("update user", err)
	}
	return nil
}

// FindByEmail returns the document id of the user with the given email, or
// empty when none exists remotely.
func (s *UserStore) FindByEmail(ctx context.Context, email string) (string, error) {
	filter := &notionapi.PropertyFilter{
		Property: propEmail,
		RichText: &notionapi.TextFilterCondition{Equals: email},
	}
	pages, err := queryAll(ctx, s.svc, s.databaseID, filter)
	if err != nil {
		return "", wrapRemote("find user by email", err)
	}
	if len(pages) == 0 {
		return "", nil
	}
	return string(pages[0].ID), nil
}

// PeriodStore mirrors Period records into the periods database.
type PeriodStore struct {
	svc        Service
	databaseID string
}

// NewPeriodStore creates a PeriodStore over svc.
func NewPeriodStore(svc Service, databaseID string) *PeriodStore {
	return &PeriodStore{svc: svc, databaseID: databaseID}
}

func periodProps(period *domain.Period, ownerDocID string) notionapi.Properties {
	props := notionapi.Properties{
		propName:     titleProp(period.StartDate.Format("2006-01-02")),
		propStart:    dateProp(period.StartDate),
		propSelected: checkboxProp(period.Selected),
		propIncome:   numberProp(period.TotalIncome),
		propExpenses: numberProp(period.TotalExpenses),
		propOwner:    richTextProp(ownerDocID),
	}
	if period.EndDate != nil {
		props[propEnd] = dateProp(*period.EndDate)
	} else {
		props[propEnd] = notionapi.DateProperty{Date: nil}
	}
	return props
}

// Add creates the remote period document and returns its document id.
func (s *PeriodStore) Add(ctx context.Context, period *domain.Period, ownerDocID string) (string, error) {
	page, err := s.svc.CreatePage(ctx, s.databaseID, periodProps(period, ownerDocID))
	if err != nil {
		return "", wrapRemote("add period", err)
	}
	return string(page.ID), nil
}

// Update overwrites the syncable fields of an existing period document.
func (s *PeriodStore) Update(ctx context.Context, docID string, period *domain.Period, ownerDocID string) error {
	if _, err := s.svc.UpdatePage(ctx, docID, periodProps(period, ownerDocID)); err != nil {
		return wrapRemote("update period", err)
	}
	return nil
}

// Delete archives the period document. Deleting a document that is already
// gone is not an error; reconciliation depends on this being idempotent.
func (s *PeriodStore) Delete(ctx context.Context, docID string) error {
	err := s.svc.DeletePage(ctx, docID)
	if err != nil && !deletedAlready(err) {
		return wrapRemote("delete period", err)
	}
	return nil
}

// ByOwner fetches every period document of one owner, translated to
// local-shaped entities. Local ids are never assigned here.
func (s *PeriodStore) ByOwner(ctx context.Context, ownerDocID string) ([]domain.Period, error) {
	pages, err := queryAll(ctx, s.svc, s.databaseID, ownerFilter(ownerDocID))
	if err != nil {
		return nil, wrapRemote("query periods", err)
	}

	periods := make([]domain.Period, 0, len(pages))
	for _, page := range pages {
		period := domain.Period{
			Selected:      pageCheckbox(page, propSelected),
			TotalIncome:   pageNumber(page, propIncome),
			TotalExpenses: pageNumber(page, propExpenses),
			RemoteID:      string(page.ID),
		}
		if start := pageDate(page, propStart); start != nil {
			period.StartDate = *start
		}
		period.EndDate = pageDate(page, propEnd)
		periods = append(periods, period)
	}
	return periods, nil
}

// TransactionStore mirrors Transaction records into the transactions database.
type TransactionStore struct {
	svc        Service
	databaseID string
}

// NewTransactionStore creates a TransactionStore over svc.
func NewTransactionStore(svc Service, databaseID string) *TransactionStore {
	return &TransactionStore{svc: svc, databaseID: databaseID}
}

func transactionProps(tx *domain.Transaction) notionapi.Properties {
	return notionapi.Properties{
		propDescription: titleProp(tx.Description),
		propDate:        dateProp(tx.Date),
		propAmount:      numberProp(tx.Amount),
		propCategory:    selectProp(tx.Category),
		propCredit:      checkboxProp(tx.Credit),
		propImported:    checkboxProp(tx.Imported),
		propOwner:       richTextProp(tx.RemoteUserID),
		propPeriod:      richTextProp(tx.RemotePeriodID),
	}
}

// Add creates the remote transaction document and returns its document id.
// The transaction's remote owner and period ids must already be resolved.
func (s *TransactionStore) Add(ctx context.Context, tx *domain.Transaction) (string, error) {
	page, err := s.svc.CreatePage(ctx, s.databaseID, transactionProps(tx))
	if err != nil {
		return "", wrapRemote("add transaction", err)
	}
	return string(page.ID), nil
}

// Update overwrites the syncable fields of an existing transaction document.
func (s *TransactionStore) Update(ctx context.Context, docID string, tx *domain.Transaction) error {
	if _, err := s.svc.UpdatePage(ctx, docID, transactionProps(tx)); err != nil {
		return wrapRemote("update transaction", err)
	}
	return nil
}

// Delete archives the transaction document; idempotent like PeriodStore.Delete.
func (s *TransactionStore) Delete(ctx context.Context, docID string) error {
	err := s.svc.DeletePage(ctx, docID)
	if err != nil && !deletedAlready(err) {
		return wrapRemote("delete transaction", err)
	}
	return nil
}

// ByOwner fetches every transaction document of one owner.
func (s *TransactionStore) ByOwner(ctx context.Context, ownerDocID string) ([]domain.Transaction, error) {
	pages, err := queryAll(ctx, s.svc, s.databaseID, ownerFilter(ownerDocID))
	if err != nil {
		return nil, wrapRemote("query transactions", err)
	}

	txs := make([]domain.Transaction, 0, len(pages))
	for _, page := range pages {
		tx := domain.Transaction{
			Description:    pageTitle(page, propDescription),
			Amount:         pageNumber(page, propAmount),
			Category:       pageSelect(page, propCategory),
			Credit:         pageCheckbox(page, propCredit),
			Imported:       pageCheckbox(page, propImported),
			RemoteID:       string(page.ID),
			RemoteUserID:   pageRichText(page, propOwner),
			RemotePeriodID: pageRichText(page, propPeriod),
		}
		if date := pageDate(page, propDate); date != nil {
			tx.Date = *date
		}
		txs = append(txs, tx)
	}
	return txs, nil
}
