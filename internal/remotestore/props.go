package remotestore

import (
	"time"

	"github.com/jomei/notionapi"
	"github.com/shopspring/decimal"
)

// Property names shared by the entity databases. Local-only fields (integer
// ids, local foreign keys) are never part of a document.
const (
	propName        = "Name"
	propEmail       = "Email"
	propSubscribed  = "Subscribed"
	propStart       = "Start"
	propEnd         = "End"
	propSelected    = "Selected"
	propIncome      = "Income"
	propExpenses    = "Expenses"
	propOwner       = "Owner"
	propPeriod      = "Period"
	propDescription = "Description"
	propDate        = "Date"
	propAmount      = "Amount"
	propCategory    = "Category"
	propCredit      = "Credit"
	propImported    = "Imported"
)

func titleProp(value string) notionapi.TitleProperty {
	return notionapi.TitleProperty{
		Title: []notionapi.RichText{{Text: &notionapi.Text{Content: value}}},
	}
}

func richTextProp(value string) notionapi.RichTextProperty {
	return notionapi.RichTextProperty{
		RichText: []notionapi.RichText{{Text: &notionapi.Text{Content: value}}},
	}
}

func dateProp(value time.Time) notionapi.DateProperty {
	d := notionapi.Date(value)
	return notionapi.DateProperty{Date: &notionapi.DateObject{Start: &d}}
}

func numberProp(value decimal.Decimal) notionapi.NumberProperty {
	return notionapi.NumberProperty{Number: value.InexactFloat64()}
}

func checkboxProp(value bool) notionapi.CheckboxProperty {
	return notionapi.CheckboxProperty{Checkbox: value}
}

func selectProp(value string) notionapi.SelectProperty {
	return notionapi.SelectProperty{Select: notionapi.Option{Name: value}}
}

// The page readers tolerate missing or differently-typed properties by
// returning zero values; pull treats the document as authoritative either way.

func pageTitle(page notionapi.Page, key string) string {
	if prop, ok := page.Properties[key]; ok {
		if title, ok := prop.(*notionapi.TitleProperty); ok && len(title.Title) > 0 {
			return title.Title[0].PlainText
		}
	}
	return ""
}

func pageRichText(page notionapi.Page, key string) string {
	if prop, ok := page.Properties[key]; ok {
		if rt, ok := prop.(*notionapi.RichTextProperty); ok && len(rt.RichText) > 0 {
			return rt.RichText[0].PlainText
		}
	}
	return ""
}

func pageDate(page notionapi.Page, key string) *time.Time {
	if prop, ok := page.Properties[key]; ok {
		if dp, ok := prop.(*notionapi.DateProperty); ok && dp.Date != nil && dp.Date.Start != nil {
			t := time.Time(*dp.Date.Start)
			return &t
		}
	}
	return nil
}

func pageNumber(page notionapi.Page, key string) decimal.Decimal {
	if prop, ok := page.Properties[key]; ok {
		if np, ok := prop.(*notionapi.NumberProperty); ok {
			return decimal.NewFromFloat(np.Number)
		}
	}
	return decimal.Zero
}

func pageCheckbox(page notionapi.Page, key string) bool {
	if prop, ok := page.Properties[key]; ok {
		if cp, ok := prop.(*notionapi.CheckboxProperty); ok {
			return cp.Checkbox
		}
	}
	return false
}

func pageSelect(page notionapi.Page, key string) string {
	if prop, ok := page.Properties[key]; ok {
		if sp, ok := prop.(*notionapi.SelectProperty); ok {
			return sp.Select.Name
		}
	}
	return ""
}

