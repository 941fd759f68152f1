package classifier

import "strings"

// creditKeywords mark a purchase made on a credit card.
var creditKeywords = []string{
	"CARTAO DE CREDITO",
	"CARTÃO DE CRÉDITO",
	"CREDITO",
	"CRÉDITO",
	"CREDIT",
}

// debitKeywords mark an immediate-settlement payment.
var debitKeywords = []string{
	"DEBITO",
	"DÉBITO",
	"DEBIT",
	"PIX",
	"TED",
	"DOC",
	"BOLETO",
	"TRANSFERENCIA",
	"TRANSFERÊNCIA",
}

// IsCredit determines the payment polarity of notification text: a credit
// keyword means credit, any debit keyword means debit, and text matching
// neither defaults to debit.
func IsCredit(text string) bool {
	upper := strings.ToUpper(text)
	for _, kw := range creditKeywords {
		if strings.Contains(upper, kw) {
			return true
		}
	}
	for _, kw := range debitKeywords {
		if strings.Contains(upper, kw) {
			return false
		}
	}
	return false
}
