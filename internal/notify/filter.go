// Package notify decides whether a platform notification is a bank purchase
// or payment event and extracts a monetary amount from its text.
package notify

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

// bankPackages is the allow-list of bank app package identifiers. Matching is
// case-insensitive substring, so "com.nu.production" matches "nu".
var bankPackages = []string{
	"nubank",
	"com.nu.production",
	"itau",
	"bradesco",
	"santander",
	"bancointer",
	"caixa",
	"bb.android",
	"picpay",
	"mercadopago",
	"c6bank",
}

// purchaseKeywords is the fixed vocabulary of purchase-intent markers. At
// least one must appear (case-insensitive) for the text to be relevant.
var purchaseKeywords = []string{
	"r$",
	"compra",
	"pagamento",
	"pagou",
	"débito",
	"debito",
	"crédito",
	"credito",
	"pix",
	"transferência",
	"transferencia",
	"boleto",
}

// amountPattern captures the first currency-prefixed number, e.g.
// "R$ 1.234,56". Thousands dots and the decimal comma are normalized later.
var amountPattern = regexp.MustCompile(`(?i)R\$\s*([0-9]+(?:[.,][0-9]+)*)`)

// FromBankApp reports whether the source package matches the bank allow-list.
func FromBankApp(packageName string) bool {
	pkg := strings.ToLower(packageName)
	for _, bank := range bankPackages {
		if strings.Contains(pkg, bank) {
			return true
		}
	}
	return false
}

// HasPurchaseKeyword reports whether the text contains any purchase-intent
// keyword.
func HasPurchaseKeyword(text string) bool {
	lower := strings.ToLower(text)
	for _, kw := range purchaseKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

// ExtractAmount pulls the first R$-prefixed amount out of text and converts
// the pt-BR separators to a canonical decimal ("1.234,56" -> 1234.56).
// ok is false when no pattern matches or the normalized number fails to parse.
func ExtractAmount(text string) (amount decimal.Decimal, ok bool) {
	match := amountPattern.FindStringSubmatch(text)
	if match == nil {
		return decimal.Zero, false
	}

	raw := match[1]
	raw = strings.ReplaceAll(raw, ".", "")
	raw = strings.ReplaceAll(raw, ",", ".")

	amount, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, false
	}
	return amount, true
}

// Parsed is the result of a successful notification parse.
type Parsed struct {
	Amount decimal.Decimal
	Text   string
}

// Parse applies the full relevance contract: bank package, purchase keyword,
// extractable amount. It is pure; on any miss it returns ok=false and the
// caller drops the event silently.
func Parse(packageName, text string) (Parsed, bool) {
	if !FromBankApp(packageName) {
		return Parsed{}, false
	}
	if !HasPurchaseKeyword(text) {
		return Parsed{}, false
	}
	amount, ok := ExtractAmount(text)
	if !ok {
		return Parsed{}, false
	}
	return Parsed{Amount: amount, Text: text}, true
}
