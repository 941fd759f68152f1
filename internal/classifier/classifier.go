// Package classifier maps free-text bank notification content to a category
// label and a credit/debit polarity using keyword pattern matching.
package classifier

import (
	"context"
	"strings"

	"github.com/carteiraapp/carteira/internal/domain"
	"github.com/carteiraapp/carteira/internal/logger"
)

// Rule maps a keyword to a category. Rules form a priority list: the first
// rule whose keyword appears in the text wins, so more specific keywords must
// come before more general ones.
type Rule struct {
	Keyword  string
	Category string
}

// DefaultRules is the built-in priority list. Merchant names come first so
// they win over the generic purchase vocabulary further down.
var DefaultRules = []Rule{
	{"UBER EATS", domain.CategoryFood},
	{"IFOOD", domain.CategoryFood},
	{"RAPPI", domain.CategoryFood},
	{"UBER", domain.CategoryTransport},
	{"99APP", domain.CategoryTransport},
	{"99 POP", domain.CategoryTransport},
	{"POSTO", domain.CategoryTransport},
	{"ESTACIONAMENTO", domain.CategoryTransport},
	{"MERCADO LIVRE", domain.CategoryShopping},
	{"AMAZON", domain.CategoryShopping},
	{"SHOPEE", domain.CategoryShopping},
	{"MAGAZINE", domain.CategoryShopping},
	{"MERCADO", domain.CategoryGroceries},
	{"SUPERMERCADO", domain.CategoryGroceries},
	{"ATACADAO", domain.CategoryGroceries},
	{"CARREFOUR", domain.CategoryGroceries},
	{"PADARIA", domain.CategoryFood},
	{"RESTAURANTE", domain.CategoryFood},
	{"LANCHONETE", domain.CategoryFood},
	{"PIZZARIA", domain.CategoryFood},
	{"FARMACIA", domain.CategoryHealth},
	{"DROGARIA", domain.CategoryHealth},
	{"DROGASIL", domain.CategoryHealth},
	{"HOSPITAL", domain.CategoryHealth},
	{"CLINICA", domain.CategoryHealth},
	{"NETFLIX", domain.CategoryEntertainment},
	{"SPOTIFY", domain.CategoryEntertainment},
	{"CINEMA", domain.CategoryEntertainment},
	{"STEAM", domain.CategoryEntertainment},
	{"FATURA", domain.CategoryBills},
	{"CONTA DE LUZ", domain.CategoryBills},
	{"ENERGIA", domain.CategoryBills},
	{"INTERNET", domain.CategoryBills},
	{"TELEFONE", domain.CategoryBills},
	{"ALUGUEL", domain.CategoryBills},
	{"CURSO", domain.CategoryEducation},
	{"FACULDADE", domain.CategoryEducation},
	{"LIVRARIA", domain.CategoryEducation},
	{"PASSAGEM", domain.CategoryTravel},
	{"HOTEL", domain.CategoryTravel},
	{"AIRBNB", domain.CategoryTravel},
	{"SALARIO", domain.CategoryIncome},
	{"RENDIMENTO", domain.CategoryIncome},
	{"DEPOSITO RECEBIDO", domain.CategoryIncome},
}

// Fallback resolves a category for text the rule table could not place.
// Implementations may call out to a model; errors mean "no opinion".
type Fallback interface {
	Categorize(ctx context.Context, text string) (string, error)
}

// Classifier holds an ordered rule table and an optional fallback consulted
// only when the table lands on the catch-all category.
type Classifier struct {
	rules    []Rule
	fallback Fallback
}

// Option configures a Classifier.
type Option func(*Classifier)

// WithFallback attaches a fallback categorizer.
func WithFallback(f Fallback) Option {
	return func(c *Classifier) { c.fallback = f }
}

// WithRules replaces the default rule table. Order is preserved exactly.
func WithRules(rules []Rule) Option {
	return func(c *Classifier) { c.rules = rules }
}

// New creates a Classifier over DefaultRules unless overridden.
func New(opts ...Option) *Classifier {
	c := &Classifier{rules: DefaultRules}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Categorize returns the category of the first rule whose keyword appears in
// text (case-insensitive), or the catch-all category when none matches.
// It is a pure function of text and the rule table.
func (c *Classifier) Categorize(text string) string {
	upper := strings.ToUpper(text)
	for _, rule := range c.rules {
		if strings.Contains(upper, strings.ToUpper(rule.Keyword)) {
			return rule.Category
		}
	}
	return domain.CategoryOthers
}

// CategorizeContext behaves like Categorize but consults the fallback when
// the rule table has no match. Fallback failures are logged and ignored so
// classification never errors.
func (c *Classifier) CategorizeContext(ctx context.Context, text string) string {
	category := c.Categorize(text)
	if category != domain.CategoryOthers || c.fallback == nil {
		return category
	}

	log := logger.FromContext(ctx)
	suggested, err := c.fallback.Categorize(ctx, text)
	if err != nil {
		log.Warn().Err(err).Msg("Fallback categorization failed, keeping catch-all")
		return category
	}
	if !domain.KnownCategory(suggested) {
		log.Warn().Str("category", suggested).Msg("Fallback suggested unknown category, keeping catch-all")
		return category
	}

	log.Debug().Str("category", suggested).Msg("Fallback categorized transaction")
	return suggested
}
