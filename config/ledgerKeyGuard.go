package config

import (
	"context"
	"strings"

	"bitbucket.org/mmdatafocus/storefront_backend/appctx"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const ledgerKeyColumn = "ledger_key"

// LedgerKeyGuardPlugin scopes queries, updates and deletes on models that carry a
// ledger_key column to the ledger key found in the statement context.
// Raw SQL is not covered.
type LedgerKeyGuardPlugin struct{}

func NewLedgerKeyGuardPlugin() *LedgerKeyGuardPlugin { return &LedgerKeyGuardPlugin{} }

func (p *LedgerKeyGuardPlugin) Name() string { return "ledger_key_guard" }

func (p *LedgerKeyGuardPlugin) Initialize(db *gorm.DB) error {
	if err := db.Callback().Query().Before("gorm:query").Register("ledger_key_guard:query", ledgerKeyGuardCallback); err != nil {
		return err
	}
	if err := db.Callback().Row().Before("gorm:row").Register("ledger_key_guard:row", ledgerKeyGuardCallback); err != nil {
		return err
	}
	if err := db.Callback().Update().Before("gorm:update").Register("ledger_key_guard:update", ledgerKeyGuardCallback); err != nil {
		return err
	}
	return db.Callback().Delete().Before("gorm:delete").Register("ledger_key_guard:delete", ledgerKeyGuardCallback)
}

// WithLedgerKey marks ctx so guarded statements only touch rows of key.
func WithLedgerKey(ctx context.Context, key string) context.Context {
	return appctx.Set(ctx, appctx.ContextKeyLedgerKey, key)
}

func ledgerKeyGuardCallback(db *gorm.DB) {
	if db == nil || db.Statement == nil || db.Statement.Context == nil {
		return
	}
	key, _ := appctx.GetString(db.Statement.Context, appctx.ContextKeyLedgerKey)
	if key == "" || db.Statement.Schema == nil {
		return
	}
	if db.Statement.Schema.LookUpField(ledgerKeyColumn) == nil {
		return
	}
	if whereHasLedgerKey(db.Statement.Clauses["WHERE"]) {
		return
	}

	db.Statement.AddClause(clause.Where{
		Exprs: []clause.Expression{
			clause.Eq{
				Column: clause.Column{Table: db.Statement.Table, Name: ledgerKeyColumn},
				Value:  key,
			},
		},
	})
}

func whereHasLedgerKey(c clause.Clause) bool {
	w, ok := c.Expression.(clause.Where)
	if !ok {
		return false
	}
	for _, e := range w.Exprs {
		if exprHasLedgerKey(e) {
			return true
		}
	}
	return false
}

func exprHasLedgerKey(e clause.Expression) bool {
	switch v := e.(type) {
	case clause.Eq:
		return isLedgerKeyColumn(v.Column)
	case clause.IN:
		return isLedgerKeyColumn(v.Column)
	case clause.AndConditions:
		for _, x := range v.Exprs {
			if exprHasLedgerKey(x) {
				return true
			}
		}
	case clause.Expr:
		return strings.Contains(strings.ToLower(v.SQL), ledgerKeyColumn)
	}
	return false
}

func isLedgerKeyColumn(col any) bool {
	switch c := col.(type) {
	case string:
		return strings.EqualFold(c, ledgerKeyColumn)
	case clause.Column:
		return strings.EqualFold(c.Name, ledgerKeyColumn)
	}
	return false
}
