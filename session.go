package main

import (
	"sync"
	"sync/atomic"

	"bitbucket.org/mmdatafocus/storefront_backend/models"
	"bitbucket.org/mmdatafocus/storefront_backend/workflow"
	"github.com/sirupsen/logrus"
)

// Session is the one storefront the process serves. The mutex keeps every
// cart, checkout and ledger operation strictly one at a time.
type Session struct {
	mu       sync.Mutex
	cart     *models.Cart
	ledger   *models.SalesLedger
	checkout *workflow.OrderWorkflow
	logger   *logrus.Logger

	operatorPasswordHash string
}

func NewSession(ledger *models.SalesLedger, validator *models.CustomerValidator, logger *logrus.Logger, operatorPasswordHash string, opts ...workflow.Option) *Session {
	cart := models.NewCart()
	opts = append([]workflow.Option{workflow.WithLocation(ledger.Location())}, opts...)
	return &Session{
		cart:                 cart,
		ledger:               ledger,
		checkout:             workflow.NewOrderWorkflow(cart, ledger, validator, logger, opts...),
		logger:               logger,
		operatorPasswordHash: operatorPasswordHash,
	}
}

// App holds the session once dependencies are ready; handlers answer 503 until then.
type App struct {
	session atomic.Pointer[Session]
}

func (a *App) Ready(s *Session) {
	a.session.Store(s)
}

func (a *App) Session() *Session {
	return a.session.Load()
}
