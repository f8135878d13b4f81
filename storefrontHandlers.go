package main

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"bitbucket.org/mmdatafocus/storefront_backend/config"
	"bitbucket.org/mmdatafocus/storefront_backend/models"
	"bitbucket.org/mmdatafocus/storefront_backend/models/reports"
	"bitbucket.org/mmdatafocus/storefront_backend/utils"
	"bitbucket.org/mmdatafocus/storefront_backend/workflow"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

type cartResponse struct {
	Items []models.LineItem `json:"items"`
	Total decimal.Decimal   `json:"total"`
	Count int               `json:"count"`
	Empty bool              `json:"empty"`
}

func (s *Session) cartView() cartResponse {
	return cartResponse{
		Items: s.cart.Items(),
		Total: s.cart.Total(),
		Count: s.cart.Len(),
		Empty: s.cart.IsEmpty(),
	}
}

type checkoutResponse struct {
	State          workflow.State         `json:"state"`
	PaymentMethods []models.PaymentMethod `json:"paymentMethods"`
	Pending        models.CustomerDetails `json:"pending"`
	LastFailure    string                 `json:"lastFailure,omitempty"`
	Subtotal       decimal.Decimal        `json:"subtotal"`
}

func (s *Session) checkoutView() checkoutResponse {
	res := checkoutResponse{
		State:          s.checkout.State(),
		PaymentMethods: models.PaymentMethods(),
		Pending:        s.checkout.Pending(),
		Subtotal:       s.cart.Total(),
	}
	if err := s.checkout.LastFailure(); err != nil {
		res.LastFailure = err.Error()
	}
	return res
}

// withSession serializes handler bodies on the session lock.
func withSession(app *App, h func(c *gin.Context, s *Session)) gin.HandlerFunc {
	return func(c *gin.Context) {
		s := app.Session()
		if s == nil {
			c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"error": "ledger is not loaded yet"})
			return
		}
		s.mu.Lock()
		defer s.mu.Unlock()
		h(c, s)
	}
}

func (s *Session) checkoutOpen() bool {
	return s.checkout.State() != workflow.StateIdle
}

func getCartHandler(c *gin.Context, s *Session) {
	c.JSON(http.StatusOK, s.cartView())
}

type addItemRequest struct {
	Name  string `json:"name"`
	Price any    `json:"price"`
}

func addCartItemHandler(c *gin.Context, s *Session) {
	var req addItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"errors": utils.ProcessValidationErrors(err)})
		return
	}
	if s.checkoutOpen() {
		c.JSON(http.StatusConflict, gin.H{"error": workflow.ErrCheckoutInProgress.Error()})
		return
	}

	item, err := s.cart.Add(req.Name, utils.CoerceAmount(req.Price))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "field": "name"})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"item": item, "cart": s.cartView()})
}

func removeCartItemHandler(c *gin.Context, s *Session) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid item id"})
		return
	}
	if s.checkoutOpen() {
		c.JSON(http.StatusConflict, gin.H{"error": workflow.ErrCheckoutInProgress.Error()})
		return
	}
	removed := s.cart.Remove(id)
	c.JSON(http.StatusOK, gin.H{"removed": removed, "cart": s.cartView()})
}

func startCheckoutHandler(c *gin.Context, s *Session) {
	if err := s.checkout.Start(); err != nil {
		status := http.StatusConflict
		if errors.Is(err, models.ErrCartEmpty) {
			status = http.StatusBadRequest
		}
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, s.checkoutView())
}

func getCheckoutHandler(c *gin.Context, s *Session) {
	c.JSON(http.StatusOK, s.checkoutView())
}

type confirmRequest struct {
	Name          string `json:"name"`
	Phone         string `json:"phone"`
	Address       string `json:"address"`
	PaymentMethod string `json:"paymentMethod"`
}

func confirmCheckoutHandler(c *gin.Context, s *Session) {
	var req confirmRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"errors": utils.ProcessValidationErrors(err)})
		return
	}
	details := models.CustomerDetails{
		Customer: models.Customer{
			Name:    req.Name,
			Phone:   req.Phone,
			Address: req.Address,
		},
		PaymentMethod: models.PaymentMethod(req.PaymentMethod),
	}

	record, result, err := s.checkout.Confirm(c.Request.Context(), details)
	if err != nil {
		var fe *models.FieldError
		switch {
		case errors.As(err, &fe):
			c.JSON(http.StatusUnprocessableEntity, gin.H{
				"error": fe.Err.Error(),
				"field": fe.Field,
				"state": s.checkout.State(),
			})
		case errors.Is(err, models.ErrCartEmpty), errors.Is(err, workflow.ErrNoCheckoutInProgress):
			c.JSON(http.StatusConflict, gin.H{"error": err.Error(), "state": s.checkout.State()})
		default:
			c.Error(err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "checkout failed"})
		}
		return
	}

	res := gin.H{
		"receipt":   record,
		"persisted": result.Persisted,
	}
	if result.Err != nil {
		res["persistError"] = result.Err.Error()
	}
	c.JSON(http.StatusCreated, res)
}

func cancelCheckoutHandler(c *gin.Context, s *Session) {
	if err := s.checkout.Cancel(); err != nil {
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"state": s.checkout.State(), "cart": s.cartView()})
}

func listSalesHandler(c *gin.Context, s *Session) {
	c.JSON(http.StatusOK, gin.H{
		"records":      s.ledger.RecentFirst(),
		"totalRevenue": s.ledger.TotalRevenue(),
		"count":        s.ledger.Len(),
	})
}

func salesSummaryHandler(c *gin.Context, s *Session) {
	c.JSON(http.StatusOK, reports.BuildSalesSummary(s.ledger))
}

func exportSalesHandler(c *gin.Context, s *Session) {
	filename := fmt.Sprintf("sales-%s.xlsx", time.Now().In(s.ledger.Location()).Format("2006-01-02"))
	c.Header("Content-Type", reports.WorkbookContentType)
	c.Header("Content-Disposition", "attachment; filename="+filename)
	if err := reports.WriteSalesWorkbook(c.Writer, s.ledger); err != nil {
		config.LogError(s.logger, "server", "exportSalesHandler", "WriteSalesWorkbook", nil, err)
		c.Error(err)
		c.Status(http.StatusInternalServerError)
	}
}

type loginRequest struct {
	Password string `json:"password" binding:"required"`
}

func operatorLoginHandler(c *gin.Context, s *Session) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"errors": utils.ProcessValidationErrors(err)})
		return
	}
	if err := utils.ComparePassword(s.operatorPasswordHash, req.Password); err != nil {
		if errors.Is(err, utils.ErrPasswordHashMissing) {
			config.LogError(s.logger, "server", "operatorLoginHandler", "ComparePassword", nil, err)
		}
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	token, err := utils.JwtGenerate(1, utils.RoleOperator)
	if err != nil {
		c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not issue token"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"token": token})
}

// clearSalesHandler discards the whole ledger. It needs an operator token and confirm=true.
func clearSalesHandler(c *gin.Context, s *Session) {
	if c.Query("confirm") != "true" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "confirm=true is required to clear all sales"})
		return
	}
	before := s.ledger.Len()
	result := s.ledger.ClearAll(c.Request.Context())
	operatorID, _ := utils.GetOperatorIdFromContext(c.Request.Context())
	correlationID, _ := utils.GetCorrelationIdFromContext(c.Request.Context())
	s.logger.WithFields(logrus.Fields{
		"operator":      operatorID,
		"correlationId": correlationID,
		"records":       before,
		"persisted":     result.Persisted,
	}).Warn("sales ledger cleared")
	res := gin.H{"cleared": true, "persisted": result.Persisted}
	if result.Err != nil {
		res["persistError"] = result.Err.Error()
	}
	c.JSON(http.StatusOK, res)
}
