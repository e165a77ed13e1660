package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/jcastellanos/credifacil-api/internal/repository"
	"github.com/jcastellanos/credifacil-api/internal/services"
)

type CustomerHandler struct {
	customerService *services.CustomerService
}

func NewCustomerHandler(customerService *services.CustomerService) *CustomerHandler {
	return &CustomerHandler{customerService: customerService}
}

// @Summary List Customers
// @Description Get a paginated list of customers
// @Tags Customers
// @Produce json
// @Param page query int false "Page number" default(1)
// @Param per_page query int false "Items per page" default(20)
// @Param search query string false "Search by name, identity or phone"
// @Param status query string false "Filter by status"
// @Success 200 {object} map[string]interface{}
// @Security BearerAuth
// @Router /customers [get]
func (h *CustomerHandler) Index(c *gin.Context) {
	query := parseListQuery(c)
	query.Filters["status"] = c.Query("status")

	customers, total, err := h.customerService.List(c.Request.Context(), query)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	var responses []interface{}
	for _, customer := range customers {
		responses = append(responses, customer.ToResponse())
	}

	c.JSON(http.StatusOK, gin.H{
		"customers": responses,
		"pagination": gin.H{
			"page":     query.Page,
			"per_page": query.PerPage,
			"total":    total,
		},
	})
}

// @Summary Get Customer
// @Description Get a customer with their loan portfolio and rollup summary
// @Tags Customers
// @Produce json
// @Param id path int true "Customer ID"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} map[string]string
// @Security BearerAuth
// @Router /customers/{id} [get]
func (h *CustomerHandler) Show(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("customer_id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "ID inválido"})
		return
	}

	customer, err := h.customerService.GetWithLoans(c.Request.Context(), uint(id))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"customer": customer.ToResponse()})
}

// @Summary Create Customer
// @Description Onboard a new customer
// @Tags Customers
// @Accept json
// @Produce json
// @Param request body services.CreateCustomerInput true "Customer data"
// @Success 201 {object} map[string]interface{}
// @Failure 409 {object} map[string]string
// @Security BearerAuth
// @Router /customers [post]
func (h *CustomerHandler) Create(c *gin.Context) {
	var input services.CreateCustomerInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	createdBy := actor(c)
	customer, err := h.customerService.Create(c.Request.Context(), &input, createdBy)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, repository.ErrDuplicateIdentity) {
			status = http.StatusConflict
		}
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"customer": customer.ToResponse()})
}

// @Summary Update Customer
// @Description Update a customer's contact data
// @Tags Customers
// @Accept json
// @Produce json
// @Param id path int true "Customer ID"
// @Param request body services.UpdateCustomerInput true "Customer data"
// @Success 200 {object} map[string]interface{}
// @Security BearerAuth
// @Router /customers/{id} [put]
func (h *CustomerHandler) Update(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("customer_id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "ID inválido"})
		return
	}

	var input services.UpdateCustomerInput
	if err := BindNestedOrFlat(c, "customer", &input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	updatedBy := actor(c)
	customer, err := h.customerService.Update(c.Request.Context(), uint(id), &input, updatedBy)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, services.ErrCustomerNotFound) {
			status = http.StatusNotFound
		}
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"customer": customer.ToResponse()})
}

// @Summary Delete Customer
// @Description Soft-delete a customer without open loans
// @Tags Customers
// @Produce json
// @Param id path int true "Customer ID"
// @Success 200 {object} map[string]string
// @Failure 409 {object} map[string]string
// @Security BearerAuth
// @Router /customers/{id} [delete]
func (h *CustomerHandler) Delete(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("customer_id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "ID inválido"})
		return
	}

	deletedBy := actor(c)
	if err := h.customerService.Delete(c.Request.Context(), uint(id), deletedBy); err != nil {
		status := http.StatusInternalServerError
		switch {
		case errors.Is(err, services.ErrCustomerNotFound):
			status = http.StatusNotFound
		case errors.Is(err, services.ErrCustomerHasLoans):
			status = http.StatusConflict
		}
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Cliente eliminado exitosamente"})
}

// @Summary Find Customer by Identity
// @Description Look a customer up by their national identity number
// @Tags Customers
// @Produce json
// @Param identity path string true "Identity number"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} map[string]string
// @Security BearerAuth
// @Router /customers/identity/{identity} [get]
func (h *CustomerHandler) ShowByIdentity(c *gin.Context) {
	customer, err := h.customerService.GetByIdentity(c.Request.Context(), c.Param("identity"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"customer": customer.ToResponse()})
}

// @Summary Restore Customer
// @Description Bring back a previously deleted customer
// @Tags Customers
// @Produce json
// @Param id path int true "Customer ID"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} map[string]string
// @Security BearerAuth
// @Router /customers/{id}/restore [post]
func (h *CustomerHandler) Restore(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("customer_id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "ID inválido"})
		return
	}

	customer, err := h.customerService.Restore(c.Request.Context(), uint(id), actor(c))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"customer": customer.ToResponse()})
}
