package handler

import (
	"errors"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/samber/lo"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/build-lab/girder/dao/model"
	"github.com/build-lab/girder/internal/resputil"
)

//nolint:gochecknoinits // This is the standard way to register a gin handler.
func init() {
	Registers = append(Registers, NewSupplierMgr)
}

type SupplierMgr struct {
	name string
	db   *gorm.DB
}

func NewSupplierMgr(conf *RegisterConfig) Manager {
	return &SupplierMgr{
		name: "suppliers",
		db:   conf.DB,
	}
}

func (mgr *SupplierMgr) GetName() string { return mgr.name }

func (mgr *SupplierMgr) RegisterPublic(_ *gin.RouterGroup) {}

func (mgr *SupplierMgr) RegisterProtected(g *gin.RouterGroup) {
	g.GET("", mgr.ListSuppliers)
	g.GET("/:id/quotations", mgr.ListQuotations)
	g.POST("/:id/quotations", mgr.CreateQuotation)
	g.PUT("/quotations/:id/status", mgr.UpdateQuotationStatus)
}

func (mgr *SupplierMgr) RegisterAdmin(g *gin.RouterGroup) {
	g.POST("", mgr.CreateSupplier)
}

type (
	SupplierIDReq struct {
		ID uint `uri:"id" binding:"required"`
	}

	CreateSupplierReq struct {
		Name         string `json:"name" binding:"required"`
		ContactEmail string `json:"contactEmail"`
		Phone        string `json:"phone"`
	}

	CreateQuotationReq struct {
		ProjectID  uint                  `json:"projectID" binding:"required"`
		Amount     float64               `json:"amount" binding:"required"`
		Items      []model.QuotationItem `json:"items"`
		ValidUntil *time.Time            `json:"validUntil"`
	}

	UpdateQuotationStatusReq struct {
		Status model.QuotationStatus `json:"status" binding:"required"`
	}

	SupplierResp struct {
		ID           uint   `json:"id"`
		Name         string `json:"name"`
		ContactEmail string `json:"contactEmail"`
		Phone        string `json:"phone"`
	}

	QuotationResp struct {
		ID         uint                  `json:"id"`
		SupplierID uint                  `json:"supplierID"`
		ProjectID  uint                  `json:"projectID"`
		Amount     float64               `json:"amount"`
		Status     model.QuotationStatus `json:"status"`
		Items      []model.QuotationItem `json:"items"`
		ValidUntil *time.Time            `json:"validUntil"`
		CreatedAt  time.Time             `json:"createdAt"`
	}
)

func toQuotationResp(q *model.Quotation) QuotationResp {
	return QuotationResp{
		ID:         q.ID,
		SupplierID: q.SupplierID,
		ProjectID:  q.ProjectID,
		Amount:     q.Amount,
		Status:     q.Status,
		Items:      q.Items.Data(),
		ValidUntil: q.ValidUntil,
		CreatedAt:  q.CreatedAt,
	}
}

// ListSuppliers godoc
// @Summary List suppliers
// @Description List all active suppliers
// @Tags Supplier
// @Accept json
// @Produce json
// @Security Bearer
// @Success 200 {object} resputil.Response[[]SupplierResp] "suppliers"
// @Failure 500 {object} resputil.Response[any] "other errors"
// @Router /v1/suppliers [get]
func (mgr *SupplierMgr) ListSuppliers(c *gin.Context) {
	var suppliers []model.Supplier
	if err := mgr.db.WithContext(c).
		Where("status = ?", model.UserStatusActive).
		Order("name").Find(&suppliers).Error; err != nil {
		resputil.Error(c, "failed to list suppliers", resputil.NotSpecified)
		return
	}
	resputil.Success(c, lo.Map(suppliers, func(s model.Supplier, _ int) SupplierResp {
		return SupplierResp{ID: s.ID, Name: s.Name, ContactEmail: s.ContactEmail, Phone: s.Phone}
	}))
}

// CreateSupplier godoc
// @Summary Create a supplier
// @Description Register a new active supplier
// @Tags Supplier
// @Accept json
// @Produce json
// @Security Bearer
// @Param data body CreateSupplierReq true "supplier"
// @Success 200 {object} resputil.Response[SupplierResp] "created supplier"
// @Failure 409 {object} resputil.Response[any] "name already taken"
// @Router /v1/admin/suppliers [post]
func (mgr *SupplierMgr) CreateSupplier(c *gin.Context) {
	var req CreateSupplierReq
	if err := c.ShouldBindJSON(&req); err != nil {
		resputil.BadRequestError(c, err.Error())
		return
	}

	supplier := model.Supplier{
		Name:         req.Name,
		ContactEmail: req.ContactEmail,
		Phone:        req.Phone,
		Status:       model.UserStatusActive,
	}
	if err := mgr.db.WithContext(c).Create(&supplier).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			resputil.HTTPError(c, 409, "supplier name already taken", resputil.ResourceConflict)
			return
		}
		resputil.Error(c, "failed to create supplier", resputil.NotSpecified)
		return
	}
	resputil.Success(c, SupplierResp{
		ID: supplier.ID, Name: supplier.Name, ContactEmail: supplier.ContactEmail, Phone: supplier.Phone,
	})
}

// ListQuotations godoc
// @Summary List quotations of a supplier
// @Description Quotations ordered by creation time, newest first
// @Tags Supplier
// @Accept json
// @Produce json
// @Security Bearer
// @Param id path int true "supplier ID"
// @Success 200 {object} resputil.Response[[]QuotationResp] "quotations"
// @Failure 404 {object} resputil.Response[any] "supplier not found"
// @Router /v1/suppliers/{id}/quotations [get]
func (mgr *SupplierMgr) ListQuotations(c *gin.Context) {
	var req SupplierIDReq
	if err := c.ShouldBindUri(&req); err != nil {
		resputil.BadRequestError(c, err.Error())
		return
	}
	var quotations []model.Quotation
	if err := mgr.db.WithContext(c).
		Where("supplier_id = ?", req.ID).
		Order("created_at DESC").Find(&quotations).Error; err != nil {
		resputil.Error(c, "failed to list quotations", resputil.NotSpecified)
		return
	}
	resputil.Success(c, lo.Map(quotations, func(q model.Quotation, _ int) QuotationResp {
		return toQuotationResp(&q)
	}))
}

// CreateQuotation godoc
// @Summary Create a quotation
// @Description Record a supplier's offer against a project, starting as Draft
// @Tags Supplier
// @Accept json
// @Produce json
// @Security Bearer
// @Param id path int true "supplier ID"
// @Param data body CreateQuotationReq true "quotation"
// @Success 200 {object} resputil.Response[QuotationResp] "created quotation"
// @Failure 404 {object} resputil.Response[any] "supplier or project not found"
// @Router /v1/suppliers/{id}/quotations [post]
func (mgr *SupplierMgr) CreateQuotation(c *gin.Context) {
	var idReq SupplierIDReq
	var req CreateQuotationReq
	if err := c.ShouldBindUri(&idReq); err != nil {
		resputil.BadRequestError(c, err.Error())
		return
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		resputil.BadRequestError(c, err.Error())
		return
	}

	var supplier model.Supplier
	if err := mgr.db.WithContext(c).First(&supplier, idReq.ID).Error; err != nil {
		resputil.HTTPError(c, 404, "supplier not found", resputil.ResourceNotFound)
		return
	}
	var project model.Project
	if err := mgr.db.WithContext(c).First(&project, req.ProjectID).Error; err != nil {
		resputil.HTTPError(c, 404, "project not found", resputil.ResourceNotFound)
		return
	}

	quotation := model.Quotation{
		SupplierID: idReq.ID,
		ProjectID:  req.ProjectID,
		Amount:     req.Amount,
		Status:     model.QuotationStatusDraft,
		Items:      datatypes.NewJSONType(req.Items),
		ValidUntil: req.ValidUntil,
	}
	if err := mgr.db.WithContext(c).Create(&quotation).Error; err != nil {
		resputil.Error(c, "failed to create quotation", resputil.NotSpecified)
		return
	}
	resputil.Success(c, toQuotationResp(&quotation))
}

// quotationTransitions gates the quotation lifecycle.
var quotationTransitions = map[model.QuotationStatus][]model.QuotationStatus{
	model.QuotationStatusDraft:     {model.QuotationStatusSubmitted},
	model.QuotationStatusSubmitted: {model.QuotationStatusAccepted, model.QuotationStatusRejected},
	model.QuotationStatusAccepted:  {},
	model.QuotationStatusRejected:  {},
}

// UpdateQuotationStatus godoc
// @Summary Update quotation status
// @Description Move a quotation along Draft, Submitted, Accepted or Rejected
// @Tags Supplier
// @Accept json
// @Produce json
// @Security Bearer
// @Param id path int true "quotation ID"
// @Param data body UpdateQuotationStatusReq true "target status"
// @Success 200 {object} resputil.Response[QuotationResp] "updated quotation"
// @Failure 400 {object} resputil.Response[any] "invalid transition"
// @Router /v1/suppliers/quotations/{id}/status [put]
func (mgr *SupplierMgr) UpdateQuotationStatus(c *gin.Context) {
	var idReq SupplierIDReq
	var req UpdateQuotationStatusReq
	if err := c.ShouldBindUri(&idReq); err != nil {
		resputil.BadRequestError(c, err.Error())
		return
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		resputil.BadRequestError(c, err.Error())
		return
	}

	var quotation model.Quotation
	if err := mgr.db.WithContext(c).First(&quotation, idReq.ID).Error; err != nil {
		resputil.HTTPError(c, 404, "quotation not found", resputil.ResourceNotFound)
		return
	}
	if !lo.Contains(quotationTransitions[quotation.Status], req.Status) {
		resputil.BadRequestError(c, "invalid quotation transition")
		return
	}
	quotation.Status = req.Status
	if err := mgr.db.WithContext(c).Save(&quotation).Error; err != nil {
		resputil.Error(c, "failed to update quotation", resputil.NotSpecified)
		return
	}
	resputil.Success(c, toQuotationResp(&quotation))
}
