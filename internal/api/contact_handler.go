package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/datatypes"

	"careerPilot/internal/database"
	"careerPilot/internal/mailer"
	"careerPilot/internal/store"
)

// ContactHandler 管理公司联系人。
type ContactHandler struct {
	store *store.Store
}

// NewContactHandler 构造 ContactHandler。
func NewContactHandler(s *store.Store) *ContactHandler {
	return &ContactHandler{store: s}
}

type contactRequest struct {
	CompanyName    string   `json:"company_name" binding:"required"`
	EmailAddresses []string `json:"email_addresses" binding:"required,min=1"`
	ContactPerson  *string  `json:"contact_person"`
	Department     *string  `json:"department"`
	Phone          *string  `json:"phone"`
	Website        *string  `json:"website"`
}

// CreateContact 登记公司联系人，邮箱须为合法地址，公司名不可重复。
func (h *ContactHandler) CreateContact(c *gin.Context) {
	var req contactRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}

	emails, err := mailer.ParseAddresses(req.EmailAddresses)
	if err != nil {
		BadRequest(c, err.Error())
		return
	}

	ctx := c.Request.Context()
	company := strings.TrimSpace(req.CompanyName)
	if _, err := h.store.FindContactByCompany(ctx, company); err == nil {
		BadRequest(c, "contact for company already exists")
		return
	} else if !errors.Is(err, store.ErrNotFound) {
		respondError(c, err)
		return
	}

	contact := &database.CompanyContact{
		CompanyName:    company,
		EmailAddresses: datatypes.JSONSlice[string](emails),
		ContactPerson:  req.ContactPerson,
		Department:     req.Department,
		Phone:          req.Phone,
		Website:        req.Website,
	}
	if err := h.store.CreateContact(ctx, contact); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, contact)
}

// ListContacts 返回全部公司联系人。
func (h *ContactHandler) ListContacts(c *gin.Context) {
	contacts, err := h.store.ListContacts(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, contacts)
}
