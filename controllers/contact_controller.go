package controllers

import (
	"rescuenet/models"
	"rescuenet/services"
	"rescuenet/utils"

	"github.com/gin-gonic/gin"
)

type ContactController struct {
	contactService *services.ContactService
}

func NewContactController(contactService *services.ContactService) *ContactController {
	return &ContactController{contactService: contactService}
}

// CreateContact handles POST /contacts
func (cc *ContactController) CreateContact(c *gin.Context) {
	userID := c.GetString("userID")
	if userID == "" {
		utils.UnauthorizedResponse(c, "")
		return
	}

	var req models.CreateContactRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "Invalid request format")
		return
	}

	contact, err := cc.contactService.CreateContact(c.Request.Context(), userID, req)
	if err != nil {
		utils.ServiceErrorResponse(c, err, "Failed to create contact")
		return
	}

	utils.CreatedResponse(c, "Contact created successfully", contact)
}

// GetContacts handles GET /contacts
func (cc *ContactController) GetContacts(c *gin.Context) {
	userID := c.GetString("userID")
	if userID == "" {
		utils.UnauthorizedResponse(c, "")
		return
	}

	contacts, err := cc.contactService.GetUserContacts(c.Request.Context(), userID)
	if err != nil {
		utils.ServiceErrorResponse(c, err, "Failed to retrieve contacts")
		return
	}

	utils.SuccessResponse(c, "Contacts retrieved successfully", gin.H{
		"contacts": contacts,
		"total":    len(contacts),
	})
}

// UpdateContact handles PUT /contacts/:id
func (cc *ContactController) UpdateContact(c *gin.Context) {
	contactID := c.Param("id")

	var req models.UpdateContactRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "Invalid request format")
		return
	}

	contact, err := cc.contactService.UpdateContact(c.Request.Context(), contactID, req)
	if err != nil {
		utils.ServiceErrorResponse(c, err, "Failed to update contact")
		return
	}

	utils.SuccessResponse(c, "Contact updated successfully", contact)
}

// DeleteContact handles DELETE /contacts/:id
func (cc *ContactController) DeleteContact(c *gin.Context) {
	contactID := c.Param("id")

	if err := cc.contactService.DeleteContact(c.Request.Context(), contactID); err != nil {
		utils.ServiceErrorResponse(c, err, "Failed to delete contact")
		return
	}

	utils.SuccessResponse(c, "Contact deleted successfully", nil)
}
