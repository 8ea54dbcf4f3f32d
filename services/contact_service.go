package services

import (
	"context"

	"rescuenet/models"
	"rescuenet/repositories"
	"rescuenet/utils"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ContactStore is the per-user emergency contact list surface.
type ContactStore interface {
	Create(ctx context.Context, contact *models.Contact) error
	GetByUser(ctx context.Context, userID string) ([]models.Contact, error)
	Update(ctx context.Context, id string, fields bson.M) (*models.Contact, error)
	Delete(ctx context.Context, id string) error
}

type ContactService struct {
	contactRepo ContactStore
	validator   *utils.ValidationService
}

func NewContactService(contactRepo ContactStore) *ContactService {
	return &ContactService{
		contactRepo: contactRepo,
		validator:   utils.NewValidationService(),
	}
}

func (cs *ContactService) CreateContact(ctx context.Context, userID string, req models.CreateContactRequest) (*models.Contact, error) {
	if validationErrors := cs.validator.ValidateStruct(req); len(validationErrors) > 0 {
		return nil, utils.NewValidationError(validationErrors[0].Message)
	}

	userObjectID, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return nil, utils.NewValidationError("Invalid user ID")
	}

	contact := &models.Contact{
		UserID:       userObjectID,
		Name:         req.Name,
		Phone:        req.Phone,
		Relationship: req.Relationship,
	}

	if err := cs.contactRepo.Create(ctx, contact); err != nil {
		return nil, utils.NewStorageError("create contact", err)
	}

	return contact, nil
}

func (cs *ContactService) GetUserContacts(ctx context.Context, userID string) ([]models.Contact, error) {
	contacts, err := cs.contactRepo.GetByUser(ctx, userID)
	if err != nil {
		return nil, utils.NewStorageError("list contacts", err)
	}
	return contacts, nil
}

func (cs *ContactService) UpdateContact(ctx context.Context, contactID string, req models.UpdateContactRequest) (*models.Contact, error) {
	fields := bson.M{}
	if req.Name != "" {
		fields["name"] = req.Name
	}
	if req.Phone != "" {
		fields["phone"] = req.Phone
	}
	if req.Relationship != "" {
		fields["relationship"] = req.Relationship
	}

	if len(fields) == 0 {
		return nil, utils.NewBadRequestError("No fields to update")
	}

	contact, err := cs.contactRepo.Update(ctx, contactID, fields)
	if err != nil {
		switch err {
		case repositories.ErrNotFound, repositories.ErrInvalidID:
			return nil, utils.NewNotFoundError("Contact")
		default:
			return nil, utils.NewStorageError("update contact", err)
		}
	}

	return contact, nil
}

func (cs *ContactService) DeleteContact(ctx context.Context, contactID string) error {
	if err := cs.contactRepo.Delete(ctx, contactID); err != nil {
		switch err {
		case repositories.ErrNotFound, repositories.ErrInvalidID:
			return utils.NewNotFoundError("Contact")
		default:
			return utils.NewStorageError("delete contact", err)
		}
	}
	return nil
}
