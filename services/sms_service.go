package services

import (
	"context"
	"fmt"
	"strings"

	"rescuenet/models"

	"github.com/sirupsen/logrus"
	"github.com/twilio/twilio-go"
	openapi "github.com/twilio/twilio-go/rest/api/v2010"
)

// SMSService notifies a reporter's emergency contacts when an alert is
// created. Every send is best-effort: a delivery failure is logged, never
// surfaced to the caller, and an unconfigured account disables sends entirely.
type SMSService struct {
	client     *twilio.RestClient
	fromNumber string
}

func NewSMSService(accountSID, authToken, fromNumber string) *SMSService {
	ss := &SMSService{fromNumber: fromNumber}

	if accountSID != "" && authToken != "" {
		ss.client = twilio.NewRestClientWithParams(twilio.ClientParams{
			Username: accountSID,
			Password: authToken,
		})
	}

	return ss
}

// NotifyContacts sends the alert summary to each emergency contact on the
// alert snapshot.
func (ss *SMSService) NotifyContacts(ctx context.Context, alert *models.Alert) {
	if ss.client == nil {
		logrus.Debug("Twilio not configured, skipping contact notifications")
		return
	}

	message := ss.formatAlertMessage(alert)

	for _, contact := range alert.EmergencyContacts {
		if err := ss.ValidatePhoneNumber(contact.Phone); err != nil {
			logrus.Warnf("Skipping contact %s: %v", contact.Name, err)
			continue
		}

		if err := ss.sendSMS(contact.Phone, message); err != nil {
			logrus.WithFields(logrus.Fields{
				"alertId": alert.ID.Hex(),
				"contact": contact.Name,
				"error":   err.Error(),
			}).Error("Failed to notify emergency contact")
			continue
		}

		logrus.Infof("Notified emergency contact %s for alert %s", contact.Name, alert.ID.Hex())
	}
}

func (ss *SMSService) formatAlertMessage(alert *models.Alert) string {
	content := fmt.Sprintf("EMERGENCY: %s alert from %s", strings.ToUpper(alert.Type), alert.UserName)
	if alert.Location.Address != "" {
		content += " near " + alert.Location.Address
	}

	// Keep within a single SMS segment.
	if len(content) > 150 {
		content = content[:147] + "..."
	}

	return content + " - RescueNet"
}

func (ss *SMSService) sendSMS(phoneNumber, message string) error {
	params := &openapi.CreateMessageParams{}
	params.SetTo(phoneNumber)
	params.SetFrom(ss.fromNumber)
	params.SetBody(message)

	resp, err := ss.client.Api.CreateMessage(params)
	if err != nil {
		return fmt.Errorf("twilio send failed: %w", err)
	}

	if resp.ErrorCode != nil {
		return fmt.Errorf("twilio error %d: %s", *resp.ErrorCode, safeString(resp.ErrorMessage))
	}

	return nil
}

// ValidatePhoneNumber checks for international format before attempting a send.
func (ss *SMSService) ValidatePhoneNumber(phoneNumber string) error {
	if phoneNumber == "" {
		return fmt.Errorf("phone number cannot be empty")
	}

	cleaned := strings.NewReplacer(" ", "", "-", "", "(", "", ")", "").Replace(phoneNumber)

	if !strings.HasPrefix(cleaned, "+") {
		return fmt.Errorf("phone number must be in international format (+1234567890)")
	}
	if len(cleaned) < 10 || len(cleaned) > 16 {
		return fmt.Errorf("invalid phone number length")
	}
	for _, char := range cleaned[1:] {
		if char < '0' || char > '9' {
			return fmt.Errorf("phone number contains invalid characters")
		}
	}

	return nil
}

func safeString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
