package service

import (
	"context"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
	"github.com/twilio/twilio-go"
	openapi "github.com/twilio/twilio-go/rest/api/v2010"

	"github.com/Nouhamk/restau-reservation-flutter/internal/entities"
	"github.com/Nouhamk/restau-reservation-flutter/internal/repository"
)

// ContactDirectory resolves a user id into a reachable contact.
type ContactDirectory interface {
	ContactFor(ctx context.Context, userID int) (*repository.Contact, error)
}

// SenderService is the notification dispatcher: email through SendGrid,
// SMS through Twilio. Every delivery runs in its own goroutine and every
// failure is logged and swallowed; a committed reservation never sees a
// notification error.
type SenderService struct {
	Users ContactDirectory
}

func NewSenderService(users ContactDirectory) *SenderService {
	return &SenderService{Users: users}
}

var statusMessages = map[string]string{
	StatusConfirmed: "Votre réservation a été confirmée !",
	StatusRejected:  "Désolé, votre réservation a été refusée.",
	StatusCancelled: "Votre réservation a été annulée.",
}

func (s *SenderService) NotifyCreated(res entities.ReservationResponse) {
	go func() {
		contact, err := s.Users.ContactFor(context.Background(), res.UserID)
		if err != nil {
			log.Printf("ALERT: could not resolve contact for user %d: %v", res.UserID, err)
			return
		}

		subject := fmt.Sprintf("Réservation #%d reçue", res.ID)
		body := fmt.Sprintf(
			"Bonjour %s,\n\nNous avons bien reçu votre réservation pour %d personne(s) le %s à %s.\n"+
				"Elle est en attente de confirmation par le restaurant.\n\nÀ bientôt !",
			contact.Name, res.Guests, res.Date, res.Time,
		)
		if err := SendEmailWithSendGrid(contact.Email, contact.Name, subject, body); err != nil {
			log.Printf("ALERT (async): email for reservation %d failed: %v", res.ID, err)
		}
	}()
}

func (s *SenderService) NotifyStatusChanged(ownerID int, change entities.StatusChange) {
	go func() {
		contact, err := s.Users.ContactFor(context.Background(), ownerID)
		if err != nil {
			log.Printf("ALERT: could not resolve contact for user %d: %v", ownerID, err)
			return
		}

		message, ok := statusMessages[change.NewStatus]
		if !ok {
			message = "Statut de votre réservation mis à jour."
		}
		subject := fmt.Sprintf("Réservation #%d : mise à jour", change.ReservationID)
		body := fmt.Sprintf("Bonjour %s,\n\n%s\n", contact.Name, message)
		if err := SendEmailWithSendGrid(contact.Email, contact.Name, subject, body); err != nil {
			log.Printf("ALERT (async): email for reservation %d failed: %v", change.ReservationID, err)
		}

		if contact.Phone != "" {
			sms := fmt.Sprintf("Réservation #%d : %s", change.ReservationID, message)
			if err := SendSMS(contact.Phone, sms); err != nil {
				log.Printf("ALERT (async): SMS for reservation %d failed: %v", change.ReservationID, err)
			}
		}
	}()
}

func (s *SenderService) NotifyReminder(res entities.ReservationResponse) {
	go func() {
		contact, err := s.Users.ContactFor(context.Background(), res.UserID)
		if err != nil {
			log.Printf("ALERT: could not resolve contact for user %d: %v", res.UserID, err)
			return
		}

		body := fmt.Sprintf("N'oubliez pas votre réservation aujourd'hui à %s !", res.Time)
		if contact.Phone != "" {
			if err := SendSMS(contact.Phone, body); err != nil {
				log.Printf("ALERT (async): reminder SMS for reservation %d failed: %v", res.ID, err)
			}
			return
		}
		subject := fmt.Sprintf("Rappel : réservation #%d", res.ID)
		if err := SendEmailWithSendGrid(contact.Email, contact.Name, subject, body); err != nil {
			log.Printf("ALERT (async): reminder email for reservation %d failed: %v", res.ID, err)
		}
	}()
}

// SendEmailWithSendGrid sends a plain text email through the SendGrid API.
func SendEmailWithSendGrid(toEmailAddress, toName, subject, plainTextContent string) error {
	sendgridAPIKey := os.Getenv("SENDGRID_API_KEY")
	if sendgridAPIKey == "" {
		return fmt.Errorf("SENDGRID_API_KEY not configured")
	}
	fromEmail := os.Getenv("SENDGRID_FROM_EMAIL")
	if fromEmail == "" {
		return fmt.Errorf("SENDGRID_FROM_EMAIL not configured")
	}
	fromName := os.Getenv("SENDGRID_FROM_NAME")
	if fromName == "" {
		fromName = "Restau Réservation"
	}

	from := mail.NewEmail(fromName, fromEmail)
	to := mail.NewEmail(toName, toEmailAddress)
	message := mail.NewSingleEmail(from, subject, to, plainTextContent, "")

	client := sendgrid.NewSendClient(sendgridAPIKey)
	response, err := client.Send(message)
	if err != nil {
		return fmt.Errorf("sendgrid send failed: %w", err)
	}
	if response.StatusCode < 200 || response.StatusCode >= 300 {
		return fmt.Errorf("sendgrid returned status %d: %s", response.StatusCode, response.Body)
	}
	log.Printf("Email sent to %s (subject: %s)", toEmailAddress, subject)
	return nil
}

// SendSMS sends a text message through Twilio.
func SendSMS(toNumber, messageBody string) error {
	accountSid := os.Getenv("TWILIO_ACCOUNT_SID")
	authToken := os.Getenv("TWILIO_AUTH_TOKEN")
	fromNumber := os.Getenv("TWILIO_FROM_NUMBER")
	if accountSid == "" || authToken == "" || fromNumber == "" {
		return fmt.Errorf("twilio credentials not configured")
	}
	if !strings.HasPrefix(toNumber, "+") {
		log.Printf("WARNING: destination number %q is not E.164, SMS may fail", toNumber)
	}

	client := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: accountSid,
		Password: authToken,
	})
	params := &openapi.CreateMessageParams{}
	params.SetTo(toNumber)
	params.SetFrom(fromNumber)
	params.SetBody(messageBody)

	if _, err := client.Api.CreateMessage(params); err != nil {
		return fmt.Errorf("twilio send failed: %w", err)
	}
	log.Printf("SMS sent to %s", toNumber)
	return nil
}
