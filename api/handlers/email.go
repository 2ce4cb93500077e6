package handlers

import (
	"fmt"
	"os"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
	"go.uber.org/zap"

	"github.com/civicpulse/civic-report-api/models"
	"github.com/civicpulse/civic-report-api/templates/html"
)

// sendResolutionEmail notifies the submitter that the issue they reported
// has been resolved.
func sendResolutionEmail(toEmail string, complaint *models.Complaint) error {
	if toEmail == "" {
		return fmt.Errorf("submitter has no email address")
	}

	from := mail.NewEmail("CivicPulse", "no-reply@civicpulse.app")
	to := mail.NewEmail("", toEmail)
	subject := "Your reported issue has been resolved"
	plainTextContent := fmt.Sprintf("Good news! The %s issue you reported at %s has been marked resolved.", complaint.Category, complaint.Location)
	htmlContent := html.GenericEmailTemplate(
		"Your reported issue has been resolved",
		fmt.Sprintf("Good news! The <b>%s</b> issue you reported at <b>%s</b> has been marked resolved. Open the app to review the work and leave feedback for the crew.", complaint.Category, complaint.Location),
	)
	message := mail.NewSingleEmail(from, subject, to, plainTextContent, htmlContent)

	client := sendgrid.NewSendClient(os.Getenv("SENDGRID_API_KEY"))
	response, err := client.Send(message)
	if err != nil {
		return err
	}
	zap.S().Debugw("resolution email sent", "statusCode", response.StatusCode, "complaintId", complaint.ID.Hex())
	return nil
}
