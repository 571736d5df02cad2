package worker

import (
	"bytes"
	"context"
	"html/template"
	"time"

	"github.com/hibiken/asynq"
	"github.com/uxpromo/limboquest-api/util"
)

type SendBookingConfirmationPayload struct {
	Email       string    `json:"email"`
	Name        string    `json:"name"`
	QuestTitle  string    `json:"quest_title"`
	StartsAt    time.Time `json:"starts_at"`
	BookingCode string    `json:"booking_code"`
	TotalPrice  int       `json:"total_price"`
}

const SendBookingConfirmation = "send-booking-confirmation"

var confirmationTmpl = template.Must(template.New("booking_confirmed").Parse(`
<html>
  <body>
    <p>Hello {{.Name}},</p>
    <p>Your booking is confirmed.</p>
    <ul>
      <li>Quest: {{.QuestTitle}}</li>
      <li>Starts at: {{.StartsAt.Format "02.01.2006 15:04"}}</li>
      <li>Booking code: <b>{{.BookingCode}}</b></li>
      <li>Total: {{.Total}}</li>
    </ul>
    <p>Show the booking code at the front desk. See you there!</p>
  </body>
</html>`))

// HandleSendBookingConfirmation emails the guest after an admin confirms the
// booking. Bookings without an email on file never enqueue this task.
func (processor *RedisTaskProcessor) HandleSendBookingConfirmation(ctx context.Context, task *asynq.Task) error {
	payload, err := decodePayload[SendBookingConfirmationPayload](task)
	if err != nil {
		return err
	}

	var buffer bytes.Buffer
	err = confirmationTmpl.Execute(&buffer, struct {
		Name        string
		QuestTitle  string
		StartsAt    time.Time
		BookingCode string
		Total       string
	}{
		Name:        payload.Name,
		QuestTitle:  payload.QuestTitle,
		StartsAt:    payload.StartsAt,
		BookingCode: payload.BookingCode,
		Total:       util.FormatPrice(payload.TotalPrice),
	})
	if err != nil {
		return err
	}

	err = processor.mailService.SendEmail(payload.Email, "Your quest booking is confirmed", buffer.String())
	if err != nil {
		util.LOGGER.Error("background log", "task", SendBookingConfirmation, "email", payload.Email, "error", err)
		return err
	}

	return nil
}
