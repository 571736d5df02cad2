package worker

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"time"

	"github.com/hibiken/asynq"
	"github.com/uxpromo/limboquest-api/util"
)

type SendResetPasswordPayload struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
}

const SendResetPassword = "send-reset-password"

// Cache key prefix for one-shot reset tokens; the value is the user id.
const ResetTokenPrefix = "pwdreset:"

// How long a reset link stays valid
const ResetTokenTTL = time.Hour

var resetTmpl = template.Must(template.New("reset_password").Parse(`
<html>
  <body>
    <p>Hello {{.Name}},</p>
    <p>Someone requested a password reset for your back office account.
       If it was you, follow the link below within one hour:</p>
    <p><a href="{{.ResetLink}}">Reset password</a></p>
    <p>If you did not request this, ignore this email.</p>
  </body>
</html>`))

// HandleSendResetPassword allocates a one-shot token in the cache and emails
// the reset link. The token expires on its own; a successful reset deletes
// it so the link cannot be replayed.
func (processor *RedisTaskProcessor) HandleSendResetPassword(ctx context.Context, task *asynq.Task) error {
	payload, err := decodePayload[SendResetPasswordPayload](task)
	if err != nil {
		return err
	}

	// Generate token and register it in cache before sending anything
	token := util.RandomString(48)
	processor.queries.SetCache(ctx, ResetTokenPrefix+token, payload.ID, ResetTokenTTL)

	link := fmt.Sprintf("%s?token=%s", processor.config.ResetPasswordURL, token)

	// Prepare the HTML email body
	var buffer bytes.Buffer
	err = resetTmpl.Execute(&buffer, struct {
		Name      string
		ResetLink string
	}{Name: payload.Name, ResetLink: link})
	if err != nil {
		return err
	}

	// Send email
	err = processor.mailService.SendEmail(payload.Email, "Reset your password", buffer.String())
	if err != nil {
		util.LOGGER.Error("background log", "task", SendResetPassword, "email", payload.Email, "error", err)
		return err
	}

	return nil
}
