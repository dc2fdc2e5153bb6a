package routes

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"github.com/ricardocosta23/formularioguias/app"
	"github.com/ricardocosta23/formularioguias/boards"
	"github.com/ricardocosta23/formularioguias/httpx"
	"github.com/ricardocosta23/formularioguias/log"
	"github.com/ricardocosta23/formularioguias/model"
)

// WebhookIntake receives Monday.com webhooks and creates one form per event.
// Monday first sends a challenge payload that must be echoed back before it
// starts delivering events.
func WebhookIntake(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		formType := chi.URLParam(r, "type")

		var payload struct {
			Challenge string             `json:"challenge"`
			Event     model.WebhookEvent `json:"event"`
		}
		err := render.DecodeJSON(r.Body, &payload)
		if err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "webhook.parse_body")
			return
		}

		if payload.Challenge != "" {
			render.JSON(w, r, map[string]string{
				"challenge": payload.Challenge,
			})
			return
		}

		webhook := model.WebhookData{Event: payload.Event}
		form, err := app.Generator.Generate(r.Context(), formType, webhook)
		if err != nil {
			if errors.Is(err, boards.ErrUnknownType) {
				httpx.LogStatusMsg(w, http.StatusUnprocessableEntity, log.WarnLevel,
					"webhook.form_type", "unknown form type %q", formType)
			} else {
				httpx.LogInternalError(w, "webhook.generate_form", err)
			}
			return
		}

		w.WriteHeader(http.StatusCreated)
		render.JSON(w, r, map[string]any{
			"form_id":  form.ID,
			"form_url": "/form/" + form.ID,
		})
	}
}
