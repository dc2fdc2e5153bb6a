package routes

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"github.com/ricardocosta23/formularioguias/app"
	"github.com/ricardocosta23/formularioguias/boards"
	"github.com/ricardocosta23/formularioguias/dispatch"
	"github.com/ricardocosta23/formularioguias/httpx"
	"github.com/ricardocosta23/formularioguias/log"
	"github.com/ricardocosta23/formularioguias/store"
)

func PublicGetFormById(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		formId := chi.URLParam(r, "id")
		if formId == "" {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.get_url_param.id")
			return
		}

		form, err := app.Store.Get(formId)
		if err != nil {
			httpx.LogNotFound(w, "get_form", formId)
			return
		}

		render.JSON(w, r, form)
	}
}

func PublicSubmitForm(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		formId := chi.URLParam(r, "id")
		if formId == "" {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.get_url_param.id")
			return
		}

		form, err := app.Store.Get(formId)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				httpx.LogNotFound(w, "get_form", formId)
			} else {
				httpx.LogInternalError(w, "store.get_form", err)
			}
			return
		}

		answers, err := parseAnswers(r)
		if err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.parse_body")
			return
		}

		err = app.Processor.Submit(form, answers)
		if err != nil {
			if errors.Is(err, boards.ErrUnknownType) || errors.Is(err, dispatch.ErrNoDestination) {
				httpx.LogStatusMsg(w, http.StatusUnprocessableEntity, log.WarnLevel,
					"submit_form.config", "form %s cannot be delivered: %s", formId, err)
			} else {
				httpx.LogInternalError(w, "submit_form", err)
			}
			return
		}

		// Delivery continues in the background; the user is done here.
		w.WriteHeader(http.StatusAccepted)
		render.JSON(w, r, map[string]any{
			"form_id": formId,
			"status":  "accepted",
		})
	}
}

// parseAnswers accepts both the JSON body the single-page form posts and a
// plain form-encoded POST.
func parseAnswers(r *http.Request) (map[string]string, error) {
	contentType := r.Header.Get("content-type")
	if strings.HasPrefix(contentType, "application/json") {
		var body struct {
			Answers map[string]string `json:"answers"`
		}
		if err := render.DecodeJSON(r.Body, &body); err != nil {
			return nil, err
		}
		return body.Answers, nil
	}

	if err := r.ParseForm(); err != nil {
		return nil, err
	}
	answers := make(map[string]string, len(r.PostForm))
	for key := range r.PostForm {
		answers[key] = r.PostForm.Get(key)
	}
	return answers, nil
}
