package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"github.com/ricardocosta23/formularioguias/app"
	"github.com/ricardocosta23/formularioguias/boards"
	"github.com/ricardocosta23/formularioguias/httpx"
	"github.com/ricardocosta23/formularioguias/log"
)

func GetBoardsConfig(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		render.JSON(w, r, app.Boards.All())
	}
}

func SaveBoardsConfig(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cfg := boards.Config{}
		err := render.DecodeJSON(r.Body, &cfg)
		if err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.parse_body")
			return
		}

		err = app.Boards.Save(cfg)
		if err != nil {
			httpx.LogInternalError(w, "boards.save_config", err)
			return
		}

		render.JSON(w, r, map[string]any{
			"message": "Configuration saved successfully",
		})
	}
}

func ListForms(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		render.JSON(w, r, map[string]any{
			"forms": app.Store.List(),
		})
	}
}

func DeleteForm(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		formId := chi.URLParam(r, "id")
		if formId == "" {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.get_url_param.id")
			return
		}

		if !app.Store.Delete(formId) {
			httpx.LogNotFound(w, "delete_form", formId)
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}

func ListDeliveries(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		deliveries, err := app.Journal.Recent(50)
		if err != nil {
			httpx.LogInternalError(w, "journal.get_deliveries", err)
			return
		}

		render.JSON(w, r, map[string]any{
			"deliveries": deliveries,
		})
	}
}

// UpdateItemColumn is the manual fix-up path: after a failed delivery an
// operator can write single column values onto an existing item, guided by
// the journal entry.
func UpdateItemColumn(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		boardId := chi.URLParam(r, "board")
		itemId := chi.URLParam(r, "item")
		columnId := chi.URLParam(r, "column")

		var body struct {
			Value string `json:"value"`
		}
		err := render.DecodeJSON(r.Body, &body)
		if err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.parse_body")
			return
		}

		err = app.Sink.UpdateItemColumn(r.Context(), boardId, itemId, columnId, body.Value)
		if err != nil {
			httpx.LogInternalError(w, "monday.update_column", err)
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}
