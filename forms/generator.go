package forms

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/ricardocosta23/formularioguias/boards"
	"github.com/ricardocosta23/formularioguias/log"
	"github.com/ricardocosta23/formularioguias/model"
	"github.com/ricardocosta23/formularioguias/monday"
	"github.com/ricardocosta23/formularioguias/store"
)

// Generator builds a form definition out of a webhook event and the board
// configuration of its form type, and persists it.
type Generator struct {
	Store  store.FormStore
	Boards *boards.Registry
	Sink   monday.Sink
}

// Generate creates one form for the item named by the webhook event. The
// question template of the form type is instantiated: monday_column
// questions get their source value prefetched from the source board, header
// fields are captured once, and conditional rules are validated. The result
// is immutable from here on.
func (g *Generator) Generate(ctx context.Context, formType string, webhook model.WebhookData) (model.FormDefinition, error) {
	cfg, ok := g.Boards.ForType(formType)
	if !ok {
		return model.FormDefinition{}, errors.Wrap(boards.ErrUnknownType, formType)
	}

	itemID := strconv.FormatInt(webhook.Event.PulseID, 10)

	questions := make([]model.Question, len(cfg.Questions))
	copy(questions, cfg.Questions)
	for i, q := range questions {
		if q.Type != model.TypeMondayColumn {
			continue
		}
		questions[i].ColumnValue = g.prefetch(ctx, itemID, q)
	}

	form := model.FormDefinition{
		ID:          uuid.NewString(),
		Type:        formType,
		Questions:   model.NormalizeQuestions(questions),
		HeaderData:  g.headerData(ctx, itemID, cfg, webhook),
		WebhookData: webhook,
		CreatedAt:   time.Now(),
	}

	if err := g.Store.Put(form); err != nil {
		return model.FormDefinition{}, errors.Wrap(err, "persist form")
	}

	log.Infof("forms.generate: created form %s for type %s (item %s)", form.ID, formType, itemID)
	return form, nil
}

func (g *Generator) prefetch(ctx context.Context, itemID string, q model.Question) model.ColumnValue {
	if q.SourceColumn == "" {
		log.Warnf("forms.generate: question %s has no source column, nothing to prefetch", q.ID)
		return model.ColumnValue{Status: model.ValueNotFetched}
	}

	value, err := g.Sink.FetchColumnValue(ctx, itemID, q.SourceColumn)
	if err != nil {
		log.Warnf("forms.generate: prefetch of %s for question %s failed: %s", q.SourceColumn, q.ID, err)
	}
	return value
}

func (g *Generator) headerData(ctx context.Context, itemID string, cfg boards.BoardConfig, webhook model.WebhookData) map[string]string {
	header := map[string]string{}
	for field, column := range cfg.HeaderColumns {
		value, err := g.Sink.FetchColumnValue(ctx, itemID, column)
		if err != nil {
			log.Warnf("forms.generate: header %s (%s) not available: %s", field, column, err)
			continue
		}
		if value.Usable() {
			header[field] = value.Text
		}
	}

	if strings.TrimSpace(header["Viagem"]) == "" && webhook.Event.PulseName != "" {
		header["Viagem"] = webhook.Event.PulseName
	}
	return header
}
