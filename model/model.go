package model

import (
	"encoding/json"
	"strings"
	"time"
)

type QuestionType string

const (
	TypeText         QuestionType = "text"
	TypeLongText     QuestionType = "longtext"
	TypeYesNo        QuestionType = "yesno"
	TypeRating       QuestionType = "rating"
	TypeDropdown     QuestionType = "dropdown"
	TypeDivider      QuestionType = "divider"
	TypeMondayColumn QuestionType = "monday_column"
)

type Conditional struct {
	DependsOn string `json:"depends_on"`
	ShowIf    string `json:"show_if"`
}

type Question struct {
	ID            string       `json:"id"`
	Type          QuestionType `json:"type"`
	Text          string       `json:"text"`
	Conditional   *Conditional `json:"conditional,omitempty"`
	IsConditional bool         `json:"is_conditional"`

	// Where the primary answer is written on the destination board.
	DestinationColumn string `json:"destination_column,omitempty"`

	// monday_column questions carry two independent destinations: the
	// prefetched source value and the user's rating of it.
	SourceColumn            string      `json:"source_column,omitempty"`
	TextDestinationColumn   string      `json:"text_destination_column,omitempty"`
	RatingDestinationColumn string      `json:"rating_destination_column,omitempty"`
	ColumnValue             ColumnValue `json:"column_value,omitempty"`

	// Dropdown choices, free-form (label list or label/value pairs).
	Options any `json:"options,omitempty"`
}

type WebhookEvent struct {
	PulseID   int64  `json:"pulseId"`
	PulseName string `json:"pulseName"`
	BoardID   int64  `json:"boardId"`
	Type      string `json:"type"`
}

type WebhookData struct {
	Event WebhookEvent `json:"event"`
}

type FormDefinition struct {
	ID          string            `json:"id"`
	Type        string            `json:"type"`
	Title       string            `json:"title,omitempty"`
	Subtitle    string            `json:"subtitle,omitempty"`
	Questions   []Question        `json:"questions"`
	HeaderData  map[string]string `json:"header_data"`
	WebhookData WebhookData       `json:"webhook_data"`
	CreatedAt   time.Time         `json:"created_at"`
}

type FormSummary struct {
	ID         string            `json:"id"`
	Type       string            `json:"type"`
	CreatedAt  time.Time         `json:"created_at"`
	HeaderData map[string]string `json:"header_data"`
}

func (f FormDefinition) Summary() FormSummary {
	return FormSummary{
		ID:         f.ID,
		Type:       f.Type,
		CreatedAt:  f.CreatedAt,
		HeaderData: f.HeaderData,
	}
}

type ValueStatus int

const (
	ValueNotFetched ValueStatus = iota
	ValueFetched
	ValueFetchFailed
)

// ColumnValue is the prefetched source-board value of a monday_column
// question. The status makes "never fetched" and "fetch failed" explicit
// instead of relying on placeholder strings in the text.
type ColumnValue struct {
	Status ValueStatus
	Text   string
}

func FetchedValue(text string) ColumnValue {
	return ColumnValue{Status: ValueFetched, Text: text}
}

// Usable reports whether the value may be written to a destination column.
func (v ColumnValue) Usable() bool {
	return v.Status == ValueFetched && strings.TrimSpace(v.Text) != ""
}

// Placeholder strings written by the legacy generator when a fetch failed.
// They survive in stored form files and must never reach a destination board.
var legacySentinels = map[string]bool{
	"Dados não encontrados":   true,
	"Erro ao carregar dados":  true,
	"Dados não disponíveis":   true,
	"Configuração incompleta": true,
}

const fetchFailedText = "Dados não encontrados"

func (v ColumnValue) MarshalJSON() ([]byte, error) {
	switch v.Status {
	case ValueFetched:
		return json.Marshal(v.Text)
	case ValueFetchFailed:
		return json.Marshal(fetchFailedText)
	default:
		return json.Marshal("")
	}
}

func (v *ColumnValue) UnmarshalJSON(data []byte) error {
	var text string
	if err := json.Unmarshal(data, &text); err != nil {
		return err
	}
	switch {
	case legacySentinels[text]:
		*v = ColumnValue{Status: ValueFetchFailed}
	case text == "":
		*v = ColumnValue{Status: ValueNotFetched}
	default:
		*v = ColumnValue{Status: ValueFetched, Text: text}
	}
	return nil
}
