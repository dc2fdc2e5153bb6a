package mapper

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/ricardocosta23/formularioguias/model"
)

// ColumnValues is the flat destination-column to value mapping handed to the
// sink in a single batched create-item call. Values are strings, except
// ratings which are placed as integers.
type ColumnValues map[string]any

// Warning describes an answer that could not be placed. Warnings are values,
// not log calls, so the mapping stays free of side effects; callers decide
// where they end up.
type Warning struct {
	QuestionID string
	Reason     string
}

func (w Warning) String() string {
	return fmt.Sprintf("question %s: %s", w.QuestionID, w.Reason)
}

// Fixed destination columns for header fields, agreed with the destination
// board schema.
const (
	ColumnDestino = "text_mkrb17ct"
	ColumnData    = "text_mksq2j87"
	ColumnCliente = "text_mkrjdnry"
)

const (
	minRating = 1
	maxRating = 10
)

// Translate rewrites English yes/no answers to Portuguese, leaving anything
// else untouched. Case-insensitive on input, fixed casing on output.
func Translate(answer string) string {
	switch strings.ToLower(answer) {
	case "yes":
		return "Sim"
	case "no":
		return "Não"
	}
	return answer
}

// VisibleAnswers filters a raw submission down to answers whose questions are
// visible under the conditional rules. Answers smuggled in for hidden
// questions are discarded before mapping.
func VisibleAnswers(form model.FormDefinition, answers map[string]string) map[string]string {
	visible := make(map[string]string, len(answers))
	for _, q := range form.Questions {
		answer, ok := answers[q.ID]
		if !ok {
			continue
		}
		if model.ShouldShow(q, answers) {
			visible[q.ID] = answer
		}
	}
	return visible
}

// MapSubmission resolves a form definition and a raw answer set into the
// destination column writes for one new item. It performs no I/O.
//
// Questions are processed in form order; when two questions name the same
// destination column the later one wins. Blank answers never produce an
// entry. Header fields go in first, at their fixed columns.
func MapSubmission(form model.FormDefinition, answers map[string]string) (ColumnValues, []Warning) {
	values := ColumnValues{}
	var warnings []Warning

	putHeader(values, form.HeaderData, "Destino", ColumnDestino)
	putHeader(values, form.HeaderData, "Data", ColumnData)
	putHeader(values, form.HeaderData, "Cliente", ColumnCliente)

	for _, q := range form.Questions {
		switch q.Type {
		case model.TypeDivider:
			continue

		case model.TypeMondayColumn:
			warnings = append(warnings, mapMondayColumn(values, q, answers)...)

		case model.TypeRating:
			answer := strings.TrimSpace(answers[q.ID])
			if answer == "" {
				continue
			}
			if q.DestinationColumn == "" {
				warnings = append(warnings, Warning{q.ID, "no destination column configured, answer dropped"})
				continue
			}
			answer = Translate(answer)
			if n, err := strconv.Atoi(answer); err == nil {
				values[q.DestinationColumn] = n
			} else {
				// Lenient: an unparseable rating is written as text.
				values[q.DestinationColumn] = answer
			}

		default: // text, longtext, yesno, dropdown
			answer := strings.TrimSpace(answers[q.ID])
			if answer == "" {
				continue
			}
			if q.DestinationColumn == "" {
				warnings = append(warnings, Warning{q.ID, "no destination column configured, answer dropped"})
				continue
			}
			values[q.DestinationColumn] = Translate(answer)
		}
	}

	return values, warnings
}

// mapMondayColumn handles the two independent writes of a monday_column
// question: the user's rating of the prefetched value, and the prefetched
// value itself.
func mapMondayColumn(values ColumnValues, q model.Question, answers map[string]string) (warnings []Warning) {
	if answer := strings.TrimSpace(answers[q.ID]); answer != "" {
		answer = Translate(answer)
		n, err := strconv.Atoi(answer)
		switch {
		case err != nil:
			warnings = append(warnings, Warning{q.ID, fmt.Sprintf("rating %q is not an integer, dropped", answer)})
		case n < minRating || n > maxRating:
			warnings = append(warnings, Warning{q.ID, fmt.Sprintf("rating %d outside [%d,%d], dropped", n, minRating, maxRating)})
		case q.RatingDestinationColumn == "":
			warnings = append(warnings, Warning{q.ID, "no rating destination column configured, answer dropped"})
		default:
			values[q.RatingDestinationColumn] = n
		}
	}

	if q.TextDestinationColumn != "" && q.ColumnValue.Usable() {
		values[q.TextDestinationColumn] = q.ColumnValue.Text
	}
	return warnings
}

func putHeader(values ColumnValues, header map[string]string, field, column string) {
	if v := strings.TrimSpace(header[field]); v != "" {
		values[column] = v
	}
}
