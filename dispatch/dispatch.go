package dispatch

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/ricardocosta23/formularioguias/boards"
	"github.com/ricardocosta23/formularioguias/journal"
	"github.com/ricardocosta23/formularioguias/log"
	"github.com/ricardocosta23/formularioguias/mapper"
	"github.com/ricardocosta23/formularioguias/model"
	"github.com/ricardocosta23/formularioguias/monday"
)

var ErrNoDestination = errors.New("no destination board configured for form type")

const deliveryTimeout = 60 * time.Second

const fallbackItemName = "Resposta do Formulário"

// Processor turns accepted submissions into destination-board items. Work
// happens on its own goroutine per submission: the submitting client gets an
// answer as soon as the submission is enqueued, and delivery failures are
// journaled for manual remediation instead of being retried or surfaced.
type Processor struct {
	Sink    monday.Sink
	Boards  *boards.Registry
	Journal *journal.Journal
}

// Submit validates that the submission can be delivered at all, then hands it
// to a background goroutine. Errors returned here (unknown form type, no
// destination board) are terminal for the whole submission.
func (p *Processor) Submit(form model.FormDefinition, answers map[string]string) error {
	cfg, ok := p.Boards.ForType(form.Type)
	if !ok {
		return errors.Wrap(boards.ErrUnknownType, form.Type)
	}
	if cfg.BoardB == "" {
		return errors.Wrap(ErrNoDestination, form.Type)
	}

	go p.deliver(form, cfg, answers)
	return nil
}

func (p *Processor) deliver(form model.FormDefinition, cfg boards.BoardConfig, answers map[string]string) {
	ctx, cancel := context.WithTimeout(context.Background(), deliveryTimeout)
	defer cancel()

	// Server-side visibility check: answers to hidden questions never reach
	// the mapper, whatever the browser sent.
	visible := mapper.VisibleAnswers(form, answers)

	values, warnings := mapper.MapSubmission(form, visible)
	for _, w := range warnings {
		log.Warnf("dispatch.map: form %s: %s", form.ID, w)
	}

	record := journal.Delivery{
		FormID:  form.ID,
		BoardID: cfg.BoardB,
		Columns: columnIDs(values),
	}

	itemID, err := p.Sink.CreateItemWithValues(ctx, cfg.BoardB, p.itemName(form), values)
	if err != nil {
		// Single attempt, no retry. The journal keeps what an operator
		// needs to redo the writes by hand.
		log.Errorf("dispatch.deliver: form %s to board %s failed (columns %s): %s",
			form.ID, cfg.BoardB, strings.Join(record.Columns, ","), err)
		record.Status = journal.StatusFailed
		record.Error = err.Error()
	} else {
		log.Infof("dispatch.deliver: form %s delivered as item %s on board %s (%d columns)",
			form.ID, itemID, cfg.BoardB, len(record.Columns))
		record.Status = journal.StatusDelivered
		record.ItemID = itemID
	}

	if p.Journal != nil {
		if err := p.Journal.Record(record); err != nil {
			log.Warnf("dispatch.journal: %s", err)
		}
	}
}

func (p *Processor) itemName(form model.FormDefinition) string {
	if name := strings.TrimSpace(form.HeaderData["Viagem"]); name != "" {
		return name
	}
	if name := form.WebhookData.Event.PulseName; name != "" {
		return name
	}
	return fallbackItemName
}

func columnIDs(values mapper.ColumnValues) []string {
	ids := make([]string, 0, len(values))
	for id := range values {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
