package app

import (
	"github.com/go-chi/oauth"

	"github.com/ricardocosta23/formularioguias/boards"
	"github.com/ricardocosta23/formularioguias/config"
	"github.com/ricardocosta23/formularioguias/dispatch"
	"github.com/ricardocosta23/formularioguias/forms"
	"github.com/ricardocosta23/formularioguias/journal"
	"github.com/ricardocosta23/formularioguias/monday"
	"github.com/ricardocosta23/formularioguias/store"
)

// App carries the wired dependencies from main to the route controllers.
// Everything is constructed once at startup; nothing here is ambient.
type App struct {
	Store        store.FormStore
	Boards       *boards.Registry
	Sink         monday.Sink
	Generator    *forms.Generator
	Processor    *dispatch.Processor
	Journal      *journal.Journal
	BearerServer *oauth.BearerServer
	Config       config.Config
}
