package boards

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	"github.com/pkg/errors"

	"github.com/ricardocosta23/formularioguias/log"
	"github.com/ricardocosta23/formularioguias/model"
)

var ErrUnknownType = errors.New("no board configuration for form type")

// FormTypes are the supported form categories, each bound to its own pair of
// Monday boards.
var FormTypes = []string{"guias", "clientes", "fornecedores"}

// BoardConfig binds a form type to a source board (where webhook items live
// and monday_column values are read from) and a destination board (where
// submissions are written), plus the question template new forms start from.
type BoardConfig struct {
	BoardA     string `json:"board_a"`
	BoardB     string `json:"board_b"`
	LinkColumn string `json:"link_column"`

	// HeaderColumns maps header field names (Viagem, Destino, Data,
	// Cliente) to column ids on the source board.
	HeaderColumns map[string]string `json:"header_columns,omitempty"`

	Questions []model.Question `json:"questions"`
}

type Config map[string]BoardConfig

// Registry holds the board configuration for all form types behind a single
// lock. Admin saves replace the whole configuration at once.
type Registry struct {
	mu   sync.RWMutex
	path string
	cfg  Config
}

// Load reads configuration from the given file, falling back to the
// FORMS_CONFIG environment variable for read-only deployments, and finally
// to an empty configuration per form type.
func Load(path string) *Registry {
	r := &Registry{path: path, cfg: defaults()}

	if data, err := os.ReadFile(path); err == nil {
		if err := json.Unmarshal(data, &r.cfg); err != nil {
			log.Warnf("boards.load: %s is not valid JSON: %s", path, err)
		} else {
			log.Infof("boards.load: configuration loaded from %s", path)
			return r
		}
	}

	if env := os.Getenv("FORMS_CONFIG"); env != "" {
		if err := json.Unmarshal([]byte(env), &r.cfg); err != nil {
			log.Warnf("boards.load: FORMS_CONFIG is not valid JSON: %s", err)
		} else {
			log.Info("boards.load: configuration loaded from FORMS_CONFIG")
		}
	}
	return r
}

func defaults() Config {
	cfg := Config{}
	for _, t := range FormTypes {
		cfg[t] = BoardConfig{}
	}
	return cfg
}

func (r *Registry) All() Config {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make(Config, len(r.cfg))
	for t, c := range r.cfg {
		out[t] = c
	}
	return out
}

func (r *Registry) ForType(formType string) (BoardConfig, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	c, ok := r.cfg[formType]
	return c, ok
}

// Save replaces the configuration and writes it through to the backing file.
// On read-only filesystems the new configuration still takes effect for the
// life of the process; the failed write is only logged.
func (r *Registry) Save(cfg Config) error {
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return errors.Wrap(err, "marshal board config")
	}

	r.mu.Lock()
	r.cfg = cfg
	r.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(r.path), 0o755); err != nil {
		log.Warnf("boards.save: %s", err)
		return nil
	}
	if err := os.WriteFile(r.path, data, 0o644); err != nil {
		log.Warnf("boards.save: configuration kept in memory only: %s", err)
	}
	return nil
}
