package nb

import (
	"fmt"
	"time"
)

// ParamType classifies a tunable parameter for form rendering.
type ParamType string

const (
	ParamDropdown ParamType = "dropdown"
	ParamString   ParamType = "string"
	ParamNumber   ParamType = "number"
	ParamBoolean  ParamType = "boolean"
	ParamSlider   ParamType = "slider"
)

// ValidParamTypes defines allowed parameter types.
var ValidParamTypes = map[ParamType]bool{
	ParamDropdown: true,
	ParamString:   true,
	ParamNumber:   true,
	ParamBoolean:  true,
	ParamSlider:   true,
}

// CellType classifies a cell.
type CellType string

const (
	CellCode     CellType = "code"
	CellMarkdown CellType = "markdown"
	CellSetup    CellType = "setup"
)

// ExecStatus is the lifecycle status of an execution record.
type ExecStatus string

const (
	ExecPending ExecStatus = "pending"
	ExecRunning ExecStatus = "running"
	ExecSuccess ExecStatus = "success"
	ExecError   ExecStatus = "error"
)

// ParsedParameter is a parameter extracted from an @param directive.
// Name always matches a top-level assignment target in the owning cell's
// source. Options is meaningful only for dropdown; Min/Max/Step only for
// slider (nil otherwise).
type ParsedParameter struct {
	Name    string    `json:"name"`
	Type    ParamType `json:"param_type"`
	Default any       `json:"default_value"`
	Options []string  `json:"options,omitempty"`
	Min     *float64  `json:"min_value,omitempty"`
	Max     *float64  `json:"max_value,omitempty"`
	Step    *float64  `json:"step,omitempty"`
}

// ParsedCell is one logical cell produced by the parser.
// Markdown cells never execute and never carry parameters. Setup cells run
// once per session before any interactive cell.
type ParsedCell struct {
	Title       string            `json:"title"`
	Source      string            `json:"source_code"`
	Description string            `json:"description"`
	Type        CellType          `json:"cell_type"`
	AutoRun     bool              `json:"auto_run"`
	IsSetup     bool              `json:"is_setup_cell"`
	Parameters  []ParsedParameter `json:"parameters"`
}

// Notebook is a persisted notebook, upserted by slug on re-import.
type Notebook struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Slug        string    `json:"slug"`
	Description string    `json:"description"`
	SourceFile  string    `json:"source_file"`
	IsActive    bool      `json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Cell is a persisted cell. (NotebookID, Position) is unique within the
// store; positions are spaced with gaps so cells can be inserted later.
type Cell struct {
	ID           int64       `json:"id"`
	NotebookID   int64       `json:"notebook_id"`
	Position     int         `json:"position"`
	Title        string      `json:"title"`
	Type         CellType    `json:"cell_type"`
	Source       string      `json:"source_code"`
	Description  string      `json:"description"`
	IsExecutable bool        `json:"is_executable"`
	AutoRun      bool        `json:"auto_run"`
	IsSetup      bool        `json:"is_setup_cell"`
	CreatedAt    time.Time   `json:"created_at"`
	Parameters   []Parameter `json:"parameters"`
}

// Parameter is a persisted parameter. (CellID, Name) is unique.
// Default is stored as text; Type determines how it is rendered back into
// source during substitution and export.
type Parameter struct {
	ID       int64     `json:"id"`
	CellID   int64     `json:"cell_id"`
	Name     string    `json:"name"`
	Type     ParamType `json:"param_type"`
	Default  string    `json:"default_value"`
	Options  []string  `json:"options"`
	Min      *float64  `json:"min_value,omitempty"`
	Max      *float64  `json:"max_value,omitempty"`
	Step     *float64  `json:"step,omitempty"`
	Position int       `json:"position"`
}

// Execution is one row of the append-only execution log.
type Execution struct {
	ID           int64          `json:"id"`
	CellID       int64          `json:"cell_id"`
	Params       map[string]any `json:"parameters"`
	Status       ExecStatus     `json:"status"`
	OutputText   string         `json:"output_text"`
	OutputHTML   string         `json:"output_html"`
	ErrorMessage string         `json:"error_message"`
	Elapsed      float64        `json:"execution_time"`
	CreatedAt    time.Time      `json:"created_at"`
}

// Session tracks one (notebook, user) pair's live state: last known
// parameter values keyed by ParamKey, kernel state flags, and the last
// executed cell. Deleted wholesale on session reset.
type Session struct {
	ID          int64          `json:"id"`
	NotebookID  int64          `json:"notebook_id"`
	UserKey     string         `json:"user_key"`
	KernelState map[string]any `json:"kernel_state"`
	ParamValues map[string]any `json:"parameter_values"`
	LastCellID  *int64         `json:"last_executed_cell,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

// SetupComplete reports whether the session's kernel has run setup cells.
func (s *Session) SetupComplete() bool {
	v, ok := s.KernelState["setup_complete"]
	if !ok {
		return false
	}
	b, ok := v.(bool)
	return ok && b
}

// ParamKey builds the session map key for a cell's parameter value.
func ParamKey(cellID int64, name string) string {
	return fmt.Sprintf("%d_%s", cellID, name)
}
