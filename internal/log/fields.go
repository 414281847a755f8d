package log

// Common field names for structured logging.
const (
	FieldComponent = "component"
	FieldOperation = "operation"
	FieldCategory  = "category"
	FieldDocument  = "document"
	FieldStatus    = "status"
	FieldError     = "error"
	FieldPath      = "path"
	FieldCount     = "count"
)

// Component names.
const (
	ComponentApp        = "app"
	ComponentStore      = "store"
	ComponentBackup     = "backup"
	ComponentPlan       = "plan"
	ComponentProjection = "projection"
	ComponentEntity     = "entity"
)

// Operation names.
const (
	OpRead    = "read"
	OpUpdate  = "update"
	OpBackup  = "backup"
	OpRestore = "restore"
	OpSync    = "sync"
	OpClear   = "clear"
	OpSeed    = "seed"
	OpAppend  = "append"
	OpRemove  = "remove"
)
