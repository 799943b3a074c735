package defs

// Common labels for logging
const (
	LabelComponent = "component"
	LabelName      = "name"
	LabelTable     = "table"
	LabelBackend   = "backend"
	LabelSinkID    = "sink"

	LabelTrigger = "trigger"
	LabelKind    = "kind"
)

// Flush triggers, used as metric label values and in log messages
const (
	TriggerCapacity = "capacity"
	TriggerSeverity = "severity"
	TriggerManual   = "manual"
	TriggerClose    = "close"
)

// MetricPrefix is the prefix of all metrics created by sinks unless overridden
const MetricPrefix = "sqlsink_"
