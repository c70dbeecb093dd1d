package guard

// State is the initialization guard's position in its boot state machine.
type State int

const (
	StateDetectingEnv State = iota
	StateValidatingConfig
	StateInspectingData
	StateCreatingSchema
	StateSkippingSchemaOps
	StateApplyingTuning
	StatePostInitCheck
	StateRestoring
	StateReady
	StateDegraded
)

// String returns the state name used in logs.
func (s State) String() string {
	switch s {
	case StateDetectingEnv:
		return "detecting_env"
	case StateValidatingConfig:
		return "validating_config"
	case StateInspectingData:
		return "inspecting_existing_data"
	case StateCreatingSchema:
		return "create_schema"
	case StateSkippingSchemaOps:
		return "skip_schema_ops"
	case StateApplyingTuning:
		return "applying_tuning"
	case StatePostInitCheck:
		return "post_init_check"
	case StateRestoring:
		return "restoring"
	case StateReady:
		return "ready"
	case StateDegraded:
		return "degraded"
	default:
		return "unknown"
	}
}

// Terminal reports whether the state ends the boot sequence.
func (s State) Terminal() bool {
	return s == StateReady || s == StateDegraded
}
