package llm

// Command is the structured form of a parsed natural-language request.
type Command struct {
	Action         string         `json:"action"`
	Target         string         `json:"target"`
	Parameters     map[string]any `json:"parameters"`
	SafetyLevel    string         `json:"safety_level"`
	RequiresBackup bool           `json:"requires_backup"`
	AdminRequired  bool           `json:"admin_required"`
}

// PlanStep is one step of a generated execution plan.
type PlanStep struct {
	StepNumber     int    `json:"step_number"`
	Description    string `json:"description"`
	Command        string `json:"command"`
	EstimatedTime  string `json:"estimated_time"`
	Reversible     bool   `json:"reversible"`
	BackupRequired bool   `json:"backup_required"`
}
