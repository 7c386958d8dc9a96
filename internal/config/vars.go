package config

import "fyne.io/fyne/v2/data/binding"

// Vars are the session-wide values widgets bind to.
type Vars struct {
	Display        binding.String
	RunningTask    binding.Bool
	IsTraining     binding.Bool
	Action         binding.String
	Generate       binding.String
	ConsoleClear   binding.Bool
	RefreshGraph   binding.Bool
	UpdatePreview  binding.Bool
	AnalysisFolder binding.String
}

func newVars() *Vars {
	return &Vars{
		Display:        binding.NewString(),
		RunningTask:    binding.NewBool(),
		IsTraining:     binding.NewBool(),
		Action:         binding.NewString(),
		Generate:       binding.NewString(),
		ConsoleClear:   binding.NewBool(),
		RefreshGraph:   binding.NewBool(),
		UpdatePreview:  binding.NewBool(),
		AnalysisFolder: binding.NewString(),
	}
}

// Lookup returns the variable registered under name.
func (v *Vars) Lookup(name string) (binding.DataItem, bool) {
	item, ok := v.byName()[name]
	return item, ok
}

func (v *Vars) byName() map[string]binding.DataItem {
	return map[string]binding.DataItem{
		"display":         v.Display,
		"runningtask":     v.RunningTask,
		"istraining":      v.IsTraining,
		"action":          v.Action,
		"generate":        v.Generate,
		"console_clear":   v.ConsoleClear,
		"refreshgraph":    v.RefreshGraph,
		"updatepreview":   v.UpdatePreview,
		"analysis_folder": v.AnalysisFolder,
	}
}
