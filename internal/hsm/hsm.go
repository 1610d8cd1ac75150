package hsm

import "agentpack/internal/model"

var runTransitions = map[model.RunStatus]map[model.RunStatus]bool{
	model.RunStatusRunning: {
		model.RunStatusCompleted:   true,
		model.RunStatusFailed:      true,
		model.RunStatusInterrupted: true,
	},
}

func CanTransitionRun(from model.RunStatus, to model.RunStatus) bool {
	if from == to {
		return true
	}
	return runTransitions[from][to]
}
