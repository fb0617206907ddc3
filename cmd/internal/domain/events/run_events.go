package events

import "cnpjsaneador/cmd/internal/contract"

// RunEvent is one observable signal of a run: zero or more progress
// events followed by exactly one terminal event, never both terminals.
type RunEvent interface {
	GetType() contract.EventType
}

type RunProgress struct {
	Percentage int `json:"percentage"`
}

func (*RunProgress) GetType() contract.EventType {
	return contract.EventRunProgress
}

type RunCompleted struct {
	OutputPath string `json:"output_path"`
}

func (*RunCompleted) GetType() contract.EventType {
	return contract.EventRunCompleted
}

type RunFailed struct {
	Message string `json:"message"`
}

func (*RunFailed) GetType() contract.EventType {
	return contract.EventRunFailed
}
