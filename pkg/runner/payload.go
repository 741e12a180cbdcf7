// Package runner builds execution requests for selected networks and talks
// to the external execution service, including the status poll loop.
package runner

import (
	"errors"

	"github.com/agentcanvas/agentcanvas/pkg/models"
)

// Mode is the multi-network execution mode. It is a semantic label
// interpreted by the execution service, not a concurrency mechanism here.
type Mode string

const (
	ModeSequential Mode = "sequential"
	ModeParallel   Mode = "parallel"
)

// ErrNoNetworks is returned when a run is requested with nothing selected.
var ErrNoNetworks = errors.New("no networks selected for execution")

// ErrInvalidMode is returned for an unknown execution mode.
var ErrInvalidMode = errors.New("invalid execution mode")

// Selected pairs a network with the ephemeral id the editor assigned it.
type Selected struct {
	ID      string
	Network models.Network
}

// SinglePayload is the flat-merged request body for one network: the
// network's own fields plus the user input.
type SinglePayload struct {
	models.Network

	Input string `json:"input"`
}

// MultiPayload is the request body for running several networks.
type MultiPayload struct {
	Networks      []NetworkRef `json:"networks"`
	ExecutionMode Mode         `json:"execution_mode"`
	Input         string       `json:"input"`
}

// NetworkRef is one entry of a multi-network payload.
type NetworkRef struct {
	ID   string         `json:"id"`
	Data models.Network `json:"data"`
}

// BuildPayload serializes the selected networks and mode into the request
// body. One network produces the flat single-network form with no networks
// key; several produce the networks array with an execution mode.
func BuildPayload(selected []Selected, mode Mode, input string) (any, error) {
	if len(selected) == 0 {
		return nil, ErrNoNetworks
	}

	if mode != ModeSequential && mode != ModeParallel {
		return nil, ErrInvalidMode
	}

	if len(selected) == 1 {
		return SinglePayload{Network: selected[0].Network, Input: input}, nil
	}

	refs := make([]NetworkRef, 0, len(selected))
	for _, sel := range selected {
		refs = append(refs, NetworkRef{ID: sel.ID, Data: sel.Network})
	}

	return MultiPayload{Networks: refs, ExecutionMode: mode, Input: input}, nil
}
