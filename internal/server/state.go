package server

import (
	"fmt"
	"slices"
)

// State is a stage of a connection lifecycle.
type State uint8

const (
	AwaitingRequest State = iota
	ParsingBody
	Dispatching
	WritingResponse
	// Closing is terminal.
	Closing
)

func (s State) String() string {
	switch s {
	case AwaitingRequest:
		return "awaiting-request"
	case ParsingBody:
		return "parsing-body"
	case Dispatching:
		return "dispatching"
	case WritingResponse:
		return "writing-response"
	case Closing:
		return "closing"
	default:
		return fmt.Sprintf("State(%d)", uint8(s))
	}
}

// transitions lists states reachable from each state. A request that failed to decode or
// timed out is answered directly, skipping the dispatch.
var transitions = map[State][]State{
	AwaitingRequest: {ParsingBody, WritingResponse, Closing},
	ParsingBody:     {Dispatching, WritingResponse, Closing},
	Dispatching:     {WritingResponse},
	WritingResponse: {AwaitingRequest, Closing},
	Closing:         nil,
}

func allowed(from, to State) bool {
	return slices.Contains(transitions[from], to)
}
