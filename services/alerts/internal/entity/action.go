package entity

import (
	"encoding/json"
	"fmt"
)

// ActionPayload carries everything the rule evaluator knows about a risk
// condition. TimeWindow is optional; when empty the event type's default
// window applies.
type ActionPayload struct {
	EventType   string                 `json:"event_type"`
	EntityType  string                 `json:"entity_type,omitempty"`
	EntityID    string                 `json:"entity_id,omitempty"`
	ReferenceID string                 `json:"reference_id,omitempty"`
	TimeWindow  TimeWindow             `json:"time_window,omitempty"`
	MessageKey  string                 `json:"message_key"`
	Params      map[string]interface{} `json:"params,omitempty"`
	Severity    Severity               `json:"severity"`
	CTALabelKey string                 `json:"cta_label_key,omitempty"`
	CTATarget   string                 `json:"cta_target,omitempty"`
}

// Window resolves the payload's effective time window.
func (p ActionPayload) Window() TimeWindow {
	if p.TimeWindow != "" {
		return p.TimeWindow
	}
	return WindowForEvent(p.EventType)
}

// Action is the closed set of instructions the rule evaluator emits.
// The executor dispatches on the concrete type; the unexported method
// keeps the set closed to this package.
type Action interface {
	isAction()
}

type CreateAction struct {
	Payload ActionPayload
}

type UpdateAction struct {
	Payload ActionPayload
}

type ArchiveAction struct {
	EventType   string
	ReferenceID string
}

type SkipAction struct{}

func (CreateAction) isAction()  {}
func (UpdateAction) isAction()  {}
func (ArchiveAction) isAction() {}
func (SkipAction) isAction()    {}

// ActionBatch is one evaluation pass worth of actions for one tenant.
type ActionBatch struct {
	TenantID string
	Actions  []Action
}

type actionEnvelope struct {
	Type        string          `json:"type"`
	Payload     json.RawMessage `json:"payload,omitempty"`
	EventType   string          `json:"event_type,omitempty"`
	ReferenceID string          `json:"reference_id,omitempty"`
}

type batchEnvelope struct {
	TenantID string           `json:"tenant_id"`
	Actions  []actionEnvelope `json:"actions"`
}

// DecodeBatch parses the wire form of an evaluation batch:
//
//	{"tenant_id":"...","actions":[{"type":"create","payload":{...}}, ...]}
func DecodeBatch(body []byte) (*ActionBatch, error) {
	var env batchEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("failed to decode evaluation batch: %w", err)
	}
	if env.TenantID == "" {
		return nil, fmt.Errorf("evaluation batch missing tenant_id")
	}

	batch := &ActionBatch{TenantID: env.TenantID}
	for i, ae := range env.Actions {
		action, err := decodeAction(ae)
		if err != nil {
			return nil, fmt.Errorf("action %d: %w", i, err)
		}
		batch.Actions = append(batch.Actions, action)
	}
	return batch, nil
}

func decodeAction(ae actionEnvelope) (Action, error) {
	switch ae.Type {
	case "create", "update":
		var payload ActionPayload
		if err := json.Unmarshal(ae.Payload, &payload); err != nil {
			return nil, fmt.Errorf("failed to decode payload: %w", err)
		}
		if payload.EventType == "" {
			return nil, fmt.Errorf("payload missing event_type")
		}
		if !payload.Severity.Valid() {
			return nil, fmt.Errorf("payload has invalid severity %q", payload.Severity)
		}
		if ae.Type == "create" {
			return CreateAction{Payload: payload}, nil
		}
		return UpdateAction{Payload: payload}, nil
	case "archive":
		if ae.EventType == "" {
			return nil, fmt.Errorf("archive action missing event_type")
		}
		return ArchiveAction{EventType: ae.EventType, ReferenceID: ae.ReferenceID}, nil
	case "skip":
		return SkipAction{}, nil
	default:
		return nil, fmt.Errorf("unknown action type %q", ae.Type)
	}
}
