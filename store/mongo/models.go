package mongo

import (
	"fmt"
	"time"

	"github.com/xraph/grove"

	"github.com/xraph/conduit/dlq"
	"github.com/xraph/conduit/endpoint"
	"github.com/xraph/conduit/id"
	"github.com/xraph/conduit/internal/entity"
	"github.com/xraph/conduit/outbox"
)

// --- Endpoint models ---

type endpointModel struct {
	grove.BaseModel `grove:"table:conduit_endpoints"`

	ID          string            `grove:"id,pk"       bson:"_id"`
	Name        string            `grove:"name"        bson:"name"`
	TenantID    string            `grove:"tenant_id"   bson:"tenant_id"`
	URL         string            `grove:"url"         bson:"url"`
	Description string            `grove:"description" bson:"description"`
	Secret      string            `grove:"secret"      bson:"secret"`
	EventTypes  []string          `grove:"event_types" bson:"event_types"`
	Headers     map[string]string `grove:"headers"     bson:"headers,omitempty"`
	Enabled     bool              `grove:"enabled"     bson:"enabled"`
	RateLimit   int               `grove:"rate_limit"  bson:"rate_limit"`
	Metadata    map[string]string `grove:"metadata"    bson:"metadata,omitempty"`
	CreatedAt   time.Time         `grove:"created_at"  bson:"created_at"`
	UpdatedAt   time.Time         `grove:"updated_at"  bson:"updated_at"`
}

func toEndpointModel(ep *endpoint.Endpoint) *endpointModel {
	return &endpointModel{
		ID:          ep.ID.String(),
		Name:        ep.Name,
		TenantID:    ep.TenantID,
		URL:         ep.URL,
		Description: ep.Description,
		Secret:      ep.Secret,
		EventTypes:  ep.EventTypes,
		Headers:     ep.Headers,
		Enabled:     ep.Enabled,
		RateLimit:   ep.RateLimit,
		Metadata:    ep.Metadata,
		CreatedAt:   ep.CreatedAt,
		UpdatedAt:   ep.UpdatedAt,
	}
}

func fromEndpointModel(m *endpointModel) (*endpoint.Endpoint, error) {
	epID, err := id.ParseEndpointID(m.ID)
	if err != nil {
		return nil, fmt.Errorf("parse endpoint ID %q: %w", m.ID, err)
	}

	return &endpoint.Endpoint{
		Entity: entity.Entity{
			CreatedAt: m.CreatedAt,
			UpdatedAt: m.UpdatedAt,
		},
		ID:          epID,
		Name:        m.Name,
		TenantID:    m.TenantID,
		URL:         m.URL,
		Description: m.Description,
		Secret:      m.Secret,
		EventTypes:  m.EventTypes,
		Headers:     m.Headers,
		Enabled:     m.Enabled,
		RateLimit:   m.RateLimit,
		Metadata:    m.Metadata,
	}, nil
}

// --- Outbox entry models ---

type entryModel struct {
	grove.BaseModel `grove:"table:conduit_outbox"`

	ID             string     `grove:"id,pk"            bson:"_id"`
	EventType      string     `grove:"event_type"       bson:"event_type"`
	TenantID       string     `grove:"tenant_id"        bson:"tenant_id"`
	EndpointID     string     `grove:"endpoint_id"      bson:"endpoint_id"`
	Payload        []byte     `grove:"payload"          bson:"payload,omitempty"`
	Status         string     `grove:"status"           bson:"status"`
	Attempt        int        `grove:"attempt"          bson:"attempt"`
	MaxAttempts    int        `grove:"max_attempts"     bson:"max_attempts"`
	NextAttemptAt  time.Time  `grove:"next_attempt_at"  bson:"next_attempt_at"`
	LastError      string     `grove:"last_error"       bson:"last_error"`
	LastStatusCode int        `grove:"last_status_code" bson:"last_status_code"`
	LastLatencyMs  int        `grove:"last_latency_ms"  bson:"last_latency_ms"`
	CompletedAt    *time.Time `grove:"completed_at"     bson:"completed_at,omitempty"`
	CreatedAt      time.Time  `grove:"created_at"       bson:"created_at"`
	UpdatedAt      time.Time  `grove:"updated_at"       bson:"updated_at"`
}

func toEntryModel(e *outbox.Entry) *entryModel {
	return &entryModel{
		ID:             e.ID.String(),
		EventType:      e.EventType,
		TenantID:       e.TenantID,
		EndpointID:     e.EndpointID.String(),
		Payload:        e.Payload,
		Status:         string(e.Status),
		Attempt:        e.Attempt,
		MaxAttempts:    e.MaxAttempts,
		NextAttemptAt:  e.NextAttemptAt,
		LastError:      e.LastError,
		LastStatusCode: e.LastStatusCode,
		LastLatencyMs:  e.LastLatencyMs,
		CompletedAt:    e.CompletedAt,
		CreatedAt:      e.CreatedAt,
		UpdatedAt:      e.UpdatedAt,
	}
}

func fromEntryModel(m *entryModel) (*outbox.Entry, error) {
	entryID, err := id.ParseEntryID(m.ID)
	if err != nil {
		return nil, fmt.Errorf("parse entry ID %q: %w", m.ID, err)
	}

	epID, err := id.ParseEndpointID(m.EndpointID)
	if err != nil {
		return nil, fmt.Errorf("parse endpoint ID %q: %w", m.EndpointID, err)
	}

	return &outbox.Entry{
		Entity: entity.Entity{
			CreatedAt: m.CreatedAt,
			UpdatedAt: m.UpdatedAt,
		},
		ID:             entryID,
		EventType:      m.EventType,
		TenantID:       m.TenantID,
		EndpointID:     epID,
		Payload:        m.Payload,
		Status:         outbox.Status(m.Status),
		Attempt:        m.Attempt,
		MaxAttempts:    m.MaxAttempts,
		NextAttemptAt:  m.NextAttemptAt,
		LastError:      m.LastError,
		LastStatusCode: m.LastStatusCode,
		LastLatencyMs:  m.LastLatencyMs,
		CompletedAt:    m.CompletedAt,
	}, nil
}

// --- DLQ models ---

type dlqEntryModel struct {
	grove.BaseModel `grove:"table:conduit_dlq"`

	ID             string     `grove:"id,pk"            bson:"_id"`
	EntryID        string     `grove:"entry_id"         bson:"entry_id"`
	EndpointID     string     `grove:"endpoint_id"      bson:"endpoint_id"`
	TenantID       string     `grove:"tenant_id"        bson:"tenant_id"`
	EventType      string     `grove:"event_type"       bson:"event_type"`
	URL            string     `grove:"url"              bson:"url"`
	Payload        []byte     `grove:"payload"          bson:"payload,omitempty"`
	Error          string     `grove:"error"            bson:"error"`
	AttemptCount   int        `grove:"attempt_count"    bson:"attempt_count"`
	LastStatusCode int        `grove:"last_status_code" bson:"last_status_code"`
	ReplayedAt     *time.Time `grove:"replayed_at"      bson:"replayed_at,omitempty"`
	FailedAt       time.Time  `grove:"failed_at"        bson:"failed_at"`
	CreatedAt      time.Time  `grove:"created_at"       bson:"created_at"`
	UpdatedAt      time.Time  `grove:"updated_at"       bson:"updated_at"`
}

func toDLQEntryModel(e *dlq.Entry) *dlqEntryModel {
	return &dlqEntryModel{
		ID:             e.ID.String(),
		EntryID:        e.EntryID.String(),
		EndpointID:     e.EndpointID.String(),
		TenantID:       e.TenantID,
		EventType:      e.EventType,
		URL:            e.URL,
		Payload:        e.Payload,
		Error:          e.Error,
		AttemptCount:   e.AttemptCount,
		LastStatusCode: e.LastStatusCode,
		ReplayedAt:     e.ReplayedAt,
		FailedAt:       e.FailedAt,
		CreatedAt:      e.CreatedAt,
		UpdatedAt:      e.UpdatedAt,
	}
}

func fromDLQEntryModel(m *dlqEntryModel) (*dlq.Entry, error) {
	dlqID, err := id.ParseDLQID(m.ID)
	if err != nil {
		return nil, fmt.Errorf("parse DLQ ID %q: %w", m.ID, err)
	}

	entryID, err := id.ParseEntryID(m.EntryID)
	if err != nil {
		return nil, fmt.Errorf("parse entry ID %q: %w", m.EntryID, err)
	}

	epID, err := id.ParseEndpointID(m.EndpointID)
	if err != nil {
		return nil, fmt.Errorf("parse endpoint ID %q: %w", m.EndpointID, err)
	}

	return &dlq.Entry{
		Entity: entity.Entity{
			CreatedAt: m.CreatedAt,
			UpdatedAt: m.UpdatedAt,
		},
		ID:             dlqID,
		EntryID:        entryID,
		EndpointID:     epID,
		TenantID:       m.TenantID,
		EventType:      m.EventType,
		URL:            m.URL,
		Payload:        m.Payload,
		Error:          m.Error,
		AttemptCount:   m.AttemptCount,
		LastStatusCode: m.LastStatusCode,
		ReplayedAt:     m.ReplayedAt,
		FailedAt:       m.FailedAt,
	}, nil
}
