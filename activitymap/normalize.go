// Package activitymap flattens repository activity events into records
// suited for audit logs and event buses.
package activitymap

import (
	"context"
	"strings"
	"time"

	auth "github.com/goliatone/go-auth-flows"
)

const (
	// MetadataKeyProvider stores the id of the provider that served the call.
	MetadataKeyProvider = "provider"
	// MetadataKeyOutcome stores the result name, e.g. "success".
	MetadataKeyOutcome = "outcome"
	// MetadataKeyErrorKind stores the error kind of failed calls.
	MetadataKeyErrorKind = "error_kind"
	// MetadataKeyDurationMS stores the call latency in milliseconds.
	MetadataKeyDurationMS = "duration_ms"
)

const (
	defaultChannel    = "auth"
	defaultObjectType = "session"
	defaultActorID    = "anonymous"
	verbPrefix        = "auth."
)

// Normalized is a transport agnostic activity shape for downstream systems.
type Normalized struct {
	ActorID    string         `json:"actor_id"`
	Verb       string         `json:"verb"`
	ObjectType string         `json:"object_type,omitempty"`
	ObjectID   string         `json:"object_id,omitempty"`
	Channel    string         `json:"channel,omitempty"`
	Metadata   map[string]any `json:"metadata,omitempty"`
	OccurredAt time.Time      `json:"occurred_at"`
}

// Option customizes normalization behavior.
type Option func(*normalizeOptions)

type normalizeOptions struct {
	channel          string
	objectType       string
	actorFallback    string
	objectIDResolver func(auth.ActivityEvent) string
}

// Normalize converts an auth.ActivityEvent into the normalized shape. The
// verb is the operation prefixed with "auth.".
func Normalize(event auth.ActivityEvent, opts ...Option) Normalized {
	options := defaultNormalizeOptions()
	for _, opt := range opts {
		if opt != nil {
			opt(&options)
		}
	}

	occurredAt := event.OccurredAt
	if occurredAt.IsZero() {
		occurredAt = time.Now().UTC()
	}

	return Normalized{
		ActorID:    firstNonEmpty(strings.TrimSpace(event.UserID), options.actorFallback),
		Verb:       verbPrefix + string(event.Operation),
		ObjectType: options.objectType,
		ObjectID:   resolveObjectID(event, options.objectIDResolver),
		Channel:    options.channel,
		Metadata:   normalizeMetadata(event),
		OccurredAt: occurredAt,
	}
}

// Sink returns an auth.ActivitySink that normalizes each event and hands it
// to emit.
func Sink(emit func(context.Context, Normalized) error, opts ...Option) auth.ActivitySink {
	return auth.ActivitySinkFunc(func(ctx context.Context, event auth.ActivityEvent) error {
		if emit == nil {
			return nil
		}
		return emit(ctx, Normalize(event, opts...))
	})
}

// WithDefaultChannel sets the channel for normalized records.
func WithDefaultChannel(channel string) Option {
	return func(opts *normalizeOptions) {
		opts.channel = strings.TrimSpace(channel)
	}
}

// WithDefaultObjectType sets the object type for normalized records.
func WithDefaultObjectType(objectType string) Option {
	return func(opts *normalizeOptions) {
		opts.objectType = strings.TrimSpace(objectType)
	}
}

// WithObjectIDResolver overrides object id extraction.
func WithObjectIDResolver(resolver func(auth.ActivityEvent) string) Option {
	return func(opts *normalizeOptions) {
		opts.objectIDResolver = resolver
	}
}

// WithActorFallback sets the actor id used when the event has no user.
func WithActorFallback(actorID string) Option {
	return func(opts *normalizeOptions) {
		opts.actorFallback = strings.TrimSpace(actorID)
	}
}

func defaultNormalizeOptions() normalizeOptions {
	return normalizeOptions{
		channel:       defaultChannel,
		objectType:    defaultObjectType,
		actorFallback: defaultActorID,
	}
}

// resolveObjectID defaults to the provider id, since the object of an
// auth operation is the session held with that provider.
func resolveObjectID(event auth.ActivityEvent, resolver func(auth.ActivityEvent) string) string {
	if resolver != nil {
		return strings.TrimSpace(resolver(event))
	}
	return strings.TrimSpace(event.ProviderID)
}

func normalizeMetadata(event auth.ActivityEvent) map[string]any {
	metadata := make(map[string]any, len(event.Metadata)+4)
	for key, value := range event.Metadata {
		metadata[key] = value
	}

	if event.ProviderID != "" {
		metadata[MetadataKeyProvider] = event.ProviderID
	}
	if event.Outcome != "" {
		metadata[MetadataKeyOutcome] = event.Outcome
	}
	if event.ErrorKind != "" {
		metadata[MetadataKeyErrorKind] = string(event.ErrorKind)
	}
	if event.Duration > 0 {
		metadata[MetadataKeyDurationMS] = event.Duration.Milliseconds()
	}

	if len(metadata) == 0 {
		return nil
	}
	return metadata
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		if value != "" {
			return value
		}
	}
	return ""
}
