// Package pipeline runs owner mutations through one fixed sequence:
// identity, entitlement gate, normalization, validation, a single storage
// operation, and a revalidation signal.
package pipeline

import (
	"context"
	"net/http"

	"biolink/internal/apperr"
	"biolink/internal/auth"
	"biolink/internal/metrics"
	"biolink/internal/model"
	"biolink/internal/plan"
	"biolink/internal/revalidate"
	"biolink/internal/validation"

	"github.com/getsentry/sentry-go"
	"github.com/rs/zerolog"
)

const (
	MsgUnauthenticated = "You must be signed in."
	MsgGenericFailure  = "Something went wrong. Please try again."
)

// FlagsReader fetches a user's entitlement row. It returns nil, nil when the
// user has no row.
type FlagsReader interface {
	GetFlags(ctx context.Context, userID string) (*model.FeatureFlags, error)
}

// Result is the shape every mutation returns to its caller.
type Result struct {
	Error   string      `json:"error,omitempty"`
	Success string      `json:"success,omitempty"`
	Data    any         `json:"data,omitempty"`
	Kind    apperr.Kind `json:"-"`
}

func (r Result) OK() bool { return r.Error == "" }

// Status is the HTTP status matching the result's outcome.
func (r Result) Status() int {
	if r.OK() {
		return http.StatusOK
	}
	return apperr.HTTPStatus(r.Kind)
}

// Fail builds a failed result from an *apperr.Error.
func Fail(e *apperr.Error) Result {
	return Result{Error: e.Message, Kind: e.Kind}
}

// Operation describes one resource/operation pair.
type Operation[T any] struct {
	Name string
	// Gate checks entitlements against freshly fetched flags. Nil means ungated.
	Gate func(ctx context.Context, id auth.Identity, flags model.FeatureFlags, in *T) error
	// Normalize rewrites free-form fields before validation.
	Normalize func(in *T)
	// Mutate performs exactly one storage operation scoped to id.
	Mutate  func(ctx context.Context, id auth.Identity, in *T) (any, error)
	Success string
	Failure string
	// ReadOnly skips the revalidation signal.
	ReadOnly bool
	// Owner makes the operation public: the page owner comes from the input
	// instead of the caller's identity, and input is validated before the gate.
	Owner func(in *T) string
}

type Pipeline struct {
	flags       FlagsReader
	validate    *validation.Validator
	invalidator revalidate.Invalidator
	logger      zerolog.Logger
}

func New(flags FlagsReader, validate *validation.Validator, invalidator revalidate.Invalidator, logger zerolog.Logger) *Pipeline {
	if invalidator == nil {
		invalidator = revalidate.Noop{}
	}
	return &Pipeline{
		flags:       flags,
		validate:    validate,
		invalidator: invalidator,
		logger:      logger.With().Str("component", "pipeline").Logger(),
	}
}

// Flags returns userID's flags, falling back to the free template when no row exists.
func (p *Pipeline) Flags(ctx context.Context, userID string) (model.FeatureFlags, error) {
	f, err := p.flags.GetFlags(ctx, userID)
	if err != nil {
		return model.FeatureFlags{}, err
	}
	if f == nil {
		return plan.Default(userID), nil
	}
	return *f, nil
}

// Validate exposes the pipeline's validator to callers outside Run.
func (p *Pipeline) Validate(in any) string {
	return p.validate.Struct(in)
}

// Invalidate sends the revalidation signal, logging failures.
func (p *Pipeline) Invalidate(ctx context.Context, userID string) {
	if err := p.invalidator.Invalidate(ctx, userID); err != nil {
		p.logger.Warn().Err(err).Str("user_id", userID).Msg("Failed to signal revalidation")
	}
}

// Run executes op for id with input in. Expected failures are returned in
// the result, never as errors or panics.
func Run[T any](ctx context.Context, p *Pipeline, id auth.Identity, op Operation[T], in *T) Result {
	res := run(ctx, p, id, op, in)
	outcome := "success"
	if !res.OK() {
		outcome = string(res.Kind)
	}
	metrics.Mutations.WithLabelValues(op.Name, outcome).Inc()
	return res
}

func run[T any](ctx context.Context, p *Pipeline, id auth.Identity, op Operation[T], in *T) Result {
	if in == nil {
		in = new(T)
	}

	owner := id.UserID
	if op.Owner != nil {
		if res, ok := prepare(p, op, in); !ok {
			return res
		}
		owner = op.Owner(in)
	} else if id.IsZero() {
		return Result{Error: MsgUnauthenticated, Kind: apperr.Unauthenticated}
	}

	if op.Gate != nil {
		flags, err := p.Flags(ctx, owner)
		if err != nil {
			return p.failure(ctx, op.Name, op.Failure, owner, err)
		}
		if err := op.Gate(ctx, id, flags, in); err != nil {
			if e, ok := apperr.As(err); ok && e.Kind != apperr.StorageFailure {
				return Fail(e)
			}
			return p.failure(ctx, op.Name, op.Failure, owner, err)
		}
	}

	if op.Owner == nil {
		if res, ok := prepare(p, op, in); !ok {
			return res
		}
	}

	data, err := op.Mutate(ctx, id, in)
	if err != nil {
		if e, ok := apperr.As(err); ok && e.Kind != apperr.StorageFailure {
			if e.Kind == apperr.UpstreamFailure {
				p.logger.Error().Err(err).Str("operation", op.Name).Str("user_id", owner).Msg("Upstream call failed")
				report(ctx, op.Name, err)
			}
			return Fail(e)
		}
		return p.failure(ctx, op.Name, op.Failure, owner, err)
	}

	if !op.ReadOnly {
		p.Invalidate(ctx, owner)
	}
	return Result{Success: op.Success, Data: data}
}

func prepare[T any](p *Pipeline, op Operation[T], in *T) (Result, bool) {
	if op.Normalize != nil {
		op.Normalize(in)
	}
	if msg := p.validate.Struct(in); msg != "" {
		return Result{Error: msg, Kind: apperr.ValidationFailed}, false
	}
	return Result{}, true
}

func (p *Pipeline) failure(ctx context.Context, name, message, userID string, err error) Result {
	p.logger.Error().Err(err).Str("operation", name).Str("user_id", userID).Msg("Operation failed")
	report(ctx, name, err)
	if message == "" {
		message = MsgGenericFailure
	}
	return Result{Error: message, Kind: apperr.StorageFailure}
}

// Read runs a gated or ungated query with the same identity and error policy.
func Read(ctx context.Context, p *Pipeline, id auth.Identity, name string, fn func(ctx context.Context, id auth.Identity) (any, error)) Result {
	return Run(ctx, p, id, Operation[struct{}]{
		Name:     name,
		ReadOnly: true,
		Mutate: func(ctx context.Context, id auth.Identity, _ *struct{}) (any, error) {
			return fn(ctx, id)
		},
	}, nil)
}

// Require returns a Forbidden error carrying message unless enabled.
func Require(enabled bool, message string) error {
	if !enabled {
		return apperr.New(apperr.Forbidden, message)
	}
	return nil
}

func report(ctx context.Context, name string, err error) {
	hub := sentry.GetHubFromContext(ctx)
	if hub == nil {
		hub = sentry.CurrentHub()
	}
	hub.WithScope(func(scope *sentry.Scope) {
		scope.SetTag("operation", name)
		hub.CaptureException(err)
	})
}
