package dispatch

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/oauth2"

	"github.com/teemow/deskgate/internal/gateway"
	"github.com/teemow/deskgate/internal/instrumentation"
	"github.com/teemow/deskgate/internal/logging"
)

// CredentialSource produces live credentials for provider calls and supports
// forced invalidation for the bounded unauthorized retry.
type CredentialSource interface {
	Acquire(ctx context.Context) (*oauth2.Token, error)
	Invalidate()
}

// Dispatcher routes tool calls through validation, credential acquisition,
// capability invocation, and envelope shaping.
type Dispatcher struct {
	reg     *Registry
	creds   CredentialSource
	logger  *slog.Logger
	metrics *instrumentation.Metrics
	audit   *instrumentation.AuditLogger
}

// NewDispatcher creates a dispatcher over the given registry and credential
// source.
func NewDispatcher(reg *Registry, creds CredentialSource, logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{reg: reg, creds: creds, logger: logger}
}

// SetMetrics attaches a metrics recorder. Safe to leave unset.
func (d *Dispatcher) SetMetrics(m *instrumentation.Metrics) {
	d.metrics = m
}

// SetAuditLogger attaches an audit trail writer. Safe to leave unset.
func (d *Dispatcher) SetAuditLogger(al *instrumentation.AuditLogger) {
	d.audit = al
}

// Dispatch executes the named tool call and returns either an envelope or a
// classified error, never both.
//
// The pipeline is straight-line with one conditional retry branch: unknown
// tool and validation failures resolve locally with no credential or provider
// interaction; an unauthorized capability failure triggers exactly one forced
// credential refresh and one retry; every other failure surfaces unchanged.
func (d *Dispatcher) Dispatch(ctx context.Context, name string, args map[string]any) (*gateway.Envelope, error) {
	def, ok := d.reg.Get(name)
	if !ok {
		return nil, gateway.E(gateway.KindUnknownTool, "unknown tool %q", name)
	}

	inv := instrumentation.NewToolInvocation(def.Name).WithService(def.Service, def.Operation)

	validated, err := def.Schema.Validate(args)
	if err != nil {
		d.finish(ctx, def, inv, err)
		return nil, err
	}

	if _, err := d.creds.Acquire(ctx); err != nil {
		d.finish(ctx, def, inv, err)
		return nil, err
	}

	resp, err := d.invoke(ctx, def, validated)
	if err != nil && gateway.IsKind(err, gateway.KindUnauthorized) {
		// The provider rejected a credential the store considered live.
		// Force one refresh and retry once; a second rejection means
		// refreshing cannot fix the problem.
		d.creds.Invalidate()
		if _, aerr := d.creds.Acquire(ctx); aerr != nil {
			d.finish(ctx, def, inv, aerr)
			return nil, aerr
		}
		resp, err = d.invoke(ctx, def, validated)
	}

	if err != nil {
		if !def.Idempotent && gateway.IsKind(err, gateway.KindTransient) {
			// The call may or may not have taken effect upstream.
			// Surfacing it as transient would invite a retry the
			// capability cannot safely absorb.
			err = gateway.Ambiguous(def.Name, err)
		}
		d.finish(ctx, def, inv, err)
		return nil, err
	}

	shape := def.Shape
	if limit, ok := IntArg(validated, "limit"); ok && limit > 0 {
		shape.MaxItems = limit
	}
	env := gateway.BuildEnvelope(resp, shape)

	d.finish(ctx, def, inv, nil)
	return env, nil
}

// invoke runs the capability once and records the provider operation.
func (d *Dispatcher) invoke(ctx context.Context, def *Definition, validated map[string]any) (*gateway.ProviderResponse, error) {
	start := time.Now()
	resp, err := def.Call(ctx, validated)

	status := logging.StatusSuccess
	if err != nil {
		status = logging.StatusError
	}
	d.metrics.RecordProviderOperation(ctx, def.Service, def.Operation, status, time.Since(start))

	return resp, err
}

func (d *Dispatcher) finish(ctx context.Context, def *Definition, inv *instrumentation.ToolInvocation, err error) {
	inv.Complete(err)

	d.logger.LogAttrs(ctx, slog.LevelDebug, "tool dispatched",
		logging.Tool(def.Name),
		logging.Operation(def.Operation),
		logging.Status(inv.Status()),
		slog.Duration(logging.KeyDuration, inv.Duration),
		logging.Err(err),
	)
	d.audit.LogToolInvocation(inv)
	d.metrics.RecordToolInvocation(ctx, def.Name, inv.Status(), inv.Duration)
}
