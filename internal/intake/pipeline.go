package intake

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/cuongbtq/video-intake/internal/domain"
)

// Request is one inbound submission as seen by the pipeline
type Request struct {
	Headers http.Header
	Body    any // pre-parsed map or JSON text
}

// OutcomeRecorder receives the classification of every handled request
type OutcomeRecorder interface {
	RecordAdmission(outcome string)
}

// Pipeline runs normalize, validate, authenticate, admit and shapes the result
type Pipeline struct {
	validator *Validator
	resolver  *IdentityResolver
	admitter  *Admitter
	logger    *slog.Logger
	outcomes  OutcomeRecorder
}

// Dependencies holds the collaborators a Pipeline is built from
type Dependencies struct {
	Schema   Schema
	Identity IdentityService
	Engine   WorkflowEngine
	Store    RecordStore
	Logger   *slog.Logger
	Outcomes OutcomeRecorder
}

func NewPipeline(deps *Dependencies) *Pipeline {
	return &Pipeline{
		validator: NewValidator(deps.Schema),
		resolver:  NewIdentityResolver(deps.Identity, deps.Logger),
		admitter:  NewAdmitter(deps.Engine, deps.Store, deps.Logger),
		logger:    deps.Logger,
		outcomes:  deps.Outcomes,
	}
}

// Handle processes one submission. It never returns an error; failures are
// carried in the envelope.
func (p *Pipeline) Handle(ctx context.Context, req Request) Envelope {
	record, err := p.run(ctx, req)

	outcome := "admitted"
	if err != nil {
		kind := KindOf(err)
		outcome = kind.String()
		if kind.CallerFault() {
			p.logger.Info("Job submission rejected",
				slog.String("kind", outcome),
				slog.String("error", err.Error()),
			)
		} else {
			p.logger.Error("Job submission failed",
				slog.String("kind", outcome),
				slog.String("error", err.Error()),
			)
		}
	}
	if p.outcomes != nil {
		p.outcomes.RecordAdmission(outcome)
	}

	return Shape(record, err)
}

func (p *Pipeline) run(ctx context.Context, req Request) (*domain.JobRecord, error) {
	payload, err := Normalize(req.Body)
	if err != nil {
		return nil, err
	}

	fields, err := p.validator.Validate(payload)
	if err != nil {
		return nil, err
	}

	owner, err := p.resolver.Resolve(ctx, req.Headers)
	if err != nil {
		return nil, err
	}

	return p.admitter.Admit(ctx, owner, fields)
}

// Resolver exposes the identity stage for transports that authenticate other routes
func (p *Pipeline) Resolver() *IdentityResolver {
	return p.resolver
}
