package membership

import (
	"context"

	"github.com/go-playground/validator/v10"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/fatflowers/memberlink/internal/platform/identity"
	"github.com/fatflowers/memberlink/pkg/types"
)

// ProviderClient is the payment provider API used for cancellation.
type ProviderClient interface {
	RequestCancellation(ctx context.Context, providerMembershipID string) error
}

// Service implements ingest, read with lazy linking, and cancellation over a
// Store. It holds no mutable state of its own.
type Service struct {
	store     Store
	directory identity.Directory
	provider  ProviderClient
	plans     types.PlanCatalog
	validate  *validator.Validate
	tracer    trace.Tracer
	log       *zap.SugaredLogger
}

func NewService(
	store Store,
	directory identity.Directory,
	provider ProviderClient,
	plans types.PlanCatalog,
	tracer trace.Tracer,
	log *zap.SugaredLogger,
) *Service {
	return &Service{
		store:     store,
		directory: directory,
		provider:  provider,
		plans:     plans,
		validate:  validator.New(),
		tracer:    tracer,
		log:       log,
	}
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
