package hero

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"hero-server/internal/domain/hero"
	"hero-server/internal/platform/mq"
)

const SubjectSaved = "hero.saved"

// ErrNotFound matches every *NotFoundError via errors.Is.
var ErrNotFound = hero.ErrNotFound

type NotFoundError struct {
	ID string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("Hero not found. Id: %s", e.ID)
}

func (e *NotFoundError) Is(target error) bool {
	return target == hero.ErrNotFound
}

// Repository is the persistence capability the service needs. FindByID must
// return hero.ErrNotFound when no record matches. Save inserts when the hero
// has no id and overwrites by id otherwise, returning the stored hero.
type Repository interface {
	FindAll(ctx context.Context) ([]hero.Hero, error)
	FindByID(ctx context.Context, id string) (hero.Hero, error)
	FindByNameContaining(ctx context.Context, name string) ([]hero.Hero, error)
	Save(ctx context.Context, h hero.Hero) (hero.Hero, error)
}

type SavedEvent struct {
	ID      string    `json:"id"`
	Name    string    `json:"name"`
	Race    hero.Race `json:"race"`
	Created bool      `json:"created"`
}

type Service struct {
	repo   Repository
	pub    mq.Publisher
	logger zerolog.Logger
	tracer trace.Tracer
}

func NewService(repo Repository, pub mq.Publisher, logger zerolog.Logger) *Service {
	return &Service{
		repo:   repo,
		pub:    pub,
		logger: logger,
		tracer: otel.Tracer("hero-server/internal/app/hero"),
	}
}

func (s *Service) FindAll(ctx context.Context) (_ []Response, err error) {
	ctx, span := s.tracer.Start(ctx, "hero.FindAll")
	defer func() { endSpan(span, err) }()

	heroes, err := s.repo.FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("list heroes: %w", err)
	}
	span.SetAttributes(attribute.Int("hero.count", len(heroes)))
	return ToResponses(heroes), nil
}

func (s *Service) FindByID(ctx context.Context, id string) (_ Response, err error) {
	ctx, span := s.tracer.Start(ctx, "hero.FindByID", trace.WithAttributes(attribute.String("hero.id", id)))
	defer func() { endSpan(span, err) }()

	h, err := s.get(ctx, id)
	if err != nil {
		return Response{}, err
	}
	return ToResponse(h), nil
}

func (s *Service) FindByName(ctx context.Context, name string) (_ []Response, err error) {
	ctx, span := s.tracer.Start(ctx, "hero.FindByName", trace.WithAttributes(attribute.String("hero.name", name)))
	defer func() { endSpan(span, err) }()

	heroes, err := s.repo.FindByNameContaining(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("search heroes: %w", err)
	}
	span.SetAttributes(attribute.Int("hero.count", len(heroes)))
	return ToResponses(heroes), nil
}

func (s *Service) Save(ctx context.Context, req Request) (_ Response, err error) {
	ctx, span := s.tracer.Start(ctx, "hero.Save")
	defer func() { endSpan(span, err) }()

	h := ToHero(req)
	if err := h.Validate(); err != nil {
		return Response{}, err
	}
	saved, err := s.repo.Save(ctx, h)
	if err != nil {
		return Response{}, fmt.Errorf("save hero: %w", err)
	}
	if saved.ID == "" {
		return Response{}, fmt.Errorf("save hero: store returned no id")
	}
	span.SetAttributes(attribute.String("hero.id", saved.ID))
	s.publishSaved(ctx, saved, true)
	return ToResponse(saved), nil
}

// Update overwrites an existing hero. The stored active flag is kept since the
// request shape does not carry it.
func (s *Service) Update(ctx context.Context, id string, req Request) (_ Response, err error) {
	ctx, span := s.tracer.Start(ctx, "hero.Update", trace.WithAttributes(attribute.String("hero.id", id)))
	defer func() { endSpan(span, err) }()

	current, err := s.get(ctx, id)
	if err != nil {
		return Response{}, err
	}
	h := ToHero(req)
	h.ID = current.ID
	h.Active = current.Active
	if err := h.Validate(); err != nil {
		return Response{}, err
	}
	saved, err := s.repo.Save(ctx, h)
	if err != nil {
		return Response{}, fmt.Errorf("update hero %s: %w", id, err)
	}
	s.publishSaved(ctx, saved, false)
	return ToResponse(saved), nil
}

// Compare looks up id1 before id2; when both are missing the id1 failure is
// returned.
func (s *Service) Compare(ctx context.Context, id1, id2 string) (_ hero.Comparison, err error) {
	ctx, span := s.tracer.Start(ctx, "hero.Compare", trace.WithAttributes(
		attribute.String("hero.id1", id1),
		attribute.String("hero.id2", id2),
	))
	defer func() { endSpan(span, err) }()

	first, err := s.get(ctx, id1)
	if err != nil {
		return hero.Comparison{}, err
	}
	second, err := s.get(ctx, id2)
	if err != nil {
		return hero.Comparison{}, err
	}
	return hero.Compare(first, second), nil
}

func (s *Service) get(ctx context.Context, id string) (hero.Hero, error) {
	h, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, hero.ErrNotFound) {
			return hero.Hero{}, &NotFoundError{ID: id}
		}
		return hero.Hero{}, fmt.Errorf("find hero %s: %w", id, err)
	}
	return h, nil
}

func (s *Service) publishSaved(ctx context.Context, h hero.Hero, created bool) {
	if s.pub == nil {
		return
	}
	b, err := json.Marshal(SavedEvent{ID: h.ID, Name: h.Name, Race: h.Race, Created: created})
	if err != nil {
		s.logger.Warn().Err(err).Str("subject", SubjectSaved).Str("hero_id", h.ID).Msg("encode hero event failed")
		return
	}
	if err := s.pub.Publish(ctx, SubjectSaved, b); err != nil {
		s.logger.Warn().Err(err).Str("subject", SubjectSaved).Str("hero_id", h.ID).Msg("publish hero event failed")
	}
}

func endSpan(span trace.Span, err error) {
	if err != nil && !errors.Is(err, hero.ErrNotFound) {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
