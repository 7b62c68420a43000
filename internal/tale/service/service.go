// Package service implements the folktale application service, including the
// cascading delete that removes a tale together with its comments and
// bookmarks as one atomic unit.
package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"fabula/internal/tale"
	"fabula/internal/tale/metrics"
	id "fabula/pkg/domain"
	dErrors "fabula/pkg/domain-errors"
	audit "fabula/pkg/platform/audit"
	"fabula/pkg/platform/audit/publisher"
	"fabula/pkg/platform/middleware/request"
	pstrings "fabula/pkg/platform/strings"
)

const tracerName = "fabula/internal/tale/service"

const (
	minRating = 1
	maxRating = 5
)

// Cache is a read-through cache for tale lookups. Implementations must treat
// their own failures as misses; Save and Invalidate never report errors.
type Cache interface {
	Find(ctx context.Context, taleID id.TaleID) (tale.Folktale, error)
	Save(ctx context.Context, f tale.Folktale)
	Invalidate(ctx context.Context, taleID id.TaleID)
}

// CreateInput carries the caller-supplied fields of a new tale.
type CreateInput struct {
	Title    string
	Region   string
	Body     string
	Tags     []string
	ImageURL string
	AudioURL string
}

// Service is the folktale application service.
type Service struct {
	tales   tale.Store
	tx      StoreTx
	logger  *slog.Logger
	cache   Cache
	audit   *publisher.Publisher
	metrics *metrics.Metrics
}

// Option configures optional collaborators.
type Option func(*Service)

// WithCache enables the read-through tale cache.
func WithCache(c Cache) Option {
	return func(s *Service) { s.cache = c }
}

// WithAudit enables audit trail emission.
func WithAudit(p *publisher.Publisher) Option {
	return func(s *Service) { s.audit = p }
}

// WithMetrics enables tale module metrics.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func New(tales tale.Store, tx StoreTx, logger *slog.Logger, opts ...Option) *Service {
	s := &Service{tales: tales, tx: tx, logger: logger}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) logAudit(ctx context.Context, event audit.AuditEvent, actor id.UserID, taleID id.TaleID, reason string) {
	if s.audit == nil {
		return
	}
	_ = s.audit.Emit(ctx, audit.Event{
		UserID:    actor,
		Subject:   taleID.String(),
		Action:    string(event),
		Reason:    reason,
		RequestID: request.GetRequestID(ctx),
	})
}

// Create stores a new tale attributed to the acting principal.
func (s *Service) Create(ctx context.Context, actor id.UserID, in CreateInput) (tale.Folktale, error) {
	if in.Title == "" {
		return tale.Folktale{}, dErrors.New(dErrors.CodeValidation, "title required")
	}
	if in.Body == "" {
		return tale.Folktale{}, dErrors.New(dErrors.CodeValidation, "body required")
	}

	f := tale.Folktale{
		ID:        id.NewTaleID(),
		Title:     in.Title,
		Region:    in.Region,
		Body:      in.Body,
		Tags:      pstrings.DedupeAndTrimLower(in.Tags),
		ImageURL:  in.ImageURL,
		AudioURL:  in.AudioURL,
		CreatedBy: actor,
		UpdatedBy: actor,
	}
	if err := s.tales.Create(ctx, f); err != nil {
		return tale.Folktale{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create folktale")
	}

	if s.metrics != nil {
		s.metrics.IncrementCreated()
	}
	s.logAudit(ctx, audit.EventTaleCreated, actor, f.ID, "")
	return f, nil
}

// Get returns a tale by identifier, serving from cache when possible.
func (s *Service) Get(ctx context.Context, taleID id.TaleID) (tale.Folktale, error) {
	if s.cache != nil {
		if f, err := s.cache.Find(ctx, taleID); err == nil {
			if s.metrics != nil {
				s.metrics.IncrementCacheHit()
			}
			return f, nil
		}
		if s.metrics != nil {
			s.metrics.IncrementCacheMiss()
		}
	}

	f, err := s.tales.FindByID(ctx, taleID)
	if err != nil {
		if errors.Is(err, tale.ErrNotFound) {
			return tale.Folktale{}, dErrors.New(dErrors.CodeNotFound, "folktale not found")
		}
		return tale.Folktale{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load folktale")
	}

	if s.cache != nil {
		s.cache.Save(ctx, f)
	}
	return f, nil
}

// List returns all tales.
func (s *Service) List(ctx context.Context) ([]tale.Folktale, error) {
	tales, err := s.tales.List(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list folktales")
	}
	return tales, nil
}

// Update replaces the caller-supplied fields and records the acting
// principal as the last editor.
func (s *Service) Update(ctx context.Context, actor id.UserID, taleID id.TaleID, in CreateInput) (tale.Folktale, error) {
	if in.Title == "" {
		return tale.Folktale{}, dErrors.New(dErrors.CodeValidation, "title required")
	}
	if in.Body == "" {
		return tale.Folktale{}, dErrors.New(dErrors.CodeValidation, "body required")
	}

	f, err := s.tales.FindByID(ctx, taleID)
	if err != nil {
		if errors.Is(err, tale.ErrNotFound) {
			return tale.Folktale{}, dErrors.New(dErrors.CodeNotFound, "folktale not found")
		}
		return tale.Folktale{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load folktale")
	}

	f.Title = in.Title
	f.Region = in.Region
	f.Body = in.Body
	f.Tags = pstrings.DedupeAndTrimLower(in.Tags)
	f.ImageURL = in.ImageURL
	f.AudioURL = in.AudioURL
	f.UpdatedBy = actor
	if err := s.tales.Update(ctx, f); err != nil {
		if errors.Is(err, tale.ErrNotFound) {
			return tale.Folktale{}, dErrors.New(dErrors.CodeNotFound, "folktale not found")
		}
		return tale.Folktale{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to update folktale")
	}

	if s.cache != nil {
		s.cache.Invalidate(ctx, taleID)
	}
	s.logAudit(ctx, audit.EventTaleUpdated, actor, taleID, "")
	return s.Get(ctx, taleID)
}

// Rate records the acting principal's score for a tale. The storage layer
// enforces one rating per principal; a second attempt is rejected rather
// than overwritten.
func (s *Service) Rate(ctx context.Context, actor id.UserID, taleID id.TaleID, value int) (tale.Folktale, error) {
	if value < minRating || value > maxRating {
		return tale.Folktale{}, dErrors.New(dErrors.CodeValidation, "rating must be between 1 and 5")
	}

	r := tale.Rating{UserID: actor, Value: value, RatedAt: time.Now().UTC()}
	if err := s.tales.AddRating(ctx, taleID, r); err != nil {
		switch {
		case errors.Is(err, tale.ErrNotFound):
			return tale.Folktale{}, dErrors.New(dErrors.CodeNotFound, "folktale not found")
		case errors.Is(err, tale.ErrDuplicateRating):
			return tale.Folktale{}, dErrors.New(dErrors.CodeAlreadyRated, "folktale already rated")
		default:
			return tale.Folktale{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to rate folktale")
		}
	}

	if s.cache != nil {
		s.cache.Invalidate(ctx, taleID)
	}
	s.logAudit(ctx, audit.EventTaleRated, actor, taleID, "")
	return s.Get(ctx, taleID)
}

// Delete removes a tale together with every comment and bookmark that
// references it, as one all-or-nothing unit. Dependents go first so that no
// failure mode can leave a dependent pointing at a missing parent. A missing
// tale maps to CodeNotFound; the second of two racing deletes sees that
// rather than any partial state.
func (s *Service) Delete(ctx context.Context, actor id.UserID, taleID id.TaleID) error {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "tale.cascade_delete")
	defer span.End()
	span.SetAttributes(attribute.String("tale.id", taleID.String()))
	start := time.Now()

	var comments, bookmarks int64
	err := s.tx.RunInTx(ctx, func(stores Stores) error {
		if _, err := stores.Tales.FindByID(ctx, taleID); err != nil {
			if errors.Is(err, tale.ErrNotFound) {
				return dErrors.New(dErrors.CodeNotFound, "folktale not found")
			}
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load folktale")
		}

		var err error
		if comments, err = stores.Comments.DeleteByTale(ctx, taleID); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to delete comments")
		}
		if bookmarks, err = stores.Bookmarks.DeleteByTale(ctx, taleID); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to delete bookmarks")
		}
		if err := stores.Tales.Delete(ctx, taleID); err != nil {
			if errors.Is(err, tale.ErrNotFound) {
				return dErrors.New(dErrors.CodeNotFound, "folktale not found")
			}
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to delete folktale")
		}
		return nil
	})
	if err != nil {
		span.RecordError(err)
		return err
	}

	if s.cache != nil {
		s.cache.Invalidate(ctx, taleID)
	}
	if s.metrics != nil {
		s.metrics.IncrementDeleted()
		s.metrics.ObserveCascadeDelete(start)
	}
	s.logger.InfoContext(ctx, "folktale deleted",
		"tale_id", taleID.String(),
		"comments_removed", comments,
		"bookmarks_removed", bookmarks,
		"request_id", request.GetRequestID(ctx))
	s.logAudit(ctx, audit.EventTaleDeleted, actor, taleID, "")
	return nil
}
