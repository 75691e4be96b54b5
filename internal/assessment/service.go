// Package assessment orchestrates locating, classifying and, for unsafe policies,
// finding alternatives for a single site
package assessment

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/Cipherweave/VortexWatch/internal/alternatives"
	"github.com/Cipherweave/VortexWatch/internal/classifier"
	"github.com/Cipherweave/VortexWatch/internal/domain"
	"github.com/Cipherweave/VortexWatch/internal/metrics"
	"github.com/Cipherweave/VortexWatch/internal/policydoc"
	"github.com/Cipherweave/VortexWatch/internal/slack"
	"github.com/Cipherweave/VortexWatch/internal/workerpool"
)

// Locator finds a site's privacy policy
type Locator interface {
	Locate(ctx context.Context, site *url.URL) (*url.URL, error)
}

// Extractor pulls readable text from a policy document
type Extractor interface {
	Extract(ctx context.Context, docURL string) policydoc.PolicyDocument
}

// Classifier judges policy text
type Classifier interface {
	Classify(ctx context.Context, text string) classifier.Verdict
}

// AlternativeFinder suggests competing products and resolves their websites
type AlternativeFinder interface {
	Suggest(ctx context.Context, company string) ([]string, error)
	Resolve(ctx context.Context, names []string) alternatives.Resolved
}

// Notifier is told about unsafe verdicts
type Notifier interface {
	NotifyUnsafe(ctx context.Context, alert slack.PolicyAlert) error
}

// Timeouts bound each pipeline stage, queue time included
type Timeouts struct {
	Locate   time.Duration
	Classify time.Duration
	Suggest  time.Duration
	Resolve  time.Duration
	Notify   time.Duration
}

// DefaultTimeouts returns the stage budgets used when none are configured
func DefaultTimeouts() Timeouts {
	return Timeouts{
		Locate:   15 * time.Second,
		Classify: 30 * time.Second,
		Suggest:  15 * time.Second,
		Resolve:  15 * time.Second,
		Notify:   10 * time.Second,
	}
}

// Service runs assessments on a shared worker pool
type Service struct {
	pool       *workerpool.Pool
	locator    Locator
	extractor  Extractor
	classifier Classifier
	finder     AlternativeFinder
	notifier   Notifier
	metrics    *metrics.Metrics
	timeouts   Timeouts
}

// Option configures a Service
type Option func(*Service)

// WithAlternativeFinder enables alternative suggestions for unsafe verdicts
func WithAlternativeFinder(f AlternativeFinder) Option {
	return func(s *Service) {
		s.finder = f
	}
}

// WithNotifier enables unsafe-verdict notifications
func WithNotifier(n Notifier) Option {
	return func(s *Service) {
		s.notifier = n
	}
}

// WithMetrics records stage and assessment metrics
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// WithTimeouts overrides stage timeouts; zero fields keep their defaults
func WithTimeouts(t Timeouts) Option {
	return func(s *Service) {
		if t.Locate > 0 {
			s.timeouts.Locate = t.Locate
		}

		if t.Classify > 0 {
			s.timeouts.Classify = t.Classify
		}

		if t.Suggest > 0 {
			s.timeouts.Suggest = t.Suggest
		}

		if t.Resolve > 0 {
			s.timeouts.Resolve = t.Resolve
		}

		if t.Notify > 0 {
			s.timeouts.Notify = t.Notify
		}
	}
}

// New creates an assessment service. The pool must be started by the caller.
func New(pool *workerpool.Pool, locator Locator, extractor Extractor, cls Classifier, opts ...Option) (*Service, error) {
	if pool == nil || locator == nil || extractor == nil || cls == nil {
		return nil, ErrMissingDependency
	}

	s := &Service{
		pool:       pool,
		locator:    locator,
		extractor:  extractor,
		classifier: cls,
		timeouts:   DefaultTimeouts(),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s, nil
}

// Assess runs the full pipeline for rawDomain. Client, not-found and timeout
// failures are returned as an *Error wrapping one of the package sentinels.
func (s *Service) Assess(ctx context.Context, rawDomain string) (result *Result, err error) {
	start := time.Now()
	id := uuid.NewString()
	logger := log.With().Str("assessment_id", id).Str("domain", rawDomain).Logger()

	defer func() {
		if r := recover(); r != nil {
			logger.Error().Interface("panic", r).Msg("assessment panicked")

			result = nil
			err = &Error{Domain: rawDomain, Err: fmt.Errorf("%w: %v", ErrInternal, r)}
		}

		label := resultLabel(result, err)
		s.metrics.RecordAssessment(label, time.Since(start))

		logger.Info().Str("result", label).Dur("duration", time.Since(start)).Msg("assessment finished")
	}()

	target, err := validate(rawDomain)
	if err != nil {
		return nil, &Error{Domain: rawDomain, Err: err}
	}

	site := target.String()
	logger = logger.With().Str("site", site).Logger()

	policyURL, err := s.locate(ctx, logger, target)
	if err != nil {
		return nil, &Error{Domain: site, Err: err}
	}

	verdict, err := s.classify(ctx, logger, policyURL)
	if err != nil {
		return nil, &Error{Domain: site, Err: err}
	}

	result = &Result{
		Status:            StatusSuccess,
		AssessmentID:      id,
		Domain:            site,
		RegistrableDomain: target.Registrable,
		PrivacyURL:        policyURL.String(),
		IsSafe:            verdict.Safe(),
		Verdict:           verdict,
		PolicyAnalysis:    verdict.Analysis(),
	}

	if result.IsSafe {
		return result, nil
	}

	result.Alternatives = s.findAlternatives(ctx, logger, domain.CompanyName(target))

	s.notify(ctx, logger, result)

	return result, nil
}

// validate maps site validation failures onto the client error sentinels
func validate(raw string) (*domain.SiteTarget, error) {
	target, err := domain.NewSiteTarget(raw)

	switch {
	case err == nil:
		return target, nil
	case errors.Is(err, domain.ErrEmptyTarget):
		return nil, ErrDomainRequired
	case errors.Is(err, domain.ErrBrowserPage):
		return nil, ErrBrowserPage
	default:
		return nil, fmt.Errorf("%w: %v", ErrInvalidDomain, err)
	}
}

func (s *Service) locate(ctx context.Context, logger zerolog.Logger, target *domain.SiteTarget) (*url.URL, error) {
	timer := s.metrics.NewStageTimer(metrics.StageLocate)

	task := workerpool.Submit(ctx, s.pool, func(ctx context.Context) (*url.URL, error) {
		return s.locator.Locate(ctx, target.URL)
	})

	policyURL, err := task.Wait(s.timeouts.Locate)

	switch {
	case err == nil:
		timer.Done(metrics.StatusSuccess)
		logger.Debug().Str("privacy_url", policyURL.String()).Msg("privacy policy located")

		return policyURL, nil
	case errors.Is(err, workerpool.ErrTaskPanic):
		timer.Done(metrics.StatusError)
		return nil, fmt.Errorf("%w: %v", ErrInternal, err)
	case errors.Is(err, workerpool.ErrTaskTimeout):
		timer.Done(metrics.StatusTimeout)
	default:
		timer.Done(metrics.StatusError)
	}

	logger.Info().Err(err).Msg("privacy policy not found")

	return nil, ErrPolicyNotFound
}

// classify extracts and classifies the policy as a single bounded task
func (s *Service) classify(ctx context.Context, logger zerolog.Logger, policyURL *url.URL) (classifier.Verdict, error) {
	timer := s.metrics.NewStageTimer(metrics.StageClassify)

	task := workerpool.Submit(ctx, s.pool, func(ctx context.Context) (classifier.Verdict, error) {
		doc := s.extractor.Extract(ctx, policyURL.String())
		return s.classifier.Classify(ctx, doc.Text), nil
	})

	verdict, err := task.Wait(s.timeouts.Classify)

	switch {
	case err == nil:
		timer.Done(metrics.StatusSuccess)
		s.metrics.RecordVerdict(string(verdict.Outcome))
		logger.Info().Str("outcome", string(verdict.Outcome)).Int("turns", verdict.Turns).Msg("policy classified")

		return verdict, nil
	case errors.Is(err, workerpool.ErrTaskTimeout):
		timer.Done(metrics.StatusTimeout)
		logger.Warn().Dur("timeout", s.timeouts.Classify).Msg("policy analysis timed out")

		return classifier.Verdict{}, ErrAssessmentTimeout
	default:
		timer.Done(metrics.StatusError)

		return classifier.Verdict{}, fmt.Errorf("%w: %v", ErrInternal, err)
	}
}

// findAlternatives runs the suggestion and resolution tasks, degrading to an error payload
func (s *Service) findAlternatives(ctx context.Context, logger zerolog.Logger, company string) *Alternatives {
	if s.finder == nil {
		s.metrics.RecordStage(metrics.StageSuggest, metrics.StatusUnavailable, 0)
		return &Alternatives{Error: AlternativesNotConfigured}
	}

	timer := s.metrics.NewStageTimer(metrics.StageSuggest)

	names, err := workerpool.Submit(ctx, s.pool, func(ctx context.Context) ([]string, error) {
		return s.finder.Suggest(ctx, company)
	}).Wait(s.timeouts.Suggest)

	switch {
	case errors.Is(err, workerpool.ErrTaskTimeout):
		timer.Done(metrics.StatusTimeout)
		logger.Warn().Str("company", company).Msg("alternative suggestion timed out")

		return &Alternatives{Error: AlternativesTimedOut}
	case err != nil:
		timer.Done(metrics.StatusError)
		logger.Warn().Err(err).Str("company", company).Msg("alternative suggestion failed")

		return &Alternatives{Error: AlternativesFailed}
	}

	timer.Done(metrics.StatusSuccess)
	timer = s.metrics.NewStageTimer(metrics.StageResolve)

	resolved, err := workerpool.Submit(ctx, s.pool, func(ctx context.Context) (alternatives.Resolved, error) {
		return s.finder.Resolve(ctx, names), nil
	}).Wait(s.timeouts.Resolve)

	switch {
	case errors.Is(err, workerpool.ErrTaskTimeout):
		timer.Done(metrics.StatusTimeout)
		logger.Warn().Strs("alternatives", names).Msg("alternative resolution timed out")

		return &Alternatives{Error: AlternativesTimedOut}
	case err != nil:
		timer.Done(metrics.StatusError)
		logger.Warn().Err(err).Msg("alternative resolution failed")

		return &Alternatives{Error: AlternativesFailed}
	}

	timer.Done(metrics.StatusSuccess)

	return &Alternatives{Resolved: resolved}
}

// notify dispatches an unsafe-verdict alert without waiting for delivery
func (s *Service) notify(ctx context.Context, logger zerolog.Logger, result *Result) {
	if s.notifier == nil {
		return
	}

	alert := slack.PolicyAlert{
		Domain:     result.Domain,
		PrivacyURL: result.PrivacyURL,
		Summary:    result.Verdict.Summary,
		Detail:     result.Verdict.Detail,
	}

	if result.Alternatives != nil {
		for _, e := range result.Alternatives.Resolved {
			alert.Alternatives = append(alert.Alternatives, slack.Link{Name: e.Name, URL: e.URL})
		}
	}

	workerpool.Submit(context.WithoutCancel(ctx), s.pool, func(ctx context.Context) (struct{}, error) {
		timer := s.metrics.NewStageTimer(metrics.StageNotify)

		ctx, cancel := context.WithTimeout(ctx, s.timeouts.Notify)
		defer cancel()

		if err := s.notifier.NotifyUnsafe(ctx, alert); err != nil {
			timer.Done(metrics.StatusError)
			logger.Warn().Err(err).Msg("unsafe policy notification failed")

			return struct{}{}, err
		}

		timer.Done(metrics.StatusSuccess)

		return struct{}{}, nil
	})
}

// resultLabel names the outcome of an assessment for metrics and logs
func resultLabel(result *Result, err error) string {
	switch {
	case err == nil && result != nil:
		return string(result.Verdict.Outcome)
	case errors.Is(err, ErrPolicyNotFound):
		return "not_found"
	case errors.Is(err, ErrAssessmentTimeout):
		return "timeout"
	case IsClientError(err):
		return "invalid"
	default:
		return "internal"
	}
}
