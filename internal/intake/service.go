package intake

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/cgvrzon/arynstal/internal/leads"
	"github.com/cgvrzon/arynstal/internal/notify"
	"github.com/cgvrzon/arynstal/internal/observability/metrics"
	"github.com/cgvrzon/arynstal/internal/upload"
	"github.com/cgvrzon/arynstal/pkg/logging"
)

// Outcome is the terminal state of one submission.
type Outcome string

const (
	OutcomeCreated      Outcome = "created"
	OutcomeRateLimited  Outcome = "rate_limited"
	OutcomeBotSuspected Outcome = "bot_suspected"
	OutcomeRejected     Outcome = "rejected"
	OutcomeFailed       Outcome = "failed"
)

// User-facing messages. Deliberately non-technical: the rate limit message
// never mentions limits, and the honeypot path returns the exact success
// message so bots cannot tell they were detected.
const (
	SuccessMessage     = "Your request has been sent. We will contact you within 24 hours."
	RateLimitedMessage = "We are receiving a lot of requests right now. Please try again a bit later."
	RejectedMessage    = "Please review the highlighted fields."
	FailureMessage     = "Something went wrong on our side. Please try again later."
)

// Attachment is one uploaded file, already open for reading.
type Attachment struct {
	Filename string
	Size     int64
	Content  io.ReadSeeker
}

// Submission carries the raw form fields plus request metadata.
type Submission struct {
	Name             string
	Email            string
	Phone            string
	Location         string
	Message          string
	PreferredContact string
	Urgency          string

	Consent  bool
	Honeypot string

	IP        string
	UserAgent string

	Attachments []Attachment
}

// Result is what the handler renders. Lead is set only for OutcomeCreated.
type Result struct {
	Outcome     Outcome
	Lead        *leads.Lead
	FieldErrors map[string]string
	Message     string
}

// Service runs the intake pipeline.
type Service struct {
	repo     leads.Repository
	limiter  *RedisLimiter
	uploads  upload.Store
	notifier *notify.Service
	metrics  *metrics.IntakeMetrics
	logger   *logging.Logger
}

// NewService creates the intake service. limiter, uploads, notifier and
// intakeMetrics may be nil; the corresponding stage degrades gracefully.
func NewService(repo leads.Repository, limiter *RedisLimiter, uploads upload.Store, notifier *notify.Service, intakeMetrics *metrics.IntakeMetrics, logger *logging.Logger) *Service {
	if repo == nil {
		panic("intake: leads repository required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Service{
		repo:     repo,
		limiter:  limiter,
		uploads:  uploads,
		notifier: notifier,
		metrics:  intakeMetrics,
		logger:   logger,
	}
}

// Submit runs one submission through the pipeline. The stage order is fixed:
// rate limit, honeypot, consent, field validation, attachments, create,
// notify. Earlier stages short-circuit later ones.
func (s *Service) Submit(ctx context.Context, sub Submission) Result {
	start := time.Now()
	res := s.submit(ctx, sub)
	s.metrics.ObserveSubmission(string(res.Outcome), time.Since(start).Seconds())
	return res
}

func (s *Service) submit(ctx context.Context, sub Submission) Result {
	if !s.limiter.Allow(ctx, sub.IP) {
		return Result{Outcome: OutcomeRateLimited, Message: RateLimitedMessage}
	}

	if sub.Honeypot != "" {
		// Fabricated success: no record, no notification, identical body.
		s.logger.Info("honeypot tripped, discarding submission", "ip", sub.IP)
		return Result{Outcome: OutcomeBotSuspected, Message: SuccessMessage}
	}

	if !sub.Consent {
		return Result{
			Outcome:     OutcomeRejected,
			FieldErrors: map[string]string{"privacy_accepted": "you must accept the privacy policy"},
			Message:     RejectedMessage,
		}
	}

	req := &leads.CreateLeadRequest{
		Name:             sub.Name,
		Email:            sub.Email,
		Phone:            sub.Phone,
		Location:         sub.Location,
		Message:          sub.Message,
		Source:           leads.SourceWeb,
		PrivacyAccepted:  true,
		IPAddress:        sub.IP,
		UserAgent:        sub.UserAgent,
		PreferredContact: leads.ContactChannel(sub.PreferredContact),
		Urgency:          leads.Urgency(sub.Urgency),
	}
	req.Normalize()
	if err := req.Validate(); err != nil {
		return rejectedResult(err)
	}

	if len(sub.Attachments) > leads.MaxImagesPerLead {
		return Result{
			Outcome:     OutcomeRejected,
			FieldErrors: map[string]string{"fotos": "you can attach at most 5 photos"},
			Message:     RejectedMessage,
		}
	}
	for i, att := range sub.Attachments {
		if err := upload.ValidateImage(att.Content, att.Filename, att.Size); err != nil {
			s.logger.Info("attachment rejected", "ip", sub.IP, "position", i+1, "filename", att.Filename, "error", err)
			return Result{
				Outcome:     OutcomeRejected,
				FieldErrors: map[string]string{"fotos": attachmentMessage(i, err)},
				Message:     RejectedMessage,
			}
		}
	}

	imagePaths, err := s.storeAttachments(ctx, sub.Attachments)
	if err != nil {
		s.logger.Error("attachment storage failed", "error", err, "ip", sub.IP)
		return Result{Outcome: OutcomeFailed, Message: FailureMessage}
	}

	lead, err := s.repo.Create(ctx, req, imagePaths)
	if err != nil {
		var ve *leads.ValidationError
		if errors.As(err, &ve) {
			return rejectedResult(ve)
		}
		s.logger.Error("lead creation failed", "error", err, "ip", sub.IP)
		return Result{Outcome: OutcomeFailed, Message: FailureMessage}
	}

	s.logger.Info("lead created from web form", "lead_id", lead.ID, "images", len(imagePaths))

	if s.notifier != nil {
		nres := s.notifier.NotifyNewLead(ctx, lead)
		s.metrics.ObserveNotification("admin", nres.AdminNotified)
		s.metrics.ObserveNotification("customer", nres.CustomerConfirmed)
	}

	return Result{Outcome: OutcomeCreated, Lead: lead, Message: SuccessMessage}
}

func (s *Service) storeAttachments(ctx context.Context, atts []Attachment) ([]string, error) {
	if len(atts) == 0 {
		return nil, nil
	}
	if s.uploads == nil {
		// No store configured; the lead is still worth keeping.
		s.logger.Warn("no upload store configured, dropping attachments", "count", len(atts))
		return nil, nil
	}

	paths := make([]string, 0, len(atts))
	for _, att := range atts {
		key, err := s.uploads.Save(ctx, "leads", att.Filename, att.Content)
		if err != nil {
			return nil, err
		}
		paths = append(paths, key)
	}
	return paths, nil
}

func rejectedResult(err error) Result {
	var ve *leads.ValidationError
	if errors.As(err, &ve) {
		return Result{Outcome: OutcomeRejected, FieldErrors: ve.Fields, Message: RejectedMessage}
	}
	return Result{Outcome: OutcomeRejected, FieldErrors: map[string]string{"form": err.Error()}, Message: RejectedMessage}
}

func attachmentMessage(position int, err error) string {
	var ue *upload.Error
	if errors.As(err, &ue) {
		return fmt.Sprintf("photo %d (%s): %s", position+1, ue.Filename, ue.Reason)
	}
	return err.Error()
}
