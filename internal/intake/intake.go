// Package intake handles installment inquiries: a single-step lead
// capture that shares the contact validation and catalog lookup of the
// checkout flow but never touches payment.
package intake

import (
	"context"
	"log/slog"

	"github.com/pvandermeer/luma/internal/api"
	"github.com/pvandermeer/luma/internal/catalog"
	"github.com/pvandermeer/luma/internal/domain"
	"github.com/pvandermeer/luma/internal/telemetry"
)

// InquiryParams contains one installment inquiry submission.
type InquiryParams struct {
	Contact   domain.Contact
	ProductID string

	// Source tags where the inquiry came from, e.g. "pricing_page".
	Source string
}

// InquiryResult carries the acknowledgement shown to the customer.
type InquiryResult struct {
	Message string
}

// courses is the slice of the catalog service the intake needs.
type courses interface {
	Course(ctx context.Context, id string) (*catalog.Course, error)
}

// leads is the slice of the remote data store client the intake needs.
type leads interface {
	SubmitLead(ctx context.Context, params api.LeadParams) (*api.LeadResult, error)
}

// Service records installment inquiries.
type Service struct {
	catalog courses
	client  leads
	metrics *telemetry.Metrics
	logger  *slog.Logger
}

// NewService creates an intake service.
func NewService(catalog courses, client leads, metrics *telemetry.Metrics, logger *slog.Logger) *Service {
	return &Service{catalog: catalog, client: client, metrics: metrics, logger: logger}
}

// SubmitInquiry validates the contact, resolves the course through the
// catalog cache and records the lead.
func (s *Service) SubmitInquiry(ctx context.Context, params InquiryParams) (*InquiryResult, error) {
	if err := params.Contact.Validate(); err != nil {
		return nil, err
	}

	course, err := s.catalog.Course(ctx, params.ProductID)
	if err != nil {
		return nil, err
	}

	result, err := s.client.SubmitLead(ctx, api.LeadParams{
		Contact:     params.Contact,
		ProductID:   course.ID,
		ProductName: course.Name,
		Source:      params.Source,
	})
	if err != nil {
		return nil, err
	}

	s.metrics.LeadSubmitted()
	s.logger.Info("inquiry submitted",
		slog.String("product_id", course.ID), slog.String("source", params.Source))

	return &InquiryResult{Message: result.Message}, nil
}
