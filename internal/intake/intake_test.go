package intake

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/pvandermeer/luma/internal/api"
	"github.com/pvandermeer/luma/internal/catalog"
	"github.com/pvandermeer/luma/internal/domain"
)

type mockCatalog struct {
	course *catalog.Course
	err    error
}

func (m *mockCatalog) Course(ctx context.Context, id string) (*catalog.Course, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.course, nil
}

type mockLeads struct {
	result     *api.LeadResult
	err        error
	lastParams api.LeadParams
	calls      int
}

func (m *mockLeads) SubmitLead(ctx context.Context, params api.LeadParams) (*api.LeadResult, error) {
	m.calls++
	m.lastParams = params
	if m.err != nil {
		return nil, m.err
	}
	return m.result, nil
}

func newTestService(c courses, l leads) *Service {
	return NewService(c, l, nil, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

var validContact = domain.Contact{Name: "Priya Sharma", Email: "priya@example.com", Phone: "9876543210"}

func TestSubmitInquiry_Success(t *testing.T) {
	cat := &mockCatalog{course: &catalog.Course{ID: "p1", Name: "Go Bootcamp", Price: 1000}}
	lead := &mockLeads{result: &api.LeadResult{Message: "Thank you! We will contact you shortly."}}
	svc := newTestService(cat, lead)

	res, err := svc.SubmitInquiry(context.Background(), InquiryParams{
		Contact:   validContact,
		ProductID: "p1",
		Source:    "pricing_page",
	})
	if err != nil {
		t.Fatalf("Expected success, got error: %v", err)
	}
	if res.Message != "Thank you! We will contact you shortly." {
		t.Errorf("Unexpected message: %s", res.Message)
	}
	if lead.lastParams.ProductName != "Go Bootcamp" {
		t.Errorf("Expected course name on the lead, got: %q", lead.lastParams.ProductName)
	}
	if lead.lastParams.Source != "pricing_page" {
		t.Errorf("Expected source tag on the lead, got: %q", lead.lastParams.Source)
	}
}

func TestSubmitInquiry_InvalidContactSkipsLead(t *testing.T) {
	lead := &mockLeads{}
	svc := newTestService(&mockCatalog{}, lead)

	_, err := svc.SubmitInquiry(context.Background(), InquiryParams{
		Contact:   domain.Contact{Name: "Priya Sharma"},
		ProductID: "p1",
	})
	if !domain.IsValidationError(err) {
		t.Fatalf("Expected validation error, got: %v", err)
	}
	fields := domain.GetValidationFields(err)
	if _, ok := fields["email"]; !ok {
		t.Errorf("Expected email field error, got: %v", fields)
	}
	if lead.calls != 0 {
		t.Errorf("Expected no lead submission for invalid contact, got: %d", lead.calls)
	}
}

func TestSubmitInquiry_UnknownCourse(t *testing.T) {
	cat := &mockCatalog{err: domain.NotFound("catalog.course", "course", "missing")}
	svc := newTestService(cat, &mockLeads{})

	_, err := svc.SubmitInquiry(context.Background(), InquiryParams{
		Contact:   validContact,
		ProductID: "missing",
	})
	if domain.ErrorCode(err) != domain.ENOTFOUND {
		t.Errorf("Expected ENOTFOUND, got: %v", err)
	}
}

func TestSubmitInquiry_BackendFailurePropagates(t *testing.T) {
	cat := &mockCatalog{course: &catalog.Course{ID: "p1", Name: "Go Bootcamp"}}
	lead := &mockLeads{err: domain.Unavailable(errors.New("timeout"), "api.submit_lead",
		"Could not submit your inquiry. Please try again.")}
	svc := newTestService(cat, lead)

	_, err := svc.SubmitInquiry(context.Background(), InquiryParams{
		Contact:   validContact,
		ProductID: "p1",
	})
	if domain.ErrorCode(err) != domain.EUNAVAILABLE {
		t.Errorf("Expected EUNAVAILABLE, got: %v", err)
	}
}
