// internal/compliance/expiry.go
package compliance

import (
	"time"

	"github.com/edwardxtra/xtrafleet-sub000/internal/models"
)

const DefaultWarningWindow = 30 * 24 * time.Hour

// ExpiryClassifier derives a driver's compliance status from the expiry dates
// of their CDL, medical card and insurance. A missing or expired document is
// Red; one expiring inside the warning window is Yellow.
type ExpiryClassifier struct {
	warningWindow time.Duration
	now           func() time.Time
}

type Option func(*ExpiryClassifier)

func WithWarningWindow(d time.Duration) Option {
	return func(c *ExpiryClassifier) {
		if d > 0 {
			c.warningWindow = d
		}
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(c *ExpiryClassifier) { c.now = now }
}

func NewExpiryClassifier(opts ...Option) *ExpiryClassifier {
	c := &ExpiryClassifier{
		warningWindow: DefaultWarningWindow,
		now:           time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *ExpiryClassifier) Classify(driver *models.Driver) models.ComplianceStatus {
	if driver == nil {
		return models.ComplianceUnknown
	}
	status, _ := c.Explain(driver)
	return status
}

// DocumentState is the evaluation of one tracked document.
type DocumentState struct {
	Document models.ComplianceDocument `json:"document"`
	Status   models.ComplianceStatus   `json:"status"`
	Expiry   *time.Time                `json:"expiry,omitempty"`
}

// Explain returns the overall status together with the per-document states
// that produced it. The overall status is the worst document status.
func (c *ExpiryClassifier) Explain(driver *models.Driver) (models.ComplianceStatus, []DocumentState) {
	now := c.now()
	docs := []struct {
		doc    models.ComplianceDocument
		expiry *time.Time
	}{
		{models.DocumentCDL, driver.CDLExpiry},
		{models.DocumentMedicalCard, driver.MedicalCardExpiry},
		{models.DocumentInsurance, driver.InsuranceExpiry},
	}

	overall := models.ComplianceGreen
	states := make([]DocumentState, 0, len(docs))
	for _, d := range docs {
		s := c.documentStatus(now, d.expiry)
		states = append(states, DocumentState{Document: d.doc, Status: s, Expiry: d.expiry})
		if severity(s) > severity(overall) {
			overall = s
		}
	}
	return overall, states
}

func (c *ExpiryClassifier) documentStatus(now time.Time, expiry *time.Time) models.ComplianceStatus {
	switch {
	case expiry == nil || !expiry.After(now):
		return models.ComplianceRed
	case expiry.Sub(now) <= c.warningWindow:
		return models.ComplianceYellow
	default:
		return models.ComplianceGreen
	}
}

func severity(s models.ComplianceStatus) int {
	switch s {
	case models.ComplianceGreen:
		return 0
	case models.ComplianceYellow:
		return 1
	default:
		return 2
	}
}
