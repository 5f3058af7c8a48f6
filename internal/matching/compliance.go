// internal/matching/compliance.go
package matching

import "github.com/edwardxtra/xtrafleet-sub000/internal/models"

// ComplianceClassifier reports a driver's compliance status. Implementations
// must be safe for concurrent use.
type ComplianceClassifier interface {
	Classify(driver *models.Driver) models.ComplianceStatus
}

// ClassifierFunc adapts a plain function to ComplianceClassifier.
type ClassifierFunc func(driver *models.Driver) models.ComplianceStatus

func (f ClassifierFunc) Classify(driver *models.Driver) models.ComplianceStatus {
	return f(driver)
}

func classify(c ComplianceClassifier, driver *models.Driver) models.ComplianceStatus {
	if c == nil {
		return models.ComplianceUnknown
	}
	return c.Classify(driver)
}
