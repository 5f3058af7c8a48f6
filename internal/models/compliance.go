// internal/models/compliance.go
package models

// ComplianceStatus is the traffic-light state of a driver's regulatory
// documents.
type ComplianceStatus string

const (
	ComplianceGreen   ComplianceStatus = "Green"
	ComplianceYellow  ComplianceStatus = "Yellow"
	ComplianceRed     ComplianceStatus = "Red"
	ComplianceUnknown ComplianceStatus = "Unknown"
)

// ComplianceDocument names a document tracked for compliance.
type ComplianceDocument string

const (
	DocumentCDL         ComplianceDocument = "cdl"
	DocumentMedicalCard ComplianceDocument = "medical_card"
	DocumentInsurance   ComplianceDocument = "insurance"
)
