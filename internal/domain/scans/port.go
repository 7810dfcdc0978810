package scans

import "context"

// Repository port (interface untuk persistence tabel scans)
type Repository interface {
	Append(ctx context.Context, r Record) error
	All(ctx context.Context) ([]Record, error)
}

// URLAssessor judges a sanitized URL.
type URLAssessor interface {
	AssessURL(ctx context.Context, url string) (RiskVerdict, error)
}

// MessageAssessor judges a sanitized message. simple asks for shorter, plain-language output.
type MessageAssessor interface {
	AssessMessage(ctx context.Context, message string, simple bool) (RiskVerdict, error)
}

// PasswordAssessor rates a raw password. Implementations must not retain it.
type PasswordAssessor interface {
	AssessPassword(ctx context.Context, password string) (PasswordAssessment, error)
}

// FileAssessor judges a file by its metadata.
type FileAssessor interface {
	AssessFile(ctx context.Context, f FileInfo) (RiskVerdict, error)
}

// Assessors bundles the pluggable risk heuristics, one per scan type.
type Assessors struct {
	URL      URLAssessor
	Message  MessageAssessor
	Password PasswordAssessor
	File     FileAssessor
}
