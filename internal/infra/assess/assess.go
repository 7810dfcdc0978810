package assess

import "github.com/bryanwahyu/cyberguard/internal/domain/scans"

// Defaults returns the built-in assessor for every scan type.
func Defaults() scans.Assessors {
	return scans.Assessors{
		URL:      URL{},
		Message:  Message{},
		Password: Password{},
		File:     File{},
	}
}
