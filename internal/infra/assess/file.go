package assess

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/bryanwahyu/cyberguard/internal/domain/scans"
)

var executableExts = map[string]int{
	".exe": 60, ".scr": 70, ".bat": 60, ".cmd": 60, ".com": 60, ".pif": 70,
	".vbs": 60, ".js": 45, ".jar": 45, ".msi": 50, ".ps1": 60, ".hta": 70,
	".docm": 40, ".xlsm": 40, ".iso": 35, ".lnk": 55,
}

var documentExts = []string{".pdf", ".doc", ".docx", ".xls", ".xlsx", ".jpg", ".png", ".txt", ".zip"}

// File scores a file by its name, declared type and size.
type File struct{}

func (File) AssessFile(_ context.Context, f scans.FileInfo) (scans.RiskVerdict, error) {
	name := strings.ToLower(strings.TrimSpace(f.Name))
	ext := filepath.Ext(name)
	score := 0
	var threats []string

	if w, ok := executableExts[ext]; ok {
		score += w
		threats = append(threats, "Executable or macro-enabled file type ("+ext+")")
	}
	inner := filepath.Ext(strings.TrimSuffix(name, ext))
	for _, d := range documentExts {
		if inner == d && ext != d {
			score += 30
			threats = append(threats, "Double extension disguises the real file type")
			break
		}
	}
	if f.Type != "" && ext != "" && !strings.Contains(strings.ToLower(f.Type), strings.TrimPrefix(ext, ".")) &&
		strings.Contains(strings.ToLower(f.Type), "application/x-msdownload") {
		score += 20
		threats = append(threats, "Declared type does not match the name")
	}
	if f.Size > 0 && f.Size < 1024 && score > 0 {
		score += 10
		threats = append(threats, "Suspiciously small for its type")
	}

	return verdict(score, threats, "Do not open unexpected attachments; scan them with antivirus first."), nil
}
