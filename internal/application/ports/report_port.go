package ports

import (
	"time"

	"github.com/jhoicas/AgroDiligencia-api/internal/domain/audit"
	"github.com/jhoicas/AgroDiligencia-api/internal/domain/entity"
)

// AuditReportGenerator genera el PDF del parecer de due diligence.
type AuditReportGenerator interface {
	GenerateAuditReport(state *entity.AuditState, summary audit.Summary, generatedAt time.Time) ([]byte, error)
}
