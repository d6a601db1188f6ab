package usecase

import (
	"fmt"
	"time"

	"github.com/jhoicas/AgroDiligencia-api/internal/application/ports"
)

// ReportUseCase genera el PDF del parecer con el estado actual de la auditoría.
type ReportUseCase struct {
	generator ports.AuditReportGenerator
	source    AuditSource
	now       func() time.Time
}

// NewReportUseCase construye el caso de uso.
func NewReportUseCase(generator ports.AuditReportGenerator, source AuditSource) *ReportUseCase {
	return &ReportUseCase{generator: generator, source: source, now: time.Now}
}

// AuditReport devuelve los bytes del PDF.
func (uc *ReportUseCase) AuditReport() ([]byte, error) {
	pdf, err := uc.generator.GenerateAuditReport(uc.source.Snapshot(), uc.source.Summary(), uc.now())
	if err != nil {
		return nil, fmt.Errorf("reporte de auditoría: %w", err)
	}
	return pdf, nil
}
