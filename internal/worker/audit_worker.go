package worker

import (
	"github.com/spec-kit/agservice/internal/service"
)

// StartAuditWorker registers the audit trail subscribers.
func StartAuditWorker(auditService *service.AuditService) {
	if auditService == nil {
		return
	}
	auditService.RegisterHandlers()
}
