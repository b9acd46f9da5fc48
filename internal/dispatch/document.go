package dispatch

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/template"
	"time"

	"github.com/fentz26/faultdrill/internal/models"
)

const documentTemplate = `MAINTENANCE WORK ORDER
{{ rule }}

WORK ORDER ID: {{ .Order.ID }}
Status: {{ .Order.Status }}
Priority: {{ .Order.Priority }}
SLA: {{ .Order.SLAMinutes }} minutes

Created: {{ .Order.CreatedAt }}
Fault: {{ .Order.Fault }}
Severity: {{ .Order.Severity }}
Result: {{ .Order.Result }}
Escalation: {{ .Order.Escalation }}
Site Status: {{ .Order.SiteStatus }}

Technician Notes:
- Action Taken: {{ .Incident.Resolution }}
- Repair Time Estimate: {{ .Incident.RepairTimeMin }} min

Dispatch / Follow-Up:
- Supervisor review required
- Verify safety compliance
- Schedule corrective maintenance

Tools Checklist:
- Multimeter
- Lockout/Tagout Kit
- Replacement parts if needed

{{ rule }}
END OF WORK ORDER
`

var docTmpl = template.Must(template.New("work_order").Funcs(template.FuncMap{
	"rule": func() string { return strings.Repeat("=", 60) },
}).Parse(documentTemplate))

// DocumentWriter renders one human-readable detail document per work order.
type DocumentWriter struct {
	dir string
}

// NewDocumentWriter writes documents into dir, creating it on demand.
func NewDocumentWriter(dir string) *DocumentWriter {
	return &DocumentWriter{dir: dir}
}

// DocumentName returns work_order_<id>_<YYYY-MM-DD_HH-MM-SS>.txt.
func DocumentName(id string, at time.Time) string {
	return fmt.Sprintf("work_order_%s_%s.txt", id, at.Format("2006-01-02_15-04-05"))
}

// Write renders the document and returns its path.
func (d *DocumentWriter) Write(wo models.WorkOrder, inc models.Incident, at time.Time) (string, error) {
	if err := os.MkdirAll(d.dir, 0755); err != nil {
		return "", fmt.Errorf("create document directory: %w", err)
	}
	path := filepath.Join(d.dir, DocumentName(wo.ID, at))

	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create document: %w", err)
	}
	defer f.Close()

	data := struct {
		Order    models.WorkOrder
		Incident models.Incident
	}{wo, inc}
	if err := docTmpl.Execute(f, data); err != nil {
		return "", fmt.Errorf("render document: %w", err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("write document: %w", err)
	}
	return path, nil
}
