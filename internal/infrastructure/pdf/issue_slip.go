// Package pdf genera el comprobante de salida de unidades de sangre con Maroto v2.
//
// Layout de la página A4:
//
//	┌─────────────────────────────────────────────────────────────┐
//	│  HEADER: Hospital            │  N° salida + fecha            │
//	│  SOLICITUD: paciente / urgencia / médico / motivo            │
//	│  TABLA: # | Lote | Unidades                                  │
//	│  TOTAL: grupo sanguíneo + unidades emitidas                   │
//	│  FOOTER: QR de trazabilidad + firmas                          │
//	└─────────────────────────────────────────────────────────────┘
package pdf

import (
	"context"
	"fmt"
	"strconv"

	maroto "github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/code"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/line"
	"github.com/johnfercher/maroto/v2/pkg/components/row"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/consts/pagesize"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"

	"github.com/jhoicas/BancoSangre-api/internal/application/issue"
	"github.com/jhoicas/BancoSangre-api/internal/domain/entity"
)

var _ issue.SlipGenerator = (*SlipGenerator)(nil)

// ── Paleta ────────────────────────────────────────────────────────────────────

var (
	colorPrimary = &props.Color{Red: 150, Green: 20, Blue: 30}
	colorGray    = &props.Color{Red: 100, Green: 100, Blue: 100}
	colorWhite   = &props.Color{Red: 255, Green: 255, Blue: 255}
)

// ── Generator ─────────────────────────────────────────────────────────────────

// SlipGenerator implementa issue.SlipGenerator usando Maroto v2.
type SlipGenerator struct{}

// NewSlipGenerator construye el generador.
func NewSlipGenerator() *SlipGenerator { return &SlipGenerator{} }

// GenerateIssueSlip genera el PDF y devuelve sus bytes. req puede ser nil para salidas sin solicitud.
func (g *SlipGenerator) GenerateIssueSlip(
	_ context.Context,
	rec *entity.IssueRecord,
	hospital entity.HospitalRef,
	req *entity.BloodRequest,
) ([]byte, error) {
	cfg := config.NewBuilder().
		WithPageSize(pagesize.A4).
		WithLeftMargin(10).WithRightMargin(10).
		WithTopMargin(10).WithBottomMargin(10).
		WithDefaultFont(&props.Font{Family: "helvetica", Size: 9}).
		WithTitle("Comprobante de salida de unidades", true).
		WithAuthor(nonEmpty(hospital.Name, hospital.ID), true).
		Build()

	m := maroto.New(cfg)

	m.AddRows(headerRow(rec, hospital))
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.5}))
	if req != nil {
		m.AddRows(requestRow(req))
		m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.3}))
	}

	m.AddRows(tableHeaderRow())
	m.AddRows(tableRows(rec.Consumed)...)
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.3}))
	m.AddRows(totalRow(rec))

	m.AddRows(line.NewRow(3))
	m.AddRows(footerRow(rec))

	doc, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("pdf: generar documento: %w", err)
	}
	return doc.GetBytes(), nil
}

// ── Secciones ─────────────────────────────────────────────────────────────────

func headerRow(rec *entity.IssueRecord, hospital entity.HospitalRef) core.Row {
	return row.New(18).Add(
		col.New(7).Add(
			text.New(nonEmpty(hospital.Name, hospital.ID), props.Text{
				Style: fontstyle.Bold, Size: 13, Color: colorPrimary, Top: 1,
			}),
			text.New("Banco de sangre · ID "+hospital.ID, props.Text{
				Size: 8, Top: 9, Color: colorGray,
			}),
		),
		col.New(5).Add(
			text.New("COMPROBANTE DE SALIDA", props.Text{
				Style: fontstyle.Bold, Size: 8, Align: align.Right, Color: colorPrimary, Top: 1,
			}),
			text.New(shortID(rec.ID), props.Text{
				Style: fontstyle.Bold, Size: 12, Align: align.Right, Top: 7,
			}),
			text.New("Fecha: "+rec.IssuedAt.Format("02/01/2006 15:04"), props.Text{
				Size: 8, Align: align.Right, Top: 14, Color: colorGray,
			}),
		),
	)
}

func requestRow(req *entity.BloodRequest) core.Row {
	return row.New(20).Add(
		col.New(12).Add(
			text.New("SOLICITUD", props.Text{Style: fontstyle.Bold, Size: 8, Color: colorPrimary, Top: 1}),
			text.New(fmt.Sprintf("Paciente: %s   |   Urgencia: %s   |   Médico: %s",
				req.PatientID, string(req.Urgency), nonEmpty(req.DoctorName, "N/D"),
			), props.Text{Size: 9, Top: 6}),
			text.New("Motivo: "+req.Reason, props.Text{Size: 8, Top: 12, Color: colorGray}),
		),
	)
}

func tableHeaderRow() core.Row {
	h := func(label string, size int, a align.Type) core.Col {
		return col.New(size).Add(text.New(label, props.Text{
			Style: fontstyle.Bold, Size: 8, Align: a, Color: colorWhite, Top: 2, Left: 1, Right: 1,
		}))
	}
	return row.New(8).Add(
		h("#", 1, align.Center),
		h("Lote (FEFO)", 8, align.Left),
		h("Unidades", 3, align.Right),
	).WithStyle(&props.Cell{BackgroundColor: colorPrimary})
}

func tableRows(consumed []entity.Consumption) []core.Row {
	out := make([]core.Row, 0, len(consumed))
	for i, c := range consumed {
		out = append(out, row.New(7).Add(
			col.New(1).Add(text.New(strconv.Itoa(i+1), props.Text{Size: 8, Align: align.Center, Top: 1})),
			col.New(8).Add(text.New(c.EntryID, props.Text{Size: 8, Top: 1, Left: 1})),
			col.New(3).Add(text.New(strconv.Itoa(c.Units), props.Text{Size: 8, Align: align.Right, Top: 1, Right: 1})),
		))
	}
	return out
}

func totalRow(rec *entity.IssueRecord) core.Row {
	return row.New(14).Add(
		col.New(6).Add(
			text.New("Grupo sanguíneo: "+rec.BloodGroup.String(), props.Text{
				Style: fontstyle.Bold, Size: 11, Color: colorPrimary, Top: 3,
			}),
		),
		col.New(6).Add(
			text.New(fmt.Sprintf("UNIDADES EMITIDAS: %d", rec.UnitsIssued), props.Text{
				Style: fontstyle.Bold, Size: 11, Align: align.Right, Color: colorPrimary, Top: 3, Right: 1,
			}),
		),
	)
}

func footerRow(rec *entity.IssueRecord) core.Row {
	return row.New(45).Add(
		col.New(4).Add(code.NewQr(rec.ID, props.Rect{Percent: 95, Center: true})),
		col.New(8).Add(
			text.New("Entregado a: "+nonEmpty(rec.IssuedTo, "N/D"), props.Text{Size: 9, Top: 4, Left: 3}),
			text.New("Emitido por: "+rec.IssuedBy, props.Text{Size: 9, Top: 10, Left: 3}),
			text.New(nonEmpty(rec.Notes, ""), props.Text{Size: 8, Top: 16, Left: 3, Color: colorGray}),
			text.New("Firma receptor: ______________________", props.Text{Size: 9, Top: 32, Left: 3}),
		),
	)
}

// ── helpers ───────────────────────────────────────────────────────────────────

func nonEmpty(s, fallback string) string {
	if s != "" {
		return s
	}
	return fallback
}

// shortID primeros 8 caracteres del id para mostrar.
func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
