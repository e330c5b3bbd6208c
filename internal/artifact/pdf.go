package artifact

import (
	"bytes"
	"fmt"

	"github.com/docbridge/docbridge/internal/models"
	"github.com/signintech/gopdf"
)

var fontPaths = []string{
	"/usr/share/fonts/ttf-dejavu/DejaVuSans.ttf",
	"/usr/share/fonts/dejavu/DejaVuSans.ttf",
	"/usr/share/fonts/truetype/dejavu/DejaVuSans.ttf",
}

// RenderPDF renders an artifact as a printable report. The caller is
// expected to have performed the access check via Get.
func RenderPDF(a *models.Artifact) ([]byte, error) {
	symptoms, err := a.Symptoms()
	if err != nil {
		return nil, fmt.Errorf("artifact: decode symptoms: %w", err)
	}
	preds, err := a.Predictions()
	if err != nil {
		return nil, fmt.Errorf("artifact: decode predictions: %w", err)
	}

	pdf := gopdf.GoPdf{}
	pdf.Start(gopdf.Config{PageSize: *gopdf.PageSizeA4})
	pdf.AddPage()

	var fontErr error
	loaded := false
	for _, path := range fontPaths {
		if err := pdf.AddTTFFont("DejaVu", path); err == nil {
			loaded = true
			break
		} else {
			fontErr = err
		}
	}
	if !loaded {
		return nil, fmt.Errorf("artifact: load pdf font: %w", fontErr)
	}

	if err := pdf.SetFont("DejaVu", "", 20); err != nil {
		return nil, err
	}
	pdf.Cell(nil, "Prediction Report")
	pdf.Br(30)

	if err := pdf.SetFont("DejaVu", "", 12); err != nil {
		return nil, err
	}
	pdf.Cell(nil, fmt.Sprintf("Report ID: %s", a.ID))
	pdf.Br(15)
	pdf.Cell(nil, fmt.Sprintf("Date: %s", a.CreatedAt.Format("02.01.2006 15:04")))
	pdf.Br(25)

	if err := pdf.SetFont("DejaVu", "", 14); err != nil {
		return nil, err
	}
	pdf.Cell(nil, "Reported symptoms:")
	pdf.Br(15)

	if err := pdf.SetFont("DejaVu", "", 11); err != nil {
		return nil, err
	}
	for _, s := range symptoms {
		pdf.Cell(nil, fmt.Sprintf("- %s", s))
		pdf.Br(12)
	}
	pdf.Br(15)

	if err := pdf.SetFont("DejaVu", "", 14); err != nil {
		return nil, err
	}
	pdf.Cell(nil, "Predicted conditions:")
	pdf.Br(15)

	if err := pdf.SetFont("DejaVu", "", 11); err != nil {
		return nil, err
	}
	if len(preds) == 0 {
		pdf.Cell(nil, "- No predictions available.")
		pdf.Br(12)
	}
	for _, p := range preds {
		line := fmt.Sprintf("- %s (%.1f%%)", p.Label, p.Probability*100)
		lines, _ := pdf.SplitText(line, 500)
		for _, l := range lines {
			pdf.Cell(nil, l)
			pdf.Br(12)
		}
	}

	pdf.SetY(800)
	if err := pdf.SetFont("DejaVu", "", 9); err != nil {
		return nil, err
	}
	pdf.Cell(nil, "Generated automatically. Not a substitute for professional medical advice.")

	var buf bytes.Buffer
	if _, err := pdf.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("artifact: write pdf: %w", err)
	}
	return buf.Bytes(), nil
}
