package pdf

import (
	"context"
	"fmt"
	"time"
)

// PatientInfo is the patient fingerprint stamped onto a document.
type PatientInfo struct {
	Name      string
	DOB       string
	Phone     string
	PatientID string
	Address   string
}

// ClinicianInfo is the issuing clinician fingerprint stamped onto a document.
type ClinicianInfo struct {
	Name         string
	Registration string
	Address      string
	Phone        string
	Email        string
}

// Prescription is the document model for a prescription PDF.
type Prescription struct {
	Patient         PatientInfo
	Clinician       ClinicianInfo
	Diagnosis       string
	History         string
	Medicines       []string
	Recommendations string
}

// Referral is the document model for a referral letter PDF.
type Referral struct {
	Patient   PatientInfo
	Clinician ClinicianInfo
	Body      string
}

// Renderer produces single-page A4 documents. The clock is injected so the
// creation timestamp and the visible signature date come from the caller,
// keeping output reproducible for identical inputs.
type Renderer struct {
	assets Assets
	now    func() time.Time
}

func NewRenderer(assets Assets, now func() time.Time) *Renderer {
	if now == nil {
		now = time.Now
	}
	return &Renderer{assets: assets, now: now}
}

// RenderPrescription lays out a prescription and returns the document bytes.
func (r *Renderer) RenderPrescription(ctx context.Context, pr Prescription) ([]byte, error) {
	p := newPage()
	p.pdf.SetCreationDate(r.now().UTC())

	margin := pageMargin
	cw := p.contentWidth
	y := margin

	// Success banner
	bannerH := 20.0
	p.fillRect(margin, y, cw, bannerH, rgb{209, 250, 229})
	p.text("", 10, colText, margin+10, y+bannerH-6, "Signed and all signatures are valid.")
	y += bannerH + 20

	// Title
	p.centeredText("B", 22, colGreen, y, "Prescription")
	y += 28

	p.strokeLine(margin, y, margin+cw, y, colGray200, 0.5)
	y += 16

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// Brand row next to the patient panel
	leftW := cw * 0.44
	rightW := cw - leftW - 10
	rowTop := y

	brandBoxH := 64.0
	p.image("logo", r.assets.Logo, margin, rowTop, 36)
	p.text("B", 16, colText, margin+56, rowTop+8, "GodwitCare")
	p.text("", 10, colGray500, margin+56, rowTop+26, "Care Beyond Borders")

	panelX := margin + leftW + 10

	var addrLines []string
	if Sanitize(pr.Patient.Address) != Placeholder {
		addrLines = p.wrap("", 10, rightW-panelPad*2, pr.Patient.Address)
	}
	addressBlockH := float64(len(addrLines)) * panelLineH
	if len(addrLines) > 0 {
		addressBlockH += 6
	}

	// top padding, title, name, DOB, address block, contact, patient id,
	// bottom padding
	computedH := panelPad + 16 + 6 + 14 + 6 + panelLineH + addressBlockH + panelLineH + panelLineH + panelPad
	panelH := computedH
	if panelH < 88 {
		panelH = 88
	}

	p.strokeRect(panelX, rowTop, rightW, panelH, colGray200, 0.8)
	p.text("B", 11, colText, panelX+panelPad, rowTop+16, "Patient Information")
	p.text("B", 12, colText, panelX+panelPad, rowTop+32, pr.Patient.Name)

	ty := rowTop + 32 + 6 + panelLineH
	p.smallPair(panelX+panelPad, ty, "DOB:", pr.Patient.DOB)
	ty += panelLineH

	if len(addrLines) == 0 {
		p.smallPair(panelX+panelPad, ty, "Address:", Placeholder)
		ty += panelLineH
	} else {
		p.smallPair(panelX+panelPad, ty, "Address:", addrLines[0])
		ty += panelLineH

		// continuation lines align with the value column
		valueX := panelX + panelPad + 56
		for _, line := range addrLines[1:] {
			p.text("", 10, colText, valueX, ty, line)
			ty += panelLineH
		}
	}

	p.smallPair(panelX+panelPad, ty, "Contact:", pr.Patient.Phone)
	ty += panelLineH
	p.smallPair(panelX+panelPad, ty, "Patient ID:", pr.Patient.PatientID)

	tallest := panelH
	if brandBoxH > tallest {
		tallest = brandBoxH
	}
	y = rowTop + tallest + 20

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// Diagnosis
	p.sectionTitle(margin, y, "Diagnosis")
	y += 16
	diagH := p.paragraphBox(11, pr.Diagnosis, margin, y, cw, colGray100, colGray200, 14)
	y += diagH + 14

	// History
	p.sectionTitle(margin, y, "History of Presenting Complaint")
	y += 16
	histH := p.paragraphBox(11, pr.History, margin, y, cw, colGray100, colGray200, 14)
	y += histH + 14

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// Medication cards
	p.sectionTitle(margin, y, "Medication Prescribed")
	y += 14

	if len(pr.Medicines) > 0 {
		for i, med := range pr.Medicines {
			cardPad := 10.0
			topPad := 12.0
			bottomPad := 12.0
			lineHt := 14.0

			lines := p.wrap("", 11, cw-cardPad*2, med)
			titleH := 14.0
			bodyH := float64(len(lines)-1) * lineHt

			boxH := topPad + titleH + 6 + bodyH + bottomPad

			p.fillRect(margin, y, cw, boxH, colWhite)
			p.strokeRect(margin, y, cw, boxH, colGray200, 0.9)

			p.text("B", 12, colText, margin+cardPad, y+topPad, fmt.Sprintf("%d. %s", i+1, lines[0]))

			ly := y + topPad + 6 + lineHt
			for _, line := range lines[1:] {
				p.text("", 11, colText, margin+cardPad, ly, line)
				ly += lineHt
			}

			y += boxH + 12
		}
	} else {
		p.text("I", 11, colGray500, margin, y+2, Placeholder)
		y += 18
	}

	// Additional notes
	p.sectionTitle(margin, y, "Additional Notes")
	y += 16
	notesH := 48.0
	p.fillRect(margin, y, cw, notesH, colWhite)
	p.strokeRect(margin, y, cw, notesH, colGray200, 0.8)
	notesLines := p.wrap("", 11, cw-16, pr.Recommendations)
	nty := y + 20
	for _, line := range notesLines {
		p.text("", 11, colGray800, margin+8, nty, line)
		nty += 14
	}
	y += notesH + 18

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// Signature row
	p.strokeLine(margin, y, margin+cw, y, colGray200, 0.5)
	y += 12

	sigLeftW := cw * 0.45
	p.text("B", 11, colText, margin, y+2, "Prescribing Doctor's Signature")
	p.text("", 9, colGray500, margin, y+16,
		"Date of Prescription: "+r.now().UTC().Format("2006-01-02"))

	if !p.image("signature", r.assets.Signature, margin, y+24, 28) {
		p.text("I", 10, colGray500, margin, y+36, "(Signature)")
	}

	rx := margin + sigLeftW + 18
	p.clinicianBlock(rx, y, pr.Clinician)

	signedBy := pr.Clinician.Name
	if signedBy == "" {
		signedBy = "Attending Clinician"
	}
	metaY := y + 56
	p.text("I", 9, colGray500, margin, metaY, "Digitally signed by "+signedBy)
	metaY += 12
	p.text("", 10, colTeal, margin, metaY, "Signature is valid")

	// Footer
	footerLineY := p.height - margin - 16
	p.strokeLine(margin, footerLineY, margin+cw, footerLineY, colGray200, 0.5)
	p.text("", 9, colGray500, margin, p.height-margin-4, "Company  |  Support  |  Legal")

	return p.output()
}

// RenderReferral lays out a referral letter and returns the document bytes.
func (r *Renderer) RenderReferral(ctx context.Context, rf Referral) ([]byte, error) {
	p := newPage()
	p.pdf.SetCreationDate(r.now().UTC())

	margin := pageMargin
	cw := p.contentWidth
	y := margin

	// Header banner
	bannerH := 20.0
	p.fillRect(margin, y, cw, bannerH, rgb{229, 246, 255})
	p.text("", 10, colText, margin+10, y+bannerH-6, "Referral Letter")
	y += bannerH + 16

	p.centeredText("B", 20, colGreen, y, "Referral Letter")
	y += 26
	p.strokeLine(margin, y, margin+cw, y, colGray200, 0.5)
	y += 16

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// Patient panel, fixed height with single-line address
	panelH := 96.0
	p.strokeRect(margin, y, cw, panelH, colGray200, 0.8)
	p.text("B", 11, colText, margin+panelPad, y+16, "Patient Information")
	p.text("B", 12, colText, margin+panelPad, y+32, rf.Patient.Name)

	ty := y + 32 + 6 + panelLineH
	p.smallPair(margin+panelPad, ty, "DOB:", rf.Patient.DOB)
	ty += panelLineH
	p.smallPair(margin+panelPad, ty, "Patient ID:", rf.Patient.PatientID)
	ty += panelLineH
	p.smallPair(margin+panelPad, ty, "Contact:", rf.Patient.Phone)
	ty += panelLineH
	p.smallPair(margin+panelPad, ty, "Address:", rf.Patient.Address)
	y += panelH + 16

	// Referral From panel, labels wider than the patient panel's
	p.strokeRect(margin, y, cw, 92, colGray200, 0.8)
	p.text("B", 11, colText, margin+panelPad, y+16, "Referral From")

	p.text("B", 10, colGray700, margin+panelPad, y+32, "GP Name:")
	p.text("", 10, colGray800, margin+panelPad+80, y+32, rf.Clinician.Name)
	p.text("B", 10, colGray700, margin+panelPad, y+44, "GMS Number:")
	p.text("", 10, colGray800, margin+panelPad+80, y+44, rf.Clinician.Registration)

	p.smallPair(margin+cw/2, y+32, "Address:", rf.Clinician.Address)
	p.smallPair(margin+cw/2, y+44, "Email:", rf.Clinician.Email)
	p.smallPair(margin+cw/2, y+56, "Contact:", rf.Clinician.Phone)

	y += 92 + 16

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// Body
	p.text("B", 11, colText, margin, y, "Letter")
	y += 16
	bodyH := p.paragraphBox(11, rf.Body, margin, y, cw, colGray100, colGray200, 14)
	y += bodyH + 18

	// Signature row
	p.strokeLine(margin, y, margin+cw, y, colGray200, 0.5)
	y += 12

	p.text("B", 11, colText, margin, y+2, "Referring Doctor's Signature")
	if !p.image("signature", r.assets.Signature, margin, y+24, 28) {
		p.text("I", 10, colGray500, margin, y+36, "(Signature)")
	}

	rx := margin + cw*0.45 + 18
	p.clinicianBlock(rx, y, rf.Clinician)

	y += 66
	p.text("I", 9, colGray500, margin, y, "Digitally signed by "+Sanitize(rf.Clinician.Name))
	y += 12
	p.text("I", 9, colGray500, margin, y,
		"Date: "+r.now().UTC().Format("2006-01-02 15:04")+" GMT")
	y += 12
	p.text("I", 9, colGray500, margin, y, "Reason: Referral")
	y += 12
	p.text("", 10, colTeal, margin, y, "Signature is valid")

	return p.output()
}

// clinicianBlock draws the clinician identity column used by both layouts.
// Blank optional fields are skipped rather than rendered as placeholders.
func (p *page) clinicianBlock(x, y float64, c ClinicianInfo) {
	p.text("B", 12, colText, x, y+2, c.Name)
	dy := y + 18
	p.text("", 10, colText, x, dy, c.Registration)
	dy += 14
	if Sanitize(c.Address) != Placeholder {
		p.text("", 10, colText, x, dy, c.Address)
		dy += 14
	}
	if Sanitize(c.Phone) != Placeholder {
		p.text("", 10, colText, x, dy, "Phone: "+c.Phone)
		dy += 14
	}
	if Sanitize(c.Email) != Placeholder {
		p.text("", 10, colText, x, dy, "E-mail: "+c.Email)
	}
}
