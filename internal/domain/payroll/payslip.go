package payroll

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/jung-kurt/gofpdf"
)

// BuildPayslipPDF renders one employee's payslip for a run.
func BuildPayslipPDF(period Period, result RunEmployee) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle("Payslip", false)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 16)
	pdf.Cell(0, 10, "Payslip")
	pdf.Ln(12)

	pdf.SetFont("Helvetica", "", 10)
	pdf.Cell(0, 6, fmt.Sprintf("Employee: %s", result.EmployeeName))
	pdf.Ln(6)
	pdf.Cell(0, 6, fmt.Sprintf("Pay period: %s to %s",
		period.PeriodStart.Format("2006-01-02"), period.PeriodEnd.Format("2006-01-02")))
	pdf.Ln(6)
	pdf.Cell(0, 6, fmt.Sprintf("Pay date: %s", period.PayDate.Format("2006-01-02")))
	pdf.Ln(10)

	payslipSection(pdf, "Earnings")
	for _, earning := range result.Earnings {
		label := titleCase(earning.Type)
		if earning.Hours > 0 {
			label = fmt.Sprintf("%s (%.2f hrs @ %.2f)", label, earning.Hours, earning.Rate)
		}
		payslipRow(pdf, label, earning.Amount)
	}
	payslipTotal(pdf, "Gross pay", result.GrossPay)

	payslipSection(pdf, "Taxes withheld")
	for _, tax := range result.Taxes {
		if tax.EmployerPaid {
			continue
		}
		payslipRow(pdf, titleCase(tax.Type), tax.Amount)
	}
	payslipTotal(pdf, "Total taxes", result.EmployeeTax)

	if len(result.DeductionLns) > 0 {
		payslipSection(pdf, "Deductions")
		for _, line := range result.DeductionLns {
			payslipRow(pdf, titleCase(line.DeductionType), line.Amount)
		}
		payslipTotal(pdf, "Total deductions", result.Deductions)
	}

	pdf.Ln(4)
	pdf.SetFont("Helvetica", "B", 12)
	pdf.CellFormat(130, 8, "Net pay", "T", 0, "L", false, 0, "")
	pdf.CellFormat(40, 8, fmt.Sprintf("%.2f", result.NetPay), "T", 0, "R", false, 0, "")
	pdf.Ln(8)

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func payslipSection(pdf *gofpdf.Fpdf, title string) {
	pdf.Ln(2)
	pdf.SetFont("Helvetica", "B", 11)
	pdf.Cell(0, 7, title)
	pdf.Ln(7)
	pdf.SetFont("Helvetica", "", 10)
}

func payslipRow(pdf *gofpdf.Fpdf, label string, amount float64) {
	pdf.CellFormat(130, 6, label, "", 0, "L", false, 0, "")
	pdf.CellFormat(40, 6, fmt.Sprintf("%.2f", amount), "", 0, "R", false, 0, "")
	pdf.Ln(6)
}

func payslipTotal(pdf *gofpdf.Fpdf, label string, amount float64) {
	pdf.SetFont("Helvetica", "B", 10)
	payslipRow(pdf, label, amount)
	pdf.SetFont("Helvetica", "", 10)
}

func titleCase(code string) string {
	words := strings.Split(strings.ReplaceAll(code, "_", " "), " ")
	for i, word := range words {
		if word == "" {
			continue
		}
		words[i] = strings.ToUpper(word[:1]) + word[1:]
	}
	return strings.Join(words, " ")
}
