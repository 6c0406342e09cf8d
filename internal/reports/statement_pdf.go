package reports

import (
	"bytes"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/phpdave11/gofpdf"

	"github.com/Dhyan-17/Finance-Tracker/internal/money"
)

type Handler struct {
	Pool *pgxpool.Pool
}

func NewHandler(pool *pgxpool.Pool) *Handler {
	return &Handler{Pool: pool}
}

// StatementPDF renders the user's ledger for a date range as a PDF. Defaults
// to the last 30 days.
func (h *Handler) StatementPDF(c *fiber.Ctx) error {
	uidVal := c.Locals("user_id")
	userUID, _ := uidVal.(string)
	userUID = strings.TrimSpace(userUID)
	if userUID == "" {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	from := strings.TrimSpace(c.Query("from"))
	to := strings.TrimSpace(c.Query("to"))
	if from == "" || to == "" {
		end := time.Now()
		start := end.AddDate(0, 0, -29)
		from = start.Format("2006-01-02")
		to = end.Format("2006-01-02")
	}
	if _, err := time.Parse("2006-01-02", from); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "from must be YYYY-MM-DD")
	}
	if _, err := time.Parse("2006-01-02", to); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "to must be YYYY-MM-DD")
	}

	ctx := c.UserContext()
	rows, err := h.Pool.Query(ctx, `
		SELECT t.kind, t.public_id::text, COALESCE(t.category, ''), COALESCE(t.note, ''),
		       t.amount, t.balance_after, a.name, t.created_at::date::text
		FROM transactions t
		JOIN accounts a ON a.id = t.account_id
		JOIN users u ON u.id = t.user_id
		WHERE u.public_id = $1::uuid
		  AND t.created_at::date BETWEEN $2::date AND $3::date
		ORDER BY t.created_at DESC, t.id DESC
		LIMIT 2000`, userUID, from, to)
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "failed to load statement")
	}
	defer rows.Close()

	type row struct {
		Kind         string
		ID           string
		Category     string
		Note         string
		Amount       int64
		BalanceAfter int64
		Account      string
		Date         string
	}

	var items []row
	var totalIn, totalOut int64
	for rows.Next() {
		var r row
		if err := rows.Scan(&r.Kind, &r.ID, &r.Category, &r.Note, &r.Amount, &r.BalanceAfter, &r.Account, &r.Date); err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "failed to load statement")
		}
		if r.Amount > 0 {
			totalIn += r.Amount
		} else {
			totalOut += -r.Amount
		}
		items = append(items, r)
	}
	if err := rows.Err(); err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "failed to load statement")
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(14, 14, 14)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 48)
	pdf.SetTextColor(235, 235, 235)
	pdf.Text(25, 140, "FINTRACK")

	pdf.SetTextColor(20, 20, 20)
	pdf.SetFont("Helvetica", "B", 18)
	pdf.Cell(0, 10, "FinTrack Statement")
	pdf.Ln(8)

	pdf.SetFont("Helvetica", "", 10)
	pdf.SetTextColor(80, 80, 80)
	pdf.Cell(0, 6, "Period: "+from+" to "+to)
	pdf.Ln(5)
	pdf.Cell(0, 6, "User: "+maskID(userUID))
	pdf.Ln(10)

	pdf.SetDrawColor(200, 200, 200)
	pdf.SetFillColor(248, 248, 248)
	pdf.SetTextColor(20, 20, 20)
	pdf.SetFont("Helvetica", "B", 11)

	sumW := []float64{62, 62, 62}
	pdf.CellFormat(sumW[0], 10, "Money In (INR)", "1", 0, "C", true, 0, "")
	pdf.CellFormat(sumW[1], 10, "Money Out (INR)", "1", 0, "C", true, 0, "")
	pdf.CellFormat(sumW[2], 10, "Net (INR)", "1", 1, "C", true, 0, "")

	pdf.SetFont("Helvetica", "", 11)
	pdf.CellFormat(sumW[0], 10, money.PaiseToRupeesString(totalIn), "1", 0, "C", false, 0, "")
	pdf.CellFormat(sumW[1], 10, money.PaiseToRupeesString(totalOut), "1", 0, "C", false, 0, "")
	pdf.CellFormat(sumW[2], 10, money.PaiseToRupeesString(totalIn-totalOut), "1", 1, "C", false, 0, "")
	pdf.Ln(6)

	header := func() {
		pdf.SetFont("Helvetica", "B", 10)
		pdf.SetFillColor(245, 245, 245)
		pdf.SetTextColor(20, 20, 20)
		colW := []float64{28, 22, 60, 30, 26, 24}
		pdf.CellFormat(colW[0], 8, "KIND", "1", 0, "C", true, 0, "")
		pdf.CellFormat(colW[1], 8, "DATE", "1", 0, "C", true, 0, "")
		pdf.CellFormat(colW[2], 8, "DETAILS", "1", 0, "L", true, 0, "")
		pdf.CellFormat(colW[3], 8, "AMOUNT", "1", 0, "R", true, 0, "")
		pdf.CellFormat(colW[4], 8, "BALANCE", "1", 0, "R", true, 0, "")
		pdf.CellFormat(colW[5], 8, "ID", "1", 1, "C", true, 0, "")
		pdf.SetFont("Helvetica", "", 9)
		pdf.SetTextColor(30, 30, 30)
	}
	header()

	colW := []float64{28, 22, 60, 30, 26, 24}
	maxRows := 200
	for i, it := range items {
		if i >= maxRows {
			pdf.SetFont("Helvetica", "I", 9)
			pdf.CellFormat(0, 8, "truncated: too many rows for one statement", "1", 1, "C", false, 0, "")
			break
		}
		if pdf.GetY() > 270 {
			pdf.AddPage()
			header()
		}

		details := it.Account
		if it.Category != "" {
			details += " / " + it.Category
		}
		if it.Note != "" {
			details += " - " + it.Note
		}

		pdf.CellFormat(colW[0], 8, it.Kind, "1", 0, "C", false, 0, "")
		pdf.CellFormat(colW[1], 8, it.Date, "1", 0, "C", false, 0, "")
		pdf.CellFormat(colW[2], 8, trimTo(details, 52), "1", 0, "L", false, 0, "")
		pdf.CellFormat(colW[3], 8, signedAmount(it.Amount), "1", 0, "R", false, 0, "")
		pdf.CellFormat(colW[4], 8, money.PaiseToRupeesString(it.BalanceAfter), "1", 0, "R", false, 0, "")
		pdf.CellFormat(colW[5], 8, shortID(it.ID), "1", 1, "C", false, 0, "")
	}

	pdf.SetY(-18)
	pdf.SetFont("Helvetica", "", 9)
	pdf.SetTextColor(120, 120, 120)
	pdf.CellFormat(0, 10, "Generated by FinTrack "+time.Now().Format(time.RFC3339), "", 0, "C", false, 0, "")

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "pdf build failed")
	}

	filename := "fintrack-statement-" + from + "-to-" + to + ".pdf"
	c.Set("Content-Type", "application/pdf")
	c.Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	return c.Send(buf.Bytes())
}

func signedAmount(n int64) string {
	if n < 0 {
		return "-" + money.PaiseToRupeesString(-n)
	}
	return "+" + money.PaiseToRupeesString(n)
}

func shortID(id string) string {
	id = strings.TrimSpace(id)
	if len(id) <= 8 {
		return id
	}
	return id[:8]
}

func maskID(id string) string {
	id = strings.TrimSpace(id)
	if len(id) <= 8 {
		return id
	}
	return id[:4] + "..." + id[len(id)-4:]
}

func trimTo(s string, max int) string {
	s = strings.TrimSpace(s)
	if len(s) <= max {
		return s
	}
	return s[:max-1] + "~"
}
