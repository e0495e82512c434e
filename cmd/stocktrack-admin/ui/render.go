package ui

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/redmonkez12/stocktrack-api/internal/audit"
	"github.com/redmonkez12/stocktrack-api/internal/product"
)

func newTable(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(subtleStyle).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		}).
		Headers(headers...)
}

// RenderLogs formats audit entries as a table, newest first as received.
func RenderLogs(entries []audit.Entry) string {
	if len(entries) == 0 {
		return subtleStyle.Render("no log entries")
	}

	t := newTable("ID", "WHEN", "USER", "ACTION", "ENTITY", "PAYLOAD")
	for _, e := range entries {
		who := "-"
		if e.User != nil {
			who = e.User.Email
		}
		entity := "-"
		if e.Entity != nil {
			entity = *e.Entity
			if e.EntityID != nil {
				entity += "#" + strconv.FormatInt(*e.EntityID, 10)
			}
		}
		payload := "-"
		if e.Payload != nil {
			if b, err := json.Marshal(e.Payload); err == nil {
				payload = string(b)
			}
		}
		t.Row(strconv.FormatInt(e.ID, 10), e.CreatedAt.Local().Format(time.DateTime), who, e.Action, entity, payload)
	}
	return t.Render()
}

// RenderProducts formats products as a table.
func RenderProducts(products []product.Product) string {
	if len(products) == 0 {
		return subtleStyle.Render("no products")
	}

	t := newTable("ID", "SKU", "NAME", "PRICE", "STOCK", "IMAGE")
	for _, p := range products {
		image := "-"
		if p.ImageURL != nil {
			image = *p.ImageURL
		}
		t.Row(
			strconv.FormatInt(p.ID, 10),
			p.SKU,
			p.Name,
			strconv.FormatFloat(p.Price, 'f', 2, 64),
			strconv.Itoa(p.Stock),
			image,
		)
	}
	return t.Render()
}

// PrintSuccess prints a success line.
func PrintSuccess(w io.Writer, msg string) {
	fmt.Fprintln(w, successStyle.Render(msg))
}

// PrintError prints an error message.
func PrintError(w io.Writer, msg string) {
	fmt.Fprintln(w, errorStyle.Render("Error: "+msg))
}
