package handlers

import (
	"fmt"
	"io"
	"time"

	"lead-crm/internal/models"
	"lead-crm/internal/util"

	"github.com/xuri/excelize/v2"
)

const (
	xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	leadsSheet      = "Leads"
)

var leadsHeader = []interface{}{
	"Nome", "Telefone", "E-mail", "Curso", "Origem", "Status", "Responsável", "Criado em", "Último contato",
}

func writeLeadsXLSX(w io.Writer, leads []*models.LeadListItem, loc *time.Location) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", leadsSheet); err != nil {
		return err
	}
	if err := f.SetSheetRow(leadsSheet, "A1", &leadsHeader); err != nil {
		return err
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(leadsSheet, "A1", "I1", bold); err != nil {
		return err
	}
	if err := f.SetColWidth(leadsSheet, "A", "I", 22); err != nil {
		return err
	}

	for i, l := range leads {
		lastContact := ""
		if l.LastContactAt.Valid {
			lastContact = util.FormatDateTimeBR(l.LastContactAt.Time.In(loc))
		}
		row := []interface{}{
			l.Name,
			l.Phone.String,
			l.Email.String,
			l.CourseName.String,
			l.OriginName.String,
			models.GetStatusDisplayInfo(l.Status).DisplayName,
			l.OwnerName.String,
			util.FormatDateTimeBR(l.CreatedAt.In(loc)),
			lastContact,
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(leadsSheet, cell, &row); err != nil {
			return fmt.Errorf("failed to write row %d: %w", i+2, err)
		}
	}

	return f.Write(w)
}
