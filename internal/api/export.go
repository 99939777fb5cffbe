package api

import (
	"database/sql"
	"encoding/csv"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// exportDateFormat is the French day-first format used in exported files.
const exportDateFormat = "02/01/2006 15:04"

// writeCSV streams rows as an attachment. encoding/csv applies RFC 4180
// quoting, so comma-containing fields survive a round trip through any
// spreadsheet tool.
func (s *Server) writeCSV(w http.ResponseWriter, r *http.Request, filename string, header []string, rows [][]string) {
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	w.WriteHeader(http.StatusOK)

	writer := csv.NewWriter(w)
	writer.Write(header)
	for _, row := range rows {
		writer.Write(row)
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		// Headers are already sent; all we can do is log.
		s.log.Error("csv export failed", zap.String("path", r.URL.Path), zap.Error(err))
	}
}

// handleExportEvents exports the full event log.
func (s *Server) handleExportEvents(w http.ResponseWriter, r *http.Request) {
	events, err := s.db.GetAllEvents(s.db.DB())
	if err != nil {
		s.serverError(w, r, err)
		return
	}

	rows := make([][]string, 0, len(events))
	for _, e := range events {
		rows = append(rows, []string{
			e.Type,
			nullOrEmpty(e.Source),
			e.Device,
			e.Browser,
			nullOrEmpty(e.Country),
			nullOrEmpty(e.SessionID),
			e.Metadata,
			e.CreatedAt.Local().Format(exportDateFormat),
		})
	}

	filename := "evenements_" + time.Now().Format("2006-01-02") + ".csv"
	s.writeCSV(w, r, filename,
		[]string{"Type", "Source", "Appareil", "Navigateur", "Pays", "Session", "Métadonnées", "Date"},
		rows,
	)
}

// handleExportLeads exports the captured leads.
func (s *Server) handleExportLeads(w http.ResponseWriter, r *http.Request) {
	leads, err := s.db.GetLeads(s.db.DB())
	if err != nil {
		s.serverError(w, r, err)
		return
	}

	rows := make([][]string, 0, len(leads))
	for _, l := range leads {
		rows = append(rows, []string{
			l.Email,
			nullOrEmpty(l.Phone),
			nullOrEmpty(l.PromoCode),
			nullOrEmpty(l.Source),
			nullOrEmpty(l.Device),
			nullOrEmpty(l.Browser),
			nullOrEmpty(l.Country),
			l.Status,
			l.CreatedAt.Local().Format(exportDateFormat),
		})
	}

	filename := "utilisateurs_" + time.Now().Format("2006-01-02") + ".csv"
	s.writeCSV(w, r, filename,
		[]string{"Email", "Téléphone", "Code promo", "Source", "Appareil", "Navigateur", "Pays", "Statut", "Date"},
		rows,
	)
}

func nullOrEmpty(ns sql.NullString) string {
	if !ns.Valid {
		return ""
	}
	return ns.String
}
