package dataset

import (
	"strings"

	"ecusim/internal/model"
)

// ParseIncidents reads the optional historical incident dataset. Column
// order: fecha, provincia, canton, cod_parroquia, parroquia, tipo_servicio,
// subtipo, dia_semana, dia_mes, mes, año. Short or unparseable rows are
// skipped, never fatal.
func ParseIncidents(raw string) []model.IncidentRecord {
	var out []model.IncidentRecord
	lines := strings.Split(raw, "\n")
	for i, line := range lines {
		line = strings.TrimSpace(line)
		if i == 0 || line == "" {
			continue
		}
		fields := splitLine(line)
		if len(fields) < 11 {
			continue
		}
		rec := model.IncidentRecord{
			Date:        fields[0],
			Province:    NormalizeProvince(fields[1]),
			Canton:      fields[2],
			ParishCode:  fields[3],
			Parish:      fields[4],
			ServiceType: model.ServiceTypeByName(fields[5]),
			Subtype:     fields[6],
			DayOfWeek:   fields[7],
			DayOfMonth:  atoi(fields[8]),
			Month:       atoi(fields[9]),
			Year:        atoi(fields[10]),
		}
		if rec.Month < 1 || rec.Month > 12 {
			continue
		}
		out = append(out, rec)
	}
	return out
}
