package dataset

import (
	"strconv"
	"strings"

	"ecusim/internal/model"
)

// PersonnelDataset is the parsed personnel-by-province dataset plus the
// derived national aggregates. Read-only once built.
type PersonnelDataset struct {
	provinces []model.PersonnelByProvince
	byID      map[string]model.PersonnelByProvince
	totals    map[string]int
}

// ServiceCategories maps each service type to the personnel categories that
// can staff it. Call-center operators can staff any service.
var ServiceCategories = map[string][]string{
	"seguridad":  {model.CategoryNationalPolice, model.CategoryArmedForces, model.CategoryOperators},
	"transito":   {model.CategoryTrafficPolice, model.CategoryNationalPolice, model.CategoryOperators},
	"sanitaria":  {model.CategoryMedical, model.CategoryRedCross, model.CategoryOperators},
	"municipal":  {model.CategoryMunicipalAgents, model.CategoryOperators},
	"siniestros": {model.CategoryFirefighters, model.CategoryOperators},
	"militar":    {model.CategoryArmedForces, model.CategoryOperators},
	"riesgos":    {model.CategoryFirefighters, model.CategoryArmedForces, model.CategoryOperators},
}

// ParsePersonnel reads the delimited personnel dataset. The first line is a
// header. Parsing stops at trailer rows; rows with too few fields are
// skipped and missing counts default to zero, so a partial dataset still
// loads.
func ParsePersonnel(raw string) *PersonnelDataset {
	ds := &PersonnelDataset{byID: map[string]model.PersonnelByProvince{}, totals: map[string]int{}}
	lines := strings.Split(raw, "\n")
	for i, line := range lines {
		line = strings.TrimSpace(line)
		if i == 0 || line == "" {
			continue
		}
		if isTrailerRow(line) {
			break
		}
		fields := splitLine(line)
		if len(fields) < 10 {
			continue
		}
		p := model.PersonnelByProvince{
			Province:        NormalizeProvince(fields[0]),
			Operators:       atoi(fields[1]),
			NationalPolice:  atoi(fields[2]),
			ArmedForces:     atoi(fields[3]),
			Medical:         atoi(fields[4]),
			Firefighters:    atoi(fields[5]),
			TrafficPolice:   atoi(fields[6]),
			RedCross:        atoi(fields[7]),
			MunicipalAgents: atoi(fields[8]),
			Total:           atoi(fields[9]),
		}
		if len(fields) > 10 {
			p.Notes = fields[10]
		}
		ds.provinces = append(ds.provinces, p)
		ds.byID[p.Province] = p
	}
	ds.computeTotals()
	return ds
}

func atoi(s string) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0
	}
	return n
}

func (d *PersonnelDataset) computeTotals() {
	for _, p := range d.provinces {
		for _, cat := range model.PersonnelCategories {
			d.totals[cat] += p.Category(cat)
		}
	}
}

// ByProvince returns the record for a province id and whether it exists.
func (d *PersonnelDataset) ByProvince(id string) (model.PersonnelByProvince, bool) {
	p, ok := d.byID[id]
	return p, ok
}

// All returns a copy of every parsed province record.
func (d *PersonnelDataset) All() []model.PersonnelByProvince {
	return append([]model.PersonnelByProvince(nil), d.provinces...)
}

// NationalTotals returns the column-wise sums across all provinces.
func (d *PersonnelDataset) NationalTotals() map[string]int {
	out := make(map[string]int, len(d.totals))
	for k, v := range d.totals {
		out[k] = v
	}
	return out
}

// TotalForProvince returns the precomputed total headcount for a province,
// zero when the province is absent.
func (d *PersonnelDataset) TotalForProvince(id string) int {
	return d.byID[id].Total
}

// CapacityForService sums the categories able to staff the given service in
// the given province. Unknown services count operators only.
func (d *PersonnelDataset) CapacityForService(provinceID, serviceType string) int {
	p, ok := d.byID[provinceID]
	if !ok {
		return 0
	}
	cats, ok := ServiceCategories[serviceType]
	if !ok {
		cats = []string{model.CategoryOperators}
	}
	total := 0
	for _, c := range cats {
		total += p.Category(c)
	}
	return total
}

// DistributionShare returns each province's share of the national headcount
// as a percentage.
func (d *PersonnelDataset) DistributionShare() map[string]float64 {
	total := 0
	for _, p := range d.provinces {
		total += p.Total
	}
	out := make(map[string]float64, len(d.provinces))
	if total == 0 {
		return out
	}
	for _, p := range d.provinces {
		out[p.Province] = float64(p.Total) / float64(total) * 100
	}
	return out
}

// Density returns personnel per 100k inhabitants for a province.
func (d *PersonnelDataset) Density(provinceID string, population int) float64 {
	if population <= 0 {
		return 0
	}
	return float64(d.byID[provinceID].Total) / float64(population) * 100000
}
