package dataset

import (
	"testing"

	"ecusim/internal/model"
)

const personnelCSV = `PROVINCIA,OPERADORES,POLICIA NACIONAL,FFAA,SALUD,BOMBEROS,CTE/AMT,CRUZ ROJA,AGENTES MUNICIPALES,TOTAL,OBSERVACIONES
GUAYAS,120,900,200,300,150,80,40,60,1850,"sede regional, turno 24/7"
PICHINCHA,100,850,180,280,140,75,35,55,1715,
SANTO DOMINGO DE LOS TSÁCHILAS,20,150,30,60,25,15,5,10,315,
BOLIVAR,10,80
TOTAL NACIONAL,250,1900,410,640,315,170,80,125,3880,
AZUAY,40,300,60,100,50,30,15,20,615,
`

func TestParsePersonnel(t *testing.T) {
	ds := ParsePersonnel(personnelCSV)
	all := ds.All()
	if len(all) != 3 {
		t.Fatalf("parsed %d provinces, want 3 (short row skipped, trailer stops parsing)", len(all))
	}

	g, ok := ds.ByProvince("guayas")
	if !ok {
		t.Fatal("guayas missing")
	}
	if g.Operators != 120 || g.NationalPolice != 900 || g.Total != 1850 {
		t.Fatalf("bad guayas record: %+v", g)
	}
	if g.Notes != "sede regional, turno 24/7" {
		t.Fatalf("quoted notes field mangled: %q", g.Notes)
	}

	// accented header name folds to the canonical id
	if _, ok := ds.ByProvince("santo_domingo"); !ok {
		t.Fatalf("santo domingo not normalized; have %+v", all)
	}

	// azuay is after the trailer and must not load
	if _, ok := ds.ByProvince("azuay"); ok {
		t.Fatal("rows after the trailer must be ignored")
	}
}

func TestNationalTotals(t *testing.T) {
	ds := ParsePersonnel(personnelCSV)
	totals := ds.NationalTotals()
	if totals[model.CategoryOperators] != 240 {
		t.Fatalf("operators total = %d, want 240", totals[model.CategoryOperators])
	}
	if totals[model.CategoryNationalPolice] != 1900 {
		t.Fatalf("police total = %d, want 1900", totals[model.CategoryNationalPolice])
	}
}

func TestCapacityForService(t *testing.T) {
	ds := ParsePersonnel(personnelCSV)
	// seguridad: national police + armed forces + operators
	if got := ds.CapacityForService("guayas", "seguridad"); got != 900+200+120 {
		t.Fatalf("seguridad capacity = %d", got)
	}
	// unknown service falls back to operators only
	if got := ds.CapacityForService("guayas", "desconocido"); got != 120 {
		t.Fatalf("fallback capacity = %d", got)
	}
	if got := ds.CapacityForService("nonexistent", "seguridad"); got != 0 {
		t.Fatalf("missing province capacity = %d", got)
	}
}

func TestDistributionShareAndDensity(t *testing.T) {
	ds := ParsePersonnel(personnelCSV)
	shares := ds.DistributionShare()
	sum := 0.0
	for _, v := range shares {
		sum += v
	}
	if sum < 99.9 || sum > 100.1 {
		t.Fatalf("shares sum to %.2f, want ~100", sum)
	}
	if d := ds.Density("guayas", 4387434); d <= 0 {
		t.Fatalf("density = %v", d)
	}
	if d := ds.Density("guayas", 0); d != 0 {
		t.Fatalf("zero population density = %v", d)
	}
}

func TestNormalizeProvince(t *testing.T) {
	cases := map[string]string{
		"GUAYAS":                         "guayas",
		"Manabí":                         "manabi",
		"SANTO DOMINGO DE LOS TSÁCHILAS": "santo_domingo",
		"Bolívar":                        "bolivar",
		"  Los Ríos ":                    "los_rios",
	}
	for in, want := range cases {
		if got := NormalizeProvince(in); got != want {
			t.Errorf("NormalizeProvince(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestParseIncidents(t *testing.T) {
	raw := `fecha,provincia,canton,cod_parroquia,parroquia,tipo_servicio,subtipo,dia_semana,dia_mes,mes,año
2024-03-15,GUAYAS,GUAYAQUIL,0901,TARQUI,Seguridad Ciudadana,Robo,VIERNES,15,3,2024
2024-03-16,PICHINCHA,QUITO,1701,CENTRO,Gestión Sanitaria,Emergencia Médica,SABADO,16,3,2024
malformed,row
2024-03-17,AZUAY,CUENCA,0101,EL SAGRARIO,Tránsito y Movilidad,Accidente,DOMINGO,17,14,2024
`
	rows := ParseIncidents(raw)
	if len(rows) != 2 {
		t.Fatalf("parsed %d rows, want 2 (short row and month 14 skipped)", len(rows))
	}
	r := rows[0]
	if r.Province != "guayas" || r.Month != 3 || r.Year != 2024 {
		t.Fatalf("bad row: %+v", r)
	}
	if r.ServiceType != "seguridad" {
		t.Fatalf("service name not mapped: %q", r.ServiceType)
	}
	if rows[1].ServiceType != "sanitaria" {
		t.Fatalf("service name not mapped: %q", rows[1].ServiceType)
	}
}
