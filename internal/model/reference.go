package model

// Fixed reference data: the 24 provinces and 7 service categories of the
// ECU 911 network. Incident counts come from the 2023 national report and
// drive the weighted generators and the initial agent allocation.

// ReferenceIncidentTotal is the sum of all ServiceTypes counts.
const ReferenceIncidentTotal = 269066

// Personnel category ids as they appear in the personnel dataset header.
const (
	CategoryOperators       = "personal_ecu911"
	CategoryNationalPolice  = "policia_nacional"
	CategoryArmedForces     = "fuerzas_armadas"
	CategoryMedical         = "medicos_msp_iess"
	CategoryFirefighters    = "bomberos"
	CategoryTrafficPolice   = "personal_transito"
	CategoryRedCross        = "cruz_roja"
	CategoryMunicipalAgents = "agentes_municipales"
)

// PersonnelCategories lists all category ids in dataset column order.
var PersonnelCategories = []string{
	CategoryOperators,
	CategoryNationalPolice,
	CategoryArmedForces,
	CategoryMedical,
	CategoryFirefighters,
	CategoryTrafficPolice,
	CategoryRedCross,
	CategoryMunicipalAgents,
}

// ServiceTypes holds the seven canonical categories with their reference
// incident counts and dispatch priorities (1 = highest).
var ServiceTypes = []ServiceType{
	{ID: "seguridad", Name: "Seguridad Ciudadana", Count: 181765, Priority: 1},
	{ID: "transito", Name: "Tránsito y Movilidad", Count: 34780, Priority: 2},
	{ID: "sanitaria", Name: "Gestión Sanitaria", Count: 32434, Priority: 1},
	{ID: "municipal", Name: "Servicios Municipales", Count: 10541, Priority: 3},
	{ID: "siniestros", Name: "Gestión de Siniestros", Count: 4354, Priority: 1},
	{ID: "militar", Name: "Servicio Militar", Count: 4185, Priority: 2},
	{ID: "riesgos", Name: "Gestión de Riesgos", Count: 1007, Priority: 1},
}

// Provinces holds the 24 provinces with schematic map coordinates and 2022
// census populations.
var Provinces = []Province{
	{ID: "azuay", Name: "Azuay", Coord: Point{X: 38, Y: 68}, Population: 881394},
	{ID: "bolivar", Name: "Bolívar", Coord: Point{X: 28, Y: 55}, Population: 209933},
	{ID: "canar", Name: "Cañar", Coord: Point{X: 35, Y: 62}, Population: 281396},
	{ID: "carchi", Name: "Carchi", Coord: Point{X: 35, Y: 8}, Population: 186869},
	{ID: "chimborazo", Name: "Chimborazo", Coord: Point{X: 32, Y: 55}, Population: 524004},
	{ID: "cotopaxi", Name: "Cotopaxi", Coord: Point{X: 30, Y: 42}, Population: 488716},
	{ID: "el_oro", Name: "El Oro", Coord: Point{X: 28, Y: 75}, Population: 715751},
	{ID: "esmeraldas", Name: "Esmeraldas", Coord: Point{X: 22, Y: 12}, Population: 643654},
	{ID: "galapagos", Name: "Galápagos", Coord: Point{X: 5, Y: 35}, Population: 33042},
	{ID: "guayas", Name: "Guayas", Coord: Point{X: 22, Y: 62}, Population: 4387434},
	{ID: "imbabura", Name: "Imbabura", Coord: Point{X: 32, Y: 18}, Population: 476257},
	{ID: "loja", Name: "Loja", Coord: Point{X: 40, Y: 80}, Population: 521154},
	{ID: "los_rios", Name: "Los Ríos", Coord: Point{X: 22, Y: 52}, Population: 921763},
	{ID: "manabi", Name: "Manabí", Coord: Point{X: 15, Y: 42}, Population: 1562079},
	{ID: "morona_santiago", Name: "Morona Santiago", Coord: Point{X: 55, Y: 68}, Population: 196535},
	{ID: "napo", Name: "Napo", Coord: Point{X: 55, Y: 38}, Population: 133705},
	{ID: "orellana", Name: "Orellana", Coord: Point{X: 68, Y: 38}, Population: 161338},
	{ID: "pastaza", Name: "Pastaza", Coord: Point{X: 60, Y: 52}, Population: 114202},
	{ID: "pichincha", Name: "Pichincha", Coord: Point{X: 30, Y: 28}, Population: 3228233},
	{ID: "santa_elena", Name: "Santa Elena", Coord: Point{X: 12, Y: 58}, Population: 401178},
	{ID: "santo_domingo", Name: "Santo Domingo", Coord: Point{X: 24, Y: 32}, Population: 458580},
	{ID: "sucumbios", Name: "Sucumbíos", Coord: Point{X: 58, Y: 18}, Population: 230503},
	{ID: "tungurahua", Name: "Tungurahua", Coord: Point{X: 35, Y: 48}, Population: 590600},
	{ID: "zamora_chinchipe", Name: "Zamora Chinchipe", Coord: Point{X: 52, Y: 80}, Population: 120416},
}

// ProvinceByID returns the province with the given id and whether it exists.
func ProvinceByID(id string) (Province, bool) {
	for _, p := range Provinces {
		if p.ID == id {
			return p, true
		}
	}
	return Province{}, false
}

// ProvinceName returns the display name for an id, or the id itself when the
// province is unknown.
func ProvinceName(id string) string {
	if p, ok := ProvinceByID(id); ok {
		return p.Name
	}
	return id
}

// ServiceTypeByID returns the service type with the given id and whether it
// exists.
func ServiceTypeByID(id string) (ServiceType, bool) {
	for _, s := range ServiceTypes {
		if s.ID == id {
			return s, true
		}
	}
	return ServiceType{}, false
}

// ServiceTypeByName maps a dataset display name ("Gestión Sanitaria") to the
// service id. Unknown names fall back to seguridad, the dominant category.
func ServiceTypeByName(name string) string {
	for _, s := range ServiceTypes {
		if s.Name == name {
			return s.ID
		}
	}
	return "seguridad"
}

// ServicePriority returns the dispatch priority for a service id, defaulting
// to 2 for unknown ids.
func ServicePriority(id string) int {
	if s, ok := ServiceTypeByID(id); ok {
		return s.Priority
	}
	return 2
}

// Subtypes is the per-service vocabulary used when synthesizing emergencies
// without a loaded incident dataset.
var Subtypes = map[string][]string{
	"seguridad":  {"Robo", "Asalto", "Violencia Doméstica", "Alteración del Orden", "Sospechoso"},
	"transito":   {"Accidente", "Vehículo Averiado", "Congestión", "Señalización", "Control"},
	"sanitaria":  {"Emergencia Médica", "Traslado", "Parto", "Intoxicación", "Heridas"},
	"municipal":  {"Alumbrado", "Alcantarillado", "Basura", "Vías", "Permisos"},
	"siniestros": {"Incendio Estructural", "Incendio Forestal", "Rescate", "Materiales Peligrosos"},
	"militar":    {"Apoyo Operativo", "Control", "Seguridad", "Patrullaje"},
	"riesgos":    {"Inundación", "Deslizamiento", "Sismo", "Evacuación", "Alerta"},
}
