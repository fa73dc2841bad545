// -----------------------------------------------------------------------
// Static reference data: federally regulated industries, known federal
// employers, and the per-jurisdiction portal directory. Loaded once and
// never mutated.
// -----------------------------------------------------------------------

package jurisdiction

import (
	"strings"

	"github.com/prolabora/concilia/internal/models"
)

// FederalIndustry is one Art. 527 industry branch with the keywords that
// detect it in free-text employer/industry descriptions
type FederalIndustry struct {
	Name     string
	Keywords []string
}

// federalIndustries lists the industry branches under exclusive federal
// labor jurisdiction (Art. 527 LFT)
var federalIndustries = []FederalIndustry{
	{"Textil", []string{"textil", "hilado", "tejido"}},
	{"Eléctrica", []string{"electrica", "electricidad", "energia electrica"}},
	{"Cinematográfica", []string{"cinematografica", "cine", "filmacion"}},
	{"Hulera", []string{"hulera", "hule", "llantas", "neumaticos"}},
	{"Azucarera", []string{"azucarera", "azucar", "ingenio"}},
	{"Minera", []string{"minera", "mineria", "mina", "extraccion de minerales"}},
	{"Metalúrgica y siderúrgica", []string{"metalurgica", "siderurgica", "acero", "fundicion"}},
	{"Hidrocarburos", []string{"hidrocarburos", "petroleo", "petrolera", "gas natural", "refineria"}},
	{"Petroquímica", []string{"petroquimica"}},
	{"Cementera", []string{"cementera", "cemento"}},
	{"Calera", []string{"calera", "cal "}},
	{"Automotriz", []string{"automotriz", "autopartes", "ensamble de vehiculos"}},
	{"Química y farmacéutica", []string{"quimica", "farmaceutica", "medicamentos"}},
	{"Celulosa y papel", []string{"celulosa", "papelera", "papel"}},
	{"Aceites y grasas vegetales", []string{"aceites vegetales", "grasas vegetales"}},
	{"Alimenticia empacadora", []string{"empacadora", "enlatados", "alimentos empacados"}},
	{"Bebidas envasadas", []string{"bebidas envasadas", "embotelladora", "refresquera", "cervecera"}},
	{"Ferrocarrilera", []string{"ferrocarril", "ferrocarrilera", "ferroviaria"}},
	{"Maderera básica", []string{"maderera", "aserradero", "triplay"}},
	{"Vidriera", []string{"vidriera", "vidrio plano", "envases de vidrio"}},
	{"Tabacalera", []string{"tabacalera", "tabaco", "cigarros"}},
	{"Banca y crédito", []string{"banco", "banca", "credito", "financiera", "casa de bolsa"}},
	{"Aviación", []string{"aviacion", "aerolinea", "aeronautica", "transporte aereo"}},
	{"Telecomunicaciones", []string{"telecomunicaciones", "telefonia", "radiodifusion"}},
}

// federalEmployers lists employers that are federal by identity regardless
// of the stated industry
var federalEmployers = []string{
	"petroleos mexicanos",
	"pemex",
	"comision federal de electricidad",
	"cfe",
	"instituto mexicano del seguro social",
	"imss",
	"issste",
	"banco de mexico",
	"nacional financiera",
	"ferromex",
	"ferrocarril del istmo",
	"aeromexico",
	"telmex",
	"telefonos de mexico",
}

// federalPortal is the single filing portal for federal jurisdiction
var federalPortal = models.PortalInfo{
	Jurisdiction: models.JurisdictionFederal,
	Authority:    "Centro Federal de Conciliación y Registro Laboral",
	URL:          "https://conciliacion.centrolaboral.gob.mx",
	Address:      "Av. Insurgentes Sur 1940, Col. Florida, Álvaro Obregón, CDMX",
	Phone:        "800 717 2942",
	AuthScheme:   "curp",
}

// statePortals maps each state (lowercase, unaccented) to its local
// conciliation center portal. Unmapped states are an error at resolve
// time, never a silent federal default.
var statePortals = map[string]models.PortalInfo{
	"aguascalientes":      statePortal("Aguascalientes", "https://conciliacion.aguascalientes.gob.mx"),
	"baja california":     statePortal("Baja California", "https://conciliacionlaboral.bajacalifornia.gob.mx"),
	"baja california sur": statePortal("Baja California Sur", "https://conciliacion.bcs.gob.mx"),
	"campeche":            statePortal("Campeche", "https://conciliacion.campeche.gob.mx"),
	"chiapas":             statePortal("Chiapas", "https://conciliacion.chiapas.gob.mx"),
	"chihuahua":           statePortal("Chihuahua", "https://conciliacion.chihuahua.gob.mx"),
	"ciudad de mexico":    statePortal("Ciudad de México", "https://conciliacion.cdmx.gob.mx"),
	"coahuila":            statePortal("Coahuila", "https://conciliacion.coahuila.gob.mx"),
	"colima":              statePortal("Colima", "https://conciliacion.col.gob.mx"),
	"durango":             statePortal("Durango", "https://conciliacion.durango.gob.mx"),
	"estado de mexico":    statePortal("Estado de México", "https://conciliacion.edomex.gob.mx"),
	"guanajuato":          statePortal("Guanajuato", "https://conciliacion.guanajuato.gob.mx"),
	"guerrero":            statePortal("Guerrero", "https://conciliacion.guerrero.gob.mx"),
	"hidalgo":             statePortal("Hidalgo", "https://conciliacion.hidalgo.gob.mx"),
	"jalisco":             statePortal("Jalisco", "https://conciliacion.jalisco.gob.mx"),
	"michoacan":           statePortal("Michoacán", "https://conciliacion.michoacan.gob.mx"),
	"morelos":             statePortal("Morelos", "https://conciliacion.morelos.gob.mx"),
	"nayarit":             statePortal("Nayarit", "https://conciliacion.nayarit.gob.mx"),
	"nuevo leon":          statePortal("Nuevo León", "https://conciliacion.nl.gob.mx"),
	"oaxaca":              statePortal("Oaxaca", "https://conciliacion.oaxaca.gob.mx"),
	"puebla":              statePortal("Puebla", "https://conciliacion.puebla.gob.mx"),
	"queretaro":           statePortal("Querétaro", "https://conciliacion.queretaro.gob.mx"),
	"quintana roo":        statePortal("Quintana Roo", "https://conciliacion.qroo.gob.mx"),
	"san luis potosi":     statePortal("San Luis Potosí", "https://conciliacion.slp.gob.mx"),
	"sinaloa":             statePortal("Sinaloa", "https://conciliacion.sinaloa.gob.mx"),
	"sonora":              statePortal("Sonora", "https://conciliacion.sonora.gob.mx"),
	"tabasco":             statePortal("Tabasco", "https://conciliacion.tabasco.gob.mx"),
	"tamaulipas":          statePortal("Tamaulipas", "https://conciliacion.tamaulipas.gob.mx"),
	"tlaxcala":            statePortal("Tlaxcala", "https://conciliacion.tlaxcala.gob.mx"),
	"veracruz":            statePortal("Veracruz", "https://conciliacion.veracruz.gob.mx"),
	"yucatan":             statePortal("Yucatán", "https://conciliacion.yucatan.gob.mx"),
	"zacatecas":           statePortal("Zacatecas", "https://conciliacion.zacatecas.gob.mx"),
}

func statePortal(name, url string) models.PortalInfo {
	return models.PortalInfo{
		Jurisdiction: models.JurisdictionLocal,
		State:        name,
		Authority:    "Centro de Conciliación Laboral del Estado de " + name,
		URL:          url,
		AuthScheme:   "curp",
	}
}

// normalize lowercases and strips accents so lookups tolerate both
// "Michoacán" and "michoacan"
func normalize(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	replacer := strings.NewReplacer(
		"á", "a", "é", "e", "í", "i", "ó", "o", "ú", "u", "ü", "u", "ñ", "n",
	)
	return replacer.Replace(s)
}
