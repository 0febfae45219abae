package abrazadera

// Attribute names produced by the parser. They match the definitions the
// abrazadera importer keeps on its category.
const (
	AttrManufacture = "tipo_fabricacion"
	AttrSize        = "medida_pulgadas"
	AttrMaterial    = "material"
	AttrWidth       = "ancho"
	AttrLength      = "largo"
	AttrShape       = "forma"
)

// synonyms maps a canonical value to the spellings that identify it.
type synonyms struct {
	value    string
	keywords []string
}

// Tables are scanned in order and the first hit wins.
var manufactureTypes = []synonyms{
	{"TREFILADA", []string{"TREFILADA", "TREFILADO", "TREFIL", "TREFI"}},
	{"LAMINADA", []string{"LAMINADA", "LAMINADO", "LAMIN", "LAMI"}},
	{"FORJADA", []string{"FORJADA", "FORJADO", "FORJ"}},
}

var materials = []synonyms{
	{"ACERO", []string{"ACERO", "AC.", "AC "}},
	{"INOX", []string{"INOX", "INOXIDABLE", "ACERO INOX"}},
	{"GALVANIZADO", []string{"GALVANIZADO", "GALV", "GALVANIZADA", "GALV."}},
	{"BRONCE", []string{"BRONCE"}},
	{"ZINC", []string{"ZINC", "ZINCADO"}},
}

var shapes = []string{"CURVA", "PLANA", "SEMICURVA", "/S/CURVA", "RECTA"}

// StandardSizes lists the usual clamp sizes in inches, smallest first.
var StandardSizes = []string{
	"1/4", "5/16", "3/8", "7/16", "1/2", "9/16", "5/8", "11/16",
	"3/4", "13/16", "7/8", "15/16", "1", "1-1/8", "1-1/4", "1-3/8",
	"1-1/2", "1-5/8", "1-3/4", "2", "2-1/4", "2-1/2", "3", "4",
}
