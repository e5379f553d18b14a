package registry

// Field describes one concrete-mix input: the identifier the backend expects,
// how the form labels it, and what kind of number the entry must be.
type Field struct {
	Key         string
	Label       string
	Unit        string
	Integer     bool // integer-only entry; all fields are non-negative
	Placeholder string
}

var fields = []Field{
	{Key: "cement", Label: "Cement", Unit: "kg/m³", Placeholder: "e.g. 540.0"},
	{Key: "slag", Label: "Blast Furnace Slag", Unit: "kg/m³", Placeholder: "e.g. 0.0"},
	{Key: "flyash", Label: "Fly Ash", Unit: "kg/m³", Placeholder: "e.g. 0.0"},
	{Key: "water", Label: "Water", Unit: "kg/m³", Placeholder: "e.g. 162.0"},
	{Key: "superplasticizer", Label: "Superplasticizer", Unit: "kg/m³", Placeholder: "e.g. 2.5"},
	{Key: "coarseagg", Label: "Coarse Aggregate", Unit: "kg/m³", Placeholder: "e.g. 1040.0"},
	{Key: "fineagg", Label: "Fine Aggregate", Unit: "kg/m³", Placeholder: "e.g. 676.0"},
	{Key: "age", Label: "Age", Unit: "days", Integer: true, Placeholder: "e.g. 28"},
}

// Fields returns the eight mix fields in form and serialization order.
func Fields() []Field {
	out := make([]Field, len(fields))
	copy(out, fields)
	return out
}

// Keys returns the field identifiers in serialization order.
func Keys() []string {
	keys := make([]string, 0, len(fields))
	for _, field := range fields {
		keys = append(keys, field.Key)
	}
	return keys
}

// Lookup returns the field definition for key.
func Lookup(key string) (Field, bool) {
	for _, field := range fields {
		if field.Key == key {
			return field, true
		}
	}
	return Field{}, false
}
