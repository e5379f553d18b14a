package registry

import "testing"

func TestKeysMatchFieldOrder(t *testing.T) {
	t.Parallel()

	want := []string{
		"cement", "slag", "flyash", "water",
		"superplasticizer", "coarseagg", "fineagg", "age",
	}
	keys := Keys()
	if len(keys) != len(want) {
		t.Fatalf("expected %d keys, got %d (%v)", len(want), len(keys), keys)
	}
	for idx, key := range want {
		if keys[idx] != key {
			t.Fatalf("key %d: expected %q, got %q", idx, key, keys[idx])
		}
	}
}

func TestOnlyAgeIsIntegerConstrained(t *testing.T) {
	t.Parallel()

	for _, field := range Fields() {
		if field.Integer != (field.Key == "age") {
			t.Fatalf("unexpected integer constraint on %q", field.Key)
		}
	}
}

func TestEveryFieldHasLabelAndUnit(t *testing.T) {
	t.Parallel()

	for _, field := range Fields() {
		if field.Label == "" || field.Unit == "" {
			t.Fatalf("field %q missing label or unit", field.Key)
		}
	}
}

func TestLookup(t *testing.T) {
	t.Parallel()

	field, ok := Lookup("water")
	if !ok {
		t.Fatalf("expected water to resolve")
	}
	if field.Label != "Water" || field.Unit != "kg/m³" {
		t.Fatalf("unexpected water field: %+v", field)
	}
	if _, ok := Lookup("aggregate"); ok {
		t.Fatalf("expected unknown key to miss")
	}
}

func TestFieldsReturnsACopy(t *testing.T) {
	t.Parallel()

	mutated := Fields()
	mutated[0].Label = "Changed"
	if Fields()[0].Label != "Cement" {
		t.Fatalf("expected registry to be immutable")
	}
}
