package normalize_test

import (
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-crudform/pkg/normalize"
	"github.com/goliatone/go-crudform/pkg/schema"
	"github.com/goliatone/go-crudform/pkg/testsupport"
)

func TestNormalize_GeneralScenario(t *testing.T) {
	raw := testsupport.LoadSchema(t, filepath.Join("testdata", "general.json"))

	got := normalize.Normalize(raw)

	if diff := cmp.Diff([]string{"id", "name", "action"}, columnKeys(got.Columns)); diff != "" {
		t.Fatalf("columns mismatch (-want +got):\n%s", diff)
	}

	want := []normalize.FieldGroup{{
		Title:      "General",
		SectionKey: "general",
		Fields: []normalize.FormField{
			{ID: "name", Label: "Name", Type: "textinput", ClassName: "w-full", ErrMsg: "Enter Name"},
			{
				ID:        "status",
				Label:     "Status",
				Type:      "dropdown",
				ClassName: "w-full",
				ErrMsg:    "Enter Status",
				Options:   []schema.Option{{Value: "open", Label: "Open"}},
			},
		},
	}}
	if diff := cmp.Diff(want, got.GroupedFields); diff != "" {
		t.Fatalf("grouped fields mismatch (-want +got):\n%s", diff)
	}
	if len(got.PrintableFields) != 0 {
		t.Fatalf("expected no printable fields, got %v", got.PrintableKeys())
	}
}

func TestNormalize_SalesFixture(t *testing.T) {
	raw := testsupport.LoadSchema(t, filepath.Join("testdata", "sales.json"))

	got := normalize.Normalize(raw)

	wantColumns := []string{"id", "customer_name", "posting_date", "grand_total", "action"}
	if diff := cmp.Diff(wantColumns, columnKeys(got.Columns)); diff != "" {
		t.Fatalf("columns mismatch (-want +got):\n%s", diff)
	}

	wantGroups := []normalize.FieldGroup{
		{
			Title:      "Customer",
			SectionKey: "customer",
			Fields: []normalize.FormField{
				{ID: "customer_name", Label: "Customer", Type: "textinput", ClassName: "w-full", ErrMsg: "Enter Customer"},
				{
					ID:        "customer_group",
					Label:     "Group",
					Type:      "searchable-dropdown",
					ClassName: "w-full",
					ErrMsg:    "Enter Group",
					Options: []schema.Option{
						{Value: "retail", Label: "Retail"},
						{Value: "wholesale", Label: "Wholesale"},
					},
					ReadAPI: "/api/customer-groups",
					APIKey:  "name",
				},
			},
		},
		{
			Title:      "invoice",
			SectionKey: "invoice",
			Fields: []normalize.FormField{
				{ID: "posting_date", Label: "Posting Date", Type: "date", ClassName: "w-full", ErrMsg: "Enter Posting Date"},
				{ID: "currency", Label: "Currency", Type: "dropdown", ClassName: "w-full", ErrMsg: "Enter Currency"},
				{ID: "grand_total", Label: "Grand Total", Type: "number", ClassName: "w-full", ErrMsg: "Enter Grand Total", CreateKey: "total"},
				{ID: "payment_terms", Label: "Terms", Type: "textinput", ClassName: "w-full", ErrMsg: "Enter Terms"},
			},
		},
		{
			Title:      "Notes",
			SectionKey: "notes",
			Fields:     []normalize.FormField{},
		},
	}
	if diff := cmp.Diff(wantGroups, got.GroupedFields); diff != "" {
		t.Fatalf("grouped fields mismatch (-want +got):\n%s", diff)
	}

	if diff := cmp.Diff([]string{"customer_name", "posting_date", "grand_total"}, got.PrintableKeys()); diff != "" {
		t.Fatalf("printable mismatch (-want +got):\n%s", diff)
	}
	if got.PrintableFields[2].CreateKey != "total" {
		t.Fatalf("printable fields should keep the full field object, got %+v", got.PrintableFields[2])
	}
}

func TestNormalize_SalesGolden(t *testing.T) {
	raw := testsupport.LoadSchema(t, filepath.Join("testdata", "sales.json"))
	got := normalize.Normalize(raw)

	golden := filepath.Join("testdata", "sales.golden.json")
	testsupport.WriteGolden(t, golden, got)
	want := testsupport.MustLoadResult(t, golden)
	if diff := testsupport.CompareGolden(want, got); diff != "" {
		t.Fatalf("golden mismatch (-want +got):\n%s", diff)
	}
}

func TestNormalize_Idempotent(t *testing.T) {
	raw := testsupport.LoadSchema(t, filepath.Join("testdata", "sales.json"))

	first := normalize.Normalize(raw)
	second := normalize.Normalize(raw)

	if diff := cmp.Diff(first, second); diff != "" {
		t.Fatalf("normalize not idempotent (-first +second):\n%s", diff)
	}
}

func TestNormalize_ColumnCompleteness(t *testing.T) {
	raw := testsupport.LoadSchema(t, filepath.Join("testdata", "sales.json"))
	got := normalize.Normalize(raw)

	counts := make(map[string]int)
	for _, column := range got.Columns {
		counts[column.Key]++
	}
	for _, section := range raw.Sections {
		for _, field := range section.Fields {
			switch {
			case bool(field.InTable) && counts[field.Key] != 1:
				t.Fatalf("field %q flagged inTable appears %d times", field.Key, counts[field.Key])
			case !bool(field.InTable) && counts[field.Key] != 0:
				t.Fatalf("field %q not flagged inTable appears as a column", field.Key)
			}
		}
	}
}

func TestNormalize_ReservedKeysNeverInForms(t *testing.T) {
	raw := schema.MustDecode([]byte(`{"s":{"fields":[
		{"key":"id","label":"ID","isForm":true},
		{"key":"action","label":"Action","isForm":true},
		{"key":"ok","label":"OK","isForm":true}
	]}}`))

	got := normalize.Normalize(raw)

	for _, field := range got.FormFields() {
		if field.ID == schema.KeyID || field.ID == schema.KeyAction {
			t.Fatalf("reserved key %q leaked into form fields", field.ID)
		}
	}
	if len(got.FormFields()) != 1 {
		t.Fatalf("expected one form field, got %d", len(got.FormFields()))
	}
}

func TestNormalize_DropdownAttachment(t *testing.T) {
	cases := []struct {
		name        string
		field       string
		wantOptions bool
	}{
		{"dropdown with options", `{"key":"a","label":"A","type":"dropdown","options":[{"value":1,"label":"One"}],"isForm":true}`, true},
		{"dropdown variant", `{"key":"a","label":"A","type":"multi-dropdown","options":[],"isForm":true}`, true},
		{"dropdown without options", `{"key":"a","label":"A","type":"dropdown","isForm":true}`, false},
		{"dropdown null options", `{"key":"a","label":"A","type":"dropdown","options":null,"isForm":true}`, false},
		{"text with options", `{"key":"a","label":"A","type":"textinput","options":[{"value":1,"label":"One"}],"isForm":true}`, false},
		{"untyped with options", `{"key":"a","label":"A","options":[{"value":1,"label":"One"}],"isForm":true}`, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			raw := schema.MustDecode([]byte(`{"s":{"fields":[` + tc.field + `]}}`))
			fields := normalize.Normalize(raw).FormFields()
			if len(fields) != 1 {
				t.Fatalf("expected one field, got %d", len(fields))
			}
			if got := fields[0].Options != nil; got != tc.wantOptions {
				t.Fatalf("options attached = %v, want %v", got, tc.wantOptions)
			}

			payload, err := json.Marshal(fields[0])
			if err != nil {
				t.Fatalf("marshal: %v", err)
			}
			var decoded map[string]any
			if err := json.Unmarshal(payload, &decoded); err != nil {
				t.Fatalf("unmarshal: %v", err)
			}
			if _, ok := decoded["options"]; ok != tc.wantOptions {
				t.Fatalf("options key present = %v, want %v (%s)", ok, tc.wantOptions, payload)
			}
		})
	}
}

func TestNormalize_EmptySchema(t *testing.T) {
	for name, raw := range map[string]schema.RawSchema{
		"zero value":   {},
		"empty object": schema.MustDecode([]byte(`{}`)),
		"null payload": schema.MustDecode([]byte(`null`)),
	} {
		t.Run(name, func(t *testing.T) {
			got := normalize.Normalize(raw)
			if diff := cmp.Diff(normalize.Empty(), got); diff != "" {
				t.Fatalf("expected empty result (-want +got):\n%s", diff)
			}
			payload, err := json.Marshal(got)
			if err != nil {
				t.Fatalf("marshal: %v", err)
			}
			want := `{"columns":[],"groupedFields":[],"printableFields":[]}`
			if string(payload) != want {
				t.Fatalf("want %s, got %s", want, payload)
			}
			if got.Ready() {
				t.Fatalf("empty result must not be ready")
			}
		})
	}
}

func TestNormalize_DefaultsTypeAndTitle(t *testing.T) {
	raw := schema.MustDecode([]byte(`{"misc":{"fields":[{"key":"memo","label":"Memo","isForm":true}]}}`))

	got := normalize.Normalize(raw)

	if got.GroupedFields[0].Title != "misc" {
		t.Fatalf("expected title to default to key, got %q", got.GroupedFields[0].Title)
	}
	if got.GroupedFields[0].Fields[0].Type != normalize.DefaultFieldType {
		t.Fatalf("expected default type, got %q", got.GroupedFields[0].Fields[0].Type)
	}
}

func columnKeys(columns []normalize.Column) []string {
	keys := make([]string, 0, len(columns))
	for _, column := range columns {
		keys = append(keys, column.Key)
	}
	return keys
}
