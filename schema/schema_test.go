package schema_test

import (
	"encoding/json"
	"reflect"
	"sort"
	"strings"
	"testing"

	"github.com/AndreyAkinshin/ontap/internal/config"
	"github.com/AndreyAkinshin/ontap/internal/report"
	"github.com/AndreyAkinshin/ontap/schema"
)

func load(t *testing.T, name string) map[string]any {
	t.Helper()
	data, err := schema.FS.ReadFile(name)
	if err != nil {
		t.Fatalf("failed to read %s: %v", name, err)
	}
	var v map[string]any
	if err := json.Unmarshal(data, &v); err != nil {
		t.Fatalf("%s is not a JSON object: %v", name, err)
	}
	return v
}

// lookup walks nested objects along keys.
func lookup(t *testing.T, v map[string]any, keys ...string) any {
	t.Helper()
	var cur any = v
	for _, k := range keys {
		m, ok := cur.(map[string]any)
		if !ok {
			t.Fatalf("%s: not an object", strings.Join(keys, "."))
		}
		cur = m[k]
	}
	return cur
}

func strs(v any) []string {
	items, _ := v.([]any)
	out := make([]string, 0, len(items))
	for _, item := range items {
		out = append(out, item.(string))
	}
	sort.Strings(out)
	return out
}

func TestTAPYJ_DocumentTypes(t *testing.T) {
	t.Parallel()
	s := load(t, "tapyj.schema.json")

	want := []string{report.TypeCase, report.TypeFinal, report.TypeNote, report.TypeSuite, report.TypeTest}
	sort.Strings(want)
	if got := strs(lookup(t, s, "properties", "type", "enum")); !reflect.DeepEqual(got, want) {
		t.Errorf("type enum = %v, want %v", got, want)
	}

	// Every type is dispatched to its own definition.
	branches, _ := s["allOf"].([]any)
	dispatched := map[string]string{}
	for _, b := range branches {
		branch := b.(map[string]any)
		typ, _ := lookup(t, branch, "if", "properties", "type", "const").(string)
		ref, _ := lookup(t, branch, "then", "$ref").(string)
		dispatched[typ] = ref
	}
	for _, typ := range want {
		ref := dispatched[typ]
		if ref != "#/$defs/"+typ {
			t.Errorf("type %q dispatches to %q", typ, ref)
			continue
		}
		if lookup(t, s, "$defs", typ) == nil {
			t.Errorf("$defs.%s is missing", typ)
		}
	}
}

func TestTAPYJ_Revision(t *testing.T) {
	t.Parallel()
	s := load(t, "tapyj.schema.json")

	rev := lookup(t, s, "$defs", "suite", "properties", "rev", "const")
	if rev != float64(report.Revision) {
		t.Errorf("suite rev const = %v, want %d", rev, report.Revision)
	}
	if required := strs(lookup(t, s, "$defs", "suite", "required")); !contains(required, "rev") {
		t.Errorf("suite required = %v, want rev", required)
	}
}

func TestTAPYJ_StatusesAndCounts(t *testing.T) {
	t.Parallel()
	s := load(t, "tapyj.schema.json")

	statuses := strs(lookup(t, s, "$defs", "test", "properties", "status", "enum"))
	counts := strs(lookup(t, s, "$defs", "final", "properties", "counts", "required"))
	for _, status := range statuses {
		if !contains(counts, status) {
			t.Errorf("status %q has no counter in final.counts", status)
		}
	}
	if !contains(counts, "total") {
		t.Errorf("final.counts required = %v, want total", counts)
	}
}

// TestConfigSchemaMatchesConfig keeps config.schema.json in step with the
// fields .ontap.json is decoded into.
func TestConfigSchemaMatchesConfig(t *testing.T) {
	t.Parallel()
	s := load(t, "config.schema.json")

	props, _ := s["properties"].(map[string]any)
	var inSchema []string
	for k := range props {
		if k != "$schema" {
			inSchema = append(inSchema, k)
		}
	}
	sort.Strings(inSchema)

	var inStruct []string
	typ := reflect.TypeOf(config.Config{})
	for i := 0; i < typ.NumField(); i++ {
		name, _, _ := strings.Cut(typ.Field(i).Tag.Get("json"), ",")
		if name != "" && name != "-" {
			inStruct = append(inStruct, name)
		}
	}
	sort.Strings(inStruct)

	if !reflect.DeepEqual(inSchema, inStruct) {
		t.Errorf("config.schema.json properties = %v, Config fields = %v", inSchema, inStruct)
	}
}

func contains(list []string, s string) bool {
	for _, item := range list {
		if item == s {
			return true
		}
	}
	return false
}
