package location

import (
	"path/filepath"
	"testing"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want Location
	}{
		{"simple", "calc/calc_test.go:42", Location{"calc/calc_test.go", 42}},
		{"leading dot slash", "./spec/foo_spec.rb:7", Location{"./spec/foo_spec.rb", 7}},
		{"windows drive", `C:\src\calc_test.go:9`, Location{`C:\src\calc_test.go`, 9}},
		{"surrounding whitespace", "  a.go:3\n", Location{"a.go", 3}},
		{"no colon", "calc_test.go", Location{}},
		{"trailing colon", "calc_test.go:", Location{}},
		{"non-numeric line", "calc_test.go:abc", Location{}},
		{"zero line", "calc_test.go:0", Location{}},
		{"empty", "", Location{}},
		{"colon only", ":12", Location{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Parse(tt.raw); got != tt.want {
				t.Errorf("Parse(%q) = %+v, want %+v", tt.raw, got, tt.want)
			}
		})
	}
}

func TestFromTrace(t *testing.T) {
	tests := []struct {
		name  string
		trace string
		want  Location
	}{
		{"rspec frame", "spec/foo_spec.rb:42:in 'block'", Location{"spec/foo_spec.rb", 42}},
		{"line at end", "calc_test.go:15", Location{"calc_test.go", 15}},
		{"go test log line", "    calc_test.go:15: expected: 2", Location{"calc_test.go", 15}},
		{"column after line", "/src/a.go:10:5: undefined: x", Location{"/src/a.go", 10}},
		{
			name:  "first matching line wins",
			trace: "goroutine 7 [running]:\n/src/calc.go:21 +0x1d\n/src/calc_test.go:33: boom\n/src/other.go:1",
			want:  Location{"/src/calc_test.go", 33},
		},
		{"digits followed by space do not match", "/src/calc.go:21 +0x1d", Location{}},
		{"no location", "panic: runtime error", Location{}},
		{"empty", "", Location{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FromTrace(tt.trace); got != tt.want {
				t.Errorf("FromTrace(%q) = %+v, want %+v", tt.trace, got, tt.want)
			}
		})
	}
}

func TestFromFrames(t *testing.T) {
	tests := []struct {
		name   string
		frames []string
		want   Location
	}{
		{"first frame", []string{"calc.go:3: calc.Add", "calc_test.go:9: calc.TestAdd"}, Location{"calc.go", 3}},
		{"first frame unparsable", []string{"???", "calc_test.go:9"}, Location{}},
		{"nil", nil, Location{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FromFrames(tt.frames); got != tt.want {
				t.Errorf("FromFrames(%v) = %+v, want %+v", tt.frames, got, tt.want)
			}
		})
	}
}

func TestLocation_Valid(t *testing.T) {
	if (Location{}).Valid() {
		t.Error("zero Location should not be valid")
	}
	if (Location{File: "a.go"}).Valid() {
		t.Error("Location without line should not be valid")
	}
	loc := Location{File: "a.go", Line: 4}
	if !loc.Valid() {
		t.Error("Location with file and line should be valid")
	}
	if got := loc.String(); got != "a.go:4" {
		t.Errorf("String() = %q, want %q", got, "a.go:4")
	}
}

func TestRelative(t *testing.T) {
	base := t.TempDir()
	inside := filepath.Join(base, "calc", "calc_test.go")
	outside := filepath.Join(filepath.Dir(base), "elsewhere.go")

	tests := []struct {
		name string
		path string
		base string
		want string
	}{
		{"inside base", inside, base, "calc/calc_test.go"},
		{"outside base", outside, base, outside},
		{"already relative", "calc/calc_test.go", base, "calc/calc_test.go"},
		{"empty base", inside, "", inside},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Relative(tt.path, tt.base); got != tt.want {
				t.Errorf("Relative(%q, %q) = %q, want %q", tt.path, tt.base, got, tt.want)
			}
		})
	}
}
