// Package config loads ontap settings from .ontap.json, the environment and
// an optional .env file.
package config

// FileName is the project-level configuration file, looked up in the
// project root.
const FileName = ".ontap.json"

// EnvFileName is the optional dotenv file read from the project root.
const EnvFileName = ".env"

// Config holds the settings shared by the ontap commands.
type Config struct {
	Format          string `json:"format,omitempty"`           // Output stream: tapy or tapj
	Input           string `json:"input,omitempty"`            // go test output form: auto, json or text
	Output          string `json:"output,omitempty"`           // Output file; empty means stdout
	Root            string `json:"root,omitempty"`             // Base directory for relative paths
	Radius          int    `json:"radius"`                     // Snippet radius in lines
	StripANSI       bool   `json:"strip_ansi,omitempty"`       // Strip ANSI escapes from captured output
	Validate        bool   `json:"validate,omitempty"`         // Validate each document before emitting
	FilterBacktrace bool   `json:"filter_backtrace,omitempty"` // Drop runtime and testing frames
	LogLevel        string `json:"log_level,omitempty"`
}

// Input forms of go test output.
const (
	InputAuto = "auto"
	InputJSON = "json"
	InputText = "text"
)
