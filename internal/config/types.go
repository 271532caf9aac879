package config

// Config is the root configuration aggregate containing all sections.
type Config struct {
	Settings SettingsConfig `yaml:"settings"`
	System   SystemConfig   `yaml:"system"`
}

// SettingsConfig represents the conversion settings section. Folder paths
// are relative to the working directory unless absolute.
type SettingsConfig struct {
	// InputFolder holds the mods to convert, or is a single *.rte folder.
	InputFolder string `yaml:"input_folder" env:"INPUT_FOLDER"`
	// ReferenceFolder is the target game's data folder, used as the
	// trusted corpus for case reconciliation.
	ReferenceFolder string `yaml:"reference_folder" env:"REFERENCE_FOLDER"`
	OutputFolder    string `yaml:"output_folder" env:"OUTPUT_FOLDER"`
	// RulesFolder holds community rule tables loaded after the built-in ones.
	RulesFolder string `yaml:"rules_folder" env:"RULES_FOLDER"`

	SkipConversion bool `yaml:"skip_conversion" env:"SKIP_CONVERSION"`
	SkipCaseCheck  bool `yaml:"skip_case_check" env:"SKIP_CASE_CHECK"`
	OutputZips     bool `yaml:"output_zips" env:"OUTPUT_ZIPS"`
	UnzipInputs    bool `yaml:"unzip_inputs" env:"UNZIP_INPUTS"`

	// ReportFile receives the warning report when set.
	ReportFile string `yaml:"report_file" env:"REPORT_FILE"`
	// FinishBell rings the terminal bell when a run completes.
	FinishBell bool `yaml:"finish_bell" env:"FINISH_BELL"`

	// Ignore lists doublestar patterns of input paths to leave out.
	Ignore []string `yaml:"ignore" env:"IGNORE" envSeparator:","`
}

// SystemConfig represents the system configuration section.
type SystemConfig struct {
	LogLevel       string `yaml:"log_level" env:"LOG_LEVEL"`
	LogFormat      string `yaml:"log_format" env:"LOG_FORMAT"`
	NoColor        bool   `yaml:"no_color" env:"NO_COLOR"`
	NonInteractive bool   `yaml:"non_interactive" env:"NON_INTERACTIVE"`
}

// settingsFileWrapper wraps SettingsConfig for YAML file loading.
type settingsFileWrapper struct {
	Settings SettingsConfig `yaml:"settings"`
}

// systemFileWrapper wraps SystemConfig for YAML file loading.
type systemFileWrapper struct {
	System SystemConfig `yaml:"system"`
}
