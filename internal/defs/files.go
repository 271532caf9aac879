package defs

// Directory and file names of the converter's own configuration.
const (
	// ConfigDir is the per-project configuration directory.
	ConfigDir = ".modconvert"

	// ConfigSubdir holds the section files below ConfigDir.
	ConfigSubdir = "config"

	// SectionsSubdir is the directory of YAML section files below ConfigSubdir.
	SectionsSubdir = "sections"

	// RulesSubdir is the default rules directory below ConfigDir.
	RulesSubdir = "rules"

	// DefaultOutputDir is used when no output folder is configured.
	DefaultOutputDir = "Output"
)

// Section YAML file names under .modconvert/config/sections/.
const (
	SettingsYAML = "settings.yaml"
	SystemYAML   = "system.yaml"
)

// Rule table files under the rules directory.
const (
	// ConversionRulesSubdir contains literal conversion tables (*.json, *.yaml).
	ConversionRulesSubdir = "conversion"

	RegexRulesYAML = "regex.yaml"
	AudioRulesYAML = "audio.yaml"
	WarningsYAML   = "warnings.yaml"
)

// Mod tree conventions.
const (
	// ModSuffix marks a folder as a self-contained mod bundle.
	ModSuffix = ".rte"

	// DesktopINI is a Windows shell file that is never converted or copied.
	DesktopINI = "desktop.ini"

	// ZipExt is the extension of zipped mods.
	ZipExt = ".zip"
)

// File extensions the pipeline cares about. All lower case.
const (
	ExtINI  = ".ini"
	ExtLua  = ".lua"
	ExtBMP  = ".bmp"
	ExtPNG  = ".png"
	ExtWAV  = ".wav"
	ExtFLAC = ".flac"
	ExtOGG  = ".ogg"
	ExtMP3  = ".mp3"
	ExtTXT  = ".txt"
)

// ProtectedBitmaps are palette images the target game still loads as .bmp.
// References to them are never renamed and the files are copied unchanged.
var ProtectedBitmaps = []string{"palette.bmp", "palettemat.bmp"}

// AssetExtensions are the extensions that mark a token as a file reference
// during case reconciliation.
var AssetExtensions = []string{ExtPNG, ExtBMP, ExtWAV, ExtFLAC, ExtOGG, ExtMP3, ExtLua, ExtINI, ExtTXT}
