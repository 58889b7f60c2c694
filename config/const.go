package config

import "strings"

// AppVersion is the version of the application, set at build time.
var AppVersion string

// AppName is the name of the application.
const AppName = "Courtside"

// LogWinSubDir is the sub directory for the log files on windows.
var LogWinSubDir = AppName

// LogSubDir is the sub directory for the log files.
var LogSubDir = "." + strings.ToLower(AppName)

// LogExt is the extension for the log files.
var LogExt = ".log"

// ConfigFileName is the name of the JSON configuration file inside the app directory.
const ConfigFileName = "config.json"

// DataSubDir holds persisted profile data inside the app directory.
const DataSubDir = "data"

// DefaultAPIAddr is the loopback address the local API listens on.
const DefaultAPIAddr = "127.0.0.1:49460"

// DefaultGeocoderURL is a Nominatim-compatible geocoding endpoint.
const DefaultGeocoderURL = "https://nominatim.openstreetmap.org"

// MaxUploadBytes is the largest image file accepted for cropping (5MB).
const MaxUploadBytes = 5 * 1024 * 1024
