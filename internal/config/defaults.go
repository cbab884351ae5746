package config

const (
	defaultRoot         = "~/Pictures"
	defaultTrashDirName = ".photodup-trash"
	defaultLogDir       = "~/.local/share/photodup/logs"
	defaultAPIBind      = "127.0.0.1:8000"
	defaultPageSize     = 24
	defaultLogFormat    = "console"
	defaultLogLevel     = "info"
)

func defaultExtensions() []string {
	return []string{".jpg", ".jpeg", ".png", ".gif", ".webp", ".bmp", ".tif", ".tiff"}
}

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			Root:         defaultRoot,
			TrashDirName: defaultTrashDirName,
			LogDir:       defaultLogDir,
			APIBind:      defaultAPIBind,
		},
		Scan: Scan{
			Extensions: defaultExtensions(),
		},
		Review: Review{
			PermanentDelete: false,
			PageSize:        defaultPageSize,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
