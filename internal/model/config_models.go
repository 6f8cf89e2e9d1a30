package model

// Config holds the application settings.
type Config struct {
	Target               string `json:"target" mapstructure:"target"`
	DatabaseDir          string `json:"database_dir" mapstructure:"database_dir"`
	DatabaseFile         string `json:"database_file" mapstructure:"database_file"`
	LogFolder            string `json:"log_folder" mapstructure:"log_folder"`
	CommandLog           string `json:"command_log" mapstructure:"command_log"`
	ErrorLog             string `json:"error_log" mapstructure:"error_log"`
	InfoLog              string `json:"info_log" mapstructure:"info_log"`
	LogLevel             string `json:"log_level" mapstructure:"log_level"`
	LogToStderr          bool   `json:"log_to_stderr" mapstructure:"log_to_stderr"`
	DocsDir              string `json:"docs_dir" mapstructure:"docs_dir"`
	ChartType            string `json:"charttype" mapstructure:"charttype"`
	TurboMode            bool   `json:"turbo_mode" mapstructure:"turbo_mode"`
	DuplicateLinkCeiling int    `json:"duplicate_link_ceiling" mapstructure:"duplicate_link_ceiling"`
	IgnoreRTF            bool   `json:"ignore_rtf" mapstructure:"ignore_rtf"`
	PreviewAddr          string `json:"preview_addr" mapstructure:"preview_addr"`
	HistoryFile          string `json:"history_file" mapstructure:"history_file"`
}
