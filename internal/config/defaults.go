package config

// ApplyDefaults sets default values for any zero values in cfg.
func ApplyDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Storage.LocalRoot == "" {
		cfg.Storage.LocalRoot = "/usr/local/var/ronbun/data/papers"
	}
	if cfg.Storage.Namespace == "" {
		cfg.Storage.Namespace = "papers"
	}
	if cfg.Storage.LedgerPath == "" {
		cfg.Storage.LedgerPath = "/usr/local/var/ronbun/data/db/ledger.db"
	}
	if cfg.Fetch.DirectURLTemplate == "" {
		cfg.Fetch.DirectURLTemplate = "https://arxiv.org/pdf/%s.pdf"
	}
	if cfg.Fetch.LandingURLTemplate == "" {
		cfg.Fetch.LandingURLTemplate = "https://arxiv.org/abs/%s"
	}
	if cfg.Fetch.UserAgent == "" {
		cfg.Fetch.UserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) " +
			"AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
	}
	if cfg.Fetch.TimeoutSeconds == 0 {
		cfg.Fetch.TimeoutSeconds = 60
	}
	if cfg.Parse.TimeoutMinutes == 0 {
		cfg.Parse.TimeoutMinutes = 30
	}
	if cfg.Translate.BaseURL == "" {
		cfg.Translate.BaseURL = "https://api.openai.com/v1"
	}
	if cfg.Translate.Model == "" {
		cfg.Translate.Model = "gpt-4o-mini"
	}
	if cfg.Translate.APIKeyEnv == "" {
		cfg.Translate.APIKeyEnv = "OPENAI_API_KEY"
	}
	if cfg.Translate.Temperature == 0 {
		cfg.Translate.Temperature = 0.2
	}
	if cfg.Translate.MaxChars == 0 {
		cfg.Translate.MaxChars = 6000
	}
	if cfg.Translate.TimeoutSeconds == 0 {
		cfg.Translate.TimeoutSeconds = 90
	}
	if cfg.Translate.Style == "" {
		cfg.Translate.Style = "blockquote"
	}
	if cfg.Translate.MinHeadingLevel == 0 {
		cfg.Translate.MinHeadingLevel = 1
	}
	if cfg.Translate.TargetLang == "" {
		cfg.Translate.TargetLang = "zh"
	}
	if cfg.Stream.ChunkBytes == 0 {
		cfg.Stream.ChunkBytes = 4096
	}
	if cfg.Stream.KeepaliveSeconds == 0 {
		cfg.Stream.KeepaliveSeconds = 15
	}
}
