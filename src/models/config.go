package models

// MConfig Structure
type MConfig struct {
	Name        string             `yaml:"name"`
	Host        string             `yaml:"host"`
	Port        int                `yaml:"port"`
	LogLevel    string             `yaml:"log_level"`
	GrpcHost    string             `yaml:"grpc_host"`
	GrpcPort    int                `yaml:"grpc_port"`
	Storage     MStorageConfig     `yaml:"storage"`
	OrderServer MOrderServerConfig `yaml:"order_server"`
	Clients     MClientsConfig     `yaml:"clients"`
}

type MStorageConfig struct {
	DBType             string `yaml:"db_type"` // none, sqlite or postgres
	DBPath             string `yaml:"db_path"`
	DBConnectionString string `yaml:"db_connection_string"`
}

type MOrderServerConfig struct {
	HistoryCapacity int `yaml:"history_capacity"`
	MaxClients      int `yaml:"max_clients"` // 0 means unlimited
	TickIntervalMs  int `yaml:"tick_interval_ms"`
	JournalBuffer   int `yaml:"journal_buffer"`
}

type MClientsConfig struct {
	Count           int      `yaml:"count"`
	ThinkMinMs      int      `yaml:"think_min_ms"`
	ThinkMaxMs      int      `yaml:"think_max_ms"`
	CooldownMinMs   int      `yaml:"cooldown_min_ms"`
	CooldownMaxMs   int      `yaml:"cooldown_max_ms"`
	SymbolLength    int      `yaml:"symbol_length"`
	MarketHoursOnly bool     `yaml:"market_hours_only"`
	Exchanges       []string `yaml:"exchanges"` // MIC codes, e.g. xnys
}
