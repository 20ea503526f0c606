package clconfig

import (
	"fmt"
	"log/syslog"
	"os"
	"strings"
	"time"

	"github.com/andskur/argon2-hashing"
	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"
)

const (
	DefaultSheetID     = "YOUR_GOOGLE_SHEET_ID"
	DefaultResumeURL   = "https://codesmith17.github.io/resume/resume.pdf"
	DefaultIPAPIURL    = "https://ipapi.co"
	DefaultGeoTimeout  = 5 * time.Second
	DefaultAppendRange = "Sheet1!A1"
	DefaultReadRange   = "Sheet1!A:BB"
)

type Config struct {
	TrustedProxies  []string      `yaml:"trustedproxies"`
	TrustedPlatform string        `yaml:"trustedplatform"`
	StaticPath      string        `yaml:"staticpath" env:"STATIC_PATH"`
	Production      bool          `yaml:"production"`
	NodeEnv         string        `yaml:"-" env:"NODE_ENV"`
	Listen          ListenConfig  `yaml:"listen"`
	Logger          LoggerConfig  `yaml:"logger"`
	Resume          ResumeConfig  `yaml:"resume"`
	Sheets          SheetsConfig  `yaml:"sheets"`
	Geo             GeoConfig     `yaml:"geo"`
	Archive         ArchiveConfig `yaml:"archive"`
	Redis           RedisConfig   `yaml:"redis"`
	Stats           StatsConfig   `yaml:"stats"`
}

type ListenConfig struct {
	Website string `yaml:"website" env:"LISTEN"`
	Port    string `yaml:"-" env:"PORT"`
}

type ResumeConfig struct {
	URL string `yaml:"url" env:"RESUME_URL"`
}

// SheetsConfig décrit le sink Google Sheets. Sans credentials, le service
// tourne en mode développement.
type SheetsConfig struct {
	Credentials     string `yaml:"credentials" env:"GOOGLE_CREDENTIALS"`
	CredentialsFile string `yaml:"credentialsfile" env:"GOOGLE_CREDENTIALS_FILE"`
	SheetID         string `yaml:"sheetid" env:"SHEET_ID"`
	AppendRange     string `yaml:"appendrange"`
	ReadRange       string `yaml:"readrange"`
}

type GeoConfig struct {
	Provider string        `yaml:"provider" env:"GEO_PROVIDER"`
	URL      string        `yaml:"url" env:"IPAPI_URL"`
	Timeout  time.Duration `yaml:"timeout" env:"GEO_TIMEOUT"`
	CityDB   string        `yaml:"citydb" env:"GEO_CITY_DB"`
	ASNDB    string        `yaml:"asndb" env:"GEO_ASN_DB"`
}

type ArchiveConfig struct {
	Enabled       bool   `yaml:"enabled" env:"ARCHIVE_ENABLED"`
	Db            string `yaml:"db"`
	Path          string `yaml:"path" env:"ARCHIVE_PATH"`
	Dsn           string `yaml:"dsn" env:"ARCHIVE_DSN"`
	RetentionDays int    `yaml:"retentiondays"`
}

type RedisConfig struct {
	Addr string `yaml:"addr" env:"REDIS_ADDR"`
	Db   int    `yaml:"db"`
}

type StatsConfig struct {
	Login     string `yaml:"login"`
	Pass      string `yaml:"pass" env:"STATS_PASS"`
	Hash      string `yaml:"hash"`
	RateLimit int64  `yaml:"ratelimit"`
}

type LoggerConfig struct {
	Level  string             `yaml:"level" env:"LOG_LEVEL"`
	File   LoggerFileConfig   `yaml:"file"`
	Syslog LoggerSyslogConfig `yaml:"syslog"`
}

type LoggerFileConfig struct {
	Enable     bool   `yaml:"enable"`
	Path       string `yaml:"path"`
	MaxSize    int    `yaml:"maxsize"`
	MaxBackups int    `yaml:"maxbackups"`
	MaxAge     int    `yaml:"maxage"`
	Compress   bool   `yaml:"compress"`
}

type LoggerSyslogConfig struct {
	Enable   bool            `yaml:"enable"`
	Protocol string          `yaml:"protocol"`
	Address  string          `yaml:"address"`
	Tag      string          `yaml:"tag"`
	Priority syslog.Priority `yaml:"priority"`
}

// Development indique si le sink Sheets est désactivé.
func (c *Config) Development() bool {
	return c.SheetsCredentials() == "" || c.NodeEnv == "development"
}

// SheetsCredentials retourne le JSON du compte de service, inline ou depuis un fichier.
func (c *Config) SheetsCredentials() string {
	if c.Sheets.Credentials != "" {
		return c.Sheets.Credentials
	}
	if c.Sheets.CredentialsFile == "" {
		return ""
	}
	data, err := os.ReadFile(c.Sheets.CredentialsFile)
	if err != nil {
		log.Warn().Err(err).Str("path", c.Sheets.CredentialsFile).Msg("cannot read google credentials file")
		return ""
	}
	return string(data)
}

func CreateExampleConfig(filename string) (string, error) {
	example := &Config{
		StaticPath: "./static",
		Production: false,
		Listen: ListenConfig{
			Website: "0.0.0.0:3000",
		},
		Logger: LoggerConfig{
			Level: "info",
		},
		Resume: ResumeConfig{
			URL: DefaultResumeURL,
		},
		Sheets: SheetsConfig{
			SheetID:     DefaultSheetID,
			AppendRange: DefaultAppendRange,
			ReadRange:   DefaultReadRange,
		},
		Geo: GeoConfig{
			Provider: "ipapi",
			URL:      DefaultIPAPIURL,
			Timeout:  DefaultGeoTimeout,
		},
		Archive: ArchiveConfig{
			Enabled:       false,
			Db:            "sqlite",
			Path:          "./visits.db",
			RetentionDays: 30,
		},
		Stats: StatsConfig{
			RateLimit: 30,
		},
	}

	if filename == "/etc/" {
		example.Listen.Website = "127.0.0.1:3000"
		example.Production = true
		example.StaticPath = "/var/lib/resumetracker/static"
		example.Archive.Path = "/var/lib/resumetracker/visits.db"
		example.Logger.File = LoggerFileConfig{
			Enable:     true,
			Path:       "/var/log/resumetracker/resumetracker.log",
			MaxSize:    100,
			MaxBackups: 30,
			MaxAge:     7,
			Compress:   true,
		}
		filename = "/etc/resumetracker/config.yaml"
	}

	return filename, WriteConfigYaml(filename, example)
}

func WriteConfigYaml(filename string, conf *Config) error {
	data, err := yaml.Marshal(conf)
	if err != nil {
		return err
	}

	if err := os.WriteFile(filename, data, 0600); err != nil {
		return err
	}
	// WriteFile ne change pas les droits d'un fichier existant
	return os.Chmod(filename, 0600)
}

// Charger la configuration YAML. Sans fichier, seules les variables
// d'environnement sont utilisées.
func LoadConfig(filename string) (*Config, error) {
	var config Config
	if filename == "" {
		return &config, nil
	}

	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("impossible de lire le fichier %s: %w", filename, err)
	}

	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("erreur de parsing YAML: %w", err)
	}

	return &config, nil
}

// ApplyEnv surcharge la configuration avec l'environnement (et un .env éventuel).
func ApplyEnv(conf *Config) error {
	// le fichier .env est optionnel
	_ = godotenv.Load()

	if err := env.Parse(conf); err != nil {
		return fmt.Errorf("erreur de lecture de l'environnement: %w", err)
	}
	return nil
}

// ApplyDefaults complète les valeurs manquantes
func ApplyDefaults(conf *Config) {
	if conf.Listen.Port != "" {
		conf.Listen.Website = "0.0.0.0:" + conf.Listen.Port
	}
	if conf.Listen.Website == "" {
		conf.Listen.Website = "localhost:3000"
	}
	if strings.HasPrefix(conf.Listen.Website, ":") {
		conf.Listen.Website = "localhost" + conf.Listen.Website
	}
	if conf.StaticPath == "" {
		conf.StaticPath = "./static"
	}
	if conf.Logger.Level == "" {
		conf.Logger.Level = "info"
	}
	if conf.Resume.URL == "" {
		conf.Resume.URL = DefaultResumeURL
	}
	if conf.Sheets.SheetID == "" {
		conf.Sheets.SheetID = DefaultSheetID
	}
	if conf.Sheets.AppendRange == "" {
		conf.Sheets.AppendRange = DefaultAppendRange
	}
	if conf.Sheets.ReadRange == "" {
		conf.Sheets.ReadRange = DefaultReadRange
	}
	if conf.Geo.Provider == "" {
		conf.Geo.Provider = "ipapi"
	}
	if conf.Geo.URL == "" {
		conf.Geo.URL = DefaultIPAPIURL
	}
	if conf.Geo.Timeout <= 0 {
		conf.Geo.Timeout = DefaultGeoTimeout
	}
	if conf.Archive.Db == "" {
		conf.Archive.Db = "sqlite"
	}
	if conf.Archive.RetentionDays <= 0 {
		conf.Archive.RetentionDays = 30
	}
	if conf.Stats.RateLimit <= 0 {
		conf.Stats.RateLimit = 30
	}
}

// Validate vérifie la cohérence de la configuration
func Validate(conf *Config) error {
	switch conf.Geo.Provider {
	case "ipapi":
	case "maxmind":
		if conf.Geo.CityDB == "" {
			return fmt.Errorf("geo.citydb ne peut pas être vide avec le provider maxmind")
		}
	default:
		return fmt.Errorf("geo.provider doit etre ipapi ou maxmind, pas %q", conf.Geo.Provider)
	}

	if conf.Archive.Enabled {
		switch conf.Archive.Db {
		case "sqlite":
			if conf.Archive.Path == "" {
				return fmt.Errorf("archive.path ne peut pas être vide")
			}
		case "mysql":
			if conf.Archive.Dsn == "" {
				return fmt.Errorf("archive.dsn ne peut pas être vide")
			}
		default:
			return fmt.Errorf("archive.db doit etre sqlite ou mysql")
		}
	}

	if conf.Stats.Pass != "" && len(conf.Stats.Pass) < 8 {
		return fmt.Errorf("le mot de passe des stats doit contenir au moins 8 caractères")
	}
	if conf.Stats.Pass != "" && conf.Stats.Login == "" {
		return fmt.Errorf("stats.login ne peut pas être vide si un mot de passe est défini")
	}
	return nil
}

// Load charge le fichier, applique l'environnement, les valeurs par défaut,
// valide puis hash le mot de passe des stats en argon2.
func Load(configFile string) (*Config, error) {
	conf, err := LoadConfig(configFile)
	if err != nil {
		return nil, fmt.Errorf("erreur chargement config: %w", err)
	}
	if err := ApplyEnv(conf); err != nil {
		return nil, err
	}
	ApplyDefaults(conf)
	if err := Validate(conf); err != nil {
		return nil, err
	}

	if conf.Stats.Pass != "" {
		hash, err := argon2.GenerateFromPassword([]byte(conf.Stats.Pass), argon2.DefaultParams)
		if err != nil {
			return nil, err
		}
		conf.Stats.Hash = string(hash)
		conf.Stats.Pass = ""
		if configFile != "" && os.Getenv("STATS_PASS") == "" {
			if err := persistStatsHash(configFile, conf.Stats.Hash); err != nil {
				return nil, err
			}
		}
	}

	return conf, nil
}

// persistStatsHash relit le fichier et n'y remplace que le mot de passe des
// stats, les valeurs venant de l'environnement ne sont jamais écrites
func persistStatsHash(configFile, hash string) error {
	fileConf, err := LoadConfig(configFile)
	if err != nil {
		return err
	}
	fileConf.Stats.Hash = hash
	fileConf.Stats.Pass = ""
	return WriteConfigYaml(configFile, fileConf)
}

func CreateExample(shouldCreateExample bool, configFile string) {
	if shouldCreateExample {
		if err := handleExampleCreation(configFile); err != nil {
			fmt.Printf("❌ %v\n", err)
		}
		os.Exit(1)
	}
}

func handleExampleCreation(filename string) error {
	if filename == "" {
		filename = "resumetracker.yaml"
	}
	filename, err := CreateExampleConfig(filename)
	if err != nil {
		return fmt.Errorf("erreur création exemple: %w", err)
	}

	fmt.Printf("✅ Fichier exemple créé: %s\n", filename)
	fmt.Println("⚠️  stats.pass sera automatiquement hash en argon2 dans stats.hash au premier lancement")
	return nil
}

func DisplayConfiguration(config *Config, version string) {
	logPrintf("Resumetracker version %s", version)

	logPrintf("Mode Production %v", config.Production)
	if config.Development() {
		logPrintf("Google Sheets désactivé, les visites sont écrites dans les logs")
	} else {
		logPrintf("Google Sheets activé")
		logPrintf("  • Sheet %s", config.Sheets.SheetID)
		logPrintf("  • Range %s", config.Sheets.AppendRange)
	}
	logPrintf("Redirection vers %s", config.Resume.URL)

	logPrintf("Géolocalisation %s", config.Geo.Provider)
	if config.Geo.Provider == "maxmind" {
		logPrintf("  • City db %s", config.Geo.CityDB)
		if config.Geo.ASNDB != "" {
			logPrintf("  • ASN db %s", config.Geo.ASNDB)
		}
	} else {
		logPrintf("  • URL %s", config.Geo.URL)
		logPrintf("  • Timeout %s", config.Geo.Timeout)
	}

	if config.Archive.Enabled {
		logPrintf("Archive activée")
		if config.Archive.Db == "sqlite" {
			logPrintf("  • Sqlite path %s", config.Archive.Path)
		} else {
			logPrintf("  • mysql dsn %s", config.Archive.Dsn)
		}
		logPrintf("  • Rétention %d jours", config.Archive.RetentionDays)
	} else {
		logPrintf("Archive désactivée")
	}

	if config.Redis.Addr != "" {
		logPrintf("Compteurs redis %s", config.Redis.Addr)
	}
	if config.Stats.Hash != "" {
		logPrintf("Stats protégées, login %s", config.Stats.Login)
	}

	logPrintf("Logger en level %s", config.Logger.Level)
	if config.Logger.File.Enable {
		logPrintf("  Log en fichier activé")
		logPrintf("  • Path %s", config.Logger.File.Path)
		logPrintf("  • Max size %d", config.Logger.File.MaxSize)
		logPrintf("  • Max age %d", config.Logger.File.MaxAge)
		logPrintf("  • Max backup %d", config.Logger.File.MaxBackups)
		logPrintf("  • Compression %v", config.Logger.File.Compress)
	}
	if config.Logger.Syslog.Enable {
		logPrintf("  Log en syslog activé")
		logPrintf("  • Protocol %s", config.Logger.Syslog.Protocol)
		logPrintf("  • Address %s", config.Logger.Syslog.Address)
		logPrintf("  • Tag %s", config.Logger.Syslog.Tag)
	}
}

func logPrintf(format string, a ...any) {
	log.Info().Msgf(format, a...)
}
