// internal/utils/logger/config.go
package logger

type Config struct {
	LogFile     string // пустая строка отключает запись в файл
	MaxSize     int    // мегабайты
	MaxAge      int    // дни
	MaxBackups  int    // количество файлов
	Compress    bool   // сжимать ротированные файлы
	Development bool
}

// DefaultConfig возвращает конфигурацию по умолчанию
func DefaultConfig() *Config {
	return &Config{
		LogFile:     "auction-house.log",
		MaxSize:     50,
		MaxAge:      14,
		MaxBackups:  5,
		Compress:    true,
		Development: false,
	}
}
