package dto

import "github.com/Saecki/polaris/internal/app/ddns"

type DDNSConfig struct {
	Host     string `json:"host" toml:"host"`
	Username string `json:"username" toml:"username"`
	Password string `json:"password" toml:"password"`
}

func NewDDNSConfig(c ddns.Config) DDNSConfig {
	return DDNSConfig{Host: c.Host, Username: c.Username, Password: c.Password}
}

func (c DDNSConfig) Internal() ddns.Config {
	return ddns.Config{Host: c.Host, Username: c.Username, Password: c.Password}
}
