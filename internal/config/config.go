package config

import (
	"fmt"
	"github.com/ilyakaznacheev/cleanenv"
	"log"
	"sync"
)

type Config struct {
	Env      string `yaml:"env" env-default:"local"`
	Telegram struct {
		ApiKey  string `yaml:"api_key" env-default:""`
		AdminId int64  `yaml:"admin_id" env-default:"0"`
		Enabled bool   `yaml:"enabled" env-default:"false"`
	} `yaml:"telegram"`
	Mongo struct {
		Host     string `yaml:"host" env-default:"127.0.0.1"`
		Port     string `yaml:"port" env-default:"27017"`
		User     string `yaml:"user" env-default:""`
		Password string `yaml:"password" env-default:""`
		Database string `yaml:"database" env-default:"marketchat"`
	} `yaml:"mongo"`
	Storage struct {
		Backend   string `yaml:"backend" env-default:"gridfs"` // "gridfs" | "s3"
		Bucket    string `yaml:"bucket" env-default:""`
		Region    string `yaml:"region" env-default:""`
		AccessKey string `yaml:"access_key" env-default:""`
		SecretKey string `yaml:"secret_key" env-default:""`
	} `yaml:"storage"`
	Files struct {
		Secret string `yaml:"secret" env-default:""`
		TTLMin int    `yaml:"ttl_min" env-default:"60"`
	} `yaml:"files"`
	Listen struct {
		BindIP string `yaml:"bind_ip" env-default:"127.0.0.1"`
		Port   string `yaml:"port" env-default:"9200"`
	} `yaml:"listen"`
}

var instance *Config
var once sync.Once

func MustLoad(path string) *Config {
	var err error
	once.Do(func() {
		instance = &Config{}
		if err = cleanenv.ReadConfig(path, instance); err != nil {
			desc, _ := cleanenv.GetDescription(instance, nil)
			err = fmt.Errorf("%s; %s", err, desc)
			instance = nil
			log.Fatal(err)
		}
	})
	return instance
}
